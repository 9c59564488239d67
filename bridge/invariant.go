package bridge

import "fmt"

// InvariantError reports a broken registry or collector contract. These are
// logic defects, never user-facing conditions, and are raised by panic.
type InvariantError struct {
	Msg string
}

func (e *InvariantError) Error() string {
	return "gcbridge invariant violated: " + e.Msg
}

func invariantf(format string, args ...any) *InvariantError {
	return &InvariantError{Msg: fmt.Sprintf(format, args...)}
}

// assertf panics when cond is false in builds with the gcbridge_debug tag.
// Release builds compile it to nothing.
func assertf(cond bool, format string, args ...any) {
	if debugAssertions && !cond {
		panic(invariantf(format, args...))
	}
}
