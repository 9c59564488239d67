package bridge

import "strings"

// Flags is the per-handle state bitset.
type Flags uint8

const (
	FlagMark  Flags = 1 << iota // reachable this pass (transient)
	FlagConst                   // permanent root, never swept
	FlagWeak                    // host reference demoted to observing
)

func (f Flags) Has(bits Flags) bool {
	return f&bits == bits
}

func (f Flags) String() string {
	if f == 0 {
		return "-"
	}
	var parts []string
	if f&FlagMark != 0 {
		parts = append(parts, "mark")
	}
	if f&FlagConst != 0 {
		parts = append(parts, "const")
	}
	if f&FlagWeak != 0 {
		parts = append(parts, "weak")
	}
	return strings.Join(parts, "|")
}

// Kind discriminates handle payloads. Only KindData handles carry a
// DataType with mark/free callbacks; everything else is a plain handle.
type Kind uint8

const (
	KindObject Kind = iota
	KindString
	KindArray
	KindHash
	KindData
)

var kindNames = [...]string{
	KindObject: "object",
	KindString: "string",
	KindArray:  "array",
	KindHash:   "hash",
	KindData:   "data",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Marker is handed to mark callbacks during a collection pass.
type Marker interface {
	// Mark flags v reachable. v must be a special constant or a live handle.
	Mark(v Value)
	// MarkMaybe flags v reachable only if it is a live handle identity.
	MarkMaybe(v Value)
	// MarkLocations marks every word in vs exactly.
	MarkLocations(vs []Value)
}

// MarkFunc walks the references owned by a data-kind handle's native
// payload, reporting each one to m. It runs with the collector locked and
// must not call back into the Collector.
type MarkFunc func(m Marker, data any)

// DataType describes the native side of data-kind handles.
type DataType struct {
	Name string
	Mark MarkFunc
	Free func(data any)
}

// Set names the registry set a handle belongs to.
type Set uint8

const (
	SetNone Set = iota
	SetLive
	SetDead
)

func (s Set) String() string {
	switch s {
	case SetLive:
		return "live"
	case SetDead:
		return "dead"
	}
	return "none"
}

// HandleInfo is a read-only view of a handle.
type HandleInfo struct {
	ID       Value
	Kind     Kind
	Flags    Flags
	Set      Set
	DataType string
	HostWeak bool
}
