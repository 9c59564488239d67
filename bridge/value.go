package bridge

import "fmt"

// ---------------------------------------------------------------------------
// Value: the native-domain word
// ---------------------------------------------------------------------------

// Value is a native-domain word. It is either a special constant (never
// allocated, never tracked) or the identity of a handle in a Collector.
//
// Layout:
//
//	xxxx...xxx1  small integer (63-bit, sign-extended)
//	xxxx...0000_1110  symbol (ID in the upper 56 bits)
//	0, 2, 4, 6   False, True, Nil, Undef
//	gen:idx:000  handle identity (8-aligned, never below 8)
type Value uint64

const (
	False Value = 0
	True  Value = 2
	Nil   Value = 4
	Undef Value = 6
)

const (
	intFlag    Value = 0x01
	symbolFlag Value = 0x0e
	symbolMask Value = 0xff
	handleMask Value = 0x07
	symbolBits       = 8
)

// Handle identities pack a 28-bit generation above a 32-bit slot index.
const (
	handleShift = 3
	indexBits   = 32
	genMask     = 1<<28 - 1
)

// IsSpecialConst reports whether v is a value that carries no separate
// allocation and thus no mark state.
func IsSpecialConst(v Value) bool {
	return v&intFlag != 0 || v <= Undef || v&symbolMask == symbolFlag
}

// FromInt encodes a small integer.
func FromInt(n int64) Value {
	return Value(uint64(n)<<1) | intFlag
}

// IsInt reports whether v is a small integer.
func (v Value) IsInt() bool {
	return v&intFlag != 0
}

// Int decodes a small integer. Panics if v is not one.
func (v Value) Int() int64 {
	if !v.IsInt() {
		panic("Value.Int: not a small integer")
	}
	return int64(v) >> 1
}

// FromSymbolID encodes a symbol.
func FromSymbolID(id uint32) Value {
	return Value(uint64(id)<<symbolBits) | symbolFlag
}

// IsSymbol reports whether v is a symbol.
func (v Value) IsSymbol() bool {
	return v&intFlag == 0 && v&symbolMask == symbolFlag
}

// SymbolID decodes a symbol. Panics if v is not one.
func (v Value) SymbolID() uint32 {
	if !v.IsSymbol() {
		panic("Value.SymbolID: not a symbol")
	}
	return uint32(v >> symbolBits)
}

// IsHandle reports whether v has the shape of a handle identity. It says
// nothing about whether the handle is registered.
func (v Value) IsHandle() bool {
	return !IsSpecialConst(v) && v&handleMask == 0
}

func (v Value) String() string {
	switch {
	case v == False:
		return "false"
	case v == True:
		return "true"
	case v == Nil:
		return "nil"
	case v == Undef:
		return "undef"
	case v.IsInt():
		return fmt.Sprintf("%d", v.Int())
	case v.IsSymbol():
		return fmt.Sprintf("#sym%d", v.SymbolID())
	case v.IsHandle():
		idx, gen := decodeHandle(v)
		return fmt.Sprintf("<handle %d/%d>", idx, gen)
	}
	return fmt.Sprintf("<raw %#x>", uint64(v))
}

func encodeHandle(idx int32, gen uint32) Value {
	raw := uint64(gen&genMask)<<indexBits | uint64(uint32(idx)+1)
	return Value(raw << handleShift)
}

func decodeHandle(v Value) (idx int32, gen uint32) {
	raw := uint64(v) >> handleShift
	return int32(uint32(raw) - 1), uint32(raw>>indexBits) & genMask
}
