package bridge

import "testing"

func TestSpecialConstants(t *testing.T) {
	specials := []Value{False, True, Nil, Undef, FromInt(0), FromInt(-5), FromInt(1 << 40), FromSymbolID(0), FromSymbolID(123)}
	for _, v := range specials {
		if !IsSpecialConst(v) {
			t.Errorf("%s should be a special constant", v)
		}
		if v.IsHandle() {
			t.Errorf("%s should not look like a handle", v)
		}
	}
}

func TestSmallIntRoundTrip(t *testing.T) {
	for _, n := range []int64{0, 1, -1, 42, -1 << 40, 1<<62 - 1} {
		v := FromInt(n)
		if !v.IsInt() {
			t.Fatalf("FromInt(%d) is not an int", n)
		}
		if got := v.Int(); got != n {
			t.Errorf("FromInt(%d).Int() = %d", n, got)
		}
	}
}

func TestSymbolRoundTrip(t *testing.T) {
	v := FromSymbolID(0xABCDEF)
	if !v.IsSymbol() || v.IsInt() {
		t.Fatalf("%#x should be a symbol only", uint64(v))
	}
	if got := v.SymbolID(); got != 0xABCDEF {
		t.Errorf("SymbolID = %#x, want 0xABCDEF", got)
	}
}

func TestHandleEncoding(t *testing.T) {
	first := encodeHandle(0, 0)
	if first != 8 {
		t.Errorf("first handle = %d, want 8", first)
	}

	v := encodeHandle(7, 3)
	if !v.IsHandle() || IsSpecialConst(v) {
		t.Fatalf("%s should be a handle", v)
	}
	idx, gen := decodeHandle(v)
	if idx != 7 || gen != 3 {
		t.Errorf("decode = (%d, %d), want (7, 3)", idx, gen)
	}

	// Generations wrap within their field instead of spilling into the tag bits.
	v = encodeHandle(1, genMask+2)
	if v&handleMask != 0 {
		t.Errorf("wrapped generation corrupted tag bits: %#x", uint64(v))
	}
	if _, gen := decodeHandle(v); gen != 1 {
		t.Errorf("wrapped generation = %d, want 1", gen)
	}
}

func TestMisalignedWordIsNeither(t *testing.T) {
	v := Value(12)
	if IsSpecialConst(v) {
		t.Error("12 is not a special constant")
	}
	if v.IsHandle() {
		t.Error("12 is not 8-aligned and cannot be a handle")
	}
}

func TestIntPanicsOnNonInt(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Int on a symbol should panic")
		}
	}()
	FromSymbolID(1).Int()
}
