package core

import (
	"math/big"
	"testing"
)

func testField(t *testing.T) *Field {
	t.Helper()
	field, err := NewFieldFromUint64(3221225473) // 3*2^30 + 1
	if err != nil {
		t.Fatalf("NewFieldFromUint64: %v", err)
	}
	return field
}

func TestFieldArithmetic(t *testing.T) {
	field := testField(t)
	a := field.NewElementFromInt64(17)
	b := field.NewElementFromInt64(5)

	if got := a.Add(b).Big().Int64(); got != 22 {
		t.Errorf("Add: got %d, want 22", got)
	}
	if got := a.Sub(b).Big().Int64(); got != 12 {
		t.Errorf("Sub: got %d, want 12", got)
	}
	if got := a.Mul(b).Big().Int64(); got != 85 {
		t.Errorf("Mul: got %d, want 85", got)
	}

	quotient, err := a.Div(b)
	if err != nil {
		t.Fatalf("Div: %v", err)
	}
	if !quotient.Mul(b).Equal(a) {
		t.Errorf("Div: quotient * b != a")
	}
}

func TestFieldElementModularReduction(t *testing.T) {
	field := testField(t)
	modulus := field.Modulus()
	over := new(big.Int).Add(modulus, big.NewInt(3))
	fe := field.NewElement(over)
	if fe.Big().Int64() != 3 {
		t.Errorf("expected reduction to 3, got %s", fe.Big())
	}
}

func TestFieldInverse(t *testing.T) {
	field := testField(t)
	for _, v := range []int64{1, 2, 3, 12345, 999999} {
		a := field.NewElementFromInt64(v)
		inv, err := a.Inv()
		if err != nil {
			t.Fatalf("Inv(%d): %v", v, err)
		}
		if !a.Mul(inv).IsOne() {
			t.Errorf("a * inv(a) != 1 for a=%d", v)
		}
	}
	if _, err := field.Zero().Inv(); err == nil {
		t.Error("expected error inverting zero")
	}
}

func TestFieldExp(t *testing.T) {
	field := testField(t)
	a := field.NewElementFromInt64(7)
	got := a.Exp(big.NewInt(4))
	want := a.Mul(a).Mul(a).Mul(a)
	if !got.Equal(want) {
		t.Errorf("Exp(4) = %s, want %s", got, want)
	}
}

func TestFieldBytesRoundTrip(t *testing.T) {
	field := testField(t)
	a := field.NewElementFromInt64(123456789)
	encoded := a.Bytes()
	if len(encoded) != field.ByteLen() {
		t.Fatalf("encoded length %d, want %d", len(encoded), field.ByteLen())
	}
	decoded, err := field.ElementFromBytes(encoded)
	if err != nil {
		t.Fatalf("ElementFromBytes: %v", err)
	}
	if !decoded.Equal(a) {
		t.Errorf("round trip mismatch: got %s, want %s", decoded, a)
	}
}

func TestFieldElementFromBytesRejectsNonCanonical(t *testing.T) {
	field := testField(t)
	nonCanonical := field.Modulus() // == modulus, not a valid residue
	encoded := make([]byte, field.ByteLen())
	nonCanonical.FillBytes(encoded)
	if _, err := field.ElementFromBytes(encoded); err == nil {
		t.Error("expected error decoding a non-canonical residue")
	}
}

func TestPrimitiveRootOfUnity(t *testing.T) {
	field := testField(t)
	for _, order := range []int{2, 4, 8, 1024} {
		root, err := field.PrimitiveRootOfUnity(order)
		if err != nil {
			t.Fatalf("PrimitiveRootOfUnity(%d): %v", order, err)
		}
		if !root.Exp(big.NewInt(int64(order))).IsOne() {
			t.Errorf("root^%d != 1", order)
		}
		if root.Exp(big.NewInt(int64(order/2))).IsOne() {
			t.Errorf("root^%d == 1, not a primitive %d-th root", order/2, order)
		}
	}
}

func TestPrimitiveRootOfUnityRejectsNonPowerOfTwo(t *testing.T) {
	field := testField(t)
	if _, err := field.PrimitiveRootOfUnity(3); err == nil {
		t.Error("expected error for non-power-of-two order")
	}
}

func TestFieldElementSqrt(t *testing.T) {
	field := testField(t)
	a := field.NewElementFromInt64(16)
	root, err := a.Sqrt()
	if err != nil {
		t.Fatalf("Sqrt: %v", err)
	}
	if !root.Mul(root).Equal(a) {
		t.Errorf("sqrt(16)^2 != 16, got %s", root.Mul(root))
	}
}
