package core

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Field represents a prime field with modular arithmetic operations.
type Field struct {
	modulus *big.Int
}

// FieldElement represents an element in the finite field.
type FieldElement struct {
	field *Field
	value *big.Int
}

// NewField creates a new finite field with the given modulus.
func NewField(modulus *big.Int) (*Field, error) {
	if modulus.Cmp(big.NewInt(2)) <= 0 {
		return nil, fmt.Errorf("modulus must be greater than 2")
	}
	return &Field{modulus: new(big.Int).Set(modulus)}, nil
}

// NewFieldFromUint64 creates a new finite field with the given modulus.
func NewFieldFromUint64(modulus uint64) (*Field, error) {
	return NewField(new(big.Int).SetUint64(modulus))
}

// Modulus returns the field modulus.
func (f *Field) Modulus() *big.Int {
	return new(big.Int).Set(f.modulus)
}

// ByteLen returns the fixed width used to encode an element to bytes.
func (f *Field) ByteLen() int {
	return (f.modulus.BitLen() + 7) / 8
}

// NewElement creates a new field element from a big.Int, reducing it to the
// canonical representative in [0, modulus).
func (f *Field) NewElement(value *big.Int) *FieldElement {
	normalized := new(big.Int).Mod(value, f.modulus)
	return &FieldElement{
		field: f,
		value: normalized,
	}
}

// NewElementFromInt64 creates a new field element from an int64.
func (f *Field) NewElementFromInt64(value int64) *FieldElement {
	return f.NewElement(big.NewInt(value))
}

// NewElementFromUint64 creates a new field element from a uint64.
func (f *Field) NewElementFromUint64(value uint64) *FieldElement {
	return f.NewElement(new(big.Int).SetUint64(value))
}

// ElementFromBytes decodes a big-endian encoding, rejecting values that are
// not canonical representatives (i.e. >= modulus).
func (f *Field) ElementFromBytes(b []byte) (*FieldElement, error) {
	value := new(big.Int).SetBytes(b)
	if value.Cmp(f.modulus) >= 0 {
		return nil, fmt.Errorf("encoded value %s is not a canonical residue mod %s", value, f.modulus)
	}
	return &FieldElement{field: f, value: value}, nil
}

// RandomElement generates a random field element.
func (f *Field) RandomElement() (*FieldElement, error) {
	value, err := rand.Int(rand.Reader, f.modulus)
	if err != nil {
		return nil, fmt.Errorf("failed to generate random element: %w", err)
	}
	return f.NewElement(value), nil
}

// Zero returns the additive identity.
func (f *Field) Zero() *FieldElement {
	return f.NewElement(big.NewInt(0))
}

// One returns the multiplicative identity.
func (f *Field) One() *FieldElement {
	return f.NewElement(big.NewInt(1))
}

// TwoAdicity returns the largest k such that 2^k divides (modulus - 1).
func (f *Field) TwoAdicity() int {
	pMinus1 := new(big.Int).Sub(f.modulus, big.NewInt(1))
	k := 0
	for pMinus1.Bit(k) == 0 {
		k++
	}
	return k
}

// PrimitiveRootOfUnity returns g such that g^order = 1 and g^(order/2) != 1.
// order must be a power of two; it fails when order exceeds the field's
// two-adicity.
func (f *Field) PrimitiveRootOfUnity(order int) (*FieldElement, error) {
	if order <= 0 || (order&(order-1)) != 0 {
		return nil, fmt.Errorf("order %d must be a power of two", order)
	}
	pMinus1 := new(big.Int).Sub(f.modulus, big.NewInt(1))
	orderBig := big.NewInt(int64(order))
	if new(big.Int).Mod(pMinus1, orderBig).Sign() != 0 {
		return nil, fmt.Errorf("order %d exceeds the field's two-adicity (%d)", order, f.TwoAdicity())
	}

	exponent := new(big.Int).Div(pMinus1, orderBig)
	for g := int64(2); g < 1<<16; g++ {
		candidate := f.NewElementFromInt64(g).Exp(exponent)
		if candidate.IsZero() || !candidate.Exp(orderBig).IsOne() {
			continue
		}
		if order == 1 {
			return candidate, nil
		}
		halfOrder := new(big.Int).Div(orderBig, big.NewInt(2))
		if !candidate.Exp(halfOrder).IsOne() {
			return candidate, nil
		}
	}
	return nil, fmt.Errorf("no primitive %d-th root of unity found", order)
}

// Big returns the value as a big.Int copy.
func (fe *FieldElement) Big() *big.Int {
	return new(big.Int).Set(fe.value)
}

// Field returns the field this element belongs to.
func (fe *FieldElement) Field() *Field {
	return fe.field
}

// Add performs field addition.
func (fe *FieldElement) Add(other *FieldElement) *FieldElement {
	if !fe.field.Equals(other.field) {
		panic("cannot add elements from different fields")
	}
	result := new(big.Int).Add(fe.value, other.value)
	return fe.field.NewElement(result)
}

// Sub performs field subtraction.
func (fe *FieldElement) Sub(other *FieldElement) *FieldElement {
	if !fe.field.Equals(other.field) {
		panic("cannot subtract elements from different fields")
	}
	result := new(big.Int).Sub(fe.value, other.value)
	return fe.field.NewElement(result)
}

// Neg returns the additive inverse (negation) of the field element.
func (fe *FieldElement) Neg() *FieldElement {
	result := new(big.Int).Neg(fe.value)
	return fe.field.NewElement(result)
}

// Sqrt returns the square root of the field element using Tonelli-Shanks.
func (fe *FieldElement) Sqrt() (*FieldElement, error) {
	if fe.IsZero() {
		return fe.field.Zero(), nil
	}

	p := fe.field.modulus
	n := fe.value

	exp := new(big.Int).Sub(p, big.NewInt(1))
	exp.Div(exp, big.NewInt(2))
	legendre := new(big.Int).Exp(n, exp, p)
	if legendre.Cmp(big.NewInt(1)) != 0 {
		return nil, fmt.Errorf("field element is not a quadratic residue")
	}

	if new(big.Int).Mod(p, big.NewInt(4)).Cmp(big.NewInt(3)) == 0 {
		exp := new(big.Int).Add(p, big.NewInt(1))
		exp.Div(exp, big.NewInt(4))
		result := new(big.Int).Exp(n, exp, p)
		return fe.field.NewElement(result), nil
	}

	// p ≡ 1 (mod 4): Tonelli-Shanks. Find Q, S such that p-1 = Q * 2^S.
	Q := new(big.Int).Sub(p, big.NewInt(1))
	S := 0
	for Q.Bit(0) == 0 {
		Q.Div(Q, big.NewInt(2))
		S++
	}

	z := big.NewInt(2)
	for {
		exp := new(big.Int).Sub(p, big.NewInt(1))
		exp.Div(exp, big.NewInt(2))
		legendre := new(big.Int).Exp(z, exp, p)
		if legendre.Cmp(big.NewInt(1)) != 0 {
			break
		}
		z.Add(z, big.NewInt(1))
	}

	c := new(big.Int).Exp(z, Q, p)
	x := new(big.Int).Exp(n, new(big.Int).Add(Q, big.NewInt(1)).Div(new(big.Int).Add(Q, big.NewInt(1)), big.NewInt(2)), p)
	t := new(big.Int).Exp(n, Q, p)
	m := S

	for t.Cmp(big.NewInt(1)) != 0 {
		i := 1
		for i < m {
			exp := new(big.Int).Lsh(big.NewInt(1), uint(i))
			if new(big.Int).Exp(t, exp, p).Cmp(big.NewInt(1)) == 0 {
				break
			}
			i++
		}

		b := new(big.Int).Exp(c, new(big.Int).Lsh(big.NewInt(1), uint(m-i-1)), p)
		x.Mul(x, b).Mod(x, p)
		t.Mul(t, new(big.Int).Exp(b, big.NewInt(2), p)).Mod(t, p)
		c.Exp(b, big.NewInt(2), p)
		m = i
	}

	return fe.field.NewElement(x), nil
}

// LessThan returns true if this field element is less than the other.
func (fe *FieldElement) LessThan(other *FieldElement) bool {
	return fe.value.Cmp(other.value) < 0
}

// Mul performs field multiplication.
func (fe *FieldElement) Mul(other *FieldElement) *FieldElement {
	if !fe.field.Equals(other.field) {
		panic("cannot multiply elements from different fields")
	}
	result := new(big.Int).Mul(fe.value, other.value)
	return fe.field.NewElement(result)
}

// Div performs field division (multiplication by the inverse).
func (fe *FieldElement) Div(other *FieldElement) (*FieldElement, error) {
	if !fe.field.Equals(other.field) {
		return nil, fmt.Errorf("cannot divide elements from different fields")
	}
	inv, err := other.Inv()
	if err != nil {
		return nil, fmt.Errorf("division failed: %w", err)
	}
	return fe.Mul(inv), nil
}

// Inv computes the multiplicative inverse via the extended Euclidean algorithm.
func (fe *FieldElement) Inv() (*FieldElement, error) {
	if fe.value.Sign() == 0 {
		return nil, fmt.Errorf("cannot compute inverse of zero")
	}

	gcd := new(big.Int)
	x := new(big.Int)
	y := new(big.Int)
	gcd.GCD(x, y, fe.value, fe.field.modulus)

	if gcd.Cmp(big.NewInt(1)) != 0 {
		return nil, fmt.Errorf("inverse does not exist")
	}

	if x.Sign() < 0 {
		x.Add(x, fe.field.modulus)
	}

	return fe.field.NewElement(x), nil
}

// Exp performs binary exponentiation.
func (fe *FieldElement) Exp(exponent *big.Int) *FieldElement {
	result := new(big.Int).Exp(fe.value, exponent, fe.field.modulus)
	return fe.field.NewElement(result)
}

// Square computes the square of the field element.
func (fe *FieldElement) Square() *FieldElement {
	return fe.Mul(fe)
}

// Equal checks if two field elements are equal.
func (fe *FieldElement) Equal(other *FieldElement) bool {
	if !fe.field.Equals(other.field) {
		return false
	}
	return fe.value.Cmp(other.value) == 0
}

// IsZero checks if the element is zero.
func (fe *FieldElement) IsZero() bool {
	return fe.value.Sign() == 0
}

// IsOne checks if the element is one.
func (fe *FieldElement) IsOne() bool {
	return fe.value.Cmp(big.NewInt(1)) == 0
}

// String returns a string representation of the field element.
func (fe *FieldElement) String() string {
	return fe.value.String()
}

// Bytes returns the fixed-width big-endian encoding of the element.
func (fe *FieldElement) Bytes() []byte {
	raw := fe.value.Bytes()
	out := make([]byte, fe.field.ByteLen())
	copy(out[len(out)-len(raw):], raw)
	return out
}

// Equals reports whether two fields share the same modulus.
func (f *Field) Equals(other *Field) bool {
	return f.modulus.Cmp(other.modulus) == 0
}

// StarkPrime is 2^251 + 17*2^192 + 1, the Stark252 field used by the
// Fibonacci example AIR. Its two-adicity is 192.
var StarkPrime = func() *big.Int {
	p := new(big.Int).Lsh(big.NewInt(1), 251)
	term := new(big.Int).Lsh(big.NewInt(17), 192)
	p.Add(p, term)
	p.Add(p, big.NewInt(1))
	return p
}()

// DefaultPrimeField is a small field retained for quick unit tests; example
// AIRs use StarkPrime, whose two-adicity comfortably covers realistic
// trace lengths and blowup factors.
var DefaultPrimeField, _ = NewFieldFromUint64(3221225473)
