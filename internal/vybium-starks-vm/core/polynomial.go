package core

import (
	"fmt"
	"strings"
)

// Polynomial represents a dense univariate polynomial with coefficients in
// a finite field. Coefficient index 0 is the constant term; the slice is
// always trimmed so the leading coefficient is nonzero, unless the
// polynomial is the zero polynomial (a single zero coefficient).
type Polynomial struct {
	coefficients []*FieldElement
	field        *Field
}

// NewPolynomial creates a new polynomial from field elements, trimming
// leading zeros.
func NewPolynomial(coefficients []*FieldElement) (*Polynomial, error) {
	if len(coefficients) == 0 {
		return nil, fmt.Errorf("polynomial must have at least one coefficient")
	}

	field := coefficients[0].Field()
	for i, coeff := range coefficients {
		if !coeff.Field().Equals(field) {
			return nil, fmt.Errorf("coefficient %d is from a different field", i)
		}
	}

	trimmed := coefficients
	for len(trimmed) > 1 && trimmed[len(trimmed)-1].IsZero() {
		trimmed = trimmed[:len(trimmed)-1]
	}

	out := make([]*FieldElement, len(trimmed))
	copy(out, trimmed)

	return &Polynomial{coefficients: out, field: field}, nil
}

// NewPolynomialFromInt64 creates a polynomial from int64 coefficients.
func NewPolynomialFromInt64(field *Field, coefficients []int64) (*Polynomial, error) {
	fieldCoeffs := make([]*FieldElement, len(coefficients))
	for i, coeff := range coefficients {
		fieldCoeffs[i] = field.NewElementFromInt64(coeff)
	}
	return NewPolynomial(fieldCoeffs)
}

// NewMonomial returns coeff * X^degree.
func NewMonomial(field *Field, coeff *FieldElement, degree int) (*Polynomial, error) {
	coeffs := make([]*FieldElement, degree+1)
	for i := range coeffs {
		coeffs[i] = field.Zero()
	}
	coeffs[degree] = coeff
	return NewPolynomial(coeffs)
}

// Degree returns the degree of the polynomial.
func (p *Polynomial) Degree() int {
	return len(p.coefficients) - 1
}

// IsZero reports whether p is the zero polynomial.
func (p *Polynomial) IsZero() bool {
	return len(p.coefficients) == 1 && p.coefficients[0].IsZero()
}

// Field returns the field the polynomial is defined over.
func (p *Polynomial) Field() *Field {
	return p.field
}

// Coefficient returns the coefficient of the given degree (zero if out of range).
func (p *Polynomial) Coefficient(degree int) *FieldElement {
	if degree < 0 || degree >= len(p.coefficients) {
		return p.field.Zero()
	}
	return p.coefficients[degree]
}

// LeadingCoefficient returns the coefficient of the highest-degree term.
func (p *Polynomial) LeadingCoefficient() *FieldElement {
	return p.coefficients[len(p.coefficients)-1]
}

// Coefficients returns a copy of the polynomial's coefficients.
func (p *Polynomial) Coefficients() []*FieldElement {
	coeffs := make([]*FieldElement, len(p.coefficients))
	copy(coeffs, p.coefficients)
	return coeffs
}

// Point pairs an x and y coordinate for interpolation.
type Point struct {
	X *FieldElement
	Y *FieldElement
}

// NewPoint creates a new point.
func NewPoint(x, y *FieldElement) *Point {
	return &Point{X: x, Y: y}
}

// Eval evaluates the polynomial at the given point using Horner's scheme.
func (p *Polynomial) Eval(point *FieldElement) *FieldElement {
	if !point.Field().Equals(p.field) {
		panic("cannot evaluate polynomial at point from different field")
	}
	result := p.field.Zero()
	for i := len(p.coefficients) - 1; i >= 0; i-- {
		result = result.Mul(point).Add(p.coefficients[i])
	}
	return result
}

// EvalSlice evaluates the polynomial at every point in xs by direct
// Horner evaluation (used off the fast coset path).
func (p *Polynomial) EvalSlice(xs []*FieldElement) []*FieldElement {
	out := make([]*FieldElement, len(xs))
	for i, x := range xs {
		out[i] = p.Eval(x)
	}
	return out
}

// Add adds two polynomials.
func (p *Polynomial) Add(other *Polynomial) (*Polynomial, error) {
	if !p.field.Equals(other.field) {
		return nil, fmt.Errorf("cannot add polynomials from different fields")
	}
	maxDegree := maxInt(p.Degree(), other.Degree())
	coefficients := make([]*FieldElement, maxDegree+1)
	for i := 0; i <= maxDegree; i++ {
		coefficients[i] = p.Coefficient(i).Add(other.Coefficient(i))
	}
	return NewPolynomial(coefficients)
}

// Sub subtracts two polynomials.
func (p *Polynomial) Sub(other *Polynomial) (*Polynomial, error) {
	if !p.field.Equals(other.field) {
		return nil, fmt.Errorf("cannot subtract polynomials from different fields")
	}
	maxDegree := maxInt(p.Degree(), other.Degree())
	coefficients := make([]*FieldElement, maxDegree+1)
	for i := 0; i <= maxDegree; i++ {
		coefficients[i] = p.Coefficient(i).Sub(other.Coefficient(i))
	}
	return NewPolynomial(coefficients)
}

// Mul multiplies two polynomials by schoolbook convolution.
func (p *Polynomial) Mul(other *Polynomial) (*Polynomial, error) {
	if !p.field.Equals(other.field) {
		return nil, fmt.Errorf("cannot multiply polynomials from different fields")
	}
	if p.IsZero() || other.IsZero() {
		return NewPolynomial([]*FieldElement{p.field.Zero()})
	}

	resultDegree := p.Degree() + other.Degree()
	coefficients := make([]*FieldElement, resultDegree+1)
	for i := range coefficients {
		coefficients[i] = p.field.Zero()
	}
	for i, coeff1 := range p.coefficients {
		if coeff1.IsZero() {
			continue
		}
		for j, coeff2 := range other.coefficients {
			coefficients[i+j] = coefficients[i+j].Add(coeff1.Mul(coeff2))
		}
	}
	return NewPolynomial(coefficients)
}

// MulScalar multiplies the polynomial by a scalar.
func (p *Polynomial) MulScalar(scalar *FieldElement) (*Polynomial, error) {
	if !scalar.Field().Equals(p.field) {
		return nil, fmt.Errorf("cannot multiply by scalar from different field")
	}
	coefficients := make([]*FieldElement, len(p.coefficients))
	for i, coeff := range p.coefficients {
		coefficients[i] = coeff.Mul(scalar)
	}
	return NewPolynomial(coefficients)
}

// Compose evaluates p(other(X)) using Horner's scheme over polynomials, so
// the result has degree deg(p) * deg(other).
func (p *Polynomial) Compose(other *Polynomial) (*Polynomial, error) {
	if !p.field.Equals(other.field) {
		return nil, fmt.Errorf("cannot compose polynomials from different fields")
	}
	result, err := NewPolynomial([]*FieldElement{p.field.Zero()})
	if err != nil {
		return nil, err
	}
	for i := len(p.coefficients) - 1; i >= 0; i-- {
		result, err = result.Mul(other)
		if err != nil {
			return nil, err
		}
		term, err := NewPolynomial([]*FieldElement{p.coefficients[i]})
		if err != nil {
			return nil, err
		}
		result, err = result.Add(term)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

// Div performs polynomial long division, returning quotient and remainder.
func (p *Polynomial) Div(other *Polynomial) (*Polynomial, *Polynomial, error) {
	if !p.field.Equals(other.field) {
		return nil, nil, fmt.Errorf("cannot divide polynomials from different fields")
	}
	if other.IsZero() {
		return nil, nil, fmt.Errorf("division by zero polynomial")
	}
	if other.Degree() > p.Degree() || p.IsZero() {
		zero, err := NewPolynomial([]*FieldElement{p.field.Zero()})
		if err != nil {
			return nil, nil, err
		}
		return zero, p, nil
	}

	quotient := make([]*FieldElement, p.Degree()-other.Degree()+1)
	remainder := make([]*FieldElement, len(p.coefficients))
	copy(remainder, p.coefficients)

	leadingOther := other.LeadingCoefficient()
	for i := len(quotient) - 1; i >= 0; i-- {
		top := i + other.Degree()
		if top >= len(remainder) {
			quotient[i] = p.field.Zero()
			continue
		}
		leadingRem := remainder[top]
		q, err := leadingRem.Div(leadingOther)
		if err != nil {
			return nil, nil, fmt.Errorf("division failed: %w", err)
		}
		quotient[i] = q

		for j := 0; j <= other.Degree(); j++ {
			idx := i + j
			remainder[idx] = remainder[idx].Sub(q.Mul(other.Coefficient(j)))
		}
		for len(remainder) > 1 && remainder[len(remainder)-1].IsZero() {
			remainder = remainder[:len(remainder)-1]
		}
	}

	quotientPoly, err := NewPolynomial(quotient)
	if err != nil {
		return nil, nil, err
	}
	remainderPoly, err := NewPolynomial(remainder)
	if err != nil {
		return nil, nil, err
	}
	return quotientPoly, remainderPoly, nil
}

// VanishingPolynomial returns X^n - 1, which vanishes exactly on every
// n-th root of unity.
func VanishingPolynomial(field *Field, n int) (*Polynomial, error) {
	xn, err := NewMonomial(field, field.One(), n)
	if err != nil {
		return nil, err
	}
	one, err := NewPolynomial([]*FieldElement{field.One()})
	if err != nil {
		return nil, err
	}
	return xn.Sub(one)
}

// DivideByVanishing divides p by (X^n - 1) / prod_{e in exemptions}(X - roots[e]),
// the transition divisor of spec.md §4.6: the full-domain vanishing
// polynomial with the exempted trace rows' factors removed from it. It
// requires the remainder to be exactly zero (p must truly vanish there).
func DivideByVanishing(p *Polynomial, n int, roots []*FieldElement, exemptions []int) (*Polynomial, error) {
	vanishing, err := VanishingPolynomial(p.field, n)
	if err != nil {
		return nil, err
	}
	exemptionPoly, err := NewPolynomial([]*FieldElement{p.field.One()})
	if err != nil {
		return nil, err
	}
	for _, e := range exemptions {
		factor, err := NewPolynomial([]*FieldElement{roots[e].Neg(), p.field.One()})
		if err != nil {
			return nil, err
		}
		exemptionPoly, err = exemptionPoly.Mul(factor)
		if err != nil {
			return nil, err
		}
	}
	divisor, remainder, err := vanishing.Div(exemptionPoly)
	if err != nil {
		return nil, err
	}
	if !remainder.IsZero() {
		return nil, fmt.Errorf("exemption factors do not exactly divide the vanishing polynomial")
	}
	quotient, remainder, err := p.Div(divisor)
	if err != nil {
		return nil, err
	}
	if !remainder.IsZero() {
		return nil, fmt.Errorf("constraint polynomial does not vanish on the required domain")
	}
	return quotient, nil
}

// Interpolate returns the unique polynomial of degree < len(xs) with
// P(xs[i]) = ys[i]. When xs is a coset {offset * g^i} of a two-adic
// subgroup, the fast O(n log n) path (inverse FFT, then rescale by the
// offset) is used; otherwise this falls back to Lagrange interpolation.
func Interpolate(field *Field, xs, ys []*FieldElement) (*Polynomial, error) {
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("xs and ys must have the same length")
	}
	if len(xs) == 0 {
		return nil, fmt.Errorf("need at least one point for interpolation")
	}

	if offset, ok := cosetOffset(xs); ok {
		invOffset, err := offset.Inv()
		if err != nil {
			return nil, err
		}
		scaled := make([]*FieldElement, len(ys))
		copy(scaled, ys)
		coeffs, err := IFFT(scaled, field)
		if err != nil {
			return nil, err
		}
		power := field.One()
		for i := range coeffs {
			coeffs[i] = coeffs[i].Mul(power)
			power = power.Mul(invOffset)
		}
		return NewPolynomial(coeffs)
	}

	points := make([]Point, len(xs))
	for i := range xs {
		points[i] = Point{X: xs[i], Y: ys[i]}
	}
	return LagrangeInterpolation(points, field)
}

// EvaluateSlice evaluates p at every point of xs. When xs is a coset of a
// two-adic subgroup, the fast forward FFT path is used.
func EvaluateSlice(p *Polynomial, xs []*FieldElement) ([]*FieldElement, error) {
	if offset, ok := cosetOffset(xs); ok {
		n := len(xs)
		coeffs := make([]*FieldElement, n)
		power := p.field.One()
		for i := 0; i < n; i++ {
			coeffs[i] = p.Coefficient(i).Mul(power)
			power = power.Mul(offset)
		}
		return FFT(coeffs, p.field)
	}
	return p.EvalSlice(xs), nil
}

// cosetOffset detects whether xs is exactly {offset * g^i : i = 0..n-1}
// for some two-adic generator g of order n, returning the offset (which is
// g^0 * offset = xs[0]) when so.
func cosetOffset(xs []*FieldElement) (*FieldElement, bool) {
	n := len(xs)
	if n < 2 || n&(n-1) != 0 {
		return nil, false
	}
	field := xs[0].Field()
	omega, err := field.PrimitiveRootOfUnity(n)
	if err != nil {
		return nil, false
	}
	offset := xs[0]
	power := field.One()
	for i := 0; i < n; i++ {
		expected := offset.Mul(power)
		if !expected.Equal(xs[i]) {
			return nil, false
		}
		power = power.Mul(omega)
	}
	return offset, true
}

// String returns a human-readable representation of the polynomial.
func (p *Polynomial) String() string {
	if p.IsZero() {
		return "0"
	}
	var terms []string
	for i := p.Degree(); i >= 0; i-- {
		coeff := p.Coefficient(i)
		if coeff.IsZero() {
			continue
		}
		var term string
		switch {
		case i == 0:
			term = coeff.String()
		case i == 1:
			if coeff.IsOne() {
				term = "x"
			} else {
				term = coeff.String() + "x"
			}
		default:
			if coeff.IsOne() {
				term = fmt.Sprintf("x^%d", i)
			} else {
				term = fmt.Sprintf("%sx^%d", coeff.String(), i)
			}
		}
		terms = append(terms, term)
	}
	return strings.Join(terms, " + ")
}

// Clone creates a copy of the polynomial.
func (p *Polynomial) Clone() *Polynomial {
	clone, err := NewPolynomial(p.Coefficients())
	if err != nil {
		panic("failed to clone polynomial: " + err.Error())
	}
	return clone
}

// LagrangeInterpolation performs O(n^2) Lagrange interpolation for
// arbitrary (not necessarily coset) point sets.
func LagrangeInterpolation(points []Point, field *Field) (*Polynomial, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("need at least one point for interpolation")
	}
	for i, point := range points {
		if !point.X.Field().Equals(field) || !point.Y.Field().Equals(field) {
			return nil, fmt.Errorf("point %d is from a different field", i)
		}
	}

	result, err := NewPolynomial([]*FieldElement{field.Zero()})
	if err != nil {
		return nil, err
	}

	for i, point := range points {
		basis, err := NewPolynomial([]*FieldElement{field.One()})
		if err != nil {
			return nil, err
		}
		for j, otherPoint := range points {
			if i == j {
				continue
			}
			numerator, err := NewPolynomialFromInt64(field, []int64{0, 1})
			if err != nil {
				return nil, err
			}
			constant, err := NewPolynomial([]*FieldElement{otherPoint.X})
			if err != nil {
				return nil, err
			}
			numerator, err = numerator.Sub(constant)
			if err != nil {
				return nil, err
			}

			denominator := point.X.Sub(otherPoint.X)
			if denominator.IsZero() {
				return nil, fmt.Errorf("duplicate x-coordinates found")
			}
			invDenominator, err := field.One().Div(denominator)
			if err != nil {
				return nil, err
			}
			numerator, err = numerator.MulScalar(invDenominator)
			if err != nil {
				return nil, err
			}
			basis, err = basis.Mul(numerator)
			if err != nil {
				return nil, err
			}
		}

		term, err := basis.MulScalar(point.Y)
		if err != nil {
			return nil, err
		}
		result, err = result.Add(term)
		if err != nil {
			return nil, err
		}
	}

	return result, nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
