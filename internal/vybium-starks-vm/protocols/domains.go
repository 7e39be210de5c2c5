package protocols

import (
	"fmt"
	"math/big"

	"github.com/vybium/vybium-starks-vm/internal/vybium-starks-vm/core"
	"github.com/vybium/vybium-starks-vm/internal/vybium-starks-vm/utils"
)

func bigFromInt(n int) *big.Int {
	return big.NewInt(int64(n))
}

// ArithmeticDomain is a coset of a multiplicative subgroup:
// {offset * generator^i : i = 0..length-1}. All domains used by this
// package have power-of-two length, so they can be evaluated and
// interpolated with the FFT in core/fft.go.
type ArithmeticDomain struct {
	Offset    *core.FieldElement
	Generator *core.FieldElement
	Length    int
}

// NewArithmeticDomain creates an un-offset domain of the given length: the
// subgroup generated by a primitive length-th root of unity.
func NewArithmeticDomain(field *core.Field, length int) (*ArithmeticDomain, error) {
	if !utils.IsPowerOfTwo(length) {
		return nil, fmt.Errorf("domain length must be a power of 2, got %d", length)
	}
	generator, err := field.PrimitiveRootOfUnity(length)
	if err != nil {
		return nil, fmt.Errorf("failed to derive domain generator: %w", err)
	}
	return &ArithmeticDomain{
		Offset:    field.One(),
		Generator: generator,
		Length:    length,
	}, nil
}

// WithOffset returns a new domain with the same generator and length but a
// different coset offset.
func (d *ArithmeticDomain) WithOffset(offset *core.FieldElement) *ArithmeticDomain {
	return &ArithmeticDomain{Offset: offset, Generator: d.Generator, Length: d.Length}
}

// Halve returns the domain of half the length, obtained by squaring both
// the generator and the offset.
func (d *ArithmeticDomain) Halve() (*ArithmeticDomain, error) {
	if d.Length < 2 {
		return nil, fmt.Errorf("cannot halve domain of length %d", d.Length)
	}
	return &ArithmeticDomain{
		Offset:    d.Offset.Mul(d.Offset),
		Generator: d.Generator.Mul(d.Generator),
		Length:    d.Length / 2,
	}, nil
}

// Double returns the domain of double the length sharing the same offset.
func (d *ArithmeticDomain) Double(field *core.Field) (*ArithmeticDomain, error) {
	doubleLength := d.Length * 2
	generator, err := field.PrimitiveRootOfUnity(doubleLength)
	if err != nil {
		return nil, fmt.Errorf("failed to derive doubled domain generator: %w", err)
	}
	return &ArithmeticDomain{Offset: d.Offset, Generator: generator, Length: doubleLength}, nil
}

// Element returns the i-th point of the domain without materializing the
// rest, for callers (the verifier's per-query checks) that only need one
// point at a time.
func (d *ArithmeticDomain) Element(i int) *core.FieldElement {
	return d.Offset.Mul(d.Generator.Exp(bigFromInt(i)))
}

// Elements returns every point of the domain in order.
func (d *ArithmeticDomain) Elements() []*core.FieldElement {
	elements := make([]*core.FieldElement, d.Length)
	current := d.Offset
	for i := 0; i < d.Length; i++ {
		elements[i] = current
		current = current.Mul(d.Generator)
	}
	return elements
}

// Evaluate evaluates a polynomial over every point of the domain, via the
// FFT fast path when the domain is exactly a coset of a two-adic subgroup
// (always true for domains built by this type).
func (d *ArithmeticDomain) Evaluate(poly *core.Polynomial) ([]*core.FieldElement, error) {
	return core.EvaluateSlice(poly, d.Elements())
}

// String returns a human-readable representation.
func (d *ArithmeticDomain) String() string {
	return fmt.Sprintf("Domain{length: %d, offset: %s, generator: %s}", d.Length, d.Offset, d.Generator)
}

// ProverDomains bundles every domain a STARK prover needs: the original
// trace domain, the low-degree-extension domain used to commit and open
// trace/composition evaluations, and the FRI domain folding begins at.
// The FRI domain and the LDE domain coincide in this design: the blowup
// factor in ProofOptions sets both.
type ProverDomains struct {
	Trace *ArithmeticDomain
	LDE   *ArithmeticDomain
}

// DeriveProverDomains builds the trace domain (size traceLength) and its
// LDE domain (size traceLength * blowupFactor, offset by the AIR's coset
// offset so the LDE domain is disjoint from the trace domain). The trace
// domain's generator is derived as the LDE generator raised to
// blowupFactor rather than looked up independently, so that stepping
// blowupFactor places through the LDE domain's natural order always means
// "multiply by the trace domain's generator" - the relationship the
// prover and verifier rely on to read (current row, next row) frames
// directly out of LDE evaluations.
func DeriveProverDomains(field *core.Field, traceLength, blowupFactor int, cosetOffset *core.FieldElement) (*ProverDomains, error) {
	if !utils.IsPowerOfTwo(traceLength) {
		return nil, fmt.Errorf("trace length must be a power of 2, got %d", traceLength)
	}

	ldeLength := traceLength * blowupFactor
	ldeGenerator, err := field.PrimitiveRootOfUnity(ldeLength)
	if err != nil {
		return nil, fmt.Errorf("failed to derive LDE domain generator: %w", err)
	}
	lde := &ArithmeticDomain{Offset: cosetOffset, Generator: ldeGenerator, Length: ldeLength}

	traceGenerator := ldeGenerator.Exp(bigFromInt(blowupFactor))
	trace := &ArithmeticDomain{Offset: field.One(), Generator: traceGenerator, Length: traceLength}

	return &ProverDomains{Trace: trace, LDE: lde}, nil
}

// String returns a human-readable representation of both domains.
func (pd *ProverDomains) String() string {
	return fmt.Sprintf("ProverDomains{Trace: %s, LDE: %s}", pd.Trace, pd.LDE)
}
