package protocols

import (
	"fmt"

	"github.com/vybium/vybium-starks-vm/internal/vybium-starks-vm/core"
	"github.com/vybium/vybium-starks-vm/internal/vybium-starks-vm/utils"
)

// quotientTerm bundles a divided-out constraint quotient with the public
// degree bound it is entitled to (a function of AirContext alone, never of
// the witness), so Prove and Verify degree-balance every term against the
// same targetDegree without the verifier ever seeing a polynomial.
type quotientTerm struct {
	poly  *core.Polynomial
	bound int
}

// transitionQuotientBound returns the public upper bound on the degree of
// the k-th transition constraint's quotient polynomial: the transition
// evaluation's degree bound (TransitionDegrees[k] times the trace
// polynomials' own degree bound) minus the divisor's degree (the full
// trace domain less its exemptions).
func transitionQuotientBound(ctx *AirContext, k int) int {
	evalBound := ctx.TransitionDegrees[k] * (ctx.TraceLength - 1)
	divisorDegree := ctx.TraceLength - len(ctx.TransitionExemptions[k])
	bound := evalBound - divisorDegree
	if bound < 0 {
		bound = 0
	}
	return bound
}

// boundaryQuotientBound returns the public upper bound on the degree of any
// boundary constraint's quotient polynomial: a trace column's degree bound
// minus the degree-1 divisor (X - root).
func boundaryQuotientBound(ctx *AirContext) int {
	bound := ctx.TraceLength - 2
	if bound < 0 {
		bound = 0
	}
	return bound
}

// constraintBounds lists the public degree bound for every transition
// constraint followed by every boundary constraint, in the same order
// computeConstraintQuotients appends them, plus the resulting target
// degree. Both Prove and Verify call this so they can never disagree
// about a shift exponent.
func constraintBounds(ctx *AirContext, numBoundary int) ([]int, int) {
	bounds := make([]int, ctx.NumTransitionConstraints()+numBoundary)
	idx := 0
	for k := 0; k < ctx.NumTransitionConstraints(); k++ {
		bounds[idx] = transitionQuotientBound(ctx, k)
		idx++
	}
	boundaryBound := boundaryQuotientBound(ctx)
	for i := 0; i < numBoundary; i++ {
		bounds[idx] = boundaryBound
		idx++
	}
	target := 0
	for _, b := range bounds {
		if b > target {
			target = b
		}
	}
	return bounds, target
}

// Prove runs the full STARK proving algorithm against claim and the
// witness trace (a TraceTable satisfying claim.Air's constraints): commit
// to the trace, fold every transition and boundary constraint into a
// single composition polynomial, split and commit its even/odd halves,
// sample an out-of-domain point, build the DEEP polynomial linking
// everything to one FRI instance, and answer transcript-derived queries.
func Prove(claim *Claim, trace *TraceTable) (*Proof, error) {
	ctx := claim.Air.Context()
	if err := ctx.Options.Validate(); err != nil {
		return nil, fmt.Errorf("prove: invalid proof options: %w", err)
	}
	if trace.NumColumns() != ctx.TraceColumns || trace.NumRows() != ctx.TraceLength {
		return nil, fmt.Errorf("prove: trace shape (%d x %d) does not match AIR context (%d x %d)",
			trace.NumColumns(), trace.NumRows(), ctx.TraceColumns, ctx.TraceLength)
	}

	field := ctx.Field
	domains, err := DeriveProverDomains(field, ctx.TraceLength, ctx.Options.BlowupFactor, ctx.Options.CosetOffset)
	if err != nil {
		return nil, fmt.Errorf("prove: failed to derive domains: %w", err)
	}
	traceDomain, ldeDomain := domains.Trace, domains.LDE
	traceRoots := traceDomain.Elements()

	tracePolys, err := trace.InterpolateColumns(traceDomain)
	if err != nil {
		return nil, fmt.Errorf("prove: failed to interpolate trace: %w", err)
	}

	traceLDE := make([][]*core.FieldElement, ctx.TraceColumns)
	for j, poly := range tracePolys {
		traceLDE[j], err = ldeDomain.Evaluate(poly)
		if err != nil {
			return nil, fmt.Errorf("prove: failed to evaluate trace column %d over the LDE domain: %w", j, err)
		}
	}
	traceLeaves := buildRowLeaves(traceLDE, ldeDomain.Length)
	traceTree, err := core.NewMerkleTree(traceLeaves)
	if err != nil {
		return nil, fmt.Errorf("prove: failed to commit trace: %w", err)
	}

	transcript := utils.NewTranscript(claim.Bytes())
	transcript.Absorb(traceTree.Root())

	numBoundary := len(claim.Air.BoundaryConstraints())
	quotients, err := computeConstraintQuotients(claim.Air, trace, tracePolys, traceDomain, traceRoots)
	if err != nil {
		return nil, fmt.Errorf("prove: failed to compute constraint quotients: %w", err)
	}
	_, targetDegree := constraintBounds(ctx, numBoundary)

	alphas := make([]*core.FieldElement, 2*len(quotients))
	for i := range alphas {
		alphas[i] = transcript.ChallengeField(field)
	}

	h, err := combineQuotients(field, quotients, alphas, targetDegree)
	if err != nil {
		return nil, fmt.Errorf("prove: failed to combine constraint quotients: %w", err)
	}
	h1, h2 := splitEvenOdd(field, h)

	halvedLDE, err := ldeDomain.Halve()
	if err != nil {
		return nil, fmt.Errorf("prove: failed to halve the LDE domain: %w", err)
	}
	h1Evals, err := halvedLDE.Evaluate(h1)
	if err != nil {
		return nil, fmt.Errorf("prove: failed to evaluate H1 over the halved domain: %w", err)
	}
	h2Evals, err := halvedLDE.Evaluate(h2)
	if err != nil {
		return nil, fmt.Errorf("prove: failed to evaluate H2 over the halved domain: %w", err)
	}
	h1Tree, err := core.NewMerkleTree(elementsToBytes(h1Evals))
	if err != nil {
		return nil, fmt.Errorf("prove: failed to commit H1: %w", err)
	}
	h2Tree, err := core.NewMerkleTree(elementsToBytes(h2Evals))
	if err != nil {
		return nil, fmt.Errorf("prove: failed to commit H2: %w", err)
	}
	transcript.Absorb(h1Tree.Root())
	transcript.Absorb(h2Tree.Root())

	z := transcript.ChallengeField(field)
	zOmega := z.Mul(traceDomain.Generator)
	zSquare := z.Mul(z)

	oodCurrent := make([]*core.FieldElement, ctx.TraceColumns)
	oodNext := make([]*core.FieldElement, ctx.TraceColumns)
	for j, poly := range tracePolys {
		oodCurrent[j] = poly.Eval(z)
		oodNext[j] = poly.Eval(zOmega)
	}
	oodH1 := h1.Eval(zSquare)
	oodH2 := h2.Eval(zSquare)

	transcript.AbsorbFieldElements(oodCurrent)
	transcript.AbsorbFieldElements(oodNext)
	transcript.Absorb(oodH1.Bytes())
	transcript.Absorb(oodH2.Bytes())

	gammas := make([]*core.FieldElement, 2+2*ctx.TraceColumns)
	for i := range gammas {
		gammas[i] = transcript.ChallengeField(field)
	}

	deepPoly, err := buildDeepPolynomial(field, tracePolys, h1, h2, z, zOmega, oodCurrent, oodNext, oodH1, oodH2, gammas)
	if err != nil {
		return nil, fmt.Errorf("prove: failed to build the DEEP polynomial: %w", err)
	}
	deepLDE, err := ldeDomain.Evaluate(deepPoly)
	if err != nil {
		return nil, fmt.Errorf("prove: failed to evaluate the DEEP polynomial over the LDE domain: %w", err)
	}

	friCommitment, err := FRICommit(field, ldeDomain, deepLDE, transcript)
	if err != nil {
		return nil, fmt.Errorf("prove: FRI commit phase failed: %w", err)
	}

	queryIndices := transcript.ChallengeIndices(ctx.Options.FriNumberOfQueries, ldeDomain.Length)
	halvedLength := halvedLDE.Length
	queries := make([]QueryProof, len(queryIndices))
	for i, q := range queryIndices {
		nextIndex := (q + ctx.Options.BlowupFactor) % ldeDomain.Length
		traceProof, err := traceTree.Proof(q)
		if err != nil {
			return nil, fmt.Errorf("prove: failed to open trace at %d: %w", q, err)
		}
		traceNextProof, err := traceTree.Proof(nextIndex)
		if err != nil {
			return nil, fmt.Errorf("prove: failed to open trace at %d: %w", nextIndex, err)
		}
		halvedIndex := q % halvedLength
		h1Proof, err := h1Tree.Proof(halvedIndex)
		if err != nil {
			return nil, fmt.Errorf("prove: failed to open H1 at %d: %w", halvedIndex, err)
		}
		h2Proof, err := h2Tree.Proof(halvedIndex)
		if err != nil {
			return nil, fmt.Errorf("prove: failed to open H2 at %d: %w", halvedIndex, err)
		}
		friProof, err := FRIOpen(friCommitment, q)
		if err != nil {
			return nil, fmt.Errorf("prove: failed to open FRI query %d: %w", q, err)
		}

		queries[i] = QueryProof{
			TraceValues:     rowAt(traceLDE, q),
			TraceProof:      traceProof,
			TraceNextValues: rowAt(traceLDE, nextIndex),
			TraceNextProof:  traceNextProof,
			H1Value:         h1Evals[halvedIndex],
			H1Proof:         h1Proof,
			H2Value:         h2Evals[halvedIndex],
			H2Proof:         h2Proof,
			FRI:             friProof,
		}
	}

	return &Proof{
		TraceRoot:        traceTree.Root(),
		H1Root:           h1Tree.Root(),
		H2Root:           h2Tree.Root(),
		OodTraceCurrent:  oodCurrent,
		OodTraceNext:     oodNext,
		OodH1:            oodH1,
		OodH2:            oodH2,
		FriLayerRoots:    friCommitment.LayerRoots,
		FriFinalConstant: friCommitment.FinalConstant,
		Queries:          queries,
	}, nil
}

// buildRowLeaves packs every column's value at row i into a single leaf, so
// one Merkle opening at i reveals the whole trace row.
func buildRowLeaves(columns [][]*core.FieldElement, length int) [][]byte {
	leaves := make([][]byte, length)
	for i := 0; i < length; i++ {
		var leaf []byte
		for _, col := range columns {
			leaf = append(leaf, col[i].Bytes()...)
		}
		leaves[i] = leaf
	}
	return leaves
}

func rowAt(columns [][]*core.FieldElement, index int) []*core.FieldElement {
	row := make([]*core.FieldElement, len(columns))
	for j, col := range columns {
		row[j] = col[index]
	}
	return row
}

// computeConstraintQuotients evaluates every transition and boundary
// constraint pointwise over the trace domain (the only interface the AIR
// exposes), interpolates each evaluation vector back into an explicit
// polynomial, and divides it exactly by its divisor. AIR.ComputeTransition
// is assumed to compute a fixed combination of register values whose
// polynomial degree does not exceed the trace length; this holds for every
// example AIR shipped in this package (all affine in the trace columns).
func computeConstraintQuotients(air AIR, trace *TraceTable, tracePolys []*core.Polynomial, traceDomain *ArithmeticDomain, traceRoots []*core.FieldElement) ([]quotientTerm, error) {
	ctx := air.Context()
	field := ctx.Field
	n := ctx.TraceLength

	numTransition := ctx.NumTransitionConstraints()
	transitionEvals := make([][]*core.FieldElement, numTransition)
	for k := 0; k < numTransition; k++ {
		transitionEvals[k] = make([]*core.FieldElement, n)
	}
	for row := 0; row < n; row++ {
		frame := trace.Frame(row)
		values := air.ComputeTransition(frame)
		if len(values) != numTransition {
			return nil, fmt.Errorf("AIR returned %d transition values, context declares %d", len(values), numTransition)
		}
		for k, v := range values {
			transitionEvals[k][row] = v
		}
	}

	var quotients []quotientTerm
	for k := 0; k < numTransition; k++ {
		poly, err := core.Interpolate(field, traceRoots, transitionEvals[k])
		if err != nil {
			return nil, fmt.Errorf("failed to interpolate transition constraint %d: %w", k, err)
		}
		quotient, err := core.DivideByVanishing(poly, n, traceRoots, ctx.TransitionExemptions[k])
		if err != nil {
			return nil, fmt.Errorf("transition constraint %d does not vanish on its required domain: %w", k, err)
		}
		quotients = append(quotients, quotientTerm{poly: quotient, bound: transitionQuotientBound(ctx, k)})
	}

	for _, bc := range air.BoundaryConstraints() {
		constant, err := core.NewPolynomial([]*core.FieldElement{bc.Value})
		if err != nil {
			return nil, err
		}
		numerator, err := tracePolys[bc.Column].Sub(constant)
		if err != nil {
			return nil, err
		}
		divisor, err := core.NewPolynomial([]*core.FieldElement{traceRoots[bc.Row].Neg(), field.One()})
		if err != nil {
			return nil, err
		}
		quotient, remainder, err := numerator.Div(divisor)
		if err != nil {
			return nil, fmt.Errorf("failed to divide boundary constraint at (col %d, row %d): %w", bc.Column, bc.Row, err)
		}
		if !remainder.IsZero() {
			return nil, fmt.Errorf("boundary constraint at (col %d, row %d) does not hold on the witness trace", bc.Column, bc.Row)
		}
		quotients = append(quotients, quotientTerm{poly: quotient, bound: boundaryQuotientBound(ctx)})
	}

	return quotients, nil
}

// combineQuotients degree-balances every quotient into a single composition
// polynomial: each quotient contributes both itself and itself shifted up
// by X^(targetDegree - bound), each scaled by its own transcript-sampled
// coefficient, so every term reaches the same maximum degree and a
// depth-len(quotients)*2 linear combination can't cancel a genuine
// violation in any single constraint without also perturbing its shifted
// twin.
func combineQuotients(field *core.Field, quotients []quotientTerm, alphas []*core.FieldElement, targetDegree int) (*core.Polynomial, error) {
	h, err := core.NewPolynomial([]*core.FieldElement{field.Zero()})
	if err != nil {
		return nil, err
	}
	for i, q := range quotients {
		direct, err := q.poly.MulScalar(alphas[2*i])
		if err != nil {
			return nil, err
		}
		h, err = h.Add(direct)
		if err != nil {
			return nil, err
		}

		shift := targetDegree - q.bound
		shiftMonomial, err := core.NewMonomial(field, field.One(), shift)
		if err != nil {
			return nil, err
		}
		shifted, err := q.poly.Mul(shiftMonomial)
		if err != nil {
			return nil, err
		}
		shifted, err = shifted.MulScalar(alphas[2*i+1])
		if err != nil {
			return nil, err
		}
		h, err = h.Add(shifted)
		if err != nil {
			return nil, err
		}
	}
	return h, nil
}

// splitEvenOdd decomposes H(X) = H1(X^2) + X*H2(X^2) by separating even-
// and odd-indexed coefficients, halving the degree each half needs to
// carry and letting both be committed on the squared (half-length) domain.
func splitEvenOdd(field *core.Field, h *core.Polynomial) (*core.Polynomial, *core.Polynomial) {
	coeffs := h.Coefficients()
	var evenCoeffs, oddCoeffs []*core.FieldElement
	for i, c := range coeffs {
		if i%2 == 0 {
			evenCoeffs = append(evenCoeffs, c)
		} else {
			oddCoeffs = append(oddCoeffs, c)
		}
	}
	if len(evenCoeffs) == 0 {
		evenCoeffs = []*core.FieldElement{field.Zero()}
	}
	if len(oddCoeffs) == 0 {
		oddCoeffs = []*core.FieldElement{field.Zero()}
	}
	h1, err := core.NewPolynomial(evenCoeffs)
	if err != nil {
		panic("splitEvenOdd: even coefficients always form a valid polynomial: " + err.Error())
	}
	h2, err := core.NewPolynomial(oddCoeffs)
	if err != nil {
		panic("splitEvenOdd: odd coefficients always form a valid polynomial: " + err.Error())
	}
	return h1, h2
}

// buildDeepPolynomial combines H1(X^2), H2(X^2), and every trace column
// polynomial, each divided exactly by (X - the out-of-domain point at
// which it was sampled), into the single polynomial whose low degree FRI
// will certify. A prover that lied about any OOD evaluation, or committed
// to an H1/H2/trace polynomial with the wrong degree, cannot make every
// one of these divisions exact.
func buildDeepPolynomial(field *core.Field, tracePolys []*core.Polynomial, h1, h2 *core.Polynomial, z, zOmega *core.FieldElement, oodCurrent, oodNext []*core.FieldElement, oodH1, oodH2 *core.FieldElement, gammas []*core.FieldElement) (*core.Polynomial, error) {
	xSquared, err := core.NewMonomial(field, field.One(), 2)
	if err != nil {
		return nil, err
	}

	deep, err := core.NewPolynomial([]*core.FieldElement{field.Zero()})
	if err != nil {
		return nil, err
	}

	addTerm := func(numeratorPoly *core.Polynomial, oodValue, point, gamma *core.FieldElement) error {
		constant, err := core.NewPolynomial([]*core.FieldElement{oodValue})
		if err != nil {
			return err
		}
		shifted, err := numeratorPoly.Sub(constant)
		if err != nil {
			return err
		}
		divisor, err := core.NewPolynomial([]*core.FieldElement{point.Neg(), field.One()})
		if err != nil {
			return err
		}
		quotient, remainder, err := shifted.Div(divisor)
		if err != nil {
			return err
		}
		if !remainder.IsZero() {
			return fmt.Errorf("out-of-domain evaluation is inconsistent with the committed polynomial")
		}
		term, err := quotient.MulScalar(gamma)
		if err != nil {
			return err
		}
		deep, err = deep.Add(term)
		return err
	}

	h1Composed, err := h1.Compose(xSquared)
	if err != nil {
		return nil, err
	}
	h2Composed, err := h2.Compose(xSquared)
	if err != nil {
		return nil, err
	}
	if err := addTerm(h1Composed, oodH1, z, gammas[0]); err != nil {
		return nil, err
	}
	if err := addTerm(h2Composed, oodH2, z, gammas[1]); err != nil {
		return nil, err
	}

	numColumns := len(tracePolys)
	for j, poly := range tracePolys {
		if err := addTerm(poly, oodCurrent[j], z, gammas[2+j]); err != nil {
			return nil, err
		}
		if err := addTerm(poly, oodNext[j], zOmega, gammas[2+numColumns+j]); err != nil {
			return nil, err
		}
	}

	return deep, nil
}
