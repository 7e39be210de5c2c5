package protocols

import (
	"fmt"

	"github.com/vybium/vybium-starks-vm/internal/vybium-starks-vm/core"
	"github.com/vybium/vybium-starks-vm/internal/vybium-starks-vm/utils"
)

// Verify replays the prover's transcript from the proof's commitments
// alone, checks the single out-of-domain composition identity, and checks
// every query's Merkle openings, DEEP consistency, and FRI folding chain.
// It returns a single boolean accept/reject decision plus a human-readable
// reason, never a panic: every malformed or inconsistent proof is reported
// through the return value.
func Verify(claim *Claim, proof *Proof) (bool, string) {
	ctx := claim.Air.Context()
	if err := ctx.Options.Validate(); err != nil {
		return false, fmt.Sprintf("invalid proof options: %v", err)
	}
	field := ctx.Field

	domains, err := DeriveProverDomains(field, ctx.TraceLength, ctx.Options.BlowupFactor, ctx.Options.CosetOffset)
	if err != nil {
		return false, fmt.Sprintf("failed to derive domains: %v", err)
	}
	traceDomain, ldeDomain := domains.Trace, domains.LDE
	traceRoots := traceDomain.Elements()

	halvedLDE, err := ldeDomain.Halve()
	if err != nil {
		return false, fmt.Sprintf("failed to halve the LDE domain: %v", err)
	}

	boundaryConstraints := claim.Air.BoundaryConstraints()
	numTransition := ctx.NumTransitionConstraints()
	bounds, targetDegree := constraintBounds(ctx, len(boundaryConstraints))

	transcript := utils.NewTranscript(claim.Bytes())
	transcript.Absorb(proof.TraceRoot)

	alphas := make([]*core.FieldElement, 2*len(bounds))
	for i := range alphas {
		alphas[i] = transcript.ChallengeField(field)
	}

	transcript.Absorb(proof.H1Root)
	transcript.Absorb(proof.H2Root)

	z := transcript.ChallengeField(field)
	zOmega := z.Mul(traceDomain.Generator)

	if len(proof.OodTraceCurrent) != ctx.TraceColumns || len(proof.OodTraceNext) != ctx.TraceColumns {
		return false, "out-of-domain trace evaluations do not match the AIR's column count"
	}
	transcript.AbsorbFieldElements(proof.OodTraceCurrent)
	transcript.AbsorbFieldElements(proof.OodTraceNext)
	transcript.Absorb(proof.OodH1.Bytes())
	transcript.Absorb(proof.OodH2.Bytes())

	gammas := make([]*core.FieldElement, 2+2*ctx.TraceColumns)
	for i := range gammas {
		gammas[i] = transcript.ChallengeField(field)
	}

	if ok, reason := checkOodComposition(claim.Air, ctx, traceRoots, boundaryConstraints, z, alphas, bounds, targetDegree, numTransition, proof); !ok {
		return false, reason
	}

	betas := ReplayFRICommitChallenges(field, transcript, proof.FriLayerRoots, proof.FriFinalConstant)

	queryIndices := transcript.ChallengeIndices(ctx.Options.FriNumberOfQueries, ldeDomain.Length)
	if len(proof.Queries) != len(queryIndices) {
		return false, fmt.Sprintf("proof has %d queries, expected %d", len(proof.Queries), len(queryIndices))
	}

	for i, index := range queryIndices {
		q := proof.Queries[i]
		if ok, reason := verifyQuery(field, ldeDomain, halvedLDE, ctx, proof, &q, index, z, zOmega, gammas, betas); !ok {
			return false, fmt.Sprintf("query %d: %s", i, reason)
		}
	}

	return true, "ok"
}

// checkOodComposition recomputes H(z) = H1(z^2) + z*H2(z^2) two independent
// ways - once from the claimed OodH1/OodH2, once from evaluating the AIR's
// transition function and every boundary constraint at the out-of-domain
// frame and degree-balancing exactly as the prover did - and compares them.
func checkOodComposition(air AIR, ctx *AirContext, traceRoots []*core.FieldElement, boundaryConstraints []BoundaryConstraint, z *core.FieldElement, alphas []*core.FieldElement, bounds []int, targetDegree, numTransition int, proof *Proof) (bool, string) {
	field := ctx.Field
	frame := &Frame{Current: proof.OodTraceCurrent, Next: proof.OodTraceNext}
	transVals := air.ComputeTransition(frame)
	if len(transVals) != numTransition {
		return false, fmt.Sprintf("AIR returned %d transition values at the OOD point, expected %d", len(transVals), numTransition)
	}

	expected := field.Zero()
	idx := 0
	for k := 0; k < numTransition; k++ {
		divisorVal, err := transitionDivisorValue(field, z, ctx.TraceLength, traceRoots, ctx.TransitionExemptions[k])
		if err != nil {
			return false, fmt.Sprintf("transition divisor %d vanishes at the sampled point: %v", k, err)
		}
		quotientVal, err := transVals[k].Div(divisorVal)
		if err != nil {
			return false, fmt.Sprintf("failed to evaluate transition quotient %d at the sampled point: %v", k, err)
		}
		expected = addBalancedTerm(field, expected, quotientVal, alphas, idx, bounds[idx], targetDegree, z)
		idx++
	}

	for _, bc := range boundaryConstraints {
		denominator := z.Sub(traceRoots[bc.Row])
		if denominator.IsZero() {
			return false, "boundary divisor vanishes at the sampled point"
		}
		numerator := proof.OodTraceCurrent[bc.Column].Sub(bc.Value)
		quotientVal, err := numerator.Div(denominator)
		if err != nil {
			return false, fmt.Sprintf("failed to evaluate boundary quotient at the sampled point: %v", err)
		}
		expected = addBalancedTerm(field, expected, quotientVal, alphas, idx, bounds[idx], targetDegree, z)
		idx++
	}

	actual := proof.OodH1.Add(z.Mul(proof.OodH2))
	if !expected.Equal(actual) {
		return false, "out-of-domain composition identity does not hold"
	}
	return true, "ok"
}

func addBalancedTerm(field *core.Field, acc, quotientVal *core.FieldElement, alphas []*core.FieldElement, idx, bound, targetDegree int, z *core.FieldElement) *core.FieldElement {
	direct := alphas[2*idx].Mul(quotientVal)
	shift := targetDegree - bound
	shiftedVal := z.Exp(bigFromInt(shift)).Mul(quotientVal)
	shifted := alphas[2*idx+1].Mul(shiftedVal)
	return acc.Add(direct).Add(shifted)
}

// transitionDivisorValue evaluates (X^n - 1) / prod_{e in exemptions}(X - roots[e])
// at point, matching core.DivideByVanishing's divisor exactly.
func transitionDivisorValue(field *core.Field, point *core.FieldElement, n int, roots []*core.FieldElement, exemptions []int) (*core.FieldElement, error) {
	vanishing := point.Exp(bigFromInt(n)).Sub(field.One())
	exemptionVal := field.One()
	for _, e := range exemptions {
		exemptionVal = exemptionVal.Mul(point.Sub(roots[e]))
	}
	return vanishing.Div(exemptionVal)
}

// verifyQuery checks one query's trace and H1/H2 Merkle openings, the DEEP
// consistency between those openings and the FRI layer-0 opening, and the
// FRI folding chain itself.
func verifyQuery(field *core.Field, ldeDomain, halvedLDE *ArithmeticDomain, ctx *AirContext, proof *Proof, q *QueryProof, index int, z, zOmega *core.FieldElement, gammas []*core.FieldElement, betas []*core.FieldElement) (bool, string) {
	if len(q.TraceValues) != ctx.TraceColumns || len(q.TraceNextValues) != ctx.TraceColumns {
		return false, "opened trace row has the wrong number of columns"
	}

	x := ldeDomain.Element(index)
	nextIndex := (index + ctx.Options.BlowupFactor) % ldeDomain.Length

	if !core.VerifyProof(proof.TraceRoot, rowLeaf(q.TraceValues), q.TraceProof, index) {
		return false, "trace Merkle proof invalid"
	}
	if !core.VerifyProof(proof.TraceRoot, rowLeaf(q.TraceNextValues), q.TraceNextProof, nextIndex) {
		return false, "next-row trace Merkle proof invalid"
	}

	halvedIndex := index % halvedLDE.Length
	if !core.VerifyProof(proof.H1Root, q.H1Value.Bytes(), q.H1Proof, halvedIndex) {
		return false, "H1 Merkle proof invalid"
	}
	if !core.VerifyProof(proof.H2Root, q.H2Value.Bytes(), q.H2Proof, halvedIndex) {
		return false, "H2 Merkle proof invalid"
	}

	deepVal, err := computeDeepValue(field, x, z, zOmega, q, proof, gammas)
	if err != nil {
		return false, fmt.Sprintf("failed to recompute DEEP value: %v", err)
	}
	if len(q.FRI.Openings) == 0 {
		return false, "FRI query proof has no layers"
	}
	if !deepVal.Equal(q.FRI.Openings[0].Value) {
		return false, "DEEP consistency check failed: recomputed value does not match FRI layer 0"
	}

	if err := FRIVerifyQuery(field, ldeDomain, proof.FriLayerRoots, betas, proof.FriFinalConstant, index, q.FRI); err != nil {
		return false, fmt.Sprintf("FRI verification failed: %v", err)
	}

	return true, "ok"
}

func computeDeepValue(field *core.Field, x, z, zOmega *core.FieldElement, q *QueryProof, proof *Proof, gammas []*core.FieldElement) (*core.FieldElement, error) {
	value := field.Zero()

	term1, err := q.H1Value.Sub(proof.OodH1).Div(x.Sub(z))
	if err != nil {
		return nil, err
	}
	value = value.Add(gammas[0].Mul(term1))

	term2, err := q.H2Value.Sub(proof.OodH2).Div(x.Sub(z))
	if err != nil {
		return nil, err
	}
	value = value.Add(gammas[1].Mul(term2))

	numColumns := len(q.TraceValues)
	for j := 0; j < numColumns; j++ {
		currentTerm, err := q.TraceValues[j].Sub(proof.OodTraceCurrent[j]).Div(x.Sub(z))
		if err != nil {
			return nil, err
		}
		value = value.Add(gammas[2+j].Mul(currentTerm))

		nextTerm, err := q.TraceValues[j].Sub(proof.OodTraceNext[j]).Div(x.Sub(zOmega))
		if err != nil {
			return nil, err
		}
		value = value.Add(gammas[2+numColumns+j].Mul(nextTerm))
	}

	return value, nil
}

func rowLeaf(values []*core.FieldElement) []byte {
	var leaf []byte
	for _, v := range values {
		leaf = append(leaf, v.Bytes()...)
	}
	return leaf
}
