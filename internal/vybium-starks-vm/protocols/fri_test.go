package protocols

import (
	"testing"

	"github.com/vybium/vybium-starks-vm/internal/vybium-starks-vm/core"
	"github.com/vybium/vybium-starks-vm/internal/vybium-starks-vm/utils"
)

func friTestField(t *testing.T) *core.Field {
	t.Helper()
	field, err := core.NewFieldFromUint64(3221225473) // 3*2^30 + 1, two-adicity 30
	if err != nil {
		t.Fatalf("NewFieldFromUint64: %v", err)
	}
	return field
}

// lowDegreeEvaluations builds the evaluations of a low-degree polynomial
// over a coset domain, so FRI has a genuine witness of low degree to
// certify.
func lowDegreeEvaluations(t *testing.T, field *core.Field, domain *ArithmeticDomain, degree int) []*core.FieldElement {
	t.Helper()
	coeffs := make([]*core.FieldElement, degree+1)
	for i := range coeffs {
		coeffs[i] = field.NewElementFromInt64(int64(i*3 + 1))
	}
	poly, err := core.NewPolynomial(coeffs)
	if err != nil {
		t.Fatalf("NewPolynomial: %v", err)
	}
	evals, err := domain.Evaluate(poly)
	if err != nil {
		t.Fatalf("domain.Evaluate: %v", err)
	}
	return evals
}

func TestFRICommitOpenVerifyRoundTrip(t *testing.T) {
	field := friTestField(t)
	domain, err := NewArithmeticDomain(field, 64)
	if err != nil {
		t.Fatalf("NewArithmeticDomain: %v", err)
	}
	offsetDomain := domain.WithOffset(field.NewElementFromInt64(3))
	evals := lowDegreeEvaluations(t, field, offsetDomain, 7)

	transcript := utils.NewTranscript([]byte("fri-test"))
	commitment, err := FRICommit(field, offsetDomain, evals, transcript)
	if err != nil {
		t.Fatalf("FRICommit: %v", err)
	}

	verifierTranscript := utils.NewTranscript([]byte("fri-test"))
	betas := ReplayFRICommitChallenges(field, verifierTranscript, commitment.LayerRoots, commitment.FinalConstant)

	for _, index := range []int{0, 1, 17, 63} {
		proof, err := FRIOpen(commitment, index)
		if err != nil {
			t.Fatalf("FRIOpen(%d): %v", index, err)
		}
		if err := FRIVerifyQuery(field, offsetDomain, commitment.LayerRoots, betas, commitment.FinalConstant, index, proof); err != nil {
			t.Errorf("FRIVerifyQuery(%d): %v", index, err)
		}
	}
}

func TestFRIVerifyQueryRejectsTamperedValue(t *testing.T) {
	field := friTestField(t)
	domain, err := NewArithmeticDomain(field, 32)
	if err != nil {
		t.Fatalf("NewArithmeticDomain: %v", err)
	}
	offsetDomain := domain.WithOffset(field.NewElementFromInt64(5))
	evals := lowDegreeEvaluations(t, field, offsetDomain, 3)

	transcript := utils.NewTranscript([]byte("fri-tamper"))
	commitment, err := FRICommit(field, offsetDomain, evals, transcript)
	if err != nil {
		t.Fatalf("FRICommit: %v", err)
	}
	verifierTranscript := utils.NewTranscript([]byte("fri-tamper"))
	betas := ReplayFRICommitChallenges(field, verifierTranscript, commitment.LayerRoots, commitment.FinalConstant)

	proof, err := FRIOpen(commitment, 4)
	if err != nil {
		t.Fatalf("FRIOpen: %v", err)
	}
	proof.Openings[0].Value = proof.Openings[0].Value.Add(field.One())

	if err := FRIVerifyQuery(field, offsetDomain, commitment.LayerRoots, betas, commitment.FinalConstant, 4, proof); err == nil {
		t.Error("expected FRIVerifyQuery to reject a tampered opening value")
	}
}

func TestFRIVerifyQueryRejectsWrongBeta(t *testing.T) {
	field := friTestField(t)
	domain, err := NewArithmeticDomain(field, 32)
	if err != nil {
		t.Fatalf("NewArithmeticDomain: %v", err)
	}
	offsetDomain := domain.WithOffset(field.NewElementFromInt64(5))
	evals := lowDegreeEvaluations(t, field, offsetDomain, 3)

	transcript := utils.NewTranscript([]byte("fri-beta"))
	commitment, err := FRICommit(field, offsetDomain, evals, transcript)
	if err != nil {
		t.Fatalf("FRICommit: %v", err)
	}
	verifierTranscript := utils.NewTranscript([]byte("fri-beta"))
	betas := ReplayFRICommitChallenges(field, verifierTranscript, commitment.LayerRoots, commitment.FinalConstant)
	betas[0] = betas[0].Add(field.One())

	proof, err := FRIOpen(commitment, 2)
	if err != nil {
		t.Fatalf("FRIOpen: %v", err)
	}
	if err := FRIVerifyQuery(field, offsetDomain, commitment.LayerRoots, betas, commitment.FinalConstant, 2, proof); err == nil {
		t.Error("expected FRIVerifyQuery to reject a swapped folding challenge")
	}
}
