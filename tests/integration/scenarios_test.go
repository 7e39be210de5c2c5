// Package integration exercises full prove/verify scenarios against the
// public pkg/vybium-starks-vm surface, as opposed to protocols' in-package
// unit tests.
package integration

import (
	"testing"

	"github.com/vybium/vybium-starks-vm/internal/vybium-starks-vm/core"
	"github.com/vybium/vybium-starks-vm/internal/vybium-starks-vm/protocols"
	"github.com/vybium/vybium-starks-vm/internal/vybium-starks-vm/utils"
	vybiumstarksvm "github.com/vybium/vybium-starks-vm/pkg/vybium-starks-vm"
)

func mustField(t *testing.T) *core.Field {
	t.Helper()
	field, err := core.NewField(core.StarkPrime)
	if err != nil {
		t.Fatalf("NewField(StarkPrime): %v", err)
	}
	return field
}

func TestFibonacciSeedOneOneVerifiesAndRejectsByteFlip(t *testing.T) {
	field := mustField(t)
	options := protocols.ProofOptions{BlowupFactor: 32, FriNumberOfQueries: 3, CosetOffset: field.NewElementFromInt64(5)}
	seed0, seed1 := field.One(), field.One()

	air := protocols.NewFibonacciAIR(field, 32, seed0, seed1, options)
	columns := protocols.FibonacciTrace(field, 32, seed0, seed1)
	table, err := vybiumstarksvm.BuildTraceTable(field, air.Context(), columns)
	if err != nil {
		t.Fatalf("BuildTraceTable: %v", err)
	}
	claim := vybiumstarksvm.NewClaim(air, []*core.FieldElement{seed0, seed1}, nil)

	proof, err := vybiumstarksvm.Prove(claim, table)
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}
	if result := vybiumstarksvm.Verify(claim, proof); !result.Valid {
		t.Fatalf("expected valid proof, got rejection: %s", result.Reason)
	}

	encoded, err := proof.Serialize(air.Context())
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	for _, byteIndex := range []int{0, len(encoded) / 2, len(encoded) - 1} {
		flipped := append([]byte(nil), encoded...)
		flipped[byteIndex] ^= 0xFF

		decoded, err := protocols.Deserialize(flipped, air.Context())
		if err != nil {
			// A flip that makes the encoding undecodable (a non-canonical
			// field element or an invalid direction byte) is also an
			// acceptable rejection: malformed input, not a valid proof.
			continue
		}
		if result := vybiumstarksvm.Verify(claim, decoded); result.Valid {
			t.Errorf("flipping byte %d of the proof was accepted as valid", byteIndex)
		}
	}
}

func TestIdentityTraceVerifiesAndRejectsCorruptedRow(t *testing.T) {
	field := mustField(t)
	options := protocols.ProofOptions{BlowupFactor: 4, FriNumberOfQueries: 3, CosetOffset: field.NewElementFromInt64(7)}
	initial := field.NewElementFromInt64(1)

	air := protocols.NewIdentityAIR(field, 8, options)
	columns := protocols.IdentityTrace(field, 8, initial)
	table, err := vybiumstarksvm.BuildTraceTable(field, air.Context(), columns)
	if err != nil {
		t.Fatalf("BuildTraceTable: %v", err)
	}
	claim := vybiumstarksvm.NewClaim(air, []*core.FieldElement{initial}, nil)

	proof, err := vybiumstarksvm.Prove(claim, table)
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}
	if result := vybiumstarksvm.Verify(claim, proof); !result.Valid {
		t.Fatalf("expected valid identity proof, got rejection: %s", result.Reason)
	}

	corrupted := make([][]*core.FieldElement, len(columns))
	for i, col := range columns {
		corrupted[i] = append([]*core.FieldElement(nil), col...)
	}
	corrupted[0][0] = corrupted[0][0].Add(field.One())

	badTable, err := vybiumstarksvm.BuildTraceTable(field, air.Context(), corrupted)
	if err != nil {
		t.Fatalf("BuildTraceTable on corrupted trace: %v", err)
	}
	if _, err := vybiumstarksvm.Prove(claim, badTable); err == nil {
		t.Error("expected Prove to reject a trace with a corrupted row 0")
	}
}

func TestCounterTraceWithExemptionAtLastRowVerifies(t *testing.T) {
	field := mustField(t)
	options := protocols.ProofOptions{BlowupFactor: 8, FriNumberOfQueries: 4, CosetOffset: field.NewElementFromInt64(3)}

	air := protocols.NewCounterAIR(field, 16, options)
	columns := protocols.CounterTrace(field, 16)
	table, err := vybiumstarksvm.BuildTraceTable(field, air.Context(), columns)
	if err != nil {
		t.Fatalf("BuildTraceTable: %v", err)
	}
	claim := vybiumstarksvm.NewClaim(air, nil, nil)

	proof, err := vybiumstarksvm.Prove(claim, table)
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}
	if result := vybiumstarksvm.Verify(claim, proof); !result.Valid {
		t.Fatalf("expected valid counter proof, got rejection: %s", result.Reason)
	}
}

func TestTwoColumnFibonacciSeedZeroOneVerifies(t *testing.T) {
	field := mustField(t)
	options := protocols.ProofOptions{BlowupFactor: 16, FriNumberOfQueries: 3, CosetOffset: field.NewElementFromInt64(11)}
	seed0, seed1 := field.Zero(), field.One()

	air := protocols.NewFibonacciAIR(field, 16, seed0, seed1, options)
	columns := protocols.FibonacciTrace(field, 16, seed0, seed1)
	table, err := vybiumstarksvm.BuildTraceTable(field, air.Context(), columns)
	if err != nil {
		t.Fatalf("BuildTraceTable: %v", err)
	}
	claim := vybiumstarksvm.NewClaim(air, []*core.FieldElement{seed0, seed1}, nil)

	proof, err := vybiumstarksvm.Prove(claim, table)
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}
	if result := vybiumstarksvm.Verify(claim, proof); !result.Valid {
		t.Fatalf("expected valid two-column proof, got rejection: %s", result.Reason)
	}
}

func TestMalformedProofTruncatedByOneByteIsRejected(t *testing.T) {
	field := mustField(t)
	options := protocols.ProofOptions{BlowupFactor: 4, FriNumberOfQueries: 3, CosetOffset: field.NewElementFromInt64(7)}
	initial := field.NewElementFromInt64(9)

	air := protocols.NewIdentityAIR(field, 8, options)
	columns := protocols.IdentityTrace(field, 8, initial)
	table, err := vybiumstarksvm.BuildTraceTable(field, air.Context(), columns)
	if err != nil {
		t.Fatalf("BuildTraceTable: %v", err)
	}
	claim := vybiumstarksvm.NewClaim(air, []*core.FieldElement{initial}, nil)

	proof, err := vybiumstarksvm.Prove(claim, table)
	if err != nil {
		t.Fatalf("Prove: %v", err)
	}
	encoded, err := proof.Serialize(air.Context())
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	if _, err := protocols.Deserialize(encoded[:len(encoded)-1], air.Context()); err == nil {
		t.Error("expected Deserialize to reject a proof truncated by one byte")
	}
}

func TestFRIFoldingOverPolynomialRejectsSwappedBeta(t *testing.T) {
	field := mustField(t)
	domain, err := protocols.NewArithmeticDomain(field, 16)
	if err != nil {
		t.Fatalf("NewArithmeticDomain: %v", err)
	}
	offsetDomain := domain.WithOffset(field.NewElementFromInt64(3))

	// P(X) = 3X^3 + 2X^2 + X + 5
	coeffs := []*core.FieldElement{
		field.NewElementFromInt64(5),
		field.NewElementFromInt64(1),
		field.NewElementFromInt64(2),
		field.NewElementFromInt64(3),
	}
	poly, err := core.NewPolynomial(coeffs)
	if err != nil {
		t.Fatalf("NewPolynomial: %v", err)
	}
	evals, err := offsetDomain.Evaluate(poly)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	transcript := utils.NewTranscript([]byte("fri-folding-scenario"))
	commitment, err := protocols.FRICommit(field, offsetDomain, evals, transcript)
	if err != nil {
		t.Fatalf("FRICommit: %v", err)
	}

	verifierTranscript := utils.NewTranscript([]byte("fri-folding-scenario"))
	betas := protocols.ReplayFRICommitChallenges(field, verifierTranscript, commitment.LayerRoots, commitment.FinalConstant)

	for _, index := range []int{0, 5, 15} {
		proof, err := protocols.FRIOpen(commitment, index)
		if err != nil {
			t.Fatalf("FRIOpen(%d): %v", index, err)
		}
		if err := protocols.FRIVerifyQuery(field, offsetDomain, commitment.LayerRoots, betas, commitment.FinalConstant, index, proof); err != nil {
			t.Errorf("FRIVerifyQuery(%d) with honest betas: %v", index, err)
		}
	}

	swapped := append([]*core.FieldElement(nil), betas...)
	swapped[1] = swapped[1].Add(field.One())
	proof, err := protocols.FRIOpen(commitment, 5)
	if err != nil {
		t.Fatalf("FRIOpen: %v", err)
	}
	if err := protocols.FRIVerifyQuery(field, offsetDomain, commitment.LayerRoots, swapped, commitment.FinalConstant, 5, proof); err == nil {
		t.Error("expected FRIVerifyQuery to reject a proof checked against a swapped layer-1 beta")
	}
}
