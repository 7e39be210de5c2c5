package protocols

import (
	"fmt"

	"github.com/vybium/vybium-starks-vm/internal/vybium-starks-vm/core"
	"github.com/vybium/vybium-starks-vm/internal/vybium-starks-vm/utils"
)

// FRILayer is one step of the FRI commit phase: the evaluations of the
// current folded function over its domain, and the Merkle tree
// committing to them.
type FRILayer struct {
	Domain      *ArithmeticDomain
	Evaluations []*core.FieldElement
	Tree        *core.MerkleTree
}

// FRICommitment is the output of the commit phase: one Merkle root per
// layer (the last layer is the constant itself, with no Merkle tree) plus
// everything the query phase needs to answer verifier challenges.
type FRICommitment struct {
	Layers        []*FRILayer
	LayerRoots    [][]byte
	FinalConstant *core.FieldElement
}

// FRILayerOpening is a single layer's contribution to a FRI query: the
// function value at the queried index and at its symmetric pair, each
// with a Merkle inclusion proof against that layer's root.
type FRILayerOpening struct {
	Value        *core.FieldElement
	Proof        []core.ProofNode
	SymValue     *core.FieldElement
	SymProof     []core.ProofNode
}

// FRIQueryProof answers one verifier query index with an opening at every
// folding layer.
type FRIQueryProof struct {
	Openings []FRILayerOpening
}

// FRICommit runs the FRI commit phase over an evaluation vector given on a
// coset domain, folding by 2 each round via challenges drawn from
// transcript, until the domain has length 1 (the constant final layer).
// Every root it computes is absorbed into transcript as it is produced, so
// the challenge for round i depends on everything committed through round i.
func FRICommit(field *core.Field, domain *ArithmeticDomain, evaluations []*core.FieldElement, transcript *utils.Transcript) (*FRICommitment, error) {
	if len(evaluations) != domain.Length {
		return nil, fmt.Errorf("fri: evaluations length %d does not match domain length %d", len(evaluations), domain.Length)
	}

	currentDomain := domain
	currentEvals := evaluations

	var layers []*FRILayer
	var roots [][]byte

	for currentDomain.Length > 1 {
		tree, err := core.NewMerkleTree(elementsToBytes(currentEvals))
		if err != nil {
			return nil, fmt.Errorf("fri: failed to commit layer: %w", err)
		}
		layers = append(layers, &FRILayer{Domain: currentDomain, Evaluations: currentEvals, Tree: tree})
		roots = append(roots, tree.Root())
		transcript.Absorb(tree.Root())

		beta := transcript.ChallengeField(field)

		nextEvals, err := foldEvaluations(field, currentEvals, currentDomain, beta)
		if err != nil {
			return nil, fmt.Errorf("fri: fold failed: %w", err)
		}
		nextDomain, err := currentDomain.Halve()
		if err != nil {
			return nil, fmt.Errorf("fri: failed to halve domain: %w", err)
		}

		currentEvals = nextEvals
		currentDomain = nextDomain
	}

	finalConstant := currentEvals[0]
	for _, v := range currentEvals {
		if !v.Equal(finalConstant) {
			return nil, fmt.Errorf("fri: final layer is not constant")
		}
	}
	transcript.Absorb(finalConstant.Bytes())

	return &FRICommitment{Layers: layers, LayerRoots: roots, FinalConstant: finalConstant}, nil
}

// foldEvaluations applies the FRI folding formula:
//
//	f'(x^2) = (f(x) + f(-x))/2 + beta * (f(x) - f(-x)) / (2x)
//
// where x ranges over the first half of domain and -x = domain[i + n/2].
func foldEvaluations(field *core.Field, evals []*core.FieldElement, domain *ArithmeticDomain, beta *core.FieldElement) ([]*core.FieldElement, error) {
	n := domain.Length
	half := n / 2
	two := field.NewElementFromInt64(2)
	points := domain.Elements()

	// Every fold needs 1/(2x) for each of the half domain points plus a
	// single 1/2; batch them with Montgomery's trick instead of half+1
	// independent extended-Euclidean inversions.
	denominators := make([]*core.FieldElement, half+1)
	denominators[0] = two
	for i := 0; i < half; i++ {
		denominators[i+1] = points[i].Mul(two)
	}
	inverses, err := field.BatchInversion(denominators)
	if err != nil {
		return nil, fmt.Errorf("fri: failed to batch-invert fold denominators: %w", err)
	}
	halfInv := inverses[0]

	out := make([]*core.FieldElement, half)
	for i := 0; i < half; i++ {
		fx := evals[i]
		fNegX := evals[i+half]

		sum := fx.Add(fNegX)
		firstTerm := sum.Mul(halfInv)

		diff := fx.Sub(fNegX)
		secondTerm := beta.Mul(diff.Mul(inverses[i+1]))

		out[i] = firstTerm.Add(secondTerm)
	}
	return out, nil
}

// FRIOpen answers a single query index against every commit-phase layer.
func FRIOpen(commitment *FRICommitment, index int) (*FRIQueryProof, error) {
	openings := make([]FRILayerOpening, len(commitment.Layers))
	idx := index
	for i, layer := range commitment.Layers {
		n := layer.Domain.Length
		idx = idx % n
		sym := (idx + n/2) % n

		proof, err := layer.Tree.Proof(idx)
		if err != nil {
			return nil, fmt.Errorf("fri: failed to open layer %d at %d: %w", i, idx, err)
		}
		symProof, err := layer.Tree.Proof(sym)
		if err != nil {
			return nil, fmt.Errorf("fri: failed to open layer %d at %d: %w", i, sym, err)
		}

		openings[i] = FRILayerOpening{
			Value:    layer.Evaluations[idx],
			Proof:    proof,
			SymValue: layer.Evaluations[sym],
			SymProof: symProof,
		}
		idx = idx % (n / 2)
	}
	return &FRIQueryProof{Openings: openings}, nil
}

// FRIVerifyQuery checks one query proof against the committed roots,
// challenges, and final constant, re-deriving the folding relation layer
// by layer instead of trusting any prover-supplied intermediate value.
func FRIVerifyQuery(field *core.Field, domain *ArithmeticDomain, roots [][]byte, betas []*core.FieldElement, finalConstant *core.FieldElement, index int, proof *FRIQueryProof) error {
	if len(proof.Openings) != len(roots) {
		return fmt.Errorf("fri: query proof has %d layers, expected %d", len(proof.Openings), len(roots))
	}

	currentDomain := domain
	idx := index
	two := field.NewElementFromInt64(2)

	for i, opening := range proof.Openings {
		n := currentDomain.Length
		localIdx := idx % n
		sym := (localIdx + n/2) % n

		if !core.VerifyProof(roots[i], opening.Value.Bytes(), opening.Proof, localIdx) {
			return fmt.Errorf("fri: merkle proof invalid at layer %d, index %d", i, localIdx)
		}
		if !core.VerifyProof(roots[i], opening.SymValue.Bytes(), opening.SymProof, sym) {
			return fmt.Errorf("fri: merkle proof invalid at layer %d, symmetric index %d", i, sym)
		}

		// The folding formula always treats fx as the first-half
		// representative and fNegX as its negation. opening.Value is the
		// evaluation at localIdx and opening.SymValue at sym, so which one
		// plays which role flips depending on which half localIdx falls in
		// - matching foldEvaluations, which always folds with evals[i] as
		// fx and evals[i+half] as fNegX.
		fx, fNegX := opening.Value, opening.SymValue
		x := currentDomain.Elements()[localIdx]
		if localIdx >= n/2 {
			fx, fNegX = opening.SymValue, opening.Value
			x = currentDomain.Elements()[sym]
		}

		sum := fx.Add(fNegX)
		firstTerm, err := sum.Div(two)
		if err != nil {
			return err
		}
		diff := fx.Sub(fNegX)
		twoX := x.Mul(two)
		quotient, err := diff.Div(twoX)
		if err != nil {
			return err
		}
		expectedNext := firstTerm.Add(betas[i].Mul(quotient))

		nextDomain, err := currentDomain.Halve()
		if err != nil {
			return fmt.Errorf("fri: failed to halve domain during verification: %w", err)
		}

		if i == len(proof.Openings)-1 {
			if !expectedNext.Equal(finalConstant) {
				return fmt.Errorf("fri: folded value does not match final constant")
			}
		} else {
			// The next layer's query index is derived the same way on both
			// sides (idx mod domain length at each successively halved
			// domain), so the opening it stores at its primary Value always
			// corresponds to this fold's output position - never its
			// symmetric pair.
			nextOpening := proof.Openings[i+1]
			if !expectedNext.Equal(nextOpening.Value) {
				return fmt.Errorf("fri: fold inconsistent between layer %d and %d", i, i+1)
			}
		}

		currentDomain = nextDomain
		idx = localIdx
	}

	return nil
}

// ReplayFRICommitChallenges reproduces the sequence of Absorb/ChallengeField
// calls FRICommit makes during the prover's commit phase, using only the
// layer roots and final constant a proof already carries. The verifier
// calls this instead of FRICommit (which would require the full evaluation
// vectors and rebuild every Merkle tree) so that its transcript ends up in
// exactly the state the prover's did, ready for ChallengeIndices to agree.
func ReplayFRICommitChallenges(field *core.Field, transcript *utils.Transcript, layerRoots [][]byte, finalConstant *core.FieldElement) []*core.FieldElement {
	betas := make([]*core.FieldElement, len(layerRoots))
	for i, root := range layerRoots {
		transcript.Absorb(root)
		betas[i] = transcript.ChallengeField(field)
	}
	transcript.Absorb(finalConstant.Bytes())
	return betas
}

func elementsToBytes(evals []*core.FieldElement) [][]byte {
	out := make([][]byte, len(evals))
	for i, e := range evals {
		out[i] = e.Bytes()
	}
	return out
}
