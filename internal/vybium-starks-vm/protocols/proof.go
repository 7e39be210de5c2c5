package protocols

import (
	"fmt"

	"github.com/vybium/vybium-starks-vm/internal/vybium-starks-vm/core"
)

// QueryProof answers one FRI query position with everything the verifier
// needs to recompute the DEEP composition value at that position and check
// it against the FRI folding chain: the opened trace row (current and next,
// from the single trace Merkle tree), the opened even/odd composition
// values (from the H1/H2 trees), and the FRI decommitment itself. The query
// index is never serialized: both prover and verifier derive it
// independently from the transcript, so there is nothing to agree on here.
type QueryProof struct {
	TraceValues     []*core.FieldElement
	TraceProof      []core.ProofNode
	TraceNextValues []*core.FieldElement
	TraceNextProof  []core.ProofNode
	H1Value         *core.FieldElement
	H1Proof         []core.ProofNode
	H2Value         *core.FieldElement
	H2Proof         []core.ProofNode
	FRI             *FRIQueryProof
}

// Proof is the complete, self-contained output of Prove: the three Merkle
// commitments (trace, and the even/odd halves H1/H2 of the composition
// polynomial), the out-of-domain evaluations tying them together at the
// sampled point z, the FRI layer roots and final constant, and one
// QueryProof per verifier query.
type Proof struct {
	TraceRoot []byte
	H1Root    []byte
	H2Root    []byte

	OodTraceCurrent []*core.FieldElement
	OodTraceNext    []*core.FieldElement
	OodH1           *core.FieldElement
	OodH2           *core.FieldElement

	FriLayerRoots    [][]byte
	FriFinalConstant *core.FieldElement

	Queries []QueryProof
}

// Serialize encodes the proof to a flat byte string with no length
// prefixes: every size (trace column count, number of queries, FRI layer
// count and depth at each layer) is implied by ctx and options, exactly as
// the AirContext/ProofOptions the verifier already holds, so prover and
// verifier never disagree about how many bytes a field follows.
func (p *Proof) Serialize(ctx *AirContext) ([]byte, error) {
	if _, err := proofShape(ctx); err != nil {
		return nil, err
	}

	var out []byte
	out = append(out, p.TraceRoot...)
	out = append(out, p.H1Root...)
	out = append(out, p.H2Root...)

	for _, fe := range p.OodTraceCurrent {
		out = append(out, fe.Bytes()...)
	}
	for _, fe := range p.OodTraceNext {
		out = append(out, fe.Bytes()...)
	}
	out = append(out, p.OodH1.Bytes()...)
	out = append(out, p.OodH2.Bytes()...)

	for _, root := range p.FriLayerRoots {
		out = append(out, root...)
	}
	out = append(out, p.FriFinalConstant.Bytes()...)

	for _, q := range p.Queries {
		out = appendElements(out, q.TraceValues)
		out = appendProof(out, q.TraceProof)
		out = appendElements(out, q.TraceNextValues)
		out = appendProof(out, q.TraceNextProof)
		out = append(out, q.H1Value.Bytes()...)
		out = appendProof(out, q.H1Proof)
		out = append(out, q.H2Value.Bytes()...)
		out = appendProof(out, q.H2Proof)
		for _, opening := range q.FRI.Openings {
			out = append(out, opening.Value.Bytes()...)
			out = appendProof(out, opening.Proof)
			out = append(out, opening.SymValue.Bytes()...)
			out = appendProof(out, opening.SymProof)
		}
	}

	return out, nil
}

// Deserialize decodes a proof produced by Serialize for the same
// AirContext, failing with a descriptive error (never a panic) the moment
// fewer bytes remain than the next field requires, so a truncated or
// corrupted proof is always rejected rather than silently misread.
func Deserialize(data []byte, ctx *AirContext) (*Proof, error) {
	shape, err := proofShape(ctx)
	if err != nil {
		return nil, err
	}
	field := ctx.Field
	c := &cursor{data: data}

	proof := &Proof{}
	proof.TraceRoot, err = c.take(hashLen)
	if err != nil {
		return nil, err
	}
	proof.H1Root, err = c.take(hashLen)
	if err != nil {
		return nil, err
	}
	proof.H2Root, err = c.take(hashLen)
	if err != nil {
		return nil, err
	}

	proof.OodTraceCurrent, err = c.takeElements(field, ctx.TraceColumns)
	if err != nil {
		return nil, err
	}
	proof.OodTraceNext, err = c.takeElements(field, ctx.TraceColumns)
	if err != nil {
		return nil, err
	}
	proof.OodH1, err = c.takeElement(field)
	if err != nil {
		return nil, err
	}
	proof.OodH2, err = c.takeElement(field)
	if err != nil {
		return nil, err
	}

	proof.FriLayerRoots = make([][]byte, shape.numFriLayers)
	for i := range proof.FriLayerRoots {
		proof.FriLayerRoots[i], err = c.take(hashLen)
		if err != nil {
			return nil, err
		}
	}
	proof.FriFinalConstant, err = c.takeElement(field)
	if err != nil {
		return nil, err
	}

	proof.Queries = make([]QueryProof, ctx.Options.FriNumberOfQueries)
	for i := range proof.Queries {
		q := &proof.Queries[i]
		q.TraceValues, err = c.takeElements(field, ctx.TraceColumns)
		if err != nil {
			return nil, err
		}
		q.TraceProof, err = c.takeProof(shape.traceDepth)
		if err != nil {
			return nil, err
		}
		q.TraceNextValues, err = c.takeElements(field, ctx.TraceColumns)
		if err != nil {
			return nil, err
		}
		q.TraceNextProof, err = c.takeProof(shape.traceDepth)
		if err != nil {
			return nil, err
		}
		q.H1Value, err = c.takeElement(field)
		if err != nil {
			return nil, err
		}
		q.H1Proof, err = c.takeProof(shape.halvedDepth)
		if err != nil {
			return nil, err
		}
		q.H2Value, err = c.takeElement(field)
		if err != nil {
			return nil, err
		}
		q.H2Proof, err = c.takeProof(shape.halvedDepth)
		if err != nil {
			return nil, err
		}

		openings := make([]FRILayerOpening, shape.numFriLayers)
		depth := shape.traceDepth
		for layer := range openings {
			openings[layer].Value, err = c.takeElement(field)
			if err != nil {
				return nil, err
			}
			openings[layer].Proof, err = c.takeProof(depth)
			if err != nil {
				return nil, err
			}
			openings[layer].SymValue, err = c.takeElement(field)
			if err != nil {
				return nil, err
			}
			openings[layer].SymProof, err = c.takeProof(depth)
			if err != nil {
				return nil, err
			}
			depth--
		}
		q.FRI = &FRIQueryProof{Openings: openings}
	}

	return proof, nil
}

const hashLen = 32

// proofShapeInfo holds every size derivable from AirContext/ProofOptions
// that Serialize/Deserialize need to agree on field widths without ever
// writing a length prefix into the proof itself.
type proofShapeInfo struct {
	ldeLength    int
	numFriLayers int
	traceDepth   int
	halvedDepth  int
}

func proofShape(ctx *AirContext) (proofShapeInfo, error) {
	ldeLength := ctx.TraceLength * ctx.Options.BlowupFactor
	depth := 0
	for n := ldeLength; n > 1; n /= 2 {
		depth++
	}
	if depth == 0 {
		return proofShapeInfo{}, fmt.Errorf("LDE domain of length %d is too small for FRI", ldeLength)
	}
	return proofShapeInfo{
		ldeLength:    ldeLength,
		numFriLayers: depth,
		traceDepth:   depth,
		halvedDepth:  depth - 1,
	}, nil
}

func appendElements(out []byte, elements []*core.FieldElement) []byte {
	for _, fe := range elements {
		out = append(out, fe.Bytes()...)
	}
	return out
}

func appendProof(out []byte, proof []core.ProofNode) []byte {
	for _, node := range proof {
		out = append(out, node.Hash...)
		if node.IsRight {
			out = append(out, 1)
		} else {
			out = append(out, 0)
		}
	}
	return out
}

// cursor is a bounds-checked reader over a proof's raw bytes.
type cursor struct {
	data []byte
	pos  int
}

func (c *cursor) take(n int) ([]byte, error) {
	if c.pos+n > len(c.data) {
		return nil, fmt.Errorf("serialization: unexpected end of proof, need %d bytes, have %d", n, len(c.data)-c.pos)
	}
	out := c.data[c.pos : c.pos+n]
	c.pos += n
	return append([]byte(nil), out...), nil
}

func (c *cursor) takeElement(field *core.Field) (*core.FieldElement, error) {
	raw, err := c.take(field.ByteLen())
	if err != nil {
		return nil, err
	}
	fe, err := field.ElementFromBytes(raw)
	if err != nil {
		return nil, fmt.Errorf("serialization: invalid field element encoding: %w", err)
	}
	return fe, nil
}

func (c *cursor) takeElements(field *core.Field, count int) ([]*core.FieldElement, error) {
	out := make([]*core.FieldElement, count)
	for i := range out {
		fe, err := c.takeElement(field)
		if err != nil {
			return nil, err
		}
		out[i] = fe
	}
	return out, nil
}

func (c *cursor) takeProof(depth int) ([]core.ProofNode, error) {
	out := make([]core.ProofNode, depth)
	for i := range out {
		hash, err := c.take(hashLen)
		if err != nil {
			return nil, err
		}
		flag, err := c.take(1)
		if err != nil {
			return nil, err
		}
		if flag[0] > 1 {
			return nil, fmt.Errorf("serialization: invalid proof node direction byte %d", flag[0])
		}
		out[i] = core.ProofNode{Hash: hash, IsRight: flag[0] == 1}
	}
	return out, nil
}
