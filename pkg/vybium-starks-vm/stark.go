package vybiumstarksvm

import (
	"github.com/vybium/vybium-starks-vm/internal/vybium-starks-vm/protocols"
)

// Prove runs the STARK proving algorithm for claim against trace, a witness
// table satisfying claim.Air's constraints. It is a thin pass-through to
// protocols.Prove; this package exists so callers only ever import the
// stable pkg/ surface, never internal/.
func Prove(claim *Claim, trace *TraceTable) (*Proof, error) {
	return protocols.Prove(claim, trace)
}

// Verify checks proof against claim and reports a single accept/reject
// decision plus a human-readable reason.
func Verify(claim *Claim, proof *Proof) VerificationResult {
	valid, reason := protocols.Verify(claim, proof)
	return VerificationResult{Valid: valid, Reason: reason}
}

// NewClaim binds an AIR instance to the public statement its proof attests
// to: that some trace satisfying air's constraints produced publicOutput
// from publicInput.
func NewClaim(air AIR, publicInput, publicOutput []*FieldElement) *Claim {
	return protocols.NewClaim(air, publicInput, publicOutput)
}

// BuildTraceTable wraps a set of column-major witness values as a
// TraceTable, validating its shape against ctx.
func BuildTraceTable(field *Field, ctx *AirContext, columns [][]*FieldElement) (*TraceTable, error) {
	return protocols.BuildTraceTable(field, ctx, columns)
}
