package protocols

import (
	"github.com/vybium/vybium-starks-vm/internal/vybium-starks-vm/core"
)

// Claim is the public statement a Proof attests to: that some execution
// trace satisfying air's transition and boundary constraints produced
// PublicOutput from PublicInput. The verifier never sees the trace itself,
// only this claim and the proof.
type Claim struct {
	Air          AIR
	PublicInput  []*core.FieldElement
	PublicOutput []*core.FieldElement
}

// NewClaim creates a new claim bound to a specific AIR instance.
func NewClaim(air AIR, publicInput, publicOutput []*core.FieldElement) *Claim {
	return &Claim{Air: air, PublicInput: publicInput, PublicOutput: publicOutput}
}

// Bytes returns a deterministic byte encoding of the claim for seeding the
// Fiat-Shamir transcript, so a proof for one claim can never be replayed
// against another.
func (c *Claim) Bytes() []byte {
	ctx := c.Air.Context()
	var out []byte
	out = appendInt(out, ctx.TraceLength)
	out = appendInt(out, ctx.TraceColumns)
	for _, fe := range c.PublicInput {
		out = append(out, fe.Bytes()...)
	}
	for _, fe := range c.PublicOutput {
		out = append(out, fe.Bytes()...)
	}
	return out
}

func appendInt(b []byte, v int) []byte {
	return append(b, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}
