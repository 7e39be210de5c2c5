package vybiumstarksvm

import (
	"github.com/vybium/vybium-starks-vm/internal/vybium-starks-vm/core"
	"github.com/vybium/vybium-starks-vm/internal/vybium-starks-vm/protocols"
)

// FieldElement represents an element in a finite field
// This is the public type for field elements used throughout Vybium STARKs VM
type FieldElement = core.FieldElement

// Field represents a finite field
type Field = core.Field

// Proof represents a STARK proof produced by Prove and consumed by Verify.
type Proof = protocols.Proof

// Claim represents the public statement a Proof attests to.
type Claim = protocols.Claim

// AIR is the contract a caller-supplied computation implements to be
// provable by this package: its shape (Context), its transition
// constraints, and its boundary constraints.
type AIR = protocols.AIR

// AirContext carries an AIR's public shape: field, trace dimensions,
// transition constraint degrees/exemptions, and proof options.
type AirContext = protocols.AirContext

// ProofOptions are the public, prover/verifier-agreed parameters governing
// a proof's size and soundness: blowup factor, FRI query count, coset
// offset, and grinding factor.
type ProofOptions = protocols.ProofOptions

// Frame is the pair of consecutive trace rows a transition constraint is
// evaluated against.
type Frame = protocols.Frame

// BoundaryConstraint pins a single trace cell to a known value.
type BoundaryConstraint = protocols.BoundaryConstraint

// TraceTable holds a witness execution trace as column-major value slices.
type TraceTable = protocols.TraceTable

// Config represents configuration for the STARK prover/verifier
type Config struct {
	// Field modulus for finite field arithmetic
	FieldModulus string

	// Security level in bits (128 or 256)
	SecurityLevel int

	// Trace length (must be power of 2)
	TraceLength int

	// Evaluation domain size
	EvaluationDomain int

	// Number of FRI queries for soundness
	FRIQueries int

	// Blowup factor for low-degree extension
	BlowupFactor int
}

// VerificationResult represents the outcome of verifying a proof: a single
// accept/reject decision plus a human-readable reason, matching the
// protocols.Verify contract this package wraps.
type VerificationResult struct {
	// Whether the proof is valid
	Valid bool

	// Reason explains why Valid is false, or "ok" when it is true.
	Reason string
}
