// Package vybiumstarksvm provides a transparent zero-knowledge STARK
// proving and verification engine: finite field arithmetic, two-adic
// coset FFTs, polynomial interpolation, Merkle commitments, a Fiat-Shamir
// transcript, FRI, and a STARK prover/verifier parameterized over a
// caller-supplied algebraic intermediate representation (AIR).
//
// # Features
//
//   - Two-adic prime field arithmetic over arbitrary-precision moduli
//   - Radix-2 coset FFT/IFFT with pluggable twiddle orderings
//   - Merkle commitment over field-element rows
//   - A Fiat-Shamir transcript driving every prover/verifier challenge
//   - FRI low-degree testing with DEEP composition
//   - A STARK prover/verifier written once against the AIR interface,
//     never against a concrete computation
//
// # Quick start
//
// Proving and verifying a computation means implementing the AIR
// interface (or reusing one of the example AIRs this package ships for
// testing) and calling Prove/Verify directly:
//
//	field, _ := core.NewField(core.StarkPrime)
//	options := protocols.ProofOptions{BlowupFactor: 8, FriNumberOfQueries: 24, CosetOffset: field.NewElementFromInt64(5)}
//	seed0, seed1 := field.One(), field.One()
//	air := protocols.NewFibonacciAIR(field, 32, seed0, seed1, options)
//	columns := protocols.FibonacciTrace(field, 32, seed0, seed1)
//	table, err := vybiumstarksvm.BuildTraceTable(field, air.Context(), columns)
//	claim := vybiumstarksvm.NewClaim(air, []*core.FieldElement{seed0, seed1}, nil)
//
//	proof, err := vybiumstarksvm.Prove(claim, table)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result := vybiumstarksvm.Verify(claim, proof)
//	if !result.Valid {
//		log.Fatal(result.Reason)
//	}
//
// # Architecture
//
//   - pkg/vybium-starks-vm/: public API (this package) — type aliases onto
//     the internal field/proof/AIR types, configuration, and errors.
//   - internal/vybium-starks-vm/core/: field, polynomial, FFT, Merkle tree.
//   - internal/vybium-starks-vm/utils/: Fiat-Shamir transcript and config.
//   - internal/vybium-starks-vm/protocols/: AIR contract, domains, FRI, and
//     the STARK prover/verifier.
//
// Implementation details in internal/ can be refactored without breaking
// the public API.
//
// # Non-goals
//
// No interactive mode, no proof aggregation or recursion, no
// zero-knowledge blinding, no GPU back-ends, and no concrete AIR shipped
// as "the" product of this package — the example AIRs under
// internal/vybium-starks-vm/protocols exist only to exercise the engine in
// tests and the CLI driver.
//
// # References
//
//   - STARK paper: https://eprint.iacr.org/2018/046
//   - FRI paper: https://eccc.weizmann.ac.il/report/2017/134/
//
// # License
//
// See LICENSE file in the repository root.
package vybiumstarksvm
