package main

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os"

	"github.com/vybium/vybium-starks-vm/internal/vybium-starks-vm/core"
	"github.com/vybium/vybium-starks-vm/internal/vybium-starks-vm/protocols"
	"github.com/vybium/vybium-starks-vm/internal/vybium-starks-vm/utils"
	"github.com/vybium/vybium-starks-vm/pkg/vybium-starks-vm"
)

// publicInputs is the JSON shape the third CLI argument decodes into: the
// proof options plus whatever seed values the chosen air-id needs. Values
// are decimal strings so they can exceed a machine word.
type publicInputs struct {
	TraceLength    int    `json:"trace_length"`
	BlowupFactor   int    `json:"blowup_factor"`
	FriQueries     int    `json:"fri_queries"`
	CosetOffset    string `json:"coset_offset"`
	GrindingFactor int    `json:"grinding_factor,omitempty"`
	Initial        string `json:"initial,omitempty"`
	Seed0          string `json:"seed0,omitempty"`
	Seed1          string `json:"seed1,omitempty"`
}

func main() {
	if len(os.Args) < 4 {
		usage()
		os.Exit(2)
	}

	command := os.Args[1]
	airID := os.Args[2]
	rawInputs := os.Args[3]

	var inputs publicInputs
	if err := json.Unmarshal([]byte(rawInputs), &inputs); err != nil {
		logStderr(fmt.Sprintf("ERROR: failed to parse public-inputs-json: %v", err))
		os.Exit(2)
	}

	field, err := core.NewField(core.StarkPrime)
	if err != nil {
		fatal(fmt.Sprintf("failed to create field: %v", err))
	}

	switch command {
	case "prove":
		runProve(field, airID, inputs)
	case "verify":
		if len(os.Args) < 5 {
			usage()
			os.Exit(2)
		}
		runVerify(field, airID, inputs, os.Args[4])
	default:
		usage()
		os.Exit(2)
	}
}

func runProve(field *core.Field, airID string, inputs publicInputs) {
	options := buildOptions(field, inputs)
	air, columns, claim := buildClaim(field, airID, inputs, options)

	table, err := vybiumstarksvm.BuildTraceTable(field, air.Context(), columns)
	if err != nil {
		fatal(fmt.Sprintf("failed to build trace table: %v", err))
	}

	logStderr(fmt.Sprintf("proving %s (trace_length=%d, blowup=%d, queries=%d)", airID, inputs.TraceLength, inputs.BlowupFactor, inputs.FriQueries))
	proof, err := vybiumstarksvm.Prove(claim, table)
	if err != nil {
		fatal(fmt.Sprintf("proof generation failed: %v", err))
	}

	proofBytes, err := proof.Serialize(air.Context())
	if err != nil {
		fatal(fmt.Sprintf("failed to serialize proof: %v", err))
	}
	os.Stdout.Write(proofBytes)
}

func runVerify(field *core.Field, airID string, inputs publicInputs, proofPath string) {
	options := buildOptions(field, inputs)
	air, _, claim := buildClaim(field, airID, inputs, options)

	proofBytes, err := os.ReadFile(proofPath)
	if err != nil {
		fatal(fmt.Sprintf("failed to read proof file: %v", err))
	}

	proof, err := protocols.Deserialize(proofBytes, air.Context())
	if err != nil {
		logStderr(fmt.Sprintf("serialization error: %v", err))
		os.Exit(2)
	}

	result := vybiumstarksvm.Verify(claim, proof)
	if !result.Valid {
		logStderr(fmt.Sprintf("proof rejected: %s", result.Reason))
		os.Exit(1)
	}
	logStderr("proof accepted")
	os.Exit(0)
}

// buildOptions validates the requested proof shape against the same
// constraints utils.Config enforces for any STARK instance (trace length,
// domain size, query count, field modulus) before constructing the
// protocols-level options, so a malformed public-inputs-json is rejected
// with one clear message instead of failing deep inside the prover.
func buildOptions(field *core.Field, inputs publicInputs) protocols.ProofOptions {
	cfg := utils.DefaultConfig().
		WithFieldModulus(field.Modulus()).
		WithTraceLength(inputs.TraceLength).
		WithEvaluationDomain(inputs.TraceLength * inputs.BlowupFactor).
		WithFRIQueries(inputs.FriQueries)
	if err := cfg.Validate(); err != nil {
		logStderr(fmt.Sprintf("ERROR: invalid public inputs: %v", err))
		os.Exit(2)
	}

	offset := parseElement(field, inputs.CosetOffset, "coset_offset")
	return protocols.ProofOptions{
		BlowupFactor:       inputs.BlowupFactor,
		FriNumberOfQueries: inputs.FriQueries,
		CosetOffset:        offset,
		GrindingFactor:     inputs.GrindingFactor,
	}
}

// buildClaim builds the AIR, its witness columns, and the public claim for
// airID. The witness is always fully determined by the public inputs for
// these example AIRs (there is no private input in any of them), which is
// why the CLI can both prove and verify from the same JSON blob.
func buildClaim(field *core.Field, airID string, inputs publicInputs, options protocols.ProofOptions) (protocols.AIR, [][]*core.FieldElement, *protocols.Claim) {
	switch airID {
	case "identity":
		initial := parseElement(field, inputs.Initial, "initial")
		air := protocols.NewIdentityAIR(field, inputs.TraceLength, options)
		columns := protocols.IdentityTrace(field, inputs.TraceLength, initial)
		claim := vybiumstarksvm.NewClaim(air, []*core.FieldElement{initial}, nil)
		return air, columns, claim
	case "counter":
		air := protocols.NewCounterAIR(field, inputs.TraceLength, options)
		columns := protocols.CounterTrace(field, inputs.TraceLength)
		claim := vybiumstarksvm.NewClaim(air, nil, nil)
		return air, columns, claim
	case "fibonacci", "twocolumn":
		seed0 := parseElement(field, inputs.Seed0, "seed0")
		seed1 := parseElement(field, inputs.Seed1, "seed1")
		air := protocols.NewFibonacciAIR(field, inputs.TraceLength, seed0, seed1, options)
		columns := protocols.FibonacciTrace(field, inputs.TraceLength, seed0, seed1)
		claim := vybiumstarksvm.NewClaim(air, []*core.FieldElement{seed0, seed1}, nil)
		return air, columns, claim
	default:
		logStderr(fmt.Sprintf("ERROR: unknown air-id %q (expected fibonacci, identity, counter, or twocolumn)", airID))
		os.Exit(2)
		return nil, nil, nil
	}
}

func parseElement(field *core.Field, s, name string) *core.FieldElement {
	if s == "" {
		logStderr(fmt.Sprintf("ERROR: missing required public input %q", name))
		os.Exit(2)
	}
	value, ok := new(big.Int).SetString(s, 10)
	if !ok {
		logStderr(fmt.Sprintf("ERROR: invalid decimal value for %q: %s", name, s))
		os.Exit(2)
	}
	return field.NewElement(value)
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: stark-cli prove <air-id> <public-inputs-json>")
	fmt.Fprintln(os.Stderr, "       stark-cli verify <air-id> <public-inputs-json> <proof-file>")
}

func logStderr(msg string) {
	fmt.Fprintln(os.Stderr, "stark-cli:", msg)
}

func fatal(msg string) {
	logStderr("ERROR: " + msg)
	os.Exit(1)
}
