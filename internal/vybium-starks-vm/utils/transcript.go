package utils

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/crypto/sha3"

	"github.com/vybium/vybium-starks-vm/internal/vybium-starks-vm/core"
)

// Transcript is the Fiat-Shamir transcript both prover and verifier drive:
// every value the prover sends is absorbed into the running state, and
// every challenge the verifier would ask for is instead squeezed
// deterministically from that same state. Running the identical sequence
// of Absorb/Challenge* calls on both sides is what makes the proof
// non-interactive.
type Transcript struct {
	state []byte
	log   []string
}

// NewTranscript creates a fresh transcript seeded with the protocol's
// public parameters (e.g. the AIR's context encoded to bytes), hashed with
// SHA3-256.
func NewTranscript(seed []byte) *Transcript {
	t := &Transcript{
		state: []byte{0},
		log:   make([]string, 0, 64),
	}
	t.Absorb(seed)
	return t
}

// Absorb folds data into the transcript state.
func (t *Transcript) Absorb(data []byte) {
	t.log = append(t.log, fmt.Sprintf("absorb:%s", hex.EncodeToString(data)))
	t.state = hash(append(append([]byte{}, t.state...), data...))
}

// AbsorbFieldElements absorbs the fixed-width encoding of each element.
func (t *Transcript) AbsorbFieldElements(elements []*core.FieldElement) {
	for _, fe := range elements {
		t.Absorb(fe.Bytes())
	}
}

// challengeInt squeezes an integer in [min, max], taking the 256-bit state
// modulo the range size (so not exactly uniform unless the size divides
// 2^256), and
// advances the state so the next challenge is independent.
func (t *Transcript) challengeInt(min, max *big.Int) *big.Int {
	stateAsInt := new(big.Int).SetBytes(t.state)

	rangeSize := new(big.Int).Sub(max, min)
	rangeSize.Add(rangeSize, big.NewInt(1))

	random := new(big.Int).Mod(stateAsInt, rangeSize)
	random.Add(random, min)

	t.log = append(t.log, fmt.Sprintf("challenge:%s", random.String()))
	t.state = hash(t.state)

	return random
}

// ChallengeField squeezes an element of field via challengeInt.
func (t *Transcript) ChallengeField(field *core.Field) *core.FieldElement {
	max := new(big.Int).Sub(field.Modulus(), big.NewInt(1))
	random := t.challengeInt(big.NewInt(0), max)
	return field.NewElement(random)
}

// ChallengeIndex squeezes an index in [0, bound) via challengeInt.
func (t *Transcript) ChallengeIndex(bound int) int {
	if bound <= 0 {
		panic("transcript: challenge index bound must be positive")
	}
	random := t.challengeInt(big.NewInt(0), big.NewInt(int64(bound-1)))
	return int(random.Int64())
}

// ChallengeIndices squeezes count indices in [0, bound), without
// deduplication (the FRI query phase tolerates, and the caller may choose
// to dedupe, repeated query positions).
func (t *Transcript) ChallengeIndices(count, bound int) []int {
	out := make([]int, count)
	for i := range out {
		out[i] = t.ChallengeIndex(bound)
	}
	return out
}

// State returns a copy of the current transcript state, useful for tests
// asserting that two independently driven transcripts stay in lock-step.
func (t *Transcript) State() []byte {
	return append([]byte(nil), t.state...)
}

// Log returns the sequence of absorb/challenge operations performed,
// primarily for debugging transcript mismatches.
func (t *Transcript) Log() []string {
	return append([]string(nil), t.log...)
}

func hash(data []byte) []byte {
	h := sha3.Sum256(data)
	return h[:]
}

// String renders the transcript's operation log.
func (t *Transcript) String() string {
	return strings.Join(t.log, " ")
}
