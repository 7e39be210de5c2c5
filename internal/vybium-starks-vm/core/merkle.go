package core

import (
	"fmt"

	"golang.org/x/crypto/sha3"
)

// MerkleTree commits to a list of leaves with a binary Merkle tree hashed
// with SHA3-256. When the number of leaves is not a power of two, the last
// leaf is duplicated until it is, matching the padding rule every prover
// and verifier in this module must agree on.
type MerkleTree struct {
	root   []byte
	leaves [][]byte
	levels [][][]byte
}

// ProofNode is one sibling hash on the path from a leaf to the root.
type ProofNode struct {
	Hash    []byte
	IsRight bool // true if this node is the right child, false if left
}

// NewMerkleTree builds a tree over data, padding to the next power of two
// by duplicating the last element.
func NewMerkleTree(data [][]byte) (*MerkleTree, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("cannot create Merkle tree with empty data")
	}

	padded := padToPowerOfTwo(data)

	leaves := make([][]byte, len(padded))
	for i, item := range padded {
		leaves[i] = leafHash(item)
	}

	levels := [][][]byte{leaves}
	currentLevel := leaves

	for len(currentLevel) > 1 {
		nextLevel := make([][]byte, len(currentLevel)/2)
		for i := 0; i < len(currentLevel); i += 2 {
			nextLevel[i/2] = nodeHash(currentLevel[i], currentLevel[i+1])
		}
		levels = append(levels, nextLevel)
		currentLevel = nextLevel
	}

	return &MerkleTree{
		root:   currentLevel[0],
		leaves: leaves,
		levels: levels,
	}, nil
}

// padToPowerOfTwo duplicates the last element until the length is a power
// of two. The original slice is left untouched.
func padToPowerOfTwo(data [][]byte) [][]byte {
	n := 1
	for n < len(data) {
		n <<= 1
	}
	if n == len(data) {
		out := make([][]byte, len(data))
		copy(out, data)
		return out
	}
	out := make([][]byte, n)
	copy(out, data)
	last := data[len(data)-1]
	for i := len(data); i < n; i++ {
		out[i] = last
	}
	return out
}

// Root returns the Merkle root.
func (mt *MerkleTree) Root() []byte {
	return mt.root
}

// LeafCount returns the number of (padded) leaves committed to.
func (mt *MerkleTree) LeafCount() int {
	return len(mt.leaves)
}

// Proof returns the authentication path for the leaf at index, from the
// leaf's sibling up to the root's child level.
func (mt *MerkleTree) Proof(index int) ([]ProofNode, error) {
	if index < 0 || index >= len(mt.leaves) {
		return nil, fmt.Errorf("index %d out of range [0, %d)", index, len(mt.leaves))
	}

	var proof []ProofNode
	currentIndex := index

	for level := 0; level < len(mt.levels)-1; level++ {
		currentLevel := mt.levels[level]

		var siblingIndex int
		var isRight bool
		if currentIndex%2 == 0 {
			siblingIndex = currentIndex + 1
			isRight = true
		} else {
			siblingIndex = currentIndex - 1
			isRight = false
		}

		proof = append(proof, ProofNode{
			Hash:    currentLevel[siblingIndex],
			IsRight: isRight,
		})

		currentIndex /= 2
	}

	return proof, nil
}

// VerifyProof recomputes the root from leaf and proof and compares it to
// root. Combination order at each level is driven by index's bits, not just
// the proof's stored IsRight flags: if they disagree, the index was opened
// against a path it wasn't authenticated for, and the proof is rejected
// outright, so tampering the index alone (leaving value and path untouched)
// cannot be mistaken for a valid proof of a different leaf.
func VerifyProof(root []byte, leaf []byte, proof []ProofNode, index int) bool {
	hash := leafHash(leaf)
	currentIndex := index

	for _, node := range proof {
		isRight := currentIndex%2 == 0
		if node.IsRight != isRight {
			return false
		}
		if isRight {
			hash = nodeHash(hash, node.Hash)
		} else {
			hash = nodeHash(node.Hash, hash)
		}
		currentIndex /= 2
	}

	return string(hash) == string(root)
}

// leafHash and nodeHash domain-separate leaf and internal-node hashing so
// a leaf can never be mistaken for an internal node (a second-preimage
// attack on Merkle trees that collapse the two).
func leafHash(data []byte) []byte {
	h := sha3.Sum256(append([]byte{0x00}, data...))
	return h[:]
}

func nodeHash(left, right []byte) []byte {
	buf := make([]byte, 0, 1+len(left)+len(right))
	buf = append(buf, 0x01)
	buf = append(buf, left...)
	buf = append(buf, right...)
	h := sha3.Sum256(buf)
	return h[:]
}

// MerkleRoot computes the Merkle root of the given data directly.
func MerkleRoot(data [][]byte) ([]byte, error) {
	tree, err := NewMerkleTree(data)
	if err != nil {
		return nil, err
	}
	return tree.Root(), nil
}
