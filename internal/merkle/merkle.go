package merkle

import (
	"errors"
	"fmt"
)

// Proof is an SPV inclusion proof: the ordered sibling digests needed to
// recompute a block's Merkle root from a single transaction hash. Bit i of
// LeafIndex selects the concatenation order at level i during verification.
type Proof struct {
	Leaf        Hash32   `json:"leaf"`
	Root        Hash32   `json:"root"`
	SiblingPath []Hash32 `json:"sibling_path"`
	LeafIndex   uint32   `json:"leaf_index"`
}

// ErrNoLeaves is returned when a proof or root is requested for an empty
// transaction list.
var ErrNoLeaves = errors.New("merkle: leaf list is empty")

// BuildProof constructs the inclusion proof for leaves[index] using the
// Bitcoin pairing convention: levels are halved bottom-up, an odd tail is
// paired with itself, and the parent is DoubleHash(left || right).
func BuildProof(leaves []Hash32, index int) (*Proof, error) {
	if len(leaves) == 0 {
		return nil, ErrNoLeaves
	}
	if index < 0 || index >= len(leaves) {
		return nil, fmt.Errorf("merkle: leaf index %d out of range [0,%d)", index, len(leaves))
	}

	proof := &Proof{
		Leaf:      leaves[index],
		LeafIndex: uint32(index),
	}

	level := make([]Hash32, len(leaves))
	copy(level, leaves)
	pos := index

	for len(level) > 1 {
		next := make([]Hash32, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			left := level[i]
			right := left // odd tail is duplicated
			if i+1 < len(level) {
				right = level[i+1]
			}
			if i == pos || i+1 == pos {
				if pos%2 == 0 {
					proof.SiblingPath = append(proof.SiblingPath, right)
				} else {
					proof.SiblingPath = append(proof.SiblingPath, left)
				}
			}
			next = append(next, DoubleHashConcat(left, right))
		}
		level = next
		pos /= 2
	}

	proof.Root = level[0]
	return proof, nil
}

// ComputeRoot returns the Merkle root of the ordered leaf list.
func ComputeRoot(leaves []Hash32) (Hash32, error) {
	if len(leaves) == 0 {
		return ZeroHash, ErrNoLeaves
	}
	level := make([]Hash32, len(leaves))
	copy(level, leaves)
	for len(level) > 1 {
		next := make([]Hash32, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			left := level[i]
			right := left
			if i+1 < len(level) {
				right = level[i+1]
			}
			next = append(next, DoubleHashConcat(left, right))
		}
		level = next
	}
	return level[0], nil
}

// VerifyProof folds the leaf with the sibling path and reports whether the
// result matches the claimed root. Verification failure is an expected
// outcome, so this is a pure predicate and never returns an error.
func VerifyProof(p *Proof) bool {
	if p == nil {
		return false
	}
	current := p.Leaf
	index := p.LeafIndex
	for _, sibling := range p.SiblingPath {
		if index&1 == 0 {
			current = DoubleHashConcat(current, sibling)
		} else {
			current = DoubleHashConcat(sibling, current)
		}
		index >>= 1
	}
	return current == p.Root
}
