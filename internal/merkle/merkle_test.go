package merkle

import (
	"fmt"
	"math/bits"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeLeaves(n int) []Hash32 {
	leaves := make([]Hash32, n)
	for i := range leaves {
		leaves[i] = DoubleHash([]byte(fmt.Sprintf("tx-%d", i)))
	}
	return leaves
}

func TestBuildProofRoundTrip(t *testing.T) {
	for _, n := range []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 16, 33, 100} {
		leaves := makeLeaves(n)
		for index := 0; index < n; index++ {
			proof, err := BuildProof(leaves, index)
			require.NoError(t, err, "n=%d index=%d", n, index)
			assert.True(t, VerifyProof(proof), "n=%d index=%d", n, index)
		}
	}
}

func TestBuildProofPathLength(t *testing.T) {
	for _, n := range []int{1, 2, 3, 4, 5, 8, 9, 16, 17, 64, 100} {
		leaves := makeLeaves(n)
		proof, err := BuildProof(leaves, 0)
		require.NoError(t, err)

		want := 0
		if n > 1 {
			want = bits.Len(uint(n - 1)) // ceil(log2(n))
		}
		assert.Len(t, proof.SiblingPath, want, "n=%d", n)
	}
}

func TestBuildProofDeterministic(t *testing.T) {
	leaves := makeLeaves(7)
	a, err := BuildProof(leaves, 3)
	require.NoError(t, err)
	b, err := BuildProof(leaves, 3)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestBuildProofRejectsBadInput(t *testing.T) {
	_, err := BuildProof(nil, 0)
	assert.ErrorIs(t, err, ErrNoLeaves)

	leaves := makeLeaves(4)
	_, err = BuildProof(leaves, -1)
	assert.Error(t, err)
	_, err = BuildProof(leaves, 4)
	assert.Error(t, err)
}

func TestVerifyProofTamperSensitivity(t *testing.T) {
	leaves := makeLeaves(8)
	original, err := BuildProof(leaves, 5)
	require.NoError(t, err)
	require.True(t, VerifyProof(original))

	clone := func() *Proof {
		p := *original
		p.SiblingPath = append([]Hash32(nil), original.SiblingPath...)
		return &p
	}

	// Flip a byte in every position of every component; each mutation must
	// flip the verdict to false.
	for level := range original.SiblingPath {
		for i := 0; i < 32; i++ {
			p := clone()
			p.SiblingPath[level][i] ^= 0x01
			assert.False(t, VerifyProof(p), "sibling level=%d byte=%d", level, i)
		}
	}
	for i := 0; i < 32; i++ {
		p := clone()
		p.Leaf[i] ^= 0x01
		assert.False(t, VerifyProof(p), "leaf byte=%d", i)

		p = clone()
		p.Root[i] ^= 0x01
		assert.False(t, VerifyProof(p), "root byte=%d", i)
	}
}

func TestVerifyProofWrongIndex(t *testing.T) {
	leaves := makeLeaves(8)
	proof, err := BuildProof(leaves, 2)
	require.NoError(t, err)

	proof.LeafIndex = 3
	assert.False(t, VerifyProof(proof))
}

func TestVerifyProofNil(t *testing.T) {
	assert.False(t, VerifyProof(nil))
}

func TestOddLeafDuplication(t *testing.T) {
	// An odd-length list must produce the same root as the list with its
	// last leaf duplicated once, for every tree height.
	for _, n := range []int{1, 3, 5, 7, 9, 15, 31} {
		leaves := makeLeaves(n)
		duplicated := append(append([]Hash32(nil), leaves...), leaves[n-1])

		rootOdd, err := ComputeRoot(leaves)
		require.NoError(t, err)
		rootDup, err := ComputeRoot(duplicated)
		require.NoError(t, err)
		assert.Equal(t, rootOdd, rootDup, "n=%d", n)
	}
}

func TestComputeRootSingleLeaf(t *testing.T) {
	leaf := DoubleHash([]byte("only"))
	root, err := ComputeRoot([]Hash32{leaf})
	require.NoError(t, err)
	assert.Equal(t, leaf, root)

	_, err = ComputeRoot(nil)
	assert.ErrorIs(t, err, ErrNoLeaves)
}

func TestFourTransactionBlockScenario(t *testing.T) {
	// Block [A, B, C, D], proving B (index 1): the sibling path must be
	// [A, parent(C, D)] and fold back to the block root.
	a := DoubleHash([]byte("A"))
	b := DoubleHash([]byte("B"))
	c := DoubleHash([]byte("C"))
	d := DoubleHash([]byte("D"))
	leaves := []Hash32{a, b, c, d}

	proof, err := BuildProof(leaves, 1)
	require.NoError(t, err)

	parentCD := DoubleHashConcat(c, d)
	require.Len(t, proof.SiblingPath, 2)
	assert.Equal(t, a, proof.SiblingPath[0])
	assert.Equal(t, parentCD, proof.SiblingPath[1])

	root, err := ComputeRoot(leaves)
	require.NoError(t, err)
	assert.Equal(t, root, proof.Root)
	assert.Equal(t, DoubleHashConcat(DoubleHashConcat(a, b), parentCD), proof.Root)
	assert.True(t, VerifyProof(proof))
}

func TestBuildProofRootMatchesComputeRoot(t *testing.T) {
	for _, n := range []int{2, 3, 6, 11} {
		leaves := makeLeaves(n)
		root, err := ComputeRoot(leaves)
		require.NoError(t, err)
		for index := 0; index < n; index++ {
			proof, err := BuildProof(leaves, index)
			require.NoError(t, err)
			assert.Equal(t, root, proof.Root, "n=%d index=%d", n, index)
		}
	}
}
