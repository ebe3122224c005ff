package merkle

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func makeLeaves(n int) [][]byte {
	leaves := make([][]byte, n)
	for i := 0; i < n; i++ {
		leaves[i] = []byte{byte(i), byte(i >> 8), 0xab}
	}
	return leaves
}

func TestRootEmpty(t *testing.T) {
	_, err := Root(nil)
	require.Error(t, err)
}

func TestProveVerify(t *testing.T) {
	for _, n := range []int{1, 2, 3, 7, 8, 10, 33} {
		leaves := makeLeaves(n)
		root, err := Root(leaves)
		require.NoError(t, err)
		require.NotEmpty(t, root)
		for i := 0; i < n; i++ {
			proof, err := Prove(leaves, i)
			require.NoError(t, err)
			require.True(t, Verify(root, leaves[i], proof),
				"n=%d leaf=%d", n, i)
		}
	}
}

func TestVerifyRejectsTamper(t *testing.T) {
	leaves := makeLeaves(10)
	root, err := Root(leaves)
	require.NoError(t, err)
	proof, err := Prove(leaves, 3)
	require.NoError(t, err)

	// Wrong leaf against a valid path.
	require.False(t, Verify(root, leaves[4], proof))
	// Tampered path.
	if len(proof.Steps) > 0 {
		proof.Steps[0].Hash[0] ^= 0xff
		require.False(t, Verify(root, leaves[3], proof))
		proof.Steps[0].Hash[0] ^= 0xff
	}
	// Wrong root.
	other := append([]byte{}, root...)
	other[0] ^= 0x01
	require.False(t, Verify(other, leaves[3], proof))
	// Nil proof.
	require.False(t, Verify(root, leaves[3], nil))
}

func TestProveOutOfRange(t *testing.T) {
	leaves := makeLeaves(4)
	_, err := Prove(leaves, -1)
	require.Error(t, err)
	_, err = Prove(leaves, 4)
	require.Error(t, err)
}

func TestLeafNodeDomainSeparation(t *testing.T) {
	// A single-leaf tree's root must not equal the raw leaf hash of the
	// concatenation trick: committing to [a,b] and to [hash(a,b)] differ.
	a := []byte("a")
	b := []byte("b")
	pair, err := Root([][]byte{a, b})
	require.NoError(t, err)
	single, err := Root([][]byte{append(a, b...)})
	require.NoError(t, err)
	require.NotEqual(t, pair, single)
}
