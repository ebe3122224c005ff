// Package merkle implements the binary sha256 Merkle tree used for the
// per-round participant and winner commitments. Root and Prove run
// off-ledger (in the publisher and in tests); Verify is a pure function
// that the claim path and any external observer share.
package merkle

import (
	"bytes"
	"crypto/sha256"

	"golang.org/x/xerrors"
)

// Leaf and interior nodes are hashed with distinct prefixes so that a
// proof for an interior node can never be replayed as a leaf.
const (
	leafPrefix = 0x00
	nodePrefix = 0x01
)

// Step is one level of an audit path. Left tells the verifier on which
// side the sibling hash sits.
type Step struct {
	Hash []byte
	Left bool
}

// Proof is the audit path from a leaf to the root.
type Proof struct {
	Steps []Step
}

func hashLeaf(leaf []byte) []byte {
	h := sha256.New()
	h.Write([]byte{leafPrefix})
	h.Write(leaf)
	return h.Sum(nil)
}

func hashNode(left []byte, right []byte) []byte {
	h := sha256.New()
	h.Write([]byte{nodePrefix})
	h.Write(left)
	h.Write(right)
	return h.Sum(nil)
}

// Root computes the commitment over the given leaves. Odd nodes are
// promoted to the next level unchanged.
func Root(leaves [][]byte) ([]byte, error) {
	if len(leaves) == 0 {
		return nil, xerrors.New("cannot commit to an empty set")
	}
	level := make([][]byte, len(leaves))
	for i, leaf := range leaves {
		level[i] = hashLeaf(leaf)
	}
	for len(level) > 1 {
		next := make([][]byte, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 == len(level) {
				next = append(next, level[i])
			} else {
				next = append(next, hashNode(level[i], level[i+1]))
			}
		}
		level = next
	}
	return level[0], nil
}

// Prove builds the audit path for the leaf at the given index.
func Prove(leaves [][]byte, index int) (*Proof, error) {
	if len(leaves) == 0 {
		return nil, xerrors.New("cannot prove against an empty set")
	}
	if index < 0 || index >= len(leaves) {
		return nil, xerrors.Errorf("leaf index %d out of range", index)
	}
	level := make([][]byte, len(leaves))
	for i, leaf := range leaves {
		level[i] = hashLeaf(leaf)
	}
	proof := &Proof{}
	pos := index
	for len(level) > 1 {
		next := make([][]byte, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 == len(level) {
				next = append(next, level[i])
				continue
			}
			next = append(next, hashNode(level[i], level[i+1]))
			if i == pos {
				proof.Steps = append(proof.Steps, Step{Hash: level[i+1], Left: false})
			} else if i+1 == pos {
				proof.Steps = append(proof.Steps, Step{Hash: level[i], Left: true})
			}
		}
		pos = pos / 2
		level = next
	}
	return proof, nil
}

// Verify checks that leaf is a member of the set committed to by root.
func Verify(root []byte, leaf []byte, proof *Proof) bool {
	if len(root) == 0 || proof == nil {
		return false
	}
	cur := hashLeaf(leaf)
	for _, step := range proof.Steps {
		if step.Left {
			cur = hashNode(step.Hash, cur)
		} else {
			cur = hashNode(cur, step.Hash)
		}
	}
	return bytes.Equal(cur, root)
}
