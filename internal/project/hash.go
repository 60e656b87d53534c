package project

import "crypto/sha256"

// Digest is a SHA-256 sum, the same one source.File.Hash carries.
type Digest [sha256.Size]byte

func DigestOf(content []byte) Digest { return sha256.Sum256(content) }

// Combine hashes the concatenation of ds. The journal passes them in path
// order so the sum does not depend on save order.
func Combine(ds ...Digest) Digest {
	buf := make([]byte, 0, len(ds)*sha256.Size)
	for _, d := range ds {
		buf = append(buf, d[:]...)
	}
	return sha256.Sum256(buf)
}
