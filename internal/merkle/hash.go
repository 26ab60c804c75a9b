package merkle

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Hash32 is a 32-byte double-SHA256 digest in internal byte order.
// All Merkle and proof-hash computations use this type so a digest from a
// different hash function cannot be mixed in by accident.
type Hash32 [32]byte

// ZeroHash is the all-zero digest. It is never a valid block or tx hash.
var ZeroHash Hash32

// DoubleHash computes SHA-256(SHA-256(data)), the hashing convention of the
// source chain whose inclusion proofs this engine verifies. Substituting a
// different primitive breaks root compatibility with that chain.
func DoubleHash(data []byte) Hash32 {
	first := sha256.Sum256(data)
	return sha256.Sum256(first[:])
}

// DoubleHashConcat computes DoubleHash(left || right), the Merkle parent of
// two sibling digests.
func DoubleHashConcat(left, right Hash32) Hash32 {
	var buf [64]byte
	copy(buf[:32], left[:])
	copy(buf[32:], right[:])
	return DoubleHash(buf[:])
}

// IsZero reports whether h is the all-zero digest.
func (h Hash32) IsZero() bool {
	return h == ZeroHash
}

// Hex returns the 0x-prefixed hex encoding of the digest.
func (h Hash32) Hex() string {
	return "0x" + hex.EncodeToString(h[:])
}

func (h Hash32) String() string {
	return h.Hex()
}

// ParseHash decodes a hex string (with or without 0x prefix) into a Hash32.
// Input that does not decode to exactly 32 bytes is rejected.
func ParseHash(s string) (Hash32, error) {
	var h Hash32
	trimmed := strings.TrimPrefix(strings.ToLower(s), "0x")
	if len(trimmed) != 64 {
		return h, fmt.Errorf("invalid hash length: expected 64 hex chars, got %d", len(trimmed))
	}
	raw, err := hex.DecodeString(trimmed)
	if err != nil {
		return h, fmt.Errorf("invalid hash encoding: %w", err)
	}
	copy(h[:], raw)
	return h, nil
}

// MustParseHash is ParseHash for compile-time constants; it panics on bad
// input and must only be used with literals.
func MustParseHash(s string) Hash32 {
	h, err := ParseHash(s)
	if err != nil {
		panic(err)
	}
	return h
}
