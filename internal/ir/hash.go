package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content hashes. The version suffix allows the
// algorithm to change without old hashes colliding with new ones.
const (
	DomainSnapshot = "redline/snapshot/v1"
	DomainBatch    = "redline/batch/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// BatchHash computes the content-addressed identity of an action batch.
// Two batches with the same actions in the same order hash identically
// regardless of how they were encoded on the wire.
func BatchHash(actions []Action) (string, error) {
	arr := make(IRArray, len(actions))
	for i, a := range actions {
		arr[i] = a.toIRObject()
	}
	canonical, err := MarshalCanonical(arr)
	if err != nil {
		return "", fmt.Errorf("BatchHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainBatch, canonical), nil
}

// MustBatchHash is like BatchHash but panics on error.
// Use only in tests.
func MustBatchHash(actions []Action) string {
	h, err := BatchHash(actions)
	if err != nil {
		panic(err)
	}
	return h
}
