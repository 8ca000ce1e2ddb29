package processor

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint computes the SHA-256 digest of the exact byte content,
// hex-encoded. It is the deduplication key for documents: byte-identical
// uploads always produce the same fingerprint regardless of filename.
func Fingerprint(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
