// Package fingerprint derives stable content identities for the sent-hash
// ledger.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
)

// Sum returns the hex-encoded sha256 digest of content. Byte-identical
// content always yields the same digest.
func Sum(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
