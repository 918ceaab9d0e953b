package canon

import (
	"crypto/sha256"
	"encoding/hex"
)

// Domain prefixes for content digests.
// Version suffix enables future algorithm migration.
const (
	DomainFixture = "docgolden/fixture/v1"
	DomainArchive = "docgolden/archive/v1"
)

// Digest computes SHA256(domain + 0x00 + data) as lowercase hex.
// The null byte separator prevents domain/data boundary ambiguity.
func Digest(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
