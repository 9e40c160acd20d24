package domain

import (
	"crypto/sha1" //nolint:gosec // content key, not a security boundary
	"encoding/hex"
)

// KeyLength is the number of hex characters in a property key.
const KeyLength = 12

// MakeKey derives the property key for an address in a district.
// Case, punctuation and abbreviation differences do not change the key.
func MakeKey(address, district string) string {
	seed := Normalize(address) + "|" + Normalize(district)
	sum := sha1.Sum([]byte(seed)) //nolint:gosec // see import
	return hex.EncodeToString(sum[:KeyLength/2])
}
