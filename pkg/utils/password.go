package utils

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/sha3"
)

// HashPassword returns the hex-encoded SHA3-256 digest of the trimmed
// password. Output is always 64 hexadecimal characters; that fixed shape is
// load-bearing, see IsHashed.
func HashPassword(password string) string {
	sum := sha3.Sum256([]byte(strings.TrimSpace(password)))
	return hex.EncodeToString(sum[:])
}

// IsHashed reports whether a stored credential is already in digest form:
// exactly 64 hex characters. Early releases stored plaintext passwords;
// this is the only signal that distinguishes them, so the check must stay
// in lockstep with HashPassword's output format.
func IsHashed(credential string) bool {
	if len(credential) != 64 {
		return false
	}
	for _, c := range credential {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
