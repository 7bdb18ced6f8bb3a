package token

import (
	"crypto/sha256"
	"encoding/base64"
)

// decodeSecret accepts secrets configured either as standard base64 or as
// plain text.
func decodeSecret(secret string) []byte {
	if decoded, err := base64.StdEncoding.DecodeString(secret); err == nil && len(decoded) > 0 {
		return decoded
	}
	return []byte(secret)
}

// deriveKey maps a secret of any length to a 256-bit AES key. This is a plain
// digest, not a password KDF; secrets are expected to be high entropy.
func deriveKey(secret string) []byte {
	key := sha256.Sum256(decodeSecret(secret))
	return key[:]
}
