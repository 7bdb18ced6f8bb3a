package handoff

import (
	"crypto/sha256"
	"encoding/base64"
	"io"

	"github.com/pkg/errors"
)

const (
	// handoffIDLength is 256 bits of entropy.
	handoffIDLength = 32
	// codeVerifierLength is 512 bits, encoding to 86 characters, inside the
	// 43..128 range RFC 7636 allows.
	codeVerifierLength = 64
)

// generateRandomString reads length bytes from random and returns them as
// unpadded base64url.
func generateRandomString(random io.Reader, length int) (string, error) {
	b := make([]byte, length)
	if _, err := io.ReadFull(random, b); err != nil {
		return "", errors.Wrap(err, "generateRandomString")
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// generateCodeChallenge creates a PKCE S256 code challenge from a verifier
func generateCodeChallenge(verifier string) string {
	hash := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(hash[:])
}
