package token

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"io"

	"github.com/pkg/errors"
)

// ivLength is the 96-bit GCM nonce size.
const ivLength = 12

// Cipher encrypts provider tokens at rest with AES-256-GCM. Blobs are the
// padded base64url encoding of iv || ciphertext || tag.
type Cipher struct {
	aead   cipher.AEAD
	random io.Reader
}

// NewCipher derives the AES key from secret. random supplies nonces and
// defaults to crypto/rand when nil.
func NewCipher(secret string, random io.Reader) (*Cipher, error) {
	block, err := aes.NewCipher(deriveKey(secret))
	if err != nil {
		return nil, errors.Wrap(err, "[NewCipher] aes.NewCipher")
	}
	aead, err := cipher.NewGCMWithNonceSize(block, ivLength)
	if err != nil {
		return nil, errors.Wrap(err, "[NewCipher] cipher.NewGCM")
	}
	if random == nil {
		random = rand.Reader
	}
	return &Cipher{aead: aead, random: random}, nil
}

// Encrypt seals plain under a fresh random nonce.
func (c *Cipher) Encrypt(plain []byte) (string, error) {
	iv := make([]byte, ivLength, ivLength+len(plain)+c.aead.Overhead())
	if _, err := io.ReadFull(c.random, iv); err != nil {
		return "", errors.Wrap(err, "[Cipher.Encrypt] read nonce")
	}
	sealed := c.aead.Seal(iv, iv, plain, nil)
	return base64.URLEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a blob produced by Encrypt. Undecodable or too short blobs
// return ErrCorruptedPayload; a tag mismatch returns ErrDecryptFailed.
func (c *Cipher) Decrypt(blob string) ([]byte, error) {
	combined, err := base64.URLEncoding.DecodeString(blob)
	if err != nil {
		return nil, errors.Wrap(ErrCorruptedPayload, err.Error())
	}
	if len(combined) <= ivLength {
		return nil, ErrCorruptedPayload
	}
	plain, err := c.aead.Open(nil, combined[:ivLength], combined[ivLength:], nil)
	if err != nil {
		return nil, ErrDecryptFailed
	}
	return plain, nil
}
