package token

import "errors"

var (
	ErrMalformedState   = errors.New("malformed state parameter")
	ErrCorruptedPayload = errors.New("corrupted payload")
	ErrDecryptFailed    = errors.New("payload authentication failed")
)
