package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strings"

	"github.com/jrsteele09/go-handoff-server/internal/utils"
)

const (
	stateSeparator = "."
	anonBinding    = "anon"
)

// ParsedState is a state token split into its handoff id and signature.
type ParsedState struct {
	HandoffID string
	Signature string
}

// StateSigner signs and verifies the opaque state round-tripped through the
// identity provider. A state is "<handoffId>.<tag>" where tag is the
// HMAC-SHA256 of "<handoffId>:<binding>" in unpadded base64url.
type StateSigner struct {
	secret []byte
}

// NewStateSigner creates a signer keyed by secret, which is base64 decoded
// when it is valid base64 and used as raw bytes otherwise.
func NewStateSigner(secret string) *StateSigner {
	return &StateSigner{
		secret: decodeSecret(secret),
	}
}

// Sign returns the state token for handoffID bound to binding. A nil binding
// signs as "anon".
func (s *StateSigner) Sign(handoffID string, binding *string) string {
	return handoffID + stateSeparator + s.tag(composePayload(handoffID, binding))
}

// Verify recomputes the signature with the binding stored at start time and
// compares it in constant time. The binding is never taken from the request.
func (s *StateSigner) Verify(parsed ParsedState, storedBinding *string) bool {
	expected := s.tag(composePayload(parsed.HandoffID, storedBinding))
	return hmac.Equal([]byte(expected), []byte(parsed.Signature))
}

// MatchesBinding reports whether supplied names the same client as stored.
func (s *StateSigner) MatchesBinding(handoffID string, stored, supplied *string) bool {
	expected := composePayload(handoffID, stored)
	actual := composePayload(handoffID, supplied)
	return hmac.Equal([]byte(expected), []byte(actual))
}

func (s *StateSigner) tag(payload string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// ParseState splits state on its first separator.
func ParseState(state string) (ParsedState, error) {
	handoffID, signature, found := strings.Cut(state, stateSeparator)
	if !found || strings.TrimSpace(handoffID) == "" || strings.TrimSpace(signature) == "" {
		return ParsedState{}, ErrMalformedState
	}
	return ParsedState{HandoffID: handoffID, Signature: signature}, nil
}

func composePayload(handoffID string, binding *string) string {
	return handoffID + ":" + utils.ValueOr(binding, anonBinding)
}
