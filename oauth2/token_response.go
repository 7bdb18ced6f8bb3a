package oauth2

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// TokenResponse is the part of a provider token response the server inspects.
// The full response body is kept as-is and handed to the client; providers add
// their own fields (workspace, bot and owner details) next to these.
type TokenResponse struct {
	// AccessToken is the bearer token for the provider's API.
	AccessToken string `json:"access_token"`

	// TokenType is normally "bearer".
	TokenType string `json:"token_type,omitempty"`

	// RefreshToken is only present for providers issuing refreshable grants.
	RefreshToken *string `json:"refresh_token,omitempty"`

	// ExpiresIn is the access token lifetime in seconds, when the provider sets one.
	ExpiresIn int `json:"expires_in,omitempty"`

	Scope string `json:"scope,omitempty"`
}

// ParseTokenResponse checks that raw is a JSON object carrying an access token.
func ParseTokenResponse(raw []byte) (*TokenResponse, error) {
	var tr TokenResponse
	if err := json.Unmarshal(raw, &tr); err != nil {
		return nil, errors.Wrap(err, "token response is not a JSON object")
	}
	if tr.AccessToken == "" {
		return nil, errors.New("token response has no access_token")
	}
	return &tr, nil
}
