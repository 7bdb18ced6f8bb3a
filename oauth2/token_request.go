package oauth2

// TokenRequest holds parameters for the authorization code grant sent to the
// provider's token endpoint. It is encoded as JSON or as a form depending on
// what the provider accepts; client credentials travel in the Basic
// authorization header, never in the body.
type TokenRequest struct {
	// GrantType is always AuthorizationCodeGrant.
	GrantType GrantType `json:"grant_type" url:"grant_type"`

	// Code is the authorization code received on the callback.
	// Example: "SplxlOBeZQQYbYS6WxSbIA"
	// Usage: Exchanged once for tokens, then becomes invalid
	Code string `json:"code" url:"code"`

	// RedirectURI must match the redirect_uri sent in the authorization request.
	RedirectURI string `json:"redirect_uri" url:"redirect_uri"`

	// CodeVerifier is the PKCE code verifier that matches the code_challenge.
	// Example: "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"
	// Security: Never log or expose this value
	CodeVerifier string `json:"code_verifier" url:"code_verifier"`
}
