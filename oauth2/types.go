package oauth2

// ResponseType represents the OAuth 2.0 response type requested from the
// provider's authorization endpoint.
type ResponseType string

const (
	// CodeResponseType asks the provider for an authorization code.
	// Example: /v1/oauth/authorize?response_type=code&client_id=...
	CodeResponseType ResponseType = "code"
)

// CodeMethodType represents the PKCE (Proof Key for Code Exchange) challenge method.
type CodeMethodType string

const (
	// CodeMethodTypeS256 indicates SHA-256 hashing is used for the code challenge.
	// Client sends: code_challenge = BASE64URL(SHA256(code_verifier))
	// Only S256 is ever sent; plain is never offered.
	CodeMethodTypeS256 CodeMethodType = "S256"
)

// GrantType represents the OAuth 2.0 grant type used at the token endpoint.
type GrantType string

const (
	// AuthorizationCodeGrant exchanges an authorization code for tokens.
	// Token request includes: grant_type, code, redirect_uri, code_verifier
	AuthorizationCodeGrant GrantType = "authorization_code"
)

// OwnerType is the provider specific owner of the requested grant.
type OwnerType string

const (
	// UserOwner requests a grant owned by the authorizing user rather than a workspace.
	UserOwner OwnerType = "user"
)

// Authorization request parameter names.
const (
	ParamClientID            = "client_id"
	ParamResponseType        = "response_type"
	ParamOwner               = "owner"
	ParamRedirectURI         = "redirect_uri"
	ParamState               = "state"
	ParamCodeChallenge       = "code_challenge"
	ParamCodeChallengeMethod = "code_challenge_method"
)
