package config

import (
	"strings"
	"time"
)

const (
	clientIDVar         = "NOTION_CLIENT_ID"
	clientSecretVar     = "NOTION_CLIENT_SECRET"
	redirectURIVar      = "TASKLIGHT_NOTION_REDIRECT_URI"
	deepLinkURIVar      = "TASKLIGHT_NOTION_DEEP_LINK_URI"
	loopbackURIVar      = "TASKLIGHT_NOTION_LOOPBACK_URI"
	authURLVar          = "OAUTH_AUTH_URL"
	tokenURLVar         = "OAUTH_TOKEN_URL"
	issuerURLVar        = "OAUTH_ISSUER_URL"
	tokenEncodingVar    = "OAUTH_TOKEN_REQUEST_ENCODING"
	exchangeTimeoutVar  = "OAUTH_EXCHANGE_TIMEOUT_SECONDS"
	handoffTTLVar       = "TASKLIGHT_OAUTH_HANDOFF_TTL_SECONDS"
	displayNameVar      = "TASKLIGHT_DISPLAY_NAME"
	defaultAuthURL      = "https://api.notion.com/v1/oauth/authorize"
	defaultTokenURL     = "https://api.notion.com/v1/oauth/token"
	defaultHandoffTTL   = 240 * time.Second
	defaultExchangeTime = 10 * time.Second
)

// Token request body encodings accepted by the provider's token endpoint.
const (
	TokenRequestEncodingJSON = "json"
	TokenRequestEncodingForm = "form"
)

type OAuthConfig interface {
	GetClientID() string
	GetClientSecret() string
	GetRedirectURI() string
	GetDeepLinkURI() string
	GetLoopbackURI() string
	GetAuthURL() string
	GetTokenURL() string
	GetIssuerURL() string
	GetTokenRequestEncoding() string
	GetExchangeTimeout() time.Duration
	GetHandoffTTL() time.Duration
	GetDisplayName() string
}

type OAuth struct{}

var _ OAuthConfig = OAuth{}

func (OAuth) GetClientID() string {
	return GetEnv(clientIDVar, "")
}

func (OAuth) GetClientSecret() string {
	return GetEnv(clientSecretVar, "")
}

func (OAuth) GetRedirectURI() string {
	return GetEnv(redirectURIVar, "")
}

func (OAuth) GetDeepLinkURI() string {
	return GetEnv(deepLinkURIVar, "")
}

// GetLoopbackURI is optional, an empty value disables the loopback fallback.
func (OAuth) GetLoopbackURI() string {
	return GetEnv(loopbackURIVar, "")
}

func (OAuth) GetAuthURL() string {
	return GetEnv(authURLVar, defaultAuthURL)
}

func (OAuth) GetTokenURL() string {
	return GetEnv(tokenURLVar, defaultTokenURL)
}

// GetIssuerURL enables OIDC discovery of the provider endpoints when set.
func (OAuth) GetIssuerURL() string {
	return GetEnv(issuerURLVar, "")
}

func (OAuth) GetTokenRequestEncoding() string {
	return strings.ToLower(GetEnv(tokenEncodingVar, TokenRequestEncodingJSON))
}

func (OAuth) GetExchangeTimeout() time.Duration {
	return GetEnvSeconds(exchangeTimeoutVar, defaultExchangeTime)
}

func (OAuth) GetHandoffTTL() time.Duration {
	return GetEnvSeconds(handoffTTLVar, defaultHandoffTTL)
}

// GetDisplayName is the app name shown on the callback page.
func (OAuth) GetDisplayName() string {
	return GetEnv(displayNameVar, "Tasklight")
}
