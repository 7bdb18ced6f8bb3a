package handoff

import (
	"context"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/jrsteele09/go-handoff-server/internal/config"
	"github.com/pkg/errors"
	xoauth2 "golang.org/x/oauth2"
)

// Provider describes the identity provider and the client registration used
// to talk to it, plus where users are sent once the provider is done.
type Provider struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Endpoint     xoauth2.Endpoint

	// TokenRequestEncoding is config.TokenRequestEncodingJSON or
	// config.TokenRequestEncodingForm.
	TokenRequestEncoding string

	// DeepLinkURI is the app's custom scheme handler.
	DeepLinkURI string
	// LoopbackURI is optional.
	LoopbackURI string
	// AppName is shown on the bounce page.
	AppName string
}

// ProviderFromConfig builds the Provider. When an issuer URL is configured the
// endpoints are discovered from its OpenID configuration, otherwise the static
// authorization and token URLs are used.
func ProviderFromConfig(ctx context.Context, c config.OAuthConfig) (Provider, error) {
	p := Provider{
		ClientID:             c.GetClientID(),
		ClientSecret:         c.GetClientSecret(),
		RedirectURI:          c.GetRedirectURI(),
		TokenRequestEncoding: c.GetTokenRequestEncoding(),
		DeepLinkURI:          c.GetDeepLinkURI(),
		LoopbackURI:          c.GetLoopbackURI(),
		AppName:              c.GetDisplayName(),
		Endpoint: xoauth2.Endpoint{
			AuthURL:   c.GetAuthURL(),
			TokenURL:  c.GetTokenURL(),
			AuthStyle: xoauth2.AuthStyleInHeader,
		},
	}

	if issuer := c.GetIssuerURL(); issuer != "" {
		endpoint, err := DiscoverEndpoint(ctx, issuer)
		if err != nil {
			return Provider{}, err
		}
		p.Endpoint = endpoint
	}
	return p, nil
}

// DiscoverEndpoint fetches the provider's OpenID configuration.
func DiscoverEndpoint(ctx context.Context, issuerURL string) (xoauth2.Endpoint, error) {
	provider, err := oidc.NewProvider(ctx, issuerURL)
	if err != nil {
		return xoauth2.Endpoint{}, errors.Wrap(err, "[DiscoverEndpoint] failed to create OIDC provider")
	}
	endpoint := provider.Endpoint()
	endpoint.AuthStyle = xoauth2.AuthStyleInHeader
	return endpoint, nil
}

func (p Provider) oauthConfig() *xoauth2.Config {
	return &xoauth2.Config{
		ClientID:     p.ClientID,
		ClientSecret: p.ClientSecret,
		Endpoint:     p.Endpoint,
		RedirectURL:  p.RedirectURI,
	}
}
