package handoff_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jrsteele09/go-handoff-server/handoff"
	"github.com/jrsteele09/go-handoff-server/internal/config"
	"github.com/stretchr/testify/require"
)

func newDiscoveryServer(t *testing.T) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/.well-known/openid-configuration" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"issuer":                 srv.URL,
			"authorization_endpoint": srv.URL + "/oauth/authorize",
			"token_endpoint":         srv.URL + "/oauth/token",
			"jwks_uri":               srv.URL + "/jwks",
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestDiscoverEndpoint(t *testing.T) {
	srv := newDiscoveryServer(t)

	endpoint, err := handoff.DiscoverEndpoint(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, srv.URL+"/oauth/authorize", endpoint.AuthURL)
	require.Equal(t, srv.URL+"/oauth/token", endpoint.TokenURL)
}

func TestDiscoverEndpoint_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)

	_, err := handoff.DiscoverEndpoint(context.Background(), srv.URL)
	require.Error(t, err)
}

func TestProviderFromConfig(t *testing.T) {
	t.Setenv("NOTION_CLIENT_ID", "client-id")
	t.Setenv("NOTION_CLIENT_SECRET", "client-secret")
	t.Setenv("TASKLIGHT_NOTION_DEEP_LINK_URI", "tasklight://oauth/notion")
	t.Setenv("TASKLIGHT_NOTION_LOOPBACK_URI", "http://127.0.0.1:53682/callback")
	t.Setenv("OAUTH_ISSUER_URL", "")

	t.Run("static endpoints", func(t *testing.T) {
		p, err := handoff.ProviderFromConfig(context.Background(), config.New())
		require.NoError(t, err)
		require.Equal(t, "client-id", p.ClientID)
		require.Equal(t, "https://api.notion.com/v1/oauth/authorize", p.Endpoint.AuthURL)
		require.Equal(t, "https://api.notion.com/v1/oauth/token", p.Endpoint.TokenURL)
		require.Equal(t, "http://127.0.0.1:53682/callback", p.LoopbackURI)
		require.Equal(t, "Tasklight", p.AppName)
	})

	t.Run("discovered endpoints", func(t *testing.T) {
		srv := newDiscoveryServer(t)
		t.Setenv("OAUTH_ISSUER_URL", srv.URL)

		p, err := handoff.ProviderFromConfig(context.Background(), config.New())
		require.NoError(t, err)
		require.Equal(t, srv.URL+"/oauth/token", p.Endpoint.TokenURL)
	})
}
