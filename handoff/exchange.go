package handoff

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/go-querystring/query"
	"github.com/jrsteele09/go-handoff-server/internal/config"
	"github.com/jrsteele09/go-handoff-server/oauth2"
	"github.com/pkg/errors"
)

// maxTokenResponseBytes bounds how much of a token response is read.
const maxTokenResponseBytes = 1 << 20

// exchangeCode redeems code at the provider and returns the raw response
// body. There is no retry: authorization codes are single use.
func (s *Service) exchangeCode(ctx context.Context, code, codeVerifier string) ([]byte, error) {
	body, contentType, err := s.encodeTokenRequest(oauth2.TokenRequest{
		GrantType:    oauth2.AuthorizationCodeGrant,
		Code:         code,
		RedirectURI:  s.provider.RedirectURI,
		CodeVerifier: codeVerifier,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.provider.Endpoint.TokenURL, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "[exchangeCode] new request")
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(s.provider.ClientID, s.provider.ClientSecret)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "[exchangeCode] token request")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxTokenResponseBytes))
	if err != nil {
		return nil, errors.Wrap(err, "[exchangeCode] read response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		s.logger.Warn().
			Int("statusCode", resp.StatusCode).
			Str("tokenURL", s.provider.Endpoint.TokenURL).
			Msg("token exchange failed")
		return nil, fmt.Errorf("[exchangeCode] token endpoint returned HTTP %d", resp.StatusCode)
	}

	if _, err := oauth2.ParseTokenResponse(raw); err != nil {
		return nil, errors.Wrap(err, "[exchangeCode]")
	}
	return raw, nil
}

func (s *Service) encodeTokenRequest(tr oauth2.TokenRequest) ([]byte, string, error) {
	if s.provider.TokenRequestEncoding == config.TokenRequestEncodingForm {
		vals, err := query.Values(tr)
		if err != nil {
			return nil, "", errors.Wrap(err, "[encodeTokenRequest] query.Values")
		}
		return []byte(vals.Encode()), "application/x-www-form-urlencoded", nil
	}

	body, err := json.Marshal(tr)
	if err != nil {
		return nil, "", errors.Wrap(err, "[encodeTokenRequest] json.Marshal")
	}
	return body, "application/json", nil
}
