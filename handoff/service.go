package handoff

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	interrors "github.com/jrsteele09/go-handoff-server/internal/errors"
	"github.com/jrsteele09/go-handoff-server/handoff/handoffrepo"
	"github.com/jrsteele09/go-handoff-server/oauth2"
	"github.com/jrsteele09/go-handoff-server/token"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	xoauth2 "golang.org/x/oauth2"
)

const (
	DefaultHandoffTTL      = 240 * time.Second
	DefaultExchangeTimeout = 10 * time.Second
)

// Secrets are the server side keys. Neither is ever logged.
type Secrets struct {
	StateKey      string
	EncryptionKey string
}

// AuthorizationStart is the result of Start.
type AuthorizationStart struct {
	RedirectURL string
	HandoffID   string
}

// CallbackResult is the result of a successful Callback.
type CallbackResult struct {
	HandoffID string
	HTML      string
}

// Service runs the start, callback and complete phases of the handoff.
type Service struct {
	repo            handoffrepo.Repo
	provider        Provider
	signer          *token.StateSigner
	cipher          *token.Cipher
	nowTime         func() time.Time
	random          io.Reader
	httpClient      *http.Client
	handoffTTL      time.Duration
	exchangeTimeout time.Duration
	logger          zerolog.Logger
}

// ServiceOption defines a function type to modify the Service instance.
type ServiceOption func(*Service)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowTime = nowFunc
	}
}

// WithRandom sets the source used for handoff ids, code verifiers and nonces.
func WithRandom(random io.Reader) ServiceOption {
	return func(s *Service) {
		s.random = random
	}
}

// WithHTTPClient sets the client used for the token exchange.
func WithHTTPClient(client *http.Client) ServiceOption {
	return func(s *Service) {
		s.httpClient = client
	}
}

func WithHandoffTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		s.handoffTTL = ttl
	}
}

func WithExchangeTimeout(timeout time.Duration) ServiceOption {
	return func(s *Service) {
		s.exchangeTimeout = timeout
	}
}

func WithLogger(logger zerolog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService initializes a Service. Optional configuration can be provided
// via options (e.g., WithNowTime and WithRandom for testing).
func NewService(repo handoffrepo.Repo, provider Provider, secrets Secrets, options ...ServiceOption) (*Service, error) {
	if repo == nil {
		return nil, errors.New("[NewService] repo is required")
	}
	if provider.ClientID == "" {
		return nil, errors.New("[NewService] provider client id is required")
	}
	if provider.Endpoint.AuthURL == "" || provider.Endpoint.TokenURL == "" {
		return nil, errors.New("[NewService] provider endpoints are required")
	}
	if provider.DeepLinkURI == "" {
		return nil, errors.New("[NewService] deep link uri is required")
	}
	if secrets.StateKey == "" || secrets.EncryptionKey == "" {
		return nil, errors.New("[NewService] state and encryption keys are required")
	}

	s := &Service{
		repo:            repo,
		provider:        provider,
		nowTime:         time.Now,
		random:          rand.Reader,
		httpClient:      &http.Client{},
		handoffTTL:      DefaultHandoffTTL,
		exchangeTimeout: DefaultExchangeTimeout,
		logger:          log.Logger,
	}

	for _, opt := range options {
		opt(s)
	}

	if s.handoffTTL <= 0 {
		return nil, errors.New("[NewService] handoff ttl must be positive")
	}

	cipher, err := token.NewCipher(secrets.EncryptionKey, s.random)
	if err != nil {
		return nil, errors.Wrap(err, "[NewService]")
	}
	s.cipher = cipher
	s.signer = token.NewStateSigner(secrets.StateKey)

	return s, nil
}

// Start creates a PENDING handoff bound to clientBinding and returns the
// provider authorization URL to send the user to.
func (s *Service) Start(ctx context.Context, clientBinding *string) (*AuthorizationStart, error) {
	handoffID, err := generateRandomString(s.random, handoffIDLength)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Start] handoff id")
	}
	codeVerifier, err := generateRandomString(s.random, codeVerifierLength)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Start] code verifier")
	}
	state := s.signer.Sign(handoffID, clientBinding)

	record := &handoffrepo.Record{
		HandoffID:             handoffID,
		State:                 state,
		CodeVerifier:          codeVerifier,
		CreatedAtEpochSeconds: s.nowTime().Unix(),
		Status:                handoffrepo.StatusPending,
		ClientBinding:         clientBinding,
	}
	if err := s.repo.Create(ctx, record, s.handoffTTL); err != nil {
		return nil, errors.Wrap(err, "[Service.Start] create handoff")
	}

	redirectURL := s.provider.oauthConfig().AuthCodeURL(state,
		xoauth2.SetAuthURLParam(oauth2.ParamOwner, string(oauth2.UserOwner)),
		xoauth2.SetAuthURLParam(oauth2.ParamCodeChallenge, generateCodeChallenge(codeVerifier)),
		xoauth2.SetAuthURLParam(oauth2.ParamCodeChallengeMethod, string(oauth2.CodeMethodTypeS256)),
	)

	s.logger.Info().Str("handoff", shortID(handoffID)).Bool("bound", clientBinding != nil).Msg("handoff started")
	return &AuthorizationStart{RedirectURL: redirectURL, HandoffID: handoffID}, nil
}

// Callback verifies the provider redirect, redeems the authorization code and
// stores the encrypted tokens, moving the handoff to READY.
func (s *Service) Callback(ctx context.Context, code, state string) (*CallbackResult, error) {
	parsed, err := token.ParseState(state)
	if err != nil {
		return nil, newError(KindMalformedState, err)
	}

	record, err := s.repo.Get(ctx, parsed.HandoffID)
	if err != nil {
		if interrors.Is(err, interrors.ErrNotFound) {
			return nil, newError(KindUnknownHandoff, err)
		}
		return nil, errors.Wrap(err, "[Service.Callback] load handoff")
	}
	logger := s.logger.With().Str("handoff", shortID(record.HandoffID)).Logger()

	if !s.signer.Verify(parsed, record.ClientBinding) {
		logger.Warn().Msg("state signature mismatch")
		return nil, newError(KindVerificationFailed, nil)
	}
	if record.Status != handoffrepo.StatusPending {
		return nil, newError(KindAlreadyFulfilled, nil)
	}

	exchangeCtx, cancel := context.WithTimeout(ctx, s.exchangeTimeout)
	defer cancel()
	raw, err := s.exchangeCode(exchangeCtx, code, record.CodeVerifier)
	if err != nil {
		logger.Warn().Err(err).Msg("authorization code exchange failed")
		return nil, newError(KindUpstreamExchangeFailed, err)
	}

	encrypted, err := s.cipher.Encrypt(raw)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Callback] encrypt tokens")
	}

	_, err = s.repo.Transition(ctx, record.HandoffID, handoffrepo.StatusPending, func(r *handoffrepo.Record) {
		r.Status = handoffrepo.StatusReady
		r.EncryptedTokens = &encrypted
	}, s.handoffTTL)
	switch {
	case interrors.Is(err, interrors.ErrNotFound):
		return nil, newError(KindUnknownHandoff, err)
	case interrors.Is(err, interrors.ErrConflict):
		return nil, newError(KindAlreadyFulfilled, err)
	case err != nil:
		return nil, errors.Wrap(err, "[Service.Callback] store tokens")
	}

	html, err := renderBouncePage(s.provider.AppName, s.provider.DeepLinkURI, s.provider.LoopbackURI, record.HandoffID)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Callback]")
	}

	logger.Info().Msg("handoff ready")
	return &CallbackResult{HandoffID: record.HandoffID, HTML: html}, nil
}

// Complete returns the provider token response for a READY handoff and
// deletes it. Only one caller can ever receive the tokens.
func (s *Service) Complete(ctx context.Context, handoffID string, clientBinding *string) (json.RawMessage, error) {
	handoffID = strings.TrimSpace(handoffID)
	record, err := s.repo.Get(ctx, handoffID)
	if err != nil {
		if interrors.Is(err, interrors.ErrNotFound) {
			return nil, newError(KindUnknownHandoff, err)
		}
		return nil, errors.Wrap(err, "[Service.Complete] load handoff")
	}
	logger := s.logger.With().Str("handoff", shortID(record.HandoffID)).Logger()

	if record.Status != handoffrepo.StatusReady || record.EncryptedTokens == nil {
		return nil, newError(KindNotReady, nil)
	}
	if !s.signer.MatchesBinding(record.HandoffID, record.ClientBinding, clientBinding) {
		logger.Warn().Msg("client binding mismatch")
		return nil, newError(KindBindingMismatch, nil)
	}

	plain, err := s.cipher.Decrypt(*record.EncryptedTokens)
	if err != nil {
		logger.Error().Err(err).Msg("stored tokens could not be decrypted")
		return nil, newError(KindCorruptedPayload, err)
	}
	if !json.Valid(plain) {
		return nil, newError(KindCorruptedPayload, errors.New("[Service.Complete] stored tokens are not JSON"))
	}

	// READY records are never rewritten, so the tokens read above are the
	// ones being taken here.
	if _, err := s.repo.TakeIf(ctx, record.HandoffID, handoffrepo.StatusReady); err != nil {
		if interrors.Is(err, interrors.ErrNotFound) || interrors.Is(err, interrors.ErrConflict) {
			return nil, newError(KindUnknownHandoff, err)
		}
		return nil, errors.Wrap(err, "[Service.Complete] delete handoff")
	}

	logger.Info().Msg("handoff completed")
	return json.RawMessage(plain), nil
}

// shortID is enough of a handoff id to correlate log lines without making
// the id recoverable from logs.
func shortID(handoffID string) string {
	if len(handoffID) <= 8 {
		return handoffID
	}
	return handoffID[:8]
}
