package config

import (
	"strings"

	_ "github.com/joho/godotenv/autoload"
	"github.com/pkg/errors"

	interrors "github.com/jrsteele09/go-handoff-server/internal/errors"
)

type Config interface {
	EnvConfig
	CorsConfig
	OAuthConfig
	SecurityConfig
	StoreConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	IsDev() bool
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Cors
	OAuth
	Security
	Store
}

func New() Config {
	return mainConfig{}
}

// Validate reports every required setting that is missing.
func Validate(c Config) error {
	required := map[string]string{
		clientIDVar:      c.GetClientID(),
		clientSecretVar:  c.GetClientSecret(),
		redirectURIVar:   c.GetRedirectURI(),
		deepLinkURIVar:   c.GetDeepLinkURI(),
		stateKeyVar:      c.GetStateKey(),
		encryptionKeyVar: c.GetEncryptionKey(),
	}

	var missing []string
	for _, name := range requiredOrder {
		if strings.TrimSpace(required[name]) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return errors.Wrapf(interrors.ErrInvalidConfig, "missing %s", strings.Join(missing, ", "))
	}

	switch c.GetStoreType() {
	case StoreTypeMemory, StoreTypeRedis:
	default:
		return errors.Wrapf(interrors.ErrInvalidConfig, "unknown %s %q", storeTypeVar, c.GetStoreType())
	}

	switch c.GetTokenRequestEncoding() {
	case TokenRequestEncodingJSON, TokenRequestEncodingForm:
	default:
		return errors.Wrapf(interrors.ErrInvalidConfig, "unknown %s %q", tokenEncodingVar, c.GetTokenRequestEncoding())
	}

	if c.GetHandoffTTL() <= 0 {
		return errors.Wrapf(interrors.ErrInvalidConfig, "%s must be positive", handoffTTLVar)
	}
	return nil
}

var requiredOrder = []string{
	clientIDVar,
	clientSecretVar,
	redirectURIVar,
	deepLinkURIVar,
	stateKeyVar,
	encryptionKeyVar,
}
