package config

const (
	stateKeyVar      = "TASKLIGHT_OAUTH_STATE_KEY"
	encryptionKeyVar = "TASKLIGHT_OAUTH_ENCRYPTION_KEY"
)

type SecurityConfig interface {
	GetStateKey() string
	GetEncryptionKey() string
}

type Security struct{}

var _ SecurityConfig = Security{}

// GetStateKey is the HMAC secret for state tokens, base64 or raw.
func (Security) GetStateKey() string {
	return GetEnv(stateKeyVar, "")
}

// GetEncryptionKey is the secret the token cipher key is derived from.
func (Security) GetEncryptionKey() string {
	return GetEnv(encryptionKeyVar, "")
}
