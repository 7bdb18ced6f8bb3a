package config

import "strings"

const (
	storeTypeVar        = "HANDOFF_STORE"
	redisURLVar         = "REDIS_URL"
	keyNamespaceVar     = "HANDOFF_KEY_NAMESPACE"
	keyProviderVar      = "HANDOFF_KEY_PROVIDER"
	StoreTypeMemory     = "memory"
	StoreTypeRedis      = "redis"
	defaultRedisURL     = "redis://localhost:6379/0"
	defaultKeyNamespace = "tasklight"
	defaultKeyProvider  = "notion"
)

type StoreConfig interface {
	GetStoreType() string
	GetRedisURL() string
	GetKeyNamespace() string
	GetKeyProvider() string
}

type Store struct{}

var _ StoreConfig = Store{}

func (Store) GetStoreType() string {
	return strings.ToLower(GetEnv(storeTypeVar, StoreTypeMemory))
}

func (Store) GetRedisURL() string {
	return GetEnv(redisURLVar, defaultRedisURL)
}

func (Store) GetKeyNamespace() string {
	return GetEnv(keyNamespaceVar, defaultKeyNamespace)
}

func (Store) GetKeyProvider() string {
	return GetEnv(keyProviderVar, defaultKeyProvider)
}
