package handoffrepo

import (
	"context"
	"time"
)

// Status is the protocol phase of a handoff. It only ever moves from
// StatusPending to StatusReady.
type Status string

const (
	StatusPending Status = "PENDING"
	StatusReady   Status = "READY"
)

// Record is the persisted state of one handoff.
type Record struct {
	HandoffID             string  `json:"handoffId"`
	State                 string  `json:"state"`
	CodeVerifier          string  `json:"codeVerifier"`
	CreatedAtEpochSeconds int64   `json:"createdAtEpochSeconds"`
	Status                Status  `json:"status"`
	EncryptedTokens       *string `json:"encryptedTokens"`
	ClientBinding         *string `json:"clientBinding"`
}

// Clone returns a deep copy so callers never share optional fields with a repo.
func (r *Record) Clone() *Record {
	c := *r
	if r.EncryptedTokens != nil {
		v := *r.EncryptedTokens
		c.EncryptedTokens = &v
	}
	if r.ClientBinding != nil {
		v := *r.ClientBinding
		c.ClientBinding = &v
	}
	return &c
}

// Repo stores handoff records with a per-record TTL.
//
// Errors wrap internal/errors.ErrNotFound when the record is absent or
// expired, and internal/errors.ErrConflict when it exists in an unexpected
// status or a concurrent writer got there first. Anything else is an
// infrastructure failure.
type Repo interface {
	// Create stores a new record only if its id is unused.
	Create(ctx context.Context, record *Record, ttl time.Duration) error

	// Get returns a copy of the record.
	Get(ctx context.Context, handoffID string) (*Record, error)

	// Transition atomically applies mutate to the record if its status is
	// from, rewriting it with a fresh ttl. The updated record is returned.
	Transition(ctx context.Context, handoffID string, from Status, mutate func(*Record), ttl time.Duration) (*Record, error)

	// TakeIf atomically deletes and returns the record if its status is
	// status. It is the only way a record is removed before its TTL.
	TakeIf(ctx context.Context, handoffID string, status Status) (*Record, error)
}
