package handoffrepo

import (
	"context"
	"sync"
	"time"

	interrors "github.com/jrsteele09/go-handoff-server/internal/errors"
	"github.com/pkg/errors"
)

var _ Repo = (*InMemoryRepo)(nil)

type memoryEntry struct {
	record    *Record
	expiresAt time.Time
}

// InMemoryRepo is a thread-safe in-memory implementation of the Repo
// interface. Expired records are reaped lazily on access.
type InMemoryRepo struct {
	mu      sync.Mutex
	records map[string]memoryEntry
	nowTime func() time.Time
}

// InMemoryOption configures an InMemoryRepo.
type InMemoryOption func(*InMemoryRepo)

// WithClock sets the time source used for expiry (primarily for testing).
func WithClock(nowFunc func() time.Time) InMemoryOption {
	return func(r *InMemoryRepo) {
		r.nowTime = nowFunc
	}
}

// NewInMemoryRepo creates a new in-memory handoff repository
func NewInMemoryRepo(options ...InMemoryOption) *InMemoryRepo {
	r := &InMemoryRepo{
		records: make(map[string]memoryEntry),
		nowTime: time.Now,
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

func (r *InMemoryRepo) Create(_ context.Context, record *Record, ttl time.Duration) error {
	if record == nil || record.HandoffID == "" {
		return errors.New("[InMemoryRepo.Create] record with an id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.live(record.HandoffID); ok {
		return interrors.Wrapf(interrors.ErrConflict, "[InMemoryRepo.Create] handoff exists")
	}
	r.store(record.Clone(), ttl)
	return nil
}

func (r *InMemoryRepo) Get(_ context.Context, handoffID string) (*Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.live(handoffID)
	if !ok {
		return nil, interrors.Wrapf(interrors.ErrNotFound, "[InMemoryRepo.Get] handoff")
	}
	return entry.record.Clone(), nil
}

func (r *InMemoryRepo) Transition(_ context.Context, handoffID string, from Status, mutate func(*Record), ttl time.Duration) (*Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.live(handoffID)
	if !ok {
		return nil, interrors.Wrapf(interrors.ErrNotFound, "[InMemoryRepo.Transition] handoff")
	}
	if entry.record.Status != from {
		return nil, interrors.Wrapf(interrors.ErrConflict, "[InMemoryRepo.Transition] status %s", entry.record.Status)
	}

	updated := entry.record.Clone()
	mutate(updated)
	updated.HandoffID = handoffID
	r.store(updated, ttl)
	return updated.Clone(), nil
}

func (r *InMemoryRepo) TakeIf(_ context.Context, handoffID string, status Status) (*Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.live(handoffID)
	if !ok {
		return nil, interrors.Wrapf(interrors.ErrNotFound, "[InMemoryRepo.TakeIf] handoff")
	}
	if entry.record.Status != status {
		return nil, interrors.Wrapf(interrors.ErrConflict, "[InMemoryRepo.TakeIf] status %s", entry.record.Status)
	}
	delete(r.records, handoffID)
	return entry.record, nil
}

// live returns the unexpired entry for id, dropping it if it has expired.
// Callers must hold r.mu.
func (r *InMemoryRepo) live(handoffID string) (memoryEntry, bool) {
	entry, ok := r.records[handoffID]
	if !ok {
		return memoryEntry{}, false
	}
	if !r.nowTime().Before(entry.expiresAt) {
		delete(r.records, handoffID)
		return memoryEntry{}, false
	}
	return entry, true
}

func (r *InMemoryRepo) store(record *Record, ttl time.Duration) {
	r.records[record.HandoffID] = memoryEntry{
		record:    record,
		expiresAt: r.nowTime().Add(ttl),
	}
}
