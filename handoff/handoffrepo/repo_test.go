package handoffrepo_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jrsteele09/go-handoff-server/handoff/handoffrepo"
	interrors "github.com/jrsteele09/go-handoff-server/internal/errors"
	"github.com/jrsteele09/go-handoff-server/internal/utils"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

const testTTL = 4 * time.Minute

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type repoHarness struct {
	repo    handoffrepo.Repo
	advance func(time.Duration)
}

// forEachRepo runs fn against a fresh in-memory repo and a fresh Redis repo.
func forEachRepo(t *testing.T, fn func(t *testing.T, h repoHarness)) {
	t.Run("memory", func(t *testing.T) {
		clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
		fn(t, repoHarness{
			repo:    handoffrepo.NewInMemoryRepo(handoffrepo.WithClock(clock.Now)),
			advance: clock.Advance,
		})
	})

	t.Run("redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = client.Close() })
		fn(t, repoHarness{
			repo:    handoffrepo.NewRedisRepoFromClient(client, handoffrepo.DefaultKeyspace),
			advance: mr.FastForward,
		})
	})
}

func pendingRecord(id string) *handoffrepo.Record {
	return &handoffrepo.Record{
		HandoffID:             id,
		State:                 id + ".signature",
		CodeVerifier:          "verifier-" + id,
		CreatedAtEpochSeconds: 1_700_000_000,
		Status:                handoffrepo.StatusPending,
		ClientBinding:         utils.Ptr("device-123"),
	}
}

func markReady(r *handoffrepo.Record) {
	r.Status = handoffrepo.StatusReady
	r.EncryptedTokens = utils.Ptr("ciphertext")
}

func TestRepo_CreateAndGet(t *testing.T) {
	forEachRepo(t, func(t *testing.T, h repoHarness) {
		ctx := context.Background()
		require.NoError(t, h.repo.Create(ctx, pendingRecord("h1"), testTTL))

		got, err := h.repo.Get(ctx, "h1")
		require.NoError(t, err)
		require.Equal(t, pendingRecord("h1"), got)

		// mutating the returned copy does not touch the stored record
		got.Status = handoffrepo.StatusReady
		*got.ClientBinding = "someone-else"
		again, err := h.repo.Get(ctx, "h1")
		require.NoError(t, err)
		require.Equal(t, handoffrepo.StatusPending, again.Status)
		require.Equal(t, "device-123", utils.Value(again.ClientBinding))
	})
}

func TestRepo_CreateDuplicateConflicts(t *testing.T) {
	forEachRepo(t, func(t *testing.T, h repoHarness) {
		ctx := context.Background()
		require.NoError(t, h.repo.Create(ctx, pendingRecord("h1"), testTTL))

		err := h.repo.Create(ctx, pendingRecord("h1"), testTTL)
		require.True(t, interrors.Is(err, interrors.ErrConflict), "got %v", err)
	})
}

func TestRepo_GetMissing(t *testing.T) {
	forEachRepo(t, func(t *testing.T, h repoHarness) {
		_, err := h.repo.Get(context.Background(), "nope")
		require.True(t, interrors.Is(err, interrors.ErrNotFound), "got %v", err)
	})
}

func TestRepo_RecordExpires(t *testing.T) {
	forEachRepo(t, func(t *testing.T, h repoHarness) {
		ctx := context.Background()
		require.NoError(t, h.repo.Create(ctx, pendingRecord("h1"), testTTL))

		h.advance(testTTL - time.Second)
		_, err := h.repo.Get(ctx, "h1")
		require.NoError(t, err)

		h.advance(2 * time.Second)
		_, err = h.repo.Get(ctx, "h1")
		require.True(t, interrors.Is(err, interrors.ErrNotFound), "got %v", err)

		// an expired id can be reused
		require.NoError(t, h.repo.Create(ctx, pendingRecord("h1"), testTTL))
	})
}

func TestRepo_TransitionRearmsTTL(t *testing.T) {
	forEachRepo(t, func(t *testing.T, h repoHarness) {
		ctx := context.Background()
		require.NoError(t, h.repo.Create(ctx, pendingRecord("h1"), testTTL))

		h.advance(3 * time.Minute)
		updated, err := h.repo.Transition(ctx, "h1", handoffrepo.StatusPending, markReady, testTTL)
		require.NoError(t, err)
		require.Equal(t, handoffrepo.StatusReady, updated.Status)
		require.Equal(t, "ciphertext", utils.Value(updated.EncryptedTokens))
		require.Equal(t, "verifier-h1", updated.CodeVerifier)

		h.advance(3 * time.Minute)
		got, err := h.repo.Get(ctx, "h1")
		require.NoError(t, err)
		require.Equal(t, handoffrepo.StatusReady, got.Status)
	})
}

func TestRepo_TransitionWrongStatus(t *testing.T) {
	forEachRepo(t, func(t *testing.T, h repoHarness) {
		ctx := context.Background()
		require.NoError(t, h.repo.Create(ctx, pendingRecord("h1"), testTTL))
		_, err := h.repo.Transition(ctx, "h1", handoffrepo.StatusPending, markReady, testTTL)
		require.NoError(t, err)

		_, err = h.repo.Transition(ctx, "h1", handoffrepo.StatusPending, func(r *handoffrepo.Record) {
			r.EncryptedTokens = utils.Ptr("overwritten")
		}, testTTL)
		require.True(t, interrors.Is(err, interrors.ErrConflict), "got %v", err)

		got, err := h.repo.Get(ctx, "h1")
		require.NoError(t, err)
		require.Equal(t, "ciphertext", utils.Value(got.EncryptedTokens))
	})
}

func TestRepo_TransitionMissing(t *testing.T) {
	forEachRepo(t, func(t *testing.T, h repoHarness) {
		_, err := h.repo.Transition(context.Background(), "nope", handoffrepo.StatusPending, markReady, testTTL)
		require.True(t, interrors.Is(err, interrors.ErrNotFound), "got %v", err)
	})
}

func TestRepo_TakeIf(t *testing.T) {
	forEachRepo(t, func(t *testing.T, h repoHarness) {
		ctx := context.Background()
		require.NoError(t, h.repo.Create(ctx, pendingRecord("h1"), testTTL))

		_, err := h.repo.TakeIf(ctx, "h1", handoffrepo.StatusReady)
		require.True(t, interrors.Is(err, interrors.ErrConflict), "got %v", err)
		_, err = h.repo.Get(ctx, "h1")
		require.NoError(t, err, "a pending record survives a failed take")

		_, err = h.repo.Transition(ctx, "h1", handoffrepo.StatusPending, markReady, testTTL)
		require.NoError(t, err)

		taken, err := h.repo.TakeIf(ctx, "h1", handoffrepo.StatusReady)
		require.NoError(t, err)
		require.Equal(t, "h1", taken.HandoffID)
		require.Equal(t, "ciphertext", utils.Value(taken.EncryptedTokens))

		_, err = h.repo.Get(ctx, "h1")
		require.True(t, interrors.Is(err, interrors.ErrNotFound), "got %v", err)
		_, err = h.repo.TakeIf(ctx, "h1", handoffrepo.StatusReady)
		require.True(t, interrors.Is(err, interrors.ErrNotFound), "got %v", err)
	})
}

func TestRepo_ConcurrentTakeDeliversOnce(t *testing.T) {
	forEachRepo(t, func(t *testing.T, h repoHarness) {
		ctx := context.Background()
		for round := 0; round < 5; round++ {
			id := fmt.Sprintf("h%d", round)
			require.NoError(t, h.repo.Create(ctx, pendingRecord(id), testTTL))
			_, err := h.repo.Transition(ctx, id, handoffrepo.StatusPending, markReady, testTTL)
			require.NoError(t, err)

			const workers = 16
			var wg sync.WaitGroup
			results := make(chan error, workers)
			for i := 0; i < workers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, err := h.repo.TakeIf(ctx, id, handoffrepo.StatusReady)
					results <- err
				}()
			}
			wg.Wait()
			close(results)

			successes := 0
			for err := range results {
				if err == nil {
					successes++
					continue
				}
				require.True(t,
					interrors.Is(err, interrors.ErrNotFound) || interrors.Is(err, interrors.ErrConflict),
					"unexpected error %v", err)
			}
			require.Equal(t, 1, successes)
		}
	})
}

func TestRepo_ConcurrentTransitionAppliesOnce(t *testing.T) {
	forEachRepo(t, func(t *testing.T, h repoHarness) {
		ctx := context.Background()
		require.NoError(t, h.repo.Create(ctx, pendingRecord("h1"), testTTL))

		const workers = 16
		var wg sync.WaitGroup
		results := make(chan error, workers)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := h.repo.Transition(ctx, "h1", handoffrepo.StatusPending, func(r *handoffrepo.Record) {
					r.Status = handoffrepo.StatusReady
					r.EncryptedTokens = utils.Ptr(fmt.Sprintf("ciphertext-%d", i))
				}, testTTL)
				results <- err
			}(i)
		}
		wg.Wait()
		close(results)

		successes := 0
		for err := range results {
			if err == nil {
				successes++
				continue
			}
			require.True(t, interrors.Is(err, interrors.ErrConflict), "unexpected error %v", err)
		}
		require.Equal(t, 1, successes)
	})
}

func TestRedisRepo_KeyAndTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	repo, err := handoffrepo.NewRedisRepo(ctx, "redis://"+mr.Addr(), handoffrepo.Keyspace{Namespace: "app", Provider: "idp"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	require.NoError(t, repo.Create(ctx, pendingRecord("h1"), testTTL))
	require.True(t, mr.Exists("app:idp:handoff:h1"))
	require.Equal(t, testTTL, mr.TTL("app:idp:handoff:h1"))

	raw, err := mr.Get("app:idp:handoff:h1")
	require.NoError(t, err)
	require.JSONEq(t, `{
		"handoffId": "h1",
		"state": "h1.signature",
		"codeVerifier": "verifier-h1",
		"createdAtEpochSeconds": 1700000000,
		"status": "PENDING",
		"encryptedTokens": null,
		"clientBinding": "device-123"
	}`, raw)
}

func TestRedisRepo_CorruptRecord(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	repo := handoffrepo.NewRedisRepoFromClient(client, handoffrepo.DefaultKeyspace)

	require.NoError(t, mr.Set("tasklight:notion:handoff:h1", "{not json"))
	_, err := repo.Get(context.Background(), "h1")
	require.Error(t, err)
	require.False(t, interrors.Is(err, interrors.ErrNotFound))
	require.False(t, interrors.Is(err, interrors.ErrConflict))
}

func TestNewRedisRepo_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := handoffrepo.NewRedisRepo(ctx, "not-a-redis-url", handoffrepo.DefaultKeyspace)
	require.Error(t, err)

	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	_, err = handoffrepo.NewRedisRepo(ctx, "redis://"+addr, handoffrepo.DefaultKeyspace)
	require.Error(t, err)
}

func TestKeyspace(t *testing.T) {
	require.Equal(t, "tasklight:notion:handoff:abc", handoffrepo.DefaultKeyspace.Key("abc"))
}
