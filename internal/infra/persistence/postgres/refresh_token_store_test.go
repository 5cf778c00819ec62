package postgres

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"leadintake/internal/domain/entity"
	domainerrors "leadintake/internal/domain/errors"
	"leadintake/internal/domain/repository"
	"leadintake/internal/errors"
	"leadintake/internal/infra/auth"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTokenTable imitates the refresh_tokens table: row locks are held until the owning
// transaction ends, and writes of a failed transaction are undone before its locks drop.
type fakeTokenTable struct {
	mu        sync.Mutex
	rows      map[string]*entity.RefreshToken
	nextID    int64
	locks     map[string]*sync.Mutex
	failWrite atomic.Bool
}

func newFakeTokenTable() *fakeTokenTable {
	return &fakeTokenTable{
		rows:  make(map[string]*entity.RefreshToken),
		locks: make(map[string]*sync.Mutex),
	}
}

func (t *fakeTokenTable) rowLock(tokenHash string) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()

	lock, ok := t.locks[tokenHash]
	if !ok {
		lock = &sync.Mutex{}
		t.locks[tokenHash] = lock
	}

	return lock
}

func (t *fakeTokenTable) get(tokenHash string) (*entity.RefreshToken, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	row, ok := t.rows[tokenHash]
	if !ok {
		return nil, false
	}
	copied := *row

	return &copied, true
}

type fakeTxState struct {
	undos   []func()
	unlocks []func()
}

type fakeTxManager struct {
	table *fakeTokenTable
}

func (tm *fakeTxManager) Execute(_ context.Context, fn func(txRepoFactory repository.RepositoryFactory) error) error {
	state := &fakeTxState{}
	defer func() {
		for i := len(state.unlocks) - 1; i >= 0; i-- {
			state.unlocks[i]()
		}
	}()

	if err := fn(&fakeRepoFactory{repo: &fakeRefreshTokenRepo{table: tm.table, tx: state}}); err != nil {
		for i := len(state.undos) - 1; i >= 0; i-- {
			state.undos[i]()
		}

		return err
	}

	return nil
}

type fakeRepoFactory struct {
	repo *fakeRefreshTokenRepo
}

func (f *fakeRepoFactory) NewAttorneyRepository() repository.AttorneyRepository { return nil }
func (f *fakeRepoFactory) NewProspectRepository() repository.ProspectRepository { return nil }
func (f *fakeRepoFactory) NewLeadRepository() repository.LeadRepository         { return nil }
func (f *fakeRepoFactory) NewRefreshTokenRepository() repository.RefreshTokenRepository {
	return f.repo
}

type fakeRefreshTokenRepo struct {
	table *fakeTokenTable
	tx    *fakeTxState
}

func (r *fakeRefreshTokenRepo) Create(_ context.Context, token *entity.RefreshToken) error {
	if r.table.failWrite.Load() {
		return errors.New("connection reset by peer")
	}

	r.table.mu.Lock()
	defer r.table.mu.Unlock()

	if _, ok := r.table.rows[token.TokenHash]; ok {
		return repository.ErrDuplicate
	}

	r.table.nextID++
	token.ID = r.table.nextID
	stored := *token
	stored.Token = ""
	r.table.rows[token.TokenHash] = &stored

	r.tx.undos = append(r.tx.undos, func() {
		r.table.mu.Lock()
		delete(r.table.rows, token.TokenHash)
		r.table.mu.Unlock()
	})

	return nil
}

func (r *fakeRefreshTokenRepo) FindByHashForUpdate(_ context.Context, tokenHash string, mode repository.LockMode) (*entity.RefreshToken, error) {
	if _, ok := r.table.get(tokenHash); !ok {
		return nil, repository.ErrNotFound
	}

	lock := r.table.rowLock(tokenHash)
	switch mode {
	case repository.LockNoWait:
		if !lock.TryLock() {
			return nil, repository.ErrLocked
		}
	case repository.LockSkipLocked:
		if !lock.TryLock() {
			return nil, repository.ErrNotFound
		}
	default:
		lock.Lock()
	}
	r.tx.unlocks = append(r.tx.unlocks, lock.Unlock)

	// Re-read after the lock is granted, as READ COMMITTED does.
	row, ok := r.table.get(tokenHash)
	if !ok {
		return nil, repository.ErrNotFound
	}

	return row, nil
}

func (r *fakeRefreshTokenRepo) ExistsByHash(_ context.Context, tokenHash string) (bool, error) {
	_, ok := r.table.get(tokenHash)

	return ok, nil
}

func (r *fakeRefreshTokenRepo) MarkUsed(_ context.Context, id int64) error {
	r.table.mu.Lock()
	defer r.table.mu.Unlock()

	for _, row := range r.table.rows {
		if row.ID != id {
			continue
		}
		if row.Used {
			return repository.ErrNotFound
		}

		row.Used = true
		r.tx.undos = append(r.tx.undos, func() {
			r.table.mu.Lock()
			row.Used = false
			r.table.mu.Unlock()
		})

		return nil
	}

	return repository.ErrNotFound
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *testClock) Set(now time.Time) {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
}

func newTestStore(mode repository.LockMode) (*refreshTokenStore, *fakeTokenTable, *testClock) {
	table := newFakeTokenTable()
	clock := &testClock{now: time.Unix(1_700_000_000, 0)}

	return &refreshTokenStore{
		txManager: &fakeTxManager{table: table},
		ttl:       time.Hour,
		lockMode:  mode,
		now:       clock.Now,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, table, clock
}

func TestRefreshTokenStore_Create(t *testing.T) {
	store, table, clock := newTestStore(repository.LockWait)
	attorneyID := uuid.New()

	token, err := store.Create(context.Background(), attorneyID)
	require.NoError(t, err)

	assert.NotEmpty(t, token.Token)
	assert.Equal(t, auth.HashRefreshToken(token.Token), token.TokenHash)
	assert.Equal(t, attorneyID, token.AttorneyID)
	assert.False(t, token.Used)
	assert.Equal(t, clock.Now().Add(time.Hour).Unix(), token.ExpiresAt)

	stored, ok := table.get(token.TokenHash)
	require.True(t, ok)
	assert.Empty(t, stored.Token, "raw material must never be persisted")
}

func TestRefreshTokenStore_RotationChain(t *testing.T) {
	store, _, _ := newTestStore(repository.LockWait)
	ctx := context.Background()
	attorneyID := uuid.New()

	t0, err := store.Create(ctx, attorneyID)
	require.NoError(t, err)

	t1, err := store.RedeemAndRotate(ctx, t0.Token)
	require.NoError(t, err)
	assert.Equal(t, attorneyID, t1.AttorneyID)
	assert.NotEqual(t, t0.Token, t1.Token)

	_, err = store.RedeemAndRotate(ctx, t0.Token)
	assert.ErrorIs(t, err, domainerrors.ErrRefreshAlreadyUsed)

	t2, err := store.RedeemAndRotate(ctx, t1.Token)
	require.NoError(t, err)
	assert.NotEqual(t, t1.Token, t2.Token)
	assert.NotEqual(t, t0.Token, t2.Token)

	_, err = store.RedeemAndRotate(ctx, t1.Token)
	assert.ErrorIs(t, err, domainerrors.ErrRefreshAlreadyUsed)
}

func TestRefreshTokenStore_DecisionOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown token", func(t *testing.T) {
		store, _, _ := newTestStore(repository.LockWait)

		_, err := store.RedeemAndRotate(ctx, "does-not-exist")
		assert.ErrorIs(t, err, domainerrors.ErrRefreshNotFound)
	})

	t.Run("expiry equal to now is expired", func(t *testing.T) {
		store, _, clock := newTestStore(repository.LockWait)
		token, err := store.Create(ctx, uuid.New())
		require.NoError(t, err)

		clock.Set(time.Unix(token.ExpiresAt, 0))
		_, err = store.RedeemAndRotate(ctx, token.Token)
		assert.ErrorIs(t, err, domainerrors.ErrRefreshExpired)
	})

	t.Run("expiry one second ago is expired", func(t *testing.T) {
		store, _, clock := newTestStore(repository.LockWait)
		token, err := store.Create(ctx, uuid.New())
		require.NoError(t, err)

		clock.Set(time.Unix(token.ExpiresAt+1, 0))
		_, err = store.RedeemAndRotate(ctx, token.Token)
		assert.ErrorIs(t, err, domainerrors.ErrRefreshExpired)
	})

	t.Run("one second before expiry succeeds", func(t *testing.T) {
		store, _, clock := newTestStore(repository.LockWait)
		token, err := store.Create(ctx, uuid.New())
		require.NoError(t, err)

		clock.Set(time.Unix(token.ExpiresAt-1, 0))
		_, err = store.RedeemAndRotate(ctx, token.Token)
		assert.NoError(t, err)
	})

	t.Run("expired wins over used", func(t *testing.T) {
		store, _, clock := newTestStore(repository.LockWait)
		token, err := store.Create(ctx, uuid.New())
		require.NoError(t, err)
		_, err = store.RedeemAndRotate(ctx, token.Token)
		require.NoError(t, err)

		clock.Set(time.Unix(token.ExpiresAt, 0))
		_, err = store.RedeemAndRotate(ctx, token.Token)
		assert.ErrorIs(t, err, domainerrors.ErrRefreshExpired)
	})
}

func TestRefreshTokenStore_ConcurrentRedeemSingleWinner(t *testing.T) {
	modes := []repository.LockMode{repository.LockWait, repository.LockNoWait, repository.LockSkipLocked}

	for _, mode := range modes {
		t.Run(mode.String(), func(t *testing.T) {
			store, _, _ := newTestStore(mode)
			ctx := context.Background()

			token, err := store.Create(ctx, uuid.New())
			require.NoError(t, err)

			const workers = 32
			var (
				wg        sync.WaitGroup
				start     = make(chan struct{})
				successes atomic.Int64
				alreadyUs atomic.Int64
				others    atomic.Int64
			)

			for range workers {
				wg.Add(1)
				go func() {
					defer wg.Done()
					<-start

					_, err := store.RedeemAndRotate(ctx, token.Token)
					switch {
					case err == nil:
						successes.Add(1)
					case errors.Is(err, domainerrors.ErrRefreshAlreadyUsed):
						alreadyUs.Add(1)
					default:
						others.Add(1)
					}
				}()
			}

			close(start)
			wg.Wait()

			assert.Equal(t, int64(1), successes.Load())
			assert.Equal(t, int64(workers-1), alreadyUs.Load())
			assert.Zero(t, others.Load())
		})
	}
}

func TestRefreshTokenStore_FailedRotationRollsBack(t *testing.T) {
	store, table, _ := newTestStore(repository.LockWait)
	ctx := context.Background()

	token, err := store.Create(ctx, uuid.New())
	require.NoError(t, err)

	table.failWrite.Store(true)
	_, err = store.RedeemAndRotate(ctx, token.Token)
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrUnavailable)

	stored, ok := table.get(token.TokenHash)
	require.True(t, ok)
	assert.False(t, stored.Used, "used flag must roll back with the failed insert")

	table.failWrite.Store(false)
	_, err = store.RedeemAndRotate(ctx, token.Token)
	assert.NoError(t, err)
}

func TestParseLockMode(t *testing.T) {
	assert.Equal(t, repository.LockWait, ParseLockMode("wait"))
	assert.Equal(t, repository.LockNoWait, ParseLockMode("nowait"))
	assert.Equal(t, repository.LockSkipLocked, ParseLockMode("skip"))
	assert.Equal(t, repository.LockWait, ParseLockMode(""))
}
