//go:build integration

package postgres

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"leadintake/config"
	"leadintake/internal/domain/entity"
	domainerrors "leadintake/internal/domain/errors"
	"leadintake/internal/domain/repository"
	"leadintake/internal/domain/service"
	"leadintake/internal/errors"
	"leadintake/internal/infra/persistence/migrations"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"
)

const integrationConfig = `
env:
  env: development
postgres:
  master:
    host: %s
    port: "%s"
    userName: leadintake
    password: leadintake
  database: leadintake_test
  sslMode: disable
secretKey:
  access: integration-secret
database:
  lockMode: %s
auth:
  refreshTokenTTL: 1h
`

// startPostgres runs a throwaway PostgreSQL and returns a migrated connection.
func startPostgres(t *testing.T, lockMode string) (*gorm.DB, *config.Config) {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("leadintake_test"),
		tcpostgres.WithUsername("leadintake"),
		tcpostgres.WithPassword("leadintake"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf(integrationConfig, host, port.Port(), lockMode)), 0o600))
	t.Setenv("LEADINTAKE_CONFIG", path)

	cfg, err := config.New()
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := Open(cfg, logger)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, Ping(ctx, sqlDB, 5, logger))
	require.NoError(t, migrations.Run(ctx, sqlDB, migrations.Up, logger))

	return db, cfg
}

func seedAttorney(t *testing.T, db *gorm.DB) *entity.Attorney {
	t.Helper()

	attorney := &entity.Attorney{
		ID:             uuid.New(),
		Name:           "Ada",
		Email:          uuid.NewString() + "@x.com",
		HashedPassword: "$2a$04$placeholder",
	}
	require.NoError(t, NewAttorneyRepository(db).Create(context.Background(), attorney))

	return attorney
}

func newIntegrationStore(t *testing.T, db *gorm.DB, cfg *config.Config) service.RefreshTokenStore {
	t.Helper()

	store, err := NewRefreshTokenStore(RefreshTokenStoreParams{
		TxManager: NewTransactionManager(db),
		Config:    cfg,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)

	return store
}

func TestIntegration_ConcurrentRedeemSingleWinner(t *testing.T) {
	for _, mode := range []string{config.LockModeWait, config.LockModeNoWait, config.LockModeSkip} {
		t.Run(mode, func(t *testing.T) {
			db, cfg := startPostgres(t, mode)
			store := newIntegrationStore(t, db, cfg)
			attorney := seedAttorney(t, db)

			issued, err := store.Create(context.Background(), attorney.ID)
			require.NoError(t, err)

			const workers = 16
			var (
				wg      sync.WaitGroup
				mu      sync.Mutex
				winners int
				others  []error
			)
			start := make(chan struct{})
			for range workers {
				wg.Add(1)
				go func() {
					defer wg.Done()
					<-start
					_, err := store.RedeemAndRotate(context.Background(), issued.Token)
					mu.Lock()
					defer mu.Unlock()
					if err == nil {
						winners++

						return
					}
					others = append(others, err)
				}()
			}
			close(start)
			wg.Wait()

			assert.Equal(t, 1, winners)
			for _, err := range others {
				assert.ErrorIs(t, err, domainerrors.ErrRefreshAlreadyUsed)
			}
		})
	}
}

func TestIntegration_RotationChainPersists(t *testing.T) {
	db, cfg := startPostgres(t, config.LockModeWait)
	store := newIntegrationStore(t, db, cfg)
	attorney := seedAttorney(t, db)
	ctx := context.Background()

	t0, err := store.Create(ctx, attorney.ID)
	require.NoError(t, err)
	t1, err := store.RedeemAndRotate(ctx, t0.Token)
	require.NoError(t, err)
	assert.Equal(t, attorney.ID, t1.AttorneyID)

	_, err = store.RedeemAndRotate(ctx, t0.Token)
	assert.ErrorIs(t, err, domainerrors.ErrRefreshAlreadyUsed)

	_, err = store.RedeemAndRotate(ctx, t1.Token)
	require.NoError(t, err)

	// Only digests are stored
	var raw int64
	require.NoError(t, db.Table("refresh_tokens").Where("refresh_token = ?", t0.Token).Count(&raw).Error)
	assert.Zero(t, raw)
}

func TestIntegration_DuplicateAttorneyEmail(t *testing.T) {
	db, _ := startPostgres(t, config.LockModeWait)
	repo := NewAttorneyRepository(db)
	email := "dup@x.com"

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := repo.Create(context.Background(), &entity.Attorney{
				ID:             uuid.New(),
				Name:           "Dup",
				Email:          email,
				HashedPassword: "$2a$04$placeholder",
			})
			if err == nil {
				mu.Lock()
				created++
				mu.Unlock()

				return
			}
			assert.True(t, errors.Is(err, repository.ErrDuplicate), "unexpected error: %v", err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
}
