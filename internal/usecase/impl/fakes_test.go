package impl

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"leadintake/config"
	"leadintake/internal/domain/entity"
	domainerrors "leadintake/internal/domain/errors"
	"leadintake/internal/domain/repository"
	"leadintake/internal/domain/service"
	"leadintake/internal/errors"
	"leadintake/internal/infra/auth"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestConfig() *config.Config {
	cfg := &config.Config{
		Auth: &config.AuthConfig{
			Issuer:          "leadintake-test",
			AccessTokenTTL:  15 * time.Minute,
			RefreshTokenTTL: time.Hour,
		},
	}
	cfg.SecretKey.Access = "0123456789abcdef0123456789abcdef"

	return cfg
}

// Cheapest argon2id parameters the hasher accepts.
var testArgon2Params = auth.Argon2Params{
	Memory:      8 * 1024,
	Iterations:  1,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

type countingHasher struct {
	service.PasswordHasher
	checks atomic.Int64
}

func (h *countingHasher) Check(password, hash string) bool {
	h.checks.Add(1)

	return h.PasswordHasher.Check(password, hash)
}

func newTestVerifier(t *testing.T) (*countingHasher, service.PasswordVerifier) {
	t.Helper()

	inner, err := auth.NewArgon2Hasher(testArgon2Params)
	require.NoError(t, err)
	hasher := &countingHasher{PasswordHasher: inner}

	verifier, err := auth.NewPasswordVerifier(hasher)
	require.NoError(t, err)

	return hasher, verifier
}

// --- repositories ---

type fakeAttorneyRepo struct {
	mu        sync.Mutex
	byEmail   map[string]*entity.Attorney
	findErr   error
	createErr error
	// hideOnFind makes FindByEmail miss rows, so Create meets the unique index instead.
	hideOnFind bool
}

func newFakeAttorneyRepo() *fakeAttorneyRepo {
	return &fakeAttorneyRepo{byEmail: make(map[string]*entity.Attorney)}
}

func (r *fakeAttorneyRepo) seed(t *testing.T, verifier service.PasswordVerifier, name, email, password string) *entity.Attorney {
	t.Helper()

	hashed, err := verifier.Hash(password)
	require.NoError(t, err)

	attorney := &entity.Attorney{ID: uuid.New(), Name: name, Email: email, HashedPassword: hashed}
	r.mu.Lock()
	r.byEmail[email] = attorney
	r.mu.Unlock()

	return attorney
}

func (r *fakeAttorneyRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.byEmail)
}

func (r *fakeAttorneyRepo) Create(_ context.Context, attorney *entity.Attorney) error {
	if r.createErr != nil {
		return r.createErr
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmail[attorney.Email]; ok {
		return errors.Wrap(repository.ErrDuplicate, "create attorney")
	}
	copied := *attorney
	r.byEmail[attorney.Email] = &copied

	return nil
}

func (r *fakeAttorneyRepo) FindByEmail(_ context.Context, email string) (*entity.Attorney, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	attorney, ok := r.byEmail[email]
	if !ok || r.hideOnFind {
		return nil, repository.ErrNotFound
	}
	copied := *attorney

	return &copied, nil
}

func (r *fakeAttorneyRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Attorney, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, attorney := range r.byEmail {
		if attorney.ID == id {
			copied := *attorney

			return &copied, nil
		}
	}

	return nil, repository.ErrNotFound
}

func (r *fakeAttorneyRepo) ListIDs(_ context.Context) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]uuid.UUID, 0, len(r.byEmail))
	for _, attorney := range r.byEmail {
		ids = append(ids, attorney.ID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	return ids, nil
}

func (r *fakeAttorneyRepo) PickRandom(_ context.Context) (*entity.Attorney, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, attorney := range r.byEmail {
		copied := *attorney

		return &copied, nil
	}

	return nil, repository.ErrNotFound
}

type fakeProspectRepo struct {
	mu      sync.Mutex
	byEmail map[string]*entity.Prospect
}

func newFakeProspectRepo() *fakeProspectRepo {
	return &fakeProspectRepo{byEmail: make(map[string]*entity.Prospect)}
}

func (r *fakeProspectRepo) Create(_ context.Context, prospect *entity.Prospect) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmail[prospect.Email]; ok {
		return repository.ErrDuplicate
	}
	copied := *prospect
	r.byEmail[prospect.Email] = &copied

	return nil
}

func (r *fakeProspectRepo) FindByEmail(_ context.Context, email string) (*entity.Prospect, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prospect, ok := r.byEmail[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *prospect

	return &copied, nil
}

func (r *fakeProspectRepo) UpdateResume(_ context.Context, id uuid.UUID, resume string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, prospect := range r.byEmail {
		if prospect.ID == id {
			prospect.Resume = resume

			return nil
		}
	}

	return repository.ErrNotFound
}

func (r *fakeProspectRepo) ListIDs(_ context.Context) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]uuid.UUID, 0, len(r.byEmail))
	for _, prospect := range r.byEmail {
		ids = append(ids, prospect.ID)
	}

	return ids, nil
}

type fakeLeadRepo struct {
	mu    sync.Mutex
	leads map[uuid.UUID]*entity.Lead
}

func newFakeLeadRepo() *fakeLeadRepo {
	return &fakeLeadRepo{leads: make(map[uuid.UUID]*entity.Lead)}
}

func (r *fakeLeadRepo) Create(_ context.Context, lead *entity.Lead) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *lead
	r.leads[lead.ID] = &copied

	return nil
}

func (r *fakeLeadRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	lead, ok := r.leads[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *lead

	return &copied, nil
}

func (r *fakeLeadRepo) UpdateState(_ context.Context, id uuid.UUID, state entity.LeadState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	lead, ok := r.leads[id]
	if !ok {
		return repository.ErrNotFound
	}
	lead.State = state

	return nil
}

func (r *fakeLeadRepo) ListIDsByState(_ context.Context, state entity.LeadState) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var ids []uuid.UUID
	for _, lead := range r.leads {
		if lead.State == state {
			ids = append(ids, lead.ID)
		}
	}

	return ids, nil
}

type fakeRepoFactory struct {
	attorneys *fakeAttorneyRepo
	prospects *fakeProspectRepo
	leads     *fakeLeadRepo
}

func (f *fakeRepoFactory) NewAttorneyRepository() repository.AttorneyRepository { return f.attorneys }
func (f *fakeRepoFactory) NewProspectRepository() repository.ProspectRepository { return f.prospects }
func (f *fakeRepoFactory) NewLeadRepository() repository.LeadRepository         { return f.leads }
func (f *fakeRepoFactory) NewRefreshTokenRepository() repository.RefreshTokenRepository {
	return nil
}

type fakeTxManager struct {
	factory *fakeRepoFactory
	calls   atomic.Int64
}

func (tm *fakeTxManager) Execute(_ context.Context, fn func(txRepoFactory repository.RepositoryFactory) error) error {
	tm.calls.Add(1)

	return fn(tm.factory)
}

// --- refresh store ---

type fakeRefreshStore struct {
	mu        sync.Mutex
	tokens    map[string]*entity.RefreshToken
	createErr error
}

func newFakeRefreshStore() *fakeRefreshStore {
	return &fakeRefreshStore{tokens: make(map[string]*entity.RefreshToken)}
}

func (s *fakeRefreshStore) Create(_ context.Context, attorneyID uuid.UUID) (*entity.RefreshToken, error) {
	if s.createErr != nil {
		return nil, domainerrors.NewUnavailableError(s.createErr, "create refresh token")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.insertLocked(attorneyID), nil
}

func (s *fakeRefreshStore) insertLocked(attorneyID uuid.UUID) *entity.RefreshToken {
	token := &entity.RefreshToken{
		ID:         int64(len(s.tokens) + 1),
		AttorneyID: attorneyID,
		Token:      uuid.NewString(),
		ExpiresAt:  time.Now().Add(time.Hour).Unix(),
	}
	s.tokens[token.Token] = token

	return token
}

func (s *fakeRefreshStore) RedeemAndRotate(_ context.Context, token string) (*entity.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.tokens[token]
	switch {
	case !ok:
		return nil, domainerrors.ErrRefreshNotFound
	case current.Expired(time.Now()):
		return nil, domainerrors.ErrRefreshExpired
	case current.Used:
		return nil, domainerrors.ErrRefreshAlreadyUsed
	}
	current.Used = true

	return s.insertLocked(current.AttorneyID), nil
}

// --- lead collaborators ---

type fakeResumeStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	saveErr error
}

func newFakeResumeStorage() *fakeResumeStorage {
	return &fakeResumeStorage{objects: make(map[string][]byte)}
}

func (s *fakeResumeStorage) Save(_ context.Context, key string, content io.Reader, _ string) (int64, error) {
	if s.saveErr != nil {
		return 0, s.saveErr
	}

	data, err := io.ReadAll(content)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	s.objects[key] = data
	s.mu.Unlock()

	return int64(len(data)), nil
}

func (s *fakeResumeStorage) Open(_ context.Context, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.objects[key]
	if !ok {
		return nil, errors.New("not found")
	}

	return io.NopCloser(bytes.NewReader(data)), nil
}

type fakePublisher struct {
	mu         sync.Mutex
	events     []*service.LeadAssignedEvent
	publishErr error
}

func (p *fakePublisher) PublishLeadAssigned(_ context.Context, event *service.LeadAssignedEvent) error {
	if p.publishErr != nil {
		return p.publishErr
	}

	p.mu.Lock()
	p.events = append(p.events, event)
	p.mu.Unlock()

	return nil
}

func (p *fakePublisher) Close() error {
	return nil
}
