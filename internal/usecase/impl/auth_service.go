// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"log/slog"
	"strings"
	"time"

	deliverycontext "leadintake/internal/delivery/context"
	"leadintake/internal/domain/entity"
	domainerrors "leadintake/internal/domain/errors"
	"leadintake/internal/domain/repository"
	"leadintake/internal/domain/service"
	"leadintake/internal/errors"
	"leadintake/internal/infra/metrics"
	"leadintake/internal/usecase"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
)

var tracer = otel.Tracer("leadintake/usecase")

// authService implements the AuthUsecase interface.
type authService struct {
	txManager    repository.TransactionManager
	attorneyRepo repository.AttorneyRepository
	verifier     service.PasswordVerifier
	tokenIssuer  service.TokenIssuer
	refreshStore service.RefreshTokenStore
	metrics      *metrics.Metrics
	logger       *slog.Logger
}

// AuthServiceParams holds dependencies for AuthService, injected by Fx.
type AuthServiceParams struct {
	fx.In

	TxManager    repository.TransactionManager
	AttorneyRepo repository.AttorneyRepository
	Verifier     service.PasswordVerifier
	TokenIssuer  service.TokenIssuer
	RefreshStore service.RefreshTokenStore
	Metrics      *metrics.Metrics
	Logger       *slog.Logger
}

// NewAuthService is the constructor for authService. It receives all dependencies as interfaces.
func NewAuthService(params AuthServiceParams) usecase.AuthUsecase {
	return &authService{
		txManager:    params.TxManager,
		attorneyRepo: params.AttorneyRepo,
		verifier:     params.Verifier,
		tokenIssuer:  params.TokenIssuer,
		refreshStore: params.RefreshStore,
		metrics:      params.Metrics,
		logger:       params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *authService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Login verifies the credentials and opens a new session.
func (srv *authService) Login(ctx context.Context, input *usecase.LoginInput) (_ *entity.TokenPair, err error) {
	ctx, span := tracer.Start(ctx, "auth.Login")
	defer srv.observe(span, metrics.FlowLogin, time.Now(), &err)

	attorney, err := srv.VerifyCredentials(ctx, input.Email, input.Password)
	if err != nil {
		srv.log(ctx).Info("Login rejected", slog.Any("error", err))

		return nil, err
	}

	// Signing has no side effects, so a failure here leaves nothing to undo.
	access, err := srv.tokenIssuer.Issue(attorney.ID)
	if err != nil {
		return nil, errors.Wrap(domainerrors.ErrInternal, err.Error())
	}

	refresh, err := srv.refreshStore.Create(ctx, attorney.ID)
	if err != nil {
		srv.log(ctx).Error("Failed to persist refresh token", slog.Any("attorneyID", attorney.ID), slog.Any("error", err))

		return nil, err
	}

	span.SetAttributes(attribute.String("attorney.id", attorney.ID.String()))
	srv.log(ctx).Debug("Attorney logged in", slog.Any("attorneyID", attorney.ID), slog.String("refreshToken", fingerprint(refresh.Token)))

	return &entity.TokenPair{Access: *access, Refresh: refresh}, nil
}

// Refresh exchanges a refresh token for a new access token and a rotated refresh token.
func (srv *authService) Refresh(ctx context.Context, input *usecase.RefreshInput) (_ *entity.TokenPair, err error) {
	ctx, span := tracer.Start(ctx, "auth.Refresh")
	defer srv.observe(span, metrics.FlowRefresh, time.Now(), &err)

	// Never retried: a second attempt would itself look like a replay.
	rotated, err := srv.refreshStore.RedeemAndRotate(ctx, input.RefreshToken)
	if err != nil {
		srv.log(ctx).Info("Refresh rejected", slog.String("refreshToken", fingerprint(input.RefreshToken)), slog.Any("error", err))

		return nil, err
	}

	access, err := srv.tokenIssuer.Issue(rotated.AttorneyID)
	if err != nil {
		return nil, errors.Wrap(domainerrors.ErrInternal, err.Error())
	}

	span.SetAttributes(attribute.String("attorney.id", rotated.AttorneyID.String()))
	srv.log(ctx).Debug("Refresh token rotated",
		slog.Any("attorneyID", rotated.AttorneyID),
		slog.String("from", fingerprint(input.RefreshToken)),
		slog.String("to", fingerprint(rotated.Token)),
	)

	return &entity.TokenPair{Access: *access, Refresh: rotated}, nil
}

// Register creates an attorney. A duplicate email is reported the same way whether the
// pre-check or the unique index catches it.
func (srv *authService) Register(ctx context.Context, input *usecase.RegisterInput) (_ *usecase.AttorneyOutput, err error) {
	ctx, span := tracer.Start(ctx, "auth.Register")
	defer srv.observe(span, metrics.FlowRegister, time.Now(), &err)

	email := normalizeEmail(input.Email)

	_, err = srv.attorneyRepo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, domainerrors.ErrEmailAlreadyUsed
	case !errors.Is(err, repository.ErrNotFound):
		return nil, domainerrors.NewUnavailableError(err, "check attorney email")
	}

	// Hash outside the transaction; it is CPU bound.
	hashedPassword, err := srv.verifier.Hash(input.Password)
	if err != nil {
		return nil, errors.Wrap(domainerrors.ErrInternal, err.Error())
	}

	attorney := &entity.Attorney{
		ID:             uuid.New(),
		Name:           strings.TrimSpace(input.Name),
		Email:          email,
		HashedPassword: hashedPassword,
	}

	err = srv.txManager.Execute(ctx, func(txRepoFactory repository.RepositoryFactory) error {
		return txRepoFactory.NewAttorneyRepository().Create(ctx, attorney)
	})
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		srv.log(ctx).Info("Registration lost the race on email", slog.String("email", email))

		return nil, domainerrors.ErrEmailAlreadyUsed
	case err != nil:
		srv.log(ctx).Error("Failed to create attorney", slog.String("email", email), slog.Any("error", err))

		return nil, domainerrors.NewUnavailableError(err, "create attorney")
	}

	srv.log(ctx).Debug("Attorney registered", slog.Any("attorneyID", attorney.ID))

	return &usecase.AttorneyOutput{
		ID:    attorney.ID,
		Name:  attorney.Name,
		Email: attorney.Email,
	}, nil
}

func (srv *authService) Authenticate(_ context.Context, accessToken string) (uuid.UUID, error) {
	claims, err := srv.tokenIssuer.Verify(accessToken)
	if err != nil {
		return uuid.Nil, errors.Wrap(domainerrors.ErrUnauthorized, err.Error())
	}

	return claims.AttorneyID, nil
}

// VerifyCredentials runs exactly one hash comparison whether or not the email is known,
// and reports both failures as ErrInvalidCredential.
func (srv *authService) VerifyCredentials(ctx context.Context, email, password string) (*entity.Attorney, error) {
	attorney, err := srv.attorneyRepo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, domainerrors.NewUnavailableError(err, "find attorney")
	}

	var storedHash *string
	if err == nil {
		storedHash = &attorney.HashedPassword
	}

	if !srv.verifier.VerifyOrDecoy(password, storedHash) {
		return nil, domainerrors.ErrInvalidCredential
	}

	return attorney, nil
}

func (srv *authService) observe(span trace.Span, flow string, start time.Time, errp *error) {
	outcome := metrics.OutcomeSuccess
	if err := *errp; err != nil {
		outcome = metrics.OutcomeRejected
		if errors.IsAny(err, domainerrors.ErrUnavailable, domainerrors.ErrInternal) {
			outcome = metrics.OutcomeUnavailable
			span.RecordError(err)
		}
		span.SetStatus(codes.Error, outcome)
	}
	span.End()

	srv.metrics.RecordAuth(flow, outcome, time.Since(start))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// fingerprint is the loggable prefix of a token.
func fingerprint(token string) string {
	const n = 6
	if len(token) <= n {
		return token
	}

	return token[:n] + "…"
}
