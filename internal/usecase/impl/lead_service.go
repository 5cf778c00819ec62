package impl

import (
	"context"
	"log/slog"
	"path"
	"strings"

	deliverycontext "leadintake/internal/delivery/context"
	"leadintake/internal/domain/entity"
	domainerrors "leadintake/internal/domain/errors"
	"leadintake/internal/domain/repository"
	"leadintake/internal/domain/service"
	"leadintake/internal/errors"
	"leadintake/internal/infra/metrics"
	"leadintake/internal/usecase"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/fx"
)

// leadService implements the LeadUsecase interface.
type leadService struct {
	txManager    repository.TransactionManager
	attorneyRepo repository.AttorneyRepository
	prospectRepo repository.ProspectRepository
	leadRepo     repository.LeadRepository
	storage      service.ResumeStorage
	publisher    service.EventPublisher
	metrics      *metrics.Metrics
	logger       *slog.Logger
}

// LeadServiceParams holds dependencies for LeadService, injected by Fx.
type LeadServiceParams struct {
	fx.In

	TxManager    repository.TransactionManager
	AttorneyRepo repository.AttorneyRepository
	ProspectRepo repository.ProspectRepository
	LeadRepo     repository.LeadRepository
	Storage      service.ResumeStorage
	Publisher    service.EventPublisher
	Metrics      *metrics.Metrics
	Logger       *slog.Logger
}

func NewLeadService(params LeadServiceParams) usecase.LeadUsecase {
	return &leadService{
		txManager:    params.TxManager,
		attorneyRepo: params.AttorneyRepo,
		prospectRepo: params.ProspectRepo,
		leadRepo:     params.LeadRepo,
		storage:      params.Storage,
		publisher:    params.Publisher,
		metrics:      params.Metrics,
		logger:       params.Logger,
	}
}

func (srv *leadService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// FileLead stores the resume, pairs the prospect with a random attorney and announces
// the new lead once it is committed.
func (srv *leadService) FileLead(ctx context.Context, input *usecase.FileLeadInput) (_ *usecase.ProspectOutput, err error) {
	ctx, span := tracer.Start(ctx, "lead.FileLead")
	defer func() {
		outcome := metrics.OutcomeSuccess
		if err != nil {
			outcome = metrics.OutcomeRejected
			span.SetStatus(codes.Error, err.Error())
		}
		srv.metrics.LeadsFiled.WithLabelValues(outcome).Inc()
		span.End()
	}()

	attorney, err := srv.attorneyRepo.PickRandom(ctx)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, domainerrors.ErrNoEligibleAttorney
	case err != nil:
		return nil, domainerrors.NewUnavailableError(err, "pick attorney")
	}

	resumeKey := ResumeKey(input.FirstName, input.LastName, input.FileName)
	if _, err := srv.storage.Save(ctx, resumeKey, input.Content, input.ContentType); err != nil {
		srv.log(ctx).Error("Failed to store resume", slog.String("key", resumeKey), slog.Any("error", err))

		return nil, domainerrors.NewUnavailableError(err, "store resume")
	}

	prospect := &entity.Prospect{
		ID:     uuid.New(),
		Name:   strings.TrimSpace(input.FirstName + " " + input.LastName),
		Email:  normalizeEmail(input.Email),
		Resume: resumeKey,
	}
	lead := &entity.Lead{
		ID:         uuid.New(),
		AttorneyID: attorney.ID,
		State:      entity.LeadStatePending,
	}

	err = srv.createLead(ctx, prospect, lead)
	if errors.Is(err, repository.ErrDuplicate) {
		// A concurrent first filing inserted the prospect; the retry finds it.
		err = srv.createLead(ctx, prospect, lead)
	}
	if err != nil {
		srv.log(ctx).Error("Failed to create lead", slog.String("email", prospect.Email), slog.Any("error", err))

		return nil, domainerrors.NewUnavailableError(err, "create lead")
	}

	span.SetAttributes(
		attribute.String("lead.id", lead.ID.String()),
		attribute.String("attorney.id", attorney.ID.String()),
	)

	srv.announce(ctx, &service.LeadAssignedEvent{
		RequestID:     deliverycontext.GetRequestIDFromContext(ctx),
		LeadID:        lead.ID.String(),
		State:         string(lead.State),
		AttorneyID:    attorney.ID.String(),
		AttorneyName:  attorney.Name,
		AttorneyEmail: attorney.Email,
		ProspectID:    prospect.ID.String(),
		ProspectName:  prospect.Name,
		ProspectEmail: prospect.Email,
	})

	return &usecase.ProspectOutput{
		ProspectID: prospect.ID,
		AttorneyID: attorney.ID,
		LeadID:     lead.ID,
		Email:      prospect.Email,
	}, nil
}

// createLead upserts the prospect by email and inserts the lead in one transaction.
// On return prospect carries the stored row's ID.
func (srv *leadService) createLead(ctx context.Context, prospect *entity.Prospect, lead *entity.Lead) error {
	return srv.txManager.Execute(ctx, func(txRepoFactory repository.RepositoryFactory) error {
		prospectRepo := txRepoFactory.NewProspectRepository()

		existing, err := prospectRepo.FindByEmail(ctx, prospect.Email)
		switch {
		case err == nil:
			prospect.ID = existing.ID
			if err := prospectRepo.UpdateResume(ctx, existing.ID, prospect.Resume); err != nil {
				return err
			}
		case errors.Is(err, repository.ErrNotFound):
			if err := prospectRepo.Create(ctx, prospect); err != nil {
				return err
			}
		default:
			return err
		}

		lead.ProspectID = prospect.ID

		return txRepoFactory.NewLeadRepository().Create(ctx, lead)
	})
}

func (srv *leadService) announce(ctx context.Context, event *service.LeadAssignedEvent) {
	if err := srv.publisher.PublishLeadAssigned(ctx, event); err != nil {
		srv.metrics.PublishErrors.Inc()
		srv.log(ctx).Error("Failed to publish lead event", slog.String("leadID", event.LeadID), slog.Any("error", err))

		return
	}

	srv.log(ctx).Debug("Lead event published", slog.String("leadID", event.LeadID))
}

// UpdateLead marks the lead as reached out. Any authenticated attorney may do so.
func (srv *leadService) UpdateLead(ctx context.Context, attorneyID, leadID uuid.UUID) (*usecase.LeadInfo, error) {
	ctx, span := tracer.Start(ctx, "lead.UpdateLead")
	defer span.End()

	var updated *entity.Lead
	err := srv.txManager.Execute(ctx, func(txRepoFactory repository.RepositoryFactory) error {
		leadRepo := txRepoFactory.NewLeadRepository()

		lead, err := leadRepo.FindByID(ctx, leadID)
		if err != nil {
			return err
		}
		if err := leadRepo.UpdateState(ctx, lead.ID, entity.LeadStateReachedOut); err != nil {
			return err
		}

		lead.State = entity.LeadStateReachedOut
		updated = lead

		return nil
	})
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, domainerrors.ErrLeadNotFound
	case err != nil:
		span.SetStatus(codes.Error, err.Error())

		return nil, domainerrors.NewUnavailableError(err, "update lead")
	}

	srv.log(ctx).Info("Lead reached out", slog.Any("leadID", leadID), slog.Any("attorneyID", attorneyID))

	return &usecase.LeadInfo{
		LeadID:     updated.ID,
		ProspectID: updated.ProspectID,
		AttorneyID: updated.AttorneyID,
		State:      updated.State,
	}, nil
}

func (srv *leadService) ListPendingLeads(ctx context.Context) ([]uuid.UUID, error) {
	return listIDs(srv.leadRepo.ListIDsByState(ctx, entity.LeadStatePending))
}

func (srv *leadService) ListReachedLeads(ctx context.Context) ([]uuid.UUID, error) {
	return listIDs(srv.leadRepo.ListIDsByState(ctx, entity.LeadStateReachedOut))
}

func (srv *leadService) ListAttorneys(ctx context.Context) ([]uuid.UUID, error) {
	return listIDs(srv.attorneyRepo.ListIDs(ctx))
}

func (srv *leadService) ListProspects(ctx context.Context) ([]uuid.UUID, error) {
	return listIDs(srv.prospectRepo.ListIDs(ctx))
}

func listIDs(ids []uuid.UUID, err error) ([]uuid.UUID, error) {
	if err != nil {
		return nil, domainerrors.NewUnavailableError(err, "list ids")
	}
	if ids == nil {
		ids = []uuid.UUID{}
	}

	return ids, nil
}

// ResumeKey names the stored resume <first>_<last>_<file base name>.
func ResumeKey(firstName, lastName, fileName string) string {
	base := path.Base(strings.ReplaceAll(fileName, `\`, "/"))
	if base == "." || base == ".." || base == "/" {
		base = "resume"
	}

	return keySegment.Replace(strings.TrimSpace(firstName)) + "_" +
		keySegment.Replace(strings.TrimSpace(lastName)) + "_" + base
}

var keySegment = strings.NewReplacer("/", "-", `\`, "-", "..", "-")
