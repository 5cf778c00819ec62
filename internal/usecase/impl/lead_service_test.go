package impl

import (
	"context"
	"strings"
	"testing"

	deliverycontext "leadintake/internal/delivery/context"
	"leadintake/internal/domain/entity"
	domainerrors "leadintake/internal/domain/errors"
	"leadintake/internal/errors"
	"leadintake/internal/infra/metrics"
	"leadintake/internal/usecase"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type leadFixture struct {
	service   usecase.LeadUsecase
	attorneys *fakeAttorneyRepo
	prospects *fakeProspectRepo
	leads     *fakeLeadRepo
	storage   *fakeResumeStorage
	publisher *fakePublisher
	metrics   *metrics.Metrics
}

func newLeadFixture(t *testing.T) *leadFixture {
	t.Helper()

	f := &leadFixture{
		attorneys: newFakeAttorneyRepo(),
		prospects: newFakeProspectRepo(),
		leads:     newFakeLeadRepo(),
		storage:   newFakeResumeStorage(),
		publisher: &fakePublisher{},
		metrics:   metrics.NewNop(),
	}
	txManager := &fakeTxManager{factory: &fakeRepoFactory{
		attorneys: f.attorneys,
		prospects: f.prospects,
		leads:     f.leads,
	}}

	f.service = NewLeadService(LeadServiceParams{
		TxManager:    txManager,
		AttorneyRepo: f.attorneys,
		ProspectRepo: f.prospects,
		LeadRepo:     f.leads,
		Storage:      f.storage,
		Publisher:    f.publisher,
		Metrics:      f.metrics,
		Logger:       newDiscardLogger(),
	})

	return f
}

func (f *leadFixture) seedAttorney(name, email string) *entity.Attorney {
	attorney := &entity.Attorney{ID: uuid.New(), Name: name, Email: email, HashedPassword: "x"}
	f.attorneys.byEmail[email] = attorney

	return attorney
}

func fileInput(email, body string) *usecase.FileLeadInput {
	return &usecase.FileLeadInput{
		FirstName:   "Jane",
		LastName:    "Doe",
		Email:       email,
		FileName:    "cv.pdf",
		ContentType: "application/pdf",
		Content:     strings.NewReader(body),
	}
}

func TestFileLead_CreatesPendingLeadAndAnnounces(t *testing.T) {
	f := newLeadFixture(t)
	attorney := f.seedAttorney("Saul", "saul@x.com")
	ctx := deliverycontext.WithRequestID(context.Background(), "req-1")

	out, err := f.service.FileLead(ctx, fileInput("Jane@X.com", "resume-v1"))
	require.NoError(t, err)

	assert.Equal(t, attorney.ID, out.AttorneyID)
	assert.Equal(t, "jane@x.com", out.Email)

	lead, err := f.leads.FindByID(ctx, out.LeadID)
	require.NoError(t, err)
	assert.Equal(t, entity.LeadStatePending, lead.State)
	assert.Equal(t, out.ProspectID, lead.ProspectID)

	assert.Equal(t, []byte("resume-v1"), f.storage.objects["Jane_Doe_cv.pdf"])

	require.Len(t, f.publisher.events, 1)
	event := f.publisher.events[0]
	assert.Equal(t, "req-1", event.RequestID)
	assert.Equal(t, out.LeadID.String(), event.LeadID)
	assert.Equal(t, "saul@x.com", event.AttorneyEmail)
	assert.Equal(t, "jane@x.com", event.ProspectEmail)
	assert.Equal(t, "Jane Doe", event.ProspectName)
	assert.Equal(t, "PENDING", event.State)
}

func TestFileLead_ExistingProspectIsReused(t *testing.T) {
	f := newLeadFixture(t)
	f.seedAttorney("Saul", "saul@x.com")
	ctx := context.Background()

	first, err := f.service.FileLead(ctx, fileInput("jane@x.com", "v1"))
	require.NoError(t, err)

	second, err := f.service.FileLead(ctx, fileInput("jane@x.com", "v2"))
	require.NoError(t, err)

	assert.Equal(t, first.ProspectID, second.ProspectID)
	assert.NotEqual(t, first.LeadID, second.LeadID)
	assert.Equal(t, []byte("v2"), f.storage.objects["Jane_Doe_cv.pdf"])

	ids, err := f.service.ListProspects(ctx)
	require.NoError(t, err)
	assert.Len(t, ids, 1)
}

func TestFileLead_NoAttorney(t *testing.T) {
	f := newLeadFixture(t)

	_, err := f.service.FileLead(context.Background(), fileInput("jane@x.com", "v1"))
	assert.ErrorIs(t, err, domainerrors.ErrNoEligibleAttorney)
	assert.Empty(t, f.storage.objects)
	assert.Empty(t, f.publisher.events)
	assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.LeadsFiled.WithLabelValues(metrics.OutcomeRejected)), 0)
}

func TestFileLead_StorageFault(t *testing.T) {
	f := newLeadFixture(t)
	f.seedAttorney("Saul", "saul@x.com")
	f.storage.saveErr = errors.New("bucket unavailable")

	_, err := f.service.FileLead(context.Background(), fileInput("jane@x.com", "v1"))
	assert.ErrorIs(t, err, domainerrors.ErrUnavailable)
	assert.Empty(t, f.leads.leads)
}

func TestFileLead_PublishFailureDoesNotFailRequest(t *testing.T) {
	f := newLeadFixture(t)
	f.seedAttorney("Saul", "saul@x.com")
	f.publisher.publishErr = errors.New("topic not found")

	out, err := f.service.FileLead(context.Background(), fileInput("jane@x.com", "v1"))
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, out.LeadID)
	assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.PublishErrors), 0)
}

func TestUpdateLead(t *testing.T) {
	f := newLeadFixture(t)
	attorney := f.seedAttorney("Saul", "saul@x.com")
	ctx := context.Background()

	filed, err := f.service.FileLead(ctx, fileInput("jane@x.com", "v1"))
	require.NoError(t, err)

	info, err := f.service.UpdateLead(ctx, attorney.ID, filed.LeadID)
	require.NoError(t, err)
	assert.Equal(t, entity.LeadStateReachedOut, info.State)
	assert.Equal(t, filed.ProspectID, info.ProspectID)

	pending, err := f.service.ListPendingLeads(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
	assert.NotNil(t, pending)

	reached, err := f.service.ListReachedLeads(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{filed.LeadID}, reached)

	_, err = f.service.UpdateLead(ctx, attorney.ID, uuid.New())
	assert.ErrorIs(t, err, domainerrors.ErrLeadNotFound)
}

func TestListAttorneys(t *testing.T) {
	f := newLeadFixture(t)
	a := f.seedAttorney("Saul", "saul@x.com")

	ids, err := f.service.ListAttorneys(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{a.ID}, ids)
}

func TestResumeKey(t *testing.T) {
	tests := []struct {
		first, last, file string
		want              string
	}{
		{"Jane", "Doe", "cv.pdf", "Jane_Doe_cv.pdf"},
		{"Jane", "Doe", `C:\Users\jane\cv.pdf`, "Jane_Doe_cv.pdf"},
		{"Jane", "Doe", "../../etc/passwd", "Jane_Doe_passwd"},
		{"Ja/ne", "D..oe", "", "Ja-ne_D-oe_resume"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ResumeKey(tt.first, tt.last, tt.file))
	}
}
