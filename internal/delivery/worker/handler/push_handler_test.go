package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"leadintake/config"
	"leadintake/internal/domain/service"
	"leadintake/internal/errors"
	"leadintake/internal/infra/pubsub"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/idtoken"
)

type recordingMailer struct {
	events []*service.LeadAssignedEvent
	err    error
}

func (m *recordingMailer) SendLeadAssigned(_ context.Context, event *service.LeadAssignedEvent) error {
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, event)

	return nil
}

func newTestHandler(mailer service.LeadMailer, cfg *config.Config) *PushHandler {
	if cfg == nil {
		cfg = &config.Config{}
	}

	return NewPushHandler(PushHandlerParams{
		Config: cfg,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Mailer: mailer,
	})
}

func pushBody(t *testing.T, data string, attrs map[string]string) string {
	t.Helper()

	var msg pubsub.PushMessage
	msg.Message.Data = data
	msg.Message.MessageID = "m-1"
	msg.Message.Attributes = attrs
	body, err := json.Marshal(msg)
	require.NoError(t, err)

	return string(body)
}

func encodedEvent(t *testing.T, event *service.LeadAssignedEvent) string {
	t.Helper()

	raw, err := json.Marshal(event)
	require.NoError(t, err)

	return base64.StdEncoding.EncodeToString(raw)
}

func push(h *PushHandler, body string, header ...string) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/push", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	_ = h.HandlePush(e.NewContext(req, rec))

	return rec
}

func TestHandlePush_SendsMail(t *testing.T) {
	mailer := &recordingMailer{}
	h := newTestHandler(mailer, nil)

	event := &service.LeadAssignedEvent{
		LeadID:        "lead-1",
		State:         "PENDING",
		AttorneyEmail: "att@x.com",
		ProspectEmail: "pro@x.com",
	}
	rec := push(h, pushBody(t, encodedEvent(t, event), map[string]string{"request_id": "req-9"}))

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, mailer.events, 1)
	assert.Equal(t, "lead-1", mailer.events[0].LeadID)
	assert.Equal(t, "pro@x.com", mailer.events[0].ProspectEmail)
}

func TestHandlePush_MailFailureAsksForRedelivery(t *testing.T) {
	h := newTestHandler(&recordingMailer{err: errors.New("421 try again later")}, nil)

	rec := push(h, pushBody(t, encodedEvent(t, &service.LeadAssignedEvent{LeadID: "lead-1"}), nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandlePush_MalformedMessagesAreAcked(t *testing.T) {
	tests := []struct {
		name string
		body func(t *testing.T) string
	}{
		{"not json", func(*testing.T) string { return "{" }},
		{"bad base64", func(t *testing.T) string { return pushBody(t, "!!!", nil) }},
		{"not an event", func(t *testing.T) string {
			return pushBody(t, base64.StdEncoding.EncodeToString([]byte("[]")), nil)
		}},
		{"missing lead id", func(t *testing.T) string {
			return pushBody(t, encodedEvent(t, &service.LeadAssignedEvent{}), nil)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mailer := &recordingMailer{}
			h := newTestHandler(mailer, nil)

			rec := push(h, tt.body(t))

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Empty(t, mailer.events)
		})
	}
}

func TestHandlePush_VerifiesGoogleToken(t *testing.T) {
	cfg := &config.Config{
		Worker: &config.WorkerConfig{VerifyPushAuth: true},
		PubSub: &config.PubSubConfig{Provider: config.PubSubProviderGoogle},
	}
	mailer := &recordingMailer{}
	h := newTestHandler(mailer, cfg)
	require.True(t, h.verifyPushAuth)

	var audience string
	h.validate = func(_ context.Context, token, aud string) (*idtoken.Payload, error) {
		audience = aud
		if token != "good" {
			return nil, errors.New("signature mismatch")
		}

		return &idtoken.Payload{Issuer: "https://accounts.google.com", Claims: map[string]any{"email_verified": true}}, nil
	}
	body := pushBody(t, encodedEvent(t, &service.LeadAssignedEvent{LeadID: "lead-1"}), nil)

	rec := push(h, body)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = push(h, body, echo.HeaderAuthorization, "Bearer bad")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = push(h, body, echo.HeaderAuthorization, "Bearer good")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://example.com/push", audience)
	assert.Len(t, mailer.events, 1)
}

func TestNewPushHandler_VerificationOnlyForGoogle(t *testing.T) {
	cfg := &config.Config{
		Worker: &config.WorkerConfig{VerifyPushAuth: true},
		PubSub: &config.PubSubConfig{Provider: config.PubSubProviderLocal},
	}

	assert.False(t, newTestHandler(&recordingMailer{}, cfg).verifyPushAuth)
}
