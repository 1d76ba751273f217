// internal/workers/onboarding/create-crm-lead/handler_test.go
package createcrmlead

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	apperrors "onboarding-workers/internal/common/errors"
	httpclient "onboarding-workers/internal/common/http"
	"onboarding-workers/internal/common/logger"
	"onboarding-workers/internal/common/zoho"
	"onboarding-workers/internal/models"
	"onboarding-workers/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockLeads struct{ mock.Mock }

func (m *mockLeads) CreateLead(ctx context.Context, lead *zoho.Lead) (string, error) {
	args := m.Called(ctx, lead)
	return args.String(0), args.Error(1)
}

func (m *mockLeads) SearchLeadsByEmail(ctx context.Context, email string) ([]zoho.Lead, error) {
	args := m.Called(ctx, email)
	leads, _ := args.Get(0).([]zoho.Lead)
	return leads, args.Error(1)
}

// fakeZoho answers lead search with existing (if any) and records created leads.
func fakeZoho(t *testing.T, existing string, created *int32, lastLead *zoho.Lead) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/Leads/search":
			if existing == "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			_, _ = fmt.Fprintf(w, `{"data":[{"id":%q,"Company":"Acme Plumbing","Last_Name":"Acme Plumbing"}]}`, existing)
		case r.Method == http.MethodPost && r.URL.Path == "/Leads":
			atomic.AddInt32(created, 1)
			var body struct {
				Data []zoho.Lead `json:"data"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			*lastLead = body.Data[0]
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"data":[{"code":"SUCCESS","details":{"id":"lead-77"},"message":"record added","status":"success"}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestHandler_Execute_CreatesLead(t *testing.T) {
	var created int32
	var lead zoho.Lead
	srv := fakeZoho(t, "", &created, &lead)

	crm := zoho.NewCRMClient(srv.URL, "", "tok", 2*time.Second)
	handler := NewHandler(LoadConfig(), crm, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{
		ClientID:     "client-001",
		SubmissionID: "sub-1",
		FormState:    testutil.PartialFormState(),
	})

	require.NoError(t, err)
	assert.Equal(t, "lead-77", output.LeadID)
	assert.True(t, output.Created)
	assert.Equal(t, int32(1), atomic.LoadInt32(&created))

	assert.Equal(t, "Acme Plumbing", lead.Company)
	assert.Equal(t, "office@acme.com", lead.Email)
	assert.Equal(t, "https://acme.com", lead.Website)
	assert.Equal(t, "60601", lead.ZipCode)
	assert.Equal(t, "Onboarding Wizard", lead.Source)
	assert.True(t, strings.HasPrefix(lead.Description, "Onboarding 83% complete."))
	assert.Contains(t, lead.Description, "Submission: sub-1.")
}

func TestHandler_Execute_MatchesExistingLead(t *testing.T) {
	var created int32
	var lead zoho.Lead
	srv := fakeZoho(t, "lead-existing", &created, &lead)

	crm := zoho.NewCRMClient(srv.URL, "", "tok", 2*time.Second)
	handler := NewHandler(LoadConfig(), crm, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{ClientID: "client-002", FormState: testutil.CompleteFormState()})

	require.NoError(t, err)
	assert.Equal(t, "lead-existing", output.LeadID)
	assert.False(t, output.Created)
	assert.Equal(t, int32(0), atomic.LoadInt32(&created))
}

func TestHandler_Execute_NoEmailSkipsSearch(t *testing.T) {
	crm := &mockLeads{}
	crm.On("CreateLead", mock.Anything, mock.Anything).Return("lead-1", nil)

	state := testutil.CompleteFormState()
	delete(state.Fields, models.FieldBusinessEmail)

	handler := NewHandler(LoadConfig(), crm, logger.NewTestLogger(t))
	output, err := handler.Execute(context.Background(), &Input{ClientID: "client-003", FormState: state})

	require.NoError(t, err)
	assert.True(t, output.Created)
	crm.AssertNotCalled(t, "SearchLeadsByEmail", mock.Anything, mock.Anything)
}

func TestHandler_Execute_ErrorMapping(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		wantCode      apperrors.ErrorCode
		wantRetryable bool
	}{
		{"deadline", fmt.Errorf("failed to create lead: %w", context.DeadlineExceeded), apperrors.ErrCodeCRMTimeout, true},
		{"server error", &httpclient.StatusError{StatusCode: 502, Body: "bad gateway"}, apperrors.ErrCodeCRMSyncFailed, true},
		{"rate limited", &httpclient.StatusError{StatusCode: 429}, apperrors.ErrCodeCRMSyncFailed, true},
		{"rejected", fmt.Errorf("failed to create lead: %w", &httpclient.StatusError{StatusCode: 400, Body: "INVALID_DATA"}), apperrors.ErrCodeInvalidInput, false},
		{"other", errors.New("lead creation failed: DUPLICATE_DATA"), apperrors.ErrCodeCRMSyncFailed, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			crm := &mockLeads{}
			crm.On("SearchLeadsByEmail", mock.Anything, "office@acme.com").Return([]zoho.Lead{}, nil)
			crm.On("CreateLead", mock.Anything, mock.Anything).Return("", tt.err)

			handler := NewHandler(LoadConfig(), crm, logger.NewTestLogger(t))
			_, err := handler.Execute(context.Background(), &Input{ClientID: "client-004", FormState: testutil.CompleteFormState()})

			require.Error(t, err)
			stdErr, ok := apperrors.AsStandardError(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantCode, stdErr.Code)
			assert.Equal(t, tt.wantRetryable, stdErr.Retryable)
		})
	}
}

func TestHandler_Execute_InvalidInput(t *testing.T) {
	handler := NewHandler(LoadConfig(), &mockLeads{}, logger.NewTestLogger(t))

	tests := []struct {
		name  string
		input *Input
	}{
		{"missing client", &Input{FormState: testutil.CompleteFormState()}},
		{"missing state", &Input{ClientID: "client-005"}},
		{"no company", &Input{ClientID: "client-005", FormState: models.NewFormState()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := handler.Execute(context.Background(), tt.input)
			assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidInput))
		})
	}
}

func TestWebsite(t *testing.T) {
	assert.Equal(t, "", website("  "))
	assert.Equal(t, "https://acme.com", website("acme.com"))
	assert.Equal(t, "http://acme.com", website("http://acme.com"))
}

func TestBuildLead_City(t *testing.T) {
	handler := NewHandler(LoadConfig(), &mockLeads{}, logger.NewTestLogger(t))

	hidden := testutil.CompleteFormState()
	hidden.Answers[models.QuestionShowAddress] = models.AnswerNo
	delete(hidden.Fields, models.FieldCity)
	hidden.Fields[models.FieldMainCity] = "Evanston"

	street := testutil.CompleteFormState()
	street.Fields[models.FieldMainCity] = "Evanston"

	tests := []struct {
		name  string
		state *models.FormState
		want  string
	}{
		{"address hidden uses main city", hidden, "Evanston"},
		{"street city wins", street, "Chicago"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lead := handler.BuildLead(&Input{ClientID: "client-006", FormState: tt.state})
			assert.Equal(t, tt.want, lead.City)
		})
	}
}
