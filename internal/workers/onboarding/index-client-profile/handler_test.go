// internal/workers/onboarding/index-client-profile/handler_test.go
package indexclientprofile

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	apperrors "onboarding-workers/internal/common/errors"
	"onboarding-workers/internal/common/logger"
	"onboarding-workers/internal/models"
	"onboarding-workers/internal/testutil"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeES struct {
	mu     sync.Mutex
	status int
	path   string
	query  string
	doc    ClientProfile
}

func (f *fakeES) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")
	if r.Method != http.MethodPut && r.Method != http.MethodPost {
		_, _ = w.Write([]byte(`{"version":{"number":"8.11.0"}}`))
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.path = r.URL.Path
	f.query = r.URL.RawQuery
	raw, _ := io.ReadAll(r.Body)
	_ = json.Unmarshal(raw, &f.doc)

	if f.status >= 400 {
		w.WriteHeader(f.status)
		_, _ = w.Write([]byte(`{"error":{"type":"mapper_parsing_exception","reason":"failed to parse"},"status":400}`))
		return
	}
	w.WriteHeader(http.StatusCreated)
	_, _ = w.Write([]byte(`{"_index":"client-profiles","_id":"client-001","_version":1,"result":"created"}`))
}

func newTestHandler(t *testing.T, fake *fakeES, config *Config) *Handler {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return NewHandler(config, client, logger.NewTestLogger(t))
}

func TestHandler_Execute_IndexesProfile(t *testing.T) {
	fake := &fakeES{}
	handler := newTestHandler(t, fake, LoadConfig())

	output, err := handler.Execute(context.Background(), &Input{
		ClientID:         "client-001",
		SubmissionID:     "sub-1",
		SubmissionStatus: models.SubmissionStatusIncomplete,
		SubmittedAt:      "2024-03-01T12:00:00Z",
		FormState:        testutil.PartialFormState(),
	})

	require.NoError(t, err)
	assert.Equal(t, "client-profiles", output.Index)
	assert.Equal(t, "client-001", output.DocumentID)
	assert.Equal(t, "created", output.Result)
	assert.Equal(t, int64(1), output.Version)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Equal(t, "/client-profiles/_doc/client-001", fake.path)
	assert.Equal(t, "Acme Plumbing", fake.doc.CompanyName)
	assert.Equal(t, []string{"Drain cleaning"}, fake.doc.Services)
	assert.Equal(t, 83, fake.doc.OverallCompletion)
	assert.Equal(t, []string{"Trust (0%)", "Team & Story (33%)"}, fake.doc.IncompleteSteps)
	assert.Equal(t, models.SubmissionStatusIncomplete, fake.doc.Status)
	assert.Equal(t, "2024-03-01T12:00:00Z", fake.doc.SubmittedAt)
}

func TestHandler_Execute_RefreshOption(t *testing.T) {
	fake := &fakeES{}
	config := LoadConfig()
	config.Refresh = "wait_for"
	handler := newTestHandler(t, fake, config)

	_, err := handler.Execute(context.Background(), &Input{ClientID: "client-001", FormState: testutil.CompleteFormState()})
	require.NoError(t, err)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Contains(t, fake.query, "refresh=wait_for")
}

func TestHandler_Execute_IndexRejected(t *testing.T) {
	fake := &fakeES{status: http.StatusBadRequest}
	handler := newTestHandler(t, fake, LoadConfig())

	_, err := handler.Execute(context.Background(), &Input{ClientID: "client-002", FormState: testutil.CompleteFormState()})

	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeIndexFailed))
}

func TestHandler_Execute_InvalidInput(t *testing.T) {
	handler := newTestHandler(t, &fakeES{}, LoadConfig())

	_, err := handler.Execute(context.Background(), &Input{FormState: models.NewFormState()})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidInput))

	_, err = handler.Execute(context.Background(), &Input{ClientID: "client-003"})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidInput))
}

func TestBuildProfile_SkipsBlankServices(t *testing.T) {
	state := testutil.CompleteFormState()
	state.Services = []models.Service{{Name: "  "}, {Name: " Water heaters "}}

	doc := BuildProfile(&Input{ClientID: "client-004", FormState: state}, models.DefaultStepNames)

	assert.Equal(t, []string{"Water heaters"}, doc.Services)
	assert.NotEmpty(t, doc.SubmittedAt)
	assert.Equal(t, "office@acme.com", doc.BusinessEmail)
}
