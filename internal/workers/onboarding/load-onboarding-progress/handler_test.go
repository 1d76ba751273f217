// internal/workers/onboarding/load-onboarding-progress/handler_test.go
package loadonboardingprogress

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"onboarding-workers/internal/common/database"
	apperrors "onboarding-workers/internal/common/errors"
	"onboarding-workers/internal/common/logger"
	"onboarding-workers/internal/common/metrics"
	"onboarding-workers/internal/completion"
	"onboarding-workers/internal/models"
	"onboarding-workers/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-redis/redismock/v9"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var updatedAt = time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)

const draftQuery = `SELECT draft_id, form_state, updated_at FROM onboarding_drafts WHERE client_id = \$1`

func draftRows(t *testing.T, state *models.FormState) *sqlmock.Rows {
	t.Helper()
	raw, err := json.Marshal(state)
	require.NoError(t, err)
	return sqlmock.NewRows([]string{"draft_id", "form_state", "updated_at"}).
		AddRow("draft-1", raw, updatedAt)
}

func expectedProgress(t *testing.T, clientID string, state *models.FormState) []byte {
	t.Helper()
	report := completion.Evaluate(state, models.DefaultStepNames)
	data, err := json.Marshal(models.OnboardingProgress{
		ClientID:          clientID,
		DraftID:           "draft-1",
		StepCompletions:   report.StepCompletions,
		OverallCompletion: report.OverallCompletion,
		IncompleteSteps:   report.IncompleteSteps,
		UpdatedAt:         updatedAt.Format(time.RFC3339),
	})
	require.NoError(t, err)
	return data
}

func TestHandler_Execute_CacheHit(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	redisClient, redisMock := redismock.NewClientMock()
	handler := NewHandler(LoadConfig(), db, redisClient, nil, logger.NewTestLogger(t))

	key := database.ProgressKey("client-001")
	redisMock.ExpectGet(key).SetVal(string(expectedProgress(t, "client-001", testutil.PartialFormState())))

	hits := promtest.ToFloat64(metrics.ProgressCacheLookups.WithLabelValues("hit"))
	output, err := handler.Execute(context.Background(), &Input{ClientID: "client-001"})

	require.NoError(t, err)
	assert.Equal(t, SourceCache, output.Source)
	assert.Equal(t, "draft-1", output.DraftID)
	assert.Equal(t, 83, output.OverallCompletion)
	assert.False(t, output.IsComplete)
	assert.Nil(t, output.FormState)
	assert.Equal(t, hits+1, promtest.ToFloat64(metrics.ProgressCacheLookups.WithLabelValues("hit")))
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestHandler_Execute_CacheMissFallsBackToDatabase(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(redismock.ClientMock, string)
		metric string
	}{
		{
			name:   "miss",
			setup:  func(m redismock.ClientMock, key string) { m.ExpectGet(key).RedisNil() },
			metric: "miss",
		},
		{
			name:   "cache error",
			setup:  func(m redismock.ClientMock, key string) { m.ExpectGet(key).SetErr(errors.New("connection refused")) },
			metric: "error",
		},
		{
			name:   "corrupt entry",
			setup:  func(m redismock.ClientMock, key string) { m.ExpectGet(key).SetVal("{not json") },
			metric: "error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			redisClient, redisMock := redismock.NewClientMock()
			handler := NewHandler(LoadConfig(), db, redisClient, nil, logger.NewTestLogger(t))

			state := testutil.PartialFormState()
			key := database.ProgressKey("client-002")
			tt.setup(redisMock, key)
			mock.ExpectQuery(draftQuery).WithArgs("client-002").WillReturnRows(draftRows(t, state))
			redisMock.ExpectSet(key, expectedProgress(t, "client-002", state), 24*time.Hour).SetVal("OK")

			before := promtest.ToFloat64(metrics.ProgressCacheLookups.WithLabelValues(tt.metric))
			output, err := handler.Execute(context.Background(), &Input{ClientID: "client-002"})

			require.NoError(t, err)
			assert.Equal(t, SourceDatabase, output.Source)
			assert.Equal(t, "draft-1", output.DraftID)
			assert.Equal(t, 83, output.OverallCompletion)
			assert.Equal(t, []string{"Trust (0%)", "Team & Story (33%)"}, output.IncompleteSteps)
			assert.Equal(t, "2024-03-01T12:30:00Z", output.UpdatedAt)
			assert.Equal(t, before+1, promtest.ToFloat64(metrics.ProgressCacheLookups.WithLabelValues(tt.metric)))
			assert.NoError(t, mock.ExpectationsWereMet())
			assert.NoError(t, redisMock.ExpectationsWereMet())
		})
	}
}

func TestHandler_Execute_IncludeFormStateSkipsCache(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	redisClient, redisMock := redismock.NewClientMock()
	handler := NewHandler(LoadConfig(), db, redisClient, nil, logger.NewTestLogger(t))

	state := testutil.CompleteFormState()
	mock.ExpectQuery(draftQuery).WithArgs("client-003").WillReturnRows(draftRows(t, state))
	redisMock.ExpectSet(database.ProgressKey("client-003"), expectedProgress(t, "client-003", state), 24*time.Hour).SetVal("OK")

	output, err := handler.Execute(context.Background(), &Input{ClientID: "client-003", IncludeFormState: true})

	require.NoError(t, err)
	assert.Equal(t, SourceDatabase, output.Source)
	assert.True(t, output.IsComplete)
	require.NotNil(t, output.FormState)
	assert.Equal(t, "Acme Plumbing", output.FormState.Field(models.FieldCompanyName))
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestHandler_Execute_DatabaseErrors(t *testing.T) {
	tests := []struct {
		name     string
		expect   func(sqlmock.Sqlmock)
		wantCode apperrors.ErrorCode
	}{
		{
			name: "no draft",
			expect: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(draftQuery).WillReturnRows(sqlmock.NewRows([]string{"draft_id", "form_state", "updated_at"}))
			},
			wantCode: apperrors.ErrCodeDraftNotFound,
		},
		{
			name: "query failure",
			expect: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(draftQuery).WillReturnError(errors.New("too many connections"))
			},
			wantCode: apperrors.ErrCodeQueryExecutionFailed,
		},
		{
			name: "corrupt stored state",
			expect: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(draftQuery).WillReturnRows(
					sqlmock.NewRows([]string{"draft_id", "form_state", "updated_at"}).
						AddRow("draft-1", []byte("[1,2"), updatedAt))
			},
			wantCode: apperrors.ErrCodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			handler := NewHandler(LoadConfig(), db, nil, nil, logger.NewTestLogger(t))
			tt.expect(mock)

			_, err = handler.Execute(context.Background(), &Input{ClientID: "client-004"})
			require.Error(t, err)
			assert.True(t, apperrors.HasCode(err, tt.wantCode))
		})
	}
}

func TestHandler_Execute_MissingClientID(t *testing.T) {
	handler := NewHandler(LoadConfig(), nil, nil, nil, logger.NewTestLogger(t))

	_, err := handler.Execute(context.Background(), &Input{})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidInput))
}
