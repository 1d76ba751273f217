// internal/workers/onboarding/calculate-form-completion/handler_test.go
package calculateformcompletion

import (
	"context"
	"testing"

	apperrors "onboarding-workers/internal/common/errors"
	"onboarding-workers/internal/common/logger"
	"onboarding-workers/internal/completion"
	"onboarding-workers/internal/models"
	"onboarding-workers/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return LoadConfig()
}

type testLogger struct {
	t *testing.T
}

func (tl *testLogger) Debug(msg string, fields map[string]interface{}) {
	tl.t.Logf("DEBUG: %s %v", msg, fields)
}

func (tl *testLogger) Info(msg string, fields map[string]interface{}) {
	tl.t.Logf("INFO: %s %v", msg, fields)
}

func (tl *testLogger) Warn(msg string, fields map[string]interface{}) {
	tl.t.Logf("WARN: %s %v", msg, fields)
}

func (tl *testLogger) Error(msg string, fields map[string]interface{}) {
	tl.t.Logf("ERROR: %s %v", msg, fields)
}

func (tl *testLogger) WithFields(fields map[string]interface{}) logger.Logger {
	return tl
}

func (tl *testLogger) WithError(err error) logger.Logger {
	return tl.WithFields(map[string]interface{}{"error": err})
}

func (tl *testLogger) With(fields map[string]interface{}) logger.Logger {
	return tl
}

func newTestLogger(t *testing.T) logger.Logger {
	return &testLogger{t: t}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_CompleteForm(t *testing.T) {
	handler := NewHandler(createTestConfig(), nil, newTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{
		ClientID:  "client-001",
		FormState: testutil.CompleteFormState(),
	})

	require.NoError(t, err)
	assert.Equal(t, []int{100, 100, 100, 100, 100, 100, 100, 100, 100, 100}, output.StepCompletions)
	assert.Equal(t, 100, output.OverallCompletion)
	assert.Empty(t, output.IncompleteSteps)
	assert.NotNil(t, output.IncompleteSteps)
	assert.True(t, output.IsComplete)
	assert.NotEmpty(t, output.EvaluatedAt)
}

func TestHandler_Execute_PartialForm(t *testing.T) {
	handler := NewHandler(createTestConfig(), nil, newTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{
		ClientID:  "client-002",
		FormState: testutil.PartialFormState(),
	})

	require.NoError(t, err)
	assert.Equal(t, 83, output.OverallCompletion)
	assert.Equal(t, []string{"Trust (0%)", "Team & Story (33%)"}, output.IncompleteSteps)
	assert.False(t, output.IsComplete)
}

func TestHandler_Execute_EmptyForm(t *testing.T) {
	handler := NewHandler(createTestConfig(), nil, newTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{FormState: models.NewFormState()})

	require.NoError(t, err)
	assert.Equal(t, []int{0, 0, 0, 0, 0, 0, 100, 100, 0, 100}, output.StepCompletions)
	assert.Equal(t, 30, output.OverallCompletion)
	assert.Len(t, output.IncompleteSteps, 7)
}

func TestHandler_Execute_CustomStepNames(t *testing.T) {
	config := &Config{StepNames: []string{"A", "B", "C", "D", "Quality"}}
	handler := NewHandler(config, nil, newTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{FormState: testutil.PartialFormState()})

	require.NoError(t, err)
	assert.Equal(t, []string{"Quality (0%)", "Step 6 (33%)"}, output.IncompleteSteps)
}

// ==========================
// Memo Tests
// ==========================

func TestHandler_Execute_UsesMemo(t *testing.T) {
	memo, err := completion.NewMemo(16)
	require.NoError(t, err)
	handler := NewHandler(createTestConfig(), memo, newTestLogger(t))

	first, err := handler.Execute(context.Background(), &Input{FormState: testutil.PartialFormState()})
	require.NoError(t, err)
	second, err := handler.Execute(context.Background(), &Input{FormState: testutil.PartialFormState()})
	require.NoError(t, err)

	assert.Equal(t, 1, memo.Len())
	assert.Equal(t, first.StepCompletions, second.StepCompletions)
	assert.Equal(t, first.IncompleteSteps, second.IncompleteSteps)
}

// ==========================
// Error Handling Tests
// ==========================

func TestHandler_Execute_MissingFormState(t *testing.T) {
	handler := NewHandler(createTestConfig(), nil, newTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{ClientID: "client-003"})

	assert.Nil(t, output)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidInput))
}

func TestHandler_Execute_ContextCancelled(t *testing.T) {
	handler := NewHandler(createTestConfig(), nil, newTestLogger(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := handler.Execute(ctx, &Input{FormState: testutil.CompleteFormState()})

	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeJobTimeout))
}

func TestNewHandler_Defaults(t *testing.T) {
	handler := NewHandler(&Config{}, nil, logger.NewNoOpLogger())
	assert.Equal(t, models.DefaultStepNames, handler.config.StepNames)
	assert.Equal(t, LoadConfig().Timeout, handler.config.Timeout)
}
