// internal/common/metrics/metrics_test.go
package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveCompletion(t *testing.T) {
	before := testutil.ToFloat64(IncompleteSteps.WithLabelValues("Trust"))
	beforeTeam := testutil.ToFloat64(IncompleteSteps.WithLabelValues("Team & Story"))

	ObserveCompletion(83, []string{"Trust", "Team & Story"})
	ObserveCompletion(90, []string{"Trust"})

	assert.Equal(t, before+2, testutil.ToFloat64(IncompleteSteps.WithLabelValues("Trust")))
	assert.Equal(t, beforeTeam+1, testutil.ToFloat64(IncompleteSteps.WithLabelValues("Team & Story")))
	assert.GreaterOrEqual(t, testutil.CollectAndCount(OverallCompletion), 1)
}

func TestWorkerCounters(t *testing.T) {
	WorkerJobsFailed.WithLabelValues("save-onboarding-draft", "DRAFT_SAVE_FAILED").Inc()
	assert.GreaterOrEqual(t, testutil.ToFloat64(WorkerJobsFailed.WithLabelValues("save-onboarding-draft", "DRAFT_SAVE_FAILED")), 1.0)

	WorkerJobsActive.WithLabelValues("calculate-form-completion").Inc()
	WorkerJobsActive.WithLabelValues("calculate-form-completion").Dec()
	assert.Equal(t, 0.0, testutil.ToFloat64(WorkerJobsActive.WithLabelValues("calculate-form-completion")))
}
