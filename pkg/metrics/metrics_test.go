package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveRun(t *testing.T) {
	before := testutil.ToFloat64(workflowRuns.WithLabelValues("staging", "Succeeded"))
	ObserveRun("staging", "Succeeded")
	assert.Equal(t, before+1, testutil.ToFloat64(workflowRuns.WithLabelValues("staging", "Succeeded")))
}

func TestObserveCleanup(t *testing.T) {
	before := testutil.ToFloat64(cleanups.WithLabelValues("mismatch"))
	ObserveCleanup("mismatch")
	ObserveCleanup("mismatch")
	assert.Equal(t, before+2, testutil.ToFloat64(cleanups.WithLabelValues("mismatch")))
}

func TestObserveStep(t *testing.T) {
	ObserveStep("pipeline", time.Now().Add(-3*time.Second))
	assert.Equal(t, 1, testutil.CollectAndCount(stepDuration, "release_workflow_step_duration_seconds"))
}
