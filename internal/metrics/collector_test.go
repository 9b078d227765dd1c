package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewCollector(t *testing.T) {
	c := NewCollector("test", zap.NewNop())
	assert.NotNil(t, c.stepsTotal)
	assert.NotNil(t, c.driverErrors)

	// Separate registries: a second collector with the same namespace is fine.
	assert.NotPanics(t, func() { NewCollector("test", nil) })
}

func TestRecordStep(t *testing.T) {
	c := NewCollector("nglenv", nil)
	c.RecordStep("discrete", "increment_position_z", 2.5)
	c.RecordStep("discrete", "increment_position_z", -1)
	c.RecordStep("continuous", "json_change", 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.stepsTotal.WithLabelValues("discrete", "increment_position_z")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.stepsTotal.WithLabelValues("continuous", "json_change")))
	// Negative rewards only show up in the gauge.
	assert.Equal(t, 2.5, testutil.ToFloat64(c.rewardTotal))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.lastReward))
}

func TestRewardTotalHelp(t *testing.T) {
	c := NewCollector("nglenv", nil)
	c.RecordStep("discrete", "left_click", 1)

	expected := `
# HELP nglenv_reward_total Sum of positive step rewards
# TYPE nglenv_reward_total counter
nglenv_reward_total 1
`
	assert.NoError(t, testutil.GatherAndCompare(c.Registry(), strings.NewReader(expected), "nglenv_reward_total"))
}

func TestRecordDriverErrorAndReset(t *testing.T) {
	c := NewCollector("nglenv", nil)
	c.RecordDriverError("capture_frame", "timeout")
	c.RecordDriverError("capture_frame", "timeout")
	c.RecordReset()

	assert.Equal(t, 2.0, testutil.ToFloat64(c.driverErrors.WithLabelValues("capture_frame", "timeout")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.episodesTotal))
}

func TestRecordPlanAndHandler(t *testing.T) {
	c := NewCollector("nglenv", nil)
	c.RecordPlan("position", 4)
	assert.Equal(t, 1, testutil.CollectAndCount(c.planLength))

	srv := httptest.NewServer(c.Handler())
	defer srv.Close()
	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "nglenv_plan_tokens_count"))
}
