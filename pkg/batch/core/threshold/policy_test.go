package threshold_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/threshold"
)

func TestExceeded_ZeroToleranceFailsOnFirstError(t *testing.T) {
	policy := threshold.NewPolicy(0)

	assert.False(t, policy.Exceeded(0, 100))
	assert.True(t, policy.Exceeded(1, 100))
	assert.True(t, policy.Exceeded(2, 2))
}

func TestExceeded_ShareAtThresholdIsTolerated(t *testing.T) {
	policy := threshold.NewPolicy(10)

	assert.False(t, policy.Exceeded(10, 100), "exactly 10% is tolerated")
	assert.True(t, policy.Exceeded(11, 100))
	assert.False(t, policy.Exceeded(1, 10), "exactly 10% is tolerated")
	assert.True(t, policy.Exceeded(2, 10))
}

func TestExceeded_NoRecordsNeverExceeds(t *testing.T) {
	assert.False(t, threshold.NewPolicy(0).Exceeded(0, 0))
	assert.False(t, threshold.NewPolicy(50).Exceeded(0, 0))
}

func TestExceeded_FullToleranceNeverExceeds(t *testing.T) {
	policy := threshold.NewPolicy(100)

	assert.False(t, policy.Exceeded(5, 5))
	assert.False(t, policy.Exceeded(99, 100))
}

func TestExceeded_AvoidsRoundingArtifacts(t *testing.T) {
	policy := threshold.NewPolicy(33)

	assert.False(t, policy.Exceeded(33, 100))
	assert.True(t, policy.Exceeded(1, 3), "1/3 is 33.33%, strictly above 33%")
}

func TestFailureRatePercent(t *testing.T) {
	assert.Equal(t, 0.0, threshold.FailureRatePercent(0, 0))
	assert.Equal(t, 50.0, threshold.FailureRatePercent(1, 2))
	assert.InDelta(t, 33.33, threshold.FailureRatePercent(1, 3), 0.01)
}
