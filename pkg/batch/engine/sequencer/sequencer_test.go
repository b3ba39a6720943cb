package sequencer_test

import (
	"errors"
	"testing"

	model "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/domain/model"
	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/engine/sequencer"
	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/support/util/exception"

	"github.com/stretchr/testify/assert"
)

// waveCodes flattens a wave schedule into code slices for easy comparison.
func waveCodes(waves []model.ExecutionWave) [][]string {
	out := make([][]string, len(waves))
	for i, w := range waves {
		codes := make([]string, len(w.Types))
		for j, t := range w.Types {
			codes[j] = t.Code
		}
		out[i] = codes
	}
	return out
}

func TestBuildWaves_LinearDependencyChain(t *testing.T) {
	s := sequencer.NewDefaultTransactionSequencer()

	// C depends on B, B depends on A: three single-type waves.
	types := []model.TransactionType{
		{Code: "C", ProcessingOrder: 3, DependsOn: []string{"B"}},
		{Code: "B", ProcessingOrder: 2, DependsOn: []string{"A"}},
		{Code: "A", ProcessingOrder: 1},
	}

	waves, err := s.BuildWaves(types)
	assert.NoError(t, err)
	assert.Equal(t, [][]string{{"A"}, {"B"}, {"C"}}, waveCodes(waves))
	assert.Equal(t, 0, waves[0].Index)
	assert.Equal(t, 2, waves[2].Index)
}

func TestBuildWaves_IndependentTypesShareWave(t *testing.T) {
	s := sequencer.NewDefaultTransactionSequencer()

	types := []model.TransactionType{
		{Code: "300", ProcessingOrder: 2},
		{Code: "200", ProcessingOrder: 1},
		{Code: "100", ProcessingOrder: 1},
	}

	waves, err := s.BuildWaves(types)
	assert.NoError(t, err)
	assert.Len(t, waves, 1)
	// Order hint ascending, code ascending as tie-break.
	assert.Equal(t, []string{"100", "200", "300"}, waveCodes(waves)[0])
}

func TestBuildWaves_TieBreakByCodeWithinSameOrder(t *testing.T) {
	s := sequencer.NewDefaultTransactionSequencer()

	types := []model.TransactionType{
		{Code: "ZETA", ProcessingOrder: 5},
		{Code: "ALPHA", ProcessingOrder: 5},
		{Code: "MID", ProcessingOrder: 5},
	}

	waves, err := s.BuildWaves(types)
	assert.NoError(t, err)
	assert.Equal(t, []string{"ALPHA", "MID", "ZETA"}, waveCodes(waves)[0])
}

func TestBuildWaves_DependencyEdgeDominatesOrderHint(t *testing.T) {
	s := sequencer.NewDefaultTransactionSequencer()

	// B carries the smaller order hint but depends on A, so A must still run first.
	types := []model.TransactionType{
		{Code: "A", ProcessingOrder: 9},
		{Code: "B", ProcessingOrder: 1, DependsOn: []string{"A"}},
	}

	waves, err := s.BuildWaves(types)
	assert.NoError(t, err)
	assert.Equal(t, [][]string{{"A"}, {"B"}}, waveCodes(waves))
}

func TestBuildWaves_DiamondDependency(t *testing.T) {
	s := sequencer.NewDefaultTransactionSequencer()

	types := []model.TransactionType{
		{Code: "D", ProcessingOrder: 4, DependsOn: []string{"B", "C"}},
		{Code: "C", ProcessingOrder: 3, DependsOn: []string{"A"}},
		{Code: "B", ProcessingOrder: 2, DependsOn: []string{"A"}},
		{Code: "A", ProcessingOrder: 1},
	}

	waves, err := s.BuildWaves(types)
	assert.NoError(t, err)
	assert.Equal(t, [][]string{{"A"}, {"B", "C"}, {"D"}}, waveCodes(waves))
}

func TestBuildWaves_EmptyInputYieldsEmptySchedule(t *testing.T) {
	s := sequencer.NewDefaultTransactionSequencer()

	waves, err := s.BuildWaves(nil)
	assert.NoError(t, err)
	assert.NotNil(t, waves)
	assert.Empty(t, waves)
}

func TestBuildWaves_CycleDetected(t *testing.T) {
	s := sequencer.NewDefaultTransactionSequencer()

	types := []model.TransactionType{
		{Code: "A", DependsOn: []string{"C"}},
		{Code: "B", DependsOn: []string{"A"}},
		{Code: "C", DependsOn: []string{"B"}},
	}

	waves, err := s.BuildWaves(types)
	assert.Nil(t, waves)
	assert.Error(t, err)
	assert.True(t, errors.Is(err, exception.ErrCycleDetected))
	assert.True(t, exception.IsConfigurationError(err))

	members := exception.CycleMembers(err)
	assert.ElementsMatch(t, []string{"A", "B", "C"}, members)
	// The member list always starts at the smallest code.
	assert.Equal(t, "A", members[0])
}

func TestBuildWaves_SelfDependencyIsACycle(t *testing.T) {
	s := sequencer.NewDefaultTransactionSequencer()

	types := []model.TransactionType{
		{Code: "LOOP", DependsOn: []string{"LOOP"}},
	}

	_, err := s.BuildWaves(types)
	assert.Error(t, err)
	assert.True(t, errors.Is(err, exception.ErrCycleDetected))
	assert.Equal(t, []string{"LOOP"}, exception.CycleMembers(err))
}

func TestBuildWaves_CycleBehindValidPrefix(t *testing.T) {
	s := sequencer.NewDefaultTransactionSequencer()

	// A is schedulable; the cycle between B and C surfaces after the first wave.
	types := []model.TransactionType{
		{Code: "A"},
		{Code: "B", DependsOn: []string{"A", "C"}},
		{Code: "C", DependsOn: []string{"B"}},
	}

	_, err := s.BuildWaves(types)
	assert.Error(t, err)
	assert.ElementsMatch(t, []string{"B", "C"}, exception.CycleMembers(err))
}

func TestBuildWaves_UnknownDependencyReference(t *testing.T) {
	s := sequencer.NewDefaultTransactionSequencer()

	types := []model.TransactionType{
		{Code: "A", DependsOn: []string{"GHOST"}},
	}

	_, err := s.BuildWaves(types)
	assert.Error(t, err)
	assert.True(t, exception.IsConfigurationError(err))
	assert.Contains(t, err.Error(), "GHOST")
}

func TestBuildWaves_DuplicateCodeRejected(t *testing.T) {
	s := sequencer.NewDefaultTransactionSequencer()

	types := []model.TransactionType{
		{Code: "A"},
		{Code: "A"},
	}

	_, err := s.BuildWaves(types)
	assert.Error(t, err)
	assert.True(t, exception.IsConfigurationError(err))
}

func TestBuildWaves_ScheduleIsDeterministic(t *testing.T) {
	s := sequencer.NewDefaultTransactionSequencer()

	types := []model.TransactionType{
		{Code: "E", ProcessingOrder: 1, DependsOn: []string{"B"}},
		{Code: "D", ProcessingOrder: 1, DependsOn: []string{"B"}},
		{Code: "B", ProcessingOrder: 2},
		{Code: "A", ProcessingOrder: 1},
	}

	first, err := s.BuildWaves(types)
	assert.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := s.BuildWaves(types)
		assert.NoError(t, err)
		assert.Equal(t, waveCodes(first), waveCodes(again))
	}
	assert.Equal(t, [][]string{{"A", "B"}, {"D", "E"}}, waveCodes(first))
}
