// Package merge assembles partition results into the final output order.
// The order is fully determined by the wave schedule and the staging
// sequence numbers; which partition finished first never influences it.
package merge

import (
	"fmt"
	"sort"

	port "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/application/port"
	model "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/domain/model"
	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/support/util/exception"
)

const moduleName = "merge"

// DefaultResultMerger implements port.ResultMerger. It is a pure function
// over its inputs and holds no state.
type DefaultResultMerger struct{}

// NewDefaultResultMerger creates a new DefaultResultMerger.
func NewDefaultResultMerger() *DefaultResultMerger {
	return &DefaultResultMerger{}
}

var _ port.ResultMerger = (*DefaultResultMerger)(nil)

// Merge walks the waves in execution order and, within each wave, the types
// in the sequencer's order. The records of each partition are emitted in
// ascending staging sequence. A wave type without a result indicates the
// execution state is inconsistent and aborts the merge.
func (m *DefaultResultMerger) Merge(waves []model.ExecutionWave, results map[string]*model.PartitionResult) ([]model.OutputRecord, error) {
	out := make([]model.OutputRecord, 0)

	for _, wave := range waves {
		for _, typ := range wave.Types {
			result, ok := results[typ.Code]
			if !ok {
				return nil, exception.NewBatchError(moduleName,
					fmt.Sprintf("no partition result for transaction type '%s' in wave %d", typ.Code, wave.Index), nil, false, false)
			}

			records := append([]model.OutputRecord(nil), result.Succeeded...)
			sort.SliceStable(records, func(i, j int) bool {
				return records[i].Sequence < records[j].Sequence
			})
			out = append(out, records...)
		}
	}
	return out, nil
}
