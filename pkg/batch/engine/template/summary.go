package template

import (
	"sort"
	"strconv"
	"strings"

	model "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/domain/model"
	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/support/util/logger"
)

// SummaryBuilder accumulates the footer aggregates over merged output
// records: the record count and one control total per field declared numeric
// in the mapping of the record's transaction type.
type SummaryBuilder struct {
	mappingsByType map[string][]model.FieldMapping
	summary        model.FooterSummary
}

// NewSummaryBuilder creates a builder for the given per-type field mappings.
// Mappings are ordered by target position so they line up with the segments
// of a record, which the processor emits in position order.
func NewSummaryBuilder(mappingsByType map[string][]model.FieldMapping) *SummaryBuilder {
	ordered := make(map[string][]model.FieldMapping, len(mappingsByType))
	for code, mappings := range mappingsByType {
		sorted := make([]model.FieldMapping, len(mappings))
		copy(sorted, mappings)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].Position < sorted[j].Position
		})
		ordered[code] = sorted
	}
	return &SummaryBuilder{
		mappingsByType: ordered,
		summary:        model.NewFooterSummary(),
	}
}

// Add accumulates one merged output record. Numeric segments that fail to
// parse are logged and skipped; they have already passed validation, so a
// parse failure here indicates a padding policy that destroys the value.
func (b *SummaryBuilder) Add(record model.OutputRecord) {
	b.summary.RecordCount++

	mappings := b.mappingsByType[record.TransactionType]
	for i, m := range mappings {
		if m.Type != model.FieldTypeNumeric || i >= len(record.Segments) {
			continue
		}
		raw := strings.TrimSpace(record.Segments[i])
		if raw == "" {
			continue
		}
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			logger.Warnf("Footer summary: numeric field '%s' of type '%s' does not parse: %v", m.TargetName, record.TransactionType, err)
			continue
		}
		b.summary.Totals[m.TargetName] += value
	}
}

// AddFailed accumulates rejected records into the failed count.
func (b *SummaryBuilder) AddFailed(count int64) {
	b.summary.FailedCount += count
}

// Summary returns the accumulated aggregates.
func (b *SummaryBuilder) Summary() model.FooterSummary {
	return b.summary
}
