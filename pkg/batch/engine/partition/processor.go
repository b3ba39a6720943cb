// Package partition applies the configured field mappings to the staged
// records of one transaction type, producing the partition's succeeded and
// failed sets. Partitions are dispatched by the worker pool; each one operates
// only on the records routed to it and shares no mutable state with siblings.
package partition

import (
	"context"
	"fmt"
	"sort"

	port "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/application/port"
	config "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/config"
	model "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/domain/model"
	repository "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/domain/repository"
	metrics "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/metrics"
	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/support/util/exception"
	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/support/util/logger"
)

const moduleName = "partition"

// DefaultPartitionProcessor implements port.PartitionProcessor over the
// staging store. Each ready record is transformed, validated and formatted in
// mapping order; a record failing validation is routed to the failed set and
// marked in staging without aborting the rest of the partition.
type DefaultPartitionProcessor struct {
	staging   repository.Staging
	recorder  metrics.MetricRecorder
	tracer    metrics.Tracer
	chunkSize int
	skippable []string
	retryable []string
}

// NewDefaultPartitionProcessor creates a processor using the configured chunk
// size and error classification lists.
func NewDefaultPartitionProcessor(
	cfg *config.Config,
	staging repository.Staging,
	recorder metrics.MetricRecorder,
	tracer metrics.Tracer,
) *DefaultPartitionProcessor {
	return &DefaultPartitionProcessor{
		staging:   staging,
		recorder:  recorder,
		tracer:    tracer,
		chunkSize: cfg.Fabric.Batch.ChunkSize,
		skippable: cfg.Fabric.Batch.Classification.SkippableExceptions,
		retryable: cfg.Fabric.Batch.Classification.RetryableExceptions,
	}
}

// Verify interfaces
var _ port.PartitionProcessor = (*DefaultPartitionProcessor)(nil)

// ProcessPartition transforms the ready staged records of one transaction type.
//
// Records are handled in staging sequence order. Cancellation is honored
// between records: the record in flight is finished, no further record is
// started, and the partial result is returned with the context's error.
func (p *DefaultPartitionProcessor) ProcessPartition(ctx context.Context, execution *model.JobExecution, txType model.TransactionType, mappings []model.FieldMapping) (*model.PartitionResult, error) {
	ctx, finishSpan := p.tracer.StartPartitionSpan(ctx, execution, txType.Code)
	defer finishSpan()

	records, err := p.staging.FetchReadyStagingRecords(ctx, execution.ID, txType.Code)
	if err != nil {
		p.tracer.RecordError(ctx, moduleName, err)
		return nil, exception.NewInfrastructureError(
			moduleName, fmt.Sprintf("failed to fetch ready records for transaction type '%s'", txType.Code), err)
	}
	logger.Infof("Partition '%s': processing %d staged records (chunk size %d).", txType.Code, len(records), p.chunkSize)

	ordered := orderedMappings(mappings)
	result := model.NewPartitionResult(txType)
	chunkCount := 0

	for _, record := range records {
		select {
		case <-ctx.Done():
			logger.Warnf("Partition '%s': cancelled after %d of %d records.", txType.Code, result.RecordCount(), len(records))
			return result, ctx.Err()
		default:
		}

		if err := p.processRecord(ctx, record, ordered, txType, result); err != nil {
			p.tracer.RecordError(ctx, moduleName, err)
			return result, err
		}

		chunkCount++
		if chunkCount == p.chunkSize {
			p.recorder.RecordChunkCommit(ctx, txType.Code, chunkCount)
			logger.Debugf("Partition '%s': chunk of %d records finished.", txType.Code, chunkCount)
			chunkCount = 0
		}
	}
	if chunkCount > 0 {
		p.recorder.RecordChunkCommit(ctx, txType.Code, chunkCount)
	}

	logger.Infof("Partition '%s' finished: %d succeeded, %d failed.", txType.Code, len(result.Succeeded), len(result.Failed))
	return result, nil
}

// processRecord handles one staged record end to end. A non-nil return aborts
// the partition; record-level failures are folded into the result instead.
func (p *DefaultPartitionProcessor) processRecord(ctx context.Context, record *model.StagingRecord, mappings []model.FieldMapping, txType model.TransactionType, result *model.PartitionResult) error {
	segments, err := buildSegments(record.Payload, mappings)
	if err != nil {
		abort, classified := p.classify(err)
		if abort {
			return classified
		}
		if markErr := p.staging.MarkStagingError(ctx, record.ID, classified.Error()); markErr != nil {
			return exception.NewInfrastructureError(
				moduleName, fmt.Sprintf("failed to mark record %s as failed", record.ID), markErr)
		}
		result.Failed = append(result.Failed, model.FailedRecord{
			RecordID:        record.ID,
			TransactionType: txType.Code,
			Sequence:        record.Sequence,
			Reason:          classified.Error(),
		})
		p.recorder.RecordFailed(ctx, txType.Code, "validation")
		logger.Debugf("Partition '%s': record seq %d rejected: %v", txType.Code, record.Sequence, classified)
		return nil
	}

	if err := p.staging.MarkStagingProcessed(ctx, record.ID); err != nil {
		return exception.NewInfrastructureError(
			moduleName, fmt.Sprintf("failed to mark record %s as processed", record.ID), err)
	}
	result.Succeeded = append(result.Succeeded, model.OutputRecord{
		TransactionType: txType.Code,
		Sequence:        record.Sequence,
		Segments:        segments,
	})
	p.recorder.RecordProcessed(ctx, txType.Code)
	return nil
}

// classify decides whether a transformation error fails the record or aborts
// the partition. Validation errors and errors matching the configured
// skippable types fail the record; configuration errors, infrastructure
// errors and errors matching the retryable types abort.
func (p *DefaultPartitionProcessor) classify(err error) (abort bool, classified error) {
	switch {
	case exception.IsConfigurationError(err):
		return true, err
	case exception.IsInfrastructureError(err):
		return true, err
	case exception.IsValidationError(err):
		return false, err
	}

	for _, typeName := range p.skippable {
		if exception.IsErrorOfType(err, typeName) {
			return false, exception.NewValidationError(moduleName, "record rejected: "+err.Error(), err)
		}
	}
	for _, typeName := range p.retryable {
		if exception.IsErrorOfType(err, typeName) {
			return true, exception.NewInfrastructureError(moduleName, "partition interrupted: "+err.Error(), err)
		}
	}
	return true, err
}

// buildSegments runs transformation, validation and formatting for every
// mapping in order. The first failing mapping fails the whole record.
func buildSegments(payload model.Payload, mappings []model.FieldMapping) ([]string, error) {
	segments := make([]string, 0, len(mappings))
	for _, mapping := range mappings {
		value, err := applyRule(mapping.Rule, payload)
		if err != nil {
			return nil, err
		}
		if err := validateField(mapping, value); err != nil {
			return nil, err
		}
		segments = append(segments, formatSegment(mapping, value))
	}
	return segments, nil
}

// orderedMappings returns the mappings sorted by target position. The
// configured order is authoritative for rule application and segment layout.
func orderedMappings(mappings []model.FieldMapping) []model.FieldMapping {
	ordered := make([]model.FieldMapping, len(mappings))
	copy(ordered, mappings)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Position < ordered[j].Position
	})
	return ordered
}
