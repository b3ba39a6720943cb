package sql

import (
	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/domain/model"
)

// --- Mapper functions ---

func fromDomainJobExecution(je *model.JobExecution) *JobExecutionEntity {
	if je == nil {
		return nil
	}
	return &JobExecutionEntity{
		ID:             je.ID,
		JobName:        je.JobName,
		BusinessDate:   je.BusinessDate,
		Mode:           je.Mode,
		Parameters:     je.Parameters,
		IdempotencyKey: je.IdempotencyKey,
		Status:         je.Status,
		FailureClass:   je.FailureClass,
		TotalCount:     je.TotalCount,
		ProcessedCount: je.ProcessedCount,
		ErrorCount:     je.ErrorCount,
		Failures:       je.Failures,
		StartTime:      je.StartTime,
		EndTime:        je.EndTime,
		CreateTime:     je.CreateTime,
		LastUpdated:    je.LastUpdated,
		Version:        je.Version,
		RestartCount:   je.RestartCount,
	}
}

func toDomainJobExecution(entity *JobExecutionEntity) *model.JobExecution {
	if entity == nil {
		return nil
	}
	// CancelFunc is runtime-only state and is never persisted.
	return &model.JobExecution{
		ID:             entity.ID,
		JobName:        entity.JobName,
		BusinessDate:   entity.BusinessDate,
		Mode:           entity.Mode,
		Parameters:     entity.Parameters,
		IdempotencyKey: entity.IdempotencyKey,
		Status:         entity.Status,
		FailureClass:   entity.FailureClass,
		TotalCount:     entity.TotalCount,
		ProcessedCount: entity.ProcessedCount,
		ErrorCount:     entity.ErrorCount,
		Failures:       entity.Failures,
		StartTime:      entity.StartTime,
		EndTime:        entity.EndTime,
		CreateTime:     entity.CreateTime,
		LastUpdated:    entity.LastUpdated,
		Version:        entity.Version,
		RestartCount:   entity.RestartCount,
	}
}

func fromDomainStagingRecord(sr *model.StagingRecord) *StagingRecordEntity {
	if sr == nil {
		return nil
	}
	return &StagingRecordEntity{
		ID:              sr.ID,
		ExecutionID:     sr.ExecutionID,
		TransactionType: sr.TransactionType,
		Sequence:        sr.Sequence,
		Payload:         sr.Payload,
		DependencyMet:   sr.DependencyMet,
		Processed:       sr.Processed,
		HasError:        sr.HasError,
		ErrorMessage:    sr.ErrorMessage,
		CreatedAt:       sr.CreatedAt,
		ProcessedAt:     sr.ProcessedAt,
	}
}

func toDomainStagingRecord(entity *StagingRecordEntity) *model.StagingRecord {
	if entity == nil {
		return nil
	}
	return &model.StagingRecord{
		ID:              entity.ID,
		ExecutionID:     entity.ExecutionID,
		TransactionType: entity.TransactionType,
		Sequence:        entity.Sequence,
		Payload:         entity.Payload,
		DependencyMet:   entity.DependencyMet,
		Processed:       entity.Processed,
		HasError:        entity.HasError,
		ErrorMessage:    entity.ErrorMessage,
		CreatedAt:       entity.CreatedAt,
		ProcessedAt:     entity.ProcessedAt,
	}
}

func fromDomainIdempotencyRecord(rec *model.IdempotencyRecord) *IdempotencyRecordEntity {
	if rec == nil {
		return nil
	}
	return &IdempotencyRecordEntity{
		Key:           rec.Key,
		ExecutionID:   rec.ExecutionID,
		Fingerprint:   rec.Fingerprint,
		Status:        rec.Status,
		Result:        rec.Result,
		FailureReason: rec.FailureReason,
		CreatedAt:     rec.CreatedAt,
		ProcessedAt:   rec.ProcessedAt,
		ExpiresAt:     rec.ExpiresAt,
		Version:       rec.Version,
	}
}

func toDomainIdempotencyRecord(entity *IdempotencyRecordEntity) *model.IdempotencyRecord {
	if entity == nil {
		return nil
	}
	return &model.IdempotencyRecord{
		Key:           entity.Key,
		ExecutionID:   entity.ExecutionID,
		Fingerprint:   entity.Fingerprint,
		Status:        entity.Status,
		Result:        entity.Result,
		FailureReason: entity.FailureReason,
		CreatedAt:     entity.CreatedAt,
		ProcessedAt:   entity.ProcessedAt,
		ExpiresAt:     entity.ExpiresAt,
		Version:       entity.Version,
	}
}
