package sql

import (
	"time"

	model "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/domain/model"
)

// JobExecutionEntity is a schema model used for persistence.
type JobExecutionEntity struct {
	ID             string
	JobName        string
	BusinessDate   string
	Mode           model.ProcessingMode
	Parameters     model.ExecutionParameters
	IdempotencyKey string
	Status         model.ExecutionStatus
	FailureClass   model.FailureClassification
	TotalCount     int
	ProcessedCount int
	ErrorCount     int
	Failures       model.FailureList
	StartTime      time.Time
	EndTime        *time.Time
	CreateTime     time.Time
	LastUpdated    time.Time
	Version        int
	RestartCount   int
}

func (JobExecutionEntity) TableName() string {
	return "fabric_job_execution"
}

// StagingRecordEntity is a schema model used for persistence.
type StagingRecordEntity struct {
	ID              string
	ExecutionID     string
	TransactionType string
	Sequence        int64
	Payload         model.Payload
	DependencyMet   bool
	Processed       bool
	HasError        bool
	ErrorMessage    string
	CreatedAt       time.Time
	ProcessedAt     *time.Time
}

func (StagingRecordEntity) TableName() string {
	return "fabric_staging_record"
}

// StagingSequenceEntity holds the per-execution sequence counter.
// LastSequence is the highest number handed out so far; Version guards the
// compare-and-set advance so concurrent inserters never share a number.
type StagingSequenceEntity struct {
	ExecutionID  string `gorm:"primaryKey"`
	LastSequence int64
	Version      int
}

func (StagingSequenceEntity) TableName() string {
	return "fabric_staging_sequence"
}

// IdempotencyRecordEntity is a schema model used for persistence.
// The key column carries an explicit name because "key" is a reserved word in MySQL.
type IdempotencyRecordEntity struct {
	Key           string `gorm:"column:idempotency_key;primaryKey"`
	ExecutionID   string
	Fingerprint   string
	Status        model.IdempotencyStatus
	Result        []byte
	FailureReason string
	CreatedAt     time.Time
	ProcessedAt   *time.Time
	ExpiresAt     *time.Time
	Version       int
}

func (IdempotencyRecordEntity) TableName() string {
	return "fabric_idempotency_record"
}
