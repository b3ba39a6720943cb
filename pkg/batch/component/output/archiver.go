package output

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	storageAdapter "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/adapter/storage"
	port "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/application/port"
	config "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/config"
	model "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/domain/model"
	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/support/util/exception"
	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/support/util/logger"
)

// stagingArchiveRow is the Parquet layout of one archived staging record. The
// payload travels as its JSON encoding, matching how the staging table stores it.
type stagingArchiveRow struct {
	RecordID        string `parquet:"name=record_id,type=BYTE_ARRAY,convertedtype=UTF8"`
	ExecutionID     string `parquet:"name=execution_id,type=BYTE_ARRAY,convertedtype=UTF8"`
	TransactionType string `parquet:"name=transaction_type,type=BYTE_ARRAY,convertedtype=UTF8"`
	Sequence        int64  `parquet:"name=sequence,type=INT64"`
	Payload         string `parquet:"name=payload,type=BYTE_ARRAY,convertedtype=UTF8"`
	Processed       bool   `parquet:"name=processed,type=BOOLEAN"`
	HasError        bool   `parquet:"name=has_error,type=BOOLEAN"`
	ErrorMessage    string `parquet:"name=error_message,type=BYTE_ARRAY,convertedtype=UTF8"`
	CreatedAt       int64  `parquet:"name=created_at,type=INT64,convertedtype=TIMESTAMP_MILLIS"`
}

// ParquetStagingArchiver preserves the staging records of a failed execution
// as Parquet objects, one per transaction type, under
// staging/<jobName>/dt=<businessDate>/<executionID>/. A failure archiving one
// type does not stop the remaining types; the errors are aggregated.
type ParquetStagingArchiver struct {
	resolver   storageAdapter.StorageConnectionResolver
	storageRef string
}

// NewParquetStagingArchiver creates an archiver delivering to the storage
// connection named by 'fabric.infrastructure.output_storage_ref'.
func NewParquetStagingArchiver(resolver storageAdapter.StorageConnectionResolver, cfg *config.Config) port.StagingArchiver {
	return &ParquetStagingArchiver{
		resolver:   resolver,
		storageRef: cfg.Fabric.Infrastructure.OutputStorageRef,
	}
}

var _ port.StagingArchiver = (*ParquetStagingArchiver)(nil)

// Archive writes the records to the archive location for the execution.
func (a *ParquetStagingArchiver) Archive(ctx context.Context, execution *model.JobExecution, records []*model.StagingRecord) error {
	if len(records) == 0 {
		logger.Debugf("No staging records to archive for execution %s.", execution.ID)
		return nil
	}

	conn, err := a.resolver.ResolveStorageConnection(ctx, a.storageRef)
	if err != nil {
		return exception.NewInfrastructureError(moduleName,
			fmt.Sprintf("failed to resolve archive storage connection '%s'", a.storageRef), err)
	}

	byType := make(map[string][]*model.StagingRecord)
	for _, record := range records {
		byType[record.TransactionType] = append(byType[record.TransactionType], record)
	}

	var multiErr error
	for typeCode, typeRecords := range byType {
		objectName := fmt.Sprintf("staging/%s/dt=%s/%s/%s.parquet",
			execution.JobName, execution.BusinessDate, execution.ID, typeCode)

		buf, err := a.encode(typeRecords)
		if err != nil {
			multiErr = multierror.Append(multiErr, exception.NewInfrastructureError(moduleName,
				fmt.Sprintf("failed to encode staging archive for type '%s'", typeCode), err))
			continue
		}

		if err := conn.Upload(ctx, "", objectName, buf, "application/octet-stream"); err != nil {
			multiErr = multierror.Append(multiErr, exception.NewInfrastructureError(moduleName,
				fmt.Sprintf("failed to upload staging archive '%s'", objectName), err))
			continue
		}
		logger.Infof("Archived %d staging records of type '%s' to '%s'.", len(typeRecords), typeCode, objectName)
	}
	return multiErr
}

// encode writes one type's records into an in-memory Parquet file with a
// single row group.
func (a *ParquetStagingArchiver) encode(records []*model.StagingRecord) (*bytes.Buffer, error) {
	buf := new(bytes.Buffer)
	// The third argument is the writer's marshalling parallelism, not a row
	// count; one goroutine is plenty for an archive file.
	pw, err := writer.NewParquetWriterFromWriter(buf, new(stagingArchiveRow), 1)
	if err != nil {
		return nil, err
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, record := range records {
		payload, err := json.Marshal(record.Payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode payload of record %s: %w", record.ID, err)
		}
		row := stagingArchiveRow{
			RecordID:        record.ID,
			ExecutionID:     record.ExecutionID,
			TransactionType: record.TransactionType,
			Sequence:        record.Sequence,
			Payload:         string(payload),
			Processed:       record.Processed,
			HasError:        record.HasError,
			ErrorMessage:    record.ErrorMessage,
			CreatedAt:       record.CreatedAt.UnixMilli(),
		}
		if err := pw.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write record %s: %w", record.ID, err)
		}
	}

	// The library can panic on malformed state during finalization; surface
	// that as an error like any other encode failure.
	if err := writeStop(pw); err != nil {
		return nil, err
	}
	return buf, nil
}

func writeStop(pw *writer.ParquetWriter) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parquet finalization panicked: %v", r)
		}
	}()
	return pw.WriteStop()
}
