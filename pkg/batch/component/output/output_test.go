package output_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	storageAdapter "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/adapter/storage"
	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/component/output"
	coreAdapter "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/adapter"
	config "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/config"
	model "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/domain/model"
)

type uploadedObject struct {
	bucket      string
	objectName  string
	contentType string
	data        []byte
}

type fakeStorageConn struct {
	uploads   []uploadedObject
	uploadErr error
}

func (c *fakeStorageConn) Close() error {
	return nil
}

func (c *fakeStorageConn) Type() string {
	return "fake"
}

func (c *fakeStorageConn) Name() string {
	return "output"
}

func (c *fakeStorageConn) Upload(ctx context.Context, bucket, objectName string, data io.Reader, contentType string) error {
	if c.uploadErr != nil {
		return c.uploadErr
	}
	content, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	c.uploads = append(c.uploads, uploadedObject{bucket: bucket, objectName: objectName, contentType: contentType, data: content})
	return nil
}

func (c *fakeStorageConn) Download(ctx context.Context, bucket, objectName string) (io.ReadCloser, error) {
	return nil, errors.New("not implemented")
}

func (c *fakeStorageConn) ListObjects(ctx context.Context, bucket, prefix string, fn func(objectName string) error) error {
	return nil
}

func (c *fakeStorageConn) DeleteObject(ctx context.Context, bucket, objectName string) error {
	return nil
}

type fakeStorageResolver struct {
	conn *fakeStorageConn
}

func (r *fakeStorageResolver) ResolveConnection(ctx context.Context, name string) (coreAdapter.ResourceConnection, error) {
	return r.conn, nil
}

func (r *fakeStorageResolver) ResolveConnectionName(ctx context.Context, jobExecution interface{}, defaultName string) (string, error) {
	return defaultName, nil
}

func (r *fakeStorageResolver) ResolveStorageConnection(ctx context.Context, name string) (storageAdapter.StorageConnection, error) {
	return r.conn, nil
}

func (r *fakeStorageResolver) ResolveStorageConnectionName(ctx context.Context, jobExecution interface{}, defaultName string) (string, error) {
	return defaultName, nil
}

func newExecution() *model.JobExecution {
	return &model.JobExecution{
		ID:           "exec-1",
		JobName:      "billing",
		BusinessDate: "2025-04-01",
	}
}

func TestFileOutputWriter_FixedFormatConcatenatesSegments(t *testing.T) {
	ctx := context.Background()
	conn := &fakeStorageConn{}
	writer := output.NewFileOutputWriter(&fakeStorageResolver{conn: conn}, config.NewConfig())

	spec := model.OutputSpec{
		Format: model.FormatFixed,
		Path:   "out/${jobName}_${businessDate}.txt",
	}
	require.NoError(t, writer.Open(ctx, newExecution(), spec))
	require.NoError(t, writer.WriteHeader(ctx, "HDR20250401"))
	require.NoError(t, writer.WriteRecords(ctx, []model.OutputRecord{
		{TransactionType: "A", Sequence: 1, Segments: []string{"AB", "001"}},
		{TransactionType: "A", Sequence: 2, Segments: []string{"CD", "002"}},
	}))
	require.NoError(t, writer.WriteFooter(ctx, "TRL2"))
	require.NoError(t, writer.Close(ctx))

	require.Len(t, conn.uploads, 1)
	got := conn.uploads[0]
	assert.Equal(t, "out/billing_2025-04-01.txt", got.objectName)
	assert.Equal(t, "text/plain", got.contentType)
	assert.Equal(t, "HDR20250401\nAB001\nCD002\nTRL2\n", string(got.data))
}

func TestFileOutputWriter_DelimitedFormatJoinsSegments(t *testing.T) {
	ctx := context.Background()
	conn := &fakeStorageConn{}
	writer := output.NewFileOutputWriter(&fakeStorageResolver{conn: conn}, config.NewConfig())

	spec := model.OutputSpec{
		Format:    model.FormatDelimited,
		Delimiter: "|",
		Path:      "out/records.csv",
	}
	require.NoError(t, writer.Open(ctx, newExecution(), spec))
	require.NoError(t, writer.WriteRecords(ctx, []model.OutputRecord{
		{Segments: []string{"AB", "001"}},
	}))
	require.NoError(t, writer.Close(ctx))

	require.Len(t, conn.uploads, 1)
	assert.Equal(t, "text/csv", conn.uploads[0].contentType)
	assert.Equal(t, "AB|001\n", string(conn.uploads[0].data))
}

func TestFileOutputWriter_DefaultsThePathWhenUnset(t *testing.T) {
	ctx := context.Background()
	conn := &fakeStorageConn{}
	writer := output.NewFileOutputWriter(&fakeStorageResolver{conn: conn}, config.NewConfig())

	require.NoError(t, writer.Open(ctx, newExecution(), model.OutputSpec{Format: model.FormatFixed}))
	require.NoError(t, writer.WriteRecords(ctx, []model.OutputRecord{{Segments: []string{"X"}}}))
	require.NoError(t, writer.Close(ctx))

	require.Len(t, conn.uploads, 1)
	assert.Equal(t, "billing/billing_2025-04-01.dat", conn.uploads[0].objectName)
}

func TestFileOutputWriter_DiscardsPartialOutputAfterWriteFailure(t *testing.T) {
	conn := &fakeStorageConn{}
	writer := output.NewFileOutputWriter(&fakeStorageResolver{conn: conn}, config.NewConfig())

	require.NoError(t, writer.Open(context.Background(), newExecution(), model.OutputSpec{Format: model.FormatFixed}))

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	err := writer.WriteRecords(cancelled, []model.OutputRecord{{Segments: []string{"X"}}})
	require.Error(t, err)

	require.NoError(t, writer.Close(context.Background()))
	assert.Empty(t, conn.uploads, "a failed write must not upload a partial object")
}

func TestFileOutputWriter_UndefinedPathVariableIsAConfigurationError(t *testing.T) {
	ctx := context.Background()
	conn := &fakeStorageConn{}
	writer := output.NewFileOutputWriter(&fakeStorageResolver{conn: conn}, config.NewConfig())

	spec := model.OutputSpec{Format: model.FormatFixed, Path: "out/${nope}.txt"}
	err := writer.Open(ctx, newExecution(), spec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "undefined variable 'nope'")

	// The failed open must not wedge the writer for the next execution.
	require.NoError(t, writer.Open(ctx, newExecution(), model.OutputSpec{Format: model.FormatFixed}))
	require.NoError(t, writer.Close(ctx))
}

func TestParquetStagingArchiver_WritesOneObjectPerType(t *testing.T) {
	ctx := context.Background()
	conn := &fakeStorageConn{}
	archiver := output.NewParquetStagingArchiver(&fakeStorageResolver{conn: conn}, config.NewConfig())

	now := time.Now()
	records := []*model.StagingRecord{
		{ID: "s1", ExecutionID: "exec-1", TransactionType: "A", Sequence: 1, Payload: model.Payload{"k": "v"}, CreatedAt: now},
		{ID: "s2", ExecutionID: "exec-1", TransactionType: "B", Sequence: 2, Payload: model.Payload{"k": "w"}, HasError: true, ErrorMessage: "bad amount", CreatedAt: now},
		{ID: "s3", ExecutionID: "exec-1", TransactionType: "A", Sequence: 3, Payload: model.Payload{"k": "x"}, CreatedAt: now},
	}
	require.NoError(t, archiver.Archive(ctx, newExecution(), records))

	require.Len(t, conn.uploads, 2)
	names := []string{conn.uploads[0].objectName, conn.uploads[1].objectName}
	assert.ElementsMatch(t, []string{
		"staging/billing/dt=2025-04-01/exec-1/A.parquet",
		"staging/billing/dt=2025-04-01/exec-1/B.parquet",
	}, names)

	for _, upload := range conn.uploads {
		assert.Equal(t, "application/octet-stream", upload.contentType)
		require.Greater(t, len(upload.data), 8)
		assert.Equal(t, "PAR1", string(upload.data[:4]), "parquet files start with the PAR1 magic")
		assert.Equal(t, "PAR1", string(upload.data[len(upload.data)-4:]), "parquet files end with the PAR1 magic")
	}
}

func TestParquetStagingArchiver_NothingToArchiveIsANoOp(t *testing.T) {
	conn := &fakeStorageConn{}
	archiver := output.NewParquetStagingArchiver(&fakeStorageResolver{conn: conn}, config.NewConfig())

	require.NoError(t, archiver.Archive(context.Background(), newExecution(), nil))
	assert.Empty(t, conn.uploads)
}
