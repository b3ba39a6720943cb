package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/application/port"
	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/application/usecase"
	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/config"
	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/config/jobdef"
	model "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/domain/model"
	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/metrics"
	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/engine/idempotency"
	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/engine/merge"
	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/engine/partition"
	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/engine/sequencer"
	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/infrastructure/repository/inmemory"
	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/support/util/exception"
)

const settlementJob = `
name: card-settlement
output:
  format: delimited
  delimiter: "|"
  path: out/settlement.txt
  header: "H|${jobName}|${businessDate}"
  footer: "T|${recordCount}|${failedCount}|${total_amount}"
transaction-types:
  - code: SALE
    processing-order: 1
    selector: {filter: SALE}
    field-mappings:
      - target: account
        position: 1
        length: 10
        required: true
        rule: {kind: source, source: account}
      - target: amount
        position: 2
        length: 8
        type: numeric
        padding: {char: "0"}
        rule: {kind: source, source: amount}
      - target: currency
        position: 3
        length: 3
        rule: {kind: constant, constant: USD}
      - target: channel
        position: 4
        length: 6
        rule:
          kind: conditional
          condition: {field: pos, operator: eq, value: ONLINE}
          then: {kind: constant, constant: ECOM}
          else: {kind: constant, constant: RETAIL}
  - code: REFUND
    processing-order: 2
    selector: {filter: REFUND}
    field-mappings:
      - target: account
        position: 1
        length: 10
        required: true
        rule: {kind: source, source: account}
      - target: amount
        position: 2
        length: 8
        type: numeric
        padding: {char: "0"}
        rule: {kind: source, source: amount}
      - target: currency
        position: 3
        length: 3
        rule: {kind: constant, constant: USD}
      - target: channel
        position: 4
        length: 6
        rule: {kind: blank}
`

const toleratedJob = `
name: tolerant-settlement
processing:
  error-threshold-percent: 50
output:
  format: delimited
  delimiter: "|"
  path: out/tolerant.txt
  footer: "T|${recordCount}|${failedCount}|${total_amount}"
transaction-types:
  - code: SALE
    processing-order: 1
    selector: {filter: SALE}
    field-mappings:
      - target: account
        position: 1
        required: true
        rule: {kind: source, source: account}
      - target: amount
        position: 2
        type: numeric
        rule: {kind: source, source: amount}
`

const ledgerJob = `
name: ledger-close
processing:
  mode: COMPLEX
output:
  format: delimited
  delimiter: ","
  path: out/ledger.txt
transaction-types:
  - code: CLOSE
    processing-order: 1
    depends-on: [POST]
    selector: {filter: CLOSE}
    field-mappings:
      - target: entry
        position: 1
        rule: {kind: source, source: entry}
  - code: POST
    processing-order: 2
    depends-on: [OPEN]
    selector: {filter: POST}
    field-mappings:
      - target: entry
        position: 1
        rule: {kind: source, source: entry}
  - code: OPEN
    processing-order: 3
    selector: {filter: OPEN}
    field-mappings:
      - target: entry
        position: 1
        rule: {kind: source, source: entry}
`

const cyclicJob = `
name: cyclic-feed
processing:
  mode: COMPLEX
output:
  path: out/cyclic.txt
transaction-types:
  - code: ALPHA
    processing-order: 1
    depends-on: [BETA]
    selector: {filter: ALPHA}
    field-mappings:
      - target: value
        position: 1
        length: 4
        rule: {kind: source, source: value}
  - code: BETA
    processing-order: 2
    depends-on: [ALPHA]
    selector: {filter: BETA}
    field-mappings:
      - target: value
        position: 1
        length: 4
        rule: {kind: source, source: value}
`

const pairJob = `
name: paired-feed
output:
  format: delimited
  delimiter: ","
  path: out/paired.txt
transaction-types:
  - code: BETA
    processing-order: 2
    selector: {filter: BETA}
    field-mappings:
      - target: value
        position: 1
        rule: {kind: source, source: value}
  - code: ALPHA
    processing-order: 1
    selector: {filter: ALPHA}
    field-mappings:
      - target: value
        position: 1
        rule: {kind: source, source: value}
`

const flowJob = `
name: nightly-flow
output:
  path: out/flow.txt
transaction-types:
  - code: FLOW
    processing-order: 1
    selector: {filter: FLOW}
    field-mappings:
      - target: value
        position: 1
        length: 12
        rule: {kind: source, source: value}
`

const retainJob = `
name: retained-feed
processing:
  staging-retention-on-failure: true
output:
  path: out/retained.txt
transaction-types:
  - code: RETAIN
    processing-order: 1
    selector: {filter: RETAIN}
    field-mappings:
      - target: account
        position: 1
        length: 10
        required: true
        rule: {kind: source, source: account}
`

const restartJob = `
name: replayed-feed
output:
  path: out/replayed.txt
transaction-types:
  - code: REPLAY
    processing-order: 1
    selector: {filter: REPLAY}
    field-mappings:
      - target: amount
        position: 1
        length: 8
        type: numeric
        required: true
        padding: {char: "0"}
        rule: {kind: source, source: amount}
`

const emptyJob = `
name: empty-window
output:
  path: out/empty.txt
`

// completionSignal is a notification listener that signals each settled
// execution on its own channel, so tests can wait for the asynchronous run
// loop without polling. The signal fires after the terminal status, the
// idempotency settlement and the staging cleanup are all done.
type completionSignal struct {
	mu       sync.Mutex
	channels map[string]chan struct{}
}

func newCompletionSignal() *completionSignal {
	return &completionSignal{channels: make(map[string]chan struct{})}
}

func (s *completionSignal) channel(executionID string) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, ok := s.channels[executionID]
	if !ok {
		ch = make(chan struct{}, 1)
		s.channels[executionID] = ch
	}
	return ch
}

func (s *completionSignal) OnExecutionCompletion(ctx context.Context, execution *model.JobExecution) {
	s.channel(execution.ID) <- struct{}{}
}

func (s *completionSignal) await(t *testing.T, executionID string) {
	t.Helper()
	select {
	case <-s.channel(executionID):
	case <-time.After(5 * time.Second):
		t.Fatalf("execution %s did not settle in time", executionID)
	}
}

// stubSourceReader serves canned rows keyed by the selector filter, which the
// test definitions set to the transaction type code.
type stubSourceReader struct {
	mu      sync.Mutex
	rows    map[string][]model.Payload
	current []model.Payload
	pos     int
	opens   int
	openErr error
}

func (r *stubSourceReader) setRows(filter string, rows []model.Payload) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[filter] = rows
}

func (r *stubSourceReader) failOpens(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.openErr = err
}

func (r *stubSourceReader) openCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.opens
}

func (r *stubSourceReader) Open(ctx context.Context, selector model.SourceSelector) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.openErr != nil {
		return r.openErr
	}
	r.opens++
	r.current = r.rows[selector.Filter]
	r.pos = 0
	return nil
}

func (r *stubSourceReader) Read(ctx context.Context) (model.Payload, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pos >= len(r.current) {
		return nil, port.ErrNoMoreRecords
	}
	payload := r.current[r.pos]
	r.pos++
	return payload, nil
}

func (r *stubSourceReader) Close(ctx context.Context) error { return nil }

// stubOutputWriter captures everything the coordinator hands to the output
// edge: the spec it opened with, the rendered header and footer, and the
// merged records in write order.
type stubOutputWriter struct {
	mu      sync.Mutex
	opened  bool
	closed  bool
	spec    model.OutputSpec
	header  string
	footer  string
	records []model.OutputRecord
}

func (w *stubOutputWriter) Open(ctx context.Context, execution *model.JobExecution, spec model.OutputSpec) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.opened = true
	w.spec = spec
	return nil
}

func (w *stubOutputWriter) WriteHeader(ctx context.Context, header string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.header = header
	return nil
}

func (w *stubOutputWriter) WriteRecords(ctx context.Context, records []model.OutputRecord) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.records = append(w.records, records...)
	return nil
}

func (w *stubOutputWriter) WriteFooter(ctx context.Context, footer string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.footer = footer
	return nil
}

func (w *stubOutputWriter) Close(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func (w *stubOutputWriter) wasOpened() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.opened
}

func (w *stubOutputWriter) wasClosed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

func (w *stubOutputWriter) writtenSpec() model.OutputSpec {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.spec
}

func (w *stubOutputWriter) writtenHeader() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.header
}

func (w *stubOutputWriter) writtenFooter() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.footer
}

func (w *stubOutputWriter) writtenRecords() []model.OutputRecord {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]model.OutputRecord(nil), w.records...)
}

// stubArchiver records the staging records handed over for retention.
type stubArchiver struct {
	mu       sync.Mutex
	calls    int
	archived []*model.StagingRecord
}

func (a *stubArchiver) Archive(ctx context.Context, execution *model.JobExecution, records []*model.StagingRecord) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls++
	a.archived = records
	return nil
}

func (a *stubArchiver) archiveCalls() (int, []*model.StagingRecord) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls, a.archived
}

// partitionRecorder captures the dispatch order of partitions across waves.
type partitionRecorder struct {
	mu    sync.Mutex
	codes []string
}

func (r *partitionRecorder) BeforePartition(ctx context.Context, execution *model.JobExecution, txType model.TransactionType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codes = append(r.codes, txType.Code)
}

func (r *partitionRecorder) AfterPartition(ctx context.Context, execution *model.JobExecution, result *model.PartitionResult) {
}

func (r *partitionRecorder) ordered() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.codes...)
}

// gatingProcessor holds every partition at the processor door until the test
// releases it, forwarding to the real processor afterwards. Cancellation
// while held returns the context error, as the real processor would between
// records.
type gatingProcessor struct {
	inner   port.PartitionProcessor
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGatingProcessor(inner port.PartitionProcessor) *gatingProcessor {
	return &gatingProcessor{
		inner:   inner,
		started: make(chan struct{}, 8),
		release: make(chan struct{}),
	}
}

func (p *gatingProcessor) ProcessPartition(ctx context.Context, execution *model.JobExecution, txType model.TransactionType, mappings []model.FieldMapping) (*model.PartitionResult, error) {
	p.started <- struct{}{}
	select {
	case <-p.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return p.inner.ProcessPartition(ctx, execution, txType, mappings)
}

func (p *gatingProcessor) waitStarted(t *testing.T) {
	t.Helper()
	select {
	case <-p.started:
	case <-time.After(5 * time.Second):
		t.Fatal("no partition reached the processor in time")
	}
}

func (p *gatingProcessor) releaseAll() {
	p.once.Do(func() { close(p.release) })
}

var (
	_ port.SourceReader         = (*stubSourceReader)(nil)
	_ port.OutputWriter         = (*stubOutputWriter)(nil)
	_ port.StagingArchiver      = (*stubArchiver)(nil)
	_ port.PartitionListener    = (*partitionRecorder)(nil)
	_ port.NotificationListener = (*completionSignal)(nil)
	_ port.PartitionProcessor   = (*gatingProcessor)(nil)
)

type coordinatorHarness struct {
	repo        *inmemory.InMemoryBatchRepository
	reader      *stubSourceReader
	writer      *stubOutputWriter
	archiver    *stubArchiver
	partitions  *partitionRecorder
	settled     *completionSignal
	coordinator *usecase.DefaultExecutionCoordinator
	operator    *usecase.DefaultExecutionOperator
}

// newHarness wires a coordinator over the in-memory repository with the real
// guard, sequencer, processor and merger, stubbing only the outer edges. The
// wrap hook lets a test interpose on the partition processor.
func newHarness(t *testing.T, cfg *config.Config, wrap func(port.PartitionProcessor) port.PartitionProcessor, definitions ...string) *coordinatorHarness {
	t.Helper()

	registry := jobdef.NewRegistry()
	for _, definition := range definitions {
		if err := registry.Load([]byte(definition)); err != nil {
			t.Fatalf("failed to load job definition: %v", err)
		}
	}

	repo := inmemory.NewInMemoryBatchRepository()
	recorder := metrics.NewNoOpMetricRecorder()
	tracer := metrics.NewNoOpTracer()

	var processor port.PartitionProcessor = partition.NewDefaultPartitionProcessor(cfg, repo, recorder, tracer)
	if wrap != nil {
		processor = wrap(processor)
	}

	reader := &stubSourceReader{rows: make(map[string][]model.Payload)}
	writer := &stubOutputWriter{}
	archiver := &stubArchiver{}
	partitions := &partitionRecorder{}
	settled := newCompletionSignal()

	coordinator := usecase.NewDefaultExecutionCoordinator(usecase.CoordinatorParams{
		Cfg:                   cfg,
		Definitions:           registry,
		Repo:                  repo,
		Guard:                 idempotency.NewDefaultIdempotencyGuard(cfg, repo),
		Sequencer:             sequencer.NewDefaultTransactionSequencer(),
		Processor:             processor,
		Merger:                merge.NewDefaultResultMerger(),
		Reader:                reader,
		Writer:                writer,
		Archiver:              archiver,
		Recorder:              recorder,
		Tracer:                tracer,
		PartitionListeners:    []port.PartitionListener{partitions},
		NotificationListeners: []port.NotificationListener{settled},
	})

	explorer := usecase.NewDefaultExecutionExplorer(repo, registry)
	operator := usecase.NewDefaultExecutionOperator(repo, explorer)
	operator.SetLauncher(coordinator)

	return &coordinatorHarness{
		repo:        repo,
		reader:      reader,
		writer:      writer,
		archiver:    archiver,
		partitions:  partitions,
		settled:     settled,
		coordinator: coordinator,
		operator:    operator,
	}
}

func testConfig() *config.Config {
	cfg := config.NewConfig()
	// Tests exercise restart flows directly; a cooldown would force them to sleep.
	cfg.Fabric.Batch.RetryCooldownSeconds = 0
	return cfg
}

func dateParams(businessDate string) model.ExecutionParameters {
	params := model.NewExecutionParameters()
	params.Put("businessDate", businessDate)
	return params
}

func TestLaunch_CompletesDelimitedJobEndToEnd(t *testing.T) {
	h := newHarness(t, testConfig(), nil, settlementJob)
	h.reader.setRows("SALE", []model.Payload{
		{"account": "4111000001", "amount": "150", "pos": "ONLINE"},
		{"account": "4111000002", "amount": "250", "pos": "STORE"},
	})
	h.reader.setRows("REFUND", []model.Payload{
		{"account": "4111000099", "amount": "200"},
	})

	res, err := h.coordinator.Launch(context.Background(), "card-settlement", "", dateParams("2025-11-07"))
	assert.NoError(t, err)
	assert.Equal(t, model.OutcomeProceed, res.Outcome)
	assert.NotNil(t, res.Execution)
	h.settled.await(t, res.Execution.ID)

	stored, err := h.repo.FindJobExecutionByID(context.Background(), res.Execution.ID)
	assert.NoError(t, err)
	assert.Equal(t, model.ExecutionStatusCompleted, stored.Status)
	assert.Equal(t, model.ProcessingModeSimple, stored.Mode)
	assert.Equal(t, 3, stored.TotalCount)
	assert.Equal(t, 3, stored.ProcessedCount)
	assert.Equal(t, 0, stored.ErrorCount)
	assert.Equal(t, "card-settlement:2025-11-07", stored.IdempotencyKey,
		"an omitted key derives from the job name and business date")

	assert.True(t, h.writer.wasClosed())
	assert.Equal(t, model.FormatDelimited, h.writer.writtenSpec().Format)
	assert.Equal(t, "|", h.writer.writtenSpec().Delimiter)
	assert.Equal(t, "H|card-settlement|2025-11-07", h.writer.writtenHeader())
	assert.Equal(t, "T|3|0|600", h.writer.writtenFooter())

	records := h.writer.writtenRecords()
	if assert.Len(t, records, 3) {
		assert.Equal(t, []string{"4111000001", "00000150", "USD", "ECOM  "}, records[0].Segments)
		assert.Equal(t, []string{"4111000002", "00000250", "USD", "RETAIL"}, records[1].Segments)
		assert.Equal(t, []string{"4111000099", "00000200", "USD", "      "}, records[2].Segments)
		assert.Equal(t, []string{"SALE", "SALE", "REFUND"},
			[]string{records[0].TransactionType, records[1].TransactionType, records[2].TransactionType})
	}
	assert.Equal(t, []string{"SALE", "REFUND"}, h.partitions.ordered())

	record, err := h.repo.FindIdempotencyRecordByKey(context.Background(), "card-settlement:2025-11-07")
	assert.NoError(t, err)
	assert.Equal(t, model.IdempotencyStatusCompleted, record.Status)
	assert.Equal(t, `{"records":3}`, string(record.Result))

	staged, err := h.repo.ListStagingRecords(context.Background(), res.Execution.ID)
	assert.NoError(t, err)
	assert.Empty(t, staged, "completion purges the staging store")
}

func TestLaunch_ReplaysCachedResultWithoutExecuting(t *testing.T) {
	h := newHarness(t, testConfig(), nil, settlementJob)
	rows := make([]model.Payload, 5)
	for i := range rows {
		rows[i] = model.Payload{
			"account": fmt.Sprintf("41110000%02d", i+1),
			"amount":  "100",
			"pos":     "ONLINE",
		}
	}
	h.reader.setRows("SALE", rows)

	first, err := h.coordinator.Launch(context.Background(), "card-settlement", "job-42", dateParams("2025-11-07"))
	assert.NoError(t, err)
	assert.Equal(t, model.OutcomeProceed, first.Outcome)
	h.settled.await(t, first.Execution.ID)
	opens := h.reader.openCount()

	second, err := h.coordinator.Launch(context.Background(), "card-settlement", "job-42", dateParams("2025-11-07"))
	assert.NoError(t, err)
	assert.Equal(t, model.OutcomeReturnCached, second.Outcome)
	assert.Equal(t, `{"records":5}`, string(second.CachedResult))
	assert.Nil(t, second.Execution)
	assert.Equal(t, opens, h.reader.openCount(), "a cached replay opens no source")

	executions, err := h.repo.FindJobExecutionsByJobName(context.Background(), "card-settlement")
	assert.NoError(t, err)
	assert.Len(t, executions, 1)
}

func TestLaunch_RejectsReusedKeyWithDifferentRequest(t *testing.T) {
	h := newHarness(t, testConfig(), nil, settlementJob)
	h.reader.setRows("SALE", []model.Payload{
		{"account": "4111000001", "amount": "150", "pos": "ONLINE"},
	})

	first, err := h.coordinator.Launch(context.Background(), "card-settlement", "job-42", dateParams("2025-11-07"))
	assert.NoError(t, err)
	h.settled.await(t, first.Execution.ID)

	res, err := h.coordinator.Launch(context.Background(), "card-settlement", "job-42", dateParams("2025-11-08"))
	assert.Nil(t, res)
	assert.Error(t, err)
	assert.True(t, exception.IsRequestConflict(err))
	assert.Contains(t, err.Error(), "different request content")
}

func TestLaunch_ConflictsWhileExecutionInFlight(t *testing.T) {
	var gate *gatingProcessor
	h := newHarness(t, testConfig(), func(inner port.PartitionProcessor) port.PartitionProcessor {
		gate = newGatingProcessor(inner)
		return gate
	}, flowJob)
	t.Cleanup(func() { gate.releaseAll() })
	h.reader.setRows("FLOW", []model.Payload{{"value": "v-1"}})

	first, err := h.coordinator.Launch(context.Background(), "nightly-flow", "flow-night-1", dateParams("2025-11-07"))
	assert.NoError(t, err)
	assert.Equal(t, model.OutcomeProceed, first.Outcome)
	gate.waitStarted(t)

	second, err := h.coordinator.Launch(context.Background(), "nightly-flow", "flow-night-1", dateParams("2025-11-07"))
	assert.NoError(t, err)
	assert.Equal(t, model.OutcomeConflict, second.Outcome)
	assert.Nil(t, second.Execution)

	gate.releaseAll()
	h.settled.await(t, first.Execution.ID)

	stored, err := h.repo.FindJobExecutionByID(context.Background(), first.Execution.ID)
	assert.NoError(t, err)
	assert.Equal(t, model.ExecutionStatusCompleted, stored.Status)
}

func TestLaunch_UnknownJobIsConfigurationError(t *testing.T) {
	h := newHarness(t, testConfig(), nil, settlementJob)

	res, err := h.coordinator.Launch(context.Background(), "ghost-job", "", dateParams("2025-11-07"))
	assert.Nil(t, res)
	assert.Error(t, err)
	assert.True(t, exception.IsConfigurationError(err))
	assert.Contains(t, err.Error(), "no job definition registered")
}

func TestLaunch_FailsWhenErrorThresholdExceeded(t *testing.T) {
	h := newHarness(t, testConfig(), nil, settlementJob)
	h.reader.setRows("SALE", []model.Payload{
		{"account": "4111000001", "amount": "150", "pos": "ONLINE"},
		{"account": "4111000002", "amount": "250", "pos": "STORE"},
		{"account": "4111000003", "amount": "twelve", "pos": "STORE"},
	})

	res, err := h.coordinator.Launch(context.Background(), "card-settlement", "", dateParams("2025-11-07"))
	assert.NoError(t, err)
	h.settled.await(t, res.Execution.ID)

	stored, err := h.repo.FindJobExecutionByID(context.Background(), res.Execution.ID)
	assert.NoError(t, err)
	assert.Equal(t, model.ExecutionStatusFailed, stored.Status)
	assert.Equal(t, model.FailureThresholdExceeded, stored.FailureClass)
	assert.Equal(t, 3, stored.TotalCount)
	assert.Equal(t, 2, stored.ProcessedCount)
	assert.Equal(t, 1, stored.ErrorCount)

	assert.False(t, h.writer.wasOpened(), "a failed execution produces no output")

	record, err := h.repo.FindIdempotencyRecordByKey(context.Background(), "card-settlement:2025-11-07")
	assert.NoError(t, err)
	assert.Equal(t, model.IdempotencyStatusFailed, record.Status)
	assert.Contains(t, record.FailureReason, "error threshold exceeded")

	staged, err := h.repo.ListStagingRecords(context.Background(), res.Execution.ID)
	assert.NoError(t, err)
	assert.Empty(t, staged)
}

func TestLaunch_ToleratesFailuresWithinThreshold(t *testing.T) {
	h := newHarness(t, testConfig(), nil, toleratedJob)
	h.reader.setRows("SALE", []model.Payload{
		{"account": "A-1", "amount": "100"},
		{"account": "A-2", "amount": "abc"},
		{"account": "A-3", "amount": "200"},
	})

	res, err := h.coordinator.Launch(context.Background(), "tolerant-settlement", "", dateParams("2025-11-07"))
	assert.NoError(t, err)
	h.settled.await(t, res.Execution.ID)

	stored, err := h.repo.FindJobExecutionByID(context.Background(), res.Execution.ID)
	assert.NoError(t, err)
	assert.Equal(t, model.ExecutionStatusCompleted, stored.Status)
	assert.Equal(t, 3, stored.TotalCount)
	assert.Equal(t, 2, stored.ProcessedCount)
	assert.Equal(t, 1, stored.ErrorCount)

	records := h.writer.writtenRecords()
	if assert.Len(t, records, 2, "the rejected record is excluded from the output") {
		assert.Equal(t, []string{"A-1", "100"}, records[0].Segments)
		assert.Equal(t, []string{"A-3", "200"}, records[1].Segments)
	}
	assert.Equal(t, "T|2|1|300", h.writer.writtenFooter(),
		"rejected records count as failed and contribute no totals")

	record, err := h.repo.FindIdempotencyRecordByKey(context.Background(), "tolerant-settlement:2025-11-07")
	assert.NoError(t, err)
	assert.Equal(t, model.IdempotencyStatusCompleted, record.Status)
	assert.Equal(t, `{"records":2}`, string(record.Result))
}

func TestLaunch_ComplexModeRunsDependencyWavesInOrder(t *testing.T) {
	h := newHarness(t, testConfig(), nil, ledgerJob)
	h.reader.setRows("OPEN", []model.Payload{{"entry": "open-1"}})
	h.reader.setRows("POST", []model.Payload{{"entry": "post-1"}})
	h.reader.setRows("CLOSE", []model.Payload{{"entry": "close-1"}})

	res, err := h.coordinator.Launch(context.Background(), "ledger-close", "", dateParams("2025-11-07"))
	assert.NoError(t, err)
	h.settled.await(t, res.Execution.ID)

	stored, err := h.repo.FindJobExecutionByID(context.Background(), res.Execution.ID)
	assert.NoError(t, err)
	assert.Equal(t, model.ExecutionStatusCompleted, stored.Status)
	assert.Equal(t, model.ProcessingModeComplex, stored.Mode)

	// The processing-order hints point the other way; the dependency edges win.
	assert.Equal(t, []string{"OPEN", "POST", "CLOSE"}, h.partitions.ordered())

	records := h.writer.writtenRecords()
	if assert.Len(t, records, 3) {
		assert.Equal(t, "open-1", records[0].Segments[0])
		assert.Equal(t, "post-1", records[1].Segments[0])
		assert.Equal(t, "close-1", records[2].Segments[0])
		assert.Equal(t, []int64{3, 2, 1},
			[]int64{records[0].Sequence, records[1].Sequence, records[2].Sequence},
			"wave precedence overrides staging arrival order")
	}
}

func TestLaunch_CyclicDependenciesFailExecution(t *testing.T) {
	h := newHarness(t, testConfig(), nil, cyclicJob)

	res, err := h.coordinator.Launch(context.Background(), "cyclic-feed", "", dateParams("2025-11-07"))
	assert.NoError(t, err)
	h.settled.await(t, res.Execution.ID)

	stored, err := h.repo.FindJobExecutionByID(context.Background(), res.Execution.ID)
	assert.NoError(t, err)
	assert.Equal(t, model.ExecutionStatusFailed, stored.Status)
	assert.Equal(t, model.FailureConfiguration, stored.FailureClass)

	record, err := h.repo.FindIdempotencyRecordByKey(context.Background(), "cyclic-feed:2025-11-07")
	assert.NoError(t, err)
	assert.Equal(t, model.IdempotencyStatusFailed, record.Status)
	assert.Contains(t, record.FailureReason, "dependency cycle detected: ALPHA -> BETA")

	assert.False(t, h.writer.wasOpened())
}

func TestLaunch_SimpleModeMergesByProcessingOrder(t *testing.T) {
	h := newHarness(t, testConfig(), nil, pairJob)
	h.reader.setRows("BETA", []model.Payload{{"value": "b-1"}})
	h.reader.setRows("ALPHA", []model.Payload{{"value": "a-1"}})

	res, err := h.coordinator.Launch(context.Background(), "paired-feed", "", dateParams("2025-11-07"))
	assert.NoError(t, err)
	h.settled.await(t, res.Execution.ID)

	stored, err := h.repo.FindJobExecutionByID(context.Background(), res.Execution.ID)
	assert.NoError(t, err)
	assert.Equal(t, model.ExecutionStatusCompleted, stored.Status)

	// BETA is declared first and staged first, but ALPHA's lower
	// processing-order puts it first in dispatch and in the merged output.
	assert.Equal(t, []string{"ALPHA", "BETA"}, h.partitions.ordered())
	records := h.writer.writtenRecords()
	if assert.Len(t, records, 2) {
		assert.Equal(t, "a-1", records[0].Segments[0])
		assert.Equal(t, "b-1", records[1].Segments[0])
	}
}

func TestStop_DiscardsWorkAndReleasesKey(t *testing.T) {
	var gate *gatingProcessor
	h := newHarness(t, testConfig(), func(inner port.PartitionProcessor) port.PartitionProcessor {
		gate = newGatingProcessor(inner)
		return gate
	}, flowJob)
	t.Cleanup(func() { gate.releaseAll() })
	h.reader.setRows("FLOW", []model.Payload{{"value": "v-1"}, {"value": "v-2"}})

	res, err := h.coordinator.Launch(context.Background(), "nightly-flow", "flow-stop-1", dateParams("2025-11-07"))
	assert.NoError(t, err)
	gate.waitStarted(t)

	assert.NoError(t, h.operator.Stop(context.Background(), res.Execution.ID))
	h.settled.await(t, res.Execution.ID)

	stored, err := h.repo.FindJobExecutionByID(context.Background(), res.Execution.ID)
	assert.NoError(t, err)
	assert.Equal(t, model.ExecutionStatusStopped, stored.Status)
	assert.False(t, h.writer.wasOpened(), "a stopped execution writes no output")

	record, err := h.repo.FindIdempotencyRecordByKey(context.Background(), "flow-stop-1")
	assert.NoError(t, err)
	assert.Equal(t, model.IdempotencyStatusFailed, record.Status)
	assert.Equal(t, "stopped by operator request", record.FailureReason)

	staged, err := h.repo.ListStagingRecords(context.Background(), res.Execution.ID)
	assert.NoError(t, err)
	assert.Empty(t, staged)

	err = h.operator.Stop(context.Background(), res.Execution.ID)
	assert.Error(t, err, "a finished execution cannot be stopped again")
}

func TestLaunch_RetainsStagingForDiagnosisOnFailure(t *testing.T) {
	h := newHarness(t, testConfig(), nil, retainJob)
	h.reader.setRows("RETAIN", []model.Payload{{"memo": "no account field"}})

	res, err := h.coordinator.Launch(context.Background(), "retained-feed", "", dateParams("2025-11-07"))
	assert.NoError(t, err)
	h.settled.await(t, res.Execution.ID)

	stored, err := h.repo.FindJobExecutionByID(context.Background(), res.Execution.ID)
	assert.NoError(t, err)
	assert.Equal(t, model.ExecutionStatusFailed, stored.Status)

	staged, err := h.repo.ListStagingRecords(context.Background(), res.Execution.ID)
	assert.NoError(t, err)
	if assert.Len(t, staged, 1, "retention keeps the staged records for diagnosis") {
		assert.True(t, staged[0].HasError)
	}

	calls, archived := h.archiver.archiveCalls()
	assert.Equal(t, 1, calls)
	assert.Len(t, archived, 1)
}

func TestLaunch_FailsWhenSourceUnavailable(t *testing.T) {
	h := newHarness(t, testConfig(), nil, flowJob)
	h.reader.failOpens(errors.New("connection refused"))

	res, err := h.coordinator.Launch(context.Background(), "nightly-flow", "", dateParams("2025-11-07"))
	assert.NoError(t, err)
	h.settled.await(t, res.Execution.ID)

	stored, err := h.repo.FindJobExecutionByID(context.Background(), res.Execution.ID)
	assert.NoError(t, err)
	assert.Equal(t, model.ExecutionStatusFailed, stored.Status)
	assert.Equal(t, model.FailureInfrastructure, stored.FailureClass)

	record, err := h.repo.FindIdempotencyRecordByKey(context.Background(), "nightly-flow:2025-11-07")
	assert.NoError(t, err)
	assert.Equal(t, model.IdempotencyStatusFailed, record.Status)
	assert.False(t, h.writer.wasOpened())
}

func TestRestart_RerunsFailedExecution(t *testing.T) {
	h := newHarness(t, testConfig(), nil, restartJob)
	h.reader.setRows("REPLAY", []model.Payload{{"amount": "12x"}})

	first, err := h.coordinator.Launch(context.Background(), "replayed-feed", "replay-2025-11-07", dateParams("2025-11-07"))
	assert.NoError(t, err)
	h.settled.await(t, first.Execution.ID)

	failed, err := h.repo.FindJobExecutionByID(context.Background(), first.Execution.ID)
	assert.NoError(t, err)
	assert.Equal(t, model.ExecutionStatusFailed, failed.Status)

	// The upstream data is corrected before the operator retries.
	h.reader.setRows("REPLAY", []model.Payload{{"amount": "125"}})

	res, err := h.operator.Restart(context.Background(), first.Execution.ID)
	assert.NoError(t, err)
	assert.Equal(t, model.OutcomeProceed, res.Outcome)
	assert.NotNil(t, res.Execution)
	assert.NotEqual(t, first.Execution.ID, res.Execution.ID)
	h.settled.await(t, res.Execution.ID)

	stored, err := h.repo.FindJobExecutionByID(context.Background(), res.Execution.ID)
	assert.NoError(t, err)
	assert.Equal(t, model.ExecutionStatusCompleted, stored.Status)
	assert.Equal(t, 1, stored.RestartCount)
	assert.Equal(t, 1, stored.ProcessedCount)

	records := h.writer.writtenRecords()
	if assert.Len(t, records, 1) {
		assert.Equal(t, []string{"00000125"}, records[0].Segments)
	}

	record, err := h.repo.FindIdempotencyRecordByKey(context.Background(), "replay-2025-11-07")
	assert.NoError(t, err)
	assert.Equal(t, model.IdempotencyStatusCompleted, record.Status)
	assert.Equal(t, `{"records":1}`, string(record.Result))

	_, err = h.operator.Restart(context.Background(), res.Execution.ID)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not restartable")
}

func TestLaunch_EmptyJobCompletesWithNoRecords(t *testing.T) {
	h := newHarness(t, testConfig(), nil, emptyJob)

	res, err := h.coordinator.Launch(context.Background(), "empty-window", "", dateParams("2025-11-07"))
	assert.NoError(t, err)
	h.settled.await(t, res.Execution.ID)

	stored, err := h.repo.FindJobExecutionByID(context.Background(), res.Execution.ID)
	assert.NoError(t, err)
	assert.Equal(t, model.ExecutionStatusCompleted, stored.Status)
	assert.Equal(t, 0, stored.TotalCount)

	assert.True(t, h.writer.wasClosed(), "an empty job still produces its output file")
	assert.Empty(t, h.writer.writtenRecords())

	record, err := h.repo.FindIdempotencyRecordByKey(context.Background(), "empty-window:2025-11-07")
	assert.NoError(t, err)
	assert.Equal(t, model.IdempotencyStatusCompleted, record.Status)
	assert.Equal(t, `{"records":0}`, string(record.Result))
}
