package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/fx"

	port "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/application/port"
	config "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/config"
	jobdef "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/config/jobdef"
	model "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/domain/model"
	repository "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/domain/repository"
	metrics "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/metrics"
	threshold "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/threshold"
	idempotency "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/engine/idempotency"
	partition "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/engine/partition"
	template "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/engine/template"
	exception "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/support/util/exception"
	logger "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/support/util/logger"
)

// CoordinatorParams defines the dependencies for NewDefaultExecutionCoordinator.
type CoordinatorParams struct {
	fx.In
	Cfg         *config.Config
	Definitions *jobdef.Registry
	Repo        repository.BatchRepository
	Guard       port.IdempotencyGuard
	Sequencer   port.TransactionSequencer
	Processor   port.PartitionProcessor
	Merger      port.ResultMerger
	Reader      port.SourceReader
	Writer      port.OutputWriter
	Archiver    port.StagingArchiver `optional:"true"`
	Recorder    metrics.MetricRecorder
	Tracer      metrics.Tracer

	ExecutionListeners    []port.ExecutionListener    `group:"execution_listeners"`
	PartitionListeners    []port.PartitionListener    `group:"partition_listeners"`
	NotificationListeners []port.NotificationListener `group:"notification_listeners"`
}

// DefaultExecutionCoordinator drives the full lifecycle of a job execution:
// idempotency claim, source staging, wave sequencing, partition dispatch,
// deterministic merge, output writing, and terminal settlement. It is the
// only component that mutates a JobExecution.
type DefaultExecutionCoordinator struct {
	cfg         *config.Config
	definitions *jobdef.Registry
	repo        repository.BatchRepository
	guard       port.IdempotencyGuard
	sequencer   port.TransactionSequencer
	processor   port.PartitionProcessor
	merger      port.ResultMerger
	reader      port.SourceReader
	writer      port.OutputWriter
	archiver    port.StagingArchiver
	recorder    metrics.MetricRecorder
	tracer      metrics.Tracer

	executionListeners    []port.ExecutionListener
	partitionListeners    []port.PartitionListener
	notificationListeners []port.NotificationListener

	location *time.Location

	// activeCancellations holds the cancel functions of running executions.
	activeCancellations map[string]context.CancelFunc
	mu                  sync.Mutex
}

// Verify that DefaultExecutionCoordinator implements the ExecutionLauncher interface.
var _ ExecutionLauncher = (*DefaultExecutionCoordinator)(nil)

// NewDefaultExecutionCoordinator creates a new DefaultExecutionCoordinator.
func NewDefaultExecutionCoordinator(p CoordinatorParams) *DefaultExecutionCoordinator {
	location, err := time.LoadLocation(p.Cfg.Fabric.System.Timezone)
	if err != nil {
		logger.Warnf("Unknown timezone '%s', falling back to UTC: %v", p.Cfg.Fabric.System.Timezone, err)
		location = time.UTC
	}
	return &DefaultExecutionCoordinator{
		cfg:                   p.Cfg,
		definitions:           p.Definitions,
		repo:                  p.Repo,
		guard:                 p.Guard,
		sequencer:             p.Sequencer,
		processor:             p.Processor,
		merger:                p.Merger,
		reader:                p.Reader,
		writer:                p.Writer,
		archiver:              p.Archiver,
		recorder:              p.Recorder,
		tracer:                p.Tracer,
		executionListeners:    p.ExecutionListeners,
		partitionListeners:    p.PartitionListeners,
		notificationListeners: p.NotificationListeners,
		location:              location,
		activeCancellations:   make(map[string]context.CancelFunc),
	}
}

// registerCancelFunc registers the cancel function for a running execution.
func (c *DefaultExecutionCoordinator) registerCancelFunc(executionID string, cancelFunc context.CancelFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.activeCancellations[executionID] = cancelFunc
	logger.Debugf("Registered CancelFunc for JobExecution (ID: %s).", executionID)
}

// unregisterCancelFunc unregisters the cancel function for an execution.
func (c *DefaultExecutionCoordinator) unregisterCancelFunc(executionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.activeCancellations[executionID]; ok {
		delete(c.activeCancellations, executionID)
		logger.Debugf("Unregistered CancelFunc for JobExecution (ID: %s).", executionID)
	}
}

// GetCancelFunc retrieves the cancel function for the specified execution ID.
func (c *DefaultExecutionCoordinator) GetCancelFunc(executionID string) (context.CancelFunc, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cancelFunc, ok := c.activeCancellations[executionID]
	return cancelFunc, ok
}

// Launch submits the named job for asynchronous execution.
func (c *DefaultExecutionCoordinator) Launch(ctx context.Context, jobName, idempotencyKey string, params model.ExecutionParameters) (*LaunchResult, error) {
	return c.submit(ctx, jobName, idempotencyKey, params, nil)
}

// Relaunch submits a fresh execution continuing a failed or stopped one. The
// previous execution's idempotency key and parameters are reused so the guard
// applies its retry cooldown, and the restart lineage is carried forward.
func (c *DefaultExecutionCoordinator) Relaunch(ctx context.Context, prev *model.JobExecution) (*LaunchResult, error) {
	return c.submit(ctx, prev.JobName, prev.IdempotencyKey, prev.Parameters, prev)
}

// submit runs the launch protocol: resolve the job definition, claim the
// idempotency key, persist the new execution, and hand it to the asynchronous
// run loop. Only a PROCEED decision reaches the run loop; RETURN_CACHED and
// CONFLICT are normal outcomes reported in the LaunchResult.
func (c *DefaultExecutionCoordinator) submit(ctx context.Context, jobName, idempotencyKey string, params model.ExecutionParameters, prev *model.JobExecution) (*LaunchResult, error) {
	logger.Infof("Launching job '%s'. Parameters: %s", jobName, params.String())

	def, ok := c.definitions.Get(jobName)
	if !ok {
		return nil, exception.NewConfigurationError("coordinator",
			fmt.Sprintf("no job definition registered under '%s'", jobName), nil)
	}
	batchCfg, err := def.EffectiveBatchConfig(c.cfg.Fabric.Batch)
	if err != nil {
		return nil, err
	}
	mode, err := model.ParseProcessingMode(batchCfg.ProcessingMode)
	if err != nil {
		return nil, exception.NewConfigurationError("coordinator",
			fmt.Sprintf("job '%s' has an invalid processing mode", jobName), err)
	}

	businessDate := c.businessDate(params)
	key := idempotencyKey
	if key == "" {
		key = fmt.Sprintf("%s:%s", jobName, businessDate)
		logger.Debugf("Derived idempotency key '%s' for job '%s'.", key, jobName)
	}

	execution := model.NewJobExecution(jobName, businessDate, mode, params)
	execution.IdempotencyKey = key
	if prev != nil {
		execution.RestartCount = prev.RestartCount + 1
	}

	fingerprint := idempotency.Fingerprint(jobName, params)
	decision, err := c.guard.Begin(ctx, key, fingerprint, execution.ID)
	if err != nil {
		return nil, err
	}
	switch decision.Outcome {
	case model.OutcomeReturnCached:
		logger.Infof("Job '%s' (key: %s) already completed; returning cached result without executing.", jobName, key)
		return &LaunchResult{Outcome: model.OutcomeReturnCached, CachedResult: decision.CachedResult}, nil
	case model.OutcomeConflict:
		logger.Warnf("Job '%s' (key: %s) rejected: another submission holds the key.", jobName, key)
		return &LaunchResult{Outcome: model.OutcomeConflict}, nil
	}

	jobCtx, cancel := context.WithCancel(ctx)
	execution.CancelFunc = cancel
	c.registerCancelFunc(execution.ID, cancel)

	if err := c.repo.SaveJobExecution(jobCtx, execution); err != nil {
		c.unregisterCancelFunc(execution.ID)
		cancel()
		if failErr := c.guard.Fail(ctx, key, "execution could not be persisted"); failErr != nil {
			logger.Warnf("Failed to release idempotency key '%s' after save failure: %v", key, failErr)
		}
		return nil, exception.NewInfrastructureError("coordinator",
			fmt.Sprintf("failed to persist new JobExecution for job '%s'", jobName), err)
	}
	logger.Infof("Starting execution %s of job '%s' (mode: %s, business date: %s).",
		execution.ID, jobName, mode, businessDate)

	go c.run(jobCtx, execution, def, batchCfg)

	return &LaunchResult{Outcome: model.OutcomeProceed, Execution: execution}, nil
}

// businessDate resolves the business date of a launch: the businessDate
// parameter when present, today's date in the configured timezone otherwise.
func (c *DefaultExecutionCoordinator) businessDate(params model.ExecutionParameters) string {
	if date, ok := params.GetString("businessDate"); ok && date != "" {
		return date
	}
	return time.Now().In(c.location).Format("2006-01-02")
}

// run is the asynchronous execution loop. It owns the execution's span,
// lifecycle listeners and cancel bookkeeping; the business phases live in
// execute.
func (c *DefaultExecutionCoordinator) run(ctx context.Context, execution *model.JobExecution, def *jobdef.JobDefinition, batchCfg config.BatchConfig) {
	defer func() {
		c.unregisterCancelFunc(execution.ID)
		if execution.CancelFunc != nil {
			execution.CancelFunc()
		}
	}()

	runCtx, finish := c.tracer.StartExecutionSpan(ctx, execution)
	defer finish()
	runCtx = port.ContextWithJobExecution(runCtx, execution)

	c.recorder.RecordExecutionStart(runCtx, execution)
	for _, l := range c.executionListeners {
		l.BeforeExecution(runCtx, execution)
	}

	c.execute(runCtx, execution, def, batchCfg)

	for _, l := range c.executionListeners {
		l.AfterExecution(runCtx, execution)
	}
	for _, l := range c.notificationListeners {
		l.OnExecutionCompletion(runCtx, execution)
	}
	c.recorder.RecordExecutionEnd(runCtx, execution)
}

// execute drives the phases of one run: staging, wave planning, wave
// dispatch, threshold disposition, merge and output. Every exit path settles
// the execution into a terminal status, settles the idempotency key, and
// cleans up staging.
func (c *DefaultExecutionCoordinator) execute(ctx context.Context, execution *model.JobExecution, def *jobdef.JobDefinition, batchCfg config.BatchConfig) {
	// Terminal settlement must survive the stop signal's context cancellation.
	settleCtx := context.WithoutCancel(ctx)

	if err := c.stage(ctx, execution, def); err != nil {
		if ctx.Err() != nil {
			c.finishStopped(settleCtx, execution, batchCfg)
			return
		}
		c.finishFailed(settleCtx, execution, batchCfg, err)
		return
	}

	waves, err := c.planWaves(execution.Mode, def)
	if err != nil {
		c.finishFailed(settleCtx, execution, batchCfg, err)
		return
	}

	execution.MarkAsRunning()
	c.persistProgress(ctx, execution)

	results, runErr := c.runWaves(ctx, execution, def, batchCfg, waves)
	if ctx.Err() != nil {
		c.finishStopped(settleCtx, execution, batchCfg)
		return
	}
	if runErr != nil {
		c.finishFailed(settleCtx, execution, batchCfg, runErr)
		return
	}

	policy := threshold.NewPolicy(batchCfg.ErrorThresholdPercent)
	if policy.Exceeded(execution.ErrorCount, execution.TotalCount) {
		execution.MarkAsThresholdExceeded(execution.ErrorCount, execution.TotalCount,
			float64(batchCfg.ErrorThresholdPercent))
		c.settleTerminal(settleCtx, execution, batchCfg, nil,
			fmt.Sprintf("error threshold exceeded: %d of %d records failed", execution.ErrorCount, execution.TotalCount))
		logger.Errorf("Execution %s failed: error count %d of %d exceeds threshold of %d%%.",
			execution.ID, execution.ErrorCount, execution.TotalCount, batchCfg.ErrorThresholdPercent)
		return
	}

	mergeStart := time.Now()
	records, err := c.merger.Merge(waves, results)
	if err != nil {
		c.finishFailed(settleCtx, execution, batchCfg, err)
		return
	}
	c.recorder.RecordDuration(ctx, "merge_duration", time.Since(mergeStart), map[string]string{"job": execution.JobName})

	if err := c.writeOutput(ctx, execution, def, records); err != nil {
		c.finishFailed(settleCtx, execution, batchCfg, err)
		return
	}

	result, err := json.Marshal(struct {
		Records int `json:"records"`
	}{Records: len(records)})
	if err != nil {
		c.finishFailed(settleCtx, execution, batchCfg, exception.NewInfrastructureError("coordinator",
			"failed to encode completion result", err))
		return
	}

	execution.MarkAsCompleted()
	c.settleTerminal(settleCtx, execution, batchCfg, result, "")
	logger.Infof("Execution %s of job '%s' completed: %d processed, %d failed of %d records.",
		execution.ID, execution.JobName, execution.ProcessedCount, execution.ErrorCount, execution.TotalCount)
}

// stage reads every transaction type's source rows and parks them in the
// staging store. Records are staged before any wave runs so the per-execution
// sequence numbers fully determine the intra-partition order.
func (c *DefaultExecutionCoordinator) stage(ctx context.Context, execution *model.JobExecution, def *jobdef.JobDefinition) error {
	for _, t := range def.TransactionTypes {
		if err := ctx.Err(); err != nil {
			return err
		}
		count, err := c.stageType(ctx, execution, t)
		if err != nil {
			return err
		}
		logger.Infof("Staged %d source records of type '%s' for execution %s.", count, t.Code, execution.ID)
		c.recorder.RecordStaged(ctx, t.Code, count)
	}
	return nil
}

func (c *DefaultExecutionCoordinator) stageType(ctx context.Context, execution *model.JobExecution, t jobdef.TransactionTypeDef) (int, error) {
	if err := c.reader.Open(ctx, t.Selector); err != nil {
		return 0, c.asInfrastructure(err, fmt.Sprintf("failed to open source for transaction type '%s'", t.Code))
	}
	defer func() {
		if err := c.reader.Close(ctx); err != nil {
			logger.Warnf("Failed to close source reader for type '%s': %v", t.Code, err)
		}
	}()

	count := 0
	for {
		payload, err := c.reader.Read(ctx)
		if errors.Is(err, port.ErrNoMoreRecords) {
			break
		}
		if err != nil {
			return count, c.asInfrastructure(err, fmt.Sprintf("failed to read source for transaction type '%s'", t.Code))
		}
		record := model.NewStagingRecord(execution.ID, t.Code, payload)
		if _, err := c.repo.InsertStagingRecord(ctx, record); err != nil {
			return count, c.asInfrastructure(err, fmt.Sprintf("failed to stage record of type '%s'", t.Code))
		}
		count++
	}
	return count, nil
}

// asInfrastructure wraps an error as an infrastructure failure unless a
// component already classified it.
func (c *DefaultExecutionCoordinator) asInfrastructure(err error, message string) error {
	if exception.IsBatchError(err) {
		return err
	}
	return exception.NewInfrastructureError("coordinator", message, err)
}

// planWaves computes the wave schedule. Simple mode is a single wave holding
// every transaction type in the shared ordering; complex mode resolves the
// declared dependencies into sequential waves.
func (c *DefaultExecutionCoordinator) planWaves(mode model.ProcessingMode, def *jobdef.JobDefinition) ([]model.ExecutionWave, error) {
	types := def.Types()
	if mode == model.ProcessingModeSimple {
		if len(types) == 0 {
			return []model.ExecutionWave{}, nil
		}
		model.SortTransactionTypes(types)
		return []model.ExecutionWave{{Index: 0, Types: types}}, nil
	}
	return c.sequencer.BuildWaves(types)
}

// runWaves dispatches the waves strictly in order. The worker pool's RunWave
// is the wave barrier: the next wave is not submitted until every partition
// of the current one reported a terminal outcome. A failed partition aborts
// the remaining waves; its siblings in the same wave still run to completion.
func (c *DefaultExecutionCoordinator) runWaves(ctx context.Context, execution *model.JobExecution, def *jobdef.JobDefinition, batchCfg config.BatchConfig, waves []model.ExecutionWave) (map[string]*model.PartitionResult, error) {
	pool := partition.NewWorkerPool(batchCfg.ParallelThreads, c.processor)
	mappings := def.MappingsByType()
	results := make(map[string]*model.PartitionResult, len(def.TransactionTypes))

	for _, wave := range waves {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		logger.Infof("Execution %s: dispatching wave %d with %d partition(s).", execution.ID, wave.Index, len(wave.Types))

		tasks := make([]partition.PartitionTask, len(wave.Types))
		for i, t := range wave.Types {
			if err := c.repo.MarkDependencyMet(ctx, execution.ID, t.Code); err != nil {
				return results, c.asInfrastructure(err, fmt.Sprintf("failed to release staged records of type '%s'", t.Code))
			}
			tasks[i] = partition.PartitionTask{Type: t, Mappings: mappings[t.Code]}
			c.recorder.RecordPartitionStart(ctx, t.Code, wave.Index)
			for _, l := range c.partitionListeners {
				l.BeforePartition(ctx, execution, t)
			}
		}

		outcomes := pool.RunWave(ctx, execution, tasks)

		var waveErr error
		for _, outcome := range outcomes {
			if outcome.Result != nil {
				results[outcome.Type.Code] = outcome.Result
				execution.AccumulateCounts(outcome.Result)
				c.recorder.RecordPartitionEnd(ctx, outcome.Type.Code, outcome.Result)
				for _, l := range c.partitionListeners {
					l.AfterPartition(ctx, execution, outcome.Result)
				}
			}
			if outcome.Err != nil {
				execution.AddFailureException(outcome.Err)
				if waveErr == nil {
					waveErr = outcome.Err
				}
			}
		}
		c.persistProgress(ctx, execution)

		if waveErr != nil {
			logger.Errorf("Execution %s: wave %d failed, aborting remaining waves: %v", execution.ID, wave.Index, waveErr)
			return results, waveErr
		}
	}
	return results, nil
}

// persistProgress updates the stored execution between phases. A failed
// progress update is logged but does not fail the run; the terminal
// settlement performs the authoritative update.
func (c *DefaultExecutionCoordinator) persistProgress(ctx context.Context, execution *model.JobExecution) {
	if err := c.repo.UpdateJobExecution(ctx, execution); err != nil {
		logger.Warnf("Failed to persist progress of JobExecution (ID: %s): %v", execution.ID, err)
	}
}

// writeOutput renders the header and footer and hands the merged records to
// the output writer.
func (c *DefaultExecutionCoordinator) writeOutput(ctx context.Context, execution *model.JobExecution, def *jobdef.JobDefinition, records []model.OutputRecord) error {
	builder := template.NewSummaryBuilder(def.MappingsByType())
	for _, record := range records {
		builder.Add(record)
	}
	builder.AddFailed(int64(execution.ErrorCount))

	vars := c.templateVars(execution)
	generator := template.NewGenerator(def.Output.Header, def.Output.Footer)
	header, err := generator.Header(vars)
	if err != nil {
		return err
	}
	footer, err := generator.Footer(vars, builder.Summary())
	if err != nil {
		return err
	}

	if err := c.writer.Open(ctx, execution, def.Output); err != nil {
		return c.asInfrastructure(err, "failed to open output")
	}
	if err := c.writeParts(ctx, header, footer, records); err != nil {
		if closeErr := c.writer.Close(ctx); closeErr != nil {
			logger.Warnf("Failed to close output writer of execution %s after write error: %v", execution.ID, closeErr)
		}
		return c.asInfrastructure(err, "failed to write output")
	}
	if err := c.writer.Close(ctx); err != nil {
		return c.asInfrastructure(err, "failed to finalize output")
	}
	return nil
}

func (c *DefaultExecutionCoordinator) writeParts(ctx context.Context, header, footer string, records []model.OutputRecord) error {
	if header != "" {
		if err := c.writer.WriteHeader(ctx, header); err != nil {
			return err
		}
	}
	if err := c.writer.WriteRecords(ctx, records); err != nil {
		return err
	}
	if footer != "" {
		if err := c.writer.WriteFooter(ctx, footer); err != nil {
			return err
		}
	}
	return nil
}

// templateVars is the substitution variable set available to header, footer
// and output path templates.
func (c *DefaultExecutionCoordinator) templateVars(execution *model.JobExecution) map[string]string {
	return map[string]string{
		"jobName":      execution.JobName,
		"executionId":  execution.ID,
		"businessDate": execution.BusinessDate,
		"timestamp":    time.Now().In(c.location).Format("20060102150405"),
	}
}

// finishFailed marks the execution FAILED with the given cause and settles it.
func (c *DefaultExecutionCoordinator) finishFailed(ctx context.Context, execution *model.JobExecution, batchCfg config.BatchConfig, cause error) {
	execution.MarkAsFailed(cause)
	c.settleTerminal(ctx, execution, batchCfg, nil, exception.ExtractErrorMessage(cause))
	logger.Errorf("Execution %s of job '%s' failed (%s): %v",
		execution.ID, execution.JobName, execution.FailureClass, cause)
}

// finishStopped settles an externally cancelled execution. Partition results
// are discarded: a stopped execution produces no merged output.
func (c *DefaultExecutionCoordinator) finishStopped(ctx context.Context, execution *model.JobExecution, batchCfg config.BatchConfig) {
	execution.MarkAsStopped()
	c.settleTerminal(ctx, execution, batchCfg, nil, "stopped by operator request")
	logger.Infof("Execution %s of job '%s' stopped: %d processed, %d failed of %d records before the stop.",
		execution.ID, execution.JobName, execution.ProcessedCount, execution.ErrorCount, execution.TotalCount)
}

// settleTerminal persists the terminal execution state, settles the
// idempotency key, and purges or retains the staging records. Completion
// stores the result payload for replay; failure and stop release the key into
// FAILED so a later submission can retry after the cooldown.
func (c *DefaultExecutionCoordinator) settleTerminal(ctx context.Context, execution *model.JobExecution, batchCfg config.BatchConfig, result []byte, reason string) {
	if err := c.repo.UpdateJobExecution(ctx, execution); err != nil {
		logger.Errorf("Failed to persist terminal state of JobExecution (ID: %s): %v", execution.ID, err)
	}

	if execution.Status == model.ExecutionStatusCompleted {
		if err := c.guard.Complete(ctx, execution.IdempotencyKey, result); err != nil {
			logger.Errorf("Failed to complete idempotency key '%s': %v", execution.IdempotencyKey, err)
		}
	} else {
		if err := c.guard.Fail(ctx, execution.IdempotencyKey, reason); err != nil {
			logger.Errorf("Failed to release idempotency key '%s': %v", execution.IdempotencyKey, err)
		}
	}

	c.cleanupStaging(ctx, execution, batchCfg)
}

// cleanupStaging purges the execution's staging records, or retains and
// archives them when the job keeps failed runs for diagnosis.
func (c *DefaultExecutionCoordinator) cleanupStaging(ctx context.Context, execution *model.JobExecution, batchCfg config.BatchConfig) {
	if execution.Status != model.ExecutionStatusCompleted && batchCfg.StagingRetentionOnFailure {
		logger.Infof("Retaining staging records of execution %s for diagnosis.", execution.ID)
		if c.archiver == nil {
			return
		}
		records, err := c.repo.ListStagingRecords(ctx, execution.ID)
		if err != nil {
			logger.Warnf("Failed to list staging records of execution %s for archiving: %v", execution.ID, err)
			return
		}
		if err := c.archiver.Archive(ctx, execution, records); err != nil {
			logger.Warnf("Failed to archive staging records of execution %s: %v", execution.ID, err)
		}
		return
	}

	purged, err := c.repo.PurgeStagingRecords(ctx, execution.ID)
	if err != nil {
		logger.Errorf("Failed to purge staging records of execution %s: %v", execution.ID, err)
		return
	}
	logger.Debugf("Purged %d staging records of execution %s.", purged, execution.ID)
}
