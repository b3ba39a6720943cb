package app

import (
	"context"
	"time"

	"go.uber.org/fx"

	port "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/application/port"
	usecase "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/application/usecase"
	config "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/config"
	jobdef "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/config/jobdef"
	model "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/domain/model"
	repository "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/domain/repository"
	coreMetrics "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/metrics"

	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/component/migration"
	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/engine/idempotency"
	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/engine/merge"
	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/engine/partition"
	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/engine/sequencer"
	infraMetrics "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/infrastructure/metrics"
	batchlistener "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/listener"
	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/support/util/logger"
)

// stopSettleTimeout bounds how long shutdown waits for a stopped execution to
// settle before the process exits anyway.
const stopSettleTimeout = 30 * time.Second

// RunApplication loads the configuration, composes the platform modules and
// runs the fx application. It returns when the launched job has completed and
// the application has shut down.
func RunApplication(appCtx context.Context, envFilePath string, embeddedConfig config.EmbeddedConfig, definitions []jobdef.DefinitionBytes, jobDoneChan chan struct{}, extraOptions ...fx.Option) {
	cfg, err := config.LoadConfig(envFilePath, embeddedConfig)
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	logger.SetLogLevel(cfg.Fabric.System.Logging.Level)
	logger.Infof("Log level set to: %s", cfg.Fabric.System.Logging.Level)

	app := fx.New(ApplicationOptions(appCtx, cfg, definitions, jobDoneChan, extraOptions...)...)
	app.Run()

	if app.Err() != nil {
		logger.Fatalf("Application run failed: %v", app.Err())
	}
}

// ApplicationOptions builds the fx option set of the platform: the engine
// modules, the persistence stack selected from the configuration, and the
// hooks that load job definitions and launch the configured job. Extra
// options from the caller (demo seeding, test doubles) are appended before
// the launch hook.
func ApplicationOptions(appCtx context.Context, cfg *config.Config, definitions []jobdef.DefinitionBytes, jobDoneChan chan struct{}, extraOptions ...fx.Option) []fx.Option {
	options := []fx.Option{
		fx.Supply(
			cfg,
			fx.Annotate(appCtx, fx.As(new(context.Context)), fx.ResultTags(`name:"appCtx"`)),
		),
		fx.Provide(func() chan struct{} { return jobDoneChan }),

		logger.Module,
		config.Module,
		coreMetrics.Module,
		infraMetrics.Module,

		jobdef.Module,
		fx.Invoke(func(lc fx.Lifecycle, registry *jobdef.Registry) {
			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					logger.Infof("Loading job definitions.")
					documents := make([][]byte, len(definitions))
					for i, definition := range definitions {
						documents[i] = definition
					}
					return registry.LoadAll(documents...)
				},
			})
		}),

		idempotency.Module,
		sequencer.Module,
		partition.Module,
		merge.Module,
		usecase.Module,
		fx.Provide(func(repo repository.BatchRepository) *usecase.ExecutionAwaiter {
			return usecase.NewExecutionAwaiter(repo, 0)
		}),

		batchlistener.Module,
		// The completion signaler is registered here rather than in the listener
		// module because the application owns the channel it closes.
		fx.Provide(fx.Annotate(
			batchlistener.NewCompletionSignaler,
			fx.As(new(port.ExecutionListener)),
			fx.ResultTags(`group:"execution_listeners"`),
		)),

		migration.Module,
		Module,
	}

	options = append(options, DatabaseOptions(cfg)...)
	options = append(options, extraOptions...)

	options = append(options, fx.Invoke(fx.Annotate(startExecution, fx.ParamTags(
		"",              // lc fx.Lifecycle
		"",              // shutdowner fx.Shutdowner
		"",              // launcher usecase.ExecutionLauncher
		"",              // operator usecase.ExecutionOperator
		"",              // awaiter *usecase.ExecutionAwaiter
		"",              // cfg *config.Config
		"",              // jobDone chan struct{}
		`name:"appCtx"`, // appCtx context.Context
	))))
	return options
}

// startExecution registers the hook that launches the configured job when the
// application starts.
func startExecution(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	launcher usecase.ExecutionLauncher,
	operator usecase.ExecutionOperator,
	awaiter *usecase.ExecutionAwaiter,
	cfg *config.Config,
	jobDone chan struct{},
	appCtx context.Context,
) {
	lc.Append(fx.Hook{
		OnStart: onStartExecution(launcher, operator, awaiter, cfg, shutdowner, jobDone, appCtx),
		OnStop:  onStopApplication(),
	})
}

// onStartExecution launches the configured job in a goroutine and waits for
// its completion signal. The goroutine requests application shutdown when the
// job is done, whatever the outcome.
func onStartExecution(
	launcher usecase.ExecutionLauncher,
	operator usecase.ExecutionOperator,
	awaiter *usecase.ExecutionAwaiter,
	cfg *config.Config,
	shutdowner fx.Shutdowner,
	jobDone chan struct{},
	appCtx context.Context,
) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		go func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Errorf("Panic recovered in job execution: %v", r)
				}
				logger.Infof("Requesting application shutdown after job completion.")
				if err := shutdowner.Shutdown(); err != nil {
					logger.Errorf("Failed to shutdown application: %v", err)
				}
			}()

			jobName := cfg.Fabric.Batch.JobName
			logger.Infof("Starting execution of job '%s'...", jobName)

			params := model.NewExecutionParameters()

			result, err := launcher.Launch(appCtx, jobName, "", params)
			if err != nil {
				logger.Errorf("Failed to launch job '%s': %v", jobName, err)
				return
			}

			switch result.Outcome {
			case model.OutcomeReturnCached:
				logger.Infof("Job '%s' already completed for this business date. Cached result: %s",
					jobName, string(result.CachedResult))
				return
			case model.OutcomeConflict:
				logger.Warnf("Job '%s' rejected: another submission holds its idempotency key.", jobName)
				return
			}

			execution := result.Execution
			logger.Infof("Job '%s' launched successfully. Execution ID: %s", jobName, execution.ID)

			select {
			case <-jobDone:
				reportFinalState(awaiter, jobName, execution.ID)

			case <-appCtx.Done():
				logger.Warnf("Shutdown requested. Stopping job '%s' (Execution ID: %s)...", jobName, execution.ID)
				stopCtx, cancel := context.WithTimeout(context.Background(), stopSettleTimeout)
				defer cancel()
				if stopErr := operator.Stop(stopCtx, execution.ID); stopErr != nil {
					logger.Errorf("Failed to request stop of execution %s: %v", execution.ID, stopErr)
				}
				final, awaitErr := awaiter.AwaitCompletion(stopCtx, execution.ID)
				if awaitErr != nil {
					logger.Errorf("Execution %s did not settle before shutdown: %v", execution.ID, awaitErr)
					return
				}
				logFinalState(jobName, final)
			}
		}()
		return nil
	}
}

// reportFinalState fetches and logs the terminal state of an execution whose
// completion was already signaled. The fetch is bounded so a repository
// outage cannot wedge shutdown.
func reportFinalState(awaiter *usecase.ExecutionAwaiter, jobName, executionID string) {
	fetchCtx, cancel := context.WithTimeout(context.Background(), stopSettleTimeout)
	defer cancel()
	final, err := awaiter.AwaitCompletion(fetchCtx, executionID)
	if err != nil {
		logger.Errorf("Failed to fetch final state of execution %s: %v", executionID, err)
		return
	}
	logFinalState(jobName, final)
}

func logFinalState(jobName string, execution *model.JobExecution) {
	logger.Infof("Job '%s' (Execution ID: %s) finished with status %s: %d processed, %d failed of %d records.",
		jobName, execution.ID, execution.Status,
		execution.ProcessedCount, execution.ErrorCount, execution.TotalCount)
	if execution.Status != model.ExecutionStatusCompleted {
		logger.Warnf("Execution %s did not complete (failure class: %s).", execution.ID, execution.FailureClass)
	}
}

// onStopApplication logs application shutdown.
func onStopApplication() func(ctx context.Context) error {
	return func(ctx context.Context) error {
		logger.Infof("Application is shutting down.")
		return nil
	}
}
