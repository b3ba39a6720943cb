package config

// Package config provides structures and utilities for managing application configuration.

// EmbeddedConfig holds the content of the configuration file, typically passed from main.go.
// This is used when loading configuration from an embedded source (e.g., a compiled binary).
type EmbeddedConfig []byte

// LogLevel defines the logging level for the application.
// It is used to control the verbosity of log output.
type LogLevel string

const (
	LogLevelTrace  LogLevel = "TRACE"
	LogLevelDebug  LogLevel = "DEBUG"
	LogLevelInfo   LogLevel = "INFO"
	LogLevelWarn   LogLevel = "WARN"
	LogLevelError  LogLevel = "ERROR"
	LogLevelFatal  LogLevel = "FATAL"
	LogLevelSilent LogLevel = "SILENT"
)

// ClassificationConfig lists error class names used to classify failures raised
// while processing a record. Names must be registered in the exception registry.
type ClassificationConfig struct {
	// SkippableExceptions are error classes treated as per-record validation
	// failures. The record is routed to the failed set and counted against the
	// error threshold; the partition keeps going.
	SkippableExceptions []string `yaml:"skippable_exceptions"`
	// RetryableExceptions are error classes treated as infrastructure failures.
	// The execution fails but stays restartable once the cause clears.
	RetryableExceptions []string `yaml:"retryable_exceptions"`
}

// IdempotencyConfig holds settings for the execution idempotency guard.
type IdempotencyConfig struct {
	// TTLHours is the lifetime of an idempotency record. Expired records are
	// treated as absent, allowing the same key to start a fresh execution.
	TTLHours int `yaml:"ttl_hours"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// MaskedParameterKeys is a list of keys in ExecutionParameters whose values should be masked in logs.
	MaskedParameterKeys []string `yaml:"masked_parameter_keys"`
}

// BatchConfig holds configuration specific to the batch processing engine.
// Job definitions may override these values per job; a zero value in the job
// definition falls back to the setting here.
type BatchConfig struct {
	// JobName is the default job name if not specified on the command line.
	JobName string `yaml:"job_name"`
	// ProcessingMode selects how partitions are dispatched: "SIMPLE" runs every
	// wave on a single worker, "COMPLEX" fans independent partitions out to the
	// worker pool.
	ProcessingMode string `yaml:"processing_mode"`
	// ParallelThreads is the worker pool size for COMPLEX mode. Must be >= 1.
	ParallelThreads int `yaml:"parallel_threads"`
	// ChunkSize is the number of staged records fetched and processed per batch. Must be >= 1.
	ChunkSize int `yaml:"chunk_size"`
	// ErrorThresholdPercent is the tolerated percentage of failed records,
	// 0 to 100. An execution whose failure ratio exceeds it is marked FAILED.
	ErrorThresholdPercent int `yaml:"error_threshold_percent"`
	// RetryCooldownSeconds is the wait imposed on an idempotency key after a
	// failed execution before the same key may begin again. Must be >= 0.
	RetryCooldownSeconds int `yaml:"retry_cooldown_seconds"`
	// StagingRetentionOnFailure keeps staged records after a failed execution
	// for inspection instead of purging them.
	StagingRetentionOnFailure bool `yaml:"staging_retention_on_failure"`
	// Idempotency holds idempotency guard settings.
	Idempotency IdempotencyConfig `yaml:"idempotency"`
	// Classification maps unexpected record-processing errors onto the failure taxonomy.
	Classification ClassificationConfig `yaml:"classification"`
	// MetricsAsyncBufferSize is the buffer size for asynchronous metric recording.
	MetricsAsyncBufferSize int `yaml:"metrics_async_buffer_size"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the logging level (e.g., "INFO", "DEBUG", "TRACE").
	Level string `yaml:"level"`
}

// SystemConfig holds system-wide settings.
type SystemConfig struct {
	// Timezone is the application timezone (e.g., "UTC", "Asia/Tokyo").
	Timezone string `yaml:"timezone"`
	// Logging is the logging configuration.
	Logging LoggingConfig `yaml:"logging"`
}

// InfrastructureConfig holds logical dependency settings for infrastructure components.
type InfrastructureConfig struct {
	// RepositoryDBRef is the name of the DBConnection backing the execution,
	// staging and idempotency repositories (e.g., "metadata").
	RepositoryDBRef string `yaml:"repository_db_ref"`
	// SourceDBRef is the name of the DBConnection holding the source table the
	// reader ingests from. Empty means the repository connection is shared.
	SourceDBRef string `yaml:"source_db_ref"`
	// SourceTable is the table the source reader selects records from.
	SourceTable string `yaml:"source_table"`
	// OutputStorageRef is the name of the StorageConnection that receives
	// generated output files and archived staging data (e.g., "output").
	OutputStorageRef string `yaml:"output_storage_ref"`
}

// MetricsConfig selects the metric recording backend.
type MetricsConfig struct {
	// Exporter is one of "prometheus", "otlp" or "noop".
	Exporter string `yaml:"exporter"`
	// Port is the listen port of the Prometheus scrape endpoint.
	Port int `yaml:"port"`
	// Endpoint is the OTLP collector endpoint, used when Exporter is "otlp".
	Endpoint string `yaml:"endpoint"`
	// Protocol is the OTLP transport, "grpc" or "http".
	Protocol string `yaml:"protocol"`
	// Insecure disables TLS towards the OTLP collector.
	Insecure bool `yaml:"insecure"`
}

// TracingConfig selects the trace exporting backend.
type TracingConfig struct {
	// Enabled turns span export on. When false, tracing falls back to log output.
	Enabled bool `yaml:"enabled"`
	// Endpoint is the OTLP collector endpoint.
	Endpoint string `yaml:"endpoint"`
	// Protocol is the OTLP transport, "grpc" or "http".
	Protocol string `yaml:"protocol"`
	// Insecure disables TLS towards the OTLP collector.
	Insecure bool `yaml:"insecure"`
}

// FabricConfig holds all configuration under the "fabric" top-level key.
type FabricConfig struct {
	// Batch contains batch processing specific configurations.
	Batch BatchConfig `yaml:"batch"`
	// System contains system-wide configurations.
	System SystemConfig `yaml:"system"`
	// Infrastructure contains infrastructure-related configurations.
	Infrastructure InfrastructureConfig `yaml:"infrastructure"`
	// Security contains security-related configurations.
	Security SecurityConfig `yaml:"security"`
	// Metrics contains metric exporter configuration.
	Metrics MetricsConfig `yaml:"metrics"`
	// Tracing contains trace exporter configuration.
	Tracing TracingConfig `yaml:"tracing"`
	// Databases holds named database connection configurations, decoded lazily
	// by the database adapter that owns the connection type.
	Databases map[string]interface{} `yaml:"database"`
	// Storages holds named storage connection configurations, decoded lazily
	// by the storage adapter that owns the connection type.
	Storages map[string]interface{} `yaml:"storage"`
}

// Config is the root structure for the entire application configuration.
type Config struct {
	// Fabric contains the top-level configuration for the Fabric batch platform.
	Fabric FabricConfig `yaml:"fabric"`
	// EmbeddedConfig holds configuration loaded from an embedded source, not from YAML.
	EmbeddedConfig EmbeddedConfig `yaml:"-"`
}

// GlobalConfig is a pointer to the configuration instance shared across the application.
// It is expected to be set via fx.Supply or fx.Provide.
var GlobalConfig *Config

// GetMaskedParameterKeys retrieves the list of keys to be masked from the global configuration.
//
// Returns:
//
//	A slice of strings representing the keys whose values should be masked.
func GetMaskedParameterKeys() []string {
	if GlobalConfig == nil {
		return []string{}
	}
	return GlobalConfig.Fabric.Security.MaskedParameterKeys
}

// NewConfig returns a new instance of Config with default values.
//
// Returns:
//
//	A pointer to a new Config instance initialized with default settings.
func NewConfig() *Config {
	cfg := &Config{
		Fabric: FabricConfig{
			System: SystemConfig{
				Timezone: "UTC", // Default value set to UTC
				Logging:  LoggingConfig{Level: "INFO"},
			},
			Batch: BatchConfig{
				JobName:                   "", // Default job name is empty. Expected to be set by the application or the job definition.
				ProcessingMode:            "SIMPLE",
				ParallelThreads:           4,
				ChunkSize:                 100,
				ErrorThresholdPercent:     0, // Default is zero tolerance: any failed record fails the execution.
				RetryCooldownSeconds:      300,
				StagingRetentionOnFailure: false,
				Idempotency: IdempotencyConfig{
					TTLHours: 24,
				},
				Classification: ClassificationConfig{ // Default failure classification.
					SkippableExceptions: []string{
						"strconv.NumError",
					},
					RetryableExceptions: []string{
						"net.OpError",
						"context.DeadlineExceeded",
					},
				},
				MetricsAsyncBufferSize: 100, // Default buffer size for asynchronous metrics.
			},
			Infrastructure: InfrastructureConfig{ // Default values.
				RepositoryDBRef:  "metadata",
				SourceTable:      "fabric_source_record",
				OutputStorageRef: "output",
			},
			Security: SecurityConfig{ // Default values.
				MaskedParameterKeys: []string{"password", "api_key", "secret"},
			},
			Metrics: MetricsConfig{
				Exporter: "prometheus",
				Port:     9464,
				Protocol: "grpc",
			},
			Tracing: TracingConfig{
				Enabled:  false,
				Protocol: "grpc",
			},
		},
	}

	// Initialize connection maps as empty, to be populated by YAML or by mergeConfig.
	cfg.Fabric.Databases = map[string]interface{}{}
	cfg.Fabric.Storages = map[string]interface{}{}
	return cfg
}
