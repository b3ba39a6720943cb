package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/support/util/exception"
	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/support/util/logger"

	"go.uber.org/fx"
)

// Package config provides utilities for loading and managing application configuration
// from various sources, including YAML files and environment variables.

const moduleName = "config"

// ConfigParams defines the dependencies for NewConfigProvider.
type ConfigParams struct {
	fx.In
	EmbeddedConfig EmbeddedConfig // EmbeddedConfig contains the raw bytes of the configuration file.
	EnvFilePath    string         `name:"envFilePath" optional:"true"` // EnvFilePath is the path to the .env file, if any.
}

// loadConfig loads configuration from a file and environment variables.
// This function is intended to be called only once during application startup.
//
// Parameters:
//   envFilePath: The path to the .env file.
//   embeddedConfig: The embedded configuration bytes.
// Returns:
//   A pointer to the loaded Config and an error if loading fails.
func loadConfig(envFilePath string, embeddedConfig EmbeddedConfig) (*Config, error) {
	if envFilePath != "" {
		if err := godotenv.Load(envFilePath); err != nil {
			logger.Warnf(".env file (%s) not found or could not be loaded: %v", envFilePath, err)
		}
	} else {
		if err := godotenv.Load(); err != nil {
			logger.Debugf(".env file not found or could not be loaded: %v", err)
		}
	}

	cfg := NewConfig()

	// 1. Load defaults from NewConfig()

	// 2. Expand environment variable placeholders in the embedded YAML. This
	// runs after godotenv so values from the .env file are visible, and lets
	// deployment-specific values such as credentials stay out of the embedded
	// file. Job definition documents are never expanded; their ${...}
	// placeholders belong to the output templates.
	expanded, err := NewOsEnvironmentExpander().Expand(embeddedConfig)
	if err != nil {
		return nil, exception.NewConfigurationError(moduleName, "failed to expand environment variables in embedded config", err)
	}

	// 3. Load configuration from embedded YAML into a temporary Config struct.
	// This ensures that YAML values are correctly parsed into their respective types.
	var yamlConfig Config
	if err := yaml.Unmarshal(expanded, &yamlConfig); err != nil {
		return nil, exception.NewConfigurationError(moduleName, "failed to unmarshal embedded config", err)
	}

	// 4. Merge YAML configuration into the default configuration.
	mergeConfig(cfg, &yamlConfig)

	// 5. Override with environment variables
	if err := loadStructFromEnv(reflect.ValueOf(cfg).Elem(), ""); err != nil {
		return nil, exception.NewConfigurationError(moduleName, "failed to load config from environment variables", err)
	}
	return cfg, nil
}

// NewConfigProvider is an Fx provider that loads and provides *Config.
// It initializes the application configuration by loading defaults,
// merging from embedded YAML, and overriding with environment variables.
// It also sets the global logger level and validates the loaded settings.
//
// Parameters:
//   params: ConfigParams containing dependencies like embedded config and env file path.
// Returns:
//   A pointer to the initialized Config and an error if configuration loading or validation fails.
func NewConfigProvider(params ConfigParams) (*Config, error) {
	cfg, err := loadConfig(params.EnvFilePath, params.EmbeddedConfig)
	if err != nil {
		// If loadConfig returns an error, return it as is.
		return nil, exception.NewConfigurationError(moduleName, "failed to load configuration", err)
	}

	// Set global configuration
	GlobalConfig = cfg

	// Set log level
	logger.SetLogLevel(cfg.Fabric.System.Logging.Level)
	logger.Infof("Log level set to: %s", cfg.Fabric.System.Logging.Level)

	if err := ValidateBatchConfig(&cfg.Fabric.Batch); err != nil {
		return nil, err
	}

	if err := validateExceptionClasses(cfg); err != nil {
		return nil, exception.NewConfigurationError(moduleName, "failed to validate configured exception classes", err)
	}

	return cfg, nil
}

// LoadConfig loads configuration from configuration files and environment variables.
// This function is expected to be called only once during application startup.
//
// Parameters:
//   envFilePath: The path to the .env file.
//   embeddedConfig: The embedded configuration bytes.
// Returns:
//   A pointer to the loaded Config and an error if loading fails.
func LoadConfig(envFilePath string, embeddedConfig EmbeddedConfig) (*Config, error) {
	return loadConfig(envFilePath, embeddedConfig)
}

// ValidateBatchConfig checks the batch settings against their allowed ranges.
// Job definitions reuse this check after applying their per-job overrides.
func ValidateBatchConfig(batch *BatchConfig) error {
	mode := strings.ToUpper(batch.ProcessingMode)
	if mode != "SIMPLE" && mode != "COMPLEX" {
		return exception.NewConfigurationError(moduleName,
			fmt.Sprintf("processing_mode must be SIMPLE or COMPLEX, got '%s'", batch.ProcessingMode), nil)
	}
	batch.ProcessingMode = mode
	if batch.ParallelThreads < 1 {
		return exception.NewConfigurationError(moduleName,
			fmt.Sprintf("parallel_threads must be >= 1, got %d", batch.ParallelThreads), nil)
	}
	if batch.ChunkSize < 1 {
		return exception.NewConfigurationError(moduleName,
			fmt.Sprintf("chunk_size must be >= 1, got %d", batch.ChunkSize), nil)
	}
	if batch.ErrorThresholdPercent < 0 || batch.ErrorThresholdPercent > 100 {
		return exception.NewConfigurationError(moduleName,
			fmt.Sprintf("error_threshold_percent must be between 0 and 100, got %d", batch.ErrorThresholdPercent), nil)
	}
	if batch.RetryCooldownSeconds < 0 {
		return exception.NewConfigurationError(moduleName,
			fmt.Sprintf("retry_cooldown_seconds must be >= 0, got %d", batch.RetryCooldownSeconds), nil)
	}
	if batch.Idempotency.TTLHours < 0 {
		return exception.NewConfigurationError(moduleName,
			fmt.Sprintf("idempotency.ttl_hours must be >= 0, got %d", batch.Idempotency.TTLHours), nil)
	}
	return nil
}

// validateExceptionClasses validates that configured exception class names exist in the registry.
func validateExceptionClasses(cfg *Config) error {
	// 1. Validate SkippableExceptions
	if cfg.Fabric.Batch.Classification.SkippableExceptions != nil {
		if err := checkExceptionClasses(cfg.Fabric.Batch.Classification.SkippableExceptions, "Classification.Skippable"); err != nil {
			return err
		}
	}

	// 2. Validate RetryableExceptions
	if cfg.Fabric.Batch.Classification.RetryableExceptions != nil {
		if err := checkExceptionClasses(cfg.Fabric.Batch.Classification.RetryableExceptions, "Classification.Retryable"); err != nil {
			return err
		}
	}

	return nil
}

// mergeConfig performs a deep merge from sourceConfig into destConfig.
// Values in sourceConfig will overwrite corresponding values in destConfig
// if they are not zero/empty values for their type.
//
// Parameters:
//   destConfig: The destination Config to merge into.
//   sourceConfig: The source Config to merge from.
func mergeConfig(destConfig, sourceConfig *Config) {
	// Merge FabricConfig
	mergeFabricConfig(&destConfig.Fabric, &sourceConfig.Fabric)
	// Add other top-level merges if needed
}

// mergeFabricConfig merges source into dest.
//
// Parameters:
//   dest: The destination FabricConfig to merge into.
//   source: The source FabricConfig to merge from.
func mergeFabricConfig(dest, source *FabricConfig) {
	// Merge BatchConfig
	if source.Batch.JobName != "" {
		dest.Batch.JobName = source.Batch.JobName
	}
	if source.Batch.ProcessingMode != "" {
		dest.Batch.ProcessingMode = source.Batch.ProcessingMode
	}
	if source.Batch.ParallelThreads != 0 {
		dest.Batch.ParallelThreads = source.Batch.ParallelThreads
	}
	if source.Batch.ChunkSize != 0 {
		dest.Batch.ChunkSize = source.Batch.ChunkSize
	}
	if source.Batch.ErrorThresholdPercent != 0 {
		dest.Batch.ErrorThresholdPercent = source.Batch.ErrorThresholdPercent
	}
	if source.Batch.RetryCooldownSeconds != 0 {
		dest.Batch.RetryCooldownSeconds = source.Batch.RetryCooldownSeconds
	}
	if source.Batch.StagingRetentionOnFailure {
		dest.Batch.StagingRetentionOnFailure = true
	}
	if source.Batch.Idempotency.TTLHours != 0 {
		dest.Batch.Idempotency.TTLHours = source.Batch.Idempotency.TTLHours
	}
	if source.Batch.MetricsAsyncBufferSize != 0 {
		dest.Batch.MetricsAsyncBufferSize = source.Batch.MetricsAsyncBufferSize
	}
	mergeClassificationConfig(&dest.Batch.Classification, &source.Batch.Classification)

	// Merge SystemConfig
	mergeSystemConfig(&dest.System, &source.System)

	// Merge InfrastructureConfig
	if source.Infrastructure.RepositoryDBRef != "" {
		dest.Infrastructure.RepositoryDBRef = source.Infrastructure.RepositoryDBRef
	}
	if source.Infrastructure.OutputStorageRef != "" {
		dest.Infrastructure.OutputStorageRef = source.Infrastructure.OutputStorageRef
	}

	// Merge SecurityConfig
	if source.Security.MaskedParameterKeys != nil {
		dest.Security.MaskedParameterKeys = source.Security.MaskedParameterKeys
	}

	// Merge MetricsConfig
	if source.Metrics.Exporter != "" {
		dest.Metrics.Exporter = source.Metrics.Exporter
	}
	if source.Metrics.Endpoint != "" {
		dest.Metrics.Endpoint = source.Metrics.Endpoint
	}
	if source.Metrics.Protocol != "" {
		dest.Metrics.Protocol = source.Metrics.Protocol
	}
	if source.Metrics.Insecure {
		dest.Metrics.Insecure = true
	}

	// Merge TracingConfig
	if source.Tracing.Enabled {
		dest.Tracing.Enabled = true
	}
	if source.Tracing.Endpoint != "" {
		dest.Tracing.Endpoint = source.Tracing.Endpoint
	}
	if source.Tracing.Protocol != "" {
		dest.Tracing.Protocol = source.Tracing.Protocol
	}
	if source.Tracing.Insecure {
		dest.Tracing.Insecure = true
	}

	// Merge connection maps (this is the critical part for database and storage configs)
	if source.Databases != nil {
		if dest.Databases == nil {
			dest.Databases = make(map[string]interface{})
		}
		for key, value := range source.Databases {
			dest.Databases[key] = value
		}
	}
	if source.Storages != nil {
		if dest.Storages == nil {
			dest.Storages = make(map[string]interface{})
		}
		for key, value := range source.Storages {
			dest.Storages[key] = value
		}
	}
}

// mergeClassificationConfig merges source into dest.
//
// Parameters:
//   dest: The destination ClassificationConfig to merge into.
//   source: The source ClassificationConfig to merge from.
func mergeClassificationConfig(dest, source *ClassificationConfig) {
	if source.SkippableExceptions != nil { dest.SkippableExceptions = source.SkippableExceptions }
	if source.RetryableExceptions != nil { dest.RetryableExceptions = source.RetryableExceptions }
}

// mergeSystemConfig merges source into dest.
//
// Parameters:
//   dest: The destination SystemConfig to merge into.
//   source: The source SystemConfig to merge from.
func mergeSystemConfig(dest, source *SystemConfig) {
	if source.Timezone != "" { dest.Timezone = source.Timezone }
	if source.Logging.Level != "" { dest.Logging.Level = source.Logging.Level }
}

// checkExceptionClasses validates that all exception class names in the provided list
// are registered in the exception registry.
//
// Parameters:
//   classNames: A slice of strings representing exception class names.
//   configType: A string indicating the configuration type (e.g., "Classification.Skippable") for error messages.
func checkExceptionClasses(classNames []string, configType string) error {
	for _, name := range classNames {
		if !exception.IsErrorTypeRegistered(name) {
			return fmt.Errorf("%s configuration references unknown exception class: '%s'. Ensure it is registered.", configType, name)
		}
	}
	return nil
}

// loadStructFromEnv recursively loads configuration values into a struct from environment variables.
// It uses the "yaml" tag to determine the environment variable name.
//
// Parameters:
//   val: The reflect.Value of the struct to populate.
//   prefix: The prefix for environment variable names (e.g., "FABRIC_BATCH_").
// Returns: An error if any field cannot be set.
func loadStructFromEnv(val reflect.Value, prefix string) error {
	typ := val.Type()
	for i := 0; i < typ.NumField(); i++ {
		field := val.Field(i)
		fieldType := typ.Field(i)
		yamlTag := fieldType.Tag.Get("yaml")
		if yamlTag == "" || yamlTag == "-" {
			continue
		}
		envVarName := strings.ToUpper(prefix + yamlTag)

		if field.Kind() == reflect.Struct {
			if err := loadStructFromEnv(field, envVarName+"_"); err != nil {
				return err
			}
			continue
		}

		envValue, exists := os.LookupEnv(envVarName)
		if !exists && field.Kind() != reflect.Map { // If it's a map type, continue to process nested environment variables.
			continue
		}

		if field.Kind() == reflect.Map && field.Type().Key().Kind() == reflect.String && field.Type().Elem().Kind() == reflect.Struct {
			// For map[string]struct{}, process nested environment variables
			// Example: DATABASE_METADATA_HOST, DATABASE_WORKLOAD_HOST
			if err := loadMapOfStructsFromEnv(field, envVarName+"_"); err != nil {
				return err
			}
			continue
		}

		if err := setField(field, envValue); err != nil {
			return fmt.Errorf("failed to set field '%s' from env var '%s': %w", fieldType.Name, envVarName, err)
		}
	}
	return nil
}

// loadMapOfStructsFromEnv loads fields of type map[string]struct{} from environment variables.
// It infers map keys and struct field names from environment variable names.
//
// Example: For a field `Databases map[string]DatabaseConfig` in the config struct,
// an environment variable `DATABASE_METADATA_HOST=localhost` would set the `Host` field
// of the `DatabaseConfig` instance associated with the key "metadata".
//
// Parameters:
//   mapField: The reflect.Value of the map field (e.g., `cfg.Fabric.Databases`).
//   prefix: The environment variable prefix for this map (e.g., "FABRIC_DATABASE_").
func loadMapOfStructsFromEnv(mapField reflect.Value, prefix string) error {
	if mapField.IsNil() {
		mapField.Set(reflect.MakeMap(mapField.Type()))
	}

	elemType := mapField.Type().Elem() // Type of the config struct

	// Infer map keys from environment variables and load each element
	// Example: DATABASE_METADATA_HOST -> mapKey="metadata", structFieldName="HOST"
	for _, env := range os.Environ() {
		if !strings.HasPrefix(env, prefix) {
			continue
		}

		// Extract key and field name from environment variable name
		// Example: DATABASE_METADATA_HOST=localhost -> keyAndField="METADATA_HOST", envValue="localhost"
		keyPartWithValue := strings.TrimPrefix(env, prefix)
		parts := strings.SplitN(keyPartWithValue, "=", 2)
		if len(parts) != 2 {
			continue
		}
		keyAndField := parts[0] // e.g., "METADATA_HOST"
		envValue := parts[1]

		// Separate map key and struct field name from keyAndField
		// Example: METADATA_HOST -> mapKey="metadata", structFieldName="Host"
		keyAndFieldParts := strings.Split(keyAndField, "_")
		if len(keyAndFieldParts) < 2 {
			continue
		}
		mapKey := strings.ToLower(keyAndFieldParts[0])             // e.g., "metadata"
		structFieldName := strings.Join(keyAndFieldParts[1:], "_") // e.g., "HOST"

		// Get or create an instance of the struct
		structVal := mapField.MapIndex(reflect.ValueOf(mapKey))
		if !structVal.IsValid() {
			structVal = reflect.New(elemType).Elem() // Create a new instance if not found
		}

		// Set the value of the struct field
		if err := setStructFieldFromEnv(structVal, structFieldName, envValue); err != nil {
			return err
		}
		mapField.SetMapIndex(reflect.ValueOf(mapKey), structVal)
	}
	return nil
}

// setStructFieldFromEnv sets the value of a specific struct field from an environment variable.
// It iterates through the struct's fields, matching the `fieldName` (case-insensitively)
// against the field's `yaml` tag.
//
// Parameters:
//   structVal: The reflect.Value of the struct instance.
//   fieldName: The name of the field to set (derived from the environment variable).
//   value: The string value to set.
// Returns: An error if the field cannot be set due to type conversion issues.
func setStructFieldFromEnv(structVal reflect.Value, fieldName string, value string) error {
	typ := structVal.Type()
	for i := 0; i < typ.NumField(); i++ {
		field := structVal.Field(i)
		fieldType := typ.Field(i)
		yamlTag := fieldType.Tag.Get("yaml")
		if yamlTag == "" || yamlTag == "-" {
			continue
		}

		// Check if YAML tag and environment variable name match
		if strings.EqualFold(yamlTag, fieldName) { // (case-insensitive comparison)
			return setField(field, value)
		}
	}
	return nil // Return nil if field not found (not an error)
}

// setField sets the value of a reflect.Value field based on its kind.
// It handles string, int, float, and bool types.
//
// Parameters:
//   field: The reflect.Value of the field to set.
//   value: The string value to convert and set.
func setField(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		intValue, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(intValue)
	case reflect.Float64, reflect.Float32:
		floatValue, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(floatValue)
	case reflect.Bool:
		boolValue, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(boolValue)
	}
	return nil
}
