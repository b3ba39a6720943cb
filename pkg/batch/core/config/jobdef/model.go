// Package jobdef defines the YAML model of a job definition: the transaction
// types a job processes, the field mappings applied to each type's records,
// and the output layout wrapping the merged result. Definitions are loaded
// from embedded YAML at startup and registered by job name.
package jobdef

import (
	config "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/config"
	model "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/domain/model"
)

// DefinitionBytes holds the content of a job definition YAML file.
// It is used when loading embedded definitions through fx.
type DefinitionBytes []byte

// JobDefinition is the top-level structure of a job definition file.
type JobDefinition struct {
	// Name is the unique job name the definition is registered under.
	Name string `yaml:"name"`
	// Description is an optional free-text description.
	Description string `yaml:"description,omitempty"`
	// Processing holds optional per-job overrides of the platform batch settings.
	Processing ProcessingOverrides `yaml:"processing,omitempty"`
	// Output describes the interface file this job produces.
	Output model.OutputSpec `yaml:"output"`
	// TransactionTypes lists the partitions of work with their field mappings.
	TransactionTypes []TransactionTypeDef `yaml:"transaction-types"`
}

// ProcessingOverrides carries per-job overrides of BatchConfig. A zero value
// keeps the platform setting.
type ProcessingOverrides struct {
	// Mode overrides the processing mode ("SIMPLE" or "COMPLEX").
	Mode string `yaml:"mode,omitempty"`
	// ParallelThreads overrides the worker pool size.
	ParallelThreads int `yaml:"parallel-threads,omitempty"`
	// ErrorThresholdPercent overrides the tolerated failure percentage.
	ErrorThresholdPercent int `yaml:"error-threshold-percent,omitempty"`
	// StagingRetentionOnFailure turns on staging retention for this job.
	StagingRetentionOnFailure bool `yaml:"staging-retention-on-failure,omitempty"`
}

// TransactionTypeDef pairs a transaction type with the field mappings applied
// to its records.
type TransactionTypeDef struct {
	model.TransactionType `yaml:",inline"`
	// FieldMappings is the ordered field layout of this type's output records.
	FieldMappings []model.FieldMapping `yaml:"field-mappings"`
}

// Types returns the plain transaction types for the sequencer.
func (d *JobDefinition) Types() []model.TransactionType {
	types := make([]model.TransactionType, len(d.TransactionTypes))
	for i, t := range d.TransactionTypes {
		types[i] = t.TransactionType
	}
	return types
}

// MappingsByType returns the field mappings keyed by transaction type code,
// the shape the partition dispatcher and the summary builder consume.
func (d *JobDefinition) MappingsByType() map[string][]model.FieldMapping {
	mappings := make(map[string][]model.FieldMapping, len(d.TransactionTypes))
	for _, t := range d.TransactionTypes {
		mappings[t.Code] = t.FieldMappings
	}
	return mappings
}

// EffectiveBatchConfig applies the definition's processing overrides to the
// platform batch settings and validates the combined result. Zero-valued
// overrides keep the platform setting; the job name always comes from the
// definition.
func (d *JobDefinition) EffectiveBatchConfig(base config.BatchConfig) (config.BatchConfig, error) {
	effective := base
	effective.JobName = d.Name
	if d.Processing.Mode != "" {
		effective.ProcessingMode = d.Processing.Mode
	}
	if d.Processing.ParallelThreads > 0 {
		effective.ParallelThreads = d.Processing.ParallelThreads
	}
	if d.Processing.ErrorThresholdPercent > 0 {
		effective.ErrorThresholdPercent = d.Processing.ErrorThresholdPercent
	}
	if d.Processing.StagingRetentionOnFailure {
		effective.StagingRetentionOnFailure = true
	}
	if err := config.ValidateBatchConfig(&effective); err != nil {
		return config.BatchConfig{}, err
	}
	return effective, nil
}
