package model

import (
	"context"
	"crypto/sha256"
	"database/sql/driver"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/support/util/exception"
	logger "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/support/util/logger"
	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/support/util/serialization"

	"github.com/google/uuid"
)

// ExecutionStatus represents the state of a job execution.
type ExecutionStatus string

const (
	ExecutionStatusStarted   ExecutionStatus = "STARTED"
	ExecutionStatusRunning   ExecutionStatus = "RUNNING"
	ExecutionStatusCompleted ExecutionStatus = "COMPLETED"
	ExecutionStatusFailed    ExecutionStatus = "FAILED"
	ExecutionStatusStopped   ExecutionStatus = "STOPPED"
	ExecutionStatusUnknown   ExecutionStatus = "UNKNOWN"
)

// String returns the string representation of the ExecutionStatus.
func (s ExecutionStatus) String() string {
	return string(s)
}

// IsFinished checks if the ExecutionStatus represents a terminal state.
func (s ExecutionStatus) IsFinished() bool {
	switch s {
	case ExecutionStatusCompleted, ExecutionStatusFailed, ExecutionStatusStopped:
		return true
	default:
		return false
	}
}

// IsRestartable checks if an execution in this state may be submitted again.
func (s ExecutionStatus) IsRestartable() bool {
	return s == ExecutionStatusFailed || s == ExecutionStatusStopped
}

// ProcessingMode selects how an execution schedules its transaction types.
type ProcessingMode string

const (
	// ProcessingModeSimple runs all transaction types in one parallel wave.
	ProcessingModeSimple ProcessingMode = "SIMPLE"
	// ProcessingModeComplex resolves declared dependencies into sequential waves.
	ProcessingModeComplex ProcessingMode = "COMPLEX"
)

// String returns the string representation of the ProcessingMode.
func (m ProcessingMode) String() string {
	return string(m)
}

// ParseProcessingMode converts a string into a ProcessingMode.
func ParseProcessingMode(s string) (ProcessingMode, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "SIMPLE":
		return ProcessingModeSimple, nil
	case "COMPLEX":
		return ProcessingModeComplex, nil
	default:
		return "", fmt.Errorf("unknown processing mode: %q", s)
	}
}

// FailureClassification explains why an execution reached FAILED, so an
// operator can decide between retrying as-is, fixing configuration, or
// inspecting data quality.
type FailureClassification string

const (
	FailureNone              FailureClassification = "NONE"
	FailureConfiguration     FailureClassification = "CONFIGURATION"
	FailureInfrastructure    FailureClassification = "INFRASTRUCTURE"
	FailureThresholdExceeded FailureClassification = "THRESHOLD_EXCEEDED"
)

// ClassifyFailure derives the classification from an error chain.
// Threshold breaches are not errors and are classified by the coordinator directly.
func ClassifyFailure(err error) FailureClassification {
	switch {
	case err == nil:
		return FailureNone
	case exception.IsConfigurationError(err):
		return FailureConfiguration
	case exception.IsInfrastructureError(err):
		return FailureInfrastructure
	default:
		return FailureInfrastructure
	}
}

// ExecutionParameters holds the caller-supplied parameters of an execution
// request. Its canonical hash doubles as the idempotency request fingerprint.
type ExecutionParameters struct {
	Params map[string]interface{}
}

// Value implements the `driver.Valuer` interface, converting ExecutionParameters to a JSON string.
func (p ExecutionParameters) Value() (driver.Value, error) {
	if p.Params == nil {
		return "{}", nil
	}
	data, err := json.Marshal(p.Params)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements the `sql.Scanner` interface, converting a JSON string to ExecutionParameters.
func (p *ExecutionParameters) Scan(value interface{}) error {
	if value == nil {
		p.Params = make(map[string]interface{})
		return nil
	}
	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("unsupported Scan type for ExecutionParameters: %T", value)
	}

	if len(b) == 0 {
		p.Params = make(map[string]interface{})
		return nil
	}

	if err := json.Unmarshal(b, &p.Params); err != nil {
		return fmt.Errorf("failed to unmarshal ExecutionParameters JSON: %w", err)
	}
	return nil
}

// NewExecutionParameters creates a new empty ExecutionParameters.
func NewExecutionParameters() ExecutionParameters {
	return ExecutionParameters{
		Params: make(map[string]interface{}),
	}
}

// Put sets a parameter value.
func (p ExecutionParameters) Put(key string, value interface{}) {
	p.Params[key] = value
}

// Get retrieves the value for the specified key. Returns nil if absent.
func (p ExecutionParameters) Get(key string) interface{} {
	val, ok := p.Params[key]
	if !ok {
		return nil
	}
	return val
}

// GetString retrieves the value for the specified key as a string.
func (p ExecutionParameters) GetString(key string) (string, bool) {
	val, ok := p.Params[key]
	if !ok {
		return "", false
	}
	str, ok := val.(string)
	return str, ok
}

// GetInt retrieves the value for the specified key as an int.
func (p ExecutionParameters) GetInt(key string) (int, bool) {
	val, ok := p.Params[key]
	if !ok {
		return 0, false
	}
	// Numbers unmarshaled from JSON arrive as float64.
	if i, ok := val.(int); ok {
		return i, true
	}
	if f, ok := val.(float64); ok {
		return int(f), true
	}
	return 0, false
}

// GetBool retrieves the value for the specified key as a bool.
func (p ExecutionParameters) GetBool(key string) (bool, bool) {
	val, ok := p.Params[key]
	if !ok {
		return false, false
	}
	b, ok := val.(bool)
	return b, ok
}

// Equal compares two ExecutionParameters for equality of content.
func (p ExecutionParameters) Equal(other ExecutionParameters) bool {
	a, errA := p.toCanonicalJSON()
	b, errB := other.toCanonicalJSON()
	if errA != nil || errB != nil {
		return false
	}
	return a == b
}

// Hash calculates the SHA-256 fingerprint of the parameters over their
// canonical JSON form, so the result is independent of map iteration order.
func (p ExecutionParameters) Hash() (string, error) {
	normalizedJSON, err := p.toCanonicalJSON()
	if err != nil {
		return "", exception.NewBatchError("execution_parameters", "Failed to marshal ExecutionParameters to canonical JSON for hash calculation", err, false, false)
	}

	hasher := sha256.New()
	hasher.Write([]byte(normalizedJSON))
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// toCanonicalJSON converts the parameters to a JSON string with sorted keys at every level.
func (p ExecutionParameters) toCanonicalJSON() (string, error) {
	var marshalCanonical func(interface{}) ([]byte, error)
	marshalCanonical = func(val interface{}) ([]byte, error) {
		if m, ok := val.(map[string]interface{}); ok {
			keys := make([]string, 0, len(m))
			for k := range m {
				keys = append(keys, k)
			}
			sort.Strings(keys)

			var sb strings.Builder
			sb.WriteString("{")
			for i, k := range keys {
				v := m[k]
				keyBytes, err := json.Marshal(k)
				if err != nil {
					return nil, err
				}
				valBytes, err := marshalCanonical(v)
				if err != nil {
					return nil, err
				}
				sb.Write(keyBytes)
				sb.WriteString(":")
				sb.Write(valBytes)
				if i < len(keys)-1 {
					sb.WriteString(",")
				}
			}
			sb.WriteString("}")
			return []byte(sb.String()), nil
		}
		return json.Marshal(val)
	}

	jsonBytes, err := marshalCanonical(p.Params)
	if err != nil {
		return "", err
	}
	return string(jsonBytes), nil
}

// String returns the string representation of ExecutionParameters with sensitive keys masked.
func (p ExecutionParameters) String() string {
	maskedParams := serialization.GetMaskedParametersMap(p.Params)

	data, err := json.Marshal(maskedParams)
	if err != nil {
		return fmt.Sprintf("{[ERROR: Failed to marshal masked parameters: %v]}", err)
	}

	return string(data)
}

// FailureList holds a list of error messages.
type FailureList []string

// Value implements the `driver.Valuer` interface, converting FailureList to a JSON string.
func (fl FailureList) Value() (driver.Value, error) {
	if fl == nil {
		return "[]", nil
	}
	data, err := json.Marshal(fl)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements the `sql.Scanner` interface, converting a JSON string to FailureList.
func (fl *FailureList) Scan(value interface{}) error {
	if value == nil {
		*fl = make(FailureList, 0)
		return nil
	}
	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("unsupported Scan type for FailureList: %T", value)
	}

	if len(b) == 0 {
		*fl = make(FailureList, 0)
		return nil
	}

	if err := json.Unmarshal(b, fl); err != nil {
		return fmt.Errorf("failed to unmarshal FailureList JSON: %w", err)
	}
	return nil
}

// JobExecution represents a single run of a configured job. It is owned
// exclusively by the execution coordinator: created at run start, mutated only
// by the coordinator, and terminal once the status leaves RUNNING.
type JobExecution struct {
	ID             string
	JobName        string
	BusinessDate   string
	Mode           ProcessingMode
	Parameters     ExecutionParameters
	IdempotencyKey string
	Status         ExecutionStatus
	FailureClass   FailureClassification
	TotalCount     int
	ProcessedCount int
	ErrorCount     int
	Failures       FailureList
	StartTime      time.Time
	EndTime        *time.Time
	CreateTime     time.Time
	LastUpdated    time.Time
	Version        int
	RestartCount   int
	CancelFunc     context.CancelFunc
}

// NewJobExecution creates a new JobExecution in the STARTED state.
func NewJobExecution(jobName, businessDate string, mode ProcessingMode, params ExecutionParameters) *JobExecution {
	now := time.Now()
	return &JobExecution{
		ID:           NewID(),
		JobName:      jobName,
		BusinessDate: businessDate,
		Mode:         mode,
		Parameters:   params,
		Status:       ExecutionStatusStarted,
		FailureClass: FailureNone,
		Failures:     make(FailureList, 0),
		StartTime:    now,
		CreateTime:   now,
		LastUpdated:  now,
		RestartCount: 0,
	}
}

// isValidExecutionTransition checks if the state transition for JobExecution is valid.
func isValidExecutionTransition(current, next ExecutionStatus) bool {
	switch current {
	case ExecutionStatusStarted:
		// STARTED can move to RUNNING once work is dispatched, or terminate
		// early when configuration loading or sequencing fails.
		return next == ExecutionStatusRunning || next == ExecutionStatusFailed || next == ExecutionStatusStopped
	case ExecutionStatusRunning:
		return next == ExecutionStatusCompleted || next == ExecutionStatusFailed || next == ExecutionStatusStopped
	case ExecutionStatusCompleted, ExecutionStatusFailed, ExecutionStatusStopped:
		return false
	default:
		return false
	}
}

// TransitionTo safely transitions the state of JobExecution.
// Fields other than Status and LastUpdated must be set separately by the caller.
func (je *JobExecution) TransitionTo(newStatus ExecutionStatus) error {
	if !isValidExecutionTransition(je.Status, newStatus) {
		return fmt.Errorf("JobExecution (ID: %s): Invalid state transition: %s -> %s", je.ID, je.Status, newStatus)
	}
	je.Status = newStatus
	je.LastUpdated = time.Now()
	return nil
}

// MarkAsRunning updates the JobExecution status to RUNNING.
func (je *JobExecution) MarkAsRunning() {
	if err := je.TransitionTo(ExecutionStatusRunning); err != nil {
		logger.Warnf("Could not update JobExecution (ID: %s) status to RUNNING: %v", je.ID, err)
		je.Status = ExecutionStatusRunning
	}
	je.LastUpdated = time.Now()
}

// MarkAsCompleted updates the JobExecution status to COMPLETED.
func (je *JobExecution) MarkAsCompleted() {
	if err := je.TransitionTo(ExecutionStatusCompleted); err != nil {
		logger.Warnf("Could not update JobExecution (ID: %s) status to COMPLETED: %v", je.ID, err)
		je.Status = ExecutionStatusCompleted
	}
	now := time.Now()
	je.EndTime = &now
	je.LastUpdated = now
}

// MarkAsFailed updates the JobExecution status to FAILED, records the error,
// and sets the failure classification.
func (je *JobExecution) MarkAsFailed(cause error) {
	if err := je.TransitionTo(ExecutionStatusFailed); err != nil {
		logger.Warnf("Could not update JobExecution (ID: %s) status to FAILED: %v", je.ID, err)
		je.Status = ExecutionStatusFailed
	}
	now := time.Now()
	je.EndTime = &now
	je.LastUpdated = now
	if cause != nil {
		je.AddFailureException(cause)
		if je.FailureClass == FailureNone {
			je.FailureClass = ClassifyFailure(cause)
		}
	}
}

// MarkAsThresholdExceeded marks the execution FAILED because the per-record
// error rate exceeded the configured threshold.
func (je *JobExecution) MarkAsThresholdExceeded(errorCount, totalCount int, thresholdPercent float64) {
	je.FailureClass = FailureThresholdExceeded
	je.MarkAsFailed(exception.NewBatchErrorf("coordinator",
		"error count %d of %d records exceeds threshold of %.1f%%", errorCount, totalCount, thresholdPercent))
}

// MarkAsStopped updates the JobExecution status to STOPPED.
func (je *JobExecution) MarkAsStopped() {
	if err := je.TransitionTo(ExecutionStatusStopped); err != nil {
		logger.Warnf("Could not update JobExecution (ID: %s) status to STOPPED: %v", je.ID, err)
		je.Status = ExecutionStatusStopped
	}
	now := time.Now()
	je.EndTime = &now
	je.LastUpdated = now
}

// AddFailureException adds error information to JobExecution, skipping duplicates.
func (je *JobExecution) AddFailureException(err error) {
	if err == nil {
		return
	}
	errMsg := exception.ExtractErrorMessage(err)

	for _, existingErr := range je.Failures {
		if existingErr == errMsg {
			logger.Debugf("Skipped adding duplicate error '%s' to JobExecution (ID: %s).", errMsg, je.ID)
			return
		}
	}

	je.Failures = append(je.Failures, errMsg)
	je.LastUpdated = time.Now()
}

// IncrementRestartCount increments the restart count of JobExecution by 1.
func (je *JobExecution) IncrementRestartCount() {
	je.RestartCount++
	je.LastUpdated = time.Now()
	logger.Debugf("JobExecution (ID: %s) restart count updated to %d.", je.ID, je.RestartCount)
}

// AccumulateCounts folds a partition result into the execution counters.
func (je *JobExecution) AccumulateCounts(result *PartitionResult) {
	if result == nil {
		return
	}
	je.TotalCount += len(result.Succeeded) + len(result.Failed)
	je.ProcessedCount += len(result.Succeeded)
	je.ErrorCount += len(result.Failed)
	je.LastUpdated = time.Now()
}

// SourceSelector describes how a transaction type's records are selected from
// the source, expressed as filter and ordering criteria consumed by the
// source reader.
type SourceSelector struct {
	Filter  string `yaml:"filter,omitempty"`
	GroupBy string `yaml:"group-by,omitempty"`
	OrderBy string `yaml:"order-by,omitempty"`
}

// TransactionType is a named partition of work within a job. The dependency
// references across all types of a job must form a directed acyclic graph;
// the sequencer verifies this at sequencing time.
type TransactionType struct {
	Code             string         `yaml:"code"`
	Name             string         `yaml:"name,omitempty"`
	ProcessingOrder  int            `yaml:"processing-order"`
	ParallelEligible bool           `yaml:"parallel"`
	DependsOn        []string       `yaml:"depends-on,omitempty"`
	Selector         SourceSelector `yaml:"selector,omitempty"`
}

// CompareTransactionTypes is the ordering shared by the sequencer's intra-wave
// tie-break and the merger's partition precedence: processing-order hint
// ascending, then code ascending. Returns a negative value when a sorts
// before b, zero when equal, positive otherwise.
func CompareTransactionTypes(a, b TransactionType) int {
	if a.ProcessingOrder != b.ProcessingOrder {
		return a.ProcessingOrder - b.ProcessingOrder
	}
	return strings.Compare(a.Code, b.Code)
}

// SortTransactionTypes sorts types in place by the shared ordering.
func SortTransactionTypes(types []TransactionType) {
	sort.SliceStable(types, func(i, j int) bool {
		return CompareTransactionTypes(types[i], types[j]) < 0
	})
}

// RuleKind tags the transformation rule variants of a field mapping.
type RuleKind string

const (
	// RuleSource copies one source field.
	RuleSource RuleKind = "source"
	// RuleConstant substitutes a configured constant.
	RuleConstant RuleKind = "constant"
	// RuleComposite combines named source fields by concatenation or numeric sum.
	RuleComposite RuleKind = "composite"
	// RuleConditional selects between sub-rules based on a predicate over source fields.
	RuleConditional RuleKind = "conditional"
	// RuleBlank emits an empty value, padded to the field length.
	RuleBlank RuleKind = "blank"
)

// CompositeOperation selects how a composite rule combines its sources.
type CompositeOperation string

const (
	CompositeConcat CompositeOperation = "concat"
	CompositeSum    CompositeOperation = "sum"
)

// ConditionOperator is the comparison operator of a conditional rule predicate.
type ConditionOperator string

const (
	OpEquals       ConditionOperator = "eq"
	OpNotEquals    ConditionOperator = "ne"
	OpGreaterThan  ConditionOperator = "gt"
	OpLessThan     ConditionOperator = "lt"
	OpGreaterEqual ConditionOperator = "ge"
	OpLessEqual    ConditionOperator = "le"
	OpContains     ConditionOperator = "contains"
)

// Condition is the predicate of a conditional rule, evaluated against the
// source fields of each record.
type Condition struct {
	Field    string            `yaml:"field"`
	Operator ConditionOperator `yaml:"operator"`
	Value    string            `yaml:"value"`
}

// FieldRule is the tagged transformation rule variant of a field mapping.
// Kind selects the variant; only the fields belonging to that variant are
// consulted. Conditional rules nest their branches as sub-rules.
type FieldRule struct {
	Kind      RuleKind           `yaml:"kind"`
	Source    string             `yaml:"source,omitempty"`
	Constant  string             `yaml:"constant,omitempty"`
	Sources   []string           `yaml:"sources,omitempty"`
	Operation CompositeOperation `yaml:"operation,omitempty"`
	Delimiter string             `yaml:"delimiter,omitempty"`
	Condition *Condition         `yaml:"condition,omitempty"`
	Then      *FieldRule         `yaml:"then,omitempty"`
	Else      *FieldRule         `yaml:"else,omitempty"`
}

// FieldType is the declared output type of a mapped field, used by validation.
type FieldType string

const (
	FieldTypeString  FieldType = "string"
	FieldTypeNumeric FieldType = "numeric"
	FieldTypeDate    FieldType = "date"
)

// PadSide selects which side of the value padding is applied to.
type PadSide string

const (
	PadLeft  PadSide = "left"
	PadRight PadSide = "right"
	PadNone  PadSide = "none"
)

// PaddingPolicy is applied to a field value after transformation and
// validation, producing the final fixed-width or delimited segment.
type PaddingPolicy struct {
	Side PadSide `yaml:"side,omitempty"`
	Char string  `yaml:"char,omitempty"`
	Trim bool    `yaml:"trim,omitempty"`
}

// FieldMapping is one ordered rule mapping source data to one output
// position. Mappings are owned by configuration and read-only to the engine.
type FieldMapping struct {
	TargetName string        `yaml:"target"`
	Position   int           `yaml:"position"`
	Length     int           `yaml:"length"`
	Type       FieldType     `yaml:"type,omitempty"`
	Format     string        `yaml:"format,omitempty"`
	Required   bool          `yaml:"required,omitempty"`
	Rule       FieldRule     `yaml:"rule"`
	Padding    PaddingPolicy `yaml:"padding,omitempty"`
}

// Payload is the opaque field data of a staging record, keyed by source field name.
type Payload map[string]string

// Value implements the `driver.Valuer` interface, converting the Payload to a JSON string.
func (p Payload) Value() (driver.Value, error) {
	if p == nil {
		return "{}", nil
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements the `sql.Scanner` interface, converting a JSON string to a Payload.
func (p *Payload) Scan(value interface{}) error {
	if value == nil {
		*p = make(Payload)
		return nil
	}
	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("unsupported Scan type for Payload: %T", value)
	}

	if len(b) == 0 {
		*p = make(Payload)
		return nil
	}

	if err := json.Unmarshal(b, p); err != nil {
		return fmt.Errorf("failed to unmarshal Payload JSON: %w", err)
	}
	return nil
}

// Copy creates a shallow copy of the Payload.
func (p Payload) Copy() Payload {
	newP := make(Payload, len(p))
	for k, v := range p {
		newP[k] = v
	}
	return newP
}

// StagingRecord is a record parked between ingestion and sequenced
// processing. The sequence number is assigned at insert time and is the sole
// source of intra-partition ordering.
type StagingRecord struct {
	ID              string
	ExecutionID     string
	TransactionType string
	Sequence        int64
	Payload         Payload
	DependencyMet   bool
	Processed       bool
	HasError        bool
	ErrorMessage    string
	CreatedAt       time.Time
	ProcessedAt     *time.Time
}

// NewStagingRecord creates a StagingRecord awaiting a sequence number.
func NewStagingRecord(executionID, transactionType string, payload Payload) *StagingRecord {
	return &StagingRecord{
		ID:              NewID(),
		ExecutionID:     executionID,
		TransactionType: transactionType,
		Payload:         payload,
		CreatedAt:       time.Now(),
	}
}

// IdempotencyStatus represents the state of an idempotency record.
type IdempotencyStatus string

const (
	IdempotencyStatusPending    IdempotencyStatus = "PENDING"
	IdempotencyStatusInProgress IdempotencyStatus = "IN_PROGRESS"
	IdempotencyStatusCompleted  IdempotencyStatus = "COMPLETED"
	IdempotencyStatusFailed     IdempotencyStatus = "FAILED"
)

// String returns the string representation of the IdempotencyStatus.
func (s IdempotencyStatus) String() string {
	return string(s)
}

// IsTerminal checks if the status is COMPLETED or FAILED.
func (s IdempotencyStatus) IsTerminal() bool {
	return s == IdempotencyStatusCompleted || s == IdempotencyStatusFailed
}

// isValidIdempotencyTransition checks if the state transition for an
// IdempotencyRecord is valid. The machine is one-way except that FAILED may
// re-enter IN_PROGRESS for a retry after the cooldown.
func isValidIdempotencyTransition(current, next IdempotencyStatus) bool {
	switch current {
	case IdempotencyStatusPending:
		return next == IdempotencyStatusInProgress || next == IdempotencyStatusFailed
	case IdempotencyStatusInProgress:
		return next == IdempotencyStatusCompleted || next == IdempotencyStatusFailed
	case IdempotencyStatusFailed:
		return next == IdempotencyStatusInProgress
	case IdempotencyStatusCompleted:
		return false
	default:
		return false
	}
}

// IdempotencyRecord tracks the outcome of one idempotency key. At most one
// record exists per key; all status updates go through compare-and-set
// repository operations so concurrent Begin calls cannot both proceed.
type IdempotencyRecord struct {
	Key           string
	ExecutionID   string
	Fingerprint   string
	Status        IdempotencyStatus
	Result        []byte
	FailureReason string
	CreatedAt     time.Time
	ProcessedAt   *time.Time
	ExpiresAt     *time.Time
	Version       int
}

// NewIdempotencyRecord creates a PENDING record for a newly observed key.
func NewIdempotencyRecord(key, fingerprint string) *IdempotencyRecord {
	return &IdempotencyRecord{
		Key:         key,
		Fingerprint: fingerprint,
		Status:      IdempotencyStatusPending,
		CreatedAt:   time.Now(),
	}
}

// TransitionTo transitions the record status, rejecting invalid transitions.
// Unlike JobExecution, the idempotency machine never forces a transition: an
// invalid move means a concurrent writer won, and the caller must re-read.
func (r *IdempotencyRecord) TransitionTo(newStatus IdempotencyStatus) error {
	if !isValidIdempotencyTransition(r.Status, newStatus) {
		return fmt.Errorf("IdempotencyRecord (Key: %s): Invalid state transition: %s -> %s", r.Key, r.Status, newStatus)
	}
	r.Status = newStatus
	return nil
}

// IsExpired checks whether the record's expiry has passed at the given instant.
func (r *IdempotencyRecord) IsExpired(now time.Time) bool {
	return r.ExpiresAt != nil && now.After(*r.ExpiresAt)
}

// IdempotencyOutcome is the decision returned by the guard's Begin.
type IdempotencyOutcome string

const (
	// OutcomeProceed permits the caller to execute business logic.
	OutcomeProceed IdempotencyOutcome = "PROCEED"
	// OutcomeReturnCached returns the payload of a completed prior run verbatim.
	OutcomeReturnCached IdempotencyOutcome = "RETURN_CACHED"
	// OutcomeConflict rejects a duplicate submission while another is in flight
	// or a failed run is still inside its retry cooldown.
	OutcomeConflict IdempotencyOutcome = "CONFLICT"
)

// IdempotencyDecision carries the Begin outcome plus the cached result when
// the outcome is RETURN_CACHED.
type IdempotencyDecision struct {
	Outcome      IdempotencyOutcome
	CachedResult []byte
}

// ExecutionWave is an ephemeral, in-memory ordered batch of transaction types
// with no unresolved dependency at its position. Waves are recomputed per run
// and never persisted.
type ExecutionWave struct {
	Index int
	Types []TransactionType
}

// OutputFormat selects how an output record's segments are assembled into a line.
type OutputFormat string

const (
	// FormatFixed concatenates the padded segments with no separator.
	FormatFixed OutputFormat = "fixed"
	// FormatDelimited joins the segments with the configured delimiter.
	FormatDelimited OutputFormat = "delimited"
)

// OutputSpec describes the output file of a job: its record format, the
// destination path, and the optional header and footer templates. Templates
// use ${variable} placeholders resolved at write time.
type OutputSpec struct {
	Format    OutputFormat `yaml:"format"`
	Delimiter string       `yaml:"delimiter"`
	Path      string       `yaml:"path"`
	Header    string       `yaml:"header"`
	Footer    string       `yaml:"footer"`
}

// OutputRecord is one transformed record of the output stream. Segments hold
// the per-field output values with padding already applied, in target
// position order.
type OutputRecord struct {
	TransactionType string
	Sequence        int64
	Segments        []string
}

// FailedRecord pairs a rejected record with its failure reason.
type FailedRecord struct {
	RecordID        string
	TransactionType string
	Sequence        int64
	Reason          string
}

// PartitionResult is the outcome of processing one partition (one transaction
// type). Validation failures land in Failed without aborting the remaining
// records of the partition.
type PartitionResult struct {
	Type      TransactionType
	Succeeded []OutputRecord
	Failed    []FailedRecord
}

// NewPartitionResult creates an empty result for a transaction type.
func NewPartitionResult(t TransactionType) *PartitionResult {
	return &PartitionResult{
		Type:      t,
		Succeeded: make([]OutputRecord, 0),
		Failed:    make([]FailedRecord, 0),
	}
}

// RecordCount returns the total number of records the partition handled.
func (r *PartitionResult) RecordCount() int {
	return len(r.Succeeded) + len(r.Failed)
}

// FooterSummary carries the aggregate values available to footer templates:
// the merged record count, the failed record count, and per-field control
// totals for fields declared numeric in the mapping.
type FooterSummary struct {
	RecordCount int64
	FailedCount int64
	Totals      map[string]float64
}

// NewFooterSummary creates an empty summary.
func NewFooterSummary() FooterSummary {
	return FooterSummary{Totals: make(map[string]float64)}
}

// NewID generates a new UUID string.
func NewID() string {
	return uuid.New().String()
}
