// Package exception provides the error types and classification utilities for
// the Fabric batch platform. Errors raised during an execution are wrapped in
// BatchError so that policies can decide, from the error alone, whether the
// failing record may be skipped or the failing execution may be retried.
package exception

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"strconv"
	"strings"
	"sync"
)

// errorRegistry maps error names referenced by configuration and policy checks
// to concrete Go error instances, held as singletons for errors.Is comparison.
var errorRegistry = make(map[string]error)

// registryMutex protects access to errorRegistry.
var registryMutex sync.RWMutex

// RegisterErrorType registers an error prototype under a name.
// Registered names can be used with IsErrorOfType for classification.
// Panics if name is empty or prototype is nil.
func RegisterErrorType(name string, prototype error) {
	registryMutex.Lock()
	defer registryMutex.Unlock()

	if name == "" {
		panic("Error type name cannot be empty")
	}
	if prototype == nil {
		panic(fmt.Sprintf("Cannot register nil prototype for name: %s", name))
	}

	errorRegistry[name] = prototype
}

// IsErrorTypeRegistered reports whether the given error type name is registered.
func IsErrorTypeRegistered(name string) bool {
	registryMutex.RLock()
	defer registryMutex.RUnlock()
	_, ok := errorRegistry[name]
	return ok
}

// BatchError is the error type raised by platform components. It carries the
// module the error originated in, a message, the wrapped original error, and
// flags that drive skip and retry decisions.
type BatchError struct {
	// Module indicates where the error occurred (e.g. "sequencer", "partition", "staging").
	Module string
	// Message is a concise description of the error.
	Message string
	// OriginalErr is the wrapped original error.
	OriginalErr error
	// isRetryable marks errors that a restarted execution may succeed past.
	isRetryable bool
	// isSkippable marks errors confined to a single record.
	isSkippable bool
	// StackTrace is the stack captured at construction time.
	StackTrace string
}

// NewBatchError creates a new BatchError instance.
func NewBatchError(module, message string, originalErr error, isSkippable, isRetryable bool) *BatchError {
	buf := make([]byte, 2048)
	n := runtime.Stack(buf, false)
	stackTrace := string(buf[:n])

	return &BatchError{
		Module:      module,
		Message:     message,
		OriginalErr: originalErr,
		isRetryable: isRetryable,
		isSkippable: isSkippable,
		StackTrace:  stackTrace,
	}
}

// NewBatchErrorf creates a new BatchError from a format string.
// Optional trailing arguments are extracted from the end of 'a' in the order
// [isSkippable bool], [isRetryable bool], [originalErr error]; the remaining
// arguments feed fmt.Sprintf.
//
// Examples:
// NewBatchErrorf("staging", "failed to fetch records for %s", "200", true, true, sql.ErrConnDone)
// -> message: "failed to fetch records for 200", isSkippable: true, isRetryable: true
//
// NewBatchErrorf("guard", "key not found: %s", "job-42", sql.ErrNoRows)
// -> message: "key not found: job-42", isSkippable: false, isRetryable: false
func NewBatchErrorf(module, format string, a ...interface{}) *BatchError {
	var originalErr error
	isRetryable := false
	isSkippable := false
	args := a

	// Extract error, isRetryable, isSkippable from the tail, in that order.
	if len(args) > 0 {
		if err, ok := args[len(args)-1].(error); ok {
			originalErr = err
			args = args[:len(args)-1]
		}
	}

	if len(args) > 0 {
		if b, ok := args[len(args)-1].(bool); ok {
			isRetryable = b
			args = args[:len(args)-1]
		}
	}

	if len(args) > 0 {
		if b, ok := args[len(args)-1].(bool); ok {
			isSkippable = b
			args = args[:len(args)-1]
		}
	}

	message := fmt.Sprintf(format, args...)

	buf := make([]byte, 2048)
	n := runtime.Stack(buf, false)
	stackTrace := string(buf[:n])

	return &BatchError{
		Module:      module,
		Message:     message,
		OriginalErr: originalErr,
		isRetryable: isRetryable,
		isSkippable: isSkippable,
		StackTrace:  stackTrace,
	}
}

// OptimisticLockingFailureException names a compare-and-set failure on shared state.
const OptimisticLockingFailureException = "OptimisticLockingFailureException"

// NewOptimisticLockingFailureException creates a BatchError indicating that a
// compare-and-set update lost to a concurrent writer. Neither retryable nor
// skippable; the caller decides how to surface the conflict.
func NewOptimisticLockingFailureException(module, message string, originalErr error) *BatchError {
	var errToWrap error
	if originalErr != nil {
		errToWrap = errors.Join(ErrOptimisticLockingFailure, originalErr)
	} else {
		errToWrap = ErrOptimisticLockingFailure
	}

	return NewBatchError(module, message, errToWrap, false, false)
}

// Error implements the error interface.
func (e *BatchError) Error() string {
	if e.OriginalErr != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Module, e.Message, e.OriginalErr)
	}
	return fmt.Sprintf("[%s] %s", e.Module, e.Message)
}

// Unwrap returns the original error for errors.Unwrap.
func (e *BatchError) Unwrap() error {
	return e.OriginalErr
}

// IsRetryable returns whether this error is retryable.
func (e *BatchError) IsRetryable() bool {
	return e.isRetryable
}

// IsSkippable returns whether this error is skippable.
func (e *BatchError) IsSkippable() bool {
	return e.isSkippable
}

// IsBatchError reports whether the given error is a BatchError.
func IsBatchError(err error) bool {
	if err == nil {
		return false
	}
	_, ok := err.(*BatchError)
	return ok
}

// IsTemporary reports whether an error is transient (network hiccup, connection
// drop). The IsRetryable flag of a BatchError takes precedence.
func IsTemporary(err error) bool {
	if err == nil {
		return false
	}
	if be, ok := err.(*BatchError); ok {
		return be.IsRetryable()
	}
	errStr := err.Error()
	return strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "EOF")
}

// IsFatal reports whether an error is fatal, meaning neither a record skip nor
// an execution retry can get past it. BatchError flags take precedence.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	if be, ok := err.(*BatchError); ok {
		return !be.IsRetryable() && !be.IsSkippable()
	}
	errStr := err.Error()
	return strings.Contains(errStr, "invalid argument") ||
		strings.Contains(errStr, "permission denied") ||
		strings.Contains(errStr, "data corruption")
}

// IsErrorOfType reports whether an error matches the named type.
// The name may be a registered sentinel, a Go type name (e.g. "*net.OpError"),
// or a substring of an error message. Checks run in that order, walking the
// whole unwrap chain.
func IsErrorOfType(err error, errorTypeName string) bool {
	if err == nil {
		return false
	}

	registryMutex.RLock()
	targetError, ok := errorRegistry[errorTypeName]
	registryMutex.RUnlock()

	if ok {
		if errors.Is(err, targetError) {
			return true
		}
	}

	currentErr := err
	for currentErr != nil {
		if strings.Contains(currentErr.Error(), errorTypeName) {
			return true
		}

		errType := reflect.TypeOf(currentErr)
		if errType != nil {
			if errType.String() == errorTypeName || (errType.Kind() == reflect.Ptr && errType.Elem().String() == errorTypeName) {
				return true
			}
		}

		currentErr = errors.Unwrap(currentErr)
	}

	return false
}

// ErrOptimisticLockingFailure is the sentinel for compare-and-set failures.
var ErrOptimisticLockingFailure = errors.New(OptimisticLockingFailureException)

func init() {
	RegisterErrorType(OptimisticLockingFailureException, ErrOptimisticLockingFailure)

	// Common error names available for classification checks.
	RegisterErrorType("io.EOF", errors.New("io.EOF"))
	RegisterErrorType("net.OpError", errors.New("net.OpError"))
	RegisterErrorType("context.DeadlineExceeded", context.DeadlineExceeded)
	RegisterErrorType("context.Canceled", context.Canceled)
	RegisterErrorType("sql.ErrNoRows", sql.ErrNoRows)
	RegisterErrorType("strconv.NumError", &strconv.NumError{Func: "ParseInt", Num: "", Err: strconv.ErrSyntax})
}

// IsOptimisticLockingFailure reports whether an error is a compare-and-set failure.
func IsOptimisticLockingFailure(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrOptimisticLockingFailure)
}

// ExtractErrorMessage extracts a display message from an error.
// For a BatchError it returns the cleaner Message field.
func ExtractErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	if be, ok := err.(*BatchError); ok {
		return be.Message
	}
	return err.Error()
}
