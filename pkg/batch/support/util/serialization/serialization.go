// Package serialization provides JSON helpers for the data structures the
// platform persists, such as execution parameters, staging payloads, and
// per-record failure lists.
package serialization

import (
	"encoding/json"

	config "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/config"
	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/support/util/exception"
	logger "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/support/util/logger"
)

// GetMaskedParametersMap copies an execution parameters map and masks the
// values of keys configured as sensitive.
func GetMaskedParametersMap(params map[string]interface{}) map[string]interface{} {
	if len(params) == 0 {
		return map[string]interface{}{}
	}

	maskedParams := make(map[string]interface{}, len(params))
	for k, v := range params {
		maskedParams[k] = v
	}

	maskedKeys := config.GetMaskedParameterKeys()
	for _, key := range maskedKeys {
		if _, ok := maskedParams[key]; ok {
			maskedParams[key] = "********"
		}
	}
	return maskedParams
}

// MarshalExecutionParameters serializes an execution parameters map to JSON,
// masking sensitive keys as configured.
func MarshalExecutionParameters(params map[string]interface{}) ([]byte, error) {
	module := "serialization"

	maskedParams := GetMaskedParametersMap(params)

	if len(maskedParams) == 0 {
		logger.Debugf("Execution parameters are empty. Returning empty JSON object.")
		return []byte("{}"), nil
	}

	data, err := json.Marshal(maskedParams)
	if err != nil {
		logger.Errorf("Failed to serialize execution parameters: %v", err)
		return nil, exception.NewBatchError(module, "Failed to serialize execution parameters", err, false, false)
	}
	return data, nil
}

// UnmarshalExecutionParameters deserializes JSON into an execution parameters map.
func UnmarshalExecutionParameters(data []byte, params *map[string]interface{}) error {
	module := "serialization"

	if len(data) == 0 || string(data) == "null" {
		*params = make(map[string]interface{})
		logger.Debugf("Execution parameters data is empty. Created new empty map.")
		return nil
	}

	if *params == nil {
		*params = make(map[string]interface{})
	} else {
		for k := range *params {
			delete(*params, k)
		}
	}

	err := json.Unmarshal(data, params)
	if err != nil {
		logger.Errorf("Failed to deserialize execution parameters: %v", err)
		return exception.NewBatchError(module, "Failed to deserialize execution parameters", err, false, false)
	}
	return nil
}

// MarshalPayload serializes a staging record payload (field name to value) to JSON.
func MarshalPayload(payload map[string]string) ([]byte, error) {
	module := "serialization"

	if payload == nil {
		return []byte("{}"), nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		logger.Errorf("Failed to serialize staging payload: %v", err)
		return nil, exception.NewBatchError(module, "Failed to serialize staging payload", err, false, false)
	}
	return data, nil
}

// UnmarshalPayload deserializes JSON into a staging record payload map.
func UnmarshalPayload(data []byte, payload *map[string]string) error {
	module := "serialization"

	if *payload == nil {
		*payload = make(map[string]string)
	} else {
		for k := range *payload {
			delete(*payload, k)
		}
	}

	if len(data) == 0 || string(data) == "null" || string(data) == "{}" {
		return nil
	}

	err := json.Unmarshal(data, payload)
	if err != nil {
		logger.Errorf("Failed to deserialize staging payload: %v", err)
		return exception.NewBatchError(module, "Failed to deserialize staging payload", err, false, false)
	}
	return nil
}

// MarshalFailures serializes a slice of failure messages to JSON.
func MarshalFailures(failures []string) ([]byte, error) {
	module := "serialization"

	if failures == nil {
		logger.Debugf("Failures is nil. Returning empty JSON array.")
		return []byte("[]"), nil
	}

	data, err := json.Marshal(failures)
	if err != nil {
		logger.Errorf("Failed to serialize failures: %v", err)
		return nil, exception.NewBatchError(module, "Failed to serialize failures", err, false, false)
	}
	return data, nil
}

// UnmarshalFailures deserializes JSON into a slice of failure messages.
func UnmarshalFailures(data []byte, msgs *[]string) error {
	module := "serialization"

	if len(data) == 0 || string(data) == "null" {
		*msgs = []string{}
		return nil
	}

	err := json.Unmarshal(data, msgs)
	if err != nil {
		logger.Errorf("Failed to deserialize failures: %v", err)
		return exception.NewBatchError(module, "Failed to deserialize failures", err, false, false)
	}

	return nil
}
