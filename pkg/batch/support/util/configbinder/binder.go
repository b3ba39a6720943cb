// Package configbinder binds loosely typed configuration maps onto typed
// configuration structs. The adapter layers use it to decode the named
// entries under 'fabric.database' and 'fabric.storage', whose fields are only
// known to the adapter that owns them.
package configbinder

import (
	"fmt"
	"reflect"

	"github.com/mitchellh/mapstructure"
)

// BindConfigMap binds a raw configuration value, typically a
// map[string]interface{} produced by the YAML loader, to a target struct. The
// target's `yaml` tags name the keys; string values are weakly converted to
// numbers and booleans.
func BindConfigMap(raw interface{}, target interface{}) error {
	if raw == nil {
		return nil
	}

	config := &mapstructure.DecoderConfig{
		Metadata: nil,
		Result:   target,
		// WeaklyTypedInput converts strings to numbers, bools, etc.
		WeaklyTypedInput: true,
		TagName:          "yaml",
	}

	decoder, err := mapstructure.NewDecoder(config)
	if err != nil {
		return fmt.Errorf("failed to create mapstructure decoder: %w", err)
	}

	if err := decoder.Decode(raw); err != nil {
		targetType := reflect.TypeOf(target)
		if targetType.Kind() == reflect.Ptr {
			targetType = targetType.Elem()
		}
		return fmt.Errorf("failed to bind configuration to struct %s: %w", targetType.Name(), err)
	}

	return nil
}
