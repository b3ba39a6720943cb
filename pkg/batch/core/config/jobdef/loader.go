package jobdef

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/support/util/exception"
	logger "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/support/util/logger"
)

const moduleName = "jobdef"

// Registry holds the loaded job definitions keyed by job name. Definitions
// are loaded once at startup; lookups after that are read-only.
type Registry struct {
	definitions map[string]*JobDefinition
}

// NewRegistry creates an empty job definition registry.
func NewRegistry() *Registry {
	return &Registry{definitions: make(map[string]*JobDefinition)}
}

// Load parses one job definition YAML document, validates it and registers it
// under its name. A duplicate name is a configuration error.
func (r *Registry) Load(data []byte) error {
	var def JobDefinition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return exception.NewConfigurationError(moduleName, "failed to parse job definition", err)
	}

	if err := def.Validate(); err != nil {
		return err
	}

	if _, exists := r.definitions[def.Name]; exists {
		return exception.NewConfigurationError(moduleName,
			fmt.Sprintf("job definition '%s' is registered twice", def.Name), nil)
	}

	r.definitions[def.Name] = &def
	logger.Infof("Loaded job definition '%s' with %d transaction types.", def.Name, len(def.TransactionTypes))
	return nil
}

// LoadAll loads every document in order and stops at the first failure.
func (r *Registry) LoadAll(documents ...[]byte) error {
	for _, data := range documents {
		if err := r.Load(data); err != nil {
			return err
		}
	}
	logger.Infof("Job definition loading completed. Number of jobs loaded: %d", len(r.definitions))
	return nil
}

// Get retrieves a job definition by name.
func (r *Registry) Get(name string) (*JobDefinition, bool) {
	def, ok := r.definitions[name]
	return def, ok
}

// Names returns the registered job names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.definitions))
	for name := range r.definitions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered job definitions.
func (r *Registry) Count() int {
	return len(r.definitions)
}
