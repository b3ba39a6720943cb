package jobdef_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	config "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/config"
	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/config/jobdef"
	model "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/domain/model"
	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/support/util/exception"
)

const settlementDefinition = `
name: daily-settlement
description: Nightly settlement interface file
processing:
  mode: COMPLEX
  parallel-threads: 2
  error-threshold-percent: 10
output:
  format: delimited
  delimiter: "|"
  path: settlement_${businessDate}.txt
  header: "H|${jobName}|${businessDate}"
  footer: "T|${recordCount}|${total_amount}"
transaction-types:
  - code: FEE
    name: Fees
    processing-order: 2
    parallel: true
    depends-on: [SETTLE]
    field-mappings:
      - target: account
        position: 1
        required: true
        rule: {kind: source, source: account}
  - code: SETTLE
    name: Settlements
    processing-order: 1
    parallel: true
    selector:
      filter: status = 'READY'
      order-by: account
    field-mappings:
      - target: account
        position: 1
        rule: {kind: source, source: account}
      - target: amount
        position: 2
        type: numeric
        rule: {kind: composite, sources: [principal, interest], operation: sum}
`

func loadOne(t *testing.T, document string) (*jobdef.Registry, *jobdef.JobDefinition) {
	t.Helper()
	registry := jobdef.NewRegistry()
	assert.NoError(t, registry.Load([]byte(document)))
	names := registry.Names()
	if !assert.Len(t, names, 1) {
		t.FailNow()
	}
	def, ok := registry.Get(names[0])
	assert.True(t, ok)
	return registry, def
}

func TestLoad_ParsesCompleteDefinition(t *testing.T) {
	registry, def := loadOne(t, settlementDefinition)

	assert.Equal(t, 1, registry.Count())
	assert.Equal(t, "daily-settlement", def.Name)
	assert.Equal(t, "COMPLEX", def.Processing.Mode)
	assert.Equal(t, 2, def.Processing.ParallelThreads)
	assert.Equal(t, model.FormatDelimited, def.Output.Format)
	assert.Equal(t, "|", def.Output.Delimiter)
	assert.Equal(t, "H|${jobName}|${businessDate}", def.Output.Header)

	if assert.Len(t, def.TransactionTypes, 2) {
		fee := def.TransactionTypes[0]
		assert.Equal(t, "FEE", fee.Code)
		assert.Equal(t, 2, fee.ProcessingOrder)
		assert.True(t, fee.ParallelEligible)
		assert.Equal(t, []string{"SETTLE"}, fee.DependsOn)

		settle := def.TransactionTypes[1]
		assert.Equal(t, "status = 'READY'", settle.Selector.Filter)
		assert.Equal(t, "account", settle.Selector.OrderBy)
		if assert.Len(t, settle.FieldMappings, 2) {
			assert.Equal(t, model.RuleComposite, settle.FieldMappings[1].Rule.Kind)
			assert.Equal(t, model.CompositeSum, settle.FieldMappings[1].Rule.Operation)
		}
	}
}

func TestLoad_RejectsMalformedYAML(t *testing.T) {
	registry := jobdef.NewRegistry()
	err := registry.Load([]byte("name: [unclosed"))
	assert.Error(t, err)
	assert.True(t, exception.IsConfigurationError(err))
	assert.Equal(t, 0, registry.Count())
}

func TestLoad_RejectsMissingName(t *testing.T) {
	registry := jobdef.NewRegistry()
	err := registry.Load([]byte("description: no name here"))
	assert.Error(t, err)
	assert.True(t, exception.IsConfigurationError(err))
}

func TestLoad_RejectsDuplicateName(t *testing.T) {
	registry := jobdef.NewRegistry()
	assert.NoError(t, registry.Load([]byte(settlementDefinition)))
	err := registry.Load([]byte(settlementDefinition))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "registered twice")
	assert.Equal(t, 1, registry.Count())
}

func TestLoadAll_StopsAtFirstFailure(t *testing.T) {
	registry := jobdef.NewRegistry()
	err := registry.LoadAll(
		[]byte(settlementDefinition),
		[]byte("description: no name"),
		[]byte("name: never-loaded\noutput: {path: out.txt}"),
	)
	assert.Error(t, err)
	assert.Equal(t, 1, registry.Count())
	_, ok := registry.Get("never-loaded")
	assert.False(t, ok)
}

func TestValidate_OutputFormatDefaultsToFixed(t *testing.T) {
	_, def := loadOne(t, `
name: plain
output:
  path: out.txt
`)
	assert.Equal(t, model.FormatFixed, def.Output.Format)
}

func TestValidate_RejectsUnknownOutputFormat(t *testing.T) {
	registry := jobdef.NewRegistry()
	err := registry.Load([]byte(`
name: plain
output:
  format: xml
  path: out.xml
`))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "fixed or delimited")
}

func TestValidate_RejectsDelimitedWithoutDelimiter(t *testing.T) {
	registry := jobdef.NewRegistry()
	err := registry.Load([]byte(`
name: plain
output:
  format: delimited
  path: out.csv
`))
	assert.Error(t, err)
	assert.True(t, exception.IsConfigurationError(err))
}

func TestValidate_RejectsDuplicateTypeCode(t *testing.T) {
	registry := jobdef.NewRegistry()
	err := registry.Load([]byte(`
name: dup
output: {path: out.txt}
transaction-types:
  - code: A
    processing-order: 1
  - code: A
    processing-order: 2
`))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "transaction type 'A' twice")
}

func TestValidate_RejectsDuplicateFieldPosition(t *testing.T) {
	registry := jobdef.NewRegistry()
	err := registry.Load([]byte(`
name: dup-pos
output: {path: out.txt}
transaction-types:
  - code: A
    processing-order: 1
    field-mappings:
      - target: first
        position: 1
        length: 4
        rule: {kind: blank}
      - target: second
        position: 1
        length: 4
        rule: {kind: blank}
`))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "position 1 already used by field 'first'")
}

func TestValidate_FixedOutputRequiresFieldLength(t *testing.T) {
	registry := jobdef.NewRegistry()
	err := registry.Load([]byte(`
name: fixed-len
output: {format: fixed, path: out.txt}
transaction-types:
  - code: A
    processing-order: 1
    field-mappings:
      - target: account
        position: 1
        rule: {kind: source, source: account}
`))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "requires a length >= 1")
}

func TestValidate_RuleShapes(t *testing.T) {
	cases := []struct {
		name    string
		rule    string
		message string
	}{
		{"source without field", `{kind: source}`, "missing its source field name"},
		{"composite without sources", `{kind: composite, operation: sum}`, "declares no sources"},
		{"composite unknown operation", `{kind: composite, sources: [a], operation: multiply}`, "unknown composite operation"},
		{"conditional without then", `{kind: conditional, condition: {field: f, operator: eq, value: x}}`, "requires a condition and a then branch"},
		{"conditional unknown operator", `{kind: conditional, condition: {field: f, operator: matches, value: x}, then: {kind: blank}}`, "unknown condition operator"},
		{"unknown kind", `{kind: lookup}`, "unknown rule kind"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			registry := jobdef.NewRegistry()
			err := registry.Load([]byte(`
name: rules
output: {path: out.txt}
transaction-types:
  - code: A
    processing-order: 1
    field-mappings:
      - target: field
        position: 1
        length: 4
        rule: ` + tc.rule + `
`))
			assert.Error(t, err)
			assert.True(t, exception.IsConfigurationError(err))
			assert.Contains(t, err.Error(), tc.message)
		})
	}
}

func TestValidate_RecursesIntoConditionalBranches(t *testing.T) {
	registry := jobdef.NewRegistry()
	err := registry.Load([]byte(`
name: nested
output: {path: out.txt}
transaction-types:
  - code: A
    processing-order: 1
    field-mappings:
      - target: field
        position: 1
        length: 4
        rule:
          kind: conditional
          condition: {field: f, operator: eq, value: x}
          then: {kind: blank}
          else: {kind: source}
`))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "missing its source field name")
}

func TestEffectiveBatchConfig_AppliesOverrides(t *testing.T) {
	_, def := loadOne(t, settlementDefinition)
	base := config.NewConfig().Fabric.Batch

	effective, err := def.EffectiveBatchConfig(base)
	assert.NoError(t, err)
	assert.Equal(t, "daily-settlement", effective.JobName)
	assert.Equal(t, "COMPLEX", effective.ProcessingMode)
	assert.Equal(t, 2, effective.ParallelThreads)
	assert.Equal(t, 10, effective.ErrorThresholdPercent)
	assert.Equal(t, base.ChunkSize, effective.ChunkSize, "chunk size stays platform-wide")
	assert.Equal(t, base.RetryCooldownSeconds, effective.RetryCooldownSeconds, "cooldown stays platform-wide")
}

func TestEffectiveBatchConfig_NormalizesAndValidates(t *testing.T) {
	base := config.NewConfig().Fabric.Batch

	lower := &jobdef.JobDefinition{Name: "lower", Processing: jobdef.ProcessingOverrides{Mode: "complex"}}
	effective, err := lower.EffectiveBatchConfig(base)
	assert.NoError(t, err)
	assert.Equal(t, "COMPLEX", effective.ProcessingMode)

	bogus := &jobdef.JobDefinition{Name: "bogus", Processing: jobdef.ProcessingOverrides{Mode: "SOMETIMES"}}
	_, err = bogus.EffectiveBatchConfig(base)
	assert.Error(t, err)
	assert.True(t, exception.IsConfigurationError(err))
}

func TestAccessors_TypesAndMappings(t *testing.T) {
	_, def := loadOne(t, settlementDefinition)

	types := def.Types()
	if assert.Len(t, types, 2) {
		assert.Equal(t, "FEE", types[0].Code)
		assert.Equal(t, "SETTLE", types[1].Code)
	}

	mappings := def.MappingsByType()
	assert.Len(t, mappings["SETTLE"], 2)
	assert.Len(t, mappings["FEE"], 1)
}
