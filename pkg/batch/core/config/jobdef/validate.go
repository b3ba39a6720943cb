package jobdef

import (
	"fmt"
	"strings"

	model "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/domain/model"
	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/support/util/exception"
)

// Validate checks everything that can be decided from the definition alone:
// naming, output layout, duplicate type codes, and the shape of every field
// mapping rule. Cross-type dependency references are the sequencer's concern
// and are checked when the execution graph is built.
func (d *JobDefinition) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return exception.NewConfigurationError(moduleName, "job definition has no name", nil)
	}
	if err := d.validateOutput(); err != nil {
		return err
	}

	seen := make(map[string]bool, len(d.TransactionTypes))
	for _, t := range d.TransactionTypes {
		if t.Code == "" {
			return exception.NewConfigurationError(moduleName,
				fmt.Sprintf("job '%s' declares a transaction type without a code", d.Name), nil)
		}
		if seen[t.Code] {
			return exception.NewConfigurationError(moduleName,
				fmt.Sprintf("job '%s' declares transaction type '%s' twice", d.Name, t.Code), nil)
		}
		seen[t.Code] = true

		if err := d.validateMappings(t); err != nil {
			return err
		}
	}
	return nil
}

func (d *JobDefinition) validateOutput() error {
	switch d.Output.Format {
	case "":
		d.Output.Format = model.FormatFixed
	case model.FormatFixed, model.FormatDelimited:
	default:
		return exception.NewConfigurationError(moduleName,
			fmt.Sprintf("job '%s' output format must be fixed or delimited, got '%s'", d.Name, d.Output.Format), nil)
	}
	if d.Output.Format == model.FormatDelimited && d.Output.Delimiter == "" {
		return exception.NewConfigurationError(moduleName,
			fmt.Sprintf("job '%s' uses delimited output without a delimiter", d.Name), nil)
	}
	return nil
}

func (d *JobDefinition) validateMappings(t TransactionTypeDef) error {
	positions := make(map[int]string, len(t.FieldMappings))
	for _, mapping := range t.FieldMappings {
		where := fmt.Sprintf("job '%s' type '%s' field '%s'", d.Name, t.Code, mapping.TargetName)

		if mapping.TargetName == "" {
			return exception.NewConfigurationError(moduleName,
				fmt.Sprintf("job '%s' type '%s' declares a field mapping without a target", d.Name, t.Code), nil)
		}
		if prior, dup := positions[mapping.Position]; dup {
			return exception.NewConfigurationError(moduleName,
				fmt.Sprintf("%s: position %d already used by field '%s'", where, mapping.Position, prior), nil)
		}
		positions[mapping.Position] = mapping.TargetName

		if d.Output.Format == model.FormatFixed && mapping.Length < 1 {
			return exception.NewConfigurationError(moduleName,
				fmt.Sprintf("%s: fixed output requires a length >= 1", where), nil)
		}
		if err := validateRule(mapping.Rule, where); err != nil {
			return err
		}
	}
	return nil
}

// validateRule checks one rule tree, recursing into conditional branches.
func validateRule(rule model.FieldRule, where string) error {
	switch rule.Kind {
	case model.RuleSource:
		if rule.Source == "" {
			return exception.NewConfigurationError(moduleName,
				fmt.Sprintf("%s: source rule is missing its source field name", where), nil)
		}

	case model.RuleConstant, model.RuleBlank:

	case model.RuleComposite:
		if len(rule.Sources) == 0 {
			return exception.NewConfigurationError(moduleName,
				fmt.Sprintf("%s: composite rule declares no sources", where), nil)
		}
		switch rule.Operation {
		case "", model.CompositeConcat, model.CompositeSum:
		default:
			return exception.NewConfigurationError(moduleName,
				fmt.Sprintf("%s: unknown composite operation '%s'", where, rule.Operation), nil)
		}

	case model.RuleConditional:
		if rule.Condition == nil || rule.Then == nil {
			return exception.NewConfigurationError(moduleName,
				fmt.Sprintf("%s: conditional rule requires a condition and a then branch", where), nil)
		}
		if err := validateCondition(*rule.Condition, where); err != nil {
			return err
		}
		if err := validateRule(*rule.Then, where); err != nil {
			return err
		}
		if rule.Else != nil {
			if err := validateRule(*rule.Else, where); err != nil {
				return err
			}
		}

	default:
		return exception.NewConfigurationError(moduleName,
			fmt.Sprintf("%s: unknown rule kind '%s'", where, rule.Kind), nil)
	}
	return nil
}

func validateCondition(cond model.Condition, where string) error {
	if cond.Field == "" {
		return exception.NewConfigurationError(moduleName,
			fmt.Sprintf("%s: condition is missing its field", where), nil)
	}
	switch cond.Operator {
	case model.OpEquals, model.OpNotEquals, model.OpContains,
		model.OpGreaterThan, model.OpLessThan, model.OpGreaterEqual, model.OpLessEqual:
		return nil
	default:
		return exception.NewConfigurationError(moduleName,
			fmt.Sprintf("%s: unknown condition operator '%s'", where, cond.Operator), nil)
	}
}
