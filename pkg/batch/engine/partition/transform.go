package partition

import (
	"fmt"
	"strconv"
	"strings"

	model "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/domain/model"
	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/support/util/exception"
)

// applyRule evaluates one transformation rule against a record's payload.
// Configuration mistakes (unknown kinds, missing branches) surface as
// configuration errors and abort the partition; value-level problems (a
// non-numeric source under a sum) surface as validation errors and fail only
// the record.
func applyRule(rule model.FieldRule, payload model.Payload) (string, error) {
	switch rule.Kind {
	case model.RuleSource:
		if rule.Source == "" {
			return "", exception.NewConfigurationError(moduleName, "source rule is missing its source field name", nil)
		}
		return payload[rule.Source], nil

	case model.RuleConstant:
		return rule.Constant, nil

	case model.RuleComposite:
		return applyComposite(rule, payload)

	case model.RuleConditional:
		return applyConditional(rule, payload)

	case model.RuleBlank:
		return "", nil

	default:
		return "", exception.NewConfigurationError(moduleName, fmt.Sprintf("unknown rule kind '%s'", rule.Kind), nil)
	}
}

// applyComposite combines the named source fields. Concatenation joins the raw
// values with the configured delimiter; sum parses each non-blank value as a
// number and emits the total.
func applyComposite(rule model.FieldRule, payload model.Payload) (string, error) {
	if len(rule.Sources) == 0 {
		return "", exception.NewConfigurationError(moduleName, "composite rule declares no sources", nil)
	}

	switch rule.Operation {
	case model.CompositeConcat, "":
		values := make([]string, len(rule.Sources))
		for i, source := range rule.Sources {
			values[i] = payload[source]
		}
		return strings.Join(values, rule.Delimiter), nil

	case model.CompositeSum:
		var sum float64
		for _, source := range rule.Sources {
			raw := strings.TrimSpace(payload[source])
			if raw == "" {
				continue
			}
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return "", exception.NewValidationError(
					moduleName, fmt.Sprintf("composite sum source '%s' is not numeric: %q", source, raw), err)
			}
			sum += v
		}
		return strconv.FormatFloat(sum, 'f', -1, 64), nil

	default:
		return "", exception.NewConfigurationError(
			moduleName, fmt.Sprintf("unknown composite operation '%s'", rule.Operation), nil)
	}
}

// applyConditional evaluates the predicate and delegates to the matching
// branch. A conditional without an else branch emits a blank on no match.
func applyConditional(rule model.FieldRule, payload model.Payload) (string, error) {
	if rule.Condition == nil || rule.Then == nil {
		return "", exception.NewConfigurationError(moduleName, "conditional rule requires a condition and a then branch", nil)
	}
	matched, err := evaluateCondition(*rule.Condition, payload)
	if err != nil {
		return "", err
	}
	if matched {
		return applyRule(*rule.Then, payload)
	}
	if rule.Else == nil {
		return "", nil
	}
	return applyRule(*rule.Else, payload)
}

// evaluateCondition compares a payload field against the configured value.
// eq/ne/contains compare as strings; the relational operators compare
// numerically. A non-numeric payload value under a relational operator is a
// validation failure of the record, while a non-numeric configured value is a
// configuration error.
func evaluateCondition(cond model.Condition, payload model.Payload) (bool, error) {
	actual := payload[cond.Field]

	switch cond.Operator {
	case model.OpEquals:
		return actual == cond.Value, nil
	case model.OpNotEquals:
		return actual != cond.Value, nil
	case model.OpContains:
		return strings.Contains(actual, cond.Value), nil

	case model.OpGreaterThan, model.OpLessThan, model.OpGreaterEqual, model.OpLessEqual:
		left, err := strconv.ParseFloat(strings.TrimSpace(actual), 64)
		if err != nil {
			return false, exception.NewValidationError(
				moduleName, fmt.Sprintf("condition field '%s' is not numeric: %q", cond.Field, actual), err)
		}
		right, err := strconv.ParseFloat(strings.TrimSpace(cond.Value), 64)
		if err != nil {
			return false, exception.NewConfigurationError(
				moduleName, fmt.Sprintf("condition value for field '%s' is not numeric: %q", cond.Field, cond.Value), err)
		}
		switch cond.Operator {
		case model.OpGreaterThan:
			return left > right, nil
		case model.OpLessThan:
			return left < right, nil
		case model.OpGreaterEqual:
			return left >= right, nil
		default:
			return left <= right, nil
		}

	default:
		return false, exception.NewConfigurationError(
			moduleName, fmt.Sprintf("unknown condition operator '%s'", cond.Operator), nil)
	}
}
