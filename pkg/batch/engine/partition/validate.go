package partition

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	model "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/domain/model"
	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/support/util/exception"
)

// defaultDateLayout is assumed for date-typed fields without an explicit format.
const defaultDateLayout = "2006-01-02"

// validateField checks the transformed value against the mapping's declared
// constraints. Validation runs after transformation and before formatting, so
// padding never masks an empty required field. Failures are validation errors:
// they fail the record, not the partition.
func validateField(mapping model.FieldMapping, value string) error {
	trimmed := strings.TrimSpace(value)

	if mapping.Required && trimmed == "" {
		return exception.NewValidationError(
			moduleName, fmt.Sprintf("required field '%s' is empty", mapping.TargetName), nil)
	}
	if trimmed == "" {
		return nil
	}

	switch mapping.Type {
	case model.FieldTypeNumeric:
		if _, err := strconv.ParseFloat(trimmed, 64); err != nil {
			return exception.NewValidationError(
				moduleName, fmt.Sprintf("field '%s' is not numeric: %q", mapping.TargetName, value), err)
		}
	case model.FieldTypeDate:
		layout := mapping.Format
		if layout == "" {
			layout = defaultDateLayout
		}
		if _, err := time.Parse(layout, trimmed); err != nil {
			return exception.NewValidationError(
				moduleName, fmt.Sprintf("field '%s' does not match date layout %q: %q", mapping.TargetName, layout, value), err)
		}
	}
	return nil
}
