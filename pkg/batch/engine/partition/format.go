package partition

import (
	"strings"

	model "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/domain/model"
)

// formatSegment applies the trim and padding policy last, producing the final
// output segment. A mapping without a length passes the value through for
// delimited output. A sized mapping yields at most Length runes: overflow is
// truncated, shortfall is padded unless the pad side is none. An unset pad
// side defaults to left for numeric fields and right otherwise, matching
// fixed-width file conventions.
func formatSegment(mapping model.FieldMapping, value string) string {
	if mapping.Padding.Trim {
		value = strings.TrimSpace(value)
	}
	if mapping.Length <= 0 {
		return value
	}

	runes := []rune(value)
	if len(runes) >= mapping.Length {
		return string(runes[:mapping.Length])
	}
	if mapping.Padding.Side == model.PadNone {
		return value
	}

	padChar := " "
	if mapping.Padding.Char != "" {
		padChar = string([]rune(mapping.Padding.Char)[0])
	}
	side := mapping.Padding.Side
	if side == "" {
		if mapping.Type == model.FieldTypeNumeric {
			side = model.PadLeft
		} else {
			side = model.PadRight
		}
	}

	fill := strings.Repeat(padChar, mapping.Length-len(runes))
	if side == model.PadLeft {
		return fill + value
	}
	return value + fill
}
