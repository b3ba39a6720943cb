// Package template renders the header and footer lines of an output file from
// the templates declared in the job definition. Templates use ${name}
// placeholders; every referenced name must resolve, an undefined name is a
// configuration error rather than a silent blank.
package template

import (
	"fmt"
	"strconv"
	"strings"

	port "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/application/port"
	model "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/domain/model"
	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/support/util/exception"
)

const moduleName = "template"

// Aggregate variable names injected into footer rendering. Field control
// totals are exposed as total_<target> alongside these.
const (
	VarRecordCount = "recordCount"
	VarFailedCount = "failedCount"
	totalVarPrefix = "total_"
)

// Generator implements port.HeaderFooterGenerator for one job definition's
// header and footer templates. An empty template renders to an empty string.
type Generator struct {
	headerTemplate string
	footerTemplate string
}

// NewGenerator creates a Generator for the given templates.
func NewGenerator(headerTemplate, footerTemplate string) *Generator {
	return &Generator{
		headerTemplate: headerTemplate,
		footerTemplate: footerTemplate,
	}
}

var _ port.HeaderFooterGenerator = (*Generator)(nil)

// Header renders the header template against the given variables.
func (g *Generator) Header(vars map[string]string) (string, error) {
	return expand("header", g.headerTemplate, vars)
}

// Expand renders a standalone template, such as an output path, under the same
// placeholder rules as header and footer rendering. The name identifies the
// template in error messages.
func Expand(name, template string, vars map[string]string) (string, error) {
	return expand(name, template, vars)
}

// Footer renders the footer template. In addition to the caller's variables,
// the footer has access to the execution aggregates: ${recordCount},
// ${failedCount}, and one ${total_<target>} per accumulated control total.
// Caller variables never shadow aggregates.
func (g *Generator) Footer(vars map[string]string, summary model.FooterSummary) (string, error) {
	merged := make(map[string]string, len(vars)+2+len(summary.Totals))
	for k, v := range vars {
		merged[k] = v
	}
	merged[VarRecordCount] = strconv.FormatInt(summary.RecordCount, 10)
	merged[VarFailedCount] = strconv.FormatInt(summary.FailedCount, 10)
	for field, total := range summary.Totals {
		merged[totalVarPrefix+field] = strconv.FormatFloat(total, 'f', -1, 64)
	}
	return expand("footer", g.footerTemplate, merged)
}

// expand substitutes ${name} placeholders from the variable map. A '$' not
// followed by '{' is literal text, so currency amounts pass through untouched.
// An unterminated placeholder or an undefined name is a configuration error
// naming the template and the variable.
func expand(templateName, template string, vars map[string]string) (string, error) {
	var b strings.Builder
	b.Grow(len(template))

	for i := 0; i < len(template); {
		c := template[i]
		if c != '$' || i+1 >= len(template) || template[i+1] != '{' {
			b.WriteByte(c)
			i++
			continue
		}

		end := strings.IndexByte(template[i+2:], '}')
		if end < 0 {
			return "", exception.NewConfigurationError(moduleName,
				fmt.Sprintf("%s template has an unterminated placeholder at offset %d", templateName, i), nil)
		}
		name := template[i+2 : i+2+end]
		value, ok := vars[name]
		if !ok {
			return "", exception.NewConfigurationError(moduleName,
				fmt.Sprintf("%s template references undefined variable '%s'", templateName, name), nil)
		}
		b.WriteString(value)
		i += 2 + end + 1
	}
	return b.String(), nil
}
