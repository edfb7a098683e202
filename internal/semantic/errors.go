package semantic

import (
	"fmt"

	"github.com/cwbudde/go-pasc/internal/ast"
	"github.com/cwbudde/go-pasc/internal/errors"
)

// AnalysisError wraps every accumulated semantic error from one Analyze call.
type AnalysisError struct {
	Errors []*errors.CompilerError
}

func (e *AnalysisError) Error() string {
	if len(e.Errors) == 0 {
		return "semantic analysis failed"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msg := fmt.Sprintf("semantic analysis failed with %d errors:\n", len(e.Errors))
	for i, err := range e.Errors {
		msg += fmt.Sprintf("  %d. %s\n", i+1, err.Error())
	}
	return msg
}

// addError records a position-tagged error against the node that triggered it
// and keeps walking; analysis never stops at the first problem.
func (a *Analyzer) addError(node ast.Node, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	a.errors = append(a.errors, errors.NewCompilerError(node.Pos(), msg, a.source, a.file))
}
