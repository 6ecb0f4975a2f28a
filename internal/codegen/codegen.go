// Package codegen serializes planned AMD replacement statements to JavaScript.
package codegen

import (
	"fmt"
	"strings"

	"github.com/phobologic/amdcjs/internal/amd"
)

// Render returns the JavaScript text for stmts, one statement per line.
// Lines after the first are prefixed with indent so the output can replace a
// statement that starts at that column.
func Render(stmts []amd.Stmt, indent string) string {
	lines := make([]string, 0, len(stmts))
	for _, s := range stmts {
		lines = append(lines, Statement(s))
	}
	return strings.Join(lines, "\n"+indent)
}

// Statement renders a single statement.
func Statement(s amd.Stmt) string {
	switch s := s.(type) {
	case amd.VarRequire:
		return fmt.Sprintf("var %s = require(%s);", s.Target, s.Dep)
	case amd.VarAlias:
		return fmt.Sprintf("var %s = %s;", s.Target, s.Value)
	case amd.BareRequire:
		return fmt.Sprintf("require(%s);", s.Dep)
	case amd.Invoke:
		fn := "function " + s.Name + "() " + body(s.Body)
		if s.Name == "" {
			fn = "function () " + body(s.Body)
		}
		if s.Export {
			return "module.exports = " + fn + "();"
		}
		return "(" + fn + ")();"
	}
	panic(fmt.Sprintf("codegen: unknown statement %T", s))
}

func body(b string) string {
	if b == "" {
		return "{}"
	}
	return b
}
