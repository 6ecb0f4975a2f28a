// Package amd recognizes top-level AMD define/require call statements and
// plans the CommonJS statements that replace them.
//
// Both stages are pure functions over a tree-sitter JavaScript tree: Classify
// decomposes a statement into a CallSite, Plan turns a CallSite into an
// ordered list of Stmt fragments. Neither keeps state between calls.
package amd

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/amdcjs/internal/lang"
)

// Callee names the AMD entry point of a call site.
type Callee string

const (
	Define  Callee = "define"
	Require Callee = "require"
)

// Role is the reserved meaning of a dependency or parameter name.
type Role string

const (
	RoleNone    Role = ""
	RoleRequire Role = "require"
	RoleExports Role = "exports"
	RoleModule  Role = "module"
)

func roleOf(name string) Role {
	switch Role(name) {
	case RoleRequire, RoleExports, RoleModule:
		return Role(name)
	}
	return RoleNone
}

// Dependency is one entry of a dependency array.
type Dependency struct {
	Expr    string // source text, passed through to require()
	Literal string // unquoted value when Expr is a string literal
	IsLit   bool
}

// Role reports the reserved role of a string-literal dependency.
func (d Dependency) Role() Role {
	if !d.IsLit {
		return RoleNone
	}
	return roleOf(d.Literal)
}

// Param is one formal parameter of a factory.
type Param struct {
	Name   string // identifier name, "" for patterns
	Target string // binding target text: the name or a destructuring pattern
	Rest   bool
}

// Role reports the reserved role of the parameter name.
func (p Param) Role() Role {
	return roleOf(p.Name)
}

// Factory is the function literal passed to define or require.
type Factory struct {
	Name   string
	Params []Param
	Body   string // statement block text, braces included
}

// CallSite is a recognized top-level define or require call.
type CallSite struct {
	Callee  Callee
	Name    string // module name of a named define; never emitted
	Deps    []Dependency
	HasDeps bool
	Factory *Factory
	Line    int
}

type argKind int

const (
	argOther argKind = iota
	argString
	argArray
	argFunction
)

func kindOf(node *sitter.Node) argKind {
	switch node.Type() {
	case "string":
		return argString
	case "array":
		return argArray
	case "function", "function_expression":
		if isAsync(node) {
			return argOther
		}
		return argFunction
	}
	return argOther
}

func isAsync(fn *sitter.Node) bool {
	for i := 0; i < int(fn.ChildCount()); i++ {
		if fn.Child(i).Type() == "async" {
			return true
		}
	}
	return false
}

// Classify reports whether stmt is one of the recognized AMD call shapes and
// decomposes it. stmt must sit directly in the program's statement list;
// anything nested is a no-match.
func Classify(stmt *sitter.Node, source []byte) (CallSite, bool) {
	if stmt == nil || stmt.Type() != "expression_statement" {
		return CallSite{}, false
	}
	if parent := stmt.Parent(); parent == nil || parent.Type() != "program" {
		return CallSite{}, false
	}

	call := firstNamed(stmt)
	if call == nil || call.Type() != "call_expression" {
		return CallSite{}, false
	}
	fn := call.ChildByFieldName("function")
	if fn == nil || fn.Type() != "identifier" {
		return CallSite{}, false
	}
	callee := Callee(lang.NodeText(fn, source))
	if callee != Define && callee != Require {
		return CallSite{}, false
	}
	argList := call.ChildByFieldName("arguments")
	if argList == nil || argList.Type() != "arguments" {
		return CallSite{}, false
	}
	args := namedChildren(argList)

	site := CallSite{Callee: callee, Line: int(stmt.StartPoint().Row) + 1}
	i := 0
	if callee == Define && i < len(args) && kindOf(args[i]) == argString {
		site.Name = stringValue(args[i], source)
		i++
	}
	if i < len(args) && kindOf(args[i]) == argArray {
		deps, ok := dependencies(args[i], source)
		if !ok {
			return CallSite{}, false
		}
		site.Deps = deps
		site.HasDeps = true
		i++
	}
	if i < len(args) && kindOf(args[i]) == argFunction {
		site.Factory = factory(args[i], source)
		i++
	}
	if i != len(args) {
		return CallSite{}, false
	}

	switch callee {
	case Define:
		if site.Factory == nil {
			return CallSite{}, false
		}
	case Require:
		if !site.HasDeps {
			return CallSite{}, false
		}
	}
	if reservedMismatch(site) {
		return CallSite{}, false
	}
	return site, true
}

// reservedMismatch reports whether a reserved dependency is paired with a
// parameter carrying a different reserved name, e.g. ['require'] passed to
// module. No top-level binding can express that without shadowing the
// native object.
func reservedMismatch(site CallSite) bool {
	if site.Factory == nil {
		return false
	}
	params := pairable(site.Factory.Params)
	for i, d := range site.Deps {
		if i >= len(params) {
			break
		}
		dr, pr := d.Role(), params[i].Role()
		if dr != RoleNone && pr != RoleNone && dr != pr {
			return true
		}
	}
	return false
}

func dependencies(array *sitter.Node, source []byte) ([]Dependency, bool) {
	if hasHole(array) {
		return nil, false
	}
	elems := namedChildren(array)
	deps := make([]Dependency, 0, len(elems))
	for _, e := range elems {
		if e.Type() == "spread_element" {
			return nil, false
		}
		d := Dependency{Expr: lang.NodeText(e, source)}
		if e.Type() == "string" {
			d.Literal = stringValue(e, source)
			d.IsLit = true
		}
		deps = append(deps, d)
	}
	return deps, true
}

// hasHole reports whether an array literal has an elided element, as in
// [, 'a'] or ['a', , 'b']. A trailing comma is not a hole.
func hasHole(array *sitter.Node) bool {
	prev := ""
	for i := 0; i < int(array.ChildCount()); i++ {
		t := array.Child(i).Type()
		switch t {
		case "comment":
			continue
		case ",":
			if prev == "[" || prev == "," {
				return true
			}
		}
		prev = t
	}
	return false
}

func factory(fn *sitter.Node, source []byte) *Factory {
	f := &Factory{}
	if name := fn.ChildByFieldName("name"); name != nil {
		f.Name = lang.NodeText(name, source)
	}
	if body := fn.ChildByFieldName("body"); body != nil {
		f.Body = lang.NodeText(body, source)
	}
	params := fn.ChildByFieldName("parameters")
	if params == nil {
		return f
	}
	for _, p := range namedChildren(params) {
		f.Params = append(f.Params, param(p, source))
	}
	return f
}

func param(node *sitter.Node, source []byte) Param {
	switch node.Type() {
	case "identifier":
		name := lang.NodeText(node, source)
		return Param{Name: name, Target: name}
	case "assignment_pattern":
		if left := node.ChildByFieldName("left"); left != nil {
			return param(left, source)
		}
	case "rest_pattern":
		return Param{Rest: true}
	}
	// object_pattern, array_pattern
	return Param{Target: lang.NodeText(node, source)}
}

// stringValue returns the contents of a string literal without its quotes.
func stringValue(node *sitter.Node, source []byte) string {
	text := lang.NodeText(node, source)
	if len(text) < 2 {
		return ""
	}
	return text[1 : len(text)-1]
}

func firstNamed(node *sitter.Node) *sitter.Node {
	if children := namedChildren(node); len(children) > 0 {
		return children[0]
	}
	return nil
}

// namedChildren returns the named children of node, skipping comments.
func namedChildren(node *sitter.Node) []*sitter.Node {
	n := int(node.NamedChildCount())
	out := make([]*sitter.Node, 0, n)
	for i := 0; i < n; i++ {
		c := node.NamedChild(i)
		if c == nil || c.Type() == "comment" {
			continue
		}
		out = append(out, c)
	}
	return out
}
