package amd

import (
	"context"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/amdcjs/internal/lang"
)

// parseProgram parses source and returns the root program node.
func parseProgram(t *testing.T, source string) *sitter.Node {
	t.Helper()
	p := lang.JavaScript.NewParser()
	tree, err := p.ParseCtx(context.Background(), nil, []byte(source))
	require.NoError(t, err)
	t.Cleanup(tree.Close)
	return tree.RootNode()
}

// classifyFirst classifies the first top-level statement of source.
func classifyFirst(t *testing.T, source string) (CallSite, bool) {
	t.Helper()
	root := parseProgram(t, source)
	require.Positive(t, int(root.NamedChildCount()), "empty program")
	return Classify(root.NamedChild(0), []byte(source))
}

func TestClassifyShapes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		src        string
		callee     Callee
		moduleName string
		deps       []string
		hasDeps    bool
		factory    bool
		params     []string
	}{
		{
			name:    "define factory",
			src:     "define(function () { return 1; });",
			callee:  Define,
			factory: true,
		},
		{
			name:    "define deps factory",
			src:     "define(['a', 'b'], function (a, b) {});",
			callee:  Define,
			deps:    []string{"'a'", "'b'"},
			hasDeps: true,
			factory: true,
			params:  []string{"a", "b"},
		},
		{
			name:       "named define factory",
			src:        "define('thismoduletho', function () {});",
			callee:     Define,
			moduleName: "thismoduletho",
			factory:    true,
		},
		{
			name:       "named define deps factory",
			src:        `define("mod", ["hi"], function (here) {});`,
			callee:     Define,
			moduleName: "mod",
			deps:       []string{`"hi"`},
			hasDeps:    true,
			factory:    true,
			params:     []string{"here"},
		},
		{
			name:    "require deps",
			src:     "require(['here', 'are']);",
			callee:  Require,
			deps:    []string{"'here'", "'are'"},
			hasDeps: true,
		},
		{
			name:    "require deps factory",
			src:     "require(['llamas'], function (llama) { llama.go(); });",
			callee:  Require,
			deps:    []string{"'llamas'"},
			hasDeps: true,
			factory: true,
			params:  []string{"llama"},
		},
		{
			name:    "variable dependency",
			src:     "define([dependency, 'x'], function (here) {});",
			callee:  Define,
			deps:    []string{"dependency", "'x'"},
			hasDeps: true,
			factory: true,
			params:  []string{"here"},
		},
		{
			name:    "trailing comma",
			src:     "define(['a',], function (a) {});",
			callee:  Define,
			deps:    []string{"'a'"},
			hasDeps: true,
			factory: true,
			params:  []string{"a"},
		},
		{
			name:    "empty deps",
			src:     "define([], function () {});",
			callee:  Define,
			deps:    []string{},
			hasDeps: true,
			factory: true,
		},
		{
			name:    "comments ignored",
			src:     "define(/* deps */ ['a' /* first */], function (/* p */ a) {});",
			callee:  Define,
			deps:    []string{"'a'"},
			hasDeps: true,
			factory: true,
			params:  []string{"a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			site, ok := classifyFirst(t, tt.src)
			require.True(t, ok, "expected a match")
			assert.Equal(t, tt.callee, site.Callee)
			assert.Equal(t, tt.moduleName, site.Name)
			assert.Equal(t, tt.hasDeps, site.HasDeps)
			assert.Equal(t, 1, site.Line)

			if tt.deps != nil {
				exprs := make([]string, len(site.Deps))
				for i, d := range site.Deps {
					exprs[i] = d.Expr
				}
				assert.Equal(t, tt.deps, exprs)
			} else {
				assert.Empty(t, site.Deps)
			}

			if !tt.factory {
				assert.Nil(t, site.Factory)
				return
			}
			require.NotNil(t, site.Factory)
			var names []string
			for _, p := range site.Factory.Params {
				names = append(names, p.Name)
			}
			assert.Equal(t, tt.params, names)
		})
	}
}

func TestClassifyNoMatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
	}{
		{"other callee", "load(['a'], function (a) {});"},
		{"member callee", "amd.define(['a'], function (a) {});"},
		{"define without factory", "define(['a']);"},
		{"define name only", "define('name');"},
		{"define empty", "define();"},
		{"define object", "define({ a: 1 });"},
		{"define arrow factory", "define(['a'], (a) => {});"},
		{"define async factory", "define(['a'], async function (a) {});"},
		{"define generator factory", "define(['a'], function* (a) {});"},
		{"define extra argument", "define(['a'], function (a) {}, 1);"},
		{"define args out of order", "define(function () {}, ['a']);"},
		{"define spread deps", "define([...deps], function () {});"},
		{"define leading hole", "define([, 'a'], function (x) {});"},
		{"define inner hole", "define(['a', , 'b'], function (a, b) {});"},
		{"define only hole", "define([,], function () {});"},
		{"require dependency to module param", "define(['require'], function (module) { module('x'); });"},
		{"exports dependency to require param", "require(['exports'], function (require) {});"},
		{"define two names", "define('a', 'b', function () {});"},
		{"require commonjs", "require('a');"},
		{"require empty", "require();"},
		{"require factory only", "require(function () {});"},
		{"require named", "require('name', ['a'], function (a) {});"},
		{"assignment", "var x = define(['a'], function (a) {});"},
		{"parenthesized", "(define(['a'], function (a) {}));"},
		{"function declaration", "function define() {}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, ok := classifyFirst(t, tt.src)
			assert.False(t, ok)
		})
	}
}

func TestClassifyNestedIsNoMatch(t *testing.T) {
	t.Parallel()

	src := `if (someDumbCondition) {
  define(['stuff'], function (stuff) {
    return { hi: 'world' };
  });
}`
	root := parseProgram(t, src)
	block := root.NamedChild(0).ChildByFieldName("consequence")
	require.NotNil(t, block)
	nested := block.NamedChild(0)
	require.Equal(t, "expression_statement", nested.Type())

	_, ok := Classify(nested, []byte(src))
	assert.False(t, ok)
}

func TestClassifyFactoryDetails(t *testing.T) {
	t.Parallel()

	src := "define(['a', 'b', 'c', 'd'], function factory({ x }, [y], z = 1, ...rest) {\n  return x;\n});"
	site, ok := classifyFirst(t, src)
	require.True(t, ok)
	require.NotNil(t, site.Factory)

	f := site.Factory
	assert.Equal(t, "factory", f.Name)
	assert.Equal(t, "{\n  return x;\n}", f.Body)
	require.Len(t, f.Params, 4)
	assert.Equal(t, Param{Target: "{ x }"}, f.Params[0])
	assert.Equal(t, Param{Target: "[y]"}, f.Params[1])
	assert.Equal(t, Param{Name: "z", Target: "z"}, f.Params[2])
	assert.True(t, f.Params[3].Rest)
}

func TestDependencyRole(t *testing.T) {
	t.Parallel()

	tests := []struct {
		dep  Dependency
		want Role
	}{
		{Dependency{Expr: "'require'", Literal: "require", IsLit: true}, RoleRequire},
		{Dependency{Expr: `"exports"`, Literal: "exports", IsLit: true}, RoleExports},
		{Dependency{Expr: "'module'", Literal: "module", IsLit: true}, RoleModule},
		{Dependency{Expr: "'notmodule'", Literal: "notmodule", IsLit: true}, RoleNone},
		{Dependency{Expr: "module"}, RoleNone},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.dep.Role(), tt.dep.Expr)
	}
}
