package amd

// Stmt is one replacement statement produced by Plan.
type Stmt interface {
	stmt()
}

// VarRequire binds a factory parameter: var <Target> = require(<Dep>);
type VarRequire struct {
	Target string
	Dep    string
}

// VarAlias binds a parameter to a native object: var <Target> = <Value>;
type VarAlias struct {
	Target string
	Value  Role
}

// BareRequire loads a dependency for its side effects: require(<Dep>);
type BareRequire struct {
	Dep string
}

// Invoke is the immediately invoked factory. With Export set the result is
// assigned to module.exports.
type Invoke struct {
	Export bool
	Name   string
	Body   string
}

func (VarRequire) stmt()  {}
func (VarAlias) stmt()    {}
func (BareRequire) stmt() {}
func (Invoke) stmt()      {}

// Shape summarizes the wrapper a plan emits.
type Shape string

const (
	ShapeExport  Shape = "export"  // module.exports = function () {...}();
	ShapeInvoke  Shape = "invoke"  // (function () {...})();
	ShapeRequire Shape = "require" // require(dep); only
)

// ShapeOf reports the wrapper shape of a planned statement list.
func ShapeOf(stmts []Stmt) Shape {
	for _, s := range stmts {
		if inv, ok := s.(Invoke); ok {
			if inv.Export {
				return ShapeExport
			}
			return ShapeInvoke
		}
	}
	return ShapeRequire
}

// Plan computes the statements that replace site, in dependency order,
// followed by the factory wrapper if there is one.
func Plan(site CallSite) []Stmt {
	if site.Factory == nil {
		out := make([]Stmt, 0, len(site.Deps))
		for _, d := range site.Deps {
			out = append(out, BareRequire{Dep: d.Expr})
		}
		return out
	}

	var out []Stmt
	injected := false
	if site.HasDeps {
		params := pairable(site.Factory.Params)
		for i, d := range site.Deps {
			var p *Param
			if i < len(params) {
				p = &params[i]
			}

			if role := d.Role(); role != RoleNone {
				if role == RoleModule || role == RoleExports {
					injected = true
				}
				if p != nil && p.Name != string(role) && p.Role() == RoleNone && p.Target != "" {
					out = append(out, VarAlias{Target: p.Target, Value: role})
				}
				continue
			}

			if p == nil || p.Role() == RoleRequire {
				out = append(out, BareRequire{Dep: d.Expr})
				continue
			}
			out = append(out, VarRequire{Target: p.Target, Dep: d.Expr})
		}
	} else {
		for _, p := range site.Factory.Params {
			if r := p.Role(); r == RoleModule || r == RoleExports {
				injected = true
			}
		}
	}

	return append(out, Invoke{
		Export: site.Callee == Define && !injected,
		Name:   site.Factory.Name,
		Body:   site.Factory.Body,
	})
}

// pairable returns the parameters that take positional dependencies. A rest
// parameter ends the list.
func pairable(params []Param) []Param {
	for i, p := range params {
		if p.Rest {
			return params[:i]
		}
	}
	return params
}
