package slots

import (
	"github.com/wippyai/resumable/ast"
)

// Oracle supplies the static type of a slot by name.
type Oracle interface {
	SlotType(name string) (ast.Type, bool)
}

// MapOracle is an Oracle backed by a fixed mapping.
type MapOracle map[string]ast.Type

func (m MapOracle) SlotType(name string) (ast.Type, bool) {
	t, ok := m[name]
	return t, ok
}

// Chain returns an Oracle that asks each of oracles in turn.
func Chain(oracles ...Oracle) Oracle {
	return chain(oracles)
}

type chain []Oracle

func (c chain) SlotType(name string) (ast.Type, bool) {
	for _, o := range c {
		if t, ok := o.SlotType(name); ok {
			return t, true
		}
	}
	return ast.Type{}, false
}

// InferOracle derives slot types from the kinds of the values assigned to
// them. Conflicting observations widen: int and float merge to number,
// anything else to any.
type InferOracle struct {
	types map[string]ast.Type
}

// resultKinds are the static result types of builtin host functions.
var resultKinds = map[string]ast.Type{
	"len":     ast.IntType,
	"int":     ast.IntType,
	"float":   ast.FloatType,
	"string":  ast.StringType,
	"message": ast.StringType,
	"list":    ast.ListType,
	"append":  ast.ListType,
	"error":   ast.ErrorType,
	"iserror": ast.BoolType,
	"done":    ast.BoolType,

	ast.IntrinsicIsError: ast.BoolType,
	ast.IntrinsicDone:    ast.BoolType,
}

// NewInferOracle analyses body. Parameter types seed the analysis.
func NewInferOracle(fn *ast.Func, body []ast.Stmt) *InferOracle {
	o := &InferOracle{types: make(map[string]ast.Type)}
	params := make(map[string]bool, len(fn.Params))
	for _, p := range fn.Params {
		o.types[p.Name] = p.Type
		params[p.Name] = true
	}

	// Types only widen, so a few rounds reach a fixed point.
	for changed, rounds := true, 0; changed && rounds < 8; rounds++ {
		changed = false
		observe := func(name string, t ast.Type) {
			if params[name] {
				return
			}
			old := o.types[name]
			if merged := old.Merge(t); merged != old {
				o.types[name] = merged
				changed = true
			}
		}
		ast.InspectList(body, func(n ast.Node) bool {
			switch n := n.(type) {
			case *ast.FuncLit:
				return false
			case *ast.Assign:
				o.observeAssign(n, observe)
			case *ast.For:
				observe(n.Var, o.elemType(n.Iter))
			}
			return true
		})
	}
	return o
}

func (o *InferOracle) observeAssign(a *ast.Assign, observe func(string, ast.Type)) {
	for i, lhs := range a.LHS {
		id, ok := lhs.(*ast.Ident)
		if !ok {
			continue
		}
		switch {
		case len(a.RHS) == len(a.LHS):
			observe(id.Name, o.exprType(a.RHS[i]))
		default:
			// destructuring a tuple
			observe(id.Name, ast.AnyType)
		}
	}
}

// SlotType implements Oracle. Names never assigned a typed value are
// unresolved.
func (o *InferOracle) SlotType(name string) (ast.Type, bool) {
	t, ok := o.types[name]
	if !ok || t.Kind == ast.Invalid {
		return ast.Type{}, false
	}
	return t, true
}

func (o *InferOracle) elemType(iter ast.Expr) ast.Type {
	if c, ok := iter.(*ast.Call); ok {
		if id, ok := c.Fun.(*ast.Ident); ok && id.Name == "range" {
			return ast.IntType
		}
	}
	if o.exprType(iter).Kind == ast.String {
		return ast.StringType
	}
	return ast.AnyType
}

func (o *InferOracle) exprType(e ast.Expr) ast.Type {
	switch e := e.(type) {
	case *ast.Lit:
		return litType(e.Value)
	case *ast.Ident:
		return o.types[e.Name]
	case *ast.Unary:
		if e.Op == "!" {
			return ast.BoolType
		}
		return numericOnly(o.exprType(e.X))
	case *ast.Binary:
		return o.binaryType(e)
	case *ast.Call:
		if id, ok := e.Fun.(*ast.Ident); ok {
			if t, ok := resultKinds[id.Name]; ok {
				return t
			}
		}
		return ast.AnyType
	case *ast.FuncLit:
		return ast.FuncType
	}
	return ast.AnyType
}

func (o *InferOracle) binaryType(e *ast.Binary) ast.Type {
	switch e.Op {
	case "==", "!=", "<", "<=", ">", ">=", "&&", "||":
		return ast.BoolType
	}
	x, y := o.exprType(e.X), o.exprType(e.Y)
	if x.Kind == ast.Invalid || y.Kind == ast.Invalid {
		// an operand not typed yet; a later round sees it
		return ast.Type{}
	}
	if e.Op == "+" && x.Kind == ast.String && y.Kind == ast.String {
		return ast.StringType
	}
	switch {
	case x.Kind == ast.Int && y.Kind == ast.Int:
		return ast.IntType
	case x.Kind == ast.Float && isNumber(y), isNumber(x) && y.Kind == ast.Float:
		return ast.FloatType
	case isNumber(x) && isNumber(y):
		return ast.NumberType
	}
	return ast.AnyType
}

func numericOnly(t ast.Type) ast.Type {
	if isNumber(t) || t.Kind == ast.Invalid {
		return t
	}
	return ast.AnyType
}

func isNumber(t ast.Type) bool {
	return t.Kind == ast.Int || t.Kind == ast.Float || t.Kind == ast.Number
}

func litType(v any) ast.Type {
	switch v.(type) {
	case int64:
		return ast.IntType
	case float64:
		return ast.FloatType
	case string:
		return ast.StringType
	case bool:
		return ast.BoolType
	}
	return ast.Type{}
}
