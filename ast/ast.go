package ast

// Node is any syntax tree node.
type Node interface {
	node()
}

// Stmt is a statement node.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is an expression node.
type Expr interface {
	Node
	exprNode()
}

// Func is a function definition: the unit the pipeline transforms.
type Func struct {
	Result     *Type
	Name       string
	TypeParams []TypeParam
	Params     []Param
	Body       []Stmt
	Line       int
}

// TypeParam declares a type parameter with its constraint.
type TypeParam struct {
	Name       string
	Constraint Type
}

// Param declares a function parameter. Default may be nil.
type Param struct {
	Default Expr
	Name    string
	Type    Type
}

// Expressions.
type (
	// Ident references a slot, parameter, handler-local or host function.
	Ident struct {
		Name string
	}

	// Lit is a constant: int64, float64, string, bool or nil.
	Lit struct {
		Value any
	}

	// Unary applies "-" or "!" to X.
	Unary struct {
		X  Expr
		Op string
	}

	// Binary applies a Go-spelled operator (+ - * / % == != < <= > >= && ||).
	Binary struct {
		X  Expr
		Y  Expr
		Op string
	}

	// Call invokes a closure value or a host function.
	Call struct {
		Fun  Expr
		Args []Expr
	}

	// Index reads element Index of list or string X.
	Index struct {
		X     Expr
		Index Expr
	}

	// FuncLit is a locally defined anonymous function. It may not contain
	// suspension points.
	FuncLit struct {
		Params []string
		Body   []Stmt
	}

	// Yield marks a suspension point carrying an optional Value.
	Yield struct {
		Value Expr
		Line  int
	}

	// ResumeArg reads the value supplied by the current invocation.
	ResumeArg struct{}

	// State reads or writes the machine's state id.
	State struct{}
)

// Statements.
type (
	// ExprStmt evaluates X for its effect.
	ExprStmt struct {
		X Expr
	}

	// Assign performs a parallel assignment. With a single right-hand side
	// and several targets, the value must be a tuple of matching length.
	Assign struct {
		LHS  []Expr
		RHS  []Expr
		Line int
	}

	If struct {
		Cond Expr
		Then []Stmt
		Else []Stmt
	}

	While struct {
		Cond Expr
		Body []Stmt
	}

	// For iterates Var over Iter.
	For struct {
		Iter Expr
		Var  string
		Body []Stmt
		Line int
	}

	Break struct{}

	Continue struct{}

	// Return finishes the function with Value (nil means none).
	Return struct {
		Value Expr
	}

	Throw struct {
		Value Expr
	}

	// Try is a protected region. CatchVar is bound only inside Catch.
	Try struct {
		CatchVar string
		Body     []Stmt
		Catch    []Stmt
		Finally  []Stmt
		HasCatch bool
		Line     int
	}

	// Label marks a jump target. Produced by lowering only.
	Label struct {
		Name string
	}

	// Goto transfers control to the label Name. Produced by lowering only.
	Goto struct {
		Label string
	}
)

func (*Ident) node()     {}
func (*Lit) node()       {}
func (*Unary) node()     {}
func (*Binary) node()    {}
func (*Call) node()      {}
func (*Index) node()     {}
func (*FuncLit) node()   {}
func (*Yield) node()     {}
func (*ResumeArg) node() {}
func (*State) node()     {}
func (*ExprStmt) node()  {}
func (*Assign) node()    {}
func (*If) node()        {}
func (*While) node()     {}
func (*For) node()       {}
func (*Break) node()     {}
func (*Continue) node()  {}
func (*Return) node()    {}
func (*Throw) node()     {}
func (*Try) node()       {}
func (*Label) node()     {}
func (*Goto) node()      {}

func (*Ident) exprNode()     {}
func (*Lit) exprNode()       {}
func (*Unary) exprNode()     {}
func (*Binary) exprNode()    {}
func (*Call) exprNode()      {}
func (*Index) exprNode()     {}
func (*FuncLit) exprNode()   {}
func (*Yield) exprNode()     {}
func (*ResumeArg) exprNode() {}
func (*State) exprNode()     {}

func (*ExprStmt) stmtNode() {}
func (*Assign) stmtNode()   {}
func (*If) stmtNode()       {}
func (*While) stmtNode()    {}
func (*For) stmtNode()      {}
func (*Break) stmtNode()    {}
func (*Continue) stmtNode() {}
func (*Return) stmtNode()   {}
func (*Throw) stmtNode()    {}
func (*Try) stmtNode()      {}
func (*Label) stmtNode()    {}
func (*Goto) stmtNode()     {}

// Convenience constructors used by the lowering passes and tests.

// Name returns an identifier expression.
func Name(n string) *Ident { return &Ident{Name: n} }

// Const returns a literal expression.
func Const(v any) *Lit { return &Lit{Value: v} }

// CallFunc returns a call of the named function.
func CallFunc(name string, args ...Expr) *Call {
	return &Call{Fun: Name(name), Args: args}
}

// Host functions called by lowered code. The leading underscore keeps user
// bindings from shadowing them.
const (
	IntrinsicIter    = "_iter"
	IntrinsicStart   = "_start"
	IntrinsicDone    = "_done"
	IntrinsicNext    = "_next"
	IntrinsicIsError = "_iserror"
	IntrinsicStopped = "_stopped"
)

// Set returns a single-target assignment.
func Set(lhs Expr, rhs Expr) *Assign {
	return &Assign{LHS: []Expr{lhs}, RHS: []Expr{rhs}}
}

// AsYield reports the suspension marker carried by s, if s is a suspension
// statement (`yield v`) or a resume-argument binding (`x = yield v`).
func AsYield(s Stmt) (*Yield, bool) {
	switch s := s.(type) {
	case *ExprStmt:
		y, ok := s.X.(*Yield)
		return y, ok
	case *Assign:
		if len(s.RHS) == 1 {
			y, ok := s.RHS[0].(*Yield)
			return y, ok
		}
	}
	return nil, false
}
