package slots

import (
	"github.com/wippyai/resumable/ast"
)

// Slot is a variable promoted to persistent machine storage.
type Slot struct {
	// Init is the parameter default, nil for locals.
	Init  ast.Expr
	Name  string
	Type  ast.Type
	Param bool
}

// Set is the ordered result of Collect.
type Set struct {
	index  map[string]int
	Slots  []Slot
	resume *BitSet
}

// Lookup returns the slot called name.
func (s *Set) Lookup(name string) (Slot, bool) {
	i, ok := s.index[name]
	if !ok {
		return Slot{}, false
	}
	return s.Slots[i], true
}

// Index returns the position of the slot called name, or -1.
func (s *Set) Index(name string) int {
	if i, ok := s.index[name]; ok {
		return i
	}
	return -1
}

// IsResumeTarget reports whether the slot receives a resume argument.
func (s *Set) IsResumeTarget(name string) bool {
	i, ok := s.index[name]
	return ok && s.resume.Has(i)
}

// Names returns the slot names in order.
func (s *Set) Names() []string {
	names := make([]string, len(s.Slots))
	for i, sl := range s.Slots {
		names[i] = sl.Name
	}
	return names
}

// Collect gathers the slots of fn: its parameters, then every local the body
// assigns, in order of first appearance. body is passed separately so that
// Collect can run again after a pass has rewritten fn's statements.
func Collect(fn *ast.Func, body []ast.Stmt, oracle Oracle) *Set {
	s := &Set{index: make(map[string]int)}

	for _, p := range fn.Params {
		typ := p.Type
		if typ.Kind == ast.Invalid {
			typ = ast.AnyType
		}
		s.add(Slot{Name: p.Name, Type: typ, Init: p.Default, Param: true})
	}

	var resumeTargets []string
	ast.InspectList(body, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.FuncLit:
			return false
		case *ast.Assign:
			resume := isResumeValue(n)
			for _, lhs := range n.LHS {
				id, ok := lhs.(*ast.Ident)
				if !ok {
					continue
				}
				s.addLocal(id.Name, oracle)
				if resume {
					resumeTargets = append(resumeTargets, id.Name)
				}
			}
		case *ast.For:
			s.addLocal(n.Var, oracle)
		}
		return true
	})

	s.resume = NewBitSet(len(s.Slots))
	for _, name := range resumeTargets {
		i := s.index[name]
		s.resume.Set(i)
		s.Slots[i].Type = ast.AnyType
	}
	return s
}

func (s *Set) add(sl Slot) {
	if _, dup := s.index[sl.Name]; dup {
		return
	}
	s.index[sl.Name] = len(s.Slots)
	s.Slots = append(s.Slots, sl)
}

func (s *Set) addLocal(name string, oracle Oracle) {
	if _, dup := s.index[name]; dup {
		return
	}
	typ, ok := oracle.SlotType(name)
	if !ok || (!typ.IsResolved() && typ.Kind != ast.ParamKind) {
		typ = ast.AnyType
	}
	s.add(Slot{Name: name, Type: typ})
}

func isResumeValue(a *ast.Assign) bool {
	if len(a.RHS) != 1 {
		return false
	}
	switch a.RHS[0].(type) {
	case *ast.Yield, *ast.ResumeArg:
		return true
	}
	return false
}
