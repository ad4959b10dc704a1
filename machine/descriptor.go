package machine

import (
	"strings"

	"github.com/wippyai/resumable/ast"
	"github.com/wippyai/resumable/internal/lower"
)

// Field is one persistent slot of a machine record.
type Field struct {
	Name  string
	Type  ast.Type
	Param bool
}

// Descriptor summarizes a lowered function.
type Descriptor struct {
	Result      *ast.Type
	Name        string
	TypeParams  []ast.TypeParam
	Params      []ast.Param
	Slots       []Field
	Suspensions int
}

func newDescriptor(res *lower.Result) *Descriptor {
	d := &Descriptor{
		Result:      res.Func.Result,
		Name:        res.Func.Name,
		TypeParams:  res.Func.TypeParams,
		Params:      res.Func.Params,
		Suspensions: res.Suspensions,
	}
	for _, s := range res.Slots.Slots {
		d.Slots = append(d.Slots, Field{Name: s.Name, Type: s.Type, Param: s.Param})
	}
	return d
}

// Record returns the persistent record type: the state id followed by one
// field per slot.
func (d *Descriptor) Record() *RecordType {
	r := &RecordType{
		Name:       d.Name,
		TypeParams: d.TypeParams,
		Fields:     make([]Field, 0, len(d.Slots)+1),
	}
	r.Fields = append(r.Fields, Field{Name: "state", Type: ast.Type{Kind: ast.Int}})
	r.Fields = append(r.Fields, d.Slots...)
	return r
}

// RecordType describes the storage of one machine instance.
type RecordType struct {
	Name       string
	TypeParams []ast.TypeParam
	Fields     []Field
}

// String renders the record as a Go-like struct declaration.
func (r *RecordType) String() string {
	var b strings.Builder
	b.WriteString("type ")
	b.WriteString(r.Name)
	if len(r.TypeParams) > 0 {
		b.WriteByte('[')
		for i, tp := range r.TypeParams {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(tp.Name)
			b.WriteByte(' ')
			b.WriteString(tp.Constraint.String())
		}
		b.WriteByte(']')
	}
	b.WriteString(" struct {\n")

	width := 0
	for _, f := range r.Fields {
		width = max(width, len(f.Name))
	}
	for i, f := range r.Fields {
		b.WriteByte('\t')
		b.WriteString(f.Name)
		b.WriteString(strings.Repeat(" ", width-len(f.Name)+1))
		if i == 0 {
			b.WriteString("uint8")
		} else {
			b.WriteString(f.Type.String())
		}
		b.WriteByte('\n')
	}
	b.WriteByte('}')
	return b.String()
}
