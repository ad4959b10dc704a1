package ast

import "fmt"

// Kind is the coarse static kind of a slot, parameter or result.
type Kind uint8

const (
	Invalid Kind = iota // unresolved
	Any
	Int
	Float
	Number // Int or Float
	Bool
	String
	List
	Error
	FuncKind
	ParamKind // reference to a type parameter by name
)

var kindNames = [...]string{
	Invalid:   "invalid",
	Any:       "any",
	Int:       "int",
	Float:     "float",
	Number:    "number",
	Bool:      "bool",
	String:    "string",
	List:      "list",
	Error:     "error",
	FuncKind:  "func",
	ParamKind: "param",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", k)
}

// Type is a static type annotation. Name is only set for Param.
type Type struct {
	Name string
	Kind Kind
}

// Common types.
var (
	AnyType    = Type{Kind: Any}
	IntType    = Type{Kind: Int}
	FloatType  = Type{Kind: Float}
	NumberType = Type{Kind: Number}
	BoolType   = Type{Kind: Bool}
	StringType = Type{Kind: String}
	ListType   = Type{Kind: List}
	ErrorType  = Type{Kind: Error}
	FuncType   = Type{Kind: FuncKind}
)

// TypeParamRef returns a reference to the type parameter name.
func TypeParamRef(name string) Type {
	return Type{Kind: ParamKind, Name: name}
}

func (t Type) String() string {
	if t.Kind == ParamKind {
		return t.Name
	}
	return t.Kind.String()
}

// IsResolved reports whether t names a concrete kind or any.
func (t Type) IsResolved() bool {
	return t.Kind != Invalid && t.Kind != ParamKind
}

// LookupType maps a builtin type name to its Type.
func LookupType(name string) (Type, bool) {
	for k, n := range kindNames {
		if n == name && Kind(k) != Invalid && Kind(k) != ParamKind {
			return Type{Kind: Kind(k)}, true
		}
	}
	return Type{}, false
}

// Merge combines two observations of the same variable. Unequal resolved
// types widen to Any; an unresolved side yields the other.
func (t Type) Merge(o Type) Type {
	switch {
	case t.Kind == Invalid:
		return o
	case o.Kind == Invalid:
		return t
	case t == o:
		return t
	case t.Kind == Any || o.Kind == Any:
		return AnyType
	case isNumeric(t.Kind) && isNumeric(o.Kind):
		return NumberType
	}
	return AnyType
}

func isNumeric(k Kind) bool {
	return k == Int || k == Float || k == Number
}

// Callable is implemented by runtime function values (host functions and
// closures).
type Callable interface {
	CallName() string
}

// KindOf returns the dynamic kind of a runtime value. Values outside the
// builtin kinds (ranges, tuples, iterator handles) report Any.
func KindOf(v any) Kind {
	switch v.(type) {
	case nil:
		return Invalid
	case int64:
		return Int
	case float64:
		return Float
	case bool:
		return Bool
	case string:
		return String
	case []any:
		return List
	case error:
		return Error
	case Callable:
		return FuncKind
	}
	return Any
}

// Accepts reports whether a runtime value may be stored in a slot of type t.
// nil (none) is accepted by every type.
func (t Type) Accepts(v any) bool {
	if v == nil {
		return true
	}
	switch t.Kind {
	case Invalid, Any, ParamKind:
		return true
	case Number:
		k := KindOf(v)
		return k == Int || k == Float
	}
	return KindOf(v) == t.Kind
}

// Satisfies reports whether the concrete type c satisfies constraint t.
func (t Type) Satisfies(c Type) bool {
	switch t.Kind {
	case Invalid, Any:
		return true
	case Number:
		return isNumeric(c.Kind)
	}
	return t == c
}
