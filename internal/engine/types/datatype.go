// Package types defines the type algebra shared by the token index, the
// resolver, the simplifier and the printer.
//
// A DataType is a closed sum type: every variant lives in this package and
// implements the unexported dataType method, so no other package can add one.
// A nil DataType means "unknown type". Trees are treated as immutable once
// built; passes that change a tree allocate new nodes instead.
package types

// Kind names a DataType variant.
type Kind string

const (
	KindPrimitive           Kind = "primitive"
	KindReference           Kind = "reference"
	KindList                Kind = "list"
	KindIterable            Kind = "iterable"
	KindString              Kind = "string"
	KindIdentifier          Kind = "identifier"
	KindParams              Kind = "params"
	KindParam               Kind = "param"
	KindInstance            Kind = "instance"
	KindReturn              Kind = "return"
	KindConstructorValue    Kind = "constructorValue"
	KindElement             Kind = "element"
	KindPromise             Kind = "promise"
	KindMember              Kind = "member"
	KindUnion               Kind = "union"
	KindCall                Kind = "call"
	KindFunction            Kind = "function"
	KindConstructorFunction Kind = "constructorFunction"
	KindModule              Kind = "module"
	KindClass               Kind = "class"
	KindOpaque              Kind = "opaque"
)

type DataType interface {
	Kind() Kind
	dataType()
}

// PrimitiveKind is the scalar name as the backend spells it.
type PrimitiveKind string

const (
	Number  PrimitiveKind = "numero"
	Byte    PrimitiveKind = "byte"
	Nothing PrimitiveKind = "nada"
	Boolean PrimitiveKind = "buleano"
	Char    PrimitiveKind = "caracter"
)

func (k PrimitiveKind) Valid() bool {
	switch k {
	case Number, Byte, Nothing, Boolean, Char:
		return true
	}
	return false
}

type Primitive struct {
	Name PrimitiveKind
}

type Reference struct {
	Inner DataType
}

type List struct {
	Inner DataType
}

type Iterable struct {
	Inner DataType
}

// String is a string type. Value is nil unless the contents are statically known.
type String struct {
	Value *string
}

// Identifier points at the symbol whose type must be looked up before printing.
type Identifier struct {
	Location Location
}

type Params struct{}

type Param struct {
	Index int
}

type Instance struct {
	Name       string
	Properties map[string]DataType
}

type Return struct {
	Value DataType
}

type ConstructorValue struct {
	Value DataType
}

type Element struct {
	Value DataType
}

type Promise struct {
	Value DataType
}

type Member struct {
	Object           DataType
	Member           DataType
	IsInstanceAccess bool
}

type Union struct {
	Alternatives []DataType
}

type Call struct {
	Callee DataType
	Args   []DataType
}

type Function struct {
	Parameters []DataType
	ReturnType DataType
}

type ConstructorFunction struct {
	Parameters []DataType
	ReturnType DataType
}

type Module struct {
	Path string
}

type Class struct {
	Name               string
	StaticProperties   map[string]DataType
	InstanceProperties map[string]DataType
}

// Opaque carries a backend payload whose class this package does not know.
// Raw is the original JSON object.
type Opaque struct {
	Class string
	Raw   []byte
}

func (*Primitive) Kind() Kind           { return KindPrimitive }
func (*Reference) Kind() Kind           { return KindReference }
func (*List) Kind() Kind                { return KindList }
func (*Iterable) Kind() Kind            { return KindIterable }
func (*String) Kind() Kind              { return KindString }
func (*Identifier) Kind() Kind          { return KindIdentifier }
func (*Params) Kind() Kind              { return KindParams }
func (*Param) Kind() Kind               { return KindParam }
func (*Instance) Kind() Kind            { return KindInstance }
func (*Return) Kind() Kind              { return KindReturn }
func (*ConstructorValue) Kind() Kind    { return KindConstructorValue }
func (*Element) Kind() Kind             { return KindElement }
func (*Promise) Kind() Kind             { return KindPromise }
func (*Member) Kind() Kind              { return KindMember }
func (*Union) Kind() Kind               { return KindUnion }
func (*Call) Kind() Kind                { return KindCall }
func (*Function) Kind() Kind            { return KindFunction }
func (*ConstructorFunction) Kind() Kind { return KindConstructorFunction }
func (*Module) Kind() Kind              { return KindModule }
func (*Class) Kind() Kind               { return KindClass }
func (*Opaque) Kind() Kind              { return KindOpaque }

func (*Primitive) dataType()           {}
func (*Reference) dataType()           {}
func (*List) dataType()                {}
func (*Iterable) dataType()            {}
func (*String) dataType()              {}
func (*Identifier) dataType()          {}
func (*Params) dataType()              {}
func (*Param) dataType()               {}
func (*Instance) dataType()            {}
func (*Return) dataType()              {}
func (*ConstructorValue) dataType()    {}
func (*Element) dataType()             {}
func (*Promise) dataType()             {}
func (*Member) dataType()              {}
func (*Union) dataType()               {}
func (*Call) dataType()                {}
func (*Function) dataType()            {}
func (*ConstructorFunction) dataType() {}
func (*Module) dataType()              {}
func (*Class) dataType()               {}
func (*Opaque) dataType()              {}

// StringOf returns a string type with known contents.
func StringOf(value string) *String {
	return &String{Value: &value}
}

// IsNil reports whether dt is the unknown type, including typed nil pointers.
func IsNil(dt DataType) bool {
	if dt == nil {
		return true
	}
	switch v := dt.(type) {
	case *Primitive:
		return v == nil
	case *Reference:
		return v == nil
	case *List:
		return v == nil
	case *Iterable:
		return v == nil
	case *String:
		return v == nil
	case *Identifier:
		return v == nil
	case *Params:
		return v == nil
	case *Param:
		return v == nil
	case *Instance:
		return v == nil
	case *Return:
		return v == nil
	case *ConstructorValue:
		return v == nil
	case *Element:
		return v == nil
	case *Promise:
		return v == nil
	case *Member:
		return v == nil
	case *Union:
		return v == nil
	case *Call:
		return v == nil
	case *Function:
		return v == nil
	case *ConstructorFunction:
		return v == nil
	case *Module:
		return v == nil
	case *Class:
		return v == nil
	case *Opaque:
		return v == nil
	}
	return false
}
