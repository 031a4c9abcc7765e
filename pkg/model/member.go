package model

import "strings"

// Tag is a custom metadata annotation carried by a type, member or parameter.
// Inherited tags flow to derived members automatically; the rest have to be
// copied explicitly by whoever synthesizes an override.
type Tag struct {
	Name      string
	Args      []any
	Inherited bool
}

// NonInheritedTags returns the tags that must be copied onto an override.
func NonInheritedTags(tags []Tag) []Tag {
	var out []Tag
	for _, t := range tags {
		if !t.Inherited {
			out = append(out, Tag{Name: t.Name, Args: append([]any(nil), t.Args...)})
		}
	}
	return out
}

type FieldAttributes uint16

const (
	FieldPrivate FieldAttributes = 1 << iota
	FieldPublic
	FieldFamily
	FieldStatic
	FieldInitOnly
)

type Field struct {
	Name          string
	Type          *Type
	Attributes    FieldAttributes
	DeclaringType *Type
	Tags          []Tag
}

func (f *Field) IsStatic() bool { return f.Attributes&FieldStatic != 0 }

type MethodAttributes uint32

const (
	MethodPrivate MethodAttributes = 1 << iota
	MethodPublic
	MethodFamily
	MethodAssembly
	MethodStatic
	MethodVirtual
	MethodAbstract
	MethodFinal
	MethodHideBySig
	MethodNewSlot
	MethodSpecialName
)

// Common attribute combinations.
const (
	MethodPublicVirtual  = MethodPublic | MethodVirtual | MethodHideBySig
	MethodPublicAbstract = MethodPublic | MethodVirtual | MethodAbstract | MethodHideBySig | MethodNewSlot
	MethodAccessor       = MethodPublic | MethodHideBySig | MethodSpecialName
)

type MethodKind int

const (
	MethodOrdinary MethodKind = iota
	MethodConstructor
	MethodTypeInitializer
)

const (
	ConstructorName     = ".ctor"
	TypeInitializerName = ".cctor"
)

type ParamAttributes uint8

const (
	ParamNone ParamAttributes = 0
	ParamIn   ParamAttributes = 1 << iota
	ParamOut
	ParamOptional
)

type Parameter struct {
	Name       string
	Position   int
	Type       *Type
	Attributes ParamAttributes
	Tags       []Tag
}

// NewParameter is shorthand for an unannotated parameter.
func NewParameter(name string, t *Type) *Parameter {
	return &Parameter{Name: name, Type: t}
}

// Method is an ordinary method, constructor or type initializer.
type Method struct {
	Name          string
	Kind          MethodKind
	Attributes    MethodAttributes
	ReturnType    *Type
	Params        []*Parameter
	GenericParams []*GenericParam
	DeclaringType *Type
	// Definition is the declared method when this is a view through a
	// constructed generic type.
	Definition *Method
	Tags       []Tag
}

// NewMethod builds an ordinary method, numbering params in order.
func NewMethod(name string, attrs MethodAttributes, ret *Type, params ...*Parameter) *Method {
	if ret == nil {
		ret = Void
	}
	for i, p := range params {
		p.Position = i
	}
	return &Method{Name: name, Kind: MethodOrdinary, Attributes: attrs, ReturnType: ret, Params: params}
}

// NewConstructor builds an instance constructor with positional parameters.
func NewConstructor(attrs MethodAttributes, params ...*Parameter) *Method {
	m := NewMethod(ConstructorName, attrs|MethodSpecialName, Void, params...)
	m.Kind = MethodConstructor
	return m
}

func (m *Method) IsStatic() bool        { return m.Attributes&MethodStatic != 0 }
func (m *Method) IsVirtual() bool       { return m.Attributes&MethodVirtual != 0 }
func (m *Method) IsAbstract() bool      { return m.Attributes&MethodAbstract != 0 }
func (m *Method) IsPublic() bool        { return m.Attributes&MethodPublic != 0 }
func (m *Method) IsConstructor() bool   { return m.Kind == MethodConstructor }
func (m *Method) IsGenericMethod() bool { return len(m.GenericParams) > 0 }

// Declaration returns the declared method behind a view.
func (m *Method) Declaration() *Method {
	if m.Definition != nil {
		return m.Definition
	}
	return m
}

// ParamTypes returns the parameter types in order.
func (m *Method) ParamTypes() []*Type {
	out := make([]*Type, len(m.Params))
	for i, p := range m.Params {
		out[i] = p.Type
	}
	return out
}

// HasConstrainedGenerics reports whether any method-level parameter carries
// a type constraint or special attribute.
func (m *Method) HasConstrainedGenerics() bool {
	for _, p := range m.GenericParams {
		if len(p.Constraints) > 0 || p.Attributes&GenericSpecialMask != 0 {
			return true
		}
	}
	return false
}

// Signature renders name, generic arity and parameter types.
func (m *Method) Signature() string {
	var b strings.Builder
	b.WriteString(m.Name)
	if len(m.GenericParams) > 0 {
		names := make([]string, len(m.GenericParams))
		for i, p := range m.GenericParams {
			names[i] = p.Name
		}
		b.WriteString("<" + strings.Join(names, ", ") + ">")
	}
	b.WriteString("(")
	for i, p := range m.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.Type.String())
	}
	b.WriteString(")")
	return b.String()
}

// SameSignature compares parameter lists by type identity.
func SameSignature(a, b []*Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Identical(a[i], b[i]) {
			return false
		}
	}
	return true
}

// PropertyAttributes flag special handling of a property.
type PropertyAttributes uint8

const (
	PropertyNone        PropertyAttributes = 0
	PropertySpecialName PropertyAttributes = 1 << iota
	PropertyHasDefault
)

type Property struct {
	Name          string
	Attributes    PropertyAttributes
	Type          *Type
	IndexParams   []*Type
	Getter        *Method
	Setter        *Method
	DeclaringType *Type
	Tags          []Tag
}

type Event struct {
	Name          string
	HandlerType   *Type
	Add           *Method
	Remove        *Method
	DeclaringType *Type
	Tags          []Tag
}

// AddField appends f and claims it for t.
func (t *Type) AddField(f *Field) *Field {
	f.DeclaringType = t
	t.Fields = append(t.Fields, f)
	return f
}

// AddMethod appends m (or a constructor) and claims it for t.
func (t *Type) AddMethod(m *Method) *Method {
	m.DeclaringType = t
	for _, p := range m.GenericParams {
		p.DeclaringType = t
	}
	if m.Kind == MethodOrdinary {
		t.Methods = append(t.Methods, m)
	} else {
		t.Constructors = append(t.Constructors, m)
	}
	return m
}

// AddProperty appends p together with its accessors.
func (t *Type) AddProperty(p *Property) *Property {
	p.DeclaringType = t
	t.Properties = append(t.Properties, p)
	for _, acc := range []*Method{p.Getter, p.Setter} {
		if acc != nil && acc.DeclaringType == nil {
			t.AddMethod(acc)
		}
	}
	return p
}
