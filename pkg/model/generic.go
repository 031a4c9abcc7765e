package model

// ParamScope tells whether a generic parameter is declared by a method or by
// its enclosing type.
type ParamScope int

const (
	ScopeType ParamScope = iota
	ScopeMethod
)

func (s ParamScope) String() string {
	if s == ScopeMethod {
		return "method"
	}
	return "type"
}

// GenericParamAttributes are the special (non-type) constraints and variance
// of a generic parameter.
type GenericParamAttributes uint8

const (
	GenericNone          GenericParamAttributes = 0
	GenericCovariant     GenericParamAttributes = 1 << 0
	GenericContravariant GenericParamAttributes = 1 << 1
	// GenericReferenceType restricts arguments to reference types.
	GenericReferenceType GenericParamAttributes = 1 << 2
	// GenericValueType restricts arguments to non-nullable value types.
	GenericValueType GenericParamAttributes = 1 << 3
	// GenericDefaultConstructor requires a public parameterless constructor.
	GenericDefaultConstructor GenericParamAttributes = 1 << 4

	GenericVarianceMask = GenericCovariant | GenericContravariant
	GenericSpecialMask  = GenericReferenceType | GenericValueType | GenericDefaultConstructor
)

// GenericParam is a declared type variable. Its Type() handle is allocated
// once, so every reference to the parameter shares one *Type.
type GenericParam struct {
	Name            string
	Position        int
	Scope           ParamScope
	DeclaringType   *Type
	DeclaringMethod *Method
	Attributes      GenericParamAttributes
	// Constraints holds interface constraints and at most one base type, in
	// declaration order.
	Constraints []*Type
	Tags        []Tag

	typ *Type
}

// NewGenericParam allocates a parameter without an owner.
func NewGenericParam(name string, position int, scope ParamScope) *GenericParam {
	return &GenericParam{Name: name, Position: position, Scope: scope}
}

// Type returns the open parameter as a type.
func (p *GenericParam) Type() *Type {
	if p.typ == nil {
		p.typ = &Type{Kind: KindGenericParam, Name: p.Name, Param: p}
		if p.DeclaringType != nil {
			p.typ.Module = p.DeclaringType.Module
		}
	}
	return p.typ
}

// BaseConstraint returns the single non-interface constraint, if any.
func (p *GenericParam) BaseConstraint() *Type {
	for _, c := range p.Constraints {
		if !c.IsInterface() {
			return c
		}
	}
	return nil
}

// InterfaceConstraints returns the interface constraints in order.
func (p *GenericParam) InterfaceConstraints() []*Type {
	out := make([]*Type, 0, len(p.Constraints))
	for _, c := range p.Constraints {
		if c.IsInterface() {
			out = append(out, c)
		}
	}
	return out
}

// SetConstraints stores base (may be nil) ahead of the interface list.
func (p *GenericParam) SetConstraints(base *Type, interfaces []*Type) {
	p.Constraints = p.Constraints[:0]
	if base != nil {
		p.Constraints = append(p.Constraints, base)
	}
	p.Constraints = append(p.Constraints, interfaces...)
}

// ClearConstraints drops every type constraint and special attribute,
// leaving variance untouched.
func (p *GenericParam) ClearConstraints() {
	p.Constraints = nil
	p.Attributes &^= GenericSpecialMask
}

// DefineGenericParams declares method-level parameters on m.
func (m *Method) DefineGenericParams(names ...string) []*GenericParam {
	params := make([]*GenericParam, len(names))
	for i, n := range names {
		p := NewGenericParam(n, i, ScopeMethod)
		p.DeclaringMethod = m
		p.DeclaringType = m.DeclaringType
		params[i] = p
	}
	m.GenericParams = params
	return params
}

// DefineGenericParams declares type-level parameters on t.
func (t *Type) DefineGenericParams(names ...string) []*GenericParam {
	params := make([]*GenericParam, len(names))
	for i, n := range names {
		p := NewGenericParam(n, i, ScopeType)
		p.DeclaringType = t
		params[i] = p
	}
	t.GenericParams = params
	return params
}
