package model

// Substitute replaces type-scope parameters in t by position with args. The
// original pointer is returned when nothing changes.
func Substitute(t *Type, args []*Type) *Type {
	if t == nil || len(args) == 0 {
		return t
	}
	switch t.Kind {
	case KindGenericParam:
		if t.Param.Scope == ScopeType && t.Param.Position < len(args) {
			return args[t.Param.Position]
		}
		return t
	case KindArray:
		if elem := Substitute(t.Elem, args); elem != t.Elem {
			return ArrayOf(elem, t.Rank)
		}
		return t
	case KindByRef:
		if elem := Substitute(t.Elem, args); elem != t.Elem {
			return ByRef(elem)
		}
		return t
	case KindGenericInstance:
		changed := false
		out := make([]*Type, len(t.TypeArgs))
		for i, a := range t.TypeArgs {
			out[i] = Substitute(a, args)
			changed = changed || out[i] != a
		}
		if changed {
			return instance(t.Definition, out)
		}
		return t
	}
	return t
}

// view returns m as seen through the constructed type inst.
func view(inst *Type, m *Method) *Method {
	v := &Method{
		Name:          m.Name,
		Kind:          m.Kind,
		Attributes:    m.Attributes,
		ReturnType:    Substitute(m.ReturnType, inst.TypeArgs),
		Params:        make([]*Parameter, len(m.Params)),
		GenericParams: m.GenericParams,
		DeclaringType: inst,
		Definition:    m,
		Tags:          m.Tags,
	}
	for i, p := range m.Params {
		cp := *p
		cp.Type = Substitute(p.Type, inst.TypeArgs)
		v.Params[i] = &cp
	}
	return v
}

// DeclaredMethods returns the ordinary methods declared by t. For a
// constructed type each method is a view with type arguments substituted.
func (t *Type) DeclaredMethods() []*Method {
	def := t.Underlying()
	if def == t {
		return t.Methods
	}
	out := make([]*Method, len(def.Methods))
	for i, m := range def.Methods {
		out[i] = view(t, m)
	}
	return out
}

// Method finds a declared method by name, walking base types.
func (t *Type) Method(name string) *Method {
	for cur := t; cur != nil; cur = cur.Underlying().Base {
		for _, m := range cur.DeclaredMethods() {
			if m.Name == name {
				return m
			}
		}
	}
	return nil
}

// LookupMethod finds a method by name and parameter types, walking base
// types and then interfaces.
func (t *Type) LookupMethod(name string, params []*Type) *Method {
	for cur := t; cur != nil; cur = cur.Underlying().Base {
		for _, m := range cur.DeclaredMethods() {
			if m.Name == name && SameSignature(m.ParamTypes(), params) {
				return m
			}
		}
	}
	for _, i := range t.Underlying().Interfaces {
		if m := i.LookupMethod(name, params); m != nil {
			return m
		}
	}
	return nil
}

// Constructor finds the instance constructor with the given parameter types.
func (t *Type) Constructor(params ...*Type) *Method {
	def := t.Underlying()
	for _, c := range def.Constructors {
		if c.Kind != MethodConstructor {
			continue
		}
		if def != t {
			c = view(t, c)
		}
		if SameSignature(c.ParamTypes(), params) {
			return c
		}
	}
	return nil
}

// Field finds a declared field by exact name, walking base types.
func (t *Type) Field(name string) *Field {
	for cur := t; cur != nil; cur = cur.Underlying().Base {
		for _, f := range cur.Underlying().Fields {
			if f.Name == name {
				return f
			}
		}
	}
	return nil
}

// Property finds a declared property by name, walking base types.
func (t *Type) Property(name string) *Property {
	for cur := t; cur != nil; cur = cur.Underlying().Base {
		for _, p := range cur.Underlying().Properties {
			if p.Name == name {
				return p
			}
		}
	}
	return nil
}

// Event finds a declared event by name.
func (t *Type) Event(name string) *Event {
	for _, e := range t.Underlying().Events {
		if e.Name == name {
			return e
		}
	}
	return nil
}
