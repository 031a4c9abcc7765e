package blueprint

import "github.com/cmmoran/proxytype/pkg/model"

// Project substitutes open generic parameters in t by name. Arrays keep their
// rank, and by-ref types and generic constructions are rebuilt around
// projected elements. t itself is returned when nothing maps.
func Project(t *model.Type, names map[string]*model.GenericParam) *model.Type {
	if t == nil || len(names) == 0 {
		return t
	}
	switch t.Kind {
	case model.KindGenericParam:
		if p, ok := names[t.Param.Name]; ok {
			return p.Type()
		}
	case model.KindArray:
		if elem := Project(t.Elem, names); elem != t.Elem {
			return model.ArrayOf(elem, t.Rank)
		}
	case model.KindByRef:
		if elem := Project(t.Elem, names); elem != t.Elem {
			return model.ByRef(elem)
		}
	case model.KindGenericInstance:
		args := make([]*model.Type, len(t.TypeArgs))
		changed := false
		for i, a := range t.TypeArgs {
			args[i] = Project(a, names)
			changed = changed || args[i] != a
		}
		if changed {
			if inst, err := model.Instantiate(t.Definition, args...); err == nil {
				return inst
			}
		}
	}
	return t
}

func (b *Blueprint) project(t *model.Type) *model.Type { return Project(t, b.names) }

// GetGenericArgumentsFor returns the type arguments of shape, or the
// parameters of a generic definition, with every open parameter this
// blueprint knows by name replaced by its local counterpart.
func (b *Blueprint) GetGenericArgumentsFor(shape *model.Type) []*model.Type {
	var args []*model.Type
	switch {
	case shape.IsGenericInstance():
		args = shape.TypeArgs
	case shape.IsGenericDefinition():
		for _, p := range shape.GenericParams {
			args = append(args, p.Type())
		}
	default:
		return nil
	}
	out := make([]*model.Type, len(args))
	for i, a := range args {
		out[i] = b.project(a)
	}
	return out
}

// GetGenericArgumentsForMethod is GetGenericArgumentsFor over the
// method-level parameters of tmpl. Names resolve inside the first method
// copied from tmpl, so its own parameters win over type-level ones.
func (b *Blueprint) GetGenericArgumentsForMethod(tmpl *model.Method) []*model.Type {
	names := b.names
	if s := b.copiedFrom(tmpl); s != nil {
		names = s.names
	}
	out := make([]*model.Type, len(tmpl.GenericParams))
	for i, p := range tmpl.GenericParams {
		out[i] = Project(p.Type(), names)
	}
	return out
}

// copiedFrom finds the slot whose template declares the generic parameters
// of tmpl. Instance views share them with their definition.
func (b *Blueprint) copiedFrom(tmpl *model.Method) *MethodSlot {
	if len(tmpl.GenericParams) == 0 {
		return nil
	}
	for _, s := range b.methods {
		if s.template != nil && len(s.template.GenericParams) > 0 && s.template.GenericParams[0] == tmpl.GenericParams[0] {
			return s
		}
	}
	return nil
}
