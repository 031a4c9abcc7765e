package blueprint

import (
	"github.com/cmmoran/proxytype/pkg/emit"
	"github.com/cmmoran/proxytype/pkg/model"
)

// MethodSlot is a declared ordinary method or accessor.
type MethodSlot struct {
	code
	method   *model.Method
	template *model.Method
	// names is the blueprint's table plus the method's own parameters,
	// which shadow type-level ones of the same name.
	names map[string]*model.GenericParam
}

func (s *MethodSlot) Method() *model.Method { return s.method }

// Project substitutes open generic parameters in t by the names visible
// inside this method.
func (s *MethodSlot) Project(t *model.Type) *model.Type { return Project(t, s.names) }

// GenericArgument resolves name as seen from inside this method.
func (s *MethodSlot) GenericArgument(name string) (*model.GenericParam, bool) {
	p, ok := s.names[name]
	return p, ok
}

// Template returns the method this one was copied from, if any.
func (s *MethodSlot) Template() *model.Method { return s.template }

// CreateMethod declares a method with positional parameters of types args.
// On an interface blueprint instance methods are made abstract.
func (b *Blueprint) CreateMethod(name string, attrs model.MethodAttributes, ret *model.Type, args ...*model.Type) (*MethodSlot, error) {
	if err := b.checkOpen("CreateMethod"); err != nil {
		return nil, err
	}
	return b.declare(model.NewMethod(name, b.normalize(attrs), ret, argParams(args)...), nil), nil
}

// CreateMethodFromTemplate declares a method shaped after tmpl: its generic
// parameters are copied with their constraints, its parameter and return
// types are projected onto the copies, and parameter names, attributes and
// non-inherited tags carry over.
func (b *Blueprint) CreateMethodFromTemplate(name string, attrs model.MethodAttributes, tmpl *model.Method) (*MethodSlot, error) {
	if err := b.checkOpen("CreateMethodFromTemplate"); err != nil {
		return nil, err
	}
	return b.fromTemplate(name, b.normalize(attrs), tmpl)
}

func (b *Blueprint) fromTemplate(name string, attrs model.MethodAttributes, tmpl *model.Method) (*MethodSlot, error) {
	m := model.NewMethod(name, attrs, nil)
	m.DeclaringType = b.typ

	names := b.names
	if len(tmpl.GenericParams) > 0 {
		names = make(map[string]*model.GenericParam, len(b.names)+len(tmpl.GenericParams))
		for n, p := range b.names {
			names[n] = p
		}
		fresh := m.DefineGenericParams(paramNames(tmpl.GenericParams)...)
		var owner *model.Type
		var enclosing []*model.Type
		if tmpl.DeclaringType != nil {
			owner = tmpl.DeclaringType.Underlying()
			enclosing = b.GetGenericArgumentsFor(tmpl.DeclaringType)
		}
		if err := b.copyGenericParams(memberName(tmpl.DeclaringType, tmpl), tmpl.GenericParams, fresh, owner, enclosing, names); err != nil {
			return nil, err
		}
	}

	m.Params = make([]*model.Parameter, len(tmpl.Params))
	for i, p := range tmpl.Params {
		m.Params[i] = &model.Parameter{
			Name:       p.Name,
			Position:   i,
			Type:       Project(p.Type, names),
			Attributes: p.Attributes,
			Tags:       model.NonInheritedTags(p.Tags),
		}
	}
	m.ReturnType = Project(tmpl.ReturnType, names)
	slot := b.declare(m, tmpl)
	slot.names = names
	return slot, nil
}

func (b *Blueprint) normalize(attrs model.MethodAttributes) model.MethodAttributes {
	if b.shape == ShapeInterface && attrs&model.MethodStatic == 0 {
		attrs |= model.MethodAbstract | model.MethodVirtual | model.MethodNewSlot
	}
	return attrs
}

func (b *Blueprint) declare(m *model.Method, tmpl *model.Method) *MethodSlot {
	slot := &MethodSlot{method: b.typ.AddMethod(m), template: tmpl, names: b.names}
	b.methods = append(b.methods, slot)
	return slot
}

// finish returns the body to bake, nil for abstract methods.
func (s *MethodSlot) finish(b *Blueprint) *emit.Body {
	if s.method.IsAbstract() {
		return nil
	}
	if s.HasBody() {
		return s.builder.Body()
	}
	g := emit.NewBuilder()
	emit.DefaultReturn(g, s.method)
	return g.Body()
}
