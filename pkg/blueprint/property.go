package blueprint

import (
	"github.com/cmmoran/proxytype/pkg/emit"
	"github.com/cmmoran/proxytype/pkg/model"
)

// PropertySlot is a declared property. Each accessor can be created once.
type PropertySlot struct {
	bp      *Blueprint
	prop    *model.Property
	getter  *MethodSlot
	setter  *MethodSlot
	backing *FieldSlot
}

func (s *PropertySlot) Property() *model.Property { return s.prop }
func (s *PropertySlot) Getter() *MethodSlot       { return s.getter }
func (s *PropertySlot) Setter() *MethodSlot       { return s.setter }

// CreateProperty declares a property of type typ, indexed when index is
// non-empty. Accessors are added through the returned slot.
func (b *Blueprint) CreateProperty(name string, attrs model.PropertyAttributes, typ *model.Type, index ...*model.Type) (*PropertySlot, error) {
	if err := b.checkOpen("CreateProperty"); err != nil {
		return nil, err
	}
	p := b.typ.AddProperty(&model.Property{Name: name, Attributes: attrs, Type: typ, IndexParams: index})
	slot := &PropertySlot{bp: b, prop: p}
	b.properties = append(b.properties, slot)
	return slot, nil
}

func (s *PropertySlot) check(op string, existing *MethodSlot) error {
	if err := s.bp.checkOpen(op); err != nil {
		return err
	}
	if existing != nil {
		return s.bp.usage(op, "property %s already has this accessor", s.prop.Name)
	}
	return nil
}

// CreateGetMethod declares get_<Name> returning the property type.
func (s *PropertySlot) CreateGetMethod(attrs model.MethodAttributes) (*MethodSlot, error) {
	if err := s.check("CreateGetMethod", s.getter); err != nil {
		return nil, err
	}
	m := model.NewMethod("get_"+s.prop.Name, s.bp.normalize(attrs|model.MethodSpecialName), s.prop.Type, argParams(s.prop.IndexParams)...)
	s.getter = s.bp.declare(m, nil)
	s.prop.Getter = s.getter.method
	return s.getter, nil
}

// CreateSetMethod declares set_<Name> taking the index arguments and value.
func (s *PropertySlot) CreateSetMethod(attrs model.MethodAttributes) (*MethodSlot, error) {
	if err := s.check("CreateSetMethod", s.setter); err != nil {
		return nil, err
	}
	params := append(argParams(s.prop.IndexParams), model.NewParameter("value", s.prop.Type))
	m := model.NewMethod("set_"+s.prop.Name, s.bp.normalize(attrs|model.MethodSpecialName), nil, params...)
	s.setter = s.bp.declare(m, nil)
	s.prop.Setter = s.setter.method
	return s.setter, nil
}

// CreateGetMethodFromTemplate declares get_<Name> shaped after tmpl.
func (s *PropertySlot) CreateGetMethodFromTemplate(attrs model.MethodAttributes, tmpl *model.Method) (*MethodSlot, error) {
	if err := s.check("CreateGetMethodFromTemplate", s.getter); err != nil {
		return nil, err
	}
	slot, err := s.bp.fromTemplate("get_"+s.prop.Name, s.bp.normalize(attrs|model.MethodSpecialName), tmpl)
	if err != nil {
		return nil, err
	}
	s.getter = slot
	s.prop.Getter = slot.method
	return slot, nil
}

// CreateSetMethodFromTemplate declares set_<Name> shaped after tmpl.
func (s *PropertySlot) CreateSetMethodFromTemplate(attrs model.MethodAttributes, tmpl *model.Method) (*MethodSlot, error) {
	if err := s.check("CreateSetMethodFromTemplate", s.setter); err != nil {
		return nil, err
	}
	slot, err := s.bp.fromTemplate("set_"+s.prop.Name, s.bp.normalize(attrs|model.MethodSpecialName), tmpl)
	if err != nil {
		return nil, err
	}
	s.setter = slot
	s.prop.Setter = slot.method
	return slot, nil
}

// BackedBy makes accessors left without a body read and write f.
func (s *PropertySlot) BackedBy(f *FieldSlot) error {
	const op = "BackedBy"
	if err := s.bp.checkOpen(op); err != nil {
		return err
	}
	switch {
	case len(s.prop.IndexParams) > 0:
		return s.bp.usage(op, "indexed property %s can not be field-backed", s.prop.Name)
	case f.IsStatic():
		return s.bp.usage(op, "property %s can not be backed by static field %s", s.prop.Name, f.Name())
	}
	s.backing = f
	return nil
}

func (s *PropertySlot) fillBackedBodies() {
	if s.backing == nil {
		return
	}
	if s.getter != nil && !s.getter.HasBody() && !s.getter.method.IsAbstract() {
		emit.FieldGetter(s.getter.IL(), s.backing.field)
	}
	if s.setter != nil && !s.setter.HasBody() && !s.setter.method.IsAbstract() {
		emit.FieldSetter(s.setter.IL(), s.backing.field)
	}
}
