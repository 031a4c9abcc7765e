package blueprint

import "github.com/cmmoran/proxytype/pkg/model"

// FieldSlot is a declared field. The handle stays valid for body generation
// even if a later CreateField replaces it.
type FieldSlot struct {
	field *model.Field
}

func (s *FieldSlot) Field() *model.Field { return s.field }
func (s *FieldSlot) Name() string        { return s.field.Name }
func (s *FieldSlot) Type() *model.Type   { return s.field.Type }
func (s *FieldSlot) IsStatic() bool      { return s.field.IsStatic() }

// CreateField declares a field. Names are compared case-insensitively; a
// name already used by a field of the same kind is replaced, one used by a
// field of the other kind (static vs instance) is a usage error. Interface
// blueprints only take static fields.
func (b *Blueprint) CreateField(name string, typ *model.Type, attrs model.FieldAttributes) (*FieldSlot, error) {
	const op = "CreateField"
	if err := b.checkOpen(op); err != nil {
		return nil, err
	}
	static := attrs&model.FieldStatic != 0
	if b.shape == ShapeInterface && !static {
		return nil, b.usage(op, "interface can not declare instance field %q", name)
	}
	key := fieldKey(name)
	if prev, ok := b.fields[key]; ok {
		if prev.IsStatic() != static {
			return nil, b.usage(op, "field %q conflicts with %s field %q", name, kindOf(prev.IsStatic()), prev.Name())
		}
	} else {
		b.fieldOrder = append(b.fieldOrder, key)
	}
	f := &model.Field{Name: name, Type: typ, Attributes: attrs, DeclaringType: b.typ}
	slot := &FieldSlot{field: f}
	b.fields[key] = slot
	return slot, nil
}

// CreateStaticField declares a private static field.
func (b *Blueprint) CreateStaticField(name string, typ *model.Type) (*FieldSlot, error) {
	return b.CreateField(name, typ, model.FieldPrivate|model.FieldStatic)
}

// GetField looks a field up case-insensitively. A missing field is not an
// error.
func (b *Blueprint) GetField(name string) (*FieldSlot, bool) {
	s, ok := b.fields[fieldKey(name)]
	return s, ok
}

// GetAllFields returns the current fields in first-declaration order.
func (b *Blueprint) GetAllFields() []*FieldSlot {
	out := make([]*FieldSlot, 0, len(b.fieldOrder))
	for _, key := range b.fieldOrder {
		out = append(out, b.fields[key])
	}
	return out
}

func kindOf(static bool) string {
	if static {
		return "static"
	}
	return "instance"
}
