package blueprint

import "github.com/cmmoran/proxytype/pkg/model"

// CreateNested opens a blueprint for a type declared inside this one. It is
// built by this blueprint's BuildType, after the enclosing type, and keeps
// its own members and generic bindings.
func (b *Blueprint) CreateNested(name string, shape Shape, base *model.Type, ifaces []*model.Type, opts ...Option) (*Blueprint, error) {
	if err := b.checkOpen("CreateNested"); err != nil {
		return nil, err
	}
	inherit := []Option{WithLogger(b.logger), WithDebuggerProbe(b.probe)}
	if b.strict {
		inherit = append(inherit, WithStrictConstraints())
	}
	child := New(b.module, name, shape, base, ifaces, append(inherit, opts...)...)

	t := child.typ
	t.DeclaringType = b.typ
	t.Namespace = b.typ.Namespace
	t.Attributes |= model.TypeNested
	child.log = child.logger.With("type", t.FullName(), "module", b.module.Model().Name)

	b.typ.Nested = append(b.typ.Nested, t)
	b.nested = append(b.nested, child)
	return child, nil
}
