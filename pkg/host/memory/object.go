package memory

import (
	"fmt"
	"strings"

	"github.com/cmmoran/proxytype/pkg/model"
)

// Object is an instance of a class baked into a Runtime.
type Object struct {
	rt     *Runtime
	typ    *model.Type
	fields map[*model.Field]any
}

func (o *Object) Type() *model.Type { return o.typ }

func (o *Object) String() string {
	return fmt.Sprintf("%s@%p", o.typ, o)
}

func (r *Runtime) allocate(t *model.Type) *Object {
	o := &Object{rt: r, typ: t, fields: make(map[*model.Field]any)}
	for cur := t; cur != nil; cur = cur.Underlying().Base {
		for _, f := range cur.Underlying().Fields {
			if !f.IsStatic() {
				o.fields[f] = model.Zero(model.Substitute(f.Type, cur.TypeArgs))
			}
		}
	}
	return o
}

func (r *Runtime) construct(ctor *model.Method, args []any) (*Object, error) {
	t := ctor.DeclaringType
	if t.Underlying().Attributes&model.TypeAbstract != 0 {
		return nil, fmt.Errorf("%w: %s", ErrAbstract, t)
	}
	if err := r.initialize(t); err != nil {
		return nil, err
	}
	o := r.allocate(t)
	if _, err := r.invoke(ctor, o, args, false); err != nil {
		return nil, err
	}
	return o, nil
}

// New instantiates t, choosing the constructor whose arity matches args and
// whose parameters accept them.
func (r *Runtime) New(t *model.Type, args ...any) (*Object, error) {
	if _, ok := r.Owner(t); !ok {
		return nil, fmt.Errorf("new %s: %w", t, ErrNotBaked)
	}
	def := t.Underlying()
	for _, c := range def.Constructors {
		if c.Kind != model.MethodConstructor || len(c.Params) != len(args) {
			continue
		}
		if def != t {
			c = t.Constructor(substituted(c.ParamTypes(), t.TypeArgs)...)
		}
		conv, err := convertArgs(c, args)
		if err != nil {
			continue
		}
		o, err := r.construct(c, conv)
		if err != nil {
			return nil, fmt.Errorf("new %s: %w", t, err)
		}
		return o, nil
	}
	return nil, fmt.Errorf("new %s: %w for %d arguments", t, ErrNoConstructor, len(args))
}

// Invoke calls m with explicit receiver. Virtual methods dispatch on the
// receiver's runtime type.
func (r *Runtime) Invoke(m *model.Method, this *Object, args ...any) (any, error) {
	if !m.IsStatic() && this == nil {
		return nil, fmt.Errorf("invoke %s: %w", m.Signature(), ErrNullReference)
	}
	conv, err := convertArgs(m, args)
	if err != nil {
		return nil, fmt.Errorf("invoke %s: %w", m.Signature(), err)
	}
	return r.invoke(m, this, conv, true)
}

// Call invokes the most derived method named name that accepts args.
func (o *Object) Call(name string, args ...any) (any, error) {
	for cur := o.typ; cur != nil; cur = cur.Underlying().Base {
		for _, m := range cur.DeclaredMethods() {
			if m.Name != name || m.IsStatic() || len(m.Params) != len(args) {
				continue
			}
			conv, err := convertArgs(m, args)
			if err != nil {
				continue
			}
			return o.rt.invoke(m, o, conv, true)
		}
	}
	return nil, fmt.Errorf("call %s.%s: %w", o.typ, name, ErrNoMember)
}

// Get reads a property through its getter.
func (o *Object) Get(name string, index ...any) (any, error) {
	p := o.typ.Property(name)
	if p == nil || p.Getter == nil {
		return nil, fmt.Errorf("get %s.%s: %w", o.typ, name, ErrNoMember)
	}
	conv, err := convertArgs(p.Getter, index)
	if err != nil {
		return nil, fmt.Errorf("get %s.%s: %w", o.typ, name, err)
	}
	return o.rt.invoke(p.Getter, o, conv, true)
}

// Set writes a property through its setter.
func (o *Object) Set(name string, v any, index ...any) error {
	p := o.typ.Property(name)
	if p == nil || p.Setter == nil {
		return fmt.Errorf("set %s.%s: %w", o.typ, name, ErrNoMember)
	}
	conv, err := convertArgs(p.Setter, append(append([]any(nil), index...), v))
	if err != nil {
		return fmt.Errorf("set %s.%s: %w", o.typ, name, err)
	}
	_, err = o.rt.invoke(p.Setter, o, conv, true)
	return err
}

// Subscribe runs the add accessor of event name with handler h.
func (o *Object) Subscribe(name string, h any) error {
	return o.accessor(name, h, true)
}

// Unsubscribe runs the remove accessor of event name with handler h.
func (o *Object) Unsubscribe(name string, h any) error {
	return o.accessor(name, h, false)
}

func (o *Object) accessor(name string, h any, add bool) error {
	var e *model.Event
	for cur := o.typ; cur != nil && e == nil; cur = cur.Underlying().Base {
		e = cur.Event(name)
	}
	if e == nil {
		return fmt.Errorf("event %s.%s: %w", o.typ, name, ErrNoMember)
	}
	m := e.Remove
	if add {
		m = e.Add
	}
	if m == nil {
		return fmt.Errorf("event %s.%s: %w", o.typ, name, ErrNoBody)
	}
	_, err := o.rt.invoke(m, o, []any{h}, true)
	return err
}

// Field reads a field by name, case-insensitively.
func (o *Object) Field(name string) (any, error) {
	for cur := o.typ; cur != nil; cur = cur.Underlying().Base {
		for _, f := range cur.Underlying().Fields {
			if !strings.EqualFold(f.Name, name) {
				continue
			}
			if f.IsStatic() {
				return o.rt.static(f), nil
			}
			return o.fields[f], nil
		}
	}
	return nil, fmt.Errorf("field %s.%s: %w", o.typ, name, ErrNoMember)
}

func substituted(ts []*model.Type, args []*model.Type) []*model.Type {
	out := make([]*model.Type, len(ts))
	for i, t := range ts {
		out[i] = model.Substitute(t, args)
	}
	return out
}

// convertArgs coerces Go arguments to the parameter types of m.
func convertArgs(m *model.Method, args []any) ([]any, error) {
	if len(args) != len(m.Params) {
		return nil, fmt.Errorf("want %d arguments, got %d", len(m.Params), len(args))
	}
	out := make([]any, len(args))
	for i, a := range args {
		v, err := convertArg(m.Params[i].Type, a)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

func convertArg(t *model.Type, v any) (any, error) {
	switch {
	case t.IsPrimitive():
		return model.ConvertPrimitive(t.Primitive, v)
	case t.IsByRef():
		if _, ok := v.(*Ref); !ok {
			return nil, fmt.Errorf("%T is not a reference", v)
		}
		return v, nil
	case t == model.String:
		if v == nil {
			return nil, nil
		}
		if _, ok := v.(string); !ok {
			return nil, fmt.Errorf("%T is not a string", v)
		}
		return v, nil
	case t.IsClass() || t.IsInterface():
		if o, ok := v.(*Object); ok && t != model.Object && !o.typ.AssignableTo(t) {
			return nil, fmt.Errorf("%s is not assignable to %s", o.typ, t)
		}
	}
	return v, nil
}
