package blueprint

import (
	"fmt"

	"github.com/cmmoran/proxytype/pkg/model"
)

// copyGenericParams gives each fresh parameter the attributes, constraints
// and non-inherited tags of the original at the same position, then makes
// the fresh parameters resolvable by the original names in names.
//
// Constraint references to orig are redirected to fresh; references to the
// parameters of owner are replaced by enclosing. A parameter whose rewritten
// constraints the host can not express loses all of them, unless the
// blueprint is strict.
func (b *Blueprint) copyGenericParams(member string, orig, fresh []*model.GenericParam, owner *model.Type, enclosing []*model.Type, names map[string]*model.GenericParam) error {
	if len(orig) == 0 {
		return nil
	}
	r := &rewriter{orig: orig, fresh: fresh, owner: owner, enclosing: enclosing}
	for i, op := range orig {
		np := fresh[i]
		np.Attributes = op.Attributes
		np.Tags = model.NonInheritedTags(op.Tags)
		if err := b.constrain(np, op, r); err != nil {
			if b.strict {
				return &ConstraintError{Member: member, Param: np.Name, Err: err}
			}
			b.log.With("member", member, "param", np.Name, "error", err).Warn("generic parameter constraints dropped")
			np.ClearConstraints()
		}
	}
	for i, op := range orig {
		names[op.Name] = fresh[i]
	}
	return nil
}

func (b *Blueprint) constrain(np, op *model.GenericParam, r *rewriter) error {
	var base, ifaces []*model.Type
	for _, c := range op.Constraints {
		e, err := LowerConstraint(c)
		if err != nil {
			return err
		}
		t, err := r.rewrite(e).Raise()
		if err != nil {
			return err
		}
		if c.IsInterface() {
			ifaces = append(ifaces, t)
		} else {
			base = append(base, t)
		}
	}
	np.Constraints = append(base, ifaces...)
	return b.module.CheckConstraints(np)
}

func paramNames(ps []*model.GenericParam) []string {
	names := make([]string, len(ps))
	for i, p := range ps {
		names[i] = p.Name
	}
	return names
}

// SetGenericTypeParameters declares the blueprint's own generic parameters
// and makes them resolvable by name.
func (b *Blueprint) SetGenericTypeParameters(names ...string) ([]*model.GenericParam, error) {
	const op = "SetGenericTypeParameters"
	if err := b.checkOpen(op); err != nil {
		return nil, err
	}
	if len(b.typ.GenericParams) > 0 {
		return nil, b.usage(op, "generic parameters already declared")
	}
	params := b.typ.DefineGenericParams(names...)
	for _, p := range params {
		b.names[p.Name] = p
	}
	return params, nil
}

// CopyGenericParametersFrom declares generic parameters on the blueprint
// that mirror those of tmpl, constraints included.
func (b *Blueprint) CopyGenericParametersFrom(tmpl *model.Type) ([]*model.GenericParam, error) {
	const op = "CopyGenericParametersFrom"
	if err := b.checkOpen(op); err != nil {
		return nil, err
	}
	if len(b.typ.GenericParams) > 0 {
		return nil, b.usage(op, "generic parameters already declared")
	}
	def := tmpl.Underlying()
	if len(def.GenericParams) == 0 {
		return nil, nil
	}
	fresh := b.typ.DefineGenericParams(paramNames(def.GenericParams)...)
	if err := b.copyGenericParams(b.typ.Name, def.GenericParams, fresh, def, nil, b.names); err != nil {
		b.typ.GenericParams = nil
		return nil, err
	}
	return fresh, nil
}

// GetGenericArgument returns the blueprint's own generic parameter name.
func (b *Blueprint) GetGenericArgument(name string) (*model.GenericParam, bool) {
	for _, p := range b.typ.GenericParams {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}

func memberName(t *model.Type, m *model.Method) string {
	if t == nil {
		return m.Name
	}
	return fmt.Sprintf("%s.%s", t.Name, m.Name)
}
