package memory

import (
	"fmt"

	"github.com/cmmoran/proxytype/pkg/host"
	"github.com/cmmoran/proxytype/pkg/model"
)

// CheckConstraints implements host.Module. The runtime rejects shapes no
// argument could ever satisfy.
func (m *Module) CheckConstraints(p *model.GenericParam) error {
	if p.Attributes&model.GenericReferenceType != 0 && p.Attributes&model.GenericValueType != 0 {
		return fmt.Errorf("%w: %s is both reference- and value-type constrained", host.ErrConstraint, p.Name)
	}
	var base *model.Type
	for _, c := range p.Constraints {
		switch {
		case c == nil:
			return fmt.Errorf("%w: %s has a nil constraint", host.ErrConstraint, p.Name)
		case c.IsArray() || c.IsByRef() || c.IsVoid():
			return fmt.Errorf("%w: %s constrained to %s", host.ErrConstraint, p.Name, c)
		case c.IsInterface():
			continue
		case base != nil:
			return fmt.Errorf("%w: %s has base constraints %s and %s", host.ErrConstraint, p.Name, base, c)
		}
		base = c
		if !c.IsGenericParameter() && c.IsSealed() {
			return fmt.Errorf("%w: %s constrained to sealed %s", host.ErrConstraint, p.Name, c)
		}
		if p.Attributes&model.GenericValueType != 0 && c.IsClass() && c != model.Object {
			return fmt.Errorf("%w: %s is value-type constrained with class base %s", host.ErrConstraint, p.Name, c)
		}
	}
	return nil
}

func (m *Module) verify(def *host.Definition) error {
	t := def.Type
	if t.Name == "" {
		return fmt.Errorf("type has no name")
	}
	switch t.Kind {
	case model.KindClass:
		if t.Base == nil {
			return fmt.Errorf("class has no base type")
		}
		if !t.Base.IsClass() || t.Base.IsSealed() {
			return fmt.Errorf("cannot derive from %s", t.Base)
		}
		if b := t.Base.Underlying(); b != model.Object && !b.Baked {
			if _, ok := m.rt.Owner(b); !ok && len(b.Constructors) == 0 {
				return fmt.Errorf("base %s has no constructors", t.Base)
			}
		}
	case model.KindInterface:
		for _, c := range t.Constructors {
			if c.IsConstructor() {
				return fmt.Errorf("interface declares constructors")
			}
		}
		for _, f := range t.Fields {
			if !f.IsStatic() {
				return fmt.Errorf("interface declares instance field %s", f.Name)
			}
		}
	default:
		return fmt.Errorf("cannot define %s types", t.Kind)
	}
	for _, i := range t.Interfaces {
		if !i.IsInterface() {
			return fmt.Errorf("%s is not an interface", i)
		}
	}

	for _, p := range t.GenericParams {
		if err := m.CheckConstraints(p); err != nil {
			return err
		}
	}

	abstract := t.Kind == model.KindInterface || t.Attributes&model.TypeAbstract != 0
	all := append(append([]*model.Method(nil), t.Constructors...), t.Methods...)
	for _, meth := range all {
		body := def.Bodies[meth]
		switch {
		case meth.IsAbstract() && body != nil:
			return fmt.Errorf("abstract method %s has a body", meth.Signature())
		case meth.IsAbstract() && !abstract:
			return fmt.Errorf("abstract method %s on concrete type", meth.Signature())
		case !meth.IsAbstract() && body == nil:
			return fmt.Errorf("method %s has no body", meth.Signature())
		}
		if body != nil {
			if err := body.Validate(); err != nil {
				return fmt.Errorf("method %s: %w", meth.Signature(), err)
			}
		}
		for _, p := range meth.GenericParams {
			if err := m.CheckConstraints(p); err != nil {
				return fmt.Errorf("method %s: %w", meth.Signature(), err)
			}
		}
	}

	if !abstract {
		for _, i := range t.Interfaces {
			for _, im := range interfaceMethods(i) {
				if findImplementation(t, im) == nil {
					return fmt.Errorf("%s does not implement %s.%s", t.Name, i, im.Signature())
				}
			}
		}
	}
	return nil
}

// interfaceMethods lists the methods of i and the interfaces it extends.
func interfaceMethods(i *model.Type) []*model.Method {
	out := i.DeclaredMethods()
	for _, parent := range i.Underlying().Interfaces {
		out = append(out, interfaceMethods(parent)...)
	}
	return out
}

// findImplementation looks for a non-abstract method on t or its bases
// whose signature matches decl.
func findImplementation(t *model.Type, decl *model.Method) *model.Method {
	for cur := t; cur != nil; cur = cur.Underlying().Base {
		for _, cand := range cur.DeclaredMethods() {
			if !cand.IsAbstract() && matches(cand, decl) {
				return cand
			}
		}
	}
	return nil
}

// matches compares two method signatures, treating method-level generic
// parameters as equal when they sit at the same position.
func matches(a, b *model.Method) bool {
	if a.Name != b.Name || len(a.Params) != len(b.Params) || len(a.GenericParams) != len(b.GenericParams) {
		return false
	}
	if !sameShape(a.ReturnType, b.ReturnType) {
		return false
	}
	for i := range a.Params {
		if !sameShape(a.Params[i].Type, b.Params[i].Type) {
			return false
		}
	}
	return true
}

func sameShape(a, b *model.Type) bool {
	if a.IsVoid() && b.IsVoid() {
		return true
	}
	if model.Identical(a, b) {
		return true
	}
	if a == nil || b == nil || a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case model.KindGenericParam:
		return a.Param.Scope == model.ScopeMethod && b.Param.Scope == model.ScopeMethod &&
			a.Param.Position == b.Param.Position
	case model.KindArray:
		return a.Rank == b.Rank && sameShape(a.Elem, b.Elem)
	case model.KindByRef:
		return sameShape(a.Elem, b.Elem)
	case model.KindGenericInstance:
		if a.Definition != b.Definition || len(a.TypeArgs) != len(b.TypeArgs) {
			return false
		}
		for i := range a.TypeArgs {
			if !sameShape(a.TypeArgs[i], b.TypeArgs[i]) {
				return false
			}
		}
		return true
	}
	return false
}
