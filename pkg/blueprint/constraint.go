package blueprint

import (
	"fmt"
	"strings"

	"github.com/cmmoran/proxytype/pkg/model"
)

// ConstraintExpr is a generic constraint lowered out of the type model so
// references to open parameters can be rewritten structurally.
type ConstraintExpr interface {
	// Raise turns the expression back into a model type.
	Raise() (*model.Type, error)
	String() string
	constraint()
}

// ConcreteConstraint is a type with no parameter references to rewrite.
type ConcreteConstraint struct {
	Type *model.Type
}

// OpenParamConstraint references a generic parameter by scope and position.
type OpenParamConstraint struct {
	Scope    model.ParamScope
	Position int
	Param    *model.GenericParam
}

// ConstructionConstraint is a generic definition applied to arguments.
type ConstructionConstraint struct {
	Definition *model.Type
	Args       []ConstraintExpr
}

func (ConcreteConstraint) constraint()     {}
func (OpenParamConstraint) constraint()    {}
func (ConstructionConstraint) constraint() {}

func (c ConcreteConstraint) Raise() (*model.Type, error)  { return c.Type, nil }
func (c OpenParamConstraint) Raise() (*model.Type, error) { return c.Param.Type(), nil }

func (c ConstructionConstraint) Raise() (*model.Type, error) {
	args := make([]*model.Type, len(c.Args))
	for i, a := range c.Args {
		t, err := a.Raise()
		if err != nil {
			return nil, err
		}
		args[i] = t
	}
	return model.Instantiate(c.Definition, args...)
}

func (c ConcreteConstraint) String() string { return c.Type.String() }

func (c OpenParamConstraint) String() string {
	return fmt.Sprintf("!%s%d", c.Scope, c.Position)
}

func (c ConstructionConstraint) String() string {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = a.String()
	}
	return c.Definition.FullName() + "<" + strings.Join(args, ", ") + ">"
}

// LowerConstraint converts t into a ConstraintExpr. The walk tracks the
// constructions on the current path and fails on a cycle.
func LowerConstraint(t *model.Type) (ConstraintExpr, error) {
	return lower(t, make(map[*model.Type]bool))
}

func lower(t *model.Type, visiting map[*model.Type]bool) (ConstraintExpr, error) {
	if t == nil {
		return nil, fmt.Errorf("nil constraint")
	}
	switch t.Kind {
	case model.KindGenericParam:
		return OpenParamConstraint{Scope: t.Param.Scope, Position: t.Param.Position, Param: t.Param}, nil
	case model.KindGenericInstance:
		if visiting[t] {
			return nil, fmt.Errorf("constraint %s refers to itself", t.Definition.FullName())
		}
		visiting[t] = true
		defer delete(visiting, t)
		args := make([]ConstraintExpr, len(t.TypeArgs))
		for i, a := range t.TypeArgs {
			e, err := lower(a, visiting)
			if err != nil {
				return nil, err
			}
			args[i] = e
		}
		return ConstructionConstraint{Definition: t.Definition, Args: args}, nil
	}
	return ConcreteConstraint{Type: t}, nil
}

// rewriter maps the parameters of a template onto their copies and the
// enclosing type's parameters onto its bound arguments.
type rewriter struct {
	orig      []*model.GenericParam
	fresh     []*model.GenericParam
	owner     *model.Type
	enclosing []*model.Type
}

func (r *rewriter) rewrite(e ConstraintExpr) ConstraintExpr {
	switch c := e.(type) {
	case OpenParamConstraint:
		if c.Position < len(r.orig) && r.orig[c.Position] == c.Param {
			return OpenParamConstraint{Scope: r.fresh[c.Position].Scope, Position: c.Position, Param: r.fresh[c.Position]}
		}
		if c.Scope == model.ScopeType && c.Param.DeclaringType == r.owner && c.Position < len(r.enclosing) {
			return ConcreteConstraint{Type: r.enclosing[c.Position]}
		}
		return c
	case ConstructionConstraint:
		args := make([]ConstraintExpr, len(c.Args))
		for i, a := range c.Args {
			args[i] = r.rewrite(a)
		}
		return ConstructionConstraint{Definition: c.Definition, Args: args}
	}
	return e
}
