package model

import (
	"fmt"
	"strings"
)

// TypeAttributes describe visibility and inheritance of a named type.
type TypeAttributes uint32

const (
	TypePublic TypeAttributes = 1 << iota
	TypeSealed
	TypeAbstract
	TypeNested
)

// Type describes any type known to the model: named declarations (classes,
// interfaces, structs), primitives, and the structural forms built on top of
// them (arrays, by-ref, open parameters, constructed generics).
type Type struct {
	// Identity ------------------------------------------------------------
	Name       string
	Namespace  string
	Kind       Kind
	Module     *Module
	Primitive  Primitive // KindPrimitive only
	Attributes TypeAttributes

	// Structure ------------------------------------------------------------
	Elem          *Type // array / byref element
	Rank          int   // array rank, 1 for vectors
	Base          *Type
	Interfaces    []*Type
	DeclaringType *Type // enclosing type of a nested declaration

	// Generic params and arguments ------------------------------------------
	GenericParams []*GenericParam // declared parameters of a definition
	Definition    *Type           // KindGenericInstance: the open definition
	TypeArgs      []*Type         // KindGenericInstance: arguments by position
	Param         *GenericParam   // KindGenericParam

	// Members --------------------------------------------------------------
	Fields       []*Field
	Constructors []*Method
	Methods      []*Method
	Properties   []*Property
	Events       []*Event
	Nested       []*Type
	Tags         []Tag

	// Baked is set by a host once the type has been materialized.
	Baked bool
}

// NewType returns an empty named declaration of the given kind.
func NewType(kind Kind, module *Module, namespace, name string) *Type {
	return &Type{
		Name:       name,
		Namespace:  namespace,
		Kind:       kind,
		Module:     module,
		Attributes: TypePublic,
	}
}

// NewClass is NewType(KindClass, ...) with Object as base.
func NewClass(module *Module, namespace, name string) *Type {
	t := NewType(KindClass, module, namespace, name)
	t.Base = Object
	return t
}

// NewInterface is NewType(KindInterface, ...).
func NewInterface(module *Module, namespace, name string) *Type {
	t := NewType(KindInterface, module, namespace, name)
	t.Attributes |= TypeAbstract
	return t
}

// ArrayOf returns an array type over elem. Rank below 1 is treated as 1.
func ArrayOf(elem *Type, rank int) *Type {
	if rank < 1 {
		rank = 1
	}
	return &Type{Kind: KindArray, Elem: elem, Rank: rank, Module: elem.Module}
}

// ByRef returns the by-reference form of elem.
func ByRef(elem *Type) *Type {
	return &Type{Kind: KindByRef, Elem: elem, Module: elem.Module}
}

// Instantiate constructs def with the given type arguments.
func Instantiate(def *Type, args ...*Type) (*Type, error) {
	if def == nil {
		return nil, fmt.Errorf("instantiate: nil definition")
	}
	if def.Kind == KindGenericInstance {
		def = def.Definition
	}
	if len(def.GenericParams) == 0 {
		return nil, fmt.Errorf("instantiate %s: not a generic definition", def.FullName())
	}
	if len(def.GenericParams) != len(args) {
		return nil, fmt.Errorf("instantiate %s: want %d type arguments, got %d",
			def.FullName(), len(def.GenericParams), len(args))
	}
	for i, a := range args {
		if a == nil {
			return nil, fmt.Errorf("instantiate %s: nil type argument %d", def.FullName(), i)
		}
	}
	return instance(def, args), nil
}

func instance(def *Type, args []*Type) *Type {
	return &Type{
		Name:       def.Name,
		Namespace:  def.Namespace,
		Kind:       KindGenericInstance,
		Module:     def.Module,
		Definition: def,
		TypeArgs:   append([]*Type(nil), args...),
	}
}

// Underlying returns the generic definition for instances, t otherwise.
func (t *Type) Underlying() *Type {
	if t != nil && t.Kind == KindGenericInstance && t.Definition != nil {
		return t.Definition
	}
	return t
}

func (t *Type) IsVoid() bool             { return t == nil || t.Kind == KindVoid }
func (t *Type) IsPrimitive() bool        { return t != nil && t.Kind == KindPrimitive }
func (t *Type) IsArray() bool            { return t != nil && t.Kind == KindArray }
func (t *Type) IsByRef() bool            { return t != nil && t.Kind == KindByRef }
func (t *Type) IsGenericParameter() bool { return t != nil && t.Kind == KindGenericParam }
func (t *Type) IsGenericInstance() bool  { return t != nil && t.Kind == KindGenericInstance }

// IsGenericDefinition reports whether t declares open generic parameters.
func (t *Type) IsGenericDefinition() bool {
	return t != nil && t.Kind != KindGenericInstance && len(t.GenericParams) > 0
}

// IsInterface reports whether t (or its definition) is interface-shaped.
func (t *Type) IsInterface() bool {
	u := t.Underlying()
	return u != nil && u.Kind == KindInterface
}

// IsClass reports whether t (or its definition) is class-shaped.
func (t *Type) IsClass() bool {
	u := t.Underlying()
	return u != nil && (u.Kind == KindClass || u == String)
}

// IsValueType reports whether values of t are copied rather than referenced.
func (t *Type) IsValueType() bool {
	u := t.Underlying()
	if u == nil {
		return false
	}
	return u.Kind == KindPrimitive || u.Kind == KindStruct
}

// IsSealed reports whether t can not be derived from.
func (t *Type) IsSealed() bool {
	u := t.Underlying()
	return u != nil && (u.Attributes&TypeSealed != 0 || u.IsValueType())
}

// ContainsGenericParameters reports whether any open parameter occurs in t.
func (t *Type) ContainsGenericParameters() bool {
	if t == nil {
		return false
	}
	switch t.Kind {
	case KindGenericParam:
		return true
	case KindArray, KindByRef:
		return t.Elem.ContainsGenericParameters()
	case KindGenericInstance:
		for _, a := range t.TypeArgs {
			if a.ContainsGenericParameters() {
				return true
			}
		}
	}
	return false
}

// FullName returns the namespace-qualified name, including enclosing types.
func (t *Type) FullName() string {
	if t == nil {
		return "<nil>"
	}
	if t.DeclaringType != nil {
		return t.DeclaringType.FullName() + "." + t.Name
	}
	if t.Namespace == "" {
		return t.Name
	}
	return t.Namespace + "." + t.Name
}

func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	switch t.Kind {
	case KindArray:
		return t.Elem.String() + "[" + strings.Repeat(",", t.Rank-1) + "]"
	case KindByRef:
		return t.Elem.String() + "&"
	case KindGenericParam:
		return t.Name
	case KindGenericInstance:
		args := make([]string, len(t.TypeArgs))
		for i, a := range t.TypeArgs {
			args[i] = a.String()
		}
		return t.FullName() + "<" + strings.Join(args, ", ") + ">"
	}
	if len(t.GenericParams) > 0 {
		names := make([]string, len(t.GenericParams))
		for i, p := range t.GenericParams {
			names[i] = p.Name
		}
		return t.FullName() + "<" + strings.Join(names, ", ") + ">"
	}
	return t.FullName()
}

// Identical reports structural identity: named declarations and parameters
// compare by pointer, structural forms compare element-wise.
func Identical(a, b *Type) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil || a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindArray:
		return a.Rank == b.Rank && Identical(a.Elem, b.Elem)
	case KindByRef:
		return Identical(a.Elem, b.Elem)
	case KindGenericInstance:
		if a.Definition != b.Definition || len(a.TypeArgs) != len(b.TypeArgs) {
			return false
		}
		for i := range a.TypeArgs {
			if !Identical(a.TypeArgs[i], b.TypeArgs[i]) {
				return false
			}
		}
		return true
	case KindGenericParam:
		return a.Param == b.Param
	}
	return false
}

// AssignableTo reports whether a value of t can be stored in a slot of
// target: identity, base-chain, or implemented interface.
func (t *Type) AssignableTo(target *Type) bool {
	if Identical(t, target) || target == Object {
		return true
	}
	for cur := t; cur != nil; cur = cur.Underlying().Base {
		if Identical(cur, target) {
			return true
		}
		for _, i := range cur.Underlying().Interfaces {
			if Identical(i, target) || i.AssignableTo(target) {
				return true
			}
		}
	}
	return false
}
