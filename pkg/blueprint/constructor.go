package blueprint

import (
	"fmt"

	"github.com/cmmoran/proxytype/pkg/emit"
	"github.com/cmmoran/proxytype/pkg/model"
	"github.com/cmmoran/proxytype/pkg/opcode"
)

// ConstructorSlot is a declared instance constructor or type initializer.
type ConstructorSlot struct {
	code
	method *model.Method
}

func (s *ConstructorSlot) Method() *model.Method { return s.method }

// CreateConstructor declares a public constructor taking args. Interfaces
// have no constructors.
func (b *Blueprint) CreateConstructor(args ...*model.Type) (*ConstructorSlot, error) {
	return b.createConstructor("CreateConstructor", model.MethodPublic, args)
}

// CreateDefaultConstructor declares a public parameterless constructor.
func (b *Blueprint) CreateDefaultConstructor() (*ConstructorSlot, error) {
	return b.createConstructor("CreateDefaultConstructor", model.MethodPublic, nil)
}

func (b *Blueprint) createConstructor(op string, attrs model.MethodAttributes, args []*model.Type) (*ConstructorSlot, error) {
	if op != "BuildType" {
		if err := b.checkOpen(op); err != nil {
			return nil, err
		}
	}
	if b.shape == ShapeInterface {
		return nil, b.usage(op, "interface can not declare constructors")
	}
	ctor := b.typ.AddMethod(model.NewConstructor(attrs, argParams(args)...))
	slot := &ConstructorSlot{method: ctor}
	b.ctors = append(b.ctors, slot)
	return slot, nil
}

// CreateTypeConstructor declares the static initializer. It runs before the
// first instance is created.
func (b *Blueprint) CreateTypeConstructor() (*ConstructorSlot, error) {
	const op = "CreateTypeConstructor"
	if err := b.checkOpen(op); err != nil {
		return nil, err
	}
	if b.typeInit != nil {
		return nil, b.usage(op, "type initializer already declared")
	}
	m := model.NewMethod(model.TypeInitializerName, model.MethodPrivate|model.MethodStatic|model.MethodSpecialName, nil)
	m.Kind = model.MethodTypeInitializer
	b.typeInit = &ConstructorSlot{method: b.typ.AddMethod(m)}
	return b.typeInit, nil
}

// finish returns the recorded body or the default one: a base constructor
// call for instance constructors, a bare return for the type initializer.
func (s *ConstructorSlot) finish(b *Blueprint) (*emit.Body, error) {
	if s.HasBody() {
		return s.builder.Body(), nil
	}
	g := emit.NewBuilder()
	if !s.method.IsConstructor() {
		g.Emit(opcode.Nop)
		g.Emit(opcode.Ret)
		return g.Body(), nil
	}
	base := b.typ.Base
	baseCtor := base.Constructor(s.method.ParamTypes()...)
	if baseCtor == nil {
		baseCtor = base.Constructor()
	}
	if baseCtor == nil {
		return nil, fmt.Errorf("base %s has no constructor matching %s or a parameterless one", base, s.method.Signature())
	}
	emit.BaseConstructorCall(g, s.method, baseCtor)
	return g.Body(), nil
}
