package definition

import (
	"fmt"
	"strings"

	"github.com/cmmoran/proxytype/pkg/blueprint"
	"github.com/cmmoran/proxytype/pkg/emit"
	"github.com/cmmoran/proxytype/pkg/model"
	"github.com/cmmoran/proxytype/pkg/opcode"
)

var opcodes = func() map[string]opcode.Opcode {
	m := make(map[string]opcode.Opcode)
	for op := opcode.Nop; op <= opcode.Ceq; op++ {
		m[op.String()] = op
	}
	return m
}()

// emitBody declares locals and emits instrs into g. Field and method
// operands are looked up on bp first, then along its base chain; a method
// written "Type.Method" is resolved through r.
func emitBody(g emit.ILGenerator, bp *blueprint.Blueprint, r *resolver, locals []string, instrs []*Instruction) error {
	for _, l := range locals {
		t, err := r.resolve(l)
		if err != nil {
			return fmt.Errorf("local: %w", err)
		}
		g.DeclareLocal(t)
	}
	labels := make(map[string]emit.Label)
	label := func(name string) emit.Label {
		l, ok := labels[name]
		if !ok {
			l = g.DefineLabel()
			labels[name] = l
		}
		return l
	}
	for i, in := range instrs {
		if in.Mark != "" {
			g.MarkLabel(label(in.Mark))
		}
		if in.Op == "" {
			continue
		}
		if err := emitInstruction(g, bp, r, in, label); err != nil {
			return fmt.Errorf("instruction %d (%s): %w", i, in.Op, err)
		}
	}
	return nil
}

func emitInstruction(g emit.ILGenerator, bp *blueprint.Blueprint, r *resolver, in *Instruction, label func(string) emit.Label) error {
	name := strings.ToLower(in.Op)
	switch name {
	case "ldc":
		t, err := r.resolve(in.Type)
		if err != nil {
			return err
		}
		return emit.LoadConstant(g, t, in.Value)
	case "ldind", "stind":
		t, err := r.resolve(in.Type)
		if err != nil {
			return err
		}
		if name == "ldind" {
			emit.LoadIndirect(g, t)
		} else {
			emit.StoreIndirect(g, t)
		}
		return nil
	}

	op, ok := opcodes[name]
	if !ok {
		return fmt.Errorf("%w: unknown opcode %q", ErrInvalid, in.Op)
	}
	switch op {
	case opcode.LdArg, opcode.StArg, opcode.LdLoc, opcode.StLoc:
		if in.Index == nil {
			return fmt.Errorf("%w: index required", ErrInvalid)
		}
		g.EmitOperand(op, *in.Index)

	case opcode.LdFld, opcode.StFld:
		f, err := lookupField(bp, in.Field)
		if err != nil {
			return err
		}
		g.EmitOperand(op, f)

	case opcode.Call, opcode.CallVirt:
		m, err := lookupMethod(bp, r, in.Method)
		if err != nil {
			return err
		}
		g.EmitOperand(op, m)

	case opcode.NewObj:
		t, err := r.resolve(in.Type)
		if err != nil {
			return err
		}
		args, err := r.resolveAll(in.Args)
		if err != nil {
			return err
		}
		ctor := t.Constructor(args...)
		if ctor == nil {
			return fmt.Errorf("%w: constructor %s(%s)", ErrUnknownType, t, strings.Join(in.Args, ", "))
		}
		g.EmitOperand(op, ctor)

	case opcode.LdStr:
		s, ok := in.Value.(string)
		if !ok {
			return fmt.Errorf("%w: ldstr wants a string value", ErrInvalid)
		}
		g.EmitOperand(op, s)

	case opcode.LdcI4, opcode.LdcI8, opcode.LdcR4, opcode.LdcR8:
		v, err := model.ConvertPrimitive(constantPrimitive(op), in.Value)
		if err != nil {
			return err
		}
		g.EmitOperand(op, v)

	case opcode.Br, opcode.BrTrue, opcode.BrFalse:
		if in.Label == "" {
			return fmt.Errorf("%w: label required", ErrInvalid)
		}
		g.EmitOperand(op, label(in.Label))

	default:
		g.Emit(op)
	}
	return nil
}

func constantPrimitive(op opcode.Opcode) model.Primitive {
	switch op {
	case opcode.LdcI8:
		return model.PrimitiveInt64
	case opcode.LdcR4:
		return model.PrimitiveFloat32
	case opcode.LdcR8:
		return model.PrimitiveFloat64
	}
	return model.PrimitiveInt32
}

func lookupField(bp *blueprint.Blueprint, name string) (*model.Field, error) {
	if slot, ok := bp.GetField(name); ok {
		return slot.Field(), nil
	}
	if base := bp.Type().Base; base != nil {
		if f := base.Field(name); f != nil {
			return f, nil
		}
	}
	return nil, fmt.Errorf("%w: field %s", ErrUnknownType, name)
}

func lookupMethod(bp *blueprint.Blueprint, r *resolver, name string) (*model.Method, error) {
	if strings.Contains(name, ".") {
		return r.method(name)
	}
	t := bp.Type()
	for _, m := range t.Methods {
		if m.Name == name {
			return m, nil
		}
	}
	if t.Base != nil {
		if m := t.Base.Method(name); m != nil {
			return m, nil
		}
	}
	for _, i := range t.Interfaces {
		if m := i.Method(name); m != nil {
			return m, nil
		}
	}
	return nil, fmt.Errorf("%w: method %s", ErrUnknownType, name)
}
