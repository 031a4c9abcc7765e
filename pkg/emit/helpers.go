package emit

import (
	"fmt"

	"github.com/cmmoran/proxytype/pkg/model"
	"github.com/cmmoran/proxytype/pkg/opcode"
)

// LoadConstant pushes v typed as t. Primitive categories go through the
// constant table; strings and nil use their dedicated instructions.
func LoadConstant(g ILGenerator, t *model.Type, v any) error {
	op := opcode.LoadConstantFor(t)
	if op == opcode.Empty {
		switch {
		case v == nil:
			g.Emit(opcode.LdNull)
			return nil
		case t == model.String:
			s, ok := v.(string)
			if !ok {
				return fmt.Errorf("load constant: %T is not a string", v)
			}
			g.EmitOperand(opcode.LdStr, s)
			return nil
		}
		return fmt.Errorf("load constant: no literal form for %s", t)
	}
	cv, err := model.ConvertPrimitive(t.Primitive, v)
	if err != nil {
		return fmt.Errorf("load constant: %w", err)
	}
	g.EmitOperand(op, cv)
	return nil
}

// LoadIndirect dereferences the reference on top of the stack as a t.
func LoadIndirect(g ILGenerator, t *model.Type) {
	op := opcode.LoadIndirectFor(t)
	if op == opcode.Empty {
		op = opcode.LdindRef
	}
	g.Emit(op)
}

// StoreIndirect stores the value on top of the stack through the reference
// below it.
func StoreIndirect(g ILGenerator, t *model.Type) {
	op := opcode.StoreIndirectFor(t)
	if op == opcode.Empty {
		op = opcode.StindRef
	}
	g.Emit(op)
}

// DefaultReturn emits the minimal body of m: a no-op followed by a return of
// the zero value of its result type.
func DefaultReturn(g ILGenerator, m *model.Method) {
	g.Emit(opcode.Nop)
	if !m.ReturnType.IsVoid() {
		l := g.DeclareLocal(m.ReturnType)
		g.EmitOperand(opcode.LdLoc, l.Index)
	}
	g.Emit(opcode.Ret)
}

// BaseConstructorCall emits a constructor body that forwards its leading
// arguments to base and returns. base may be nil for roots without a
// constructor.
func BaseConstructorCall(g ILGenerator, ctor, base *model.Method) {
	if base != nil {
		g.EmitOperand(opcode.LdArg, 0)
		for i := range base.Params {
			g.EmitOperand(opcode.LdArg, i+1)
		}
		g.EmitOperand(opcode.Call, base)
	} else {
		g.Emit(opcode.Nop)
	}
	g.Emit(opcode.Ret)
}

// FieldGetter emits `return this.f`.
func FieldGetter(g ILGenerator, f *model.Field) {
	if f.IsStatic() {
		g.EmitOperand(opcode.LdFld, f)
	} else {
		g.EmitOperand(opcode.LdArg, 0)
		g.EmitOperand(opcode.LdFld, f)
	}
	g.Emit(opcode.Ret)
}

// FieldSetter emits `this.f = arg1; return`.
func FieldSetter(g ILGenerator, f *model.Field) {
	if f.IsStatic() {
		g.EmitOperand(opcode.LdArg, 0)
		g.EmitOperand(opcode.StFld, f)
	} else {
		g.EmitOperand(opcode.LdArg, 0)
		g.EmitOperand(opcode.LdArg, 1)
		g.EmitOperand(opcode.StFld, f)
	}
	g.Emit(opcode.Ret)
}
