package memory

import (
	"errors"
	"fmt"

	"github.com/cmmoran/proxytype/pkg/emit"
	"github.com/cmmoran/proxytype/pkg/model"
	"github.com/cmmoran/proxytype/pkg/opcode"
)

var (
	ErrNullReference = errors.New("null reference")
	ErrStack         = errors.New("evaluation stack imbalance")
	ErrStepLimit     = errors.New("step limit exceeded")
)

// maxSteps bounds a single body execution; emitted bodies may branch
// backwards.
const maxSteps = 1 << 20

// Ref is the cell behind a by-ref argument.
type Ref struct {
	V any
}

func NewRef(v any) *Ref { return &Ref{V: v} }

type frame struct {
	rt     *Runtime
	method *model.Method
	body   *emit.Body
	args   []any
	locals []any
	stack  []any
}

func (f *frame) push(v any) { f.stack = append(f.stack, v) }

func (f *frame) pop() (any, error) {
	if len(f.stack) == 0 {
		return nil, fmt.Errorf("%w: pop on empty stack", ErrStack)
	}
	v := f.stack[len(f.stack)-1]
	f.stack = f.stack[:len(f.stack)-1]
	return v, nil
}

func (f *frame) popN(n int) ([]any, error) {
	if len(f.stack) < n {
		return nil, fmt.Errorf("%w: want %d values, have %d", ErrStack, n, len(f.stack))
	}
	out := append([]any(nil), f.stack[len(f.stack)-n:]...)
	f.stack = f.stack[:len(f.stack)-n]
	return out, nil
}

func (f *frame) popObject() (*Object, error) {
	v, err := f.pop()
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, ErrNullReference
	}
	o, ok := v.(*Object)
	if !ok {
		return nil, fmt.Errorf("%T is not an object", v)
	}
	return o, nil
}

// invoke runs m, virtually dispatched on this when m is virtual.
func (r *Runtime) invoke(m *model.Method, this *Object, args []any, virtual bool) (any, error) {
	if virtual && this != nil && m.IsVirtual() {
		if impl := findImplementation(this.typ, m); impl != nil {
			m = impl
		}
	}
	body, native := r.implementation(m)
	switch {
	case native != nil:
		return native(this, args)
	case body != nil:
	case m.Declaration() == model.ObjectConstructor:
		return nil, nil
	case m.IsAbstract():
		return nil, fmt.Errorf("%w: %s", ErrAbstract, m.Signature())
	default:
		return nil, fmt.Errorf("%w: %s", ErrNoBody, m.Signature())
	}

	f := &frame{rt: r, method: m, body: body, locals: make([]any, len(body.Locals))}
	for i, l := range body.Locals {
		f.locals[i] = model.Zero(l.Type)
	}
	if !m.IsStatic() {
		f.args = append(f.args, this)
	}
	f.args = append(f.args, args...)
	v, err := f.run()
	if err != nil {
		return nil, fmt.Errorf("%s.%s: %w", m.DeclaringType, m.Signature(), err)
	}
	return v, nil
}

func (f *frame) run() (any, error) {
	pc := 0
	for steps := 0; ; steps++ {
		if steps >= maxSteps {
			return nil, ErrStepLimit
		}
		if pc >= len(f.body.Instructions) {
			return nil, fmt.Errorf("fell off the end at %d", pc)
		}
		in := f.body.Instructions[pc]
		pc++

		switch in.Op {
		case opcode.Nop:
		case opcode.Ret:
			if f.method.ReturnType.IsVoid() {
				return nil, nil
			}
			return f.pop()
		case opcode.Pop:
			if _, err := f.pop(); err != nil {
				return nil, err
			}
		case opcode.Dup:
			v, err := f.pop()
			if err != nil {
				return nil, err
			}
			f.push(v)
			f.push(v)
		case opcode.LdNull:
			f.push(nil)

		case opcode.LdArg:
			i := in.Operand.(int)
			if i < 0 || i >= len(f.args) {
				return nil, fmt.Errorf("ldarg %d out of range", i)
			}
			f.push(f.args[i])
		case opcode.StArg:
			i := in.Operand.(int)
			if i < 0 || i >= len(f.args) {
				return nil, fmt.Errorf("starg %d out of range", i)
			}
			v, err := f.pop()
			if err != nil {
				return nil, err
			}
			f.args[i] = v
		case opcode.LdLoc:
			f.push(f.locals[in.Operand.(int)])
		case opcode.StLoc:
			v, err := f.pop()
			if err != nil {
				return nil, err
			}
			f.locals[in.Operand.(int)] = v

		case opcode.LdFld:
			fld := in.Operand.(*model.Field)
			if fld.IsStatic() {
				f.push(f.rt.static(fld))
				break
			}
			o, err := f.popObject()
			if err != nil {
				return nil, err
			}
			f.push(o.fields[fld])
		case opcode.StFld:
			fld := in.Operand.(*model.Field)
			v, err := f.pop()
			if err != nil {
				return nil, err
			}
			if fld.IsStatic() {
				f.rt.setStatic(fld, v)
				break
			}
			o, err := f.popObject()
			if err != nil {
				return nil, err
			}
			o.fields[fld] = v

		case opcode.LdcI4, opcode.LdcI8, opcode.LdcR4, opcode.LdcR8, opcode.LdStr:
			f.push(in.Operand)

		case opcode.LdindI1, opcode.LdindI2, opcode.LdindI4, opcode.LdindI8,
			opcode.LdindU1, opcode.LdindU2, opcode.LdindU4,
			opcode.LdindR4, opcode.LdindR8, opcode.LdindRef:
			v, err := f.pop()
			if err != nil {
				return nil, err
			}
			ref, ok := v.(*Ref)
			if !ok {
				return nil, fmt.Errorf("%s on %T", in.Op, v)
			}
			f.push(ref.V)
		case opcode.StindI1, opcode.StindI2, opcode.StindI4, opcode.StindI8,
			opcode.StindR4, opcode.StindR8, opcode.StindRef:
			vals, err := f.popN(2)
			if err != nil {
				return nil, err
			}
			ref, ok := vals[0].(*Ref)
			if !ok {
				return nil, fmt.Errorf("%s on %T", in.Op, vals[0])
			}
			ref.V = vals[1]

		case opcode.Call, opcode.CallVirt:
			m := in.Operand.(*model.Method)
			args, err := f.popN(len(m.Params))
			if err != nil {
				return nil, err
			}
			var this *Object
			if !m.IsStatic() {
				if this, err = f.popObject(); err != nil {
					return nil, err
				}
			}
			v, err := f.rt.invoke(m, this, args, in.Op == opcode.CallVirt)
			if err != nil {
				return nil, err
			}
			if !m.ReturnType.IsVoid() {
				f.push(v)
			}
		case opcode.NewObj:
			ctor := in.Operand.(*model.Method)
			args, err := f.popN(len(ctor.Params))
			if err != nil {
				return nil, err
			}
			o, err := f.rt.construct(ctor, args)
			if err != nil {
				return nil, err
			}
			f.push(o)

		case opcode.Br:
			pc = f.target(in)
		case opcode.BrTrue, opcode.BrFalse:
			v, err := f.pop()
			if err != nil {
				return nil, err
			}
			if truthy(v) == (in.Op == opcode.BrTrue) {
				pc = f.target(in)
			}
		case opcode.Ceq:
			vals, err := f.popN(2)
			if err != nil {
				return nil, err
			}
			f.push(vals[0] == vals[1])

		default:
			return nil, fmt.Errorf("unsupported instruction %s", in.Op)
		}
	}
}

// target resolves a branch; Validate has already checked the label is marked.
func (f *frame) target(in emit.Instruction) int {
	idx, _ := f.body.Target(in.Operand.(emit.Label))
	return idx
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return true
	case float32:
		return x != 0
	case float64:
		return x != 0
	}
	if n, err := model.ConvertPrimitive(model.PrimitiveInt64, v); err == nil {
		return n.(int64) != 0
	}
	if n, ok := v.(uint64); ok {
		return n != 0
	}
	return true
}
