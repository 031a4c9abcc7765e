package gosource

import (
	"errors"
	"fmt"

	"github.com/dave/jennifer/jen"

	"github.com/cmmoran/proxytype/pkg/emit"
	"github.com/cmmoran/proxytype/pkg/model"
	"github.com/cmmoran/proxytype/pkg/opcode"
)

var errStack = errors.New("evaluation stack imbalance")

// translator turns a straight-line body into Go statements by evaluating it
// over a stack of expressions.
type translator struct {
	m     *model.Method
	body  *emit.Body
	stack []jen.Code
	stmts []jen.Code
	temps int
}

func (r *renderer) translate(m *model.Method) ([]jen.Code, error) {
	body := r.def.Bodies[m]
	if body == nil {
		return nil, errors.New("missing body")
	}
	if err := body.Validate(); err != nil {
		return nil, err
	}
	if body.HasBranches() {
		return nil, fmt.Errorf("branching body is %w", ErrUnsupported)
	}
	if e, add := r.eventAccessor(m); e != nil && trivial(body) {
		return handlerList(e, m, add), nil
	}

	tr := &translator{m: m, body: body}
	for _, l := range body.Locals {
		tr.stmts = append(tr.stmts, jen.Var().Id(local(l.Index)).Add(goType(l.Type)))
	}
	for i, in := range body.Instructions {
		if err := tr.step(in, i == len(body.Instructions)-1); err != nil {
			return nil, fmt.Errorf("%s at %d: %w", in.Op, i, err)
		}
	}
	if len(tr.stack) != 0 {
		return nil, fmt.Errorf("%w: %d values left", errStack, len(tr.stack))
	}
	return tr.stmts, nil
}

func (r *renderer) eventAccessor(m *model.Method) (*model.Event, bool) {
	for _, e := range r.t.Events {
		switch m {
		case e.Add:
			return e, true
		case e.Remove:
			return e, false
		}
	}
	return nil, false
}

// trivial reports a body of no-ops and a bare return.
func trivial(b *emit.Body) bool {
	for i, in := range b.Instructions {
		if in.Op == opcode.Ret && i == len(b.Instructions)-1 {
			return true
		}
		if in.Op != opcode.Nop {
			return false
		}
	}
	return false
}

// handlerList renders default event accessors over the handler slice field.
func handlerList(e *model.Event, m *model.Method, add bool) []jen.Code {
	field := jen.Id(receiver).Dot(handlersField(e))
	h := jen.Id(paramName(m.Params[0]))
	if add {
		return []jen.Code{field.Clone().Op("=").Append(field.Clone(), h)}
	}
	return []jen.Code{
		field.Clone().Op("=").Qual("slices", "DeleteFunc").Call(
			field.Clone(),
			jen.Func().Params(jen.Id("h").Add(goType(e.HandlerType))).Bool().Block(
				jen.Return(jen.Id("any").Call(jen.Id("h")).Op("==").Id("any").Call(h)),
			),
		),
	}
}

func local(i int) string { return fmt.Sprintf("l%d", i) }

func (tr *translator) push(c jen.Code) { tr.stack = append(tr.stack, c) }

func (tr *translator) pop() (jen.Code, error) {
	if len(tr.stack) == 0 {
		return nil, errStack
	}
	c := tr.stack[len(tr.stack)-1]
	tr.stack = tr.stack[:len(tr.stack)-1]
	return c, nil
}

func (tr *translator) popN(n int) ([]jen.Code, error) {
	if len(tr.stack) < n {
		return nil, errStack
	}
	out := append([]jen.Code(nil), tr.stack[len(tr.stack)-n:]...)
	tr.stack = tr.stack[:len(tr.stack)-n]
	return out, nil
}

func (tr *translator) emit(c jen.Code) { tr.stmts = append(tr.stmts, c) }

func (tr *translator) arg(i int) (*jen.Statement, error) {
	if !tr.m.IsStatic() && tr.m.Kind != model.MethodTypeInitializer {
		if i == 0 {
			return jen.Id(receiver), nil
		}
		i--
	}
	if i < 0 || i >= len(tr.m.Params) {
		return nil, fmt.Errorf("argument %d out of range", i)
	}
	return jen.Id(paramName(tr.m.Params[i])), nil
}

func (tr *translator) step(in emit.Instruction, last bool) error {
	switch in.Op {
	case opcode.Nop:
	case opcode.LdNull:
		tr.push(jen.Nil())
	case opcode.LdStr:
		tr.push(jen.Lit(in.Operand))
	case opcode.LdcI4, opcode.LdcI8, opcode.LdcR4, opcode.LdcR8:
		tr.push(jen.Lit(in.Operand))
	case opcode.LdArg:
		a, err := tr.arg(in.Operand.(int))
		if err != nil {
			return err
		}
		tr.push(a)
	case opcode.StArg:
		a, err := tr.arg(in.Operand.(int))
		if err != nil {
			return err
		}
		v, err := tr.pop()
		if err != nil {
			return err
		}
		tr.emit(a.Op("=").Add(v))
	case opcode.LdLoc:
		tr.push(jen.Id(local(in.Operand.(int))))
	case opcode.StLoc:
		v, err := tr.pop()
		if err != nil {
			return err
		}
		tr.emit(jen.Id(local(in.Operand.(int))).Op("=").Add(v))
	case opcode.LdFld:
		f := in.Operand.(*model.Field)
		if f.IsStatic() {
			tr.push(jen.Id(staticName(f)))
			break
		}
		obj, err := tr.pop()
		if err != nil {
			return err
		}
		tr.push(jen.Add(obj).Dot(f.Name))
	case opcode.StFld:
		f := in.Operand.(*model.Field)
		v, err := tr.pop()
		if err != nil {
			return err
		}
		if f.IsStatic() {
			tr.emit(jen.Id(staticName(f)).Op("=").Add(v))
			break
		}
		obj, err := tr.pop()
		if err != nil {
			return err
		}
		tr.emit(jen.Add(obj).Dot(f.Name).Op("=").Add(v))
	case opcode.LdindI1, opcode.LdindI2, opcode.LdindI4, opcode.LdindI8,
		opcode.LdindU1, opcode.LdindU2, opcode.LdindU4,
		opcode.LdindR4, opcode.LdindR8, opcode.LdindRef:
		ref, err := tr.pop()
		if err != nil {
			return err
		}
		tr.push(jen.Parens(jen.Op("*").Add(ref)))
	case opcode.StindI1, opcode.StindI2, opcode.StindI4, opcode.StindI8,
		opcode.StindR4, opcode.StindR8, opcode.StindRef:
		v, err := tr.pop()
		if err != nil {
			return err
		}
		ref, err := tr.pop()
		if err != nil {
			return err
		}
		tr.emit(jen.Op("*").Add(ref).Op("=").Add(v))
	case opcode.Pop:
		v, err := tr.pop()
		if err != nil {
			return err
		}
		tr.emit(jen.Id("_").Op("=").Add(v))
	case opcode.Dup:
		v, err := tr.pop()
		if err != nil {
			return err
		}
		name := fmt.Sprintf("t%d", tr.temps)
		tr.temps++
		tr.emit(jen.Id(name).Op(":=").Add(v))
		tr.push(jen.Id(name))
		tr.push(jen.Id(name))
	case opcode.Ceq:
		ops, err := tr.popN(2)
		if err != nil {
			return err
		}
		tr.push(jen.Parens(jen.Add(ops[0]).Op("==").Add(ops[1])))
	case opcode.Call, opcode.CallVirt:
		return tr.call(in.Operand.(*model.Method))
	case opcode.NewObj:
		ctor := in.Operand.(*model.Method)
		args, err := tr.popN(len(ctor.Params))
		if err != nil {
			return err
		}
		tr.push(ctorRef(ctor).Call(args...))
	case opcode.Ret:
		return tr.ret(last)
	default:
		return fmt.Errorf("opcode is %w", ErrUnsupported)
	}
	return nil
}

func (tr *translator) ret(last bool) error {
	switch {
	case tr.m.Kind != model.MethodOrdinary:
		// constructors return the receiver after the block
	case !tr.m.ReturnType.IsVoid():
		v, err := tr.pop()
		if err != nil {
			return err
		}
		tr.emit(jen.Return(v))
	case !last:
		tr.emit(jen.Return())
	}
	return nil
}

func (tr *translator) call(callee *model.Method) error {
	args, err := tr.popN(len(callee.Params))
	if err != nil {
		return err
	}
	var recv jen.Code
	if !callee.IsStatic() {
		if recv, err = tr.pop(); err != nil {
			return err
		}
	}

	decl := callee.DeclaringType
	if callee.IsConstructor() {
		if decl.Underlying() == model.Object {
			return nil
		}
		tr.emit(jen.Add(recv).Dot(goName(decl)).Op("=").Add(ctorRef(callee).Call(args...)))
		return nil
	}

	name := methodName(callee)
	var expr *jen.Statement
	switch {
	case callee.IsStatic():
		expr = jen.Id(goName(decl) + "_" + name).Call(args...)
	case callee.IsGenericMethod() || callee.Declaration().IsGenericMethod():
		expr = jen.Id(goName(decl) + "_" + name).Call(append([]jen.Code{recv}, args...)...)
	default:
		expr = jen.Add(recv).Dot(name).Call(args...)
	}
	if callee.ReturnType.IsVoid() {
		tr.emit(expr)
	} else {
		tr.push(expr)
	}
	return nil
}

// ctorRef names the constructor function for ctor, instantiated when its
// declaring type is a constructed generic.
func ctorRef(ctor *model.Method) *jen.Statement {
	decl := ctor.DeclaringType
	def := decl.Underlying()
	index := 0
	for _, c := range def.Constructors {
		if c.Kind != model.MethodConstructor {
			continue
		}
		if c == ctor.Declaration() {
			break
		}
		index++
	}
	s := jen.Id(ctorName(def, index))
	if decl.IsGenericInstance() {
		s = s.Types(goTypes(decl.TypeArgs)...)
	}
	return s
}
