package gosource

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dave/jennifer/jen"
	"github.com/jinzhu/inflection"

	"github.com/cmmoran/proxytype/pkg/host"
	"github.com/cmmoran/proxytype/pkg/model"
)

const receiver = "this"

type renderer struct {
	mod  *Module
	def  *host.Definition
	t    *model.Type
	name string
	out  []jen.Code
}

func (r *renderer) render() ([]jen.Code, error) {
	for _, p := range r.t.GenericParams {
		if err := r.mod.CheckConstraints(p); err != nil {
			return nil, err
		}
	}
	var err error
	switch r.t.Kind {
	case model.KindClass:
		err = r.class()
	case model.KindInterface:
		err = r.iface()
	default:
		err = fmt.Errorf("%s kind %s is %w", r.t, r.t.Kind, ErrUnsupported)
	}
	if err != nil {
		return nil, err
	}
	return r.out, nil
}

func (r *renderer) class() error {
	t := r.t
	if t.Base == nil || !t.Base.IsClass() {
		return fmt.Errorf("base %s is not a class", t.Base)
	}
	if t.Base.IsSealed() {
		return fmt.Errorf("base %s is sealed", t.Base)
	}

	members := make(map[string]bool)
	var fields []jen.Code
	if t.Base.Underlying() != model.Object {
		fields = append(fields, goType(t.Base))
		members[goName(t.Base.Underlying())] = true
	}
	for _, f := range t.Fields {
		if f.IsStatic() {
			continue
		}
		if err := claim(members, f.Name); err != nil {
			return err
		}
		fields = append(fields, jen.Id(f.Name).Add(goType(f.Type)))
	}
	for _, e := range t.Events {
		name := handlersField(e)
		if err := claim(members, name); err != nil {
			return err
		}
		fields = append(fields, jen.Id(name).Index().Add(goType(e.HandlerType)))
	}
	r.out = append(r.out, jen.Type().Id(r.name).Add(typeParams(t.GenericParams)).Struct(fields...))

	if err := r.statics(); err != nil {
		return err
	}

	ctorIndex := 0
	for _, c := range t.Constructors {
		var err error
		if c.Kind == model.MethodTypeInitializer {
			err = r.typeInitializer(c)
		} else {
			err = r.constructor(c, ctorIndex)
			ctorIndex++
		}
		if err != nil {
			return err
		}
	}

	for _, m := range t.Methods {
		if m.IsAbstract() {
			return fmt.Errorf("abstract method %s is %w", m.Signature(), ErrUnsupported)
		}
		name := methodName(m)
		if !m.IsStatic() && !m.IsGenericMethod() {
			if err := claim(members, name); err != nil {
				return err
			}
		} else if err := claim(members, r.name+"_"+name); err != nil {
			return err
		}
		if err := r.method(m); err != nil {
			return err
		}
	}
	return nil
}

func (r *renderer) statics() error {
	for _, f := range r.t.Fields {
		if !f.IsStatic() {
			continue
		}
		if len(r.t.GenericParams) > 0 || f.Type.ContainsGenericParameters() {
			return fmt.Errorf("static field %s on a generic type is %w", f.Name, ErrUnsupported)
		}
		r.out = append(r.out, jen.Var().Id(staticName(f)).Add(goType(f.Type)))
	}
	return nil
}

func (r *renderer) constructor(c *model.Method, index int) error {
	stmts, err := r.translate(c)
	if err != nil {
		return fmt.Errorf("constructor %s: %w", c.Signature(), err)
	}
	block := []jen.Code{
		jen.Id(receiver).Op(":=").Op("&").Add(named(r.t, typeArgs(r.t.GenericParams))).Values(),
	}
	block = append(block, stmts...)
	block = append(block, jen.Return(jen.Id(receiver)))
	r.out = append(r.out, jen.Func().Id(ctorName(r.t, index)).
		Add(typeParams(r.t.GenericParams)).
		Params(params(c.Params)...).
		Add(recvType(r.t)).
		Block(block...))
	return nil
}

func (r *renderer) typeInitializer(c *model.Method) error {
	if len(r.t.GenericParams) > 0 {
		return fmt.Errorf("type initializer on a generic type is %w", ErrUnsupported)
	}
	stmts, err := r.translate(c)
	if err != nil {
		return fmt.Errorf("type initializer: %w", err)
	}
	r.out = append(r.out, jen.Func().Id("init").Params().Block(stmts...))
	return nil
}

func (r *renderer) method(m *model.Method) error {
	for _, p := range m.GenericParams {
		if err := r.mod.CheckConstraints(p); err != nil {
			return err
		}
	}
	stmts, err := r.translate(m)
	if err != nil {
		return fmt.Errorf("method %s: %w", m.Signature(), err)
	}
	name := methodName(m)
	ps := params(m.Params)
	var fn *jen.Statement
	switch {
	case m.IsStatic():
		tps := append(append([]*model.GenericParam(nil), r.t.GenericParams...), m.GenericParams...)
		fn = jen.Func().Id(r.name + "_" + name).Add(typeParams(tps))
	case m.IsGenericMethod():
		tps := append(append([]*model.GenericParam(nil), r.t.GenericParams...), m.GenericParams...)
		fn = jen.Func().Id(r.name + "_" + name).Add(typeParams(tps))
		ps = append([]jen.Code{jen.Id(receiver).Add(recvType(r.t))}, ps...)
	default:
		fn = jen.Func().Params(jen.Id(receiver).Add(recvType(r.t))).Id(name)
	}
	r.out = append(r.out, fn.Params(ps...).Add(result(m)).Block(stmts...))
	return nil
}

func (r *renderer) iface() error {
	t := r.t
	var items []jen.Code
	for _, i := range t.Interfaces {
		items = append(items, goType(i))
	}
	members := make(map[string]bool)
	for _, m := range t.Methods {
		if m.IsStatic() {
			return fmt.Errorf("static interface method %s is %w", m.Signature(), ErrUnsupported)
		}
		if m.IsGenericMethod() {
			return fmt.Errorf("generic interface method %s is %w", m.Signature(), ErrUnsupported)
		}
		name := methodName(m)
		if err := claim(members, name); err != nil {
			return err
		}
		items = append(items, jen.Id(name).Params(params(m.Params)...).Add(result(m)))
	}
	r.out = append(r.out, jen.Type().Id(r.name).Add(typeParams(t.GenericParams)).Interface(items...))
	if err := r.statics(); err != nil {
		return err
	}
	for _, c := range t.Constructors {
		if c.Kind != model.MethodTypeInitializer {
			return fmt.Errorf("interface constructor is %w", ErrUnsupported)
		}
		if err := r.typeInitializer(c); err != nil {
			return err
		}
	}
	return nil
}

func claim(seen map[string]bool, name string) error {
	if seen[name] {
		return fmt.Errorf("member %s declared twice", name)
	}
	seen[name] = true
	return nil
}

// goName flattens nesting into an underscore-joined identifier.
func goName(t *model.Type) string {
	t = t.Underlying()
	if t.DeclaringType != nil {
		return goName(t.DeclaringType) + "_" + t.Name
	}
	return t.Name
}

func staticName(f *model.Field) string {
	return goName(f.DeclaringType) + "_" + f.Name
}

func ctorName(t *model.Type, index int) string {
	name := "New" + goName(t)
	if index > 0 {
		name += strconv.Itoa(index)
	}
	return name
}

// methodName maps accessor names onto Go getter and setter conventions.
func methodName(m *model.Method) string {
	if m.Attributes&model.MethodSpecialName != 0 {
		for prefix, repl := range map[string]string{"get_": "", "set_": "Set", "add_": "Add", "remove_": "Remove"} {
			if rest, ok := strings.CutPrefix(m.Name, prefix); ok {
				return repl + rest
			}
		}
	}
	return m.Name
}

func handlersField(e *model.Event) string {
	name := e.Name
	if name != "" {
		name = strings.ToLower(name[:1]) + name[1:]
	}
	return inflection.Plural(name + "Handler")
}

var keywords = map[string]bool{
	"break": true, "case": true, "chan": true, "const": true, "continue": true,
	"default": true, "defer": true, "else": true, "fallthrough": true, "for": true,
	"func": true, "go": true, "goto": true, "if": true, "import": true,
	"interface": true, "map": true, "package": true, "range": true, "return": true,
	"select": true, "struct": true, "switch": true, "type": true, "var": true,
}

func paramName(p *model.Parameter) string {
	switch {
	case p.Name == "" || p.Name == "_":
		return "p" + strconv.Itoa(p.Position)
	case p.Name == receiver || keywords[p.Name]:
		return p.Name + "_"
	}
	return p.Name
}

func params(ps []*model.Parameter) []jen.Code {
	out := make([]jen.Code, len(ps))
	for i, p := range ps {
		out[i] = jen.Id(paramName(p)).Add(goType(p.Type))
	}
	return out
}

func result(m *model.Method) jen.Code {
	if m.ReturnType.IsVoid() {
		return jen.Null()
	}
	return goType(m.ReturnType)
}

func typeParams(ps []*model.GenericParam) jen.Code {
	if len(ps) == 0 {
		return jen.Null()
	}
	out := make([]jen.Code, len(ps))
	for i, p := range ps {
		out[i] = jen.Id(p.Name).Add(constraint(p))
	}
	return jen.Types(out...)
}

func constraint(p *model.GenericParam) jen.Code {
	switch len(p.Constraints) {
	case 0:
		return jen.Id("any")
	case 1:
		return goType(p.Constraints[0])
	}
	embedded := make([]jen.Code, len(p.Constraints))
	for i, c := range p.Constraints {
		embedded[i] = goType(c)
	}
	return jen.Interface(embedded...)
}

func typeArgs(ps []*model.GenericParam) []jen.Code {
	out := make([]jen.Code, len(ps))
	for i, p := range ps {
		out[i] = jen.Id(p.Name)
	}
	return out
}

// named renders the bare type name with optional arguments.
func named(t *model.Type, args []jen.Code) *jen.Statement {
	s := jen.Id(goName(t))
	if t.Module != nil && t.Module.ImportPath != "" {
		s = jen.Qual(t.Module.ImportPath, goName(t))
	}
	if len(args) > 0 {
		s = s.Types(args...)
	}
	return s
}

func recvType(t *model.Type) *jen.Statement {
	return jen.Op("*").Add(named(t, typeArgs(t.GenericParams)))
}

func goTypes(ts []*model.Type) []jen.Code {
	out := make([]jen.Code, len(ts))
	for i, t := range ts {
		out[i] = goType(t)
	}
	return out
}

// goType maps a model type onto its Go spelling. Classes are referenced
// through pointers; Object is any.
func goType(t *model.Type) *jen.Statement {
	switch {
	case t == nil || t.IsVoid():
		return jen.Null()
	case t == model.Object:
		return jen.Id("any")
	case t == model.String:
		return jen.String()
	}
	switch t.Kind {
	case model.KindPrimitive:
		return primitive(t.Primitive)
	case model.KindArray:
		s := jen.Index()
		for i := 1; i < t.Rank; i++ {
			s = s.Index()
		}
		return s.Add(goType(t.Elem))
	case model.KindByRef:
		return jen.Op("*").Add(goType(t.Elem))
	case model.KindGenericParam:
		return jen.Id(t.Name)
	case model.KindGenericInstance:
		s := named(t.Definition, goTypes(t.TypeArgs))
		if t.IsClass() {
			return jen.Op("*").Add(s)
		}
		return s
	case model.KindClass:
		return jen.Op("*").Add(named(t, nil))
	}
	return named(t, nil)
}

func primitive(p model.Primitive) *jen.Statement {
	switch p {
	case model.PrimitiveBool:
		return jen.Bool()
	case model.PrimitiveChar:
		return jen.Rune()
	case model.PrimitiveInt8:
		return jen.Int8()
	case model.PrimitiveInt16:
		return jen.Int16()
	case model.PrimitiveInt32:
		return jen.Int32()
	case model.PrimitiveInt64:
		return jen.Int64()
	case model.PrimitiveUint8:
		return jen.Uint8()
	case model.PrimitiveUint16:
		return jen.Uint16()
	case model.PrimitiveUint32:
		return jen.Uint32()
	case model.PrimitiveUint64:
		return jen.Uint64()
	case model.PrimitiveFloat32:
		return jen.Float32()
	case model.PrimitiveFloat64:
		return jen.Float64()
	}
	return jen.Id("any")
}
