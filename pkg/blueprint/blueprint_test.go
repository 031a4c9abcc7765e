package blueprint

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cmmoran/proxytype/pkg/emit"
	"github.com/cmmoran/proxytype/pkg/host"
	"github.com/cmmoran/proxytype/pkg/host/memory"
	"github.com/cmmoran/proxytype/pkg/model"
	"github.com/cmmoran/proxytype/pkg/opcode"
)

func newHost(t *testing.T) (*memory.Runtime, host.Module) {
	t.Helper()
	rt := memory.NewRuntime()
	m, err := rt.DefineModule(t.Name(), nil)
	require.NoError(t, err)
	return rt, m
}

var lib = model.NewModule("lib", nil)

func newComparable() *model.Type {
	cmp := model.NewInterface(lib, "lib", "IComparable")
	cmp.DefineGenericParams("T")
	return cmp
}

func TestFieldNamesAreCaseInsensitive(t *testing.T) {
	_, m := newHost(t)
	bp := New(m, "Fields", ShapeClass, nil, nil)

	_, err := bp.CreateField("Foo", model.Int32, model.FieldPrivate)
	require.NoError(t, err)
	second, err := bp.CreateField("foo", model.String, model.FieldPrivate)
	require.NoError(t, err)

	got, ok := bp.GetField("FOO")
	require.True(t, ok)
	require.Same(t, second, got)
	require.Len(t, bp.GetAllFields(), 1)

	_, err = bp.CreateField("FOO", model.Int32, model.FieldPrivate|model.FieldStatic)
	require.ErrorIs(t, err, ErrUsage)

	_, ok = bp.GetField("missing")
	require.False(t, ok)

	typ, err := bp.BuildType()
	require.NoError(t, err)
	require.Len(t, typ.Fields, 1)
	require.Equal(t, "foo", typ.Fields[0].Name)
}

func TestInterfaceRestrictions(t *testing.T) {
	_, m := newHost(t)
	bp := New(m, "IShape", ShapeInterface, nil, nil)

	_, err := bp.CreateConstructor(model.Int32)
	require.ErrorIs(t, err, ErrUsage)
	_, err = bp.CreateDefaultConstructor()
	require.ErrorIs(t, err, ErrUsage)
	var ue *UsageError
	require.ErrorAs(t, err, &ue)
	require.Equal(t, "CreateDefaultConstructor", ue.Op)

	_, err = bp.CreateField("x", model.Int32, model.FieldPublic)
	require.ErrorIs(t, err, ErrUsage)
	_, err = bp.CreateStaticField("Count", model.Int32)
	require.NoError(t, err)

	area, err := bp.CreateMethod("Area", model.MethodPublic, model.Float64)
	require.NoError(t, err)
	require.True(t, area.Method().IsAbstract())

	typ, err := bp.BuildType()
	require.NoError(t, err)
	require.Empty(t, typ.Constructors)
}

func TestDefaultConstructor(t *testing.T) {
	rt, m := newHost(t)

	// Scenario A: nothing declared on an Object subclass.
	typ, err := New(m, "Empty", ShapeClass, nil, nil).BuildType()
	require.NoError(t, err)
	require.Len(t, typ.Constructors, 1)
	ctor := typ.Constructors[0]
	require.True(t, ctor.IsPublic())
	require.Empty(t, ctor.Params)

	obj, err := rt.New(typ)
	require.NoError(t, err)
	require.Same(t, typ, obj.Type())
}

func TestConstructorChaining(t *testing.T) {
	rt, m := newHost(t)

	bp := New(m, "Named", ShapeClass, nil, nil)
	name, err := bp.CreateField("name", model.String, model.FieldPrivate)
	require.NoError(t, err)
	ctor, err := bp.CreateConstructor(model.String)
	require.NoError(t, err)
	g := ctor.IL()
	g.EmitOperand(opcode.LdArg, 0)
	g.EmitOperand(opcode.Call, model.ObjectConstructor)
	g.EmitOperand(opcode.LdArg, 0)
	g.EmitOperand(opcode.LdArg, 1)
	g.EmitOperand(opcode.StFld, name.Field())
	g.Emit(opcode.Ret)
	base, err := bp.BuildType()
	require.NoError(t, err)

	// Derived declares the same signature and keeps the default body, which
	// forwards to the matching base constructor.
	derived := New(m, "Derived", ShapeClass, base, nil)
	_, err = derived.CreateConstructor(model.String)
	require.NoError(t, err)
	typ, err := derived.BuildType()
	require.NoError(t, err)

	obj, err := rt.New(typ, "ada")
	require.NoError(t, err)
	v, err := obj.Field("name")
	require.NoError(t, err)
	require.Equal(t, "ada", v)
}

func TestGenericCopyRewritesSiblingReferences(t *testing.T) {
	_, m := newHost(t)
	cmp := newComparable()

	tmplType := model.NewClass(lib, "lib", "Sorter")
	tmpl := tmplType.AddMethod(model.NewMethod("Sort", model.MethodPublicVirtual, nil))
	ps := tmpl.DefineGenericParams("A", "B")
	cmpA, err := model.Instantiate(cmp, ps[0].Type())
	require.NoError(t, err)
	ps[1].SetConstraints(nil, []*model.Type{cmpA})
	ps[1].Attributes = model.GenericReferenceType
	ps[1].Tags = []model.Tag{{Name: "Doc", Args: []any{"b"}}, {Name: "Inherited", Inherited: true}}
	tmpl.Params = []*model.Parameter{{Name: "items", Type: model.ArrayOf(ps[1].Type(), 1), Tags: []model.Tag{{Name: "NotNull"}}}}

	bp := New(m, "Copy", ShapeClass, nil, nil)
	slot, err := bp.CreateMethodFromTemplate("Sort", model.MethodPublicVirtual, tmpl)
	require.NoError(t, err)
	require.Same(t, tmpl, slot.Template())

	got := slot.Method()
	require.Len(t, got.GenericParams, 2)
	a, b := got.GenericParams[0], got.GenericParams[1]
	require.NotSame(t, ps[0], a)
	require.Equal(t, model.GenericReferenceType, b.Attributes)
	require.Len(t, b.Constraints, 1)
	require.Same(t, cmp, b.Constraints[0].Definition)
	require.Same(t, a.Type(), b.Constraints[0].TypeArgs[0])
	require.NotSame(t, ps[0].Type(), b.Constraints[0].TypeArgs[0])
	require.Equal(t, []model.Tag{{Name: "Doc", Args: []any{"b"}}}, b.Tags)

	require.Equal(t, "items", got.Params[0].Name)
	require.Equal(t, []model.Tag{{Name: "NotNull"}}, got.Params[0].Tags)
	require.Same(t, b.Type(), got.Params[0].Type.Elem)

	p, ok := bp.names["B"]
	require.True(t, ok)
	require.Same(t, b, p)
}

func TestGenericCopySelfReference(t *testing.T) {
	_, m := newHost(t)
	cmp := newComparable()

	tmpl := model.NewClass(lib, "lib", "Max").AddMethod(model.NewMethod("Max", model.MethodPublic, nil))
	ps := tmpl.DefineGenericParams("T")
	self, err := model.Instantiate(cmp, ps[0].Type())
	require.NoError(t, err)
	ps[0].SetConstraints(nil, []*model.Type{self})
	tmpl.ReturnType = ps[0].Type()

	bp := New(m, "Self", ShapeClass, nil, nil)
	slot, err := bp.CreateMethodFromTemplate("Max", model.MethodPublic, tmpl)
	require.NoError(t, err)
	np := slot.Method().GenericParams[0]
	require.Same(t, np.Type(), np.Constraints[0].TypeArgs[0])
	require.Same(t, np.Type(), slot.Method().ReturnType)
}

func TestGenericCopyEnclosingArguments(t *testing.T) {
	_, m := newHost(t)
	cmp := newComparable()

	repo := model.NewInterface(lib, "lib", "IRepo")
	key := repo.DefineGenericParams("TKey")[0]
	find := repo.AddMethod(model.NewMethod("Find", model.MethodPublicAbstract, nil))
	out := find.DefineGenericParams("TOut")[0]
	cmpKey, err := model.Instantiate(cmp, key.Type())
	require.NoError(t, err)
	out.SetConstraints(nil, []*model.Type{cmpKey})
	find.ReturnType = out.Type()
	find.Params = []*model.Parameter{{Name: "key", Type: key.Type()}}

	repoInt, err := model.Instantiate(repo, model.Int32)
	require.NoError(t, err)

	bp := New(m, "IntRepo", ShapeClass, nil, []*model.Type{repoInt})
	require.Equal(t, []*model.Type{model.Int32}, bp.GetGenericArgumentsFor(repoInt))

	slot, err := bp.CreateMethodFromTemplate("Find", model.MethodPublicVirtual, repoInt.Method("Find"))
	require.NoError(t, err)
	got := slot.Method()
	c := got.GenericParams[0].Constraints[0]
	require.Same(t, cmp, c.Definition)
	require.Same(t, model.Int32, c.TypeArgs[0])
	require.Same(t, model.Int32, got.Params[0].Type)
	require.Same(t, got.GenericParams[0].Type(), got.ReturnType)
	require.Equal(t, []*model.Type{got.GenericParams[0].Type()}, bp.GetGenericArgumentsForMethod(find))

	_, err = bp.BuildType()
	require.NoError(t, err)
}

func TestGenericCopyDegradation(t *testing.T) {
	newTemplate := func() *model.Method {
		tmpl := model.NewClass(lib, "lib", "Bad").AddMethod(model.NewMethod("Use", model.MethodPublic, nil))
		ps := tmpl.DefineGenericParams("T", "U")
		ps[0].SetConstraints(model.String, nil)
		ps[0].Attributes = model.GenericDefaultConstructor | model.GenericCovariant
		self, err := model.Instantiate(newComparable(), ps[1].Type())
		require.NoError(t, err)
		ps[1].SetConstraints(nil, []*model.Type{self})
		return tmpl
	}

	t.Run("best effort", func(t *testing.T) {
		_, m := newHost(t)
		var buf bytes.Buffer
		bp := New(m, "Lenient", ShapeClass, nil, nil, WithLogger(slog.New(slog.NewJSONHandler(&buf, nil))))
		slot, err := bp.CreateMethodFromTemplate("Use", model.MethodPublic, newTemplate())
		require.NoError(t, err)

		tp, up := slot.Method().GenericParams[0], slot.Method().GenericParams[1]
		require.Empty(t, tp.Constraints)
		require.Equal(t, model.GenericCovariant, tp.Attributes)
		require.Len(t, up.Constraints, 1)
		require.Contains(t, buf.String(), "generic parameter constraints dropped")
		require.Contains(t, buf.String(), `"param":"T"`)
	})

	t.Run("strict", func(t *testing.T) {
		_, m := newHost(t)
		bp := New(m, "Strict", ShapeClass, nil, nil, WithStrictConstraints())
		_, err := bp.CreateMethodFromTemplate("Use", model.MethodPublic, newTemplate())
		var ce *ConstraintError
		require.ErrorAs(t, err, &ce)
		require.Equal(t, "T", ce.Param)
		require.ErrorIs(t, err, host.ErrConstraint)
		require.Empty(t, bp.Type().Methods)
	})
}

func TestProject(t *testing.T) {
	orig := model.NewGenericParam("T", 0, model.ScopeMethod)
	mapped := model.NewGenericParam("T", 0, model.ScopeMethod)
	other := model.NewGenericParam("V", 0, model.ScopeMethod)
	names := map[string]*model.GenericParam{"T": mapped}

	for _, rank := range []int{1, 2} {
		got := Project(model.ArrayOf(orig.Type(), rank), names)
		require.Equal(t, model.KindArray, got.Kind)
		require.Equal(t, rank, got.Rank)
		require.Same(t, mapped.Type(), got.Elem)
	}

	unmapped := model.ArrayOf(other.Type(), 1)
	require.Same(t, unmapped, Project(unmapped, names))
	require.Same(t, model.Int32, Project(model.Int32, names))
	require.Same(t, mapped.Type(), Project(orig.Type(), names))

	jagged := Project(model.ArrayOf(model.ArrayOf(orig.Type(), 1), 1), names)
	require.Same(t, mapped.Type(), jagged.Elem.Elem)

	ref := Project(model.ByRef(orig.Type()), names)
	require.Same(t, mapped.Type(), ref.Elem)

	list, err := model.Instantiate(newComparable(), orig.Type())
	require.NoError(t, err)
	got := Project(list, names)
	require.Same(t, list.Definition, got.Definition)
	require.Same(t, mapped.Type(), got.TypeArgs[0])
}

func TestPropertyRoundTrip(t *testing.T) {
	rt, m := newHost(t)

	// Scenario B: accessors copied from a template property.
	person := model.NewClass(lib, "lib", "Person")
	tp := person.AddProperty(&model.Property{
		Name:   "Name",
		Type:   model.String,
		Getter: model.NewMethod("get_Name", model.MethodAccessor, model.String),
		Setter: model.NewMethod("set_Name", model.MethodAccessor, nil, model.NewParameter("value", model.String)),
	})

	bp := New(m, "PersonProxy", ShapeClass, nil, nil)
	prop, err := bp.CreateProperty("Name", model.PropertyNone, model.String)
	require.NoError(t, err)
	_, err = prop.CreateGetMethodFromTemplate(model.MethodPublic, tp.Getter)
	require.NoError(t, err)
	_, err = prop.CreateSetMethodFromTemplate(model.MethodPublic, tp.Setter)
	require.NoError(t, err)

	_, err = prop.CreateGetMethod(model.MethodPublic)
	require.ErrorIs(t, err, ErrUsage)
	_, err = prop.CreateSetMethodFromTemplate(model.MethodPublic, tp.Setter)
	require.ErrorIs(t, err, ErrUsage)

	backing, err := bp.CreateField("name", model.String, model.FieldPrivate)
	require.NoError(t, err)
	require.NoError(t, prop.BackedBy(backing))

	typ, err := bp.BuildType()
	require.NoError(t, err)

	obj, err := rt.New(typ)
	require.NoError(t, err)
	require.NoError(t, obj.Set("Name", "grace"))
	v, err := obj.Get("Name")
	require.NoError(t, err)
	require.Equal(t, "grace", v)
}

func TestEchoSharesParameter(t *testing.T) {
	rt, m := newHost(t)

	// Scenario C: T Echo<T>(T x)
	echo := model.NewClass(lib, "lib", "Echoer").AddMethod(model.NewMethod("Echo", model.MethodPublicVirtual, nil))
	tp := echo.DefineGenericParams("T")[0]
	echo.Params = []*model.Parameter{{Name: "x", Type: tp.Type()}}
	echo.ReturnType = tp.Type()

	bp := New(m, "EchoProxy", ShapeClass, nil, nil)
	slot, err := bp.CreateMethodFromTemplate("Echo", model.MethodPublicVirtual, echo)
	require.NoError(t, err)
	got := slot.Method()
	require.Same(t, got.Params[0].Type, got.ReturnType)
	require.Same(t, got.GenericParams[0], got.ReturnType.Param)
	require.NotSame(t, tp, got.ReturnType.Param)

	g := slot.IL()
	g.EmitOperand(opcode.LdArg, 1)
	g.Emit(opcode.Ret)
	typ, err := bp.BuildType()
	require.NoError(t, err)

	obj, err := rt.New(typ)
	require.NoError(t, err)
	v, err := obj.Call("Echo", "ping")
	require.NoError(t, err)
	require.Equal(t, "ping", v)
}

func TestBuildOnce(t *testing.T) {
	_, m := newHost(t)
	bp := New(m, "Once", ShapeClass, nil, nil)
	_, err := bp.BuildType()
	require.NoError(t, err)
	require.True(t, bp.Built())

	_, err = bp.BuildType()
	require.ErrorIs(t, err, ErrUsage)
	_, err = bp.CreateMethod("Late", model.MethodPublic, nil)
	require.ErrorIs(t, err, ErrUsage)
	_, err = bp.CreateField("late", model.Int32, model.FieldPrivate)
	require.ErrorIs(t, err, ErrUsage)
}

func TestNested(t *testing.T) {
	rt, m := newHost(t)
	parent := New(m, "Outer", ShapeClass, nil, nil, WithNamespace("proxies"))
	child, err := parent.CreateNested("Inner", ShapeClass, nil, nil)
	require.NoError(t, err)
	_, err = child.CreateMethod("Ping", model.MethodPublic, model.Int32)
	require.NoError(t, err)
	require.Equal(t, []*Blueprint{child}, parent.Nested())

	outer, err := parent.BuildType()
	require.NoError(t, err)
	require.True(t, child.Built())
	inner := child.Type()
	require.True(t, inner.Baked)
	require.Equal(t, "proxies.Outer.Inner", inner.FullName())
	require.Same(t, outer, inner.DeclaringType)
	require.Equal(t, []*model.Type{inner}, outer.Nested)

	obj, err := rt.New(inner)
	require.NoError(t, err)
	v, err := obj.Call("Ping")
	require.NoError(t, err)
	require.Equal(t, int32(0), v)
}

func TestNestedFailureKeepsParent(t *testing.T) {
	rt, m := newHost(t)
	parent := New(m, "Outer", ShapeClass, nil, nil)
	child, err := parent.CreateNested("Inner", ShapeClass, nil, nil)
	require.NoError(t, err)
	_, err = child.CreateMethod("Run", model.MethodPublicAbstract, nil)
	require.NoError(t, err)

	_, err = parent.BuildType()
	require.ErrorIs(t, err, host.ErrBuild)
	require.ErrorContains(t, err, "build nested Inner")

	require.True(t, parent.Built())
	require.True(t, parent.Type().Baked)
	require.False(t, child.Type().Baked)
	_, err = rt.New(parent.Type())
	require.NoError(t, err)
}

func TestDebuggerShim(t *testing.T) {
	build := func(t *testing.T, attached bool) error {
		_, m := newHost(t)
		tmpl := model.NewClass(lib, "lib", "Tmpl").AddMethod(model.NewMethod("Use", model.MethodPublic, nil))
		p := tmpl.DefineGenericParams("T")[0]
		self, err := model.Instantiate(newComparable(), p.Type())
		require.NoError(t, err)
		p.SetConstraints(nil, []*model.Type{self})

		bp := New(m, "Broken", ShapeClass, nil, nil, WithDebuggerProbe(func() bool { return attached }))
		_, err = bp.CreateMethodFromTemplate("Use", model.MethodPublic, tmpl)
		require.NoError(t, err)
		// abstract member on a concrete class fails verification
		_, err = bp.CreateMethod("Run", model.MethodPublicAbstract, nil)
		require.NoError(t, err)
		_, err = bp.BuildType()
		return err
	}

	err := build(t, true)
	require.ErrorIs(t, err, host.ErrBuild)
	var be *BuildError
	require.ErrorAs(t, err, &be)
	require.Equal(t, debuggerMessage, be.Msg)
	require.Contains(t, err.Error(), "debugger")

	err = build(t, false)
	require.ErrorIs(t, err, host.ErrBuild)
	require.ErrorAs(t, err, &be)
	require.Empty(t, be.Msg)
	require.Contains(t, err.Error(), "abstract method")
}

func TestEventsAndTypeInitializer(t *testing.T) {
	rt, m := newHost(t)
	bp := New(m, "Clock", ShapeClass, nil, nil)

	ticked, err := bp.CreateEvent("Ticked", model.MethodPublic, model.Object)
	require.NoError(t, err)
	_, err = ticked.CreateAddMethod(model.MethodPublic)
	require.NoError(t, err)
	_, err = ticked.CreateAddMethod(model.MethodPublic)
	require.ErrorIs(t, err, ErrUsage)

	start, err := bp.CreateStaticField("start", model.Int64)
	require.NoError(t, err)
	cctor, err := bp.CreateTypeConstructor()
	require.NoError(t, err)
	_, err = bp.CreateTypeConstructor()
	require.ErrorIs(t, err, ErrUsage)
	g := cctor.IL()
	require.NoError(t, emit.LoadConstant(g, model.Int64, 1700))
	g.EmitOperand(opcode.StFld, start.Field())
	g.Emit(opcode.Ret)

	typ, err := bp.BuildType()
	require.NoError(t, err)
	ev := typ.Event("Ticked")
	require.NotNil(t, ev.Add)
	require.NotNil(t, ev.Remove)

	obj, err := rt.New(typ)
	require.NoError(t, err)
	require.NoError(t, obj.Subscribe("Ticked", "handler"))
	require.NoError(t, obj.Unsubscribe("Ticked", "handler"))
	v, err := obj.Field("start")
	require.NoError(t, err)
	require.Equal(t, int64(1700), v)
}

func TestInterfaceImplementation(t *testing.T) {
	rt, m := newHost(t)
	ib := New(m, "IGreeter", ShapeInterface, nil, nil)
	greet, err := ib.CreateMethod("Greet", model.MethodPublic, model.String, model.String)
	require.NoError(t, err)
	iface, err := ib.BuildType()
	require.NoError(t, err)

	cb := New(m, "Greeter", ShapeClass, nil, []*model.Type{iface})
	impl, err := cb.CreateMethodFromTemplate("Greet", model.MethodPublicVirtual, greet.Method())
	require.NoError(t, err)
	g := impl.IL()
	g.EmitOperand(opcode.LdArg, 1)
	g.Emit(opcode.Ret)
	typ, err := cb.BuildType()
	require.NoError(t, err)
	require.True(t, typ.AssignableTo(iface))

	obj, err := rt.New(typ)
	require.NoError(t, err)
	v, err := rt.Invoke(greet.Method(), obj, "hi")
	require.NoError(t, err)
	require.Equal(t, "hi", v)

	// an unimplemented interface is a build failure
	_, err = New(m, "Lazy", ShapeClass, nil, []*model.Type{iface}).BuildType()
	require.ErrorIs(t, err, host.ErrBuild)
}

func TestGenericBlueprint(t *testing.T) {
	rt, m := newHost(t)
	bp := New(m, "Box", ShapeClass, nil, nil)
	params, err := bp.SetGenericTypeParameters("T")
	require.NoError(t, err)
	_, err = bp.SetGenericTypeParameters("U")
	require.ErrorIs(t, err, ErrUsage)

	tp, ok := bp.GetGenericArgument("T")
	require.True(t, ok)
	require.Same(t, params[0], tp)
	_, ok = bp.GetGenericArgument("U")
	require.False(t, ok)

	// external open parameters with a known name map onto the local one
	foreign := model.NewInterface(lib, "lib", "IList")
	foreign.DefineGenericParams("T")
	require.Equal(t, []*model.Type{tp.Type()}, bp.GetGenericArgumentsFor(foreign))

	value, err := bp.CreateField("value", tp.Type(), model.FieldPrivate)
	require.NoError(t, err)
	prop, err := bp.CreateProperty("Value", model.PropertyNone, tp.Type())
	require.NoError(t, err)
	_, err = prop.CreateGetMethod(model.MethodPublic)
	require.NoError(t, err)
	_, err = prop.CreateSetMethod(model.MethodPublic)
	require.NoError(t, err)
	require.NoError(t, prop.BackedBy(value))

	def, err := bp.BuildType()
	require.NoError(t, err)
	boxInt, err := model.Instantiate(def, model.Int32)
	require.NoError(t, err)

	obj, err := rt.New(boxInt)
	require.NoError(t, err)
	require.NoError(t, obj.Set("Value", int32(5)))
	v, err := obj.Get("Value")
	require.NoError(t, err)
	require.Equal(t, int32(5), v)
}

func TestCopyGenericParametersFrom(t *testing.T) {
	_, m := newHost(t)
	cmp := newComparable()
	tmpl := model.NewInterface(lib, "lib", "ISorted")
	ps := tmpl.DefineGenericParams("K", "V")
	cmpK, err := model.Instantiate(cmp, ps[0].Type())
	require.NoError(t, err)
	ps[1].SetConstraints(nil, []*model.Type{cmpK})
	ps[0].Attributes = model.GenericContravariant

	bp := New(m, "Sorted", ShapeClass, nil, nil)
	fresh, err := bp.CopyGenericParametersFrom(tmpl)
	require.NoError(t, err)
	require.Len(t, fresh, 2)
	require.Equal(t, model.ScopeType, fresh[0].Scope)
	require.Equal(t, model.GenericContravariant, fresh[0].Attributes)
	require.Same(t, fresh[0].Type(), fresh[1].Constraints[0].TypeArgs[0])

	k, ok := bp.GetGenericArgument("K")
	require.True(t, ok)
	require.Same(t, fresh[0], k)

	_, err = bp.CopyGenericParametersFrom(tmpl)
	require.True(t, errors.Is(err, ErrUsage))
}

func TestLowerConstraintCycle(t *testing.T) {
	cmp := newComparable()
	loop := &model.Type{Kind: model.KindGenericInstance, Name: cmp.Name, Definition: cmp}
	loop.TypeArgs = []*model.Type{loop}
	_, err := LowerConstraint(loop)
	require.Error(t, err)

	p := model.NewGenericParam("T", 0, model.ScopeMethod)
	inst, err := model.Instantiate(cmp, p.Type())
	require.NoError(t, err)
	e, err := LowerConstraint(inst)
	require.NoError(t, err)
	require.Equal(t, "lib.IComparable<!method0>", e.String())
}

func newBox() *model.Type {
	box := model.NewInterface(lib, "lib", "IBox")
	tp := box.DefineGenericParams("T")[0]

	box.AddMethod(model.NewMethod("Get", model.MethodPublicAbstract, tp.Type()))

	conv := box.AddMethod(model.NewMethod("Conv", model.MethodPublicAbstract, nil))
	conv.ReturnType = conv.DefineGenericParams("T")[0].Type()

	for _, n := range []string{"MapA", "MapB"} {
		m := box.AddMethod(model.NewMethod(n, model.MethodPublicAbstract, nil))
		m.ReturnType = m.DefineGenericParams("U")[0].Type()
	}

	pair := box.AddMethod(model.NewMethod("Pair", model.MethodPublicAbstract, nil))
	pair.ReturnType = pair.DefineGenericParams("U")[0].Type()
	pair.Params = []*model.Parameter{{Name: "first", Type: tp.Type()}}
	return box
}

func TestGenericNamesAreScopedPerMember(t *testing.T) {
	type want struct {
		method string
		arg    int // -1 is the return type
		owner  string
	}
	tests := []struct {
		name    string
		methods []string
		want    []want
	}{
		{
			name:    "method parameter shadows type parameter",
			methods: []string{"Conv", "Get"},
			want: []want{
				{method: "Conv", arg: -1, owner: "Conv"},
				{method: "Get", arg: -1},
			},
		},
		{
			name:    "type parameter declared first",
			methods: []string{"Get", "Conv"},
			want: []want{
				{method: "Get", arg: -1},
				{method: "Conv", arg: -1, owner: "Conv"},
			},
		},
		{
			name:    "sibling methods reuse a name",
			methods: []string{"MapA", "MapB", "Get"},
			want: []want{
				{method: "MapA", arg: -1, owner: "MapA"},
				{method: "MapB", arg: -1, owner: "MapB"},
				{method: "Get", arg: -1},
			},
		},
		{
			name:    "type and method parameters in one signature",
			methods: []string{"Conv", "Pair", "Get"},
			want: []want{
				{method: "Pair", arg: 0},
				{method: "Pair", arg: -1, owner: "Pair"},
				{method: "Get", arg: -1},
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, m := newHost(t)
			box := newBox()
			bp := New(m, "Box", ShapeClass, nil, nil)
			fresh, err := bp.CopyGenericParametersFrom(box)
			require.NoError(t, err)

			slots := make(map[string]*MethodSlot)
			for _, name := range tc.methods {
				slots[name], err = bp.CreateMethodFromTemplate(name, model.MethodPublicVirtual, box.Method(name))
				require.NoError(t, err)
			}

			for _, w := range tc.want {
				got := slots[w.method].Method()
				typ := got.ReturnType
				if w.arg >= 0 {
					typ = got.Params[w.arg].Type
				}
				require.Equal(t, model.KindGenericParam, typ.Kind)
				if w.owner == "" {
					require.Same(t, fresh[0].Type(), typ, "%s resolves the type parameter", w.method)
					continue
				}
				own := slots[w.owner].Method()
				require.Same(t, own.GenericParams[0].Type(), typ, "%s resolves its own parameter", w.method)
			}

			k, ok := bp.GetGenericArgument("T")
			require.True(t, ok)
			require.Same(t, fresh[0], k)

			_, err = bp.BuildType()
			require.NoError(t, err)
		})
	}
}

func TestMethodSlotResolvesOwnNames(t *testing.T) {
	_, m := newHost(t)
	box := newBox()
	bp := New(m, "Box", ShapeClass, nil, nil)
	fresh, err := bp.CopyGenericParametersFrom(box)
	require.NoError(t, err)

	conv, err := bp.CreateMethodFromTemplate("Conv", model.MethodPublicVirtual, box.Method("Conv"))
	require.NoError(t, err)
	get, err := bp.CreateMethodFromTemplate("Get", model.MethodPublicVirtual, box.Method("Get"))
	require.NoError(t, err)

	own := conv.Method().GenericParams[0]
	p, ok := conv.GenericArgument("T")
	require.True(t, ok)
	require.Same(t, own, p)
	p, ok = get.GenericArgument("T")
	require.True(t, ok)
	require.Same(t, fresh[0], p)

	require.Same(t, own.Type(), conv.Project(box.Method("Conv").ReturnType))
	require.Same(t, fresh[0].Type(), get.Project(box.Method("Get").ReturnType))
	require.Equal(t, []*model.Type{own.Type()}, bp.GetGenericArgumentsForMethod(box.Method("Conv")))
}
