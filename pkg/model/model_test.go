package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInstantiate(t *testing.T) {
	lib := NewModule("lib", nil)
	list := NewClass(lib, "lib", "List")
	list.DefineGenericParams("T")

	inst, err := Instantiate(list, Int32)
	require.NoError(t, err)
	require.Equal(t, KindGenericInstance, inst.Kind)
	require.Same(t, list, inst.Underlying())
	require.Equal(t, "lib.List<T>", list.String())
	require.Equal(t, "lib.List<core.Int32>", inst.String())

	_, err = Instantiate(list)
	require.Error(t, err)
	_, err = Instantiate(NewClass(lib, "lib", "Plain"), Int32)
	require.Error(t, err)
}

func TestSubstitute(t *testing.T) {
	lib := NewModule("lib", nil)
	repo := NewInterface(lib, "lib", "Repo")
	tp := repo.DefineGenericParams("T")[0]
	get := repo.AddMethod(NewMethod("Get", MethodPublicAbstract, tp.Type(), NewParameter("ids", ArrayOf(tp.Type(), 1))))

	inst, err := Instantiate(repo, String)
	require.NoError(t, err)

	m := inst.Method("Get")
	require.NotNil(t, m)
	require.Same(t, get, m.Declaration())
	require.Same(t, String, m.ReturnType)
	require.True(t, Identical(ArrayOf(String, 1), m.Params[0].Type))

	// untouched types keep their identity
	arr := ArrayOf(Int32, 2)
	require.Same(t, arr, Substitute(arr, []*Type{String}))
}

func TestIdentical(t *testing.T) {
	lib := NewModule("lib", nil)
	cmp := NewInterface(lib, "lib", "Comparable")
	cmp.DefineGenericParams("T")
	a, _ := Instantiate(cmp, Int32)
	b, _ := Instantiate(cmp, Int32)
	c, _ := Instantiate(cmp, Int64)

	require.True(t, Identical(a, b))
	require.False(t, Identical(a, c))
	require.True(t, Identical(ArrayOf(a, 2), ArrayOf(b, 2)))
	require.False(t, Identical(ArrayOf(a, 1), ArrayOf(b, 2)))
}

func TestAssignableTo(t *testing.T) {
	lib := NewModule("lib", nil)
	named := NewInterface(lib, "lib", "Named")
	base := NewClass(lib, "lib", "Base")
	base.Interfaces = []*Type{named}
	derived := NewClass(lib, "lib", "Derived")
	derived.Base = base

	require.True(t, derived.AssignableTo(base))
	require.True(t, derived.AssignableTo(named))
	require.True(t, derived.AssignableTo(Object))
	require.False(t, base.AssignableTo(derived))
}

func TestGenericParamConstraints(t *testing.T) {
	lib := NewModule("lib", nil)
	iface := NewInterface(lib, "lib", "Closer")
	base := NewClass(lib, "lib", "Resource")

	p := NewGenericParam("T", 0, ScopeMethod)
	p.Constraints = []*Type{iface, base}
	p.Attributes = GenericReferenceType | GenericCovariant

	require.Same(t, base, p.BaseConstraint())
	require.Equal(t, []*Type{iface}, p.InterfaceConstraints())
	require.Same(t, p.Type(), p.Type())

	p.ClearConstraints()
	require.Empty(t, p.Constraints)
	require.Equal(t, GenericCovariant, p.Attributes)
}

func TestBuiltin(t *testing.T) {
	for _, p := range Primitives {
		got, ok := Builtin(p.String())
		require.True(t, ok, p.String())
		require.Equal(t, p, got.Primitive)
	}
	_, ok := Builtin("decimal")
	require.False(t, ok)
	require.Same(t, ObjectConstructor, Object.Constructor())
}
