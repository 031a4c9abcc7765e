package definition

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cmmoran/proxytype/pkg/blueprint"
	"github.com/cmmoran/proxytype/pkg/host/memory"
	"github.com/cmmoran/proxytype/pkg/model"
)

const greeterDoc = `
namespace: proxies
types:
  - name: IGreeter
    shape: interface
    methods:
      - name: Greet
        returns: string
        args: [string]
  - name: Greeter
    interfaces: [IGreeter]
    fields:
      - name: greeting
        type: string
      - name: Created
        type: int32
        static: true
    initializer:
      - {op: ldc, type: int32, value: 7}
      - {op: stfld, field: Created}
      - {op: ret}
    constructors:
      - args: [string]
        body:
          - {op: ldarg, index: 0}
          - {op: ldarg, index: 1}
          - {op: stfld, field: greeting}
          - {op: ret}
    properties:
      - name: Greeting
        type: string
        backing: greeting
    methods:
      - name: Greet
        returns: string
        args: [string]
        virtual: true
        body:
          - {op: ldarg, index: 0}
          - {op: ldfld, field: greeting}
          - {op: ret}
      - name: Twice
        returns: string
        body:
          - {op: ldarg, index: 0}
          - {op: ldstr, value: world}
          - {op: callvirt, method: Greet}
          - {op: ret}
    nested:
      - name: Token
        fields:
          - name: id
            type: int64
`

func newScope(t *testing.T) (*memory.Runtime, *blueprint.Scope) {
	t.Helper()
	rt := memory.NewRuntime()
	return rt, blueprint.NewScope(rt, nil, blueprint.WithModulePrefix(t.Name()))
}

func TestApplyAndRun(t *testing.T) {
	f, err := Parse([]byte(greeterDoc))
	require.NoError(t, err)

	rt, scope := newScope(t)
	types, err := Apply(nil, scope, f, nil)
	require.NoError(t, err)
	require.Len(t, types, 3)
	require.Equal(t, "proxies.Greeter.Token", types[2].FullName())

	greeter := types[1]
	o, err := rt.New(greeter, "hello")
	require.NoError(t, err)

	got, err := o.Call("Greet", "anyone")
	require.NoError(t, err)
	require.Equal(t, "hello", got)

	got, err = o.Call("Twice")
	require.NoError(t, err)
	require.Equal(t, "hello", got)

	require.NoError(t, o.Set("Greeting", "hi"))
	got, err = o.Get("Greeting")
	require.NoError(t, err)
	require.Equal(t, "hi", got)

	created, err := o.Field("Created")
	require.NoError(t, err)
	require.Equal(t, int32(7), created)
}

func TestApplyLogsThroughGivenLogger(t *testing.T) {
	f, err := Parse([]byte(greeterDoc))
	require.NoError(t, err)
	f.Path = "greeter.yaml"

	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})).With("out", "gen")
	_, scope := newScope(t)
	_, err = Apply(log, scope, f, nil)
	require.NoError(t, err)

	out := buf.String()
	require.Contains(t, out, `"msg":"definition applied"`)
	require.Contains(t, out, `"out":"gen"`)
	require.Contains(t, out, `"definition":"greeter.yaml"`)
	require.Contains(t, out, `"type":"proxies.Greeter"`)
}

func TestApplyTemplates(t *testing.T) {
	lib := model.NewModule("lib", nil)
	entity := model.NewInterface(lib, "lib", "Entity")
	repo := model.NewInterface(lib, "lib", "Repo")
	tp := repo.DefineGenericParams("T")[0]
	tp.Constraints = []*model.Type{entity}
	get := repo.AddMethod(model.NewMethod("Get", model.MethodPublicAbstract, tp.Type(),
		model.NewParameter("id", model.String)))
	require.NotNil(t, get)

	reg := NewRegistry()
	reg.Add(entity, repo)
	require.Equal(t, []string{"lib.Entity", "lib.Repo"}, reg.Names())

	f, err := Parse([]byte(`
types:
  - name: MemoryRepo
    from: lib.Repo
    interfaces: []
    fields:
      - name: last
        type: T
    methods:
      - name: Get
        template: lib.Repo.Get
        locals: [T]
        body:
          - {op: ldarg, index: 0}
          - {op: ldfld, field: last}
          - {op: ret}
`))
	require.NoError(t, err)

	_, scope := newScope(t)
	types, err := Apply(nil, scope, f, reg)
	require.NoError(t, err)
	require.Len(t, types, 1)

	mr := types[0]
	require.Len(t, mr.GenericParams, 1)
	p := mr.GenericParams[0]
	require.Equal(t, []*model.Type{entity}, p.Constraints)
	m := mr.Method("Get")
	require.NotNil(t, m)
	require.Same(t, p.Type(), m.ReturnType)
	require.Equal(t, "id", m.Params[0].Name)
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{name: "no types", doc: "namespace: x\n", want: "Types: required"},
		{name: "bad shape", doc: "types:\n  - name: A\n    shape: struct\n", want: "Types[0].Shape: must be one of: class interface"},
		{name: "bad name", doc: "types:\n  - name: 1A\n", want: "Types[0].Name: must be an identifier"},
		{name: "template and args", doc: "types:\n  - name: A\n    methods:\n      - name: M\n        template: x.Y.M\n        args: [int32]\n", want: "Types[0].Methods[0].Template: can not be combined with Args Returns"},
		{name: "unknown key", doc: "types:\n  - name: A\n    colour: red\n", want: "field colour not found"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.doc))
			require.ErrorIs(t, err, ErrInvalid)
			require.ErrorContains(t, err, tc.want)
		})
	}
}

func TestApplyUnknownType(t *testing.T) {
	f, err := Parse([]byte("types:\n  - name: A\n    fields:\n      - name: x\n        type: lib.Missing\n"))
	require.NoError(t, err)
	_, scope := newScope(t)
	_, err = Apply(nil, scope, f, nil)
	require.ErrorIs(t, err, ErrUnknownType)
	require.ErrorContains(t, err, "lib.Missing")
}

func TestResolve(t *testing.T) {
	lib := model.NewModule("lib", nil)
	box := model.NewClass(lib, "lib", "Box")
	box.DefineGenericParams("T")
	reg := NewRegistry()
	reg.Add(box)
	r := newResolver(reg)

	tests := []struct {
		expr string
		want string
	}{
		{"int32", "Int32"},
		{"any", "Object"},
		{"[]string", "String[]"},
		{"[][]int64", "Int64[][]"},
		{"*float64", "Float64&"},
		{"lib.Box[int32]", "lib.Box<Int32>"},
		{"lib.Box[[]lib.Box[bool]]", "lib.Box<lib.Box<Bool>[]>"},
	}
	for _, tc := range tests {
		t.Run(tc.expr, func(t *testing.T) {
			got, err := r.resolve(tc.expr)
			require.NoError(t, err)
			require.Equal(t, tc.want, trimCore(got.String()))
		})
	}

	_, err := r.resolve("map[string]int")
	require.ErrorIs(t, err, ErrUnknownType)
	_, err = r.resolve("lib.Box[int32, bool]")
	require.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "greeter.yaml")
	require.NoError(t, os.WriteFile(path, []byte(greeterDoc), 0o644))
	f, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, path, f.Path)
	require.Len(t, f.Types, 2)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func trimCore(s string) string {
	out := []rune{}
	for i := 0; i < len(s); i++ {
		if len(s)-i >= 5 && s[i:i+5] == "core." {
			i += 4
			continue
		}
		out = append(out, rune(s[i]))
	}
	return string(out)
}
