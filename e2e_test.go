package main

import (
	"context"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cmmoran/proxytype/pkg/action/emit"
)

const libPath = "github.com/cmmoran/proxytype/testdata/templates/lib"

func TestEmit(ttt *testing.T) {
	type args struct {
		opts []emit.Option
	}
	tests := []struct {
		name  string
		args  args
		files map[string][]string
	}{
		{
			name: "templates unsigned",
			args: args{
				opts: []emit.Option{},
			},
			files: map[string][]string{
				"proxytype_signed.go": {
					`"` + libPath + `"`,
					"type MemoryRepo[T lib.Entity] struct {\n\tlast           T\n\tcount          int32\n\tstoredHandlers []lib.Entity\n}",
					"func (this *MemoryRepo[T]) Get(id string) T {\n\treturn this.last\n}",
					"func (this *MemoryRepo[T]) Put(item T) {\n\tthis.last = item\n}",
					"func (this *MemoryRepo[T]) Count() int32 {\n\treturn this.count\n}",
					"func (this *MemoryRepo[T]) AddStored(handler lib.Entity) {",
				},
				"proxytype_unsigned.go": {
					"type User struct {\n\tid   string\n\tname string\n}",
					"func NewUser(arg0 string, arg1 string) *User {",
					"func (this *User) ID() string {\n\treturn this.id\n}",
				},
			},
		},
		{
			name: "templates signed",
			args: args{
				opts: []emit.Option{emit.WithSignTemplates(), emit.WithModulePrefix("store")},
			},
			files: map[string][]string{
				"store_signed.go": {
					"type MemoryRepo[T lib.Entity] struct {",
					"type User struct {",
				},
			},
		},
	}
	for _, tt := range tests {
		ttt.Run(tt.name, func(t *testing.T) {
			out := t.TempDir()
			opts := append([]emit.Option{
				emit.WithDefinitions("testdata/definitions/*.yaml"),
				emit.WithTemplates("./testdata/templates/lib"),
				emit.WithOutDir(out),
				emit.WithPackage("store"),
			}, tt.args.opts...)

			res, err := emit.Generate(context.Background(), emit.NewOptions(opts...))
			require.NoError(t, err)
			require.Equal(t, []string{"store.MemoryRepo", "store.User"}, res.Types)
			require.Len(t, res.Files, len(tt.files))

			for name, wants := range tt.files {
				src, err := os.ReadFile(filepath.Join(out, name))
				require.NoError(t, err)
				_, err = parser.ParseFile(token.NewFileSet(), name, src, parser.AllErrors)
				require.NoError(t, err, string(src))
				for _, want := range wants {
					require.Contains(t, string(src), want)
				}
			}
		})
	}
}

func TestEmitStrictConstraints(t *testing.T) {
	_, err := emit.Generate(context.Background(), emit.NewOptions(
		emit.WithDefinitions("testdata/definitions/repo.yaml"),
		emit.WithTemplates("./testdata/templates/lib"),
		emit.WithOutDir(t.TempDir()),
		emit.WithPackage("store"),
		emit.WithStrictConstraints(),
	))
	require.NoError(t, err)
}
