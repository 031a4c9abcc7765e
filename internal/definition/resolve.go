package definition

import (
	"fmt"
	"go/ast"
	"go/parser"
	"sort"
	"sync"

	"github.com/cmmoran/proxytype/pkg/model"
)

// Registry holds named types visible to every definition file, usually the
// templates produced by the loader. It is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	types map[string]*model.Type
}

func NewRegistry() *Registry {
	return &Registry{types: make(map[string]*model.Type)}
}

// Add registers t under its full name, "namespace.Name".
func (r *Registry) Add(types ...*model.Type) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range types {
		r.types[t.FullName()] = t
	}
}

func (r *Registry) Lookup(name string) (*model.Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.types[name]
	return t, ok
}

// Names returns the registered names in order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.types))
	for n := range r.types {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// resolver maps type expressions onto model types. Lookups go through the
// generic parameters in scope, the types declared so far in the file and
// finally the shared registry.
type resolver struct {
	registry *Registry
	local    map[string]*model.Type
	params   map[string]*model.GenericParam
}

func newResolver(reg *Registry) *resolver {
	if reg == nil {
		reg = NewRegistry()
	}
	return &resolver{registry: reg, local: make(map[string]*model.Type)}
}

// with returns a resolver that also sees params.
func (r *resolver) with(params map[string]*model.GenericParam) *resolver {
	return &resolver{registry: r.registry, local: r.local, params: params}
}

func (r *resolver) resolve(expr string) (*model.Type, error) {
	if expr == "" {
		return model.Void, nil
	}
	e, err := parser.ParseExpr(expr)
	if err != nil {
		return nil, fmt.Errorf("type %q: %w", expr, err)
	}
	t, err := r.resolveExpr(e)
	if err != nil {
		return nil, fmt.Errorf("type %q: %w", expr, err)
	}
	return t, nil
}

func (r *resolver) resolveAll(exprs []string) ([]*model.Type, error) {
	out := make([]*model.Type, len(exprs))
	for i, e := range exprs {
		t, err := r.resolve(e)
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}

func (r *resolver) resolveExpr(expr ast.Expr) (*model.Type, error) {
	switch t := expr.(type) {
	case *ast.Ident:
		return r.named(t.Name)

	case *ast.ParenExpr:
		return r.resolveExpr(t.X)

	case *ast.StarExpr:
		elem, err := r.resolveExpr(t.X)
		if err != nil {
			return nil, err
		}
		return model.ByRef(elem), nil

	case *ast.ArrayType:
		elem, err := r.resolveExpr(t.Elt)
		if err != nil {
			return nil, err
		}
		return model.ArrayOf(elem, 1), nil

	case *ast.IndexExpr:
		return r.instantiate(t.X, []ast.Expr{t.Index})

	case *ast.IndexListExpr:
		return r.instantiate(t.X, t.Indices)

	case *ast.SelectorExpr:
		pkg, ok := t.X.(*ast.Ident)
		if !ok {
			return nil, fmt.Errorf("%w: unsupported selector", ErrUnknownType)
		}
		return r.named(pkg.Name + "." + t.Sel.Name)

	case *ast.InterfaceType:
		if t.Methods == nil || len(t.Methods.List) == 0 {
			return model.Object, nil
		}
	}
	return nil, fmt.Errorf("%w: unsupported expression %T", ErrUnknownType, expr)
}

func (r *resolver) instantiate(base ast.Expr, indices []ast.Expr) (*model.Type, error) {
	def, err := r.resolveExpr(base)
	if err != nil {
		return nil, err
	}
	args := make([]*model.Type, len(indices))
	for i, e := range indices {
		if args[i], err = r.resolveExpr(e); err != nil {
			return nil, err
		}
	}
	return model.Instantiate(def, args...)
}

func (r *resolver) named(name string) (*model.Type, error) {
	if p, ok := r.params[name]; ok {
		return p.Type(), nil
	}
	if t, ok := model.Builtin(name); ok {
		return t, nil
	}
	if t, ok := r.local[name]; ok {
		return t, nil
	}
	if t, ok := r.registry.Lookup(name); ok {
		return t, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownType, name)
}

// method finds a template method written as "Type.Method" or
// "pkg.Type.Method".
func (r *resolver) method(ref string) (*model.Method, error) {
	i := lastDot(ref)
	if i < 0 {
		return nil, fmt.Errorf("template %q: want Type.Method", ref)
	}
	t, err := r.resolve(ref[:i])
	if err != nil {
		return nil, err
	}
	name := ref[i+1:]
	if m := t.Method(name); m != nil {
		return m, nil
	}
	for _, iface := range t.Underlying().Interfaces {
		if m := iface.Method(name); m != nil {
			return m, nil
		}
	}
	return nil, fmt.Errorf("%w: method %s on %s", ErrUnknownType, name, t)
}

func lastDot(s string) int {
	depth := 0
	for i := len(s) - 1; i >= 0; i-- {
		switch s[i] {
		case ']':
			depth++
		case '[':
			depth--
		case '.':
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
