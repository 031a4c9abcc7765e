// Package loader turns the named types of Go packages into model templates.
// Interfaces keep their methods and type parameters, constraints included;
// other named types become opaque sealed classes.
package loader

import (
	"context"
	"errors"
	"fmt"
	"go/token"
	"go/types"
	"log/slog"

	"golang.org/x/tools/go/packages"

	"github.com/cmmoran/proxytype/pkg/model"
)

var ErrUnsupported = errors.New("unsupported Go type")

// Options control how packages are loaded.
type Options struct {
	Dir string
	// Keys assigns public keys to modules by package path, marking them
	// signed.
	Keys map[string][]byte
	// DefaultKey signs every package without an entry in Keys.
	DefaultKey []byte
	Log        *slog.Logger
}

type Option func(*Options)

func WithDir(d string) Option                    { return func(o *Options) { o.Dir = d } }
func WithKey(pkgPath string, key []byte) Option { return func(o *Options) { o.Keys[pkgPath] = key } }
func WithDefaultKey(key []byte) Option          { return func(o *Options) { o.DefaultKey = key } }
func WithLogger(l *slog.Logger) Option          { return func(o *Options) { o.Log = l } }

// Loader converts go/types declarations, memoizing every named type.
type Loader struct {
	opts    Options
	modules map[string]*model.Module
	named   map[*types.TypeName]*model.Type
	params  map[*types.TypeParam]*model.GenericParam
}

func New(opts ...Option) *Loader {
	o := Options{Dir: ".", Keys: make(map[string][]byte), Log: slog.Default()}
	for _, fn := range opts {
		fn(&o)
	}
	return &Loader{
		opts:    o,
		modules: make(map[string]*model.Module),
		named:   make(map[*types.TypeName]*model.Type),
		params:  make(map[*types.TypeParam]*model.GenericParam),
	}
}

// Load type-checks patterns and converts every exported named type of the
// matched packages. Types that can not be expressed are skipped with a
// warning.
func (l *Loader) Load(ctx context.Context, patterns ...string) ([]*model.Type, error) {
	pkgs, err := packages.Load(&packages.Config{
		Context: ctx,
		Mode:    packages.NeedName | packages.NeedTypes | packages.NeedTypesInfo,
		Dir:     l.opts.Dir,
		Fset:    token.NewFileSet(),
	}, patterns...)
	if err != nil {
		return nil, fmt.Errorf("load packages: %w", err)
	}
	var errs []error
	packages.Visit(pkgs, nil, func(p *packages.Package) {
		for _, e := range p.Errors {
			errs = append(errs, e)
		}
	})
	if len(errs) > 0 {
		return nil, fmt.Errorf("load packages: %w", errors.Join(errs...))
	}

	var out []*model.Type
	for _, p := range pkgs {
		out = append(out, l.Package(p.Types)...)
	}
	return out, nil
}

// Package converts the exported named types of pkg in scope order.
func (l *Loader) Package(pkg *types.Package) []*model.Type {
	scope := pkg.Scope()
	var out []*model.Type
	for _, name := range scope.Names() {
		tn, ok := scope.Lookup(name).(*types.TypeName)
		if !ok || !tn.Exported() || tn.IsAlias() {
			continue
		}
		t, err := l.typeName(tn)
		if err != nil {
			l.opts.Log.With("package", pkg.Path(), "type", name, "error", err).Warn("template skipped")
			continue
		}
		out = append(out, t)
	}
	return out
}

func (l *Loader) module(pkg *types.Package) *model.Module {
	m, ok := l.modules[pkg.Path()]
	if !ok {
		key, ok := l.opts.Keys[pkg.Path()]
		if !ok {
			key = l.opts.DefaultKey
		}
		m = model.NewModule(pkg.Path(), key)
		m.ImportPath = pkg.Path()
		l.modules[pkg.Path()] = m
	}
	return m
}

func (l *Loader) typeName(tn *types.TypeName) (*model.Type, error) {
	if t, ok := l.named[tn]; ok {
		return t, nil
	}
	named, ok := tn.Type().(*types.Named)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, tn.Type())
	}
	mod := l.module(tn.Pkg())
	ns := tn.Pkg().Name()

	iface, isIface := named.Underlying().(*types.Interface)
	var t *model.Type
	if isIface {
		t = model.NewInterface(mod, ns, tn.Name())
	} else {
		t = model.NewClass(mod, ns, tn.Name())
		t.Attributes |= model.TypeSealed
	}
	l.named[tn] = t

	if err := l.typeParams(t, named.TypeParams()); err != nil {
		delete(l.named, tn)
		return nil, err
	}
	if isIface {
		if err := l.members(t, iface); err != nil {
			delete(l.named, tn)
			return nil, err
		}
	}
	t.Baked = true
	return t, nil
}

func (l *Loader) typeParams(t *model.Type, list *types.TypeParamList) error {
	if list.Len() == 0 {
		return nil
	}
	names := make([]string, list.Len())
	for i := range names {
		names[i] = list.At(i).Obj().Name()
	}
	params := t.DefineGenericParams(names...)
	for i, p := range params {
		l.params[list.At(i)] = p
		// templates are read concurrently once loaded
		p.Type()
	}
	for i, p := range params {
		cons, err := l.constraint(list.At(i).Constraint())
		if err != nil {
			return fmt.Errorf("constraint of %s: %w", p.Name, err)
		}
		p.Constraints = cons
	}
	return nil
}

// constraint maps a Go constraint onto interface constraints. Embedded
// interfaces become individual constraints; comparable is dropped and type
// sets have no counterpart.
func (l *Loader) constraint(c types.Type) ([]*model.Type, error) {
	c = types.Unalias(c)
	if n, ok := c.(*types.Named); ok {
		if n.Obj().Pkg() == nil {
			return nil, nil
		}
		t, err := l.convert(n)
		if err != nil {
			return nil, err
		}
		return []*model.Type{t}, nil
	}
	iface, ok := c.(*types.Interface)
	if !ok || !iface.IsMethodSet() || iface.NumExplicitMethods() > 0 {
		return nil, fmt.Errorf("%w: constraint %s", ErrUnsupported, c)
	}
	var out []*model.Type
	for i := 0; i < iface.NumEmbeddeds(); i++ {
		t, err := l.convert(iface.EmbeddedType(i))
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (l *Loader) members(t *model.Type, iface *types.Interface) error {
	for i := 0; i < iface.NumEmbeddeds(); i++ {
		e, err := l.convert(iface.EmbeddedType(i))
		if err != nil {
			return err
		}
		if !e.IsInterface() {
			return fmt.Errorf("%w: embedded %s", ErrUnsupported, iface.EmbeddedType(i))
		}
		t.Interfaces = append(t.Interfaces, e)
	}
	for i := 0; i < iface.NumExplicitMethods(); i++ {
		fn := iface.ExplicitMethod(i)
		m, err := l.method(fn)
		if err != nil {
			return fmt.Errorf("method %s: %w", fn.Name(), err)
		}
		t.AddMethod(m)
	}
	return nil
}

func (l *Loader) method(fn *types.Func) (*model.Method, error) {
	sig := fn.Type().(*types.Signature)
	if sig.Variadic() {
		return nil, fmt.Errorf("%w: variadic", ErrUnsupported)
	}
	ret := model.Void
	switch sig.Results().Len() {
	case 0:
	case 1:
		r, err := l.convert(sig.Results().At(0).Type())
		if err != nil {
			return nil, err
		}
		ret = r
	default:
		return nil, fmt.Errorf("%w: %d results", ErrUnsupported, sig.Results().Len())
	}
	params := make([]*model.Parameter, sig.Params().Len())
	for i := range params {
		v := sig.Params().At(i)
		pt, err := l.convert(v.Type())
		if err != nil {
			return nil, err
		}
		params[i] = model.NewParameter(v.Name(), pt)
	}
	return model.NewMethod(fn.Name(), model.MethodPublicAbstract, ret, params...), nil
}

// convert maps a Go type onto the model. Pointers become by-reference
// types, slices and arrays become vectors.
func (l *Loader) convert(t types.Type) (*model.Type, error) {
	switch t := t.(type) {
	case *types.Basic:
		return basic(t)
	case *types.Pointer:
		elem, err := l.convert(t.Elem())
		if err != nil {
			return nil, err
		}
		return model.ByRef(elem), nil
	case *types.Slice:
		elem, err := l.convert(t.Elem())
		if err != nil {
			return nil, err
		}
		return model.ArrayOf(elem, 1), nil
	case *types.Array:
		elem, err := l.convert(t.Elem())
		if err != nil {
			return nil, err
		}
		return model.ArrayOf(elem, 1), nil
	case *types.TypeParam:
		p, ok := l.params[t]
		if !ok {
			return nil, fmt.Errorf("%w: unbound type parameter %s", ErrUnsupported, t)
		}
		return p.Type(), nil
	case *types.Interface:
		if t.Empty() {
			return model.Object, nil
		}
	case *types.Alias:
		return l.convert(types.Unalias(t))
	case *types.Named:
		if t.Obj().Pkg() == nil {
			break
		}
		def, err := l.typeName(t.Origin().Obj())
		if err != nil {
			return nil, err
		}
		if t.TypeArgs().Len() == 0 {
			return def, nil
		}
		args := make([]*model.Type, t.TypeArgs().Len())
		for i := range args {
			if args[i], err = l.convert(t.TypeArgs().At(i)); err != nil {
				return nil, err
			}
		}
		return model.Instantiate(def, args...)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, t)
}

func basic(b *types.Basic) (*model.Type, error) {
	switch b.Kind() {
	case types.Bool:
		return model.Bool, nil
	case types.String:
		return model.String, nil
	case types.Int8:
		return model.Int8, nil
	case types.Int16:
		return model.Int16, nil
	case types.Int32:
		return model.Int32, nil
	case types.Int, types.Int64:
		return model.Int64, nil
	case types.Uint8:
		return model.Uint8, nil
	case types.Uint16:
		return model.Uint16, nil
	case types.Uint32:
		return model.Uint32, nil
	case types.Uint, types.Uint64:
		return model.Uint64, nil
	case types.Float32:
		return model.Float32, nil
	case types.Float64:
		return model.Float64, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, b)
}
