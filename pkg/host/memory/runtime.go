// Package memory is an executing host: baked types live in process memory,
// can be instantiated, and run their recorded bodies on a small stack
// interpreter.
package memory

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/cmmoran/proxytype/pkg/emit"
	"github.com/cmmoran/proxytype/pkg/host"
	"github.com/cmmoran/proxytype/pkg/model"
)

var (
	ErrNotBaked      = errors.New("type not baked by this runtime")
	ErrNoConstructor = errors.New("no matching constructor")
	ErrNoMember      = errors.New("no such member")
	ErrNoBody        = errors.New("method has no implementation")
	ErrAbstract      = errors.New("cannot instantiate abstract type")
)

// Native implements a method in Go. this is nil for static methods.
type Native func(this *Object, args []any) (any, error)

type Option func(*Runtime)

func WithLogger(l *slog.Logger) Option { return func(r *Runtime) { r.log = l } }

// Runtime is the host. It owns every module it defines and the code of every
// type baked into them.
type Runtime struct {
	log *slog.Logger

	mu      sync.RWMutex
	modules map[string]*Module
	owners  map[*model.Type]*Module
	bodies  map[*model.Method]*emit.Body
	natives map[*model.Method]Native
	statics map[*model.Field]any
	inited  map[*model.Type]bool
}

func NewRuntime(opts ...Option) *Runtime {
	r := &Runtime{
		log:     slog.Default(),
		modules: make(map[string]*Module),
		owners:  make(map[*model.Type]*Module),
		bodies:  make(map[*model.Method]*emit.Body),
		natives: make(map[*model.Method]Native),
		statics: make(map[*model.Field]any),
		inited:  make(map[*model.Type]bool),
	}
	for _, fn := range opts {
		fn(r)
	}
	return r
}

// DefineModule implements host.Host. Module names are unique per runtime.
func (r *Runtime) DefineModule(name string, publicKey []byte) (host.Module, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.modules[name]; ok {
		return nil, fmt.Errorf("define module %q: already defined", name)
	}
	m := &Module{
		rt:    r,
		model: model.NewModule(name, publicKey),
		types: make(map[string]*model.Type),
	}
	r.modules[name] = m
	r.log.With("module", name, "signed", m.model.Signed()).Debug("module defined")
	return m, nil
}

// RegisterNative supplies a Go implementation for a method declared outside
// any blueprint, typically on a hand-written template base class.
func (r *Runtime) RegisterNative(m *model.Method, fn Native) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.natives[m.Declaration()] = fn
}

// Owner returns the module that baked t.
func (r *Runtime) Owner(t *model.Type) (*Module, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.owners[t.Underlying()]
	return m, ok
}

func (r *Runtime) implementation(m *model.Method) (*emit.Body, Native) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	decl := m.Declaration()
	return r.bodies[decl], r.natives[decl]
}

func (r *Runtime) static(f *model.Field) any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if v, ok := r.statics[f]; ok {
		return v
	}
	return model.Zero(f.Type)
}

func (r *Runtime) setStatic(f *model.Field, v any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statics[f] = v
}

// Module implements host.Module. DefineType calls are serialized on mu.
type Module struct {
	rt    *Runtime
	model *model.Module

	mu    sync.Mutex
	types map[string]*model.Type
}

func (m *Module) Model() *model.Module { return m.model }

// Types returns the number of types baked into m.
func (m *Module) Types() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.types)
}

// DefineType implements host.Module. Verification runs completely before
// anything is registered.
func (m *Module) DefineType(def *host.Definition) (*model.Type, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := def.Type
	name := t.FullName()
	if _, ok := m.types[name]; ok {
		return nil, fmt.Errorf("%w: %w: %s in module %s", host.ErrBuild, host.ErrDuplicateType, name, m.model.Name)
	}
	if err := m.verify(def); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", host.ErrBuild, name, err)
	}

	t.Module = m.model
	t.Baked = true
	m.types[name] = t

	m.rt.mu.Lock()
	m.rt.owners[t] = m
	for meth, body := range def.Bodies {
		m.rt.bodies[meth] = body
	}
	m.rt.mu.Unlock()

	m.rt.log.With("module", m.model.Name, "type", name, "methods", len(t.Methods)).Debug("type baked")
	return t, nil
}

// initialize runs the type initializers of t and its bases once, base first.
func (r *Runtime) initialize(t *model.Type) error {
	def := t.Underlying()
	if def == nil || def == model.Object {
		return nil
	}
	if err := r.initialize(def.Base); err != nil {
		return err
	}
	r.mu.Lock()
	done := r.inited[def]
	r.inited[def] = true
	r.mu.Unlock()
	if done {
		return nil
	}
	for _, c := range def.Constructors {
		if c.Kind == model.MethodTypeInitializer {
			if _, err := r.invoke(c, nil, nil, false); err != nil {
				return fmt.Errorf("initialize %s: %w", def, err)
			}
		}
	}
	return nil
}
