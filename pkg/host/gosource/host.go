// Package gosource is a host that renders baked types as Go source. Classes
// become structs with constructor functions, interfaces become Go
// interfaces, and straight-line bodies are translated statement by
// statement.
package gosource

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"

	"github.com/dave/jennifer/jen"

	"github.com/cmmoran/proxytype/pkg/host"
	"github.com/cmmoran/proxytype/pkg/model"
)

// ErrUnsupported is wrapped when a declaration has no Go rendering.
var ErrUnsupported = errors.New("not expressible in Go")

const DefaultHeader = "Code generated by proxytype. DO NOT EDIT."

type Option func(*Host)

func WithLogger(l *slog.Logger) Option { return func(h *Host) { h.log = l } }

// WithHeader replaces the generated-code header comment. An empty header
// omits it.
func WithHeader(comment string) Option { return func(h *Host) { h.header = comment } }

// Host renders each module into its own Go file of package pkg.
type Host struct {
	pkg    string
	header string
	log    *slog.Logger

	mu      sync.Mutex
	modules map[string]*Module
}

func New(pkg string, opts ...Option) *Host {
	h := &Host{
		pkg:     pkg,
		header:  DefaultHeader,
		log:     slog.Default(),
		modules: make(map[string]*Module),
	}
	for _, fn := range opts {
		fn(h)
	}
	return h
}

// DefineModule implements host.Host.
func (h *Host) DefineModule(name string, publicKey []byte) (host.Module, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.modules[name]; ok {
		return nil, fmt.Errorf("define module %q: already defined", name)
	}
	f := jen.NewFile(h.pkg)
	if h.header != "" {
		f.HeaderComment(h.header)
	}
	m := &Module{
		host:  h,
		model: model.NewModule(name, publicKey),
		file:  f,
		names: make(map[string]bool),
	}
	h.modules[name] = m
	return m, nil
}

// Modules returns the defined modules ordered by name.
func (h *Host) Modules() []*Module {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*Module, 0, len(h.modules))
	for _, m := range h.modules {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].model.Name < out[j].model.Name })
	return out
}

// Module implements host.Module over one jennifer file.
type Module struct {
	host  *Host
	model *model.Module

	mu    sync.Mutex
	file  *jen.File
	types []*model.Type
	names map[string]bool
}

func (m *Module) Model() *model.Module { return m.model }

// Types returns the baked types in definition order.
func (m *Module) Types() []*model.Type {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*model.Type(nil), m.types...)
}

// CheckConstraints implements host.Module. Go type parameters take interface
// constraints only; variance is dropped silently since Go has none.
func (m *Module) CheckConstraints(p *model.GenericParam) error {
	if p.Attributes&model.GenericSpecialMask != 0 {
		return fmt.Errorf("%w: %s: special constraints are %v", host.ErrConstraint, p.Name, ErrUnsupported)
	}
	for _, c := range p.Constraints {
		if c == nil || !c.IsInterface() {
			return fmt.Errorf("%w: %s: base type constraint %s is %v", host.ErrConstraint, p.Name, c, ErrUnsupported)
		}
	}
	return nil
}

// DefineType implements host.Module. The type is rendered completely before
// anything is added to the file.
func (m *Module) DefineType(def *host.Definition) (*model.Type, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := def.Type
	name := goName(t)
	if m.names[name] {
		return nil, fmt.Errorf("%w: %w: %s in module %s", host.ErrBuild, host.ErrDuplicateType, name, m.model.Name)
	}
	r := &renderer{mod: m, def: def, t: t, name: name}
	code, err := r.render()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", host.ErrBuild, name, err)
	}
	for _, c := range code {
		m.file.Add(c)
		m.file.Line()
	}
	t.Module = m.model
	t.Baked = true
	m.names[name] = true
	m.types = append(m.types, t)
	m.host.log.With("module", m.model.Name, "type", name, "decls", len(code)).Debug("type rendered")
	return t, nil
}

// Render writes the formatted file.
func (m *Module) Render(w io.Writer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.file.Render(w)
}

// Source returns the formatted file as a string.
func (m *Module) Source() (string, error) {
	var buf bytes.Buffer
	if err := m.Render(&buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
