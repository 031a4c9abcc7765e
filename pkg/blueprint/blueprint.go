// Package blueprint assembles new types member by member and bakes them into
// a host module.
//
// A Blueprint is driven by exactly one goroutine from creation to BuildType
// and is discarded afterwards. Templated members copy their generic
// parameters and constraints from an existing declaration and project their
// parameter and return types onto the copies.
package blueprint

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/cmmoran/proxytype/pkg/emit"
	"github.com/cmmoran/proxytype/pkg/host"
	"github.com/cmmoran/proxytype/pkg/model"
)

// Blueprint is a type under construction.
type Blueprint struct {
	module host.Module
	logger *slog.Logger
	log    *slog.Logger
	strict bool
	probe  func() bool

	typ   *model.Type
	shape Shape

	fields     map[string]*FieldSlot
	fieldOrder []string
	ctors      []*ConstructorSlot
	typeInit   *ConstructorSlot
	methods    []*MethodSlot
	properties []*PropertySlot
	events     []*EventSlot

	// names resolves generic parameter names to the parameters synthesized
	// on this blueprint, both type-level and copied from templates.
	names map[string]*model.GenericParam

	nested []*Blueprint
	built  bool
}

// New opens a blueprint for a type named name in module. A nil base on a
// class shape means model.Object; interface shapes ignore base.
func New(module host.Module, name string, shape Shape, base *model.Type, ifaces []*model.Type, opts ...Option) *Blueprint {
	var t *model.Type
	if shape == ShapeInterface {
		t = model.NewInterface(module.Model(), "", name)
	} else {
		t = model.NewClass(module.Model(), "", name)
		if base != nil {
			t.Base = base
		}
	}
	t.Interfaces = append(t.Interfaces, ifaces...)

	b := &Blueprint{
		module: module,
		logger: slog.Default(),
		typ:    t,
		shape:  shape,
		fields: make(map[string]*FieldSlot),
		names:  make(map[string]*model.GenericParam),
	}
	for _, fn := range opts {
		fn(b)
	}
	b.log = b.logger.With("type", t.FullName(), "module", module.Model().Name)
	return b
}

// Type returns the declaration being assembled. It is baked once BuildType
// succeeds.
func (b *Blueprint) Type() *model.Type { return b.typ }

func (b *Blueprint) Shape() Shape { return b.shape }

// Built reports whether BuildType has been called.
func (b *Blueprint) Built() bool { return b.built }

// Nested returns the child blueprints in creation order.
func (b *Blueprint) Nested() []*Blueprint { return b.nested }

// AddTag attaches custom metadata to the type.
func (b *Blueprint) AddTag(tag model.Tag) {
	b.typ.Tags = append(b.typ.Tags, tag)
}

func (b *Blueprint) checkOpen(op string) error {
	if b.built {
		return b.usage(op, "blueprint already built")
	}
	return nil
}

func (b *Blueprint) declaredCtors() int {
	n := 0
	for _, c := range b.ctors {
		if c.method.IsConstructor() {
			n++
		}
	}
	return n
}

// BuildType bakes the blueprint and then its nested blueprints. A class
// without constructors gets a public parameterless one; members without a
// body get a minimal default. BuildType can be called once. A nested
// blueprint that fails to build does not undo the parent, which is already
// in the module.
func (b *Blueprint) BuildType() (*model.Type, error) {
	if err := b.checkOpen("BuildType"); err != nil {
		return nil, err
	}
	b.built = true

	if b.shape == ShapeClass && b.declaredCtors() == 0 {
		if _, err := b.createConstructor("BuildType", model.MethodPublic, nil); err != nil {
			return nil, err
		}
	}

	t := b.typ
	t.Fields = t.Fields[:0]
	for _, key := range b.fieldOrder {
		t.Fields = append(t.Fields, b.fields[key].field)
	}

	for _, e := range b.events {
		e.complete()
	}

	bodies := make(map[*model.Method]*emit.Body)
	for _, c := range append(b.ctors, b.typeInitSlots()...) {
		body, err := c.finish(b)
		if err != nil {
			return nil, b.buildError(err)
		}
		bodies[c.method] = body
	}
	for _, p := range b.properties {
		p.fillBackedBodies()
	}
	for _, m := range b.methods {
		if body := m.finish(b); body != nil {
			bodies[m.method] = body
		}
	}

	baked, err := b.module.DefineType(&host.Definition{Type: t, Bodies: bodies})
	if err != nil {
		b.log.With("error", err).Debug("bake failed")
		return nil, b.buildError(err)
	}
	b.log.With("methods", len(t.Methods), "fields", len(t.Fields), "nested", len(b.nested)).Debug("type built")

	for _, n := range b.nested {
		if _, err := n.BuildType(); err != nil {
			return nil, fmt.Errorf("build nested %s: %w", n.typ.Name, err)
		}
	}
	return baked, nil
}

func (b *Blueprint) typeInitSlots() []*ConstructorSlot {
	if b.typeInit == nil {
		return nil
	}
	return []*ConstructorSlot{b.typeInit}
}

func fieldKey(name string) string { return strings.ToLower(name) }

func argParams(types []*model.Type) []*model.Parameter {
	params := make([]*model.Parameter, len(types))
	for i, t := range types {
		params[i] = model.NewParameter(fmt.Sprintf("arg%d", i), t)
	}
	return params
}
