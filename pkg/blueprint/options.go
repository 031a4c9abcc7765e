package blueprint

import (
	"log/slog"

	"github.com/cmmoran/proxytype/pkg/model"
)

// Shape selects what kind of type a blueprint declares.
type Shape int

const (
	ShapeClass Shape = iota
	ShapeInterface
)

func (s Shape) String() string {
	if s == ShapeInterface {
		return "interface"
	}
	return "class"
}

// functional option pattern ---------------------------------------------------

type Option func(*Blueprint)

func WithLogger(l *slog.Logger) Option { return func(b *Blueprint) { b.logger = l } }

// WithStrictConstraints makes a generic constraint the host can not express
// fail the member creation instead of being dropped.
func WithStrictConstraints() Option { return func(b *Blueprint) { b.strict = true } }

// WithDebuggerProbe installs a check consulted only when baking fails on a
// type with constrained generic methods.
func WithDebuggerProbe(fn func() bool) Option { return func(b *Blueprint) { b.probe = fn } }

func WithNamespace(ns string) Option { return func(b *Blueprint) { b.typ.Namespace = ns } }

// WithAttributes adds type attributes such as model.TypeSealed or
// model.TypeAbstract.
func WithAttributes(attrs model.TypeAttributes) Option {
	return func(b *Blueprint) { b.typ.Attributes |= attrs }
}

func WithTags(tags ...model.Tag) Option {
	return func(b *Blueprint) { b.typ.Tags = append(b.typ.Tags, tags...) }
}
