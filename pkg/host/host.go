// Package host defines the contract between blueprints and the runtime that
// materializes the types they describe.
package host

import (
	"errors"

	"github.com/cmmoran/proxytype/pkg/emit"
	"github.com/cmmoran/proxytype/pkg/model"
)

var (
	// ErrBuild is wrapped by every materialization failure.
	ErrBuild = errors.New("build failure")
	// ErrConstraint is wrapped when a generic constraint shape can not be
	// expressed by the host.
	ErrConstraint = errors.New("constraint not expressible")
	// ErrDuplicateType is wrapped when a module already defines the name.
	ErrDuplicateType = errors.New("duplicate type")
)

// Definition is everything a module needs to materialize one type.
type Definition struct {
	Type *model.Type
	// Bodies holds the code of every non-abstract method, constructor and
	// accessor declared by Type.
	Bodies map[*model.Method]*emit.Body
}

// Module is the serialization point types are defined into. Implementations
// must be safe for concurrent use; DefineType calls against one module are
// serialized, and a failed call leaves the module unchanged.
type Module interface {
	// Model returns the module identity new types are tagged with.
	Model() *model.Module
	// CheckConstraints reports, wrapping ErrConstraint, whether the
	// constraints and special attributes of p can be expressed.
	CheckConstraints(p *model.GenericParam) error
	// DefineType materializes def. On success def.Type is marked baked and
	// returned.
	DefineType(def *Definition) (*model.Type, error)
}

// Host allocates modules.
type Host interface {
	DefineModule(name string, publicKey []byte) (Module, error)
}
