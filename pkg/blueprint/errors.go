package blueprint

import (
	"errors"
	"fmt"

	"github.com/cmmoran/proxytype/pkg/host"
)

// ErrUsage is matched by every *UsageError.
var ErrUsage = errors.New("blueprint misuse")

// UsageError reports an operation the blueprint can not honour in its current
// shape or state. It is raised by the offending call, never deferred to
// BuildType.
type UsageError struct {
	Op   string
	Type string
	Msg  string
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("%s on %s: %s", e.Op, e.Type, e.Msg)
}

func (e *UsageError) Is(target error) bool { return target == ErrUsage }

func (b *Blueprint) usage(op, format string, args ...any) error {
	return &UsageError{Op: op, Type: b.typ.FullName(), Msg: fmt.Sprintf(format, args...)}
}

// BuildError wraps a host failure raised while baking a type.
type BuildError struct {
	Type string
	// Msg replaces the host message when set.
	Msg string
	Err error
}

func (e *BuildError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("build %s: %s", e.Type, e.Msg)
	}
	return fmt.Sprintf("build %s: %v", e.Type, e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }

// ConstraintError is returned instead of degrading a generic parameter when
// strict constraints are enabled.
type ConstraintError struct {
	Member string
	Param  string
	Err    error
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("copy generic parameter %s of %s: %v", e.Param, e.Member, e.Err)
}

func (e *ConstraintError) Unwrap() error { return e.Err }

const debuggerMessage = "generic methods with constraints can not be loaded while a debugger is attached; " +
	"detach the debugger or drop the constraints"

func (b *Blueprint) buildError(err error) error {
	be := &BuildError{Type: b.typ.FullName(), Err: err}
	if !errors.Is(err, host.ErrBuild) {
		be.Err = fmt.Errorf("%w: %w", host.ErrBuild, err)
	}
	if b.probe != nil && b.hasConstrainedGenericMethods() && b.probe() {
		be.Msg = debuggerMessage
	}
	return be
}

func (b *Blueprint) hasConstrainedGenericMethods() bool {
	for _, m := range b.methods {
		if m.method.HasConstrainedGenerics() {
			return true
		}
	}
	return false
}
