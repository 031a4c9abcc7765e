package blueprint

import "github.com/cmmoran/proxytype/pkg/emit"

// code is embedded by slots that carry a method body.
type code struct {
	builder *emit.Builder
}

// IL returns the generator the member body is written with. Members left
// untouched get a default body when the blueprint is built.
func (c *code) IL() emit.ILGenerator {
	if c.builder == nil {
		c.builder = emit.NewBuilder()
	}
	return c.builder
}

// HasBody reports whether anything was emitted through IL.
func (c *code) HasBody() bool { return !c.builder.Empty() }
