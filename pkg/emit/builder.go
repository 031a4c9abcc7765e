// Package emit records method bodies as portable instruction streams. Hosts
// consume the recorded Body: the memory host interprets it, the gosource host
// translates it.
package emit

import (
	"errors"
	"fmt"

	"github.com/cmmoran/proxytype/pkg/model"
	"github.com/cmmoran/proxytype/pkg/opcode"
)

var ErrInvalidBody = errors.New("invalid body")

// Label marks a branch target inside one body.
type Label int

type Instruction struct {
	Op      opcode.Opcode
	Operand any
}

func (i Instruction) String() string {
	if i.Operand == nil {
		return i.Op.String()
	}
	return fmt.Sprintf("%s %v", i.Op, i.Operand)
}

// Local is a typed local variable slot.
type Local struct {
	Index int
	Type  *model.Type
}

// ILGenerator is what body authors program against.
type ILGenerator interface {
	Emit(op opcode.Opcode)
	EmitOperand(op opcode.Opcode, operand any)
	DeclareLocal(t *model.Type) *Local
	DefineLabel() Label
	MarkLabel(l Label)
}

// Body is a finished instruction stream.
type Body struct {
	Instructions []Instruction
	Locals       []*Local
	// Labels maps each label to the index of the instruction it precedes,
	// -1 while unmarked.
	Labels []int

	// stray holds marks of labels this body never defined.
	stray []Label
}

// Target returns the instruction index a label was marked at.
func (b *Body) Target(l Label) (int, bool) {
	if int(l) < 0 || int(l) >= len(b.Labels) || b.Labels[l] < 0 {
		return 0, false
	}
	return b.Labels[l], true
}

// HasBranches reports whether the body contains any control transfer other
// than its returns.
func (b *Body) HasBranches() bool {
	for _, in := range b.Instructions {
		if in.Op.IsBranch() {
			return true
		}
	}
	return false
}

// Validate checks that the body is non-empty, ends in a return or branch and
// only targets marked labels.
func (b *Body) Validate() error {
	if len(b.Instructions) == 0 {
		return fmt.Errorf("%w: no instructions", ErrInvalidBody)
	}
	if len(b.stray) > 0 {
		return fmt.Errorf("%w: marked undefined label %d", ErrInvalidBody, b.stray[0])
	}
	last := b.Instructions[len(b.Instructions)-1].Op
	if last != opcode.Ret && last != opcode.Br {
		return fmt.Errorf("%w: falls off the end after %s", ErrInvalidBody, last)
	}
	for i, in := range b.Instructions {
		if in.Op == opcode.Empty {
			return fmt.Errorf("%w: empty instruction at %d", ErrInvalidBody, i)
		}
		if !in.Op.IsBranch() {
			continue
		}
		l, ok := in.Operand.(Label)
		if !ok {
			return fmt.Errorf("%w: %s at %d without label", ErrInvalidBody, in.Op, i)
		}
		if _, ok := b.Target(l); !ok {
			return fmt.Errorf("%w: %s at %d targets unmarked label %d", ErrInvalidBody, in.Op, i, l)
		}
	}
	return nil
}

// Builder is the recording ILGenerator.
type Builder struct {
	body Body
}

func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) Emit(op opcode.Opcode) {
	b.body.Instructions = append(b.body.Instructions, Instruction{Op: op})
}

func (b *Builder) EmitOperand(op opcode.Opcode, operand any) {
	b.body.Instructions = append(b.body.Instructions, Instruction{Op: op, Operand: operand})
}

func (b *Builder) DeclareLocal(t *model.Type) *Local {
	l := &Local{Index: len(b.body.Locals), Type: t}
	b.body.Locals = append(b.body.Locals, l)
	return l
}

func (b *Builder) DefineLabel() Label {
	b.body.Labels = append(b.body.Labels, -1)
	return Label(len(b.body.Labels) - 1)
}

func (b *Builder) MarkLabel(l Label) {
	if l < 0 || int(l) >= len(b.body.Labels) {
		b.body.stray = append(b.body.stray, l)
		return
	}
	b.body.Labels[l] = len(b.body.Instructions)
}

// Empty reports whether nothing was emitted yet.
func (b *Builder) Empty() bool {
	return b == nil || len(b.body.Instructions) == 0
}

// Body returns the recorded stream. The Builder must not be used afterwards.
func (b *Builder) Body() *Body {
	return &b.body
}
