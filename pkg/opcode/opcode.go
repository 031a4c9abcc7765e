// Package opcode defines the portable instruction set bodies are emitted in
// and the fixed primitive lookup tables used when loading constants and
// dereferencing by-ref values.
package opcode

// Opcode identifies one stack-machine instruction.
//
// Operands, where an instruction takes one, are carried next to the opcode by
// the emitter:
//
//	LdArg/StArg   int         argument index, 0 is the receiver of instance members
//	LdLoc/StLoc   int         local index
//	LdFld/StFld   *model.Field
//	Call/CallVirt *model.Method
//	NewObj        *model.Method (constructor)
//	Ldc*          the literal, already converted to the category's Go type
//	LdStr         string
//	Br/BrTrue/... label
type Opcode uint8

const (
	// Empty is the sentinel returned by table lookups that have no entry.
	// It is never a valid instruction.
	Empty Opcode = iota

	Nop    // no operation
	Ret    // return, popping the result for non-void methods
	Pop    // discard top of stack
	Dup    // duplicate top of stack
	LdNull // push null reference

	LdArg // push argument
	StArg // pop into argument
	LdLoc // push local
	StLoc // pop into local
	LdFld // pop object (none for static fields), push field value
	StFld // pop value and object (value only for static fields), store field

	LdcI4 // push 32-bit integer constant (also bool, char, 8/16-bit and unsigned 32-bit)
	LdcI8 // push 64-bit integer constant
	LdcR4 // push float32 constant
	LdcR8 // push float64 constant
	LdStr // push string constant

	LdindI1  // dereference int8 (and bool)
	LdindI2  // dereference int16 (and char)
	LdindI4  // dereference int32
	LdindI8  // dereference int64 / uint64
	LdindU1  // dereference uint8
	LdindU2  // dereference uint16
	LdindU4  // dereference uint32
	LdindR4  // dereference float32
	LdindR8  // dereference float64
	LdindRef // dereference object reference

	StindI1  // store int8 / bool / uint8 through reference
	StindI2  // store int16 / char / uint16 through reference
	StindI4  // store int32 / uint32 through reference
	StindI8  // store int64 / uint64 through reference
	StindR4  // store float32 through reference
	StindR8  // store float64 through reference
	StindRef // store object reference through reference

	Call     // call method non-virtually
	CallVirt // call method through the receiver's runtime type
	NewObj   // allocate and run constructor, push instance

	Br      // unconditional branch
	BrTrue  // pop, branch if true / non-zero / non-null
	BrFalse // pop, branch if false / zero / null
	Ceq     // pop two, push equality
)

var names = [...]string{
	Empty:    "<empty>",
	Nop:      "nop",
	Ret:      "ret",
	Pop:      "pop",
	Dup:      "dup",
	LdNull:   "ldnull",
	LdArg:    "ldarg",
	StArg:    "starg",
	LdLoc:    "ldloc",
	StLoc:    "stloc",
	LdFld:    "ldfld",
	StFld:    "stfld",
	LdcI4:    "ldc.i4",
	LdcI8:    "ldc.i8",
	LdcR4:    "ldc.r4",
	LdcR8:    "ldc.r8",
	LdStr:    "ldstr",
	LdindI1:  "ldind.i1",
	LdindI2:  "ldind.i2",
	LdindI4:  "ldind.i4",
	LdindI8:  "ldind.i8",
	LdindU1:  "ldind.u1",
	LdindU2:  "ldind.u2",
	LdindU4:  "ldind.u4",
	LdindR4:  "ldind.r4",
	LdindR8:  "ldind.r8",
	LdindRef: "ldind.ref",
	StindI1:  "stind.i1",
	StindI2:  "stind.i2",
	StindI4:  "stind.i4",
	StindI8:  "stind.i8",
	StindR4:  "stind.r4",
	StindR8:  "stind.r8",
	StindRef: "stind.ref",
	Call:     "call",
	CallVirt: "callvirt",
	NewObj:   "newobj",
	Br:       "br",
	BrTrue:   "brtrue",
	BrFalse:  "brfalse",
	Ceq:      "ceq",
}

func (o Opcode) String() string {
	if int(o) < len(names) && names[o] != "" {
		return names[o]
	}
	return "<unknown>"
}

// IsBranch reports whether o transfers control to a label.
func (o Opcode) IsBranch() bool {
	return o == Br || o == BrTrue || o == BrFalse
}
