package model

type Kind int

const (
	KindInvalid         Kind = iota
	KindVoid                 // return type of methods without a result
	KindPrimitive            // bool, char, sized integers and floats
	KindClass                // reference type with fields and methods
	KindInterface            // contract type, no fields, no constructors
	KindStruct               // value type with fields and methods
	KindArray                // T[], T[,] ...
	KindByRef                // ref T (parameter passing only)
	KindGenericParam         // open type variable T
	KindGenericInstance      // constructed generic, e.g. IComparable<int>
)

func (k Kind) String() string {
	switch k {
	case KindVoid:
		return "void"
	case KindPrimitive:
		return "primitive"
	case KindClass:
		return "class"
	case KindInterface:
		return "interface"
	case KindStruct:
		return "struct"
	case KindArray:
		return "array"
	case KindByRef:
		return "byref"
	case KindGenericParam:
		return "generic-param"
	case KindGenericInstance:
		return "generic-instance"
	default:
		return "invalid"
	}
}

// Primitive is the category of a primitive value type.
type Primitive int

const (
	PrimitiveNone Primitive = iota
	PrimitiveBool
	PrimitiveChar
	PrimitiveInt8
	PrimitiveInt16
	PrimitiveInt32
	PrimitiveInt64
	PrimitiveUint8
	PrimitiveUint16
	PrimitiveUint32
	PrimitiveUint64
	PrimitiveFloat32
	PrimitiveFloat64
)

// Primitives lists every primitive category in declaration order.
var Primitives = []Primitive{
	PrimitiveBool,
	PrimitiveChar,
	PrimitiveInt8,
	PrimitiveInt16,
	PrimitiveInt32,
	PrimitiveInt64,
	PrimitiveUint8,
	PrimitiveUint16,
	PrimitiveUint32,
	PrimitiveUint64,
	PrimitiveFloat32,
	PrimitiveFloat64,
}

func (p Primitive) String() string {
	switch p {
	case PrimitiveBool:
		return "bool"
	case PrimitiveChar:
		return "char"
	case PrimitiveInt8:
		return "int8"
	case PrimitiveInt16:
		return "int16"
	case PrimitiveInt32:
		return "int32"
	case PrimitiveInt64:
		return "int64"
	case PrimitiveUint8:
		return "uint8"
	case PrimitiveUint16:
		return "uint16"
	case PrimitiveUint32:
		return "uint32"
	case PrimitiveUint64:
		return "uint64"
	case PrimitiveFloat32:
		return "float32"
	case PrimitiveFloat64:
		return "float64"
	default:
		return "none"
	}
}
