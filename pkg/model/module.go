package model

// Module is the unit that defines types. A module carrying a public key is
// strong-signed.
type Module struct {
	Name      string
	PublicKey []byte
	// ImportPath is set on modules loaded from Go packages; code referring to
	// their types from elsewhere qualifies them with it.
	ImportPath string
}

func NewModule(name string, publicKey []byte) *Module {
	return &Module{Name: name, PublicKey: publicKey}
}

func (m *Module) Signed() bool { return m != nil && len(m.PublicKey) > 0 }

func (m *Module) String() string {
	if m == nil {
		return "<nil>"
	}
	return m.Name
}

// CoreModule defines the built-in types.
var CoreModule = NewModule("core", []byte{0xb7, 0x7a, 0x5c, 0x56, 0x19, 0x34, 0xe0, 0x89})

var (
	Void   = &Type{Kind: KindVoid, Name: "void", Module: CoreModule}
	Object = &Type{Kind: KindClass, Name: "Object", Namespace: "core", Module: CoreModule, Attributes: TypePublic}
	String = &Type{Kind: KindClass, Name: "String", Namespace: "core", Module: CoreModule, Attributes: TypePublic | TypeSealed}

	Bool    = primitive(PrimitiveBool, "Bool")
	Char    = primitive(PrimitiveChar, "Char")
	Int8    = primitive(PrimitiveInt8, "Int8")
	Int16   = primitive(PrimitiveInt16, "Int16")
	Int32   = primitive(PrimitiveInt32, "Int32")
	Int64   = primitive(PrimitiveInt64, "Int64")
	Uint8   = primitive(PrimitiveUint8, "Uint8")
	Uint16  = primitive(PrimitiveUint16, "Uint16")
	Uint32  = primitive(PrimitiveUint32, "Uint32")
	Uint64  = primitive(PrimitiveUint64, "Uint64")
	Float32 = primitive(PrimitiveFloat32, "Float32")
	Float64 = primitive(PrimitiveFloat64, "Float64")
)

// ObjectConstructor is the parameterless constructor every class chain ends in.
var ObjectConstructor = Object.AddMethod(NewConstructor(MethodPublic))

func primitive(p Primitive, name string) *Type {
	return &Type{
		Kind:       KindPrimitive,
		Primitive:  p,
		Name:       name,
		Namespace:  "core",
		Module:     CoreModule,
		Attributes: TypePublic | TypeSealed,
	}
}

// PrimitiveType returns the built-in type of a primitive category.
func PrimitiveType(p Primitive) *Type {
	switch p {
	case PrimitiveBool:
		return Bool
	case PrimitiveChar:
		return Char
	case PrimitiveInt8:
		return Int8
	case PrimitiveInt16:
		return Int16
	case PrimitiveInt32:
		return Int32
	case PrimitiveInt64:
		return Int64
	case PrimitiveUint8:
		return Uint8
	case PrimitiveUint16:
		return Uint16
	case PrimitiveUint32:
		return Uint32
	case PrimitiveUint64:
		return Uint64
	case PrimitiveFloat32:
		return Float32
	case PrimitiveFloat64:
		return Float64
	}
	return nil
}

// Builtin resolves a lower-case built-in type keyword.
func Builtin(name string) (*Type, bool) {
	switch name {
	case "void":
		return Void, true
	case "object", "any":
		return Object, true
	case "string":
		return String, true
	case "byte":
		return Uint8, true
	case "rune":
		return Char, true
	case "int":
		return Int64, true
	case "uint":
		return Uint64, true
	}
	for _, p := range Primitives {
		if p.String() == name {
			return PrimitiveType(p), true
		}
	}
	return nil, false
}
