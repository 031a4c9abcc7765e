package opcode

import "github.com/cmmoran/proxytype/pkg/model"

var loadConstant = map[model.Primitive]Opcode{
	model.PrimitiveBool:    LdcI4,
	model.PrimitiveChar:    LdcI4,
	model.PrimitiveInt8:    LdcI4,
	model.PrimitiveInt16:   LdcI4,
	model.PrimitiveInt32:   LdcI4,
	model.PrimitiveInt64:   LdcI8,
	model.PrimitiveUint8:   LdcI4,
	model.PrimitiveUint16:  LdcI4,
	model.PrimitiveUint32:  LdcI4,
	model.PrimitiveUint64:  LdcI8,
	model.PrimitiveFloat32: LdcR4,
	model.PrimitiveFloat64: LdcR8,
}

var loadIndirect = map[model.Primitive]Opcode{
	model.PrimitiveBool:    LdindI1,
	model.PrimitiveChar:    LdindI2,
	model.PrimitiveInt8:    LdindI1,
	model.PrimitiveInt16:   LdindI2,
	model.PrimitiveInt32:   LdindI4,
	model.PrimitiveInt64:   LdindI8,
	model.PrimitiveUint8:   LdindU1,
	model.PrimitiveUint16:  LdindU2,
	model.PrimitiveUint32:  LdindU4,
	model.PrimitiveUint64:  LdindI8,
	model.PrimitiveFloat32: LdindR4,
	model.PrimitiveFloat64: LdindR8,
}

var storeIndirect = map[model.Primitive]Opcode{
	model.PrimitiveBool:    StindI1,
	model.PrimitiveChar:    StindI2,
	model.PrimitiveInt8:    StindI1,
	model.PrimitiveInt16:   StindI2,
	model.PrimitiveInt32:   StindI4,
	model.PrimitiveInt64:   StindI8,
	model.PrimitiveUint8:   StindI1,
	model.PrimitiveUint16:  StindI2,
	model.PrimitiveUint32:  StindI4,
	model.PrimitiveUint64:  StindI8,
	model.PrimitiveFloat32: StindR4,
	model.PrimitiveFloat64: StindR8,
}

// LoadConstant returns the instruction that pushes a literal of category p,
// or Empty when p is not a primitive category.
func LoadConstant(p model.Primitive) Opcode { return loadConstant[p] }

// LoadIndirect returns the instruction that dereferences a reference to a
// value of category p, or Empty.
func LoadIndirect(p model.Primitive) Opcode { return loadIndirect[p] }

// StoreIndirect returns the instruction that stores a value of category p
// through a reference, or Empty.
func StoreIndirect(p model.Primitive) Opcode { return storeIndirect[p] }

// LoadConstantFor is LoadConstant keyed by type. Non-primitive types yield Empty.
func LoadConstantFor(t *model.Type) Opcode {
	if !t.IsPrimitive() {
		return Empty
	}
	return LoadConstant(t.Primitive)
}

// LoadIndirectFor is LoadIndirect keyed by type. Non-primitive types yield Empty.
func LoadIndirectFor(t *model.Type) Opcode {
	if !t.IsPrimitive() {
		return Empty
	}
	return LoadIndirect(t.Primitive)
}

// StoreIndirectFor is StoreIndirect keyed by type. Non-primitive types yield Empty.
func StoreIndirectFor(t *model.Type) Opcode {
	if !t.IsPrimitive() {
		return Empty
	}
	return StoreIndirect(t.Primitive)
}
