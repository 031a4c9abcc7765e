package opcode

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cmmoran/proxytype/pkg/model"
)

func TestTablesCoverEveryPrimitive(t *testing.T) {
	require.Len(t, model.Primitives, 12)
	for _, p := range model.Primitives {
		t.Run(p.String(), func(t *testing.T) {
			require.NotEqual(t, Empty, LoadConstant(p))
			require.NotEqual(t, Empty, LoadIndirect(p))
			require.NotEqual(t, Empty, StoreIndirect(p))

			typ := model.PrimitiveType(p)
			require.Equal(t, LoadConstant(p), LoadConstantFor(typ))
			require.Equal(t, LoadIndirect(p), LoadIndirectFor(typ))
		})
	}
}

func TestTablesReturnSentinelForReferenceTypes(t *testing.T) {
	lib := model.NewModule("lib", nil)
	tests := []*model.Type{
		model.Object,
		model.String,
		model.NewClass(lib, "lib", "Widget"),
		model.NewInterface(lib, "lib", "Named"),
		model.ArrayOf(model.Int32, 1),
	}
	for _, typ := range tests {
		t.Run(typ.String(), func(t *testing.T) {
			require.Equal(t, Empty, LoadConstantFor(typ))
			require.Equal(t, Empty, LoadIndirectFor(typ))
			require.Equal(t, Empty, StoreIndirectFor(typ))
		})
	}
	require.Equal(t, Empty, LoadConstant(model.PrimitiveNone))
}

func TestTableVariants(t *testing.T) {
	tests := []struct {
		p        model.Primitive
		constant Opcode
		indirect Opcode
	}{
		{model.PrimitiveBool, LdcI4, LdindI1},
		{model.PrimitiveChar, LdcI4, LdindI2},
		{model.PrimitiveInt64, LdcI8, LdindI8},
		{model.PrimitiveUint8, LdcI4, LdindU1},
		{model.PrimitiveUint64, LdcI8, LdindI8},
		{model.PrimitiveFloat32, LdcR4, LdindR4},
		{model.PrimitiveFloat64, LdcR8, LdindR8},
	}
	for _, tt := range tests {
		require.Equal(t, tt.constant, LoadConstant(tt.p), tt.p.String())
		require.Equal(t, tt.indirect, LoadIndirect(tt.p), tt.p.String())
	}
}

func TestOpcodeString(t *testing.T) {
	require.Equal(t, "ldc.i4", LdcI4.String())
	require.Equal(t, "<empty>", Empty.String())
	require.Equal(t, "<unknown>", Opcode(250).String())
	require.True(t, BrFalse.IsBranch())
	require.False(t, Ret.IsBranch())
}
