package rustgen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thriftrs/rsgen/idl"
	"github.com/thriftrs/rsgen/internal/codegen"
)

func TestGenerator_LanguageAndExtension(t *testing.T) {
	g := NewGenerator(codegen.Options{})
	assert.Equal(t, "rust", g.Language())
	assert.Equal(t, ".rs", g.FileExtension())
}

func TestGenerator_GenerateOrdersDeclarationsByKind(t *testing.T) {
	g := NewGenerator(codegen.Options{})

	prog := &idl.Program{
		Name: "calculator",
		Typedefs: []*idl.TypedefDef{
			{Name: "Id", Inner: &idl.Type{Kind: idl.KI64}},
		},
		Enums: []*idl.EnumDef{
			{Name: "Op", Values: []idl.EnumValue{{Name: "ADD", Value: 0}}},
		},
		Consts: []*idl.Const{
			{Name: "maxOps", Type: &idl.Type{Kind: idl.KI32}, Value: &idl.ConstValue{Kind: idl.CVInt, Int: 100}},
		},
		Structs: []*idl.StructDef{
			{Name: "Point", Fields: []*idl.Field{
				{ID: 1, Name: "x", Type: &idl.Type{Kind: idl.KI32}, Req: idl.Required},
			}},
		},
	}

	out, err := g.Generate(prog)
	require.NoError(t, err)
	text := string(out)

	idxTypedef := strings.Index(text, "pub type Id")
	idxEnum := strings.Index(text, "pub enum Op")
	idxConst := strings.Index(text, "MAX_OPS")
	idxStruct := strings.Index(text, "pub struct Point")

	require.NotEqual(t, -1, idxTypedef)
	require.NotEqual(t, -1, idxEnum)
	require.NotEqual(t, -1, idxConst)
	require.NotEqual(t, -1, idxStruct)
	assert.Less(t, idxTypedef, idxEnum)
	assert.Less(t, idxEnum, idxConst)
	assert.Less(t, idxConst, idxStruct)
}

func TestGenerator_GenerateIncludesService(t *testing.T) {
	g := NewGenerator(codegen.Options{})

	addArgs := &idl.StructDef{Name: "add_args", Fields: []*idl.Field{
		{ID: 1, Name: "a", Type: &idl.Type{Kind: idl.KI32}, Req: idl.Required},
	}}
	add := &idl.Function{Name: "add", ReturnType: &idl.Type{Kind: idl.KI32}, Args: addArgs}
	svc := &idl.Service{Name: "Calc", Functions: []*idl.Function{add}}

	prog := &idl.Program{Name: "calculator", Services: []*idl.Service{svc}}

	out, err := g.Generate(prog)
	require.NoError(t, err)
	assert.Contains(t, string(out), "pub trait TCalcSyncClient {")
}

func TestGenerator_GenerateSurfacesEmissionErrors(t *testing.T) {
	g := NewGenerator(codegen.Options{})
	prog := &idl.Program{
		Name: "broken",
		Structs: []*idl.StructDef{
			{Name: "Empty", Flavor: idl.FlavorUnion},
		},
	}
	_, err := g.Generate(prog)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Empty")
}
