package rustgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/thriftrs/rsgen/idl"
)

func TestTypeMapper_TargetTypeScalars(t *testing.T) {
	tm := newTestTypeMapper()

	assert.Equal(t, "bool", tm.TargetType(&idl.Type{Kind: idl.KBool}))
	assert.Equal(t, "i32", tm.TargetType(&idl.Type{Kind: idl.KI32}))
	assert.Equal(t, "OrderedFloat<f64>", tm.TargetType(&idl.Type{Kind: idl.KDouble}))
	assert.Equal(t, "String", tm.TargetType(&idl.Type{Kind: idl.KString}))
	assert.Equal(t, "Vec<u8>", tm.TargetType(&idl.Type{Kind: idl.KBinary}))
	assert.Equal(t, "Uuid", tm.TargetType(&idl.Type{Kind: idl.KUuid}))
	assert.Equal(t, "()", tm.TargetType(&idl.Type{Kind: idl.KVoid}))
}

func TestTypeMapper_TargetTypeContainersAreOrdered(t *testing.T) {
	tm := newTestTypeMapper()

	set := &idl.Type{Kind: idl.KSet, Elem: &idl.Type{Kind: idl.KI32}}
	assert.Equal(t, "BTreeSet<i32>", tm.TargetType(set))

	m := &idl.Type{Kind: idl.KMap, Key: &idl.Type{Kind: idl.KString}, Val: &idl.Type{Kind: idl.KI64}}
	assert.Equal(t, "BTreeMap<String, i64>", tm.TargetType(m))

	list := &idl.Type{Kind: idl.KList, Elem: &idl.Type{Kind: idl.KString}}
	assert.Equal(t, "Vec<String>", tm.TargetType(list))
}

func TestTypeMapper_TargetTypeNonForwardTypedefUnboxed(t *testing.T) {
	tm := newTestTypeMapper()
	td := &idl.TypedefDef{Name: "UserId", Inner: &idl.Type{Kind: idl.KI64}}
	got := tm.TargetType(&idl.Type{Kind: idl.KTypedef, Typedef: td})
	assert.Equal(t, "UserId", got)
}

func TestTypeMapper_TargetTypeForwardTypedefBoxedAtReferenceSite(t *testing.T) {
	tm := newTestTypeMapper()
	td := &idl.TypedefDef{Name: "Nodes", Forward: true, Inner: &idl.Type{Kind: idl.KList}}
	got := tm.TargetType(&idl.Type{Kind: idl.KTypedef, Typedef: td})
	assert.Equal(t, "Box<Nodes>", got)
}

func TestTypeMapper_TargetTypeNamespaceQualifiesForeignStruct(t *testing.T) {
	mangler := NewMangler(nil)
	other := &idl.Program{Name: "shared"}
	current := &idl.Program{Name: "calculator"}
	tm := NewTypeMapper(mangler, current)

	sd := &idl.StructDef{Name: "Point", Program: other}
	got := tm.TargetType(&idl.Type{Kind: idl.KStruct, Struct: sd})
	assert.Equal(t, "shared::Point", got)
}

func TestTypeMapper_TargetTypeSameProgramStructUnqualified(t *testing.T) {
	current := &idl.Program{Name: "calculator"}
	tm := NewTypeMapper(NewMangler(nil), current)

	sd := &idl.StructDef{Name: "Point", Program: current}
	got := tm.TargetType(&idl.Type{Kind: idl.KStruct, Struct: sd})
	assert.Equal(t, "Point", got)
}

func TestTypeMapper_FieldTypeWrapsOptional(t *testing.T) {
	tm := newTestTypeMapper()
	base := &idl.Type{Kind: idl.KI32}

	assert.Equal(t, "i32", tm.FieldType(base, idl.Required))
	assert.Equal(t, "Option<i32>", tm.FieldType(base, idl.Optional))
	assert.Equal(t, "Option<i32>", tm.FieldType(base, idl.OptInReqOut))
}

func TestTypeMapper_WireTagBasics(t *testing.T) {
	tm := newTestTypeMapper()

	assert.Equal(t, "TType::I32", tm.WireTag(&idl.Type{Kind: idl.KI32}))
	assert.Equal(t, "TType::String", tm.WireTag(&idl.Type{Kind: idl.KString}))
	assert.Equal(t, "TType::String", tm.WireTag(&idl.Type{Kind: idl.KBinary}))
	assert.Equal(t, "TType::Struct", tm.WireTag(&idl.Type{Kind: idl.KStruct}))
	assert.Equal(t, "TType::List", tm.WireTag(&idl.Type{Kind: idl.KList}))
	assert.Equal(t, "TType::Set", tm.WireTag(&idl.Type{Kind: idl.KSet}))
	assert.Equal(t, "TType::Map", tm.WireTag(&idl.Type{Kind: idl.KMap}))
	assert.Equal(t, "TType::I32", tm.WireTag(&idl.Type{Kind: idl.KEnum}))
}

func TestTypeMapper_WireTagUnwrapsTypedef(t *testing.T) {
	tm := newTestTypeMapper()
	td := &idl.TypedefDef{Name: "UserId", Inner: &idl.Type{Kind: idl.KI64}}
	assert.Equal(t, "TType::I64", tm.WireTag(&idl.Type{Kind: idl.KTypedef, Typedef: td}))
}

func TestTypeMapper_ZeroDefaultScalarsAndContainers(t *testing.T) {
	tm := newTestTypeMapper()

	expr, ok := tm.ZeroDefault(&idl.Type{Kind: idl.KBool})
	assert.True(t, ok)
	assert.Equal(t, "false", expr)

	expr, ok = tm.ZeroDefault(&idl.Type{Kind: idl.KI32})
	assert.True(t, ok)
	assert.Equal(t, "0", expr)

	expr, ok = tm.ZeroDefault(&idl.Type{Kind: idl.KDouble})
	assert.True(t, ok)
	assert.Equal(t, "OrderedFloat::from(0.0)", expr)

	expr, ok = tm.ZeroDefault(&idl.Type{Kind: idl.KUuid})
	assert.True(t, ok)
	assert.Equal(t, "Uuid::nil()", expr)

	expr, ok = tm.ZeroDefault(&idl.Type{Kind: idl.KSet, Elem: &idl.Type{Kind: idl.KI32}})
	assert.True(t, ok)
	assert.Equal(t, "BTreeSet::new()", expr)

	expr, ok = tm.ZeroDefault(&idl.Type{Kind: idl.KMap, Key: &idl.Type{Kind: idl.KString}, Val: &idl.Type{Kind: idl.KI32}})
	assert.True(t, ok)
	assert.Equal(t, "BTreeMap::new()", expr)
}

func TestTypeMapper_ZeroDefaultStructAndEnumHaveNone(t *testing.T) {
	tm := newTestTypeMapper()

	_, ok := tm.ZeroDefault(&idl.Type{Kind: idl.KStruct, Struct: &idl.StructDef{Name: "Point"}})
	assert.False(t, ok)

	_, ok = tm.ZeroDefault(&idl.Type{Kind: idl.KEnum, Enum: &idl.EnumDef{Name: "Status"}})
	assert.False(t, ok)
}

func TestTypeMapper_ZeroDefaultForwardTypedefHasNone(t *testing.T) {
	tm := newTestTypeMapper()
	td := &idl.TypedefDef{Name: "Nodes", Forward: true, Inner: &idl.Type{Kind: idl.KList, Elem: &idl.Type{Kind: idl.KI32}}}
	_, ok := tm.ZeroDefault(&idl.Type{Kind: idl.KTypedef, Typedef: td})
	assert.False(t, ok)
}

func TestTypeMapper_ZeroDefaultNonForwardTypedefDelegatesToInner(t *testing.T) {
	tm := newTestTypeMapper()
	td := &idl.TypedefDef{Name: "UserId", Inner: &idl.Type{Kind: idl.KI64}}
	expr, ok := tm.ZeroDefault(&idl.Type{Kind: idl.KTypedef, Typedef: td})
	assert.True(t, ok)
	assert.Equal(t, "0", expr)
}

func TestTypeMapper_IsInlineConst(t *testing.T) {
	tm := newTestTypeMapper()

	assert.True(t, tm.IsInlineConst(&idl.Type{Kind: idl.KI32}))
	assert.True(t, tm.IsInlineConst(&idl.Type{Kind: idl.KEnum}))
	assert.False(t, tm.IsInlineConst(&idl.Type{Kind: idl.KString}))
	assert.False(t, tm.IsInlineConst(&idl.Type{Kind: idl.KDouble}))
	assert.False(t, tm.IsInlineConst(&idl.Type{Kind: idl.KStruct}))

	td := &idl.TypedefDef{Name: "Count", Inner: &idl.Type{Kind: idl.KI32}}
	assert.True(t, tm.IsInlineConst(&idl.Type{Kind: idl.KTypedef, Typedef: td}))
}
