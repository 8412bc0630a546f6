package rustgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thriftrs/rsgen/idl"
	"github.com/thriftrs/rsgen/internal/codegen/writer"
)

func newTestCodecEmitter() *CodecEmitter {
	return NewCodecEmitter(newTestTypeMapper())
}

func TestCodecEmitter_WriteValueScalars(t *testing.T) {
	ce := newTestCodecEmitter()
	w := writer.NewWriter("    ")
	require.NoError(t, ce.WriteValue(w, &idl.Type{Kind: idl.KI32}, "&self.id"))
	assert.Contains(t, w.String(), "o.write_i32(*&self.id)?;")
}

func TestCodecEmitter_WriteValueDoubleUnwrapsOrderedFloat(t *testing.T) {
	ce := newTestCodecEmitter()
	w := writer.NewWriter("    ")
	require.NoError(t, ce.WriteValue(w, &idl.Type{Kind: idl.KDouble}, "v"))
	assert.Contains(t, w.String(), "o.write_double((*v).into_inner())?;")
}

func TestCodecEmitter_WriteValueList(t *testing.T) {
	ce := newTestCodecEmitter()
	w := writer.NewWriter("    ")
	listType := &idl.Type{Kind: idl.KList, Elem: &idl.Type{Kind: idl.KI32}}
	require.NoError(t, ce.WriteValue(w, listType, "&self.items"))
	out := w.String()

	assert.Contains(t, out, "o.write_list_begin(&ListIdentifier::new(TType::I32, &self.items.len() as i32))?;")
	assert.Contains(t, out, "for elem_1 in &self.items.iter() {")
	assert.Contains(t, out, "o.write_i32(*elem_1)?;")
	assert.Contains(t, out, "o.write_list_end()?;")
}

func TestCodecEmitter_WriteValueSet(t *testing.T) {
	ce := newTestCodecEmitter()
	w := writer.NewWriter("    ")
	setType := &idl.Type{Kind: idl.KSet, Elem: &idl.Type{Kind: idl.KString}}
	require.NoError(t, ce.WriteValue(w, setType, "&self.tags"))
	out := w.String()

	assert.Contains(t, out, "o.write_set_begin(&SetIdentifier::new(TType::String, &self.tags.len() as i32))?;")
	assert.Contains(t, out, "o.write_string(elem_1)?;")
	assert.Contains(t, out, "o.write_set_end()?;")
}

func TestCodecEmitter_WriteValueMap(t *testing.T) {
	ce := newTestCodecEmitter()
	w := writer.NewWriter("    ")
	mapType := &idl.Type{Kind: idl.KMap, Key: &idl.Type{Kind: idl.KString}, Val: &idl.Type{Kind: idl.KI32}}
	require.NoError(t, ce.WriteValue(w, mapType, "&self.counts"))
	out := w.String()

	assert.Contains(t, out, "o.write_map_begin(&MapIdentifier::new(TType::String, TType::I32, &self.counts.len() as i32))?;")
	assert.Contains(t, out, "for (key_1, val_2) in &self.counts.iter() {")
	assert.Contains(t, out, "o.write_string(key_1)?;")
	assert.Contains(t, out, "o.write_i32(*val_2)?;")
	assert.Contains(t, out, "o.write_map_end()?;")
}

func TestCodecEmitter_WriteValueNonForwardTypedefUnwrapsInner(t *testing.T) {
	ce := newTestCodecEmitter()
	w := writer.NewWriter("    ")
	td := &idl.TypedefDef{Name: "UserId", Inner: &idl.Type{Kind: idl.KI64}}
	require.NoError(t, ce.WriteValue(w, &idl.Type{Kind: idl.KTypedef, Typedef: td}, "&self.id"))
	assert.Contains(t, w.String(), "o.write_i64(*&self.id)?;")
}

func TestCodecEmitter_WriteValueUnsupportedKindErrors(t *testing.T) {
	ce := newTestCodecEmitter()
	w := writer.NewWriter("    ")
	err := ce.WriteValue(w, &idl.Type{Kind: idl.KVoid}, "v")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported type in write context")
}

func TestCodecEmitter_ReadValueScalar(t *testing.T) {
	ce := newTestCodecEmitter()
	w := writer.NewWriter("    ")
	v, err := ce.ReadValue(w, &idl.Type{Kind: idl.KI32})
	require.NoError(t, err)
	assert.Equal(t, "val_1", v)
	assert.Contains(t, w.String(), "let val_1 = i.read_i32()?;")
}

func TestCodecEmitter_ReadValueEnumUsesTryFrom(t *testing.T) {
	ce := newTestCodecEmitter()
	w := writer.NewWriter("    ")
	enumDef := &idl.EnumDef{Name: "Status"}
	v, err := ce.ReadValue(w, &idl.Type{Kind: idl.KEnum, Enum: enumDef})
	require.NoError(t, err)
	assert.Contains(t, w.String(), "let "+v+" = Status::try_from(i.read_i32()?)?;")
}

func TestCodecEmitter_ReadValueList(t *testing.T) {
	ce := newTestCodecEmitter()
	w := writer.NewWriter("    ")
	listType := &idl.Type{Kind: idl.KList, Elem: &idl.Type{Kind: idl.KI32}}
	v, err := ce.ReadValue(w, listType)
	require.NoError(t, err)
	out := w.String()

	assert.Contains(t, out, "let list_ident_1 = i.read_list_begin()?;")
	assert.Contains(t, out, "let mut val_2: Vec<i32> = Vec::with_capacity(list_ident_1.size as usize);")
	assert.Contains(t, out, "for _ in 0..list_ident_1.size {")
	assert.Contains(t, out, "val_2.push(val_3);")
	assert.Contains(t, out, "i.read_list_end()?;")
	assert.Equal(t, "val_2", v)
}

func TestCodecEmitter_ReadValueSetUsesInsert(t *testing.T) {
	ce := newTestCodecEmitter()
	w := writer.NewWriter("    ")
	setType := &idl.Type{Kind: idl.KSet, Elem: &idl.Type{Kind: idl.KString}}
	_, err := ce.ReadValue(w, setType)
	require.NoError(t, err)
	out := w.String()

	assert.Contains(t, out, "let set_ident_1 = i.read_set_begin()?;")
	assert.Contains(t, out, ".insert(")
	assert.Contains(t, out, "i.read_set_end()?;")
}

func TestCodecEmitter_ReadValueMap(t *testing.T) {
	ce := newTestCodecEmitter()
	w := writer.NewWriter("    ")
	mapType := &idl.Type{Kind: idl.KMap, Key: &idl.Type{Kind: idl.KString}, Val: &idl.Type{Kind: idl.KI32}}
	v, err := ce.ReadValue(w, mapType)
	require.NoError(t, err)
	out := w.String()

	assert.Contains(t, out, "let map_ident_1 = i.read_map_begin()?;")
	assert.Contains(t, out, "BTreeMap<String, i32> = BTreeMap::new();")
	assert.Contains(t, out, ".insert(")
	assert.Contains(t, out, "i.read_map_end()?;")
	assert.Equal(t, "val_2", v)
}

// A forward typedef boxes only at the field/const reference site, via
// Box::new(...) wrapping the already-read inner value — the typedef's own
// alias definition is never itself boxed (see file_test.go).
func TestCodecEmitter_ReadValueForwardTypedefBoxesResult(t *testing.T) {
	ce := newTestCodecEmitter()
	w := writer.NewWriter("    ")
	nodeStruct := &idl.StructDef{Name: "Node"}
	td := &idl.TypedefDef{
		Name:    "Nodes",
		Forward: true,
		Inner:   &idl.Type{Kind: idl.KList, Elem: &idl.Type{Kind: idl.KStruct, Struct: nodeStruct}},
	}
	v, err := ce.ReadValue(w, &idl.Type{Kind: idl.KTypedef, Typedef: td})
	require.NoError(t, err)
	out := w.String()

	assert.Contains(t, out, "Box::new(")
	assert.Equal(t, "boxed_4", v)
	assert.Contains(t, out, "let boxed_4 = Box::new(val_2);")
}

func TestCodecEmitter_ReadValueNonForwardTypedefDoesNotBox(t *testing.T) {
	ce := newTestCodecEmitter()
	w := writer.NewWriter("    ")
	td := &idl.TypedefDef{Name: "UserId", Inner: &idl.Type{Kind: idl.KI64}}
	v, err := ce.ReadValue(w, &idl.Type{Kind: idl.KTypedef, Typedef: td})
	require.NoError(t, err)
	assert.NotContains(t, w.String(), "Box::new")
	assert.Equal(t, "val_1", v)
}

func TestCodecEmitter_ReadValueUnsupportedKindErrors(t *testing.T) {
	ce := newTestCodecEmitter()
	w := writer.NewWriter("    ")
	_, err := ce.ReadValue(w, &idl.Type{Kind: idl.KVoid})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported type in write context")
}

// A struct with a negative field id (the "neg<N>" safe-naming case, spec
// §4.1) round-trips its write/read dispatch through the ordinary codec
// path — negative ids are just another `Some(id) =>` match arm.
func TestCodecEmitter_NegativeFieldIDRoundTrip(t *testing.T) {
	se := newTestStructEmitter()
	w := writer.NewWriter("    ")
	s := &idl.StructDef{Name: "Legacy", Fields: []*idl.Field{
		{ID: -1, Name: "flag", Type: &idl.Type{Kind: idl.KBool}, Req: idl.Required},
	}}
	require.NoError(t, se.EmitStruct(w, s))
	out := w.String()

	assert.Contains(t, out, `FieldIdentifier::new("flag", TType::Bool, Some(-1)))?;`)
	assert.Contains(t, out, "Some(-1) => {")
}
