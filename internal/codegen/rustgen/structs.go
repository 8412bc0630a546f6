package rustgen

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/thriftrs/rsgen/idl"
	"github.com/thriftrs/rsgen/internal/codegen/writer"
)

// StructEmitter implements spec §4.4: definitions, derivations, a sorted
// constructor, the codec (via CodecEmitter), and exception-flavor extras.
type StructEmitter struct {
	types   *TypeMapper
	mangler *Mangler
	codec   *CodecEmitter
	log     zerolog.Logger
}

func NewStructEmitter(types *TypeMapper, mangler *Mangler, log zerolog.Logger) *StructEmitter {
	return &StructEmitter{types: types, mangler: mangler, codec: NewCodecEmitter(types), log: log}
}

func (se *StructEmitter) fieldName(f *idl.Field) string {
	return se.mangler.Safe(Snake(f.Name))
}

// EmitEnum emits an enum's definition plus its i32 conversions (spec §4.2,
// supplemented per SPEC_FULL.md §4).
func (se *StructEmitter) EmitEnum(w *writer.Writer, e *idl.EnumDef) {
	se.log.Debug().Str("enum", e.Name).Msg("emitting enum")
	name := Camel(e.Name)

	w.WriteDocComment(e.Doc)
	w.WriteLine("#[derive(Debug, Clone, Copy, PartialEq, Eq, PartialOrd, Ord, Hash)]")
	w.WriteLinef("pub enum %s {", name)
	w.Indent()
	for _, v := range e.Values {
		w.WriteDocComment(v.Doc)
		w.WriteLinef("%s = %d,", EnumVariant(v.Name), v.Value)
	}
	w.Dedent()
	w.WriteLine("}")
	w.BlankLine()

	w.WriteLinef("impl From<%s> for i32 {", name)
	w.Indent()
	w.WriteLinef("fn from(e: %s) -> i32 {", name)
	w.Indent()
	w.WriteLine("e as i32")
	w.Dedent()
	w.WriteLine("}")
	w.Dedent()
	w.WriteLine("}")
	w.BlankLine()

	w.WriteLinef("impl std::convert::TryFrom<i32> for %s {", name)
	w.Indent()
	w.WriteLine("type Error = thrift::Error;")
	w.BlankLine()
	w.WriteLine("fn try_from(value: i32) -> thrift::Result<Self> {")
	w.Indent()
	w.WriteLine("match value {")
	w.Indent()
	for _, v := range e.Values {
		w.WriteLinef("%d => Ok(%s::%s),", v.Value, name, EnumVariant(v.Name))
	}
	w.WriteLinef(`other => Err(thrift::Error::Protocol(ProtocolError::new(ProtocolErrorKind::InvalidData, format!("unknown value {} for enum %s", other)))),`, name)
	w.Dedent()
	w.WriteLine("}")
	w.Dedent()
	w.WriteLine("}")
	w.Dedent()
	w.WriteLine("}")
}

// EmitStruct dispatches on s.Flavor (spec §4.4).
func (se *StructEmitter) EmitStruct(w *writer.Writer, s *idl.StructDef) error {
	if s.Flavor == idl.FlavorUnion {
		return se.emitUnion(w, s)
	}
	return se.emitStructLike(w, s)
}

// EmitStructAs emits s as though its Role and Owner were the given values,
// without mutating s itself (spec §3: "all entities are inputs; the
// generator mutates nothing"). The service emitter uses this to emit the
// args struct under RoleArgs and the synthesized result struct under
// RoleResult.
func (se *StructEmitter) EmitStructAs(w *writer.Writer, s *idl.StructDef, role idl.RPCRole, owner *idl.Function) error {
	cp := *s
	cp.Role = role
	cp.Owner = owner
	return se.EmitStruct(w, &cp)
}

func (se *StructEmitter) emitStructLike(w *writer.Writer, s *idl.StructDef) error {
	se.log.Debug().Str("struct", s.Name).Msg("emitting struct")
	name := Camel(s.Name)

	vis := "pub"
	if s.Role != idl.RoleNone {
		vis = "pub(crate)"
	}

	derive := []string{"Debug", "Clone", "PartialEq", "Eq", "PartialOrd", "Ord", "Hash"}
	if s.AllFieldsOptional() {
		derive = append(derive, "Default")
	}

	w.WriteDocComment(s.Doc)
	w.WriteLinef("#[derive(%s)]", strings.Join(derive, ", "))
	w.WriteLinef("%s struct %s {", vis, name)
	w.Indent()
	for _, f := range s.SortedFields() {
		w.WriteDocComment(f.Doc)
		w.WriteLinef("pub %s: %s,", se.fieldName(f), se.types.FieldType(f.Type, s.EffectiveReq(f)))
	}
	w.Dedent()
	w.WriteLine("}")
	w.BlankLine()

	w.WriteLinef("impl %s {", name)
	w.Indent()
	se.emitConstructor(w, s)
	w.BlankLine()
	if err := se.emitCodecMethods(w, s); err != nil {
		return err
	}
	if s.Role == idl.RoleResult {
		w.BlankLine()
		se.emitOkOr(w, s)
	}
	w.Dedent()
	w.WriteLine("}")

	if s.Flavor == idl.FlavorException {
		se.emitExceptionExtras(w, s)
	}
	return nil
}

func (se *StructEmitter) emitConstructor(w *writer.Writer, s *idl.StructDef) {
	fields := s.SortedFields()
	params := make([]string, 0, len(fields))
	for _, f := range fields {
		name := se.fieldName(f)
		if s.EffectiveReq(f) == idl.Required {
			params = append(params, fmt.Sprintf("%s: %s", name, se.types.TargetType(f.Type)))
		} else {
			params = append(params, fmt.Sprintf("%s: impl Into<Option<%s>>", name, se.types.TargetType(f.Type)))
		}
	}

	w.WriteLinef("pub fn new(%s) -> Self {", strings.Join(params, ", "))
	w.Indent()
	w.WriteLine("Self {")
	w.Indent()
	for _, f := range fields {
		name := se.fieldName(f)
		if s.EffectiveReq(f) == idl.Required {
			w.WriteLinef("%s,", name)
		} else {
			w.WriteLinef("%s: %s.into(),", name, name)
		}
	}
	w.Dedent()
	w.WriteLine("}")
	w.Dedent()
	w.WriteLine("}")
}

func (se *StructEmitter) emitCodecMethods(w *writer.Writer, s *idl.StructDef) error {
	fields := s.SortedFields()

	w.WriteLine("pub fn write(&self, o: &mut dyn OutputProtocol) -> thrift::Result<()> {")
	w.Indent()
	w.WriteLinef(`o.write_struct_begin(&StructIdentifier::new("%s"))?;`, s.Name)
	for _, f := range fields {
		name := se.fieldName(f)
		tag := se.types.WireTag(f.Type)
		if s.EffectiveReq(f) == idl.Required {
			w.WriteLinef(`o.write_field_begin(&FieldIdentifier::new("%s", %s, Some(%d)))?;`, f.Name, tag, f.ID)
			if err := se.codec.WriteValue(w, f.Type, "&self."+name); err != nil {
				return err
			}
			w.WriteLine("o.write_field_end()?;")
		} else {
			w.WriteLinef("if let Some(ref v) = self.%s {", name)
			w.Indent()
			w.WriteLinef(`o.write_field_begin(&FieldIdentifier::new("%s", %s, Some(%d)))?;`, f.Name, tag, f.ID)
			if err := se.codec.WriteValue(w, f.Type, "v"); err != nil {
				return err
			}
			w.WriteLine("o.write_field_end()?;")
			w.Dedent()
			w.WriteLine("}")
		}
	}
	w.WriteLine("o.write_field_stop()?;")
	w.WriteLine("o.write_struct_end()")
	w.Dedent()
	w.WriteLine("}")
	w.BlankLine()

	w.WriteLine("pub fn read(i: &mut dyn InputProtocol) -> thrift::Result<Self> {")
	w.Indent()
	w.WriteLine("i.read_struct_begin()?;")
	for _, f := range fields {
		slot := slotVar(f)
		typ := se.types.TargetType(f.Type)
		if s.EffectiveReq(f) == idl.OptInReqOut {
			if zero, ok := se.types.ZeroDefault(f.Type); ok {
				w.WriteLinef("let mut %s: Option<%s> = Some(%s);", slot, typ, zero)
				continue
			}
		}
		w.WriteLinef("let mut %s: Option<%s> = None;", slot, typ)
	}
	w.WriteLine("loop {")
	w.Indent()
	w.WriteLine("let field_ident = i.read_field_begin()?;")
	w.WriteLine("if field_ident.field_type == TType::Stop { break; }")
	w.WriteLine("match field_ident.id {")
	w.Indent()
	for _, f := range fields {
		slot := slotVar(f)
		w.WriteLinef("Some(%d) => {", f.ID)
		w.Indent()
		val, err := se.codec.ReadValue(w, f.Type)
		if err != nil {
			return err
		}
		w.WriteLinef("%s = Some(%s);", slot, val)
		w.Dedent()
		w.WriteLine("},")
	}
	w.WriteLine("_ => {")
	w.Indent()
	w.WriteLine("i.skip(field_ident.field_type)?;")
	w.Dedent()
	w.WriteLine("},")
	w.Dedent()
	w.WriteLine("}")
	w.WriteLine("i.read_field_end()?;")
	w.Dedent()
	w.WriteLine("}")
	w.WriteLine("i.read_struct_end()?;")
	for _, f := range fields {
		if s.EffectiveReq(f) == idl.Required {
			w.WriteLinef(`verify_required_field_exists("%s.%s", &%s)?;`, s.Name, f.Name, slotVar(f))
		}
	}
	w.WriteLine("Ok(Self {")
	w.Indent()
	for _, f := range fields {
		name := se.fieldName(f)
		slot := slotVar(f)
		if s.EffectiveReq(f) == idl.Required {
			w.WriteLinef("%s: %s.unwrap(),", name, slot)
		} else {
			w.WriteLinef("%s: %s,", name, slot)
		}
	}
	w.Dedent()
	w.WriteLine("})")
	w.Dedent()
	w.WriteLine("}")
	return nil
}

func slotVar(f *idl.Field) string {
	return "f_" + SafeFieldID(f.ID)
}

// emitOkOr emits the result-struct helper from spec §4.4 bullet 5: the
// return field if present, else the first present exception field wrapped
// as a user error, else (no return declared) Ok(()), else a synthetic
// missing-result application error naming the original call.
func (se *StructEmitter) emitOkOr(w *writer.Writer, s *idl.StructDef) {
	fn := s.Owner
	hasReturn := fn.ReturnType != nil && fn.ReturnType.Kind != idl.KVoid

	returnType := "()"
	if hasReturn {
		returnType = se.types.TargetType(fn.ReturnType)
	}

	w.WriteLinef("pub fn ok_or(self) -> thrift::Result<%s> {", returnType)
	w.Indent()
	if hasReturn {
		w.WriteLine("if let Some(result_value) = self.result_value {")
		w.Indent()
		w.WriteLine("return Ok(result_value);")
		w.Dedent()
		w.WriteLine("}")
	}
	for _, ef := range s.Fields {
		if ef.Name == "result_value" {
			continue
		}
		name := se.fieldName(ef)
		w.WriteLinef("if let Some(e) = self.%s {", name)
		w.Indent()
		w.WriteLine("return Err(thrift::Error::User(Box::new(e)));")
		w.Dedent()
		w.WriteLine("}")
	}
	if hasReturn {
		w.WriteLinef(`Err(thrift::Error::Application(ApplicationError::new(ApplicationErrorKind::MissingResult, "%s failed: missing result")))`, fn.Name)
	} else {
		w.WriteLine("Ok(())")
	}
	w.Dedent()
	w.WriteLine("}")
}

func (se *StructEmitter) emitExceptionExtras(w *writer.Writer, s *idl.StructDef) {
	name := Camel(s.Name)

	w.BlankLine()
	w.WriteLinef("impl std::fmt::Display for %s {", name)
	w.Indent()
	w.WriteLine("fn fmt(&self, f: &mut std::fmt::Formatter<'_>) -> std::fmt::Result {")
	w.Indent()
	w.WriteLinef(`write!(f, "remote service threw %s")`, s.Name)
	w.Dedent()
	w.WriteLine("}")
	w.Dedent()
	w.WriteLine("}")
	w.BlankLine()

	w.WriteLinef("impl std::error::Error for %s {}", name)
	w.BlankLine()

	w.WriteLinef("impl From<%s> for thrift::Error {", name)
	w.Indent()
	w.WriteLinef("fn from(e: %s) -> Self {", name)
	w.Indent()
	w.WriteLine("thrift::Error::User(Box::new(e))")
	w.Dedent()
	w.WriteLine("}")
	w.Dedent()
	w.WriteLine("}")
}

// emitUnion implements spec §4.4's tagged-sum shape and §4.5's union
// read/write laws. A zero-field union is rejected at emission time.
func (se *StructEmitter) emitUnion(w *writer.Writer, s *idl.StructDef) error {
	if len(s.Fields) == 0 {
		return errZeroFieldUnion(s.Name)
	}
	se.log.Debug().Str("union", s.Name).Msg("emitting union")
	name := Camel(s.Name)
	fields := s.SortedFields()

	w.WriteDocComment(s.Doc)
	w.WriteLine("#[derive(Debug, Clone, PartialEq, Eq, PartialOrd, Ord, Hash)]")
	w.WriteLinef("pub enum %s {", name)
	w.Indent()
	for _, f := range fields {
		w.WriteDocComment(f.Doc)
		w.WriteLinef("%s(%s),", Camel(f.Name), se.types.TargetType(f.Type))
	}
	w.Dedent()
	w.WriteLine("}")
	w.BlankLine()

	w.WriteLinef("impl %s {", name)
	w.Indent()

	w.WriteLine("pub fn write(&self, o: &mut dyn OutputProtocol) -> thrift::Result<()> {")
	w.Indent()
	w.WriteLinef(`o.write_struct_begin(&StructIdentifier::new("%s"))?;`, s.Name)
	w.WriteLine("match self {")
	w.Indent()
	for _, f := range fields {
		tag := se.types.WireTag(f.Type)
		w.WriteLinef("%s::%s(v) => {", name, Camel(f.Name))
		w.Indent()
		w.WriteLinef(`o.write_field_begin(&FieldIdentifier::new("%s", %s, Some(%d)))?;`, f.Name, tag, f.ID)
		if err := se.codec.WriteValue(w, f.Type, "v"); err != nil {
			return err
		}
		w.WriteLine("o.write_field_end()?;")
		w.Dedent()
		w.WriteLine("},")
	}
	w.Dedent()
	w.WriteLine("}")
	w.WriteLine("o.write_field_stop()?;")
	w.WriteLine("o.write_struct_end()")
	w.Dedent()
	w.WriteLine("}")
	w.BlankLine()

	w.WriteLine("pub fn read(i: &mut dyn InputProtocol) -> thrift::Result<Self> {")
	w.Indent()
	w.WriteLine("i.read_struct_begin()?;")
	w.WriteLinef("let mut ret: Option<%s> = None;", name)
	w.WriteLine("let mut count = 0;")
	w.WriteLine("loop {")
	w.Indent()
	w.WriteLine("let field_ident = i.read_field_begin()?;")
	w.WriteLine("if field_ident.field_type == TType::Stop { break; }")
	w.WriteLine("match field_ident.id {")
	w.Indent()
	for _, f := range fields {
		w.WriteLinef("Some(%d) => {", f.ID)
		w.Indent()
		val, err := se.codec.ReadValue(w, f.Type)
		if err != nil {
			return err
		}
		w.WriteLine("if ret.is_none() {")
		w.Indent()
		w.WriteLinef("ret = Some(%s::%s(%s));", name, Camel(f.Name), val)
		w.Dedent()
		w.WriteLine("}")
		w.WriteLine("count += 1;")
		w.Dedent()
		w.WriteLine("},")
	}
	w.WriteLine("_ => {")
	w.Indent()
	w.WriteLine("i.skip(field_ident.field_type)?;")
	w.WriteLine("count += 1;")
	w.Dedent()
	w.WriteLine("},")
	w.Dedent()
	w.WriteLine("}")
	w.WriteLine("i.read_field_end()?;")
	w.Dedent()
	w.WriteLine("}")
	w.WriteLine("i.read_struct_end()?;")
	w.WriteLinef(`if count == 0 { return Err(thrift::Error::Protocol(ProtocolError::new(ProtocolErrorKind::InvalidData, "received empty union from remote %s"))); }`, s.Name)
	w.WriteLinef(`if count > 1 { return Err(thrift::Error::Protocol(ProtocolError::new(ProtocolErrorKind::InvalidData, "received multiple fields for union from remote %s"))); }`, s.Name)
	w.WriteLine("match ret {")
	w.Indent()
	w.WriteLine("Some(v) => Ok(v),")
	w.WriteLinef(`None => Err(thrift::Error::Protocol(ProtocolError::new(ProtocolErrorKind::InvalidData, "return value should have been constructed from %s"))),`, s.Name)
	w.Dedent()
	w.WriteLine("}")
	w.Dedent()
	w.WriteLine("}")

	w.Dedent()
	w.WriteLine("}")
	return nil
}
