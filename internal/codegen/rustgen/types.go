package rustgen

import (
	"fmt"

	"github.com/thriftrs/rsgen/idl"
)

// TypeMapper turns idl.Type values into target-language shapes: the Rust
// type string a field/const/argument is declared with, the wire-protocol
// type tag written ahead of an encoded value, and the zero-valued default
// used to pre-initialize OptInReqOut fields (spec §4.2).
type TypeMapper struct {
	mangler *Mangler
	current *idl.Program
}

// NewTypeMapper builds a TypeMapper for code being emitted on behalf of
// current — the program whose declarations are being turned into Rust right
// now. current is used to decide whether a referenced type needs a
// namespace-qualifying prefix (spec §9).
func NewTypeMapper(m *Mangler, current *idl.Program) *TypeMapper {
	return &TypeMapper{mangler: m, current: current}
}

// CurrentProgram returns the program this mapper is emitting code on behalf
// of (spec §9), letting collaborators resolve identifiers — e.g. a bare
// const-to-const reference — against its declarations.
func (tm *TypeMapper) CurrentProgram() *idl.Program {
	return tm.current
}

func (tm *TypeMapper) namespacePrefix(declaring *idl.Program) string {
	if declaring == nil || declaring == tm.current || declaring.Name == tm.current.Name {
		return ""
	}
	return Snake(declaring.Name) + "::"
}

// TargetType renders t as a Rust type expression.
func (tm *TypeMapper) TargetType(t *idl.Type) string {
	switch t.Kind {
	case idl.KBool:
		return "bool"
	case idl.KI8:
		return "i8"
	case idl.KI16:
		return "i16"
	case idl.KI32:
		return "i32"
	case idl.KI64:
		return "i64"
	case idl.KDouble:
		return "OrderedFloat<f64>"
	case idl.KString:
		return "String"
	case idl.KBinary:
		return "Vec<u8>"
	case idl.KUuid:
		return "Uuid"
	case idl.KVoid:
		return "()"
	case idl.KEnum:
		return tm.namespacePrefix(t.Enum.Program) + Camel(t.Enum.Name)
	case idl.KStruct:
		return tm.namespacePrefix(t.Struct.Program) + Camel(t.Struct.Name)
	case idl.KList:
		return "Vec<" + tm.TargetType(t.Elem) + ">"
	case idl.KSet:
		return "BTreeSet<" + tm.TargetType(t.Elem) + ">"
	case idl.KMap:
		return fmt.Sprintf("BTreeMap<%s, %s>", tm.TargetType(t.Key), tm.TargetType(t.Val))
	case idl.KTypedef:
		name := tm.namespacePrefix(t.Typedef.Program) + Camel(t.Typedef.Name)
		if t.Typedef.Forward {
			return "Box<" + name + ">"
		}
		return name
	default:
		return "()"
	}
}

// FieldType renders the type used for a struct field, applying the optional
// wrapper when req is Optional or OptInReqOut (spec §4.4 bullet 1).
func (tm *TypeMapper) FieldType(t *idl.Type, req idl.Requiredness) string {
	base := tm.TargetType(t)
	if req == idl.Required {
		return base
	}
	return "Option<" + base + ">"
}

// WireTag renders the protocol type-tag identifier written ahead of an
// encoded value of type t (spec §4.2, §6).
func (tm *TypeMapper) WireTag(t *idl.Type) string {
	switch t.Kind {
	case idl.KBool:
		return "TType::Bool"
	case idl.KI8:
		return "TType::I08"
	case idl.KI16:
		return "TType::I16"
	case idl.KI32:
		return "TType::I32"
	case idl.KI64:
		return "TType::I64"
	case idl.KDouble:
		return "TType::Double"
	case idl.KString, idl.KBinary:
		return "TType::String"
	case idl.KUuid:
		return "TType::Uuid"
	case idl.KEnum:
		return "TType::I32"
	case idl.KStruct:
		return "TType::Struct"
	case idl.KList:
		return "TType::List"
	case idl.KSet:
		return "TType::Set"
	case idl.KMap:
		return "TType::Map"
	case idl.KVoid:
		return "TType::Void"
	case idl.KTypedef:
		return tm.WireTag(t.Typedef.Inner)
	default:
		return "TType::Stop"
	}
}

// ZeroDefault returns the Rust expression used to pre-initialize an
// OptInReqOut field's slot, and whether t has one at all. Struct and enum
// types have no zero default — they must be present or absent, never
// synthesized (spec §4.2).
func (tm *TypeMapper) ZeroDefault(t *idl.Type) (expr string, ok bool) {
	switch t.Kind {
	case idl.KBool:
		return "false", true
	case idl.KI8, idl.KI16, idl.KI32, idl.KI64:
		return "0", true
	case idl.KDouble:
		return "OrderedFloat::from(0.0)", true
	case idl.KString:
		return "String::new()", true
	case idl.KBinary:
		return "Vec::new()", true
	case idl.KUuid:
		return "Uuid::nil()", true
	case idl.KList:
		return "Vec::new()", true
	case idl.KSet:
		return "BTreeSet::new()", true
	case idl.KMap:
		return "BTreeMap::new()", true
	case idl.KVoid:
		return "()", true
	case idl.KTypedef:
		if t.Typedef.Forward {
			return "", false
		}
		return tm.ZeroDefault(t.Typedef.Inner)
	default:
		return "", false
	}
}

// IsInlineConst reports whether a constant of type t can be emitted as an
// inline literal (scalars other than floating-point, plus enum-value
// references, which are simple paths) or must be emitted as a
// zero-argument value-holder producer method (anything requiring
// allocation: strings, containers, structs, and floats — spec §4.3).
func (tm *TypeMapper) IsInlineConst(t *idl.Type) bool {
	switch t.Kind {
	case idl.KBool, idl.KI8, idl.KI16, idl.KI32, idl.KI64, idl.KEnum:
		return true
	case idl.KTypedef:
		return tm.IsInlineConst(t.Typedef.Inner)
	default:
		return false
	}
}
