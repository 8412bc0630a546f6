package rustgen

import (
	"strings"

	"github.com/thriftrs/rsgen/idl"
	"github.com/thriftrs/rsgen/internal/codegen/writer"
)

// defaultRuntimeCratePath is the `use` prefix for the runtime protocol
// library when codegen.Options.RuntimeCratePath is left empty.
const defaultRuntimeCratePath = "thrift"

// FileEmitter implements spec §4.7: the generated-file header, the lint
// suppressions named in SPEC_FULL.md §4, the runtime's standard imports,
// and the `use`-import closure over every referenced program.
type FileEmitter struct {
	runtimeCratePath string
}

func NewFileEmitter(runtimeCratePath string) *FileEmitter {
	if runtimeCratePath == "" {
		runtimeCratePath = defaultRuntimeCratePath
	}
	return &FileEmitter{runtimeCratePath: runtimeCratePath}
}

// WriteHeader emits the generated-file header and lint-suppression block.
func (fe *FileEmitter) WriteHeader(w *writer.Writer, p *idl.Program) {
	w.WriteLinef("// Autogenerated by rsgen from %s.thrift.", p.Name)
	w.WriteLine("// DO NOT EDIT.")
	w.BlankLine()
	w.WriteLine("#![allow(unused_imports)]")
	w.WriteLine("#![allow(dead_code)]")
	w.WriteLine("#![allow(non_snake_case)]")
	w.WriteLine("#![allow(unused_variables)]")
	w.WriteLine("#![allow(unused_mut)]")
	w.WriteLine("#![allow(clippy::too_many_arguments)]")
	w.BlankLine()
}

// WriteImports emits the standard runtime-protocol imports plus one
// `use`-import per program in p.ReferencedPrograms, grouped by the
// referenced program's namespace path (spec §4.7, §9 namespace prefixing).
func (fe *FileEmitter) WriteImports(w *writer.Writer, p *idl.Program) {
	w.WriteLinef("use %s::protocol::{", fe.runtimeCratePath)
	w.Indent()
	w.WriteLine("FieldIdentifier, InputProtocol, ListIdentifier, MapIdentifier, MessageIdentifier,")
	w.WriteLine("MessageType, OutputProtocol, SetIdentifier, StructIdentifier, TType,")
	w.Dedent()
	w.WriteLine("};")
	w.WriteLinef("use %s::{", fe.runtimeCratePath)
	w.Indent()
	w.WriteLine("ApplicationError, ApplicationErrorKind, GenericClient, OrderedFloat, ProtocolError,")
	w.WriteLine("ProtocolErrorKind, read_application_error_from_in_protocol, verify_expected_message_type,")
	w.WriteLine("verify_expected_sequence_number, verify_expected_service_call, verify_required_field_exists,")
	w.WriteLine("write_application_error_to_out_protocol,")
	w.Dedent()
	w.WriteLine("};")
	w.WriteLine("use std::collections::{BTreeMap, BTreeSet};")
	w.WriteLine("use std::convert::TryFrom;")
	w.WriteLine("use uuid::Uuid;")

	for _, ref := range p.ReferencedPrograms() {
		w.WriteLinef("use crate::%s;", referencePath(ref))
	}
	w.BlankLine()
}

func referencePath(p *idl.Program) string {
	name := Snake(p.Name)
	if p.Namespace == "" {
		return name + "::*"
	}
	return strings.ReplaceAll(p.Namespace, ".", "::") + "::" + name + "::*"
}

// WriteTypedef emits a plain type alias. Boxing for a forward typedef is
// applied only where the typedef is *referenced* (TypeMapper.TargetType),
// never in the alias definition itself — aliasing to a boxed form of
// itself would be circular.
func WriteTypedef(w *writer.Writer, types *TypeMapper, td *idl.TypedefDef) {
	w.WriteDocComment(td.Name)
	w.WriteLinef("pub type %s = %s;", Camel(td.Name), types.TargetType(td.Inner))
}
