package rustgen

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/thriftrs/rsgen/idl"
	"github.com/thriftrs/rsgen/internal/codegen/writer"
)

// ServiceEmitter implements spec §4.6: client trait/impl, marker-trait
// chain for extension, the synthesized args/result structs, the processor
// dispatcher, the handler trait, and the ProcessFunctions auxiliary
// dispatch type (spec §9 / SPEC_FULL.md §4).
type ServiceEmitter struct {
	types   *TypeMapper
	mangler *Mangler
	structs *StructEmitter
	codec   *CodecEmitter
	log     zerolog.Logger
}

func NewServiceEmitter(types *TypeMapper, mangler *Mangler, structs *StructEmitter, log zerolog.Logger) *ServiceEmitter {
	return &ServiceEmitter{types: types, mangler: mangler, structs: structs, codec: NewCodecEmitter(types), log: log}
}

func (se *ServiceEmitter) fnName(fn *idl.Function) string {
	return se.mangler.Safe(Snake(fn.Name))
}

func (se *ServiceEmitter) returnType(fn *idl.Function) string {
	if fn.ReturnType == nil || fn.ReturnType.Kind == idl.KVoid {
		return "()"
	}
	return se.types.TargetType(fn.ReturnType)
}

func (se *ServiceEmitter) argParams(fn *idl.Function) []string {
	var params []string
	for _, f := range fn.Args.SortedFields() {
		params = append(params, fmt.Sprintf("%s: %s", se.mangler.Safe(Snake(f.Name)), se.types.TargetType(f.Type)))
	}
	return params
}

func (se *ServiceEmitter) argNames(fn *idl.Function) []string {
	var names []string
	for _, f := range fn.Args.SortedFields() {
		names = append(names, se.mangler.Safe(Snake(f.Name)))
	}
	return names
}

// resultStruct synthesizes the result-flavor struct for fn: an optional
// return-value slot plus every declared exception field, all effectively
// optional (spec §4.4 bullet 1, §4.6 bullet 9).
func (se *ServiceEmitter) resultStruct(fn *idl.Function) (*idl.StructDef, error) {
	name := fn.Name + "_result"
	if err := checkResultStructName(name); err != nil {
		return nil, err
	}

	var fields []*idl.Field
	if fn.ReturnType != nil && fn.ReturnType.Kind != idl.KVoid {
		fields = append(fields, &idl.Field{ID: 0, Name: "result_value", Type: fn.ReturnType, Req: idl.Optional})
	}
	if fn.Exceptions != nil {
		fields = append(fields, fn.Exceptions.Fields...)
	}
	return &idl.StructDef{Name: name, Fields: fields, Role: idl.RoleResult, Owner: fn}, nil
}

func checkResultStructName(name string) error {
	if !strings.HasSuffix(name, "_result") {
		return errResultStructName(name)
	}
	return nil
}

type ownedFunction struct {
	fn  *idl.Function
	svc *idl.Service
}

// ownedFunctions flattens s's own and inherited functions in the same
// parents-before-children order as idl.Service.AllFunctions, additionally
// recording which service originally declared each one.
func ownedFunctions(s *idl.Service) []ownedFunction {
	ancestors := s.Ancestors()
	var out []ownedFunction
	for i := len(ancestors) - 1; i >= 0; i-- {
		anc := ancestors[i]
		for _, fn := range anc.Functions {
			out = append(out, ownedFunction{fn: fn, svc: anc})
		}
	}
	for _, fn := range s.Functions {
		out = append(out, ownedFunction{fn: fn, svc: s})
	}
	return out
}

// Emit emits every type and impl described by spec §4.6 for s.
func (se *ServiceEmitter) Emit(w *writer.Writer, s *idl.Service) error {
	se.log.Debug().Str("service", s.Name).Msg("emitting service")

	name := Camel(s.Name)
	clientTrait := "T" + name + "SyncClient"
	markerTrait := "T" + name + "SyncClientMarker"
	clientImpl := name + "SyncClient"
	handlerTrait := name + "SyncHandler"
	processorName := name + "SyncProcessor"
	processFns := "T" + name + "ProcessFunctions"

	ancestors := s.Ancestors()

	if err := se.emitArgsAndResultStructs(w, s); err != nil {
		return err
	}

	se.emitClientTrait(w, s, name, clientTrait)
	w.BlankLine()
	se.emitMarkerTrait(w, markerTrait)
	w.BlankLine()
	se.emitClientImpl(w, s, name, clientImpl, markerTrait, ancestors)
	w.BlankLine()
	se.emitBlanketImpl(w, s, clientTrait, markerTrait, ancestors)
	w.BlankLine()
	se.emitHandlerTrait(w, s, name, handlerTrait)
	w.BlankLine()
	se.emitProcessor(w, s, name, processorName, handlerTrait, processFns)
	w.BlankLine()
	se.emitProcessFunctions(w, s, processFns, handlerTrait)

	return nil
}

func (se *ServiceEmitter) emitArgsAndResultStructs(w *writer.Writer, s *idl.Service) error {
	for _, fn := range s.Functions {
		if err := se.structs.EmitStructAs(w, fn.Args, idl.RoleArgs, fn); err != nil {
			return err
		}
		w.BlankLine()
		result, err := se.resultStruct(fn)
		if err != nil {
			return err
		}
		if err := se.structs.EmitStructAs(w, result, idl.RoleResult, fn); err != nil {
			return err
		}
		w.BlankLine()
	}
	return nil
}

func (se *ServiceEmitter) emitClientTrait(w *writer.Writer, s *idl.Service, name, clientTrait string) {
	w.WriteDocComment(s.Name)
	if s.Extends != nil {
		w.WriteLinef("pub trait %s: T%sSyncClient {", clientTrait, Camel(s.Extends.Name))
	} else {
		w.WriteLinef("pub trait %s {", clientTrait)
	}
	w.Indent()
	for _, fn := range s.Functions {
		w.WriteDocComment(fn.Doc)
		w.WriteLinef("fn %s(&mut self, %s) -> thrift::Result<%s>;", se.fnName(fn), strings.Join(se.argParams(fn), ", "), se.returnType(fn))
	}
	w.Dedent()
	w.WriteLine("}")
}

func (se *ServiceEmitter) emitMarkerTrait(w *writer.Writer, markerTrait string) {
	w.WriteComment("Tags a concrete client as eligible for the blanket " + strings.TrimSuffix(markerTrait, "Marker") + " impl.")
	w.WriteLinef("pub trait %s {}", markerTrait)
}

func (se *ServiceEmitter) emitClientImpl(w *writer.Writer, s *idl.Service, name, clientImpl, markerTrait string, ancestors []*idl.Service) {
	w.WriteLinef("pub struct %s<IP, OP> where IP: InputProtocol, OP: OutputProtocol {", clientImpl)
	w.Indent()
	w.WriteLine("i_prot: IP,")
	w.WriteLine("o_prot: OP,")
	w.WriteLine("sequence_number: i32,")
	w.Dedent()
	w.WriteLine("}")
	w.BlankLine()

	w.WriteLinef("impl<IP, OP> %s<IP, OP> where IP: InputProtocol, OP: OutputProtocol {", clientImpl)
	w.Indent()
	w.WriteLinef("pub fn new(input_protocol: IP, output_protocol: OP) -> %s<IP, OP> {", clientImpl)
	w.Indent()
	w.WriteLinef("%s { i_prot: input_protocol, o_prot: output_protocol, sequence_number: 0 }", clientImpl)
	w.Dedent()
	w.WriteLine("}")
	w.Dedent()
	w.WriteLine("}")
	w.BlankLine()

	w.WriteLinef("impl<IP, OP> GenericClient for %s<IP, OP> where IP: InputProtocol, OP: OutputProtocol {", clientImpl)
	w.Indent()
	w.WriteLine("fn i_prot_mut(&mut self) -> &mut dyn InputProtocol { &mut self.i_prot }")
	w.WriteLine("fn o_prot_mut(&mut self) -> &mut dyn OutputProtocol { &mut self.o_prot }")
	w.WriteLine("fn sequence_number(&self) -> i32 { self.sequence_number }")
	w.WriteLine("fn increment_sequence_number(&mut self) -> i32 { self.sequence_number += 1; self.sequence_number }")
	w.Dedent()
	w.WriteLine("}")
	w.BlankLine()

	w.WriteLinef("impl<IP, OP> %s for %s<IP, OP> where IP: InputProtocol, OP: OutputProtocol {}", markerTrait, clientImpl)
	for _, anc := range ancestors {
		w.WriteLinef("impl<IP, OP> T%sSyncClientMarker for %s<IP, OP> where IP: InputProtocol, OP: OutputProtocol {}", Camel(anc.Name), clientImpl)
	}
}

func (se *ServiceEmitter) emitBlanketImpl(w *writer.Writer, s *idl.Service, clientTrait, markerTrait string, ancestors []*idl.Service) {
	bounds := []string{"GenericClient", markerTrait}
	for _, anc := range ancestors {
		bounds = append(bounds, "T"+Camel(anc.Name)+"SyncClientMarker")
	}
	w.WriteLinef("impl<C: %s> %s for C {", strings.Join(bounds, " + "), clientTrait)
	w.Indent()
	for _, fn := range s.Functions {
		se.emitClientMethod(w, fn)
	}
	w.Dedent()
	w.WriteLine("}")
}

func (se *ServiceEmitter) emitClientMethod(w *writer.Writer, fn *idl.Function) {
	w.WriteLinef("fn %s(&mut self, %s) -> thrift::Result<%s> {", se.fnName(fn), strings.Join(se.argParams(fn), ", "), se.returnType(fn))
	w.Indent()

	msgType := "MessageType::Call"
	if fn.Oneway {
		msgType = "MessageType::OneWay"
	}
	w.WriteLine("self.increment_sequence_number();")
	w.WriteLinef(`let message_ident = MessageIdentifier::new("%s", %s, self.sequence_number());`, fn.Name, msgType)
	w.WriteLine("self.o_prot_mut().write_message_begin(&message_ident)?;")
	w.WriteLinef("let call_args = %s::new(%s);", Camel(fn.Name+"_args"), strings.Join(se.argNames(fn), ", "))
	w.WriteLine("call_args.write(self.o_prot_mut())?;")
	w.WriteLine("self.o_prot_mut().write_message_end()?;")
	w.WriteLine("self.o_prot_mut().flush()?;")

	if fn.Oneway {
		w.WriteLine("Ok(())")
		w.Dedent()
		w.WriteLine("}")
		return
	}

	w.WriteLine("let message_ident = self.i_prot_mut().read_message_begin()?;")
	w.WriteLine("verify_expected_sequence_number(self.sequence_number(), message_ident.sequence_number)?;")
	w.WriteLinef(`verify_expected_service_call("%s", &message_ident.name)?;`, fn.Name)
	w.WriteLine("match message_ident.message_type {")
	w.Indent()
	w.WriteLine("MessageType::Exception => {")
	w.Indent()
	w.WriteLine("let app_err = read_application_error_from_in_protocol(self.i_prot_mut())?;")
	w.WriteLine("self.i_prot_mut().read_message_end()?;")
	w.WriteLine("Err(thrift::Error::Application(app_err))")
	w.Dedent()
	w.WriteLine("},")
	w.WriteLine("_ => {")
	w.Indent()
	w.WriteLine("verify_expected_message_type(MessageType::Reply, message_ident.message_type)?;")
	w.WriteLinef("let result = %s::read(self.i_prot_mut())?;", Camel(fn.Name+"_result"))
	w.WriteLine("self.i_prot_mut().read_message_end()?;")
	w.WriteLine("result.ok_or()")
	w.Dedent()
	w.WriteLine("},")
	w.Dedent()
	w.WriteLine("}")
	w.Dedent()
	w.WriteLine("}")
}

func (se *ServiceEmitter) emitHandlerTrait(w *writer.Writer, s *idl.Service, name, handlerTrait string) {
	w.WriteDocComment(s.Name)
	if s.Extends != nil {
		w.WriteLinef("pub trait %s: %sSyncHandler {", handlerTrait, Camel(s.Extends.Name))
	} else {
		w.WriteLinef("pub trait %s {", handlerTrait)
	}
	w.Indent()
	for _, fn := range s.Functions {
		w.WriteLinef("fn handle_%s(&self, %s) -> thrift::Result<%s>;", se.fnName(fn), strings.Join(se.argParams(fn), ", "), se.returnType(fn))
	}
	w.Dedent()
	w.WriteLine("}")
}

func (se *ServiceEmitter) emitProcessor(w *writer.Writer, s *idl.Service, name, processorName, handlerTrait, processFns string) {
	w.WriteDocComment(s.Name)
	w.WriteLinef("pub struct %s<H: %s> {", processorName, handlerTrait)
	w.Indent()
	w.WriteLine("handler: H,")
	w.Dedent()
	w.WriteLine("}")
	w.BlankLine()

	w.WriteLinef("impl<H: %s> %s<H> {", handlerTrait, processorName)
	w.Indent()
	w.WriteLinef("pub fn new(handler: H) -> %s<H> {", processorName)
	w.Indent()
	w.WriteLinef("%s { handler }", processorName)
	w.Dedent()
	w.WriteLine("}")
	w.BlankLine()

	w.WriteLine("pub fn process(&self, i: &mut dyn InputProtocol, o: &mut dyn OutputProtocol) -> thrift::Result<()> {")
	w.Indent()
	w.WriteLine("let message_ident = i.read_message_begin()?;")
	w.WriteLine("match &message_ident.name[..] {")
	w.Indent()
	for _, of := range ownedFunctions(s) {
		ownerFns := "T" + Camel(of.svc.Name) + "ProcessFunctions"
		w.WriteLinef(`"%s" => %s::%s(&self.handler, message_ident.sequence_number, i, o),`, of.fn.Name, ownerFns, "process_"+se.fnName(of.fn))
	}
	w.WriteLine("method => {")
	w.Indent()
	w.WriteLine("i.skip(TType::Struct)?;")
	w.WriteLine("i.read_message_end()?;")
	w.WriteLinef(`let app_err = ApplicationError::new(ApplicationErrorKind::UnknownMethod, format!("unknown method {}", method));`)
	w.WriteLine(`o.write_message_begin(&MessageIdentifier::new(method, MessageType::Exception, message_ident.sequence_number))?;`)
	w.WriteLine("write_application_error_to_out_protocol(&app_err, o)?;")
	w.WriteLine("o.write_message_end()?;")
	w.WriteLine("o.flush()?;")
	w.WriteLine("Err(thrift::Error::Application(app_err))")
	w.Dedent()
	w.WriteLine("},")
	w.Dedent()
	w.WriteLine("}")
	w.Dedent()
	w.WriteLine("}")
	w.Dedent()
	w.WriteLine("}")
}

func (se *ServiceEmitter) emitProcessFunctions(w *writer.Writer, s *idl.Service, processFns, handlerTrait string) {
	w.WriteComment("Auxiliary static-dispatch type shared by this service's processor and any descendant service's processor (spec §4.6 bullet 8).")
	w.WriteLinef("pub struct %s;", processFns)
	w.BlankLine()
	w.WriteLinef("impl %s {", processFns)
	w.Indent()
	for i, fn := range s.Functions {
		if i > 0 {
			w.BlankLine()
		}
		se.emitProcessFunction(w, fn, handlerTrait)
	}
	w.Dedent()
	w.WriteLine("}")
}

func (se *ServiceEmitter) emitProcessFunction(w *writer.Writer, fn *idl.Function, handlerTrait string) {
	argsName := Camel(fn.Name + "_args")
	resultName := Camel(fn.Name + "_result")

	w.WriteLinef("pub fn process_%s<H: %s>(handler: &H, incoming_sequence_number: i32, i: &mut dyn InputProtocol, o: &mut dyn OutputProtocol) -> thrift::Result<()> {", se.fnName(fn), handlerTrait)
	w.Indent()
	w.WriteLinef("let args = %s::read(i)?;", argsName)
	w.WriteLine("i.read_message_end()?;")

	callArgs := make([]string, 0, len(fn.Args.Fields))
	for _, f := range fn.Args.SortedFields() {
		callArgs = append(callArgs, "args."+se.mangler.Safe(Snake(f.Name)))
	}
	w.WriteLinef("match handler.handle_%s(%s) {", se.fnName(fn), strings.Join(callArgs, ", "))
	w.Indent()

	hasReturn := fn.ReturnType != nil && fn.ReturnType.Kind != idl.KVoid

	// Success
	w.WriteLine("Ok(return_value) => {")
	w.Indent()
	if fn.Oneway {
		w.WriteLine("let _ = return_value;")
		w.WriteLine("Ok(())")
	} else {
		resultArgs := "()"
		if hasReturn {
			resultArgs = "return_value"
		}
		w.WriteLinef("let result = %s { %s };", resultName, se.resultNewArgs(fn, hasReturn, resultArgs))
		se.emitWriteReply(w, fn.Name)
	}
	w.Dedent()
	w.WriteLine("},")

	// User error: downcast to each declared exception in declaration order
	w.WriteLine("Err(thrift::Error::User(e)) => {")
	w.Indent()
	if fn.Exceptions != nil {
		for _, ef := range fn.Exceptions.Fields {
			excType := se.types.TargetType(ef.Type)
			w.WriteLinef("if let Some(concrete) = e.downcast_ref::<%s>() {", excType)
			w.Indent()
			if fn.Oneway {
				w.WriteLine("return Ok(());")
			} else {
				fields := se.resultExceptionArgs(fn, ef)
				w.WriteLinef("let result = %s { %s };", resultName, fields)
				se.emitWriteReply(w, fn.Name)
				w.WriteLine("return Ok(());")
			}
			w.Dedent()
			w.WriteLine("}")
		}
	}
	w.WriteLine(`let app_err = ApplicationError::new(ApplicationErrorKind::Unknown, e.to_string());`)
	if fn.Oneway {
		w.WriteLine("Err(thrift::Error::Application(app_err))")
	} else {
		se.emitWriteException(w, fn.Name)
	}
	w.Dedent()
	w.WriteLine("},")

	// Application error
	w.WriteLine("Err(thrift::Error::Application(app_err)) => {")
	w.Indent()
	if fn.Oneway {
		w.WriteLine("Err(thrift::Error::Application(app_err))")
	} else {
		se.emitWriteException(w, fn.Name)
	}
	w.Dedent()
	w.WriteLine("},")

	// Other error
	w.WriteLine("Err(e) => {")
	w.Indent()
	w.WriteLine(`let app_err = ApplicationError::new(ApplicationErrorKind::Unknown, e.to_string());`)
	if fn.Oneway {
		w.WriteLine("Err(thrift::Error::Application(app_err))")
	} else {
		se.emitWriteException(w, fn.Name)
	}
	w.Dedent()
	w.WriteLine("},")

	w.Dedent()
	w.WriteLine("}")
	w.Dedent()
	w.WriteLine("}")
}

// resultNewArgs builds a named-field literal body for the result struct
// ("field: expr, field: expr, ..."), rather than a positional argument
// list, so the emitted call site stays correct regardless of the
// declaration order of fn's exception fields (a struct literal binds by
// name, a constructor call binds by position).
func (se *ServiceEmitter) resultNewArgs(fn *idl.Function, hasReturn bool, resultExpr string) string {
	var parts []string
	if hasReturn {
		parts = append(parts, fmt.Sprintf("result_value: Some(%s)", resultExpr))
	}
	if fn.Exceptions != nil {
		for _, ef := range fn.Exceptions.Fields {
			parts = append(parts, fmt.Sprintf("%s: None", se.mangler.Safe(Snake(ef.Name))))
		}
	}
	return strings.Join(parts, ", ")
}

func (se *ServiceEmitter) resultExceptionArgs(fn *idl.Function, matched *idl.Field) string {
	var parts []string
	hasReturn := fn.ReturnType != nil && fn.ReturnType.Kind != idl.KVoid
	if hasReturn {
		parts = append(parts, "result_value: None")
	}
	if fn.Exceptions != nil {
		for _, ef := range fn.Exceptions.Fields {
			name := se.mangler.Safe(Snake(ef.Name))
			if ef.ID == matched.ID {
				parts = append(parts, fmt.Sprintf("%s: Some(concrete.clone())", name))
			} else {
				parts = append(parts, fmt.Sprintf("%s: None", name))
			}
		}
	}
	return strings.Join(parts, ", ")
}

func (se *ServiceEmitter) emitWriteReply(w *writer.Writer, originalName string) {
	w.WriteLinef(`o.write_message_begin(&MessageIdentifier::new("%s", MessageType::Reply, incoming_sequence_number))?;`, originalName)
	w.WriteLine("result.write(o)?;")
	w.WriteLine("o.write_message_end()?;")
	w.WriteLine("o.flush()")
}

func (se *ServiceEmitter) emitWriteException(w *writer.Writer, originalName string) {
	w.WriteLinef(`o.write_message_begin(&MessageIdentifier::new("%s", MessageType::Exception, incoming_sequence_number))?;`, originalName)
	w.WriteLine("write_application_error_to_out_protocol(&app_err, o)?;")
	w.WriteLine("o.write_message_end()?;")
	w.WriteLine("o.flush()?;")
	w.WriteLine("Err(thrift::Error::Application(app_err))")
}
