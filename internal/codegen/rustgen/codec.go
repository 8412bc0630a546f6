package rustgen

import (
	"github.com/thriftrs/rsgen/idl"
	"github.com/thriftrs/rsgen/internal/codegen/writer"
)

// CodecEmitter emits the read/write method bodies described in spec §4.5:
// the engine's heart, turning a Struct/Field tree into field-by-field and
// container read/write statements against a generic binary protocol.
type CodecEmitter struct {
	types *TypeMapper
}

func NewCodecEmitter(types *TypeMapper) *CodecEmitter {
	return &CodecEmitter{types: types}
}

// WriteValue emits the statement(s) that write a single value of type t,
// already bound to the borrowed reference expr (e.g. "v", "&self.name"),
// onto o. It errors if t's kind has no write-side codec rule (spec §7).
func (ce *CodecEmitter) WriteValue(w *writer.Writer, t *idl.Type, expr string) error {
	switch t.Kind {
	case idl.KBool:
		w.WriteLinef("o.write_bool(*%s)?;", expr)
	case idl.KI8:
		w.WriteLinef("o.write_i8(*%s)?;", expr)
	case idl.KI16:
		w.WriteLinef("o.write_i16(*%s)?;", expr)
	case idl.KI32:
		w.WriteLinef("o.write_i32(*%s)?;", expr)
	case idl.KI64:
		w.WriteLinef("o.write_i64(*%s)?;", expr)
	case idl.KDouble:
		w.WriteLinef("o.write_double((*%s).into_inner())?;", expr)
	case idl.KString:
		w.WriteLinef("o.write_string(%s)?;", expr)
	case idl.KBinary:
		w.WriteLinef("o.write_bytes(%s)?;", expr)
	case idl.KUuid:
		w.WriteLinef("o.write_uuid(*%s)?;", expr)
	case idl.KEnum:
		w.WriteLinef("o.write_i32(*%s as i32)?;", expr)
	case idl.KStruct:
		w.WriteLinef("%s.write(o)?;", expr)
	case idl.KTypedef:
		return ce.WriteValue(w, t.Typedef.Inner, expr)
	case idl.KList:
		return ce.writeList(w, t, expr, "write_list_begin", "ListIdentifier", "write_list_end")
	case idl.KSet:
		return ce.writeList(w, t, expr, "write_set_begin", "SetIdentifier", "write_set_end")
	case idl.KMap:
		return ce.writeMap(w, t, expr)
	default:
		return errUnsupportedWriteType(expr, t)
	}
	return nil
}

func (ce *CodecEmitter) writeList(w *writer.Writer, t *idl.Type, expr, beginCall, identType, endCall string) error {
	elemVar := w.TempVar("elem")
	w.WriteLinef("o.%s(&%s::new(%s, %s.len() as i32))?;", beginCall, identType, ce.types.WireTag(t.Elem), expr)
	w.WriteLinef("for %s in %s.iter() {", elemVar, expr)
	w.Indent()
	if err := ce.WriteValue(w, t.Elem, elemVar); err != nil {
		return err
	}
	w.Dedent()
	w.WriteLine("}")
	w.WriteLinef("o.%s()?;", endCall)
	return nil
}

func (ce *CodecEmitter) writeMap(w *writer.Writer, t *idl.Type, expr string) error {
	keyVar := w.TempVar("key")
	valVar := w.TempVar("val")
	w.WriteLinef("o.write_map_begin(&MapIdentifier::new(%s, %s, %s.len() as i32))?;", ce.types.WireTag(t.Key), ce.types.WireTag(t.Val), expr)
	w.WriteLinef("for (%s, %s) in %s.iter() {", keyVar, valVar, expr)
	w.Indent()
	if err := ce.WriteValue(w, t.Key, keyVar); err != nil {
		return err
	}
	if err := ce.WriteValue(w, t.Val, valVar); err != nil {
		return err
	}
	w.Dedent()
	w.WriteLine("}")
	w.WriteLine("o.write_map_end()?;")
	return nil
}

// ReadValue emits the statement(s) needed to read a single value of type t
// from i, and returns the name of the local variable now holding it. It
// errors if t's kind has no read-side codec rule (spec §7).
func (ce *CodecEmitter) ReadValue(w *writer.Writer, t *idl.Type) (string, error) {
	switch t.Kind {
	case idl.KBool:
		return ce.readScalar(w, "read_bool"), nil
	case idl.KI8:
		return ce.readScalar(w, "read_i8"), nil
	case idl.KI16:
		return ce.readScalar(w, "read_i16"), nil
	case idl.KI32:
		return ce.readScalar(w, "read_i32"), nil
	case idl.KI64:
		return ce.readScalar(w, "read_i64"), nil
	case idl.KString:
		return ce.readScalar(w, "read_string"), nil
	case idl.KBinary:
		return ce.readScalar(w, "read_bytes"), nil
	case idl.KUuid:
		return ce.readScalar(w, "read_uuid"), nil
	case idl.KDouble:
		v := w.TempVar("val")
		w.WriteLinef("let %s = OrderedFloat(i.read_double()?);", v)
		return v, nil
	case idl.KEnum:
		v := w.TempVar("val")
		w.WriteLinef("let %s = %s::try_from(i.read_i32()?)?;", v, Camel(t.Enum.Name))
		return v, nil
	case idl.KStruct:
		v := w.TempVar("val")
		w.WriteLinef("let %s = %s::read(i)?;", v, ce.types.TargetType(t))
		return v, nil
	case idl.KTypedef:
		inner, err := ce.ReadValue(w, t.Typedef.Inner)
		if err != nil {
			return "", err
		}
		if t.Typedef.Forward {
			boxed := w.TempVar("boxed")
			w.WriteLinef("let %s = Box::new(%s);", boxed, inner)
			return boxed, nil
		}
		return inner, nil
	case idl.KList:
		return ce.readContainer(w, t, "List", "Vec::with_capacity", "push")
	case idl.KSet:
		return ce.readContainer(w, t, "Set", "", "insert")
	case idl.KMap:
		return ce.readMap(w, t)
	default:
		return "", errUnsupportedWriteType("read", t)
	}
}

func (ce *CodecEmitter) readScalar(w *writer.Writer, call string) string {
	v := w.TempVar("val")
	w.WriteLinef("let %s = i.%s()?;", v, call)
	return v
}

func (ce *CodecEmitter) readContainer(w *writer.Writer, t *idl.Type, kind, capacityCtor, pushMethod string) (string, error) {
	ident := w.TempVar(lowerKind(kind) + "_ident")
	w.WriteLinef("let %s = i.read_%s_begin()?;", ident, lowerKind(kind))

	val := w.TempVar("val")
	target := ce.types.TargetType(t)
	if capacityCtor != "" {
		w.WriteLinef("let mut %s: %s = %s(%s.size as usize);", val, target, capacityCtor, ident)
	} else {
		w.WriteLinef("let mut %s: %s = BTree%s::new();", val, target, kind)
	}

	w.WriteLinef("for _ in 0..%s.size {", ident)
	w.Indent()
	elem, err := ce.ReadValue(w, t.Elem)
	if err != nil {
		return "", err
	}
	w.WriteLinef("%s.%s(%s);", val, pushMethod, elem)
	w.Dedent()
	w.WriteLine("}")
	w.WriteLinef("i.read_%s_end()?;", lowerKind(kind))
	return val, nil
}

func (ce *CodecEmitter) readMap(w *writer.Writer, t *idl.Type) (string, error) {
	ident := w.TempVar("map_ident")
	w.WriteLinef("let %s = i.read_map_begin()?;", ident)

	val := w.TempVar("val")
	target := ce.types.TargetType(t)
	w.WriteLinef("let mut %s: %s = BTreeMap::new();", val, target)

	w.WriteLinef("for _ in 0..%s.size {", ident)
	w.Indent()
	key, err := ce.ReadValue(w, t.Key)
	if err != nil {
		return "", err
	}
	value, err := ce.ReadValue(w, t.Val)
	if err != nil {
		return "", err
	}
	w.WriteLinef("%s.insert(%s, %s);", val, key, value)
	w.Dedent()
	w.WriteLine("}")
	w.WriteLine("i.read_map_end()?;")
	return val, nil
}

func lowerKind(kind string) string {
	switch kind {
	case "List":
		return "list"
	case "Set":
		return "set"
	default:
		return "map"
	}
}
