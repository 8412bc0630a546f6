package rustgen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/thriftrs/rsgen/idl"
	"github.com/thriftrs/rsgen/internal/codegen/writer"
)

// ConstEmitter decides, per spec §4.3, whether a declared `const` can be
// emitted as an inline literal or must be lifted into a zero-argument
// value-holder producer method — anything requiring allocation (strings,
// containers, structs, floats) takes the holder form. Struct and union
// constants are emitted as holders whose method body is `unimplemented!()`,
// preserving the source generator's deliberate limitation (spec §9).
type ConstEmitter struct {
	types *TypeMapper
}

func NewConstEmitter(types *TypeMapper) *ConstEmitter {
	return &ConstEmitter{types: types}
}

// Emit writes c's Rust representation to w.
func (ce *ConstEmitter) Emit(w *writer.Writer, c *idl.Const) error {
	if ce.types.IsInlineConst(c.Type) {
		lit, err := ce.literal(c.Type, c.Value)
		if err != nil {
			return wrapGenError(err, "const %s", c.Name)
		}
		w.WriteLinef("pub const %s: %s = %s;", Upper(c.Name), ce.types.TargetType(c.Type), lit)
		return nil
	}

	holder := "ConstHolder" + Camel(c.Name)
	w.WriteLinef("pub struct %s;", holder)
	w.BlankLine()
	w.WriteLinef("impl %s {", holder)
	w.Indent()
	w.WriteLinef("pub fn value() -> %s {", ce.types.TargetType(c.Type))
	w.Indent()
	if c.Value != nil && c.Value.Kind == idl.CVStruct {
		w.WriteLine("unimplemented!()")
	} else {
		lit, err := ce.literal(c.Type, c.Value)
		if err != nil {
			return wrapGenError(err, "const %s", c.Name)
		}
		w.WriteLinef("%s", lit)
	}
	w.Dedent()
	w.WriteLine("}")
	w.Dedent()
	w.WriteLine("}")
	return nil
}

func (ce *ConstEmitter) literal(t *idl.Type, v *idl.ConstValue) (string, error) {
	if v == nil {
		return "", genError("const literal missing for type kind %d", t.Kind)
	}

	resolved := t.Resolve()

	switch v.Kind {
	case idl.CVBool:
		if v.Bool {
			return "true", nil
		}
		return "false", nil

	case idl.CVInt:
		return strconv.FormatInt(v.Int, 10), nil

	case idl.CVDouble:
		lit := strconv.FormatFloat(v.Double, 'g', -1, 64)
		if resolved.Kind == idl.KDouble {
			return fmt.Sprintf("OrderedFloat(%s)", lit), nil
		}
		return lit, nil

	case idl.CVString:
		if resolved.Kind == idl.KUuid {
			if _, err := uuid.Parse(v.Str); err != nil {
				return "", genError("uuid const literal %q is not a valid UUID: %s", v.Str, err)
			}
			return fmt.Sprintf("Uuid::parse_str(%s).unwrap()", strconv.Quote(v.Str)), nil
		}
		quoted := strconv.Quote(v.Str)
		if resolved.Kind == idl.KBinary {
			return quoted + ".as_bytes().to_vec()", nil
		}
		return quoted + ".to_string()", nil

	case idl.CVIdentifier:
		parts := strings.SplitN(v.Ident, ".", 2)
		if len(parts) == 2 {
			return Camel(parts[0]) + "::" + EnumVariant(parts[1]), nil
		}
		return ce.constReference(v.Ident)

	case idl.CVList:
		elems, err := ce.literalSlice(resolved.Elem, v.List)
		if err != nil {
			return "", err
		}
		return "vec![" + strings.Join(elems, ", ") + "]", nil

	case idl.CVSet:
		elems, err := ce.literalSlice(resolved.Elem, v.List)
		if err != nil {
			return "", err
		}
		return "BTreeSet::from([" + strings.Join(elems, ", ") + "])", nil

	case idl.CVMap:
		var entries []string
		for _, e := range v.Map {
			k, err := ce.literal(resolved.Key, e.Key)
			if err != nil {
				return "", err
			}
			val, err := ce.literal(resolved.Val, e.Val)
			if err != nil {
				return "", err
			}
			entries = append(entries, fmt.Sprintf("(%s, %s)", k, val))
		}
		return "BTreeMap::from([" + strings.Join(entries, ", ") + "])", nil

	case idl.CVStruct:
		return "unimplemented!()", nil

	default:
		return "", errUnsupportedConstType("<literal>", t)
	}
}

// constReference resolves a bare (non-dotted) CVIdentifier value against the
// current program's own const declarations (idl/model.go's CVIdentifier doc:
// "a reference to an enum value or another const, by name"). It renders as
// the other const's name directly if that const is inline, or a call into
// its value-holder otherwise.
func (ce *ConstEmitter) constReference(name string) (string, error) {
	prog := ce.types.CurrentProgram()
	if prog != nil {
		for _, c := range prog.Consts {
			if c.Name != name {
				continue
			}
			if ce.types.IsInlineConst(c.Type) {
				return Upper(c.Name), nil
			}
			return "ConstHolder" + Camel(c.Name) + "::value()", nil
		}
	}
	return "", genError("unresolved const reference %q", name)
}

func (ce *ConstEmitter) literalSlice(elemType *idl.Type, vs []*idl.ConstValue) ([]string, error) {
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		lit, err := ce.literal(elemType, v)
		if err != nil {
			return nil, err
		}
		out = append(out, lit)
	}
	return out, nil
}
