// Package idl is the in-memory representation of a parsed Thrift-style IDL
// program tree. The lexer/parser/semantic analyzer that produces this tree
// lives elsewhere; this package only describes its shape.
package idl

// Requiredness is a field's declared optionality.
type Requiredness int

const (
	Required Requiredness = iota
	Optional
	OptInReqOut
)

func (r Requiredness) String() string {
	switch r {
	case Required:
		return "required"
	case Optional:
		return "optional"
	case OptInReqOut:
		return "opt-in-req-out"
	default:
		return "unknown"
	}
}

// StructFlavor distinguishes the three declared shapes a Struct can take.
type StructFlavor int

const (
	FlavorStruct StructFlavor = iota
	FlavorUnion
	FlavorException
)

// RPCRole marks a struct synthesized by the service emitter to carry a
// function's arguments or its result. It never appears on a struct the IDL
// author declared directly.
type RPCRole int

const (
	RoleNone RPCRole = iota
	RoleArgs
	RoleResult
)

// TypeKind tags the variant held by a Type value.
type TypeKind int

const (
	KBool TypeKind = iota
	KI8
	KI16
	KI32
	KI64
	KDouble
	KString
	KBinary
	KUuid
	KVoid
	KEnum
	KStruct
	KList
	KSet
	KMap
	KTypedef
)

// Type is a tagged variant over the IDL type algebra. Exactly the fields
// relevant to Kind are populated; the zero value of the others is ignored.
type Type struct {
	Kind TypeKind

	Enum    *EnumDef   // Kind == KEnum
	Struct  *StructDef // Kind == KStruct
	Typedef *TypedefDef // Kind == KTypedef

	Elem *Type // Kind == KList | KSet (a Typedef's inner type is Typedef.Inner)
	Key  *Type // Kind == KMap
	Val  *Type // Kind == KMap
}

// IsBase reports whether t is one of the Thrift base types (not counting Void).
func (t *Type) IsBase() bool {
	switch t.Kind {
	case KBool, KI8, KI16, KI32, KI64, KDouble, KString, KBinary, KUuid:
		return true
	default:
		return false
	}
}

// Resolve follows non-forward typedefs to the underlying type. A forward
// typedef resolves to itself — its recursion is intentional and must be
// broken with heap indirection by the emitter, not by this helper.
func (t *Type) Resolve() *Type {
	for t.Kind == KTypedef && !t.Typedef.Forward {
		t = t.Typedef.Inner
	}
	return t
}

// EnumDef is a declared enum type.
type EnumDef struct {
	Name    string
	Doc     string
	Values  []EnumValue
	Program *Program // declaring program, for namespace prefixing
}

// EnumValue is a single named, integer-valued enum member.
type EnumValue struct {
	Name  string
	Value int32
	Doc   string
}

// TypedefDef is a declared type alias. Forward is true when the alias
// participates in a recursive cycle (directly or transitively through a
// struct it is a field of); the emitter must box such references.
type TypedefDef struct {
	Name    string
	Inner   *Type
	Forward bool
	Program *Program
}

// Field is a single member of a StructDef.
type Field struct {
	ID      int32
	Name    string
	Type    *Type
	Req     Requiredness
	Default *ConstValue // nil if no default literal was declared
	Doc     string
}

// StructDef is a struct, union, or exception declaration, or (when Role is
// non-zero) a struct synthesized by the service emitter.
type StructDef struct {
	Name    string
	Doc     string
	Flavor  StructFlavor
	Role    RPCRole
	Fields  []*Field
	Program *Program

	// Owner is set iff Role is RoleArgs or RoleResult: the Function this
	// struct was synthesized to carry the arguments or result of.
	Owner *Function
}

// SortedFields returns Fields ordered by ascending field ID. The result is a
// new slice; Fields itself is left untouched.
func (s *StructDef) SortedFields() []*Field {
	out := make([]*Field, len(s.Fields))
	copy(out, s.Fields)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1].ID > out[j].ID; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

// EffectiveReq returns the optionality the emitter should use for f given
// the owning struct's RPC role: args flavor forces every field required,
// result flavor forces every field optional, everything else uses the
// field's own declared requiredness.
func (s *StructDef) EffectiveReq(f *Field) Requiredness {
	switch s.Role {
	case RoleArgs:
		return Required
	case RoleResult:
		return Optional
	default:
		return f.Req
	}
}

// AllFieldsOptional reports whether every field of s is effectively
// optional, the condition under which a Default::default() impl can be
// derived.
func (s *StructDef) AllFieldsOptional() bool {
	for _, f := range s.Fields {
		req := s.EffectiveReq(f)
		if req == Required {
			return false
		}
	}
	return true
}

// ConstValueKind tags the variant held by a ConstValue.
type ConstValueKind int

const (
	CVBool ConstValueKind = iota
	CVInt
	CVDouble
	CVString
	CVIdentifier // a reference to an enum value or another const, by name
	CVList
	CVSet
	CVMap
	CVStruct // struct/union literal — unsupported, see spec §4.3/§9
)

// ConstValue is a node in a recursive constant-literal tree.
type ConstValue struct {
	Kind ConstValueKind

	Bool   bool
	Int    int64
	Double float64
	Str    string
	Ident  string

	List []*ConstValue     // CVList, CVSet
	Map  []ConstMapEntry   // CVMap
	Flds map[string]*ConstValue // CVStruct
}

// ConstMapEntry is one key/value pair of a CVMap literal.
type ConstMapEntry struct {
	Key *ConstValue
	Val *ConstValue
}

// Const is a top-level `const` declaration.
type Const struct {
	Name    string
	Type    *Type
	Value   *ConstValue
	Program *Program
}

// Function is a single RPC method of a Service.
type Function struct {
	Name       string
	ReturnType *Type // nil means void
	Args       *StructDef
	Exceptions *StructDef // fields are the declared `throws` exceptions
	Oneway     bool
	Doc        string
}

// Service is a declared `service`, optionally extending another.
type Service struct {
	Name      string
	Doc       string
	Extends   *Service
	Functions []*Function
	Program   *Program
}

// Ancestors returns Extends, Extends.Extends, ... in nearest-first order.
func (s *Service) Ancestors() []*Service {
	var out []*Service
	for p := s.Extends; p != nil; p = p.Extends {
		out = append(out, p)
	}
	return out
}

// AllFunctions returns this service's own functions preceded by every
// ancestor's, parents before children, each service's functions in
// declaration order — the flattened dispatch order the processor and
// service-trait emitters require (spec §5).
func (s *Service) AllFunctions() []*Function {
	ancestors := s.Ancestors()
	var out []*Function
	for i := len(ancestors) - 1; i >= 0; i-- {
		out = append(out, ancestors[i].Functions...)
	}
	out = append(out, s.Functions...)
	return out
}

// Program is a single parsed IDL file plus its includes' declarations
// available by namespace.
type Program struct {
	Name      string
	Namespace string // dotted path, e.g. "com.example.shared"
	Includes  []*Program

	Typedefs []*TypedefDef
	Enums    []*EnumDef
	Consts   []*Const
	Structs  []*StructDef
	Services []*Service
}

// ReferencedPrograms returns, in first-seen order, every other Program this
// one must import: direct includes plus the closure over every declared
// service's Extends chain (spec §4.7).
func (p *Program) ReferencedPrograms() []*Program {
	seen := map[*Program]bool{p: true}
	var out []*Program
	add := func(other *Program) {
		if other != nil && !seen[other] {
			seen[other] = true
			out = append(out, other)
		}
	}
	for _, inc := range p.Includes {
		add(inc)
	}
	for _, svc := range p.Services {
		for s := svc.Extends; s != nil; s = s.Extends {
			if s.Program != nil {
				add(s.Program)
			}
		}
	}
	return out
}
