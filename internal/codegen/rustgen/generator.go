// Package rustgen is the Rust target-language emitter: the engine described
// by spec.md, turning an in-memory IDL program tree into a single Rust
// source file containing data definitions, binary-protocol codecs, a
// synchronous RPC client, and a synchronous processor (spec §1–§6).
package rustgen

import (
	"github.com/rs/zerolog"
	"github.com/thriftrs/rsgen/idl"
	"github.com/thriftrs/rsgen/internal/codegen"
	"github.com/thriftrs/rsgen/internal/codegen/writer"
)

// Generator implements codegen.Generator for the "rust" language key.
type Generator struct {
	opts    codegen.Options
	log     zerolog.Logger
	mangler *Mangler
}

// NewGenerator constructs a rust Generator from driver-supplied options.
func NewGenerator(opts codegen.Options) *Generator {
	return &Generator{
		opts:    opts,
		log:     newDefaultLogger(),
		mangler: NewMangler(opts.ReservedWords),
	}
}

// WithLogger returns a copy of g that emits its Debug/Warn events to log
// instead of the default disabled logger.
func (g *Generator) WithLogger(log zerolog.Logger) *Generator {
	g2 := *g
	g2.log = log
	return &g2
}

func (g *Generator) Language() string      { return "rust" }
func (g *Generator) FileExtension() string { return ".rs" }

// Generate performs the single-pass, depth-first traversal described by
// spec §2: typedefs, then enums, then consts, then structs/unions/
// exceptions, then services — each in declaration order within its own
// kind, in keeping with spec §6 bullet 5's ordering ("typedef alias, enum
// ..., const ..., struct/union/exception ...; services last").
func (g *Generator) Generate(p *idl.Program) ([]byte, error) {
	w := writer.NewWriter("    ")
	types := NewTypeMapper(g.mangler, p)
	consts := NewConstEmitter(types)
	structs := NewStructEmitter(types, g.mangler, g.log)
	services := NewServiceEmitter(types, g.mangler, structs, g.log)
	file := NewFileEmitter(g.opts.RuntimeCratePath)

	file.WriteHeader(w, p)
	file.WriteImports(w, p)

	for _, td := range p.Typedefs {
		WriteTypedef(w, types, td)
		w.BlankLine()
	}

	for _, e := range p.Enums {
		structs.EmitEnum(w, e)
		w.BlankLine()
	}

	for _, c := range p.Consts {
		g.log.Debug().Str("const", c.Name).Msg("emitting const")
		if err := consts.Emit(w, c); err != nil {
			return nil, wrapGenError(err, "program %s", p.Name)
		}
		w.BlankLine()
	}

	for _, s := range p.Structs {
		if err := structs.EmitStruct(w, s); err != nil {
			return nil, wrapGenError(err, "program %s", p.Name)
		}
		w.BlankLine()
	}

	for _, svc := range p.Services {
		if err := services.Emit(w, svc); err != nil {
			return nil, wrapGenError(err, "program %s", p.Name)
		}
		w.BlankLine()
	}

	return w.Bytes(), nil
}
