// Package codegen defines the external interface between an IDL-tree driver
// (out of scope for this module — see spec.md §1) and the language-specific
// emitters it invokes.
package codegen

import "github.com/thriftrs/rsgen/idl"

// Generator is the interface every target-language emitter implements.
type Generator interface {
	// Generate emits the complete source file for p and returns its bytes.
	Generate(p *idl.Program) ([]byte, error)

	// Language returns the target language's registry key (e.g. "rust").
	Language() string

	// FileExtension returns the file extension for generated files (e.g. ".rs").
	FileExtension() string
}

// Options carries the settings a driver supplies to a Generator factory.
// Individual generators interpret the fields relevant to their language;
// unused fields are ignored rather than rejected.
type Options struct {
	// PackageName is an advisory module/crate alias; not every target
	// language has a concept of "package name".
	PackageName string

	// OutputDir is the directory generated files are written beneath.
	OutputDir string

	// IncludeComments toggles emission of doc comments derived from IDL doc
	// strings; codec and dispatch logic is unaffected either way.
	IncludeComments bool

	// ReservedWords is the target language's reserved-identifier set, used
	// by the name mangler's safe() operation. A nil set means "use the
	// generator's built-in default".
	ReservedWords map[string]bool

	// RuntimeCratePath is the `use` prefix for the runtime protocol library
	// referenced by emitted code (spec.md §1, §6: out of scope here, named
	// in imports only). Empty means "use the generator's built-in default".
	RuntimeCratePath string

	// CustomOptions allows language-specific, driver-supplied settings.
	CustomOptions map[string]interface{}
}
