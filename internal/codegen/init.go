package codegen

import "github.com/thriftrs/rsgen/internal/codegen/rustgen"

// DefaultRegistry is the global registry instance with pre-registered
// generators.
var DefaultRegistry = NewRegistry()

func init() {
	DefaultRegistry.Register("rust", func(opts Options) Generator {
		return rustgen.NewGenerator(opts)
	})
}
