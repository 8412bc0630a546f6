package rustgen

import (
	"io"

	"github.com/rs/zerolog"
)

// newDefaultLogger returns a disabled logger so a Generator constructed
// without an explicit one produces no output, matching the teacher's
// pattern of defaulting to silence rather than writing to stderr
// unconditionally.
func newDefaultLogger() zerolog.Logger {
	return zerolog.New(io.Discard).Level(zerolog.Disabled)
}
