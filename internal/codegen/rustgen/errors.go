package rustgen

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/thriftrs/rsgen/idl"
)

// genError is a generator-internal error (spec §7 first bullet): malformed
// IDL input the emitter refuses to turn into Rust. It always carries a
// stack trace via github.com/pkg/errors so a failing emission run can be
// traced back to the declaration that triggered it.
func genError(format string, args ...interface{}) error {
	return errors.Errorf(format, args...)
}

func wrapGenError(cause error, format string, args ...interface{}) error {
	return errors.Wrap(cause, fmt.Sprintf(format, args...))
}

// errUnsupportedConstType reports a constant whose declared type has no
// literal representation the const emitter knows how to produce.
func errUnsupportedConstType(constName string, t *idl.Type) error {
	return genError("const %q: unsupported constant type (kind %d)", constName, t.Kind)
}

// errZeroFieldUnion reports a union declaration with no fields, which the
// source generator this emitter is modeled on rejects outright (spec §4.4).
func errZeroFieldUnion(name string) error {
	return genError("union %q has no fields; a union must declare at least one", name)
}

// errResultStructName reports a result struct whose name doesn't carry the
// expected synthetic suffix the service emitter relies on to pair it back
// to its function.
func errResultStructName(name string) error {
	return genError("result struct %q is missing the expected \"_result\" suffix", name)
}

// errUnsupportedWriteType reports a type kind with no codec rule. Both
// CodecEmitter.WriteValue (context: the value expression) and
// CodecEmitter.ReadValue (context: "read") use it, so the message reads
// "write context" on either path.
func errUnsupportedWriteType(context string, t *idl.Type) error {
	return genError("%s: unsupported type in write context (kind %d)", context, t.Kind)
}
