package rustgen

import (
	"strconv"
	"strings"
)

// Mangler holds the target language's reserved-word set and performs every
// identifier transform the emitter needs. It is the only place string-shape
// decisions live (spec §4.1) — every other component in this package defers
// to it rather than reimplementing case conversion locally.
type Mangler struct {
	reserved map[string]bool
}

// NewMangler constructs a Mangler over the given reserved-word set. A nil or
// empty set falls back to DefaultReservedWords.
func NewMangler(reserved map[string]bool) *Mangler {
	if len(reserved) == 0 {
		reserved = DefaultReservedWords
	}
	return &Mangler{reserved: reserved}
}

// DefaultReservedWords is the Rust 2021 keyword set, used whenever a driver
// doesn't supply its own.
var DefaultReservedWords = map[string]bool{
	"as": true, "break": true, "const": true, "continue": true, "crate": true,
	"else": true, "enum": true, "extern": true, "false": true, "fn": true,
	"for": true, "if": true, "impl": true, "in": true, "let": true,
	"loop": true, "match": true, "mod": true, "move": true, "mut": true,
	"pub": true, "ref": true, "return": true, "self": true, "Self": true,
	"static": true, "struct": true, "super": true, "trait": true, "true": true,
	"type": true, "unsafe": true, "use": true, "where": true, "while": true,
	"async": true, "await": true, "dyn": true, "abstract": true, "become": true,
	"box": true, "do": true, "final": true, "macro": true, "override": true,
	"priv": true, "typeof": true, "unsized": true, "virtual": true, "yield": true,
	"try": true, "union": true,
}

func collapseUnderscoreRuns(s string) string {
	var b strings.Builder
	prevUnderscore := false
	for _, r := range s {
		if r == '_' {
			if prevUnderscore {
				continue
			}
			prevUnderscore = true
		} else {
			prevUnderscore = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Snake decapitalizes name and inserts an underscore before every interior
// capital, collapsing any resulting run of underscores.
func Snake(name string) string {
	if name == "" {
		return name
	}
	var b strings.Builder
	for i, r := range name {
		if i > 0 && r >= 'A' && r <= 'Z' {
			b.WriteByte('_')
		}
		if r >= 'A' && r <= 'Z' {
			b.WriteRune(r - 'A' + 'a')
		} else {
			b.WriteRune(r)
		}
	}
	return collapseUnderscoreRuns(b.String())
}

// Camel capitalizes each underscore-delimited segment of name and removes
// the underscores.
func Camel(name string) string {
	segments := strings.Split(name, "_")
	var b strings.Builder
	for _, seg := range segments {
		if seg == "" {
			continue
		}
		b.WriteString(strings.ToUpper(seg[:1]))
		b.WriteString(seg[1:])
	}
	return b.String()
}

func isAllUpper(s string) bool {
	hasLetter := false
	for _, r := range s {
		if r >= 'a' && r <= 'z' {
			return false
		}
		if r >= 'A' && r <= 'Z' {
			hasLetter = true
		}
	}
	return hasLetter
}

// Upper uppercases name with underscore segmentation, collapsing runs of
// underscores. A name that is already fully uppercase passes through
// unchanged (it is assumed to already be a SCREAMING_CASE identifier, and
// re-segmenting it would incorrectly split acronyms).
func Upper(name string) string {
	if isAllUpper(name) {
		return name
	}
	snaked := Snake(name)
	return collapseUnderscoreRuns(strings.ToUpper(snaked))
}

// Safe appends a trailing underscore iff name collides with the target
// language's reserved-word set.
func (m *Mangler) Safe(name string) string {
	if m.reserved[name] {
		return name + "_"
	}
	return name
}

// SafeFieldID renders a field ID as an identifier-safe tail: decimal digits
// for non-negative IDs, "neg" + the decimal absolute value for negative
// ones. Both forms are always valid identifier fragments.
func SafeFieldID(id int32) string {
	if id >= 0 {
		return strconv.FormatInt(int64(id), 10)
	}
	return "neg" + strconv.FormatInt(int64(-id), 10)
}

// EnumVariant mangles an enum member's source name into its target-language
// form: pass through unchanged if the source is already fully uppercase,
// otherwise upper(snake(name)).
func EnumVariant(name string) string {
	if isAllUpper(name) {
		return name
	}
	return Upper(Snake(name))
}
