// Package vis encodes untrusted device-supplied strings with reversible
// C-style escapes, in the spirit of vis(3)/unvis(3). Escaped output never
// contains raw control bytes, so a hostile string descriptor cannot
// corrupt terminal output, and Unescape recovers the original exactly.
package vis

import (
	"fmt"
	"strings"
)

var namedEscapes = map[byte]string{
	'\a': `\a`,
	'\b': `\b`,
	'\t': `\t`,
	'\n': `\n`,
	'\v': `\v`,
	'\f': `\f`,
	'\r': `\r`,
}

var namedUnescapes = map[byte]byte{
	'a': '\a',
	'b': '\b',
	't': '\t',
	'n': '\n',
	'v': '\v',
	'f': '\f',
	'r': '\r',
}

// Escape replaces every byte outside printable ASCII with a C-style
// escape sequence: a named escape where one exists, three octal digits
// otherwise. Backslashes are doubled so the encoding stays unambiguous.
func Escape(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\\':
			b.WriteString(`\\`)
		case c >= 0x20 && c < 0x7f:
			b.WriteByte(c)
		default:
			if e, ok := namedEscapes[c]; ok {
				b.WriteString(e)
			} else {
				fmt.Fprintf(&b, `\%03o`, c)
			}
		}
	}
	return b.String()
}

// Unescape inverts Escape. It fails on sequences Escape cannot produce,
// like a trailing backslash or a malformed octal escape.
func Unescape(s string) (string, error) {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		i++
		if i >= len(s) {
			return "", fmt.Errorf("vis: trailing backslash")
		}
		switch e := s[i]; {
		case e == '\\':
			b.WriteByte('\\')
		case namedUnescapes[e] != 0:
			b.WriteByte(namedUnescapes[e])
		case e >= '0' && e <= '7':
			if i+2 >= len(s) {
				return "", fmt.Errorf("vis: short octal escape at %d", i-1)
			}
			var v int
			for j := 0; j < 3; j++ {
				d := s[i+j]
				if d < '0' || d > '7' {
					return "", fmt.Errorf("vis: bad octal digit %q at %d", d, i+j)
				}
				v = v<<3 | int(d-'0')
			}
			if v > 0xff {
				return "", fmt.Errorf("vis: octal escape out of range at %d", i-1)
			}
			b.WriteByte(byte(v))
			i += 2
		default:
			return "", fmt.Errorf("vis: unknown escape %q at %d", e, i-1)
		}
	}
	return b.String(), nil
}
