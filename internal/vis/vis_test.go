package vis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEscape(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain ascii", "Logitech USB Receiver", "Logitech USB Receiver"},
		{"newline and tab", "a\nb\tc", `a\nb\tc`},
		{"bell", "ding\a", `ding\a`},
		{"escape byte", "\x1b[31mred", `\033[31mred`},
		{"nul", "x\x00y", `x\000y`},
		{"high bytes", "caf\xc3\xa9", `caf\303\251`},
		{"backslash", `C:\dev`, `C:\\dev`},
		{"del", "\x7f", `\177`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Escape(tt.in))
		})
	}
}

func TestEscapeProducesNoControlBytes(t *testing.T) {
	var raw []byte
	for b := 0; b < 256; b++ {
		raw = append(raw, byte(b))
	}
	out := Escape(string(raw))
	for i := 0; i < len(out); i++ {
		assert.GreaterOrEqual(t, out[i], byte(0x20), "raw control byte at %d", i)
		assert.Less(t, out[i], byte(0x7f), "raw non-ascii byte at %d", i)
	}
}

func TestUnescapeRoundTrip(t *testing.T) {
	inputs := []string{
		"",
		"plain",
		"a\nb\tc\x00\x1b\x7f",
		`back\slash`,
		"\a\b\t\n\v\f\r",
		"caf\xc3\xa9 \xff\xfe",
	}
	for _, in := range inputs {
		got, err := Unescape(Escape(in))
		require.NoError(t, err)
		assert.Equal(t, in, got)
	}
}

func TestUnescapeRejectsMalformed(t *testing.T) {
	for _, in := range []string{`\`, `\q`, `\07`, `\0`, `\08x`} {
		_, err := Unescape(in)
		assert.Error(t, err, "input %q", in)
	}
}
