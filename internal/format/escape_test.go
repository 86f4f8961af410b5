package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscapeBody(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: "hello", want: "hello"},
		{name: "html", in: "<b>a & b</b>", want: "&lt;b&gt;a &amp; b&lt;/b&gt;"},
		{name: "quote becomes entity", in: `say "hi"`, want: "say &quot;hi&quot;"},
		{name: "backslash", in: `C:\dir`, want: `C:\\dir`},
		{name: "newline", in: "line1\nline2", want: `line1\nline2`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EscapeBody(tt.in))
		})
	}
}

func TestEscapeBody_RoundTrip(t *testing.T) {
	inputs := []string{
		"back\\slash \"quoted\"\nnext line",
		`\n literal backslash-n`,
		"&amp; already escaped",
		"trailing backslash \\",
		"",
	}

	for _, in := range inputs {
		assert.Equal(t, in, UnescapeBody(EscapeBody(in)), "input %q", in)
	}
}

func TestEscapeLabel(t *testing.T) {
	assert.Equal(t, `a\\b\/c\"d`, EscapeLabel(`a\b/c"d`))
	assert.Equal(t, `a\b/c"d`, UnescapeLabel(EscapeLabel(`a\b/c"d`)))
}

func TestUnescape_KeepsUnknownSequences(t *testing.T) {
	assert.Equal(t, `\t`, UnescapeLabel(`\t`))
}
