package format

import (
	"html"
	"strings"
)

var (
	labelEscaper = strings.NewReplacer(`\`, `\\`, `/`, `\/`, `"`, `\"`)
	htmlEscaper  = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
	bodyEscaper  = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)
)

// EscapeLabel escapes backslash, slash and double quote so the label can be
// embedded in a quoted string.
func EscapeLabel(s string) string {
	return labelEscaper.Replace(s)
}

// UnescapeLabel reverses EscapeLabel.
func UnescapeLabel(s string) string {
	return unescapeBackslashes(s)
}

// EscapeBody HTML-escapes a message body, then escapes backslash, double quote
// and newline for embedding in a quoted string.
func EscapeBody(s string) string {
	return bodyEscaper.Replace(htmlEscaper.Replace(s))
}

// UnescapeBody reverses EscapeBody.
func UnescapeBody(s string) string {
	return html.UnescapeString(unescapeBackslashes(s))
}

// unescapeBackslashes decodes \\, \/, \" and \n in a single left-to-right pass.
// Unknown sequences are kept verbatim.
func unescapeBackslashes(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			b.WriteByte(c)
			continue
		}
		switch s[i+1] {
		case '\\', '/', '"':
			b.WriteByte(s[i+1])
			i++
		case 'n':
			b.WriteByte('\n')
			i++
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
