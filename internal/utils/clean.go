package utils

import (
	"net/mail"
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

// StripHTML returns the text content of an HTML fragment. Script and style
// contents are dropped and entities are decoded. Plain text passes through.
func StripHTML(text string) string {
	z := html.NewTokenizer(strings.NewReader(text))
	var b strings.Builder
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			// io.EOF or a malformed document; either way keep what was read
			return b.String()
		case html.StartTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "script", "style":
				skip++
			case "br", "p", "div", "li", "tr":
				b.WriteByte(' ')
			}
		case html.SelfClosingTagToken:
			b.WriteByte(' ')
		case html.EndTagToken:
			name, _ := z.TagName()
			if n := string(name); (n == "script" || n == "style") && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		}
	}
}

// CleanText removes HTML, drops characters other than letters, digits,
// whitespace and basic punctuation, and collapses whitespace.
func CleanText(text string) string {
	text = StripHTML(text)
	text = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), unicode.IsSpace(r), r == '_':
			return r
		case strings.ContainsRune(",.!?-", r):
			return r
		}
		return -1
	}, text)
	return strings.Join(strings.Fields(text), " ")
}

// ExtractAddress returns the bare address of an RFC 5322 sender such as
// "Jane Doe <jane@example.com>". Unparseable input is returned trimmed.
func ExtractAddress(sender string) string {
	addr, err := mail.ParseAddress(sender)
	if err != nil {
		return strings.TrimSpace(sender)
	}
	return addr.Address
}
