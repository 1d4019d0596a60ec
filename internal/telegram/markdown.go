package telegram

import (
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
)

// Raw is text that is already MarkdownV2 encoded
type Raw string

// Escape encodes plain text for MarkdownV2. Backslashes are doubled here,
// bot.EscapeMarkdown handles the other reserved characters.
func Escape(s string) string {
	parts := strings.Split(s, `\`)
	for i, p := range parts {
		parts[i] = bot.EscapeMarkdown(p)
	}
	return strings.Join(parts, `\\`)
}

// Bold renders s in bold
func Bold(s string) Raw {
	return Raw("*" + Escape(s) + "*")
}

// Code renders s as inline code. Only ` and \ need escaping inside it.
func Code(s string) Raw {
	r := strings.NewReplacer("\\", "\\\\", "`", "\\`")
	return Raw("`" + r.Replace(s) + "`")
}

// Build concatenates parts into MarkdownV2. Raw parts are kept as they are,
// everything else is printed with fmt and escaped.
func Build(parts ...any) string {
	var b strings.Builder
	for _, p := range parts {
		switch v := p.(type) {
		case Raw:
			b.WriteString(string(v))
		case string:
			b.WriteString(Escape(v))
		default:
			b.WriteString(Escape(fmt.Sprint(v)))
		}
	}
	return b.String()
}

// Lines joins encoded lines with newlines
func Lines(lines ...string) string {
	return strings.Join(lines, "\n")
}
