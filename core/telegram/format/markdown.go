package format

import "strings"

// mdSpecials are the characters that open an entity in Telegram legacy Markdown.
const mdSpecials = "_*`["

// EscapeMarkdown escapes text for use outside entities in Telegram legacy Markdown.
func EscapeMarkdown(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if strings.ContainsRune(mdSpecials, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// CodeSpan wraps text in a legacy Markdown inline code entity.
// Backticks cannot be escaped inside the entity, so they become apostrophes.
// Empty text yields an empty string.
func CodeSpan(text string) string {
	text = strings.TrimSpace(strings.ReplaceAll(text, "`", "'"))
	if text == "" {
		return ""
	}
	return "`" + text + "`"
}
