package tutor

import (
	"fmt"
	"strings"

	"github.com/m3rciful/lunabot/core/locale"
	"github.com/m3rciful/lunabot/core/telegram/format"
	"github.com/m3rciful/lunabot/core/telegram/state"
)

const (
	correctionSeparator = "---"

	correctionSystemPrompt = "You are an assistant for bilingual corrections."
	dictionarySystemPrompt = "Translate English to Persian."
)

// BuildPersonaPrompt returns the system prompt that keeps replies in Luna's voice.
func BuildPersonaPrompt(s state.Session) string {
	return "You are Luna 🌙✨💛, a kind, dreamy, empathetic English conversation partner. " +
		"Persona: 22-year-old woman, blonde curly hair, green eyes, warm smile, pastel clothes. " +
		"Personality: gentle, curious, sometimes playful, poetic tone. " +
		fmt.Sprintf("Speak ONLY in English. Adjust difficulty to %s. Topic: %s. ", s.Level, s.Topic) +
		"Use emojis 🌙✨💛 sometimes. Always be respectful and kind."
}

// BuildCorrectionPrompt asks for a Persian explanation and the corrected sentence separated by a "---" line.
func BuildCorrectionPrompt(s state.Session, userText string) string {
	return "You are a bilingual assistant. The user wrote an English sentence. " +
		"Explain mistakes in Persian, then give the corrected English sentence. " +
		"Format strictly as:\n" +
		"توضیح فارسی\n" +
		correctionSeparator + "\n" +
		"Corrected English sentence\n" +
		fmt.Sprintf("\nسطح توضیحات: %s\n", s.Level) +
		fmt.Sprintf("\nجمله کاربر:\n%s", userText)
}

// Correction is a completion split into its explanation and corrected sentence.
type Correction struct {
	Explanation string
	Corrected   string
}

// ParseCorrection splits raw on "---". Anything but exactly two parts is kept whole as the explanation.
func ParseCorrection(raw string) Correction {
	raw = strings.TrimSpace(raw)
	parts := strings.Split(raw, correctionSeparator)
	if len(parts) != 2 {
		return Correction{Explanation: raw}
	}
	return Correction{
		Explanation: strings.TrimSpace(parts[0]),
		Corrected:   strings.TrimSpace(parts[1]),
	}
}

// RenderCorrection renders the bilingual correction block as legacy Markdown and as plain text.
func RenderCorrection(cat *locale.Catalog, c Correction) (markdown, plain string) {
	markdown = cat.Format(locale.CorrectionBlock, map[string]any{
		"Explanation": format.EscapeMarkdown(c.Explanation),
		"Corrected":   format.CodeSpan(c.Corrected),
	})
	plain = cat.Format(locale.CorrectionPlain, map[string]any{
		"Explanation": c.Explanation,
		"Corrected":   c.Corrected,
	})
	return strings.TrimSpace(markdown), strings.TrimSpace(plain)
}
