package tutor

import "unicode/utf8"

// englishRatio is the share of ASCII letters above which text counts as English.
const englishRatio = 0.6

// IsEnglish reports whether more than 60% of the runes in text are ASCII letters.
// Digits, spaces and punctuation count against the ratio.
func IsEnglish(text string) bool {
	if text == "" {
		return false
	}
	letters := 0
	for _, r := range text {
		if ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') {
			letters++
		}
	}
	total := utf8.RuneCountInString(text)
	return float64(letters)/float64(max(1, total)) > englishRatio
}
