package dialog

import "strings"

// FormatInput folds free-form user input into presentable casing, word by
// word: a word typed entirely in upper or lower case becomes "First upper,
// rest lower"; a mixed-case word only has its first rune uppercased, the rest
// is left as typed. Empty input passes through unchanged. The fold is
// idempotent.
func FormatInput(text string) string {
	if text == "" {
		return text
	}
	parts := strings.Split(text, " ")
	for i, part := range parts {
		parts[i] = foldWord(part)
	}
	return strings.Join(parts, " ")
}

func foldWord(word string) string {
	if word == "" {
		return word
	}

	runes := []rune(word)
	rest := string(runes[1:])

	allUpper := word == strings.ToUpper(word)
	allLower := word == strings.ToLower(word)
	if allUpper || allLower {
		rest = strings.ToLower(rest)
	}
	return strings.ToUpper(string(runes[0])) + rest
}

// FirstName returns the first whitespace-separated word of a full name,
// or "" for blank input.
func FirstName(fullName string) string {
	fields := strings.Fields(fullName)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
