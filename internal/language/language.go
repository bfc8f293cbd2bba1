// Package language normalises language codes and names them for prompts.
package language

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Japanese is the code that gets kana readings for vocabulary.
const Japanese = "ja"

// Normalize reduces a tag or name to its base ISO 639-1 code: "en-US" and
// "English" both become "en". Unknown input is lowercased and returned.
func Normalize(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return ""
	}
	if tag, err := language.Parse(code); err == nil {
		base, _ := tag.Base()
		return base.String()
	}
	if tag, ok := byName[strings.ToLower(code)]; ok {
		return tag
	}
	return strings.ToLower(code)
}

// Name returns the English name of code, e.g. "vi" -> "Vietnamese".
func Name(code string) string {
	normalized := Normalize(code)
	if normalized == "" {
		return ""
	}
	tag, err := language.Parse(normalized)
	if err != nil {
		return cases.Title(language.Und).String(code)
	}
	if name := display.English.Languages().Name(tag); name != "" {
		return name
	}
	return normalized
}

// Equal compares two codes after normalisation.
func Equal(a, b string) bool {
	return Normalize(a) == Normalize(b)
}

// transcription engines sometimes report full names instead of codes
var byName = func() map[string]string {
	m := make(map[string]string)
	for _, code := range []string{
		"ar", "de", "en", "es", "fr", "hi", "id", "it", "ja", "ko",
		"nl", "pl", "pt", "ru", "th", "tr", "uk", "vi", "zh",
	} {
		tag := language.MustParse(code)
		m[strings.ToLower(display.English.Languages().Name(tag))] = code
	}
	return m
}()
