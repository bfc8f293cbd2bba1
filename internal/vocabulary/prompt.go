package vocabulary

import (
	"fmt"
	"strings"

	"github.com/mgpai22/lingo/internal/language"
)

func systemPrompt(sourceLang string) string {
	return fmt.Sprintf(
		"You are a %s vocabulary expert. Return a valid JSON object. "+
			"Keep responses concise. Every string must be complete and properly closed.",
		displayName(sourceLang),
	)
}

func buildPrompt(text, sourceLang, targetLang string, words int) string {
	source := displayName(sourceLang)
	target := language.Name(targetLang)
	if target == "" {
		target = "English"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(
		"Extract the %d most useful %s vocabulary words from the following %s transcript:\n\n",
		words, source, source,
	))
	sb.WriteString(text)
	sb.WriteString("\n\n")

	sb.WriteString("REQUIREMENTS:\n")
	sb.WriteString(fmt.Sprintf("1. Extract ONLY %s words, never words from another language.\n", source))
	sb.WriteString(fmt.Sprintf("2. \"word\" must be the original %s form as it appears in the transcript.\n", source))
	sb.WriteString(fmt.Sprintf("3. \"pronunciation\" is IPA or a romanization of the %s word.\n", source))
	sb.WriteString(fmt.Sprintf("4. \"example_sentence\" must be written in %s.\n", source))
	sb.WriteString(fmt.Sprintf("5. \"translation\" and \"example_translation\" must be written in %s.\n", target))
	sb.WriteString("6. Keep every field short so the response is not cut off.\n\n")

	sb.WriteString("Return ONLY this JSON object, without markdown:\n")
	sb.WriteString(`{
  "vocabularies": [
    {
      "word": "original word",
      "translation": "meaning",
      "pronunciation": "pronunciation",
      "part_of_speech": "noun/verb/adjective/phrase",
      "example_sentence": "short example sentence",
      "example_translation": "translated example",
      "difficulty_level": "basic/intermediate/advanced"
    }
  ]
}`)
	return sb.String()
}

func displayName(code string) string {
	if name := language.Name(code); name != "" {
		return name
	}
	return "source language"
}
