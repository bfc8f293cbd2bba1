package llm

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

// ErrNoJSON is returned when a response holds no decodable JSON value.
var ErrNoJSON = errors.New("no JSON found in response")

var jsonFenceRegex = regexp.MustCompile("```(?:json)?\\s*")

// CleanJSON strips markdown code fences and surrounding whitespace.
func CleanJSON(s string) string {
	s = strings.TrimSpace(s)
	s = jsonFenceRegex.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// FixInvalidEscapes doubles backslashes that do not start a valid JSON escape,
// so a literal \N survives decoding.
func FixInvalidEscapes(s string) string {
	var result strings.Builder
	result.Grow(len(s))

	i := 0
	for i < len(s) {
		if i < len(s)-1 && s[i] == '\\' {
			next := s[i+1]
			switch next {
			case '"', '\\', '/', 'b', 'f', 'n', 'r', 't', 'u':
				result.WriteByte(s[i])
				result.WriteByte(next)
			default:
				result.WriteString("\\\\")
				result.WriteByte(next)
			}
			i += 2
			continue
		}
		result.WriteByte(s[i])
		i++
	}

	return result.String()
}

// JSONCandidates returns every JSON object or array that decodes cleanly
// from text, in order of appearance. Preambles and trailing prose are skipped.
func JSONCandidates(text string) []json.RawMessage {
	text = FixInvalidEscapes(CleanJSON(text))

	var out []json.RawMessage
	for i := 0; i < len(text); i++ {
		if text[i] != '[' && text[i] != '{' {
			continue
		}
		decoder := json.NewDecoder(strings.NewReader(text[i:]))
		var raw json.RawMessage
		if err := decoder.Decode(&raw); err != nil {
			continue
		}
		out = append(out, raw)
		i += int(decoder.InputOffset()) - 1
	}
	return out
}

// DecodeFirst unmarshals the first candidate accepted by ok into v.
// A nil ok accepts any candidate that unmarshals.
func DecodeFirst[T any](text string, ok func(T) bool) (T, error) {
	var zero T
	for _, raw := range JSONCandidates(text) {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			continue
		}
		if ok == nil || ok(v) {
			return v, nil
		}
	}
	return zero, ErrNoJSON
}

// Truncate shortens s for log and error messages.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
