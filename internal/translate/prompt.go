package translate

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/mgpai22/lingo/internal/language"
	"github.com/mgpai22/lingo/internal/llm"
)

// single line sent to and returned by the model
type item struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

func systemPrompt(sourceLang, targetLang string) string {
	source := language.Name(sourceLang)
	if source == "" {
		source = "the source language"
	}
	return fmt.Sprintf(
		"You are a professional subtitle translator. Translate %s subtitles into natural, fluent %s. "+
			"Keep each line short enough to read on screen and preserve the speaker's tone.",
		source,
		language.Name(targetLang),
	)
}

func buildPrompt(b batch, sourceLang, targetLang string) string {
	var sb strings.Builder

	if sourceLang != "" {
		sb.WriteString(fmt.Sprintf(
			"Translate the following %s subtitle lines to %s.\n\n",
			language.Name(sourceLang),
			language.Name(targetLang),
		))
	} else {
		sb.WriteString(fmt.Sprintf(
			"Translate the following subtitle lines to %s.\n\n",
			language.Name(targetLang),
		))
	}

	sb.WriteString("IMPORTANT INSTRUCTIONS:\n")
	sb.WriteString("1. Translate ONLY the lines under \"Input JSON\".\n")
	sb.WriteString("2. Context lines are there to resolve meaning; never translate or return them.\n")
	sb.WriteString("3. Return ONLY a JSON object {\"translations\": [...]}.\n")
	sb.WriteString("4. Each element must have 'index' and 'text' fields.\n")
	sb.WriteString("5. The 'index' values must match the input indices exactly.\n")
	sb.WriteString("6. Do not add any explanation or markdown formatting.\n\n")

	if len(b.before) > 0 {
		sb.WriteString("Previous context:\n")
		for _, seg := range b.before {
			sb.WriteString("- " + seg.Text + "\n")
		}
		sb.WriteString("\n")
	}

	items := make([]item, len(b.items))
	for i, seg := range b.items {
		items[i] = item{Index: i + 1, Text: seg.Text}
	}
	inputJSON, _ := json.MarshalIndent(items, "", "  ")
	sb.WriteString("Input JSON:\n")
	sb.Write(inputJSON)
	sb.WriteString("\n\n")

	if len(b.after) > 0 {
		sb.WriteString("Following context:\n")
		for _, seg := range b.after {
			sb.WriteString("- " + seg.Text + "\n")
		}
		sb.WriteString("\n")
	}

	sb.WriteString("Output the translated JSON only:")
	return sb.String()
}

var numberedLine = regexp.MustCompile(`^\s*(?:\[(\d+)\]|(\d+)[.):])\s*(.+)$`)

// parseResponse maps 0-based item positions to translated text. JSON is tried
// first; numbered lines ("1. text" or "[1] text") are the fallback.
func parseResponse(text string, count int) map[int]string {
	out := make(map[int]string, count)
	add := func(index int, value string) {
		value = strings.TrimSpace(value)
		pos := index - 1
		if pos < 0 || pos >= count || value == "" {
			return
		}
		if _, seen := out[pos]; !seen {
			out[pos] = value
		}
	}

	if items, ok := decodeItems(text); ok {
		for _, it := range items {
			add(it.Index, it.Text)
		}
		return out
	}

	for _, line := range strings.Split(text, "\n") {
		m := numberedLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		raw := m[1]
		if raw == "" {
			raw = m[2]
		}
		index, err := strconv.Atoi(raw)
		if err != nil {
			continue
		}
		add(index, m[3])
	}
	return out
}

func decodeItems(text string) ([]item, bool) {
	for _, raw := range llm.JSONCandidates(text) {
		if items, ok := tryExtractItems(raw); ok {
			return items, true
		}
	}
	return nil, false
}

func tryExtractItems(raw json.RawMessage) ([]item, bool) {
	var items []item
	if err := json.Unmarshal(raw, &items); err == nil && hasText(items) {
		return items, true
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return nil, false
	}

	for _, key := range []string{"translations", "results", "data", "items"} {
		if fieldRaw, ok := wrapper[key]; ok {
			var fieldItems []item
			if err := json.Unmarshal(fieldRaw, &fieldItems); err == nil && hasText(fieldItems) {
				return fieldItems, true
			}
		}
	}

	for _, fieldRaw := range wrapper {
		var fieldItems []item
		if err := json.Unmarshal(fieldRaw, &fieldItems); err == nil && hasText(fieldItems) {
			return fieldItems, true
		}
	}

	return nil, false
}

func hasText(items []item) bool {
	for _, it := range items {
		if it.Text != "" {
			return true
		}
	}
	return false
}
