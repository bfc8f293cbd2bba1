package language

import "testing"

func TestNormalize(t *testing.T) {
	tests := map[string]string{
		"en":       "en",
		"en-US":    "en",
		"ZH-hant":  "zh",
		"English":  "en",
		"japanese": "ja",
		"":         "",
		" vi ":     "vi",
	}
	for in, want := range tests {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestName(t *testing.T) {
	tests := map[string]string{
		"vi":    "Vietnamese",
		"ja":    "Japanese",
		"en-GB": "English",
		"":      "",
	}
	for in, want := range tests {
		if got := Name(in); got != want {
			t.Errorf("Name(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestEqual(t *testing.T) {
	if !Equal("en", "en-US") {
		t.Error("en and en-US should be equal")
	}
	if Equal("en", "fr") {
		t.Error("en and fr should differ")
	}
}
