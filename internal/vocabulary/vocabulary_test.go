package vocabulary

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/mgpai22/lingo/internal/llm"
	"github.com/mgpai22/lingo/internal/model"
)

type reply struct {
	text      string
	truncated bool
	err       error
}

// scriptedClient returns replies in order and records the word count asked for.
type scriptedClient struct {
	replies []reply
	prompts []string
	words   []int
}

var wordCount = regexp.MustCompile(`Extract the (\d+) most useful`)

func (c *scriptedClient) Complete(_ context.Context, req llm.Request) (*llm.Response, error) {
	c.prompts = append(c.prompts, req.Prompt)
	if m := wordCount.FindStringSubmatch(req.Prompt); m != nil {
		n, _ := strconv.Atoi(m[1])
		c.words = append(c.words, n)
	}
	if len(c.replies) == 0 {
		return nil, errors.New("no more replies")
	}
	r := c.replies[0]
	c.replies = c.replies[1:]
	if r.err != nil {
		return nil, r.err
	}
	return &llm.Response{Text: r.text, Truncated: r.truncated}, nil
}

func segs(texts ...string) []model.Segment {
	out := make([]model.Segment, len(texts))
	for i, text := range texts {
		out[i] = model.Segment{ID: i, Text: text}
	}
	return out
}

const goodReply = `{"vocabularies": [
  {"word": "hello", "translation": "xin chào", "pronunciation": "/həˈloʊ/", "part_of_speech": "interjection",
   "example_sentence": "Hello there.", "example_translation": "Xin chào.", "difficulty_level": "basic"},
  {"word": "world", "translation": "thế giới"}
]}`

func TestExtractSuccess(t *testing.T) {
	client := &scriptedClient{replies: []reply{{text: goodReply}}}
	e := New(client, nil, Options{TargetLanguage: "vi"})

	items, err := e.Extract(context.Background(), segs("hello world"), "English", 15)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	if items[0].PartOfSpeech != "interjection" || items[0].DifficultyLevel != "basic" {
		t.Errorf("first item = %+v", items[0])
	}

	second := items[1]
	if second.PartOfSpeech != "word" {
		t.Errorf("part of speech = %q, want default word", second.PartOfSpeech)
	}
	if second.DifficultyLevel != "intermediate" {
		t.Errorf("difficulty = %q, want default intermediate", second.DifficultyLevel)
	}
	if second.Pronunciation != "[world]" {
		t.Errorf("pronunciation = %q, want [world]", second.Pronunciation)
	}
	if second.Language != "en" {
		t.Errorf("language = %q, want en", second.Language)
	}
	if client.words[0] != 15 {
		t.Errorf("asked for %d words, want 15", client.words[0])
	}
	if !strings.Contains(client.prompts[0], "Vietnamese") {
		t.Errorf("prompt does not name the target language:\n%s", client.prompts[0])
	}
}

func TestExtractShrinksOnTruncation(t *testing.T) {
	client := &scriptedClient{replies: []reply{
		{text: `{"vocabularies": [{"word": "hel`, truncated: true},
		{text: `{"vocabularies": [{"word": "a", "transl`},
		{text: goodReply},
	}}
	e := New(client, nil, Options{TargetLanguage: "vi"})

	items, err := e.Extract(context.Background(), segs("hello world"), "en", 15)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	want := []int{15, 10, 8}
	if fmt.Sprint(client.words) != fmt.Sprint(want) {
		t.Errorf("word counts = %v, want %v", client.words, want)
	}
}

func TestExtractGivesUpAfterAttempts(t *testing.T) {
	client := &scriptedClient{replies: []reply{
		{err: errors.New("rate limited")},
		{err: errors.New("rate limited")},
		{err: errors.New("rate limited")},
		{text: goodReply},
	}}
	e := New(client, nil, Options{})

	_, err := e.Extract(context.Background(), segs("hello"), "en", 15)
	if !errors.Is(err, ErrNoVocabulary) {
		t.Fatalf("err = %v, want ErrNoVocabulary", err)
	}
	if len(client.prompts) != DefaultAttempts {
		t.Errorf("got %d requests, want %d", len(client.prompts), DefaultAttempts)
	}
	// transport errors are retried at the same size
	if fmt.Sprint(client.words) != "[15 15 15]" {
		t.Errorf("word counts = %v", client.words)
	}
}

func TestExtractValidation(t *testing.T) {
	replyText := `[
	  {"word": "", "translation": "empty"},
	  {"word": "ok", "translation": ""},
	  {"word": "bad???", "translation": "x"},
	  {"word": "x", "translation": "???"},
	  {"word": "keep", "translation": "giữ", "pronunciation": "N/A"},
	  {"word": "also", "translation": "cũng", "pronunciation": "???"}
	]`
	client := &scriptedClient{replies: []reply{{text: replyText}}}
	e := New(client, nil, Options{})

	items, err := e.Extract(context.Background(), segs("keep also"), "en", 10)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2: %+v", len(items), items)
	}
	for _, it := range items {
		if it.Word == "" || it.Translation == "" {
			t.Errorf("item with empty field survived: %+v", it)
		}
		if strings.Contains(it.Word+it.Translation, "???") {
			t.Errorf("corrupted item survived: %+v", it)
		}
		if it.Pronunciation != "["+it.Word+"]" {
			t.Errorf("pronunciation = %q, want backfilled", it.Pronunciation)
		}
	}
}

func TestExtractAllInvalid(t *testing.T) {
	replyText := `{"words": [{"word": "???", "translation": "x"}]}`
	client := &scriptedClient{replies: []reply{{text: replyText}, {text: replyText}, {text: replyText}}}
	e := New(client, nil, Options{})

	_, err := e.Extract(context.Background(), segs("text"), "en", 15)
	if !errors.Is(err, ErrNoVocabulary) {
		t.Fatalf("err = %v, want ErrNoVocabulary", err)
	}
}

func TestExtractEdgeCases(t *testing.T) {
	e := New(&scriptedClient{}, nil, Options{})

	if _, err := e.Extract(context.Background(), nil, "en", 15); !errors.Is(err, ErrNoText) {
		t.Errorf("nil segments: err = %v, want ErrNoText", err)
	}
	if _, err := e.Extract(context.Background(), segs("  ", ""), "en", 15); !errors.Is(err, ErrNoText) {
		t.Errorf("blank segments: err = %v, want ErrNoText", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := e.Extract(ctx, segs("text"), "en", 15); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled: err = %v", err)
	}
}

func TestExtractWindowAndCeiling(t *testing.T) {
	texts := make([]string, 60)
	for i := range texts {
		texts[i] = fmt.Sprintf("seg%02d", i)
	}
	client := &scriptedClient{replies: []reply{{text: goodReply}}}
	e := New(client, nil, Options{})

	if _, err := e.Extract(context.Background(), segs(texts...), "en", 40); err != nil {
		t.Fatalf("Extract: %v", err)
	}
	prompt := client.prompts[0]
	if !strings.Contains(prompt, "seg49") || strings.Contains(prompt, "seg50") {
		t.Errorf("prompt should include exactly the first %d segments", SegmentWindow)
	}
	if client.words[0] != MaxWordsCeiling {
		t.Errorf("asked for %d words, want ceiling %d", client.words[0], MaxWordsCeiling)
	}
}

func TestParseItems(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    int
		wantErr error
	}{
		{"bare array", `[{"word": "a", "translation": "b"}]`, 1, nil},
		{"wrapped", `{"words": [{"word": "a", "translation": "b"}]}`, 1, nil},
		{"unknown wrapper", `{"result": [{"word": "a", "translation": "b"}, {"word": "c", "translation": "d"}]}`, 2, nil},
		{"fenced", "```json\n[{\"word\": \"a\", \"translation\": \"b\"}]\n```", 1, nil},
		{"prose", "sorry, I cannot", 0, llm.ErrNoJSON},
		{"object without array", `{"word": "a"}`, 0, errNoVocabArray},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := parseItems(tt.text)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseItems: %v", err)
			}
			if len(items) != tt.want {
				t.Errorf("got %d items, want %d", len(items), tt.want)
			}
		})
	}
}

func TestPronounce(t *testing.T) {
	r := NewReader()
	tests := []struct {
		word, lang, want string
	}{
		{"hello", "en", "[hello]"},
		{"東京", "ja", "[トウキョウ]"},
		{"東京", "Japanese", "[トウキョウ]"},
		{"xyzzy", "ja", "[xyzzy]"},
	}
	for _, tt := range tests {
		if got := r.Pronounce(tt.word, tt.lang); got != tt.want {
			t.Errorf("Pronounce(%q, %q) = %q, want %q", tt.word, tt.lang, got, tt.want)
		}
	}
}

type fakeInserter struct {
	failWords map[string]bool
	rows      []model.Vocabulary
}

func (f *fakeInserter) InsertVocabulary(_ context.Context, v *model.Vocabulary) error {
	if f.failWords[v.Word] {
		return errors.New("constraint violation")
	}
	v.ID = int64(len(f.rows) + 1)
	f.rows = append(f.rows, *v)
	return nil
}

func TestSave(t *testing.T) {
	items := []model.Vocabulary{{Word: "a"}, {Word: "b"}, {Word: "c"}}
	store := &fakeInserter{failWords: map[string]bool{"b": true}}

	saved, err := Save(context.Background(), store, nil, items, "en", 7)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if saved != 2 {
		t.Fatalf("saved = %d, want 2", saved)
	}
	for _, row := range store.rows {
		if row.VideoID == nil || *row.VideoID != 7 {
			t.Errorf("row %q not linked to video 7", row.Word)
		}
		if row.Language != "en" {
			t.Errorf("row %q language = %q", row.Word, row.Language)
		}
	}
	if items[0].ID != 1 || items[2].ID != 2 {
		t.Errorf("ids not written back: %+v", items)
	}
}

func TestSaveNothing(t *testing.T) {
	store := &fakeInserter{failWords: map[string]bool{"a": true}}

	if _, err := Save(context.Background(), store, nil, []model.Vocabulary{{Word: "a"}}, "en", 1); !errors.Is(err, ErrNothingSaved) {
		t.Errorf("all rows failing: err = %v, want ErrNothingSaved", err)
	}
	if _, err := Save(context.Background(), store, nil, nil, "en", 1); !errors.Is(err, ErrNothingSaved) {
		t.Errorf("empty list: err = %v, want ErrNothingSaved", err)
	}
}
