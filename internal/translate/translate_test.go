package translate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mgpai22/lingo/internal/llm"
	"github.com/mgpai22/lingo/internal/model"
)

// fakeClient echoes every input line back as "<text> (vi)". Calls whose
// prompt contains a string in fail return an error.
type fakeClient struct {
	mu      sync.Mutex
	prompts []string
	fail    []string
	respond func(items []item) string
}

var inputJSON = regexp.MustCompile(`(?s)Input JSON:\n(\[.*?\n\])`)

func (f *fakeClient) Complete(_ context.Context, req llm.Request) (*llm.Response, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, req.Prompt)
	f.mu.Unlock()

	for _, s := range f.fail {
		if strings.Contains(req.Prompt, s) {
			return nil, errors.New("service unavailable")
		}
	}

	m := inputJSON.FindStringSubmatch(req.Prompt)
	var items []item
	if err := json.Unmarshal([]byte(m[1]), &items); err != nil {
		return nil, err
	}
	if f.respond != nil {
		return &llm.Response{Text: f.respond(items)}, nil
	}
	for i := range items {
		items[i].Text += " (vi)"
	}
	data, _ := json.Marshal(map[string]any{"translations": items})
	return &llm.Response{Text: string(data)}, nil
}

func segments(n int) []model.Segment {
	out := make([]model.Segment, n)
	for i := range out {
		out[i] = model.Segment{
			ID:    i,
			Start: time.Duration(i) * time.Second,
			End:   time.Duration(i+1) * time.Second,
			Text:  fmt.Sprintf("line %02d", i),
		}
	}
	return out
}

func TestTranslateBatchesAndContext(t *testing.T) {
	client := &fakeClient{}
	tr := New(client, nil, Options{})

	out, err := tr.Translate(context.Background(), segments(23), "en", "vi")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if len(out) != 23 {
		t.Fatalf("got %d segments, want 23", len(out))
	}
	if len(client.prompts) != 3 {
		t.Fatalf("got %d requests, want 3 batches of 10", len(client.prompts))
	}
	for i, seg := range out {
		if seg.ID != i || seg.Translation != seg.Text+" (vi)" {
			t.Errorf("segment %d = %+v", i, seg)
		}
	}

	second := client.prompts[1]
	if !strings.Contains(second, "Previous context:\n- line 08\n- line 09\n") {
		t.Errorf("missing leading context in:\n%s", second)
	}
	if !strings.Contains(second, "Following context:\n- line 20\n- line 21\n") {
		t.Errorf("missing trailing context in:\n%s", second)
	}
	if strings.Contains(client.prompts[0], "Previous context") {
		t.Error("first batch should have no leading context")
	}
}

func TestTranslateDropsFailedBatch(t *testing.T) {
	client := &fakeClient{fail: []string{`"text": "line 10"`}}
	tr := New(client, nil, Options{})

	out, err := tr.Translate(context.Background(), segments(25), "en", "vi")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if len(out) != 15 {
		t.Fatalf("got %d segments, want 15", len(out))
	}
	if out[9].ID != 9 || out[10].ID != 20 {
		t.Errorf("order broken around the dropped batch: %d, %d", out[9].ID, out[10].ID)
	}
}

func TestTranslateAllBatchesFail(t *testing.T) {
	client := &fakeClient{fail: []string{"Input JSON"}}
	tr := New(client, nil, Options{})

	_, err := tr.Translate(context.Background(), segments(12), "en", "vi")
	if !errors.Is(err, ErrNoTranslations) {
		t.Fatalf("err = %v, want ErrNoTranslations", err)
	}
}

func TestTranslateMissingLineFallsBackToSource(t *testing.T) {
	client := &fakeClient{respond: func(items []item) string {
		// only the first line comes back
		return fmt.Sprintf(`[{"index": %d, "text": "xin chao"}]`, items[0].Index)
	}}
	tr := New(client, nil, Options{})

	out, err := tr.Translate(context.Background(), segments(3), "en", "vi")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if out[0].Translation != "xin chao" {
		t.Errorf("out[0] = %q", out[0].Translation)
	}
	for _, seg := range out[1:] {
		if seg.Translation != seg.Text {
			t.Errorf("missing line should fall back to source, got %q", seg.Translation)
		}
	}
}

func TestTranslateConcurrentKeepsOrder(t *testing.T) {
	client := &fakeClient{}
	tr := New(client, nil, Options{Concurrency: 4})

	out, err := tr.Translate(context.Background(), segments(57), "en", "vi")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	for i, seg := range out {
		if seg.ID != i {
			t.Fatalf("out[%d].ID = %d", i, seg.ID)
		}
		if !seg.HasTranslation() {
			t.Errorf("segment %d has no translation", i)
		}
	}
}

func TestTranslateEdgeCases(t *testing.T) {
	tr := New(&fakeClient{}, nil, Options{})
	if _, err := tr.Translate(context.Background(), segments(1), "en", ""); err == nil {
		t.Error("expected error for missing target language")
	}
	out, err := tr.Translate(context.Background(), nil, "en", "vi")
	if err != nil || len(out) != 0 {
		t.Errorf("empty input: out=%v err=%v", out, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := tr.Translate(ctx, segments(5), "en", "vi"); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		count int
		want  map[int]string
	}{
		{
			name:  "plain array",
			input: `[{"index": 1, "text": "Hola"}, {"index": 2, "text": "Adiós"}]`,
			count: 2,
			want:  map[int]string{0: "Hola", 1: "Adiós"},
		},
		{
			name:  "wrapper with preamble",
			input: "Here you go:\n```json\n{\"translations\": [{\"index\": 2, \"text\": \"Zwei\"}]}\n```",
			count: 2,
			want:  map[int]string{1: "Zwei"},
		},
		{
			name:  "numbered lines",
			input: "1. Bonjour\n2) Merci\n[3] Au revoir\nnot a line",
			count: 3,
			want:  map[int]string{0: "Bonjour", 1: "Merci", 2: "Au revoir"},
		},
		{
			name:  "out of range and blank ignored",
			input: `[{"index": 0, "text": "zero"}, {"index": 5, "text": "five"}, {"index": 1, "text": " "}, {"index": 2, "text": "ok"}]`,
			count: 2,
			want:  map[int]string{1: "ok"},
		},
		{
			name:  "garbage",
			input: "I cannot help with that.",
			count: 2,
			want:  map[int]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseResponse(tt.input, tt.count)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("got[%d] = %q, want %q", k, got[k], v)
				}
			}
		})
	}
}
