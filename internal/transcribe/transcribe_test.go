package transcribe

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/openai/openai-go/option"

	"github.com/mgpai22/lingo/internal/media"
	"github.com/mgpai22/lingo/internal/model"
)

func TestParseVerboseJSON(t *testing.T) {
	tests := []struct {
		name      string
		rawJSON   string
		wantCount int
		wantErr   bool
	}{
		{
			name: "segments with words",
			rawJSON: `{
				"text": "Hello world. How are you today?",
				"language": "english",
				"duration": 3.0,
				"segments": [
					{"start": 0.0, "end": 1.5, "text": "Hello world."},
					{"start": 1.5, "end": 3.0, "text": "How are you today?"}
				],
				"words": [
					{"word": "Hello", "start": 0.0, "end": 0.6},
					{"word": "world", "start": 0.6, "end": 1.4},
					{"word": "How", "start": 1.5, "end": 1.8}
				]
			}`,
			wantCount: 2,
		},
		{
			name:      "text without segments",
			rawJSON:   `{"text": "Only text.", "segments": [], "language": "en", "duration": 2.5}`,
			wantCount: 1,
		},
		{
			name:    "empty response",
			rawJSON: "",
			wantErr: true,
		},
		{
			name:    "invalid JSON",
			rawJSON: `{"text": "incomplete`,
			wantErr: true,
		},
		{
			name:    "no segments and no text",
			rawJSON: `{"text": "", "segments": [], "language": "en", "duration": 0}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := parseVerboseJSON(tt.rawJSON)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(res.Segments) != tt.wantCount {
				t.Errorf("got %d segments, want %d", len(res.Segments), tt.wantCount)
			}
		})
	}
}

func TestParseVerboseJSONAttachesWords(t *testing.T) {
	res, err := parseVerboseJSON(`{
		"text": "a b c", "language": "english", "duration": 4,
		"segments": [{"start": 0, "end": 2, "text": "a b"}, {"start": 2, "end": 4, "text": "c"}],
		"words": [{"word": " a", "start": 0.1, "end": 0.5}, {"word": "b", "start": 1.0, "end": 1.9}, {"word": "c", "start": 2.2, "end": 3.0}]
	}`)
	if err != nil {
		t.Fatal(err)
	}
	finalize(res)

	if res.Language != "en" {
		t.Errorf("language = %q, want en", res.Language)
	}
	if len(res.Segments[0].Words) != 2 || len(res.Segments[1].Words) != 1 {
		t.Fatalf("words not attached: %+v", res.Segments)
	}
	if res.Segments[0].Words[0].Word != "a" {
		t.Errorf("word not trimmed: %q", res.Segments[0].Words[0].Word)
	}
}

func TestFinalize(t *testing.T) {
	res := finalize(&Result{
		Language: "ja-JP",
		Segments: []model.Segment{
			{ID: 7, Start: 3 * time.Second, End: 4 * time.Second, Text: " second "},
			{ID: 2, Start: 1 * time.Second, End: 2 * time.Second, Text: "first"},
			{ID: 9, Start: 5 * time.Second, End: 6 * time.Second, Text: "   "},
		},
	})

	if len(res.Segments) != 2 {
		t.Fatalf("got %d segments, want 2", len(res.Segments))
	}
	if res.Segments[0].Text != "first" || res.Segments[0].ID != 0 || res.Segments[1].ID != 1 {
		t.Errorf("segments not ordered and renumbered: %+v", res.Segments)
	}
	if res.Text != "first second" {
		t.Errorf("Text = %q", res.Text)
	}
	if res.Language != "ja" {
		t.Errorf("Language = %q", res.Language)
	}
	if res.Duration != 4*time.Second {
		t.Errorf("Duration = %v", res.Duration)
	}
}

func TestFinalizeGivesEmptySegmentsLength(t *testing.T) {
	res := finalize(&Result{
		Segments: []model.Segment{
			{Start: 3 * time.Second, End: 3 * time.Second, Text: "Blip."},
			{Start: 5 * time.Second, End: 4 * time.Second, Text: "Backwards."},
		},
	})

	if len(res.Segments) != 2 {
		t.Fatalf("got %d segments, want 2", len(res.Segments))
	}
	for i, seg := range res.Segments {
		if seg.End-seg.Start != minSegmentDuration {
			t.Errorf("segment %d = %v-%v, want %v long", i, seg.Start, seg.End, minSegmentDuration)
		}
	}
}

func TestOffsetSegments(t *testing.T) {
	in := []model.Segment{{
		Start: time.Second, End: 2 * time.Second, Text: "x",
		Words: []model.Word{{Word: "x", Start: time.Second, End: 2 * time.Second}},
	}}
	out := offsetSegments(in, 10*time.Minute)
	if out[0].Start != 10*time.Minute+time.Second || out[0].Words[0].End != 10*time.Minute+2*time.Second {
		t.Errorf("offset not applied: %+v", out[0])
	}
	if in[0].Words[0].Start != time.Second {
		t.Error("input words were mutated")
	}
}

type fakeTranscriber struct {
	calls    atomic.Int32
	inFlight atomic.Int32
	maxSeen  atomic.Int32
	delay    time.Duration
}

func (f *fakeTranscriber) Transcribe(context.Context, string, Options) (*Result, error) {
	f.calls.Add(1)
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		cur := f.maxSeen.Load()
		if n <= cur || f.maxSeen.CompareAndSwap(cur, n) {
			break
		}
	}
	time.Sleep(f.delay)
	return &Result{Language: "en"}, nil
}

func TestModelLoadsOnce(t *testing.T) {
	var loads atomic.Int32
	inst := &fakeTranscriber{}
	m := NewModel(func(context.Context) (Transcriber, error) {
		loads.Add(1)
		return inst, nil
	}, false)

	if m.Loaded() {
		t.Fatal("model loaded before first use")
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.Transcribe(context.Background(), "a.wav", Options{}); err != nil {
				t.Errorf("Transcribe: %v", err)
			}
		}()
	}
	wg.Wait()

	if loads.Load() != 1 {
		t.Errorf("loads = %d, want 1", loads.Load())
	}
	if inst.calls.Load() != 8 {
		t.Errorf("calls = %d, want 8", inst.calls.Load())
	}
}

func TestModelRetriesFailedLoad(t *testing.T) {
	var loads int
	m := NewModel(func(context.Context) (Transcriber, error) {
		loads++
		if loads == 1 {
			return nil, errors.New("model download failed")
		}
		return &fakeTranscriber{}, nil
	}, false)

	if _, err := m.Transcribe(context.Background(), "a.wav", Options{}); err == nil {
		t.Fatal("expected first load to fail")
	}
	if m.Loaded() {
		t.Fatal("failed load must not be cached")
	}
	if _, err := m.Transcribe(context.Background(), "a.wav", Options{}); err != nil {
		t.Fatalf("second call: %v", err)
	}
	if loads != 2 {
		t.Errorf("loads = %d, want 2", loads)
	}
}

func TestModelSerializesInference(t *testing.T) {
	inst := &fakeTranscriber{delay: 5 * time.Millisecond}
	m := NewModel(func(context.Context) (Transcriber, error) { return inst, nil }, true)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = m.Transcribe(context.Background(), "a.wav", Options{})
		}()
	}
	wg.Wait()

	if inst.maxSeen.Load() != 1 {
		t.Errorf("max concurrent inferences = %d, want 1", inst.maxSeen.Load())
	}
}

type fakeCmd struct {
	output string
	err    error
	args   []string
}

func (f *fakeCmd) Run(_ context.Context, _ string, args ...string) ([]byte, error) {
	f.args = args
	if f.err != nil {
		return nil, f.err
	}
	var outDir string
	for i, a := range args {
		if a == "--output_dir" {
			outDir = args[i+1]
		}
	}
	base := filepath.Base(args[0])
	base = base[:len(base)-len(filepath.Ext(base))]
	return nil, os.WriteFile(filepath.Join(outDir, base+".json"), []byte(f.output), 0o644)
}

func TestWhisperCLI(t *testing.T) {
	dir := t.TempDir()
	audio := filepath.Join(dir, "video_1.wav")
	if err := os.WriteFile(audio, []byte("RIFF"), 0o644); err != nil {
		t.Fatal(err)
	}

	cmd := &fakeCmd{output: `{
		"text": " Bonjour. Merci.",
		"language": "fr",
		"segments": [
			{"id": 0, "start": 0.0, "end": 1.2, "text": " Bonjour.",
			 "words": [{"word": " Bonjour.", "start": 0.0, "end": 1.2, "probability": 0.98}]},
			{"id": 1, "start": 1.4, "end": 2.0, "text": " Merci."}
		]
	}`}

	w := NewWhisperCLIWithRunner("whisper", "", dir, cmd)
	res, err := w.Transcribe(context.Background(), audio, Options{Language: "fr"})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if len(res.Segments) != 2 || res.Language != "fr" || res.Text != "Bonjour. Merci." {
		t.Errorf("unexpected result %+v", res)
	}
	if res.Segments[0].Words[0].Probability != 0.98 {
		t.Errorf("word probability lost: %+v", res.Segments[0].Words)
	}

	var sawModel, sawLang bool
	for i, a := range cmd.args {
		if a == "--model" && cmd.args[i+1] == "medium" {
			sawModel = true
		}
		if a == "--language" && cmd.args[i+1] == "fr" {
			sawLang = true
		}
	}
	if !sawModel || !sawLang {
		t.Errorf("args = %v", cmd.args)
	}
}

func TestWhisperCLIFailure(t *testing.T) {
	dir := t.TempDir()
	audio := filepath.Join(dir, "a.wav")
	if err := os.WriteFile(audio, []byte("RIFF"), 0o644); err != nil {
		t.Fatal(err)
	}
	w := NewWhisperCLIWithRunner("whisper", "small", dir, &fakeCmd{err: errors.New("exit status 1")})
	if _, err := w.Transcribe(context.Background(), audio, Options{}); err == nil {
		t.Fatal("expected error")
	}
}

func TestParseGeminiTranscript(t *testing.T) {
	res, err := parseGeminiTranscript("```json\n" + `{"language": "ko", "language_probability": 0.93,
		"segments": [{"start": 0, "end": 1.5, "text": "안녕하세요"}]}` + "\n```")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if res.Language != "ko" || res.LanguageProbability != 0.93 || len(res.Segments) != 1 {
		t.Errorf("unexpected %+v", res)
	}

	if _, err := parseGeminiTranscript(`{"segments": []}`); err == nil {
		t.Error("expected error for empty segments")
	}
	if _, err := parseGeminiTranscript(""); err == nil {
		t.Error("expected error for empty text")
	}
}

func TestOpenAITranscribeChunks(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		_ = r.ParseMultipartForm(1 << 20)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"text": "chunk", "language": "spanish", "duration": 600,
			"segments": [{"start": 1.0, "end": 2.0, "text": "hola"}]}`)
	}))
	defer srv.Close()

	dir := t.TempDir()
	var chunks []media.Chunk
	for i := 0; i < 2; i++ {
		p := filepath.Join(dir, "c"+string(rune('0'+i))+".mp3")
		if err := os.WriteFile(p, []byte("ID3"), 0o644); err != nil {
			t.Fatal(err)
		}
		chunks = append(chunks, media.Chunk{
			Path:  p,
			Index: i,
			Start: time.Duration(i) * chunkLength,
			End:   time.Duration(i+1) * chunkLength,
		})
	}

	tr := NewOpenAI("key", "", option.WithBaseURL(srv.URL+"/"), option.WithMaxRetries(0))
	res, err := tr.transcribeChunks(context.Background(), chunks, Options{})
	if err != nil {
		t.Fatalf("transcribeChunks: %v", err)
	}
	if requests.Load() != 2 {
		t.Errorf("requests = %d, want 2", requests.Load())
	}
	if len(res.Segments) != 2 || res.Segments[1].Start != chunkLength+time.Second {
		t.Errorf("segments = %+v", res.Segments)
	}
	if res.Language != "es" || res.Duration != 2*chunkLength {
		t.Errorf("language=%q duration=%v", res.Language, res.Duration)
	}
}

func TestFactory(t *testing.T) {
	if _, err := Factory(context.Background(), Config{Provider: ProviderOpenAI}); err == nil {
		t.Error("expected missing key error")
	}
	if _, err := Factory(context.Background(), Config{Provider: "vosk"}); err == nil {
		t.Error("expected unsupported provider error")
	}
	tr, err := Factory(context.Background(), Config{Provider: ProviderOpenAI, APIKey: "k"})
	if err != nil {
		t.Fatalf("Factory: %v", err)
	}
	if _, ok := tr.(*OpenAI); !ok {
		t.Errorf("got %T", tr)
	}
}
