package translate

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/mgpai22/lingo/internal/llm"
	"github.com/mgpai22/lingo/internal/logging"
	"github.com/mgpai22/lingo/internal/model"
)

const (
	DefaultBatchSize   = 10
	DefaultContextSize = 2
)

// ErrNoTranslations is returned when every batch failed.
var ErrNoTranslations = errors.New("no batch translated successfully")

// Options tunes batching.
type Options struct {
	BatchSize   int
	ContextSize int
	// Concurrency is the number of batches in flight (default 1).
	Concurrency int
}

// Translator translates segments in batches with neighbouring context.
type Translator struct {
	client  llm.Client
	logger  *logging.Logger
	options Options
}

func New(client llm.Client, logger *logging.Logger, opts Options) *Translator {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.ContextSize < 0 {
		opts.ContextSize = 0
	} else if opts.ContextSize == 0 {
		opts.ContextSize = DefaultContextSize
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Translator{client: client, logger: logger, options: opts}
}

// batch is one request: the segments to translate plus context on each side.
type batch struct {
	index  int
	before []model.Segment
	items  []model.Segment
	after  []model.Segment
}

type batchResult struct {
	index    int
	segments []model.Segment
	err      error
}

// Translate returns copies of segments with Translation set, in input order.
// A batch whose request fails is left out of the result, so the output may be
// shorter than the input; a line missing from a response keeps the source
// text as its translation. ErrNoTranslations is returned when nothing survived.
func (t *Translator) Translate(
	ctx context.Context,
	segments []model.Segment,
	sourceLang, targetLang string,
) ([]model.Segment, error) {
	if targetLang == "" {
		return nil, fmt.Errorf("target language is required")
	}
	if len(segments) == 0 {
		return []model.Segment{}, nil
	}

	batches := t.split(segments)
	results := make([]batchResult, len(batches))

	workChan := make(chan batch)
	var wg sync.WaitGroup
	for i := 0; i < t.options.Concurrency && i < len(batches); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for b := range workChan {
				translated, err := t.translateBatch(ctx, b, sourceLang, targetLang)
				results[b.index] = batchResult{index: b.index, segments: translated, err: err}
			}
		}()
	}

feed:
	for _, b := range batches {
		select {
		case <-ctx.Done():
			break feed
		case workChan <- b:
		}
	}
	close(workChan)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]model.Segment, 0, len(segments))
	failed := 0
	for _, r := range results {
		if r.err != nil {
			failed++
			t.logger.Warnw("Translation batch failed, dropping its segments",
				"batch", r.index,
				"segments", len(batches[r.index].items),
				"error", r.err,
			)
			continue
		}
		out = append(out, r.segments...)
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("%w (%d batches)", ErrNoTranslations, failed)
	}
	return out, nil
}

func (t *Translator) split(segments []model.Segment) []batch {
	size := t.options.BatchSize
	ctxSize := t.options.ContextSize

	var batches []batch
	for start := 0; start < len(segments); start += size {
		end := min(start+size, len(segments))
		batches = append(batches, batch{
			index:  len(batches),
			before: segments[max(0, start-ctxSize):start],
			items:  segments[start:end],
			after:  segments[end:min(len(segments), end+ctxSize)],
		})
	}
	return batches
}

func (t *Translator) translateBatch(
	ctx context.Context,
	b batch,
	sourceLang, targetLang string,
) ([]model.Segment, error) {
	resp, err := t.client.Complete(ctx, llm.Request{
		System:      systemPrompt(sourceLang, targetLang),
		Prompt:      buildPrompt(b, sourceLang, targetLang),
		Temperature: 0.3,
		JSON:        true,
	})
	if err != nil {
		return nil, err
	}

	lines := parseResponse(resp.Text, len(b.items))
	out := make([]model.Segment, len(b.items))
	missing := 0
	for i, seg := range b.items {
		seg.Words = cloneWords(seg.Words)
		if text, ok := lines[i]; ok {
			seg.Translation = text
		} else {
			seg.Translation = seg.Text
			missing++
		}
		out[i] = seg
	}
	if missing > 0 {
		t.logger.Debugw("Translation lines missing, using source text",
			"batch", b.index,
			"missing", missing,
			"truncated", resp.Truncated,
		)
	}
	return out, nil
}

func cloneWords(words []model.Word) []model.Word {
	if words == nil {
		return nil
	}
	return append([]model.Word(nil), words...)
}
