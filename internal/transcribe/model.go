package transcribe

import (
	"context"
	"sync"
)

// Loader constructs the underlying transcriber. It may be expensive.
type Loader func(ctx context.Context) (Transcriber, error)

// Model is the shared, lazily loaded transcriber handle. The first call to
// Transcribe loads it; a failed load is retried on the next call, a
// successful one is kept for the life of the handle.
type Model struct {
	load      Loader
	serialize bool

	mu   sync.Mutex
	inst Transcriber

	// held around inference when the engine is not safe for concurrent use
	inferMu sync.Mutex
}

// NewModel returns a handle around load. When serialize is set, calls into
// the loaded transcriber are made one at a time.
func NewModel(load Loader, serialize bool) *Model {
	return &Model{load: load, serialize: serialize}
}

// NewModelFromConfig wires Factory into a Model. The local whisper CLI is
// serialised; hosted APIs are not.
func NewModelFromConfig(cfg Config) *Model {
	return NewModel(func(ctx context.Context) (Transcriber, error) {
		return Factory(ctx, cfg)
	}, cfg.Provider == ProviderWhisper)
}

// Get returns the loaded transcriber, loading it on first use.
func (m *Model) Get(ctx context.Context) (Transcriber, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.inst != nil {
		return m.inst, nil
	}
	inst, err := m.load(ctx)
	if err != nil {
		return nil, err
	}
	m.inst = inst
	return inst, nil
}

// Loaded reports whether a transcriber has been loaded.
func (m *Model) Loaded() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inst != nil
}

func (m *Model) Transcribe(ctx context.Context, audioPath string, opts Options) (*Result, error) {
	inst, err := m.Get(ctx)
	if err != nil {
		return nil, err
	}
	if m.serialize {
		m.inferMu.Lock()
		defer m.inferMu.Unlock()
	}
	return inst.Transcribe(ctx, audioPath, opts)
}
