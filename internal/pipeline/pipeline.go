package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"mediaconv/internal/access"
	"mediaconv/internal/engine"
	"mediaconv/internal/history"
	"mediaconv/internal/logging"
	"mediaconv/internal/queue"
)

// ErrAccessDenied is returned by AddItems when the access gate refuses.
var ErrAccessDenied = errors.New("conversion access not permitted")

const (
	DefaultConcurrency      = 2
	DefaultProgressInterval = 100 * time.Millisecond
	DefaultProgressStep     = 0.05
	DefaultProgressCeiling  = 0.9
)

// History is where successful conversions are recorded.
type History interface {
	Add(record history.Record)
}

// Blobs stores converted payloads and previews.
type Blobs interface {
	Save(data []byte, id uuid.UUID) (string, error)
	Delete(id uuid.UUID) error
}

// Deps are the collaborators a Pipeline drives. Converter is required.
type Deps struct {
	Converter engine.Converter
	Prober    engine.Prober
	History   History
	Blobs     Blobs
	Gate      access.Gate
	Logger    *slog.Logger
}

// Result is the outcome of one item in a batch.
type Result struct {
	ItemID  uuid.UUID
	Title   string
	Source  string
	Success bool
	// Output is the converted payload on success.
	Output []byte
	// Message describes the failure.
	Message string
	// ErrorKind classifies the failure, e.g. "invalid_input".
	ErrorKind string
	// RecordID is uuid.Nil when no history entry was written.
	RecordID    uuid.UUID
	CompletedAt time.Time
}

// Summary counts results.
type Summary struct {
	Succeeded int
	Failed    int
}

// Total returns the number of results.
func (s Summary) Total() int { return s.Succeeded + s.Failed }

// EventType names pipeline notifications.
type EventType string

const (
	EventItemUpdated    EventType = "item_updated"
	EventBatchStarted   EventType = "batch_started"
	EventBatchCompleted EventType = "batch_completed"
)

// Event is delivered to observers. Item is a snapshot; Results is set on
// EventBatchCompleted.
type Event struct {
	Type      EventType
	BatchID   string
	Item      *queue.Item
	Results   []Result
	Cancelled bool
}

// Option configures a Pipeline.
type Option func(*options)

type options struct {
	concurrency int
	target      engine.Format
	interval    time.Duration
	step        float64
	ceiling     float64
	observers   []func(Event)
	now         func() time.Time
}

// WithConcurrency caps how many items convert at once. Values below one are
// ignored.
func WithConcurrency(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithTargetFormat sets the format every item converts to.
func WithTargetFormat(f engine.Format) Option {
	return func(o *options) {
		if f.Valid() {
			o.target = f
		}
	}
}

// WithProgress tunes the synthetic progress ticker. Zero values keep the
// defaults.
func WithProgress(interval time.Duration, step, ceiling float64) Option {
	return func(o *options) {
		if interval > 0 {
			o.interval = interval
		}
		if step > 0 && step < 1 {
			o.step = step
		}
		if ceiling > 0 && ceiling < 1 {
			o.ceiling = ceiling
		}
	}
}

// WithObserver registers fn for pipeline events. Observers may be called
// from several goroutines and must not block for long.
func WithObserver(fn func(Event)) Option {
	return func(o *options) {
		if fn != nil {
			o.observers = append(o.observers, fn)
		}
	}
}

// Pipeline owns the conversion queue and its batches.
type Pipeline struct {
	deps    Deps
	opts    options
	logger  *slog.Logger
	sampler *logging.ProgressSampler

	mu         sync.Mutex
	items      []*queue.Item
	results    []Result
	processing bool
	batch      *batch

	loaders sync.WaitGroup
}

// New builds a Pipeline.
func New(deps Deps, opts ...Option) (*Pipeline, error) {
	if deps.Converter == nil {
		return nil, errors.New("pipeline: converter required")
	}
	if deps.Gate == nil {
		deps.Gate = access.Always(true)
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	o := options{
		concurrency: DefaultConcurrency,
		target:      engine.FormatMP3,
		interval:    DefaultProgressInterval,
		step:        DefaultProgressStep,
		ceiling:     DefaultProgressCeiling,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Pipeline{
		deps:    deps,
		opts:    o,
		logger:  logging.NewComponentLogger(logger, "pipeline"),
		sampler: logging.NewProgressSampler(25),
	}, nil
}

// TargetFormat returns the configured output format.
func (p *Pipeline) TargetFormat() engine.Format { return p.opts.target }

// Concurrency returns the worker count per batch.
func (p *Pipeline) Concurrency() int { return p.opts.concurrency }

// Items returns snapshots of the queue in order.
func (p *Pipeline) Items() []queue.Item {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]queue.Item, len(p.items))
	for i, item := range p.items {
		out[i] = item.Clone()
	}
	return out
}

// Results returns the accumulated results in completion order.
func (p *Pipeline) Results() []Result {
	p.mu.Lock()
	defer p.mu.Unlock()
	return cloneResults(p.results)
}

// Summary counts successes and failures among the held results.
func (p *Pipeline) Summary() Summary {
	p.mu.Lock()
	defer p.mu.Unlock()
	var s Summary
	for _, r := range p.results {
		if r.Success {
			s.Succeeded++
		} else {
			s.Failed++
		}
	}
	return s
}

// IsProcessing reports whether a batch is running.
func (p *Pipeline) IsProcessing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.processing
}

// Wait blocks until the running batch, if any, drains and returns the
// results.
func (p *Pipeline) Wait(ctx context.Context) ([]Result, error) {
	p.mu.Lock()
	b := p.batch
	p.mu.Unlock()
	if b != nil {
		select {
		case <-b.done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return p.Results(), nil
}

// Shutdown cancels any running batch and waits for it and for metadata
// loaders to finish.
func (p *Pipeline) Shutdown(ctx context.Context) error {
	p.CancelConversion()
	if _, err := p.Wait(ctx); err != nil {
		return err
	}
	return p.WaitForMetadata(ctx)
}

func (p *Pipeline) indexOf(id uuid.UUID) int {
	for i, item := range p.items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

func (p *Pipeline) find(id uuid.UUID) *queue.Item {
	if i := p.indexOf(id); i >= 0 {
		return p.items[i]
	}
	return nil
}

func (p *Pipeline) emit(events ...Event) {
	for _, ev := range events {
		for _, fn := range p.opts.observers {
			fn(ev)
		}
	}
}

func itemEvent(batchID string, item *queue.Item) Event {
	snapshot := item.Clone()
	return Event{Type: EventItemUpdated, BatchID: batchID, Item: &snapshot}
}

func cloneResults(in []Result) []Result {
	out := make([]Result, len(in))
	copy(out, in)
	return out
}
