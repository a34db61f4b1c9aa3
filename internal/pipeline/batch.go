package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"mediaconv/internal/history"
	"mediaconv/internal/logging"
	"mediaconv/internal/queue"
	"mediaconv/internal/services"
)

type batch struct {
	id     string
	cancel context.CancelFunc
	done   chan struct{}
	// inflight maps claimed items to their cancel funcs. Guarded by
	// Pipeline.mu.
	inflight map[uuid.UUID]context.CancelFunc
}

func (b *batch) cancelItem(id uuid.UUID) {
	if cancel, ok := b.inflight[id]; ok {
		cancel()
	}
}

type workerEventKind int

const (
	eventClaim workerEventKind = iota
	eventProgress
	eventCompleted
	eventFailed
	eventReverted
)

type workerEvent struct {
	kind     workerEventKind
	id       uuid.UUID
	progress float64
	output   []byte
	record   *history.Record
	message  string
	errKind  string
	cancel   context.CancelFunc
	reply    chan claimReply
}

type claimReply struct {
	ok   bool
	item queue.Item
}

type conversionOutcome struct {
	data []byte
	err  error
}

// StartConversion begins a batch over every ready item. It returns false
// without side effects when access is denied, the queue is empty, a batch is
// already running, an item is still pending, loading, or converting, or no
// item is ready.
func (p *Pipeline) StartConversion(ctx context.Context) bool {
	if !p.deps.Gate.Permitted() {
		p.logger.Info("conversion not started; access denied",
			logging.String(logging.FieldEventType, "batch_denied"),
		)
		return false
	}
	p.mu.Lock()
	started, ev := p.startLocked(ctx)
	p.mu.Unlock()
	if started {
		p.emit(ev)
	}
	return started
}

// RetryFailed resets every failed item to ready, drops their failure
// results, and starts a batch. It is a no-op when nothing failed.
func (p *Pipeline) RetryFailed(ctx context.Context) bool {
	if !p.deps.Gate.Permitted() {
		return false
	}
	p.mu.Lock()
	if p.processing {
		p.mu.Unlock()
		return false
	}
	retried := make(map[uuid.UUID]struct{})
	for _, item := range p.items {
		if item.Status != queue.StatusFailed {
			continue
		}
		if err := item.Retry(); err == nil {
			retried[item.ID] = struct{}{}
		}
	}
	if len(retried) == 0 {
		p.mu.Unlock()
		return false
	}
	kept := p.results[:0:0]
	for _, r := range p.results {
		if r.Success {
			kept = append(kept, r)
			continue
		}
		if _, ok := retried[r.ItemID]; ok {
			continue
		}
		kept = append(kept, r)
	}
	p.results = kept
	p.logger.Info("retrying failed items",
		logging.Int("count", len(retried)),
		logging.String(logging.FieldEventType, "retry_failed"),
	)
	started, ev := p.startLocked(ctx)
	p.mu.Unlock()
	if started {
		p.emit(ev)
	}
	return started
}

// CancelConversion stops dispatching and cancels in-flight conversions.
// Cancelled items return to ready.
func (p *Pipeline) CancelConversion() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.batch == nil {
		return
	}
	p.logger.Info("cancelling conversion batch",
		logging.String(logging.FieldBatchID, p.batch.id),
		logging.String(logging.FieldEventType, "batch_cancel"),
	)
	p.batch.cancel()
}

func (p *Pipeline) startLocked(ctx context.Context) (bool, Event) {
	if len(p.items) == 0 || p.processing {
		return false, Event{}
	}
	var ids []uuid.UUID
	for _, item := range p.items {
		if item.Status.IsBusy() {
			return false, Event{}
		}
		if item.Status == queue.StatusReady {
			ids = append(ids, item.ID)
		}
	}
	if len(ids) == 0 {
		return false, Event{}
	}

	b := &batch{
		id:       uuid.NewString(),
		done:     make(chan struct{}),
		inflight: make(map[uuid.UUID]context.CancelFunc),
	}
	batchCtx, cancel := context.WithCancel(services.WithBatchID(ctx, b.id))
	b.cancel = cancel
	p.batch = b
	p.processing = true

	p.logger.Info("conversion batch started",
		logging.String(logging.FieldBatchID, b.id),
		logging.Int("items", len(ids)),
		logging.Int("concurrency", p.opts.concurrency),
		logging.String("target_format", string(p.opts.target)),
		logging.String(logging.FieldEventType, "batch_start"),
	)
	go p.runBatch(batchCtx, b, ids)
	return true, Event{Type: EventBatchStarted, BatchID: b.id}
}

// runBatch is the coordinator. It owns item status for the batch's lifetime.
func (p *Pipeline) runBatch(ctx context.Context, b *batch, ids []uuid.UUID) {
	started := time.Now()
	work := make(chan uuid.UUID)
	events := make(chan workerEvent)

	workers := p.opts.concurrency
	if workers > len(ids) {
		workers = len(ids)
	}
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker(ctx, b, work, events, &wg)
	}
	go func() {
		defer close(work)
		for _, id := range ids {
			select {
			case work <- id:
			case <-ctx.Done():
				return
			}
		}
	}()
	go func() {
		wg.Wait()
		close(events)
	}()

	for ev := range events {
		p.apply(ctx, b, ev)
	}
	p.finishBatch(ctx, b, started)
}

func (p *Pipeline) finishBatch(ctx context.Context, b *batch, started time.Time) {
	cancelled := ctx.Err() != nil
	b.cancel()

	p.mu.Lock()
	p.processing = false
	results := cloneResults(p.results)
	var summary Summary
	for _, r := range results {
		if r.Success {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
	}
	p.mu.Unlock()

	p.logger.Info("conversion batch finished",
		logging.String(logging.FieldBatchID, b.id),
		logging.Int("succeeded", summary.Succeeded),
		logging.Int("failed", summary.Failed),
		logging.Bool("cancelled", cancelled),
		logging.Duration("elapsed", time.Since(started)),
		logging.String(logging.FieldEventType, "batch_complete"),
	)
	if len(results) > 0 {
		p.emit(Event{Type: EventBatchCompleted, BatchID: b.id, Results: results, Cancelled: cancelled})
	}

	p.mu.Lock()
	if p.batch == b {
		p.batch = nil
	}
	p.mu.Unlock()
	close(b.done)
}

func (p *Pipeline) apply(ctx context.Context, b *batch, ev workerEvent) {
	p.mu.Lock()
	item := p.find(ev.id)
	var out []Event

	switch ev.kind {
	case eventClaim:
		if item == nil || ctx.Err() != nil || item.StartConverting() != nil {
			ev.reply <- claimReply{}
			break
		}
		b.inflight[ev.id] = ev.cancel
		ev.reply <- claimReply{ok: true, item: item.Clone()}
		out = append(out, itemEvent(b.id, item))

	case eventProgress:
		if item != nil && item.SetProgress(ev.progress) == nil {
			out = append(out, itemEvent(b.id, item))
		}

	case eventCompleted:
		delete(b.inflight, ev.id)
		if item == nil || item.Complete(ev.output) != nil {
			// Removed while converting; drop what the worker stored.
			p.discardRecord(ev.record)
			break
		}
		result := Result{
			ItemID:      item.ID,
			Title:       item.Title,
			Source:      item.Source,
			Success:     true,
			Output:      ev.output,
			CompletedAt: p.opts.now(),
		}
		if ev.record != nil && p.deps.History != nil {
			p.deps.History.Add(*ev.record)
			result.RecordID = ev.record.ID
		} else {
			p.discardRecord(ev.record)
		}
		p.results = append(p.results, result)
		out = append(out, itemEvent(b.id, item))

	case eventFailed:
		delete(b.inflight, ev.id)
		if item == nil || item.Fail(ev.message) != nil {
			break
		}
		p.results = append(p.results, Result{
			ItemID:      item.ID,
			Title:       item.Title,
			Source:      item.Source,
			Message:     ev.message,
			ErrorKind:   ev.errKind,
			CompletedAt: p.opts.now(),
		})
		out = append(out, itemEvent(b.id, item))

	case eventReverted:
		delete(b.inflight, ev.id)
		if item != nil && item.Revert() == nil {
			out = append(out, itemEvent(b.id, item))
		}
	}
	p.mu.Unlock()
	p.emit(out...)
}

func (p *Pipeline) worker(ctx context.Context, b *batch, work <-chan uuid.UUID, events chan<- workerEvent, wg *sync.WaitGroup) {
	defer wg.Done()
	for id := range work {
		if ctx.Err() != nil {
			return
		}
		p.convertItem(ctx, b, id, events)
	}
}

func (p *Pipeline) convertItem(ctx context.Context, b *batch, id uuid.UUID, events chan<- workerEvent) {
	itemCtx, cancel := context.WithCancel(services.WithStage(services.WithItemID(ctx, id.String()), "convert"))
	defer cancel()

	reply := make(chan claimReply, 1)
	events <- workerEvent{kind: eventClaim, id: id, cancel: cancel, reply: reply}
	claim := <-reply
	if !claim.ok {
		return
	}
	item := claim.item
	logger := logging.WithContext(itemCtx, p.logger)
	logger.Debug("conversion started",
		logging.String("source", item.Source),
		logging.String(logging.FieldEventType, "item_start"),
	)

	if err := p.checkSource(itemCtx, item); err != nil {
		logger.Warn("source rejected before conversion",
			logging.String("source", item.Source),
			logging.String(logging.FieldErrorKind, services.Kind(err)),
			logging.Error(err),
			logging.String(logging.FieldEventType, "item_failed"),
		)
		events <- workerEvent{kind: eventFailed, id: id, message: services.Message(err), errKind: services.Kind(err)}
		return
	}

	outcome := make(chan conversionOutcome, 1)
	go func() {
		data, err := p.deps.Converter.Convert(itemCtx, item.Source, p.opts.target)
		outcome <- conversionOutcome{data: data, err: err}
	}()

	ticker := time.NewTicker(p.opts.interval)
	defer ticker.Stop()
	defer p.sampler.Forget(id.String())
	progress := 0.0

	for {
		select {
		case <-ticker.C:
			next := progress + p.opts.step
			if next > p.opts.ceiling {
				next = p.opts.ceiling
			}
			if next <= progress {
				continue
			}
			progress = next
			if p.sampler.ShouldLog(id.String(), progress*100) {
				logger.Debug("conversion progress", logging.Float64("progress", progress))
			}
			events <- workerEvent{kind: eventProgress, id: id, progress: progress}

		case res := <-outcome:
			if itemCtx.Err() != nil {
				events <- workerEvent{kind: eventReverted, id: id}
				return
			}
			if res.err != nil {
				message := services.Message(res.err)
				logger.Warn("conversion failed",
					logging.String("source", item.Source),
					logging.String(logging.FieldErrorKind, services.Kind(res.err)),
					logging.Error(res.err),
					logging.String(logging.FieldEventType, "item_failed"),
				)
				events <- workerEvent{kind: eventFailed, id: id, message: message, errKind: services.Kind(res.err)}
				return
			}
			record := p.spill(logger, item, res.data)
			logger.Info("conversion completed",
				logging.String("source", item.Source),
				logging.Int("bytes", len(res.data)),
				logging.String(logging.FieldEventType, "item_complete"),
			)
			events <- workerEvent{kind: eventCompleted, id: id, output: res.data, record: record}
			return

		case <-itemCtx.Done():
			logger.Info("conversion cancelled; reverting to ready",
				logging.String(logging.FieldEventType, "item_cancelled"),
			)
			events <- workerEvent{kind: eventReverted, id: id}
			return
		}
	}
}

// checkSource rejects items whose source cannot yield the target format.
// The prober is expected to cache, so this reuses the metadata load's result.
// Probe failures are left for the converter to report.
func (p *Pipeline) checkSource(ctx context.Context, item queue.Item) error {
	if p.deps.Prober == nil {
		return nil
	}
	meta, err := p.deps.Prober.Probe(ctx, item.Source)
	if err != nil {
		return nil
	}
	return p.opts.target.CheckSource(meta)
}

// spill writes the preview and converted bytes to blob storage and returns
// the history record that references them. Storage errors are logged and
// yield a nil record.
func (p *Pipeline) spill(logger *slog.Logger, item queue.Item, output []byte) *history.Record {
	if p.deps.Blobs == nil || p.deps.History == nil {
		return nil
	}
	record := history.Record{
		ID:              uuid.New(),
		ConvertedBlobID: uuid.New(),
		SourceFormat:    item.SourceFormat,
		TargetFormat:    p.opts.target,
		CreatedAt:       p.opts.now().UTC(),
		Size:            int64(len(output)),
		Duration:        item.Duration,
		Title:           item.Title,
		Source:          item.Source,
	}
	if len(item.Thumbnail) > 0 {
		record.OriginalBlobID = uuid.New()
		if _, err := p.deps.Blobs.Save(item.Thumbnail, record.OriginalBlobID); err != nil {
			p.logStorageFailure(logger, "save preview blob", err)
			return nil
		}
	}
	if _, err := p.deps.Blobs.Save(output, record.ConvertedBlobID); err != nil {
		p.logStorageFailure(logger, "save converted blob", err)
		if record.HasOriginal() {
			_ = p.deps.Blobs.Delete(record.OriginalBlobID)
		}
		return nil
	}
	return &record
}

func (p *Pipeline) discardRecord(record *history.Record) {
	if record == nil || p.deps.Blobs == nil {
		return
	}
	if record.HasOriginal() {
		_ = p.deps.Blobs.Delete(record.OriginalBlobID)
	}
	_ = p.deps.Blobs.Delete(record.ConvertedBlobID)
}

func (p *Pipeline) logStorageFailure(logger *slog.Logger, op string, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	logging.WarnWithContext(logger, "history entry skipped", "history_spill_failed",
		logging.String("operation", op),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "converted output is still returned in the batch results"),
	)
}
