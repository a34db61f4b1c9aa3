package pipeline

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"mediaconv/internal/engine"
	"mediaconv/internal/logging"
	"mediaconv/internal/queue"
	"mediaconv/internal/services"
)

// AddItems enqueues every source not already in the queue and starts loading
// their metadata in the background. It returns how many items were added.
// When the access gate refuses, nothing changes and ErrAccessDenied is
// returned.
func (p *Pipeline) AddItems(ctx context.Context, sources []string) (int, error) {
	if !p.deps.Gate.Permitted() {
		return 0, ErrAccessDenied
	}

	p.mu.Lock()
	seen := make(map[string]struct{}, len(p.items)+len(sources))
	for _, item := range p.items {
		seen[item.Source] = struct{}{}
	}
	var added []uuid.UUID
	for _, source := range sources {
		source = strings.TrimSpace(source)
		if source == "" {
			continue
		}
		if _, dup := seen[source]; dup {
			continue
		}
		seen[source] = struct{}{}
		item := queue.NewItem(source, p.opts.now())
		p.items = append(p.items, item)
		added = append(added, item.ID)
	}
	if len(added) > 0 {
		p.loaders.Add(1)
	}
	p.mu.Unlock()

	if len(added) == 0 {
		return 0, nil
	}
	p.logger.Info("items queued",
		logging.Int("added", len(added)),
		logging.Int("requested", len(sources)),
		logging.String(logging.FieldEventType, "items_queued"),
	)
	go p.loadMetadata(ctx, added)
	return len(added), nil
}

// WaitForMetadata blocks until every metadata loader has finished.
func (p *Pipeline) WaitForMetadata(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.loaders.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// loadMetadata walks ids in order. Probe failures leave the metadata empty
// but still mark the item ready.
func (p *Pipeline) loadMetadata(ctx context.Context, ids []uuid.UUID) {
	defer p.loaders.Done()
	for _, id := range ids {
		p.mu.Lock()
		item := p.find(id)
		if item == nil || item.BeginLoading() != nil {
			p.mu.Unlock()
			continue
		}
		source := item.Source
		ev := itemEvent("", item)
		p.mu.Unlock()
		p.emit(ev)

		var meta engine.Metadata
		if p.deps.Prober != nil {
			probeCtx := services.WithStage(services.WithItemID(ctx, id.String()), "probe")
			m, err := p.deps.Prober.Probe(probeCtx, source)
			if err != nil {
				logging.WithContext(probeCtx, p.logger).Warn("metadata probe failed; continuing without metadata",
					logging.String("source", source),
					logging.Error(err),
					logging.String(logging.FieldEventType, "metadata_probe_failed"),
				)
			} else {
				meta = m
			}
		}

		p.mu.Lock()
		item = p.find(id)
		if item == nil {
			p.mu.Unlock()
			continue
		}
		item.Duration = meta.Duration
		item.Size = meta.Size
		item.Thumbnail = meta.Thumbnail
		if err := item.MarkReady(); err != nil {
			p.mu.Unlock()
			continue
		}
		ev = itemEvent("", item)
		p.mu.Unlock()
		p.emit(ev)
	}
}

// RemoveItem drops the item with id from the queue, cancelling its
// conversion if one is in flight. History is not touched.
func (p *Pipeline) RemoveItem(id uuid.UUID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.removeAtLocked(p.indexOf(id))
}

// RemoveAt drops the item at index.
func (p *Pipeline) RemoveAt(index int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.removeAtLocked(index)
}

func (p *Pipeline) removeAtLocked(index int) bool {
	if index < 0 || index >= len(p.items) {
		return false
	}
	id := p.items[index].ID
	p.items = append(p.items[:index:index], p.items[index+1:]...)
	if p.batch != nil {
		p.batch.cancelItem(id)
	}
	return true
}

// ClearQueue empties the queue and the held results.
func (p *Pipeline) ClearQueue() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.batch != nil {
		for _, item := range p.items {
			p.batch.cancelItem(item.ID)
		}
	}
	p.items = nil
	p.results = nil
}
