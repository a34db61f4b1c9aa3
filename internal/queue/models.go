package queue

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"mediaconv/internal/textutil"
)

// Status represents the lifecycle of a queue item.
type Status string

const (
	StatusPending    Status = "pending"
	StatusLoading    Status = "loading"
	StatusReady      Status = "ready"
	StatusConverting Status = "converting"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

var allStatuses = []Status{
	StatusPending,
	StatusLoading,
	StatusReady,
	StatusConverting,
	StatusCompleted,
	StatusFailed,
}

// AllStatuses returns every status in lifecycle order.
func AllStatuses() []Status {
	out := make([]Status, len(allStatuses))
	copy(out, allStatuses)
	return out
}

// IsTerminal reports whether no further conversion happens without a retry.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// IsBusy reports whether the item is mid-flight and blocks a new batch.
func (s Status) IsBusy() bool {
	return s == StatusPending || s == StatusLoading || s == StatusConverting
}

// Item is one source queued for conversion.
type Item struct {
	ID           uuid.UUID
	Source       string
	Title        string
	SourceFormat string
	Duration     *float64
	Thumbnail    []byte
	Size         *int64
	AddedAt      time.Time

	Status Status
	// Progress is only meaningful while converting.
	Progress float64
	// Output holds the converted bytes once completed.
	Output []byte
	// ErrorMessage is set when failed.
	ErrorMessage string
}

// NewItem builds a pending item for source.
func NewItem(source string, now time.Time) *Item {
	return &Item{
		ID:           uuid.New(),
		Source:       source,
		Title:        textutil.DeriveTitle(source),
		SourceFormat: SourceFormat(source),
		AddedAt:      now,
		Status:       StatusPending,
	}
}

// SourceFormat returns the lower-case extension tag of source ("mov", "heic").
func SourceFormat(source string) string {
	ext := filepath.Ext(strings.TrimSpace(source))
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// Clone returns a deep copy safe to hand to callers.
func (i *Item) Clone() Item {
	out := *i
	if i.Duration != nil {
		d := *i.Duration
		out.Duration = &d
	}
	if i.Size != nil {
		s := *i.Size
		out.Size = &s
	}
	if i.Thumbnail != nil {
		out.Thumbnail = append([]byte(nil), i.Thumbnail...)
	}
	if i.Output != nil {
		out.Output = append([]byte(nil), i.Output...)
	}
	return out
}
