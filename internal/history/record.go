package history

import (
	"time"

	"github.com/google/uuid"

	"mediaconv/internal/engine"
)

// Record describes one completed conversion.
type Record struct {
	ID uuid.UUID `json:"id"`
	// OriginalBlobID is uuid.Nil when the source had no preview.
	OriginalBlobID  uuid.UUID     `json:"original_blob_id"`
	ConvertedBlobID uuid.UUID     `json:"converted_blob_id"`
	SourceFormat    string        `json:"source_format"`
	TargetFormat    engine.Format `json:"target_format"`
	CreatedAt       time.Time     `json:"created_at"`
	Size            int64         `json:"size"`
	Duration        *float64      `json:"duration,omitempty"`
	Title           string        `json:"title,omitempty"`
	Source          string        `json:"source,omitempty"`
}

// HasOriginal reports whether a preview blob was stored.
func (r Record) HasOriginal() bool {
	return r.OriginalBlobID != uuid.Nil
}

func (r Record) clone() Record {
	if r.Duration != nil {
		d := *r.Duration
		r.Duration = &d
	}
	return r
}
