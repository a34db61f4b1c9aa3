package queue

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is returned when a status change is not allowed from
// the item's current status.
var ErrInvalidTransition = errors.New("invalid status transition")

func (i *Item) invalid(to Status) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, i.Status, to)
}

// BeginLoading moves a pending item into metadata loading.
func (i *Item) BeginLoading() error {
	if i.Status != StatusPending {
		return i.invalid(StatusLoading)
	}
	i.Status = StatusLoading
	return nil
}

// MarkReady finishes metadata loading. Metadata fields are set by the caller.
func (i *Item) MarkReady() error {
	if i.Status != StatusLoading {
		return i.invalid(StatusReady)
	}
	i.Status = StatusReady
	return nil
}

// StartConverting enters converting with zero progress.
func (i *Item) StartConverting() error {
	if i.Status != StatusReady {
		return i.invalid(StatusConverting)
	}
	i.Status = StatusConverting
	i.Progress = 0
	return nil
}

// SetProgress records conversion progress. Values below the current progress
// are ignored; values are clamped to [0, 1].
func (i *Item) SetProgress(p float64) error {
	if i.Status != StatusConverting {
		return i.invalid(StatusConverting)
	}
	if p > 1 {
		p = 1
	}
	if p > i.Progress {
		i.Progress = p
	}
	return nil
}

// Complete stores the converted output.
func (i *Item) Complete(output []byte) error {
	if i.Status != StatusConverting {
		return i.invalid(StatusCompleted)
	}
	i.Status = StatusCompleted
	i.Progress = 1
	i.Output = output
	i.ErrorMessage = ""
	return nil
}

// Fail records a conversion failure.
func (i *Item) Fail(message string) error {
	if i.Status != StatusConverting {
		return i.invalid(StatusFailed)
	}
	i.Status = StatusFailed
	i.ErrorMessage = message
	i.Output = nil
	return nil
}

// Retry returns a failed item to ready.
func (i *Item) Retry() error {
	if i.Status != StatusFailed {
		return i.invalid(StatusReady)
	}
	i.Status = StatusReady
	i.ErrorMessage = ""
	i.Progress = 0
	return nil
}

// Revert returns a converting item to ready after its batch was cancelled.
func (i *Item) Revert() error {
	if i.Status != StatusConverting {
		return i.invalid(StatusReady)
	}
	i.Status = StatusReady
	i.Progress = 0
	return nil
}
