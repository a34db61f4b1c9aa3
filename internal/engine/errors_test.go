package engine_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"mediaconv/internal/engine"
	"mediaconv/internal/services"
)

func TestErrorFormattingAndClassification(t *testing.T) {
	base := errors.New("exit status 1")
	err := fmt.Errorf("convert clip: %w", &engine.Error{
		Kind:   engine.ErrEngineFailure,
		Detail: "Invalid data found when processing input",
		Err:    base,
	})

	if !errors.Is(err, base) {
		t.Fatal("expected cause to be reachable")
	}
	if engine.KindOf(err) != engine.ErrEngineFailure {
		t.Fatalf("unexpected kind %q", engine.KindOf(err))
	}
	if services.Kind(err) != "engine_failure" {
		t.Fatalf("services.Kind = %q", services.Kind(err))
	}
	msg := err.Error()
	if !strings.Contains(msg, "engine failure: Invalid data") {
		t.Fatalf("unexpected message %q", msg)
	}
	if engine.KindOf(errors.New("plain")) != "" {
		t.Fatal("plain errors have no kind")
	}
}
