package access_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"mediaconv/internal/access"
	"mediaconv/internal/kvstore"
)

func TestStaticGates(t *testing.T) {
	if !access.Always(true).Permitted() || access.Always(false).Permitted() {
		t.Fatal("Always gate returned wrong answer")
	}
	calls := 0
	gate := access.Func(func() bool { calls++; return calls > 1 })
	if gate.Permitted() {
		t.Fatal("expected first call denied")
	}
	if !gate.Permitted() {
		t.Fatal("expected second call permitted")
	}
}

func TestKVGate(t *testing.T) {
	kv, err := kvstore.Open(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer kv.Close()
	ctx := context.Background()

	gate := access.NewKVGate(kv, true, nil)
	if !gate.Permitted() {
		t.Fatal("expected default to permit")
	}
	if _, explicit, _ := gate.State(ctx); explicit {
		t.Fatal("flag should not be explicit before Set")
	}

	if err := gate.Set(ctx, false); err != nil {
		t.Fatal(err)
	}
	if gate.Permitted() {
		t.Fatal("expected revoked access")
	}

	if err := kv.Set(ctx, access.PermittedKey, []byte("maybe")); err != nil {
		t.Fatal(err)
	}
	if !gate.Permitted() {
		t.Fatal("invalid flag should fall back to default")
	}

	if err := gate.Set(ctx, false); err != nil {
		t.Fatal(err)
	}
	if err := gate.Reset(ctx); err != nil {
		t.Fatal(err)
	}
	if !gate.Permitted() {
		t.Fatal("expected default after reset")
	}
}

type brokenStore struct{}

func (brokenStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("locked")
}
func (brokenStore) Set(context.Context, string, []byte) error { return nil }
func (brokenStore) Delete(context.Context, string) error      { return nil }

func TestKVGateDeniesOnReadError(t *testing.T) {
	if access.NewKVGate(brokenStore{}, true, nil).Permitted() {
		t.Fatal("read errors must deny access")
	}
}
