// Package access decides whether conversion features are available.
package access

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"mediaconv/internal/logging"
)

// PermittedKey is the key-value entry holding the persisted access flag.
const PermittedKey = "access.permitted"

// Gate answers whether the user may use conversion features.
type Gate interface {
	Permitted() bool
}

// Always is a Gate with a fixed answer.
type Always bool

func (a Always) Permitted() bool { return bool(a) }

// Func adapts a function to Gate.
type Func func() bool

func (f Func) Permitted() bool { return f() }

// Store is the key-value storage KVGate reads and writes.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// KVGate reads the access flag from a key-value store, falling back to a
// default when the flag was never set.
type KVGate struct {
	store    Store
	fallback bool
	logger   *slog.Logger
	timeout  time.Duration
}

// NewKVGate builds a gate over store.
func NewKVGate(store Store, fallback bool, logger *slog.Logger) *KVGate {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &KVGate{
		store:    store,
		fallback: fallback,
		logger:   logging.NewComponentLogger(logger, "access"),
		timeout:  2 * time.Second,
	}
}

// Permitted reports the stored flag. Read failures deny access.
func (g *KVGate) Permitted() bool {
	ctx, cancel := context.WithTimeout(context.Background(), g.timeout)
	defer cancel()
	permitted, _, err := g.State(ctx)
	if err != nil {
		g.logger.Warn("access flag unreadable; denying", logging.Error(err))
		return false
	}
	return permitted
}

// State returns the effective flag and whether it was explicitly stored.
func (g *KVGate) State(ctx context.Context) (permitted bool, explicit bool, err error) {
	data, ok, err := g.store.Get(ctx, PermittedKey)
	if err != nil {
		return false, false, err
	}
	if !ok {
		return g.fallback, false, nil
	}
	value, parseErr := strconv.ParseBool(strings.TrimSpace(string(data)))
	if parseErr != nil {
		g.logger.Warn("invalid access flag; using default",
			logging.String("value", string(data)),
			logging.Bool("default", g.fallback),
		)
		return g.fallback, false, nil
	}
	return value, true, nil
}

// Set persists the flag.
func (g *KVGate) Set(ctx context.Context, permitted bool) error {
	return g.store.Set(ctx, PermittedKey, []byte(strconv.FormatBool(permitted)))
}

// Reset removes the stored flag so the default applies again.
func (g *KVGate) Reset(ctx context.Context) error {
	return g.store.Delete(ctx, PermittedKey)
}
