// Package settings holds the process-wide behaviour switches read on the hot
// path, most importantly the AI prioritization flag.
package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/transit-complaints/backend/internal/models"
)

const (
	AIPrioritization = "aiPrioritization"
	AutoAssignment   = "autoAssignment"
	MaintenanceMode  = "maintenanceMode"
)

// Defaults are seeded at startup when missing.
var Defaults = map[string]bool{
	AIPrioritization: true,
	AutoAssignment:   false,
	MaintenanceMode:  false,
}

// Store is a keyed, single-value-per-key, last-write-wins store.
// InsertIfAbsent writes s only when its key has no record and reports whether
// it did; it must never replace an existing value.
type Store interface {
	Get(ctx context.Context, key string) (models.Setting, bool, error)
	Upsert(ctx context.Context, s models.Setting) error
	InsertIfAbsent(ctx context.Context, s models.Setting) (bool, error)
}

// FlagReader is the read side the prioritization engine depends on.
type FlagReader interface {
	GetFlag(ctx context.Context, name string, def bool) bool
}

type Gate struct {
	store  Store
	cache  *gocache.Cache
	logger zerolog.Logger
	now    func() time.Time

	// gens counts completed SetFlag calls per key. A read only fills the
	// cache when no write finished while it was in flight.
	mu   sync.Mutex
	gens map[string]uint64
}

// NewGate wraps store. A cacheTTL of zero reads the store on every call.
func NewGate(store Store, cacheTTL time.Duration, logger zerolog.Logger) *Gate {
	g := &Gate{
		store:  store,
		logger: logger.With().Str("component", "settings").Logger(),
		now:    func() time.Time { return time.Now().UTC() },
		gens:   map[string]uint64{},
	}
	if cacheTTL > 0 {
		g.cache = gocache.New(cacheTTL, 2*cacheTTL)
	}
	return g
}

// GetFlag never fails: absent keys, null values and storage errors resolve to
// def. An absent key is initialized with def unless another writer got there
// first; a failed initialization is only logged.
func (g *Gate) GetFlag(ctx context.Context, name string, def bool) bool {
	if g.cache != nil {
		if v, ok := g.cache.Get(name); ok {
			return v.(bool)
		}
	}

	gen := g.generation(name)
	s, found, err := g.store.Get(ctx, name)
	if err != nil {
		g.logger.Warn().Err(err).Str("key", name).Msg("settings read failed, using default")
		return def
	}
	if !found {
		inserted, err := g.store.InsertIfAbsent(ctx, g.record(name, def, "system"))
		if err != nil {
			g.logger.Warn().Err(err).Str("key", name).Msg("settings lazy init failed")
			return def
		}
		if inserted {
			g.remember(name, def, gen)
			return def
		}
		// someone else wrote the key between our read and insert
		if s, found, err = g.store.Get(ctx, name); err != nil || !found {
			return def
		}
	}

	if isUnset(s.Value) {
		g.remember(name, def, gen)
		return def
	}
	value, err := decodeBool(s.Value)
	if err != nil {
		g.logger.Warn().Err(err).Str("key", name).Msg("settings value is not a boolean, using default")
		return def
	}
	g.remember(name, value, gen)
	return value
}

// SetFlag upserts name with an audit note of who changed it. Storage errors
// are returned to the caller.
func (g *Gate) SetFlag(ctx context.Context, name string, value bool, actor string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("settings: empty key")
	}
	if err := g.store.Upsert(ctx, g.record(name, value, actor)); err != nil {
		return err
	}
	g.mu.Lock()
	g.gens[name]++
	if g.cache != nil {
		g.cache.Delete(name)
	}
	g.mu.Unlock()
	g.logger.Info().Str("key", name).Bool("value", value).Str("actor", actor).Msg("setting updated")
	return nil
}

// Lookup returns the stored record without applying defaults.
func (g *Gate) Lookup(ctx context.Context, name string) (models.Setting, bool, error) {
	return g.store.Get(ctx, name)
}

// Seed writes every default that is not present yet. Existing values, even
// ones written while seeding runs, are never replaced.
func (g *Gate) Seed(ctx context.Context) error {
	for key, def := range Defaults {
		inserted, err := g.store.InsertIfAbsent(ctx, g.record(key, def, "system"))
		if err != nil {
			return fmt.Errorf("settings: seed %s: %w", key, err)
		}
		if inserted {
			g.logger.Info().Str("key", key).Bool("value", def).Msg("setting seeded")
		}
	}
	return nil
}

func (g *Gate) record(name string, value bool, actor string) models.Setting {
	raw, _ := json.Marshal(value)
	return models.Setting{
		Key:       name,
		Value:     raw,
		UpdatedBy: actor,
		UpdatedAt: g.now(),
	}
}

func (g *Gate) generation(name string) uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.gens[name]
}

// remember caches value unless a SetFlag completed after gen was taken.
func (g *Gate) remember(name string, value bool, gen uint64) {
	if g.cache == nil {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.gens[name] == gen {
		g.cache.SetDefault(name, value)
	}
}

func isUnset(raw json.RawMessage) bool {
	v := strings.TrimSpace(string(raw))
	return v == "" || v == "null"
}

func decodeBool(raw json.RawMessage) (bool, error) {
	var v bool
	if err := json.Unmarshal(raw, &v); err != nil {
		// tolerate values written as strings by older tooling
		var s string
		if json.Unmarshal(raw, &s) == nil {
			switch strings.ToLower(strings.TrimSpace(s)) {
			case "true", "1", "yes", "on":
				return true, nil
			case "false", "0", "no", "off":
				return false, nil
			}
		}
		return false, fmt.Errorf("decode %s: %w", string(raw), err)
	}
	return v, nil
}
