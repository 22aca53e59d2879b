// Package registry manages block type discovery, caching and lookup.
// Block types come from explicit registration tables (built-in and host
// supplied) plus manual Register calls; discovery results are shared through
// a cache store so that every registry in a process, or in a fleet using a
// persistent store, sees the same catalogue without rescanning.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/artpar/pageblocks/adapters/metrics"
	"github.com/artpar/pageblocks/core/block"
	"github.com/artpar/pageblocks/ports"
	"github.com/rs/zerolog"
)

// Defaults for the discovery cache.
const (
	DefaultCacheKey = "pageblocks.discovery"
	DefaultCacheTTL = time.Hour
)

// Options configures a Registry.
type Options struct {
	// Builtin and Host are scanned in that order; a host definition
	// producing the same key as a built-in one replaces it.
	Builtin []block.Definition
	Host    []block.Definition

	// Cache holds discovery results. Nil disables caching.
	Cache        ports.CacheStore
	CacheEnabled bool
	CacheKey     string
	CacheTTL     time.Duration

	// Bypass skips the cache entirely (local development).
	Bypass bool

	// Disabled keys are hidden from Get and All but stay registered.
	Disabled []string

	Logger  zerolog.Logger
	Metrics *metrics.Collector
}

// Registry resolves block type keys to implementations.
type Registry struct {
	mu sync.RWMutex

	opts Options

	// definition name -> definition
	definitions map[string]block.Definition

	// discovery result: key -> definition name
	resolved map[string]string

	// memoized instances by key
	instances map[string]block.Block

	// explicit Register calls by key; they take precedence and survive ClearCache
	manual map[string]block.Block

	disabled   map[string]bool
	discovered bool
	scans      int

	// bumped by Register and ClearCache
	generation atomic.Uint64
}

// New creates a registry. Discovery is deferred until the first lookup.
func New(opts Options) *Registry {
	if opts.CacheKey == "" {
		opts.CacheKey = DefaultCacheKey
	}
	if opts.CacheTTL == 0 {
		opts.CacheTTL = DefaultCacheTTL
	}

	r := &Registry{
		opts:        opts,
		definitions: make(map[string]block.Definition),
		resolved:    make(map[string]string),
		instances:   make(map[string]block.Block),
		manual:      make(map[string]block.Block),
	}

	for _, def := range append(append([]block.Definition{}, opts.Builtin...), opts.Host...) {
		if _, dup := r.definitions[def.Name]; dup {
			opts.Logger.Warn().Str("definition", def.Name).Msg("duplicate block definition name, later one wins")
		}
		r.definitions[def.Name] = def
	}

	r.SetDisabled(opts.Disabled)
	return r
}

// Register adds or replaces a block under key. It fails with
// block.ErrInvalidType when b does not satisfy the Block contract.
func (r *Registry) Register(key string, b block.Block) error {
	if key == "" {
		return fmt.Errorf("%w: empty key", block.ErrInvalidType)
	}
	if _, err := block.Probe(b); err != nil {
		r.opts.Logger.Warn().Err(err).Str("key", key).Msg("rejected block registration")
		return fmt.Errorf("register %q: %w", key, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.manual[key] = b
	r.generation.Add(1)
	return nil
}

// Generation changes every time the set of block implementations may have
// changed, through Register or ClearCache. Callers memoizing per-key data
// compare it to know when to drop their memo.
func (r *Registry) Generation() uint64 {
	return r.generation.Load()
}

// Get returns the block registered under key. It reports false when the key
// is unknown, disabled, or its cached definition no longer exists.
func (r *Registry) Get(ctx context.Context, key string) (block.Block, bool) {
	r.ensureDiscovered(ctx)

	r.mu.RLock()
	if r.disabled[key] {
		r.mu.RUnlock()
		return nil, false
	}
	if b, ok := r.manual[key]; ok {
		r.mu.RUnlock()
		return b, true
	}
	if b, ok := r.instances[key]; ok {
		r.mu.RUnlock()
		return b, true
	}
	name, ok := r.resolved[key]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}

	return r.instantiate(key, name)
}

// Has reports whether Get would succeed.
func (r *Registry) Has(ctx context.Context, key string) bool {
	_, ok := r.Get(ctx, key)
	return ok
}

// All returns every known, enabled block keyed by type key.
func (r *Registry) All(ctx context.Context) map[string]block.Block {
	out := make(map[string]block.Block)
	for _, key := range r.candidateKeys(ctx) {
		if b, ok := r.Get(ctx, key); ok {
			out[key] = b
		}
	}
	return out
}

// Keys returns the enabled keys in sorted order.
func (r *Registry) Keys(ctx context.Context) []string {
	all := r.All(ctx)
	keys := make([]string, 0, len(all))
	for k := range all {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Entries returns every enabled block as an entry sorted by order, then key.
func (r *Registry) Entries(ctx context.Context) []block.Entry {
	all := r.All(ctx)
	entries := make([]block.Entry, 0, len(all))
	for key, b := range all {
		entries = append(entries, block.NewEntry(key, b))
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Order != entries[j].Order {
			return entries[i].Order < entries[j].Order
		}
		return entries[i].Key < entries[j].Key
	})
	return entries
}

// SetDisabled replaces the disabled key set. Disabled blocks stay registered,
// so re-enabling them needs no rediscovery.
func (r *Registry) SetDisabled(keys []string) {
	set := make(map[string]bool, len(keys))
	for _, k := range keys {
		set[k] = true
	}

	r.mu.Lock()
	r.disabled = set
	r.mu.Unlock()
}

// Disabled returns the disabled keys in sorted order.
func (r *Registry) Disabled() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.disabled))
	for k := range r.disabled {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ClearCache forgets the shared cache entry and resets discovery so the next
// lookup rescans. Manual registrations are kept.
func (r *Registry) ClearCache(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.resolved = make(map[string]string)
	r.instances = make(map[string]block.Block)
	r.discovered = false
	r.generation.Add(1)

	if r.opts.Cache == nil {
		return nil
	}
	if err := r.opts.Cache.Forget(ctx, r.opts.CacheKey); err != nil {
		r.opts.Metrics.RecordCache("error")
		return fmt.Errorf("forget discovery cache: %w", err)
	}
	r.opts.Metrics.RecordCache("forget")
	r.opts.Logger.Info().Str("cache_key", r.opts.CacheKey).Msg("block discovery cache cleared")
	return nil
}

func (r *Registry) candidateKeys(ctx context.Context) []string {
	r.ensureDiscovered(ctx)

	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool, len(r.resolved))
	keys := make([]string, 0, len(r.resolved)+len(r.manual))
	for k := range r.resolved {
		seen[k] = true
		keys = append(keys, k)
	}
	for k := range r.manual {
		if !seen[k] {
			keys = append(keys, k)
		}
	}
	return keys
}

// instantiate builds the block for a resolved key from its definition.
func (r *Registry) instantiate(key, name string) (block.Block, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if b, ok := r.instances[key]; ok {
		return b, true
	}

	def, ok := r.definitions[name]
	if !ok {
		r.opts.Logger.Debug().Str("key", key).Str("definition", name).
			Msg("cached block definition no longer exists, treating as unknown")
		return nil, false
	}

	b, got, err := build(def)
	if err != nil {
		r.opts.Logger.Warn().Err(err).Str("key", key).Str("definition", name).Msg("block definition failed")
		return nil, false
	}
	if got != key {
		r.opts.Logger.Warn().Str("key", key).Str("definition", name).Str("actual_key", got).
			Msg("cached block definition now answers a different key, treating as unknown")
		return nil, false
	}

	r.instances[key] = b
	return b, true
}

func (r *Registry) cacheUsable() bool {
	return r.opts.Cache != nil && r.opts.CacheEnabled && !r.opts.Bypass
}

// ensureDiscovered runs discovery at most once until ClearCache.
func (r *Registry) ensureDiscovered(ctx context.Context) {
	r.mu.RLock()
	done := r.discovered
	r.mu.RUnlock()
	if done {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.discovered {
		return
	}

	if r.cacheUsable() {
		if resolved, ok := r.readCache(ctx); ok {
			r.resolved = resolved
			r.discovered = true
			r.opts.Metrics.RecordDiscovery("cache", 0, len(resolved))
			return
		}
	}

	start := time.Now()
	r.resolved, r.instances = r.scan()
	r.discovered = true
	r.scans++
	r.opts.Metrics.RecordDiscovery("scan", time.Since(start), len(r.resolved))
	r.opts.Logger.Debug().Int("blocks", len(r.resolved)).Dur("took", time.Since(start)).Msg("block discovery complete")

	if r.cacheUsable() {
		r.writeCache(ctx, r.resolved)
	}
}

// scan instantiates every definition and records the key it answers.
// A failing definition is logged and skipped.
func (r *Registry) scan() (map[string]string, map[string]block.Block) {
	resolved := make(map[string]string)
	instances := make(map[string]block.Block)

	for _, source := range [][]block.Definition{r.opts.Builtin, r.opts.Host} {
		for _, def := range source {
			b, key, err := build(def)
			if err != nil {
				r.opts.Logger.Warn().Err(err).Str("definition", def.Name).Msg("skipping block definition")
				r.opts.Metrics.RecordDiscoveryFailure(def.Name)
				continue
			}
			resolved[key] = def.Name
			instances[key] = b
		}
	}
	return resolved, instances
}

func (r *Registry) readCache(ctx context.Context) (map[string]string, bool) {
	raw, err := r.opts.Cache.Get(ctx, r.opts.CacheKey)
	if err != nil {
		r.opts.Metrics.RecordCache("error")
		r.opts.Logger.Warn().Err(err).Str("cache_key", r.opts.CacheKey).Msg("discovery cache read failed")
		return nil, false
	}
	if raw == nil {
		r.opts.Metrics.RecordCache("miss")
		return nil, false
	}

	var resolved map[string]string
	if err := json.Unmarshal(raw, &resolved); err != nil {
		r.opts.Metrics.RecordCache("error")
		r.opts.Logger.Warn().Err(err).Str("cache_key", r.opts.CacheKey).Msg("discovery cache entry is corrupt, rescanning")
		return nil, false
	}
	if resolved == nil {
		resolved = make(map[string]string)
	}
	r.opts.Metrics.RecordCache("hit")
	return resolved, true
}

func (r *Registry) writeCache(ctx context.Context, resolved map[string]string) {
	raw, err := json.Marshal(resolved)
	if err != nil {
		r.opts.Logger.Warn().Err(err).Msg("encode discovery cache entry")
		return
	}
	if err := r.opts.Cache.Put(ctx, r.opts.CacheKey, raw, r.opts.CacheTTL); err != nil {
		r.opts.Metrics.RecordCache("error")
		r.opts.Logger.Warn().Err(err).Str("cache_key", r.opts.CacheKey).Msg("discovery cache write failed")
		return
	}
	r.opts.Metrics.RecordCache("write")
}

// build runs a definition's factory and probes the resulting key, turning
// panics into errors.
func build(def block.Definition) (b block.Block, key string, err error) {
	if def.New == nil {
		return nil, "", fmt.Errorf("%w: definition %q has no factory", block.ErrInvalidType, def.Name)
	}

	defer func() {
		if rec := recover(); rec != nil {
			b, key = nil, ""
			err = fmt.Errorf("%w: factory %q panicked: %v\n%s", block.ErrInvalidType, def.Name, rec, debug.Stack())
		}
	}()

	b, err = def.New()
	if err != nil {
		return nil, "", fmt.Errorf("construct %q: %w", def.Name, err)
	}
	key, err = block.Probe(b)
	if err != nil {
		return nil, "", err
	}
	return b, key, nil
}
