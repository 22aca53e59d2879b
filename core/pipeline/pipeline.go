// Package pipeline renders a page's ordered section list through the block
// types known to a registry.
//
// A section whose transform fails is re-emitted with its raw data, so one
// broken block never blanks a page. Output order always equals input order.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/artpar/pageblocks/adapters/metrics"
	"github.com/artpar/pageblocks/core/block"
	"github.com/artpar/pageblocks/domain/content"
	"github.com/rs/zerolog"
)

// Resolver looks up block types by key. *registry.Registry satisfies it.
type Resolver interface {
	Get(ctx context.Context, key string) (block.Block, bool)
}

// Pipeline transforms sections. It is safe for concurrent use.
type Pipeline struct {
	blocks        Resolver
	logger        zerolog.Logger
	metrics       *metrics.Collector
	filterMissing atomic.Bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger used for skipped and failed sections.
func WithLogger(l zerolog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Collector) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithFilterMissing drops sections whose type cannot be resolved.
func WithFilterMissing(filter bool) Option {
	return func(p *Pipeline) { p.filterMissing.Store(filter) }
}

// New creates a pipeline over the given resolver.
func New(blocks Resolver, opts ...Option) *Pipeline {
	p := &Pipeline{blocks: blocks, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SetFilterMissing switches between passthrough (false) and drop (true) for
// sections of unknown type. It takes effect for the next Transform call.
func (p *Pipeline) SetFilterMissing(filter bool) {
	p.filterMissing.Store(filter)
}

// FilterMissing reports the current unknown-type policy.
func (p *Pipeline) FilterMissing() bool {
	return p.filterMissing.Load()
}

// TransformRaw transforms a decoded JSON section list. Anything that is not a
// list yields an empty result. Entries that are not objects, or carry no
// string type, are skipped.
func (p *Pipeline) TransformRaw(ctx context.Context, raw any) []content.Section {
	var list []any
	switch v := raw.(type) {
	case []any:
		list = v
	case []map[string]any:
		list = make([]any, len(v))
		for i, m := range v {
			list[i] = m
		}
	default:
		if raw != nil {
			p.logger.Warn().Str("got", fmt.Sprintf("%T", raw)).Msg("sections is not a list, rendering nothing")
		}
		return []content.Section{}
	}

	sections := make([]content.Section, 0, len(list))
	for i, entry := range list {
		m, ok := entry.(map[string]any)
		if !ok {
			p.logger.Debug().Int("index", i).Msg("skipping non-object section")
			p.metrics.RecordSection("", metrics.OutcomeSkipped)
			continue
		}
		s, _ := content.SectionFrom(m)
		sections = append(sections, s)
	}
	return p.Transform(ctx, sections)
}

// Transform renders sections in order. Sections with an empty type are
// skipped. The input is not modified.
func (p *Pipeline) Transform(ctx context.Context, sections []content.Section) []content.Section {
	out := make([]content.Section, 0, len(sections))
	filter := p.filterMissing.Load()

	for i, s := range sections {
		if s.Type == "" {
			p.logger.Warn().Int("index", i).Msg("skipping section without a type")
			p.metrics.RecordSection("", metrics.OutcomeSkipped)
			continue
		}

		b, ok := p.blocks.Get(ctx, s.Type)
		if !ok {
			if filter {
				p.logger.Debug().Str("type", s.Type).Int("index", i).Msg("dropping section of unknown type")
				p.metrics.RecordSection(s.Type, metrics.OutcomeDropped)
				continue
			}
			p.metrics.RecordSection(s.Type, metrics.OutcomePassthrough)
			out = append(out, content.Section{Type: s.Type, Data: rawData(s.Data)})
			continue
		}

		start := time.Now()
		data, err := run(b, s.Data)
		p.metrics.ObserveTransform(s.Type, time.Since(start))
		if err != nil {
			p.logger.Error().Err(err).Str("type", s.Type).Int("index", i).Msg("block transform failed, emitting raw data")
			p.metrics.RecordSection(s.Type, metrics.OutcomeError)
			out = append(out, content.Section{Type: s.Type, Data: rawData(s.Data)})
			continue
		}

		p.metrics.RecordSection(s.Type, metrics.OutcomeOK)
		out = append(out, content.Section{Type: s.Type, Data: data})
	}
	return out
}

// run calls the block's transform on a private copy of data and converts a
// panic into an error carrying the stack. Output that cannot be encoded as
// JSON counts as a failure.
func run(b block.Block, data map[string]any) (out map[string]any, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = fmt.Errorf("transform panicked: %v\n%s", r, debug.Stack())
		}
	}()

	out, err = b.Transform(content.CloneData(rawData(data)))
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = map[string]any{}
	}
	if _, err := json.Marshal(out); err != nil {
		return nil, fmt.Errorf("transform output is not JSON: %w", err)
	}
	return out, nil
}

func rawData(data map[string]any) map[string]any {
	if data == nil {
		return map[string]any{}
	}
	return data
}
