// Package app contains the ContentService, which composes the block registry,
// pipeline, validator and info extractor into page editing and rendering
// operations. All I/O happens through injected ports.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/artpar/pageblocks/core/block"
	"github.com/artpar/pageblocks/core/info"
	"github.com/artpar/pageblocks/core/pipeline"
	"github.com/artpar/pageblocks/core/schema"
	"github.com/artpar/pageblocks/core/validation"
	"github.com/artpar/pageblocks/domain/content"
	"github.com/artpar/pageblocks/domain/page"
	"github.com/artpar/pageblocks/ports"
)

var (
	// ErrPageNotFound is returned when a page ID or slug does not exist.
	ErrPageNotFound = errors.New("page not found")

	// ErrUnknownBlockType is returned when a section names a type that is not
	// registered or is disabled.
	ErrUnknownBlockType = errors.New("unknown block type")

	// ErrSectionIndex is returned for a section index outside the page.
	ErrSectionIndex = errors.New("section index out of range")
)

// BlockCatalog is the registry surface the service needs.
type BlockCatalog interface {
	Get(ctx context.Context, key string) (block.Block, bool)
	Entries(ctx context.Context) []block.Entry
	ClearCache(ctx context.Context) error
	Generation() uint64
}

// ContentService manages pages made of block sections.
type ContentService struct {
	pages     ports.PageStore
	blocks    BlockCatalog
	pipeline  *pipeline.Pipeline
	extractor *info.Extractor
	validator *validation.Validator
	clock     ports.Clock
	idGen     ports.IDGenerator
	logger    zerolog.Logger
}

// NewContentService creates a new content service.
func NewContentService(
	pages ports.PageStore,
	blocks BlockCatalog,
	pl *pipeline.Pipeline,
	extractor *info.Extractor,
	validator *validation.Validator,
	clock ports.Clock,
	idGen ports.IDGenerator,
	logger zerolog.Logger,
) *ContentService {
	return &ContentService{
		pages:     pages,
		blocks:    blocks,
		pipeline:  pl,
		extractor: extractor,
		validator: validator,
		clock:     clock,
		idGen:     idGen,
		logger:    logger,
	}
}

// -----------------------------------------------------------------------------
// Block introspection
// -----------------------------------------------------------------------------

// ListBlocks describes every enabled block type, sorted by order then key.
func (s *ContentService) ListBlocks(ctx context.Context) []info.Descriptor {
	entries := s.blocks.Entries(ctx)
	out := make([]info.Descriptor, 0, len(entries))
	s.extractor.Sync(s.blocks.Generation())
	for _, e := range entries {
		out = append(out, s.extractor.Extract(e.Key, e.Block))
	}
	return out
}

// DescribeBlock describes one block type.
func (s *ContentService) DescribeBlock(ctx context.Context, key string) (info.Descriptor, error) {
	b, ok := s.blocks.Get(ctx, key)
	if !ok {
		return info.Descriptor{}, fmt.Errorf("%w: %q", ErrUnknownBlockType, key)
	}
	s.extractor.Sync(s.blocks.Generation())
	return s.extractor.Extract(key, b), nil
}

// ValidateSection checks data against the fields of block type key.
func (s *ContentService) ValidateSection(ctx context.Context, key string, data map[string]any) (validation.Result, error) {
	b, ok := s.blocks.Get(ctx, key)
	if !ok {
		return validation.Result{}, fmt.Errorf("%w: %q", ErrUnknownBlockType, key)
	}
	return s.validator.Validate(data, s.fields(key, b), "data"), nil
}

// ClearCache invalidates block discovery and the memoized field lists.
func (s *ContentService) ClearCache(ctx context.Context) error {
	if err := s.blocks.ClearCache(ctx); err != nil {
		return err
	}
	s.extractor.Reset()
	return nil
}

// -----------------------------------------------------------------------------
// Rendering
// -----------------------------------------------------------------------------

// Render transforms a decoded JSON section list.
func (s *ContentService) Render(ctx context.Context, sections any) []content.Section {
	return s.pipeline.TransformRaw(ctx, sections)
}

// RenderedPage is a page with its sections transformed for delivery.
type RenderedPage struct {
	ID        string            `json:"id"`
	Slug      string            `json:"slug"`
	Title     string            `json:"title"`
	Status    page.Status       `json:"status"`
	Sections  []content.Section `json:"sections"`
	Metadata  map[string]any    `json:"metadata"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// RenderPage loads a page by slug and transforms its sections.
func (s *ContentService) RenderPage(ctx context.Context, slug string) (RenderedPage, error) {
	p, err := s.GetPageBySlug(ctx, slug)
	if err != nil {
		return RenderedPage{}, err
	}

	doc := content.Normalize(p.Content)
	return RenderedPage{
		ID:        p.ID,
		Slug:      p.Slug,
		Title:     p.Title,
		Status:    p.Status,
		Sections:  s.pipeline.TransformRaw(ctx, doc[content.KeySections]),
		Metadata:  doc[content.KeyMetadata].(map[string]any),
		UpdatedAt: p.UpdatedAt,
	}, nil
}

// -----------------------------------------------------------------------------
// Pages
// -----------------------------------------------------------------------------

// CreatePageRequest describes a new page. An empty slug is derived from the
// title; an empty status means draft.
type CreatePageRequest struct {
	Slug     string            `json:"slug"`
	Title    string            `json:"title"`
	Status   page.Status       `json:"status"`
	Sections []content.Section `json:"sections"`
	Metadata map[string]any    `json:"metadata"`
}

// CreatePage validates every section and stores a new page.
func (s *ContentService) CreatePage(ctx context.Context, req CreatePageRequest) (page.Page, error) {
	slug := req.Slug
	if slug == "" {
		slug = page.Slugify(req.Title)
	}
	if err := page.ValidateSlug(slug); err != nil {
		return page.Page{}, err
	}

	status := req.Status
	if status == "" {
		status = page.StatusDraft
	}
	if !status.Valid() {
		return page.Page{}, fmt.Errorf("%w: %q", page.ErrInvalidStatus, status)
	}

	for i, sec := range req.Sections {
		if err := s.checkSection(ctx, sec, i); err != nil {
			return page.Page{}, err
		}
	}

	now := s.clock.Now()
	p := page.Page{
		ID:        s.idGen.New(),
		Slug:      slug,
		Title:     req.Title,
		Status:    status,
		CreatedAt: now,
	}
	p = p.WithContent(content.Content{Sections: req.Sections, Metadata: req.Metadata}, now)

	if err := s.pages.Create(ctx, p); err != nil {
		return page.Page{}, err
	}

	s.logger.Info().Str("page_id", p.ID).Str("slug", p.Slug).Int("sections", len(req.Sections)).Msg("page created")
	return p, nil
}

// GetPage returns a page by ID.
func (s *ContentService) GetPage(ctx context.Context, id string) (page.Page, error) {
	p, err := s.pages.Get(ctx, id)
	return p, mapNotFound(err)
}

// GetPageBySlug returns a page by slug.
func (s *ContentService) GetPageBySlug(ctx context.Context, slug string) (page.Page, error) {
	p, err := s.pages.GetBySlug(ctx, slug)
	return p, mapNotFound(err)
}

// ListPages returns all pages.
func (s *ContentService) ListPages(ctx context.Context) ([]page.Page, error) {
	return s.pages.List(ctx)
}

// DeletePage removes a page.
func (s *ContentService) DeletePage(ctx context.Context, id string) error {
	return mapNotFound(s.pages.Delete(ctx, id))
}

// -----------------------------------------------------------------------------
// Section editing
// -----------------------------------------------------------------------------

// AppendSection validates sec and adds it to the end of the page.
func (s *ContentService) AppendSection(ctx context.Context, pageID string, sec content.Section) (page.Page, error) {
	return s.edit(ctx, pageID, func(c *content.Content) error {
		if err := s.checkSection(ctx, sec, len(c.Sections)); err != nil {
			return err
		}
		if sec.Data == nil {
			sec.Data = map[string]any{}
		}
		c.Sections = append(c.Sections, sec)
		return nil
	})
}

// UpdateSection deep-merges patch into the data of the section at index and
// validates the merged payload as a whole before saving. An invalid result
// is returned as a *validation.Error and nothing is written.
func (s *ContentService) UpdateSection(ctx context.Context, pageID string, index int, patch map[string]any) (page.Page, error) {
	return s.edit(ctx, pageID, func(c *content.Content) error {
		if index < 0 || index >= len(c.Sections) {
			return fmt.Errorf("%w: %d of %d", ErrSectionIndex, index, len(c.Sections))
		}
		sec := c.Sections[index]

		b, ok := s.blocks.Get(ctx, sec.Type)
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownBlockType, sec.Type)
		}

		path := fmt.Sprintf("sections[%d].data", index)
		merged, res := s.validator.MergeAndValidate(sec.Data, patch, s.fields(sec.Type, b), path)
		if !res.Valid {
			return res.Err()
		}
		c.Sections[index].Data = merged
		return nil
	})
}

// RemoveSection deletes the section at index.
func (s *ContentService) RemoveSection(ctx context.Context, pageID string, index int) (page.Page, error) {
	return s.edit(ctx, pageID, func(c *content.Content) error {
		if index < 0 || index >= len(c.Sections) {
			return fmt.Errorf("%w: %d of %d", ErrSectionIndex, index, len(c.Sections))
		}
		c.Sections = append(c.Sections[:index], c.Sections[index+1:]...)
		return nil
	})
}

// MoveSection moves the section at from so that it ends up at index to.
func (s *ContentService) MoveSection(ctx context.Context, pageID string, from, to int) (page.Page, error) {
	return s.edit(ctx, pageID, func(c *content.Content) error {
		n := len(c.Sections)
		if from < 0 || from >= n || to < 0 || to >= n {
			return fmt.Errorf("%w: move %d -> %d of %d", ErrSectionIndex, from, to, n)
		}
		sec := c.Sections[from]
		rest := append(c.Sections[:from:from], c.Sections[from+1:]...)
		c.Sections = append(rest[:to:to], append([]content.Section{sec}, rest[to:]...)...)
		return nil
	})
}

// edit loads a page, applies fn to its decoded content and saves the result.
// There is no optimistic locking; concurrent editors of one page race.
func (s *ContentService) edit(ctx context.Context, pageID string, fn func(*content.Content) error) (page.Page, error) {
	p, err := s.GetPage(ctx, pageID)
	if err != nil {
		return page.Page{}, err
	}

	c := p.Decoded()
	if err := fn(&c); err != nil {
		return page.Page{}, err
	}

	p = p.WithContent(c, s.clock.Now())
	if err := s.pages.Update(ctx, p); err != nil {
		return page.Page{}, mapNotFound(err)
	}

	s.logger.Debug().Str("page_id", p.ID).Int("sections", len(c.Sections)).Msg("page content updated")
	return p, nil
}

// checkSection requires a known type and valid data.
func (s *ContentService) checkSection(ctx context.Context, sec content.Section, index int) error {
	if sec.Type == "" {
		return fmt.Errorf("sections[%d]: %w: empty type", index, ErrUnknownBlockType)
	}
	b, ok := s.blocks.Get(ctx, sec.Type)
	if !ok {
		return fmt.Errorf("sections[%d]: %w: %q", index, ErrUnknownBlockType, sec.Type)
	}

	data := sec.Data
	if data == nil {
		data = map[string]any{}
	}
	path := fmt.Sprintf("sections[%d].data", index)
	return s.validator.Validate(data, s.fields(sec.Type, b), path).Err()
}

// fields returns the memoized field list of b, dropping the memo first when
// the registry has changed since it was built.
func (s *ContentService) fields(key string, b block.Block) []schema.Field {
	s.extractor.Sync(s.blocks.Generation())
	return s.extractor.Fields(key, b)
}

func mapNotFound(err error) error {
	if errors.Is(err, ports.ErrNotFound) {
		return ErrPageNotFound
	}
	return err
}
