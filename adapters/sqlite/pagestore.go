package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/artpar/pageblocks/domain/content"
	"github.com/artpar/pageblocks/domain/page"
	"github.com/artpar/pageblocks/ports"
)

// PageStore implements ports.PageStore. Content is stored as normalized JSON.
type PageStore struct {
	db *DB
}

// NewPageStore creates a new page store.
func NewPageStore(db *DB) *PageStore {
	return &PageStore{db: db}
}

const pageColumns = `id, slug, title, content, status, created_at, updated_at`

// Get retrieves a page by ID.
func (s *PageStore) Get(ctx context.Context, id string) (page.Page, error) {
	return s.scanOne(s.db.QueryRowContext(ctx,
		`SELECT `+pageColumns+` FROM pages WHERE id = ?`, id))
}

// GetBySlug retrieves a page by slug.
func (s *PageStore) GetBySlug(ctx context.Context, slug string) (page.Page, error) {
	return s.scanOne(s.db.QueryRowContext(ctx,
		`SELECT `+pageColumns+` FROM pages WHERE slug = ?`, slug))
}

// List returns all pages ordered by slug.
func (s *PageStore) List(ctx context.Context) ([]page.Page, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+pageColumns+` FROM pages ORDER BY slug`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	pages := []page.Page{}
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, err
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

// Create stores a new page.
func (s *PageStore) Create(ctx context.Context, p page.Page) error {
	doc, err := encodeContent(p.Content)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO pages (`+pageColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Slug, p.Title, doc, string(p.Status),
		formatTime(p.CreatedAt), formatTime(p.UpdatedAt),
	)
	return mapConstraint(err)
}

// Update replaces an existing page.
func (s *PageStore) Update(ctx context.Context, p page.Page) error {
	doc, err := encodeContent(p.Content)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE pages SET slug = ?, title = ?, content = ?, status = ?, updated_at = ?
		WHERE id = ?`,
		p.Slug, p.Title, doc, string(p.Status), formatTime(p.UpdatedAt), p.ID,
	)
	if err != nil {
		return mapConstraint(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ports.ErrNotFound
	}
	return nil
}

// Delete removes a page.
func (s *PageStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM pages WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ports.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *PageStore) scanOne(row *sql.Row) (page.Page, error) {
	p, err := scanPage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return page.Page{}, ports.ErrNotFound
	}
	return p, err
}

func scanPage(row rowScanner) (page.Page, error) {
	var (
		p                    page.Page
		doc, status          string
		createdAt, updatedAt string
	)
	if err := row.Scan(&p.ID, &p.Slug, &p.Title, &doc, &status, &createdAt, &updatedAt); err != nil {
		return page.Page{}, err
	}

	var raw any
	if err := json.Unmarshal([]byte(doc), &raw); err != nil {
		return page.Page{}, fmt.Errorf("decode content of page %s: %w", p.ID, err)
	}
	p.Content = content.Normalize(raw)
	p.Status = page.Status(status)
	p.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	p.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return p, nil
}

func encodeContent(doc map[string]any) (string, error) {
	b, err := json.Marshal(content.Normalize(doc))
	if err != nil {
		return "", fmt.Errorf("encode page content: %w", err)
	}
	return string(b), nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func mapConstraint(err error) error {
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return fmt.Errorf("%w: %v", ports.ErrDuplicate, err)
	}
	return err
}

var _ ports.PageStore = (*PageStore)(nil)
