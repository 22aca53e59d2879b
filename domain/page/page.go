// Package page provides the page record value type. Pages own their content
// document; everything else about them is opaque to the block core.
package page

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/artpar/pageblocks/domain/content"
)

// Status is the publication state of a page.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusPublished, StatusArchived:
		return true
	}
	return false
}

// Page is a stored page record (immutable value type).
type Page struct {
	ID        string         `json:"id"`
	Slug      string         `json:"slug"`
	Title     string         `json:"title"`
	Content   map[string]any `json:"content"`
	Status    Status         `json:"status"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Decoded returns the page content as typed sections.
func (p Page) Decoded() content.Content {
	return content.Decode(p.Content)
}

// WithContent returns a copy with normalized content and a new update time.
func (p Page) WithContent(c content.Content, now time.Time) Page {
	p.Content = c.Map()
	p.UpdatedAt = now
	return p
}

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// ErrInvalidSlug is returned for slugs that are not lowercase kebab-case.
var ErrInvalidSlug = errors.New("slug must be lowercase letters, digits and single dashes")

// ErrInvalidStatus is returned for a status outside the known set.
var ErrInvalidStatus = errors.New("invalid page status")

// ValidateSlug checks the slug format.
func ValidateSlug(slug string) error {
	if !slugPattern.MatchString(slug) {
		return ErrInvalidSlug
	}
	return nil
}

// Slugify derives a slug from a title.
func Slugify(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
