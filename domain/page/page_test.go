package page

import (
	"testing"
	"time"

	"github.com/artpar/pageblocks/domain/content"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Hello World", "hello-world"},
		{"  Spaces  around  ", "spaces-around"},
		{"Ünïcode & Symbols!", "n-code-symbols"},
		{"already-a-slug", "already-a-slug"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			if got := Slugify(tt.title); got != tt.want {
				t.Errorf("Slugify(%q) = %q, want %q", tt.title, got, tt.want)
			}
		})
	}
}

func TestValidateSlug(t *testing.T) {
	valid := []string{"home", "about-us", "v2-launch"}
	invalid := []string{"", "Home", "about--us", "-lead", "trail-", "with space"}

	for _, s := range valid {
		if err := ValidateSlug(s); err != nil {
			t.Errorf("ValidateSlug(%q) = %v, want nil", s, err)
		}
	}
	for _, s := range invalid {
		if err := ValidateSlug(s); err == nil {
			t.Errorf("ValidateSlug(%q) = nil, want error", s)
		}
	}
}

func TestStatusValid(t *testing.T) {
	if !StatusPublished.Valid() {
		t.Error("published should be valid")
	}
	if Status("deleted").Valid() {
		t.Error("deleted should be invalid")
	}
}

func TestWithContent(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	p := Page{ID: "p1"}

	updated := p.WithContent(content.Content{
		Sections: []content.Section{{Type: "text", Data: map[string]any{"title": "x"}}},
	}, now)

	if !updated.UpdatedAt.Equal(now) {
		t.Errorf("UpdatedAt = %v, want %v", updated.UpdatedAt, now)
	}
	if p.Content != nil {
		t.Error("original page should be unchanged")
	}
	if got := updated.Decoded(); len(got.Sections) != 1 || got.Sections[0].Type != "text" {
		t.Errorf("Decoded() = %+v", got)
	}
}
