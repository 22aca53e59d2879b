package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/artpar/pageblocks/adapters/memory"
	"github.com/artpar/pageblocks/domain/page"
	"github.com/artpar/pageblocks/ports"
)

func newPage(id, slug string) page.Page {
	return page.Page{
		ID:     id,
		Slug:   slug,
		Title:  slug,
		Status: page.StatusDraft,
		Content: map[string]any{
			"sections": []any{
				map[string]any{"type": "hero", "data": map[string]any{"title": "Hi"}},
			},
		},
	}
}

func TestPageStore_CRUD(t *testing.T) {
	ctx := context.Background()
	store := memory.NewPageStore()

	if err := store.Create(ctx, newPage("p1", "home")); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := store.Get(ctx, "p1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Slug != "home" {
		t.Errorf("Slug = %s, want home", got.Slug)
	}

	bySlug, err := store.GetBySlug(ctx, "home")
	if err != nil {
		t.Fatalf("GetBySlug() error = %v", err)
	}
	if bySlug.ID != "p1" {
		t.Errorf("ID = %s, want p1", bySlug.ID)
	}

	got.Slug = "landing"
	got.Title = "Landing"
	if err := store.Update(ctx, got); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if _, err := store.GetBySlug(ctx, "home"); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("old slug lookup error = %v, want ErrNotFound", err)
	}
	if p, _ := store.GetBySlug(ctx, "landing"); p.Title != "Landing" {
		t.Errorf("Title = %s, want Landing", p.Title)
	}

	if err := store.Delete(ctx, "p1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.Get(ctx, "p1"); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("Get after delete error = %v, want ErrNotFound", err)
	}
	if err := store.Delete(ctx, "p1"); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("Delete(missing) error = %v, want ErrNotFound", err)
	}
}

func TestPageStore_Duplicates(t *testing.T) {
	ctx := context.Background()
	store := memory.NewPageStore()

	_ = store.Create(ctx, newPage("p1", "home"))
	_ = store.Create(ctx, newPage("p2", "about"))

	if err := store.Create(ctx, newPage("p1", "other")); !errors.Is(err, ports.ErrDuplicate) {
		t.Errorf("duplicate ID error = %v, want ErrDuplicate", err)
	}
	if err := store.Create(ctx, newPage("p3", "home")); !errors.Is(err, ports.ErrDuplicate) {
		t.Errorf("duplicate slug error = %v, want ErrDuplicate", err)
	}

	p2, _ := store.Get(ctx, "p2")
	p2.Slug = "home"
	if err := store.Update(ctx, p2); !errors.Is(err, ports.ErrDuplicate) {
		t.Errorf("Update to taken slug error = %v, want ErrDuplicate", err)
	}
	if err := store.Update(ctx, newPage("nope", "nope")); !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("Update(missing) error = %v, want ErrNotFound", err)
	}
}

func TestPageStore_ListSortedBySlug(t *testing.T) {
	ctx := context.Background()
	store := memory.NewPageStore()

	for _, p := range []page.Page{newPage("1", "zeta"), newPage("2", "alpha"), newPage("3", "mid")} {
		_ = store.Create(ctx, p)
	}

	pages, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	want := []string{"alpha", "mid", "zeta"}
	if len(pages) != len(want) {
		t.Fatalf("len = %d, want %d", len(pages), len(want))
	}
	for i, slug := range want {
		if pages[i].Slug != slug {
			t.Errorf("pages[%d].Slug = %s, want %s", i, pages[i].Slug, slug)
		}
	}
}

func TestPageStore_ContentIsolated(t *testing.T) {
	ctx := context.Background()
	store := memory.NewPageStore()

	p := newPage("p1", "home")
	_ = store.Create(ctx, p)
	p.Content["metadata"] = map[string]any{"x": 1}

	got, _ := store.Get(ctx, "p1")
	if _, ok := got.Content["metadata"]; ok {
		t.Error("caller mutation leaked into store")
	}
	got.Content["sections"] = nil

	again, _ := store.Get(ctx, "p1")
	if again.Content["sections"] == nil {
		t.Error("returned page shares content with store")
	}
}
