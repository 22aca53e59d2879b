package media_test

import (
	"testing"

	"github.com/artpar/pageblocks/adapters/media"
)

func TestResolver_URL(t *testing.T) {
	r, err := media.NewResolver("https://cdn.example.com/media")
	if err != nil {
		t.Fatalf("NewResolver() error = %v", err)
	}

	tests := []struct {
		ref  string
		want string
	}{
		{"", ""},
		{"hero.jpg", "https://cdn.example.com/media/hero.jpg"},
		{"/2024/01/hero.jpg", "https://cdn.example.com/media/2024/01/hero.jpg"},
		{"  a.png ", "https://cdn.example.com/media/a.png"},
		{"https://other.example.com/x.png", "https://other.example.com/x.png"},
		{"//static.example.com/y.png", "//static.example.com/y.png"},
		{"img.png?w=200", "https://cdn.example.com/media/img.png?w=200"},
	}

	for _, tt := range tests {
		if got := r.URL(tt.ref); got != tt.want {
			t.Errorf("URL(%q) = %q, want %q", tt.ref, got, tt.want)
		}
	}
}

func TestResolver_EmptyBase(t *testing.T) {
	r, err := media.NewResolver("")
	if err != nil {
		t.Fatalf("NewResolver() error = %v", err)
	}
	if got := r.URL("a.jpg"); got != "a.jpg" {
		t.Errorf("URL() = %q, want a.jpg", got)
	}
}

func TestNewResolver_Invalid(t *testing.T) {
	for _, base := range []string{"cdn.example.com/media", "/media", "http://%zz"} {
		if _, err := media.NewResolver(base); err == nil {
			t.Errorf("NewResolver(%q) expected error", base)
		}
	}
}
