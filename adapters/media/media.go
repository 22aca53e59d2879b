// Package media resolves stored media references into public URLs.
package media

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/artpar/pageblocks/ports"
)

// Resolver joins relative references onto a base URL. Absolute references
// (with a scheme, or protocol-relative) are returned unchanged.
type Resolver struct {
	base *url.URL
}

// NewResolver parses baseURL. An empty base leaves references untouched.
func NewResolver(baseURL string) (*Resolver, error) {
	if baseURL == "" {
		return &Resolver{}, nil
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse media base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("media base url %q must be absolute", baseURL)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return &Resolver{base: u}, nil
}

// URL implements ports.MediaResolver.
func (r *Resolver) URL(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || r.base == nil {
		return ref
	}

	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	if u.IsAbs() || strings.HasPrefix(ref, "//") {
		return ref
	}

	// treat every reference as relative to the base path
	u.Path = strings.TrimLeft(u.Path, "/")
	return r.base.ResolveReference(u).String()
}

var _ ports.MediaResolver = (*Resolver)(nil)
