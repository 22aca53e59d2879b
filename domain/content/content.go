// Package content provides the stored page content value types and the pure
// functions that normalize, clone and merge them.
package content

import (
	"encoding/json"
	"math"
)

// CurrentSchemaVersion is written into metadata when none is present.
const CurrentSchemaVersion = 1

// Keys of the stored content document.
const (
	KeySections      = "sections"
	KeyMetadata      = "metadata"
	KeySchemaVersion = "schema_version"
	KeyType          = "type"
	KeyData          = "data"
)

// Section is one block instance placed on a page.
type Section struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

// Content is the ordered section list of a page plus its metadata.
type Content struct {
	Sections []Section      `json:"sections"`
	Metadata map[string]any `json:"metadata"`
}

// SchemaVersion returns the metadata schema version, or CurrentSchemaVersion
// when it is missing or invalid.
func (c Content) SchemaVersion() int {
	if v, ok := positiveInt(c.Metadata[KeySchemaVersion]); ok {
		return v
	}
	return CurrentSchemaVersion
}

// Map renders the content as the JSON-compatible document that gets stored.
func (c Content) Map() map[string]any {
	sections := make([]any, 0, len(c.Sections))
	for _, s := range c.Sections {
		data := s.Data
		if data == nil {
			data = map[string]any{}
		}
		sections = append(sections, map[string]any{
			KeyType: s.Type,
			KeyData: data,
		})
	}
	return Normalize(map[string]any{
		KeySections: sections,
		KeyMetadata: c.Metadata,
	})
}

// Normalize backfills a stored content document so it always carries a
// sections list, a metadata object and a positive schema_version. The input is
// not modified.
func Normalize(raw any) map[string]any {
	src, ok := raw.(map[string]any)
	if !ok {
		src = map[string]any{}
	}

	out := make(map[string]any, len(src)+2)
	for k, v := range src {
		out[k] = v
	}

	if _, ok := out[KeySections].([]any); !ok {
		if typed, ok := out[KeySections].([]map[string]any); ok {
			list := make([]any, len(typed))
			for i, s := range typed {
				list[i] = s
			}
			out[KeySections] = list
		} else {
			out[KeySections] = []any{}
		}
	}

	meta, ok := out[KeyMetadata].(map[string]any)
	if !ok || meta == nil {
		meta = map[string]any{}
	} else {
		meta = cloneMap(meta)
	}
	if _, ok := positiveInt(meta[KeySchemaVersion]); !ok {
		meta[KeySchemaVersion] = CurrentSchemaVersion
	}
	out[KeyMetadata] = meta

	return out
}

// Decode normalizes raw and converts it into Content. Section entries that
// are not objects are dropped; a missing or non-string type becomes "".
func Decode(raw any) Content {
	doc := Normalize(raw)
	list := doc[KeySections].([]any)

	c := Content{
		Sections: make([]Section, 0, len(list)),
		Metadata: doc[KeyMetadata].(map[string]any),
	}
	for _, entry := range list {
		s, ok := SectionFrom(entry)
		if !ok {
			continue
		}
		c.Sections = append(c.Sections, s)
	}
	return c
}

// SectionFrom converts one decoded JSON entry into a Section. It reports false
// when the entry is not an object. A data value that is not an object becomes
// an empty map.
func SectionFrom(entry any) (Section, bool) {
	m, ok := entry.(map[string]any)
	if !ok {
		return Section{}, false
	}
	typ, _ := m[KeyType].(string)
	data, ok := m[KeyData].(map[string]any)
	if !ok {
		data = map[string]any{}
	}
	return Section{Type: typ, Data: data}, true
}

func positiveInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, n >= 1
	case int32:
		return int(n), n >= 1
	case int64:
		return int(n), n >= 1
	case float64:
		if n >= 1 && n == math.Trunc(n) && n <= math.MaxInt32 {
			return int(n), true
		}
	case json.Number:
		if i, err := n.Int64(); err == nil && i >= 1 {
			return int(i), true
		}
	}
	return 0, false
}
