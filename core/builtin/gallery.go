package builtin

import "github.com/artpar/pageblocks/ports"

// Column bounds of a gallery grid.
const (
	DefaultGalleryColumns = 3
	MaxGalleryColumns     = 6
)

// GalleryData is the stored shape of a gallery section.
type GalleryData struct {
	Title   string         `json:"title,omitempty"`
	Columns int            `json:"columns,omitempty" jsonschema:"minimum=1,maximum=6"`
	Images  []GalleryImage `json:"images"`
}

// GalleryImage is one image of a gallery.
type GalleryImage struct {
	MediaID string `json:"media_id"`
	Caption string `json:"caption,omitempty"`
	Alt     string `json:"alt,omitempty"`
}

// Gallery is a grid of images.
type Gallery struct {
	media ports.MediaResolver
}

func (Gallery) Key() string { return "gallery" }
func (Gallery) Label() string { return "Image gallery" }
func (Gallery) Order() int { return 30 }
func (Gallery) Group() string { return "media" }
func (Gallery) Schema() any { return GalleryData{} }

func (g Gallery) Transform(data map[string]any) (map[string]any, error) {
	columns, ok := integer(data, "columns")
	if !ok || columns < 1 {
		columns = DefaultGalleryColumns
	}
	if columns > MaxGalleryColumns {
		columns = MaxGalleryColumns
	}

	raw, _ := data["images"].([]any)
	images := make([]any, 0, len(raw))
	for _, entry := range raw {
		img, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		ref := str(img, "media_id")
		if ref == "" {
			continue
		}
		images = append(images, map[string]any{
			"url":     g.media.URL(ref),
			"caption": str(img, "caption"),
			"alt":     str(img, "alt"),
		})
	}

	return map[string]any{
		"title":   str(data, "title"),
		"columns": columns,
		"images":  images,
	}, nil
}
