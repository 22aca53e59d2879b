package builtin

import "github.com/artpar/pageblocks/ports"

// HeroData is the stored shape of a hero section.
type HeroData struct {
	Title    string   `json:"title" jsonschema:"description=Main headline"`
	Subtitle string   `json:"subtitle,omitempty"`
	Image    string   `json:"image,omitempty" jsonschema:"description=Media reference of the background image"`
	Align    string   `json:"align,omitempty" jsonschema:"enum=left,enum=center,enum=right"`
	CTA      *HeroCTA `json:"cta,omitempty"`
}

// HeroCTA is the optional call-to-action button.
type HeroCTA struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// Hero is a full-width banner with an optional image and button.
type Hero struct {
	media ports.MediaResolver
}

func (Hero) Key() string { return "hero" }
func (Hero) Label() string { return "Hero banner" }
func (Hero) Order() int { return 10 }
func (Hero) Group() string { return "layout" }
func (Hero) Schema() any { return HeroData{} }

func (h Hero) Transform(data map[string]any) (map[string]any, error) {
	align := str(data, "align")
	switch align {
	case "left", "center", "right":
	default:
		align = "center"
	}

	out := map[string]any{
		"title":    str(data, "title"),
		"subtitle": str(data, "subtitle"),
		"image":    h.media.URL(str(data, "image")),
		"align":    align,
	}
	if cta, ok := data["cta"].(map[string]any); ok && str(cta, "url") != "" {
		out["cta"] = map[string]any{
			"label": str(cta, "label"),
			"url":   str(cta, "url"),
		}
	}
	return out, nil
}
