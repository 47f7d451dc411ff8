package document

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed presets.yaml
var presetsYAML []byte

// Preset is a built-in layout skeleton users can start from. The frames are
// declared in YAML; item ids are assigned when the preset is instantiated.
type Preset struct {
	Name     string       `yaml:"name"`
	Category string       `yaml:"category"`
	Canvas   presetCanvas `yaml:"canvas"`
	Items    []presetItem `yaml:"items"`
}

type presetCanvas struct {
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	Background string `yaml:"background"` // "blur" or a hex color
}

type presetItem struct {
	Kind    string  `yaml:"kind"`
	X       float64 `yaml:"x"`
	Y       float64 `yaml:"y"`
	Width   float64 `yaml:"width"`
	Height  float64 `yaml:"height"`
	Source  string  `yaml:"source,omitempty"`
	Content string  `yaml:"content,omitempty"`
	Color   string  `yaml:"color,omitempty"`
}

// LoadPresets parses the embedded preset catalog.
func LoadPresets() ([]Preset, error) {
	var catalog struct {
		Presets []Preset `yaml:"presets"`
	}
	if err := yaml.Unmarshal(presetsYAML, &catalog); err != nil {
		return nil, fmt.Errorf("parse preset catalog: %w", err)
	}
	return catalog.Presets, nil
}

// Instantiate turns a preset into a LayoutDefinition. newItemID must return a
// fresh unique id per call.
func (p Preset) Instantiate(layoutID string, newItemID func() string) *LayoutDefinition {
	doc := NewEmptyLayout(layoutID, p.Name)
	doc.Category = p.Category
	if p.Canvas.Width > 0 && p.Canvas.Height > 0 {
		doc.Canvas.Width = p.Canvas.Width
		doc.Canvas.Height = p.Canvas.Height
	}
	if p.Canvas.Background == "blur" {
		doc.Canvas.Background = Background{
			Kind: BackgroundBlur,
			Blur: &BlurBackground{Radius: 24, Opacity: 1, Brightness: 0.6},
		}
	} else if p.Canvas.Background != "" {
		doc.Canvas.Background = Background{
			Kind:  BackgroundColor,
			Color: &ColorBackground{Color: p.Canvas.Background, Opacity: 1},
		}
	}

	for i, pi := range p.Items {
		it := LayoutItem{
			ID:      newItemID(),
			Frame:   Frame{X: pi.X, Y: pi.Y, Width: pi.Width, Height: pi.Height},
			ZIndex:  i,
			Opacity: 1,
		}
		switch pi.Kind {
		case "video":
			it.Kind = ItemKindVideo
			it.Video = &VideoProps{
				Source:          pi.Source,
				ScaleMode:       ScaleModeCover,
				LockAspectRatio: true,
			}
		case "text":
			it.Kind = ItemKindText
			it.Text = &TextProps{
				Content:  pi.Content,
				Align:    TextAlignCenter,
				Color:    orDefault(pi.Color, "#ffffff"),
				FontSize: 0.035,
			}
		case "shape":
			it.Kind = ItemKindShape
			it.Shape = &ShapeProps{Color: orDefault(pi.Color, "#000000")}
		default:
			continue
		}
		doc.Items = append(doc.Items, it)
	}

	return doc
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
