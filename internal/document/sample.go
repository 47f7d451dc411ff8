package document

// NewEmptyLayout creates a minimal vertical-canvas layout for a new document.
// Timestamps are left blank for the caller to fill.
func NewEmptyLayout(layoutID, name string) *LayoutDefinition {
	return &LayoutDefinition{
		ID:      layoutID,
		Name:    name,
		Version: 1,
		Canvas: CanvasConfig{
			Width:  1080,
			Height: 1920,
			Background: Background{
				Kind:  BackgroundColor,
				Color: &ColorBackground{Color: "#000000", Opacity: 1},
			},
		},
		Items: []LayoutItem{},
	}
}

// NewSampleLayout builds the built-in demo document: one full-width video,
// a title text, and a backing shape, over a blurred-feed background.
func NewSampleLayout(layoutID, videoItemID, textItemID, shapeItemID string) *LayoutDefinition {
	rotation := 0.0

	return &LayoutDefinition{
		ID:       layoutID,
		Name:     "Sample layout",
		Version:  1,
		Category: "samples",
		Canvas: CanvasConfig{
			Width:  1080,
			Height: 1920,
			Background: Background{
				Kind: BackgroundBlur,
				Blur: &BlurBackground{Radius: 24, Opacity: 1, Brightness: 0.6, Saturation: 1},
			},
		},
		CaptionArea: &Frame{X: 0.05, Y: 0.78, Width: 0.9, Height: 0.15},
		Items: []LayoutItem{
			{
				ID:      shapeItemID,
				Kind:    ItemKindShape,
				Frame:   Frame{X: 0.05, Y: 0.06, Width: 0.9, Height: 0.12},
				ZIndex:  0,
				Opacity: 0.85,
				Shape:   &ShapeProps{Color: "#1a1a2e", BorderRadius: 0.02},
			},
			{
				ID:      videoItemID,
				Kind:    ItemKindVideo,
				Frame:   Frame{X: 0, Y: 0.25, Width: 1, Height: 0.5},
				ZIndex:  1,
				Opacity: 1,
				Video: &VideoProps{
					Source:          "clip:primary",
					Name:            "Primary clip",
					ScaleMode:       ScaleModeCover,
					Rotation:        &rotation,
					LockAspectRatio: true,
				},
			},
			{
				ID:      textItemID,
				Kind:    ItemKindText,
				Frame:   Frame{X: 0.1, Y: 0.08, Width: 0.8, Height: 0.08},
				ZIndex:  2,
				Opacity: 1,
				Text: &TextProps{
					Content:    "Sample title",
					Align:      TextAlignCenter,
					Color:      "#ffffff",
					FontFamily: "sans-serif",
					FontSize:   0.04,
					FontWeight: 700,
					LineHeight: 1.2,
				},
			},
		},
	}
}
