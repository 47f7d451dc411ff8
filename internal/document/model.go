package document

// Frame is a rectangle in fractional canvas coordinates. All values live in
// [0,1]; x+width <= 1 and y+height <= 1 is the committed invariant (transient
// drags may briefly violate it, commits never do).
type Frame struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Right returns the x coordinate of the frame's east edge.
func (f Frame) Right() float64 { return f.X + f.Width }

// Bottom returns the y coordinate of the frame's south edge.
func (f Frame) Bottom() float64 { return f.Y + f.Height }

// Center returns the frame's center point.
func (f Frame) Center() (float64, float64) {
	return f.X + f.Width/2, f.Y + f.Height/2
}

// Contains reports whether the point lies inside the frame, edges inclusive.
func (f Frame) Contains(x, y float64) bool {
	return x >= f.X && x <= f.X+f.Width && y >= f.Y && y <= f.Y+f.Height
}

// AspectRatio returns width/height, or 0 when the frame is degenerate.
// Callers must treat 0 as "no ratio" and fall back to their own default.
func (f Frame) AspectRatio() float64 {
	if f.Width <= 0 || f.Height <= 0 {
		return 0
	}
	return f.Width / f.Height
}

// CropUnits distinguishes fractional crops (relative to the source rectangle)
// from pixel-space crops used by raw assets.
type CropUnits string

const (
	CropUnitsFraction CropUnits = "fraction"
	CropUnitsPixel    CropUnits = "pixel"
)

// Crop is the sub-region of source media an item samples. Same shape as Frame
// but relative to the source rectangle rather than the canvas.
type Crop struct {
	X      float64   `json:"x"`
	Y      float64   `json:"y"`
	Width  float64   `json:"width"`
	Height float64   `json:"height"`
	Units  CropUnits `json:"units,omitempty"`
}

// FullCrop is the default crop covering the entire source.
func FullCrop() Crop {
	return Crop{X: 0, Y: 0, Width: 1, Height: 1, Units: CropUnitsFraction}
}

// AspectRatio returns width/height, or 0 when the crop is degenerate.
func (c Crop) AspectRatio() float64 {
	if c.Width <= 0 || c.Height <= 0 {
		return 0
	}
	return c.Width / c.Height
}

type ItemKind string

const (
	ItemKindVideo ItemKind = "video"
	ItemKindText  ItemKind = "text"
	ItemKindShape ItemKind = "shape"
)

type ScaleMode string

const (
	ScaleModeCover   ScaleMode = "cover"
	ScaleModeContain ScaleMode = "contain"
	ScaleModeFill    ScaleMode = "fill"
)

// VideoProps carries the video-specific fields of a LayoutItem.
type VideoProps struct {
	Source              string    `json:"source"`
	Name                string    `json:"name,omitempty"`
	Crop                *Crop     `json:"crop,omitempty"`
	SourceCrop          *Crop     `json:"sourceCrop,omitempty"`
	ScaleMode           ScaleMode `json:"scaleMode,omitempty"`
	Rotation            *float64  `json:"rotation,omitempty"`
	Mirror              bool      `json:"mirror,omitempty"`
	LockAspectRatio     bool      `json:"lockAspectRatio"`
	LockCropAspectRatio bool      `json:"lockCropAspectRatio,omitempty"`
	FrameAspectRatio    *float64  `json:"frameAspectRatio,omitempty"`
	CropAspectRatio     *float64  `json:"cropAspectRatio,omitempty"`
}

// EffectiveCrop returns the item's crop, defaulting to the full source.
func (v *VideoProps) EffectiveCrop() Crop {
	if v == nil || v.Crop == nil {
		return FullCrop()
	}
	return *v.Crop
}

type TextAlign string

const (
	TextAlignLeft   TextAlign = "left"
	TextAlignCenter TextAlign = "center"
	TextAlignRight  TextAlign = "right"
)

// TextProps carries the text-specific fields of a LayoutItem.
type TextProps struct {
	Content    string    `json:"content"`
	Align      TextAlign `json:"align,omitempty"`
	Color      string    `json:"color,omitempty"`
	FontFamily string    `json:"fontFamily,omitempty"`
	FontSize   float64   `json:"fontSize,omitempty"`
	FontWeight int       `json:"fontWeight,omitempty"`
	LineHeight float64   `json:"lineHeight,omitempty"`
}

// ShapeProps carries the shape-specific fields of a LayoutItem.
type ShapeProps struct {
	Color        string  `json:"color"`
	BorderRadius float64 `json:"borderRadius,omitempty"`
}

// LayoutItem is one element placed on the canvas. Kind selects which of the
// Video/Text/Shape payloads is populated; consumers switch exhaustively on it.
type LayoutItem struct {
	ID      string   `json:"id"`
	Kind    ItemKind `json:"kind"`
	Frame   Frame    `json:"frame"`
	ZIndex  int      `json:"zIndex"`
	Opacity float64  `json:"opacity"`

	Video *VideoProps `json:"video,omitempty"`
	Text  *TextProps  `json:"text,omitempty"`
	Shape *ShapeProps `json:"shape,omitempty"`
}

type BackgroundKind string

const (
	BackgroundColor BackgroundKind = "color"
	BackgroundImage BackgroundKind = "image"
	BackgroundBlur  BackgroundKind = "blur"
)

// ColorBackground fills the canvas with a flat color.
type ColorBackground struct {
	Color   string  `json:"color"`
	Opacity float64 `json:"opacity"`
}

// ImageBackground covers the canvas with a still image.
type ImageBackground struct {
	Source string `json:"source"`
	Mode   string `json:"mode,omitempty"`
	Tint   string `json:"tint,omitempty"`
}

// BlurBackground derives the background from the live video feed.
type BlurBackground struct {
	Radius     int     `json:"radius"`
	Opacity    float64 `json:"opacity"`
	Brightness float64 `json:"brightness,omitempty"`
	Saturation float64 `json:"saturation,omitempty"`
}

// Background is a tagged union over the three background kinds.
type Background struct {
	Kind  BackgroundKind   `json:"kind"`
	Color *ColorBackground `json:"color,omitempty"`
	Image *ImageBackground `json:"image,omitempty"`
	Blur  *BlurBackground  `json:"blur,omitempty"`
}

// CanvasConfig defines the output raster: pixel dimensions plus background.
type CanvasConfig struct {
	Width      int        `json:"width"`
	Height     int        `json:"height"`
	Background Background `json:"background"`
}

// AspectRatio returns the canvas width/height ratio, or 0 when degenerate.
func (c CanvasConfig) AspectRatio() float64 {
	if c.Width <= 0 || c.Height <= 0 {
		return 0
	}
	return float64(c.Width) / float64(c.Height)
}

// LayoutDefinition is the root document. Items keep insertion order; render
// order is derived from (zIndex, id) and never stored.
type LayoutDefinition struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Version     int          `json:"version"`
	Description string       `json:"description,omitempty"`
	Author      string       `json:"author,omitempty"`
	Tags        []string     `json:"tags,omitempty"`
	Category    string       `json:"category,omitempty"`
	CreatedAt   string       `json:"createdAt,omitempty"`
	UpdatedAt   string       `json:"updatedAt,omitempty"`
	Canvas      CanvasConfig `json:"canvas"`
	CaptionArea *Frame       `json:"captionArea,omitempty"`
	Items       []LayoutItem `json:"items"`
}

// Item returns a pointer to the item with the given id, or nil.
func (d *LayoutDefinition) Item(id string) *LayoutItem {
	for i := range d.Items {
		if d.Items[i].ID == id {
			return &d.Items[i]
		}
	}
	return nil
}

// RemoveItem deletes the item with the given id, preserving order.
// Returns true if an item was removed.
func (d *LayoutDefinition) RemoveItem(id string) bool {
	for i := range d.Items {
		if d.Items[i].ID == id {
			d.Items = append(d.Items[:i], d.Items[i+1:]...)
			return true
		}
	}
	return false
}
