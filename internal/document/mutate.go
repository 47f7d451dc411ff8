package document

import "sort"

// Clone deep-copies the document. History snapshots and in-drag previews each
// get their own copy; aliased frames or crops across snapshots would corrupt
// undo, so every nested pointer is duplicated here.
func (d *LayoutDefinition) Clone() *LayoutDefinition {
	if d == nil {
		return nil
	}

	out := *d

	if d.Tags != nil {
		out.Tags = append([]string(nil), d.Tags...)
	}
	if d.CaptionArea != nil {
		area := *d.CaptionArea
		out.CaptionArea = &area
	}
	out.Canvas.Background = cloneBackground(d.Canvas.Background)

	out.Items = make([]LayoutItem, len(d.Items))
	for i := range d.Items {
		out.Items[i] = cloneItem(d.Items[i])
	}

	return &out
}

func cloneBackground(b Background) Background {
	out := b
	if b.Color != nil {
		c := *b.Color
		out.Color = &c
	}
	if b.Image != nil {
		img := *b.Image
		out.Image = &img
	}
	if b.Blur != nil {
		bl := *b.Blur
		out.Blur = &bl
	}
	return out
}

func cloneItem(it LayoutItem) LayoutItem {
	out := it
	if it.Video != nil {
		v := *it.Video
		if it.Video.Crop != nil {
			c := *it.Video.Crop
			v.Crop = &c
		}
		if it.Video.SourceCrop != nil {
			c := *it.Video.SourceCrop
			v.SourceCrop = &c
		}
		if it.Video.Rotation != nil {
			r := *it.Video.Rotation
			v.Rotation = &r
		}
		if it.Video.FrameAspectRatio != nil {
			r := *it.Video.FrameAspectRatio
			v.FrameAspectRatio = &r
		}
		if it.Video.CropAspectRatio != nil {
			r := *it.Video.CropAspectRatio
			v.CropAspectRatio = &r
		}
		out.Video = &v
	}
	if it.Text != nil {
		t := *it.Text
		out.Text = &t
	}
	if it.Shape != nil {
		s := *it.Shape
		out.Shape = &s
	}
	return out
}

// RenderOrder returns item indices sorted by (zIndex, id). Ties on zIndex
// break by lexical id order so the paint order is stable across re-sorts.
func (d *LayoutDefinition) RenderOrder() []int {
	order := make([]int, len(d.Items))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ia, ib := &d.Items[order[a]], &d.Items[order[b]]
		if ia.ZIndex != ib.ZIndex {
			return ia.ZIndex < ib.ZIndex
		}
		return ia.ID < ib.ID
	})
	return order
}

// AlignCropToFrame re-derives a video item's crop to match the frame's aspect
// ratio: whichever crop dimension overshoots the target aspect shrinks, the
// crop center stays fixed, and the result is clamped back into [0,1].
// No-op for non-video items and degenerate frames.
func AlignCropToFrame(it *LayoutItem) {
	if it.Kind != ItemKindVideo || it.Video == nil {
		return
	}
	target := it.Frame.AspectRatio()
	if target <= 0 {
		return
	}

	crop := it.Video.EffectiveCrop()
	if crop.Width <= 0 || crop.Height <= 0 {
		crop = FullCrop()
	}

	cx := crop.X + crop.Width/2
	cy := crop.Y + crop.Height/2

	if crop.Width/crop.Height > target {
		crop.Width = crop.Height * target
	} else {
		crop.Height = crop.Width / target
	}

	crop.X = cx - crop.Width/2
	crop.Y = cy - crop.Height/2

	if crop.X < 0 {
		crop.X = 0
	}
	if crop.Y < 0 {
		crop.Y = 0
	}
	if crop.X+crop.Width > 1 {
		crop.X = 1 - crop.Width
	}
	if crop.Y+crop.Height > 1 {
		crop.Y = 1 - crop.Height
	}

	it.Video.Crop = &crop
	ratio := crop.AspectRatio()
	it.Video.CropAspectRatio = &ratio
	frameRatio := it.Frame.AspectRatio()
	it.Video.FrameAspectRatio = &frameRatio
}

// SetItemFrame assigns a new frame and, when the item carries a locked aspect
// ratio, re-derives the crop to match it.
func SetItemFrame(it *LayoutItem, f Frame) {
	it.Frame = f
	if it.Kind == ItemKindVideo && it.Video != nil && it.Video.LockAspectRatio {
		AlignCropToFrame(it)
	}
}

// BringForward increments zIndex by one for every listed item.
func (d *LayoutDefinition) BringForward(ids []string) {
	for _, id := range ids {
		if it := d.Item(id); it != nil {
			it.ZIndex++
		}
	}
}

// SendBackward decrements zIndex by one for every listed item, floored at 0.
func (d *LayoutDefinition) SendBackward(ids []string) {
	for _, id := range ids {
		if it := d.Item(id); it != nil && it.ZIndex > 0 {
			it.ZIndex--
		}
	}
}

// DuplicateOffset is the fractional nudge applied to pasted/duplicated items
// so the copy does not sit exactly on top of the original.
const DuplicateOffset = 0.03

// DuplicateItem clones an existing item under a fresh id, offsets its frame,
// and appends it on top (zIndex = item count). Returns nil if src is unknown.
func (d *LayoutDefinition) DuplicateItem(srcID, newID string) *LayoutItem {
	src := d.Item(srcID)
	if src == nil {
		return nil
	}

	dup := cloneItem(*src)
	dup.ID = newID
	dup.Frame.X += DuplicateOffset
	dup.Frame.Y += DuplicateOffset
	if dup.Frame.X+dup.Frame.Width > 1 {
		dup.Frame.X = 1 - dup.Frame.Width
	}
	if dup.Frame.Y+dup.Frame.Height > 1 {
		dup.Frame.Y = 1 - dup.Frame.Height
	}
	dup.ZIndex = len(d.Items)

	d.Items = append(d.Items, dup)
	return &d.Items[len(d.Items)-1]
}
