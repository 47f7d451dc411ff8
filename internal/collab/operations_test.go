package collab

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/reframe/reframe/backend-go/internal/document"
)

func stateWithItems(items ...document.LayoutItem) *DocumentState {
	doc := document.NewEmptyLayout("layout_room", "room")
	doc.Items = items
	return NewDocumentState(doc)
}

func mustJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}

func TestApplyTransform(t *testing.T) {
	ds := stateWithItems(document.LayoutItem{
		ID: "a", Kind: document.ItemKindShape,
		Frame: document.Frame{X: 0, Y: 0, Width: 0.3, Height: 0.3},
	})

	// Frame pushed past the right edge; the server clamps it back in.
	seq, err := ds.ApplyOperation(Operation{
		Type:   OpItemTransform,
		ItemID: "a",
		Frame:  mustJSON(t, document.Frame{X: 0.9, Y: 0.1, Width: 0.3, Height: 0.3}),
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if seq != 1 {
		t.Errorf("seq = %d, want 1", seq)
	}

	f := ds.Snapshot().Items[0].Frame
	if math.Abs(f.X-0.7) > 1e-9 || f.Y != 0.1 {
		t.Errorf("frame = %+v, want clamped to x=0.7", f)
	}
}

func TestApplyTransformUnknownItem(t *testing.T) {
	ds := stateWithItems()
	_, err := ds.ApplyOperation(Operation{
		Type:   OpItemTransform,
		ItemID: "ghost",
		Frame:  mustJSON(t, document.Frame{Width: 0.1, Height: 0.1}),
	})
	if err == nil {
		t.Fatal("expected error for unknown item")
	}
	if ds.ServerSeq() != 0 {
		t.Errorf("seq advanced on failure: %d", ds.ServerSeq())
	}
}

func TestApplyCrop(t *testing.T) {
	ds := stateWithItems(document.LayoutItem{
		ID: "v", Kind: document.ItemKindVideo,
		Frame: document.Frame{Width: 0.5, Height: 0.5},
		Video: &document.VideoProps{Source: "clip:primary"},
	})

	_, err := ds.ApplyOperation(Operation{
		Type:   OpItemCrop,
		ItemID: "v",
		Frame:  mustJSON(t, document.Frame{X: 0.2, Y: 0.1, Width: 0.6, Height: 0.8}),
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	v := ds.Snapshot().Items[0].Video
	if v.Crop == nil || v.Crop.Width != 0.6 || v.Crop.Units != document.CropUnitsFraction {
		t.Errorf("crop = %+v", v.Crop)
	}
	if v.CropAspectRatio == nil || math.Abs(*v.CropAspectRatio-0.75) > 1e-9 {
		t.Errorf("crop ratio cache = %v", v.CropAspectRatio)
	}
}

func TestApplyCropOnNonVideo(t *testing.T) {
	ds := stateWithItems(document.LayoutItem{ID: "s", Kind: document.ItemKindShape})
	_, err := ds.ApplyOperation(Operation{
		Type:   OpItemCrop,
		ItemID: "s",
		Frame:  mustJSON(t, document.Frame{Width: 0.5, Height: 0.5}),
	})
	if err == nil {
		t.Fatal("expected error cropping a shape")
	}
}

func TestApplyCreate(t *testing.T) {
	ds := stateWithItems(document.LayoutItem{ID: "a"})

	item := document.LayoutItem{
		ID: "b", Kind: document.ItemKindShape,
		Frame:  document.Frame{X: 0.95, Y: 0, Width: 0.2, Height: 0.2},
		ZIndex: 99,
	}
	if _, err := ds.ApplyOperation(Operation{Type: OpItemCreate, Item: mustJSON(t, item)}); err != nil {
		t.Fatalf("apply: %v", err)
	}

	doc := ds.Snapshot()
	if len(doc.Items) != 2 {
		t.Fatalf("items = %d", len(doc.Items))
	}
	created := doc.Items[1]
	// Server assigns the top z index and clamps the frame.
	if created.ZIndex != 1 {
		t.Errorf("zIndex = %d, want 1", created.ZIndex)
	}
	if created.Frame.X+created.Frame.Width > 1 {
		t.Errorf("frame not clamped: %+v", created.Frame)
	}

	// Duplicate ids are rejected.
	if _, err := ds.ApplyOperation(Operation{Type: OpItemCreate, Item: mustJSON(t, item)}); err == nil {
		t.Error("duplicate id accepted")
	}
	// Missing id is rejected.
	item.ID = ""
	if _, err := ds.ApplyOperation(Operation{Type: OpItemCreate, Item: mustJSON(t, item)}); err == nil {
		t.Error("empty id accepted")
	}
}

func TestApplyDelete(t *testing.T) {
	ds := stateWithItems(document.LayoutItem{ID: "a"}, document.LayoutItem{ID: "b"})

	if _, err := ds.ApplyOperation(Operation{Type: OpItemDelete, ItemID: "a"}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(ds.Snapshot().Items) != 1 {
		t.Error("item not removed")
	}
	if _, err := ds.ApplyOperation(Operation{Type: OpItemDelete, ItemID: "a"}); err == nil {
		t.Error("double delete accepted")
	}
}

func TestApplyZOrder(t *testing.T) {
	ds := stateWithItems(
		document.LayoutItem{ID: "a", ZIndex: 0},
		document.LayoutItem{ID: "b", ZIndex: 1},
	)

	if _, err := ds.ApplyOperation(Operation{Type: OpItemZOrder, ItemID: "a", Direction: "forward"}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if z := ds.Snapshot().Items[0].ZIndex; z != 1 {
		t.Errorf("zIndex = %d, want 1", z)
	}

	if _, err := ds.ApplyOperation(Operation{Type: OpItemZOrder, ItemID: "a", Direction: "sideways"}); err == nil {
		t.Error("invalid direction accepted")
	}
}

func TestApplyOpacity(t *testing.T) {
	ds := stateWithItems(document.LayoutItem{ID: "a", Opacity: 1})

	op := 1.7
	if _, err := ds.ApplyOperation(Operation{Type: OpItemOpacity, ItemID: "a", Opacity: &op}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got := ds.Snapshot().Items[0].Opacity; got != 1 {
		t.Errorf("opacity = %v, want clamped to 1", got)
	}

	if _, err := ds.ApplyOperation(Operation{Type: OpItemOpacity, ItemID: "a"}); err == nil {
		t.Error("missing opacity accepted")
	}
}

func TestApplyCanvasUpdate(t *testing.T) {
	ds := stateWithItems()

	changes := map[string]any{
		"width":      720,
		"background": document.Background{Kind: document.BackgroundColor, Color: &document.ColorBackground{Color: "#222222", Opacity: 1}},
	}
	if _, err := ds.ApplyOperation(Operation{Type: OpCanvasUpdate, Changes: mustJSON(t, changes)}); err != nil {
		t.Fatalf("apply: %v", err)
	}

	doc := ds.Snapshot()
	if doc.Canvas.Width != 720 {
		t.Errorf("width = %d", doc.Canvas.Width)
	}
	if doc.Canvas.Background.Kind != document.BackgroundColor || doc.Canvas.Background.Color.Color != "#222222" {
		t.Errorf("background = %+v", doc.Canvas.Background)
	}
}

func TestApplyRename(t *testing.T) {
	ds := stateWithItems()

	if _, err := ds.ApplyOperation(Operation{Type: OpLayoutRename, Name: "renamed"}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got := ds.Snapshot().Name; got != "renamed" {
		t.Errorf("name = %q", got)
	}
	if _, err := ds.ApplyOperation(Operation{Type: OpLayoutRename}); err == nil {
		t.Error("empty rename accepted")
	}
}

func TestApplyUnknownOpType(t *testing.T) {
	ds := stateWithItems()
	if _, err := ds.ApplyOperation(Operation{Type: "item.teleport"}); err == nil {
		t.Error("unknown op type accepted")
	}
}

func TestServerSeqAdvancesPerOp(t *testing.T) {
	ds := stateWithItems(document.LayoutItem{ID: "a"})

	for i := 1; i <= 3; i++ {
		seq, err := ds.ApplyOperation(Operation{Type: OpLayoutRename, Name: "n"})
		if err != nil {
			t.Fatalf("apply %d: %v", i, err)
		}
		if seq != int64(i) {
			t.Errorf("seq = %d, want %d", seq, i)
		}
	}
}

func TestSnapshotIsDetached(t *testing.T) {
	ds := stateWithItems(document.LayoutItem{ID: "a", Frame: document.Frame{Width: 0.5, Height: 0.5}})

	snap := ds.Snapshot()
	snap.Items[0].Frame.X = 0.9

	if ds.Snapshot().Items[0].Frame.X != 0 {
		t.Error("snapshot shares state with the live document")
	}
}
