package collab

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/reframe/reframe/backend-go/internal/document"
	"github.com/reframe/reframe/backend-go/internal/engine"
)

// DocumentState holds the authoritative layout for a room. Operations are
// applied under lock and logged for persistence.
type DocumentState struct {
	mu        sync.RWMutex
	doc       *document.LayoutDefinition
	serverSeq int64
	opLog     []Operation
}

// NewDocumentState creates a new document state from an initial layout.
func NewDocumentState(doc *document.LayoutDefinition) *DocumentState {
	return &DocumentState{
		doc:   doc,
		opLog: make([]Operation, 0),
	}
}

// Snapshot returns a deep copy of the current layout.
func (ds *DocumentState) Snapshot() *document.LayoutDefinition {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	return ds.doc.Clone()
}

// ServerSeq returns the sequence number of the last applied operation.
func (ds *DocumentState) ServerSeq() int64 {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	return ds.serverSeq
}

// ApplyOperation applies an operation and returns the new server sequence.
func (ds *DocumentState) ApplyOperation(op Operation) (int64, error) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	if err := ds.applyOperationLocked(op); err != nil {
		return 0, err
	}

	ds.serverSeq++
	ds.opLog = append(ds.opLog, op)

	return ds.serverSeq, nil
}

func (ds *DocumentState) applyOperationLocked(op Operation) error {
	switch op.Type {
	case OpItemTransform:
		return ds.applyTransform(op)
	case OpItemCrop:
		return ds.applyCrop(op)
	case OpItemCreate:
		return ds.applyCreate(op)
	case OpItemDelete:
		return ds.applyDelete(op)
	case OpItemZOrder:
		return ds.applyZOrder(op)
	case OpItemOpacity:
		return ds.applyOpacity(op)
	case OpCanvasUpdate:
		return ds.applyCanvasUpdate(op)
	case OpLayoutRename:
		return ds.applyRename(op)
	default:
		return fmt.Errorf("unknown operation type: %s", op.Type)
	}
}

func (ds *DocumentState) applyTransform(op Operation) error {
	it := ds.doc.Item(op.ItemID)
	if it == nil {
		return fmt.Errorf("item not found: %s", op.ItemID)
	}

	var f document.Frame
	if err := json.Unmarshal(op.Frame, &f); err != nil {
		return fmt.Errorf("invalid frame: %w", err)
	}

	document.SetItemFrame(it, engine.ClampFrameToCanvas(f))
	return nil
}

func (ds *DocumentState) applyCrop(op Operation) error {
	it := ds.doc.Item(op.ItemID)
	if it == nil {
		return fmt.Errorf("item not found: %s", op.ItemID)
	}
	if it.Video == nil {
		return fmt.Errorf("item has no video: %s", op.ItemID)
	}

	var f document.Frame
	if err := json.Unmarshal(op.Frame, &f); err != nil {
		return fmt.Errorf("invalid crop frame: %w", err)
	}
	f = engine.ClampFrameToCanvas(f)

	it.Video.Crop = &document.Crop{
		Units:  document.CropUnitsFraction,
		X:      f.X,
		Y:      f.Y,
		Width:  f.Width,
		Height: f.Height,
	}
	if ar := f.AspectRatio(); ar > 0 {
		it.Video.CropAspectRatio = &ar
	}
	return nil
}

func (ds *DocumentState) applyCreate(op Operation) error {
	var it document.LayoutItem
	if err := json.Unmarshal(op.Item, &it); err != nil {
		return fmt.Errorf("invalid item: %w", err)
	}
	if it.ID == "" {
		return fmt.Errorf("item id required")
	}
	if ds.doc.Item(it.ID) != nil {
		return fmt.Errorf("item already exists: %s", it.ID)
	}

	it.Frame = engine.ClampFrameToCanvas(it.Frame)
	it.ZIndex = len(ds.doc.Items)
	ds.doc.Items = append(ds.doc.Items, it)
	return nil
}

func (ds *DocumentState) applyDelete(op Operation) error {
	if !ds.doc.RemoveItem(op.ItemID) {
		return fmt.Errorf("item not found: %s", op.ItemID)
	}
	return nil
}

func (ds *DocumentState) applyZOrder(op Operation) error {
	it := ds.doc.Item(op.ItemID)
	if it == nil {
		return fmt.Errorf("item not found: %s", op.ItemID)
	}

	switch op.Direction {
	case "forward":
		ds.doc.BringForward([]string{op.ItemID})
	case "backward":
		ds.doc.SendBackward([]string{op.ItemID})
	default:
		return fmt.Errorf("invalid z-order direction: %s", op.Direction)
	}
	return nil
}

func (ds *DocumentState) applyOpacity(op Operation) error {
	it := ds.doc.Item(op.ItemID)
	if it == nil {
		return fmt.Errorf("item not found: %s", op.ItemID)
	}
	if op.Opacity == nil {
		return fmt.Errorf("opacity required")
	}

	it.Opacity = engine.Clamp01(*op.Opacity)
	return nil
}

func (ds *DocumentState) applyCanvasUpdate(op Operation) error {
	var changes map[string]json.RawMessage
	if err := json.Unmarshal(op.Changes, &changes); err != nil {
		return fmt.Errorf("invalid canvas changes: %w", err)
	}

	if raw, ok := changes["width"]; ok {
		if err := json.Unmarshal(raw, &ds.doc.Canvas.Width); err != nil {
			return fmt.Errorf("invalid canvas width: %w", err)
		}
	}
	if raw, ok := changes["height"]; ok {
		if err := json.Unmarshal(raw, &ds.doc.Canvas.Height); err != nil {
			return fmt.Errorf("invalid canvas height: %w", err)
		}
	}
	if raw, ok := changes["background"]; ok {
		var bg document.Background
		if err := json.Unmarshal(raw, &bg); err != nil {
			return fmt.Errorf("invalid background: %w", err)
		}
		ds.doc.Canvas.Background = bg
	}
	return nil
}

func (ds *DocumentState) applyRename(op Operation) error {
	if op.Name == "" {
		return fmt.Errorf("name required")
	}
	ds.doc.Name = op.Name
	return nil
}

// GetServerTimestamp returns the current server timestamp
func GetServerTimestamp() int64 {
	return time.Now().UnixMilli()
}
