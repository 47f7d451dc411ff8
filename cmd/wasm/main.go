//go:build js && wasm

package main

import (
	"encoding/json"
	"syscall/js"

	"github.com/reframe/reframe/backend-go/internal/document"
	"github.com/reframe/reframe/backend-go/internal/engine"
	"github.com/reframe/reframe/backend-go/internal/typeid"
)

var session *engine.Session

func main() {
	session = engine.NewSession(document.NewEmptyLayout(typeid.NewLayoutID(), "Untitled"))
	installCallbacks()

	// Create the engine API object
	reframeEngine := js.Global().Get("Object").New()

	// --- Commands (frontend → backend) ---
	reframeEngine.Set("loadLayout", js.FuncOf(loadLayout))
	reframeEngine.Set("loadSampleLayout", js.FuncOf(loadSampleLayout))
	reframeEngine.Set("updateLayout", js.FuncOf(updateLayout))
	reframeEngine.Set("setSelection", js.FuncOf(setSelection))
	reframeEngine.Set("escape", js.FuncOf(escape))
	reframeEngine.Set("setTransformTarget", js.FuncOf(setTransformTarget))
	reframeEngine.Set("pointerDown", js.FuncOf(pointerDown))
	reframeEngine.Set("handleDown", js.FuncOf(handleDown))
	reframeEngine.Set("pointerMove", js.FuncOf(pointerMove))
	reframeEngine.Set("pointerUp", js.FuncOf(pointerUp))
	reframeEngine.Set("pointerCancel", js.FuncOf(pointerCancel))
	reframeEngine.Set("tick", js.FuncOf(tick))
	reframeEngine.Set("undo", js.FuncOf(undo))
	reframeEngine.Set("redo", js.FuncOf(redo))
	reframeEngine.Set("bringForward", js.FuncOf(bringForward))
	reframeEngine.Set("sendBackward", js.FuncOf(sendBackward))
	reframeEngine.Set("duplicateSelection", js.FuncOf(duplicateSelection))
	reframeEngine.Set("deleteSelection", js.FuncOf(deleteSelection))

	// --- Queries (frontend ← backend) ---
	reframeEngine.Set("getLayout", js.FuncOf(getLayout))
	reframeEngine.Set("getSelection", js.FuncOf(getSelection))
	reframeEngine.Set("getGuides", js.FuncOf(getGuides))
	reframeEngine.Set("getTransformTarget", js.FuncOf(getTransformTarget))
	reframeEngine.Set("isDragging", js.FuncOf(isDragging))
	reframeEngine.Set("hitTest", js.FuncOf(hitTest))

	// Register on global scope
	js.Global().Set("reframeEngine", reframeEngine)

	// Signal that WASM is ready
	js.Global().Set("reframeWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

// installCallbacks forwards session events to JS handlers the host registers
// on the global scope.
func installCallbacks() {
	session.SetCallbacks(engine.Callbacks{
		OnTransform: func(transforms []engine.ItemTransform, commit bool, target engine.TransformTarget) {
			invoke("reframeOnTransform", map[string]interface{}{
				"transforms": toJSON(transforms),
				"commit":     commit,
				"target":     string(target),
			})
		},
		OnSelectionChange: func(selection []string) {
			invoke("reframeOnSelectionChange", toJSON(selection))
		},
		OnLayoutChange: func(doc *document.LayoutDefinition) {
			invoke("reframeOnLayoutChange", toJSON(doc))
		},
	})
}

func invoke(name string, arg interface{}) {
	fn := js.Global().Get(name)
	if fn.Type() != js.TypeFunction {
		return
	}
	fn.Invoke(js.ValueOf(arg))
}

func toJSON(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(data)
}

func pointerEventFromArgs(args []js.Value) (engine.PointerEvent, bool) {
	if len(args) < 1 || args[0].Type() != js.TypeObject {
		return engine.PointerEvent{}, false
	}
	o := args[0]
	return engine.PointerEvent{
		PointerID: o.Get("pointerId").Int(),
		X:         o.Get("x").Float(),
		Y:         o.Get("y").Float(),
		Shift:     o.Get("shift").Truthy(),
		Alt:       o.Get("alt").Truthy(),
	}, true
}

// --- Command Handlers ---

func loadLayout(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "missing layout JSON"})
	}

	var doc document.LayoutDefinition
	if err := json.Unmarshal([]byte(args[0].String()), &doc); err != nil {
		return js.ValueOf(map[string]interface{}{"error": err.Error()})
	}

	session.LoadLayout(&doc)
	return js.ValueOf(map[string]interface{}{"ok": true})
}

func loadSampleLayout(this js.Value, args []js.Value) interface{} {
	doc := document.NewSampleLayout(
		typeid.NewLayoutID(),
		typeid.NewItemID(),
		typeid.NewItemID(),
		typeid.NewItemID(),
	)
	session.LoadLayout(doc)
	return js.ValueOf(map[string]interface{}{"ok": true})
}

func updateLayout(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "missing layout JSON"})
	}

	var doc document.LayoutDefinition
	if err := json.Unmarshal([]byte(args[0].String()), &doc); err != nil {
		return js.ValueOf(map[string]interface{}{"error": err.Error()})
	}

	session.UpdateLayout(func(d *document.LayoutDefinition) { *d = doc }, false)
	return js.ValueOf(map[string]interface{}{"ok": true})
}

func setSelection(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || args[0].Type() != js.TypeObject {
		session.SetSelection(nil)
		return nil
	}

	arr := args[0]
	length := arr.Length()
	ids := make([]string, length)
	for i := 0; i < length; i++ {
		ids[i] = arr.Index(i).String()
	}
	session.SetSelection(ids)
	return nil
}

func escape(this js.Value, args []js.Value) interface{} {
	session.Escape()
	return nil
}

func setTransformTarget(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	session.SetTransformTarget(engine.TransformTarget(args[0].String()))
	return nil
}

func pointerDown(this js.Value, args []js.Value) interface{} {
	if ev, ok := pointerEventFromArgs(args); ok {
		session.PointerDown(ev)
	}
	return nil
}

func handleDown(this js.Value, args []js.Value) interface{} {
	ev, ok := pointerEventFromArgs(args)
	if !ok || len(args) < 3 {
		return nil
	}
	session.HandleDown(ev, args[1].String(), engine.Handle(args[2].String()))
	return nil
}

func pointerMove(this js.Value, args []js.Value) interface{} {
	if ev, ok := pointerEventFromArgs(args); ok {
		session.PointerMove(ev)
	}
	return nil
}

func pointerUp(this js.Value, args []js.Value) interface{} {
	if ev, ok := pointerEventFromArgs(args); ok {
		session.PointerUp(ev)
	}
	return nil
}

func pointerCancel(this js.Value, args []js.Value) interface{} {
	if ev, ok := pointerEventFromArgs(args); ok {
		session.PointerCancel(ev)
	}
	return nil
}

func tick(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(session.Tick())
}

func undo(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(session.Undo())
}

func redo(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(session.Redo())
}

func bringForward(this js.Value, args []js.Value) interface{} {
	session.BringForward()
	return nil
}

func sendBackward(this js.Value, args []js.Value) interface{} {
	session.SendBackward()
	return nil
}

func duplicateSelection(this js.Value, args []js.Value) interface{} {
	session.Duplicate(typeid.NewItemID)
	return nil
}

func deleteSelection(this js.Value, args []js.Value) interface{} {
	session.DeleteSelection()
	return nil
}

// --- Query Handlers ---

func getLayout(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(toJSON(session.Document()))
}

func getSelection(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(toJSON(session.Selection()))
}

func getGuides(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(toJSON(session.Guides()))
}

func getTransformTarget(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(string(session.TransformTarget()))
}

func isDragging(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(session.Dragging())
}

func hitTest(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf("")
	}
	return js.ValueOf(session.HitTest(args[0].Float(), args[1].Float()))
}
