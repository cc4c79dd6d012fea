//go:build js && wasm

package main

import (
	"syscall/js"

	"github.com/inkboard/inkboard/backend-go/internal/document"
	"github.com/inkboard/inkboard/backend-go/internal/engine"
	"github.com/inkboard/inkboard/backend-go/internal/geom"
)

var (
	eng    *engine.Engine
	canvas *engine.CommandBuffer
)

func main() {
	canvas = engine.NewCommandBuffer()
	eng = engine.NewEngine(engine.DefaultOptions(), canvas)

	// Create the engine API object
	inkboard := js.Global().Get("Object").New()

	// --- Input (frontend → engine) ---
	inkboard.Set("pointerDown", js.FuncOf(pointerDown))
	inkboard.Set("pointerMove", js.FuncOf(pointerMove))
	inkboard.Set("pointerUp", js.FuncOf(pointerUp))
	inkboard.Set("pointerLeave", js.FuncOf(pointerLeave))
	inkboard.Set("keyDown", js.FuncOf(keyDown))
	inkboard.Set("keyUp", js.FuncOf(keyUp))
	inkboard.Set("resize", js.FuncOf(resize))
	inkboard.Set("importJSON", js.FuncOf(importJSON))
	inkboard.Set("loadSample", js.FuncOf(loadSample))

	// --- Output (frontend ← engine) ---
	inkboard.Set("flush", js.FuncOf(flush))
	inkboard.Set("exportJSON", js.FuncOf(exportJSON))
	inkboard.Set("getState", js.FuncOf(getState))

	js.Global().Set("inkboardEngine", inkboard)
	js.Global().Set("inkboardWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

func pointerEvent(args []js.Value) (engine.PointerEvent, bool) {
	if len(args) < 2 {
		return engine.PointerEvent{}, false
	}
	ev := engine.PointerEvent{Pos: geom.Pt(args[0].Float(), args[1].Float())}
	if len(args) > 2 {
		ev.Button = engine.Button(args[2].Int())
	}
	return ev, true
}

func keyEvent(args []js.Value) (engine.KeyEvent, bool) {
	if len(args) < 1 {
		return engine.KeyEvent{}, false
	}
	ev := engine.KeyEvent{Key: args[0].String()}
	if len(args) > 1 {
		ev.Ctrl = args[1].Truthy()
	}
	return ev, true
}

func errorResult(err error) interface{} {
	return js.ValueOf(map[string]interface{}{"error": err.Error()})
}

// --- Input Handlers ---

func pointerDown(this js.Value, args []js.Value) interface{} {
	if ev, ok := pointerEvent(args); ok {
		eng.PointerDown(ev)
	}
	return nil
}

func pointerMove(this js.Value, args []js.Value) interface{} {
	if ev, ok := pointerEvent(args); ok {
		eng.PointerMove(ev)
	}
	return nil
}

func pointerUp(this js.Value, args []js.Value) interface{} {
	if ev, ok := pointerEvent(args); ok {
		eng.PointerUp(ev)
	}
	return nil
}

func pointerLeave(this js.Value, args []js.Value) interface{} {
	eng.PointerLeave()
	return nil
}

// keyDown returns the snapshot JSON when the key asks for an export
// (Ctrl+S), otherwise null.
func keyDown(this js.Value, args []js.Value) interface{} {
	ev, ok := keyEvent(args)
	if !ok {
		return nil
	}
	if eng.KeyDown(ev) == engine.ActionExportJSON {
		return exportJSON(this, nil)
	}
	return nil
}

func keyUp(this js.Value, args []js.Value) interface{} {
	if ev, ok := keyEvent(args); ok {
		eng.KeyUp(ev)
	}
	return nil
}

func resize(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return nil
	}
	eng.Resize(args[0].Float(), args[1].Float())
	return nil
}

func importJSON(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "missing snapshot JSON"})
	}
	snap, err := document.ParseSnapshot([]byte(args[0].String()))
	if err != nil {
		return errorResult(err)
	}
	if err := eng.Import(snap); err != nil {
		return errorResult(err)
	}
	return js.ValueOf(map[string]interface{}{"ok": true})
}

func loadSample(this js.Value, args []js.Value) interface{} {
	if err := eng.Import(document.NewSampleSnapshot()); err != nil {
		return errorResult(err)
	}
	return js.ValueOf(map[string]interface{}{"ok": true})
}

// --- Output Handlers ---

// flush returns the draw commands queued since the last call as JSON.
func flush(this js.Value, args []js.Value) interface{} {
	out, err := engine.DrawCommandsToJSON(canvas.Flush())
	if err != nil {
		return js.ValueOf("[]")
	}
	return js.ValueOf(out)
}

func exportJSON(this js.Value, args []js.Value) interface{} {
	data, err := eng.Export().Marshal()
	if err != nil {
		return errorResult(err)
	}
	return js.ValueOf(string(data))
}

func getState(this js.Value, args []js.Value) interface{} {
	p := eng.Palette()
	w, h := eng.Size()
	return js.ValueOf(map[string]interface{}{
		"mode":       eng.Mode().String(),
		"canUndo":    eng.CanUndo(),
		"canRedo":    eng.CanRedo(),
		"foreground": string(p.Foreground),
		"background": string(p.Background),
		"darkMode":   p.DarkMode(),
		"width":      w,
		"height":     h,
		"strokes":    len(eng.LiveIDs()),
	})
}
