//go:build js && wasm

package main

import (
	"encoding/json"
	"image"
	"log/slog"
	"syscall/js"
	"time"

	"github.com/snapreel/snapreel/backend-go/internal/assets"
	"github.com/snapreel/snapreel/backend-go/internal/document"
	"github.com/snapreel/snapreel/backend-go/internal/engine"
)

const (
	frameWidth  = 1280
	frameHeight = 720
)

var (
	eng *engine.Engine
	lib *assets.Library
)

func main() {
	lib = assets.NewLibrary("", slog.Default())

	var err error
	eng, err = engine.New(frameWidth, frameHeight, lib)
	if err != nil {
		panic(err)
	}

	api := js.Global().Get("Object").New()

	// --- Commands (frontend → engine) ---
	api.Set("loadDocument", js.FuncOf(loadDocument))
	api.Set("loadSampleDocument", js.FuncOf(loadSampleDocument))
	api.Set("putImageAsset", js.FuncOf(putImageAsset))
	api.Set("play", js.FuncOf(play))
	api.Set("pause", js.FuncOf(pause))
	api.Set("togglePlay", js.FuncOf(togglePlay))
	api.Set("seek", js.FuncOf(seek))
	api.Set("seekToSlide", js.FuncOf(seekToSlide))
	api.Set("pointerDown", js.FuncOf(pointerDown))
	api.Set("pointerMove", js.FuncOf(pointerMove))
	api.Set("pointerUp", js.FuncOf(pointerUp))
	api.Set("enterCropMode", js.FuncOf(enterCropMode))
	api.Set("exitCropMode", js.FuncOf(exitCropMode))
	api.Set("deleteSelected", js.FuncOf(deleteSelected))
	api.Set("addImage", js.FuncOf(addImage))
	api.Set("addText", js.FuncOf(addText))
	api.Set("addDecoration", js.FuncOf(addDecoration))
	api.Set("updateText", js.FuncOf(updateText))

	// --- Queries (frontend ← engine) ---
	api.Set("getDocument", js.FuncOf(getDocument))
	api.Set("renderFrame", js.FuncOf(renderFrame))
	api.Set("renderCanvas", js.FuncOf(renderCanvas))
	api.Set("isPlaying", js.FuncOf(isPlaying))
	api.Set("currentTime", js.FuncOf(currentTime))
	api.Set("selectedId", js.FuncOf(selectedID))
	api.Set("musicGainAt", js.FuncOf(musicGainAt))
	api.Set("videoAudible", js.FuncOf(videoAudible))
	api.Set("frameSize", js.FuncOf(frameSize))

	js.Global().Set("snapreelEngine", api)
	js.Global().Set("snapreelWasmReady", js.ValueOf(true))

	// Keep the Go runtime alive
	select {}
}

// --- Command Handlers ---

func loadDocument(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "missing document JSON"})
	}
	if err := eng.LoadSnapshot([]byte(args[0].String())); err != nil {
		return js.ValueOf(map[string]interface{}{"error": err.Error()})
	}
	return js.ValueOf(map[string]interface{}{"ok": true})
}

func loadSampleDocument(this js.Value, args []js.Value) interface{} {
	projectID := "proj_sample"
	if len(args) > 0 && args[0].Type() == js.TypeString {
		projectID = args[0].String()
	}
	eng.SetProject(document.NewSampleProject(projectID))
	return js.ValueOf(map[string]interface{}{"ok": true})
}

// putImageAsset installs decoded pixels from the browser. The frontend does
// the image decoding; the engine only ever sees RGBA.
func putImageAsset(this js.Value, args []js.Value) interface{} {
	if len(args) < 4 {
		return js.ValueOf(map[string]interface{}{"error": "expected id, width, height, pixels"})
	}
	id := args[0].String()
	w := args[1].Int()
	h := args[2].Int()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	if n := js.CopyBytesToGo(img.Pix, args[3]); n != len(img.Pix) {
		return js.ValueOf(map[string]interface{}{"error": "pixel buffer size mismatch"})
	}
	lib.Put(id, img)
	return js.ValueOf(map[string]interface{}{"ok": true})
}

func play(this js.Value, args []js.Value) interface{} {
	eng.Play(time.Now())
	return nil
}

func pause(this js.Value, args []js.Value) interface{} {
	eng.Pause(time.Now())
	return nil
}

func togglePlay(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.TogglePlay(time.Now()))
}

func seek(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	eng.Seek(time.Now(), args[0].Float())
	return nil
}

func seekToSlide(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	eng.SeekToSlide(time.Now(), args[0].Int())
	return nil
}

func pointerDown(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return nil
	}
	eng.PointerDown(args[0].Float(), args[1].Float())
	return nil
}

func pointerMove(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return nil
	}
	eng.PointerMove(args[0].Float(), args[1].Float())
	return nil
}

func pointerUp(this js.Value, args []js.Value) interface{} {
	eng.PointerUp()
	return nil
}

func enterCropMode(this js.Value, args []js.Value) interface{} {
	eng.EnterCropMode()
	return nil
}

func exitCropMode(this js.Value, args []js.Value) interface{} {
	eng.ExitCropMode()
	return nil
}

func deleteSelected(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.DeleteSelected())
}

func addImage(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return js.ValueOf(map[string]interface{}{"error": "expected assetId, x, y"})
	}
	id, err := eng.AddImageItem(args[0].String(), args[1].Float(), args[2].Float(), false)
	if err != nil {
		return js.ValueOf(map[string]interface{}{"error": err.Error()})
	}
	return js.ValueOf(map[string]interface{}{"id": id})
}

func addText(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return js.ValueOf(map[string]interface{}{"error": "expected text, x, y"})
	}
	id := eng.AddTextItem(args[0].String(), args[1].Float(), args[2].Float())
	return js.ValueOf(map[string]interface{}{"id": id})
}

func addDecoration(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return js.ValueOf(map[string]interface{}{"error": "expected kind, x, y"})
	}
	id := eng.AddDecorationItem(document.Animation(args[0].String()), args[1].Float(), args[2].Float())
	return js.ValueOf(map[string]interface{}{"id": id})
}

func updateText(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf(map[string]interface{}{"error": "expected id, props JSON"})
	}
	var props document.TextProps
	if err := json.Unmarshal([]byte(args[1].String()), &props); err != nil {
		return js.ValueOf(map[string]interface{}{"error": err.Error()})
	}
	if !eng.UpdateTextItem(args[0].String(), props) {
		return js.ValueOf(map[string]interface{}{"error": "text item not found"})
	}
	return js.ValueOf(map[string]interface{}{"ok": true})
}

// --- Query Handlers ---

func getDocument(this js.Value, args []js.Value) interface{} {
	doc, err := eng.Snapshot()
	if err != nil {
		return js.ValueOf("")
	}
	return js.ValueOf(string(doc))
}

// renderFrame renders the playback frame at the live clock into the given
// Uint8ClampedArray, which must hold width*height*4 bytes.
func renderFrame(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(0)
	}
	frame := eng.RenderFrame(eng.CurrentTime(time.Now()))
	return js.ValueOf(js.CopyBytesToJS(args[0], frame.Pix))
}

// renderCanvas renders the editing canvas with selection chrome.
func renderCanvas(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(0)
	}
	frame := eng.RenderCanvas(eng.CurrentTime(time.Now()))
	return js.ValueOf(js.CopyBytesToJS(args[0], frame.Pix))
}

func isPlaying(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.Playing())
}

func currentTime(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.CurrentTime(time.Now()))
}

func selectedID(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.SelectedID())
}

func musicGainAt(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(1.0)
	}
	return js.ValueOf(eng.MusicGainAt(args[0].Float()))
}

// videoAudible tells the frontend whether to unmute the active clip's own
// audio element for the current frame.
func videoAudible(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.VideoAudible(time.Now()))
}

func frameSize(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(map[string]interface{}{"width": frameWidth, "height": frameHeight})
}
