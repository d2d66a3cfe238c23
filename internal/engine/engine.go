// Package engine is the façade over one project: it owns the committed
// document, the selection, and the playback clock, and it hands frames to
// whoever asks — the editing canvas, live preview, or the exporter. Every
// render reads the latest committed document; edits land as whole-item
// writes, so a frame never shows a half-updated item.
package engine

import (
	"context"
	"fmt"
	"image"
	"math"
	"sync"
	"time"

	"github.com/fogleman/gg"

	"github.com/snapreel/snapreel/backend-go/internal/assets"
	"github.com/snapreel/snapreel/backend-go/internal/audiomix"
	"github.com/snapreel/snapreel/backend-go/internal/compositor"
	"github.com/snapreel/snapreel/backend-go/internal/document"
	"github.com/snapreel/snapreel/backend-go/internal/interact"
	"github.com/snapreel/snapreel/backend-go/internal/timeline"
	"github.com/snapreel/snapreel/backend-go/internal/typeid"
)

// librarySource adapts the asset library to the renderer interfaces.
type librarySource struct {
	lib *assets.Library
}

func (s librarySource) Raster(id string) (image.Image, bool) {
	return s.lib.Raster(id)
}

func (s librarySource) Video(id string) (timeline.VideoHandle, bool) {
	v, ok := s.lib.VideoAsset(id)
	if !ok {
		return nil, false
	}
	return v, true
}

// Engine drives one project. Callers from multiple goroutines are
// serialized internally; the session hub already funnels a room's events
// through one loop, the lock covers direct HTTP access.
type Engine struct {
	mu       sync.Mutex
	project  *document.Project
	ctrl     interact.Controller
	faces    *compositor.FaceCache
	lib      *assets.Library
	renderer *timeline.Renderer
	width    int
	height   int

	playing   bool
	startWall time.Time
	clock     float64
}

// New builds an engine rendering at the given frame size.
func New(width, height int, lib *assets.Library) (*Engine, error) {
	faces, err := compositor.NewFaceCache()
	if err != nil {
		return nil, fmt.Errorf("init fonts: %w", err)
	}
	src := librarySource{lib: lib}
	return &Engine{
		project:  document.NewSampleProject(typeid.NewProjectID()),
		faces:    faces,
		lib:      lib,
		renderer: timeline.NewRenderer(width, height, faces, src),
		width:    width,
		height:   height,
	}, nil
}

// Project returns the committed document. Callers treat it as read-only;
// mutations go through the engine so selection and clock state stay valid.
func (e *Engine) Project() *document.Project {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.project
}

// SetProject commits a replacement document and resets selection and clock.
func (e *Engine) SetProject(p *document.Project) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.project = p
	e.ctrl = interact.Controller{}
	e.playing = false
	e.clock = 0
}

// LoadSnapshot parses and validates a persisted snapshot. On any error the
// current in-memory state is left untouched.
func (e *Engine) LoadSnapshot(data []byte) error {
	p, err := document.ParseSnapshot(data)
	if err != nil {
		return err
	}
	e.SetProject(p)
	return nil
}

// Snapshot serializes the committed document.
func (e *Engine) Snapshot() ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return document.MarshalSnapshot(e.project)
}

// Play starts the live clock from the current position.
func (e *Engine) Play(now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.playing {
		return
	}
	e.playing = true
	e.startWall = now
}

// Pause freezes the clock at its current position.
func (e *Engine) Pause(now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.playing {
		return
	}
	e.clock = e.timeAtLocked(now)
	e.playing = false
}

// TogglePlay flips between playing and paused and reports the new state.
func (e *Engine) TogglePlay(now time.Time) bool {
	e.mu.Lock()
	playing := e.playing
	e.mu.Unlock()
	if playing {
		e.Pause(now)
	} else {
		e.Play(now)
	}
	return !playing
}

// Playing reports whether the live clock is running.
func (e *Engine) Playing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.playing
}

// Seek sets the clock to an absolute position without changing play state.
func (e *Engine) Seek(now time.Time, seconds float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if seconds < 0 {
		seconds = 0
	}
	e.clock = seconds
	e.startWall = now
}

// SeekToSlide jumps the clock to the start of a slide by index.
func (e *Engine) SeekToSlide(now time.Time, index int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	at := 0.0
	for i := range e.project.Timeline.Slides {
		if i == index {
			break
		}
		at += e.project.SlideDuration(&e.project.Timeline.Slides[i])
	}
	e.clock = at
	e.startWall = now
}

// CurrentTime is the clock value for now: live playback loops over the
// total duration, a paused clock holds its position.
func (e *Engine) CurrentTime(now time.Time) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.timeAtLocked(now)
}

func (e *Engine) timeAtLocked(now time.Time) float64 {
	if !e.playing {
		return e.clock
	}
	t := e.clock + now.Sub(e.startWall).Seconds()
	total := e.project.TotalDuration()
	if total > 0 {
		t = math.Mod(t, total)
	}
	return t
}

// RenderFrame composites the timeline frame for clock value t.
func (e *Engine) RenderFrame(t float64) *image.RGBA {
	e.mu.Lock()
	p := e.project
	e.mu.Unlock()

	dc := gg.NewContext(e.width, e.height)
	e.renderer.RenderFrame(dc, p, t)
	return dc.Image().(*image.RGBA)
}

// RenderCanvas composites the collage editor canvas with selection chrome.
func (e *Engine) RenderCanvas(t float64) *image.RGBA {
	e.mu.Lock()
	p := e.project
	opts := compositor.Options{
		Time:       t,
		SelectedID: e.ctrl.SelectedID,
		CropMode:   e.ctrl.CropMode,
	}
	e.mu.Unlock()

	dc := gg.NewContext(e.width, e.height)
	compositor.RenderScene(dc, &p.Canvas, e.faces, librarySource{lib: e.lib}, opts)
	return dc.Image().(*image.RGBA)
}

// ExportFrames renders the whole timeline at a fixed rate, strictly in
// order, and stops exactly when the clock reaches the total duration.
func (e *Engine) ExportFrames(ctx context.Context, fps int, emit func(frame *image.RGBA) error) error {
	e.mu.Lock()
	p := e.project
	e.mu.Unlock()

	// Decodes settle first so the export never records placeholders for
	// assets that were merely still loading.
	e.lib.Wait()

	total := p.TotalDuration()
	dc := gg.NewContext(e.width, e.height)
	for i := 0; ; i++ {
		t := float64(i) / float64(fps)
		if t >= total {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		e.renderer.RenderFrame(dc, p, t)
		if err := emit(dc.Image().(*image.RGBA)); err != nil {
			return err
		}
	}
}

// AudioSchedule builds the declarative audio plan for the current document.
func (e *Engine) AudioSchedule() audiomix.Schedule {
	e.mu.Lock()
	defer e.mu.Unlock()
	return audiomix.Build(e.project)
}

// MusicGainAt exposes the music envelope for preview volume control.
func (e *Engine) MusicGainAt(t float64) float64 {
	return e.AudioSchedule().MusicGainAt(t)
}

// VideoAudible reports whether the active slide's own clip audio should play
// in the preview right now: a keep-audio video slide is audible while it is
// on screen and no drag edit is in progress.
func (e *Engine) VideoAudible(now time.Time) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	pos := timeline.Locate(e.project, e.timeAtLocked(now))
	if pos.Index < 0 {
		return false
	}
	editing := e.ctrl.Mode() != interact.ModeNone
	return timeline.VideoAudible(&e.project.Timeline.Slides[pos.Index], true, editing)
}
