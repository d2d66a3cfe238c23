package engine

import (
	"github.com/snapreel/snapreel/backend-go/internal/document"
	"github.com/snapreel/snapreel/backend-go/internal/interact"
	"github.com/snapreel/snapreel/backend-go/internal/typeid"
)

// Editing canvas geometry for newly placed items.
const (
	newImageMaxSide = 360.0
	newTextFontSize = 42.0
	newDecorSide    = 140.0
)

// PointerDown forwards a pointer press to the canvas interaction controller.
func (e *Engine) PointerDown(x, y float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ctrl.PointerDown(&e.project.Canvas, x, y)
}

// PointerMove forwards a pointer drag.
func (e *Engine) PointerMove(x, y float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ctrl.PointerMove(&e.project.Canvas, x, y)
}

// PointerUp ends any active drag.
func (e *Engine) PointerUp() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ctrl.PointerUp()
}

// SelectedID is the id of the selected canvas item, empty when none.
func (e *Engine) SelectedID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ctrl.SelectedID
}

// Editing reports whether a drag interaction is in progress, which mutes
// original clip audio during preview.
func (e *Engine) Editing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ctrl.Mode() != interact.ModeNone
}

// EnterCropMode switches the selected image item to crop editing.
func (e *Engine) EnterCropMode() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ctrl.EnterCropMode(&e.project.Canvas)
}

// ExitCropMode returns to normal selection handles.
func (e *Engine) ExitCropMode() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ctrl.ExitCropMode()
}

// DeleteSelected removes the selected canvas item.
func (e *Engine) DeleteSelected() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ctrl.DeleteSelected(&e.project.Canvas)
}

// AddImageItem places an image asset on the canvas. The fit scale that
// shrinks the source into the initial footprint is computed once here and
// never recomputed, so later box resizing and content zoom stay decoupled.
func (e *Engine) AddImageItem(assetID string, x, y float64, libraryAsset bool) (string, error) {
	srcW, srcH, err := e.lib.Dimensions(assetID)
	if err != nil {
		return "", err
	}

	fit := 1.0
	if m := float64(max(srcW, srcH)); m > newImageMaxSide {
		fit = newImageMaxSide / m
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	it := document.VisualItem{
		ID:     typeid.NewItemID(),
		Kind:   document.ItemImage,
		X:      x,
		Y:      y,
		Width:  float64(srcW) * fit,
		Height: float64(srcH) * fit,
		Scale:  1,
		ZIndex: e.nextZLocked(),
		Image: &document.ImageProps{
			AssetID:      assetID,
			CropZoom:     1,
			BaseFitScale: fit,
			LibraryAsset: libraryAsset,
		},
	}
	e.project.Canvas.Items = append(e.project.Canvas.Items, it)
	e.ctrl.SelectedID = it.ID
	e.ctrl.CropMode = false
	return it.ID, nil
}

// AddTextItem places a text item on the canvas. Its footprint is remeasured
// from glyph metrics on the first draw.
func (e *Engine) AddTextItem(text string, x, y float64) string {
	e.mu.Lock()
	defer e.mu.Unlock()

	it := document.VisualItem{
		ID:     typeid.NewItemID(),
		Kind:   document.ItemText,
		X:      x,
		Y:      y,
		Width:  10,
		Height: 10,
		Scale:  1,
		ZIndex: e.nextZLocked(),
		Text: &document.TextProps{
			Text:     text,
			FontSize: newTextFontSize,
			Color:    "#ffffff",
		},
	}
	e.project.Canvas.Items = append(e.project.Canvas.Items, it)
	e.ctrl.SelectedID = it.ID
	e.ctrl.CropMode = false
	return it.ID
}

// AddDecorationItem places an animated decoration on the canvas.
func (e *Engine) AddDecorationItem(kind document.Animation, x, y float64) string {
	e.mu.Lock()
	defer e.mu.Unlock()

	it := document.VisualItem{
		ID:         typeid.NewItemID(),
		Kind:       document.ItemDecoration,
		X:          x,
		Y:          y,
		Width:      newDecorSide,
		Height:     newDecorSide,
		Scale:      1,
		ZIndex:     e.nextZLocked(),
		Decoration: &document.DecorationProps{Animation: kind},
	}
	e.project.Canvas.Items = append(e.project.Canvas.Items, it)
	e.ctrl.SelectedID = it.ID
	e.ctrl.CropMode = false
	return it.ID
}

// UpdateTextItem replaces the text content of a canvas text item.
func (e *Engine) UpdateTextItem(id string, props document.TextProps) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range e.project.Canvas.Items {
		it := &e.project.Canvas.Items[i]
		if it.ID == id && it.Kind == document.ItemText {
			cp := props
			it.Text = &cp
			return true
		}
	}
	return false
}

func (e *Engine) nextZLocked() int {
	maxZ := 0
	for i := range e.project.Canvas.Items {
		if z := e.project.Canvas.Items[i].ZIndex; z > maxZ {
			maxZ = z
		}
	}
	return maxZ + 1
}

// AppendSlide adds a slide to the end of the timeline, assigning an id when
// the caller left it empty.
func (e *Engine) AppendSlide(s document.Slide) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if s.ID == "" {
		s.ID = typeid.NewSlideID()
	}
	if s.Transition == "" {
		s.Transition = document.TransitionFade
	}
	e.project.Timeline.Slides = append(e.project.Timeline.Slides, s)
	return s.ID
}

// RemoveSlide deletes a slide by id.
func (e *Engine) RemoveSlide(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	slides := e.project.Timeline.Slides
	for i := range slides {
		if slides[i].ID == id {
			e.project.Timeline.Slides = append(slides[:i], slides[i+1:]...)
			return true
		}
	}
	return false
}

// UpdateSlide applies an edit to a slide by id under the engine lock.
func (e *Engine) UpdateSlide(id string, apply func(*document.Slide)) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range e.project.Timeline.Slides {
		if e.project.Timeline.Slides[i].ID == id {
			apply(&e.project.Timeline.Slides[i])
			return true
		}
	}
	return false
}

// AddMusicTrack appends a background track reference.
func (e *Engine) AddMusicTrack(assetID, name string, durationSeconds float64) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	tr := document.AudioTrackRef{
		ID:              typeid.NewTrackID(),
		AssetID:         assetID,
		Name:            name,
		DurationSeconds: durationSeconds,
	}
	e.project.Music = append(e.project.Music, tr)
	return tr.ID
}

// RemoveMusicTrack deletes a background track by id.
func (e *Engine) RemoveMusicTrack(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range e.project.Music {
		if e.project.Music[i].ID == id {
			e.project.Music = append(e.project.Music[:i], e.project.Music[i+1:]...)
			return true
		}
	}
	return false
}
