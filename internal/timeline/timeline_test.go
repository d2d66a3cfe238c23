package timeline

import (
	"image"
	"image/color"
	"testing"

	"github.com/fogleman/gg"

	"github.com/snapreel/snapreel/backend-go/internal/compositor"
	"github.com/snapreel/snapreel/backend-go/internal/document"
)

func threeSlideProject() *document.Project {
	return &document.Project{
		SlideSeconds: 3,
		FadeSeconds:  1,
		Timeline: document.Timeline{Slides: []document.Slide{
			{ID: "slide_a", Kind: document.SlideImage, AssetID: "a", Transition: document.TransitionFade},
			{ID: "slide_b", Kind: document.SlideImage, AssetID: "b", Transition: document.TransitionSlideLeft},
			{ID: "slide_c", Kind: document.SlideImage, AssetID: "c", Transition: document.TransitionZoomIn},
		}},
	}
}

func TestLocate(t *testing.T) {
	p := threeSlideProject()

	cases := []struct {
		t            float64
		index        int
		local        float64
		inTransition bool
	}{
		{0, 0, 0, false},
		{1.9, 0, 1.9, false},
		{2.5, 0, 2.5, true},
		{3.0, 1, 0, false},
		{3.5, 1, 0.5, false},
		{5.5, 1, 2.5, true},
		{8.9, 2, 2.9, true},
	}
	approx := func(a, b float64) bool { return a-b < 1e-9 && b-a < 1e-9 }
	for _, c := range cases {
		pos := Locate(p, c.t)
		if pos.Index != c.index || !approx(pos.LocalTime, c.local) || pos.InTransition != c.inTransition {
			t.Errorf("Locate(%v) = {idx %d local %v trans %v}, want {idx %d local %v trans %v}",
				c.t, pos.Index, pos.LocalTime, pos.InTransition, c.index, c.local, c.inTransition)
		}
	}
}

func TestLocateTransitionProgress(t *testing.T) {
	p := threeSlideProject()

	pos := Locate(p, 2.5)
	if pos.Progress != 0.5 {
		t.Errorf("midway through a 1s window starting at 2s: progress %v, want 0.5", pos.Progress)
	}
	if pos.NextIndex != 1 {
		t.Errorf("next index %d, want 1", pos.NextIndex)
	}

	// The last slide's transition wraps to the first for looping playback.
	if pos := Locate(p, 8.5); pos.NextIndex != 0 || !pos.InTransition {
		t.Errorf("last slide transition: next %d trans %v", pos.NextIndex, pos.InTransition)
	}
}

func TestLocatePastEndClampsToLastSlide(t *testing.T) {
	p := threeSlideProject()
	pos := Locate(p, 100)
	if pos.Index != 2 || pos.LocalTime != 3 {
		t.Errorf("past end: idx %d local %v, want idx 2 local 3", pos.Index, pos.LocalTime)
	}
}

func TestLocateSingleSlideNeverTransitions(t *testing.T) {
	p := &document.Project{
		SlideSeconds: 3,
		FadeSeconds:  1,
		Timeline: document.Timeline{Slides: []document.Slide{
			{ID: "slide_only", Kind: document.SlideImage, Transition: document.TransitionFade},
		}},
	}
	if pos := Locate(p, 2.9); pos.InTransition {
		t.Error("a single slide has nothing to transition to")
	}
}

func TestLocateEmptyTimeline(t *testing.T) {
	p := &document.Project{SlideSeconds: 3}
	if pos := Locate(p, 1); pos.Index != -1 {
		t.Errorf("empty timeline should report index -1, got %d", pos.Index)
	}
}

func TestLocateWindowClampsToSlideDuration(t *testing.T) {
	p := &document.Project{
		SlideSeconds: 4,
		FadeSeconds:  10,
		Timeline: document.Timeline{Slides: []document.Slide{
			{ID: "slide_a", Kind: document.SlideImage},
			{ID: "slide_b", Kind: document.SlideImage},
		}},
	}
	// Window is min(10, 4) = 4, so the whole slide is in transition.
	pos := Locate(p, 1)
	if !pos.InTransition || pos.Progress != 0.25 {
		t.Errorf("got trans %v progress %v, want true 0.25", pos.InTransition, pos.Progress)
	}
}

func TestVideoAudible(t *testing.T) {
	vid := &document.Slide{Kind: document.SlideVideo, KeepOriginalAudio: true}
	if !VideoAudible(vid, true, false) {
		t.Error("active keep-audio video should be audible")
	}
	if VideoAudible(vid, false, false) {
		t.Error("inactive slide must be silent")
	}
	if VideoAudible(vid, true, true) {
		t.Error("mid-edit slide must be silent")
	}
	muted := &document.Slide{Kind: document.SlideVideo}
	if VideoAudible(muted, true, false) {
		t.Error("video without keepOriginalAudio must be silent")
	}
}

type fakeVideo struct {
	pos   float64
	seeks []float64
	frame image.Image
}

func (f *fakeVideo) Frame() (image.Image, bool) { return f.frame, f.frame != nil }
func (f *fakeVideo) Position() float64          { return f.pos }
func (f *fakeVideo) Seek(s float64)             { f.seeks = append(f.seeks, s); f.pos = s }

type fakeAssets struct {
	rasters map[string]image.Image
	videos  map[string]*fakeVideo
}

func (f *fakeAssets) Raster(id string) (image.Image, bool) {
	img, ok := f.rasters[id]
	return img, ok
}

func (f *fakeAssets) Video(id string) (VideoHandle, bool) {
	v, ok := f.videos[id]
	return v, ok
}

func newTestRenderer(t *testing.T, assets *fakeAssets) *Renderer {
	t.Helper()
	faces, err := compositor.NewFaceCache()
	if err != nil {
		t.Fatal(err)
	}
	if assets.rasters == nil {
		assets.rasters = map[string]image.Image{}
	}
	if assets.videos == nil {
		assets.videos = map[string]*fakeVideo{}
	}
	return NewRenderer(160, 90, faces, assets)
}

func TestVideoSeeksOnlyPastDrift(t *testing.T) {
	frame := image.NewRGBA(image.Rect(0, 0, 32, 18))
	vid := &fakeVideo{pos: 1.0, frame: frame}
	assets := &fakeAssets{videos: map[string]*fakeVideo{"v": vid}}
	r := newTestRenderer(t, assets)

	p := &document.Project{
		SlideSeconds: 3,
		Timeline: document.Timeline{Slides: []document.Slide{
			{ID: "slide_v", Kind: document.SlideVideo, AssetID: "v", DurationSeconds: 10},
		}},
	}

	dc := gg.NewContext(160, 90)
	r.RenderFrame(dc, p, 1.1)
	if len(vid.seeks) != 0 {
		t.Errorf("0.1s drift should not seek, got %v", vid.seeks)
	}
	r.RenderFrame(dc, p, 2.0)
	if len(vid.seeks) != 1 || vid.seeks[0] != 2.0 {
		t.Errorf("1.0s drift should seek to 2.0, got %v", vid.seeks)
	}
}

func TestMissingSlideAssetRendersPlaceholder(t *testing.T) {
	r := newTestRenderer(t, &fakeAssets{})
	p := &document.Project{
		SlideSeconds: 3,
		Timeline: document.Timeline{Slides: []document.Slide{
			{ID: "slide_x", Kind: document.SlideImage, AssetID: "gone", Filename: "beach.jpg"},
		}},
	}

	dc := gg.NewContext(160, 90)
	r.RenderFrame(dc, p, 1)

	// The placeholder panel is not pure black.
	px := dc.Image().(*image.RGBA).RGBAAt(80, 10)
	if px.R == 0 && px.G == 0 && px.B == 0 {
		t.Error("placeholder should paint a visible panel")
	}
}

func TestTransitionLayersIncomingSlide(t *testing.T) {
	red := image.NewRGBA(image.Rect(0, 0, 16, 9))
	blue := image.NewRGBA(image.Rect(0, 0, 16, 9))
	for y := 0; y < 9; y++ {
		for x := 0; x < 16; x++ {
			red.Set(x, y, color.RGBA{R: 255, A: 255})
			blue.Set(x, y, color.RGBA{B: 255, A: 255})
		}
	}
	assets := &fakeAssets{rasters: map[string]image.Image{"a": red, "b": blue}}
	r := newTestRenderer(t, assets)

	p := &document.Project{
		SlideSeconds: 3,
		FadeSeconds:  1,
		Timeline: document.Timeline{Slides: []document.Slide{
			{ID: "slide_a", Kind: document.SlideImage, AssetID: "a", Transition: document.TransitionSlideLeft},
			{ID: "slide_b", Kind: document.SlideImage, AssetID: "b", Transition: document.TransitionFade},
		}},
	}

	// Halfway through the push-left the right half shows the incoming slide.
	dc := gg.NewContext(160, 90)
	r.RenderFrame(dc, p, 2.5)
	img := dc.Image().(*image.RGBA)

	left := img.RGBAAt(10, 45)
	right := img.RGBAAt(150, 45)
	if left.R < 200 || left.B > 50 {
		t.Errorf("left half should still show outgoing red, got %+v", left)
	}
	if right.B < 200 || right.R > 50 {
		t.Errorf("right half should show incoming blue, got %+v", right)
	}
}
