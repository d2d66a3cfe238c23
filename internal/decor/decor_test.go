package decor

import (
	"bytes"
	"image"
	"testing"

	"github.com/fogleman/gg"

	"github.com/snapreel/snapreel/backend-go/internal/document"
)

func rasterize(kind document.Animation, t float64) []byte {
	dc := gg.NewContext(160, 120)
	dc.SetRGB(0, 0, 0)
	dc.Clear()
	Render(dc, kind, 160, 120, t)
	rgba := dc.Image().(*image.RGBA)
	return append([]byte(nil), rgba.Pix...)
}

func TestDeterministicEffects(t *testing.T) {
	for _, kind := range document.Animations {
		if !Deterministic(kind) {
			continue
		}
		for _, tv := range []float64{0, 0.3, 1.7, 12.5} {
			a := rasterize(kind, tv)
			b := rasterize(kind, tv)
			if !bytes.Equal(a, b) {
				t.Errorf("%s at t=%v: repeat render differs", kind, tv)
			}
		}
	}
}

func TestRecordingFrameBlink(t *testing.T) {
	// floor(t*2)%2 keys the dot: on in [0,0.5), off in [0.5,1).
	on := rasterize(document.AnimRecordingFrame, 0.1)
	off := rasterize(document.AnimRecordingFrame, 0.6)
	if bytes.Equal(on, off) {
		t.Error("blink phases should differ")
	}

	onAgain := rasterize(document.AnimRecordingFrame, 0.4)
	if !bytes.Equal(on, onAgain) {
		t.Error("same blink phase should render identically")
	}
}

func TestCircleHighlightDrawOnWindow(t *testing.T) {
	partial := rasterize(document.AnimCircleHighlight, 0.4)
	full := rasterize(document.AnimCircleHighlight, 1.0)
	late := rasterize(document.AnimCircleHighlight, 5.0)

	if bytes.Equal(partial, full) {
		t.Error("partial and complete draw-on should differ")
	}
	// The draw-on clamps at 1 second; afterwards the effect is static.
	if !bytes.Equal(full, late) {
		t.Error("effect should be static after the 1s window")
	}
}

func TestTapeStripIsNotDeterministic(t *testing.T) {
	if Deterministic(document.AnimTapeStrip) {
		t.Error("tape strip jitter is cosmetic randomness by design")
	}
}

func TestUnknownKindDrawsNothing(t *testing.T) {
	blank := gg.NewContext(160, 120)
	blank.SetRGB(0, 0, 0)
	blank.Clear()
	want := blank.Image().(*image.RGBA).Pix

	got := rasterize(document.Animation("nope"), 1.0)
	if !bytes.Equal(want, got) {
		t.Error("unknown animation kind should draw nothing")
	}
}
