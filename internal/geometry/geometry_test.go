package geometry

import (
	"math"
	"testing"

	"github.com/snapreel/snapreel/backend-go/internal/document"
)

const eps = 1e-9

func testItem() *document.VisualItem {
	return &document.VisualItem{
		ID: "item_test", Kind: document.ItemImage,
		X: 100, Y: 50, Width: 200, Height: 120,
		Scale: 1.5, Rotation: 0.7,
		Image: &document.ImageProps{CropZoom: 1, BaseFitScale: 1},
	}
}

func TestRoundTrip(t *testing.T) {
	it := testItem()

	corners := [][2]float64{
		{0, 0},
		{it.Width, 0},
		{it.Width, it.Height},
		{0, it.Height},
		{it.Width / 2, it.Height / 2},
	}

	for _, c := range corners {
		wx, wy := ToWorld(it, c[0], c[1])
		lx, ly := ToLocal(it, wx, wy)
		if math.Abs(lx-c[0]) > eps || math.Abs(ly-c[1]) > eps {
			t.Errorf("round trip (%v,%v) -> (%v,%v)", c[0], c[1], lx, ly)
		}
	}
}

func TestCenterMapsToBoxCenter(t *testing.T) {
	it := testItem()
	box := WorldBox(it)
	wx, wy := ToWorld(it, it.Width/2, it.Height/2)
	if math.Abs(wx-box.CX) > eps || math.Abs(wy-box.CY) > eps {
		t.Errorf("center mismatch: forward (%v,%v), box (%v,%v)", wx, wy, box.CX, box.CY)
	}
}

func TestRotationInvariance(t *testing.T) {
	// A point inside the unrotated body stays inside when both the item and
	// the query point rotate by the same angle about the item center.
	for _, r := range []float64{0.3, -0.3, 1.2, -1.2, math.Pi / 2} {
		it := testItem()
		it.Rotation = 0

		// Pick a point inside the body.
		wx, wy := ToWorld(it, 20, 30)
		if !ContainsBody(it, wx, wy) {
			t.Fatalf("point should be inside unrotated body")
		}

		cx, cy := Center(it)
		sin, cos := math.Sincos(r)
		rx := cx + (wx-cx)*cos - (wy-cy)*sin
		ry := cy + (wx-cx)*sin + (wy-cy)*cos

		it.Rotation = r
		if !ContainsBody(it, rx, ry) {
			t.Errorf("rotation %v: rotated point left the body", r)
		}
	}
}

func TestPadRule(t *testing.T) {
	text := &document.VisualItem{
		ID: "item_text", Kind: document.ItemText,
		X: 0, Y: 0, Width: 100, Height: 40, Scale: 2,
		Text: &document.TextProps{
			Text: "hi", FontSize: 20, Color: "#fff",
			Background: "#000", BackgroundPadding: 8,
		},
	}
	box := WorldBox(text)
	if got, want := box.HalfW, (100.0+16)*2/2; math.Abs(got-want) > eps {
		t.Errorf("padded halfW = %v, want %v", got, want)
	}

	// Without a background the padding must not apply.
	text.Text.Background = ""
	box = WorldBox(text)
	if got, want := box.HalfW, 100.0*2/2; math.Abs(got-want) > eps {
		t.Errorf("unpadded halfW = %v, want %v", got, want)
	}
}

func TestContainsBodyEdges(t *testing.T) {
	it := testItem()
	it.Rotation = 0
	it.Scale = 1

	tests := []struct {
		wx, wy float64
		want   bool
	}{
		{100, 50, true},    // top-left corner
		{300, 170, true},   // bottom-right corner
		{99, 50, false},    // just outside left
		{300.5, 50, false}, // just outside right
		{200, 110, true},   // middle
	}
	for _, tt := range tests {
		if got := ContainsBody(it, tt.wx, tt.wy); got != tt.want {
			t.Errorf("ContainsBody(%v,%v) = %v, want %v", tt.wx, tt.wy, got, tt.want)
		}
	}
}

func TestRotationHandleStalkLength(t *testing.T) {
	for _, r := range []float64{0, 0.9, -2.1} {
		it := testItem()
		it.Rotation = r
		hs := HandlesFor(it)
		tcx, tcy := ToWorld(it, it.Width/2, 0)
		dist := math.Hypot(hs.Rotate.X-tcx, hs.Rotate.Y-tcy)
		if math.Abs(dist-RotationStalkPx) > eps {
			t.Errorf("rotation %v: stalk length %v, want %v", r, dist, RotationStalkPx)
		}
	}
}

func TestHitsHandle(t *testing.T) {
	h := Vec{X: 40, Y: 40}
	if !HitsHandle(h, 40+HandleRadius-0.01, 40) {
		t.Error("point just inside radius should hit")
	}
	if HitsHandle(h, 40+HandleRadius+0.01, 40) {
		t.Error("point just outside radius should miss")
	}
}

func TestMatrixInvert(t *testing.T) {
	m := Translate(12, -7).Multiply(Rotate(0.4)).Multiply(Scale(2, 2))
	inv := m.Invert()
	x, y := inv.TransformPoint(m.TransformPoint(3, 9))
	if math.Abs(x-3) > eps || math.Abs(y-9) > eps {
		t.Errorf("invert round trip got (%v,%v)", x, y)
	}

	// Singular matrices fall back to identity.
	if got := (Matrix2D{0, 0, 0, 0, 5, 5}).Invert(); got != Identity() {
		t.Errorf("singular invert = %v, want identity", got)
	}
}
