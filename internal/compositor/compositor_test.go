package compositor

import (
	"bytes"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/fogleman/gg"

	"github.com/snapreel/snapreel/backend-go/internal/document"
)

type mapAssets map[string]image.Image

func (m mapAssets) Raster(id string) (image.Image, bool) {
	img, ok := m[id]
	return img, ok
}

func solid(w, h int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func testScene() *document.Scene {
	return &document.Scene{
		ID:                   "scene_test",
		BackgroundGradientID: "ocean",
		Items: []document.VisualItem{
			{
				ID: "item_a", Kind: document.ItemImage,
				X: 40, Y: 30, Width: 200, Height: 150, Scale: 1, ZIndex: 1,
				Image: &document.ImageProps{AssetID: "red", BaseFitScale: 1, CropZoom: 1},
			},
			{
				ID: "item_b", Kind: document.ItemText,
				X: 60, Y: 60, Width: 10, Height: 10, Scale: 1, Rotation: 0.2, ZIndex: 2,
				Text: &document.TextProps{
					Text: "hello", FontSize: 24, Color: "#ffffff",
					Background: "#000000", BackgroundOpacity: 0.6,
					BackgroundPadding: 8, BackgroundRadius: 4,
				},
			},
			{
				ID: "item_c", Kind: document.ItemDecoration,
				X: 120, Y: 20, Width: 80, Height: 80, Scale: 1, ZIndex: 3,
				Decoration: &document.DecorationProps{Animation: document.AnimHeartLine},
			},
		},
	}
}

func renderOnce(sc *document.Scene, faces *FaceCache, assets AssetSource, opts Options) []byte {
	dc := gg.NewContext(320, 240)
	RenderScene(dc, sc, faces, assets, opts)
	return append([]byte(nil), dc.Image().(*image.RGBA).Pix...)
}

func TestRenderSceneIdempotent(t *testing.T) {
	faces, err := NewFaceCache()
	if err != nil {
		t.Fatal(err)
	}
	assets := mapAssets{"red": solid(64, 48, color.RGBA{R: 200, A: 255})}

	opts := Options{Time: 1.25, SelectedID: "item_a"}
	first := renderOnce(testScene(), faces, assets, opts)
	second := renderOnce(testScene(), faces, assets, opts)
	if !bytes.Equal(first, second) {
		t.Error("same document and clock should produce identical frames")
	}
}

func TestRenderSceneZOrder(t *testing.T) {
	faces, err := NewFaceCache()
	if err != nil {
		t.Fatal(err)
	}
	assets := mapAssets{
		"red":  solid(64, 48, color.RGBA{R: 255, A: 255}),
		"blue": solid(64, 48, color.RGBA{B: 255, A: 255}),
	}

	// Two fully overlapping opaque panels; only z decides the winner.
	overlap := func(topAsset string, topZ, bottomZ int) color.RGBA {
		sc := &document.Scene{
			ID: "scene_z",
			Items: []document.VisualItem{
				{ID: "item_r", Kind: document.ItemImage, X: 0, Y: 0, Width: 100, Height: 100,
					Scale: 1, ZIndex: bottomZ,
					Image: &document.ImageProps{AssetID: "red", BaseFitScale: 2, CropZoom: 1}},
				{ID: "item_b", Kind: document.ItemImage, X: 0, Y: 0, Width: 100, Height: 100,
					Scale: 1, ZIndex: topZ,
					Image: &document.ImageProps{AssetID: topAsset, BaseFitScale: 2, CropZoom: 1}},
			},
		}
		dc := gg.NewContext(120, 120)
		RenderScene(dc, sc, faces, assets, Options{})
		return dc.Image().(*image.RGBA).RGBAAt(50, 50)
	}

	if got := overlap("blue", 5, 1); got.B < 200 || got.R > 50 {
		t.Errorf("higher z should win: got %+v", got)
	}
	if got := overlap("blue", 1, 5); got.R < 200 || got.B > 50 {
		t.Errorf("lower z should lose: got %+v", got)
	}
}

func TestRenderSceneMeasuresText(t *testing.T) {
	faces, err := NewFaceCache()
	if err != nil {
		t.Fatal(err)
	}
	sc := testScene()

	dc := gg.NewContext(320, 240)
	RenderScene(dc, sc, faces, mapAssets{}, Options{})

	txt := &sc.Items[1]
	if txt.Width <= 10 || txt.Height <= 10 {
		t.Errorf("text footprint should be remeasured from glyphs, got %vx%v", txt.Width, txt.Height)
	}
	if want := 24 * lineSpacing; math.Abs(txt.Height-want) > 1e-9 {
		t.Errorf("single line height: got %v want %v", txt.Height, want)
	}
}

func TestMissingAssetRendersPlaceholder(t *testing.T) {
	faces, err := NewFaceCache()
	if err != nil {
		t.Fatal(err)
	}
	sc := testScene()

	// Rendering without the referenced asset must not panic and must not
	// disturb the item geometry.
	dc := gg.NewContext(320, 240)
	RenderScene(dc, sc, faces, mapAssets{}, Options{})

	img := &sc.Items[0]
	if img.Width != 200 || img.Height != 150 {
		t.Errorf("placeholder must keep geometry, got %vx%v", img.Width, img.Height)
	}
}

func TestGradientStopsFallback(t *testing.T) {
	top, bottom := GradientStops("not-a-gradient")
	dTop, dBottom := GradientStops(DefaultGradientID)
	if top != dTop || bottom != dBottom {
		t.Error("unknown gradient id should fall back to the default")
	}
}
