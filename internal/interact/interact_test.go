package interact

import (
	"math"
	"testing"

	"github.com/snapreel/snapreel/backend-go/internal/document"
	"github.com/snapreel/snapreel/backend-go/internal/geometry"
)

func imageItem(id string, x, y float64, z int) document.VisualItem {
	return document.VisualItem{
		ID: id, Kind: document.ItemImage,
		X: x, Y: y, Width: 200, Height: 150, Scale: 1, ZIndex: z,
		Image: &document.ImageProps{AssetID: "asset", BaseFitScale: 1, CropZoom: 1},
	}
}

func oneItemScene() *document.Scene {
	return &document.Scene{
		ID:    "scene_t",
		Items: []document.VisualItem{imageItem("item_a", 100, 100, 1)},
	}
}

func TestSelectTopmostAndPromote(t *testing.T) {
	sc := &document.Scene{
		ID: "scene_t",
		Items: []document.VisualItem{
			imageItem("item_low", 100, 100, 1),
			imageItem("item_high", 150, 120, 5),
		},
	}
	var c Controller

	// The overlap region belongs to the higher z.
	c.PointerDown(sc, 200, 180)
	if c.SelectedID != "item_high" {
		t.Fatalf("selected %q, want item_high", c.SelectedID)
	}
	if sc.Items[1].ZIndex != 6 {
		t.Errorf("selection should promote to max z + 1, got %d", sc.Items[1].ZIndex)
	}
	if c.Mode() != ModeMove {
		t.Errorf("body hit should start a move, got mode %d", c.Mode())
	}
}

func TestMissClearsSelection(t *testing.T) {
	sc := oneItemScene()
	var c Controller

	c.PointerDown(sc, 150, 150)
	if c.SelectedID == "" {
		t.Fatal("expected a selection")
	}
	c.PointerUp()

	c.PointerDown(sc, 900, 900)
	if c.SelectedID != "" {
		t.Errorf("miss should clear selection, still %q", c.SelectedID)
	}
}

func TestMoveAppliesScreenDelta(t *testing.T) {
	sc := oneItemScene()
	var c Controller

	c.PointerDown(sc, 150, 150)
	c.PointerMove(sc, 180, 130)
	c.PointerUp()

	it := sc.Items[0]
	if it.X != 130 || it.Y != 80 {
		t.Errorf("moved to (%v,%v), want (130,80)", it.X, it.Y)
	}
}

func TestRotateIsAbsoluteFromDragStart(t *testing.T) {
	sc := oneItemScene()
	c := Controller{SelectedID: "item_a"}

	hs := geometry.HandlesFor(&sc.Items[0])
	c.PointerDown(sc, hs.Rotate.X, hs.Rotate.Y)
	if c.Mode() != ModeRotate {
		t.Fatalf("expected rotate mode, got %d", c.Mode())
	}

	// Swing the pointer a quarter turn around the center (200, 175).
	c.PointerMove(sc, 303, 175)
	c.PointerUp()

	if got := sc.Items[0].Rotation; math.Abs(got-math.Pi/2) > 1e-9 {
		t.Errorf("rotation %v, want pi/2", got)
	}
}

func TestResizeScaleAndFloor(t *testing.T) {
	sc := oneItemScene()
	c := Controller{SelectedID: "item_a"}

	hs := geometry.HandlesFor(&sc.Items[0])
	c.PointerDown(sc, hs.Resize.X, hs.Resize.Y)
	if c.Mode() != ModeResize {
		t.Fatalf("expected resize mode, got %d", c.Mode())
	}

	c.PointerMove(sc, 340, 250)
	if got := sc.Items[0].Scale; math.Abs(got-1.2) > 1e-9 {
		t.Errorf("scale %v, want 1.2", got)
	}

	// A huge inward drag bottoms out at the scale floor.
	c.PointerMove(sc, -2000, 250)
	if got := sc.Items[0].Scale; got != document.MinScale {
		t.Errorf("scale %v, want floor %v", got, document.MinScale)
	}
	c.PointerUp()
}

func TestCropPanScalesByInverseScale(t *testing.T) {
	sc := oneItemScene()
	sc.Items[0].Scale = 2
	c := Controller{SelectedID: "item_a"}
	c.EnterCropMode(sc)

	c.PointerDown(sc, 200, 175)
	if c.Mode() != ModeCropPan {
		t.Fatalf("expected crop pan, got %d", c.Mode())
	}
	c.PointerMove(sc, 230, 195)
	c.PointerUp()

	props := sc.Items[0].Image
	if props.CropOffsetX != 15 || props.CropOffsetY != 10 {
		t.Errorf("offset (%v,%v), want (15,10)", props.CropOffsetX, props.CropOffsetY)
	}
}

func TestCropResizeBottomRight(t *testing.T) {
	sc := oneItemScene()
	c := Controller{SelectedID: "item_a"}
	c.EnterCropMode(sc)

	hs := geometry.HandlesFor(&sc.Items[0])
	c.PointerDown(sc, hs.CropBR.X, hs.CropBR.Y)
	if c.Mode() != ModeCropBR {
		t.Fatalf("expected crop BR, got %d", c.Mode())
	}
	c.PointerMove(sc, hs.CropBR.X+20, hs.CropBR.Y+10)
	c.PointerUp()

	it := sc.Items[0]
	if it.Width != 220 || it.Height != 160 {
		t.Errorf("box %vx%v, want 220x160", it.Width, it.Height)
	}
	if it.X != 100 || it.Y != 100 {
		t.Errorf("top-left moved to (%v,%v), should stay anchored", it.X, it.Y)
	}
	if it.Image.CropOffsetX != -10 || it.Image.CropOffsetY != -5 {
		t.Errorf("offset (%v,%v), want (-10,-5)", it.Image.CropOffsetX, it.Image.CropOffsetY)
	}
}

func TestCropResizeTopLeftAnchorsOpposite(t *testing.T) {
	sc := oneItemScene()
	c := Controller{SelectedID: "item_a"}
	c.EnterCropMode(sc)

	hs := geometry.HandlesFor(&sc.Items[0])
	c.PointerDown(sc, hs.CropTL.X, hs.CropTL.Y)
	if c.Mode() != ModeCropTL {
		t.Fatalf("expected crop TL, got %d", c.Mode())
	}
	// Drag inward: the box shrinks and the bottom-right edge stays put.
	c.PointerMove(sc, hs.CropTL.X+20, hs.CropTL.Y+10)
	c.PointerUp()

	it := sc.Items[0]
	if it.Width != 180 || it.Height != 140 {
		t.Errorf("box %vx%v, want 180x140", it.Width, it.Height)
	}
	if it.X != 120 || it.Y != 110 {
		t.Errorf("top-left (%v,%v), want (120,110)", it.X, it.Y)
	}
	if it.X+it.Width != 300 || it.Y+it.Height != 250 {
		t.Error("bottom-right corner should stay anchored")
	}
}

func TestCropResizeFloor(t *testing.T) {
	sc := oneItemScene()
	c := Controller{SelectedID: "item_a"}
	c.EnterCropMode(sc)

	hs := geometry.HandlesFor(&sc.Items[0])
	c.PointerDown(sc, hs.CropBR.X, hs.CropBR.Y)
	c.PointerMove(sc, hs.CropBR.X-5000, hs.CropBR.Y-5000)
	c.PointerUp()

	it := sc.Items[0]
	if it.Width != document.MinCropSide || it.Height != document.MinCropSide {
		t.Errorf("box %vx%v, want %vx%v floor", it.Width, it.Height,
			document.MinCropSide, document.MinCropSide)
	}
}

func TestEnterCropModeRequiresImage(t *testing.T) {
	sc := &document.Scene{
		ID: "scene_t",
		Items: []document.VisualItem{{
			ID: "item_txt", Kind: document.ItemText,
			X: 10, Y: 10, Width: 80, Height: 30, Scale: 1,
			Text: &document.TextProps{Text: "hi", FontSize: 20, Color: "#fff"},
		}},
	}
	c := Controller{SelectedID: "item_txt"}
	c.EnterCropMode(sc)
	if c.CropMode {
		t.Error("crop mode must be limited to image items")
	}
}

func TestDeleteSelectedClearsSelection(t *testing.T) {
	sc := oneItemScene()
	var c Controller

	c.PointerDown(sc, 150, 150)
	c.PointerUp()
	if !c.DeleteSelected(sc) {
		t.Fatal("delete should report success")
	}
	if c.SelectedID != "" || len(sc.Items) != 0 {
		t.Errorf("selection %q items %d, want cleared and empty", c.SelectedID, len(sc.Items))
	}

	// The old position no longer hits anything.
	c.PointerDown(sc, 150, 150)
	if c.SelectedID != "" {
		t.Error("deleted item must not be hit-testable")
	}
}

func TestPointerUpAlwaysResets(t *testing.T) {
	sc := oneItemScene()
	var c Controller

	c.PointerDown(sc, 150, 150)
	c.PointerUp()
	if c.Mode() != ModeNone {
		t.Errorf("mode %d after pointer-up, want none", c.Mode())
	}

	// A move after pointer-up is a no-op.
	before := sc.Items[0]
	c.PointerMove(sc, 500, 500)
	if sc.Items[0] != before {
		t.Error("pointer-move without a drag must not edit items")
	}
}
