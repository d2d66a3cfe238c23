// Package geometry is the single source of truth for item transform math.
// Drawing applies the forward transform (translate-to-center, rotate, scale,
// translate-to-top-left); hit-testing applies its inverse. Both sides must go
// through the functions here or selection and visuals desync.
package geometry

import (
	"math"

	"github.com/snapreel/snapreel/backend-go/internal/document"
)

// Handle geometry shared by drawing and hit-testing. Values are screen
// pixels: handles keep a constant on-screen size regardless of item scale,
// and the drawn radius equals the hit radius.
const (
	HandleRadius    = 10.0
	CropHandleSize  = 12.0
	RotationStalkPx = 28.0
)

// Vec is a 2D point or offset.
type Vec struct {
	X float64
	Y float64
}

// Box is an item's world-space oriented bounding box, described by its
// center and half-extents (extents are along the item's local axes).
type Box struct {
	CX    float64
	CY    float64
	HalfW float64
	HalfH float64
}

// Pad returns the footprint padding of an item: the background padding for
// text with a background box, zero for everything else. Drawing and
// hit-testing must use this same rule.
func Pad(it *document.VisualItem) float64 {
	if it.Kind == document.ItemText && it.Text != nil && it.Text.Background != "" {
		return it.Text.BackgroundPadding
	}
	return 0
}

// Center returns the item's world-space center. X/Y is the un-rotated
// top-left of the content box; scale and rotation pivot on this center.
func Center(it *document.VisualItem) (float64, float64) {
	return it.X + it.Width/2, it.Y + it.Height/2
}

// WorldBox computes the item's oriented bounding box.
func WorldBox(it *document.VisualItem) Box {
	cx, cy := Center(it)
	pad := Pad(it)
	return Box{
		CX:    cx,
		CY:    cy,
		HalfW: (it.Width + 2*pad) * it.Scale / 2,
		HalfH: (it.Height + 2*pad) * it.Scale / 2,
	}
}

// Forward returns the drawing transform for an item: local content-box
// coordinates (origin at the un-padded top-left) to world coordinates.
func Forward(it *document.VisualItem) Matrix2D {
	cx, cy := Center(it)
	return Translate(cx, cy).
		Multiply(Rotate(it.Rotation)).
		Multiply(Scale(it.Scale, it.Scale)).
		Multiply(Translate(-it.Width/2, -it.Height/2))
}

// ToLocal maps a world point into the item's own unscaled box space, where
// (0,0) is the content top-left and (width,height) the bottom-right.
func ToLocal(it *document.VisualItem, wx, wy float64) (float64, float64) {
	return Forward(it).Invert().TransformPoint(wx, wy)
}

// ToWorld maps a point in the item's local box space back to world space.
func ToWorld(it *document.VisualItem, lx, ly float64) (float64, float64) {
	return Forward(it).TransformPoint(lx, ly)
}

// ContainsBody reports whether a world point falls inside the item's padded
// content box. The test is axis-aligned in local space, so it is exact for
// rotated items.
func ContainsBody(it *document.VisualItem, wx, wy float64) bool {
	lx, ly := ToLocal(it, wx, wy)
	pad := Pad(it)
	return lx >= -pad && lx <= it.Width+pad && ly >= -pad && ly <= it.Height+pad
}

// Handles are the world-space positions of the selection chrome: the resize
// grip on the padded bottom-right corner, the rotation grip on a stalk above
// top-center, and the four crop corners.
type Handles struct {
	Resize Vec
	Rotate Vec
	CropTL Vec
	CropTR Vec
	CropBL Vec
	CropBR Vec
}

// HandlesFor derives handle positions from the same box used for drawing.
func HandlesFor(it *document.VisualItem) Handles {
	pad := Pad(it)
	w, h := it.Width, it.Height

	var hs Handles
	hs.CropTL = toWorldVec(it, -pad, -pad)
	hs.CropTR = toWorldVec(it, w+pad, -pad)
	hs.CropBL = toWorldVec(it, -pad, h+pad)
	hs.CropBR = toWorldVec(it, w+pad, h+pad)
	hs.Resize = hs.CropBR

	// The rotation grip sits a fixed number of screen pixels above the
	// rotated top-center, so the stalk length does not grow with scale.
	tcx, tcy := ToWorld(it, w/2, -pad)
	sin, cos := math.Sincos(it.Rotation)
	hs.Rotate = Vec{
		X: tcx + RotationStalkPx*sin,
		Y: tcy - RotationStalkPx*cos,
	}
	return hs
}

// HitsHandle reports whether a world point is within the handle radius of
// the given handle position.
func HitsHandle(handle Vec, wx, wy float64) bool {
	dx, dy := wx-handle.X, wy-handle.Y
	return dx*dx+dy*dy <= HandleRadius*HandleRadius
}

// Angle returns the angle from the item's center to a world point, as used
// by the rotate interaction.
func Angle(it *document.VisualItem, wx, wy float64) float64 {
	cx, cy := Center(it)
	return math.Atan2(wy-cy, wx-cx)
}

func toWorldVec(it *document.VisualItem, lx, ly float64) Vec {
	x, y := ToWorld(it, lx, ly)
	return Vec{X: x, Y: y}
}
