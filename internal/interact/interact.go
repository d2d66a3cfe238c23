// Package interact turns pointer events into item edits: selection,
// move/rotate/resize, and crop adjustments. All hit-testing goes through the
// geometry package, so what responds to the pointer is exactly what was
// drawn. Edits are applied as whole-item replacements so a render reading
// the item list never observes a half-updated item.
package interact

import (
	"math"
	"sort"

	"github.com/snapreel/snapreel/backend-go/internal/document"
	"github.com/snapreel/snapreel/backend-go/internal/geometry"
)

// Mode is the active drag interaction.
type Mode int

const (
	ModeNone Mode = iota
	ModeMove
	ModeRotate
	ModeResize
	ModeCropPan
	ModeCropTL
	ModeCropTR
	ModeCropBL
	ModeCropBR
)

// dragState snapshots the item and pointer at pointer-down. Deltas during
// the drag are computed against this snapshot, never incrementally, so a
// long drag cannot accumulate drift.
type dragState struct {
	pointerX float64
	pointerY float64
	angle    float64
	item     document.VisualItem
}

// Controller implements the single-selection pointer model over one scene.
// At most one item is selected; crop mode applies only to a selected image.
type Controller struct {
	SelectedID string
	CropMode   bool

	mode Mode
	drag dragState
}

// Mode exposes the active interaction, mainly for tests and UI cursors.
func (c *Controller) Mode() Mode { return c.mode }

// EnterCropMode activates crop editing when the selection is an image item.
func (c *Controller) EnterCropMode(sc *document.Scene) {
	if i := indexOf(sc, c.SelectedID); i >= 0 && sc.Items[i].Kind == document.ItemImage {
		c.CropMode = true
	}
}

// ExitCropMode leaves crop editing, keeping the selection.
func (c *Controller) ExitCropMode() { c.CropMode = false }

// PointerDown hit-tests and begins an interaction. The selected item's own
// handles take priority over re-selecting a different item; otherwise the
// topmost body hit wins and is promoted to the top of the z-order. A miss
// clears the selection.
func (c *Controller) PointerDown(sc *document.Scene, x, y float64) {
	if i := indexOf(sc, c.SelectedID); i >= 0 {
		if c.beginOnHandles(&sc.Items[i], x, y) {
			return
		}
	}

	for _, i := range descendingZ(sc.Items) {
		it := &sc.Items[i]
		if !geometry.ContainsBody(it, x, y) {
			continue
		}
		c.SelectedID = it.ID
		c.CropMode = false
		promote(sc, i)
		c.begin(ModeMove, it, x, y)
		return
	}

	c.SelectedID = ""
	c.CropMode = false
	c.mode = ModeNone
}

// beginOnHandles starts a drag if the pointer hits one of the selected
// item's handles (or, in crop mode, its pan region).
func (c *Controller) beginOnHandles(it *document.VisualItem, x, y float64) bool {
	hs := geometry.HandlesFor(it)

	if geometry.HitsHandle(hs.Rotate, x, y) {
		c.begin(ModeRotate, it, x, y)
		return true
	}

	if c.CropMode && it.Kind == document.ItemImage {
		corners := []struct {
			pos  geometry.Vec
			mode Mode
		}{
			{hs.CropTL, ModeCropTL},
			{hs.CropTR, ModeCropTR},
			{hs.CropBL, ModeCropBL},
			{hs.CropBR, ModeCropBR},
		}
		for _, corner := range corners {
			if geometry.HitsHandle(corner.pos, x, y) {
				c.begin(corner.mode, it, x, y)
				return true
			}
		}
		if geometry.ContainsBody(it, x, y) {
			c.begin(ModeCropPan, it, x, y)
			return true
		}
		return false
	}

	if geometry.HitsHandle(hs.Resize, x, y) {
		c.begin(ModeResize, it, x, y)
		return true
	}
	if geometry.ContainsBody(it, x, y) {
		c.begin(ModeMove, it, x, y)
		return true
	}
	return false
}

func (c *Controller) begin(mode Mode, it *document.VisualItem, x, y float64) {
	c.mode = mode
	c.drag = dragState{
		pointerX: x,
		pointerY: y,
		angle:    geometry.Angle(it, x, y),
		item:     cloneItem(*it),
	}
}

// PointerMove applies the active interaction's delta. The edited item is
// rebuilt from the drag-start snapshot plus the total pointer delta and then
// swapped into the scene as one write.
func (c *Controller) PointerMove(sc *document.Scene, x, y float64) {
	if c.mode == ModeNone {
		return
	}
	i := indexOf(sc, c.SelectedID)
	if i < 0 {
		return
	}

	dx, dy := x-c.drag.pointerX, y-c.drag.pointerY
	it := cloneItem(c.drag.item)

	switch c.mode {
	case ModeMove:
		it.X += dx
		it.Y += dy

	case ModeRotate:
		// Absolute: current pointer angle minus the angle at drag start,
		// added to the rotation at drag start.
		it.Rotation = c.drag.item.Rotation + geometry.Angle(&it, x, y) - c.drag.angle

	case ModeResize:
		lx, _ := geometry.ToLocal(&c.drag.item, x, y)
		if c.drag.item.Width > 0 {
			it.Scale = c.drag.item.Scale * lx / c.drag.item.Width
		}
		if it.Scale < document.MinScale {
			it.Scale = document.MinScale
		}

	case ModeCropPan:
		if it.Image != nil && it.Scale > 0 {
			it.Image.CropOffsetX = c.drag.item.Image.CropOffsetX + dx/it.Scale
			it.Image.CropOffsetY = c.drag.item.Image.CropOffsetY + dy/it.Scale
		}

	case ModeCropTL, ModeCropTR, ModeCropBL, ModeCropBR:
		c.applyCropResize(&it, dx, dy)
	}

	sc.Items[i] = it
}

// applyCropResize grows or shrinks the crop box toward the dragged corner.
// The opposite corner stays anchored and the crop offset shifts by half the
// applied delta so the content does not appear to move inside the box.
func (c *Controller) applyCropResize(it *document.VisualItem, dx, dy float64) {
	if it.Image == nil {
		return
	}
	start := &c.drag.item

	// Pointer delta in the item's unrotated, unscaled axes.
	sin, cos := math.Sincos(start.Rotation)
	ldx := (dx*cos + dy*sin) / start.Scale
	ldy := (-dx*sin + dy*cos) / start.Scale

	var dW, dH float64
	switch c.mode {
	case ModeCropTL:
		dW, dH = -ldx, -ldy
	case ModeCropTR:
		dW, dH = ldx, -ldy
	case ModeCropBL:
		dW, dH = -ldx, ldy
	case ModeCropBR:
		dW, dH = ldx, ldy
	}

	newW := math.Max(document.MinCropSide, start.Width+dW)
	newH := math.Max(document.MinCropSide, start.Height+dH)
	dW, dH = newW-start.Width, newH-start.Height

	it.Width, it.Height = newW, newH

	// Left-anchored corners keep X; right-anchored corners move it so the
	// opposite edge is the one that stays put. Same for Y.
	switch c.mode {
	case ModeCropTL:
		it.X = start.X - dW
		it.Y = start.Y - dH
		it.Image.CropOffsetX = start.Image.CropOffsetX + dW/2
		it.Image.CropOffsetY = start.Image.CropOffsetY + dH/2
	case ModeCropTR:
		it.Y = start.Y - dH
		it.Image.CropOffsetX = start.Image.CropOffsetX - dW/2
		it.Image.CropOffsetY = start.Image.CropOffsetY + dH/2
	case ModeCropBL:
		it.X = start.X - dW
		it.Image.CropOffsetX = start.Image.CropOffsetX + dW/2
		it.Image.CropOffsetY = start.Image.CropOffsetY - dH/2
	case ModeCropBR:
		it.Image.CropOffsetX = start.Image.CropOffsetX - dW/2
		it.Image.CropOffsetY = start.Image.CropOffsetY - dH/2
	}
}

// PointerUp ends the interaction unconditionally; selection and crop mode
// survive until the next pointer-down decides otherwise.
func (c *Controller) PointerUp() {
	c.mode = ModeNone
	c.drag = dragState{}
}

// DeleteSelected removes the selected item and clears the selection so later
// z-order scans never see a dangling id.
func (c *Controller) DeleteSelected(sc *document.Scene) bool {
	i := indexOf(sc, c.SelectedID)
	if i < 0 {
		return false
	}
	sc.Items = append(sc.Items[:i], sc.Items[i+1:]...)
	c.SelectedID = ""
	c.CropMode = false
	c.mode = ModeNone
	return true
}

func indexOf(sc *document.Scene, id string) int {
	if id == "" {
		return -1
	}
	for i := range sc.Items {
		if sc.Items[i].ID == id {
			return i
		}
	}
	return -1
}

// descendingZ orders item indices topmost first: higher z wins, and within a
// z tie the later insertion drew on top.
func descendingZ(items []document.VisualItem) []int {
	order := make([]int, len(items))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		za, zb := items[order[a]].ZIndex, items[order[b]].ZIndex
		if za != zb {
			return za > zb
		}
		return order[a] > order[b]
	})
	return order
}

// promote lifts an item above every other so the next draw and hit-test see
// it on top.
func promote(sc *document.Scene, i int) {
	maxZ := math.MinInt32
	for j := range sc.Items {
		if sc.Items[j].ZIndex > maxZ {
			maxZ = sc.Items[j].ZIndex
		}
	}
	sc.Items[i].ZIndex = maxZ + 1
}

// cloneItem deep-copies the kind-specific props so edits to the copy never
// leak into the original through a shared pointer.
func cloneItem(it document.VisualItem) document.VisualItem {
	if it.Image != nil {
		cp := *it.Image
		it.Image = &cp
	}
	if it.Text != nil {
		cp := *it.Text
		it.Text = &cp
	}
	if it.Decoration != nil {
		cp := *it.Decoration
		it.Decoration = &cp
	}
	return it
}
