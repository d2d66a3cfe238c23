// Package compositor rasterizes a single scene: gradient background, the
// z-ordered visual items, and the selection chrome. The same entry point is
// used for the collage editor canvas and for collage slides embedded in the
// timeline, so the two call sites can never drift apart.
package compositor

import (
	"image"
	"image/color"
	"image/draw"
	"sort"
	"strings"

	"github.com/fogleman/gg"

	"github.com/snapreel/snapreel/backend-go/internal/decor"
	"github.com/snapreel/snapreel/backend-go/internal/document"
	"github.com/snapreel/snapreel/backend-go/internal/geometry"
)

// AssetSource resolves an image asset id to its decoded raster. ok=false
// means missing or not yet loaded; the item renders as a placeholder and
// keeps its geometry intact.
type AssetSource interface {
	Raster(id string) (image.Image, bool)
}

// Options parameterize one scene render.
type Options struct {
	// Alpha composites the whole scene at the given opacity; zero means
	// fully opaque (the zero value renders normally).
	Alpha float64
	// Scale/OffsetX/OffsetY place the scene inside the frame, e.g. for
	// slide zoom effects. Zero scale means 1.
	Scale   float64
	OffsetX float64
	OffsetY float64
	// Time drives the decoration animations, in seconds.
	Time float64
	// SelectedID draws handle chrome on the matching item.
	SelectedID string
	// CropMode switches the selected image item's chrome to crop handles.
	CropMode bool
}

// RenderScene draws a complete scene onto the context. Text item footprints
// are recomputed from glyph metrics as a side effect, so hit-testing after a
// render observes the same box that was drawn.
func RenderScene(dc *gg.Context, sc *document.Scene, faces *FaceCache, assets AssetSource, opts Options) {
	if opts.Alpha > 0 && opts.Alpha < 1 {
		tmp := gg.NewContext(dc.Width(), dc.Height())
		inner := opts
		inner.Alpha = 0
		RenderScene(tmp, sc, faces, assets, inner)
		Composite(dc.Image().(*image.RGBA), tmp.Image(), 0, 0, opts.Alpha)
		return
	}

	drawBackground(dc, sc.BackgroundGradientID)

	dc.Push()
	dc.Translate(opts.OffsetX, opts.OffsetY)
	if opts.Scale != 0 && opts.Scale != 1 {
		dc.Scale(opts.Scale, opts.Scale)
	}

	for _, idx := range zOrder(sc.Items) {
		it := &sc.Items[idx]
		renderItem(dc, it, faces, assets, opts.Time)
		if it.ID != "" && it.ID == opts.SelectedID {
			drawChrome(dc, it, opts.CropMode && it.Kind == document.ItemImage)
		}
	}
	dc.Pop()
}

// RenderItems draws free-standing items (slide text overlays, slide
// decorations) without a background, in z order.
func RenderItems(dc *gg.Context, items []document.VisualItem, faces *FaceCache, assets AssetSource, timeSeconds float64) {
	for _, idx := range zOrder(items) {
		renderItem(dc, &items[idx], faces, assets, timeSeconds)
	}
}

// zOrder returns item indices sorted by ZIndex ascending; ties keep
// insertion order so stacking is stable.
func zOrder(items []document.VisualItem) []int {
	order := make([]int, len(items))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return items[order[a]].ZIndex < items[order[b]].ZIndex
	})
	return order
}

func drawBackground(dc *gg.Context, gradientID string) {
	top, bottom := GradientStops(gradientID)
	w, h := float64(dc.Width()), float64(dc.Height())

	grad := gg.NewLinearGradient(0, 0, 0, h)
	grad.AddColorStop(0, top)
	grad.AddColorStop(1, bottom)
	dc.SetFillStyle(grad)
	dc.DrawRectangle(0, 0, w, h)
	dc.Fill()
}

func renderItem(dc *gg.Context, it *document.VisualItem, faces *FaceCache, assets AssetSource, timeSeconds float64) {
	// Text footprints follow the measured glyphs, and the measurement must
	// land before the transform is built from the item center.
	if it.Kind == document.ItemText && it.Text != nil {
		measureText(dc, faces, it)
	}

	cx, cy := geometry.Center(it)

	dc.Push()
	dc.Translate(cx, cy)
	dc.Rotate(it.Rotation)
	dc.Scale(it.Scale, it.Scale)
	dc.Translate(-it.Width/2, -it.Height/2)

	switch {
	case it.Kind == document.ItemImage && it.Image != nil:
		drawImageItem(dc, it, assets)
	case it.Kind == document.ItemText && it.Text != nil:
		drawTextItem(dc, it, faces)
	case it.Kind == document.ItemDecoration && it.Decoration != nil:
		decor.Render(dc, it.Decoration.Animation, it.Width, it.Height, timeSeconds)
	}
	dc.Pop()
}

func drawImageItem(dc *gg.Context, it *document.VisualItem, assets AssetSource) {
	props := it.Image
	src, ok := assets.Raster(props.AssetID)
	if !ok {
		// Placeholder panel; the crop geometry stays intact for when the
		// asset is restored.
		dc.SetRGBA(0.16, 0.16, 0.2, 1)
		dc.DrawRectangle(0, 0, it.Width, it.Height)
		dc.Fill()
		dc.SetRGBA(1, 1, 1, 0.25)
		dc.SetLineWidth(2)
		dc.DrawRectangle(1, 1, it.Width-2, it.Height-2)
		dc.Stroke()
		return
	}

	// Drop shadow under the crop box.
	dc.SetRGBA(0, 0, 0, 0.35)
	dc.DrawRectangle(3, 4, it.Width, it.Height)
	dc.Fill()

	// The box is a mask; the content pans and zooms independently inside it.
	dc.DrawRectangle(0, 0, it.Width, it.Height)
	dc.Clip()

	bounds := src.Bounds()
	cs := props.BaseFitScale * props.CropZoom
	cw := float64(bounds.Dx()) * cs
	ch := float64(bounds.Dy()) * cs

	dc.Push()
	dc.Translate((it.Width-cw)/2+props.CropOffsetX, (it.Height-ch)/2+props.CropOffsetY)
	dc.Scale(cs, cs)
	dc.DrawImage(src, 0, 0)
	dc.Pop()

	dc.ResetClip()
}

const lineSpacing = 1.2

// measureText recomputes the item's content box from glyph metrics and line
// count. Downstream hit-testing reads the value written here, not a stale
// snapshot.
func measureText(dc *gg.Context, faces *FaceCache, it *document.VisualItem) {
	tp := it.Text
	dc.SetFontFace(faces.Face(tp.FontFamily, tp.FontSize))

	lines := strings.Split(tp.Text, "\n")
	maxW := 0.0
	for _, line := range lines {
		w, _ := dc.MeasureString(line)
		if w > maxW {
			maxW = w
		}
	}

	it.Width = maxW
	it.Height = tp.FontSize * lineSpacing * float64(len(lines))
}

func drawTextItem(dc *gg.Context, it *document.VisualItem, faces *FaceCache) {
	tp := it.Text
	dc.SetFontFace(faces.Face(tp.FontFamily, tp.FontSize))

	if tp.Background != "" {
		pad := tp.BackgroundPadding
		opacity := tp.BackgroundOpacity
		if opacity <= 0 {
			opacity = 1
		}
		r, g, b := splitHex(tp.Background)
		dc.SetRGBA(r, g, b, opacity)
		dc.DrawRoundedRectangle(-pad, -pad, it.Width+2*pad, it.Height+2*pad, tp.BackgroundRadius)
		dc.Fill()
	}

	lineHeight := tp.FontSize * lineSpacing
	ascent := tp.FontSize * 0.88

	for i, line := range strings.Split(tp.Text, "\n") {
		y := float64(i)*lineHeight + ascent

		// Stroke-then-fill: gg fills glyphs only, so the stroke is built
		// from a ring of offset fills at the stroke width.
		if tp.StrokeWidth > 0 && tp.StrokeColor != "" {
			sr, sg, sb := splitHex(tp.StrokeColor)
			dc.SetRGBA(sr, sg, sb, 1)
			sw := tp.StrokeWidth
			for _, off := range [][2]float64{
				{-sw, 0}, {sw, 0}, {0, -sw}, {0, sw},
				{-sw, -sw}, {sw, -sw}, {-sw, sw}, {sw, sw},
			} {
				dc.DrawString(line, off[0], y+off[1])
			}
		}

		cr, cg, cb := splitHex(tp.Color)
		dc.SetRGBA(cr, cg, cb, 1)
		dc.DrawString(line, 0, y)
	}
}

// drawChrome draws the selection outline and handles in scene space. Handle
// positions and radii come from the geometry package, so what is drawn is
// exactly what hit-tests.
func drawChrome(dc *gg.Context, it *document.VisualItem, cropActive bool) {
	hs := geometry.HandlesFor(it)

	dc.MoveTo(hs.CropTL.X, hs.CropTL.Y)
	dc.LineTo(hs.CropTR.X, hs.CropTR.Y)
	dc.LineTo(hs.CropBR.X, hs.CropBR.Y)
	dc.LineTo(hs.CropBL.X, hs.CropBL.Y)
	dc.ClosePath()

	if cropActive {
		dc.SetRGBA(1, 0.75, 0, 1)
		dc.SetLineWidth(2)
		dc.SetDash(6, 4)
		dc.Stroke()
		dc.SetDash()

		half := geometry.CropHandleSize / 2
		for _, corner := range []geometry.Vec{hs.CropTL, hs.CropTR, hs.CropBL, hs.CropBR} {
			dc.SetRGBA(1, 1, 1, 1)
			dc.DrawRectangle(corner.X-half, corner.Y-half, geometry.CropHandleSize, geometry.CropHandleSize)
			dc.FillPreserve()
			dc.SetRGBA(1, 0.75, 0, 1)
			dc.Stroke()
		}
		return
	}

	dc.SetRGBA(0.3, 0.64, 1, 1)
	dc.SetLineWidth(2)
	dc.Stroke()

	// Resize grip on the bottom-right corner.
	dc.SetRGBA(1, 1, 1, 1)
	dc.DrawCircle(hs.Resize.X, hs.Resize.Y, geometry.HandleRadius)
	dc.FillPreserve()
	dc.SetRGBA(0.3, 0.64, 1, 1)
	dc.Stroke()

	// Rotation grip on a stalk above top-center.
	tcx, tcy := geometry.ToWorld(it, it.Width/2, -geometry.Pad(it))
	dc.DrawLine(tcx, tcy, hs.Rotate.X, hs.Rotate.Y)
	dc.Stroke()
	dc.SetRGBA(1, 1, 1, 1)
	dc.DrawCircle(hs.Rotate.X, hs.Rotate.Y, geometry.HandleRadius)
	dc.FillPreserve()
	dc.SetRGBA(0.3, 0.64, 1, 1)
	dc.Stroke()
}

// Composite draws src over dst offset by (dx, dy) at uniform opacity. The
// timeline uses it to layer slide frames during transitions.
func Composite(dst *image.RGBA, src image.Image, dx, dy int, alpha float64) {
	if alpha <= 0 {
		return
	}
	if alpha > 1 {
		alpha = 1
	}
	mask := image.NewUniform(color.Alpha{A: uint8(alpha*255 + 0.5)})
	r := src.Bounds().Sub(src.Bounds().Min).Add(image.Point{X: dx, Y: dy})
	draw.DrawMask(dst, r, src, src.Bounds().Min, mask, image.Point{}, draw.Over)
}

// splitHex parses #rrggbb into 0..1 channels; malformed input reads as black.
func splitHex(s string) (r, g, b float64) {
	c := parseHex(s).(color.RGBA)
	return float64(c.R) / 255, float64(c.G) / 255, float64(c.B) / 255
}
