// Package timeline maps the global playback clock onto slides and renders
// the frame for any clock value: slide content, pan/zoom effects, and the
// transition window that layers two adjacent slides. Collage slides recurse
// into the scene compositor with the outer slide's clock so embedded
// decorations stay animated during export.
package timeline

import (
	"image"
	"math"

	"github.com/fogleman/gg"

	"github.com/snapreel/snapreel/backend-go/internal/compositor"
	"github.com/snapreel/snapreel/backend-go/internal/document"
)

// SeekDriftSeconds is how far a video's decoded position may lag the clock
// before the renderer issues a seek. Seeking on every frame thrashes the
// decoder.
const SeekDriftSeconds = 0.3

// Position is the result of locating a clock value on the timeline.
type Position struct {
	Index     int
	LocalTime float64
	Duration  float64
	NextIndex int

	// InTransition is true once LocalTime has entered the slide's outgoing
	// transition window; Progress is 0..1 across that window.
	InTransition bool
	Progress     float64
}

// Locate maps a global clock value onto a slide index and local offset.
// Values past the end clamp to the final instant of the last slide; looping
// is the playback driver's job, not Locate's. An empty timeline returns
// Index -1.
func Locate(p *document.Project, t float64) Position {
	slides := p.Timeline.Slides
	if len(slides) == 0 {
		return Position{Index: -1}
	}
	if t < 0 {
		t = 0
	}

	acc := 0.0
	for i := range slides {
		dur := p.SlideDuration(&slides[i])
		last := i == len(slides)-1
		if t < acc+dur || last {
			local := t - acc
			if local > dur {
				local = dur
			}

			pos := Position{
				Index:     i,
				LocalTime: local,
				Duration:  dur,
				NextIndex: (i + 1) % len(slides),
			}

			window := math.Min(p.FadeSeconds, dur)
			if len(slides) > 1 && window > 0 {
				start := dur - window
				if local >= start {
					pos.InTransition = true
					pos.Progress = math.Min(1, math.Max(0, (local-start)/window))
				}
			}
			return pos
		}
		acc += dur
	}
	return Position{Index: -1}
}

// VideoAudible reports whether a slide's original clip audio should be heard:
// only the active slide, only outside a drag edit, and only when the user
// opted to keep the clip's audio.
func VideoAudible(s *document.Slide, active, editing bool) bool {
	return s.Kind == document.SlideVideo && s.KeepOriginalAudio && active && !editing
}

// VideoHandle is a decoded video exposing its current frame and a seekable
// position, per the asset layer's contract.
type VideoHandle interface {
	Frame() (image.Image, bool)
	Position() float64
	Seek(seconds float64)
}

// AssetSource extends the compositor's raster lookup with video handles.
type AssetSource interface {
	compositor.AssetSource
	Video(id string) (VideoHandle, bool)
}

// Renderer produces composited frames at the project's canvas size. It holds
// no per-frame state; the same renderer serves live preview and export.
type Renderer struct {
	width  int
	height int
	faces  *compositor.FaceCache
	assets AssetSource
}

func NewRenderer(width, height int, faces *compositor.FaceCache, assets AssetSource) *Renderer {
	return &Renderer{width: width, height: height, faces: faces, assets: assets}
}

// RenderFrame draws the frame for clock value t onto dc, which must match the
// renderer's dimensions.
func (r *Renderer) RenderFrame(dc *gg.Context, p *document.Project, t float64) {
	pos := Locate(p, t)
	if pos.Index < 0 {
		dc.SetRGB(0, 0, 0)
		dc.Clear()
		return
	}

	if !pos.InTransition {
		r.renderSlide(dc, p, pos.Index, pos.LocalTime)
		return
	}

	out := gg.NewContext(r.width, r.height)
	r.renderSlide(out, p, pos.Index, pos.LocalTime)
	in := gg.NewContext(r.width, r.height)
	r.renderSlide(in, p, pos.NextIndex, 0)

	dst := dc.Image().(*image.RGBA)
	pW, pH := pos.Progress*float64(r.width), pos.Progress*float64(r.height)

	switch p.Timeline.Slides[pos.Index].Transition {
	case document.TransitionSlideLeft:
		compositor.Composite(dst, out.Image(), -int(pW), 0, 1)
		compositor.Composite(dst, in.Image(), r.width-int(pW), 0, 1)
	case document.TransitionSlideRight:
		compositor.Composite(dst, out.Image(), int(pW), 0, 1)
		compositor.Composite(dst, in.Image(), int(pW)-r.width, 0, 1)
	case document.TransitionSlideUp:
		compositor.Composite(dst, out.Image(), 0, -int(pH), 1)
		compositor.Composite(dst, in.Image(), 0, r.height-int(pH), 1)
	case document.TransitionSlideDown:
		compositor.Composite(dst, out.Image(), 0, int(pH), 1)
		compositor.Composite(dst, in.Image(), 0, int(pH)-r.height, 1)
	default:
		// Fade and both zoom kinds cross-dissolve: outgoing opaque,
		// incoming layered on top at the transition progress.
		compositor.Composite(dst, out.Image(), 0, 0, 1)
		compositor.Composite(dst, in.Image(), 0, 0, pos.Progress)
	}
}

// zoomFor computes the slow pan/zoom factor applied across a slide's whole
// duration, keyed to its transition kind.
func zoomFor(kind document.TransitionKind, progress float64) float64 {
	switch kind {
	case document.TransitionZoomIn:
		return 1.0 + 0.15*progress
	case document.TransitionZoomOut:
		return 1.15 - 0.15*progress
	default:
		return 1.0
	}
}

func (r *Renderer) renderSlide(dc *gg.Context, p *document.Project, idx int, local float64) {
	slide := &p.Timeline.Slides[idx]
	dur := p.SlideDuration(slide)
	progress := math.Min(1, math.Max(0, local/dur))
	zoom := zoomFor(slide.Transition, progress)

	switch {
	case slide.Kind == document.SlideCollage && slide.Scene != nil:
		w, h := float64(r.width), float64(r.height)
		compositor.RenderScene(dc, slide.Scene, r.faces, r.assets, compositor.Options{
			Time:    local,
			Scale:   zoom,
			OffsetX: (1 - zoom) * w / 2,
			OffsetY: (1 - zoom) * h / 2,
		})
	case slide.Kind == document.SlideImage:
		if src, ok := r.assets.Raster(slide.AssetID); ok {
			r.drawCover(dc, src, zoom)
		} else {
			r.drawPlaceholder(dc, slide.Filename)
		}
	case slide.Kind == document.SlideVideo:
		r.drawVideo(dc, slide, local, zoom)
	default:
		r.drawPlaceholder(dc, slide.Filename)
	}

	if slide.TextOverlay != nil || len(slide.Decorations) > 0 {
		overlays := make([]document.VisualItem, 0, len(slide.Decorations)+1)
		if slide.TextOverlay != nil {
			overlays = append(overlays, *slide.TextOverlay)
		}
		overlays = append(overlays, slide.Decorations...)
		compositor.RenderItems(dc, overlays, r.faces, r.assets, local)
	}
}

func (r *Renderer) drawVideo(dc *gg.Context, slide *document.Slide, local, zoom float64) {
	vh, ok := r.assets.Video(slide.AssetID)
	if !ok {
		r.drawPlaceholder(dc, slide.Filename)
		return
	}
	if math.Abs(vh.Position()-local) > SeekDriftSeconds {
		vh.Seek(local)
	}
	frame, ok := vh.Frame()
	if !ok {
		r.drawPlaceholder(dc, slide.Filename)
		return
	}
	r.drawCover(dc, frame, zoom)
}

// drawCover letterbox-fills the frame: the source is scaled to cover the full
// frame, centered, then the slide's pan/zoom factor applies on top.
func (r *Renderer) drawCover(dc *gg.Context, src image.Image, zoom float64) {
	dc.SetRGB(0, 0, 0)
	dc.Clear()

	b := src.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return
	}
	fw, fh := float64(r.width), float64(r.height)
	cover := math.Max(fw/float64(b.Dx()), fh/float64(b.Dy())) * zoom

	dc.Push()
	dc.Translate(fw/2, fh/2)
	dc.Scale(cover, cover)
	dc.DrawImageAnchored(src, 0, 0, 0.5, 0.5)
	dc.Pop()
}

// drawPlaceholder stands in for missing or still-loading slide content. The
// slide keeps its duration and transitions so the show's timing is unchanged.
func (r *Renderer) drawPlaceholder(dc *gg.Context, filename string) {
	fw, fh := float64(r.width), float64(r.height)

	dc.SetRGB(0.13, 0.13, 0.16)
	dc.Clear()
	dc.SetRGBA(1, 1, 1, 0.2)
	dc.SetLineWidth(2)
	dc.DrawRectangle(fw*0.1, fh*0.15, fw*0.8, fh*0.7)
	dc.Stroke()

	msg := "Missing media"
	if filename != "" {
		msg = "Missing: " + filename
	}
	dc.SetFontFace(r.faces.Face("", fh/24))
	dc.SetRGBA(1, 1, 1, 0.7)
	dc.DrawStringAnchored(msg, fw/2, fh/2, 0.5, 0.5)
}
