// Package decor draws the procedural animated sticker overlays. Every effect
// is a pure function of (width, height, timeSeconds) so live preview and
// offline export produce identical pixels for the same clock value; the one
// exception is the tape strip's cosmetic edge jitter. Effects animate
// indefinitely — there is no elapsed-duration cutoff.
package decor

import (
	"math"
	"math/rand"

	"github.com/fogleman/gg"

	"github.com/snapreel/snapreel/backend-go/internal/document"
)

// Render draws one decoration effect into a w×h local box on the given
// context. The caller has already applied the item transform. Unknown kinds
// draw nothing.
func Render(dc *gg.Context, kind document.Animation, w, h, t float64) {
	switch kind {
	case document.AnimRecordingFrame:
		recordingFrame(dc, w, h, t)
	case document.AnimCircleHighlight:
		circleHighlight(dc, w, h, t)
	case document.AnimLocationPin:
		locationPin(dc, w, h, t)
	case document.AnimTapeStrip:
		tapeStrip(dc, w, h)
	case document.AnimBulbLine:
		bulbLine(dc, w, h, t)
	case document.AnimHeartLine:
		heartLine(dc, w, h, t)
	}
}

// Deterministic reports whether repeat renders of a kind at the same time
// value are pixel-identical. Only the tape strip jitters.
func Deterministic(kind document.Animation) bool {
	return kind != document.AnimTapeStrip
}

// recordingFrame draws four corner brackets and a blinking REC dot. The dot
// toggles with a 0.5s on/off period keyed to floor(t*2)%2.
func recordingFrame(dc *gg.Context, w, h, t float64) {
	arm := math.Min(w, h) * 0.2

	dc.SetRGB(1, 0.23, 0.23)
	dc.SetLineWidth(4)
	dc.SetLineCap(gg.LineCapRound)

	corners := [][4]float64{
		{0, 0, 1, 1},
		{w, 0, -1, 1},
		{w, h, -1, -1},
		{0, h, 1, -1},
	}
	for _, c := range corners {
		x, y, dx, dy := c[0], c[1], c[2], c[3]
		dc.MoveTo(x+dx*arm, y)
		dc.LineTo(x, y)
		dc.LineTo(x, y+dy*arm)
		dc.Stroke()
	}

	if int(math.Floor(t*2))%2 == 0 {
		r := math.Min(w, h) * 0.06
		dc.DrawCircle(w-arm*0.6, arm*0.6, r)
		dc.Fill()
	}
}

// circleHighlight draws an inscribed ellipse that sketches itself on over a
// fixed 1-second window, with a second offset stroke for a hand-drawn look.
func circleHighlight(dc *gg.Context, w, h, t float64) {
	progress := math.Min(1, t)
	if progress <= 0 {
		return
	}

	cx, cy := w/2, h/2
	rx, ry := w/2-4, h/2-4
	if rx <= 0 || ry <= 0 {
		return
	}

	start := -math.Pi / 2
	sweep := 2 * math.Pi * progress

	dc.SetRGBA(1, 0.42, 0.21, 0.95)
	dc.SetLineWidth(3.5)
	dc.SetLineCap(gg.LineCapRound)
	dc.NewSubPath()
	dc.DrawEllipticalArc(cx, cy, rx, ry, start, start+sweep)
	dc.Stroke()

	// Static second pass, slightly shrunk and tilted, once fully drawn.
	if progress >= 1 {
		dc.SetLineWidth(2)
		dc.NewSubPath()
		dc.DrawEllipticalArc(cx+2, cy+1, rx*0.96, ry*0.94, start+0.3, start+0.3+2*math.Pi)
		dc.Stroke()
	}
}

// locationPin bobs vertically with amplitude 5 at 5 rad/s while a squashed
// shadow beneath grows with the bob magnitude.
func locationPin(dc *gg.Context, w, h, t float64) {
	bob := math.Sin(t*5) * 5
	cx := w / 2
	r := math.Min(w, h) * 0.28
	headY := h*0.32 + bob
	tipY := h*0.82 + bob

	// Shadow: widest when the pin is at the top of its bob.
	lift := (5 - bob) / 10
	dc.SetRGBA(0, 0, 0, 0.25)
	dc.DrawEllipse(cx, h*0.88, r*(0.6+0.4*lift), r*0.22*(0.6+0.4*lift))
	dc.Fill()

	dc.SetRGB(0.91, 0.27, 0.27)
	dc.MoveTo(cx, tipY)
	dc.QuadraticTo(cx-r*1.1, headY+r*0.9, cx-r, headY)
	dc.DrawEllipticalArc(cx, headY, r, r, math.Pi, 2*math.Pi)
	dc.QuadraticTo(cx+r*1.1, headY+r*0.9, cx, tipY)
	dc.ClosePath()
	dc.Fill()

	dc.SetRGB(1, 1, 1)
	dc.DrawCircle(cx, headY, r*0.42)
	dc.Fill()
}

// tapeStrip draws a semi-transparent jagged-edged strip with a 10px grid
// clipped to the jagged silhouette. Edge jitter is intentionally random per
// call; it never feeds hit-testing or layout.
func tapeStrip(dc *gg.Context, w, h float64) {
	teeth := int(math.Max(3, h/8))
	step := h / float64(teeth)
	notch := math.Min(6, w*0.08)

	jitter := func() float64 { return (rand.Float64() - 0.5) * notch * 0.6 }

	dc.MoveTo(notch, 0)
	dc.LineTo(w-notch, 0)
	for i := 0; i < teeth; i++ {
		y := float64(i)*step + step/2
		dc.LineTo(w-notch+jitter()+notch*mod2(i), y)
	}
	dc.LineTo(w-notch, h)
	dc.LineTo(notch, h)
	for i := teeth - 1; i >= 0; i-- {
		y := float64(i)*step + step/2
		dc.LineTo(notch+jitter()-notch*mod2(i), y)
	}
	dc.ClosePath()

	dc.SetRGBA(0.98, 0.93, 0.76, 0.55)
	dc.FillPreserve()
	dc.Clip()

	dc.SetRGBA(0.62, 0.56, 0.4, 0.35)
	dc.SetLineWidth(1)
	for x := 0.0; x <= w; x += 10 {
		dc.DrawLine(x, 0, x, h)
		dc.Stroke()
	}
	for y := 0.0; y <= h; y += 10 {
		dc.DrawLine(0, y, w, y)
		dc.Stroke()
	}
	dc.ResetClip()
}

// bulbLine draws a bulb outline whose brightness flickers as
// 0.8+sin(t*20)*0.2, with three radiating ticks visible while sin(t*5)>0.
func bulbLine(dc *gg.Context, w, h, t float64) {
	brightness := 0.8 + math.Sin(t*20)*0.2
	cx := w / 2
	r := math.Min(w, h) * 0.3
	bulbY := h * 0.38

	dc.SetRGBA(1, 0.85, 0.3, brightness)
	dc.SetLineWidth(3)
	dc.SetLineCap(gg.LineCapRound)

	// Glass.
	dc.NewSubPath()
	dc.DrawEllipticalArc(cx, bulbY, r, r, math.Pi*0.75, math.Pi*2.25)
	dc.Stroke()
	// Neck down to the base.
	dc.MoveTo(cx-r*0.7, bulbY+r*0.7)
	dc.LineTo(cx-r*0.35, bulbY+r*1.6)
	dc.LineTo(cx+r*0.35, bulbY+r*1.6)
	dc.LineTo(cx+r*0.7, bulbY+r*0.7)
	dc.Stroke()
	// Base threads.
	for i := 0; i < 2; i++ {
		y := bulbY + r*1.75 + float64(i)*5
		dc.DrawLine(cx-r*0.3, y, cx+r*0.3, y)
		dc.Stroke()
	}

	if math.Sin(t*5) > 0 {
		for _, a := range []float64{-math.Pi / 2, -math.Pi/2 - 0.6, -math.Pi/2 + 0.6} {
			sin, cos := math.Sincos(a)
			dc.DrawLine(cx+cos*r*1.25, bulbY+sin*r*1.25, cx+cos*r*1.7, bulbY+sin*r*1.7)
			dc.Stroke()
		}
	}
}

// heartLine draws a heart outline pulsing at scale 1+sin(t*8)*0.05 about the
// box center.
func heartLine(dc *gg.Context, w, h, t float64) {
	pulse := 1 + math.Sin(t*8)*0.05
	cx, cy := w/2, h/2

	dc.Push()
	dc.ScaleAbout(pulse, pulse, cx, cy)

	hw, hh := w*0.42, h*0.42
	topY := cy - hh*0.35

	dc.MoveTo(cx, cy+hh)
	dc.CubicTo(cx-hw*1.3, cy+hh*0.2, cx-hw*0.9, topY-hh*0.6, cx, topY)
	dc.CubicTo(cx+hw*0.9, topY-hh*0.6, cx+hw*1.3, cy+hh*0.2, cx, cy+hh)
	dc.ClosePath()

	dc.SetRGBA(0.95, 0.3, 0.45, 0.95)
	dc.SetLineWidth(3.5)
	dc.SetLineCap(gg.LineCapRound)
	dc.Stroke()
	dc.Pop()
}

func mod2(i int) float64 {
	if i%2 == 0 {
		return 1
	}
	return -1
}
