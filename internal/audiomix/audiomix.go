// Package audiomix builds the slideshow's audio as data first: a schedule of
// music clips with crossfades, ducking windows under clip audio, and a
// master fade-out. Realizing the schedule into PCM is a separate step, so
// the placement math is testable without an audio backend.
package audiomix

import (
	"math"

	"github.com/snapreel/snapreel/backend-go/internal/document"
)

// Output PCM format: interleaved stereo signed 16-bit.
const (
	SampleRate = 48000
	Channels   = 2
)

const (
	// DuckGain is the music level held under an audible clip.
	DuckGain = 0.2
	// DuckRampSeconds is the ramp into and out of a ducking window.
	DuckRampSeconds = 0.3
	// MasterFadeSeconds is the fade-out over the end of the show.
	MasterFadeSeconds = 2.0
	// CrossfadeSeconds caps the overlap between consecutive music tracks.
	CrossfadeSeconds = 0.5

	// maxClips bounds looped scheduling against zero-length tracks.
	maxClips = 512
)

// Clip is one placement of a music track on the output clock.
type Clip struct {
	AssetID  string
	Start    float64
	Duration float64
	FadeIn   float64
	FadeOut  float64
}

// Window is a half-open time range [Start, End) on the output clock.
type Window struct {
	Start float64
	End   float64
}

// Schedule is the complete declarative audio plan for one export or preview.
// Clips are the music bed and ride the MusicGainAt envelope; Originals are
// the video slides' own audio, placed at unity gain over their slide.
type Schedule struct {
	Clips     []Clip
	Originals []Clip
	Ducking   []Window
	Total     float64
}

// Build lays the project's music end-to-end across the timeline's total
// duration, looping the list when it runs short. Every video slide that
// keeps its original audio contributes both a ducking window over the music
// and an Originals placement of its own decoded audio.
func Build(p *document.Project) Schedule {
	total := p.TotalDuration()
	s := Schedule{Total: total}

	s.Clips = layTracks(p.Music, total)

	at := 0.0
	for i := range p.Timeline.Slides {
		slide := &p.Timeline.Slides[i]
		dur := p.SlideDuration(slide)
		if slide.Kind == document.SlideVideo && slide.KeepOriginalAudio {
			s.Ducking = append(s.Ducking, Window{Start: at, End: at + dur})
			s.Originals = append(s.Originals, Clip{
				AssetID:  slide.AssetID,
				Start:    at,
				Duration: dur,
			})
		}
		at += dur
	}
	return s
}

// layTracks places tracks sequentially with a linear crossfade at each
// boundary: 0.5s, or a third of the shorter neighbor if that is less.
func layTracks(tracks []document.AudioTrackRef, total float64) []Clip {
	usable := tracks[:0:0]
	for _, tr := range tracks {
		if tr.DurationSeconds > 0 {
			usable = append(usable, tr)
		}
	}
	if len(usable) == 0 || total <= 0 {
		return nil
	}

	var clips []Clip
	at := 0.0
	for i := 0; at < total && len(clips) < maxClips; i++ {
		tr := usable[i%len(usable)]
		clip := Clip{AssetID: tr.AssetID, Start: at, Duration: tr.DurationSeconds}

		if len(clips) > 0 {
			prev := &clips[len(clips)-1]
			cf := crossfade(prev.Duration, clip.Duration)
			clip.Start = prev.Start + prev.Duration - cf
			clip.FadeIn = cf
			prev.FadeOut = cf
			at = clip.Start
		}

		clips = append(clips, clip)
		at += clip.Duration
	}
	return clips
}

func crossfade(a, b float64) float64 {
	cf := math.Min(a, b) / 3
	return math.Min(CrossfadeSeconds, cf)
}

// ClipGainAt is the clip's own fade envelope at output time t; zero outside
// the clip's extent.
func (c Clip) ClipGainAt(t float64) float64 {
	local := t - c.Start
	if local < 0 || local > c.Duration {
		return 0
	}
	g := 1.0
	if c.FadeIn > 0 && local < c.FadeIn {
		g = local / c.FadeIn
	}
	if c.FadeOut > 0 && local > c.Duration-c.FadeOut {
		g = math.Min(g, (c.Duration-local)/c.FadeOut)
	}
	return g
}

// DuckGainAt is the ducking envelope alone: 1.0 outside every window, 0.2
// held inside, with 0.3s linear ramps at each edge.
func (s Schedule) DuckGainAt(t float64) float64 {
	gain := 1.0
	for _, w := range s.Ducking {
		if t < w.Start || t > w.End {
			continue
		}
		g := DuckGain
		if t < w.Start+DuckRampSeconds {
			g = 1 + (DuckGain-1)*(t-w.Start)/DuckRampSeconds
		} else if t > w.End-DuckRampSeconds {
			g = 1 + (DuckGain-1)*(w.End-t)/DuckRampSeconds
		}
		gain = math.Min(gain, g)
	}
	return gain
}

// MusicGainAt is the full music gain at output time t: ducking plus the
// master fade-out over the final two seconds.
func (s Schedule) MusicGainAt(t float64) float64 {
	gain := s.DuckGainAt(t)
	if fadeStart := s.Total - MasterFadeSeconds; t > fadeStart {
		gain *= math.Max(0, (s.Total-t)/MasterFadeSeconds)
	}
	return gain
}

// PCMSource resolves an asset id to decoded PCM in the output format.
type PCMSource interface {
	PCM(assetID string) ([]int16, bool)
}

// Realize mixes the schedule into an interleaved stereo buffer covering the
// full duration: the music bed under its gain envelope, then the original
// clip audio on top at unity. Missing tracks are skipped silently; the sum
// of overlapping sources clips at the int16 range instead of wrapping.
func (s Schedule) Realize(src PCMSource) []int16 {
	frames := int(math.Ceil(s.Total * SampleRate))
	out := make([]int16, frames*Channels)

	for _, clip := range s.Clips {
		if pcm, ok := src.PCM(clip.AssetID); ok {
			mixClip(out, frames, pcm, clip, s.MusicGainAt)
		}
	}
	for _, clip := range s.Originals {
		if pcm, ok := src.PCM(clip.AssetID); ok {
			mixClip(out, frames, pcm, clip, nil)
		}
	}
	return out
}

// mixClip adds one clip into out. env, when non-nil, is an extra gain
// envelope on the output clock on top of the clip's own fades.
func mixClip(out []int16, frames int, pcm []int16, clip Clip, env func(float64) float64) {
	startFrame := int(clip.Start * SampleRate)
	clipFrames := len(pcm) / Channels

	for f := 0; f < clipFrames; f++ {
		frame := startFrame + f
		if frame < 0 {
			continue
		}
		if frame >= frames {
			break
		}
		t := float64(frame) / SampleRate
		gain := clip.ClipGainAt(t)
		if env != nil {
			gain *= env(t)
		}
		if gain <= 0 {
			continue
		}
		for ch := 0; ch < Channels; ch++ {
			i := frame*Channels + ch
			mixed := int32(out[i]) + int32(float64(pcm[f*Channels+ch])*gain)
			if mixed > math.MaxInt16 {
				mixed = math.MaxInt16
			}
			if mixed < math.MinInt16 {
				mixed = math.MinInt16
			}
			out[i] = int16(mixed)
		}
	}
}
