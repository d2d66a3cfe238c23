// Package assets owns decoded media: rasters for the compositor, seekable
// video handles for the timeline, and PCM buffers for the audio mix. Loads
// run asynchronously; the render loop never blocks on a decode, it draws a
// placeholder until the asset flips to ready.
package assets

import (
	"bytes"
	"fmt"
	"image"
	"log/slog"
	"os"
	"sync"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/sync/errgroup"
)

// State tracks one asset's load lifecycle.
type State int

const (
	StateLoading State = iota
	StateReady
	StateMissing
)

type entry struct {
	state  State
	gen    uint64
	raster image.Image
	video  *Video
	pcm    []int16
}

// Library is the in-memory asset table for one engine. Every mutation is
// generation-counted: reloading an id invalidates any decode still in
// flight for it, so a slow stale load can never clobber newer content.
type Library struct {
	ffmpeg string
	log    *slog.Logger

	mu      sync.Mutex
	entries map[string]*entry
	group   errgroup.Group
}

func NewLibrary(ffmpegPath string, log *slog.Logger) *Library {
	return &Library{
		ffmpeg:  ffmpegPath,
		log:     log,
		entries: make(map[string]*entry),
	}
}

// begin registers a fresh generation for id and returns it. The previous
// entry, loading or ready, is superseded immediately.
func (l *Library) begin(id string) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	e := l.entries[id]
	if e == nil {
		e = &entry{}
		l.entries[id] = e
	}
	e.gen++
	e.state = StateLoading
	e.raster = nil
	e.video = nil
	e.pcm = nil
	return e.gen
}

// commit applies a finished load only if no newer generation started since.
func (l *Library) commit(id string, gen uint64, apply func(*entry)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e := l.entries[id]
	if e == nil || e.gen != gen {
		l.log.Debug("stale asset load discarded", "asset", id)
		return
	}
	apply(e)
}

// LoadRaster decodes an image file in the background.
func (l *Library) LoadRaster(id, path string) {
	gen := l.begin(id)
	l.group.Go(func() error {
		data, err := os.ReadFile(path)
		if err != nil {
			l.markMissing(id, gen, err)
			return nil
		}
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			l.markMissing(id, gen, err)
			return nil
		}
		l.commit(id, gen, func(e *entry) {
			e.state = StateReady
			e.raster = img
		})
		return nil
	})
}

// LoadVideo probes a video file in the background and exposes it as a
// seekable frame source. The file's own audio is decoded in the same pass
// so the export mix can place it; a clip without an audio stream just
// leaves the buffer empty.
func (l *Library) LoadVideo(id, path string) {
	gen := l.begin(id)
	l.group.Go(func() error {
		v, err := OpenVideo(l.ffmpeg, path)
		if err != nil {
			l.markMissing(id, gen, err)
			return nil
		}
		pcm, err := decodePCM(l.ffmpeg, path)
		if err != nil {
			l.log.Warn("video has no usable audio", "asset", id, "error", err)
			pcm = nil
		}
		l.commit(id, gen, func(e *entry) {
			e.state = StateReady
			e.video = v
			e.pcm = pcm
		})
		return nil
	})
}

// LoadPCM decodes an audio file to the mixer's PCM format in the background.
func (l *Library) LoadPCM(id, path string) {
	gen := l.begin(id)
	l.group.Go(func() error {
		pcm, err := decodePCM(l.ffmpeg, path)
		if err != nil {
			l.markMissing(id, gen, err)
			return nil
		}
		l.commit(id, gen, func(e *entry) {
			e.state = StateReady
			e.pcm = pcm
		})
		return nil
	})
}

// Put installs an already-decoded raster synchronously. Tests and the
// sample project use it; uploads go through the Load functions.
func (l *Library) Put(id string, img image.Image) {
	gen := l.begin(id)
	l.commit(id, gen, func(e *entry) {
		e.state = StateReady
		e.raster = img
	})
}

func (l *Library) markMissing(id string, gen uint64, err error) {
	l.log.Warn("asset unavailable", "asset", id, "error", err)
	l.commit(id, gen, func(e *entry) { e.state = StateMissing })
}

// Wait blocks until every load issued so far has settled. Export joins here
// before the first frame so it never encodes placeholders for assets that
// were merely slow.
func (l *Library) Wait() {
	_ = l.group.Wait()
}

// Raster returns the decoded image for id if it is ready.
func (l *Library) Raster(id string) (image.Image, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e := l.entries[id]
	if e == nil || e.state != StateReady || e.raster == nil {
		return nil, false
	}
	return e.raster, true
}

// VideoAsset returns the seekable video for id if it is ready.
func (l *Library) VideoAsset(id string) (*Video, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e := l.entries[id]
	if e == nil || e.state != StateReady || e.video == nil {
		return nil, false
	}
	return e.video, true
}

// PCM returns the decoded audio buffer for id if it is ready.
func (l *Library) PCM(id string) ([]int16, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e := l.entries[id]
	if e == nil || e.state != StateReady || e.pcm == nil {
		return nil, false
	}
	return e.pcm, true
}

// State reports an asset's lifecycle state; unknown ids are missing.
func (l *Library) State(id string) State {
	l.mu.Lock()
	defer l.mu.Unlock()
	if e := l.entries[id]; e != nil {
		return e.state
	}
	return StateMissing
}

// MissingIDs lists assets that failed to load, for re-upload prompts.
func (l *Library) MissingIDs() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var ids []string
	for id, e := range l.entries {
		if e.state == StateMissing {
			ids = append(ids, id)
		}
	}
	return ids
}

// Dimensions returns the intrinsic size of a ready raster or video.
func (l *Library) Dimensions(id string) (w, h int, err error) {
	if img, ok := l.Raster(id); ok {
		b := img.Bounds()
		return b.Dx(), b.Dy(), nil
	}
	if v, ok := l.VideoAsset(id); ok {
		return v.Width, v.Height, nil
	}
	return 0, 0, fmt.Errorf("asset %s: no decoded dimensions", id)
}
