package assets

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// Video is a seekable frame source backed by ffmpeg. Frames are extracted
// on demand at the current position and cached until the next seek, which
// matches how the timeline consumes video: many reads, occasional seeks.
type Video struct {
	ffmpeg string
	path   string

	Width    int
	Height   int
	Duration float64

	mu    sync.Mutex
	pos   float64
	frame image.Image
	dirty bool
}

// OpenVideo probes a video file for its intrinsic dimensions and duration.
// No frames are decoded until the first Frame call.
func OpenVideo(ffmpegPath, path string) (*Video, error) {
	out, err := exec.Command(probePath(ffmpegPath),
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1",
		path,
	).Output()
	if err != nil {
		return nil, fmt.Errorf("probe %s: %w", path, err)
	}

	v := &Video{ffmpeg: ffmpegPath, path: path, dirty: true}
	for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		key, value, ok := strings.Cut(strings.TrimSpace(line), "=")
		if !ok {
			continue
		}
		switch key {
		case "width":
			v.Width, _ = strconv.Atoi(value)
		case "height":
			v.Height, _ = strconv.Atoi(value)
		case "duration":
			v.Duration, _ = strconv.ParseFloat(value, 64)
		}
	}
	if v.Width == 0 || v.Height == 0 {
		return nil, fmt.Errorf("probe %s: no video stream", path)
	}
	return v, nil
}

// probePath locates ffprobe next to the configured ffmpeg binary.
func probePath(ffmpegPath string) string {
	dir := filepath.Dir(ffmpegPath)
	if dir == "." {
		return "ffprobe"
	}
	return filepath.Join(dir, "ffprobe")
}

// Position returns the current decode position in seconds.
func (v *Video) Position() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.pos
}

// Seek moves the decode position; the next Frame call extracts fresh.
func (v *Video) Seek(seconds float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if seconds < 0 {
		seconds = 0
	}
	if v.Duration > 0 && seconds > v.Duration {
		seconds = v.Duration
	}
	v.pos = seconds
	v.dirty = true
}

// Frame returns the frame at the current position, extracting it if the
// position changed since the last call. A failed extraction reports not-ok
// so the caller draws a placeholder instead of aborting.
func (v *Video) Frame() (image.Image, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.dirty && v.frame != nil {
		return v.frame, true
	}

	out, err := exec.Command(v.ffmpeg,
		"-v", "error",
		"-ss", strconv.FormatFloat(v.pos, 'f', 3, 64),
		"-i", v.path,
		"-frames:v", "1",
		"-f", "image2pipe",
		"-vcodec", "png",
		"-",
	).Output()
	if err != nil {
		return nil, false
	}
	img, _, err := image.Decode(bytes.NewReader(out))
	if err != nil {
		return nil, false
	}
	v.frame = img
	v.dirty = false
	return v.frame, true
}

// decodePCM converts any audio file to the mixer's interleaved stereo
// 48kHz s16 format via ffmpeg.
func decodePCM(ffmpegPath, path string) ([]int16, error) {
	out, err := exec.Command(ffmpegPath,
		"-v", "error",
		"-i", path,
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-ar", "48000",
		"-ac", "2",
		"-",
	).Output()
	if err != nil {
		return nil, fmt.Errorf("decode audio %s: %w", path, err)
	}

	samples := make([]int16, len(out)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(out[i*2:]))
	}
	return samples, nil
}
