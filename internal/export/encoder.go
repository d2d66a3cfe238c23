// Package export encodes rendered frames and the mixed audio into a video
// file through ffmpeg. Frames stream over stdin as raw RGBA so nothing
// touches disk until the encoded output, and the output file appears only
// when encoding finished cleanly.
package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"golang.org/x/sync/errgroup"
)

// ErrUnsupportedFormat marks an export request for a format no encoder
// handles. It fails the single export operation; preview is unaffected.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// Format is an output container choice.
type Format string

const (
	FormatMP4  Format = "mp4"
	FormatWebM Format = "webm"
	FormatGIF  Format = "gif"
)

// Formats lists supported outputs in preference order, most widely
// compatible first.
func Formats() []Format {
	return []Format{FormatMP4, FormatWebM, FormatGIF}
}

// PickFormat resolves a requested format string; empty picks the preferred
// default.
func PickFormat(requested string) (Format, error) {
	if requested == "" {
		return Formats()[0], nil
	}
	for _, f := range Formats() {
		if string(f) == requested {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, requested)
}

// ContentType returns the MIME type for a format.
func (f Format) ContentType() string {
	switch f {
	case FormatMP4:
		return "video/mp4"
	case FormatWebM:
		return "video/webm"
	case FormatGIF:
		return "image/gif"
	}
	return "application/octet-stream"
}

// HasAudio reports whether the container carries an audio stream.
func (f Format) HasAudio() bool {
	return f != FormatGIF
}

// Options configure one encode run.
type Options struct {
	FfmpegPath string
	Width      int
	Height     int
	FPS        int
	Format     Format
	OutPath    string
	// AudioWAV is an optional path to the mixed soundtrack; ignored for
	// formats without audio.
	AudioWAV string
}

// Encode runs ffmpeg and calls produce with an emit function that accepts
// frames in render order. On any failure the output path is left absent.
func Encode(ctx context.Context, opts Options, produce func(emit func(*image.RGBA) error) error) error {
	tmp := opts.OutPath + ".partial"
	defer os.Remove(tmp)

	args := []string{
		"-y",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-s", fmt.Sprintf("%dx%d", opts.Width, opts.Height),
		"-r", strconv.Itoa(opts.FPS),
		"-i", "-",
	}
	withAudio := opts.Format.HasAudio() && opts.AudioWAV != ""
	if withAudio {
		args = append(args, "-i", opts.AudioWAV)
	}
	args = append(args, codecArgs(opts.Format, withAudio)...)
	args = append(args, "-f", string(containerFor(opts.Format)), tmp)

	cmd := exec.CommandContext(ctx, opts.FfmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("ffmpeg stdin: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start ffmpeg: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer stdin.Close()
		return produce(func(frame *image.RGBA) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return writeRGBA(stdin, frame, opts.Width, opts.Height)
		})
	})
	g.Go(func() error {
		if err := cmd.Wait(); err != nil {
			return fmt.Errorf("ffmpeg: %v: %s", err, stderr.String())
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	if err := os.Rename(tmp, opts.OutPath); err != nil {
		return fmt.Errorf("finalize output: %w", err)
	}
	return nil
}

func codecArgs(f Format, withAudio bool) []string {
	switch f {
	case FormatMP4:
		args := []string{
			"-c:v", "libx264",
			"-pix_fmt", "yuv420p",
			"-crf", "18",
			"-preset", "fast",
			"-movflags", "+faststart",
		}
		if withAudio {
			args = append(args, "-c:a", "aac", "-b:a", "192k", "-shortest")
		}
		return args
	case FormatWebM:
		args := []string{
			"-c:v", "libvpx-vp9",
			"-crf", "30",
			"-b:v", "0",
			"-pix_fmt", "yuv420p",
		}
		if withAudio {
			args = append(args, "-c:a", "libopus", "-shortest")
		}
		return args
	case FormatGIF:
		// Single pass: palette generation and use in one filter graph.
		return []string{
			"-filter_complex", "split[a][b];[a]palettegen=stats_mode=diff[p];[b][p]paletteuse=dither=bayer:bayer_scale=5:diff_mode=rectangle",
		}
	}
	return nil
}

// containerFor maps a format to ffmpeg's muxer name; the temp file's
// .partial suffix defeats extension sniffing, so the muxer is explicit.
func containerFor(f Format) string {
	if f == FormatGIF {
		return "gif"
	}
	if f == FormatWebM {
		return "webm"
	}
	return "mp4"
}

// writeRGBA streams one frame's pixels row by row, tolerating padded
// strides.
func writeRGBA(w io.Writer, frame *image.RGBA, width, height int) error {
	b := frame.Bounds()
	if b.Dx() != width || b.Dy() != height {
		return fmt.Errorf("frame %dx%d does not match encoder %dx%d", b.Dx(), b.Dy(), width, height)
	}
	rowLen := width * 4
	if frame.Stride == rowLen {
		_, err := w.Write(frame.Pix)
		return err
	}
	for y := 0; y < height; y++ {
		row := frame.Pix[y*frame.Stride : y*frame.Stride+rowLen]
		if _, err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// TempOutPath builds a per-export output path inside dir.
func TempOutPath(dir, name string, f Format) string {
	return filepath.Join(dir, name+"."+string(f))
}
