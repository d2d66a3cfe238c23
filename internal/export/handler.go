package export

import (
	"encoding/json"
	"fmt"
	"image"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/snapreel/snapreel/backend-go/internal/assets"
	"github.com/snapreel/snapreel/backend-go/internal/audiomix"
	"github.com/snapreel/snapreel/backend-go/internal/engine"
)

const maxSnapshotSize = 16 << 20 // 16MB

// Request is the export endpoint's body: the project snapshot to render
// plus output parameters.
type Request struct {
	Format  string          `json:"format"`
	FPS     int             `json:"fps"`
	Name    string          `json:"name"`
	Project json.RawMessage `json:"project"`
}

// Handler renders a snapshot server-side and streams the encoded video
// back.
type Handler struct {
	ffmpegPath string
	width      int
	height     int
	lib        *assets.Library
}

func NewHandler(ffmpegPath string, width, height int, lib *assets.Library) *Handler {
	return &Handler{ffmpegPath: ffmpegPath, width: width, height: height, lib: lib}
}

// ExportVideo handles POST /api/export. Encoding failures are terminal for
// this request only and never leave a partial file behind.
func (h *Handler) ExportVideo(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxSnapshotSize)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	format, err := PickFormat(req.Format)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	fps := req.FPS
	if fps <= 0 || fps > 120 {
		fps = 30
	}
	name := sanitizeName(req.Name)

	eng, err := engine.New(h.width, h.height, h.lib)
	if err != nil {
		slog.Error("init export engine", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if err := eng.LoadSnapshot(req.Project); err != nil {
		http.Error(w, "invalid snapshot: "+err.Error(), http.StatusBadRequest)
		return
	}

	tempDir, err := os.MkdirTemp("", "snapreel-export-*")
	if err != nil {
		slog.Error("create temp dir", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	defer os.RemoveAll(tempDir)

	opts := Options{
		FfmpegPath: h.ffmpegPath,
		Width:      h.width,
		Height:     h.height,
		FPS:        fps,
		Format:     format,
		OutPath:    TempOutPath(tempDir, "output", format),
	}

	if format.HasAudio() {
		wavPath, err := h.mixAudio(tempDir, eng)
		if err != nil {
			slog.Error("mix audio", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		opts.AudioWAV = wavPath
	}

	slog.Info("export started", "format", format, "fps", fps,
		"duration", eng.Project().TotalDuration())

	err = Encode(r.Context(), opts, func(emit func(*image.RGBA) error) error {
		return eng.ExportFrames(r.Context(), fps, emit)
	})
	if err != nil {
		slog.Error("encode failed", "error", err)
		http.Error(w, fmt.Sprintf("encoding failed: %v", err), http.StatusInternalServerError)
		return
	}

	outFile, err := os.Open(opts.OutPath)
	if err != nil {
		slog.Error("open output file", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	defer outFile.Close()

	stat, err := outFile.Stat()
	if err != nil {
		slog.Error("stat output file", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.%s"`, name, format))
	w.Header().Set("Content-Length", strconv.FormatInt(stat.Size(), 10))
	io.Copy(w, outFile)

	slog.Info("export complete", "format", format, "size", stat.Size())
}

// mixAudio realizes the project's audio schedule into a WAV file for the
// encoder. A project without usable audio still gets a silent bed so the
// container's streams stay aligned.
func (h *Handler) mixAudio(dir string, eng *engine.Engine) (string, error) {
	h.lib.Wait()
	schedule := eng.AudioSchedule()
	samples := schedule.Realize(h.lib)

	path := filepath.Join(dir, "audio.wav")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create wav: %w", err)
	}
	defer f.Close()

	if err := audiomix.WriteWAV(f, samples); err != nil {
		return "", err
	}
	return path, nil
}

func sanitizeName(name string) string {
	if name == "" {
		return "slideshow"
	}
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '-'
	}, name)
}
