package assets

import (
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/snapreel/snapreel/backend-go/internal/typeid"
)

const maxUploadSize = 200 << 20 // 200MB, video uploads included

// UploadResponse is returned from the upload endpoint.
type UploadResponse struct {
	ID              string  `json:"id"`
	URL             string  `json:"url"`
	Kind            string  `json:"kind"` // image | video | audio
	Width           int     `json:"width,omitempty"`
	Height          int     `json:"height,omitempty"`
	DurationSeconds float64 `json:"durationSeconds,omitempty"`
	Name            string  `json:"name"`
}

// Handler serves media upload and retrieval endpoints. Uploaded files are
// stored on disk and immediately handed to the library for decoding.
type Handler struct {
	dir string
	lib *Library
}

// NewHandler creates an asset handler storing files in dir.
func NewHandler(dir string, lib *Library) *Handler {
	if err := os.MkdirAll(dir, 0755); err != nil {
		slog.Error("create asset dir", "error", err, "dir", dir)
	}
	return &Handler{dir: dir, lib: lib}
}

// Upload handles POST /assets/upload (multipart form with "file" field).
// Images are normalized to PNG; video and audio are stored as uploaded and
// decoded through ffmpeg.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, "file too large (max 200MB)", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing file field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	switch {
	case strings.HasPrefix(contentType, "image/"):
		h.uploadImage(w, file, header.Filename)
	case strings.HasPrefix(contentType, "video/"):
		h.uploadMedia(w, file, header.Filename, contentType, "video")
	case strings.HasPrefix(contentType, "audio/"):
		h.uploadMedia(w, file, header.Filename, contentType, "audio")
	default:
		http.Error(w, "unsupported content type "+contentType, http.StatusBadRequest)
	}
}

func (h *Handler) uploadImage(w http.ResponseWriter, file multipart.File, name string) {
	img, _, err := image.Decode(file)
	if err != nil {
		http.Error(w, "invalid image: "+err.Error(), http.StatusBadRequest)
		return
	}

	assetID := typeid.NewAssetID()
	filename := assetID + ".png"
	path := filepath.Join(h.dir, filename)

	out, err := os.Create(path)
	if err != nil {
		slog.Error("create asset file", "error", err)
		http.Error(w, "failed to save file", http.StatusInternalServerError)
		return
	}
	defer out.Close()

	if err := png.Encode(out, img); err != nil {
		slog.Error("encode png", "error", err)
		os.Remove(path)
		http.Error(w, "failed to encode image", http.StatusInternalServerError)
		return
	}

	h.lib.Put(assetID, img)

	bounds := img.Bounds()
	writeJSON(w, UploadResponse{
		ID:     assetID,
		URL:    fmt.Sprintf("/assets/%s", filename),
		Kind:   "image",
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Name:   name,
	})
}

func (h *Handler) uploadMedia(w http.ResponseWriter, file multipart.File, name, contentType, kind string) {
	ext := extensionFor(contentType, name)
	assetID := typeid.NewAssetID()
	filename := assetID + ext
	path := filepath.Join(h.dir, filename)

	if err := copyFile(path, file); err != nil {
		slog.Error("save media file", "error", err)
		http.Error(w, "failed to save file", http.StatusInternalServerError)
		return
	}

	resp := UploadResponse{
		ID:   assetID,
		URL:  fmt.Sprintf("/assets/%s", filename),
		Kind: kind,
		Name: name,
	}

	if kind == "video" {
		// Probe synchronously so the response carries real dimensions and
		// duration; the frame decoder stays lazy.
		v, err := OpenVideo(h.lib.ffmpeg, path)
		if err != nil {
			os.Remove(path)
			http.Error(w, "invalid video: "+err.Error(), http.StatusBadRequest)
			return
		}
		resp.Width, resp.Height, resp.DurationSeconds = v.Width, v.Height, v.Duration
		h.lib.LoadVideo(assetID, path)
	} else {
		h.lib.LoadPCM(assetID, path)
	}

	writeJSON(w, resp)
}

// Serve returns an http.Handler that serves stored asset files with caching
// headers.
func (h *Handler) Serve() http.Handler {
	fs := http.FileServer(http.Dir(h.dir))
	return http.StripPrefix("/assets/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Asset IDs are unique, so files are immutable
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		fs.ServeHTTP(w, r)
	}))
}

// Restore re-issues library loads for every stored file, keyed by the asset
// id embedded in the filename. Called once at startup so reopened projects
// find their media.
func (h *Handler) Restore() error {
	files, err := os.ReadDir(h.dir)
	if err != nil {
		return fmt.Errorf("read asset dir: %w", err)
	}
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		name := f.Name()
		ext := filepath.Ext(name)
		id := strings.TrimSuffix(name, ext)
		path := filepath.Join(h.dir, name)

		switch ext {
		case ".png", ".jpg", ".jpeg", ".gif":
			h.lib.LoadRaster(id, path)
		case ".mp4", ".webm", ".mov":
			h.lib.LoadVideo(id, path)
		case ".mp3", ".wav", ".ogg", ".m4a":
			h.lib.LoadPCM(id, path)
		}
	}
	return nil
}

// Delete removes an asset file from disk (for cleanup).
func (h *Handler) Delete(assetID string) error {
	for _, ext := range []string{".png", ".mp4", ".webm", ".mov", ".mp3", ".wav", ".ogg", ".m4a"} {
		path := filepath.Join(h.dir, assetID+ext)
		if err := os.Remove(path); err == nil {
			return nil
		}
	}
	return fmt.Errorf("asset not found: %s", assetID)
}

func extensionFor(contentType, name string) string {
	if ext := filepath.Ext(name); ext != "" {
		return strings.ToLower(ext)
	}
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ".bin"
}

// copyFile copies src reader to a file at dst path.
func copyFile(dst string, src io.Reader) error {
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, src)
	return err
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v)
}
