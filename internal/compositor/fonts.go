package compositor

import (
	"fmt"
	"math"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// FaceCache builds and caches font faces for text items. The fonts are
// embedded (Go Regular / Go Bold) so measurement is deterministic across
// preview and export. A cache is owned by one engine and is not shared
// between concurrently rendering engines.
type FaceCache struct {
	mu      sync.Mutex
	regular *opentype.Font
	bold    *opentype.Font
	faces   map[faceKey]font.Face
}

type faceKey struct {
	family string
	size   float64
}

func NewFaceCache() (*FaceCache, error) {
	regular, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse regular font: %w", err)
	}
	bold, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse bold font: %w", err)
	}
	return &FaceCache{
		regular: regular,
		bold:    bold,
		faces:   make(map[faceKey]font.Face),
	}, nil
}

// Face returns a cached face for the family/size pair. Unknown families fall
// back to regular; sizes are quantized to half points to bound the cache.
func (fc *FaceCache) Face(family string, size float64) font.Face {
	if size <= 0 {
		size = 16
	}
	key := faceKey{family: family, size: math.Round(size*2) / 2}

	fc.mu.Lock()
	defer fc.mu.Unlock()

	if f, ok := fc.faces[key]; ok {
		return f
	}

	src := fc.regular
	if family == "bold" {
		src = fc.bold
	}

	f, err := opentype.NewFace(src, &opentype.FaceOptions{
		Size:    key.size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		// NewFace only fails on malformed fonts; ours are embedded.
		f, _ = opentype.NewFace(fc.regular, &opentype.FaceOptions{Size: 16, DPI: 72})
	}
	fc.faces[key] = f
	return f
}
