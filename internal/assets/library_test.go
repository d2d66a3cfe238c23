package assets

import (
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func testLibrary() *Library {
	return NewLibrary("ffmpeg", slog.New(slog.NewTextHandler(os.Stderr, nil)))
}

func writeTestPNG(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadRaster(t *testing.T) {
	lib := testLibrary()
	path := writeTestPNG(t, t.TempDir(), "a.png", 32, 16)

	lib.LoadRaster("asset_a", path)
	lib.Wait()

	img, ok := lib.Raster("asset_a")
	if !ok {
		t.Fatal("raster should be ready after Wait")
	}
	if b := img.Bounds(); b.Dx() != 32 || b.Dy() != 16 {
		t.Errorf("bounds %v, want 32x16", b)
	}
	if lib.State("asset_a") != StateReady {
		t.Error("state should be ready")
	}
}

func TestMissingFileIsFlaggedNotFatal(t *testing.T) {
	lib := testLibrary()
	lib.LoadRaster("asset_gone", "/no/such/file.png")
	lib.Wait()

	if _, ok := lib.Raster("asset_gone"); ok {
		t.Error("missing file must not produce a raster")
	}
	if lib.State("asset_gone") != StateMissing {
		t.Error("missing file should flag the asset")
	}
	ids := lib.MissingIDs()
	if len(ids) != 1 || ids[0] != "asset_gone" {
		t.Errorf("missing ids %v, want [asset_gone]", ids)
	}
}

func TestReloadSupersedesPreviousGeneration(t *testing.T) {
	dir := t.TempDir()
	small := writeTestPNG(t, dir, "small.png", 8, 8)
	big := writeTestPNG(t, dir, "big.png", 64, 64)

	lib := testLibrary()
	lib.LoadRaster("asset_x", small)
	lib.LoadRaster("asset_x", big)
	lib.Wait()

	// Whichever goroutine finished first, only the newest generation's
	// content may be visible.
	img, ok := lib.Raster("asset_x")
	if !ok {
		t.Fatal("asset should be ready")
	}
	if b := img.Bounds(); b.Dx() != 64 {
		t.Errorf("stale load clobbered newer state: bounds %v", b)
	}
}

func TestStaleCommitIsDiscarded(t *testing.T) {
	lib := testLibrary()

	gen := lib.begin("asset_y")
	lib.begin("asset_y") // newer generation started

	lib.commit("asset_y", gen, func(e *entry) {
		e.state = StateReady
		e.raster = image.NewRGBA(image.Rect(0, 0, 1, 1))
	})

	if _, ok := lib.Raster("asset_y"); ok {
		t.Error("commit against an old generation must be discarded")
	}
	if lib.State("asset_y") != StateLoading {
		t.Error("newest generation is still loading")
	}
}

func TestPutInstallsImmediately(t *testing.T) {
	lib := testLibrary()
	lib.Put("asset_p", image.NewRGBA(image.Rect(0, 0, 4, 4)))

	if _, ok := lib.Raster("asset_p"); !ok {
		t.Error("Put should install synchronously")
	}
	if w, h, err := lib.Dimensions("asset_p"); err != nil || w != 4 || h != 4 {
		t.Errorf("dimensions %dx%d err %v, want 4x4", w, h, err)
	}
}
