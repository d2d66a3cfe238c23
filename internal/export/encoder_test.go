package export

import (
	"bytes"
	"errors"
	"image"
	"testing"
)

func TestPickFormat(t *testing.T) {
	cases := []struct {
		in   string
		want Format
		err  bool
	}{
		{"", FormatMP4, false}, // preferred default
		{"mp4", FormatMP4, false},
		{"webm", FormatWebM, false},
		{"gif", FormatGIF, false},
		{"avi", "", true},
		{"MP4", "", true},
	}
	for _, c := range cases {
		got, err := PickFormat(c.in)
		if c.err {
			if !errors.Is(err, ErrUnsupportedFormat) {
				t.Errorf("PickFormat(%q) err = %v, want ErrUnsupportedFormat", c.in, err)
			}
			continue
		}
		if err != nil || got != c.want {
			t.Errorf("PickFormat(%q) = %v, %v; want %v", c.in, got, err, c.want)
		}
	}
}

func TestFormatPreferenceOrder(t *testing.T) {
	fs := Formats()
	if len(fs) == 0 || fs[0] != FormatMP4 {
		t.Errorf("most compatible format should come first, got %v", fs)
	}
}

func TestGIFHasNoAudio(t *testing.T) {
	if FormatGIF.HasAudio() {
		t.Error("gif cannot carry audio")
	}
	if !FormatMP4.HasAudio() || !FormatWebM.HasAudio() {
		t.Error("mp4 and webm carry audio")
	}
}

func TestWriteRGBAHandlesPaddedStride(t *testing.T) {
	// A subimage keeps the parent stride, so rows need individual writes.
	parent := image.NewRGBA(image.Rect(0, 0, 8, 4))
	for i := range parent.Pix {
		parent.Pix[i] = byte(i)
	}
	sub := parent.SubImage(image.Rect(0, 0, 4, 4)).(*image.RGBA)

	var buf bytes.Buffer
	if err := writeRGBA(&buf, sub, 4, 4); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 4*4*4 {
		t.Fatalf("wrote %d bytes, want %d", buf.Len(), 4*4*4)
	}
	// Row 1 must start where the parent's second row starts, not at byte 16.
	if got, want := buf.Bytes()[16], parent.Pix[parent.Stride]; got != want {
		t.Errorf("row 1 byte 0 = %d, want %d", got, want)
	}
}

func TestWriteRGBARejectsSizeMismatch(t *testing.T) {
	frame := image.NewRGBA(image.Rect(0, 0, 2, 2))
	var buf bytes.Buffer
	if err := writeRGBA(&buf, frame, 4, 4); err == nil {
		t.Error("mismatched frame size must error")
	}
}
