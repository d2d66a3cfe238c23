package compositor

import "image/color"

// DefaultGradientID is used when a scene references an unknown background.
const DefaultGradientID = "dusk"

// palette maps backgroundGradientId to a two-stop linear gradient
// (top color, bottom color).
var palette = map[string][2]string{
	"sunset": {"#ff9a8b", "#ff6a88"},
	"ocean":  {"#2e3192", "#1bffff"},
	"forest": {"#134e5e", "#71b280"},
	"dusk":   {"#1a1a2e", "#16213e"},
	"candy":  {"#f953c6", "#b91d73"},
	"mono":   {"#2c3e50", "#4b6584"},
}

// GradientStops resolves a gradient id to its two stops, falling back to the
// default palette entry for unknown ids.
func GradientStops(id string) (top, bottom color.Color) {
	stops, ok := palette[id]
	if !ok {
		stops = palette[DefaultGradientID]
	}
	return parseHex(stops[0]), parseHex(stops[1])
}

// parseHex parses a #rrggbb color. Malformed input yields opaque black,
// which is an acceptable background fallback.
func parseHex(s string) color.Color {
	var r, g, b uint8
	if len(s) == 7 && s[0] == '#' {
		r = hexByte(s[1], s[2])
		g = hexByte(s[3], s[4])
		b = hexByte(s[5], s[6])
	}
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

func hexByte(hi, lo byte) uint8 {
	return hexNibble(hi)<<4 | hexNibble(lo)
}

func hexNibble(c byte) uint8 {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	}
	return 0
}
