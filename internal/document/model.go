package document

// ItemKind discriminates the three visual item variants. Exactly one of the
// matching attribute groups (Image, Text, Decoration) is populated per item.
type ItemKind string

const (
	ItemImage      ItemKind = "Image"
	ItemText       ItemKind = "Text"
	ItemDecoration ItemKind = "Decoration"
)

// Animation identifies a procedural decoration effect.
type Animation string

const (
	AnimRecordingFrame  Animation = "recordingFrame"
	AnimCircleHighlight Animation = "circleHighlight"
	AnimLocationPin     Animation = "locationPin"
	AnimTapeStrip       Animation = "tapeStrip"
	AnimBulbLine        Animation = "bulbLine"
	AnimHeartLine       Animation = "heartLine"
)

// Animations lists every supported decoration effect.
var Animations = []Animation{
	AnimRecordingFrame,
	AnimCircleHighlight,
	AnimLocationPin,
	AnimTapeStrip,
	AnimBulbLine,
	AnimHeartLine,
}

// ImageProps are the Image-only attributes of a VisualItem.
// The crop box is the item's width/height footprint; the source content is
// drawn inside it at BaseFitScale*CropZoom and panned by CropOffset.
type ImageProps struct {
	AssetID      string  `json:"assetId"`
	CropOffsetX  float64 `json:"cropOffsetX"`
	CropOffsetY  float64 `json:"cropOffsetY"`
	CropZoom     float64 `json:"cropZoom"`
	BaseFitScale float64 `json:"baseFitScale"`
	LibraryAsset bool    `json:"libraryAsset,omitempty"`
}

// TextProps are the Text-only attributes of a VisualItem.
// Width/Height on the owning item are recomputed from glyph metrics on every
// draw; the stored values are only a starting footprint.
type TextProps struct {
	Text              string  `json:"text"`
	FontFamily        string  `json:"fontFamily"`
	FontSize          float64 `json:"fontSize"`
	Color             string  `json:"color"`
	StrokeColor       string  `json:"strokeColor,omitempty"`
	StrokeWidth       float64 `json:"strokeWidth,omitempty"`
	Background        string  `json:"background,omitempty"`
	BackgroundOpacity float64 `json:"backgroundOpacity,omitempty"`
	BackgroundPadding float64 `json:"backgroundPadding,omitempty"`
	BackgroundRadius  float64 `json:"backgroundRadius,omitempty"`
}

// DecorationProps are the Decoration-only attributes of a VisualItem.
type DecorationProps struct {
	Animation Animation `json:"animation"`
}

// VisualItem is a positioned, rotatable, uniformly scalable drawable.
// X/Y is the world position of the un-rotated top-left corner of the content
// box; Scale and Rotation apply around the item's own center.
type VisualItem struct {
	ID       string   `json:"id"`
	Kind     ItemKind `json:"kind"`
	X        float64  `json:"x"`
	Y        float64  `json:"y"`
	Width    float64  `json:"width"`
	Height   float64  `json:"height"`
	Scale    float64  `json:"scale"`
	Rotation float64  `json:"rotation"`
	ZIndex   int      `json:"zIndex"`

	Image      *ImageProps      `json:"image,omitempty"`
	Text       *TextProps       `json:"text,omitempty"`
	Decoration *DecorationProps `json:"decoration,omitempty"`
}

// Scene is an ordered set of visual items on a gradient background. It is
// either the collage editor's working canvas or a slide's embedded collage;
// item ids are unique within one scene.
type Scene struct {
	ID                   string       `json:"id"`
	Title                string       `json:"title"`
	BackgroundGradientID string       `json:"backgroundGradientId"`
	Items                []VisualItem `json:"items"`
}

// SlideKind discriminates the three timeline entry variants.
type SlideKind string

const (
	SlideImage   SlideKind = "Image"
	SlideVideo   SlideKind = "Video"
	SlideCollage SlideKind = "CollageScene"
)

// TransitionKind is the effect used when leaving a slide for the next one.
type TransitionKind string

const (
	TransitionFade       TransitionKind = "fade"
	TransitionSlideLeft  TransitionKind = "slideLeft"
	TransitionSlideRight TransitionKind = "slideRight"
	TransitionSlideUp    TransitionKind = "slideUp"
	TransitionSlideDown  TransitionKind = "slideDown"
	TransitionZoomIn     TransitionKind = "zoomIn"
	TransitionZoomOut    TransitionKind = "zoomOut"
)

// Slide is one timeline entry. DurationSeconds is the intrinsic clip length
// for video slides; zero means "use the project default" for image and
// collage slides. TextOverlay and Decorations attach directly to plain
// photo/video slides; collage slides carry their items in Scene instead.
type Slide struct {
	ID                string         `json:"id"`
	Kind              SlideKind      `json:"kind"`
	AssetID           string         `json:"assetId,omitempty"`
	Filename          string         `json:"filename,omitempty"`
	Scene             *Scene         `json:"scene,omitempty"`
	DurationSeconds   float64        `json:"durationSeconds,omitempty"`
	Transition        TransitionKind `json:"transition"`
	KeepOriginalAudio bool           `json:"keepOriginalAudio,omitempty"`
	TextOverlay       *VisualItem    `json:"textOverlay,omitempty"`
	Decorations       []VisualItem   `json:"decorations,omitempty"`
}

// Timeline is the ordered slide sequence. Total duration is the sum of
// resolved per-slide durations; any clock value in [0, total) maps to exactly
// one slide index and local offset.
type Timeline struct {
	Slides []Slide `json:"slides"`
}

// AudioTrackRef references a decoded background music buffer. Buffers are
// decoded once at upload and never mutated.
type AudioTrackRef struct {
	ID              string  `json:"id"`
	AssetID         string  `json:"assetId"`
	Name            string  `json:"name"`
	DurationSeconds float64 `json:"durationSeconds"`
}

// Project is the full persisted snapshot: the collage editor's working
// canvas, the slideshow timeline, and the background music list.
type Project struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Version      int             `json:"version"`
	CreatedAt    string          `json:"createdAt"`
	UpdatedAt    string          `json:"updatedAt"`
	SlideSeconds float64         `json:"slideSeconds"`
	FadeSeconds  float64         `json:"fadeSeconds"`
	Canvas       Scene           `json:"canvas"`
	Timeline     Timeline        `json:"timeline"`
	Music        []AudioTrackRef `json:"music"`
}

// SlideDuration resolves a slide's duration against the project default,
// clamped to a small minimum so a degenerate slide never divides by zero.
func (p *Project) SlideDuration(s *Slide) float64 {
	d := s.DurationSeconds
	if s.Kind != SlideVideo && d <= 0 {
		d = p.SlideSeconds
	}
	if d < MinSlideSeconds {
		d = MinSlideSeconds
	}
	return d
}

// TotalDuration is the sum of resolved slide durations.
func (p *Project) TotalDuration() float64 {
	total := 0.0
	for i := range p.Timeline.Slides {
		total += p.SlideDuration(&p.Timeline.Slides[i])
	}
	return total
}

// Geometry clamps shared between the interaction controller and snapshot
// validation. Degenerate input is clamped, never rejected.
const (
	MinScale        = 0.1
	MinCropSide     = 50.0
	MinSlideSeconds = 0.1
)
