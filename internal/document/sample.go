package document

import (
	"time"

	"github.com/snapreel/snapreel/backend-go/internal/typeid"
)

// NewSampleProject builds the seeded demo project used by the wasm
// playground: one collage canvas with a title and a couple of decorations,
// plus a three-slide timeline.
func NewSampleProject(projectID string) *Project {
	now := time.Now().UTC().Format(time.RFC3339)

	canvasID := typeid.NewSceneID()
	titleID := typeid.NewItemID()
	heartID := typeid.NewItemID()
	pinID := typeid.NewItemID()

	collageID := typeid.NewSceneID()
	collageTextID := typeid.NewItemID()
	tapeID := typeid.NewItemID()

	return &Project{
		ID:           projectID,
		Name:         "Untitled",
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
		SlideSeconds: 4,
		FadeSeconds:  1,
		Canvas: Scene{
			ID:                   canvasID,
			Title:                "My Collage",
			BackgroundGradientID: "sunset",
			Items: []VisualItem{
				{
					ID: titleID, Kind: ItemText,
					X: 340, Y: 60, Width: 600, Height: 80,
					Scale: 1, ZIndex: 3,
					Text: &TextProps{
						Text:              "Summer 2026",
						FontFamily:        "regular",
						FontSize:          64,
						Color:             "#ffffff",
						StrokeColor:       "#1a1a2e",
						StrokeWidth:       2,
						Background:        "#e94560",
						BackgroundOpacity: 0.85,
						BackgroundPadding: 16,
						BackgroundRadius:  12,
					},
				},
				{
					ID: heartID, Kind: ItemDecoration,
					X: 980, Y: 480, Width: 140, Height: 130,
					Scale: 1, Rotation: -0.2, ZIndex: 2,
					Decoration: &DecorationProps{Animation: AnimHeartLine},
				},
				{
					ID: pinID, Kind: ItemDecoration,
					X: 120, Y: 420, Width: 90, Height: 120,
					Scale: 1, ZIndex: 1,
					Decoration: &DecorationProps{Animation: AnimLocationPin},
				},
			},
		},
		Timeline: Timeline{
			Slides: []Slide{
				{
					ID:         typeid.NewSlideID(),
					Kind:       SlideImage,
					AssetID:    "",
					Filename:   "beach.jpg",
					Transition: TransitionZoomIn,
				},
				{
					ID:   typeid.NewSlideID(),
					Kind: SlideCollage,
					Scene: &Scene{
						ID:                   collageID,
						Title:                "Highlights",
						BackgroundGradientID: "ocean",
						Items: []VisualItem{
							{
								ID: collageTextID, Kind: ItemText,
								X: 420, Y: 300, Width: 440, Height: 70,
								Scale: 1, ZIndex: 2,
								Text: &TextProps{
									Text:       "Best day ever",
									FontFamily: "bold",
									FontSize:   48,
									Color:      "#fffbe6",
								},
							},
							{
								ID: tapeID, Kind: ItemDecoration,
								X: 180, Y: 120, Width: 180, Height: 60,
								Scale: 1, Rotation: 0.35, ZIndex: 1,
								Decoration: &DecorationProps{Animation: AnimTapeStrip},
							},
						},
					},
					Transition: TransitionFade,
				},
				{
					ID:         typeid.NewSlideID(),
					Kind:       SlideImage,
					AssetID:    "",
					Filename:   "sunset.jpg",
					Transition: TransitionSlideLeft,
					Decorations: []VisualItem{
						{
							ID: typeid.NewItemID(), Kind: ItemDecoration,
							X: 60, Y: 60, Width: 320, Height: 220,
							Scale: 1, ZIndex: 1,
							Decoration: &DecorationProps{Animation: AnimRecordingFrame},
						},
					},
				},
			},
		},
		Music: nil,
	}
}
