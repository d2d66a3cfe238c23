package session

import (
	"encoding/json"

	"github.com/snapreel/snapreel/backend-go/internal/document"
)

type Message struct {
	Type      string          `json:"type"`
	ProjectID string          `json:"projectId,omitempty"`
	ClientID  string          `json:"clientId,omitempty"`
	UserID    string          `json:"userId,omitempty"`
	Payload   json.RawMessage `json:"payload"`
}

const (
	TypeWelcome = "welcome"
	TypeError   = "error"

	TypePresenceUpdate = "presence.update"
	TypePresenceState  = "presence.state"
	TypePresenceJoin   = "presence.join"
	TypePresenceLeave  = "presence.leave"

	// Canvas pointer interaction, applied through the room's engine.
	TypePointerDown = "pointer.down"
	TypePointerMove = "pointer.move"
	TypePointerUp   = "pointer.up"

	TypeItemAddImage      = "item.addImage"
	TypeItemAddText       = "item.addText"
	TypeItemAddDecoration = "item.addDecoration"
	TypeItemUpdateText    = "item.updateText"
	TypeItemDelete        = "item.delete"
	TypeCropEnter         = "crop.enter"
	TypeCropExit          = "crop.exit"

	TypePlaybackToggle    = "playback.toggle"
	TypePlaybackSeek      = "playback.seek"
	TypePlaybackSeekSlide = "playback.seekSlide"

	TypeSlideAppend = "slide.append"
	TypeSlideRemove = "slide.remove"
	TypeSlideUpdate = "slide.update"
	TypeMusicAdd    = "music.add"
	TypeMusicRemove = "music.remove"

	// Full authoritative document, server to clients.
	TypeDocSync = "doc.sync"
	TypeDocLoad = "doc.load"
)

type PresencePayload struct {
	Cursor      *CursorPos `json:"cursor,omitempty"`
	Selection   []string   `json:"selection,omitempty"`
	DisplayName string     `json:"displayName,omitempty"`
}

type CursorPos struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type PresenceStatePayload struct {
	Presences map[string]*PresencePayload `json:"presences"`
}

type PresenceJoinPayload struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

type PresenceLeavePayload struct {
	UserID string `json:"userId"`
}

type PointerPayload struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type AddImagePayload struct {
	AssetID      string  `json:"assetId"`
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	LibraryAsset bool    `json:"libraryAsset,omitempty"`
}

type AddTextPayload struct {
	Text string  `json:"text"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

type AddDecorationPayload struct {
	Animation document.Animation `json:"animation"`
	X         float64            `json:"x"`
	Y         float64            `json:"y"`
}

type UpdateTextPayload struct {
	ID    string             `json:"id"`
	Props document.TextProps `json:"props"`
}

type SeekPayload struct {
	Seconds float64 `json:"seconds"`
}

type SeekSlidePayload struct {
	Index int `json:"index"`
}

type SlideAppendPayload struct {
	Slide document.Slide `json:"slide"`
}

type SlideRemovePayload struct {
	ID string `json:"id"`
}

// SlideUpdatePayload patches one slide; nil fields are left unchanged.
type SlideUpdatePayload struct {
	ID                string                   `json:"id"`
	Transition        *document.TransitionKind `json:"transition,omitempty"`
	DurationSeconds   *float64                 `json:"durationSeconds,omitempty"`
	KeepOriginalAudio *bool                    `json:"keepOriginalAudio,omitempty"`
}

type MusicAddPayload struct {
	AssetID         string  `json:"assetId"`
	Name            string  `json:"name"`
	DurationSeconds float64 `json:"durationSeconds"`
}

type MusicRemovePayload struct {
	ID string `json:"id"`
}

type DocSyncPayload struct {
	Document     json.RawMessage `json:"document"`
	SelectedID   string          `json:"selectedId,omitempty"`
	Playing      bool            `json:"playing"`
	ClockSecs    float64         `json:"clockSeconds"`
	VideoAudible bool            `json:"videoAudible"`
}

type ErrorPayload struct {
	Error string `json:"error"`
}
