package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"testing"

	"github.com/snapreel/snapreel/backend-go/internal/assets"
	"github.com/snapreel/snapreel/backend-go/internal/document"
)

type savedDoc struct {
	mu   sync.Mutex
	docs map[string]json.RawMessage
}

func newTestHub(t *testing.T) (*Hub, *savedDoc) {
	t.Helper()
	saved := &savedDoc{docs: make(map[string]json.RawMessage)}

	load := func(ctx context.Context, projectID string) (json.RawMessage, error) {
		return nil, nil
	}
	save := func(ctx context.Context, projectID string, doc json.RawMessage) error {
		saved.mu.Lock()
		defer saved.mu.Unlock()
		saved.docs[projectID] = doc
		return nil
	}

	lib := assets.NewLibrary("", slog.Default())
	return NewHub(320, 180, lib, load, save), saved
}

func newTestRoom(t *testing.T, h *Hub) *Room {
	t.Helper()
	eng, err := h.openEngine("proj_test")
	if err != nil {
		t.Fatalf("openEngine: %v", err)
	}
	room := &Room{
		projectID: "proj_test",
		engine:    eng,
		clients:   make(map[*Client]bool),
		presence:  NewPresenceManager(),
	}
	h.mu.Lock()
	h.rooms[room.projectID] = room
	h.mu.Unlock()
	return room
}

func mustMarshal(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return data
}

func TestApplyOpAddTextSelectsAndSyncs(t *testing.T) {
	h, _ := newTestHub(t)
	room := newTestRoom(t, h)

	msg := &Message{
		Type:    TypeItemAddText,
		Payload: mustMarshal(t, AddTextPayload{Text: "hello", X: 100, Y: 80}),
	}
	if err := h.applyOp(room, msg); err != nil {
		t.Fatalf("applyOp: %v", err)
	}

	syncMsg := h.docSyncMessage(room)
	if syncMsg.Type != TypeDocSync {
		t.Fatalf("expected doc.sync, got %q", syncMsg.Type)
	}
	var payload DocSyncPayload
	if err := json.Unmarshal(syncMsg.Payload, &payload); err != nil {
		t.Fatalf("unmarshal sync payload: %v", err)
	}
	if payload.SelectedID == "" {
		t.Fatal("new item should be selected")
	}

	doc, err := document.ParseSnapshot(payload.Document)
	if err != nil {
		t.Fatalf("synced document should parse: %v", err)
	}
	found := false
	for _, it := range doc.Canvas.Items {
		if it.Kind == document.ItemText && it.Text != nil && it.Text.Text == "hello" {
			found = true
		}
	}
	if !found {
		t.Fatal("added text item missing from synced document")
	}
}

func TestApplyOpSlideUpdatePatchesOnlyGivenFields(t *testing.T) {
	h, _ := newTestHub(t)
	room := newTestRoom(t, h)

	id := room.engine.AppendSlide(document.Slide{
		Kind:            document.SlideImage,
		DurationSeconds: 4,
		Transition:      document.TransitionSlideLeft,
	})

	dur := 7.5
	msg := &Message{
		Type:    TypeSlideUpdate,
		Payload: mustMarshal(t, SlideUpdatePayload{ID: id, DurationSeconds: &dur}),
	}
	if err := h.applyOp(room, msg); err != nil {
		t.Fatalf("applyOp: %v", err)
	}

	slides := room.engine.Project().Timeline.Slides
	got := slides[len(slides)-1]
	if got.DurationSeconds != 7.5 {
		t.Fatalf("duration = %v, want 7.5", got.DurationSeconds)
	}
	if got.Transition != document.TransitionSlideLeft {
		t.Fatalf("transition changed to %q, should be untouched", got.Transition)
	}
}

func TestApplyOpRejectsUnknownType(t *testing.T) {
	h, _ := newTestHub(t)
	room := newTestRoom(t, h)

	msg := &Message{Type: "nonsense.op", Payload: json.RawMessage(`{}`)}
	if err := h.applyOp(room, msg); err == nil {
		t.Fatal("expected error for unknown message type")
	}
}

func TestApplyOpRemoveMissingSlideFails(t *testing.T) {
	h, _ := newTestHub(t)
	room := newTestRoom(t, h)

	msg := &Message{
		Type:    TypeSlideRemove,
		Payload: mustMarshal(t, SlideRemovePayload{ID: "slide_nope"}),
	}
	if err := h.applyOp(room, msg); err == nil {
		t.Fatal("expected error for missing slide")
	}
}

func TestStopFlushesOpenRooms(t *testing.T) {
	h, saved := newTestHub(t)
	room := newTestRoom(t, h)

	room.engine.AddTextItem("flush me", 50, 50)
	h.Stop()

	saved.mu.Lock()
	doc := saved.docs["proj_test"]
	saved.mu.Unlock()
	if doc == nil {
		t.Fatal("Stop should persist the room document")
	}
	if _, err := document.ParseSnapshot(doc); err != nil {
		t.Fatalf("persisted document should parse: %v", err)
	}
}

func TestPresenceManagerRoundTrip(t *testing.T) {
	pm := NewPresenceManager()
	pm.Update("user_a", &PresencePayload{DisplayName: "A", Cursor: &CursorPos{X: 1, Y: 2}})
	pm.Update("user_b", &PresencePayload{DisplayName: "B"})
	pm.Remove("user_b")

	all := pm.Snapshot()
	if len(all) != 1 {
		t.Fatalf("expected 1 presence, got %d", len(all))
	}
	if all["user_a"].Cursor.X != 1 {
		t.Fatal("cursor lost")
	}

	state := pm.StateMessage()
	if state == nil || state.Type != TypePresenceState {
		t.Fatal("state message missing")
	}
}

func TestPresenceUpdateKeepsDisplayName(t *testing.T) {
	pm := NewPresenceManager()
	pm.Update("user_a", &PresencePayload{DisplayName: "A"})

	// A bare cursor move carries no name; the label must survive it.
	pm.Update("user_a", &PresencePayload{Cursor: &CursorPos{X: 3, Y: 4}})

	got := pm.Snapshot()["user_a"]
	if got.DisplayName != "A" {
		t.Fatalf("display name = %q, want retained %q", got.DisplayName, "A")
	}
	if got.Cursor == nil || got.Cursor.X != 3 {
		t.Fatal("cursor update lost")
	}
}
