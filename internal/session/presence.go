package session

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// PresenceManager tracks who is in one editing room: cursor position over
// the frame, current selection, display name. It is room-local state, never
// persisted; a user's entry lives exactly as long as their connection.
type PresenceManager struct {
	mu      sync.RWMutex
	entries map[string]*PresencePayload // keyed by user id
}

func NewPresenceManager() *PresenceManager {
	return &PresenceManager{
		entries: make(map[string]*PresencePayload),
	}
}

// Update replaces a user's presence. An update without a display name keeps
// the previous one, so a bare cursor move never blanks the label.
func (pm *PresenceManager) Update(userID string, p *PresencePayload) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	if p.DisplayName == "" {
		if prev := pm.entries[userID]; prev != nil {
			p.DisplayName = prev.DisplayName
		}
	}
	pm.entries[userID] = p
}

func (pm *PresenceManager) Remove(userID string) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	delete(pm.entries, userID)
}

// Snapshot copies the table for a state broadcast.
func (pm *PresenceManager) Snapshot() map[string]*PresencePayload {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	out := make(map[string]*PresencePayload, len(pm.entries))
	for id, p := range pm.entries {
		out[id] = p
	}
	return out
}

// StateMessage builds the full presence state sent to a joining client.
func (pm *PresenceManager) StateMessage() *Message {
	payload, err := json.Marshal(PresenceStatePayload{Presences: pm.Snapshot()})
	if err != nil {
		slog.Error("marshal presence state", "error", err)
		return nil
	}
	return &Message{
		Type:    TypePresenceState,
		Payload: payload,
	}
}
