// Package session runs the live editing rooms. Each open project gets one
// room holding the authoritative engine; clients send edit operations over
// a websocket, the room applies them, and every client in the room receives
// the resulting document state. The server is the source of truth, so two
// people dragging at once cannot fork the document.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/snapreel/snapreel/backend-go/internal/assets"
	"github.com/snapreel/snapreel/backend-go/internal/document"
	"github.com/snapreel/snapreel/backend-go/internal/engine"
)

// Loader fetches the latest stored document for a project, or nil when the
// project has no snapshot yet.
type Loader func(ctx context.Context, projectID string) (json.RawMessage, error)

// Saver persists the current document for a project.
type Saver func(ctx context.Context, projectID string, doc json.RawMessage) error

// saveDebounce batches rapid edits into one persisted snapshot.
const saveDebounce = 2 * time.Second

type Room struct {
	projectID string
	engine    *engine.Engine
	clients   map[*Client]bool
	presence  *PresenceManager
	saveTimer *time.Timer
}

type Hub struct {
	mu    sync.RWMutex
	rooms map[string]*Room

	width  int
	height int
	lib    *assets.Library
	load   Loader
	save   Saver

	register   chan *Client
	unregister chan *Client
}

func NewHub(width, height int, lib *assets.Library, load Loader, save Saver) *Hub {
	return &Hub{
		rooms:      make(map[string]*Room),
		width:      width,
		height:     height,
		lib:        lib,
		load:       load,
		save:       save,
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case <-ctx.Done():
			return
		}
	}
}

func (h *Hub) Register(c *Client) {
	h.register <- c
}

// Stop flushes every open room to storage. Called on shutdown after the
// Run loop has been cancelled.
func (h *Hub) Stop() {
	h.mu.Lock()
	rooms := make([]*Room, 0, len(h.rooms))
	for _, room := range h.rooms {
		if room.saveTimer != nil {
			room.saveTimer.Stop()
		}
		rooms = append(rooms, room)
	}
	h.mu.Unlock()

	for _, room := range rooms {
		h.persist(room)
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.ProjectID]
	if !ok {
		eng, err := h.openEngine(client.ProjectID)
		if err != nil {
			h.mu.Unlock()
			slog.Error("open room failed", "project", client.ProjectID, "error", err)
			client.Send(errorMessage("project could not be loaded"))
			close(client.outbox)
			return
		}
		room = &Room{
			projectID: client.ProjectID,
			engine:    eng,
			clients:   make(map[*Client]bool),
			presence:  NewPresenceManager(),
		}
		h.rooms[client.ProjectID] = room
	}
	room.clients[client] = true
	h.mu.Unlock()

	slog.Info("client joined", "project", client.ProjectID, "user", client.UserID, "client", client.ClientID)

	client.Send(&Message{Type: TypeWelcome, ClientID: client.ClientID, ProjectID: client.ProjectID})
	if state := room.presence.StateMessage(); state != nil {
		client.Send(state)
	}
	client.Send(h.docSyncMessage(room))

	join, _ := json.Marshal(PresenceJoinPayload{UserID: client.UserID, DisplayName: client.DisplayName})
	h.broadcastToRoom(client.ProjectID, &Message{
		Type:    TypePresenceJoin,
		UserID:  client.UserID,
		Payload: join,
	}, client)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.ProjectID]
	if !ok || !room.clients[client] {
		h.mu.Unlock()
		return
	}
	delete(room.clients, client)
	close(client.outbox)
	room.presence.Remove(client.UserID)

	empty := len(room.clients) == 0
	if empty {
		delete(h.rooms, client.ProjectID)
		if room.saveTimer != nil {
			room.saveTimer.Stop()
		}
	}
	h.mu.Unlock()

	slog.Info("client left", "project", client.ProjectID, "user", client.UserID)

	if empty {
		// Flush the final state now that nobody is editing.
		h.persist(room)
		return
	}

	leave, _ := json.Marshal(PresenceLeavePayload{UserID: client.UserID})
	h.broadcastToRoom(client.ProjectID, &Message{
		Type:    TypePresenceLeave,
		UserID:  client.UserID,
		Payload: leave,
	}, nil)
}

func (h *Hub) openEngine(projectID string) (*engine.Engine, error) {
	eng, err := engine.New(h.width, h.height, h.lib)
	if err != nil {
		return nil, err
	}
	doc, err := h.load(context.Background(), projectID)
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}
	if doc != nil {
		if err := eng.LoadSnapshot(doc); err != nil {
			return nil, fmt.Errorf("parse document: %w", err)
		}
	}
	return eng, nil
}

func (h *Hub) handleMessage(client *Client, msg *Message) {
	h.mu.RLock()
	room, ok := h.rooms[client.ProjectID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	switch msg.Type {
	case TypePresenceUpdate:
		var p PresencePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			client.Send(errorMessage("invalid presence payload"))
			return
		}
		if p.DisplayName == "" {
			p.DisplayName = client.DisplayName
		}
		room.presence.Update(client.UserID, &p)
		h.broadcastToRoom(client.ProjectID, msg, client)
		return

	default:
		if err := h.applyOp(room, msg); err != nil {
			client.Send(errorMessage(err.Error()))
			return
		}
	}

	h.broadcastToRoom(client.ProjectID, h.docSyncMessage(room), nil)
	h.scheduleSave(room)
}

// applyOp mutates the room engine for one edit operation.
func (h *Hub) applyOp(room *Room, msg *Message) error {
	eng := room.engine

	switch msg.Type {
	case TypePointerDown:
		var p PointerPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return fmt.Errorf("invalid pointer payload")
		}
		eng.PointerDown(p.X, p.Y)

	case TypePointerMove:
		var p PointerPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return fmt.Errorf("invalid pointer payload")
		}
		eng.PointerMove(p.X, p.Y)

	case TypePointerUp:
		eng.PointerUp()

	case TypeItemAddImage:
		var p AddImagePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return fmt.Errorf("invalid payload")
		}
		if _, err := eng.AddImageItem(p.AssetID, p.X, p.Y, p.LibraryAsset); err != nil {
			return fmt.Errorf("add image: %w", err)
		}

	case TypeItemAddText:
		var p AddTextPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return fmt.Errorf("invalid payload")
		}
		eng.AddTextItem(p.Text, p.X, p.Y)

	case TypeItemAddDecoration:
		var p AddDecorationPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return fmt.Errorf("invalid payload")
		}
		eng.AddDecorationItem(p.Animation, p.X, p.Y)

	case TypeItemUpdateText:
		var p UpdateTextPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return fmt.Errorf("invalid payload")
		}
		if !eng.UpdateTextItem(p.ID, p.Props) {
			return fmt.Errorf("text item not found")
		}

	case TypeItemDelete:
		eng.DeleteSelected()

	case TypeCropEnter:
		eng.EnterCropMode()

	case TypeCropExit:
		eng.ExitCropMode()

	case TypePlaybackToggle:
		eng.TogglePlay(time.Now())

	case TypePlaybackSeek:
		var p SeekPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return fmt.Errorf("invalid payload")
		}
		eng.Seek(time.Now(), p.Seconds)

	case TypePlaybackSeekSlide:
		var p SeekSlidePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return fmt.Errorf("invalid payload")
		}
		eng.SeekToSlide(time.Now(), p.Index)

	case TypeSlideAppend:
		var p SlideAppendPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return fmt.Errorf("invalid payload")
		}
		eng.AppendSlide(p.Slide)

	case TypeSlideRemove:
		var p SlideRemovePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return fmt.Errorf("invalid payload")
		}
		if !eng.RemoveSlide(p.ID) {
			return fmt.Errorf("slide not found")
		}

	case TypeSlideUpdate:
		var p SlideUpdatePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return fmt.Errorf("invalid payload")
		}
		found := eng.UpdateSlide(p.ID, func(s *document.Slide) {
			if p.Transition != nil {
				s.Transition = *p.Transition
			}
			if p.DurationSeconds != nil {
				s.DurationSeconds = *p.DurationSeconds
			}
			if p.KeepOriginalAudio != nil {
				s.KeepOriginalAudio = *p.KeepOriginalAudio
			}
		})
		if !found {
			return fmt.Errorf("slide not found")
		}

	case TypeMusicAdd:
		var p MusicAddPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return fmt.Errorf("invalid payload")
		}
		eng.AddMusicTrack(p.AssetID, p.Name, p.DurationSeconds)

	case TypeMusicRemove:
		var p MusicRemovePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return fmt.Errorf("invalid payload")
		}
		if !eng.RemoveMusicTrack(p.ID) {
			return fmt.Errorf("track not found")
		}

	case TypeDocLoad:
		if err := eng.LoadSnapshot(msg.Payload); err != nil {
			return fmt.Errorf("invalid document: %w", err)
		}

	default:
		return fmt.Errorf("unknown message type %q", msg.Type)
	}

	return nil
}

func (h *Hub) docSyncMessage(room *Room) *Message {
	doc, err := room.engine.Snapshot()
	if err != nil {
		slog.Error("snapshot failed", "project", room.projectID, "error", err)
		return errorMessage("internal error")
	}
	payload, _ := json.Marshal(DocSyncPayload{
		Document:     doc,
		SelectedID:   room.engine.SelectedID(),
		Playing:      room.engine.Playing(),
		ClockSecs:    room.engine.CurrentTime(time.Now()),
		VideoAudible: room.engine.VideoAudible(time.Now()),
	})
	return &Message{
		Type:      TypeDocSync,
		ProjectID: room.projectID,
		Payload:   payload,
	}
}

func (h *Hub) broadcastToRoom(projectID string, msg *Message, exclude *Client) {
	h.mu.RLock()
	room, ok := h.rooms[projectID]
	if !ok {
		h.mu.RUnlock()
		return
	}
	clients := make([]*Client, 0, len(room.clients))
	for c := range room.clients {
		if c != exclude {
			clients = append(clients, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.Send(msg)
	}
}

func (h *Hub) scheduleSave(room *Room) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if room.saveTimer != nil {
		room.saveTimer.Stop()
	}
	room.saveTimer = time.AfterFunc(saveDebounce, func() {
		h.persist(room)
	})
}

func (h *Hub) persist(room *Room) {
	doc, err := room.engine.Snapshot()
	if err != nil {
		slog.Error("snapshot for save failed", "project", room.projectID, "error", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := h.save(ctx, room.projectID, doc); err != nil {
		slog.Error("save document failed", "project", room.projectID, "error", err)
		return
	}
	slog.Debug("document saved", "project", room.projectID)
}

func errorMessage(text string) *Message {
	payload, _ := json.Marshal(ErrorPayload{Error: text})
	return &Message{Type: TypeError, Payload: payload}
}
