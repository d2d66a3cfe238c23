package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/coder/websocket"
)

const (
	writeWait   = 10 * time.Second
	pingPeriod  = 30 * time.Second
	maxMsgBytes = 1 << 20
	outboxSize  = 256
)

// Client is one websocket connection inside an editing room. Reads decode
// edit operations and hand them to the hub; writes drain a bounded outbox,
// so one stalled connection never blocks the room's broadcasts.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	outbox chan []byte
	log    *slog.Logger

	UserID      string
	DisplayName string
	ProjectID   string
	ClientID    string
}

func NewClient(hub *Hub, conn *websocket.Conn, userID, displayName, projectID, clientID string) *Client {
	return &Client{
		hub:         hub,
		conn:        conn,
		outbox:      make(chan []byte, outboxSize),
		log:         slog.With("project", projectID, "user", userID, "client", clientID),
		UserID:      userID,
		DisplayName: displayName,
		ProjectID:   projectID,
		ClientID:    clientID,
	}
}

func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	c.conn.SetReadLimit(maxMsgBytes)

	for {
		msg, err := c.readMessage(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway {
				c.log.Debug("read error", "error", err)
			}
			return
		}
		if msg == nil {
			continue
		}
		c.hub.handleMessage(c, msg)
	}
}

// readMessage decodes one inbound frame. Malformed JSON is reported back to
// the sender and skipped; a nil, nil return means "nothing to apply".
func (c *Client) readMessage(ctx context.Context) (*Message, error) {
	_, data, err := c.conn.Read(ctx)
	if err != nil {
		return nil, err
	}

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		c.log.Warn("malformed message dropped", "error", err)
		c.Send(errorMessage("malformed message"))
		return nil, nil
	}

	// Identity is server-assigned: a client cannot speak for another user
	// or inject into another project's room.
	msg.UserID = c.UserID
	msg.ClientID = c.ClientID
	msg.ProjectID = c.ProjectID
	return &msg, nil
}

func (c *Client) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		select {
		case data, ok := <-c.outbox:
			if !ok {
				return
			}
			if err := c.writeFrame(ctx, data); err != nil {
				c.log.Debug("write error", "error", err)
				return
			}

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}

		case <-ctx.Done():
			return
		}
	}
}

func (c *Client) writeFrame(ctx context.Context, data []byte) error {
	writeCtx, cancel := context.WithTimeout(ctx, writeWait)
	defer cancel()
	return c.conn.Write(writeCtx, websocket.MessageText, data)
}

// Send queues a message for this client, dropping it when the outbox is
// full. Every drop is recoverable: the next doc.sync carries the complete
// state again.
func (c *Client) Send(msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		c.log.Error("marshal message", "error", err)
		return
	}

	select {
	case c.outbox <- data:
	default:
		c.log.Warn("outbox full, dropping message", "type", msg.Type)
	}
}
