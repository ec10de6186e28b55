package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"patline/internal/domain"
	"patline/internal/hub"
	"patline/internal/store"
)

// WSHandler serves the schedule-update stream. Clients subscribe to schedule
// dates and receive an event whenever a pipeline run publishes one.
type WSHandler struct {
	hub       *hub.Hub
	schedules *store.ScheduleStore
	logger    *slog.Logger
}

func NewWSHandler(h *hub.Hub, s *store.ScheduleStore, logger *slog.Logger) *WSHandler {
	return &WSHandler{hub: h, schedules: s, logger: logger}
}

type WSMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type SubscribePayload struct {
	Dates []string `json:"dates"`
}

type SnapshotMessage struct {
	Type    string          `json:"type"`
	Payload SnapshotPayload `json:"payload"`
}

// SnapshotPayload reports current availability for the dates a client just
// subscribed to.
type SnapshotPayload struct {
	Schedules []ScheduleAvailability `json:"schedules"`
}

type ScheduleAvailability struct {
	Date       string                   `json:"date"`
	Loaded     bool                     `json:"loaded"`
	TripCounts map[domain.Direction]int `json:"tripCounts,omitempty"`
}

type PongMessage struct {
	Type string `json:"type"`
}

func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.logger.Error("websocket accept failed", "error", err)
		return
	}

	client := hub.NewClient(uuid.New().String(), 64)
	h.hub.Register(client)
	ServerStats.IncWSConnections()
	defer ServerStats.DecWSConnections()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	go h.writeLoop(ctx, conn, client)

	h.readLoop(ctx, conn, client)
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *hub.Client) {
	defer func() {
		h.hub.Unregister(client)
		conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		msgType, data, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != websocket.StatusNormalClosure {
				h.logger.Debug("websocket read error", "client_id", client.ID, "error", err)
			}
			return
		}

		if msgType != websocket.MessageText {
			continue
		}

		var msg WSMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			h.logger.Debug("invalid message format", "client_id", client.ID, "error", err)
			continue
		}

		switch msg.Type {
		case "subscribe":
			var payload SubscribePayload
			if err := json.Unmarshal(msg.Payload, &payload); err != nil {
				continue
			}
			if len(payload.Dates) > 0 {
				h.hub.Subscribe(client, payload.Dates)
				h.sendSnapshot(client, payload.Dates)
			}

		case "unsubscribe":
			var payload SubscribePayload
			if err := json.Unmarshal(msg.Payload, &payload); err != nil {
				continue
			}
			if len(payload.Dates) > 0 {
				h.hub.Unsubscribe(client, payload.Dates)
			}

		case "ping":
			h.sendJSON(client, PongMessage{Type: "pong"})
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *hub.Client) {
	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-client.Send:
			if !ok {
				conn.Close(websocket.StatusGoingAway, "server shutting down")
				return
			}

			writeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			err := conn.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				h.logger.Debug("websocket write error", "client_id", client.ID, "error", err)
				return
			}
		}
	}
}

func (h *WSHandler) sendSnapshot(client *hub.Client, dates []string) {
	snapshot := SnapshotPayload{}
	for _, date := range dates {
		avail := ScheduleAvailability{Date: date}
		for _, dir := range domain.Directions {
			if set, ok := h.schedules.Get(date, dir); ok {
				if avail.TripCounts == nil {
					avail.TripCounts = make(map[domain.Direction]int, 2)
				}
				avail.Loaded = true
				avail.TripCounts[dir] = len(set.Trips)
			}
		}
		snapshot.Schedules = append(snapshot.Schedules, avail)
	}

	h.sendJSON(client, SnapshotMessage{Type: "snapshot", Payload: snapshot})
}

func (h *WSHandler) sendJSON(client *hub.Client, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	select {
	case client.Send <- data:
	default:
		h.logger.Debug("client send buffer full", "client_id", client.ID)
	}
}
