// Package hub fans schedule-update events out to websocket clients. Clients
// subscribe to schedule dates; publishing a date notifies its subscribers.
package hub

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"patline/internal/domain"
)

// ScheduleEvent announces that a pipeline run published a schedule.
type ScheduleEvent struct {
	Date       string                    `json:"date"`
	RunID      string                    `json:"runId"`
	Special    bool                      `json:"special"`
	TripCounts map[domain.Direction]int  `json:"tripCounts"`
	Baseline   map[domain.Direction]bool `json:"baselineApplied"`
}

type Client struct {
	ID    string
	Send  chan []byte
	dates map[string]struct{}
	mu    sync.RWMutex
}

func NewClient(id string, bufferSize int) *Client {
	return &Client{
		ID:    id,
		Send:  make(chan []byte, bufferSize),
		dates: make(map[string]struct{}),
	}
}

func (c *Client) AddDates(dates []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, d := range dates {
		c.dates[d] = struct{}{}
	}
}

func (c *Client) RemoveDates(dates []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, d := range dates {
		delete(c.dates, d)
	}
}

func (c *Client) Dates() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	dates := make([]string, 0, len(c.dates))
	for d := range c.dates {
		dates = append(dates, d)
	}
	return dates
}

type Hub struct {
	mu          sync.RWMutex
	clients     map[*Client]struct{}
	dateClients map[string]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	publish    chan ScheduleEvent

	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:     make(map[*Client]struct{}),
		dateClients: make(map[string]map[*Client]struct{}),
		register:    make(chan *Client, 16),
		unregister:  make(chan *Client, 16),
		publish:     make(chan ScheduleEvent, 64),
		logger:      logger,
	}
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAllClients()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			h.mu.Unlock()
			h.logger.Debug("client registered", "client_id", client.ID, "total", len(h.clients))

		case client := <-h.unregister:
			h.removeClient(client)

		case event := <-h.publish:
			h.fanout(event)
		}
	}
}

func (h *Hub) Subscribe(client *Client, dates []string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client.AddDates(dates)
	for _, d := range dates {
		if h.dateClients[d] == nil {
			h.dateClients[d] = make(map[*Client]struct{})
		}
		h.dateClients[d][client] = struct{}{}
	}
}

func (h *Hub) Unsubscribe(client *Client, dates []string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client.RemoveDates(dates)
	for _, d := range dates {
		if h.dateClients[d] != nil {
			delete(h.dateClients[d], client)
			if len(h.dateClients[d]) == 0 {
				delete(h.dateClients, d)
			}
		}
	}
}

// Publish queues an event for fanout. Drops the event rather than blocking
// the pipeline when the queue is full.
func (h *Hub) Publish(event ScheduleEvent) {
	select {
	case h.publish <- event:
	default:
		h.logger.Warn("publish channel full, dropping schedule event", "date", event.Date)
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

type updateMessage struct {
	Type    string        `json:"type"`
	Payload ScheduleEvent `json:"payload"`
}

func (h *Hub) fanout(event ScheduleEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	subscribers, ok := h.dateClients[event.Date]
	if !ok {
		return
	}

	data, err := json.Marshal(updateMessage{Type: "schedule_update", Payload: event})
	if err != nil {
		return
	}

	for client := range subscribers {
		select {
		case client.Send <- data:
		default:
			h.logger.Debug("client send buffer full", "client_id", client.ID)
		}
	}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}

	for _, d := range client.Dates() {
		if h.dateClients[d] != nil {
			delete(h.dateClients[d], client)
			if len(h.dateClients[d]) == 0 {
				delete(h.dateClients, d)
			}
		}
	}

	delete(h.clients, client)
	close(client.Send)
	h.logger.Debug("client unregistered", "client_id", client.ID, "total", len(h.clients))
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		close(client.Send)
	}
	h.clients = make(map[*Client]struct{})
	h.dateClients = make(map[string]map[*Client]struct{})
}
