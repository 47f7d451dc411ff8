package collab

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/reframe/reframe/backend-go/internal/document"
)

// DocLoader fetches the persisted layout for a room's first client.
type DocLoader func(ctx context.Context, layoutID string) (*document.LayoutDefinition, error)

// DocSaver persists the room's layout when the last client leaves.
type DocSaver func(ctx context.Context, doc *document.LayoutDefinition) error

type Room struct {
	layoutID string
	clients  map[string]*Client // clientID -> client
	presence *PresenceManager
	state    *DocumentState
}

func NewRoom(layoutID string, doc *document.LayoutDefinition) *Room {
	return &Room{
		layoutID: layoutID,
		clients:  make(map[string]*Client),
		presence: NewPresenceManager(),
		state:    NewDocumentState(doc),
	}
}

type Hub struct {
	mu         sync.RWMutex
	rooms      map[string]*Room // layoutID -> room
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	load DocLoader
	save DocSaver
}

func NewHub(load DocLoader, save DocSaver) *Hub {
	return &Hub{
		rooms:      make(map[string]*Room),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		load:       load,
		save:       save,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case <-h.done:
			return
		}
	}
}

func (h *Hub) Stop() {
	close(h.done)
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.LayoutID]
	if !ok {
		doc, err := h.load(context.Background(), client.LayoutID)
		if err != nil {
			h.mu.Unlock()
			slog.Error("load layout for room", "layout", client.LayoutID, "error", err)
			h.sendError(client, "layout unavailable")
			return
		}
		room = NewRoom(client.LayoutID, doc)
		h.rooms[client.LayoutID] = room
	}
	room.clients[client.ClientID] = client
	h.mu.Unlock()

	// New client gets the authoritative document, then the presence roster.
	h.sendDocSync(client, room)
	if stateMsg := room.presence.StateMessage(); stateMsg != nil {
		client.Send(stateMsg)
	}

	joinPayload, _ := json.Marshal(PresenceJoinPayload{
		UserID:      client.UserID,
		DisplayName: client.DisplayName,
	})
	joinMsg := &Message{
		Type:    TypePresenceJoin,
		UserID:  client.UserID,
		Payload: joinPayload,
	}
	h.broadcastToRoom(client.LayoutID, joinMsg, client.ClientID)

	slog.Info("client joined", "user", client.UserID, "layout", client.LayoutID)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.LayoutID]
	if !ok {
		h.mu.Unlock()
		return
	}
	if _, ok := room.clients[client.ClientID]; !ok {
		h.mu.Unlock()
		return
	}

	delete(room.clients, client.ClientID)
	close(client.send)
	room.presence.Remove(client.UserID)

	empty := len(room.clients) == 0
	if empty {
		delete(h.rooms, client.LayoutID)
	}
	h.mu.Unlock()

	if empty {
		if err := h.save(context.Background(), room.state.Snapshot()); err != nil {
			slog.Error("save layout on room close", "layout", room.layoutID, "error", err)
		}
	}

	leavePayload, _ := json.Marshal(PresenceLeavePayload{
		UserID: client.UserID,
	})
	leaveMsg := &Message{
		Type:    TypePresenceLeave,
		UserID:  client.UserID,
		Payload: leavePayload,
	}
	h.broadcastToRoom(client.LayoutID, leaveMsg, "")

	slog.Info("client left", "user", client.UserID, "layout", client.LayoutID)
}

func (h *Hub) handleMessage(sender *Client, msg *Message) {
	switch msg.Type {
	case TypePresenceUpdate:
		h.handlePresenceUpdate(sender, msg)
	case TypeOpSubmit:
		h.handleOpSubmit(sender, msg)
	default:
		slog.Warn("unknown message type", "type", msg.Type, "user", sender.UserID)
	}
}

func (h *Hub) handlePresenceUpdate(sender *Client, msg *Message) {
	var presence PresencePayload
	if err := json.Unmarshal(msg.Payload, &presence); err != nil {
		slog.Warn("invalid presence payload", "error", err)
		return
	}

	presence.DisplayName = sender.DisplayName

	room := h.room(sender.LayoutID)
	if room == nil {
		return
	}

	room.presence.Update(sender.UserID, &presence)

	outPayload, _ := json.Marshal(presence)
	outMsg := &Message{
		Type:    TypePresenceUpdate,
		UserID:  sender.UserID,
		Payload: outPayload,
	}
	h.broadcastToRoom(sender.LayoutID, outMsg, sender.ClientID)
}

func (h *Hub) handleOpSubmit(sender *Client, msg *Message) {
	var payload OperationSubmitPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		slog.Warn("invalid op payload", "error", err, "user", sender.UserID)
		h.sendError(sender, "invalid operation payload")
		return
	}
	op := payload.Operation

	room := h.room(sender.LayoutID)
	if room == nil {
		h.sendError(sender, "room not found")
		return
	}

	serverSeq, err := room.state.ApplyOperation(op)
	if err != nil {
		slog.Debug("operation rejected", "op", op.Type, "user", sender.UserID, "error", err)
		nackPayload, _ := json.Marshal(OperationNackPayload{
			OperationID: op.ID,
			Reason:      err.Error(),
		})
		sender.Send(&Message{Type: TypeOpNack, Payload: nackPayload})
		return
	}

	ackPayload, _ := json.Marshal(OperationAckPayload{
		OperationID:     op.ID,
		ServerSeq:       serverSeq,
		ServerTimestamp: GetServerTimestamp(),
	})
	sender.Send(&Message{Type: TypeOpAck, Payload: ackPayload})

	broadcastPayload, _ := json.Marshal(OperationBroadcastPayload{
		Operation: op,
		UserID:    sender.UserID,
		ServerSeq: serverSeq,
	})
	h.broadcastToRoom(sender.LayoutID, &Message{
		Type:    TypeOpBroadcast,
		UserID:  sender.UserID,
		Payload: broadcastPayload,
	}, sender.ClientID)
}

func (h *Hub) sendDocSync(client *Client, room *Room) {
	docJSON, err := json.Marshal(room.state.Snapshot())
	if err != nil {
		slog.Error("marshal layout for sync", "layout", room.layoutID, "error", err)
		return
	}
	payload, _ := json.Marshal(DocSyncPayload{
		Document:  docJSON,
		ServerSeq: room.state.ServerSeq(),
	})
	client.Send(&Message{Type: TypeDocSync, Payload: payload})
}

func (h *Hub) sendError(client *Client, reason string) {
	payload, _ := json.Marshal(ErrorPayload{Message: reason})
	client.Send(&Message{Type: TypeError, Payload: payload})
}

func (h *Hub) room(layoutID string) *Room {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.rooms[layoutID]
}

func (h *Hub) broadcastToRoom(layoutID string, msg *Message, excludeClientID string) {
	h.mu.RLock()
	room, ok := h.rooms[layoutID]
	if !ok {
		h.mu.RUnlock()
		return
	}

	clients := make([]*Client, 0, len(room.clients))
	for _, c := range room.clients {
		if c.ClientID != excludeClientID {
			clients = append(clients, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.Send(msg)
	}
}
