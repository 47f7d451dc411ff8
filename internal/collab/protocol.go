package collab

import "encoding/json"

type Message struct {
	Type     string          `json:"type"`
	LayoutID string          `json:"layoutId,omitempty"`
	ClientID string          `json:"clientId,omitempty"`
	UserID   string          `json:"userId,omitempty"`
	Seq      int64           `json:"seq,omitempty"`
	Payload  json.RawMessage `json:"payload"`
}

type PresencePayload struct {
	Cursor      *CursorPos `json:"cursor,omitempty"`
	Selection   []string   `json:"selection,omitempty"`
	Dragging    bool       `json:"dragging,omitempty"`
	DisplayName string     `json:"displayName,omitempty"`
}

// CursorPos is a pointer position in canvas fractions.
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

const (
	TypePresenceUpdate = "presence.update"
	TypePresenceState  = "presence.state"
	TypePresenceJoin   = "presence.join"
	TypePresenceLeave  = "presence.leave"
	TypeError          = "error"

	// Connection
	TypeWelcome = "welcome"

	// Document sync
	TypeDocSync = "doc.sync"

	// Operation message types
	TypeOpSubmit    = "op.submit"
	TypeOpAck       = "op.ack"
	TypeOpNack      = "op.nack"
	TypeOpBroadcast = "op.broadcast"
)

// Operation kinds understood by DocumentState.
const (
	OpItemTransform = "item.transform"
	OpItemCrop      = "item.crop"
	OpItemCreate    = "item.create"
	OpItemDelete    = "item.delete"
	OpItemZOrder    = "item.zorder"
	OpItemOpacity   = "item.opacity"
	OpCanvasUpdate  = "canvas.update"
	OpLayoutRename  = "layout.rename"
)

// Operation represents one layout mutation submitted by a client.
type Operation struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
	ClientSeq int64  `json:"clientSeq"`
	ItemID    string `json:"itemId,omitempty"`

	// For item.transform / item.crop
	Frame    json.RawMessage `json:"frame,omitempty"`
	Previous json.RawMessage `json:"previous,omitempty"`

	// For item.create
	Item json.RawMessage `json:"item,omitempty"`

	// For item.delete
	PreviousItem json.RawMessage `json:"previousItem,omitempty"`

	// For item.zorder
	Direction string `json:"direction,omitempty"` // "forward" | "backward"

	// For item.opacity
	Opacity *float64 `json:"opacity,omitempty"`

	// For canvas.update
	Changes json.RawMessage `json:"changes,omitempty"`

	// For layout.rename
	Name         string `json:"name,omitempty"`
	PreviousName string `json:"previousName,omitempty"`
}

// OperationSubmitPayload is the payload for op.submit messages
type OperationSubmitPayload struct {
	Operation Operation `json:"operation"`
}

// OperationAckPayload is the payload for op.ack messages
type OperationAckPayload struct {
	OperationID     string `json:"operationId"`
	ServerSeq       int64  `json:"serverSeq"`
	ServerTimestamp int64  `json:"serverTimestamp"`
}

// OperationNackPayload is the payload for op.nack messages
type OperationNackPayload struct {
	OperationID string `json:"operationId"`
	Reason      string `json:"reason"`
}

// OperationBroadcastPayload is the payload for op.broadcast messages
type OperationBroadcastPayload struct {
	Operation Operation `json:"operation"`
	UserID    string    `json:"userId"`
	ServerSeq int64     `json:"serverSeq"`
}

// DocSyncPayload carries the full authoritative document.
type DocSyncPayload struct {
	Document  json.RawMessage `json:"document"`
	ServerSeq int64           `json:"serverSeq"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
