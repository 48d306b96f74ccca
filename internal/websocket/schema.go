package websocket

import (
	"github.com/stemsi/sgpa-planner/internal/model"
)

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionAddRow    Action = "add_row"
	ActionUpdateRow Action = "update_row"
	ActionRemoveRow Action = "remove_row"
	ActionReset     Action = "reset"
	ActionPing      Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// UpdateRowRequest edits one row of the streamed semester.
type UpdateRowRequest struct {
	Action Action                 `json:"action"`
	Index  *int                   `json:"index" binding:"required,gte=0"`
	Patch  model.UpdateRowRequest `json:"patch"`
}

// RemoveRowRequest removes one row of the streamed semester.
type RemoveRowRequest struct {
	Action Action `json:"action"`
	Index  *int   `json:"index" binding:"required,gte=0"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventState Event = "state"
	EventError Event = "error"
	EventPong  Event = "pong"
)

// StateResponse carries the full semester after a change or on connect.
// Remote is true when the change came from another connection.
type StateResponse struct {
	Event    Event              `json:"event"`
	Remote   bool               `json:"remote"`
	Semester model.SemesterView `json:"semester"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Code  string `json:"code"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
