package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/sgpa-planner/internal/middleware"
	"github.com/stemsi/sgpa-planner/internal/model"
	"github.com/stemsi/sgpa-planner/internal/repository"
	"github.com/stemsi/sgpa-planner/internal/response"
	"github.com/stemsi/sgpa-planner/internal/semester"
	"github.com/stemsi/sgpa-planner/internal/service"
	"github.com/stemsi/sgpa-planner/internal/validator"
	ws "github.com/stemsi/sgpa-planner/internal/websocket"
)

// PlannerSubscriber opens the student's planner event channel.
type PlannerSubscriber interface {
	Subscribe(ctx context.Context, studentID int) (repository.PlannerSubscription, error)
}

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams one semester sheet over a WebSocket. Edits arrive as
// actions; every resulting state is pushed back, including changes made by
// the same student from other tabs or the REST API.
type WSHandler struct {
	planner    *service.PlannerService
	subscriber PlannerSubscriber
	log        zerolog.Logger
	upgrader   websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(planner *service.PlannerService, subscriber PlannerSubscriber, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		planner:    planner,
		subscriber: subscriber,
		log:        log.With().Str("component", "ws_handler").Logger(),
		upgrader:   buildUpgrader(allowedOrigins),
	}
}

// SemesterStream godoc
// WS /ws/v1/planner/semesters/:number/stream
func (h *WSHandler) SemesterStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	number, err := strconv.Atoi(c.Param("number"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidSemester)
		return
	}

	studentID := claims.UserID
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Subscribe before loading so an edit landing in between is still
	// delivered. Both happen before the upgrade so failures are plain HTTP.
	var sub repository.PlannerSubscription
	if h.subscriber != nil {
		sub, err = h.subscriber.Subscribe(c.Request.Context(), studentID)
		if err != nil {
			h.log.Error().Err(err).Msg("Subscribe planner channel failed")
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
			return
		}
		defer sub.Close()
	}

	view, err := h.planner.GetSemester(c.Request.Context(), studentID, number)
	if err != nil {
		if errors.Is(err, service.ErrInvalidSemester) {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidSemester)
			return
		}
		h.log.Error().Err(err).Msg("Load semester failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	raw, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	conn := ws.NewConn(raw)
	defer conn.Close()

	connID := uuid.NewString()
	wsLog := h.log.With().
		Int("student_id", studentID).
		Int("semester", number).
		Str("conn_id", connID).
		Logger()

	wsLog.Info().Msg("Student connected")

	if err := conn.WriteTyped(ws.StateResponse{Event: ws.EventState, Semester: view}); err != nil {
		return
	}

	// Events buffered since Subscribe are relayed after the initial state.
	if sub != nil {
		go h.forward(ctx, conn, sub, wsLog, connID, number)
	}

	for {
		data, err := conn.ReadFrame()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		var env ws.RequestEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			_ = conn.WriteError(string(response.ErrInvalidPayload), response.GetMessage(response.ErrInvalidPayload))
			continue
		}

		if env.Action == ws.ActionPing {
			_ = conn.WriteTyped(ws.PongResponse{Event: ws.EventPong})
			continue
		}

		cmd, code, msg := decodeCommand(env.Action, data)
		if cmd == nil {
			_ = conn.WriteError(string(code), msg)
			continue
		}

		next, err := h.planner.Apply(ctx, studentID, number, cmd, connID)
		if err != nil {
			code := wsErrorCode(err)
			if code == response.ErrInternal {
				wsLog.Error().Err(err).Str("action", string(env.Action)).Msg("Apply failed")
			}
			_ = conn.WriteError(string(code), response.GetMessage(code))
			continue
		}

		if err := conn.WriteTyped(ws.StateResponse{Event: ws.EventState, Semester: next}); err != nil {
			return
		}
	}
}

// forward relays planner events for this semester that other connections
// caused.
func (h *WSHandler) forward(ctx context.Context, conn *ws.Conn, sub repository.PlannerSubscription, log zerolog.Logger, connID string, number int) {
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var event model.PlannerEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Warn().Err(err).Msg("Malformed planner event")
				continue
			}
			if event.Origin == connID || event.View.Number != number {
				continue
			}
			if err := conn.WriteTyped(ws.StateResponse{Event: ws.EventState, Remote: true, Semester: event.View}); err != nil {
				return
			}
		}
	}
}

// decodeCommand turns a client frame into a calculator command. On failure
// the command is nil and code/msg describe the problem.
func decodeCommand(action ws.Action, data []byte) (semester.Command, response.ErrCode, string) {
	switch action {
	case ws.ActionAddRow:
		return semester.AddRowCommand{}, "", ""

	case ws.ActionReset:
		return semester.ResetCommand{}, "", ""

	case ws.ActionUpdateRow:
		var req ws.UpdateRowRequest
		if code, msg := decodeFrame(data, &req); code != "" {
			return nil, code, msg
		}
		return semester.UpdateRowCommand{Index: *req.Index, Patch: req.Patch.Patch()}, "", ""

	case ws.ActionRemoveRow:
		var req ws.RemoveRowRequest
		if code, msg := decodeFrame(data, &req); code != "" {
			return nil, code, msg
		}
		return semester.RemoveRowCommand{Index: *req.Index}, "", ""

	default:
		return nil, response.ErrInvalidPayload, "unknown action: " + string(action)
	}
}

// decodeFrame unmarshals and validates a frame with the same rules as the
// REST binding.
func decodeFrame(data []byte, dst interface{}) (response.ErrCode, string) {
	if err := json.Unmarshal(data, dst); err != nil {
		return response.ErrInvalidPayload, response.GetMessage(response.ErrInvalidPayload)
	}
	if err := binding.Validator.ValidateStruct(dst); err != nil {
		fields := validator.TranslateErrors(err)
		parts := make([]string, 0, len(fields))
		for _, m := range fields {
			parts = append(parts, m)
		}
		sort.Strings(parts)
		return response.ErrValidation, strings.Join(parts, "; ")
	}
	return "", ""
}

func wsErrorCode(err error) response.ErrCode {
	switch {
	case errors.Is(err, service.ErrInvalidSemester):
		return response.ErrInvalidSemester
	case errors.Is(err, service.ErrTooManyRows):
		return response.ErrTooManyRows
	default:
		return response.ErrInternal
	}
}
