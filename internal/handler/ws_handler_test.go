package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stemsi/sgpa-planner/internal/model"
	"github.com/stemsi/sgpa-planner/internal/repository"
	"github.com/stemsi/sgpa-planner/internal/semester"
	ws "github.com/stemsi/sgpa-planner/internal/websocket"
)

// fakeSubscriber hands out one in-memory subscription. onSubscribe runs once
// the subscription is open.
type fakeSubscriber struct {
	mu          sync.Mutex
	ch          chan *redis.Message
	err         error
	closed      bool
	onSubscribe func()
}

func newFakeSubscriber() *fakeSubscriber {
	return &fakeSubscriber{ch: make(chan *redis.Message, 16)}
}

func (f *fakeSubscriber) Subscribe(_ context.Context, _ int) (repository.PlannerSubscription, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.onSubscribe != nil {
		f.onSubscribe()
	}
	return f, nil
}

func (f *fakeSubscriber) Channel(...redis.ChannelOption) <-chan *redis.Message { return f.ch }

func (f *fakeSubscriber) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeSubscriber) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeSubscriber) publish(t *testing.T, event model.PlannerEvent) {
	t.Helper()
	raw, err := json.Marshal(event)
	require.NoError(t, err)
	f.ch <- &redis.Message{Payload: string(raw)}
}

func streamURL(t *testing.T, h *WSHandler, number string) string {
	t.Helper()
	r := gin.New()
	r.GET("/ws/semesters/:number/stream", withStudent(1), h.SemesterStream)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/semesters/" + number + "/stream"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func dialSemester(t *testing.T, number string) *websocket.Conn {
	t.Helper()
	planner, _ := newTestPlanner(3)
	return dial(t, streamURL(t, NewWSHandler(planner, nil, zerolog.Nop(), nil), number))
}

func readState(t *testing.T, conn *websocket.Conn) ws.StateResponse {
	t.Helper()
	var msg ws.StateResponse
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, ws.EventState, msg.Event)
	return msg
}

func readError(t *testing.T, conn *websocket.Conn) ws.ErrorResponse {
	t.Helper()
	var msg ws.ErrorResponse
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, ws.EventError, msg.Event)
	return msg
}

func TestSemesterStream_Actions(t *testing.T) {
	conn := dialSemester(t, "1")

	initial := readState(t, conn)
	assert.Len(t, initial.Semester.Rows, 1)
	assert.False(t, initial.Remote)

	require.NoError(t, conn.WriteJSON(map[string]string{"action": "ping"}))
	var pong ws.PongResponse
	require.NoError(t, conn.ReadJSON(&pong))
	assert.Equal(t, ws.EventPong, pong.Event)

	require.NoError(t, conn.WriteJSON(map[string]string{"action": "add_row"}))
	assert.Len(t, readState(t, conn).Semester.Rows, 2)

	require.NoError(t, conn.WriteJSON(map[string]interface{}{
		"action": "update_row",
		"index":  0,
		"patch":  map[string]interface{}{"module_name": "Calculus", "module_code": "MA101", "credit": 3, "grade": "A-"},
	}))
	state := readState(t, conn)
	assert.True(t, state.Semester.Changed)
	assert.InDelta(t, 3.7, state.Semester.SGPA, 1e-9)

	require.NoError(t, conn.WriteJSON(map[string]interface{}{"action": "remove_row", "index": 1}))
	assert.Len(t, readState(t, conn).Semester.Rows, 1)

	require.NoError(t, conn.WriteJSON(map[string]string{"action": "reset"}))
	state = readState(t, conn)
	assert.Zero(t, state.Semester.SGPA)
	assert.Len(t, state.Semester.Rows, 1)
}

func TestSemesterStream_Errors(t *testing.T) {
	conn := dialSemester(t, "1")
	readState(t, conn)

	require.NoError(t, conn.WriteJSON(map[string]string{"action": "explode"}))
	assert.Equal(t, "INVALID_PAYLOAD", readError(t, conn).Code)

	require.NoError(t, conn.WriteJSON(map[string]interface{}{"action": "update_row", "patch": map[string]string{"grade": "A"}}))
	assert.Equal(t, "VALIDATION_ERROR", readError(t, conn).Code)

	require.NoError(t, conn.WriteJSON(map[string]interface{}{
		"action": "update_row",
		"index":  0,
		"patch":  map[string]string{"grade": "Q"},
	}))
	assert.Equal(t, "VALIDATION_ERROR", readError(t, conn).Code)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{")))
	assert.Equal(t, "INVALID_PAYLOAD", readError(t, conn).Code)

	// max rows is 3 in these tests
	for i := 0; i < 2; i++ {
		require.NoError(t, conn.WriteJSON(map[string]string{"action": "add_row"}))
		readState(t, conn)
	}
	require.NoError(t, conn.WriteJSON(map[string]string{"action": "add_row"}))
	assert.Equal(t, "TOO_MANY_ROWS", readError(t, conn).Code)
}

func TestSemesterStream_InvalidSemesterRejectedBeforeUpgrade(t *testing.T) {
	planner, _ := newTestPlanner(3)
	sub := newFakeSubscriber()
	url := streamURL(t, NewWSHandler(planner, sub, zerolog.Nop(), nil), "42")

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 400, resp.StatusCode)
	assert.True(t, sub.isClosed())
}

func TestSemesterStream_SubscribeFailureRejectedBeforeUpgrade(t *testing.T) {
	planner, _ := newTestPlanner(3)
	sub := newFakeSubscriber()
	sub.err = errors.New("redis down")
	url := streamURL(t, NewWSHandler(planner, sub, zerolog.Nop(), nil), "1")

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 500, resp.StatusCode)
}

func TestSemesterStream_EditDuringSubscribeIsInInitialState(t *testing.T) {
	planner, _ := newTestPlanner(3)
	sub := newFakeSubscriber()
	// Another tab adds a row right after the subscription opens.
	sub.onSubscribe = func() {
		_, err := planner.Apply(context.Background(), 1, 1, semester.AddRowCommand{}, "other-tab")
		assert.NoError(t, err)
	}
	conn := dial(t, streamURL(t, NewWSHandler(planner, sub, zerolog.Nop(), nil), "1"))

	initial := readState(t, conn)
	assert.Len(t, initial.Semester.Rows, 2)
	assert.False(t, initial.Remote)
}

func TestSemesterStream_ForwardsRemoteEvents(t *testing.T) {
	planner, _ := newTestPlanner(3)
	sub := newFakeSubscriber()
	conn := dial(t, streamURL(t, NewWSHandler(planner, sub, zerolog.Nop(), nil), "1"))
	readState(t, conn)

	threeRows := semester.Rows{semester.DefaultRow(), semester.DefaultRow(), semester.DefaultRow()}
	sub.publish(t, model.PlannerEvent{Origin: "other-tab", View: model.NewSemesterView(2, threeRows, true)})
	sub.ch <- &redis.Message{Payload: "{"}
	sub.publish(t, model.PlannerEvent{Origin: "other-tab", View: model.NewSemesterView(1, threeRows, true)})

	state := readState(t, conn)
	assert.True(t, state.Remote)
	assert.Equal(t, 1, state.Semester.Number)
	assert.Len(t, state.Semester.Rows, 3)
}
