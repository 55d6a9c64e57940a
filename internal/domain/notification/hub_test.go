package notification

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentnest/rentnest-api/internal/middleware"
	"github.com/rentnest/rentnest-api/internal/pkg/jwt"
)

func startHub(t *testing.T, instanceID string) *Hub {
	t.Helper()
	h := NewHubWithInstanceID(nil, instanceID)
	go h.Run()
	t.Cleanup(h.Shutdown)
	return h
}

func receive(t *testing.T, ch <-chan []byte) string {
	t.Helper()
	select {
	case msg := <-ch:
		return string(msg)
	case <-time.After(time.Second):
		t.Fatal("no message delivered")
		return ""
	}
}

func TestHubDeliversToEveryConnection(t *testing.T) {
	h := startHub(t, "a")
	userID := uuid.New()
	first := &Connection{UserID: userID, Send: make(chan []byte, 1)}
	second := &Connection{UserID: userID, Send: make(chan []byte, 1)}
	other := &Connection{UserID: uuid.New(), Send: make(chan []byte, 1)}
	h.Register(first)
	h.Register(second)
	h.Register(other)
	require.Eventually(t, func() bool { return h.ConnectionCount() == 3 }, time.Second, 5*time.Millisecond)

	require.NoError(t, h.SendToUser(userID, map[string]string{"type": "ping"}))

	assert.JSONEq(t, `{"type":"ping"}`, receive(t, first.Send))
	assert.JSONEq(t, `{"type":"ping"}`, receive(t, second.Send))
	assert.Empty(t, other.Send)

	h.Unregister(first)
	require.Eventually(t, func() bool { return h.ConnectionCount() == 2 }, time.Second, 5*time.Millisecond)
	_, open := <-first.Send
	assert.False(t, open)
	assert.True(t, h.IsConnected(userID))
}

func TestHubDropsWhenBufferFull(t *testing.T) {
	h := startHub(t, "a")
	conn := &Connection{UserID: uuid.New(), Send: make(chan []byte, 1)}
	h.Register(conn)
	require.Eventually(t, func() bool { return h.IsConnected(conn.UserID) }, time.Second, 5*time.Millisecond)

	require.NoError(t, h.SendToUser(conn.UserID, 1))
	require.NoError(t, h.SendToUser(conn.UserID, 2))

	assert.Equal(t, "1", receive(t, conn.Send))
	assert.Empty(t, conn.Send)
}

func TestHubRemoteUserEvents(t *testing.T) {
	h := startHub(t, "b")
	conn := &Connection{UserID: uuid.New(), Send: make(chan []byte, 2)}
	h.Register(conn)
	require.Eventually(t, func() bool { return h.IsConnected(conn.UserID) }, time.Second, 5*time.Millisecond)

	msg := func(sender string) string {
		out, err := wsJSON.MarshalToString(userEventMessage{
			UserID:           conn.UserID.String(),
			Payload:          []byte(`{"type":"notification:new"}`),
			SenderInstanceID: sender,
		})
		require.NoError(t, err)
		return out
	}

	h.handleUserEventPayload(msg("b"))
	assert.Empty(t, conn.Send)

	h.handleUserEventPayload(msg("a"))
	assert.JSONEq(t, `{"type":"notification:new"}`, receive(t, conn.Send))

	h.handleUserEventPayload("not json")
	assert.Empty(t, conn.Send)
}

func TestWSHandler(t *testing.T) {
	h := startHub(t, "a")
	jwtSvc := jwt.NewService("test-secret", time.Minute, time.Hour)
	srv := httptest.NewServer(NewWSHandler(h, jwtSvc, nil))
	t.Cleanup(srv.Close)
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")

	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	banned, err := jwtSvc.GenerateAccessToken(uuid.New(), middleware.RoleTenant, true)
	require.NoError(t, err)
	_, resp, err = websocket.DefaultDialer.Dial(wsURL+"?token="+banned, nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	userID := uuid.New()
	token, err := jwtSvc.GenerateAccessToken(userID, middleware.RoleTenant, false)
	require.NoError(t, err)
	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?token="+token, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return h.IsConnected(userID) }, time.Second, 5*time.Millisecond)
	require.NoError(t, h.SendToUser(userID, map[string]string{"type": "notification:new"}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"notification:new"}`, string(msg))
}
