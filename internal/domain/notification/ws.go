package notification

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/rentnest/rentnest-api/internal/pkg/jwt"
	"github.com/rentnest/rentnest-api/internal/pkg/response"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
	sendBuffer     = 256
)

// WSHandler upgrades authenticated clients and attaches them to the hub.
// Browsers cannot set headers on the handshake, so the access token may also
// come in the token query parameter.
type WSHandler struct {
	hub      *Hub
	jwt      *jwt.Service
	upgrader websocket.Upgrader
}

// NewWSHandler creates the websocket handler. An empty allowedOrigins list
// accepts any origin.
func NewWSHandler(hub *Hub, jwtService *jwt.Service, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		hub: hub,
		jwt: jwtService,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if len(allowedOrigins) == 0 {
					return true
				}
				origin := r.Header.Get("Origin")
				for _, allowed := range allowedOrigins {
					if allowed == "*" || origin == allowed {
						return true
					}
				}
				log.Warn().Str("origin", origin).Msg("websocket origin rejected")
				return false
			},
		},
	}
}

func accessToken(r *http.Request) string {
	if t := r.URL.Query().Get("token"); t != "" {
		return t
	}
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return parts[1]
	}
	return ""
}

// ServeHTTP handles GET /ws
func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := accessToken(r)
	if token == "" {
		response.Unauthorized(w, "Authentication required")
		return
	}
	claims, err := h.jwt.ValidateAccessToken(token)
	if err != nil {
		if errors.Is(err, jwt.ErrExpiredToken) {
			response.Unauthorized(w, "Token expired")
		} else {
			response.Unauthorized(w, "Invalid token")
		}
		return
	}
	if claims.IsBanned {
		response.Forbidden(w, "Your account has been banned")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := &Connection{
		UserID: claims.UserID,
		Conn:   conn,
		Send:   make(chan []byte, sendBuffer),
	}
	h.hub.Register(client)

	go h.reader(client)
	go h.writer(client)
}

// reader only services control frames; clients have nothing to send.
func (h *WSHandler) reader(client *Connection) {
	defer func() {
		h.hub.Unregister(client)
		client.Conn.Close()
	}()

	client.Conn.SetReadLimit(maxMessageSize)
	_ = client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	client.Conn.SetPongHandler(func(string) error {
		return client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := client.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Str("user_id", client.UserID.String()).Msg("websocket read error")
			}
			return
		}
	}
}

func (h *WSHandler) writer(client *Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.Send:
			_ = client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
