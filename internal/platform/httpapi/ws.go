package httpapi

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/vovakirdan/tile2048/internal/games/t2048/engine"
	"github.com/vovakirdan/tile2048/internal/session"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 50 * time.Second
	maxMessageSize = 1024
)

// wsMessage is both directions of the socket protocol. The server sends
// "state", "game_ended" and "error"; clients send "move", "restart" and
// "ping".
type wsMessage struct {
	Type      string `json:"type"`
	Direction string `json:"direction,omitempty"`
	Data      any    `json:"data,omitempty"`
	Error     string `json:"error,omitempty"`
}

func eventMessage(evt session.Event) wsMessage {
	msg := wsMessage{Type: evt.Kind()}
	switch e := evt.(type) {
	case session.StateEvent:
		msg.Data = e.Snapshot
	case session.GameEndedEvent:
		msg.Data = e.End
	}
	return msg
}

func (s *Server) handleWS(c *gin.Context) {
	id := session.ID(c.Param("id"))
	sub, err := s.sessions.Subscribe(id)
	if err != nil {
		s.fail(c, err)
		return
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		sub.Close()
		s.logger.Warn("websocket upgrade failed", "session", id, "err", err)
		return
	}
	s.logger.Debug("websocket connected", "session", id)

	replies := make(chan wsMessage, 8)
	go s.wsWritePump(conn, sub, replies)
	s.wsReadPump(c, conn, id, replies)
	sub.Close()
}

// wsReadPump handles client commands until the connection fails.
func (s *Server) wsReadPump(c *gin.Context, conn *websocket.Conn, id session.ID, replies chan<- wsMessage) {
	defer conn.Close()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("websocket read failed", "session", id, "err", err)
			}
			return
		}

		var msg wsMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			reply(replies, wsMessage{Type: "error", Error: errBadRequest.Error()})
			continue
		}

		switch msg.Type {
		case "move":
			dir, err := engine.ParseDirection(msg.Direction)
			if err != nil {
				reply(replies, wsMessage{Type: "error", Error: err.Error()})
				continue
			}
			// state changes arrive through the subscription
			if _, err := s.move(c, id, dir); err != nil {
				reply(replies, wsMessage{Type: "error", Error: err.Error()})
				if errors.Is(err, session.ErrNotFound) {
					return
				}
			}
		case "restart":
			if _, err := s.sessions.Restart(c.Request.Context(), id); err != nil {
				reply(replies, wsMessage{Type: "error", Error: err.Error()})
			}
		case "ping":
			reply(replies, wsMessage{Type: "pong"})
		default:
			reply(replies, wsMessage{Type: "error", Error: "unknown message type " + msg.Type})
		}
	}
}

func reply(ch chan<- wsMessage, msg wsMessage) {
	select {
	case ch <- msg:
	default:
	}
}

// wsWritePump is the only writer on conn.
func (s *Server) wsWritePump(conn *websocket.Conn, sub *session.Subscription, replies <-chan wsMessage) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	write := func(msg wsMessage) bool {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteJSON(msg) == nil
	}

	for {
		select {
		case evt := <-sub.Events():
			if !write(eventMessage(evt)) {
				return
			}
		case msg := <-replies:
			if !write(msg) {
				return
			}
		case <-sub.Done():
			// flush what the session sent before it closed
		flush:
			for {
				select {
				case evt := <-sub.Events():
					if !write(eventMessage(evt)) {
						return
					}
				default:
					break flush
				}
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session ended"))
			return
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
