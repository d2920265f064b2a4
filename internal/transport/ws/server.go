package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Mithi83/Applied-Energistics-2/internal/ir"
)

const (
	writeTimeout = 5 * time.Second
	readTimeout  = 60 * time.Second
)

// Server upgrades HTTP requests to websocket subscriptions on a Bridge.
type Server struct {
	bridge *Bridge
	logger *slog.Logger

	upgrader websocket.Upgrader
}

// NewServer creates a server for bridge.
func NewServer(bridge *Bridge, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		bridge: bridge,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Handler serves one websocket connection per request. Each SUBSCRIBE
// message replaces the client's interest and is answered with WELCOME;
// invalid messages are answered with ERROR.
func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			s.logger.Debug("websocket upgrade failed", "error", err)
			return
		}
		defer conn.Close()

		c := s.bridge.connect(uuid.NewString())
		defer s.bridge.disconnect(c)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b := <-c.out:
					_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		for {
			_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
			_, raw, err := conn.ReadMessage()
			if err != nil {
				return
			}
			reply := s.handle(c, raw)
			b, err := json.Marshal(reply)
			if err != nil {
				return
			}
			select {
			case c.out <- b:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (s *Server) handle(c *client, raw []byte) any {
	msg, err := decodeSubscribe(raw)
	if err != nil {
		return ErrorMsg{Type: TypeError, Message: err.Error()}
	}
	keys := make([]ir.Key, 0, len(msg.Keys))
	for _, name := range msg.Keys {
		k, err := ir.ParseKey(name)
		if err != nil {
			return ErrorMsg{Type: TypeError, Message: fmt.Sprintf("invalid key: %v", err)}
		}
		keys = append(keys, k)
	}
	c.subscribe(keys, msg.All)

	ir.SortKeys(keys)
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = k.String()
	}
	s.logger.Debug("websocket subscription updated", "client", c.id, "keys", len(keys), "all", msg.All)
	return WelcomeMsg{Type: TypeWelcome, ClientID: c.id, Keys: names, All: msg.All}
}
