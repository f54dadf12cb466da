package server

import (
	"net/http"
	"strings"
	"time"

	"ghostchat/protocol"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Браузерные клиенты ходят с любых origin, доступ режется на уровне CORS-списка
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleWebSocket runs the per-connection relay loop. The connection enters
// OPEN once registered; there is no idle timeout, a silent connection lives
// until the transport fails. Any read error takes the single cleanup path.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	anonymousID := mux.Vars(r)["anonymous_id"]

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", zap.String("user", anonymousID), zap.Error(err))
		return
	}

	client := NewClient(anonymousID, conn, s.config.WriteTimeout)
	s.registry.Register(anonymousID, client)

	defer func() {
		conn.Close()
		// Conditional unregister keeps a stale loop from evicting a
		// replacement connection for the same id.
		if s.registry.Unregister(anonymousID, client) {
			s.registry.BroadcastStatus(anonymousID, protocol.StatusOffline)
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				s.logger.Warn("websocket read error", zap.String("user", anonymousID), zap.Error(err))
			}
			return
		}

		ev, err := protocol.Decode(data)
		if err != nil {
			// Битый кадр не роняет соединение
			continue
		}

		s.dispatch(client, ev)
	}
}

func (s *Server) dispatch(c *Client, ev *protocol.ClientEvent) {
	switch ev.Type {
	case protocol.TypeMessage:
		s.relayMessage(c, ev)
	case protocol.TypeTyping:
		s.relayTyping(c, ev)
	case protocol.TypePing:
		if err := c.Send(protocol.NewPong()); err != nil {
			s.logger.Debug("pong send failed", zap.String("user", c.ID), zap.Error(err))
		}
	default:
		// Незнакомые типы молча игнорируются
	}
}

// relayMessage forwards a text message and always answers the sender with a
// delivery receipt. A missing recipient or an all-whitespace text drops the
// event entirely, receipt included.
func (s *Server) relayMessage(c *Client, ev *protocol.ClientEvent) {
	text := strings.TrimSpace(ev.Text)
	if ev.RecipientID == "" || text == "" {
		return
	}

	// Отправка сообщения сбрасывает индикатор набора для этого получателя
	s.typing.Set(c.ID, ev.RecipientID, false)

	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	delivered := s.registry.Deliver(ev.RecipientID, protocol.NewMessage(c.ID, text, timestamp))
	s.metrics.MessagesRelayed.Inc()

	if err := c.Send(protocol.NewMessageSent(ev.RecipientID, delivered, timestamp)); err != nil {
		s.logger.Error("receipt send failed", zap.String("user", c.ID), zap.Error(err))
	}
}

func (s *Server) relayTyping(c *Client, ev *protocol.ClientEvent) {
	if ev.RecipientID == "" {
		return
	}

	isTyping := ev.Typing()
	s.typing.Set(c.ID, ev.RecipientID, isTyping)
	s.registry.Deliver(ev.RecipientID, protocol.NewTyping(c.ID, isTyping))
}
