// Package ws provides the mood circle WebSocket endpoint.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xiaot623/serenai/internal/config"
	"github.com/xiaot623/serenai/internal/domain"
	"github.com/xiaot623/serenai/internal/hub"
	"github.com/xiaot623/serenai/internal/metrics"
	"github.com/xiaot623/serenai/internal/protocol"
	"github.com/xiaot623/serenai/internal/service"
)

// Server handles WebSocket connections.
type Server struct {
	cfg      *config.Config
	hub      *hub.Hub
	service  *service.Service
	logger   *zap.Logger
	metrics  *metrics.Metrics
	upgrader websocket.Upgrader
}

// NewServer creates a new WebSocket server. m may be nil.
func NewServer(cfg *config.Config, h *hub.Hub, svc *service.Service, logger *zap.Logger, m *metrics.Metrics) *Server {
	return &Server{
		cfg:     cfg,
		hub:     h,
		service: svc,
		logger:  logger.Named("ws"),
		metrics: m,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || cfg.ClientURL == "" || cfg.ClientURL == "*" || origin == cfg.ClientURL
			},
		},
	}
}

// HandleWebSocket handles WebSocket upgrade and connection lifecycle.
func (s *Server) HandleWebSocket(c echo.Context) error {
	ws, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		s.logger.Warn("failed to upgrade websocket", zap.Error(err))
		return err
	}

	// Create and register connection
	conn := s.hub.NewConnection(ws)
	s.hub.Register(conn)

	ws.SetReadLimit(s.cfg.MaxMessageSize)

	// Start reader and writer goroutines
	go s.writePump(conn)
	go s.readPump(conn)

	return nil
}

func (s *Server) newLimiter() *rate.Limiter {
	if s.cfg.EventRate <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Limit(s.cfg.EventRate), s.cfg.EventBurst)
}

// readPump reads events from the WebSocket connection and handles each to
// completion before reading the next.
func (s *Server) readPump(conn *hub.Connection) {
	defer func() {
		s.hub.Unregister(conn)
		conn.Close()
	}()

	limiter := s.newLimiter()

	conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
	conn.Conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
		return nil
	})

	for {
		_, message, err := conn.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				s.logger.Info("websocket read error", zap.String("conn_id", conn.ID), zap.Error(err))
			}
			break
		}
		conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))

		if !limiter.Allow() {
			s.sendError(conn, "", protocol.ErrorCodeRateLimited, "too many events, slow down")
			continue
		}

		s.handleMessage(conn, message)
	}
}

// writePump writes messages to the WebSocket connection.
func (s *Server) writePump(conn *hub.Connection) {
	ticker := time.NewTicker(s.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			if !ok {
				// Hub closed the channel
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				s.logger.Info("failed to write message", zap.String("conn_id", conn.ID), zap.Error(err))
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage dispatches incoming events to the matching handler.
func (s *Server) handleMessage(conn *hub.Connection, data []byte) {
	var raw protocol.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		s.sendError(conn, "", protocol.ErrorCodeInvalidMessage, "invalid JSON message")
		return
	}
	s.metrics.Event(raw.Type)

	switch raw.Type {
	case protocol.TypeJoinCircle:
		s.handleJoin(conn, data)
	case protocol.TypeSendMessage:
		s.handleSendMessage(conn, data)
	case protocol.TypeLikeMessage:
		s.handleLike(conn, data)
	case protocol.TypeTyping:
		s.handleTyping(conn, data, protocol.TypeUserTyping)
	case protocol.TypeStopTyping:
		s.handleTyping(conn, data, protocol.TypeUserStopTyping)
	case protocol.TypeLeaveCircle:
		s.handleLeave(conn, data)
	default:
		s.sendError(conn, "", protocol.ErrorCodeInvalidMessage, "unknown message type: "+raw.Type)
	}
}

// persistContext bounds store work triggered by an event. It is detached from
// the connection so a disconnect does not cancel an in-flight write.
func (s *Server) persistContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.cfg.PersistTimeout)
}

func (s *Server) handleJoin(conn *hub.Connection, data []byte) {
	var msg protocol.JoinMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.sendError(conn, "", protocol.ErrorCodeInvalidMessage, "invalid join-mood-circle message")
		return
	}
	circleID := msg.Circle()

	ctx, cancel := s.persistContext()
	defer cancel()

	_, err := s.hub.Admit(conn, circleID, msg.AnonymousID, func(liveMembers int) error {
		return s.service.CheckJoin(ctx, circleID, msg.AnonymousID, liveMembers)
	})
	if err != nil {
		s.sendServiceError(conn, circleID, err)
		return
	}

	s.hub.BroadcastJSON(circleID, protocol.MemberEvent{
		BaseEvent:   protocol.BaseEvent{Type: protocol.TypeMemberJoined, CircleID: circleID},
		AnonymousID: msg.AnonymousID,
		Timestamp:   time.Now().UTC(),
	})

	s.service.RecordMembership(ctx, circleID, msg.AnonymousID)
	s.logger.Debug("joined circle",
		zap.String("conn_id", conn.ID),
		zap.String("circle_id", circleID),
		zap.String("anonymous_id", msg.AnonymousID))
}

func (s *Server) handleSendMessage(conn *hub.Connection, data []byte) {
	var msg protocol.SendMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.sendError(conn, "", protocol.ErrorCodeInvalidMessage, "invalid send-message message")
		return
	}
	circleID := msg.Circle()

	ctx, cancel := s.persistContext()
	defer cancel()

	stored, err := s.service.PostMessage(ctx, service.PostMessageRequest{
		CircleID:    circleID,
		AnonymousID: msg.AnonymousID,
		Text:        msg.Message,
		Emotion:     domain.Emotion(msg.Emotion),
	})
	if err != nil {
		if errors.Is(err, domain.ErrPersistenceFailed) {
			s.metrics.PersistenceFailed()
			s.logger.Error("failed to persist circle message",
				zap.String("circle_id", circleID), zap.Error(err))
		}
		s.sendServiceError(conn, circleID, err)
		return
	}
	s.metrics.MessagePersisted()

	s.hub.BroadcastJSON(circleID, protocol.NewMessageEvent{
		BaseEvent:   protocol.BaseEvent{Type: protocol.TypeNewMessage, CircleID: circleID},
		MessageID:   stored.MessageID,
		AnonymousID: stored.AnonymousID,
		Message:     stored.Text,
		Emotion:     string(stored.Emotion),
		Timestamp:   stored.CreatedAt,
	})
}

func (s *Server) handleLike(conn *hub.Connection, data []byte) {
	var msg protocol.LikeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.sendError(conn, "", protocol.ErrorCodeInvalidMessage, "invalid like-message message")
		return
	}
	circleID := msg.Circle()
	if circleID == "" {
		s.sendError(conn, "", protocol.ErrorCodeValidationFailed, "circleId: is required")
		return
	}

	ctx, cancel := s.persistContext()
	defer cancel()

	if _, err := s.service.LikeMessage(ctx, msg.MessageID); err != nil {
		if errors.Is(err, domain.ErrPersistenceFailed) {
			s.logger.Error("failed to like message",
				zap.String("message_id", msg.MessageID), zap.Error(err))
		}
		s.sendServiceError(conn, circleID, err)
		return
	}
	s.metrics.Liked()

	// Unknown ids are broadcast as well; the like is simply not stored.
	s.hub.BroadcastJSON(circleID, protocol.MessageLikedEvent{
		BaseEvent: protocol.BaseEvent{Type: protocol.TypeMessageLiked, CircleID: circleID},
		MessageID: msg.MessageID,
		Timestamp: time.Now().UTC(),
	})
}

func (s *Server) handleTyping(conn *hub.Connection, data []byte, eventType string) {
	var msg protocol.TypingMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.sendError(conn, "", protocol.ErrorCodeInvalidMessage, "invalid typing message")
		return
	}
	circleID := msg.Circle()
	if circleID == "" {
		return
	}

	s.hub.BroadcastJSONExcept(circleID, conn.ID, protocol.TypingEvent{
		BaseEvent:   protocol.BaseEvent{Type: eventType, CircleID: circleID},
		AnonymousID: msg.AnonymousID,
	})
}

func (s *Server) handleLeave(conn *hub.Connection, data []byte) {
	var msg protocol.LeaveMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.sendError(conn, "", protocol.ErrorCodeInvalidMessage, "invalid leave-mood-circle message")
		return
	}
	circleID := msg.Circle()

	pseudonym, ok := s.hub.Leave(conn, circleID)
	if !ok {
		return
	}
	if msg.AnonymousID != "" {
		pseudonym = msg.AnonymousID
	}

	s.hub.BroadcastJSON(circleID, protocol.MemberEvent{
		BaseEvent:   protocol.BaseEvent{Type: protocol.TypeMemberLeft, CircleID: circleID},
		AnonymousID: pseudonym,
		Timestamp:   time.Now().UTC(),
	})
}

// sendServiceError maps a service error to a typed error event for the sender.
func (s *Server) sendServiceError(conn *hub.Connection, circleID string, err error) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		s.sendError(conn, circleID, protocol.ErrorCodeValidationFailed, ve.Error())
	case errors.Is(err, domain.ErrJoinDenied):
		s.sendError(conn, circleID, protocol.ErrorCodeJoinDenied, err.Error())
	case errors.Is(err, domain.ErrPersistenceFailed):
		s.sendError(conn, circleID, protocol.ErrorCodePersistenceFailed, "failed to save, please try again")
	default:
		s.logger.Error("event handling failed", zap.String("conn_id", conn.ID), zap.Error(err))
		s.sendError(conn, circleID, protocol.ErrorCodeInternalError, "internal error")
	}
}

// sendError sends an error event to a connection.
func (s *Server) sendError(conn *hub.Connection, circleID, code, message string) {
	if err := s.hub.SendJSONToConnection(conn, protocol.NewError(circleID, code, message)); err != nil {
		s.logger.Info("failed to send error event", zap.String("conn_id", conn.ID), zap.Error(err))
	}
}
