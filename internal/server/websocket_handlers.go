package server

import (
	"context"
	"log/slog"
	"time"

	"stockflow/internal/middleware"
	"stockflow/internal/observability"
	"stockflow/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

const wsWriteTimeout = 5 * time.Second

// eventSink is the write side of a websocket connection.
type eventSink interface {
	WriteMessage(messageType int, data []byte) error
}

func requireWebSocketUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// WebSocketEventsHandler handles GET /api/ws/events
// @Summary Purchase request event feed
// @Description Streams {type, payload} envelopes for the caller's company. Authenticate with ?ticket= from POST /ws/ticket.
// @Tags realtime
// @Param ticket query string true "Single-use ticket"
// @Router /ws/events [get]
func (s *Server) WebSocketEventsHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		defer func() { _ = conn.Close() }()

		caller, ok := conn.Locals(callerLocalsKey).(*service.Caller)
		if !ok || caller == nil {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"unauthorized"}`))
			return
		}

		ctx, cancel := context.WithCancel(s.baseContext())
		defer cancel()

		observability.EventSubscribers.Inc()
		defer observability.EventSubscribers.Dec()

		if err := s.streamCompanyEvents(ctx, caller.CompanyID, conn, cancel); err != nil {
			middleware.Logger.Warn("event feed subscription failed",
				slog.Uint64("company_id", uint64(caller.CompanyID)),
				slog.String("error", err.Error()),
			)
			return
		}
		middleware.Logger.Info("event feed connected",
			slog.Uint64("user_id", uint64(caller.UserID)),
			slog.Uint64("company_id", uint64(caller.CompanyID)),
		)

		// Incoming frames are ignored; reading detects the client going away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
}

// streamCompanyEvents forwards every event of companyID to sink until ctx is done.
// A failed write calls stop.
func (s *Server) streamCompanyEvents(ctx context.Context, companyID uint, sink eventSink, stop context.CancelFunc) error {
	return s.notifier.SubscribeCompany(ctx, companyID, func(payload string) {
		if conn, ok := sink.(*websocket.Conn); ok {
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		}
		if err := sink.WriteMessage(websocket.TextMessage, []byte(payload)); err != nil {
			stop()
		}
	})
}
