package server

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"stockflow/internal/middleware"
	"stockflow/internal/models"
	"stockflow/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	callerLocalsKey = "caller"
	wsTicketTTL     = 30 * time.Second
)

func (s *Server) tokenSettings() middleware.TokenSettings {
	return middleware.TokenSettings{
		Secret:   s.config.JWTSecret,
		Issuer:   s.config.JWTIssuer,
		Audience: s.config.JWTAudience,
	}
}

func wsTicketKey(ticket string) string {
	return fmt.Sprintf("ws_ticket:%s", ticket)
}

// AuthRequired authenticates a bearer token and stores the user id in locals.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := ""
		if parts := strings.SplitN(c.Get("Authorization"), " ", 2); len(parts) == 2 && parts[0] == "Bearer" {
			tokenString = strings.TrimSpace(parts[1])
		}
		if tokenString == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		userID, err := middleware.ParseToken(s.tokenSettings(), tokenString)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid or expired token"))
		}

		return s.continueAs(c, userID)
	}
}

// TicketRequired authenticates the websocket upgrade with a single-use ticket from
// POST /api/ws/ticket. Browsers cannot set headers on an upgrade request.
func (s *Server) TicketRequired() fiber.Handler {
	return s.authenticateTicket
}

func (s *Server) authenticateTicket(c *fiber.Ctx) error {
	ticket := c.Query("ticket")
	if ticket == "" || s.redis == nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("WebSocket ticket required"))
	}

	raw, err := s.redis.GetDel(c.UserContext(), wsTicketKey(ticket)).Result()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Invalid or expired WebSocket ticket"))
	}
	userID, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || userID == 0 {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Invalid or expired WebSocket ticket"))
	}

	return s.continueAs(c, uint(userID))
}

func (s *Server) continueAs(c *fiber.Ctx, userID uint) error {
	c.Locals("userID", userID)
	c.SetUserContext(middleware.WithUserID(c.UserContext(), userID))
	return c.Next()
}

// TenantRequired resolves the authenticated user to its company.
// Must be placed after AuthRequired.
func (s *Server) TenantRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, _ := c.Locals("userID").(uint)

		caller, err := s.identity.Resolve(c.UserContext(), userID)
		if err != nil {
			return s.respondError(c, err)
		}

		c.Locals(callerLocalsKey, caller)
		c.SetUserContext(middleware.WithCompanyID(c.UserContext(), caller.CompanyID))
		return c.Next()
	}
}

// AdminRequired rejects callers without the admin role. Must be placed after TenantRequired.
func (s *Server) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, ok := callerFrom(c)
		if !ok {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authentication required"))
		}
		if !caller.IsAdmin() {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Admin access required"))
		}
		return c.Next()
	}
}

func callerFrom(c *fiber.Ctx) (*service.Caller, bool) {
	caller, ok := c.Locals(callerLocalsKey).(*service.Caller)
	return caller, ok && caller != nil
}

// WSTicketResponse carries a single-use websocket ticket.
type WSTicketResponse struct {
	Ticket    string `json:"ticket"`
	ExpiresIn int    `json:"expires_in"`
}

// IssueWSTicket handles POST /api/ws/ticket
// @Summary Issue a websocket ticket
// @Description Returns a single-use ticket for connecting to /api/ws/events.
// @Tags realtime
// @Produce json
// @Security BearerAuth
// @Success 200 {object} WSTicketResponse
// @Failure 503 {object} models.ErrorResponse
// @Router /ws/ticket [post]
func (s *Server) IssueWSTicket(c *fiber.Ctx) error {
	if s.redis == nil {
		return models.RespondWithError(c, fiber.StatusServiceUnavailable,
			models.NewInternalError(fmt.Errorf("realtime events are unavailable")))
	}
	caller, _ := callerFrom(c)

	ticket := uuid.NewString()
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()
	if err := s.redis.Set(ctx, wsTicketKey(ticket), caller.UserID, wsTicketTTL).Err(); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
	}

	return c.JSON(WSTicketResponse{Ticket: ticket, ExpiresIn: int(wsTicketTTL.Seconds())})
}
