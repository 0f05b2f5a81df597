package server

import (
	"errors"
	"log/slog"

	"stockflow/internal/middleware"
	"stockflow/internal/models"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten signals that a helper already wrote the response.
// Handlers return nil when they see it.
var errResponseWritten = errors.New("response already written")

// Pagination holds parsed limit/offset query parameters.
type Pagination struct {
	Limit  int
	Offset int
}

const maxPaginationLimit = 200

func parsePagination(c *fiber.Ctx, defaultLimit int) Pagination {
	limit := c.QueryInt("limit", defaultLimit)
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxPaginationLimit {
		limit = maxPaginationLimit
	}

	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	return Pagination{Limit: limit, Offset: offset}
}

// parseID extracts a positive route parameter. On failure it writes a 400 response
// and returns errResponseWritten.
func parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid ID"))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// statusForError maps an AppError code to its HTTP status.
// Missing requests and items answer 400 so other tenants cannot probe for ids.
func statusForError(err error) int {
	switch models.ErrorCode(err) {
	case models.CodeUnauthorized, models.CodeUserNotFound:
		return fiber.StatusUnauthorized
	case models.CodeForbidden:
		return fiber.StatusForbidden
	case models.CodeValidation, models.CodeNotFound, models.CodeInvalidTransition, models.CodeConflict:
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

func (s *Server) respondError(c *fiber.Ctx, err error) error {
	status := statusForError(err)
	if status == fiber.StatusInternalServerError && models.ErrorCode(err) == "" {
		err = models.NewInternalError(err)
	}
	if cause := errors.Unwrap(err); cause != nil {
		middleware.Logger.WarnContext(c.UserContext(), "request failed",
			slog.String("code", models.ErrorCode(err)),
			slog.String("path", c.Path()),
			slog.String("error", err.Error()),
		)
	}
	return models.RespondWithError(c, status, err)
}
