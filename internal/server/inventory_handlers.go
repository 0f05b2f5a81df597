package server

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// GetInventoryItems handles GET /api/inventory/items
// @Summary List inventory items
// @Description Items of the caller's company, optionally filtered by name or asset code. low_stock marks items under their minimum level.
// @Tags inventory
// @Produce json
// @Security BearerAuth
// @Param search query string false "Name or asset code fragment"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {array} service.InventoryItemView
// @Router /inventory/items [get]
func (s *Server) GetInventoryItems(c *fiber.Ctx) error {
	caller, _ := callerFrom(c)
	page := parsePagination(c, 50)

	items, err := s.purchaseService.ListItems(c.UserContext(), caller.CompanyID,
		strings.TrimSpace(c.Query("search")), page.Limit, page.Offset)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(items)
}

// GetStockMovements handles GET /api/stock-movements
// @Summary Stock movement history
// @Description Newest first.
// @Tags inventory
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {array} models.StockMovement
// @Failure 403 {object} models.ErrorResponse
// @Router /stock-movements [get]
func (s *Server) GetStockMovements(c *fiber.Ctx) error {
	caller, _ := callerFrom(c)
	page := parsePagination(c, 50)

	movements, err := s.purchaseService.ListMovements(c.UserContext(), caller.CompanyID, page.Limit, page.Offset)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(movements)
}
