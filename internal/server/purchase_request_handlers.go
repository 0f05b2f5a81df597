package server

import (
	"context"

	"stockflow/internal/models"
	"stockflow/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreatePurchaseRequestBody is the payload of POST /api/purchase-requests.
// itemId selects an existing item of the caller's company; without it itemName names a new item.
type CreatePurchaseRequestBody struct {
	ItemID        *uint  `json:"itemId"`
	ItemName      string `json:"itemName"`
	Quantity      int    `json:"quantity"`
	Justification string `json:"justification"`
}

// CreatePurchaseRequest handles POST /api/purchase-requests
// @Summary Submit a purchase request
// @Tags purchase-requests
// @Accept json
// @Security BearerAuth
// @Param request body CreatePurchaseRequestBody true "Purchase request"
// @Success 200
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /purchase-requests [post]
func (s *Server) CreatePurchaseRequest(c *fiber.Ctx) error {
	caller, _ := callerFrom(c)

	var body CreatePurchaseRequestBody
	if err := c.BodyParser(&body); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	_, err := s.purchaseService.Create(c.UserContext(), service.CreatePurchaseRequestInput{
		CompanyID:     caller.CompanyID,
		RequesterID:   caller.UserID,
		ItemID:        body.ItemID,
		ItemName:      body.ItemName,
		Quantity:      body.Quantity,
		Justification: body.Justification,
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return c.Status(fiber.StatusOK).Send(nil)
}

// GetMyPurchaseRequests handles GET /api/purchase-requests/me
// @Summary List my purchase requests
// @Description Newest first.
// @Tags purchase-requests
// @Produce json
// @Security BearerAuth
// @Success 200 {array} service.MyRequestView
// @Router /purchase-requests/me [get]
func (s *Server) GetMyPurchaseRequests(c *fiber.Ctx) error {
	caller, _ := callerFrom(c)

	views, err := s.purchaseService.ListMine(c.UserContext(), caller.UserID)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(views)
}

// GetPendingPurchaseRequests handles GET /api/purchase-requests/pending
// @Summary Approval queue
// @Tags purchase-requests
// @Produce json
// @Security BearerAuth
// @Success 200 {array} service.QueueView
// @Failure 403 {object} models.ErrorResponse
// @Router /purchase-requests/pending [get]
func (s *Server) GetPendingPurchaseRequests(c *fiber.Ctx) error {
	return s.listQueue(c, models.PurchaseRequestStatusPending)
}

// GetApprovedPurchaseRequests handles GET /api/purchase-requests/approved
// @Summary Receipt queue
// @Tags purchase-requests
// @Produce json
// @Security BearerAuth
// @Success 200 {array} service.QueueView
// @Failure 403 {object} models.ErrorResponse
// @Router /purchase-requests/approved [get]
func (s *Server) GetApprovedPurchaseRequests(c *fiber.Ctx) error {
	return s.listQueue(c, models.PurchaseRequestStatusApproved)
}

func (s *Server) listQueue(c *fiber.Ctx, status models.PurchaseRequestStatus) error {
	caller, _ := callerFrom(c)

	views, err := s.purchaseService.ListQueue(c.UserContext(), caller.CompanyID, status)
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(views)
}

// ApprovePurchaseRequest handles PUT /api/purchase-requests/:id/approve
// @Summary Approve a pending request
// @Tags purchase-requests
// @Security BearerAuth
// @Param id path int true "Purchase request ID"
// @Success 200
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /purchase-requests/{id}/approve [put]
func (s *Server) ApprovePurchaseRequest(c *fiber.Ctx) error {
	return s.transition(c, s.purchaseService.Approve)
}

// RejectPurchaseRequest handles PUT /api/purchase-requests/:id/reject
// @Summary Reject a pending request
// @Tags purchase-requests
// @Security BearerAuth
// @Param id path int true "Purchase request ID"
// @Success 200
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /purchase-requests/{id}/reject [put]
func (s *Server) RejectPurchaseRequest(c *fiber.Ctx) error {
	return s.transition(c, s.purchaseService.Reject)
}

// ReceivePurchaseRequest handles PUT /api/purchase-requests/:id/receive
// @Summary Receive an approved request
// @Description Adds the quantity to the referenced item, or creates the item, and records a stock movement.
// @Tags purchase-requests
// @Security BearerAuth
// @Param id path int true "Purchase request ID"
// @Success 200
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /purchase-requests/{id}/receive [put]
func (s *Server) ReceivePurchaseRequest(c *fiber.Ctx) error {
	caller, _ := callerFrom(c)
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	if _, err := s.purchaseService.Receive(c.UserContext(), caller.Actor(), id); err != nil {
		return s.respondError(c, err)
	}
	return c.Status(fiber.StatusOK).Send(nil)
}

type reviewFunc func(ctx context.Context, actor service.Actor, id uint) (*models.PurchaseRequest, error)

func (s *Server) transition(c *fiber.Ctx, review reviewFunc) error {
	caller, _ := callerFrom(c)
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	if _, err := review(c.UserContext(), caller.Actor(), id); err != nil {
		return s.respondError(c, err)
	}
	return c.Status(fiber.StatusOK).Send(nil)
}
