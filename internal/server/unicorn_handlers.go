package server

import (
	"encoding/json"
	"fmt"

	"unicornfarm/internal/service"

	"github.com/gofiber/fiber/v2"
)

// PurchaseRequest is the body of a purchase.
type PurchaseRequest struct {
	Email string `json:"email" example:"buyer@example.com"`
}

// GetUnicorns handles GET /api/unicorns
// @Summary List unicorns on the farm
// @Description Lists unicorns that have not been purchased, each with its posts.
// @Tags unicorns
// @Produce json
// @Param limit query int false "Page size (max 100)"
// @Param offset query int false "Offset"
// @Success 200 {array} models.Unicorn
// @Router /unicorns [get]
func (s *Server) GetUnicorns(c *fiber.Ctx) error {
	page := parsePagination(c, defaultPaginationLimit)

	unicorns, err := s.unicornService.ListUnicorns(c.UserContext(), page.Limit, page.Offset)
	if err != nil {
		return err
	}
	return c.JSON(unicorns)
}

// GetUnicorn handles GET /api/unicorns/:id
// @Summary Get a unicorn
// @Description Purchased unicorns are not visible.
// @Tags unicorns
// @Produce json
// @Param id path int true "Unicorn ID"
// @Success 200 {object} models.Unicorn
// @Failure 404 {object} models.ErrorResponse
// @Router /unicorns/{id} [get]
func (s *Server) GetUnicorn(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	unicorn, err := s.unicornService.GetUnicorn(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(unicorn)
}

// PurchaseUnicorn handles POST /api/unicorns/:id/purchase
// @Summary Purchase a unicorn
// @Description Emails the buyer every post about the unicorn, then deletes the posts and marks the unicorn purchased.
// @Tags unicorns
// @Accept json
// @Produce json
// @Param id path int true "Unicorn ID"
// @Param request body PurchaseRequest true "Buyer"
// @Success 200 {object} models.Unicorn
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /unicorns/{id}/purchase [post]
func (s *Server) PurchaseUnicorn(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	// The unicorn is checked before the body, so an unreadable body counts as a
	// missing email rather than failing first.
	var req struct {
		Email any `json:"email"`
	}
	_ = json.Unmarshal(c.Body(), &req)

	unicorn, err := s.purchaseService.Purchase(c.UserContext(), service.PurchaseInput{
		UnicornID: id,
		Email:     emailText(req.Email),
	})
	if err != nil {
		return err
	}
	return c.JSON(unicorn)
}

// emailText returns the email attribute as text. Non-string values keep their
// printed form so they fail address validation instead of reading as missing.
func emailText(v any) string {
	switch e := v.(type) {
	case nil:
		return ""
	case string:
		return e
	default:
		return fmt.Sprint(e)
	}
}
