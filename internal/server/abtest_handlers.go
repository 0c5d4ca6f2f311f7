package server

import (
	"procrastinators/internal/models"

	"github.com/gofiber/fiber/v2"
)

// ABTestPage handles GET /abtest. Every render draws a fresh variant.
// @Summary A/B test page
// @Tags abtest
// @Produce html
// @Success 200 {string} string "HTML page with the variant's button"
// @Router /abtest [get]
func (s *Server) ABTestPage(c *fiber.Ctx) error {
	variant, err := s.abTestService.AssignVariant(c.UserContext(), visitor(c))
	if err != nil {
		return respondWithAppError(c, err)
	}
	return render(c, fiber.StatusOK, abTestTemplate, abTestView{
		Variant: string(variant),
		Label:   variant.Label(),
	})
}

// ABTestClick handles POST /abtest/click with a "variant" field.
// @Summary Record A/B click
// @Tags abtest
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param request body object{variant=string} true "Variant shown, A or B"
// @Success 200 {object} object{success=bool,click_count_a=int,click_count_b=int}
// @Failure 400 {object} models.ErrorResponse
// @Router /abtest/click [post]
func (s *Server) ABTestClick(c *fiber.Ctx) error {
	if c.Method() != fiber.MethodPost {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{Error: "Invalid request method"})
	}

	var req struct {
		Variant string `json:"variant" form:"variant"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{Error: "Invalid variant"})
	}

	totals, err := s.abTestService.RecordClick(c.UserContext(), req.Variant, visitor(c))
	if err != nil {
		return respondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{
		"success":       true,
		"click_count_a": totals.A,
		"click_count_b": totals.B,
	})
}
