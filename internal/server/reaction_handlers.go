package server

import (
	"procrastinators/internal/models"

	"github.com/gofiber/fiber/v2"
)

// ToggleLike handles POST /posts/:id/like
// @Summary Toggle like
// @Description Likes the post, or removes the like if present. Any dislike by the caller is removed.
// @Tags reactions
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} models.ReactionState
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /posts/{id}/like [post]
func (s *Server) ToggleLike(c *fiber.Ctx) error {
	return s.toggle(c, models.ReactionLike)
}

// ToggleDislike handles POST /posts/:id/dislike
// @Summary Toggle dislike
// @Description Dislikes the post, or removes the dislike if present. Any like by the caller is removed.
// @Tags reactions
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} models.ReactionState
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /posts/{id}/dislike [post]
func (s *Server) ToggleDislike(c *fiber.Ctx) error {
	return s.toggle(c, models.ReactionDislike)
}

func (s *Server) toggle(c *fiber.Ctx, kind models.ReactionKind) error {
	if c.Method() != fiber.MethodPost {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request"))
	}

	postID, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	state, err := s.reactionService.SetReaction(c.UserContext(), principal(c), postID, kind)
	if err != nil {
		return respondWithAppError(c, err)
	}
	return c.JSON(state)
}
