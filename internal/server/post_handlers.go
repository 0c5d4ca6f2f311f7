package server

import (
	"bytes"
	"encoding/json"

	"procrastinators/internal/models"
	"procrastinators/internal/service"

	"github.com/gofiber/fiber/v2"
)

// hoursValue accepts hours as a JSON string or number and as a form value.
type hoursValue string

func (h *hoursValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*h = hoursValue(s)
		return nil
	}
	if bytes.Equal(data, []byte("null")) {
		*h = ""
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*h = hoursValue(n.String())
	return nil
}

func (h *hoursValue) UnmarshalText(text []byte) error {
	*h = hoursValue(text)
	return nil
}

type createPostRequest struct {
	Title               string     `json:"title" form:"title"`
	Description         string     `json:"description" form:"description"`
	HoursProcrastinated hoursValue `json:"hours_procrastinated" form:"hours_procrastinated"`
}

// Home handles GET / with the newest posts and the caller's reactions.
// @Summary Home feed
// @Description Newest posts with live counts, plus the IDs among them the caller liked or disliked
// @Tags posts
// @Produce json
// @Param limit query int false "Page size (max 100)" default(20)
// @Param offset query int false "Offset"
// @Success 200 {object} service.Feed
// @Failure 302 "Redirect to login"
// @Security BearerAuth
// @Router / [get]
func (s *Server) Home(c *fiber.Ctx) error {
	page := parsePagination(c, defaultPageSize)
	feed, err := s.postService.Feed(c.UserContext(), principal(c), page.Limit, page.Offset)
	if err != nil {
		return respondWithAppError(c, err)
	}
	return c.JSON(feed)
}

// CreatePost handles POST /posts
// @Summary Create post
// @Description Record a procrastination entry. Hours are a decimal between 0 and 999.99 with at most two places.
// @Tags posts
// @Accept json,x-www-form-urlencoded,mpfd
// @Produce json
// @Param request body object{title=string,description=string,hours_procrastinated=string} true "New post"
// @Success 201 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Failure 429 {object} object{error=string}
// @Security BearerAuth
// @Router /posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req createPostRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, err := s.postService.CreatePost(c.UserContext(), principal(c), service.CreatePostInput{
		Title:               req.Title,
		Description:         req.Description,
		HoursProcrastinated: string(req.HoursProcrastinated),
	})
	if err != nil {
		return respondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// PostsSince handles GET /posts/since?since=<timestamp>. It always answers 200.
// @Summary Posts created after a timestamp
// @Description Polling endpoint. Missing or unparseable timestamps yield an empty list.
// @Tags posts
// @Produce json
// @Param since query string false "ISO-8601 timestamp; naive values use TIME_ZONE"
// @Success 200 {object} service.FeedDelta
// @Security BearerAuth
// @Router /posts/since [get]
func (s *Server) PostsSince(c *fiber.Ctx) error {
	delta, err := s.postService.PostsSince(c.UserContext(), principal(c), c.Query("since"))
	if err != nil {
		return respondWithAppError(c, err)
	}
	return c.JSON(delta)
}
