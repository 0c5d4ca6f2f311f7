package server

import (
	"github.com/gofiber/fiber/v2"
)

// PostLeaderboard handles GET /leaderboard?sort=likes|dislikes|time
// @Summary Post leaderboard
// @Description Unknown sort keys fall back to likes; the sort applied is echoed back.
// @Tags leaderboard
// @Produce json
// @Param sort query string false "Sort key" Enums(likes, dislikes, time) default(likes)
// @Success 200 {object} object{sort=string,posts=[]models.Post}
// @Security BearerAuth
// @Router /leaderboard [get]
func (s *Server) PostLeaderboard(c *fiber.Ctx) error {
	posts, sort, err := s.leaderboardService.RankPosts(c.UserContext(), principal(c), c.Query("sort"))
	if err != nil {
		return respondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{
		"sort":  sort,
		"posts": posts,
	})
}

// UserLeaderboard handles GET /leaderboard/users
// @Summary User leaderboard
// @Description Users with at least one post, by total hours procrastinated
// @Tags leaderboard
// @Produce json
// @Success 200 {object} object{users=[]models.UserHours}
// @Security BearerAuth
// @Router /leaderboard/users [get]
func (s *Server) UserLeaderboard(c *fiber.Ctx) error {
	users, err := s.leaderboardService.RankUsers(c.UserContext(), principal(c))
	if err != nil {
		return respondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"users": users})
}
