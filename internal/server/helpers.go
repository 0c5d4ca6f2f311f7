package server

import (
	"errors"
	"log/slog"
	"net/url"
	"strings"

	"procrastinators/internal/middleware"
	"procrastinators/internal/models"
	"procrastinators/internal/service"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// Pagination holds parsed limit/offset query parameters.
type Pagination struct {
	Limit  int
	Offset int
}

const (
	defaultPageSize    = 20
	maxPaginationLimit = 100
)

// parsePagination extracts limit and offset query parameters with the given default limit.
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

// parseID extracts a route parameter as a positive uint. On failure it writes
// a 400 JSON response and returns errResponseWritten.
func parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+strings.ToUpper(param)))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// respondWithAppError writes err with the status its code maps to. Internal
// errors are logged with their cause.
func respondWithAppError(c *fiber.Ctx, err error) error {
	status := models.StatusCode(err)
	if status >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "request error",
			slog.String("path", c.Path()),
			slog.String("error", err.Error()),
		)
	}
	return models.RespondWithError(c, status, err)
}

// principal builds the caller identity stored by AuthRequired.
func principal(c *fiber.Ctx) models.Principal {
	p := models.Principal{}
	if id, ok := c.Locals("userID").(uint); ok {
		p.UserID = id
	}
	if name, ok := c.Locals("username").(string); ok {
		p.Username = name
	}
	return p
}

// clientIP prefers the first X-Forwarded-For entry over the peer address.
func clientIP(c *fiber.Ctx) string {
	if fwd := c.Get(fiber.HeaderXForwardedFor); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	return c.IP()
}

func visitor(c *fiber.Ctx) service.Visitor {
	return service.Visitor{IP: clientIP(c), UserAgent: c.Get(fiber.HeaderUserAgent)}
}

// wantsHTML reports whether the request came from an HTML form rather than an API client.
func wantsHTML(c *fiber.Ctx) bool {
	ct := c.Get(fiber.HeaderContentType)
	return strings.HasPrefix(ct, fiber.MIMEApplicationForm) || strings.HasPrefix(ct, fiber.MIMEMultipartForm)
}

// safeNext returns next when it is a local absolute path, otherwise fallback.
func safeNext(next, fallback string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, "\\") {
		return fallback
	}
	if u, err := url.Parse(next); err != nil || u.Host != "" || u.Scheme != "" {
		return fallback
	}
	return next
}

// loginRedirect sends the caller to the login page, remembering where they were going.
func (s *Server) loginRedirect(c *fiber.Ctx) error {
	target := s.config.LoginURL
	if target == "" {
		target = "/login"
	}
	return c.Redirect(target+"?next="+url.QueryEscape(c.OriginalURL()), fiber.StatusFound)
}
