package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"procrastinators/internal/middleware"
	"procrastinators/internal/models"
	"procrastinators/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	tokenIssuer   = "procrastinators-api"
	tokenAudience = "procrastinators-client"
	tokenTTL      = 7 * 24 * time.Hour
	authCookie    = "auth_token"
)

type credentials struct {
	Username string `json:"username" form:"username"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
	Next     string `json:"next" form:"next"`
}

// LoginPage handles GET /login
func (s *Server) LoginPage(c *fiber.Ctx) error {
	return render(c, fiber.StatusOK, loginTemplate, loginView{
		Action: c.Path(),
		Next:   safeNext(c.Query("next"), ""),
	})
}

// Login handles POST /login. Form posts are redirected; JSON clients get the token.
// @Summary User login
// @Description Authenticate and receive a JWT, also set as the auth_token cookie
// @Tags auth
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param request body object{username=string,password=string,next=string} true "Login credentials"
// @Success 200 {object} object{token=string,user=models.User}
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 429 {object} object{error=string}
// @Router /login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req credentials
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		if wantsHTML(c) {
			return render(c, fiber.StatusBadRequest, loginTemplate, loginView{
				Action: c.Path(), Next: req.Next, Username: req.Username,
				Error: "Username and password are required",
			})
		}
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Username and password are required"))
	}

	user, err := s.userService.Authenticate(c.UserContext(), req.Username, req.Password)
	if err != nil {
		if wantsHTML(c) && models.StatusCode(err) == fiber.StatusUnauthorized {
			return render(c, fiber.StatusUnauthorized, loginTemplate, loginView{
				Action: c.Path(), Next: req.Next, Username: req.Username,
				Error: "Invalid username or password",
			})
		}
		return respondWithAppError(c, err)
	}

	return s.issueSession(c, user, fiber.StatusOK, req.Next)
}

// Signup handles POST /signup
// @Summary User signup
// @Description Register a new user account
// @Tags auth
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param request body object{username=string,email=string,password=string} true "Signup request"
// @Success 201 {object} object{token=string,user=models.User}
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /signup [post]
func (s *Server) Signup(c *fiber.Ctx) error {
	var req credentials
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userService.Signup(c.UserContext(), service.SignupInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return respondWithAppError(c, err)
	}

	middleware.Logger.InfoContext(c.UserContext(), "user signed up", slog.Uint64("user_id", uint64(user.ID)))
	return s.issueSession(c, user, fiber.StatusCreated, req.Next)
}

// Logout handles POST /logout. A valid token's jti is revoked for the rest of its lifetime.
// @Summary Logout
// @Tags auth
// @Success 302 "Redirect to login"
// @Router /logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	if tokenString := requestToken(c); tokenString != "" {
		if claims, err := s.parseToken(tokenString); err == nil {
			s.revoke(c.UserContext(), claims)
		}
	}

	c.Cookie(&fiber.Cookie{
		Name:     authCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	target := s.config.LoginURL
	if target == "" {
		target = "/login"
	}
	return c.Redirect(target, fiber.StatusFound)
}

func (s *Server) revoke(ctx context.Context, claims jwt.MapClaims) {
	jti, _ := claims["jti"].(string)
	if jti == "" || s.redis == nil {
		return
	}
	ttl := tokenTTL
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		ttl = time.Until(exp.Time)
	}
	if ttl <= 0 {
		return
	}
	if err := s.redis.Set(ctx, "blacklist:"+jti, "1", ttl).Err(); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to revoke token", slog.String("error", err.Error()))
	}
}

// issueSession sets the auth cookie and either redirects form posts or returns the token as JSON.
func (s *Server) issueSession(c *fiber.Ctx, user *models.User, status int, next string) error {
	token, err := s.generateToken(user.ID, user.Username)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	c.Cookie(&fiber.Cookie{
		Name:     authCookie,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(tokenTTL),
		HTTPOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	if wantsHTML(c) {
		fallback := s.config.LoginRedirectURL
		if fallback == "" {
			fallback = "/"
		}
		return c.Redirect(safeNext(next, fallback), fiber.StatusFound)
	}

	return c.Status(status).JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}

// AuthRequired returns the authentication middleware. Unauthenticated
// requests are redirected to the login page.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := requestToken(c)
		if tokenString == "" {
			return s.loginRedirect(c)
		}

		claims, err := s.parseToken(tokenString)
		if err != nil {
			middleware.Logger.DebugContext(c.UserContext(), "rejected token", slog.String("error", err.Error()))
			return s.loginRedirect(c)
		}

		if jti, ok := claims["jti"].(string); ok && jti != "" && s.redis != nil {
			revoked, err := s.redis.Exists(c.UserContext(), "blacklist:"+jti).Result()
			if err == nil && revoked > 0 {
				return s.loginRedirect(c)
			}
		}

		sub, _ := claims["sub"].(string)
		userID, err := strconv.ParseUint(sub, 10, 32)
		if err != nil || userID == 0 {
			return s.loginRedirect(c)
		}

		// Tokens outlive accounts; the cached profile confirms the user still exists.
		user, err := s.userRepo.GetByID(c.UserContext(), uint(userID))
		if err != nil {
			if models.StatusCode(err) == fiber.StatusNotFound {
				return s.loginRedirect(c)
			}
			return respondWithAppError(c, err)
		}

		c.Locals("userID", user.ID)
		c.Locals("username", user.Username)
		// Sync to UserContext for logging and downstream services
		ctx := context.WithValue(c.UserContext(), middleware.UserIDKey, user.ID)
		c.SetUserContext(ctx)

		return c.Next()
	}
}

// requestToken reads a Bearer token, falling back to the auth cookie.
func requestToken(c *fiber.Ctx) string {
	if authHeader := c.Get(fiber.HeaderAuthorization); authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
	}
	return c.Cookies(authCookie)
}

// parseToken validates signature, expiry, issuer and audience.
func (s *Server) parseToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(s.config.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}
	if issuer, _ := claims["iss"].(string); issuer != tokenIssuer {
		return nil, errors.New("invalid token issuer")
	}
	if audience, _ := claims["aud"].(string); audience != tokenAudience {
		return nil, errors.New("invalid token audience")
	}
	return claims, nil
}

// generateToken creates a JWT token for the given user ID and username
func (s *Server) generateToken(userID uint, username string) (string, error) {
	if s.config.JWTSecret == "" {
		return "", fmt.Errorf("JWT secret not configured")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      strconv.FormatUint(uint64(userID), 10),
		"username": username,
		"iss":      tokenIssuer,
		"aud":      tokenAudience,
		"exp":      now.Add(tokenTTL).Unix(),
		"iat":      now.Unix(),
		"nbf":      now.Unix(),
		"jti":      generateJTI(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

// generateJTI creates a unique JWT ID so individual tokens can be revoked.
func generateJTI() string {
	return fmt.Sprintf("%d-%s", time.Now().Unix(), uuid.New().String()[:8])
}
