package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"procrastinators/internal/config"
	"procrastinators/internal/models"
	"procrastinators/internal/service"
	"procrastinators/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockUserRepository is a mock of the UserRepository interface
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) HoursLeaderboard(ctx context.Context) ([]models.UserHours, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.UserHours), args.Error(1)
}

func signup(t *testing.T, env *testEnv, username, password string) string {
	t.Helper()
	body := `{"username":"` + username + `","email":"` + username + `@example.com","password":"` + password + `"}`
	resp := env.do(t, jsonRequest(http.MethodPost, "/signup", body))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var out struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	decodeJSON(t, resp, &out)
	require.NotEmpty(t, out.Token)
	assert.Equal(t, username, out.User.Username)
	return out.Token
}

func authCookieFrom(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == authCookie {
			return c
		}
	}
	return nil
}

func TestSignup(t *testing.T) {
	env := newTestEnv(t)
	signup(t, env, "alice", "hunter22")

	t.Run("duplicate", func(t *testing.T) {
		resp := env.do(t, jsonRequest(http.MethodPost, "/signup",
			`{"username":"alice","email":"other@example.com","password":"hunter22"}`))
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("invalid", func(t *testing.T) {
		resp := env.do(t, jsonRequest(http.MethodPost, "/signup",
			`{"username":"bob","email":"bob@example.com","password":"short"}`))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var body models.ErrorResponse
		decodeJSON(t, resp, &body)
		assert.Equal(t, models.CodeValidation, body.Code)
	})

	t.Run("password never serialized", func(t *testing.T) {
		resp := env.do(t, jsonRequest(http.MethodPost, "/signup",
			`{"username":"carol","email":"carol@example.com","password":"hunter22"}`))
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		assert.NotContains(t, readBody(t, resp), "password")
	})
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	signup(t, env, "alice", "hunter22")

	t.Run("json", func(t *testing.T) {
		resp := env.do(t, jsonRequest(http.MethodPost, "/login", `{"username":"alice","password":"hunter22"}`))
		require.Equal(t, http.StatusOK, resp.StatusCode)
		cookie := authCookieFrom(resp)
		require.NotNil(t, cookie)
		assert.True(t, cookie.HttpOnly)

		var out struct {
			Token string `json:"token"`
		}
		decodeJSON(t, resp, &out)
		assert.Equal(t, cookie.Value, out.Token)

		claims, err := env.server.parseToken(out.Token)
		require.NoError(t, err)
		assert.Equal(t, "alice", claims["username"])
		assert.NotEmpty(t, claims["jti"])
	})

	t.Run("wrong password", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			resp := env.do(t, jsonRequest(http.MethodPost, "/login", `{"username":"alice","password":"wrong-pass1"}`))
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		}
	})

	t.Run("missing fields", func(t *testing.T) {
		resp := env.do(t, jsonRequest(http.MethodPost, "/login", `{"username":"alice"}`))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("form redirects to next", func(t *testing.T) {
		resp := env.do(t, formRequest(http.MethodPost, "/login", url.Values{
			"username": {"alice"}, "password": {"hunter22"}, "next": {"/leaderboard?sort=time"},
		}))
		assert.Equal(t, http.StatusFound, resp.StatusCode)
		assert.Equal(t, "/leaderboard?sort=time", resp.Header.Get("Location"))
		assert.NotNil(t, authCookieFrom(resp))
	})

	t.Run("form ignores offsite next", func(t *testing.T) {
		resp := env.do(t, formRequest(http.MethodPost, "/login", url.Values{
			"username": {"alice"}, "password": {"hunter22"}, "next": {"//evil.example.com/"},
		}))
		assert.Equal(t, http.StatusFound, resp.StatusCode)
		assert.Equal(t, "/", resp.Header.Get("Location"))
	})

	t.Run("form failure re-renders", func(t *testing.T) {
		resp := env.do(t, formRequest(http.MethodPost, "/login", url.Values{
			"username": {"alice"}, "password": {"nope-nope1"},
		}))
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
		assert.Contains(t, readBody(t, resp), "Invalid username or password")
	})
}

func TestLoginPage(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, httptest.NewRequest(http.MethodGet, "/login?next=/leaderboard", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := readBody(t, resp)
	assert.Contains(t, body, `name="next" value="/leaderboard"`)
	assert.Contains(t, body, `name="password"`)
}

func TestLogin_RepositoryFailure(t *testing.T) {
	env := newTestEnv(t)
	repo := new(MockUserRepository)
	repo.On("GetByUsername", mock.Anything, "alice").
		Return(nil, models.NewInternalError(errors.New(`ERROR: relation "users" does not exist (SQLSTATE 42P01)`)))
	env.server.userService = service.NewUserService(repo)

	resp := env.do(t, jsonRequest(http.MethodPost, "/login", `{"username":"alice","password":"hunter22"}`))
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	var body models.ErrorResponse
	decodeJSON(t, resp, &body)
	assert.Equal(t, models.CodeInternal, body.Code)
	assert.Equal(t, "Internal server error", body.Error)
	assert.Empty(t, body.Details)
	repo.AssertExpectations(t)
}

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.CreateUser(t, env.db, "alice")

	t.Run("no token redirects with next", func(t *testing.T) {
		resp := env.do(t, httptest.NewRequest(http.MethodGet, "/leaderboard?sort=time", nil))
		assert.Equal(t, http.StatusFound, resp.StatusCode)
		assert.Equal(t, "/login?next="+url.QueryEscape("/leaderboard?sort=time"), resp.Header.Get("Location"))
	})

	t.Run("bearer", func(t *testing.T) {
		resp := env.do(t, authed(httptest.NewRequest(http.MethodGet, "/leaderboard", nil), env.token(t, user)))
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/leaderboard", nil)
		req.AddCookie(&http.Cookie{Name: authCookie, Value: env.token(t, user)})
		resp := env.do(t, req)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("garbage token", func(t *testing.T) {
		resp := env.do(t, authed(httptest.NewRequest(http.MethodGet, "/", nil), "not.a.jwt"))
		assert.Equal(t, http.StatusFound, resp.StatusCode)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := &Server{config: &config.Config{JWTSecret: "some-other-secret-entirely-000000"}}
		tok, err := other.generateToken(user.ID, user.Username)
		require.NoError(t, err)
		resp := env.do(t, authed(httptest.NewRequest(http.MethodGet, "/", nil), tok))
		assert.Equal(t, http.StatusFound, resp.StatusCode)
	})

	t.Run("wrong audience", func(t *testing.T) {
		tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": "1", "iss": tokenIssuer, "aud": "someone-else",
		})
		signed, err := tok.SignedString([]byte(env.server.config.JWTSecret))
		require.NoError(t, err)
		resp := env.do(t, authed(httptest.NewRequest(http.MethodGet, "/", nil), signed))
		assert.Equal(t, http.StatusFound, resp.StatusCode)
	})

	t.Run("unknown user", func(t *testing.T) {
		ghost := &models.User{ID: 9999, Username: "ghost"}
		resp := env.do(t, authed(httptest.NewRequest(http.MethodGet, "/", nil), env.token(t, ghost)))
		assert.Equal(t, http.StatusFound, resp.StatusCode)
		assert.Contains(t, resp.Header.Get("Location"), "/login?next=")
	})
}

func TestLogoutRevokesToken(t *testing.T) {
	env := newTestEnv(t)
	token := signup(t, env, "alice", "hunter22")

	resp := env.do(t, authed(httptest.NewRequest(http.MethodGet, "/", nil), token))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, authed(httptest.NewRequest(http.MethodPost, "/logout", nil), token))
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
	cookie := authCookieFrom(resp)
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)

	claims, err := env.server.parseToken(token)
	require.NoError(t, err)
	key := "blacklist:" + claims["jti"].(string)
	assert.True(t, env.mr.Exists(key))
	assert.Positive(t, env.mr.TTL(key))

	resp = env.do(t, authed(httptest.NewRequest(http.MethodGet, "/", nil), token))
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Location"), "/login?next="))
}

func TestLogoutWithoutToken(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, httptest.NewRequest(http.MethodPost, "/logout", nil))
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Empty(t, env.mr.Keys())
}

func TestSafeNext(t *testing.T) {
	tests := map[string]string{
		"":                         "/",
		"/leaderboard":             "/leaderboard",
		"/posts/since?since=x":     "/posts/since?since=x",
		"//evil.example.com":       "/",
		"https://evil.example.com": "/",
		"relative":                 "/",
		"/\\evil":                  "/",
	}
	for in, want := range tests {
		assert.Equal(t, want, safeNext(in, "/"), in)
	}
}

func TestPrincipalFromLocals(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		assert.False(t, principal(c).Authenticated())
		c.Locals("userID", uint(3))
		c.Locals("username", "dora")
		p := principal(c)
		assert.Equal(t, models.Principal{UserID: 3, Username: "dora"}, p)
		return c.SendStatus(fiber.StatusNoContent)
	})
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}
