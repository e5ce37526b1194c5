package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayush/user-service/internal/auth"
	"github.com/ayush/user-service/internal/config"
	"github.com/ayush/user-service/internal/logger"
	"github.com/ayush/user-service/internal/middleware"
	"github.com/ayush/user-service/internal/models"
	"github.com/ayush/user-service/internal/store"
	"github.com/ayush/user-service/internal/users"
)

// memoryRepo is an in-process store.UserRepository with numeric ids.
type memoryRepo struct {
	mu      sync.Mutex
	next    int
	users   map[string]models.User
	pingErr error
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{users: map[string]models.User{}}
}

func (m *memoryRepo) ValidID(id string) bool {
	_, err := strconv.Atoi(id)
	return err == nil
}

func (m *memoryRepo) Insert(_ context.Context, u models.User) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Username == u.Username {
			return models.User{}, store.ErrUsernameTaken
		}
	}
	m.next++
	u.ID = strconv.Itoa(m.next)
	m.users[u.ID] = u
	return u, nil
}

func (m *memoryRepo) FindByID(_ context.Context, id string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return models.User{}, store.ErrNotFound
	}
	return u, nil
}

func (m *memoryRepo) FindByUsername(_ context.Context, username string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return models.User{}, store.ErrNotFound
}

func (m *memoryRepo) FindAll(context.Context) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.User, 0, len(m.users))
	for i := 1; i <= m.next; i++ {
		if u, ok := m.users[strconv.Itoa(i)]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *memoryRepo) Update(_ context.Context, id string, u models.User) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.users[id]
	if !ok {
		return models.User{}, store.ErrNotFound
	}
	u.ID = id
	u.Disabled = old.Disabled
	m.users[id] = u
	return u, nil
}

func (m *memoryRepo) Delete(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return false, nil
	}
	delete(m.users, id)
	return true, nil
}

func (m *memoryRepo) Ping(context.Context) error  { return m.pingErr }
func (m *memoryRepo) Close(context.Context) error { return nil }

var testSecurity = config.Security{
	AllowedHosts:   []string{"localhost", "127.0.0.1"},
	AllowedOrigins: []string{"http://localhost:3000"},
	HTTPSRedirect:  true,
}

func newTestRouter(t *testing.T, repo store.UserRepository, limits config.RateLimit) http.Handler {
	t.Helper()
	return newTestRouterWithSecurity(t, repo, limits, testSecurity)
}

func newTestRouterWithSecurity(t *testing.T, repo store.UserRepository, limits config.RateLimit, sec config.Security) http.Handler {
	t.Helper()
	svc := users.NewService(repo)
	tokens := auth.NewTokens("secret", "user-service")

	h, err := NewRouter(Deps{
		Log:       logger.Nop(),
		Security:  sec,
		RateLimit: limits,
		Users:     svc,
		Auth:      auth.NewService(svc, tokens, 30*time.Minute),
		Tokens:    tokens,
		CSRF:      middleware.NewCSRF("csrf-secret", time.Hour),
		Limits:    middleware.NewRateLimits(nil),
	})
	require.NoError(t, err)
	return h
}

var generous = config.RateLimit{Read: "100-M", Write: "100-M"}

type client struct {
	t      *testing.T
	h      http.Handler
	csrf   string
	cookie *http.Cookie
}

func (c *client) do(method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	c.t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, "https://localhost"+path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, "https://localhost"+path, nil)
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	c.h.ServeHTTP(rec, req)
	return rec
}

func (c *client) fetchCSRF() {
	c.t.Helper()
	rec := c.do(http.MethodGet, "/csrftoken", "", nil)
	require.Equal(c.t, http.StatusOK, rec.Code)

	var body struct {
		CSRFToken string `json:"csrf_token"`
	}
	require.NoError(c.t, json.Unmarshal(rec.Body.Bytes(), &body))
	c.csrf = body.CSRFToken
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == middleware.CSRFCookieName {
			c.cookie = ck
		}
	}
	require.NotNil(c.t, c.cookie)
}

func (c *client) mutate(method, path, body string) *httptest.ResponseRecorder {
	c.t.Helper()
	header := map[string]string{
		middleware.CSRFHeaderName: c.csrf,
		"Cookie":                  c.cookie.Name + "=" + c.cookie.Value,
	}
	return c.do(method, path, body, header)
}

func TestRouter_UserLifecycle(t *testing.T) {
	c := &client{t: t, h: newTestRouter(t, newMemoryRepo(), generous)}
	c.fetchCSRF()

	rec := c.mutate(http.MethodPost, "/api/user", `{"username":"alice","name":"Alice","email":"alice@example.com","password":"secret1"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	createdBody := rec.Body.String()
	assert.JSONEq(t, `{"id":"1","username":"alice","name":"Alice","email":"alice@example.com","disabled":null}`, createdBody)

	rec = c.do(http.MethodGet, "/api/user/1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, createdBody, rec.Body.String())

	rec = c.do(http.MethodGet, "/api/user", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var all []models.UserRead
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	assert.Len(t, all, 1)

	rec = c.mutate(http.MethodPut, "/api/user/1", `{"username":"alice","name":"Alicia","email":"alice@example.com","password":"secret2"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"name":"Alicia"`)

	rec = c.do(http.MethodPost, "/token", `{"username":"alice","password":"secret2"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var token models.AccessToken
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &token))
	assert.Equal(t, "bearer", token.TokenType)

	rec = c.do(http.MethodGet, "/api/user/me", "", map[string]string{"Authorization": "Bearer " + token.AccessToken})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"username":"alice"`)

	rec = c.mutate(http.MethodDelete, "/api/user/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"detail":"User deleted successfully"}`, rec.Body.String())

	rec = c.do(http.MethodGet, "/api/user/1", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"detail":"No user found with the ID 1"}`, rec.Body.String())

	rec = c.mutate(http.MethodDelete, "/api/user/1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_Root(t *testing.T) {
	c := &client{t: t, h: newTestRouter(t, newMemoryRepo(), generous)}

	rec := c.do(http.MethodGet, "/", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"Hello":"World"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(middleware.TraceIDHeader))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}

func TestRouter_Health(t *testing.T) {
	repo := newMemoryRepo()
	c := &client{t: t, h: newTestRouter(t, repo, generous)}

	rec := c.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	repo.pingErr = errors.New("no primary")
	rec = c.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRouter_MutationsNeedCSRF(t *testing.T) {
	c := &client{t: t, h: newTestRouter(t, newMemoryRepo(), generous)}

	for _, tt := range []struct{ method, path string }{
		{http.MethodPost, "/api/user"},
		{http.MethodPut, "/api/user/1"},
		{http.MethodDelete, "/api/user/1"},
	} {
		rec := c.do(tt.method, tt.path, `{}`, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code, tt.method)
	}
}

func TestRouter_InvalidIDAndValidation(t *testing.T) {
	c := &client{t: t, h: newTestRouter(t, newMemoryRepo(), generous)}
	c.fetchCSRF()

	rec := c.do(http.MethodGet, "/api/user/abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"detail":"Invalid user ID format"}`, rec.Body.String())

	rec = c.mutate(http.MethodDelete, "/api/user/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = c.mutate(http.MethodPost, "/api/user", `{"username":"bob","name":"Bob","email":"bob@example.com","password":"password"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"detail":[{"field":"password","message":"Password must contain at least one digit"}]}`, rec.Body.String())
}

func TestRouter_PasswordTooManyBytes(t *testing.T) {
	c := &client{t: t, h: newTestRouter(t, newMemoryRepo(), generous)}
	c.fetchCSRF()

	body := `{"username":"bob","name":"Bob","email":"bob@example.com","password":"a1` + strings.Repeat("𝒜", 18) + `"}`
	rec := c.mutate(http.MethodPost, "/api/user", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"detail":[{"field":"password","message":"Password must be at most 72 bytes"}]}`, rec.Body.String())
}

func TestRouter_CreateIgnoresDisabled(t *testing.T) {
	repo := newMemoryRepo()
	c := &client{t: t, h: newTestRouter(t, repo, generous)}
	c.fetchCSRF()

	rec := c.mutate(http.MethodPost, "/api/user", `{"username":"alice","name":"Alice","email":"alice@example.com","password":"secret1","disabled":true}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"disabled":null`)
	assert.Nil(t, repo.users["1"].Disabled)

	disabled := true
	u := repo.users["1"]
	u.Disabled = &disabled
	repo.users["1"] = u

	rec = c.mutate(http.MethodPut, "/api/user/1", `{"username":"alice","name":"Alice","email":"alice@example.com","password":"secret2","disabled":false}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"disabled":true`)
}

func TestRouter_DuplicateUsername(t *testing.T) {
	c := &client{t: t, h: newTestRouter(t, newMemoryRepo(), generous)}
	c.fetchCSRF()

	body := `{"username":"alice","name":"Alice","email":"alice@example.com","password":"secret1"}`
	require.Equal(t, http.StatusOK, c.mutate(http.MethodPost, "/api/user", body).Code)

	assert.Equal(t, http.StatusConflict, c.mutate(http.MethodPost, "/api/user", body).Code)
}

func TestRouter_LoginFailure(t *testing.T) {
	c := &client{t: t, h: newTestRouter(t, newMemoryRepo(), generous)}

	rec := c.do(http.MethodPost, "/token", `{"username":"ghost","password":"secret1"}`, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"detail":"Incorrect username or password"}`, rec.Body.String())
}

func TestRouter_MeRequiresBearer(t *testing.T) {
	c := &client{t: t, h: newTestRouter(t, newMemoryRepo(), generous)}

	rec := c.do(http.MethodGet, "/api/user/me", "", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_RateLimit(t *testing.T) {
	c := &client{t: t, h: newTestRouter(t, newMemoryRepo(), config.RateLimit{Read: "2-M", Write: "5-M"})}

	for i := 0; i < 2; i++ {
		require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/api/user", "", nil).Code)
	}
	rec := c.do(http.MethodGet, "/api/user", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.JSONEq(t, `{"error":"Rate limit exceeded: 2 per 1 minute"}`, rec.Body.String())

	// each endpoint has its own window
	assert.Equal(t, http.StatusBadRequest, c.do(http.MethodGet, "/api/user/abc", "", nil).Code)
}

func TestRouter_RateLimitIgnoresForwardedFor(t *testing.T) {
	c := &client{t: t, h: newTestRouter(t, newMemoryRepo(), config.RateLimit{Read: "2-M", Write: "5-M"})}

	codes := make([]int, 0, 3)
	for i := 1; i <= 3; i++ {
		rec := c.do(http.MethodGet, "/api/user", "", map[string]string{
			"X-Forwarded-For": "10.0.0." + strconv.Itoa(i),
			"X-Real-IP":       "10.0.1." + strconv.Itoa(i),
		})
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRouter_RateLimitTrustedProxy(t *testing.T) {
	sec := testSecurity
	sec.TrustProxy = true
	c := &client{t: t, h: newTestRouterWithSecurity(t, newMemoryRepo(), config.RateLimit{Read: "1-M", Write: "5-M"}, sec)}

	for i := 1; i <= 3; i++ {
		rec := c.do(http.MethodGet, "/api/user", "", map[string]string{"X-Forwarded-For": "10.0.0." + strconv.Itoa(i)})
		assert.Equal(t, http.StatusOK, rec.Code)
	}
	rec := c.do(http.MethodGet, "/api/user", "", map[string]string{"X-Forwarded-For": "10.0.0.1"})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestRouter_HostAndScheme(t *testing.T) {
	h := newTestRouter(t, newMemoryRepo(), generous)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "https://evil.example.com/", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"detail":"Invalid host header"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "http://localhost/api/user", nil))
	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, "https://localhost/api/user", rec.Header().Get("Location"))
}

func TestNewRouter_BadRate(t *testing.T) {
	_, err := NewRouter(Deps{
		Log:       logger.Nop(),
		RateLimit: config.RateLimit{Read: "lots", Write: "5-M"},
		Limits:    middleware.NewRateLimits(nil),
	})
	assert.Error(t, err)
}
