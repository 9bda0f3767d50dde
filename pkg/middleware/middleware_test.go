package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/stockbook/pkg/apperror"
	"github.com/shashiranjanraj/stockbook/pkg/auth"
	"github.com/shashiranjanraj/stockbook/pkg/middleware"
	"github.com/shashiranjanraj/stockbook/pkg/rbac"
)

type fakeUsers map[uint]middleware.Identity

func (f fakeUsers) LoadIdentity(_ context.Context, id uint) (middleware.Identity, error) {
	if u, ok := f[id]; ok {
		return u, nil
	}
	return middleware.Identity{}, apperror.NotFound("User %d not found", id)
}

type brokenUsers struct{}

func (brokenUsers) LoadIdentity(context.Context, uint) (middleware.Identity, error) {
	return middleware.Identity{}, errors.New("sql: database is closed")
}

func newGuard() (*middleware.Guard, *auth.Tokens) {
	tokens := auth.NewTokens("a", "r", time.Hour, time.Hour)
	users := fakeUsers{
		1: {ID: 1, Username: "admin", Admin: true},
		2: {ID: 2, Username: "clerk"},
	}
	return middleware.NewGuard(tokens, users), tokens
}

func whoami(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.IdentityFromCtx(r.Context())
	w.Write([]byte(id.Username)) //nolint:errcheck
}

func TestAuthenticate(t *testing.T) {
	guard, tokens := newGuard()
	h := guard.Authenticate(http.HandlerFunc(whoami))

	clerk, _ := tokens.Access(2, "clerk")
	ghost, _ := tokens.Access(99, "ghost")
	refresh, _ := tokens.Refresh(2, "clerk")

	cases := []struct {
		name   string
		header string
		code   int
		body   string
	}{
		{"no header", "", http.StatusUnauthorized, ""},
		{"wrong scheme", "Basic " + clerk, http.StatusUnauthorized, ""},
		{"garbage", "Bearer abc", http.StatusUnauthorized, ""},
		{"refresh token", "Bearer " + refresh, http.StatusUnauthorized, ""},
		{"deleted user", "Bearer " + ghost, http.StatusUnauthorized, ""},
		{"valid", "Bearer " + clerk, http.StatusOK, "clerk"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tc.code, rec.Code)
			if tc.body != "" {
				assert.Equal(t, tc.body, rec.Body.String())
			}
		})
	}
}

func TestAuthenticate_StoreFailure(t *testing.T) {
	tokens := auth.NewTokens("a", "r", time.Hour, time.Hour)
	h := middleware.NewGuard(tokens, brokenUsers{}).Authenticate(http.HandlerFunc(whoami))

	raw, err := tokens.Access(2, "clerk")
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/products", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"status":500,"message":"Internal Server Error"}`, rec.Body.String())
}

func TestAdminGate(t *testing.T) {
	guard, tokens := newGuard()
	h := guard.Authenticate(rbac.Admin(http.HandlerFunc(whoami)))

	for token, want := range map[uint]int{1: http.StatusOK, 2: http.StatusForbidden} {
		raw, err := tokens.Access(token, "x")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodDelete, "/sales/1", nil)
		req.Header.Set("Authorization", "Bearer "+raw)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, want, rec.Code)
		if want == http.StatusForbidden {
			assert.Contains(t, rec.Body.String(), "Admins only!")
		}
	}
}

func TestCORS(t *testing.T) {
	h := middleware.CORS(middleware.DefaultCORSOptions([]string{"http://localhost:3000"}))(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }),
	)

	pre := httptest.NewRequest(http.MethodOptions, "/products", nil)
	pre.Header.Set("Origin", "http://localhost:3000")
	pre.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, pre)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	other := httptest.NewRequest(http.MethodGet, "/products", nil)
	other.Header.Set("Origin", "http://evil.test")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, other)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRecovery(t *testing.T) {
	h := middleware.Recovery(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"status":500,"message":"Internal Server Error"}`, rec.Body.String())
}

func TestLimiter(t *testing.T) {
	l := middleware.NewLimiter(2, time.Minute)
	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/users/login", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{200, 200, 429}, codes)

	req := httptest.NewRequest(http.MethodPost, "/users/login", nil)
	req.RemoteAddr = "10.0.0.2:5555"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
