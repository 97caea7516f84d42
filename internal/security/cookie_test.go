package security_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatd/internal/security"
)

func TestSetSessionCookie(t *testing.T) {
	rec := httptest.NewRecorder()
	security.SetSessionCookie(rec, "tok123", 15*24*time.Hour, true)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, security.SessionCookieName, c.Name)
	assert.Equal(t, "tok123", c.Value)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteStrictMode, c.SameSite)
	assert.Equal(t, "/", c.Path)
	assert.Equal(t, int(15*24*time.Hour/time.Second), c.MaxAge)
}

func TestClearSessionCookie(t *testing.T) {
	rec := httptest.NewRecorder()
	security.ClearSessionCookie(rec, false)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, security.SessionCookieName, c.Name)
	assert.Empty(t, c.Value)
	assert.Negative(t, c.MaxAge, "cookie must expire immediately")
}

func TestTokenFromRequest(t *testing.T) {
	t.Run("Cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: security.SessionCookieName, Value: "from-cookie"})
		assert.Equal(t, "from-cookie", security.TokenFromRequest(req))
	})

	t.Run("BearerFallback", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer from-header")
		assert.Equal(t, "from-header", security.TokenFromRequest(req))
	})

	t.Run("CookieWinsOverHeader", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: security.SessionCookieName, Value: "from-cookie"})
		req.Header.Set("Authorization", "Bearer from-header")
		assert.Equal(t, "from-cookie", security.TokenFromRequest(req))
	})

	t.Run("Absent", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		assert.Empty(t, security.TokenFromRequest(req))
	})
}
