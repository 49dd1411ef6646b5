package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const testSecret = "topsecret"

func signToken(t *testing.T, secret, sub, role string, ttl time.Duration) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  sub,
		"role": role,
		"exp":  time.Now().Add(ttl).Unix(),
	})
	raw, err := tok.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return raw
}

// runJWT pushes one request through JWTAuth and reports whether the inner
// handler ran.
func runJWT(t *testing.T, authHeader string) (*httptest.ResponseRecorder, echo.Context, bool) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/v1/admin/markup-rules", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	reached := false
	h := JWTAuth(testSecret)(func(c echo.Context) error {
		reached = true
		return c.NoContent(http.StatusOK)
	})
	if err := h(c); err != nil {
		t.Fatalf("middleware err=%v", err)
	}
	return rec, c, reached
}

func TestJWTAuthMissingHeader(t *testing.T) {
	rec, _, reached := runJWT(t, "")
	if rec.Code != http.StatusUnauthorized || reached {
		t.Fatalf("status=%d reached=%v want=401/false", rec.Code, reached)
	}
}

func TestJWTAuthRejectsNonBearer(t *testing.T) {
	rec, _, reached := runJWT(t, "Basic dXNlcjpwYXNz")
	if rec.Code != http.StatusUnauthorized || reached {
		t.Fatalf("status=%d reached=%v want=401/false", rec.Code, reached)
	}
}

func TestJWTAuthWrongSecret(t *testing.T) {
	raw := signToken(t, "another-secret", "admin-7", "ADMIN", time.Hour)
	rec, _, reached := runJWT(t, "Bearer "+raw)
	if rec.Code != http.StatusUnauthorized || reached {
		t.Fatalf("status=%d reached=%v want=401/false", rec.Code, reached)
	}
}

func TestJWTAuthExpiredToken(t *testing.T) {
	raw := signToken(t, testSecret, "admin-7", "ADMIN", -time.Hour)
	rec, _, reached := runJWT(t, "Bearer "+raw)
	if rec.Code != http.StatusUnauthorized || reached {
		t.Fatalf("status=%d reached=%v want=401/false", rec.Code, reached)
	}
}

func TestJWTAuthRejectsUnsignedToken(t *testing.T) {
	tok := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "admin-7", "role": "ADMIN", "exp": time.Now().Add(time.Hour).Unix(),
	})
	raw, err := tok.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	rec, _, reached := runJWT(t, "Bearer "+raw)
	if rec.Code != http.StatusUnauthorized || reached {
		t.Fatalf("status=%d reached=%v want=401/false", rec.Code, reached)
	}
}

func TestJWTAuthStoresClaims(t *testing.T) {
	raw := signToken(t, testSecret, "admin-7", "ADMIN", time.Hour)
	rec, c, reached := runJWT(t, "Bearer "+raw)
	if rec.Code != http.StatusOK || !reached {
		t.Fatalf("status=%d reached=%v want=200/true", rec.Code, reached)
	}
	if got := c.Get("user_id"); got != "admin-7" {
		t.Fatalf("user_id=%v want=admin-7", got)
	}
	if got := c.Get("role"); got != "ADMIN" {
		t.Fatalf("role=%v want=ADMIN", got)
	}
}

func TestRequireRole(t *testing.T) {
	run := func(role any) (*httptest.ResponseRecorder, bool) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := echo.New().NewContext(req, rec)
		if role != nil {
			c.Set("role", role)
		}
		reached := false
		h := RequireRole("ADMIN")(func(c echo.Context) error {
			reached = true
			return c.NoContent(http.StatusOK)
		})
		if err := h(c); err != nil {
			t.Fatalf("middleware err=%v", err)
		}
		return rec, reached
	}

	if rec, reached := run("ADMIN"); rec.Code != http.StatusOK || !reached {
		t.Fatalf("admin: status=%d reached=%v", rec.Code, reached)
	}
	if rec, reached := run("CUSTOMER"); rec.Code != http.StatusForbidden || reached {
		t.Fatalf("customer: status=%d reached=%v", rec.Code, reached)
	}
	if rec, reached := run(nil); rec.Code != http.StatusForbidden || reached {
		t.Fatalf("missing role: status=%d reached=%v", rec.Code, reached)
	}
	if rec, reached := run(42); rec.Code != http.StatusForbidden || reached {
		t.Fatalf("non-string role: status=%d reached=%v", rec.Code, reached)
	}
}
