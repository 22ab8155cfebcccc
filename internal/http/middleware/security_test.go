package middleware

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func serveSecurity(t *testing.T, opt SecurityOptions, pre gin.HandlerFunc, mutate func(*http.Request)) http.Header {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	if pre != nil {
		r.Use(pre)
	}
	r.Use(SecurityHeaders(opt))
	r.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	if mutate != nil {
		mutate(req)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Header()
}

func TestSecurityHeaders_Baseline(t *testing.T) {
	h := serveSecurity(t, SecurityOptions{}, nil, nil)

	if h.Get("X-Content-Type-Options") != "nosniff" ||
		h.Get("X-Frame-Options") != "DENY" ||
		h.Get("Referrer-Policy") != "no-referrer" {
		t.Fatalf("baseline headers missing: %#v", h)
	}
	if h.Get("Permissions-Policy") != "" || h.Get("Cache-Control") != "" || h.Get("Strict-Transport-Security") != "" {
		t.Fatalf("unexpected optional headers: %#v", h)
	}
	if got := h.Get("Access-Control-Expose-Headers"); got != "X-Request-ID, ETag" {
		t.Fatalf("default expose list = %q", got)
	}
}

func TestSecurityHeaders_ExposeMerge(t *testing.T) {
	t.Run("appends to existing", func(t *testing.T) {
		pre := func(c *gin.Context) { c.Header("Access-Control-Expose-Headers", "Foo"); c.Next() }
		h := serveSecurity(t, SecurityOptions{}, pre, nil)
		if got := h.Get("Access-Control-Expose-Headers"); got != "Foo, X-Request-ID, ETag" {
			t.Fatalf("got %q", got)
		}
	})
	t.Run("no duplicates, case-insensitive", func(t *testing.T) {
		pre := func(c *gin.Context) { c.Header("Access-Control-Expose-Headers", "x-request-id, Foo"); c.Next() }
		h := serveSecurity(t, SecurityOptions{}, pre, nil)
		if got := h.Get("Access-Control-Expose-Headers"); got != "x-request-id, Foo, ETag" {
			t.Fatalf("got %q", got)
		}
	})
	t.Run("custom list", func(t *testing.T) {
		h := serveSecurity(t, SecurityOptions{Expose: []string{"Retry-After"}}, nil, nil)
		if got := h.Get("Access-Control-Expose-Headers"); got != "Retry-After" {
			t.Fatalf("got %q", got)
		}
	})
}

func TestSecurityHeaders_WithPolicy_NoStore_HSTS_TLS(t *testing.T) {
	h := serveSecurity(t, SecurityOptions{
		EnableHSTS:   true,
		HSTSMaxAge:   24 * time.Hour,
		NoStore:      true,
		EnablePolicy: true,
	}, nil, func(r *http.Request) { r.TLS = &tls.ConnectionState{} })

	if h.Get("Permissions-Policy") == "" || h.Get("X-Permitted-Cross-Domain-Policies") != "none" {
		t.Fatalf("missing policy headers: %#v", h)
	}
	if h.Get("Cache-Control") != "no-store" || h.Get("Pragma") != "no-cache" || h.Get("Expires") != "0" {
		t.Fatalf("missing cache headers: %#v", h)
	}
	if want := "max-age=86400; includeSubDomains; preload"; h.Get("Strict-Transport-Security") != want {
		t.Fatalf("expected HSTS %q, got %q", want, h.Get("Strict-Transport-Security"))
	}
}

func TestSecurityHeaders_HSTS(t *testing.T) {
	t.Run("forwarded https with default max age", func(t *testing.T) {
		h := serveSecurity(t, SecurityOptions{EnableHSTS: true}, nil, func(r *http.Request) {
			r.Header.Set("X-Forwarded-Proto", "https")
		})
		if got := h.Get("Strict-Transport-Security"); !strings.HasPrefix(got, "max-age=15552000;") {
			t.Fatalf("expected 180 day HSTS, got %q", got)
		}
	})
	t.Run("plain http never gets HSTS", func(t *testing.T) {
		h := serveSecurity(t, SecurityOptions{EnableHSTS: true}, nil, nil)
		if got := h.Get("Strict-Transport-Security"); got != "" {
			t.Fatalf("unexpected HSTS on http: %q", got)
		}
	})
}

func Test_isHTTPS(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if isHTTPS(req) {
		t.Fatalf("plain HTTP should not be https")
	}
	req2 := httptest.NewRequest(http.MethodGet, "/", nil)
	req2.TLS = &tls.ConnectionState{}
	if !isHTTPS(req2) {
		t.Fatalf("TLS request should be https")
	}
	req3 := httptest.NewRequest(http.MethodGet, "/", nil)
	req3.Header.Set("X-Forwarded-Proto", "HTTPS")
	if !isHTTPS(req3) {
		t.Fatalf("X-Forwarded-Proto=https should be https")
	}
}
