package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_CountersInflightAndPathFallback(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(Metrics("/metrics"))
	r.GET("/forums/:id", func(c *gin.Context) { c.String(http.StatusOK, "hello") })
	r.POST("/forums/:id/messages", func(c *gin.Context) { c.Status(http.StatusCreated) })
	r.GET("/metrics", func(c *gin.Context) { c.String(http.StatusOK, "# metrics") })

	baseOK := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/forums/:id", "200"))
	base404 := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/does-not-exist", "404"))
	basePost := testutil.ToFloat64(httpReqs.WithLabelValues("POST", "/forums/:id/messages", "201"))
	baseScrape := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/metrics", "200"))

	send := func(method, path, body string) int {
		var req *http.Request
		if body != "" {
			req = httptest.NewRequest(method, path, strings.NewReader(body))
		} else {
			req = httptest.NewRequest(method, path, nil)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	if code := send(http.MethodGet, "/forums/f1", ""); code != http.StatusOK {
		t.Fatalf("GET /forums/f1 -> %d", code)
	}
	if code := send(http.MethodGet, "/forums/f2", ""); code != http.StatusOK {
		t.Fatalf("GET /forums/f2 -> %d", code)
	}
	if code := send(http.MethodGet, "/does-not-exist", ""); code != http.StatusNotFound {
		t.Fatalf("GET /does-not-exist -> %d", code)
	}
	if code := send(http.MethodPost, "/forums/f1/messages", `{"content":"hola"}`); code != http.StatusCreated {
		t.Fatalf("POST messages -> %d", code)
	}
	if code := send(http.MethodGet, "/metrics", ""); code != http.StatusOK {
		t.Fatalf("GET /metrics -> %d", code)
	}

	// Both forum ids collapse onto the route label.
	if got := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/forums/:id", "200")); got != baseOK+2 {
		t.Fatalf("counter /forums/:id 200 = %v; want %v", got, baseOK+2)
	}
	if got := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/does-not-exist", "404")); got != base404+1 {
		t.Fatalf("counter 404 fallback = %v; want %v", got, base404+1)
	}
	if got := testutil.ToFloat64(httpReqs.WithLabelValues("POST", "/forums/:id/messages", "201")); got != basePost+1 {
		t.Fatalf("counter POST 201 = %v; want %v", got, basePost+1)
	}
	if got := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/metrics", "200")); got != baseScrape {
		t.Fatalf("scrape endpoint should be skipped, counter moved to %v", got)
	}
	if inFlight := testutil.ToFloat64(httpInflight); inFlight != 0 {
		t.Fatalf("httpInflight = %v; want 0", inFlight)
	}
}
