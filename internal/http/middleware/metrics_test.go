package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_LabelsUseRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Metrics())
	r.GET("/api/v1/expenses/:id", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": c.Param("id")})
	})
	r.DELETE("/api/v1/expenses/:id", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	tmpl := "/api/v1/expenses/:id"
	baseGet := testutil.ToFloat64(httpReqs.WithLabelValues("GET", tmpl, "200"))
	baseDel := testutil.ToFloat64(httpReqs.WithLabelValues("DELETE", tmpl, "204"))
	baseMiss := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/api/v1/unknown", "404"))

	for _, id := range []string{"e-1", "e-2", "e-3"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/expenses/"+id, nil))
		if w.Code != http.StatusOK {
			t.Fatalf("GET %s -> %d", id, w.Code)
		}
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/v1/expenses/e-1", nil))
	if w.Code != http.StatusNoContent {
		t.Fatalf("DELETE -> %d", w.Code)
	}
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/unknown", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("GET unknown -> %d", w.Code)
	}

	// Three ids collapse into one series.
	if got := testutil.ToFloat64(httpReqs.WithLabelValues("GET", tmpl, "200")); got != baseGet+3 {
		t.Fatalf("GET series = %v; want %v", got, baseGet+3)
	}
	if got := testutil.ToFloat64(httpReqs.WithLabelValues("DELETE", tmpl, "204")); got != baseDel+1 {
		t.Fatalf("DELETE series = %v; want %v", got, baseDel+1)
	}
	if got := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/api/v1/unknown", "404")); got != baseMiss+1 {
		t.Fatalf("unmatched series = %v; want %v", got, baseMiss+1)
	}
	if got := testutil.ToFloat64(httpInflight); got != 0 {
		t.Fatalf("inflight = %v; want 0", got)
	}
}
