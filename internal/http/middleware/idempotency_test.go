package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

type lookupCall struct {
	userID, scope, key string
}

func idemRouter(t *testing.T, lookup IdempotencyLookup, seen *map[string]string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set(userIDKey, "u1"); c.Next() })
	r.Use(IdempotencyValidator(IdempotencyOptions{MaxLen: 16}, lookup))
	h := func(c *gin.Context) {
		key, scope, _ := GetIdempotencyKey(c)
		id, _ := ReplayedResourceID(c)
		*seen = map[string]string{"key": key, "scope": scope, "replayed": id}
		if IsReplay(c) != (id != "") || IsRateBypass(c) != (id != "") {
			t.Errorf("replay flags disagree")
		}
		c.Status(http.StatusNoContent)
	}
	r.POST("/expenses", h)
	r.GET("/expenses", h)
	return r
}

func TestIdempotencyValidator_PassThrough(t *testing.T) {
	called := false
	lookup := func(context.Context, string, string, string, time.Time) (string, bool, error) {
		called = true
		return "", false, nil
	}
	var seen map[string]string
	r := idemRouter(t, lookup, &seen)

	// No header.
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/expenses", nil))
	// Header on a safe method.
	req := httptest.NewRequest(http.MethodGet, "/expenses", nil)
	req.Header.Set(HeaderIdempotencyKey, "k1")
	r.ServeHTTP(httptest.NewRecorder(), req)

	if called || seen["key"] != "" || w.Code != http.StatusNoContent {
		t.Fatalf("validator should be a no-op: called=%v seen=%v", called, seen)
	}
}

func TestIdempotencyValidator_RejectsBadKeys(t *testing.T) {
	var seen map[string]string
	r := idemRouter(t, nil, &seen)
	for _, key := range []string{strings.Repeat("a", 17), "has space", "semi;colon"} {
		req := httptest.NewRequest(http.MethodPost, "/expenses", nil)
		req.Header.Set(HeaderIdempotencyKey, key)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), `"bad_request"`) {
			t.Fatalf("key %q: got %d %s", key, w.Code, w.Body.String())
		}
	}
}

func TestIdempotencyValidator_MissHitAndError(t *testing.T) {
	var calls []lookupCall
	result := struct {
		id    string
		found bool
		err   error
	}{}
	lookup := func(_ context.Context, userID, scope, key string, now time.Time) (string, bool, error) {
		if now.Location() != time.UTC {
			t.Errorf("lookup time should be UTC")
		}
		calls = append(calls, lookupCall{userID, scope, key})
		return result.id, result.found, result.err
	}
	var seen map[string]string
	r := idemRouter(t, lookup, &seen)

	send := func() {
		req := httptest.NewRequest(http.MethodPost, "/expenses", nil)
		req.Header.Set(HeaderIdempotencyKey, "key-1")
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	send()
	if seen["key"] != "key-1" || seen["scope"] != "POST /expenses" || seen["replayed"] != "" {
		t.Fatalf("miss: seen=%v", seen)
	}
	if calls[0] != (lookupCall{"u1", "POST /expenses", "key-1"}) {
		t.Fatalf("lookup args = %+v", calls[0])
	}

	result.id, result.found = "exp-9", true
	send()
	if seen["replayed"] != "exp-9" {
		t.Fatalf("hit: seen=%v", seen)
	}

	result.id, result.found, result.err = "", false, errors.New("db down")
	send()
	if seen["replayed"] != "" || seen["key"] != "key-1" {
		t.Fatalf("lookup error should be a miss: seen=%v", seen)
	}
}
