// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file validates the Idempotency-Key header on POST requests and, through
// a pluggable lookup, detects replays of requests that already created a
// resource. The scope of a key is the method plus the route template, so the
// same key may be reused on different endpoints. Handlers stay in control of
// how a replay is served (usually by loading ReplayedResourceID).
package middleware

import (
	"context"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey is the request header carrying the key.
const HeaderIdempotencyKey = "Idempotency-Key"

const (
	ctxKeyIdemKey      = "idem.key"
	ctxKeyIdemScope    = "idem.scope"
	ctxKeyIdemResource = "idem.resource" // string: id created by the first request
	ctxKeyRateBypass   = "rate.bypass"   // bool: skip edge rate limiting
)

var defaultKeyPattern = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)

// IdempotencyOptions configures IdempotencyValidator.
type IdempotencyOptions struct {
	// MaxLen caps the key length. Values <= 0 default to 128.
	MaxLen int
	// Pattern restricts allowed characters; nil means ^[A-Za-z0-9._~\-:]+$.
	Pattern *regexp.Regexp
}

// IdempotencyLookup reports the resource id stored for (userID, scope, key)
// if the record exists and has not expired at now.
type IdempotencyLookup func(ctx context.Context, userID, scope, key string, now time.Time) (resourceID string, found bool, err error)

// IdempotencyValidator must run after Auth. Requests without the header, or
// with a method other than POST, pass through untouched. A malformed key is
// rejected with 400. Lookup failures are logged and treated as a miss.
func IdempotencyValidator(opts IdempotencyOptions, lookup IdempotencyLookup) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = 128
	}
	pat := opts.Pattern
	if pat == nil {
		pat = defaultKeyPattern
	}

	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" || c.Request.Method != http.MethodPost {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			abortJSON(c, http.StatusBadRequest, "bad_request", "invalid Idempotency-Key")
			return
		}

		scope := c.Request.Method + " " + c.FullPath()
		c.Set(ctxKeyIdemKey, key)
		c.Set(ctxKeyIdemScope, scope)

		if lookup != nil {
			id, found, err := lookup(c.Request.Context(), UserID(c), scope, key, time.Now().UTC())
			switch {
			case err != nil:
				LoggerFrom(c).Warn().Err(err).Str("scope", scope).Msg("idempotency lookup failed")
			case found:
				c.Set(ctxKeyIdemResource, id)
				c.Set(ctxKeyRateBypass, true)
			}
		}
		c.Next()
	}
}

// GetIdempotencyKey returns the validated key and its scope.
func GetIdempotencyKey(c *gin.Context) (key, scope string, ok bool) {
	key = c.GetString(ctxKeyIdemKey)
	scope = c.GetString(ctxKeyIdemScope)
	return key, scope, key != ""
}

// ReplayedResourceID returns the id created by an earlier request with the
// same key, if this request is a replay.
func ReplayedResourceID(c *gin.Context) (string, bool) {
	id := c.GetString(ctxKeyIdemResource)
	return id, id != ""
}

// IsReplay reports whether the request replays an earlier one.
func IsReplay(c *gin.Context) bool {
	_, ok := ReplayedResourceID(c)
	return ok
}
