// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements bearer-token authentication. Tokens are HS256 JWTs
// whose subject is the user id; the id is stored in the Gin context under
// "userID" where the logger, rate limiter, idempotency validator and handlers
// pick it up.
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/tbourn/moneywise/internal/sysutil"
)

const userIDKey = "userID"

// Claims is the accepted token payload. Email and name are optional profile
// hints used to keep the users table current.
type Claims struct {
	Email             string `json:"email,omitempty"`
	Name              string `json:"name,omitempty"`
	PreferredUsername string `json:"preferred_username,omitempty"`
	jwt.RegisteredClaims
}

// DisplayName returns the best available human name from the token.
func (c *Claims) DisplayName() string {
	return sysutil.FirstNonEmpty(c.Name, c.PreferredUsername)
}

// AuthOptions configures Auth.
type AuthOptions struct {
	// Secret is the HMAC key tokens are signed with.
	Secret []byte
	// Issuer, when set, must match the token's iss claim.
	Issuer string
	// OnAuthenticated runs after a token is accepted. Errors are logged and
	// never fail the request.
	OnAuthenticated func(ctx context.Context, userID string, claims *Claims) error
}

var errMissingToken = errors.New("missing bearer token")

// Auth rejects requests without a valid "Authorization: Bearer <jwt>" header
// with 401 and otherwise stores the token subject as the caller's user id.
func Auth(opts AuthOptions) gin.HandlerFunc {
	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if opts.Issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(opts.Issuer))
	}
	parser := jwt.NewParser(parserOpts...)
	keyFn := func(*jwt.Token) (any, error) { return opts.Secret, nil }

	return func(c *gin.Context) {
		claims, err := parseBearer(parser, keyFn, c.GetHeader("Authorization"))
		if err != nil {
			LoggerFrom(c).Debug().Err(err).Msg("auth rejected")
			abortJSON(c, http.StatusUnauthorized, "unauthorized", "invalid or missing bearer token")
			return
		}

		uid := claims.Subject
		c.Set(userIDKey, uid)

		if opts.OnAuthenticated != nil {
			if err := opts.OnAuthenticated(c.Request.Context(), uid, claims); err != nil {
				LoggerFrom(c).Warn().Err(err).Str("user_id", uid).Msg("auth hook failed")
			}
		}
		c.Next()
	}
}

func parseBearer(p *jwt.Parser, keyFn jwt.Keyfunc, header string) (*Claims, error) {
	scheme, raw, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(raw) == "" {
		return nil, errMissingToken
	}
	claims := &Claims{}
	if _, err := p.ParseWithClaims(strings.TrimSpace(raw), claims, keyFn); err != nil {
		return nil, err
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// UserID returns the authenticated user id, or "" outside Auth.
func UserID(c *gin.Context) string {
	if v, ok := c.Get(userIDKey); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// abortJSON stops the chain with the API error envelope.
func abortJSON(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, gin.H{
		"request_id": c.Writer.Header().Get(requestIDHeader),
		"code":       code,
		"message":    msg,
	})
}
