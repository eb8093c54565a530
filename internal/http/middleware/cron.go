package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// CronSecret guards scheduler endpoints with a shared bearer secret. An empty
// secret disables the endpoint entirely (every request gets 401).
func CronSecret(secret string) gin.HandlerFunc {
	want := []byte(secret)
	return func(c *gin.Context) {
		scheme, got, _ := strings.Cut(c.GetHeader("Authorization"), " ")
		if len(want) == 0 || !strings.EqualFold(scheme, "Bearer") ||
			subtle.ConstantTimeCompare([]byte(strings.TrimSpace(got)), want) != 1 {
			abortJSON(c, http.StatusUnauthorized, "unauthorized", "invalid cron secret")
			return
		}
		c.Next()
	}
}
