package http

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

func apiKeyMiddleware(header string, keys []string) gin.HandlerFunc {
	if header == "" {
		header = "X-API-Key"
	}
	valid := make([][]byte, 0, len(keys))
	for _, key := range keys {
		if key = strings.TrimSpace(key); key != "" {
			valid = append(valid, []byte(key))
		}
	}
	return func(c *gin.Context) {
		provided := strings.TrimSpace(c.GetHeader(header))
		if provided == "" {
			unauthorized(c, "missing "+header+" header")
			return
		}
		if !keyMatches(valid, []byte(provided)) {
			unauthorized(c, "invalid API key")
			return
		}
		c.Next()
	}
}

// keyMatches compares against every key so timing does not reveal which one matched.
func keyMatches(valid [][]byte, provided []byte) bool {
	matched := 0
	for _, key := range valid {
		matched |= subtle.ConstantTimeCompare(key, provided)
	}
	return matched == 1
}

func unauthorized(c *gin.Context, message string) {
	c.Header("WWW-Authenticate", "ApiKey")
	abortWithError(c, NewHTTPError(http.StatusUnauthorized, "unauthorized", message, nil))
}
