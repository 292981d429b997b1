package middlewares

import (
	"net/http"
	"strings"

	"github.com/geocoder89/filmlib/internal/http/handlers"
	"github.com/gin-gonic/gin"
)

// RequireJSON rejects POST and PUT bodies that are not JSON with 415.
func RequireJSON() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			ct := c.GetHeader("Content-Type")
			// allow "application/json; charset=utf-8"
			if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
				handlers.AbortWithError(c, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
				return
			}
		}
		c.Next()
	}
}
