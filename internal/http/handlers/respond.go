package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	MsgNotAuthorized      = "Not authorized"
	MsgNotAuthenticated   = "Not authenticated"
	MsgInvalidCredentials = "Incorrect username or password"
	MsgFilmNotFound       = "Film not found."
	MsgIDMismatch         = "URL and body id mismatch"
)

type APIError struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}

func requestIDFrom(ctx *gin.Context) string {
	v, ok := ctx.Get("request_id")

	if ok {
		s, ok := v.(string)
		if ok && s != "" {
			return s
		}
	}

	// fallback header
	return ctx.GetHeader("X-Request-Id")
}

func RespondError(ctx *gin.Context, status int, message string) {
	ctx.JSON(status, APIError{
		Error:     message,
		RequestID: requestIDFrom(ctx),
	})
}

// AbortWithError is RespondError for middlewares that must stop the chain.
func AbortWithError(ctx *gin.Context, status int, message string) {
	ctx.AbortWithStatusJSON(status, APIError{
		Error:     message,
		RequestID: requestIDFrom(ctx),
	})
}

func RespondValidation(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusUnprocessableEntity, message)
}

func RespondUnauthorized(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusUnauthorized, message)
}

func RespondNotFound(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusNotFound, message)
}

func RespondStoreFailure(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusServiceUnavailable, message)
}
