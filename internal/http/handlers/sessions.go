package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/filmlib/internal/auth"
	"github.com/geocoder89/filmlib/internal/config"
	"github.com/geocoder89/filmlib/internal/domain/user"
	"github.com/geocoder89/filmlib/internal/observability"
	"github.com/gin-gonic/gin"
)

type SessionGate interface {
	Login(ctx context.Context, username, password string) (user.Profile, string, time.Time, error)
	Current(ctx context.Context, token string) (user.Profile, error)
	Logout(ctx context.Context, token string)
}

// CookieConfig controls the session cookie. Secure is on outside dev.
type CookieConfig struct {
	Name   string
	Secure bool
}

type SessionsHandler struct {
	gate   SessionGate
	cookie CookieConfig
	prom   *observability.Prom
}

func NewSessionsHandler(gate SessionGate, cookie CookieConfig, prom *observability.Prom) *SessionsHandler {
	return &SessionsHandler{
		gate:   gate,
		cookie: cookie,
		prom:   prom,
	}
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login serves POST /sessions.
func (h *SessionsHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	// missing credentials look the same as wrong ones
	if err := ctx.ShouldBindJSON(&req); err != nil {
		h.prom.ObserveLogin("invalid")
		RespondUnauthorized(ctx, MsgInvalidCredentials)
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), storeTimeout)
	defer cancel()

	profile, token, expiresAt, err := h.gate.Login(cctx, req.Username, req.Password)

	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			h.prom.ObserveLogin("invalid")
			RespondUnauthorized(ctx, MsgInvalidCredentials)
			return
		}

		h.prom.ObserveLogin("error")
		slog.Default().ErrorContext(ctx.Request.Context(), "login failed", "err", err, "request_id", requestIDFrom(ctx))
		RespondStoreFailure(ctx, "Could not create session")
		return
	}

	h.prom.ObserveLogin("ok")
	h.setSessionCookie(ctx, token, expiresAt)

	ctx.JSON(http.StatusOK, profile)
}

// Current serves GET /sessions/current.
func (h *SessionsHandler) Current(ctx *gin.Context) {
	token, _ := ctx.Cookie(h.cookie.Name)

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), storeTimeout)
	defer cancel()

	profile, err := h.gate.Current(cctx, token)

	if err != nil {
		if errors.Is(err, auth.ErrUnauthenticated) {
			RespondUnauthorized(ctx, MsgNotAuthenticated)
			return
		}

		slog.Default().ErrorContext(ctx.Request.Context(), "session lookup failed", "err", err, "request_id", requestIDFrom(ctx))
		RespondStoreFailure(ctx, "Could not load session")
		return
	}

	ctx.JSON(http.StatusOK, profile)
}

// Logout serves DELETE /sessions/current. It never fails.
func (h *SessionsHandler) Logout(ctx *gin.Context) {
	token, _ := ctx.Cookie(h.cookie.Name)

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), storeTimeout)
	defer cancel()

	h.gate.Logout(cctx, token)
	h.prom.ObserveLogout()
	h.clearSessionCookie(ctx)

	ctx.JSON(http.StatusOK, gin.H{})
}

func (h *SessionsHandler) setSessionCookie(ctx *gin.Context, token string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())

	ctx.SetSameSite(http.SameSiteLaxMode)

	ctx.SetCookie(
		h.cookie.Name,
		token,
		maxAge,
		"/",
		"",
		h.cookie.Secure,
		true, // HttpOnly.
	)
}

func (h *SessionsHandler) clearSessionCookie(ctx *gin.Context) {
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(
		h.cookie.Name,
		"",
		-1,
		"/",
		"",
		h.cookie.Secure,
		true,
	)
}
