package session

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"skincare-gateway/internal/shared/server/respond"
	"skincare-gateway/internal/shared/telemetry"
)

// Handler exposes the configured session strategy over HTTP. The login and
// signup responses mirror the credential service's {message, token, user}
// shape with its status, not the standard error envelope.
type Handler struct {
	Strategy Strategy
}

// NewHandler constructs a Handler.
func NewHandler(strategy Strategy) *Handler {
	return &Handler{Strategy: strategy}
}

// RegisterRoutes attaches the session lifecycle routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/logout", h.logout)
	rg.GET("/session", h.current)
}

// RegisterCredentialRoutes attaches login/signup. The router mounts these
// from exactly one strategy per deployment.
func (h *Handler) RegisterCredentialRoutes(rg *gin.RouterGroup) {
	rg.POST("/login", h.signIn)
	rg.POST("/signup", h.signUp)
}

func (h *Handler) signIn(c *gin.Context) {
	h.exchange(c, h.Strategy.SignIn, "Login successful")
}

func (h *Handler) signUp(c *gin.Context) {
	h.exchange(c, h.Strategy.SignUp, "Signup successful")
}

func (h *Handler) exchange(c *gin.Context, call func(ctx context.Context, cred Credential) (Session, error), successMessage string) {
	var cred Credential
	if err := c.ShouldBindJSON(&cred); err != nil {
		respond.JSON(c, http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}

	sess, err := call(c.Request.Context(), cred)
	if err != nil {
		var authErr *AuthError
		if errors.As(err, &authErr) {
			respond.JSON(c, authErr.Status, gin.H{"message": authErr.Message})
			return
		}
		telemetry.Error("session.exchange", map[string]any{"error": err.Error()})
		respond.JSON(c, http.StatusInternalServerError, gin.H{"message": "Something went wrong. Please try again."})
		return
	}

	respond.JSON(c, http.StatusOK, gin.H{
		"message": successMessage,
		"token":   sess.Token,
		"user":    sess.User,
	})
}

func (h *Handler) logout(c *gin.Context) {
	if err := h.Strategy.SignOut(c.Request.Context()); err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to sign out", nil)
		return
	}
	respond.OK(c, gin.H{"message": "Logged out"})
}

func (h *Handler) current(c *gin.Context) {
	sess, ok, err := h.Strategy.Current(c.Request.Context())
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to read session", nil)
		return
	}
	if !ok {
		respond.OK(c, gin.H{"authenticated": false})
		return
	}
	respond.OK(c, gin.H{"authenticated": true, "user": sess.User})
}
