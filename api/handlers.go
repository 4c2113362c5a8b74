// Package api exposes the authentication HTTP endpoints. Handlers bind and
// validate the payload, delegate to the auth service, and translate results
// into the flat response bodies the gateway expects.
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/skillsenselab/auth-service/auth"
	"github.com/skillsenselab/auth-service/errors"
	"github.com/skillsenselab/auth-service/server"
	"github.com/skillsenselab/auth-service/validation"
)

// forgotPasswordMessage is returned whether or not the email exists.
const forgotPasswordMessage = "If the email exists, a reset link has been sent"

// resetPasswordMessage confirms a successful redemption.
const resetPasswordMessage = "Password has been reset successfully"

// Handler holds the auth endpoints.
type Handler struct {
	svc *auth.Service
}

// NewHandler creates the API handler.
func NewHandler(svc *auth.Service) *Handler {
	return &Handler{svc: svc}
}

// Register handles POST /auth/register.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.RespondWithError(c, errors.Validation("request body must be valid JSON"))
		return
	}
	if err := validation.Validate(req); err != nil {
		server.RespondWithError(c, err)
		return
	}

	user, err := h.svc.Register(c.Request.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, RegisterResponse{
		UserID: user.UserID,
		Email:  user.Email,
		Name:   user.Name,
	})
}

// Login handles POST /auth/login.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.RespondWithError(c, errors.Validation("request body must be valid JSON"))
		return
	}
	if err := validation.Validate(req); err != nil {
		server.RespondWithError(c, err)
		return
	}

	result, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, result)
}

// Verify handles POST /auth/verify. The gate has already verified the bearer
// token; this handler only echoes the identity it attached.
func (h *Handler) Verify(c *gin.Context) {
	id, ok := auth.IdentityFrom(c)
	if !ok {
		server.RespondWithError(c, errors.Unauthorized(""))
		return
	}
	server.RespondOK(c, VerifyResponse{
		Valid:  true,
		UserID: id.UserID,
		Email:  id.Email,
	})
}

// ForgotPassword handles POST /auth/forgot-password. The response is the
// same whether or not the email exists.
func (h *Handler) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.RespondWithError(c, errors.Validation("request body must be valid JSON"))
		return
	}
	if err := validation.Validate(req); err != nil {
		server.RespondWithError(c, err)
		return
	}

	if err := h.svc.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondMessage(c, forgotPasswordMessage)
}

// ResetPassword handles POST /auth/reset-password.
func (h *Handler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.RespondWithError(c, errors.Validation("request body must be valid JSON"))
		return
	}
	if err := validation.Validate(req); err != nil {
		server.RespondWithError(c, err)
		return
	}

	if err := h.svc.ResetPassword(c.Request.Context(), req.Token, req.NewPassword); err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondMessage(c, resetPasswordMessage)
}
