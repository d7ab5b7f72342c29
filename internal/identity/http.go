package identity

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sjw787/HovverAdminDashboard/internal/apperr"
)

// RegisterPublicRoutes mounts the endpoints that run without a bearer token.
func RegisterPublicRoutes(group *gin.RouterGroup, service *Service) {
	handler := &httpHandler{service: service}
	group.POST("/login", handler.login)
	group.POST("/refresh", handler.refresh)
	group.POST("/forgot-password", handler.forgotPassword)
	group.POST("/reset-password", handler.resetPassword)
	group.POST("/complete-new-password", handler.completeNewPassword)
}

// RegisterProtectedRoutes mounts the endpoints that require authentication.
// The group must already carry AuthMiddleware.
func RegisterProtectedRoutes(group *gin.RouterGroup, service *Service) {
	handler := &httpHandler{service: service}
	group.GET("/me", handler.me)
	group.GET("/user-info", handler.userInfo)
	group.POST("/change-password", handler.changePassword)
	group.PUT("/profile", handler.updateProfile)
}

type httpHandler struct {
	service *Service
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8"`
}

type forgotPasswordRequest struct {
	Username string `json:"username" binding:"required"`
}

type resetPasswordRequest struct {
	Username         string `json:"username" binding:"required"`
	ConfirmationCode string `json:"confirmation_code" binding:"required"`
	NewPassword      string `json:"new_password" binding:"required,min=8"`
}

type completeNewPasswordRequest struct {
	Username          string `json:"username" binding:"required"`
	TemporaryPassword string `json:"temporary_password" binding:"required"`
	NewPassword       string `json:"new_password" binding:"required,min=8"`
}

type updateProfileRequest struct {
	FullName    string `json:"full_name"`
	PhoneNumber string `json:"phone_number"`
}

func (h *httpHandler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.Wrap(apperr.KindBadRequest, "invalid request body", err))
		return
	}

	tokens, err := h.service.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, tokens)
}

func (h *httpHandler) refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.Wrap(apperr.KindBadRequest, "invalid request body", err))
		return
	}

	tokens, err := h.service.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, tokens)
}

func (h *httpHandler) me(c *gin.Context) {
	p, ok := CurrentPrincipal(c)
	if !ok {
		apperr.Respond(c, apperr.New(apperr.KindUnauthorized, "unauthorized"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"username":  p.Username,
		"email":     p.Email,
		"sub":       p.Sub,
		"token_use": p.TokenUse,
		"role":      p.Role.String(),
	})
}

func (h *httpHandler) userInfo(c *gin.Context) {
	p, ok := CurrentPrincipal(c)
	if !ok {
		apperr.Respond(c, apperr.New(apperr.KindUnauthorized, "unauthorized"))
		return
	}

	info, err := h.service.UserInfo(c.Request.Context(), p.AccessToken)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, info)
}

func (h *httpHandler) changePassword(c *gin.Context) {
	p, ok := CurrentPrincipal(c)
	if !ok {
		apperr.Respond(c, apperr.New(apperr.KindUnauthorized, "unauthorized"))
		return
	}

	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.Wrap(apperr.KindBadRequest, "invalid request body", err))
		return
	}

	if err := h.service.ChangePassword(c.Request.Context(), p.AccessToken, req.OldPassword, req.NewPassword); err != nil {
		apperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password changed successfully"})
}

func (h *httpHandler) forgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.Wrap(apperr.KindBadRequest, "invalid request body", err))
		return
	}

	delivery, err := h.service.ForgotPassword(c.Request.Context(), req.Username)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, delivery)
}

func (h *httpHandler) resetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.Wrap(apperr.KindBadRequest, "invalid request body", err))
		return
	}

	if err := h.service.ConfirmReset(c.Request.Context(), req.Username, req.ConfirmationCode, req.NewPassword); err != nil {
		apperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password reset successfully"})
}

func (h *httpHandler) completeNewPassword(c *gin.Context) {
	var req completeNewPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.Wrap(apperr.KindBadRequest, "invalid request body", err))
		return
	}

	tokens, err := h.service.CompleteNewPasswordChallenge(c.Request.Context(), req.Username, req.TemporaryPassword, req.NewPassword)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, tokens)
}

func (h *httpHandler) updateProfile(c *gin.Context) {
	p, ok := CurrentPrincipal(c)
	if !ok {
		apperr.Respond(c, apperr.New(apperr.KindUnauthorized, "unauthorized"))
		return
	}

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.Wrap(apperr.KindBadRequest, "invalid request body", err))
		return
	}

	result, err := h.service.UpdateProfile(c.Request.Context(), p.AccessToken, req.FullName, req.PhoneNumber)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
