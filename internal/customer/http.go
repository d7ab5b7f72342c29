package customer

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sjw787/HovverAdminDashboard/internal/apperr"
)

type createRequest struct {
	Email string `json:"email" binding:"required,email"`
	Name  string `json:"name" binding:"required"`
	Phone string `json:"phone_number"`
}

type updateRequest struct {
	Name    *string `json:"name"`
	Phone   *string `json:"phone_number"`
	Enabled *bool   `json:"enabled"`
}

// RegisterRoutes mounts the customer directory endpoints. The caller is
// expected to guard the group with admin-only middleware.
func (s *Service) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", s.handleCreate)
	rg.GET("", s.handleList)
	rg.GET("/:id", s.handleGet)
	rg.PATCH("/:id", s.handleUpdate)
	rg.POST("/:id/resend-welcome", s.handleResendWelcome)
}

func (s *Service) handleCreate(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.New(apperr.KindBadRequest, "email and name are required"))
		return
	}
	result, err := s.Create(c.Request.Context(), req.Email, req.Name, req.Phone)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (s *Service) handleList(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			apperr.Respond(c, apperr.New(apperr.KindBadRequest, "limit must be a non-negative integer"))
			return
		}
		limit = parsed
	}

	customers, err := s.List(c.Request.Context(), limit)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	if customers == nil {
		customers = []Customer{}
	}
	c.JSON(http.StatusOK, gin.H{"customers": customers, "count": len(customers)})
}

func (s *Service) handleGet(c *gin.Context) {
	cust, err := s.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, cust)
}

func (s *Service) handleUpdate(c *gin.Context) {
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.New(apperr.KindBadRequest, "invalid update payload"))
		return
	}
	cust, err := s.Update(c.Request.Context(), c.Param("id"), Update{
		Name:    req.Name,
		Phone:   req.Phone,
		Enabled: req.Enabled,
	})
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, cust)
}

func (s *Service) handleResendWelcome(c *gin.Context) {
	cust, tempPassword, err := s.ResendWelcome(c.Request.Context(), c.Param("id"))
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":            "welcome email resent",
		"customer":           cust,
		"temporary_password": tempPassword,
	})
}
