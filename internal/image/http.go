package image

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sjw787/HovverAdminDashboard/internal/apperr"
	"github.com/sjw787/HovverAdminDashboard/internal/identity"
)

// RegisterRoutes mounts the photo store endpoints. The group must already
// run the auth middleware; per-role checks happen in the service.
func (s *Service) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/upload", s.handleUpload)
	rg.GET("/list", s.handleList)
	rg.DELETE("/*key", s.handleDelete)
}

func (s *Service) handleUpload(c *gin.Context) {
	p, ok := identity.CurrentPrincipal(c)
	if !ok {
		apperr.Respond(c, apperr.New(apperr.KindUnauthorized, "authentication required"))
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		apperr.Respond(c, apperr.New(apperr.KindBadRequest, "a file form field is required"))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		apperr.Respond(c, apperr.Wrap(apperr.KindInternal, "failed to read uploaded file", err))
		return
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	result, err := s.Upload(
		c.Request.Context(),
		p,
		c.Query("customer_id"),
		fileHeader.Filename,
		contentType,
		fileHeader.Size,
		file,
	)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (s *Service) handleList(c *gin.Context) {
	p, ok := identity.CurrentPrincipal(c)
	if !ok {
		apperr.Respond(c, apperr.New(apperr.KindUnauthorized, "authentication required"))
		return
	}

	maxKeys := 0
	if raw := c.Query("max_keys"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			apperr.Respond(c, apperr.New(apperr.KindBadRequest, "max_keys must be a non-negative integer"))
			return
		}
		maxKeys = parsed
	}

	objects, err := s.List(c.Request.Context(), p, c.Query("prefix"), maxKeys)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	if objects == nil {
		objects = []Object{}
	}
	c.JSON(http.StatusOK, gin.H{"objects": objects, "count": len(objects)})
}

func (s *Service) handleDelete(c *gin.Context) {
	p, ok := identity.CurrentPrincipal(c)
	if !ok {
		apperr.Respond(c, apperr.New(apperr.KindUnauthorized, "authentication required"))
		return
	}

	key := strings.TrimPrefix(c.Param("key"), "/")
	if err := s.Delete(c.Request.Context(), p, key); err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "file deleted", "key": key})
}
