package identity

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sjw787/HovverAdminDashboard/internal/apperr"
)

const principalContextKey = "hovverPrincipal"

// Principal is the authenticated caller stored in the request context.
type Principal struct {
	Sub         string
	Username    string
	Email       string
	CustomerID  string
	TokenUse    string
	Role        Role
	AccessToken string
}

// AuthMiddleware validates bearer tokens and injects the caller's principal.
func AuthMiddleware(verifier *Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearerToken(c.GetHeader("Authorization"))
		if token == "" {
			apperr.Respond(c, apperr.New(apperr.KindUnauthorized, "missing or invalid authorization header"))
			c.Abort()
			return
		}

		claims, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			apperr.Respond(c, err)
			c.Abort()
			return
		}

		c.Set(principalContextKey, Principal{
			Sub:         claims.Subject,
			Username:    claims.Username,
			Email:       claims.Email,
			CustomerID:  claims.StorageID(),
			TokenUse:    claims.TokenUse,
			Role:        claims.Role(verifier.adminGroup, verifier.customerGroup),
			AccessToken: token,
		})

		c.Next()
	}
}

// RequireAdmin rejects callers without the administrator role. Must run
// after AuthMiddleware.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := CurrentPrincipal(c)
		if !ok || p.Role != RoleAdministrator {
			apperr.Respond(c, apperr.New(apperr.KindForbidden, "admin access required"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentPrincipal extracts the authenticated principal from the context.
func CurrentPrincipal(c *gin.Context) (Principal, bool) {
	value, exists := c.Get(principalContextKey)
	if !exists {
		return Principal{}, false
	}
	p, ok := value.(Principal)
	return p, ok
}

func extractBearerToken(header string) string {
	if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
