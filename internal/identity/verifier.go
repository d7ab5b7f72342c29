package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MicahParks/jwkset"
	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/sjw787/HovverAdminDashboard/internal/apperr"
	"github.com/sjw787/HovverAdminDashboard/internal/config"
)

// Claims are the token claims the API cares about. Group membership drives
// role derivation; custom:customer_id links a customer to their storage folder.
type Claims struct {
	jwt.RegisteredClaims
	Username   string   `json:"cognito:username"`
	Email      string   `json:"email"`
	Groups     []string `json:"cognito:groups"`
	TokenUse   string   `json:"token_use"`
	CustomerID string   `json:"custom:customer_id"`
}

// Role derives the caller's role from the group claims.
func (c *Claims) Role(adminGroup, customerGroup string) Role {
	return RoleFromGroups(c.Groups, adminGroup, customerGroup)
}

// StorageID returns the id that keys the caller's storage folder.
func (c *Claims) StorageID() string {
	if c.CustomerID != "" {
		return c.CustomerID
	}
	return c.Subject
}

// Verifier validates bearer tokens against the provider's published key set.
// The key set is fetched lazily and refreshed in the background, so rotated
// signing keys are picked up without a restart.
type Verifier struct {
	keys          keyfunc.Keyfunc
	leeway        time.Duration
	adminGroup    string
	customerGroup string
}

// NewVerifier builds a Verifier whose key set is served from the provider's
// JWKS endpoint.
func NewVerifier(ctx context.Context, cfg config.CognitoConfig, logg *zap.Logger) (*Verifier, error) {
	storage, err := jwkset.NewStorageFromHTTP(cfg.JWKSURL(), jwkset.HTTPClientStorageOptions{
		Ctx:                       ctx,
		NoErrorReturnFirstHTTPReq: true,
		RefreshInterval:           cfg.JWKSRefresh,
		RefreshErrorHandler: func(_ context.Context, err error) {
			logg.Error("jwks refresh failed", zap.Error(err), zap.String("url", cfg.JWKSURL()))
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create jwks storage: %w", err)
	}

	keys, err := keyfunc.New(keyfunc.Options{Ctx: ctx, Storage: storage})
	if err != nil {
		return nil, fmt.Errorf("create keyfunc: %w", err)
	}

	return &Verifier{
		keys:          keys,
		leeway:        cfg.TokenLeeway,
		adminGroup:    cfg.AdminGroup,
		customerGroup: cfg.CustomerGroup,
	}, nil
}

// NewVerifierWithKeyfunc builds a Verifier around a provided key function.
// Used by tests to inject a locally generated key set.
func NewVerifierWithKeyfunc(kf keyfunc.Keyfunc, leeway time.Duration, adminGroup, customerGroup string) *Verifier {
	return &Verifier{keys: kf, leeway: leeway, adminGroup: adminGroup, customerGroup: customerGroup}
}

// Verify checks the token signature against the cached key set, enforces
// expiry and returns the decoded claims. It is stateless apart from the
// key-set cache.
func (v *Verifier) Verify(ctx context.Context, tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, apperr.New(apperr.KindUnauthorized, "missing bearer token")
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, v.keys.KeyfuncCtx(ctx),
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.leeway),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, apperr.New(apperr.KindUnauthorized, "token has expired")
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, apperr.New(apperr.KindUnauthorized, "malformed token")
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, apperr.New(apperr.KindUnauthorized, "invalid token signature")
		default:
			return nil, apperr.Wrap(apperr.KindUnauthorized, "token verification failed", err)
		}
	}
	if !token.Valid {
		return nil, apperr.New(apperr.KindUnauthorized, "invalid token")
	}

	return claims, nil
}
