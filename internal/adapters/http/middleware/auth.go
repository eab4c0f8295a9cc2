package middleware

import (
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quotesync/internal/adapters/http/dto"
	"github.com/jsamuelsen/quotesync/internal/platform/config"
)

const (
	// ContextKeyClaims is the gin context key for extracted claims.
	ContextKeyClaims = "claims"

	defaultSubjectHeader = "X-User-ID"
	defaultRolesHeader   = "X-User-Roles"
	defaultScopesHeader  = "X-User-Scopes"
)

// Claims is the identity an API gateway forwards in headers after it has
// verified the caller's token. This service trusts them as given.
type Claims struct {
	Subject string
	Roles   []string
	Scopes  []string
}

// HasRole reports whether the caller has role.
func (c *Claims) HasRole(role string) bool {
	return slices.Contains(c.Roles, role)
}

// HasScope reports whether the caller was granted scope.
func (c *Claims) HasScope(scope string) bool {
	return slices.Contains(c.Scopes, scope)
}

// ExtractClaims reads the gateway headers named in cfg. Roles are comma
// separated, scopes space separated as in OAuth2.
func ExtractClaims(c *gin.Context, cfg *config.AuthConfig) *Claims {
	subjectHeader := headerOr(cfg, func(a *config.AuthConfig) string { return a.SubjectHeader }, defaultSubjectHeader)
	rolesHeader := headerOr(cfg, func(a *config.AuthConfig) string { return a.RolesHeader }, defaultRolesHeader)
	scopesHeader := headerOr(cfg, func(a *config.AuthConfig) string { return a.ScopesHeader }, defaultScopesHeader)

	claims := &Claims{Subject: strings.TrimSpace(c.GetHeader(subjectHeader))}

	for r := range strings.SplitSeq(c.GetHeader(rolesHeader), ",") {
		if r = strings.TrimSpace(r); r != "" {
			claims.Roles = append(claims.Roles, r)
		}
	}

	claims.Scopes = strings.Fields(c.GetHeader(scopesHeader))

	return claims
}

func headerOr(cfg *config.AuthConfig, pick func(*config.AuthConfig) string, fallback string) string {
	if cfg == nil {
		return fallback
	}

	if h := pick(cfg); h != "" {
		return h
	}

	return fallback
}

// GetClaims returns the claims stored by RequireAuth, or nil.
func GetClaims(c *gin.Context) *Claims {
	if v, ok := c.Get(ContextKeyClaims); ok {
		if claims, ok := v.(*Claims); ok {
			return claims
		}
	}

	return nil
}

// RequireAuth rejects requests without a subject header with 403 and stores
// the claims for later middleware and handlers.
func RequireAuth(cfg *config.AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := ExtractClaims(c, cfg)
		if claims.Subject == "" {
			dto.AbortWithCode(c, dto.ErrorCodeForbidden, "authentication required")
			return
		}

		c.Set(ContextKeyClaims, claims)
		c.Next()
	}
}

// RequireScope rejects callers that were not granted scope. Callers with
// the admin role pass regardless.
func RequireScope(cfg *config.AuthConfig, scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			claims = ExtractClaims(c, cfg)
			c.Set(ContextKeyClaims, claims)
		}

		if !claims.HasScope(scope) && !claims.HasRole(AdminRole) {
			dto.AbortWithCode(c, dto.ErrorCodeForbidden, "insufficient permissions: scope "+scope+" required")
			return
		}

		c.Next()
	}
}

// AdminRole bypasses scope checks.
const AdminRole = "admin"
