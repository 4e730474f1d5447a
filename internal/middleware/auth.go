package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/openclaw/pokerhall/internal/httperr"
	"github.com/openclaw/pokerhall/internal/models"
	"github.com/openclaw/pokerhall/internal/tokens"
)

const claimsKey = "auth_claims"

// AuthMiddleware is the per-request auth gate: one synchronous token
// verification, no I/O.
type AuthMiddleware struct {
	Codec *tokens.Codec
}

func NewAuth(codec *tokens.Codec) *AuthMiddleware {
	return &AuthMiddleware{Codec: codec}
}

// RequireAuth reads the access token from the access_token cookie, falling
// back to an Authorization: Bearer header, verifies it and attaches the
// decoded claims to the request context.
func (m *AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw := ""
		if cookie, err := c.Cookie("access_token"); err == nil && cookie.Value != "" {
			raw = cookie.Value
		} else if h := c.Request().Header.Get(echo.HeaderAuthorization); strings.HasPrefix(h, "Bearer ") {
			raw = strings.TrimPrefix(h, "Bearer ")
		}
		if raw == "" {
			return httperr.Unauthorized("Missing authentication token")
		}

		claims, err := m.Codec.ParseAccess(raw)
		if err != nil {
			return httperr.Unauthorized("Invalid or expired token")
		}

		c.Set(claimsKey, claims)
		return next(c)
	}
}

// RequireRole gates a route on an allow-list of roles. Must run after
// RequireAuth.
func RequireRole(allowed ...models.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims := ClaimsFromContext(c)
			if claims == nil {
				return httperr.Forbidden("Insufficient permissions for this operation", allowed...)
			}
			for _, role := range allowed {
				if claims.Role == role {
					return next(c)
				}
			}
			return httperr.Forbidden("Insufficient permissions for this operation", allowed...)
		}
	}
}

func ClaimsFromContext(c echo.Context) *tokens.Claims {
	if v := c.Get(claimsKey); v != nil {
		if claims, ok := v.(*tokens.Claims); ok {
			return claims
		}
	}
	return nil
}
