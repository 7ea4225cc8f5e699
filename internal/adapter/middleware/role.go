package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

const HeaderRole = "X-Role"

type Role string

const (
	RoleInvestor Role = "investor"
	RoleAnalyst  Role = "analyst"
	RoleAdmin    Role = "admin"
)

// ParseRole is case-insensitive; ok is false for unknown roles.
func ParseRole(s string) (Role, bool) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleInvestor, RoleAnalyst, RoleAdmin:
		return r, true
	}
	return "", false
}

const roleKey = "role"

// RequireRole lets the request through only when X-Role names one of allowed.
// The resolved role is stored on the context for RoleFrom.
func RequireRole(allowed ...Role) echo.MiddlewareFunc {
	set := make(map[Role]struct{}, len(allowed))
	for _, r := range allowed {
		set[r] = struct{}{}
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := c.Request().Header.Get(HeaderRole)
			if strings.TrimSpace(raw) == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing " + HeaderRole})
			}
			role, ok := ParseRole(raw)
			if !ok {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unknown role " + raw})
			}
			if _, ok := set[role]; !ok {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "role " + string(role) + " may not " + c.Request().Method + " " + c.Path()})
			}
			c.Set(roleKey, role)
			return next(c)
		}
	}
}

func RoleFrom(c echo.Context) (Role, bool) {
	r, ok := c.Get(roleKey).(Role)
	return r, ok
}
