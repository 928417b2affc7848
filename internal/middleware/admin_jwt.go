package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const RoleAdmin = "ADMIN"

// AdminJWT accepts HS256 bearer tokens whose "role" claim is ADMIN and stores
// the subject under "user_id". An empty secret rejects every request.
func AdminJWT(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if secret == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "admin access is not configured")
			}

			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			raw, ok := strings.CutPrefix(auth, "Bearer ")
			if !ok || raw == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}

			claims := jwt.MapClaims{}
			tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
				return []byte(secret), nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
			if err != nil || !tok.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			if role, _ := claims["role"].(string); role != RoleAdmin {
				return echo.NewHTTPError(http.StatusForbidden, "admin role required")
			}

			sub, _ := claims.GetSubject()
			c.Set("user_id", sub)
			c.Set("role", RoleAdmin)
			return next(c)
		}
	}
}
