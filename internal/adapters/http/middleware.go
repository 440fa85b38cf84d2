package http

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/taskmaster/routine/internal/infrastructure/logger"
	"github.com/taskmaster/routine/internal/ports"
)

const (
	contextUserID    = "user"
	contextUserEmail = "user_email"
)

// AuthMiddleware validates bearer JWT tokens and stores the caller in the context
func AuthMiddleware(auth ports.AuthService, log *logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing authorization header")
			}

			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader || tokenString == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid authorization header format")
			}

			claims, err := auth.ValidateToken(tokenString)
			if err != nil {
				log.LogSecurityEvent("invalid_token", "", c.RealIP(), map[string]interface{}{
					"error": err.Error(),
				})
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
			}

			c.Set(contextUserID, claims.UserID)
			c.Set(contextUserEmail, claims.Email)
			return next(c)
		}
	}
}

func userIDFromContext(c echo.Context) string {
	id, _ := c.Get(contextUserID).(string)
	return id
}
