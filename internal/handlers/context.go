package handlers

import (
	"github.com/labstack/echo/v4"
	"github.com/mhasan91/teamhub/backend/internal/models"
)

// getUserIDFromContext extracts the authenticated user id set by the JWT
// middleware; 0 means unauthenticated.
func getUserIDFromContext(c echo.Context) uint {
	claims, ok := c.Get("user").(*models.JwtCustomClaims)
	if !ok || claims == nil {
		return 0
	}
	return claims.UserID
}

func getRoleFromContext(c echo.Context) models.Role {
	claims, ok := c.Get("user").(*models.JwtCustomClaims)
	if !ok || claims == nil {
		return ""
	}
	return claims.Role
}
