package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/mhasan91/teamhub/backend/internal/models"
	"github.com/mhasan91/teamhub/backend/internal/repositories"
)

// PreferenceHandler handles notification preference and device registration requests
type PreferenceHandler struct {
	preferenceRepository repositories.PreferenceRepository
	userRepository       repositories.UserRepository
}

// NewPreferenceHandler creates a new PreferenceHandler
func NewPreferenceHandler(prefRepo repositories.PreferenceRepository, userRepo repositories.UserRepository) *PreferenceHandler {
	return &PreferenceHandler{
		preferenceRepository: prefRepo,
		userRepository:       userRepo,
	}
}

// RegisterPreferenceRoutes registers preference routes
func (h *PreferenceHandler) RegisterPreferenceRoutes(g *echo.Group) {
	g.GET("/notification-preferences", h.GetPreferences)
	g.PUT("/notification-preferences", h.UpdatePreferences)
	g.POST("/push-tokens", h.RegisterPushToken)
	g.DELETE("/push-tokens/:token", h.DeletePushToken)
}

// GetPreferences returns the user's routing document, materializing the
// defaults on first access.
func (h *PreferenceHandler) GetPreferences(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	prefs, err := h.preferenceRepository.GetOrCreate(c.Request().Context(), currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"preferences": prefs}})
}

// UpdatePreferences replaces the user's routing document
func (h *PreferenceHandler) UpdatePreferences(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.UpdatePreferencesRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	for _, block := range []models.ChannelPreferences{req.Email, req.Push, req.InApp} {
		for t := range block.Types {
			if !isKnownNotificationType(t) {
				return echo.NewHTTPError(http.StatusBadRequest, "Unknown notification type: "+string(t))
			}
		}
	}

	prefs := &models.UserNotificationPreferences{
		UserID: currentUserID,
		Email:  req.Email,
		Push:   req.Push,
		InApp:  req.InApp,
	}
	if err := h.preferenceRepository.Update(c.Request().Context(), prefs); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"preferences": prefs}})
}

// RegisterPushToken stores a device token for FCM delivery
func (h *PreferenceHandler) RegisterPushToken(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.RegisterPushTokenRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	token := &models.PushToken{
		UserID:   currentUserID,
		Token:    req.Token,
		Platform: req.Platform,
	}
	if err := h.userRepository.CreatePushToken(token); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusCreated, echo.Map{"success": true, "data": echo.Map{"push_token": token}})
}

// DeletePushToken removes a device token
func (h *PreferenceHandler) DeletePushToken(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	if err := h.userRepository.DeletePushToken(currentUserID, c.Param("token")); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"success": true}})
}

func isKnownNotificationType(t models.NotificationType) bool {
	for _, known := range models.NotificationTypes {
		if known == t {
			return true
		}
	}
	return false
}
