package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/mhasan91/teamhub/backend/internal/automation"
	"github.com/mhasan91/teamhub/backend/internal/models"
)

// AutomationHandler exposes the scheduled daily-run entry point
type AutomationHandler struct {
	orchestrator *automation.Orchestrator
	token        string
}

// NewAutomationHandler creates a new AutomationHandler
func NewAutomationHandler(orchestrator *automation.Orchestrator, token string) *AutomationHandler {
	return &AutomationHandler{orchestrator: orchestrator, token: token}
}

// RegisterAutomationRoutes registers automation routes
func (h *AutomationHandler) RegisterAutomationRoutes(g *echo.Group) {
	g.POST("/automation/daily-run", h.DailyRun)
}

// DailyRun executes the daily job sequence. The caller must be an admin AND
// present the out-of-band scheduler token; both gates reject before any job
// runs. The response lists every job by name with its outcome, never a bare
// pass/fail.
func (h *AutomationHandler) DailyRun(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	if getRoleFromContext(c) != models.RoleAdmin {
		return echo.NewHTTPError(http.StatusForbidden, "Admin role required")
	}
	if h.token == "" || c.Request().Header.Get("X-Automation-Token") != h.token {
		return echo.NewHTTPError(http.StatusForbidden, "Invalid automation token")
	}

	results := h.orchestrator.RunDaily(c.Request().Context())

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"jobs": results}})
}
