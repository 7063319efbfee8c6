package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/mhasan91/teamhub/backend/internal/models"
	"github.com/mhasan91/teamhub/backend/internal/repositories"
	"github.com/mhasan91/teamhub/backend/internal/webhooks"
)

// WebhookHandler manages external webhook subscriptions (admin only)
type WebhookHandler struct {
	webhookRepository repositories.WebhookRepository
	deliverer         *webhooks.Deliverer
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(webhookRepo repositories.WebhookRepository, deliverer *webhooks.Deliverer) *WebhookHandler {
	return &WebhookHandler{
		webhookRepository: webhookRepo,
		deliverer:         deliverer,
	}
}

// RegisterWebhookRoutes registers webhook routes
func (h *WebhookHandler) RegisterWebhookRoutes(g *echo.Group) {
	g.GET("/webhooks", h.GetWebhooks)
	g.POST("/webhooks", h.CreateWebhook)
	g.PUT("/webhooks/:id", h.UpdateWebhook)
	g.DELETE("/webhooks/:id", h.DeleteWebhook)
	g.POST("/webhooks/:id/test", h.TestWebhook)
}

// GetWebhooks lists all registered webhooks
func (h *WebhookHandler) GetWebhooks(c echo.Context) error {
	hooks, err := h.webhookRepository.GetAll(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"webhooks": hooks}})
}

// CreateWebhook registers a new external subscription
func (h *WebhookHandler) CreateWebhook(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.CreateWebhookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	for _, event := range req.Events {
		if !models.IsValidWebhookEvent(event) {
			return echo.NewHTTPError(http.StatusBadRequest, "Unknown event: "+string(event))
		}
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}
	retries := req.RetryAttempts
	if retries == 0 {
		retries = models.DefaultRetryAttempts
	}

	webhook := &models.Webhook{
		Name:          req.Name,
		URL:           req.URL,
		Active:        active,
		Events:        req.Events,
		Headers:       req.Headers,
		Secret:        req.Secret,
		RetryAttempts: retries,
		OwnerID:       currentUserID,
	}
	if err := h.webhookRepository.Create(c.Request().Context(), webhook); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusCreated, echo.Map{"success": true, "data": echo.Map{"webhook": webhook}})
}

// UpdateWebhook applies a partial update to a subscription
func (h *WebhookHandler) UpdateWebhook(c echo.Context) error {
	ctx := c.Request().Context()
	webhook, err := h.webhookRepository.GetByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, repositories.ErrWebhookNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Webhook not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var req models.UpdateWebhookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if req.Name != nil {
		webhook.Name = *req.Name
	}
	if req.URL != nil {
		webhook.URL = *req.URL
	}
	if req.Events != nil {
		for _, event := range req.Events {
			if !models.IsValidWebhookEvent(event) {
				return echo.NewHTTPError(http.StatusBadRequest, "Unknown event: "+string(event))
			}
		}
		webhook.Events = req.Events
	}
	if req.Headers != nil {
		webhook.Headers = req.Headers
	}
	if req.Secret != nil {
		webhook.Secret = *req.Secret
	}
	if req.RetryAttempts != nil {
		webhook.RetryAttempts = *req.RetryAttempts
	}
	if req.Active != nil {
		webhook.Active = *req.Active
	}

	if err := h.webhookRepository.Update(ctx, webhook); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"webhook": webhook}})
}

// DeleteWebhook removes a subscription
func (h *WebhookHandler) DeleteWebhook(c echo.Context) error {
	if err := h.webhookRepository.Delete(c.Request().Context(), c.Param("id")); err != nil {
		if errors.Is(err, repositories.ErrWebhookNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Webhook not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"success": true}})
}

// TestWebhook performs one real delivery so operators can diagnose a
// subscription; the per-attempt status and message come back verbatim.
func (h *WebhookHandler) TestWebhook(c echo.Context) error {
	ctx := c.Request().Context()
	webhook, err := h.webhookRepository.GetByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, repositories.ErrWebhookNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Webhook not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	// Single attempt: the operator wants the live status, not retries.
	test := *webhook
	test.RetryAttempts = 1
	result := h.deliverer.Deliver(ctx, &test, models.EventWebhookTest, map[string]any{
		"message": "This is a test delivery from TeamHub",
	})

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"result": result}})
}
