package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/mhasan91/teamhub/backend/internal/models"
	"github.com/mhasan91/teamhub/backend/internal/notify"
	"github.com/mhasan91/teamhub/backend/internal/repositories"
	"github.com/mhasan91/teamhub/backend/internal/webhooks"
	"gorm.io/gorm"
)

// CommentHandler handles task comments, the event source that drives
// mention and task_comment notifications plus the task.commented webhook.
type CommentHandler struct {
	taskRepository repositories.TaskRepository
	userRepository repositories.UserRepository
	dispatcher     *notify.Dispatcher
	deliverer      *webhooks.Deliverer
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(taskRepo repositories.TaskRepository, userRepo repositories.UserRepository, dispatcher *notify.Dispatcher, deliverer *webhooks.Deliverer) *CommentHandler {
	return &CommentHandler{
		taskRepository: taskRepo,
		userRepository: userRepo,
		dispatcher:     dispatcher,
		deliverer:      deliverer,
	}
}

// RegisterCommentRoutes registers comment routes
func (h *CommentHandler) RegisterCommentRoutes(g *echo.Group) {
	g.POST("/tasks/:id/comments", h.CreateComment)
}

// CreateComment stores the comment and fans out its notifications. Delivery
// is best-effort; only persistence failures reach the caller.
func (h *CommentHandler) CreateComment(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	taskID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid task ID")
	}

	var req models.CreateCommentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	task, err := h.taskRepository.GetTaskByID(uint(taskID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Task not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	comment := &models.TaskComment{
		TaskID:   task.ID,
		AuthorID: currentUserID,
		Body:     req.Body,
	}
	if err := h.taskRepository.CreateComment(comment); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	author, _ := h.userRepository.GetUserByID(currentUserID)
	authorName := "Someone"
	if author != nil {
		authorName = author.DisplayName
	}
	ctx := c.Request().Context()

	// Mentioned users, author excluded inside the dispatcher.
	h.dispatcher.NotifyMany(ctx, dedupe(req.Mentions), notify.Request{
		Type:     models.TypeMention,
		Title:    authorName + " mentioned you in a comment",
		Body:     req.Body,
		ActorID:  currentUserID,
		RefKind:  "task",
		RefID:    fmt.Sprint(task.ID),
		Metadata: map[string]any{"comment_id": comment.ID},
	})

	// The assignee learns about any comment on their task, unless it was
	// their own or they were already mentioned.
	if task.AssigneeID != 0 && task.AssigneeID != currentUserID && !contains(req.Mentions, task.AssigneeID) {
		if _, err := h.dispatcher.Notify(ctx, notify.Request{
			RecipientID: task.AssigneeID,
			Type:        models.TypeTaskComment,
			Title:       authorName + " commented on " + task.Title,
			Body:        req.Body,
			ActorID:     currentUserID,
			RefKind:     "task",
			RefID:       fmt.Sprint(task.ID),
			Metadata:    map[string]any{"comment_id": comment.ID},
		}); err != nil {
			c.Logger().Errorf("notify assignee %d: %v", task.AssigneeID, err)
		}
	}

	// Integration fan-out runs detached from this request.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		h.deliverer.Trigger(ctx, models.EventTaskCommented, map[string]any{
			"task_id":    task.ID,
			"project_id": task.ProjectID,
			"author_id":  currentUserID,
			"comment_id": comment.ID,
			"body":       req.Body,
		})
	}()

	return c.JSON(http.StatusCreated, echo.Map{"success": true, "data": echo.Map{"comment": comment}})
}

func dedupe(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func contains(ids []uint, id uint) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
