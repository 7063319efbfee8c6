package repositories

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/mhasan91/teamhub/backend/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	db, err := gorm.Open(dsn, &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Notification{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedNotification(t *testing.T, repo NotificationRepository, recipient uint, createdAt time.Time) *models.Notification {
	t.Helper()
	n := &models.Notification{
		RecipientID: recipient,
		Type:        models.TypeMention,
		Title:       "seed",
		CreatedAt:   createdAt,
	}
	if err := repo.CreateNotification(n); err != nil {
		t.Fatalf("create: %v", err)
	}
	return n
}

func TestMarkAsRead_SetsReadState(t *testing.T) {
	repo := NewPostgresNotificationRepository(newTestDB(t))
	n := seedNotification(t, repo, 1, time.Now())

	if err := repo.MarkAsRead(n.ID, 1); err != nil {
		t.Fatalf("MarkAsRead: %v", err)
	}

	list, _, err := repo.GetByRecipientID(1, 1, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	got := list[0]
	if !got.IsRead || got.ReadAt == nil {
		t.Fatalf("read state not set: %+v", got)
	}
	if got.ClickedAt != nil {
		t.Fatalf("mark-read must not record a click")
	}
}

func TestMarkAsRead_ScopedToRecipient(t *testing.T) {
	repo := NewPostgresNotificationRepository(newTestDB(t))
	n := seedNotification(t, repo, 1, time.Now())

	err := repo.MarkAsRead(n.ID, 2)
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("foreign recipient got %v, want ErrRecordNotFound", err)
	}
}

// Clicking an unread notification promotes it to read in the same update.
func TestMarkAsClicked_UnreadBecomesReadAtomically(t *testing.T) {
	repo := NewPostgresNotificationRepository(newTestDB(t))
	n := seedNotification(t, repo, 1, time.Now())

	if err := repo.MarkAsClicked(n.ID, 1); err != nil {
		t.Fatalf("MarkAsClicked: %v", err)
	}

	list, _, err := repo.GetByRecipientID(1, 1, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	got := list[0]
	if !got.IsRead || got.ReadAt == nil || got.ClickedAt == nil {
		t.Fatalf("click must imply read: %+v", got)
	}
}

func TestMarkAsClicked_PreservesOriginalReadAt(t *testing.T) {
	repo := NewPostgresNotificationRepository(newTestDB(t))
	n := seedNotification(t, repo, 1, time.Now())

	if err := repo.MarkAsRead(n.ID, 1); err != nil {
		t.Fatalf("MarkAsRead: %v", err)
	}
	list, _, _ := repo.GetByRecipientID(1, 1, 10)
	firstReadAt := list[0].ReadAt

	time.Sleep(10 * time.Millisecond)
	if err := repo.MarkAsClicked(n.ID, 1); err != nil {
		t.Fatalf("MarkAsClicked: %v", err)
	}
	list, _, _ = repo.GetByRecipientID(1, 1, 10)
	if !list[0].ReadAt.Equal(*firstReadAt) {
		t.Fatalf("read_at changed on click: %v -> %v", firstReadAt, list[0].ReadAt)
	}
}

func TestMarkAllAsRead(t *testing.T) {
	repo := NewPostgresNotificationRepository(newTestDB(t))
	seedNotification(t, repo, 1, time.Now())
	seedNotification(t, repo, 1, time.Now())
	seedNotification(t, repo, 2, time.Now())

	if err := repo.MarkAllAsRead(1); err != nil {
		t.Fatalf("MarkAllAsRead: %v", err)
	}

	count, err := repo.GetUnreadCount(1)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("unread for user 1 = %d, want 0", count)
	}
	other, _ := repo.GetUnreadCount(2)
	if other != 1 {
		t.Fatalf("unread for user 2 = %d, want 1", other)
	}
}

func TestCountUnreadSince(t *testing.T) {
	repo := NewPostgresNotificationRepository(newTestDB(t))
	now := time.Now()
	seedNotification(t, repo, 1, now.Add(-2*time.Hour))
	seedNotification(t, repo, 1, now.Add(-48*time.Hour))

	count, err := repo.CountUnreadSince(1, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("CountUnreadSince: %v", err)
	}
	if count != 1 {
		t.Fatalf("count = %d, want 1", count)
	}
}

func TestDeleteOlderThan_PurgesOnlyExpired(t *testing.T) {
	repo := NewPostgresNotificationRepository(newTestDB(t))
	now := time.Now()
	seedNotification(t, repo, 1, now.Add(-40*24*time.Hour))
	fresh := seedNotification(t, repo, 1, now.Add(-time.Hour))

	purged, err := repo.DeleteOlderThan(now.Add(-models.NotificationRetention))
	if err != nil {
		t.Fatalf("DeleteOlderThan: %v", err)
	}
	if purged != 1 {
		t.Fatalf("purged = %d, want 1", purged)
	}

	list, total, err := repo.GetByRecipientID(1, 1, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 1 || list[0].ID != fresh.ID {
		t.Fatalf("wrong survivor: total=%d list=%+v", total, list)
	}
}

func TestGetByRecipientID_Pagination(t *testing.T) {
	repo := NewPostgresNotificationRepository(newTestDB(t))
	now := time.Now()
	for i := 0; i < 5; i++ {
		seedNotification(t, repo, 1, now.Add(time.Duration(i)*time.Minute))
	}

	page1, total, err := repo.GetByRecipientID(1, 1, 2)
	if err != nil {
		t.Fatalf("page 1: %v", err)
	}
	if total != 5 || len(page1) != 2 {
		t.Fatalf("total=%d len=%d", total, len(page1))
	}
	// Newest first.
	if !page1[0].CreatedAt.After(page1[1].CreatedAt) {
		t.Fatalf("not sorted newest-first: %v, %v", page1[0].CreatedAt, page1[1].CreatedAt)
	}

	page3, _, err := repo.GetByRecipientID(1, 3, 2)
	if err != nil {
		t.Fatalf("page 3: %v", err)
	}
	if len(page3) != 1 {
		t.Fatalf("page 3 len = %d, want 1", len(page3))
	}
}
