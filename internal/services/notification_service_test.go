package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mmoboard_backend/internal/models"
	"mmoboard_backend/internal/repositories"
	"mmoboard_backend/internal/services/dto"
)

func newNotificationFixture() (*fakeNotificationRepo, *fakeUserRepo, *fakeQueue, *fakePusher, NotificationService) {
	notifRepo := newFakeNotificationRepo()
	userRepo := newFakeUserRepo()
	queue := newFakeQueue()
	pusher := newFakePusher()
	svc := NewNotificationService(notifRepo, userRepo, queue, pusher)
	return notifRepo, userRepo, queue, pusher, svc
}

func TestNotifyCreatesAndDispatches(t *testing.T) {
	notifRepo, userRepo, queue, pusher, svc := newNotificationFixture()
	recipientID := userRepo.addUser("gandalf", true, true)

	n, err := svc.Notify(NotifyInput{
		RecipientID: recipientID,
		Type:        models.NotificationTypeSystem,
		Title:       "Maintenance tonight",
		Message:     "Servers restart at 03:00 UTC",
	})
	require.NoError(t, err)
	require.NotEmpty(t, n.ID)

	stored, err := notifRepo.FindByID(n.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsRead)
	assert.False(t, stored.IsSent)

	assert.Equal(t, []string{n.ID}, queue.notifications)
	assert.Len(t, pusher.pushes[recipientID], 1)
}

func TestDispatchSkipsEmailWhenOptedOut(t *testing.T) {
	_, userRepo, queue, pusher, svc := newNotificationFixture()
	recipientID := userRepo.addUser("frodo", false, true)

	_, err := svc.Notify(NotifyInput{
		RecipientID: recipientID,
		Type:        models.NotificationTypeSystem,
		Title:       "Hello",
	})
	require.NoError(t, err)

	// the in-app push still happens, only the email leg is gated
	assert.Len(t, pusher.pushes[recipientID], 1)
	assert.Empty(t, queue.notifications)
}

func TestNotifyUnknownRecipient(t *testing.T) {
	_, _, _, _, svc := newNotificationFixture()

	_, err := svc.Notify(NotifyInput{
		RecipientID: "00000000-0000-0000-0000-000000000000",
		Type:        models.NotificationTypeSystem,
		Title:       "Hello",
	})
	require.Error(t, err)
}

func TestMarkAsReadIsIdempotent(t *testing.T) {
	notifRepo, userRepo, _, _, svc := newNotificationFixture()
	recipientID := userRepo.addUser("sam", true, true)

	n, err := svc.Notify(NotifyInput{
		RecipientID: recipientID,
		Type:        models.NotificationTypeSystem,
		Title:       "Hello",
	})
	require.NoError(t, err)

	require.NoError(t, svc.MarkAsRead(recipientID, n.ID))
	first, err := notifRepo.FindByID(n.ID)
	require.NoError(t, err)
	require.True(t, first.IsRead)
	require.NotNil(t, first.ReadAt)
	firstReadAt := *first.ReadAt

	// second call is a no-op, read_at keeps its original value
	require.NoError(t, svc.MarkAsRead(recipientID, n.ID))
	second, err := notifRepo.FindByID(n.ID)
	require.NoError(t, err)
	assert.Equal(t, firstReadAt, *second.ReadAt)
}

func TestMarkAsReadForeignNotificationIsNotFound(t *testing.T) {
	_, userRepo, _, _, svc := newNotificationFixture()
	ownerID := userRepo.addUser("owner", true, true)
	otherID := userRepo.addUser("other", true, true)

	n, err := svc.Notify(NotifyInput{
		RecipientID: ownerID,
		Type:        models.NotificationTypeSystem,
		Title:       "Private",
	})
	require.NoError(t, err)

	err = svc.MarkAsRead(otherID, n.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestGetDetailMarksRead(t *testing.T) {
	_, userRepo, _, _, svc := newNotificationFixture()
	recipientID := userRepo.addUser("merry", true, true)

	n, err := svc.Notify(NotifyInput{
		RecipientID: recipientID,
		Type:        models.NotificationTypeSystem,
		Title:       "Hello",
	})
	require.NoError(t, err)

	detail, err := svc.GetDetail(recipientID, n.ID)
	require.NoError(t, err)
	assert.True(t, detail.IsRead)
	assert.NotNil(t, detail.ReadAt)

	count, err := svc.UnreadCount(recipientID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestMarkAllAsReadReturnsCount(t *testing.T) {
	_, userRepo, _, _, svc := newNotificationFixture()
	recipientID := userRepo.addUser("pippin", true, true)

	for i := 0; i < 3; i++ {
		_, err := svc.Notify(NotifyInput{
			RecipientID: recipientID,
			Type:        models.NotificationTypeSystem,
			Title:       "Hello",
		})
		require.NoError(t, err)
	}

	marked, err := svc.MarkAllAsRead(recipientID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), marked)

	marked, err = svc.MarkAllAsRead(recipientID)
	require.NoError(t, err)
	assert.Zero(t, marked)
}

func TestListFiltersAndCounts(t *testing.T) {
	_, userRepo, _, _, svc := newNotificationFixture()
	recipientID := userRepo.addUser("boromir", true, true)

	n1, err := svc.Notify(NotifyInput{
		RecipientID: recipientID,
		Type:        models.NotificationTypeSystem,
		Title:       "one",
	})
	require.NoError(t, err)
	_, err = svc.Notify(NotifyInput{
		RecipientID: recipientID,
		Type:        models.NotificationTypeNewResponse,
		Title:       "two",
	})
	require.NoError(t, err)

	require.NoError(t, svc.MarkAsRead(recipientID, n1.ID))

	resp, err := svc.List(recipientID, repositories.NotificationCriteria{ReadStatus: "unread"})
	require.NoError(t, err)
	require.Len(t, resp.Notifications, 1)
	assert.Equal(t, "two", resp.Notifications[0].Title)
	assert.Equal(t, int64(2), resp.TotalCount)
	assert.Equal(t, int64(1), resp.UnreadCount)
	assert.Equal(t, int64(1), resp.ReadCount)
}

func TestBulkNotifySkipsFailures(t *testing.T) {
	_, userRepo, queue, _, svc := newNotificationFixture()
	aliceID := userRepo.addUser("alice", true, true)
	bobID := userRepo.addUser("bob", true, true)

	created, err := svc.BulkNotify(&dto.SendBulkNotificationRequest{
		UserIDs: []string{aliceID, bobID, "missing-user"},
		Type:    models.NotificationTypeSystem,
		Title:   "Patch notes",
		Message: "Version 2.1 is live",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, created)
	assert.Len(t, queue.notifications, 2)
}

func TestBulkNotifyRejectsInvalidType(t *testing.T) {
	_, userRepo, _, _, svc := newNotificationFixture()
	userRepo.addUser("alice", true, true)

	_, err := svc.BulkNotify(&dto.SendBulkNotificationRequest{
		UserIDs: []string{"x"},
		Type:    "bogus",
		Title:   "t",
		Message: "m",
	})
	require.Error(t, err)
}

func TestDeleteRemovesOwnNotificationOnly(t *testing.T) {
	_, userRepo, _, _, svc := newNotificationFixture()
	ownerID := userRepo.addUser("owner", true, true)
	otherID := userRepo.addUser("other", true, true)

	n, err := svc.Notify(NotifyInput{
		RecipientID: ownerID,
		Type:        models.NotificationTypeSystem,
		Title:       "Hello",
	})
	require.NoError(t, err)

	require.Error(t, svc.Delete(otherID, n.ID))
	require.NoError(t, svc.Delete(ownerID, n.ID))
	require.Error(t, svc.Delete(ownerID, n.ID))
}
