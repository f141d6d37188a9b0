package services

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"mmoboard_backend/internal/models"
	"mmoboard_backend/internal/repositories"
	"mmoboard_backend/internal/services/dto"
)

type responseFixture struct {
	users         *fakeUserRepo
	posts         *fakePostRepo
	responses     *fakeResponseRepo
	notifications *fakeNotificationRepo
	queue         *fakeQueue
	pusher        *fakePusher
	svc           ResponseService
}

func newResponseFixture() *responseFixture {
	users := newFakeUserRepo()
	posts := newFakePostRepo()
	responses := newFakeResponseRepo(posts, users)
	notifications := newFakeNotificationRepo()
	queue := newFakeQueue()
	pusher := newFakePusher()

	notificationSvc := NewNotificationService(notifications, users, queue, pusher)
	svc := NewResponseService(&fakeTransactor{}, responses, posts, users, notificationSvc)

	return &responseFixture{
		users:         users,
		posts:         posts,
		responses:     responses,
		notifications: notifications,
		queue:         queue,
		pusher:        pusher,
		svc:           svc,
	}
}

func TestCreateResponseNotifiesPostAuthor(t *testing.T) {
	f := newResponseFixture()
	posterID := f.users.addUser("poster", true, true)
	responderID := f.users.addUser("responder", true, true)
	postID := f.posts.addPost(posterID, "Need a healer for raid")

	response, err := f.svc.CreateResponse(responderID, postID, &dto.CreateResponseRequest{
		Content: "My priest is level 60",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ResponseStatusPending, response.Status)

	created := f.notifications.forRecipient(posterID)
	require.Len(t, created, 1)
	n := created[0]
	assert.Equal(t, models.NotificationTypeNewResponse, n.Type)
	require.NotNil(t, n.SenderID)
	assert.Equal(t, responderID, *n.SenderID)
	require.NotNil(t, n.SubjectID)
	assert.Equal(t, response.ID, *n.SubjectID)
	assert.Contains(t, n.Message, "Need a healer for raid")

	// email leg enqueued, in-app push delivered
	assert.Equal(t, []string{n.ID}, f.queue.notifications)
	assert.Len(t, f.pusher.pushes[posterID], 1)
}

func TestCreateResponseOwnPostRejected(t *testing.T) {
	f := newResponseFixture()
	posterID := f.users.addUser("poster", true, true)
	postID := f.posts.addPost(posterID, "Selling ore")

	_, err := f.svc.CreateResponse(posterID, postID, &dto.CreateResponseRequest{Content: "me"})
	require.Error(t, err)
	assert.Empty(t, f.notifications.notifications)
}

func TestCreateResponseDuplicateRejected(t *testing.T) {
	f := newResponseFixture()
	posterID := f.users.addUser("poster", true, true)
	responderID := f.users.addUser("responder", true, true)
	postID := f.posts.addPost(posterID, "LFG")

	_, err := f.svc.CreateResponse(responderID, postID, &dto.CreateResponseRequest{Content: "first"})
	require.NoError(t, err)

	_, err = f.svc.CreateResponse(responderID, postID, &dto.CreateResponseRequest{Content: "second"})
	require.Error(t, err)

	// only the first response produced a notification
	assert.Len(t, f.notifications.forRecipient(posterID), 1)
}

func TestReviewResponseAcceptNotifiesAuthor(t *testing.T) {
	f := newResponseFixture()
	posterID := f.users.addUser("poster", true, true)
	responderID := f.users.addUser("responder", true, true)
	postID := f.posts.addPost(posterID, "Guild recruiting")

	response, err := f.svc.CreateResponse(responderID, postID, &dto.CreateResponseRequest{Content: "invite me"})
	require.NoError(t, err)

	reviewed, err := f.svc.ReviewResponse(posterID, response.ID, models.ResponseStatusAccepted)
	require.NoError(t, err)
	assert.Equal(t, models.ResponseStatusAccepted, reviewed.Status)

	created := f.notifications.forRecipient(responderID)
	require.Len(t, created, 1)
	assert.Equal(t, models.NotificationTypeResponseAccepted, created[0].Type)
	assert.Contains(t, created[0].Message, "accepted")
}

func TestReviewResponseRejectNotifiesAuthor(t *testing.T) {
	f := newResponseFixture()
	posterID := f.users.addUser("poster", true, true)
	responderID := f.users.addUser("responder", true, true)
	postID := f.posts.addPost(posterID, "Guild recruiting")

	response, err := f.svc.CreateResponse(responderID, postID, &dto.CreateResponseRequest{Content: "invite me"})
	require.NoError(t, err)

	_, err = f.svc.ReviewResponse(posterID, response.ID, models.ResponseStatusRejected)
	require.NoError(t, err)

	created := f.notifications.forRecipient(responderID)
	require.Len(t, created, 1)
	assert.Equal(t, models.NotificationTypeResponseRejected, created[0].Type)
}

func TestReviewResponseOnlyPostAuthor(t *testing.T) {
	f := newResponseFixture()
	posterID := f.users.addUser("poster", true, true)
	responderID := f.users.addUser("responder", true, true)
	strangerID := f.users.addUser("stranger", true, true)
	postID := f.posts.addPost(posterID, "LFG")

	response, err := f.svc.CreateResponse(responderID, postID, &dto.CreateResponseRequest{Content: "hi"})
	require.NoError(t, err)

	_, err = f.svc.ReviewResponse(strangerID, response.ID, models.ResponseStatusAccepted)
	require.Error(t, err)
	assert.Empty(t, f.notifications.forRecipient(responderID))
}

func TestReviewResponseAlreadyReviewed(t *testing.T) {
	f := newResponseFixture()
	posterID := f.users.addUser("poster", true, true)
	responderID := f.users.addUser("responder", true, true)
	postID := f.posts.addPost(posterID, "LFG")

	response, err := f.svc.CreateResponse(responderID, postID, &dto.CreateResponseRequest{Content: "hi"})
	require.NoError(t, err)

	_, err = f.svc.ReviewResponse(posterID, response.ID, models.ResponseStatusAccepted)
	require.NoError(t, err)

	_, err = f.svc.ReviewResponse(posterID, response.ID, models.ResponseStatusRejected)
	require.Error(t, err)

	// exactly one transition notification
	assert.Len(t, f.notifications.forRecipient(responderID), 1)
}

// raceTransactor mutates state right before running the transaction body,
// standing in for a concurrent writer that settles the response between the
// pre-check and the transaction.
type raceTransactor struct {
	before func()
}

func (r *raceTransactor) Transaction(fc func(tx *gorm.DB) error, _ ...*sql.TxOptions) error {
	if r.before != nil {
		r.before()
		r.before = nil
	}
	return fc(nil)
}

func TestReviewResponseSkipsWhenStateChangedUnderneath(t *testing.T) {
	f := newResponseFixture()
	posterID := f.users.addUser("poster", true, true)
	responderID := f.users.addUser("responder", true, true)
	postID := f.posts.addPost(posterID, "LFG")

	response, err := f.svc.CreateResponse(responderID, postID, &dto.CreateResponseRequest{Content: "hi"})
	require.NoError(t, err)

	notificationSvc := NewNotificationService(f.notifications, f.users, f.queue, f.pusher)
	racySvc := NewResponseService(&raceTransactor{before: func() {
		f.responses.responses[response.ID].Status = models.ResponseStatusAccepted
	}}, f.responses, f.posts, f.users, notificationSvc)

	// pre-check sees pending, the in-transaction re-read sees accepted:
	// no transition happens and no notification is created
	_, err = racySvc.ReviewResponse(posterID, response.ID, models.ResponseStatusRejected)
	require.NoError(t, err)

	assert.Equal(t, models.ResponseStatusAccepted, f.responses.responses[response.ID].Status)
	assert.Empty(t, f.notifications.forRecipient(responderID))
}

func TestListPostResponsesRequiresPostAuthor(t *testing.T) {
	f := newResponseFixture()
	posterID := f.users.addUser("poster", true, true)
	responderID := f.users.addUser("responder", true, true)
	postID := f.posts.addPost(posterID, "LFG")

	_, err := f.svc.CreateResponse(responderID, postID, &dto.CreateResponseRequest{Content: "hi"})
	require.NoError(t, err)

	criteria := repositories.ResponseCriteria{Page: 1, PageSize: 20}

	_, err = f.svc.ListPostResponses(responderID, postID, criteria)
	require.Error(t, err)

	resp, err := f.svc.ListPostResponses(posterID, postID, criteria)
	require.NoError(t, err)
	assert.Equal(t, int64(1), resp.Total)
}
