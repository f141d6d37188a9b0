package services

import (
	"database/sql"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"mmoboard_backend/internal/models"
	"mmoboard_backend/internal/repositories"
)

// In-memory stand-ins for the repository interfaces. WithTx returns the
// fake itself; fakeTransactor just invokes the callback, so transactional
// code paths run against the same in-memory state.

type fakeTransactor struct {
	failWith error
}

func (f *fakeTransactor) Transaction(fc func(tx *gorm.DB) error, _ ...*sql.TxOptions) error {
	if f.failWith != nil {
		return f.failWith
	}
	return fc(nil)
}

// --- notifications ---

type fakeNotificationRepo struct {
	notifications map[string]*models.Notification
	templates     map[string]*models.EmailTemplate

	createErr   error
	markSentErr error
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{
		notifications: make(map[string]*models.Notification),
		templates:     make(map[string]*models.EmailTemplate),
	}
}

func (f *fakeNotificationRepo) WithTx(*gorm.DB) repositories.NotificationRepository { return f }

func (f *fakeNotificationRepo) Create(n *models.Notification) error {
	if f.createErr != nil {
		return f.createErr
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	copied := *n
	f.notifications[n.ID] = &copied
	return nil
}

func (f *fakeNotificationRepo) CreateBulk(ns []*models.Notification) error {
	for _, n := range ns {
		if err := f.Create(n); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeNotificationRepo) FindByID(id string) (*models.Notification, error) {
	n, ok := f.notifications[id]
	if !ok {
		return nil, repositories.ErrNotificationNotFound
	}
	copied := *n
	return &copied, nil
}

func (f *fakeNotificationRepo) FindForRecipient(recipientID, id string) (*models.Notification, error) {
	n, ok := f.notifications[id]
	if !ok || n.RecipientID != recipientID {
		return nil, repositories.ErrNotificationNotFound
	}
	copied := *n
	return &copied, nil
}

func (f *fakeNotificationRepo) forRecipient(recipientID string) []*models.Notification {
	var out []*models.Notification
	for _, n := range f.notifications {
		if n.RecipientID == recipientID {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (f *fakeNotificationRepo) FindByRecipient(recipientID string, criteria repositories.NotificationCriteria) ([]models.Notification, int64, error) {
	var matched []models.Notification
	for _, n := range f.forRecipient(recipientID) {
		if criteria.Type != "" && string(n.Type) != criteria.Type {
			continue
		}
		if criteria.ReadStatus == "unread" && n.IsRead {
			continue
		}
		if criteria.ReadStatus == "read" && !n.IsRead {
			continue
		}
		matched = append(matched, *n)
	}
	total := int64(len(matched))

	start := (criteria.Page - 1) * criteria.PageSize
	if start > len(matched) {
		start = len(matched)
	}
	end := start + criteria.PageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (f *fakeNotificationRepo) FindRecent(recipientID string, limit int) ([]models.Notification, error) {
	var out []models.Notification
	for _, n := range f.forRecipient(recipientID) {
		out = append(out, *n)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeNotificationRepo) Counts(recipientID string) (*repositories.NotificationCounts, error) {
	counts := &repositories.NotificationCounts{}
	for _, n := range f.forRecipient(recipientID) {
		counts.Total++
		if n.IsRead {
			counts.Read++
		} else {
			counts.Unread++
		}
	}
	return counts, nil
}

func (f *fakeNotificationRepo) UnreadCount(recipientID string) (int64, error) {
	var count int64
	for _, n := range f.forRecipient(recipientID) {
		if !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (f *fakeNotificationRepo) MarkAsRead(recipientID, id string) (bool, error) {
	n, ok := f.notifications[id]
	if !ok || n.RecipientID != recipientID {
		return false, repositories.ErrNotificationNotFound
	}
	if n.IsRead {
		return false, nil
	}
	now := time.Now()
	n.IsRead = true
	n.ReadAt = &now
	return true, nil
}

func (f *fakeNotificationRepo) MarkAllAsRead(recipientID string) (int64, error) {
	var count int64
	now := time.Now()
	for _, n := range f.notifications {
		if n.RecipientID == recipientID && !n.IsRead {
			n.IsRead = true
			n.ReadAt = &now
			count++
		}
	}
	return count, nil
}

func (f *fakeNotificationRepo) Delete(recipientID, id string) error {
	n, ok := f.notifications[id]
	if !ok || n.RecipientID != recipientID {
		return repositories.ErrNotificationNotFound
	}
	delete(f.notifications, n.ID)
	return nil
}

func (f *fakeNotificationRepo) MarkSent(id string) error {
	if f.markSentErr != nil {
		return f.markSentErr
	}
	if n, ok := f.notifications[id]; ok {
		n.IsSent = true
	}
	return nil
}

func (f *fakeNotificationRepo) HasNewsletterNotification(recipientID, newsletterID string) (bool, error) {
	for _, n := range f.notifications {
		if n.RecipientID == recipientID &&
			n.Type == models.NotificationTypeNewsletter &&
			n.SubjectID != nil && *n.SubjectID == newsletterID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeNotificationRepo) CreateEmailTemplate(t *models.EmailTemplate) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	copied := *t
	f.templates[t.Name] = &copied
	return nil
}

func (f *fakeNotificationRepo) FindEmailTemplateByName(name string) (*models.EmailTemplate, error) {
	t, ok := f.templates[name]
	if !ok || !t.IsActive {
		return nil, repositories.ErrEmailTemplateNotFound
	}
	copied := *t
	return &copied, nil
}

func (f *fakeNotificationRepo) ListEmailTemplates() ([]models.EmailTemplate, error) {
	var out []models.EmailTemplate
	for _, t := range f.templates {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeNotificationRepo) UpdateEmailTemplate(t *models.EmailTemplate) error {
	existing, ok := f.templates[t.Name]
	if !ok {
		return repositories.ErrEmailTemplateNotFound
	}
	*existing = *t
	return nil
}

// --- users ---

type fakeUserRepo struct {
	users    map[string]*models.User
	profiles map[string]*models.UserProfile
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:    make(map[string]*models.User),
		profiles: make(map[string]*models.UserProfile),
	}
}

// addUser seeds a user plus profile and returns the id.
func (f *fakeUserRepo) addUser(username string, emailNotifications, newsletterSubscription bool) string {
	id := uuid.NewString()
	f.users[id] = &models.User{
		BaseModel: models.BaseModel{ID: id},
		Username:  username,
		Email:     username + "@example.com",
		Role:      models.UserRoleUser,
		IsActive:  true,
	}
	f.profiles[id] = &models.UserProfile{
		UserID:                 id,
		EmailNotifications:     emailNotifications,
		NewsletterSubscription: newsletterSubscription,
	}
	return id
}

func (f *fakeUserRepo) WithTx(*gorm.DB) repositories.UserRepository { return f }

func (f *fakeUserRepo) Create(u *models.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	copied := *u
	f.users[u.ID] = &copied
	return nil
}

func (f *fakeUserRepo) CreateProfile(p *models.UserProfile) error {
	copied := *p
	f.profiles[p.UserID] = &copied
	return nil
}

func (f *fakeUserRepo) FindByID(id string) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) FindByIDWithProfile(id string) (*models.User, error) {
	u, err := f.FindByID(id)
	if err != nil {
		return nil, err
	}
	if p, ok := f.profiles[id]; ok {
		profile := *p
		u.Profile = &profile
	}
	return u, nil
}

func (f *fakeUserRepo) FindByEmail(email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (f *fakeUserRepo) FindByUsername(username string) (*models.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (f *fakeUserRepo) FindByIDs(ids []string) ([]models.User, error) {
	var out []models.User
	for _, id := range ids {
		if u, err := f.FindByIDWithProfile(id); err == nil {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (f *fakeUserRepo) FindActiveNewsletterSubscribers() ([]models.User, error) {
	var out []models.User
	for id, u := range f.users {
		p, ok := f.profiles[id]
		if !ok || !u.IsActive || !p.NewsletterSubscription {
			continue
		}
		copied := *u
		profile := *p
		copied.Profile = &profile
		out = append(out, copied)
	}
	return out, nil
}

func (f *fakeUserRepo) GetProfile(userID string) (*models.UserProfile, error) {
	p, ok := f.profiles[userID]
	if !ok {
		return nil, repositories.ErrProfileNotFound
	}
	copied := *p
	return &copied, nil
}

func (f *fakeUserRepo) UpdateProfile(p *models.UserProfile) error {
	copied := *p
	f.profiles[p.UserID] = &copied
	return nil
}

// --- posts ---

type fakePostRepo struct {
	posts      map[string]*models.Post
	categories map[models.CategoryName]*models.Category
}

func newFakePostRepo() *fakePostRepo {
	return &fakePostRepo{
		posts:      make(map[string]*models.Post),
		categories: make(map[models.CategoryName]*models.Category),
	}
}

func (f *fakePostRepo) addPost(authorID, title string) string {
	id := uuid.NewString()
	f.posts[id] = &models.Post{
		BaseModel: models.BaseModel{ID: id},
		Title:     title,
		AuthorID:  authorID,
		Status:    models.PostStatusActive,
	}
	return id
}

func (f *fakePostRepo) WithTx(*gorm.DB) repositories.PostRepository { return f }

func (f *fakePostRepo) Create(p *models.Post) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	copied := *p
	f.posts[p.ID] = &copied
	return nil
}

func (f *fakePostRepo) FindByID(id string) (*models.Post, error) {
	p, ok := f.posts[id]
	if !ok {
		return nil, repositories.ErrPostNotFound
	}
	copied := *p
	return &copied, nil
}

func (f *fakePostRepo) FindAll(criteria repositories.PostCriteria) ([]models.Post, int64, error) {
	var out []models.Post
	for _, p := range f.posts {
		if criteria.AuthorID != "" && p.AuthorID != criteria.AuthorID {
			continue
		}
		if criteria.Status != "" && string(p.Status) != criteria.Status {
			continue
		}
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

func (f *fakePostRepo) UpdateStatus(id string, status models.PostStatus) error {
	p, ok := f.posts[id]
	if !ok {
		return repositories.ErrPostNotFound
	}
	p.Status = status
	return nil
}

func (f *fakePostRepo) FindCategoryByName(name models.CategoryName) (*models.Category, error) {
	c, ok := f.categories[name]
	if !ok {
		return nil, repositories.ErrCategoryNotFound
	}
	copied := *c
	return &copied, nil
}

func (f *fakePostRepo) ListCategories() ([]models.Category, error) {
	var out []models.Category
	for _, c := range f.categories {
		out = append(out, *c)
	}
	return out, nil
}

func (f *fakePostRepo) SeedCategories() error {
	for _, name := range models.AllCategories {
		if _, ok := f.categories[name]; !ok {
			f.categories[name] = &models.Category{
				BaseModel: models.BaseModel{ID: uuid.NewString()},
				Name:      name,
			}
		}
	}
	return nil
}

// --- responses ---

type fakeResponseRepo struct {
	responses map[string]*models.Response

	// resolve relations on FindByID the way the real repo preloads them
	posts *fakePostRepo
	users *fakeUserRepo
}

func newFakeResponseRepo(posts *fakePostRepo, users *fakeUserRepo) *fakeResponseRepo {
	return &fakeResponseRepo{
		responses: make(map[string]*models.Response),
		posts:     posts,
		users:     users,
	}
}

func (f *fakeResponseRepo) WithTx(*gorm.DB) repositories.ResponseRepository { return f }

func (f *fakeResponseRepo) Create(r *models.Response) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	copied := *r
	f.responses[r.ID] = &copied
	return nil
}

func (f *fakeResponseRepo) FindByID(id string) (*models.Response, error) {
	r, ok := f.responses[id]
	if !ok {
		return nil, repositories.ErrResponseNotFound
	}
	copied := *r
	if post, err := f.posts.FindByID(r.PostID); err == nil {
		if author, err := f.users.FindByID(post.AuthorID); err == nil {
			post.Author = author
		}
		copied.Post = post
	}
	if author, err := f.users.FindByID(r.AuthorID); err == nil {
		copied.Author = author
	}
	return &copied, nil
}

func (f *fakeResponseRepo) FindByPostAndAuthor(postID, authorID string) (*models.Response, error) {
	for _, r := range f.responses {
		if r.PostID == postID && r.AuthorID == authorID {
			copied := *r
			return &copied, nil
		}
	}
	return nil, repositories.ErrResponseNotFound
}

func (f *fakeResponseRepo) FindByPost(postID string, criteria repositories.ResponseCriteria) ([]models.Response, int64, error) {
	var out []models.Response
	for _, r := range f.responses {
		if r.PostID != postID {
			continue
		}
		if criteria.Status != "" && string(r.Status) != criteria.Status {
			continue
		}
		out = append(out, *r)
	}
	return out, int64(len(out)), nil
}

func (f *fakeResponseRepo) FindByAuthor(authorID string, criteria repositories.ResponseCriteria) ([]models.Response, int64, error) {
	var out []models.Response
	for _, r := range f.responses {
		if r.AuthorID != authorID {
			continue
		}
		if criteria.Status != "" && string(r.Status) != criteria.Status {
			continue
		}
		out = append(out, *r)
	}
	return out, int64(len(out)), nil
}

func (f *fakeResponseRepo) UpdateStatus(id string, status models.ResponseStatus) error {
	r, ok := f.responses[id]
	if !ok {
		return repositories.ErrResponseNotFound
	}
	r.Status = status
	return nil
}

// --- newsletters ---

type fakeNewsletterRepo struct {
	newsletters map[string]*models.Newsletter
}

func newFakeNewsletterRepo() *fakeNewsletterRepo {
	return &fakeNewsletterRepo{newsletters: make(map[string]*models.Newsletter)}
}

func (f *fakeNewsletterRepo) WithTx(*gorm.DB) repositories.NewsletterRepository { return f }

func (f *fakeNewsletterRepo) Create(n *models.Newsletter) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	copied := *n
	f.newsletters[n.ID] = &copied
	return nil
}

func (f *fakeNewsletterRepo) FindByID(id string) (*models.Newsletter, error) {
	n, ok := f.newsletters[id]
	if !ok {
		return nil, repositories.ErrNewsletterNotFound
	}
	copied := *n
	return &copied, nil
}

func (f *fakeNewsletterRepo) FindAll(page, pageSize int) ([]models.Newsletter, int64, error) {
	var out []models.Newsletter
	for _, n := range f.newsletters {
		out = append(out, *n)
	}
	return out, int64(len(out)), nil
}

func (f *fakeNewsletterRepo) ClaimForSending(id string) (bool, error) {
	n, ok := f.newsletters[id]
	if !ok {
		return false, repositories.ErrNewsletterNotFound
	}
	if n.IsSent {
		return false, nil
	}
	now := time.Now()
	n.IsSent = true
	n.SentAt = &now
	return true, nil
}

func (f *fakeNewsletterRepo) ReleaseClaim(id string) error {
	if n, ok := f.newsletters[id]; ok {
		n.IsSent = false
		n.SentAt = nil
	}
	return nil
}

// --- queue and pusher ---

type fakeQueue struct {
	accept        bool
	notifications []string
	newsletters   []string
}

func newFakeQueue() *fakeQueue { return &fakeQueue{accept: true} }

func (f *fakeQueue) EnqueueNotification(id string) bool {
	if !f.accept {
		return false
	}
	f.notifications = append(f.notifications, id)
	return true
}

func (f *fakeQueue) EnqueueNewsletter(id string) bool {
	if !f.accept {
		return false
	}
	f.newsletters = append(f.newsletters, id)
	return true
}

type fakePusher struct {
	pushes map[string][]interface{}
}

func newFakePusher() *fakePusher {
	return &fakePusher{pushes: make(map[string][]interface{})}
}

func (f *fakePusher) PushToUser(userID string, event interface{}) {
	f.pushes[userID] = append(f.pushes[userID], event)
}
