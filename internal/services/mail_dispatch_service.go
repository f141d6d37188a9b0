package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"

	"mmoboard_backend/internal/config"
	"mmoboard_backend/internal/logger"
	"mmoboard_backend/internal/models"
	"mmoboard_backend/internal/pkg/email"
	"mmoboard_backend/internal/repositories"
)

// MailDispatchService executes queued email jobs. Everything here runs on
// worker goroutines: state is re-fetched by ID at execution time, so a
// preference change or deletion between enqueue and execution is honored.
type MailDispatchService interface {
	// DeliverNotification sends the email for one notification and flips
	// its is_sent flag. Skips silently (nil) when the notification is gone,
	// already dispatched, or the recipient opted out of email.
	DeliverNotification(notificationID string) error

	// DeliverNewsletter fans a newsletter out to its recipient set, one
	// email per recipient with per-recipient failure isolation. Each
	// successful send leaves a pre-read, pre-sent newsletter notification
	// behind; recipients that already hold one are skipped.
	DeliverNewsletter(newsletterID string) error
}

type mailDispatchService struct {
	notificationRepo repositories.NotificationRepository
	userRepo         repositories.UserRepository
	newsletterRepo   repositories.NewsletterRepository
	sender           email.Sender
	templates        *email.TemplateManager
	cfg              *config.Config
}

func NewMailDispatchService(
	notificationRepo repositories.NotificationRepository,
	userRepo repositories.UserRepository,
	newsletterRepo repositories.NewsletterRepository,
	sender email.Sender,
	templates *email.TemplateManager,
	cfg *config.Config,
) MailDispatchService {
	return &mailDispatchService{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		newsletterRepo:   newsletterRepo,
		sender:           sender,
		templates:        templates,
		cfg:              cfg,
	}
}

func (s *mailDispatchService) DeliverNotification(notificationID string) error {
	notification, err := s.notificationRepo.FindByID(notificationID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotificationNotFound) {
			logger.Warn("notification gone before email dispatch, skipping",
				"notification_id", notificationID)
			return nil
		}
		return fmt.Errorf("fetch notification %s: %w", notificationID, err)
	}
	if notification.IsSent {
		return nil
	}

	recipient, err := s.userRepo.FindByIDWithProfile(notification.RecipientID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			logger.Warn("recipient gone before email dispatch, skipping",
				"notification_id", notificationID,
				"recipient_id", notification.RecipientID)
			return nil
		}
		return fmt.Errorf("fetch recipient %s: %w", notification.RecipientID, err)
	}
	if !recipient.IsActive || recipient.Profile == nil || !recipient.Profile.EmailNotifications {
		logger.Debug("recipient opted out of email, skipping",
			"notification_id", notificationID,
			"recipient_id", recipient.ID)
		return nil
	}

	data := s.templateData(notification, recipient)
	subject, htmlBody, err := s.renderFor(string(notification.Type), notification.Title, data)
	if err != nil {
		return err
	}

	msg := &email.Email{
		To:       []string{recipient.Email},
		Subject:  fmt.Sprintf("%s %s", s.cfg.Email.SubjectPrefix, subject),
		Body:     email.StripTags(htmlBody),
		HTMLBody: htmlBody,
	}
	if err := s.sender.Send(msg); err != nil {
		return fmt.Errorf("send notification email %s to recipient %s (%s): %w",
			notificationID, recipient.ID, recipient.Email, err)
	}

	if err := s.notificationRepo.MarkSent(notificationID); err != nil {
		return fmt.Errorf("mark notification %s sent: %w", notificationID, err)
	}

	logger.Info("notification email sent",
		"notification_id", notificationID,
		"type", notification.Type,
		"recipient_id", recipient.ID)
	return nil
}

func (s *mailDispatchService) DeliverNewsletter(newsletterID string) error {
	newsletter, err := s.newsletterRepo.FindByID(newsletterID)
	if err != nil {
		if errors.Is(err, repositories.ErrNewsletterNotFound) {
			logger.Warn("newsletter gone before fan-out, skipping",
				"newsletter_id", newsletterID)
			return nil
		}
		return fmt.Errorf("fetch newsletter %s: %w", newsletterID, err)
	}

	// An explicit recipient set is the operator's pick and is mailed as
	// given; the subscription filter applies only to the broadcast path.
	recipients := newsletter.Recipients
	explicit := len(recipients) > 0
	if !explicit {
		recipients, err = s.userRepo.FindActiveNewsletterSubscribers()
		if err != nil {
			return fmt.Errorf("resolve newsletter subscribers: %w", err)
		}
	}

	var sent, skipped, failed int
	for i := range recipients {
		recipient := &recipients[i]

		if !explicit && (!recipient.IsActive || recipient.Profile == nil || !recipient.Profile.NewsletterSubscription) {
			skipped++
			continue
		}

		already, err := s.notificationRepo.HasNewsletterNotification(recipient.ID, newsletter.ID)
		if err != nil {
			logger.Error("newsletter dedup check failed",
				"newsletter_id", newsletter.ID,
				"recipient_id", recipient.ID,
				"error", err)
			failed++
			continue
		}
		if already {
			skipped++
			continue
		}

		if err := s.sendNewsletterTo(newsletter, recipient); err != nil {
			logger.Error("newsletter email failed",
				"newsletter_id", newsletter.ID,
				"recipient_id", recipient.ID,
				"email", recipient.Email,
				"error", err)
			failed++
			continue
		}

		subjectType := models.SubjectTypeNewsletter
		record := &models.Notification{
			RecipientID: recipient.ID,
			Type:        models.NotificationTypeNewsletter,
			Title:       newsletter.Title,
			Message:     email.StripTags(newsletter.Content),
			SubjectType: &subjectType,
			SubjectID:   &newsletter.ID,
			IsSent:      true,
		}
		if err := s.notificationRepo.Create(record); err != nil {
			logger.Error("newsletter notification record failed",
				"newsletter_id", newsletter.ID,
				"recipient_id", recipient.ID,
				"error", err)
			failed++
			continue
		}
		sent++
	}

	logger.Info("newsletter fan-out finished",
		"newsletter_id", newsletter.ID,
		"sent", sent,
		"skipped", skipped,
		"failed", failed)
	return nil
}

func (s *mailDispatchService) sendNewsletterTo(newsletter *models.Newsletter, recipient *models.User) error {
	data := email.TemplateData{
		SiteName:          s.cfg.Site.Name,
		SiteURL:           s.cfg.Site.URL,
		UserName:          recipient.Username,
		Title:             newsletter.Title,
		NewsletterTitle:   newsletter.Title,
		NewsletterContent: template.HTML(newsletter.Content),
	}

	subject, htmlBody, err := s.renderFor(email.TemplateNewsletter, newsletter.Title, data)
	if err != nil {
		return err
	}

	return s.sender.Send(&email.Email{
		To:       []string{recipient.Email},
		Subject:  fmt.Sprintf("%s %s", s.cfg.Email.NewsletterPrefix, subject),
		Body:     email.StripTags(htmlBody),
		HTMLBody: htmlBody,
	})
}

// renderFor resolves the body for a template name: an active DB override
// wins, otherwise the built-in for that name (unknown names get the
// default). The returned subject is the override's subject when present,
// else fallbackSubject.
func (s *mailDispatchService) renderFor(name, fallbackSubject string, data email.TemplateData) (string, string, error) {
	override, err := s.notificationRepo.FindEmailTemplateByName(name)
	if err == nil {
		htmlBody, renderErr := s.templates.RenderString(name, override.HTMLContent, data)
		if renderErr != nil {
			logger.Warn("email template override broken, using built-in",
				"template", name, "error", renderErr)
		} else {
			subject := override.Subject
			if subject == "" {
				subject = fallbackSubject
			}
			return subject, htmlBody, nil
		}
	} else if !errors.Is(err, repositories.ErrEmailTemplateNotFound) {
		return "", "", fmt.Errorf("lookup email template %s: %w", name, err)
	}

	htmlBody, err := s.templates.Render(name, data)
	if err != nil {
		return "", "", err
	}
	return fallbackSubject, htmlBody, nil
}

func (s *mailDispatchService) templateData(n *models.Notification, recipient *models.User) email.TemplateData {
	data := email.TemplateData{
		SiteName: s.cfg.Site.Name,
		SiteURL:  s.cfg.Site.URL,
		UserName: recipient.Username,
		Title:    n.Title,
		Message:  n.Message,
	}
	if n.Sender != nil {
		data.SenderName = n.Sender.Username
	}
	if len(n.Data) > 0 {
		var payload map[string]interface{}
		if err := json.Unmarshal(n.Data, &payload); err == nil {
			if title, ok := payload["post_title"].(string); ok {
				data.PostTitle = title
			}
		}
	}
	return data
}
