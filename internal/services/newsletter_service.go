package services

import (
	"errors"
	"fmt"

	"mmoboard_backend/internal/logger"
	"mmoboard_backend/internal/models"
	"mmoboard_backend/internal/repositories"
	"mmoboard_backend/internal/services/dto"
	"mmoboard_backend/pkg/apperrors"
)

type NewsletterService interface {
	Create(req *dto.CreateNewsletterRequest) (*models.Newsletter, error)
	Get(id string) (*models.Newsletter, error)
	List(page, pageSize int) (*dto.NewsletterListResponse, error)

	// Send triggers the fan-out exactly once. A repeated trigger is a
	// silent no-op reported through Enqueued=false.
	Send(id string) (*dto.SendNewsletterResponse, error)
}

type newsletterService struct {
	newsletterRepo repositories.NewsletterRepository
	userRepo       repositories.UserRepository
	mailQueue      MailQueue
}

func NewNewsletterService(
	newsletterRepo repositories.NewsletterRepository,
	userRepo repositories.UserRepository,
	mailQueue MailQueue,
) NewsletterService {
	return &newsletterService{
		newsletterRepo: newsletterRepo,
		userRepo:       userRepo,
		mailQueue:      mailQueue,
	}
}

func (s *newsletterService) Create(req *dto.CreateNewsletterRequest) (*models.Newsletter, error) {
	newsletter := &models.Newsletter{
		Title:   req.Title,
		Content: req.Content,
	}

	if len(req.RecipientIDs) > 0 {
		users, err := s.userRepo.FindByIDs(req.RecipientIDs)
		if err != nil {
			return nil, apperrors.InternalError(err)
		}
		if len(users) != len(req.RecipientIDs) {
			return nil, apperrors.NewBadRequestError("one or more recipient IDs do not exist")
		}
		newsletter.Recipients = users
	}

	if err := s.newsletterRepo.Create(newsletter); err != nil {
		return nil, apperrors.InternalError(err)
	}
	return newsletter, nil
}

func (s *newsletterService) Get(id string) (*models.Newsletter, error) {
	newsletter, err := s.newsletterRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNewsletterNotFound) {
			return nil, apperrors.NewsletterNotFound()
		}
		return nil, apperrors.InternalError(err)
	}
	return newsletter, nil
}

func (s *newsletterService) List(page, pageSize int) (*dto.NewsletterListResponse, error) {
	page, pageSize = normalizePage(page, pageSize)

	newsletters, total, err := s.newsletterRepo.FindAll(page, pageSize)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	return &dto.NewsletterListResponse{
		Newsletters: newsletters,
		Total:       total,
		Page:        page,
		PageSize:    pageSize,
		TotalPages:  calculateTotalPages(total, pageSize),
	}, nil
}

func (s *newsletterService) Send(id string) (*dto.SendNewsletterResponse, error) {
	claimed, err := s.newsletterRepo.ClaimForSending(id)
	if err != nil {
		if errors.Is(err, repositories.ErrNewsletterNotFound) {
			return nil, apperrors.NewsletterNotFound()
		}
		return nil, apperrors.InternalError(err)
	}
	if !claimed {
		return &dto.SendNewsletterResponse{
			Enqueued: false,
			Message:  "newsletter has already been sent",
		}, nil
	}

	if !s.mailQueue.EnqueueNewsletter(id) {
		logger.Error("mail queue rejected newsletter fan-out",
			"newsletter_id", id)
		// Roll the claim back so the operator's retry can re-enqueue.
		if releaseErr := s.newsletterRepo.ReleaseClaim(id); releaseErr != nil {
			logger.Error("newsletter claim release failed",
				"newsletter_id", id, "error", releaseErr)
		}
		return nil, apperrors.InternalError(fmt.Errorf("mail queue rejected newsletter %s", id))
	}

	logger.Info("newsletter fan-out enqueued", "newsletter_id", id)
	return &dto.SendNewsletterResponse{
		Enqueued: true,
		Message:  "newsletter fan-out enqueued",
	}, nil
}
