package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"mmoboard_backend/internal/logger"
	"mmoboard_backend/internal/models"
	"mmoboard_backend/internal/repositories"
	"mmoboard_backend/internal/services/dto"
	"mmoboard_backend/pkg/apperrors"
)

type ResponseService interface {
	// CreateResponse writes the response and its new_response notification
	// in one transaction, then runs the email leg for the post author.
	CreateResponse(authorID, postID string, req *dto.CreateResponseRequest) (*models.Response, error)

	// ReviewResponse transitions a pending response to accepted or
	// rejected. Only a pending -> accepted/rejected transition notifies
	// the response author; anything else creates no notification.
	ReviewResponse(reviewerID, responseID string, status models.ResponseStatus) (*models.Response, error)

	GetResponse(requesterID, responseID string) (*models.Response, error)
	ListPostResponses(requesterID, postID string, criteria repositories.ResponseCriteria) (*dto.ResponseListResponse, error)
	ListOwnResponses(authorID string, criteria repositories.ResponseCriteria) (*dto.ResponseListResponse, error)
}

type responseService struct {
	db            Transactor
	responseRepo  repositories.ResponseRepository
	postRepo      repositories.PostRepository
	userRepo      repositories.UserRepository
	notifications NotificationService
}

func NewResponseService(
	db Transactor,
	responseRepo repositories.ResponseRepository,
	postRepo repositories.PostRepository,
	userRepo repositories.UserRepository,
	notifications NotificationService,
) ResponseService {
	return &responseService{
		db:            db,
		responseRepo:  responseRepo,
		postRepo:      postRepo,
		userRepo:      userRepo,
		notifications: notifications,
	}
}

func (s *responseService) CreateResponse(authorID, postID string, req *dto.CreateResponseRequest) (*models.Response, error) {
	post, err := s.postRepo.FindByID(postID)
	if err != nil {
		if errors.Is(err, repositories.ErrPostNotFound) {
			return nil, apperrors.PostNotFound()
		}
		return nil, apperrors.InternalError(err)
	}

	if post.AuthorID == authorID {
		return nil, apperrors.OwnPostResponse()
	}

	if _, err := s.responseRepo.FindByPostAndAuthor(postID, authorID); err == nil {
		return nil, apperrors.DuplicateResponse()
	} else if !errors.Is(err, repositories.ErrResponseNotFound) {
		return nil, apperrors.InternalError(err)
	}

	author, err := s.userRepo.FindByID(authorID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.UserNotFound()
		}
		return nil, apperrors.InternalError(err)
	}

	response := &models.Response{
		PostID:   postID,
		AuthorID: authorID,
		Content:  req.Content,
		Status:   models.ResponseStatusPending,
	}

	var notification *models.Notification

	// The notification row commits with the response or not at all; a
	// committed response can never silently lack its notification.
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.responseRepo.WithTx(tx).Create(response); err != nil {
			return err
		}

		subjectType := models.SubjectTypeResponse
		notification, err = s.notifications.CreateInTx(tx, NotifyInput{
			RecipientID: post.AuthorID,
			SenderID:    &author.ID,
			Type:        models.NotificationTypeNewResponse,
			Title:       "New response to your post",
			Message:     fmt.Sprintf("%s responded to your post \"%s\"", author.Username, post.Title),
			SubjectType: &subjectType,
			SubjectID:   &response.ID,
			Data: map[string]interface{}{
				"post_id":    post.ID,
				"post_title": post.Title,
				"responder":  author.Username,
			},
		})
		return err
	})
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	// Post-commit: websocket push + preference-gated email enqueue.
	s.notifications.Dispatch(notification)

	return response, nil
}

func (s *responseService) ReviewResponse(reviewerID, responseID string, status models.ResponseStatus) (*models.Response, error) {
	if status != models.ResponseStatusAccepted && status != models.ResponseStatusRejected {
		return nil, apperrors.NewBadRequestError("status must be accepted or rejected")
	}

	response, err := s.responseRepo.FindByID(responseID)
	if err != nil {
		if errors.Is(err, repositories.ErrResponseNotFound) {
			return nil, apperrors.ResponseNotFound()
		}
		return nil, apperrors.InternalError(err)
	}

	if response.Post == nil || response.Post.AuthorID != reviewerID {
		return nil, apperrors.NotPostAuthor()
	}
	if response.Status != models.ResponseStatusPending {
		return nil, apperrors.ResponseNotPending()
	}

	var notification *models.Notification

	err = s.db.Transaction(func(tx *gorm.DB) error {
		// Re-read the prior state inside the transaction. If the row
		// vanished or already left pending, there is no qualifying
		// transition and nothing to notify; that is not an error.
		prior, err := s.responseRepo.WithTx(tx).FindByID(responseID)
		if err != nil {
			if errors.Is(err, repositories.ErrResponseNotFound) {
				logger.Warn("response deleted before status transition, skipping",
					"response_id", responseID)
				return nil
			}
			return err
		}
		if prior.Status != models.ResponseStatusPending {
			return nil
		}

		if err := s.responseRepo.WithTx(tx).UpdateStatus(responseID, status); err != nil {
			return err
		}

		title := "Your response was accepted!"
		notificationType := models.NotificationTypeResponseAccepted
		verb := "accepted"
		if status == models.ResponseStatusRejected {
			title = "Your response was rejected"
			notificationType = models.NotificationTypeResponseRejected
			verb = "rejected"
		}

		subjectType := models.SubjectTypeResponse
		notification, err = s.notifications.CreateInTx(tx, NotifyInput{
			RecipientID: response.AuthorID,
			SenderID:    &response.Post.AuthorID,
			Type:        notificationType,
			Title:       title,
			Message: fmt.Sprintf("Your response to \"%s\" was %s by %s",
				response.Post.Title, verb, response.Post.Author.Username),
			SubjectType: &subjectType,
			SubjectID:   &response.ID,
			Data: map[string]interface{}{
				"post_id":    response.Post.ID,
				"post_title": response.Post.Title,
			},
		})
		return err
	})
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	if notification != nil {
		s.notifications.Dispatch(notification)
		response.Status = status
	}

	return response, nil
}

func (s *responseService) GetResponse(requesterID, responseID string) (*models.Response, error) {
	response, err := s.responseRepo.FindByID(responseID)
	if err != nil {
		if errors.Is(err, repositories.ErrResponseNotFound) {
			return nil, apperrors.ResponseNotFound()
		}
		return nil, apperrors.InternalError(err)
	}

	// Visible to the response author and the post author only.
	if response.AuthorID != requesterID && (response.Post == nil || response.Post.AuthorID != requesterID) {
		return nil, apperrors.ResponseNotFound()
	}

	return response, nil
}

func (s *responseService) ListPostResponses(requesterID, postID string, criteria repositories.ResponseCriteria) (*dto.ResponseListResponse, error) {
	post, err := s.postRepo.FindByID(postID)
	if err != nil {
		if errors.Is(err, repositories.ErrPostNotFound) {
			return nil, apperrors.PostNotFound()
		}
		return nil, apperrors.InternalError(err)
	}
	if post.AuthorID != requesterID {
		return nil, apperrors.NotPostAuthor()
	}

	criteria.Page, criteria.PageSize = normalizePage(criteria.Page, criteria.PageSize)
	responses, total, err := s.responseRepo.FindByPost(postID, criteria)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	return &dto.ResponseListResponse{
		Responses:  responses,
		Total:      total,
		Page:       criteria.Page,
		PageSize:   criteria.PageSize,
		TotalPages: calculateTotalPages(total, criteria.PageSize),
	}, nil
}

func (s *responseService) ListOwnResponses(authorID string, criteria repositories.ResponseCriteria) (*dto.ResponseListResponse, error) {
	criteria.Page, criteria.PageSize = normalizePage(criteria.Page, criteria.PageSize)
	responses, total, err := s.responseRepo.FindByAuthor(authorID, criteria)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	return &dto.ResponseListResponse{
		Responses:  responses,
		Total:      total,
		Page:       criteria.Page,
		PageSize:   criteria.PageSize,
		TotalPages: calculateTotalPages(total, criteria.PageSize),
	}, nil
}
