package services

import (
	"errors"

	"mmoboard_backend/internal/models"
	"mmoboard_backend/internal/repositories"
	"mmoboard_backend/internal/services/dto"
	"mmoboard_backend/pkg/apperrors"
)

type PostService interface {
	CreatePost(authorID string, req *dto.CreatePostRequest) (*models.Post, error)
	GetPost(id string) (*models.Post, error)
	ListPosts(criteria repositories.PostCriteria) (*dto.PostListResponse, error)
	UpdateStatus(authorID, postID string, status models.PostStatus) (*models.Post, error)
	ListCategories() ([]models.Category, error)
}

type postService struct {
	postRepo repositories.PostRepository
}

func NewPostService(postRepo repositories.PostRepository) PostService {
	return &postService{postRepo: postRepo}
}

func (s *postService) CreatePost(authorID string, req *dto.CreatePostRequest) (*models.Post, error) {
	category, err := s.postRepo.FindCategoryByName(models.CategoryName(req.Category))
	if err != nil {
		if errors.Is(err, repositories.ErrCategoryNotFound) {
			return nil, apperrors.CategoryNotFound()
		}
		return nil, apperrors.InternalError(err)
	}

	post := &models.Post{
		Title:      req.Title,
		Content:    req.Content,
		AuthorID:   authorID,
		CategoryID: category.ID,
		Status:     models.PostStatusActive,
	}
	if err := s.postRepo.Create(post); err != nil {
		return nil, apperrors.InternalError(err)
	}
	return post, nil
}

func (s *postService) GetPost(id string) (*models.Post, error) {
	post, err := s.postRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, repositories.ErrPostNotFound) {
			return nil, apperrors.PostNotFound()
		}
		return nil, apperrors.InternalError(err)
	}
	return post, nil
}

func (s *postService) ListPosts(criteria repositories.PostCriteria) (*dto.PostListResponse, error) {
	criteria.Page, criteria.PageSize = normalizePage(criteria.Page, criteria.PageSize)

	posts, total, err := s.postRepo.FindAll(criteria)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	return &dto.PostListResponse{
		Posts:      posts,
		Total:      total,
		Page:       criteria.Page,
		PageSize:   criteria.PageSize,
		TotalPages: calculateTotalPages(total, criteria.PageSize),
	}, nil
}

func (s *postService) UpdateStatus(authorID, postID string, status models.PostStatus) (*models.Post, error) {
	post, err := s.postRepo.FindByID(postID)
	if err != nil {
		if errors.Is(err, repositories.ErrPostNotFound) {
			return nil, apperrors.PostNotFound()
		}
		return nil, apperrors.InternalError(err)
	}
	if post.AuthorID != authorID {
		return nil, apperrors.NotPostAuthor()
	}

	if err := s.postRepo.UpdateStatus(postID, status); err != nil {
		return nil, apperrors.InternalError(err)
	}
	post.Status = status
	return post, nil
}

func (s *postService) ListCategories() ([]models.Category, error) {
	categories, err := s.postRepo.ListCategories()
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return categories, nil
}
