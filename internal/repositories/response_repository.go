package repositories

import (
	"errors"

	"gorm.io/gorm"

	"mmoboard_backend/internal/models"
)

var ErrResponseNotFound = errors.New("response not found")

type ResponseCriteria struct {
	Status   string `form:"status" binding:"omitempty,oneof=pending accepted rejected"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}

type ResponseRepository interface {
	WithTx(tx *gorm.DB) ResponseRepository

	Create(response *models.Response) error
	// FindByID preloads Post, Post.Author and Author; the observers need
	// all three to address notifications.
	FindByID(id string) (*models.Response, error)
	FindByPostAndAuthor(postID, authorID string) (*models.Response, error)
	FindByPost(postID string, criteria ResponseCriteria) ([]models.Response, int64, error)
	FindByAuthor(authorID string, criteria ResponseCriteria) ([]models.Response, int64, error)
	UpdateStatus(id string, status models.ResponseStatus) error
}

type responseRepository struct {
	db *gorm.DB
}

func NewResponseRepository(db *gorm.DB) ResponseRepository {
	return &responseRepository{db: db}
}

func (r *responseRepository) WithTx(tx *gorm.DB) ResponseRepository {
	return &responseRepository{db: tx}
}

func (r *responseRepository) Create(response *models.Response) error {
	return r.db.Create(response).Error
}

func (r *responseRepository) FindByID(id string) (*models.Response, error) {
	var response models.Response
	err := r.db.
		Preload("Post").Preload("Post.Author").Preload("Author").
		First(&response, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrResponseNotFound
		}
		return nil, err
	}
	return &response, nil
}

func (r *responseRepository) FindByPostAndAuthor(postID, authorID string) (*models.Response, error) {
	var response models.Response
	err := r.db.First(&response, "post_id = ? AND author_id = ?", postID, authorID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrResponseNotFound
		}
		return nil, err
	}
	return &response, nil
}

func (r *responseRepository) FindByPost(postID string, criteria ResponseCriteria) ([]models.Response, int64, error) {
	query := r.db.Where("post_id = ?", postID)
	return r.page(query, criteria)
}

func (r *responseRepository) FindByAuthor(authorID string, criteria ResponseCriteria) ([]models.Response, int64, error) {
	query := r.db.Where("author_id = ?", authorID)
	return r.page(query, criteria)
}

func (r *responseRepository) page(query *gorm.DB, criteria ResponseCriteria) ([]models.Response, int64, error) {
	var responses []models.Response

	if criteria.Status != "" {
		query = query.Where("status = ?", criteria.Status)
	}

	var total int64
	if err := query.Model(&models.Response{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := criteria.PageSize
	offset := (criteria.Page - 1) * criteria.PageSize

	err := query.Preload("Author").Preload("Post").
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&responses).Error

	return responses, total, err
}

func (r *responseRepository) UpdateStatus(id string, status models.ResponseStatus) error {
	result := r.db.Model(&models.Response{}).Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrResponseNotFound
	}
	return nil
}
