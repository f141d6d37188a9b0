package repositories

import (
	"errors"

	"gorm.io/gorm"

	"mmoboard_backend/internal/models"
)

var (
	ErrPostNotFound     = errors.New("post not found")
	ErrCategoryNotFound = errors.New("category not found")
)

type PostCriteria struct {
	Category string `form:"category"`
	Status   string `form:"status" binding:"omitempty,oneof=active closed draft"`
	AuthorID string `form:"author_id"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}

type PostRepository interface {
	WithTx(tx *gorm.DB) PostRepository

	Create(post *models.Post) error
	FindByID(id string) (*models.Post, error)
	FindAll(criteria PostCriteria) ([]models.Post, int64, error)
	UpdateStatus(id string, status models.PostStatus) error

	FindCategoryByName(name models.CategoryName) (*models.Category, error)
	ListCategories() ([]models.Category, error)
	SeedCategories() error
}

type postRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) WithTx(tx *gorm.DB) PostRepository {
	return &postRepository{db: tx}
}

func (r *postRepository) Create(post *models.Post) error {
	return r.db.Create(post).Error
}

func (r *postRepository) FindByID(id string) (*models.Post, error) {
	var post models.Post
	err := r.db.Preload("Author").Preload("Category").
		First(&post, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) FindAll(criteria PostCriteria) ([]models.Post, int64, error) {
	var posts []models.Post
	query := r.db.Model(&models.Post{})

	if criteria.Category != "" {
		query = query.Joins("JOIN categories ON categories.id = posts.category_id").
			Where("categories.name = ?", criteria.Category)
	}
	if criteria.Status != "" {
		query = query.Where("posts.status = ?", criteria.Status)
	}
	if criteria.AuthorID != "" {
		query = query.Where("posts.author_id = ?", criteria.AuthorID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := criteria.PageSize
	offset := (criteria.Page - 1) * criteria.PageSize

	err := query.Preload("Author").Preload("Category").
		Order("posts.created_at DESC").
		Limit(limit).Offset(offset).
		Find(&posts).Error

	return posts, total, err
}

func (r *postRepository) UpdateStatus(id string, status models.PostStatus) error {
	result := r.db.Model(&models.Post{}).Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPostNotFound
	}
	return nil
}

func (r *postRepository) FindCategoryByName(name models.CategoryName) (*models.Category, error) {
	var category models.Category
	err := r.db.First(&category, "name = ?", name).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return &category, nil
}

func (r *postRepository) ListCategories() ([]models.Category, error) {
	var categories []models.Category
	err := r.db.Order("name").Find(&categories).Error
	return categories, err
}

// SeedCategories creates any of the fixed role categories that are missing.
func (r *postRepository) SeedCategories() error {
	for _, name := range models.AllCategories {
		var count int64
		if err := r.db.Model(&models.Category{}).Where("name = ?", name).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			if err := r.db.Create(&models.Category{Name: name}).Error; err != nil {
				return err
			}
		}
	}
	return nil
}
