package dto

import "mmoboard_backend/internal/models"

type CreatePostRequest struct {
	Title    string `json:"title" binding:"required" validate:"required,max=200"`
	Content  string `json:"content" binding:"required" validate:"required"`
	Category string `json:"category" binding:"required" validate:"required"`
}

type PostListResponse struct {
	Posts      []models.Post `json:"posts"`
	Total      int64         `json:"total"`
	Page       int           `json:"page"`
	PageSize   int           `json:"page_size"`
	TotalPages int           `json:"total_pages"`
}

type CreateResponseRequest struct {
	Content string `json:"content" binding:"required" validate:"required"`
}

type ResponseListResponse struct {
	Responses  []models.Response `json:"responses"`
	Total      int64             `json:"total"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	TotalPages int               `json:"total_pages"`
}
