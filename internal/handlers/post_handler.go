package handlers

import (
	"github.com/gin-gonic/gin"

	"mmoboard_backend/internal/models"
	"mmoboard_backend/internal/repositories"
	"mmoboard_backend/internal/services"
	"mmoboard_backend/internal/services/dto"
	"mmoboard_backend/pkg/apperrors"
)

type PostHandler struct {
	*BaseHandler
	postService services.PostService
}

func NewPostHandler(base *BaseHandler, postService services.PostService) *PostHandler {
	return &PostHandler{BaseHandler: base, postService: postService}
}

func (h *PostHandler) Create(c *gin.Context) {
	userID, ok := h.AuthorizedUserID(c)
	if !ok {
		return
	}

	var req dto.CreatePostRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	post, err := h.postService.CreatePost(userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.Created(c, post)
}

func (h *PostHandler) Get(c *gin.Context) {
	post, err := h.postService.GetPost(c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.OK(c, post)
}

func (h *PostHandler) List(c *gin.Context) {
	var criteria repositories.PostCriteria
	if !h.BindAndValidateQuery(c, &criteria) {
		return
	}

	resp, err := h.postService.ListPosts(criteria)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.OK(c, resp)
}

func (h *PostHandler) UpdateStatus(c *gin.Context) {
	userID, ok := h.AuthorizedUserID(c)
	if !ok {
		return
	}

	var req struct {
		Status models.PostStatus `json:"status" binding:"required,oneof=active closed draft"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleServiceError(c, apperrors.NewBadRequestError("status must be active, closed or draft"))
		return
	}

	post, err := h.postService.UpdateStatus(userID, c.Param("id"), req.Status)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.OK(c, post)
}

func (h *PostHandler) ListCategories(c *gin.Context) {
	categories, err := h.postService.ListCategories()
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.OK(c, gin.H{"categories": categories})
}
