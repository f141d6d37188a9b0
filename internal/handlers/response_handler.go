package handlers

import (
	"github.com/gin-gonic/gin"

	"mmoboard_backend/internal/models"
	"mmoboard_backend/internal/repositories"
	"mmoboard_backend/internal/services"
	"mmoboard_backend/internal/services/dto"
	"mmoboard_backend/pkg/apperrors"
)

type ResponseHandler struct {
	*BaseHandler
	responseService services.ResponseService
}

func NewResponseHandler(base *BaseHandler, responseService services.ResponseService) *ResponseHandler {
	return &ResponseHandler{BaseHandler: base, responseService: responseService}
}

func (h *ResponseHandler) Create(c *gin.Context) {
	userID, ok := h.AuthorizedUserID(c)
	if !ok {
		return
	}

	var req dto.CreateResponseRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	response, err := h.responseService.CreateResponse(userID, c.Param("id"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.Created(c, response)
}

func (h *ResponseHandler) Get(c *gin.Context) {
	userID, ok := h.AuthorizedUserID(c)
	if !ok {
		return
	}

	response, err := h.responseService.GetResponse(userID, c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.OK(c, response)
}

// Review accepts or rejects a pending response. Post-author only.
func (h *ResponseHandler) Review(c *gin.Context) {
	userID, ok := h.AuthorizedUserID(c)
	if !ok {
		return
	}

	var req struct {
		Status models.ResponseStatus `json:"status" binding:"required,oneof=accepted rejected"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleServiceError(c, apperrors.NewBadRequestError("status must be accepted or rejected"))
		return
	}

	response, err := h.responseService.ReviewResponse(userID, c.Param("id"), req.Status)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.OK(c, response)
}

func (h *ResponseHandler) ListForPost(c *gin.Context) {
	userID, ok := h.AuthorizedUserID(c)
	if !ok {
		return
	}

	var criteria repositories.ResponseCriteria
	if !h.BindAndValidateQuery(c, &criteria) {
		return
	}

	resp, err := h.responseService.ListPostResponses(userID, c.Param("id"), criteria)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.OK(c, resp)
}

func (h *ResponseHandler) ListMine(c *gin.Context) {
	userID, ok := h.AuthorizedUserID(c)
	if !ok {
		return
	}

	var criteria repositories.ResponseCriteria
	if !h.BindAndValidateQuery(c, &criteria) {
		return
	}

	resp, err := h.responseService.ListOwnResponses(userID, criteria)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.OK(c, resp)
}
