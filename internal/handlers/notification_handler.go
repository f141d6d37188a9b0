package handlers

import (
	"github.com/gin-gonic/gin"

	"mmoboard_backend/internal/repositories"
	"mmoboard_backend/internal/services"
	"mmoboard_backend/internal/services/dto"
)

type NotificationHandler struct {
	*BaseHandler
	notificationService services.NotificationService
}

func NewNotificationHandler(base *BaseHandler, notificationService services.NotificationService) *NotificationHandler {
	return &NotificationHandler{BaseHandler: base, notificationService: notificationService}
}

func (h *NotificationHandler) List(c *gin.Context) {
	userID, ok := h.AuthorizedUserID(c)
	if !ok {
		return
	}

	var criteria repositories.NotificationCriteria
	if !h.BindAndValidateQuery(c, &criteria) {
		return
	}

	resp, err := h.notificationService.List(userID, criteria)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.OK(c, resp)
}

// Get returns one notification and marks it read as a side effect.
func (h *NotificationHandler) Get(c *gin.Context) {
	userID, ok := h.AuthorizedUserID(c)
	if !ok {
		return
	}

	resp, err := h.notificationService.GetDetail(userID, c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.OK(c, resp)
}

// Recent backs the header dropdown: the ten newest plus the badge count.
func (h *NotificationHandler) Recent(c *gin.Context) {
	userID, ok := h.AuthorizedUserID(c)
	if !ok {
		return
	}

	resp, err := h.notificationService.Recent(userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.OK(c, resp)
}

func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	userID, ok := h.AuthorizedUserID(c)
	if !ok {
		return
	}

	count, err := h.notificationService.UnreadCount(userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.OK(c, dto.UnreadCountResponse{Count: count, HasUnread: count > 0})
}

func (h *NotificationHandler) MarkAsRead(c *gin.Context) {
	userID, ok := h.AuthorizedUserID(c)
	if !ok {
		return
	}

	if err := h.notificationService.MarkAsRead(userID, c.Param("id")); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.OK(c, gin.H{"status": "ok"})
}

func (h *NotificationHandler) MarkAllAsRead(c *gin.Context) {
	userID, ok := h.AuthorizedUserID(c)
	if !ok {
		return
	}

	marked, err := h.notificationService.MarkAllAsRead(userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.OK(c, dto.MarkAllReadResponse{MarkedCount: marked, UnreadCount: 0})
}

func (h *NotificationHandler) Delete(c *gin.Context) {
	userID, ok := h.AuthorizedUserID(c)
	if !ok {
		return
	}

	if err := h.notificationService.Delete(userID, c.Param("id")); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.OK(c, gin.H{"status": "deleted"})
}

// --- admin ---

func (h *NotificationHandler) SendBulk(c *gin.Context) {
	var req dto.SendBulkNotificationRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	created, err := h.notificationService.BulkNotify(&req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.OK(c, dto.BulkNotificationResponse{CreatedCount: created, TotalCount: len(req.UserIDs)})
}

func (h *NotificationHandler) CreateEmailTemplate(c *gin.Context) {
	var req dto.CreateEmailTemplateRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	template, err := h.notificationService.CreateEmailTemplate(&req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.Created(c, template)
}

func (h *NotificationHandler) ListEmailTemplates(c *gin.Context) {
	templates, err := h.notificationService.ListEmailTemplates()
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.OK(c, gin.H{"templates": templates})
}

func (h *NotificationHandler) UpdateEmailTemplate(c *gin.Context) {
	var req dto.UpdateEmailTemplateRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	template, err := h.notificationService.UpdateEmailTemplate(c.Param("id"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.OK(c, template)
}
