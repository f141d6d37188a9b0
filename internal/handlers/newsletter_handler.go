package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"mmoboard_backend/internal/services"
	"mmoboard_backend/internal/services/dto"
)

// NewsletterHandler is admin-only; the role check happens in the router.
type NewsletterHandler struct {
	*BaseHandler
	newsletterService services.NewsletterService
}

func NewNewsletterHandler(base *BaseHandler, newsletterService services.NewsletterService) *NewsletterHandler {
	return &NewsletterHandler{BaseHandler: base, newsletterService: newsletterService}
}

func (h *NewsletterHandler) Create(c *gin.Context) {
	var req dto.CreateNewsletterRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	newsletter, err := h.newsletterService.Create(&req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.Created(c, newsletter)
}

func (h *NewsletterHandler) Get(c *gin.Context) {
	newsletter, err := h.newsletterService.Get(c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.OK(c, newsletter)
}

func (h *NewsletterHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	resp, err := h.newsletterService.List(page, pageSize)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.OK(c, resp)
}

// Send triggers the fan-out. Calling it again on a sent newsletter
// responds 200 with enqueued=false.
func (h *NewsletterHandler) Send(c *gin.Context) {
	resp, err := h.newsletterService.Send(c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.OK(c, resp)
}
