package handlers

import (
	"github.com/gin-gonic/gin"

	"mmoboard_backend/internal/services"
	"mmoboard_backend/internal/services/dto"
)

type AuthHandler struct {
	*BaseHandler
	authService services.AuthService
}

func NewAuthHandler(base *BaseHandler, authService services.AuthService) *AuthHandler {
	return &AuthHandler{BaseHandler: base, authService: authService}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	resp, err := h.authService.Register(&req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.Created(c, resp)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	resp, err := h.authService.Login(&req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.OK(c, resp)
}

func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := h.AuthorizedUserID(c)
	if !ok {
		return
	}

	user, err := h.authService.GetProfile(userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.OK(c, user)
}

func (h *AuthHandler) UpdatePreferences(c *gin.Context) {
	userID, ok := h.AuthorizedUserID(c)
	if !ok {
		return
	}

	var req dto.UpdatePreferencesRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	profile, err := h.authService.UpdatePreferences(userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	h.OK(c, profile)
}
