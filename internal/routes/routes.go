package routes

import (
	"github.com/gin-gonic/gin"

	"mmoboard_backend/internal/handlers"
	"mmoboard_backend/internal/middleware"
	"mmoboard_backend/internal/models"
	"mmoboard_backend/internal/ws"
)

type Handlers struct {
	Auth         *handlers.AuthHandler
	Post         *handlers.PostHandler
	Response     *handlers.ResponseHandler
	Notification *handlers.NotificationHandler
	Newsletter   *handlers.NewsletterHandler
	WS           *ws.Handler
}

func Register(r *gin.Engine, h *Handlers) {
	api := r.Group("/api/v1")

	// public
	api.POST("/auth/register", h.Auth.Register)
	api.POST("/auth/login", h.Auth.Login)
	api.GET("/posts", h.Post.List)
	api.GET("/posts/:id", h.Post.Get)
	api.GET("/categories", h.Post.ListCategories)

	// authenticated
	authed := api.Group("")
	authed.Use(middleware.AuthMiddleware())
	{
		authed.GET("/auth/me", h.Auth.Me)
		authed.PATCH("/auth/preferences", h.Auth.UpdatePreferences)

		authed.POST("/posts", h.Post.Create)
		authed.PATCH("/posts/:id/status", h.Post.UpdateStatus)

		authed.POST("/posts/:id/responses", h.Response.Create)
		authed.GET("/posts/:id/responses", h.Response.ListForPost)
		authed.GET("/responses/mine", h.Response.ListMine)
		authed.GET("/responses/:id", h.Response.Get)
		authed.PATCH("/responses/:id/review", h.Response.Review)

		authed.GET("/notifications", h.Notification.List)
		authed.GET("/notifications/recent", h.Notification.Recent)
		authed.GET("/notifications/unread-count", h.Notification.UnreadCount)
		authed.GET("/notifications/:id", h.Notification.Get)
		authed.POST("/notifications/:id/read", h.Notification.MarkAsRead)
		authed.POST("/notifications/read-all", h.Notification.MarkAllAsRead)
		authed.DELETE("/notifications/:id", h.Notification.Delete)

		authed.GET("/ws", h.WS.ServeWS)
	}

	// admin
	admin := api.Group("/admin")
	admin.Use(middleware.AuthMiddleware(), middleware.RequireRoles(models.UserRoleAdmin))
	{
		admin.POST("/notifications/bulk", h.Notification.SendBulk)

		admin.POST("/email-templates", h.Notification.CreateEmailTemplate)
		admin.GET("/email-templates", h.Notification.ListEmailTemplates)
		admin.PATCH("/email-templates/:id", h.Notification.UpdateEmailTemplate)

		admin.POST("/newsletters", h.Newsletter.Create)
		admin.GET("/newsletters", h.Newsletter.List)
		admin.GET("/newsletters/:id", h.Newsletter.Get)
		admin.POST("/newsletters/:id/send", h.Newsletter.Send)
	}
}
