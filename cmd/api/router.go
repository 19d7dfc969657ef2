package api

import (
	"net/http"

	accountDelivery "replypilot-backend/internal/account/delivery"
	accountUsecase "replypilot-backend/internal/account/usecase"
	"replypilot-backend/internal/auth/delivery"
	authUsecase "replypilot-backend/internal/auth/usecase"
	pipelineDelivery "replypilot-backend/internal/pipeline/delivery"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, authUc authUsecase.AuthUsecase, accountUc accountUsecase.AccountUsecase, pipelineHandler *pipelineDelivery.PipelineHandler) {
	authHandler := delivery.NewAuthHandler(authUc)
	accountHandler := accountDelivery.NewAccountHandler(accountUc)

	api := r.Group("/api")
	{
		// Health check (no auth required)
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		// Auth routes
		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/register", authHandler.Register)
			auth.POST("/google", authHandler.GoogleSignIn)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", delivery.AuthMiddleware(authUc), authHandler.Me)
		}

		// Settings routes (protected)
		settings := api.Group("/settings")
		settings.Use(delivery.AuthMiddleware(authUc))
		{
			settings.GET("", accountHandler.GetSettings)
			settings.PUT("", accountHandler.UpdateSettings)
		}

		// Gmail routes. The webhook endpoints stay public: Pub/Sub push and
		// the verification challenge cannot carry a bearer token.
		gmail := api.Group("/gmail")
		{
			gmail.POST("/webhook", pipelineHandler.Webhook)
			gmail.GET("/webhook", pipelineHandler.WebhookChallenge)
			gmail.POST("/process", pipelineHandler.Process)
			gmail.POST("/watch", delivery.AuthMiddleware(authUc), accountHandler.SetupWatch)
			gmail.GET("/log", delivery.AuthMiddleware(authUc), pipelineHandler.Log)
		}
	}
}
