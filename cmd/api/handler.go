package api

import (
	accountUsecase "replypilot-backend/internal/account/usecase"
	authUsecase "replypilot-backend/internal/auth/usecase"
	pipelineDelivery "replypilot-backend/internal/pipeline/delivery"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	authUsecase     authUsecase.AuthUsecase
	accountUsecase  accountUsecase.AccountUsecase
	pipelineHandler *pipelineDelivery.PipelineHandler
}

func NewHandler(authUc authUsecase.AuthUsecase, accountUc accountUsecase.AccountUsecase, pipelineHandler *pipelineDelivery.PipelineHandler) *Handler {
	return &Handler{
		authUsecase:     authUc,
		accountUsecase:  accountUc,
		pipelineHandler: pipelineHandler,
	}
}

// engine assembles the gin engine with middleware and routes. Mode must be
// set before gin.Default constructs the engine or it has no effect.
func (h *Handler) engine() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.Default()

	// CORS middleware
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	SetupRoutes(r, h.authUsecase, h.accountUsecase, h.pipelineHandler)

	return r
}

func (h *Handler) Start(addr string) error {
	return h.engine().Run(addr)
}
