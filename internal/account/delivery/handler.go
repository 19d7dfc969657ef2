package delivery

import (
	"net/http"

	accountdto "replypilot-backend/internal/account/dto"
	"replypilot-backend/internal/account/usecase"
	"replypilot-backend/pkg/errs"

	"github.com/gin-gonic/gin"
)

type AccountHandler struct {
	accountUsecase usecase.AccountUsecase
}

func NewAccountHandler(accountUsecase usecase.AccountUsecase) *AccountHandler {
	return &AccountHandler{accountUsecase: accountUsecase}
}

func (h *AccountHandler) GetSettings(c *gin.Context) {
	accountID := c.GetString("accountID")

	settings, err := h.accountUsecase.GetSettings(accountID)
	if err != nil {
		c.JSON(errs.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, settings)
}

func (h *AccountHandler) UpdateSettings(c *gin.Context) {
	accountID := c.GetString("accountID")

	var req accountdto.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	settings, err := h.accountUsecase.UpdateSettings(accountID, &req)
	if err != nil {
		c.JSON(errs.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, settings)
}

func (h *AccountHandler) SetupWatch(c *gin.Context) {
	accountID := c.GetString("accountID")

	watch, err := h.accountUsecase.SetupWatch(c.Request.Context(), accountID)
	if err != nil {
		c.JSON(errs.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "watch": watch})
}
