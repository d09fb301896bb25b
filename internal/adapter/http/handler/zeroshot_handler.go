package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/egmaziero/ktrain/internal/usecase"
)

// ZeroShotHandler handles zero-shot topic classification requests.
type ZeroShotHandler struct {
	zeroShotUC usecase.ZeroShotUsecase
}

// NewZeroShotHandler creates a new zero-shot handler.
func NewZeroShotHandler(zeroShotUC usecase.ZeroShotUsecase) *ZeroShotHandler {
	return &ZeroShotHandler{zeroShotUC: zeroShotUC}
}

// Classify handles POST /api/v1/zeroshot.
func (h *ZeroShotHandler) Classify(c *gin.Context) {
	var input usecase.ZeroShotInput
	if err := c.ShouldBindJSON(&input); err != nil {
		HandleInvalidRequest(c, err.Error())
		return
	}

	output, err := h.zeroShotUC.Classify(c.Request.Context(), &input)
	if err != nil {
		HandleUsecaseError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, output)
}
