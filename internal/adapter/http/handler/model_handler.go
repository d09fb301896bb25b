package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/egmaziero/ktrain/internal/usecase"
)

// ModelHandler handles text classifier HTTP requests.
type ModelHandler struct {
	modelUC usecase.ModelUsecase
}

// NewModelHandler creates a new model handler.
func NewModelHandler(modelUC usecase.ModelUsecase) *ModelHandler {
	return &ModelHandler{modelUC: modelUC}
}

// TrainModel handles POST /api/v1/models.
func (h *ModelHandler) TrainModel(c *gin.Context) {
	var input usecase.TrainModelInput
	if err := c.ShouldBindJSON(&input); err != nil {
		HandleInvalidRequest(c, err.Error())
		return
	}

	if !IsValidModelKind(input.Kind) {
		HandleInvalidRequest(c, "invalid kind")
		return
	}

	output, err := h.modelUC.Train(c.Request.Context(), &input)
	if err != nil {
		HandleUsecaseError(c, err)
		return
	}

	respondCreated(c, c.FullPath()+"/"+output.ModelID.String(), output)
}

// GetModel handles GET /api/v1/models/:id.
func (h *ModelHandler) GetModel(c *gin.Context) {
	id, ok := modelIDParam(c)
	if !ok {
		return
	}

	output, err := h.modelUC.GetByID(c.Request.Context(), id)
	if err != nil {
		HandleUsecaseError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, output)
}

// ListModels handles GET /api/v1/models.
func (h *ModelHandler) ListModels(c *gin.Context) {
	q, ok := bindModelListQuery(c)
	if !ok {
		return
	}

	output, err := h.modelUC.List(c.Request.Context(), q.Limit, q.Offset)
	if err != nil {
		HandleUsecaseError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, output)
}

// DeleteModel handles DELETE /api/v1/models/:id.
func (h *ModelHandler) DeleteModel(c *gin.Context) {
	id, ok := modelIDParam(c)
	if !ok {
		return
	}

	if err := h.modelUC.Delete(c.Request.Context(), id); err != nil {
		HandleUsecaseError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{"model_id": id, "deleted": true})
}

// Predict handles POST /api/v1/models/:id/predict.
func (h *ModelHandler) Predict(c *gin.Context) {
	id, ok := modelIDParam(c)
	if !ok {
		return
	}

	var input usecase.PredictInput
	if err := c.ShouldBindJSON(&input); err != nil {
		HandleInvalidRequest(c, err.Error())
		return
	}

	output, err := h.modelUC.Predict(c.Request.Context(), id, &input)
	if err != nil {
		HandleUsecaseError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, output)
}

// Evaluate handles POST /api/v1/models/:id/evaluate.
func (h *ModelHandler) Evaluate(c *gin.Context) {
	id, ok := modelIDParam(c)
	if !ok {
		return
	}

	var input usecase.EvaluateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		HandleInvalidRequest(c, err.Error())
		return
	}
	if len(input.Texts) != len(input.Labels) {
		HandleInvalidRequest(c, "texts and labels must have the same length")
		return
	}

	output, err := h.modelUC.Evaluate(c.Request.Context(), id, &input)
	if err != nil {
		HandleUsecaseError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, output)
}
