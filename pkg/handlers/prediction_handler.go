package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"oil-sales-api/pkg/errx"
	logx "oil-sales-api/pkg/logger"
	"oil-sales-api/pkg/models"
	"oil-sales-api/pkg/pipeline"
	"oil-sales-api/pkg/services"
)

// PredictionHandler は販売量予測のハンドラです。
// Predictor は起動時に一度だけ作られ、リクエストから変更されることはありません。
type PredictionHandler struct {
	predictor  *pipeline.Predictor
	monitoring *services.MonitoringService
}

// NewPredictionHandler は新しいPredictionHandlerを生成します。predictor が nil の場合、予測は503を返します。
func NewPredictionHandler(predictor *pipeline.Predictor, monitoring *services.MonitoringService) *PredictionHandler {
	return &PredictionHandler{predictor: predictor, monitoring: monitoring}
}

// Root はAPIの稼働状態を返します。
func (h *PredictionHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Oil Sales Prediction API", "status": "active"})
}

// Predict は1件のレコードから volume_sales を予測します。
func (h *PredictionHandler) Predict(c *gin.Context) {
	var body map[string]interface{}
	if err := c.ShouldBindJSON(&body); err != nil || body == nil {
		h.record(services.OutcomeClientError, 0)
		c.JSON(http.StatusBadRequest, gin.H{"error": "request body must be a JSON object"})
		return
	}

	record, err := models.RecordFromJSON(body)
	if err != nil {
		h.record(services.OutcomeClientError, 0)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.predictor.PredictSingle(record)
	if err != nil {
		appErr := errx.FromError(err)
		switch {
		case errors.Is(err, errx.ErrNotFitted):
			h.record(services.OutcomeNotLoaded, 0)
		case appErr.Status < http.StatusInternalServerError:
			h.record(services.OutcomeClientError, 0)
		default:
			h.record(services.OutcomeError, 0)
			logx.Error().Err(err).Msg("prediction failed")
		}
		c.JSON(appErr.Status, gin.H{"error": appErr.Message})
		return
	}

	result.InputData = body
	h.record(services.OutcomeSuccess, result.PredictedVolumeSales)
	c.JSON(http.StatusOK, result)
}

// GetModelInfo はロード済みバンドルのマニフェストを返します。
func (h *PredictionHandler) GetModelInfo(c *gin.Context) {
	if !h.predictor.Ready() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": errx.NotFittedMessage})
		return
	}
	c.JSON(http.StatusOK, h.predictor.Manifest())
}

func (h *PredictionHandler) record(outcome string, value float64) {
	if h.monitoring != nil {
		h.monitoring.RecordPrediction(outcome, value)
	}
}
