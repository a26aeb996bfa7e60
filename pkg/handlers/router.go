package handlers

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	config "oil-sales-api/configs"
	"oil-sales-api/pkg/pipeline"
	"oil-sales-api/pkg/services"
)

// RouterDeps はルーターが依存するコンポーネントです。
type RouterDeps struct {
	Config     *config.Config
	Predictor  *pipeline.Predictor
	Monitoring *services.MonitoringService
}

// APIKeyAuth は X-API-KEY ヘッダーを検証するミドルウェアです。apiKey が空なら認証しません。
func APIKeyAuth(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			c.Next()
			return
		}
		if c.GetHeader("X-API-KEY") != apiKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}

// NewRouter はすべてのルートとミドルウェアを登録したエンジンを返します。
func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	monitoring := deps.Monitoring
	if monitoring == nil {
		monitoring = services.NewMonitoringService()
	}

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "X-API-KEY")

	r.Use(monitoring.LoggingMiddleware())
	r.Use(cors.New(corsConfig))

	predictionHandler := NewPredictionHandler(deps.Predictor, monitoring)
	adminHandler := NewAdminHandler(deps.Config, deps.Predictor)
	monitoringHandler := NewMonitoringHandler(monitoring)

	r.GET("/", predictionHandler.Root)
	r.GET("/health", adminHandler.HealthCheck)
	r.GET("/metrics", gin.WrapH(monitoring.MetricsHandler()))
	r.POST("/predict", adminHandler.MaintenanceGuard(), predictionHandler.Predict)

	v1 := r.Group("/api/v1")
	v1.Use(APIKeyAuth(deps.Config.APIKey))
	{
		v1.POST("/predict", adminHandler.MaintenanceGuard(), predictionHandler.Predict)
		v1.GET("/model", predictionHandler.GetModelInfo)

		admin := v1.Group("/admin")
		{
			admin.GET("/health-status", adminHandler.GetHealthStatus)
			admin.POST("/maintenance/start", adminHandler.StartMaintenance)
			admin.POST("/maintenance/stop", adminHandler.StopMaintenance)
		}

		monitoringGroup := v1.Group("/monitoring")
		{
			monitoringGroup.GET("/logs", monitoringHandler.GetLogs)
		}
	}

	return r
}
