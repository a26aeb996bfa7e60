package handlers

import (
	"crypto/subtle"
	"net/http"
	"sync/atomic"

	"github.com/gin-gonic/gin"

	config "oil-sales-api/configs"
	logx "oil-sales-api/pkg/logger"
	"oil-sales-api/pkg/pipeline"
)

// AdminHandler は管理者向け操作とヘルスチェックのハンドラです。
type AdminHandler struct {
	AdminUsername string
	AdminPassword string

	predictor   *pipeline.Predictor
	maintenance atomic.Bool
}

// NewAdminHandler は新しいAdminHandlerを生成します。
func NewAdminHandler(cfg *config.Config, predictor *pipeline.Predictor) *AdminHandler {
	return &AdminHandler{
		AdminUsername: cfg.AdminUsername,
		AdminPassword: cfg.AdminPassword,
		predictor:     predictor,
	}
}

// AdminCredentials は管理者認証のためのリクエストボディです。
type AdminCredentials struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// InMaintenance はメンテナンス中かどうかを返します。
func (h *AdminHandler) InMaintenance() bool {
	return h.maintenance.Load()
}

// authorize は資格情報を検証します。パスワード未設定時は常に拒否します。
func (h *AdminHandler) authorize(c *gin.Context) bool {
	var input AdminCredentials
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username and password are required"})
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(input.Username), []byte(h.AdminUsername)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(input.Password), []byte(h.AdminPassword)) == 1
	if h.AdminPassword == "" || !userOK || !passOK {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return false
	}
	return true
}

// StartMaintenance はメンテナンスモードを開始します。
func (h *AdminHandler) StartMaintenance(c *gin.Context) {
	if !h.authorize(c) {
		return
	}
	h.maintenance.Store(true)
	logx.Warn().Msg("maintenance mode started")
	c.JSON(http.StatusOK, gin.H{"message": "Maintenance mode started"})
}

// StopMaintenance はメンテナンスモードを停止します。
func (h *AdminHandler) StopMaintenance(c *gin.Context) {
	if !h.authorize(c) {
		return
	}
	h.maintenance.Store(false)
	logx.Info().Msg("maintenance mode stopped")
	c.JSON(http.StatusOK, gin.H{"message": "Maintenance mode stopped"})
}

// GetHealthStatus は現在のサーバーの状態を返します。
func (h *AdminHandler) GetHealthStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"isMaintenanceMode": h.InMaintenance(),
		"modelLoaded":       h.predictor.Ready(),
		"bundleId":          h.predictor.Manifest().BundleID,
	})
}

// HealthCheck はロードバランサー等からのヘルスチェックに応答します。
// メンテナンス中またはモデル未ロードの場合は503を返します。
func (h *AdminHandler) HealthCheck(c *gin.Context) {
	if h.InMaintenance() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "message": "Server is in maintenance mode"})
		return
	}
	if !h.predictor.Ready() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "model": "not loaded"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"model":     "loaded",
		"bundle_id": h.predictor.Manifest().BundleID,
	})
}

// MaintenanceGuard はメンテナンス中のリクエストを503で打ち切るミドルウェアです。
func (h *AdminHandler) MaintenanceGuard() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.InMaintenance() {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "Server is in maintenance mode"})
			return
		}
		c.Next()
	}
}
