package handler

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/qs3c/wpr_server/internal/pkg/response"
)

type HealthHandler struct {
	db *gorm.DB
}

func NewHealthHandler(db *gorm.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// Check 存储连通性检查
// GET /healthz
func (h *HealthHandler) Check(c *gin.Context) {
	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		response.StoreError(c, "")
		return
	}

	response.Success(c, gin.H{"status": "ok"})
}
