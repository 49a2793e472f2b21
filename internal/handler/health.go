package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/mgfere/kinoa-rolls/internal/realtime"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Health reporta conectividad de BD y Redis mas los contadores del hub.
// Nunca expone credenciales ni detalles internos.
func Health(db *gorm.DB, rdb *redis.Client, hub *realtime.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		dbStatus := "connected"
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(ctx) != nil {
			dbStatus = "error"
		}

		redisStatus := "connected"
		if rdb.Ping(ctx).Err() != nil {
			redisStatus = "error"
		}

		status := http.StatusOK
		if dbStatus != "connected" || redisStatus != "connected" {
			status = http.StatusServiceUnavailable
		}

		c.JSON(status, gin.H{
			"ok":          status == http.StatusOK,
			"db":          dbStatus,
			"redis":       redisStatus,
			"ws_sesiones": hub.Conexiones(),
			"ws_usuarios": hub.UsuariosConectados(),
		})
	}
}
