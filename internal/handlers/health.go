package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

func (h *Handler) HealthCheck(ctx *gin.Context) {
	status := http.StatusOK
	body := gin.H{
		"status":    "ok",
		"message":   "Eden is running",
		"timestamp": time.Now().Format(time.RFC3339),
	}

	if sqlDB, err := h.DB.DB(); err != nil || sqlDB.PingContext(ctx.Request.Context()) != nil {
		status = http.StatusServiceUnavailable
		body["status"] = "degraded"
		body["database"] = "unreachable"
	}

	if h.Scheduler != nil {
		body["scheduler"] = h.Scheduler.GetStatus()
	}

	ctx.JSON(status, body)
}
