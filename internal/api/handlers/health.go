package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/mvdberg/squash-tracker/internal/services"
	"github.com/mvdberg/squash-tracker/internal/ws"
	"github.com/mvdberg/squash-tracker/pkg/database"
)

type HealthHandler struct {
	db     *database.DB
	redis  *redis.Client
	advice *services.AdviceService
	hub    *ws.Hub
}

func NewHealthHandler(db *database.DB, redisClient *redis.Client, advice *services.AdviceService, hub *ws.Hub) *HealthHandler {
	return &HealthHandler{
		db:     db,
		redis:  redisClient,
		advice: advice,
		hub:    hub,
	}
}

// GetHealth returns basic liveness - always 200 while the server runs
func (h *HealthHandler) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
		"service":   "squash-tracker",
	})
}

// GetReady checks the dependencies the API cannot serve without
func (h *HealthHandler) GetReady(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := gin.H{}
	healthy := true

	if err := h.db.Ping(); err != nil {
		checks["database"] = err.Error()
		healthy = false
	} else {
		checks["database"] = "ok"
	}

	if h.redis != nil {
		if err := h.redis.Ping(ctx).Err(); err != nil {
			checks["redis"] = err.Error()
			healthy = false
		} else {
			checks["redis"] = "ok"
		}
	}

	if h.advice != nil {
		if h.advice.IsHealthy() {
			checks["advice"] = "ok"
		} else {
			// A tripped advice circuit degrades, but matches can
			// still be scored.
			checks["advice"] = "circuit open"
		}
	}

	if h.hub != nil {
		checks["websocket_clients"] = h.hub.GetConnectionCount()
	}

	status := http.StatusOK
	body := gin.H{"status": "ready", "checks": checks}
	if !healthy {
		status = http.StatusServiceUnavailable
		body["status"] = "not_ready"
	}
	c.JSON(status, body)
}
