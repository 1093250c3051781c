package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"pygmalion/internal/llm"
)

// HealthHandler expone las sondas de vida y disponibilidad del servicio.
type HealthHandler struct {
	pool      *pgxpool.Pool
	llmClient llm.Client
	startedAt time.Time
}

func NewHealthHandler(pool *pgxpool.Pool, llmClient llm.Client) *HealthHandler {
	return &HealthHandler{pool: pool, llmClient: llmClient, startedAt: time.Now()}
}

// Live responde GET /health: el proceso esta arriba, con uptime y el
// estado de conexion al backend de generacion.
func (h *HealthHandler) Live(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	c.JSON(http.StatusOK, gin.H{
		"status":        "ok",
		"uptimeSeconds": int64(time.Since(h.startedAt).Seconds()),
		"llmConnected":  h.llmClient.CheckHealth(ctx),
		"timestamp":     time.Now().UTC().Format(time.RFC3339),
	})
}

// Ready responde GET /health/ready: verifica base de datos y backend LLM.
// Un backend LLM caido degrada la respuesta pero no la convierte en error;
// la base de datos si es obligatoria.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	dbOK := h.pool.Ping(ctx) == nil
	llmOK := h.llmClient.CheckHealth(ctx)

	status := "ok"
	code := http.StatusOK
	if !dbOK {
		status = "unavailable"
		code = http.StatusServiceUnavailable
	} else if !llmOK {
		status = "degraded"
	}

	c.JSON(code, gin.H{
		"status": status,
		"checks": gin.H{
			"database": dbOK,
			"llm":      llmOK,
		},
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
