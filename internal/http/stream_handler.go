package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pygmalion/internal/service"
)

// StreamHandler mantiene dependencias para el endpoint de chat streaming.
type StreamHandler struct {
	logger     *zap.Logger
	streamServ *service.StreamService
	jwtServ    *service.JWTService
}

// NewStreamHandler crea una instancia de StreamHandler.
func NewStreamHandler(logger *zap.Logger, streamServ *service.StreamService, jwtServ *service.JWTService) *StreamHandler {
	return &StreamHandler{
		logger:     logger,
		streamServ: streamServ,
		jwtServ:    jwtServ,
	}
}

// StreamChat maneja POST /api/chat/stream. Las precondiciones se verifican
// en orden fijo (campos, sesion, ownership, personaje) y responden con
// status HTTP; a partir de ahi la respuesta es un event stream que termina
// en exactamente un evento done o error.
func (h *StreamHandler) StreamChat(c *gin.Context) {
	var req struct {
		ChatID      int64  `json:"chatId"`
		UserMessage string `json:"userMessage"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.ChatID == 0 || req.UserMessage == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing chatId or userMessage"})
		return
	}

	// La sesion se resuelve despues de validar campos, sin pasar por el
	// middleware, para conservar el orden de precondiciones del endpoint.
	claims, err := parseBearerToken(c, h.jwtServ)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	turn, err := h.streamServ.PrepareTurn(c.Request.Context(), claims.UserID, req.ChatID, req.UserMessage)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrStreamBadRequest):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing chatId or userMessage"})
		case errors.Is(err, service.ErrChatNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Chat not found"})
		case errors.Is(err, service.ErrChatForbidden):
			c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
		case errors.Is(err, service.ErrCharacterNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Character not found"})
		default:
			h.logger.Error("prepare turn failed", zap.Int64("chat_id", req.ChatID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)
	c.Writer.Flush()

	err = h.streamServ.RunTurn(c.Request.Context(), turn, func(chunk string) error {
		return h.writeEvent(c, gin.H{"chunk": chunk})
	})
	if err != nil {
		h.logger.Error("stream turn failed", zap.Int64("chat_id", req.ChatID), zap.Error(err))
		// Si el relay fue lo que fallo el cliente ya no esta; el write es
		// best effort.
		_ = h.writeEvent(c, gin.H{"error": "Failed to generate response"})
		return
	}

	_ = h.writeEvent(c, gin.H{"done": true})
}

// writeEvent serializa un evento SSE (`data: <json>\n\n`) y lo flushea.
func (h *StreamHandler) writeEvent(c *gin.Context, payload gin.H) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(c.Writer, "data: %s\n\n", data); err != nil {
		return err
	}
	c.Writer.Flush()
	return nil
}
