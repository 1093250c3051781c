package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"pygmalion/internal/domain"
	"pygmalion/internal/repository"
)

// ChatHandler mantiene dependencias para endpoints de chats y mensajes.
type ChatHandler struct {
	logger     *zap.Logger
	chats      repository.ChatRepository
	characters repository.CharacterRepository
	messages   repository.MessageRepository
}

// NewChatHandler crea una instancia de ChatHandler con dependencias necesarias.
func NewChatHandler(
	logger *zap.Logger,
	chats repository.ChatRepository,
	characters repository.CharacterRepository,
	messages repository.MessageRepository,
) *ChatHandler {
	return &ChatHandler{
		logger:     logger,
		chats:      chats,
		characters: characters,
		messages:   messages,
	}
}

// Create maneja POST /chats: crea el chat y siembra el primer mensaje del
// personaje en la misma transaccion.
func (h *ChatHandler) Create(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req struct {
		CharacterID int64  `json:"character_id" binding:"required"`
		Title       string `json:"title"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid create chat request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	character, err := h.characters.GetByID(c.Request.Context(), req.CharacterID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "character not found"})
			return
		}
		h.logger.Error("get character failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load character"})
		return
	}

	title := req.Title
	if title == "" {
		title = fmt.Sprintf("Chat with %s", character.Name)
	}

	chat, err := h.chats.CreateWithFirstMessage(c.Request.Context(), domain.Chat{
		UserID:      claims.UserID,
		CharacterID: character.ID,
		Title:       title,
	}, character.FirstMessage)
	if err != nil {
		h.logger.Error("create chat failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create chat"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"chat": chat})
}

// List maneja GET /chats.
func (h *ChatHandler) List(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	chats, err := h.chats.ListByUserID(c.Request.Context(), claims.UserID)
	if err != nil {
		h.logger.Error("list chats failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list chats"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"chats": chats})
}

// Get maneja GET /chats/:id.
func (h *ChatHandler) Get(c *gin.Context) {
	chat, ok := h.ownedChat(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"chat": chat})
}

// Messages maneja GET /chats/:id/messages.
func (h *ChatHandler) Messages(c *gin.Context) {
	chat, ok := h.ownedChat(c)
	if !ok {
		return
	}

	messages, err := h.messages.ListByChatID(c.Request.Context(), chat.ID)
	if err != nil {
		h.logger.Error("list messages failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

// Delete maneja DELETE /chats/:id; los mensajes caen en cascada.
func (h *ChatHandler) Delete(c *gin.Context) {
	chat, ok := h.ownedChat(c)
	if !ok {
		return
	}

	if err := h.chats.Delete(c.Request.Context(), chat.ID); err != nil {
		h.logger.Error("delete chat failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete chat"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ownedChat resuelve el chat del path y verifica que pertenezca al caller.
// Escribe la respuesta de error correspondiente cuando devuelve ok=false.
func (h *ChatHandler) ownedChat(c *gin.Context) (domain.Chat, bool) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return domain.Chat{}, false
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat id"})
		return domain.Chat{}, false
	}

	chat, err := h.chats.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "chat not found"})
			return domain.Chat{}, false
		}
		h.logger.Error("get chat failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load chat"})
		return domain.Chat{}, false
	}
	if chat.UserID != claims.UserID {
		c.JSON(http.StatusForbidden, gin.H{"error": "you can only access your own chats"})
		return domain.Chat{}, false
	}
	return chat, true
}
