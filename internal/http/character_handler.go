package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"pygmalion/internal/domain"
	"pygmalion/internal/repository"
)

// CharacterHandler mantiene dependencias para endpoints de personajes.
type CharacterHandler struct {
	logger     *zap.Logger
	characters repository.CharacterRepository
}

// NewCharacterHandler crea una instancia de CharacterHandler.
func NewCharacterHandler(logger *zap.Logger, characters repository.CharacterRepository) *CharacterHandler {
	return &CharacterHandler{
		logger:     logger,
		characters: characters,
	}
}

type characterPayload struct {
	Name         string                 `json:"name" binding:"required,max=255"`
	Description  string                 `json:"description" binding:"required"`
	Personality  string                 `json:"personality" binding:"required"`
	Scenario     string                 `json:"scenario"`
	FirstMessage string                 `json:"first_message" binding:"required"`
	AvatarURL    string                 `json:"avatar_url"`
	Tags         []string               `json:"tags"`
	Traits       *domain.RawTraits      `json:"traits"`
	Frame        *domain.CognitiveFrame `json:"frame"`
	IsPublic     *bool                  `json:"is_public"`
}

// List maneja GET /characters.
func (h *CharacterHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	characters, err := h.characters.List(c.Request.Context(), repository.CharacterFilter{
		OnlyPublic: true,
		SortBy:     c.Query("sort_by"),
		CreatorID:  c.Query("creator_id"),
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		h.logger.Error("list characters failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list characters"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"characters": characters})
}

// Get maneja GET /characters/:id e incrementa el contador de vistas.
func (h *CharacterHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid character id"})
		return
	}

	character, err := h.characters.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "character not found"})
			return
		}
		h.logger.Error("get character failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load character"})
		return
	}

	if err := h.characters.IncrementViewCount(c.Request.Context(), id); err != nil {
		h.logger.Warn("increment view count failed", zap.Int64("character_id", id), zap.Error(err))
	}

	c.JSON(http.StatusOK, gin.H{"character": character})
}

// Presets maneja GET /characters/presets.
func (h *CharacterHandler) Presets(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"presets": domain.CharacterPresets()})
}

// Similar maneja GET /characters/:id/similar usando el vector de rasgos.
func (h *CharacterHandler) Similar(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid character id"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "5"))

	characters, err := h.characters.ListSimilar(c.Request.Context(), id, limit)
	if err != nil {
		h.logger.Error("list similar characters failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list similar characters"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"characters": characters})
}

// Create maneja POST /characters.
func (h *CharacterHandler) Create(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req characterPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid create character request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if err := req.Traits.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := req.Frame.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	isPublic := true
	if req.IsPublic != nil {
		isPublic = *req.IsPublic
	}

	character := domain.Character{
		Name:         req.Name,
		Description:  req.Description,
		Personality:  req.Personality,
		Scenario:     req.Scenario,
		FirstMessage: req.FirstMessage,
		AvatarURL:    req.AvatarURL,
		CreatorID:    claims.UserID,
		Tags:         req.Tags,
		Traits:       req.Traits,
		Frame:        req.Frame,
		IsPublic:     isPublic,
	}

	id, err := h.characters.Create(c.Request.Context(), character)
	if err != nil {
		h.logger.Error("create character failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create character"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// Update maneja PUT /characters/:id; solo el creador puede editar.
func (h *CharacterHandler) Update(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid character id"})
		return
	}

	existing, err := h.characters.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "character not found"})
			return
		}
		h.logger.Error("get character failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load character"})
		return
	}
	if existing.CreatorID != claims.UserID {
		c.JSON(http.StatusForbidden, gin.H{"error": "you can only edit your own characters"})
		return
	}

	var req characterPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid update character request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if err := req.Traits.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := req.Frame.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	existing.Name = req.Name
	existing.Description = req.Description
	existing.Personality = req.Personality
	existing.Scenario = req.Scenario
	existing.FirstMessage = req.FirstMessage
	existing.AvatarURL = req.AvatarURL
	existing.Tags = req.Tags
	existing.Traits = req.Traits
	existing.Frame = req.Frame
	if req.IsPublic != nil {
		existing.IsPublic = *req.IsPublic
	}

	if err := h.characters.Update(c.Request.Context(), existing); err != nil {
		h.logger.Error("update character failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update character"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Delete maneja DELETE /characters/:id; solo el creador puede borrar.
func (h *CharacterHandler) Delete(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid character id"})
		return
	}

	existing, err := h.characters.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "character not found"})
			return
		}
		h.logger.Error("get character failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load character"})
		return
	}
	if existing.CreatorID != claims.UserID {
		c.JSON(http.StatusForbidden, gin.H{"error": "you can only delete your own characters"})
		return
	}

	if err := h.characters.Delete(c.Request.Context(), id); err != nil {
		h.logger.Error("delete character failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete character"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ToggleStar maneja POST /characters/:id/star.
func (h *CharacterHandler) ToggleStar(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid character id"})
		return
	}

	starred, err := h.characters.ToggleStar(c.Request.Context(), claims.UserID, id)
	if err != nil {
		h.logger.Error("toggle star failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not toggle star"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"is_starred": starred})
}

// IsStarred maneja GET /characters/:id/star.
func (h *CharacterHandler) IsStarred(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid character id"})
		return
	}

	starred, err := h.characters.IsStarred(c.Request.Context(), claims.UserID, id)
	if err != nil {
		h.logger.Error("is starred failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not check star"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"is_starred": starred})
}
