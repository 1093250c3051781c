package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"pygmalion/internal/domain"
	"pygmalion/internal/llm"
	"pygmalion/internal/repository"
)

var (
	ErrStreamBadRequest  = errors.New("missing chat id or user message")
	ErrChatNotFound      = errors.New("chat not found")
	ErrCharacterNotFound = errors.New("character not found")
	ErrChatForbidden     = errors.New("chat belongs to another user")
)

// StreamService orquesta un turno de chat: autorizacion, persistencia del
// mensaje del usuario, armado del prompt, relay incremental y persistencia
// de la respuesta completa.
type StreamService struct {
	logger        *zap.Logger
	chats         repository.ChatRepository
	characters    repository.CharacterRepository
	messages      repository.MessageRepository
	llmClient     llm.Client
	promptBuilder PromptBuilder
}

func NewStreamService(
	logger *zap.Logger,
	chats repository.ChatRepository,
	characters repository.CharacterRepository,
	messages repository.MessageRepository,
	llmClient llm.Client,
	promptBuilder PromptBuilder,
) *StreamService {
	return &StreamService{
		logger:        logger,
		chats:         chats,
		characters:    characters,
		messages:      messages,
		llmClient:     llmClient,
		promptBuilder: promptBuilder,
	}
}

// Turn es el contexto preparado de un turno listo para generar.
type Turn struct {
	ChatID   int64
	Messages []llm.ChatMessage
	Params   llm.GenerationParams
}

// PrepareTurn valida y autoriza el turno, persiste el mensaje del usuario
// ANTES de generar y deja el historial completo (system prompt incluido)
// listo para el backend. No abre ninguna conexion upstream.
func (s *StreamService) PrepareTurn(ctx context.Context, userID string, chatID int64, userMessage string) (Turn, error) {
	userMessage = strings.TrimSpace(userMessage)
	if chatID <= 0 || userMessage == "" {
		return Turn{}, ErrStreamBadRequest
	}

	chat, err := s.chats.GetByID(ctx, chatID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Turn{}, ErrChatNotFound
		}
		return Turn{}, fmt.Errorf("get chat: %w", err)
	}
	if chat.UserID != userID {
		return Turn{}, ErrChatForbidden
	}

	character, err := s.characters.GetByID(ctx, chat.CharacterID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Turn{}, ErrCharacterNotFound
		}
		return Turn{}, fmt.Errorf("get character: %w", err)
	}

	// El mensaje del usuario se persiste primero; si esto falla, el turno
	// aborta sin abrir stream alguno.
	if _, err := s.messages.Create(ctx, domain.Message{
		ChatID:  chatID,
		Role:    domain.RoleUser,
		Content: userMessage,
	}); err != nil {
		return Turn{}, fmt.Errorf("persist user message: %w", err)
	}

	history, err := s.messages.ListByChatID(ctx, chatID)
	if err != nil {
		return Turn{}, fmt.Errorf("list messages: %w", err)
	}

	systemPrompt := s.promptBuilder.BuildSystemPrompt(&character, character.ResolvedTraits(), character.ResolvedFrame())

	messages := make([]llm.ChatMessage, 0, len(history)+1)
	messages = append(messages, llm.ChatMessage{Role: domain.RoleSystem, Content: systemPrompt})
	for _, m := range history {
		if m.Role != domain.RoleUser && m.Role != domain.RoleAssistant {
			continue
		}
		messages = append(messages, llm.ChatMessage{Role: m.Role, Content: m.Content})
	}

	return Turn{
		ChatID:   chatID,
		Messages: messages,
		Params:   AdjustParams(llm.DefaultParams(), character.Traits),
	}, nil
}

// RunTurn abre el stream de generacion y reenvia cada fragmento a relay en
// orden de emision mientras lo acumula. Con cierre normal persiste
// exactamente un mensaje assistant y devuelve nil; ante falla del stream o
// del relay no persiste nada y devuelve el error.
func (s *StreamService) RunTurn(ctx context.Context, turn Turn, relay func(chunk string) error) error {
	stream, err := s.llmClient.StreamCompletion(ctx, turn.Messages, turn.Params)
	if err != nil {
		return fmt.Errorf("open generation stream: %w", err)
	}
	defer stream.Close()

	var full strings.Builder
	for stream.Next() {
		chunk := stream.Current()
		full.WriteString(chunk)
		if err := relay(chunk); err != nil {
			// Cliente desconectado: abandonamos el stream upstream y el
			// texto parcial se descarta, igual que cualquier cierre sin done.
			return fmt.Errorf("relay chunk: %w", err)
		}
	}
	if err := stream.Err(); err != nil {
		return fmt.Errorf("generation stream: %w", err)
	}

	if _, err := s.messages.Create(ctx, domain.Message{
		ChatID:  turn.ChatID,
		Role:    domain.RoleAssistant,
		Content: full.String(),
	}); err != nil {
		// El texto generado solo vive en el acumulador; perdida conocida y
		// aceptada, el cliente ya recibio la respuesta completa.
		s.logger.Error("persist assistant message failed",
			zap.Int64("chat_id", turn.ChatID),
			zap.Error(err),
		)
	}
	return nil
}
