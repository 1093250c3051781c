package llm

import (
	"context"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/ssestream"
	"github.com/openai/openai-go/shared"
	"go.uber.org/zap"

	"pygmalion/internal/domain"
)

// AphroditeClient implementa Client contra un motor OpenAI-compatible
// (Aphrodite). La URL base y la credencial son dependencias explicitas de
// construccion, no estado ambiente.
type AphroditeClient struct {
	client openai.Client
	model  string
	logger *zap.Logger
}

// NewAphroditeClient construye un cliente apuntando al motor configurado.
func NewAphroditeClient(baseURL, apiKey, model string, logger *zap.Logger) *AphroditeClient {
	client := openai.NewClient(
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
	)
	return &AphroditeClient{
		client: client,
		model:  model,
		logger: logger,
	}
}

// StreamCompletion abre una nueva generacion streaming. Cada llamada abre un
// request nuevo; el stream devuelto no es reiniciable.
func (c *AphroditeClient) StreamCompletion(ctx context.Context, messages []ChatMessage, params GenerationParams) (TokenStream, error) {
	chatMessages := make([]openai.ChatCompletionMessageParamUnion, len(messages))
	for i, msg := range messages {
		switch msg.Role {
		case domain.RoleSystem:
			chatMessages[i] = openai.SystemMessage(msg.Content)
		case domain.RoleAssistant:
			chatMessages[i] = openai.AssistantMessage(msg.Content)
		default:
			chatMessages[i] = openai.UserMessage(msg.Content)
		}
	}

	p := openai.ChatCompletionNewParams{
		Model:       shared.ChatModel(c.model),
		Messages:    chatMessages,
		Temperature: openai.Float(params.Temperature),
		TopP:        openai.Float(params.TopP),
		MaxTokens:   openai.Int(int64(params.MaxTokens)),
	}
	if len(params.StopSequences) > 0 {
		p.Stop = openai.ChatCompletionNewParamsStopUnion{OfStringArray: params.StopSequences}
	}
	if params.RepetitionPenalty > 0 {
		// Extension de Aphrodite fuera del contrato OpenAI estandar.
		p.SetExtraFields(map[string]any{"repetition_penalty": params.RepetitionPenalty})
	}

	return &aphroditeStream{stream: c.client.Chat.Completions.NewStreaming(ctx, p)}, nil
}

// CheckHealth hace un probe liviano listando modelos; nunca devuelve error.
func (c *AphroditeClient) CheckHealth(ctx context.Context) bool {
	if _, err := c.client.Models.List(ctx); err != nil {
		if c.logger != nil {
			c.logger.Warn("aphrodite health check failed", zap.Error(err))
		}
		return false
	}
	return true
}

type aphroditeStream struct {
	stream  *ssestream.Stream[openai.ChatCompletionChunk]
	current string
}

func (s *aphroditeStream) Next() bool {
	for s.stream.Next() {
		chunk := s.stream.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		if content := chunk.Choices[0].Delta.Content; content != "" {
			s.current = content
			return true
		}
	}
	return false
}

func (s *aphroditeStream) Current() string { return s.current }

func (s *aphroditeStream) Err() error { return s.stream.Err() }

func (s *aphroditeStream) Close() error { return s.stream.Close() }
