package llm

import "context"

// ChatMessage es un mensaje en el formato que espera el backend de chat.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// GenerationParams controla el muestreo del backend de generacion.
type GenerationParams struct {
	Temperature       float64
	MaxTokens         int
	TopP              float64
	RepetitionPenalty float64
	StopSequences     []string
}

// DefaultParams devuelve los parametros base del motor.
func DefaultParams() GenerationParams {
	return GenerationParams{
		Temperature:       0.7,
		MaxTokens:         500,
		TopP:              0.9,
		RepetitionPenalty: 1.1,
	}
}

// TokenStream entrega fragmentos de texto de una generacion en curso.
// Next devuelve false cuando el stream termina; Err distingue el cierre
// normal (nil) de una falla de generacion, incluso tras N fragmentos.
type TokenStream interface {
	Next() bool
	Current() string
	Err() error
	Close() error
}

// Client define la interfaz hacia el backend de generacion.
type Client interface {
	StreamCompletion(ctx context.Context, messages []ChatMessage, params GenerationParams) (TokenStream, error)
	CheckHealth(ctx context.Context) bool
}
