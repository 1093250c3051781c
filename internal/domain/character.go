package domain

import "time"

// Character es la definicion de un personaje de IA. Traits y Frame llegan
// parseados desde las columnas serializadas; nil significa "ausente" (ya sea
// porque nunca se guardaron o porque el texto no parsea) y los consumidores
// resuelven contra defaults.
type Character struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Personality  string          `json:"personality"`
	Scenario     string          `json:"scenario,omitempty"`
	FirstMessage string          `json:"first_message"`
	AvatarURL    string          `json:"avatar_url,omitempty"`
	CreatorID    string          `json:"creator_id"`
	Tags         []string        `json:"tags,omitempty"`
	Traits       *RawTraits      `json:"traits,omitempty"`
	Frame        *CognitiveFrame `json:"frame,omitempty"`
	IsPublic     bool            `json:"is_public"`
	ViewCount    int             `json:"view_count"`
	ChatCount    int             `json:"chat_count"`
	StarCount    int             `json:"star_count"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// ResolvedTraits devuelve el vector efectivo del personaje.
func (c *Character) ResolvedTraits() PersonalityTraits {
	return ResolveTraits(c.Traits)
}

// ResolvedFrame devuelve el frame efectivo del personaje.
func (c *Character) ResolvedFrame() CognitiveFrame {
	return ResolveFrame(c.Frame)
}
