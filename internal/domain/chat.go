package domain

import "time"

// Chat liga a un usuario con un personaje y agrupa sus mensajes.
type Chat struct {
	ID          int64     `json:"id"`
	UserID      string    `json:"user_id"`
	CharacterID int64     `json:"character_id"`
	Title       string    `json:"title,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
