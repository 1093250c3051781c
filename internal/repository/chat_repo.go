package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"pygmalion/internal/domain"
)

type ChatRepository interface {
	// CreateWithFirstMessage crea el chat, siembra el primer mensaje del
	// personaje (role=assistant) e incrementa chat_count, todo en una
	// transaccion.
	CreateWithFirstMessage(ctx context.Context, chat domain.Chat, firstMessage string) (domain.Chat, error)
	GetByID(ctx context.Context, id int64) (domain.Chat, error)
	ListByUserID(ctx context.Context, userID string) ([]domain.Chat, error)
	Delete(ctx context.Context, id int64) error
}

type PgChatRepository struct {
	pool *pgxpool.Pool
}

func NewPgChatRepository(pool *pgxpool.Pool) *PgChatRepository {
	return &PgChatRepository{pool: pool}
}

func (r *PgChatRepository) CreateWithFirstMessage(ctx context.Context, chat domain.Chat, firstMessage string) (domain.Chat, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.Chat{}, err
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()
	chat.CreatedAt = now
	chat.UpdatedAt = now

	err = tx.QueryRow(ctx,
		`INSERT INTO chats (user_id, character_id, title, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		chat.UserID, chat.CharacterID, chat.Title, chat.CreatedAt, chat.UpdatedAt,
	).Scan(&chat.ID)
	if err != nil {
		return domain.Chat{}, err
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO messages (chat_id, role, content, created_at)
		 VALUES ($1, $2, $3, $4)`,
		chat.ID, domain.RoleAssistant, firstMessage, now,
	); err != nil {
		return domain.Chat{}, err
	}

	if _, err := tx.Exec(ctx,
		`UPDATE characters SET chat_count = chat_count + 1 WHERE id = $1`,
		chat.CharacterID,
	); err != nil {
		return domain.Chat{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Chat{}, err
	}
	return chat, nil
}

func (r *PgChatRepository) GetByID(ctx context.Context, id int64) (domain.Chat, error) {
	const query = `
		SELECT id, user_id, character_id, title, created_at, updated_at
		FROM chats
		WHERE id = $1
	`
	var chat domain.Chat
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&chat.ID,
		&chat.UserID,
		&chat.CharacterID,
		&chat.Title,
		&chat.CreatedAt,
		&chat.UpdatedAt,
	)
	return chat, err
}

func (r *PgChatRepository) ListByUserID(ctx context.Context, userID string) ([]domain.Chat, error) {
	const query = `
		SELECT id, user_id, character_id, title, created_at, updated_at
		FROM chats
		WHERE user_id = $1
		ORDER BY updated_at DESC
	`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chats []domain.Chat
	for rows.Next() {
		var chat domain.Chat
		if err := rows.Scan(
			&chat.ID,
			&chat.UserID,
			&chat.CharacterID,
			&chat.Title,
			&chat.CreatedAt,
			&chat.UpdatedAt,
		); err != nil {
			return nil, err
		}
		chats = append(chats, chat)
	}
	return chats, rows.Err()
}

// Delete borra el chat; los mensajes caen en cascada por FK.
func (r *PgChatRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM chats WHERE id = $1`, id)
	return err
}
