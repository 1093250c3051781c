package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"pygmalion/internal/domain"
)

type MessageRepository interface {
	Create(ctx context.Context, message domain.Message) (int64, error)
	ListByChatID(ctx context.Context, chatID int64) ([]domain.Message, error)
}

type PgMessageRepository struct {
	pool *pgxpool.Pool
}

func NewPgMessageRepository(pool *pgxpool.Pool) *PgMessageRepository {
	return &PgMessageRepository{pool: pool}
}

func (r *PgMessageRepository) Create(ctx context.Context, message domain.Message) (int64, error) {
	const query = `
		INSERT INTO messages (chat_id, role, content, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	createdAt := message.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	var id int64
	err := r.pool.QueryRow(ctx, query,
		message.ChatID,
		message.Role,
		message.Content,
		createdAt,
	).Scan(&id)
	return id, err
}

func (r *PgMessageRepository) ListByChatID(ctx context.Context, chatID int64) ([]domain.Message, error) {
	const query = `
		SELECT id, chat_id, role, content, created_at
		FROM messages
		WHERE chat_id = $1
		ORDER BY created_at ASC, id ASC
	`
	rows, err := r.pool.Query(ctx, query, chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		var msg domain.Message
		if err := rows.Scan(
			&msg.ID,
			&msg.ChatID,
			&msg.Role,
			&msg.Content,
			&msg.CreatedAt,
		); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}
