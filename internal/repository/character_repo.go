package repository

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"pygmalion/internal/domain"
)

// CharacterFilter acota el listado de personajes.
type CharacterFilter struct {
	CreatorID  string
	OnlyPublic bool
	SortBy     string // recent | popular | trending
	Limit      int
	Offset     int
}

type CharacterRepository interface {
	Create(ctx context.Context, character domain.Character) (int64, error)
	Update(ctx context.Context, character domain.Character) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (domain.Character, error)
	List(ctx context.Context, filter CharacterFilter) ([]domain.Character, error)
	ListSimilar(ctx context.Context, id int64, limit int) ([]domain.Character, error)
	IncrementViewCount(ctx context.Context, id int64) error
	ToggleStar(ctx context.Context, userID string, characterID int64) (bool, error)
	IsStarred(ctx context.Context, userID string, characterID int64) (bool, error)
}

type PgCharacterRepository struct {
	pool *pgxpool.Pool
}

func NewPgCharacterRepository(pool *pgxpool.Pool) *PgCharacterRepository {
	return &PgCharacterRepository{pool: pool}
}

const characterColumns = `
	id, name, description, personality, scenario, first_message, avatar_url,
	creator_id, tags, traits, frame, is_public, view_count, chat_count,
	star_count, created_at, updated_at
`

func (r *PgCharacterRepository) Create(ctx context.Context, character domain.Character) (int64, error) {
	const query = `
		INSERT INTO characters (
			name, description, personality, scenario, first_message, avatar_url,
			creator_id, tags, traits, frame, trait_vec, is_public, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id
	`
	now := time.Now().UTC()
	var id int64
	err := r.pool.QueryRow(ctx, query,
		character.Name,
		character.Description,
		character.Personality,
		nullIfEmpty(character.Scenario),
		character.FirstMessage,
		nullIfEmpty(character.AvatarURL),
		character.CreatorID,
		marshalOrNil(character.Tags),
		marshalOrNil(character.Traits),
		marshalOrNil(character.Frame),
		character.ResolvedTraits().Vector(),
		character.IsPublic,
		now,
		now,
	).Scan(&id)
	return id, err
}

func (r *PgCharacterRepository) Update(ctx context.Context, character domain.Character) error {
	const query = `
		UPDATE characters
		SET name = $1, description = $2, personality = $3, scenario = $4,
		    first_message = $5, avatar_url = $6, tags = $7, traits = $8,
		    frame = $9, trait_vec = $10, is_public = $11, updated_at = $12
		WHERE id = $13
	`
	_, err := r.pool.Exec(ctx, query,
		character.Name,
		character.Description,
		character.Personality,
		nullIfEmpty(character.Scenario),
		character.FirstMessage,
		nullIfEmpty(character.AvatarURL),
		marshalOrNil(character.Tags),
		marshalOrNil(character.Traits),
		marshalOrNil(character.Frame),
		character.ResolvedTraits().Vector(),
		character.IsPublic,
		time.Now().UTC(),
		character.ID,
	)
	return err
}

func (r *PgCharacterRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM characters WHERE id = $1`, id)
	return err
}

func (r *PgCharacterRepository) GetByID(ctx context.Context, id int64) (domain.Character, error) {
	const query = `SELECT ` + characterColumns + ` FROM characters WHERE id = $1`
	row := r.pool.QueryRow(ctx, query, id)
	return scanCharacter(row)
}

func (r *PgCharacterRepository) List(ctx context.Context, filter CharacterFilter) ([]domain.Character, error) {
	orderBy := "created_at DESC"
	switch filter.SortBy {
	case "popular":
		orderBy = "star_count DESC"
	case "trending":
		orderBy = "chat_count DESC"
	}

	query := `SELECT ` + characterColumns + ` FROM characters WHERE 1=1`
	args := []any{}
	if filter.OnlyPublic {
		query += ` AND is_public = TRUE`
	}
	if filter.CreatorID != "" {
		args = append(args, filter.CreatorID)
		query += ` AND creator_id = $1`
	}
	query += ` ORDER BY ` + orderBy
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	args = append(args, limit, filter.Offset)
	query += ` LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var characters []domain.Character
	for rows.Next() {
		c, err := scanCharacter(rows)
		if err != nil {
			return nil, err
		}
		characters = append(characters, c)
	}
	return characters, rows.Err()
}

// ListSimilar devuelve los personajes publicos mas cercanos por vector de
// rasgos, excluyendo al propio personaje.
func (r *PgCharacterRepository) ListSimilar(ctx context.Context, id int64, limit int) ([]domain.Character, error) {
	const query = `
		SELECT ` + characterColumns + `
		FROM characters
		WHERE id <> $1 AND is_public = TRUE
		ORDER BY trait_vec <-> (SELECT trait_vec FROM characters WHERE id = $1)
		LIMIT $2
	`
	if limit <= 0 {
		limit = 5
	}
	rows, err := r.pool.Query(ctx, query, id, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var characters []domain.Character
	for rows.Next() {
		c, err := scanCharacter(rows)
		if err != nil {
			return nil, err
		}
		characters = append(characters, c)
	}
	return characters, rows.Err()
}

func (r *PgCharacterRepository) IncrementViewCount(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `UPDATE characters SET view_count = view_count + 1 WHERE id = $1`, id)
	return err
}

// ToggleStar alterna la estrella del usuario y mantiene star_count en la
// misma transaccion. Devuelve el estado final.
func (r *PgCharacterRepository) ToggleStar(ctx context.Context, userID string, characterID int64) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`DELETE FROM character_stars WHERE user_id = $1 AND character_id = $2`,
		userID, characterID,
	)
	if err != nil {
		return false, err
	}

	starred := false
	if tag.RowsAffected() == 0 {
		if _, err := tx.Exec(ctx,
			`INSERT INTO character_stars (user_id, character_id, created_at) VALUES ($1, $2, $3)`,
			userID, characterID, time.Now().UTC(),
		); err != nil {
			return false, err
		}
		if _, err := tx.Exec(ctx,
			`UPDATE characters SET star_count = star_count + 1 WHERE id = $1`,
			characterID,
		); err != nil {
			return false, err
		}
		starred = true
	} else {
		if _, err := tx.Exec(ctx,
			`UPDATE characters SET star_count = star_count - 1 WHERE id = $1`,
			characterID,
		); err != nil {
			return false, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return starred, nil
}

func (r *PgCharacterRepository) IsStarred(ctx context.Context, userID string, characterID int64) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM character_stars WHERE user_id = $1 AND character_id = $2
		)
	`
	var starred bool
	err := r.pool.QueryRow(ctx, query, userID, characterID).Scan(&starred)
	return starred, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCharacter(row rowScanner) (domain.Character, error) {
	var (
		c                               domain.Character
		scenario, avatarURL             *string
		tagsText, traitsText, frameText *string
	)
	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Description,
		&c.Personality,
		&scenario,
		&c.FirstMessage,
		&avatarURL,
		&c.CreatorID,
		&tagsText,
		&traitsText,
		&frameText,
		&c.IsPublic,
		&c.ViewCount,
		&c.ChatCount,
		&c.StarCount,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return domain.Character{}, err
	}
	if scenario != nil {
		c.Scenario = *scenario
	}
	if avatarURL != nil {
		c.AvatarURL = *avatarURL
	}
	if tagsText != nil {
		// Tags malformados se ignoran igual que los rasgos.
		_ = json.Unmarshal([]byte(*tagsText), &c.Tags)
	}
	if traitsText != nil {
		c.Traits = domain.ParseStoredTraits(*traitsText)
	}
	if frameText != nil {
		c.Frame = domain.ParseStoredFrame(*frameText)
	}
	return c, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func marshalOrNil(v any) any {
	switch val := v.(type) {
	case []string:
		if len(val) == 0 {
			return nil
		}
	case *domain.RawTraits:
		if val == nil {
			return nil
		}
	case *domain.CognitiveFrame:
		if val == nil {
			return nil
		}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return string(data)
}
