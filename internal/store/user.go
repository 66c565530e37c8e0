package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/roomly/apiserver/types"
)

const uniqueViolation = pq.ErrorCode("23505")

// Constraint names from internal/db/migrations.
const (
	constraintEmail    = "users_email_key"
	constraintUsername = "users_username_key"
	constraintToken    = "users_token_key"
)

// UserRepository handles persistence for users.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

// GetByID returns ErrNotFound for ids that are not UUIDs.
func (r *UserRepository) GetByID(ctx context.Context, id string) (types.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return types.User{}, ErrNotFound
	}

	const query = `
		SELECT id, email, username, description, photo_url, photo_picture_id, token, hash, salt, rooms, created_at, updated_at
		FROM users
		WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (types.User, error) {
	const query = `
		SELECT id, email, username, description, photo_url, photo_picture_id, token, hash, salt, rooms, created_at, updated_at
		FROM users
		WHERE email = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (types.User, error) {
	const query = `
		SELECT id, email, username, description, photo_url, photo_picture_id, token, hash, salt, rooms, created_at, updated_at
		FROM users
		WHERE username = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, username))
}

func (r *UserRepository) GetByToken(ctx context.Context, token string) (types.User, error) {
	const query = `
		SELECT id, email, username, description, photo_url, photo_picture_id, token, hash, salt, rooms, created_at, updated_at
		FROM users
		WHERE token = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, token))
}

// Create inserts a new user. The caller assigns the ID.
func (r *UserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.Rooms == nil {
		user.Rooms = []string{}
	}

	roomsJSON, err := json.Marshal(user.Rooms)
	if err != nil {
		return types.User{}, err
	}
	photoURL, pictureID := photoColumns(user.Account.Photo)

	const query = `
		INSERT INTO users (id, email, username, description, photo_url, photo_picture_id, token, hash, salt, rooms, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	if _, err := r.db.ExecContext(
		ctx,
		query,
		user.ID,
		user.Email,
		user.Account.Username,
		user.Account.Description,
		photoURL,
		pictureID,
		user.Token,
		user.Hash,
		user.Salt,
		roomsJSON,
		user.CreatedAt,
		user.UpdatedAt,
	); err != nil {
		return types.User{}, classifyError(err)
	}
	return user, nil
}

// Update persists the mutable part of a user: the profile photo.
func (r *UserRepository) Update(ctx context.Context, user types.User) (types.User, error) {
	user.UpdatedAt = time.Now()
	photoURL, pictureID := photoColumns(user.Account.Photo)

	const query = `
		UPDATE users
		SET photo_url = $1,
			photo_picture_id = $2,
			updated_at = $3
		WHERE id = $4`
	result, err := r.db.ExecContext(
		ctx,
		query,
		photoURL,
		pictureID,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return types.User{}, fmt.Errorf("update user: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.User{}, err
	}
	if affected == 0 {
		return types.User{}, ErrNotFound
	}
	return user, nil
}

func scanUser(row rowScanner) (types.User, error) {
	var user types.User
	var photoURL, pictureID sql.NullString
	var roomsJSON []byte
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Account.Username,
		&user.Account.Description,
		&photoURL,
		&pictureID,
		&user.Token,
		&user.Hash,
		&user.Salt,
		&roomsJSON,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, fmt.Errorf("scan user: %w", err)
	}

	if photoURL.Valid && pictureID.Valid {
		user.Account.Photo = &types.Photo{URL: photoURL.String, PictureID: pictureID.String}
	}
	if len(roomsJSON) > 0 {
		if err := json.Unmarshal(roomsJSON, &user.Rooms); err != nil {
			return types.User{}, fmt.Errorf("decode rooms of user %s: %w", user.ID, err)
		}
	}
	if user.Rooms == nil {
		user.Rooms = []string{}
	}
	return user, nil
}

func photoColumns(photo *types.Photo) (sql.NullString, sql.NullString) {
	if photo == nil {
		return sql.NullString{}, sql.NullString{}
	}
	return sql.NullString{String: photo.URL, Valid: true},
		sql.NullString{String: photo.PictureID, Valid: true}
}

func classifyError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		switch pqErr.Constraint {
		case constraintEmail:
			return ErrEmailTaken
		case constraintUsername:
			return ErrUsernameTaken
		case constraintToken:
			return ErrTokenTaken
		}
	}
	return fmt.Errorf("insert user: %w", err)
}
