// Package postgres implements authgate.CredentialStore on a pgx connection
// pool. It is the reference persistence for user records; the schema lives
// in schema.sql.
package postgres

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kharland/authgate"
)

const uniqueViolation = "23505"

var userColumns = []string{
	"id", "name", "email", "picture_uri", "password_hash",
	"totp_secret", "totp_enabled", "reset_code", "reset_expires_at",
	"last_access_at", "created_at",
}

// Store is a Postgres-backed credential store.
type Store struct {
	pool    *pgxpool.Pool
	builder sq.StatementBuilderType
}

// NewStore wraps an existing pool. The caller owns the pool's lifecycle.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		pool:    pool,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// FindByID returns the record with the given id.
func (s *Store) FindByID(ctx context.Context, id string) (authgate.UserRecord, error) {
	return s.findOne(ctx, sq.Eq{"id": id})
}

// FindByEmail returns the record with the given email.
func (s *Store) FindByEmail(ctx context.Context, email string) (authgate.UserRecord, error) {
	return s.findOne(ctx, sq.Eq{"email": email})
}

// FindByResetCode returns the record holding a live or expired reset code.
func (s *Store) FindByResetCode(ctx context.Context, code string) (authgate.UserRecord, error) {
	if code == "" {
		return authgate.UserRecord{}, authgate.ErrUserNotFound
	}
	return s.findOne(ctx, sq.Eq{"reset_code": code})
}

// FindByTOTPSecret returns the record enrolled with the given secret.
func (s *Store) FindByTOTPSecret(ctx context.Context, secret string) (authgate.UserRecord, error) {
	if secret == "" {
		return authgate.UserRecord{}, authgate.ErrUserNotFound
	}
	return s.findOne(ctx, sq.Eq{"totp_secret": secret})
}

func (s *Store) findOne(ctx context.Context, pred sq.Sqlizer) (authgate.UserRecord, error) {
	query, args, err := s.builder.
		Select(userColumns...).
		From("users").
		Where(pred).
		Limit(1).
		ToSql()
	if err != nil {
		return authgate.UserRecord{}, err
	}

	var (
		user        authgate.UserRecord
		pictureURI  *string
		totpSecret  *string
		resetCode   *string
		resetExpiry *int64
	)
	err = s.pool.QueryRow(ctx, query, args...).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&pictureURI,
		&user.PasswordHash,
		&totpSecret,
		&user.TOTPEnabled,
		&resetCode,
		&resetExpiry,
		&user.LastAccessAt,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return authgate.UserRecord{}, authgate.ErrUserNotFound
		}
		return authgate.UserRecord{}, fmt.Errorf("query user: %w", err)
	}

	if pictureURI != nil {
		user.PictureURI = *pictureURI
	}
	if totpSecret != nil {
		user.TOTPSecret = *totpSecret
	}
	if resetCode != nil {
		user.ResetCode = *resetCode
	}
	if resetExpiry != nil {
		user.ResetExpiresAt = *resetExpiry
	}
	return user, nil
}

// Create inserts a new record. A duplicate email reports
// [authgate.ErrEmailTaken].
func (s *Store) Create(ctx context.Context, user authgate.UserRecord) error {
	query, args, err := s.builder.
		Insert("users").
		Columns(userColumns...).
		Values(
			user.ID,
			user.Name,
			user.Email,
			nullable(user.PictureURI),
			user.PasswordHash,
			nullable(user.TOTPSecret),
			user.TOTPEnabled,
			nullable(user.ResetCode),
			nullableInt(user.ResetExpiresAt),
			user.LastAccessAt,
			user.CreatedAt,
		).
		ToSql()
	if err != nil {
		return err
	}

	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return authgate.ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// Save replaces every mutable field of the record, last-write-wins.
func (s *Store) Save(ctx context.Context, user authgate.UserRecord) error {
	query, args, err := s.builder.
		Update("users").
		Set("name", user.Name).
		Set("email", user.Email).
		Set("picture_uri", nullable(user.PictureURI)).
		Set("password_hash", user.PasswordHash).
		Set("totp_secret", nullable(user.TOTPSecret)).
		Set("totp_enabled", user.TOTPEnabled).
		Set("reset_code", nullable(user.ResetCode)).
		Set("reset_expires_at", nullableInt(user.ResetExpiresAt)).
		Set("last_access_at", user.LastAccessAt).
		Where(sq.Eq{"id": user.ID}).
		ToSql()
	if err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return authgate.ErrUserNotFound
	}
	return nil
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func nullableInt(v int64) any {
	if v == 0 {
		return nil
	}
	return v
}
