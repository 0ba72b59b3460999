package db

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/nursyahid/leadpipe/internal/identity/entity"
)

const queryInsertUser = `
insert into users (id, email, full_name, avatar_url, status, two_factor_enabled)
values ($1, $2, $3, $4, $5, false)`

const queryInsertUserCredential = `
insert into user_credentials (user_id, password)
values ($1, $2)`

// CreateUser inserts the user row and its credential in one transaction.
func (s *DB) CreateUser(ctx context.Context, user entity.NewUser, passwordHash string) (err error) {
	ctx, span := s.startSpan(ctx, "CreateUser")
	defer func() { s.endSpan(span, err) }()

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return s.mapError(err)
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			slog.ErrorContext(ctx, "failed to rollback create user", "error", rbErr)
		}
	}()

	if _, err = tx.Exec(ctx, queryInsertUser,
		user.ID, user.Email, user.FullName, user.AvatarURL, user.Status,
	); err != nil {
		return s.mapError(err)
	}

	if _, err = tx.Exec(ctx, queryInsertUserCredential, user.ID, passwordHash); err != nil {
		return s.mapError(err)
	}

	err = s.mapError(tx.Commit(ctx))
	return err
}

const queryInsertRefreshToken = `
insert into refresh_tokens (id, user_id, token, expires_at, revoked)
values ($1, $2, $3, $4, false)`

func (s *DB) CreateRefreshToken(ctx context.Context, in entity.RefreshToken) (err error) {
	ctx, span := s.startSpan(ctx, "CreateRefreshToken")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, queryInsertRefreshToken, in.ID, in.UserID, in.Token, in.ExpiresAt)
	err = s.mapError(err)
	return err
}
