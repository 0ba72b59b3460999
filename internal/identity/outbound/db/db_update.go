package db

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/nursyahid/leadpipe/internal/identity/entity"
	"github.com/nursyahid/leadpipe/internal/pkg/goerror"
)

const queryUpdateUserProfile = `
update users set full_name = $2, updated_at = now()
where id = $1 and deleted_at is null`

func (s *DB) UpdateUserProfile(ctx context.Context, id int64, fullName string) (err error) {
	ctx, span := s.startSpan(ctx, "UpdateUserProfile")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, queryUpdateUserProfile, id, fullName)
	if err != nil {
		err = s.mapError(err)
		return err
	}
	if tag.RowsAffected() == 0 {
		err = goerror.ErrNotFound
		return err
	}
	return nil
}

const queryUpdateUserAvatar = `
update users set avatar_url = $2, updated_at = now()
where id = $1 and deleted_at is null`

func (s *DB) UpdateUserAvatar(ctx context.Context, id int64, avatarURL string) (err error) {
	ctx, span := s.startSpan(ctx, "UpdateUserAvatar")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, queryUpdateUserAvatar, id, avatarURL)
	if err != nil {
		err = s.mapError(err)
		return err
	}
	if tag.RowsAffected() == 0 {
		err = goerror.ErrNotFound
		return err
	}
	return nil
}

const queryUpdateUserTwoFactor = `
update users set two_factor_enabled = $2, updated_at = now()
where id = $1 and deleted_at is null`

func (s *DB) UpdateUserTwoFactor(ctx context.Context, id int64, enabled bool) (err error) {
	ctx, span := s.startSpan(ctx, "UpdateUserTwoFactor")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, queryUpdateUserTwoFactor, id, enabled)
	if err != nil {
		err = s.mapError(err)
		return err
	}
	if tag.RowsAffected() == 0 {
		err = goerror.ErrNotFound
		return err
	}
	return nil
}

const queryRevokeRefreshToken = `
update refresh_tokens set revoked = true
where token = $1 and revoked = false`

func (s *DB) RevokeRefreshToken(ctx context.Context, tokenHash string) (err error) {
	ctx, span := s.startSpan(ctx, "RevokeRefreshToken")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, queryRevokeRefreshToken, tokenHash)
	if err != nil {
		err = s.mapError(err)
		return err
	}
	if tag.RowsAffected() == 0 {
		err = goerror.ErrNotFound
		return err
	}
	return nil
}

const queryRevokeRefreshTokenByID = `
update refresh_tokens set revoked = true
where id = $1 and user_id = $2 and revoked = false`

// RotateRefreshToken revokes the old token and inserts its replacement
// atomically, so a token can only ever be rotated once.
func (s *DB) RotateRefreshToken(ctx context.Context, ro entity.RotateRefreshToken) (err error) {
	ctx, span := s.startSpan(ctx, "RotateRefreshToken")
	defer func() { s.endSpan(span, err) }()

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return s.mapError(err)
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			slog.ErrorContext(ctx, "failed to rollback rotate refresh token", "error", rbErr)
		}
	}()

	tag, err := tx.Exec(ctx, queryRevokeRefreshTokenByID, ro.OldID, ro.UserID)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		err = goerror.ErrNotFound
		return err
	}

	if _, err = tx.Exec(ctx, queryInsertRefreshToken, ro.NewID, ro.UserID, ro.NewToken, ro.NewExpiresAt); err != nil {
		return s.mapError(err)
	}

	err = s.mapError(tx.Commit(ctx))
	return err
}
