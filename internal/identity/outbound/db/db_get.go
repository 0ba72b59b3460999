package db

import (
	"context"

	"github.com/nursyahid/leadpipe/internal/identity/entity"
)

const queryGetUserByEmail = `
select id, email, full_name, avatar_url, status, two_factor_enabled, updated_at, deleted_at
from users
where email = $1 and deleted_at is null`

func (s *DB) GetUserByEmail(ctx context.Context, email string) (_ *entity.User, err error) {
	ctx, span := s.startSpan(ctx, "GetUserByEmail")
	defer func() { s.endSpan(span, err) }()

	var u entity.User
	err = s.mapError(s.conn.QueryRow(ctx, queryGetUserByEmail, email).Scan(
		&u.ID, &u.Email, &u.FullName, &u.AvatarURL, &u.Status, &u.TwoFactorEnabled, &u.UpdatedAt, &u.DeletedAt,
	))
	if err != nil {
		return nil, err
	}
	return &u, nil
}

const queryGetUserByID = `
select id, email, full_name, avatar_url, status, two_factor_enabled, updated_at, deleted_at
from users
where id = $1 and deleted_at is null`

func (s *DB) GetUserByID(ctx context.Context, id int64) (_ *entity.User, err error) {
	ctx, span := s.startSpan(ctx, "GetUserByID")
	defer func() { s.endSpan(span, err) }()

	var u entity.User
	err = s.mapError(s.conn.QueryRow(ctx, queryGetUserByID, id).Scan(
		&u.ID, &u.Email, &u.FullName, &u.AvatarURL, &u.Status, &u.TwoFactorEnabled, &u.UpdatedAt, &u.DeletedAt,
	))
	if err != nil {
		return nil, err
	}
	return &u, nil
}

const queryGetUserLoginInfo = `
select u.id, u.email, u.status, u.two_factor_enabled, c.password
from users u
join user_credentials c on c.user_id = u.id
where u.email = $1 and u.deleted_at is null`

func (s *DB) GetUserLoginInfo(ctx context.Context, email string) (_ *entity.UserLoginInfo, err error) {
	ctx, span := s.startSpan(ctx, "GetUserLoginInfo")
	defer func() { s.endSpan(span, err) }()

	var info entity.UserLoginInfo
	err = s.mapError(s.conn.QueryRow(ctx, queryGetUserLoginInfo, email).Scan(
		&info.ID, &info.Email, &info.Status, &info.TwoFactorEnabled, &info.Password,
	))
	if err != nil {
		return nil, err
	}
	return &info, nil
}

const queryGetUserRefreshToken = `
select u.id, u.email, u.status, r.id, r.revoked, r.expires_at
from refresh_tokens r
join users u on u.id = r.user_id
where r.token = $1 and u.deleted_at is null`

func (s *DB) GetUserRefreshToken(ctx context.Context, tokenHash string) (_ *entity.UserRefreshToken, err error) {
	ctx, span := s.startSpan(ctx, "GetUserRefreshToken")
	defer func() { s.endSpan(span, err) }()

	var rt entity.UserRefreshToken
	err = s.mapError(s.conn.QueryRow(ctx, queryGetUserRefreshToken, tokenHash).Scan(
		&rt.UserID, &rt.UserEmail, &rt.UserStatus, &rt.RefreshID, &rt.RefreshRevoked, &rt.RefreshExpiresAt,
	))
	if err != nil {
		return nil, err
	}
	return &rt, nil
}
