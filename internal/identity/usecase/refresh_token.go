package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/nursyahid/leadpipe/internal/identity/entity"
	"github.com/nursyahid/leadpipe/internal/pkg/goerror"
)

type RefreshTokenInput struct {
	RefreshToken string `validate:"required"`
}

type RefreshTokenOutput struct {
	AccessToken  string
	RefreshToken string
}

// errStaleRefreshToken is the single answer for every way a refresh
// token can be unusable, so callers cannot probe which one it was.
func errStaleRefreshToken() error {
	return goerror.NewBusiness("invalid or expired refresh token", goerror.CodeUnauthorized)
}

func (s *Usecase) RefreshToken(ctx context.Context, in RefreshTokenInput) (*RefreshTokenOutput, error) {
	ctx, span := s.startSpan(ctx, "RefreshToken")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	rt, err := s.lookupRefreshToken(ctx, in.RefreshToken)
	if err != nil {
		return nil, err
	}

	if err := s.ensureUserStatusAllowed(ctx, rt.UserID, rt.UserStatus); err != nil {
		return nil, err
	}

	newToken := s.oid.Generate()
	newTokenHash, err := s.hmac.Hash(newToken)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash new refresh token", "error", err)
		return nil, goerror.NewServer(err)
	}

	accessToken, err := s.jwt.Generate(rt.UserID, rt.UserEmail)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate access jwt token", "user_id", rt.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	err = s.repoDB.RotateRefreshToken(ctx, entity.RotateRefreshToken{
		NewID:        s.uid.Generate(),
		OldID:        rt.RefreshID,
		UserID:       rt.UserID,
		NewToken:     string(newTokenHash),
		NewExpiresAt: s.clock.Now().Add(s.refreshTokenTTL()),
	})
	if errors.Is(err, goerror.ErrNotFound) {
		// A concurrent refresh won the rotation race.
		slog.WarnContext(ctx, "refresh token already rotated or revoked", "refresh_token_id", rt.RefreshID)
		return nil, errStaleRefreshToken()
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo rotate refresh token", "error", err)
		return nil, goerror.NewServer(err)
	}

	return &RefreshTokenOutput{
		AccessToken:  accessToken,
		RefreshToken: newToken,
	}, nil
}

// lookupRefreshToken resolves the presented token to a live, unrevoked,
// unexpired row.
func (s *Usecase) lookupRefreshToken(ctx context.Context, token string) (*entity.UserRefreshToken, error) {
	tokenHash, err := s.hmac.Hash(token)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash refresh token", "error", err)
		return nil, goerror.NewServer(err)
	}

	rt, err := s.repoDB.GetUserRefreshToken(ctx, string(tokenHash))
	switch {
	case errors.Is(err, goerror.ErrNotFound):
		slog.WarnContext(ctx, "user refresh token not found")
		return nil, errStaleRefreshToken()
	case err != nil:
		slog.ErrorContext(ctx, "failed to repo get user refresh token", "error", err)
		return nil, goerror.NewServer(err)
	case rt.RefreshRevoked:
		slog.WarnContext(ctx, "refresh token is revoked", "refresh_token_id", rt.RefreshID)
		return nil, errStaleRefreshToken()
	case s.clock.Now().After(rt.RefreshExpiresAt):
		slog.WarnContext(ctx, "refresh token is expired", "refresh_token_id", rt.RefreshID)
		return nil, errStaleRefreshToken()
	}

	return rt, nil
}

func (s *Usecase) refreshTokenTTL() time.Duration {
	return s.cfg.GetDay("modules.identity.refresh_token_ttl_days")
}
