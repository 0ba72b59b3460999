package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/nursyahid/leadpipe/internal/pkg/goerror"
)

type LogoutInput struct {
	RefreshToken string `validate:"required"`
}

func (s *Usecase) Logout(ctx context.Context, in LogoutInput) error {
	ctx, span := s.startSpan(ctx, "Logout")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	tokenHash, err := s.hmac.Hash(in.RefreshToken)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash refresh token", "error", err)
		return goerror.NewServer(err)
	}

	err = s.repoDB.RevokeRefreshToken(ctx, string(tokenHash))
	if errors.Is(err, goerror.ErrNotFound) {
		// revoking an unknown token is a no-op, logout stays idempotent
		return nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo revoke refresh token", "error", err)
		return goerror.NewServer(err)
	}

	return nil
}
