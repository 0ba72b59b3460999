package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/nursyahid/leadpipe/internal/pkg/goerror"
	"github.com/nursyahid/leadpipe/internal/pkg/jwt"
)

type ProfileOutput struct {
	ID               int64
	Email            string
	FullName         string
	AvatarURL        string
	Status           string
	TwoFactorEnabled bool
}

func (s *Usecase) Profile(ctx context.Context) (*ProfileOutput, error) {
	ctx, span := s.startSpan(ctx, "Profile")
	defer span.End()

	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return nil, goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}

	user, err := s.repoDB.GetUserByID(ctx, clm.UserID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "user account not found", "user_id", clm.UserID)
		return nil, goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user by id", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &ProfileOutput{
		ID:               user.ID,
		Email:            user.Email,
		FullName:         user.FullName,
		AvatarURL:        user.AvatarURL,
		Status:           user.Status.String(),
		TwoFactorEnabled: user.TwoFactorEnabled,
	}, nil
}
