package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/nursyahid/leadpipe/internal/pkg/goerror"
	"github.com/nursyahid/leadpipe/internal/pkg/jwt"
)

type ProfileUpdateInput struct {
	FullName string `validate:"required,min=3,max=100,alphaspace"`
}

func (s *Usecase) ProfileUpdate(ctx context.Context, in ProfileUpdateInput) error {
	ctx, span := s.startSpan(ctx, "ProfileUpdate")
	defer span.End()

	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}

	in.FullName = strings.TrimSpace(in.FullName)
	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	if err := s.repoDB.UpdateUserProfile(ctx, clm.UserID, in.FullName); err != nil {
		slog.ErrorContext(ctx, "failed to repo update user profile", "user_id", clm.UserID, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}
