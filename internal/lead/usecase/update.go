package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/nursyahid/leadpipe/internal/lead/entity"
	"github.com/nursyahid/leadpipe/internal/pkg/goerror"
)

type UpdateInput struct {
	ID             int64  `validate:"required,gt=0"`
	FullName       string `validate:"required,min=2,max=150"`
	Email          string `validate:"omitempty,email"`
	Phone          string `validate:"omitempty,min=6,max=32"`
	Company        string `validate:"omitempty,max=150"`
	Source         string `validate:"omitempty,max=100"`
	Notes          string `validate:"omitempty,max=2000"`
	NextFollowUpAt *time.Time
}

// Update replaces the mutable fields of a lead; status changes go
// through UpdateStatus.
func (s *Usecase) Update(ctx context.Context, in UpdateInput) error {
	ctx, span := s.startSpan(ctx, "Update")
	defer span.End()

	_, scopeOwner, err := s.scope(ctx)
	if err != nil {
		return err
	}

	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	up := entity.UpdateLead{
		ID:             in.ID,
		OwnerID:        scopeOwner,
		FullName:       in.FullName,
		Email:          in.Email,
		Phone:          in.Phone,
		Company:        in.Company,
		Source:         in.Source,
		Notes:          in.Notes,
		NextFollowUpAt: in.NextFollowUpAt,
	}

	if err := s.repoDB.UpdateLead(ctx, up); err != nil {
		if errors.Is(err, goerror.ErrNotFound) {
			return goerror.NewBusiness("Lead not found", goerror.CodeNotFound)
		}
		slog.ErrorContext(ctx, "failed to repo update lead", "lead_id", in.ID, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}
