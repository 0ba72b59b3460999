package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/nursyahid/leadpipe/internal/lead/entity"
	"github.com/nursyahid/leadpipe/internal/pkg/goerror"
)

type CreateInput struct {
	FullName       string `validate:"required,min=2,max=150"`
	Email          string `validate:"omitempty,email"`
	Phone          string `validate:"omitempty,min=6,max=32"`
	Company        string `validate:"omitempty,max=150"`
	Source         string `validate:"omitempty,max=100"`
	Notes          string `validate:"omitempty,max=2000"`
	NextFollowUpAt *time.Time
}

type CreateOutput struct {
	ID int64
}

// Create inserts a new lead owned by the caller with status "new".
func (s *Usecase) Create(ctx context.Context, in CreateInput) (*CreateOutput, error) {
	ctx, span := s.startSpan(ctx, "Create")
	defer span.End()

	clm, _, err := s.scope(ctx)
	if err != nil {
		return nil, err
	}

	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	lead := entity.NewLead{
		ID:             s.uid.Generate(),
		OwnerID:        clm.UserID,
		FullName:       in.FullName,
		Email:          in.Email,
		Phone:          in.Phone,
		Company:        in.Company,
		Source:         in.Source,
		Status:         entity.LeadStatusNew,
		Notes:          in.Notes,
		NextFollowUpAt: in.NextFollowUpAt,
	}

	if err := s.repoDB.CreateLead(ctx, lead); err != nil {
		slog.ErrorContext(ctx, "failed to repo create lead", "owner_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &CreateOutput{ID: lead.ID}, nil
}
