package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/nursyahid/leadpipe/internal/lead/entity"
	"github.com/nursyahid/leadpipe/internal/pkg/goerror"
)

type DetailInput struct {
	ID int64 `validate:"required,gt=0"`
}

type DetailOutput struct {
	Lead entity.Lead
}

// Detail returns one lead. Agents only see leads they own; a foreign id
// reads as not found so existence is not leaked across owners.
func (s *Usecase) Detail(ctx context.Context, in DetailInput) (*DetailOutput, error) {
	ctx, span := s.startSpan(ctx, "Detail")
	defer span.End()

	_, scopeOwner, err := s.scope(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	lead, err := s.repoDB.GetLeadByID(ctx, in.ID, scopeOwner)
	if err != nil {
		if errors.Is(err, goerror.ErrNotFound) {
			return nil, goerror.NewBusiness("Lead not found", goerror.CodeNotFound)
		}
		slog.ErrorContext(ctx, "failed to repo get lead", "lead_id", in.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &DetailOutput{Lead: *lead}, nil
}
