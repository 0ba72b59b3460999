package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/nursyahid/leadpipe/internal/lead/entity"
	"github.com/nursyahid/leadpipe/internal/pkg/goerror"
)

type UpdateStatusInput struct {
	ID     int64  `validate:"required,gt=0"`
	Status string `validate:"required,oneof=new contacted qualified converted lost"`
}

// UpdateStatus moves a lead along the pipeline. Entering "contacted"
// also stamps last_contacted_at.
func (s *Usecase) UpdateStatus(ctx context.Context, in UpdateStatusInput) error {
	ctx, span := s.startSpan(ctx, "UpdateStatus")
	defer span.End()

	_, scopeOwner, err := s.scope(ctx)
	if err != nil {
		return err
	}

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	status := entity.ParseLeadStatus(in.Status)
	markContacted := status == entity.LeadStatusContacted

	if err := s.repoDB.UpdateLeadStatus(ctx, in.ID, scopeOwner, status, markContacted); err != nil {
		if errors.Is(err, goerror.ErrNotFound) {
			return goerror.NewBusiness("Lead not found", goerror.CodeNotFound)
		}
		slog.ErrorContext(ctx, "failed to repo update lead status", "lead_id", in.ID, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}
