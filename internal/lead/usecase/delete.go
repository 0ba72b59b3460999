package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/nursyahid/leadpipe/internal/pkg/goerror"
)

type DeleteInput struct {
	ID int64 `validate:"required,gt=0"`
}

// Delete soft-deletes a lead; the row stays for reporting but drops out
// of every query.
func (s *Usecase) Delete(ctx context.Context, in DeleteInput) error {
	ctx, span := s.startSpan(ctx, "Delete")
	defer span.End()

	_, scopeOwner, err := s.scope(ctx)
	if err != nil {
		return err
	}

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	if err := s.repoDB.SoftDeleteLead(ctx, in.ID, scopeOwner); err != nil {
		if errors.Is(err, goerror.ErrNotFound) {
			return goerror.NewBusiness("Lead not found", goerror.CodeNotFound)
		}
		slog.ErrorContext(ctx, "failed to repo delete lead", "lead_id", in.ID, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}
