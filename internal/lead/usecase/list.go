package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/nursyahid/leadpipe/internal/lead/entity"
	"github.com/nursyahid/leadpipe/internal/pkg/goerror"
	"github.com/samber/lo"
)

type ListInput struct {
	Search       string // value already trimmed
	Statuses     []string
	OwnerID      int64 // only honored for manage_all subjects
	FollowUpFrom time.Time
	FollowUpTo   time.Time
	Size         int32
	Page         int32
	SortBy       string // value already trimmed
	SortOrder    string // value is: `asc` or `desc`; already trimmed and lowered
}

type ListOutput struct {
	Page  int32
	Size  int32
	Total int64
	Leads []entity.Lead
}

// leadFilter normalizes the caller's filters into the query shape shared
// by List and Export. scopeOwner wins over the requested owner filter.
func leadFilter(in ListInput, scopeOwner int64) entity.LeadFilter {
	statuses := lo.FilterMap(in.Statuses, func(s string, _ int) (int16, bool) {
		parsed := entity.ParseLeadStatus(s)
		return int16(parsed), parsed != entity.LeadStatusUnknown
	})

	ownerID := in.OwnerID
	if scopeOwner != 0 {
		ownerID = scopeOwner
	}

	filter := entity.LeadFilter{
		Search:           in.Search,
		Statuses:         statuses,
		OwnerID:          ownerID,
		FollowUpFrom:     in.FollowUpFrom,
		FollowUpTo:       in.FollowUpTo,
		OrderBy:          in.SortBy,
		OrderDirection:   in.SortOrder,
		Size:             in.Size,
		Offset:           (max(in.Page, 1) - 1) * in.Size,
		IsFilterBySearch: in.Search != "",
		IsFilterByStatus: len(statuses) > 0,
	}

	return filter
}

func (s *Usecase) List(ctx context.Context, in ListInput) (*ListOutput, error) {
	ctx, span := s.startSpan(ctx, "List")
	defer span.End()

	_, scopeOwner, err := s.scope(ctx)
	if err != nil {
		return nil, err
	}

	if in.Size <= 0 || in.Size > 100 {
		in.Size = 10 // default limit
	}

	leads, count, err := s.repoDB.GetLeadList(ctx, leadFilter(in, scopeOwner))
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list leads", "error", err)
		return nil, goerror.NewServer(err)
	}

	return &ListOutput{
		Page:  max(in.Page, 1),
		Size:  in.Size,
		Total: count,
		Leads: leads,
	}, nil
}
