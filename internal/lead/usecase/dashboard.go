package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/nursyahid/leadpipe/internal/lead/entity"
	"github.com/nursyahid/leadpipe/internal/pkg/goerror"
	"github.com/samber/lo"
)

const dashboardFollowUpWindow = 7 * 24 * time.Hour

const dashboardFollowUpLimit int32 = 20

type DashboardOutput struct {
	StatusCounts map[string]int64
	Total        int64
	DueFollowUps []entity.Lead
}

// Dashboard aggregates the caller's pipeline: lead counts per status and
// the follow-ups falling due within the next seven days.
func (s *Usecase) Dashboard(ctx context.Context) (*DashboardOutput, error) {
	ctx, span := s.startSpan(ctx, "Dashboard")
	defer span.End()

	_, scopeOwner, err := s.scope(ctx)
	if err != nil {
		return nil, err
	}

	counts, err := s.repoDB.GetLeadStatusCounts(ctx, scopeOwner)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo count leads by status", "error", err)
		return nil, goerror.NewServer(err)
	}

	now := s.clock.Now()
	due, err := s.repoDB.GetLeadsDueFollowUp(ctx, entity.LeadFilter{
		OwnerID:        scopeOwner,
		FollowUpFrom:   now,
		FollowUpTo:     now.Add(dashboardFollowUpWindow),
		OrderBy:        "next_follow_up_at",
		OrderDirection: "asc",
		Size:           dashboardFollowUpLimit,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo list due follow-ups", "error", err)
		return nil, goerror.NewServer(err)
	}

	statusCounts := lo.SliceToMap(counts, func(sc entity.StatusCount) (string, int64) {
		return sc.Status.String(), sc.Count
	})

	// every status shows up, even when the pipeline has no lead in it
	for status := entity.LeadStatusNew; status <= entity.LeadStatusLost; status++ {
		if _, ok := statusCounts[status.String()]; !ok {
			statusCounts[status.String()] = 0
		}
	}

	return &DashboardOutput{
		StatusCounts: statusCounts,
		Total:        lo.SumBy(counts, func(sc entity.StatusCount) int64 { return sc.Count }),
		DueFollowUps: due,
	}, nil
}
