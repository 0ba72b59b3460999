package db

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/nursyahid/leadpipe/internal/lead/entity"
)

var queryGetLeadByID = `
select ` + leadColumns + `
from leads
where id = $1 and deleted_at is null`

// GetLeadByID reads one lead. A non-zero ownerID scopes the lookup so a
// foreign lead reads as absent.
func (s *DB) GetLeadByID(ctx context.Context, id, ownerID int64) (_ *entity.Lead, err error) {
	ctx, span := s.startSpan(ctx, "GetLeadByID")
	defer func() { s.endSpan(span, err) }()

	query := queryGetLeadByID
	args := []any{id}
	if ownerID != 0 {
		query += " and owner_id = $2"
		args = append(args, ownerID)
	}

	lead, err := scanLead(s.conn.QueryRow(ctx, query, args...))
	if err != nil {
		err = s.mapError(err)
		return nil, err
	}

	return &lead, nil
}

// leadOrderColumns whitelists sortable columns; anything else falls back
// to created_at.
var leadOrderColumns = map[string]struct{}{
	"created_at":        {},
	"updated_at":        {},
	"full_name":         {},
	"company":           {},
	"status":            {},
	"next_follow_up_at": {},
}

// leadWhere renders the filter into a where clause plus its positional
// arguments.
func leadWhere(filter entity.LeadFilter) (string, []any) {
	conds := []string{"deleted_at is null"}
	args := []any{}

	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if filter.OwnerID != 0 {
		conds = append(conds, "owner_id = "+arg(filter.OwnerID))
	}
	if filter.IsFilterBySearch {
		p := arg("%" + filter.Search + "%")
		conds = append(conds, fmt.Sprintf(
			"(full_name ilike %[1]s or email ilike %[1]s or phone ilike %[1]s or company ilike %[1]s)", p,
		))
	}
	if filter.IsFilterByStatus {
		conds = append(conds, "status = any("+arg(filter.Statuses)+")")
	}
	if !filter.FollowUpFrom.IsZero() {
		conds = append(conds, "next_follow_up_at >= "+arg(filter.FollowUpFrom))
	}
	if !filter.FollowUpTo.IsZero() {
		conds = append(conds, "next_follow_up_at <= "+arg(filter.FollowUpTo))
	}

	return strings.Join(conds, " and "), args
}

func leadOrder(filter entity.LeadFilter) string {
	column := filter.OrderBy
	if _, ok := leadOrderColumns[column]; !ok {
		column = "created_at"
	}
	direction := "desc"
	if filter.OrderDirection == "asc" {
		direction = "asc"
	}
	return column + " " + direction
}

// GetLeadList returns one page of filtered leads plus the total count of
// rows matching the filter.
func (s *DB) GetLeadList(ctx context.Context, filter entity.LeadFilter) (_ []entity.Lead, _ int64, err error) {
	ctx, span := s.startSpan(ctx, "GetLeadList")
	defer func() { s.endSpan(span, err) }()

	where, args := leadWhere(filter)

	query := fmt.Sprintf(
		"select %s from leads where %s order by %s limit $%d offset $%d",
		leadColumns, where, leadOrder(filter), len(args)+1, len(args)+2,
	)
	rows, err := s.conn.Query(ctx, query, append(args, filter.Size, filter.Offset)...)
	if err != nil {
		err = s.mapError(err)
		return nil, 0, err
	}
	defer rows.Close()

	leads := make([]entity.Lead, 0, filter.Size)
	for rows.Next() {
		lead, scanErr := scanLead(rows)
		if scanErr != nil {
			err = s.mapError(scanErr)
			return nil, 0, err
		}
		leads = append(leads, lead)
	}
	if err = rows.Err(); err != nil {
		err = s.mapError(err)
		return nil, 0, err
	}

	var count int64
	countWhere, countArgs := leadWhere(filter)
	if err = s.conn.QueryRow(ctx, "select count(*) from leads where "+countWhere, countArgs...).Scan(&count); err != nil {
		err = s.mapError(err)
		return nil, 0, err
	}

	return leads, count, nil
}

const queryLeadStatusCounts = `
select status, count(*)
from leads
where deleted_at is null
group by status`

func (s *DB) GetLeadStatusCounts(ctx context.Context, ownerID int64) (_ []entity.StatusCount, err error) {
	ctx, span := s.startSpan(ctx, "GetLeadStatusCounts")
	defer func() { s.endSpan(span, err) }()

	query := queryLeadStatusCounts
	args := []any{}
	if ownerID != 0 {
		query = strings.Replace(query, "deleted_at is null", "deleted_at is null and owner_id = $1", 1)
		args = append(args, ownerID)
	}

	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		err = s.mapError(err)
		return nil, err
	}
	defer rows.Close()

	counts := make([]entity.StatusCount, 0)
	for rows.Next() {
		var (
			status int16
			count  int64
		)
		if err = rows.Scan(&status, &count); err != nil {
			err = s.mapError(err)
			return nil, err
		}
		counts = append(counts, entity.StatusCount{Status: entity.LeadStatus(status), Count: count})
	}
	if err = rows.Err(); err != nil {
		err = s.mapError(err)
		return nil, err
	}

	return counts, nil
}

// GetLeadsDueFollowUp lists leads whose next follow-up falls inside the
// filter's date range, soonest first, still-open statuses only.
func (s *DB) GetLeadsDueFollowUp(ctx context.Context, filter entity.LeadFilter) (_ []entity.Lead, err error) {
	ctx, span := s.startSpan(ctx, "GetLeadsDueFollowUp")
	defer func() { s.endSpan(span, err) }()

	where, args := leadWhere(filter)
	where += fmt.Sprintf(" and status not in ($%d, $%d)", len(args)+1, len(args)+2)
	args = append(args, int16(entity.LeadStatusConverted), int16(entity.LeadStatusLost))

	query := fmt.Sprintf(
		"select %s from leads where %s order by next_follow_up_at asc limit $%d",
		leadColumns, where, len(args)+1,
	)
	rows, err := s.conn.Query(ctx, query, append(args, filter.Size)...)
	if err != nil {
		err = s.mapError(err)
		return nil, err
	}
	defer rows.Close()

	leads := make([]entity.Lead, 0, filter.Size)
	for rows.Next() {
		lead, scanErr := scanLead(rows)
		if scanErr != nil {
			err = s.mapError(scanErr)
			return nil, err
		}
		leads = append(leads, lead)
	}
	if err = rows.Err(); err != nil {
		err = s.mapError(err)
		return nil, err
	}

	return leads, nil
}
