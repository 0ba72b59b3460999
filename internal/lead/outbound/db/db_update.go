package db

import (
	"context"

	"github.com/nursyahid/leadpipe/internal/lead/entity"
	"github.com/nursyahid/leadpipe/internal/pkg/goerror"
)

const queryUpdateLead = `
update leads set
	full_name = $2, email = $3, phone = $4, company = $5, source = $6,
	notes = $7, next_follow_up_at = $8, updated_at = now()
where id = $1 and deleted_at is null`

// UpdateLead replaces the mutable fields; a non-zero OwnerID scopes the
// update to that owner's rows.
func (s *DB) UpdateLead(ctx context.Context, up entity.UpdateLead) (err error) {
	ctx, span := s.startSpan(ctx, "UpdateLead")
	defer func() { s.endSpan(span, err) }()

	query := queryUpdateLead
	args := []any{up.ID, up.FullName, up.Email, up.Phone, up.Company, up.Source, up.Notes, up.NextFollowUpAt}
	if up.OwnerID != 0 {
		query += " and owner_id = $9"
		args = append(args, up.OwnerID)
	}

	tag, err := s.conn.Exec(ctx, query, args...)
	if err != nil {
		err = s.mapError(err)
		return err
	}
	if tag.RowsAffected() == 0 {
		err = goerror.ErrNotFound
		return err
	}
	return nil
}

const queryUpdateLeadStatus = `
update leads set
	status = $2,
	last_contacted_at = case when $3 then now() else last_contacted_at end,
	updated_at = now()
where id = $1 and deleted_at is null`

func (s *DB) UpdateLeadStatus(ctx context.Context, id, ownerID int64, status entity.LeadStatus, markContacted bool) (err error) {
	ctx, span := s.startSpan(ctx, "UpdateLeadStatus")
	defer func() { s.endSpan(span, err) }()

	query := queryUpdateLeadStatus
	args := []any{id, int16(status), markContacted}
	if ownerID != 0 {
		query += " and owner_id = $4"
		args = append(args, ownerID)
	}

	tag, err := s.conn.Exec(ctx, query, args...)
	if err != nil {
		err = s.mapError(err)
		return err
	}
	if tag.RowsAffected() == 0 {
		err = goerror.ErrNotFound
		return err
	}
	return nil
}

const querySoftDeleteLead = `
update leads set deleted_at = now(), updated_at = now()
where id = $1 and deleted_at is null`

func (s *DB) SoftDeleteLead(ctx context.Context, id, ownerID int64) (err error) {
	ctx, span := s.startSpan(ctx, "SoftDeleteLead")
	defer func() { s.endSpan(span, err) }()

	query := querySoftDeleteLead
	args := []any{id}
	if ownerID != 0 {
		query += " and owner_id = $2"
		args = append(args, ownerID)
	}

	tag, err := s.conn.Exec(ctx, query, args...)
	if err != nil {
		err = s.mapError(err)
		return err
	}
	if tag.RowsAffected() == 0 {
		err = goerror.ErrNotFound
		return err
	}
	return nil
}
