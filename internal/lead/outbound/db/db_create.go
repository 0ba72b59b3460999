package db

import (
	"context"

	"github.com/nursyahid/leadpipe/internal/lead/entity"
)

const queryInsertLead = `
insert into leads (id, owner_id, full_name, email, phone, company, source, status, notes, next_follow_up_at)
values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

func (s *DB) CreateLead(ctx context.Context, lead entity.NewLead) (err error) {
	ctx, span := s.startSpan(ctx, "CreateLead")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, queryInsertLead,
		lead.ID, lead.OwnerID, lead.FullName, lead.Email, lead.Phone,
		lead.Company, lead.Source, int16(lead.Status), lead.Notes, lead.NextFollowUpAt,
	)
	err = s.mapError(err)
	return err
}
