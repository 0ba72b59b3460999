// Package db is the Postgres outbound adapter for the lead module.
package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nursyahid/leadpipe/internal/lead/entity"
	"github.com/nursyahid/leadpipe/internal/pkg/goerror"
	"github.com/nursyahid/leadpipe/internal/pkg/instrument"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type DB struct {
	conn *pgxpool.Pool
	ins  instrument.Instrumentation
}

func NewDB(conn *pgxpool.Pool, ins instrument.Instrumentation) *DB {
	return &DB{conn: conn, ins: ins}
}

func (s *DB) mapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return goerror.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return goerror.ErrConflict
	}

	return err
}

func (s *DB) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("lead.outbound.db").Start(ctx, name)
}

func (s *DB) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) && !errors.Is(err, goerror.ErrConflict) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

const leadColumns = `id, owner_id, full_name, email, phone, company, source, status,
notes, next_follow_up_at, last_contacted_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLead(row rowScanner) (entity.Lead, error) {
	var (
		lead            entity.Lead
		status          int16
		nextFollowUpAt  pgtype.Timestamptz
		lastContactedAt pgtype.Timestamptz
	)

	err := row.Scan(
		&lead.ID, &lead.OwnerID, &lead.FullName, &lead.Email, &lead.Phone,
		&lead.Company, &lead.Source, &status, &lead.Notes,
		&nextFollowUpAt, &lastContactedAt, &lead.CreatedAt, &lead.UpdatedAt,
	)
	if err != nil {
		return entity.Lead{}, err
	}

	lead.Status = entity.LeadStatus(status)
	if nextFollowUpAt.Valid {
		lead.NextFollowUpAt = &nextFollowUpAt.Time
	}
	if lastContactedAt.Valid {
		lead.LastContactedAt = &lastContactedAt.Time
	}

	return lead, nil
}
