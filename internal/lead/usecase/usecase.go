// Package usecase implements the lead pipeline business logic.
package usecase

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/casbin/casbin/v3"
	"github.com/nursyahid/leadpipe/internal/lead/entity"
	"github.com/nursyahid/leadpipe/internal/pkg/clock"
	"github.com/nursyahid/leadpipe/internal/pkg/config"
	"github.com/nursyahid/leadpipe/internal/pkg/goerror"
	"github.com/nursyahid/leadpipe/internal/pkg/instrument"
	"github.com/nursyahid/leadpipe/internal/pkg/jwt"
	"github.com/nursyahid/leadpipe/internal/pkg/storage"
	"github.com/nursyahid/leadpipe/internal/pkg/uid"
	"github.com/nursyahid/leadpipe/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

// PermLeads is the casbin object guarding the lead endpoints.
const PermLeads = "leads"

// PermActManageAll marks subjects that may read and write every lead,
// not just their own. Agents do not carry it.
const PermActManageAll = "manage_all"

type repoDB interface {
	GetLeadByID(ctx context.Context, id, ownerID int64) (*entity.Lead, error)
	GetLeadList(ctx context.Context, filter entity.LeadFilter) ([]entity.Lead, int64, error)
	GetLeadStatusCounts(ctx context.Context, ownerID int64) ([]entity.StatusCount, error)
	GetLeadsDueFollowUp(ctx context.Context, filter entity.LeadFilter) ([]entity.Lead, error)

	CreateLead(ctx context.Context, lead entity.NewLead) error

	UpdateLead(ctx context.Context, up entity.UpdateLead) error
	UpdateLeadStatus(ctx context.Context, id, ownerID int64, status entity.LeadStatus, markContacted bool) error
	SoftDeleteLead(ctx context.Context, id, ownerID int64) error
}

type Usecase struct {
	repoDB    repoDB
	storage   storage.Storage
	enforcer  *casbin.Enforcer
	validator validator.Validator
	cfg       config.Config
	uid       uid.NumberID
	uuid      uid.StringID
	clock     clock.Clocker
	ins       instrument.Instrumentation
}

type Dependency struct {
	RepoDB     repoDB
	Storage    storage.Storage
	Enforcer   *casbin.Enforcer
	Validator  validator.Validator
	Config     config.Config
	UID        uid.NumberID
	UUID       uid.StringID
	Clock      clock.Clocker
	Instrument instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:    dep.RepoDB,
		storage:   dep.Storage,
		enforcer:  dep.Enforcer,
		validator: dep.Validator,
		cfg:       dep.Config,
		uid:       dep.UID,
		uuid:      dep.UUID,
		clock:     dep.Clock,
		ins:       dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("lead.usecase").Start(ctx, name)
}

// scope resolves the caller and the owner filter applied to every query:
// zero for subjects holding manage_all, the caller's own id otherwise.
func (s *Usecase) scope(ctx context.Context) (*jwt.Claims, int64, error) {
	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return nil, 0, goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}

	if s.enforcer == nil {
		return clm, clm.UserID, nil
	}

	allowed, err := s.enforcer.Enforce(strconv.FormatInt(clm.UserID, 10), PermLeads, PermActManageAll)
	if err != nil {
		slog.ErrorContext(ctx, "failed to enforce lead scope", "user_id", clm.UserID, "error", err)
		return nil, 0, goerror.NewServer(err)
	}
	if allowed {
		return clm, 0, nil
	}
	return clm, clm.UserID, nil
}
