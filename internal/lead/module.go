// Package lead is the lead pipeline module: capture, qualification,
// follow-up scheduling, CSV export, and the pipeline dashboard.
package lead

import (
	"github.com/casbin/casbin/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nursyahid/leadpipe/internal/lead/inbound"
	"github.com/nursyahid/leadpipe/internal/lead/outbound/db"
	"github.com/nursyahid/leadpipe/internal/lead/usecase"
	"github.com/nursyahid/leadpipe/internal/pkg/clock"
	"github.com/nursyahid/leadpipe/internal/pkg/config"
	"github.com/nursyahid/leadpipe/internal/pkg/instrument"
	"github.com/nursyahid/leadpipe/internal/pkg/router"
	"github.com/nursyahid/leadpipe/internal/pkg/storage"
	"github.com/nursyahid/leadpipe/internal/pkg/uid"
	"github.com/nursyahid/leadpipe/internal/pkg/validator"
)

type Dependency struct {
	DBConn     *pgxpool.Pool              `validate:"required"`
	Router     *router.Router             `validate:"required"`
	Storage    storage.Storage            `validate:"required"`
	Enforcer   *casbin.Enforcer           `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	UID        uid.NumberID               `validate:"required"`
	UUID       uid.StringID               `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	repoDB := db.NewDB(dep.DBConn, dep.Instrument)

	uc := usecase.New(usecase.Dependency{
		RepoDB:     repoDB,
		Storage:    dep.Storage,
		Enforcer:   dep.Enforcer,
		Validator:  dep.Validator,
		Config:     dep.Config,
		UID:        dep.UID,
		UUID:       dep.UUID,
		Clock:      dep.Clock,
		Instrument: dep.Instrument,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	return nil
}
