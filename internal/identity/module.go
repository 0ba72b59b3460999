package identity

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nursyahid/leadpipe/internal/identity/inbound"
	"github.com/nursyahid/leadpipe/internal/identity/outbound/cache"
	"github.com/nursyahid/leadpipe/internal/identity/outbound/db"
	"github.com/nursyahid/leadpipe/internal/identity/outbound/mq"
	"github.com/nursyahid/leadpipe/internal/identity/usecase"
	"github.com/nursyahid/leadpipe/internal/pkg/clock"
	"github.com/nursyahid/leadpipe/internal/pkg/config"
	"github.com/nursyahid/leadpipe/internal/pkg/goroutine"
	"github.com/nursyahid/leadpipe/internal/pkg/hash"
	"github.com/nursyahid/leadpipe/internal/pkg/instrument"
	"github.com/nursyahid/leadpipe/internal/pkg/jwt"
	"github.com/nursyahid/leadpipe/internal/pkg/messaging"
	"github.com/nursyahid/leadpipe/internal/pkg/otp"
	"github.com/nursyahid/leadpipe/internal/pkg/router"
	"github.com/nursyahid/leadpipe/internal/pkg/storage"
	"github.com/nursyahid/leadpipe/internal/pkg/uid"
	"github.com/nursyahid/leadpipe/internal/pkg/validator"
	"github.com/redis/go-redis/v9"
)

type Dependency struct {
	DBConn     *pgxpool.Pool              `validate:"required"`
	CacheConn  *redis.Client              `validate:"required"`
	Goroutine  *goroutine.Manager         `validate:"required"`
	Router     *router.Router             `validate:"required"`
	Messaging  messaging.Messaging        `validate:"required"`
	Storage    storage.Storage            `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	UID        uid.NumberID               `validate:"required"`
	UUID       uid.StringID               `validate:"required"`
	OID        uid.StringID               `validate:"required"`
	HMAC       hash.Hash                  `validate:"required"`
	Password   hash.Hash                  `validate:"required"`
	CodeGen    otp.CodeGenerator          `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
	JWT        jwt.JWT                    `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	repoDB := db.NewDB(dep.DBConn, dep.Instrument)
	otpStore := cache.NewOtpStore(dep.CacheConn, dep.Instrument)
	repoMsg := mq.NewMessaging(dep.Messaging, dep.Instrument)

	uc := usecase.New(usecase.Dependency{
		RepoDB:        repoDB,
		OtpStore:      otpStore,
		RepoMessaging: repoMsg,
		Validator:     dep.Validator,
		Config:        dep.Config,
		Storage:       dep.Storage,
		HMAC:          dep.HMAC,
		Password:      dep.Password,
		UID:           dep.UID,
		UUID:          dep.UUID,
		OID:           dep.OID,
		CodeGen:       dep.CodeGen,
		Clock:         dep.Clock,
		JWT:           dep.JWT,
		Instrument:    dep.Instrument,
		Goroutine:     dep.Goroutine,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	return nil
}
