// Package app wires configuration, resources, and modules into a
// runnable service.
package app

import (
	"context"
	"net/http"

	"github.com/casbin/casbin/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nursyahid/leadpipe/internal/pkg/clock"
	"github.com/nursyahid/leadpipe/internal/pkg/config"
	"github.com/nursyahid/leadpipe/internal/pkg/goroutine"
	"github.com/nursyahid/leadpipe/internal/pkg/hash"
	"github.com/nursyahid/leadpipe/internal/pkg/idempotency"
	"github.com/nursyahid/leadpipe/internal/pkg/instrument"
	"github.com/nursyahid/leadpipe/internal/pkg/jwt"
	"github.com/nursyahid/leadpipe/internal/pkg/mail"
	"github.com/nursyahid/leadpipe/internal/pkg/messaging"
	"github.com/nursyahid/leadpipe/internal/pkg/otp"
	"github.com/nursyahid/leadpipe/internal/pkg/router"
	"github.com/nursyahid/leadpipe/internal/pkg/storage"
	"github.com/nursyahid/leadpipe/internal/pkg/uid"
	"github.com/nursyahid/leadpipe/internal/pkg/validator"
	"github.com/redis/go-redis/v9"
)

// App wires dependencies and manages service lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config config.Config
	ins    instrument.Instrumentation

	// libraries
	goroutine *goroutine.Manager
	validator validator.Validator
	clock     clock.Clocker
	hmac      hash.Hash
	password  hash.Hash
	uid       uid.NumberID
	oid       uid.StringID
	uuid      uid.StringID
	codegen   otp.CodeGenerator
	jwt       jwt.JWT

	// resources
	dbConn    *pgxpool.Pool
	cacheConn *redis.Client
	idemp     idempotency.Idempotency
	mail      mail.Mail
	messaging messaging.Messaging
	storage   storage.Storage
	casbin    *casbin.Enforcer

	// server
	router     *router.Router
	httpServer *http.Server

	closers []struct {
		name string
		fn   func(context.Context) error
	}
}

// New initializes the application with default wiring and returns an App instance.
func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
	}

	app.initConfig()
	app.initInstrument()
	app.initLibraries()
	app.initJWT()
	app.initDatabase()
	app.initCache()
	app.initMail()
	app.initStorage()
	app.initMessaging()
	app.initCasbin()
	app.initHTTPServer()
	app.initModules()
	app.initClosers()

	return app
}
