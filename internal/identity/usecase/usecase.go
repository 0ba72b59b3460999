package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/nursyahid/leadpipe/internal/identity/entity"
	"github.com/nursyahid/leadpipe/internal/pkg/clock"
	"github.com/nursyahid/leadpipe/internal/pkg/config"
	"github.com/nursyahid/leadpipe/internal/pkg/goerror"
	"github.com/nursyahid/leadpipe/internal/pkg/goroutine"
	"github.com/nursyahid/leadpipe/internal/pkg/hash"
	"github.com/nursyahid/leadpipe/internal/pkg/instrument"
	"github.com/nursyahid/leadpipe/internal/pkg/jwt"
	"github.com/nursyahid/leadpipe/internal/pkg/otp"
	"github.com/nursyahid/leadpipe/internal/pkg/storage"
	"github.com/nursyahid/leadpipe/internal/pkg/uid"
	"github.com/nursyahid/leadpipe/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

type OtpIssuedEvent struct {
	UserID    int64
	Email     string
	Code      string
	ExpiresAt time.Time
}

type UserRegisteredEvent struct {
	UserID   int64
	Email    string
	FullName string
}

type repoMessaging interface {
	PublishOtpIssued(ctx context.Context, msg OtpIssuedEvent) error
	PublishUserRegistered(ctx context.Context, msg UserRegisteredEvent) error
}

// otpStore owns the per-email one-time code records. Get returns
// goerror.ErrNotFound when no record exists; Save replaces any prior
// record for the email; Decrement never goes below zero and returns
// the remaining attempts.
type otpStore interface {
	Get(ctx context.Context, email string) (*entity.OtpRecord, error)
	Save(ctx context.Context, rec entity.OtpRecord, ttl time.Duration) error
	Decrement(ctx context.Context, email string) (int64, error)
	Delete(ctx context.Context, email string) error
}

type repoDB interface {
	GetUserLoginInfo(ctx context.Context, email string) (*entity.UserLoginInfo, error)
	GetUserByEmail(ctx context.Context, email string) (*entity.User, error)
	GetUserByID(ctx context.Context, id int64) (*entity.User, error)
	GetUserRefreshToken(ctx context.Context, tokenHash string) (*entity.UserRefreshToken, error)

	CreateUser(ctx context.Context, user entity.NewUser, passwordHash string) error
	CreateRefreshToken(ctx context.Context, in entity.RefreshToken) error
	RotateRefreshToken(ctx context.Context, ro entity.RotateRefreshToken) error
	RevokeRefreshToken(ctx context.Context, tokenHash string) error

	UpdateUserProfile(ctx context.Context, id int64, fullName string) error
	UpdateUserAvatar(ctx context.Context, id int64, avatarURL string) error
	UpdateUserTwoFactor(ctx context.Context, id int64, enabled bool) error
}

type Usecase struct {
	repoDB        repoDB
	otpStore      otpStore
	repoMessaging repoMessaging
	validator     validator.Validator
	cfg           config.Config
	storage       storage.Storage
	hmac          hash.Hash
	password      hash.Hash
	uid           uid.NumberID
	uuid          uid.StringID
	oid           uid.StringID
	codegen       otp.CodeGenerator
	clock         clock.Clocker
	jwt           jwt.JWT
	ins           instrument.Instrumentation
	goroutine     *goroutine.Manager
}

type Dependency struct {
	RepoDB        repoDB
	OtpStore      otpStore
	RepoMessaging repoMessaging
	Validator     validator.Validator
	Config        config.Config
	Storage       storage.Storage
	HMAC          hash.Hash
	Password      hash.Hash
	UID           uid.NumberID
	UUID          uid.StringID
	OID           uid.StringID
	CodeGen       otp.CodeGenerator
	Clock         clock.Clocker
	JWT           jwt.JWT
	Instrument    instrument.Instrumentation
	Goroutine     *goroutine.Manager
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:        dep.RepoDB,
		otpStore:      dep.OtpStore,
		repoMessaging: dep.RepoMessaging,
		validator:     dep.Validator,
		cfg:           dep.Config,
		storage:       dep.Storage,
		hmac:          dep.HMAC,
		password:      dep.Password,
		uid:           dep.UID,
		uuid:          dep.UUID,
		oid:           dep.OID,
		codegen:       dep.CodeGen,
		clock:         dep.Clock,
		jwt:           dep.JWT,
		ins:           dep.Instrument,
		goroutine:     dep.Goroutine,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("identity.usecase").Start(ctx, name)
}

func (s *Usecase) ensureUserStatusAllowed(ctx context.Context, userID int64, status entity.UserStatus) error {
	switch status.Ensure() {
	case entity.UserStatusBanned:
		slog.WarnContext(ctx, "user account is banned", "user_id", userID)
		return goerror.NewBusiness("account is banned", goerror.CodeForbidden)

	case entity.UserStatusInactive:
		slog.WarnContext(ctx, "user account is deactivated", "user_id", userID)
		return goerror.NewBusiness("account is deactivated", goerror.CodeForbidden)

	case entity.UserStatusActive:
		return nil

	default:
		slog.WarnContext(ctx, "user account status is unrecognized", "user_id", userID)
		return goerror.NewBusiness("account status is unrecognized", goerror.CodeForbidden)
	}
}

// issueSession mints an access token and a stored refresh token for a
// verified user. Calling it again for the same user simply adds another
// session, so repeated promotion is harmless.
func (s *Usecase) issueSession(ctx context.Context, userID int64, email string) (accessToken, refreshToken string, err error) {
	accessToken, err = s.jwt.Generate(userID, email)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate access jwt token", "user_id", userID, "error", err)
		return "", "", goerror.NewServer(err)
	}

	refreshToken = s.oid.Generate()
	refreshTokenHash, err := s.hmac.Hash(refreshToken)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash refresh token", "user_id", userID, "error", err)
		return "", "", goerror.NewServer(err)
	}

	if err := s.repoDB.CreateRefreshToken(ctx, entity.RefreshToken{
		ID:        s.uid.Generate(),
		UserID:    userID,
		Token:     string(refreshTokenHash),
		ExpiresAt: s.clock.Now().Add(s.cfg.GetDay("modules.identity.refresh_token_ttl_days")),
	}); err != nil {
		slog.ErrorContext(ctx, "failed to repo create refresh token", "user_id", userID, "error", err)
		return "", "", goerror.NewServer(err)
	}

	return accessToken, refreshToken, nil
}
