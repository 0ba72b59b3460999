package inbound

import (
	"context"

	"github.com/nursyahid/leadpipe/internal/identity/usecase"
	"github.com/nursyahid/leadpipe/internal/pkg/router"
)

type uc interface {
	Register(ctx context.Context, in usecase.RegisterInput) error
	Login(ctx context.Context, in usecase.LoginInput) (*usecase.LoginOutput, error)
	OtpIssue(ctx context.Context, in usecase.OtpIssueInput) (*usecase.OtpIssueOutput, error)
	OtpVerify(ctx context.Context, in usecase.OtpVerifyInput) (*usecase.OtpVerifyOutput, error)
	RefreshToken(ctx context.Context, in usecase.RefreshTokenInput) (*usecase.RefreshTokenOutput, error)
	Logout(ctx context.Context, in usecase.LogoutInput) error

	Profile(ctx context.Context) (*usecase.ProfileOutput, error)
	ProfileUpdate(ctx context.Context, in usecase.ProfileUpdateInput) error
	ProfileUpdateAvatar(ctx context.Context, in usecase.ProfileUpdateAvatarInput) error
	ProfileTwoFactor(ctx context.Context, in usecase.ProfileTwoFactorInput) error
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	// Authentication
	r.POST("/api/v1/identity/register", end.Register)
	r.POST("/api/v1/identity/login", end.Login)
	r.POST("/api/v1/identity/otp/issue", end.OtpIssue)
	r.POST("/api/v1/identity/otp/verify", end.OtpVerify)
	r.POST("/api/v1/identity/refresh", end.RefreshToken)
	r.POST("/api/v1/identity/logout", end.Logout)

	// Profile (need authenticated)
	r.GET("/api/v1/identity/profile", end.Profile)
	r.PUT("/api/v1/identity/profile", end.ProfileUpdate)
	r.PUT("/api/v1/identity/profile/avatar", end.ProfileUpdateAvatar)
	r.PUT("/api/v1/identity/profile/2fa", end.ProfileTwoFactor)
}
