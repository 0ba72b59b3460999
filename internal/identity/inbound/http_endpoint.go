package inbound

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/nursyahid/leadpipe/internal/identity/usecase"
	"github.com/nursyahid/leadpipe/internal/pkg/goerror"
	"github.com/nursyahid/leadpipe/internal/pkg/router"
)

// HTTPEndpoint exposes HTTP handlers for authentication and profile
// workflows.
type HTTPEndpoint struct {
	uc uc
}

// Register creates a new user account.
func (h *HTTPEndpoint) Register(r *router.Request) (any, error) {
	var req RegisterRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	return nil, h.uc.Register(r.Context(), usecase.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
	})
}

// Login authenticates a user and returns tokens, or signals that a
// one-time code is required to finish login.
func (h *HTTPEndpoint) Login(r *router.Request) (any, error) {
	var req LoginRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Login(r.Context(), usecase.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return nil, err
	}

	return LoginResponse{
		OtpRequired:  resp.OtpRequired,
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
	}, nil
}

// OtpIssue emails a one-time code for two-factor login.
func (h *HTTPEndpoint) OtpIssue(r *router.Request) (any, error) {
	var req OtpIssueRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.OtpIssue(r.Context(), usecase.OtpIssueInput{Email: req.Email})
	if err != nil {
		return nil, err
	}

	return OtpIssueResponse{ExpiresAt: resp.ExpiresAt}, nil
}

// OtpVerify checks a one-time code and completes the login.
func (h *HTTPEndpoint) OtpVerify(r *router.Request) (any, error) {
	var req OtpVerifyRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.OtpVerify(r.Context(), usecase.OtpVerifyInput{
		Email: req.Email,
		Code:  req.Code,
	})
	if err != nil {
		return nil, err
	}

	return OtpVerifyResponse{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
	}, nil
}

// RefreshToken exchanges a refresh token for a new token pair.
func (h *HTTPEndpoint) RefreshToken(r *router.Request) (any, error) {
	var req RefreshTokenRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.RefreshToken(r.Context(), usecase.RefreshTokenInput{RefreshToken: req.RefreshToken})
	if err != nil {
		return nil, err
	}

	return RefreshTokenResponse{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
	}, nil
}

// Logout revokes a refresh token.
func (h *HTTPEndpoint) Logout(r *router.Request) (any, error) {
	var req LogoutRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	return nil, h.uc.Logout(r.Context(), usecase.LogoutInput{RefreshToken: req.RefreshToken})
}

// Profile returns the authenticated user's profile.
func (h *HTTPEndpoint) Profile(r *router.Request) (any, error) {
	resp, err := h.uc.Profile(r.Context())
	if err != nil {
		return nil, err
	}

	return ProfileResponse{
		ID:               resp.ID,
		Email:            resp.Email,
		FullName:         resp.FullName,
		AvatarURL:        resp.AvatarURL,
		Status:           resp.Status,
		TwoFactorEnabled: resp.TwoFactorEnabled,
	}, nil
}

// ProfileUpdate updates the authenticated user's profile details.
func (h *HTTPEndpoint) ProfileUpdate(r *router.Request) (any, error) {
	var req UpdateProfileRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	return nil, h.uc.ProfileUpdate(r.Context(), usecase.ProfileUpdateInput{FullName: req.FullName})
}

// ProfileUpdateAvatar streams a new avatar image to object storage.
func (h *HTTPEndpoint) ProfileUpdateAvatar(r *router.Request) (any, error) {
	ctx := r.Context()

	file, err := r.StreamSingleFile("avatar")
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := file.Close(); err != nil {
			slog.ErrorContext(ctx, "failed to close file", "error", err)
		}
	}()

	head := make([]byte, 512)
	n, err := file.Read(head)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, goerror.NewInvalidFormat()
	}

	return nil, h.uc.ProfileUpdateAvatar(ctx, usecase.ProfileUpdateAvatarInput{
		File:        io.MultiReader(bytes.NewReader(head[:n]), file),
		ContentType: http.DetectContentType(head[:n]),
	})
}

// ProfileTwoFactor enables or disables email-OTP two-factor login.
func (h *HTTPEndpoint) ProfileTwoFactor(r *router.Request) (any, error) {
	var req ProfileTwoFactorRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	return nil, h.uc.ProfileTwoFactor(r.Context(), usecase.ProfileTwoFactorInput{Enabled: req.Enabled})
}
