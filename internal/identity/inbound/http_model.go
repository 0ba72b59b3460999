package inbound

import "time"

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	OtpRequired  bool   `json:"otp_required"`
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

type OtpIssueRequest struct {
	Email string `json:"email"`
}

type OtpIssueResponse struct {
	ExpiresAt time.Time `json:"expires_at"`
}

type OtpVerifyRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type OtpVerifyResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type RefreshTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type ProfileResponse struct {
	ID               int64  `json:"id,string"`
	Email            string `json:"email"`
	FullName         string `json:"full_name"`
	AvatarURL        string `json:"avatar_url"`
	Status           string `json:"status"`
	TwoFactorEnabled bool   `json:"two_factor_enabled"`
}

type UpdateProfileRequest struct {
	FullName string `json:"full_name"`
}

type ProfileTwoFactorRequest struct {
	Enabled bool `json:"enabled"`
}
