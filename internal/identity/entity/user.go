package entity

import "time"

type User struct {
	ID               int64
	Email            string
	FullName         string
	AvatarURL        string
	Status           UserStatus
	TwoFactorEnabled bool
	UpdatedAt        time.Time
	DeletedAt        *time.Time
}

type UserCredential struct {
	UserID    int64
	Password  string // hashed
	UpdatedAt time.Time
}

type RefreshToken struct {
	ID        int64
	UserID    int64
	Token     string // hmac of the opaque token
	ExpiresAt time.Time
	Revoked   bool
}

// OtpRecord is the per-email one-time code state. It lives in Redis
// under otp:<email> and is owned exclusively by the OTP store.
type OtpRecord struct {
	Email             string // lower-cased, the key
	CodeHash          string // hmac-sha256 of the 6-digit code
	ExpiresAt         time.Time
	RemainingAttempts int64
}

// ---- //

type NewUser struct {
	ID        int64
	Email     string
	FullName  string
	AvatarURL string
	Status    UserStatus
}

type UserLoginInfo struct {
	ID               int64
	Email            string
	Status           UserStatus
	Password         string
	TwoFactorEnabled bool
}

type UserRefreshToken struct {
	UserID           int64
	UserEmail        string
	UserStatus       UserStatus
	RefreshID        int64
	RefreshRevoked   bool
	RefreshExpiresAt time.Time
}

type RotateRefreshToken struct {
	NewID        int64
	OldID        int64
	UserID       int64
	NewToken     string
	NewExpiresAt time.Time
}
