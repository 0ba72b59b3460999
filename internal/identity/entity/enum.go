package entity

type UserStatus int16

const (
	// UserStatusUnknown means the status is not known / not set.
	UserStatusUnknown UserStatus = 0

	// UserStatusActive means the user is allowed to use the app.
	UserStatusActive UserStatus = 1

	// UserStatusBanned means the user is blocked from using the app.
	UserStatusBanned UserStatus = 2

	// UserStatusInactive means the account was deactivated or closed.
	UserStatusInactive UserStatus = 3
)

func (us UserStatus) String() string {
	switch us {
	case UserStatusActive:
		return "Active"
	case UserStatusBanned:
		return "Banned"
	case UserStatusInactive:
		return "Inactive"
	default:
		return "Unknown"
	}
}

func (us UserStatus) Ensure() UserStatus {
	switch us {
	case UserStatusActive, UserStatusBanned, UserStatusInactive:
		return us
	default:
		return UserStatusUnknown
	}
}
