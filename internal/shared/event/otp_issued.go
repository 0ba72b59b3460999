package event

const OtpIssuedDestination string = "otp_issued"
const OtpIssuedConsumerNotification string = "otp_issued_notification"

type OtpIssuedMessage struct {
	UserID    int64  `json:"user_id"`
	Email     string `json:"email"`
	Code      string `json:"code"`
	ExpiresAt int64  `json:"expires_at"`
}
