package entity

type DeliveryStatus int16

const (
	// DeliveryStatusUnknown means the status is not known / not set.
	DeliveryStatusUnknown DeliveryStatus = 0

	// DeliveryStatusQueued means the row exists but no send finished yet.
	DeliveryStatusQueued DeliveryStatus = 1

	// DeliveryStatusSent means the provider accepted the message.
	DeliveryStatusSent DeliveryStatus = 2

	// DeliveryStatusFailed means every send attempt failed.
	DeliveryStatusFailed DeliveryStatus = 3
)

func (ds DeliveryStatus) String() string {
	switch ds {
	case DeliveryStatusQueued:
		return "queued"
	case DeliveryStatusSent:
		return "sent"
	case DeliveryStatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Template names the email template used for a delivery.
type Template string

const (
	TemplateOtpCode Template = "otp_code"
	TemplateWelcome Template = "welcome"
)

func (t Template) String() string {
	return string(t)
}
