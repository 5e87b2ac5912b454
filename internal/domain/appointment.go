package domain

import "time"

type AppointmentStatus string

const (
	AppointmentScheduled AppointmentStatus = "SCHEDULED"
	AppointmentOTPSent   AppointmentStatus = "OTP_SENT"
	AppointmentVerified  AppointmentStatus = "VERIFIED"
	AppointmentCompleted AppointmentStatus = "COMPLETED"
	AppointmentCancelled AppointmentStatus = "CANCELLED"
)

// Appointment is a scheduled engineer site visit. The OTP fields are
// authoritative for the verification flow: otp, otp_sent_at and
// otp_expires_at are always set or cleared together.
type Appointment struct {
	ID         string    `json:"id" gorm:"primaryKey"`
	ClientID   string    `json:"clientId" gorm:"index"`
	Client     *Client   `json:"client,omitempty" gorm:"foreignKey:ClientID"`
	EngineerID string    `json:"engineerId" gorm:"index"`
	Engineer   *Engineer `json:"engineer,omitempty" gorm:"foreignKey:EngineerID"`
	VisitDate  time.Time `json:"visitDate"`

	Purpose         *string `json:"purpose,omitempty"`
	SiteAddress     *string `json:"siteAddress"`
	GoogleMapsLink  *string `json:"googleMapsLink"`
	OTPMobileNumber *string `json:"otpMobileNumber"`

	Status AppointmentStatus `json:"status"`

	// Never serialized; the code must not leak to API consumers.
	OTP          *string    `json:"-" gorm:"column:otp"`
	OTPSentAt    *time.Time `json:"otpSentAt" gorm:"column:otp_sent_at"`
	OTPExpiresAt *time.Time `json:"otpExpiresAt" gorm:"column:otp_expires_at"`
	OTPAttempts  int        `json:"otpAttempts" gorm:"column:otp_attempts"`

	VerifiedAt *time.Time `json:"verifiedAt"`
	Feedback   *string    `json:"feedback,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (s AppointmentStatus) Terminal() bool {
	return s == AppointmentCompleted || s == AppointmentCancelled
}
