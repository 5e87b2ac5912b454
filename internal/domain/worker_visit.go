package domain

import "time"

type VisitStatus string

const (
	VisitPending VisitStatus = "PENDING"
	// VisitOTPVerified exists for wire compatibility with older clients but
	// is never persisted: SubmitCount moves PENDING straight to COMPLETED.
	VisitOTPVerified VisitStatus = "OTP_VERIFIED"
	VisitCompleted   VisitStatus = "COMPLETED"
)

// WorkerVisit captures the on-site contractor head count for payment
// reconciliation. worker_count is set exactly once, when the visit is
// completed.
type WorkerVisit struct {
	ID         string    `json:"id" gorm:"primaryKey"`
	ClientID   string    `json:"clientId" gorm:"index"`
	Client     *Client   `json:"client,omitempty" gorm:"foreignKey:ClientID"`
	EngineerID string    `json:"engineerId" gorm:"index"`
	Engineer   *Engineer `json:"engineer,omitempty" gorm:"foreignKey:EngineerID"`
	VisitDate  time.Time `json:"visitDate"`

	SiteAddress *string `json:"siteAddress"`

	Status VisitStatus `json:"status"`

	OTP          *string    `json:"-" gorm:"column:otp"`
	OTPSentAt    *time.Time `json:"otpSentAt" gorm:"column:otp_sent_at"`
	OTPExpiresAt *time.Time `json:"otpExpiresAt" gorm:"column:otp_expires_at"`

	VerifiedAt  *time.Time `json:"verifiedAt"`
	WorkerCount *int       `json:"workerCount"`
	Remarks     *string    `json:"remarks,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
