package appointment

import "time"

type ScheduleRequest struct {
	ClientID        string    `json:"clientId" binding:"required"`
	EngineerID      string    `json:"engineerId" binding:"required"`
	VisitDate       time.Time `json:"visitDate" binding:"required"`
	Purpose         *string   `json:"purpose"`
	SiteAddress     *string   `json:"siteAddress"`
	GoogleMapsLink  *string   `json:"googleMapsLink"`
	OTPMobileNumber *string   `json:"otpMobileNumber"`
}

// UpdateRequest changes descriptive fields; only legal while SCHEDULED.
type UpdateRequest struct {
	VisitDate       *time.Time `json:"visitDate"`
	Purpose         *string    `json:"purpose"`
	SiteAddress     *string    `json:"siteAddress"`
	GoogleMapsLink  *string    `json:"googleMapsLink"`
	OTPMobileNumber *string    `json:"otpMobileNumber"`
}

type VerifyOTPRequest struct {
	OTP string `json:"otp" binding:"required"`
}

type FeedbackRequest struct {
	Feedback string `json:"feedback" binding:"required"`
}

type ListQuery struct {
	Status     string `form:"status"`
	ClientID   string `form:"clientId"`
	EngineerID string `form:"engineerId"`
	From       string `form:"from"`
	To         string `form:"to"`
	Page       int    `form:"page"`
	Limit      int    `form:"limit"`
}
