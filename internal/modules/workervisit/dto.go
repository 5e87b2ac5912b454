package workervisit

import "time"

type CreateRequest struct {
	ClientID    string    `json:"clientId" binding:"required"`
	EngineerID  string    `json:"engineerId" binding:"required"`
	VisitDate   time.Time `json:"visitDate" binding:"required"`
	SiteAddress *string   `json:"siteAddress"`
}

// SubmitCountRequest carries the head count together with the code; the
// two are checked and applied in one call.
type SubmitCountRequest struct {
	WorkerCount int     `json:"workerCount" binding:"required,gte=1"`
	OTP         string  `json:"otp" binding:"required"`
	Remarks     *string `json:"remarks"`
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

type SummaryQuery struct {
	From string `form:"from" binding:"required"`
	To   string `form:"to" binding:"required"`
}
