package inventory

import "time"

type StockInRequest struct {
	MaterialID      string    `json:"materialId" binding:"required"`
	Quantity        int       `json:"quantity" binding:"required"`
	TransactionDate time.Time `json:"transactionDate" binding:"required"`
	Remarks         *string   `json:"remarks"`
}

type StockOutRequest struct {
	MaterialID      string    `json:"materialId" binding:"required"`
	Quantity        int       `json:"quantity" binding:"required"`
	TransactionDate time.Time `json:"transactionDate" binding:"required"`
	ClientID        *string   `json:"clientId"`
	SiteAddress     *string   `json:"siteAddress"`
	AppointmentID   *string   `json:"appointmentId"`
	Remarks         *string   `json:"remarks"`
}

type ListQuery struct {
	Type       string `form:"type"`
	MaterialID string `form:"materialId"`
	ClientID   string `form:"clientId"`
	From       string `form:"from"`
	To         string `form:"to"`
	Page       int    `form:"page"`
	Limit      int    `form:"limit"`
}

type UsageQuery struct {
	From string `form:"from" binding:"required"`
	To   string `form:"to" binding:"required"`
}
