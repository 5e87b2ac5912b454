package domain

import "time"

type TransactionType string

const (
	StockIn  TransactionType = "STOCK_IN"
	StockOut TransactionType = "STOCK_OUT"
)

// InventoryTransaction is an append-only ledger entry. Rows are never
// updated or deleted after creation; together they form the audit trail
// from which balances are derived.
type InventoryTransaction struct {
	ID              string          `json:"id" gorm:"primaryKey"`
	MaterialID      string          `json:"materialId" gorm:"index"`
	Material        *Material       `json:"material,omitempty" gorm:"foreignKey:MaterialID"`
	TransactionType TransactionType `json:"transactionType" gorm:"index"`
	Quantity        int             `json:"quantity"`

	// STOCK_OUT provenance, all optional.
	ClientID      *string      `json:"clientId"`
	Client        *Client      `json:"client,omitempty" gorm:"foreignKey:ClientID"`
	SiteAddress   *string      `json:"siteAddress"`
	AppointmentID *string      `json:"appointmentId"`
	Appointment   *Appointment `json:"appointment,omitempty" gorm:"foreignKey:AppointmentID"`

	Remarks         *string   `json:"remarks,omitempty"`
	TransactionDate time.Time `json:"transactionDate" gorm:"index"`
	CreatedBy       string    `json:"createdBy"`
	CreatedByUser   *User     `json:"createdByUser" gorm:"foreignKey:CreatedBy"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// StockBalance is derived, never stored: it is recomputed from the
// transaction log so that it is always reconcilable with the ledger.
type StockBalance struct {
	MaterialID   string `json:"materialId"`
	MaterialName string `json:"materialName"`
	Unit         string `json:"unit"`
	TotalIn      int64  `json:"totalIn"`
	TotalOut     int64  `json:"totalOut"`
	CurrentStock int64  `json:"currentStock"`
	ReorderLevel *int   `json:"reorderLevel"`
	IsLowStock   bool   `json:"isLowStock"`
}
