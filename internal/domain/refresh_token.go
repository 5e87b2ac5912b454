package domain

import "time"

type RefreshToken struct {
	ID          int64      `gorm:"primaryKey"`
	UserID      string     `gorm:"column:user_id;index"`
	TokenHash   string     `gorm:"column:token_hash;uniqueIndex"`
	JTI         string     `gorm:"column:jti"`
	FamilyID    string     `gorm:"column:family_id;index"`
	RotatedFrom *int64     `gorm:"column:rotated_from"`
	ExpiresAt   time.Time  `gorm:"column:expires_at"`
	UsedAt      *time.Time `gorm:"column:used_at"`
	RevokedAt   *time.Time `gorm:"column:revoked_at"`
	UserAgent   *string    `gorm:"column:user_agent"`
	IP          *string    `gorm:"column:ip"`
	CreatedAt   time.Time  `gorm:"column:created_at"`
}

func (RefreshToken) TableName() string { return "refresh_tokens" }
