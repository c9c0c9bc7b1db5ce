package models

import "time"

// RechargeStatus is the lifecycle state of a recharge order. Transitions
// only move forward: PENDING -> REDIRECTING -> SUCCESS | FAILED.
type RechargeStatus string

const (
	RechargePending     RechargeStatus = "PENDING"
	RechargeRedirecting RechargeStatus = "REDIRECTING"
	RechargeSuccess     RechargeStatus = "SUCCESS"
	RechargeFailed      RechargeStatus = "FAILED"
)

// Terminal reports whether no further transition is allowed from s.
func (s RechargeStatus) Terminal() bool {
	return s == RechargeSuccess || s == RechargeFailed
}

// Recharge is a wallet top-up order. The row is written BEFORE the gateway
// is called so a crash mid-flight leaves an auditable PENDING record.
// Raw gateway payloads are kept for dispute handling.
type Recharge struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	UserID          uint           `gorm:"not null;index" json:"user_id"`
	OrderID         string         `gorm:"type:varchar(64);not null;uniqueIndex" json:"order_id"`
	Amount          float64        `gorm:"type:decimal(15,2);not null" json:"amount"`
	Phone           string         `gorm:"size:20;not null" json:"phone"`
	Status          RechargeStatus `gorm:"type:enum('PENDING','REDIRECTING','SUCCESS','FAILED');not null;default:'PENDING'" json:"status"`
	PaymentURL      *string        `gorm:"type:text" json:"payment_url,omitempty"`
	RequestPayload  *string        `gorm:"type:text" json:"-"`
	ResponsePayload *string        `gorm:"type:text" json:"-"`
	CallbackPayload *string        `gorm:"type:text" json:"-"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

func (Recharge) TableName() string { return "recharges" }
