package models

import "time"

// Wallet entry flows and types. Flow is always from the user's point of
// view: credit puts money in, debit takes it out.
const (
	FlowCredit = "credit"
	FlowDebit  = "debit"

	EntryRecharge   = "recharge"
	EntryWithdraw   = "withdraw"
	EntryPurchase   = "purchase"
	EntryEarning    = "earning"
	EntryCheckin    = "checkin"
	EntryCommission = "commission"
	EntryBonus      = "bonus"
)

// WalletEntry is one line of the balance history. OrderID carries a unique
// index so replayed gateway callbacks cannot produce a second credit row.
type WalletEntry struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	OrderID   string    `gorm:"type:varchar(64);not null;uniqueIndex" json:"order_id"`
	Amount    float64   `gorm:"type:decimal(15,2);not null" json:"amount"`
	Flow      string    `gorm:"type:enum('credit','debit');not null" json:"flow"`
	Type      string    `gorm:"type:varchar(30);not null;index" json:"type"`
	Message   *string   `gorm:"type:varchar(255)" json:"message,omitempty"`
	Status    string    `gorm:"type:enum('Success','Pending','Failed');not null;default:'Success'" json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

func (WalletEntry) TableName() string { return "wallet_entries" }
