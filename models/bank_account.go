package models

import "time"

// BankAccount is the payout destination. One per user; saving again
// replaces the existing row.
type BankAccount struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        uint      `gorm:"not null;uniqueIndex" json:"user_id"`
	HolderName    string    `gorm:"size:100;not null" json:"holder_name"`
	AccountNumber string    `gorm:"size:30;not null" json:"account_number"`
	IFSCCode      string    `gorm:"column:ifsc_code;size:11;not null" json:"ifsc_code"`
	BankName      string    `gorm:"size:100;not null" json:"bank_name"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (BankAccount) TableName() string { return "bank_accounts" }
