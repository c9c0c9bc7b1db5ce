package models

import "time"

// Withdrawal snapshots the bank details at request time so later edits to
// the user's bank account do not change where a pending payout goes.
// NetAmount = Amount - Tax, both rounded to 2 decimals.
type Withdrawal struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        uint      `gorm:"not null;index" json:"user_id"`
	OrderID       string    `gorm:"type:varchar(64);not null;uniqueIndex" json:"order_id"`
	Amount        float64   `gorm:"type:decimal(15,2);not null" json:"amount"`
	Tax           float64   `gorm:"type:decimal(15,2);not null;default:0.00" json:"tax"`
	NetAmount     float64   `gorm:"column:net_amount;type:decimal(15,2);not null" json:"net_amount"`
	HolderName    string    `gorm:"size:100;not null" json:"holder_name"`
	AccountNumber string    `gorm:"size:30;not null" json:"account_number"`
	IFSCCode      string    `gorm:"column:ifsc_code;size:11;not null" json:"ifsc_code"`
	BankName      string    `gorm:"size:100" json:"bank_name"`
	Status        string    `gorm:"type:enum('PENDING','SUCCESS','FAILED');not null;default:'PENDING'" json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (Withdrawal) TableName() string { return "withdrawals" }
