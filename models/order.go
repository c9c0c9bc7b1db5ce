package models

import "time"

// Order is a purchased product position. DaysPaid counts daily payouts
// already credited; the cron stops and marks Completed when DaysPaid
// reaches Duration. NextPayoutAt gates the cron so a double run within
// one day cannot pay twice.
type Order struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	UserID        uint       `gorm:"not null;index" json:"user_id"`
	ProductID     uint       `gorm:"not null;index" json:"product_id"`
	OrderID       string     `gorm:"type:varchar(64);not null;uniqueIndex" json:"order_id"`
	Amount        float64    `gorm:"type:decimal(15,2);not null" json:"amount"`
	DailyEarnings float64    `gorm:"column:daily_earnings;type:decimal(15,2);not null" json:"daily_earnings"`
	Duration      int        `gorm:"not null" json:"duration"`
	DaysPaid      int        `gorm:"column:days_paid;not null;default:0" json:"days_paid"`
	TotalEarned   float64    `gorm:"column:total_earned;type:decimal(15,2);not null;default:0.00" json:"total_earned"`
	NextPayoutAt  *time.Time `gorm:"column:next_payout_at;index" json:"next_payout_at,omitempty"`
	Status        string     `gorm:"type:enum('Running','Completed');not null;default:'Running'" json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

func (Order) TableName() string { return "orders" }
