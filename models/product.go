package models

import "time"

// Product is a yield plan users can buy. TotalRevenue is the advertised
// payout over the whole duration (DailyEarnings * Duration).
type Product struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Name          string    `gorm:"size:100;not null" json:"name"`
	Price         float64   `gorm:"type:decimal(15,2);not null" json:"price"`
	DailyEarnings float64   `gorm:"column:daily_earnings;type:decimal(15,2);not null" json:"daily_earnings"`
	Duration      int       `gorm:"not null" json:"duration"`
	TotalRevenue  float64   `gorm:"column:total_revenue;type:decimal(15,2);not null" json:"total_revenue"`
	Image         *string   `gorm:"type:varchar(255)" json:"image,omitempty"`
	Status        string    `gorm:"type:enum('Active','Inactive');default:'Active'" json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"-"`
}

func (Product) TableName() string { return "products" }
