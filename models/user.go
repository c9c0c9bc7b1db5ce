package models

import "time"

// User is an end-user account. Balance and TotalEarnings are mutated only
// inside row-locked transactions, never by plain updates.
type User struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	Name          string     `gorm:"size:100;not null" json:"name"`
	Number        string     `gorm:"size:20;uniqueIndex;not null" json:"number"`
	Email         *string    `gorm:"size:191" json:"email,omitempty"`
	Password      string     `gorm:"size:255;not null" json:"-"`
	ReffCode      string     `gorm:"size:20;uniqueIndex;not null" json:"reff_code"`
	ReffBy        *uint      `gorm:"column:reff_by;index" json:"reff_by,omitempty"`
	Balance       float64    `gorm:"type:decimal(15,2);not null;default:0.00" json:"balance"`
	TotalEarnings float64    `gorm:"column:total_earnings;type:decimal(15,2);not null;default:0.00" json:"total_earnings"`
	CheckinStreak int        `gorm:"column:checkin_streak;not null;default:0" json:"checkin_streak"`
	LastCheckinAt *time.Time `gorm:"column:last_checkin_at" json:"last_checkin_at,omitempty"`
	Status        string     `gorm:"type:enum('Active','Inactive','Suspend');default:'Active'" json:"status"`
	Profile       *string    `gorm:"type:varchar(255)" json:"profile,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"-"`
}

func (User) TableName() string { return "users" }
