package models

import "gorm.io/gorm"

// Setting is the single platform configuration row. Percentages are stored
// as whole numbers (10 means 10%).
type Setting struct {
	ID             uint    `gorm:"primaryKey" json:"id"`
	Name           string  `gorm:"size:100" json:"name"`
	MinRecharge    float64 `gorm:"column:min_recharge;type:decimal(15,2);not null;default:100.00" json:"min_recharge"`
	MinWithdraw    float64 `gorm:"column:min_withdraw;type:decimal(15,2);not null;default:100.00" json:"min_withdraw"`
	MaxWithdraw    float64 `gorm:"column:max_withdraw;type:decimal(15,2);not null;default:50000.00" json:"max_withdraw"`
	WithdrawTax    float64 `gorm:"column:withdraw_tax;type:decimal(5,2);not null;default:10.00" json:"withdraw_tax"`
	CheckinReward  float64 `gorm:"column:checkin_reward;type:decimal(15,2);not null;default:7.00" json:"checkin_reward"`
	RegisterBonus  float64 `gorm:"column:register_bonus;type:decimal(15,2);not null;default:0.00" json:"register_bonus"`
	Level1Percent  float64 `gorm:"column:level1_percent;type:decimal(5,2);not null;default:30.00" json:"level1_percent"`
	Level2Percent  float64 `gorm:"column:level2_percent;type:decimal(5,2);not null;default:3.00" json:"level2_percent"`
	Level3Percent  float64 `gorm:"column:level3_percent;type:decimal(5,2);not null;default:1.00" json:"level3_percent"`
	Maintenance    bool    `gorm:"not null;default:false" json:"maintenance"`
	ClosedRegister bool    `gorm:"column:closed_register;not null;default:false" json:"closed_register"`
	LinkCS         string  `gorm:"column:link_cs;size:255" json:"link_cs"`
	LinkGroup      string  `gorm:"column:link_group;size:255" json:"link_group"`
	LinkApp        string  `gorm:"column:link_app;size:255" json:"link_app"`
}

func (Setting) TableName() string { return "settings" }

// GetSetting loads the configuration row, creating the defaults on first use.
func GetSetting(db *gorm.DB) (*Setting, error) {
	var s Setting
	if err := db.First(&s).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			s = Setting{Name: "Bajaj"}
			if cerr := db.Create(&s).Error; cerr != nil {
				return nil, cerr
			}
			return &s, nil
		}
		return nil, err
	}
	return &s, nil
}
