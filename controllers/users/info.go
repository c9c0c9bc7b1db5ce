package users

import (
	"errors"
	"net/http"
	"time"

	"bajaj/database"
	"bajaj/models"
	"bajaj/utils"

	"gorm.io/gorm"
)

// InfoHandler returns the authenticated user's profile, wallet totals and
// the platform settings the client needs for rendering.
func InfoHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}

	db := database.DB
	var user models.User
	if err := db.First(&user, uid).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "User not found"})
			return
		}
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Database error"})
		return
	}

	setting, serr := models.GetSetting(db)

	var totalWithdraw, totalRecharge float64
	db.Model(&models.Withdrawal{}).
		Where("user_id = ? AND status = ?", user.ID, "SUCCESS").
		Select("COALESCE(SUM(amount),0)").Scan(&totalWithdraw)
	db.Model(&models.Recharge{}).
		Where("user_id = ? AND status = ?", user.ID, models.RechargeSuccess).
		Select("COALESCE(SUM(amount),0)").Scan(&totalRecharge)

	checkedToday := user.LastCheckinAt != nil && sameDay(*user.LastCheckinAt, time.Now())

	data := map[string]interface{}{
		"user": map[string]interface{}{
			"name":             user.Name,
			"number":           user.Number,
			"reff_code":        user.ReffCode,
			"balance":          user.Balance,
			"total_earnings":   user.TotalEarnings,
			"total_recharge":   totalRecharge,
			"total_withdraw":   totalWithdraw,
			"checkin_streak":   user.CheckinStreak,
			"checked_in_today": checkedToday,
			"profile":          user.Profile,
		},
	}
	if serr == nil {
		data["application"] = map[string]interface{}{
			"name":         setting.Name,
			"min_recharge": setting.MinRecharge,
			"min_withdraw": setting.MinWithdraw,
			"max_withdraw": setting.MaxWithdraw,
			"withdraw_tax": setting.WithdrawTax,
			"link_cs":      setting.LinkCS,
			"link_group":   setting.LinkGroup,
			"link_app":     setting.LinkApp,
			"maintenance":  setting.Maintenance,
		}
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Successfully", Data: data})
}
