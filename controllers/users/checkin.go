package users

import (
	"errors"
	"log"
	"net/http"
	"time"

	"bajaj/database"
	"bajaj/models"
	"bajaj/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var errAlreadyCheckedIn = errors.New("already_checked_in")

// CheckinHandler pays the daily check-in reward. The same-day guard is
// evaluated on the locked row, so two concurrent requests cannot both claim.
func CheckinHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}

	db := database.DB

	setting, err := models.GetSetting(db)
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}
	reward := setting.CheckinReward

	var streak int
	err = db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, uid).Error; err != nil {
			return err
		}

		now := time.Now()
		if user.LastCheckinAt != nil && sameDay(*user.LastCheckinAt, now) {
			return errAlreadyCheckedIn
		}

		streak = 1
		if user.LastCheckinAt != nil && isYesterday(*user.LastCheckinAt, now) {
			streak = user.CheckinStreak + 1
		}

		if err := tx.Model(&user).Updates(map[string]interface{}{
			"balance":         gorm.Expr("balance + ?", reward),
			"total_earnings":  gorm.Expr("total_earnings + ?", reward),
			"checkin_streak":  streak,
			"last_checkin_at": now,
		}).Error; err != nil {
			return err
		}

		entry := models.WalletEntry{
			UserID:  uid,
			OrderID: utils.GenerateInternalID("CHK", uid),
			Amount:  reward,
			Flow:    models.FlowCredit,
			Type:    models.EntryCheckin,
			Message: ptrString("Daily check-in reward"),
			Status:  "Success",
		}
		return tx.Create(&entry).Error
	})
	if err != nil {
		if err == errAlreadyCheckedIn {
			utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "You have already checked in today"})
			return
		}
		log.Printf("[checkin] user %d: %v", uid, err)
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Check-in successful",
		Data: map[string]interface{}{
			"reward": reward,
			"streak": streak,
		},
	})
}

// CheckinStatusHandler tells the client whether today's reward was claimed.
func CheckinStatusHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}

	var user models.User
	if err := database.DB.First(&user, uid).Error; err != nil {
		utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "User not found"})
		return
	}

	checkedToday := user.LastCheckinAt != nil && sameDay(*user.LastCheckinAt, time.Now())
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Successfully",
		Data: map[string]interface{}{
			"checked_in_today": checkedToday,
			"streak":           user.CheckinStreak,
			"last_checkin_at":  user.LastCheckinAt,
		},
	})
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func isYesterday(last, now time.Time) bool {
	return sameDay(last, now.AddDate(0, 0, -1))
}
