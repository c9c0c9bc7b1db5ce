package auth

import (
	"log"
	"net/http"
	"strings"
	"time"

	"bajaj/database"
	"bajaj/middleware"
	"bajaj/models"
	"bajaj/utils"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type LoginRequest struct {
	Number   string `json:"number" validate:"required,phone10"`
	Password string `json:"password" validate:"required,pwdmin"`
	IsApp    *bool  `json:"is_app,omitempty"`
}

func LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}

	db := database.DB

	setting, err := models.GetSetting(db)
	if err != nil {
		log.Printf("[login] load settings: %v", err)
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}
	if setting.Maintenance {
		utils.WriteJSON(w, http.StatusServiceUnavailable, utils.APIResponse{
			Success: false,
			Message: "The application is under maintenance. Please try again later.",
			Data:    map[string]interface{}{"maintenance": true, "application": setting.Name},
		})
		return
	}

	var user models.User
	if err := db.Where("number = ?", strings.TrimSpace(req.Number)).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Incorrect mobile number or password"})
			return
		}
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}

	switch strings.ToLower(user.Status) {
	case "active":
	case "suspend":
		utils.WriteJSON(w, http.StatusForbidden, utils.APIResponse{Success: false, Message: "Your account has been suspended, please contact support"})
		return
	default:
		utils.WriteJSON(w, http.StatusForbidden, utils.APIResponse{Success: false, Message: "Your account is inactive, please contact support"})
		return
	}

	if locked, retry := middleware.IsAccountLocked(user.ID); locked {
		utils.WriteJSON(w, http.StatusTooManyRequests, utils.APIResponse{
			Success: false,
			Message: "Too many login attempts. Please try again later.",
			Data:    map[string]interface{}{"retry_after_seconds": int(retry.Seconds())},
		})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		middleware.RecordFailedLogin(user.ID)
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Incorrect mobile number or password"})
		return
	}
	middleware.ResetFailedLogin(user.ID)

	tokenExpiry := 15 * time.Minute
	if req.IsApp != nil && *req.IsApp {
		tokenExpiry = 30 * 24 * time.Hour
	}
	exp := time.Now().Add(tokenExpiry)

	accessToken, err := utils.GenerateAccessTokenWithExpiry(user.ID, tokenExpiry)
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Login failed"})
		return
	}
	refreshJTI, err := utils.GenerateRefreshToken(user.ID)
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Failed to store refresh token"})
		return
	}

	var totalWithdraw float64
	db.Model(&models.Withdrawal{}).
		Where("user_id = ? AND status = ?", user.ID, "SUCCESS").
		Select("COALESCE(SUM(amount),0)").Scan(&totalWithdraw)

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Login successful! Redirecting to dashboard...",
		Data: map[string]interface{}{
			"access_token":  accessToken,
			"access_expire": exp.UTC().Format(time.RFC3339),
			"refresh_token": refreshJTI,
			"user": map[string]interface{}{
				"name":           user.Name,
				"number":         user.Number,
				"reff_code":      user.ReffCode,
				"balance":        user.Balance,
				"total_earnings": user.TotalEarnings,
				"total_withdraw": totalWithdraw,
				"checkin_streak": user.CheckinStreak,
				"profile":        user.Profile,
			},
			"application": map[string]interface{}{
				"name":         setting.Name,
				"min_withdraw": setting.MinWithdraw,
				"max_withdraw": setting.MaxWithdraw,
				"withdraw_tax": setting.WithdrawTax,
				"link_cs":      setting.LinkCS,
				"link_group":   setting.LinkGroup,
				"link_app":     setting.LinkApp,
			},
		},
	})
}
