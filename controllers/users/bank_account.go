package users

import (
	"errors"
	"net/http"
	"strings"

	"bajaj/database"
	"bajaj/middleware"
	"bajaj/models"
	"bajaj/utils"

	"gorm.io/gorm"
)

type SaveBankAccountRequest struct {
	HolderName    string `json:"holder_name" validate:"required,nameok"`
	AccountNumber string `json:"account_number" validate:"required,acctnum"`
	IFSCCode      string `json:"ifsc_code" validate:"required,ifsc"`
	BankName      string `json:"bank_name" validate:"required,nameok"`
}

// SaveBankAccountHandler creates or replaces the caller's payout account.
// One account per user; saving again overwrites the previous details.
func SaveBankAccountHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}

	var req SaveBankAccountRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}

	req.HolderName = strings.TrimSpace(req.HolderName)
	req.AccountNumber = strings.TrimSpace(req.AccountNumber)
	req.IFSCCode = strings.ToUpper(strings.TrimSpace(req.IFSCCode))
	req.BankName = strings.TrimSpace(req.BankName)

	db := database.DB

	var acc models.BankAccount
	err := db.Where("user_id = ?", uid).First(&acc).Error
	switch {
	case err == nil:
		acc.HolderName = req.HolderName
		acc.AccountNumber = req.AccountNumber
		acc.IFSCCode = req.IFSCCode
		acc.BankName = req.BankName
		if err := db.Save(&acc).Error; err != nil {
			utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
			return
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		acc = models.BankAccount{
			UserID:        uid,
			HolderName:    req.HolderName,
			AccountNumber: req.AccountNumber,
			IFSCCode:      req.IFSCCode,
			BankName:      req.BankName,
		}
		if err := db.Create(&acc).Error; err != nil {
			utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
			return
		}
	default:
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Bank account saved",
		Data: map[string]interface{}{
			"bank_account": map[string]interface{}{
				"holder_name":    acc.HolderName,
				"account_number": MaskAccountNumber(acc.AccountNumber),
				"ifsc_code":      acc.IFSCCode,
				"bank_name":      acc.BankName,
			},
		},
	})
}

// GetBankAccountHandler returns the saved payout account, masked.
func GetBankAccountHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}

	var acc models.BankAccount
	if err := database.DB.Where("user_id = ?", uid).First(&acc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Successfully", Data: map[string]interface{}{"bank_account": nil}})
			return
		}
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Successfully",
		Data: map[string]interface{}{
			"bank_account": map[string]interface{}{
				"holder_name":    acc.HolderName,
				"account_number": MaskAccountNumber(acc.AccountNumber),
				"ifsc_code":      acc.IFSCCode,
				"bank_name":      acc.BankName,
			},
		},
	})
}
