package users

import (
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"
	"strings"
	"time"

	"bajaj/database"
	"bajaj/middleware"
	"bajaj/models"
	"bajaj/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WithdrawalRequest struct {
	Amount float64 `json:"amount"`
}

var (
	errInsufficientBalance  = errors.New("insufficient_balance")
	errDailyWithdrawalLimit = errors.New("daily_withdrawal_limit")
)

// WithdrawalHandler debits the wallet and queues a payout to the user's
// saved bank account. Balance check and debit happen under a row lock so
// two concurrent requests cannot overdraw.
func WithdrawalHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}

	var req WithdrawalRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}

	db := database.DB

	var user models.User
	if err := db.First(&user, uid).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "User not found"})
			return
		}
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}
	if strings.ToLower(user.Status) != "active" {
		utils.WriteJSON(w, http.StatusForbidden, utils.APIResponse{Success: false, Message: "Your account is not active, please contact support"})
		return
	}

	setting, err := models.GetSetting(db)
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}

	if req.Amount < setting.MinWithdraw {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: fmt.Sprintf("Minimum withdrawal is %.0f", setting.MinWithdraw)})
		return
	}
	if req.Amount > setting.MaxWithdraw {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: fmt.Sprintf("Maximum withdrawal is %.0f", setting.MaxWithdraw)})
		return
	}

	var acc models.BankAccount
	if err := db.Where("user_id = ?", uid).First(&acc).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Please add a bank account first"})
			return
		}
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}

	tax := CalculateWithdrawalTax(req.Amount, setting.WithdrawTax)
	netAmount := round2(req.Amount - tax)
	orderID := utils.GenerateOrderID()

	var wd models.Withdrawal
	if err := db.Transaction(func(tx *gorm.DB) error {
		var lockedUser models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&lockedUser, uid).Error; err != nil {
			return err
		}
		if lockedUser.Balance < req.Amount {
			return errInsufficientBalance
		}

		// One withdrawal request per calendar day. Counted under the user
		// row lock so concurrent requests serialize on it.
		now := time.Now()
		startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		var todayCount int64
		if err := tx.Model(&models.Withdrawal{}).Where("user_id = ? AND created_at >= ?", uid, startOfDay).Count(&todayCount).Error; err != nil {
			return err
		}
		if todayCount > 0 {
			return errDailyWithdrawalLimit
		}
		newBalance := round2(lockedUser.Balance - req.Amount)
		if err := tx.Model(&lockedUser).Update("balance", newBalance).Error; err != nil {
			return err
		}

		wd = models.Withdrawal{
			UserID:        uid,
			OrderID:       orderID,
			Amount:        req.Amount,
			Tax:           tax,
			NetAmount:     netAmount,
			HolderName:    acc.HolderName,
			AccountNumber: acc.AccountNumber,
			IFSCCode:      acc.IFSCCode,
			BankName:      acc.BankName,
			Status:        "PENDING",
		}
		if err := tx.Create(&wd).Error; err != nil {
			return err
		}

		msg := fmt.Sprintf("Withdrawal to %s %s", acc.BankName, MaskAccountNumber(acc.AccountNumber))
		entry := models.WalletEntry{
			UserID:  uid,
			OrderID: orderID,
			Amount:  req.Amount,
			Flow:    models.FlowDebit,
			Type:    models.EntryWithdraw,
			Message: &msg,
			Status:  "Pending",
		}
		return tx.Create(&entry).Error
	}); err != nil {
		if errors.Is(err, errInsufficientBalance) {
			utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Insufficient balance"})
			return
		}
		if errors.Is(err, errDailyWithdrawalLimit) {
			utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "You can only make one withdrawal per day"})
			return
		}
		log.Printf("[withdrawal] create order %s: %v", orderID, err)
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}

	utils.WriteJSON(w, http.StatusCreated, utils.APIResponse{
		Success: true,
		Message: "Withdrawal request submitted",
		Data: map[string]interface{}{
			"withdrawal": map[string]interface{}{
				"id":             wd.ID,
				"order_id":       wd.OrderID,
				"amount":         wd.Amount,
				"tax":            wd.Tax,
				"net_amount":     wd.NetAmount,
				"bank_name":      wd.BankName,
				"holder_name":    wd.HolderName,
				"account_number": MaskAccountNumber(wd.AccountNumber),
				"ifsc_code":      wd.IFSCCode,
				"status":         wd.Status,
				"created_at":     wd.CreatedAt.Format(time.RFC3339),
			},
		},
	})
}

// ListWithdrawalHandler returns the caller's withdrawals, newest first.
func ListWithdrawalHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}

	page, limit := parsePagination(r, 10, 50)
	searchQuery := strings.TrimSpace(r.URL.Query().Get("search"))

	db := database.DB

	countQuery := db.Model(&models.Withdrawal{}).Where("user_id = ?", uid)
	if searchQuery != "" {
		countQuery = countQuery.Where("order_id LIKE ?", "%"+searchQuery+"%")
	}
	var totalRows int64
	if err := countQuery.Count(&totalRows).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Failed to retrieve withdrawal data"})
		return
	}

	var withdrawals []models.Withdrawal
	query := db.Where("user_id = ?", uid)
	if searchQuery != "" {
		query = query.Where("order_id LIKE ?", "%"+searchQuery+"%")
	}
	if err := query.Order("id DESC").Limit(limit).Offset((page - 1) * limit).Find(&withdrawals).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Failed to retrieve withdrawal data"})
		return
	}

	resp := make([]map[string]interface{}, 0, len(withdrawals))
	for _, wd := range withdrawals {
		resp = append(resp, map[string]interface{}{
			"order_id":        wd.OrderID,
			"amount":          wd.Amount,
			"tax":             wd.Tax,
			"net_amount":      wd.NetAmount,
			"status":          wd.Status,
			"holder_name":     wd.HolderName,
			"account_number":  MaskAccountNumber(wd.AccountNumber),
			"ifsc_code":       wd.IFSCCode,
			"bank_name":       wd.BankName,
			"withdrawal_time": wd.CreatedAt.Format(time.RFC3339),
		})
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Successfully",
		Data: map[string]interface{}{
			"data": resp,
			"pagination": map[string]interface{}{
				"page":        page,
				"limit":       limit,
				"total_rows":  totalRows,
				"total_pages": int(math.Ceil(float64(totalRows) / float64(limit))),
			},
		},
	})
}

// CalculateWithdrawalTax returns the tax for a withdrawal amount at the
// given percent rate, rounded to 2 decimals.
func CalculateWithdrawalTax(amount, percent float64) float64 {
	return round2(amount * (percent / 100.0))
}

func round2(v float64) float64 {
	return utils.RoundFloat(v, 2)
}

func MaskAccountNumber(accountNumber string) string {
	if len(accountNumber) <= 6 {
		return accountNumber
	}
	return accountNumber[:4] + "****" + accountNumber[len(accountNumber)-4:]
}
