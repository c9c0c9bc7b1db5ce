package users

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"strconv"
	"strings"

	"bajaj/database"
	"bajaj/middleware"
	"bajaj/models"
	"bajaj/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CreateRechargeRequest struct {
	Amount float64 `json:"amount"`
	Phone  string  `json:"phone" validate:"phone10"`
}

// CreateRechargeHandler starts a wallet top-up. A PENDING row is written
// before the gateway is called so a crash mid-flight leaves an auditable
// record; on gateway success the row moves to REDIRECTING and the client
// gets the payment URL.
func CreateRechargeHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}

	var req CreateRechargeRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}

	db := database.DB

	var user models.User
	if err := db.First(&user, uid).Error; err != nil {
		utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "User not found"})
		return
	}

	setting, err := models.GetSetting(db)
	if err != nil {
		log.Printf("[recharge] load settings: %v", err)
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}
	if req.Amount < setting.MinRecharge {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{
			Success: false,
			Message: fmt.Sprintf("Minimum recharge is %.0f", setting.MinRecharge),
		})
		return
	}

	phone := strings.TrimSpace(req.Phone)
	if phone == "" {
		phone = user.Number
	}

	cfg, err := utils.GetFastzixConfig()
	if err != nil {
		log.Printf("[recharge] gateway config: %v", err)
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Payment gateway is not configured"})
		return
	}

	orderID := utils.GenerateOrderID()
	recharge := models.Recharge{
		UserID:  uid,
		OrderID: orderID,
		Amount:  req.Amount,
		Phone:   phone,
		Status:  models.RechargePending,
	}
	if err := db.Create(&recharge).Error; err != nil {
		log.Printf("[recharge] create order %s: %v", orderID, err)
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Failed to create recharge order"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), utils.FastzixTimeout)
	defer cancel()

	resp, reqBody, respBody, err := utils.CreateFastzixOrder(ctx, nil, cfg, orderID, phone, uid, req.Amount)

	updates := map[string]interface{}{
		"request_payload": string(reqBody),
	}
	if len(respBody) > 0 {
		updates["response_payload"] = string(respBody)
	}

	if err != nil {
		updates["status"] = models.RechargeFailed
		if uerr := db.Model(&recharge).Updates(updates).Error; uerr != nil {
			log.Printf("[recharge] mark order %s failed: %v", orderID, uerr)
		}
		log.Printf("[recharge] gateway error for order %s: %v", orderID, err)
		if errors.Is(err, utils.ErrFastzixDeclined) {
			utils.WriteJSON(w, http.StatusBadGateway, utils.APIResponse{Success: false, Message: "Payment gateway declined the order"})
			return
		}
		utils.WriteJSON(w, http.StatusBadGateway, utils.APIResponse{Success: false, Message: "Payment gateway is unavailable, please try again"})
		return
	}

	updates["status"] = models.RechargeRedirecting
	updates["payment_url"] = resp.Result.PaymentURL
	if uerr := db.Model(&recharge).Updates(updates).Error; uerr != nil {
		log.Printf("[recharge] mark order %s redirecting: %v", orderID, uerr)
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Order created, redirecting to payment",
		Data: map[string]interface{}{
			"order_id":    orderID,
			"amount":      req.Amount,
			"payment_url": resp.Result.PaymentURL,
			"status":      models.RechargeRedirecting,
		},
	})
}

// FastzixWebhookHandler reconciles gateway callbacks. It is idempotent: a
// replayed callback for a terminal order acknowledges without touching the
// wallet, and the history insert is keyed by order_id.
func FastzixWebhookHandler(w http.ResponseWriter, r *http.Request) {
	bodyBytes, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid body"})
		return
	}

	fields, err := decodeCallbackFields(bodyBytes)
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid JSON"})
		return
	}

	cfg, err := utils.GetFastzixConfig()
	if err != nil {
		log.Printf("[webhook] gateway config: %v", err)
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}

	if !callbackSignatureOK(fields, cfg.APIKey) {
		log.Printf("[webhook] bad signature for order %q", fields["order_id"])
		utils.WriteJSON(w, http.StatusForbidden, utils.APIResponse{Success: false, Message: "Invalid signature"})
		return
	}

	orderID := strings.TrimSpace(fields["order_id"])
	if orderID == "" {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "order_id is required"})
		return
	}

	db := database.DB

	var recharge models.Recharge
	if err := db.Where("order_id = ?", orderID).First(&recharge).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "Order not found"})
			return
		}
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}

	if recharge.Status.Terminal() {
		utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Order already processed"})
		return
	}

	success := isSuccessStatus(fields["status"])

	err = db.Transaction(func(tx *gorm.DB) error {
		// Re-read under lock; a concurrent callback may have won the race.
		var locked models.Recharge
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("order_id = ?", orderID).First(&locked).Error; err != nil {
			return err
		}
		if locked.Status.Terminal() {
			return nil
		}

		updates := map[string]interface{}{
			"callback_payload": string(bodyBytes),
		}
		if !success {
			updates["status"] = models.RechargeFailed
			return tx.Model(&locked).Updates(updates).Error
		}

		updates["status"] = models.RechargeSuccess
		if err := tx.Model(&locked).Updates(updates).Error; err != nil {
			return err
		}
		return processRechargeSuccess(tx, &locked)
	})
	if err != nil {
		log.Printf("[webhook] reconcile order %s: %v", orderID, err)
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "OK"})
}

// processRechargeSuccess credits the wallet, writes the history entry keyed
// by order_id and pays referral commission. A missing user is logged but the
// order itself still settles.
func processRechargeSuccess(tx *gorm.DB, recharge *models.Recharge) error {
	var user models.User
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, recharge.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("[webhook] order %s settled for missing user %d", recharge.OrderID, recharge.UserID)
			return nil
		}
		return err
	}

	entry := models.WalletEntry{
		UserID:  user.ID,
		OrderID: recharge.OrderID,
		Amount:  recharge.Amount,
		Flow:    models.FlowCredit,
		Type:    models.EntryRecharge,
		Message: ptrString("Wallet recharge"),
		Status:  "Success",
	}
	res := tx.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "order_id"}}, DoNothing: true}).Create(&entry)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// History row already exists, the wallet was credited before.
		return nil
	}

	if err := tx.Model(&user).Updates(map[string]interface{}{
		"balance":        gorm.Expr("balance + ?", recharge.Amount),
		"total_earnings": gorm.Expr("total_earnings + ?", recharge.Amount),
	}).Error; err != nil {
		return err
	}

	return payReferralCommission(tx, &user, recharge)
}

// payReferralCommission pays up to three upline levels a percentage of the
// recharge amount, per the configured rates.
func payReferralCommission(tx *gorm.DB, user *models.User, recharge *models.Recharge) error {
	setting, err := models.GetSetting(tx)
	if err != nil {
		return err
	}
	rates := []float64{setting.Level1Percent, setting.Level2Percent, setting.Level3Percent}

	upline := user.ReffBy
	for level := 0; level < len(rates) && upline != nil; level++ {
		if rates[level] <= 0 {
			break
		}
		var ref models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&ref, *upline).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		amount := round2(recharge.Amount * rates[level] / 100)
		if amount > 0 {
			if err := tx.Model(&ref).Updates(map[string]interface{}{
				"balance":        gorm.Expr("balance + ?", amount),
				"total_earnings": gorm.Expr("total_earnings + ?", amount),
			}).Error; err != nil {
				return err
			}
			entry := models.WalletEntry{
				UserID:  ref.ID,
				OrderID: fmt.Sprintf("COM%d-%s", level+1, recharge.OrderID),
				Amount:  amount,
				Flow:    models.FlowCredit,
				Type:    models.EntryCommission,
				Message: ptrString(fmt.Sprintf("Level %d team commission", level+1)),
				Status:  "Success",
			}
			if err := tx.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "order_id"}}, DoNothing: true}).Create(&entry).Error; err != nil {
				return err
			}
		}
		upline = ref.ReffBy
	}
	return nil
}

// ListRechargesHandler returns the caller's recharge orders, newest first.
func ListRechargesHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}

	page, limit := parsePagination(r, 10, 50)
	db := database.DB

	var total int64
	q := db.Model(&models.Recharge{}).Where("user_id = ?", uid)
	if status := strings.TrimSpace(r.URL.Query().Get("status")); status != "" {
		q = q.Where("status = ?", strings.ToUpper(status))
	}
	if err := q.Count(&total).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}

	var recharges []models.Recharge
	if err := q.Order("created_at DESC").Offset((page - 1) * limit).Limit(limit).Find(&recharges).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Successfully",
		Data: map[string]interface{}{
			"recharges": recharges,
			"pagination": map[string]interface{}{
				"page":       page,
				"limit":      limit,
				"total":      total,
				"total_page": int(math.Ceil(float64(total) / float64(limit))),
			},
		},
	})
}

// decodeCallbackFields flattens the top-level JSON object into strings,
// preserving the exact textual form of numbers so signatures match.
func decodeCallbackFields(body []byte) (map[string]string, error) {
	dec := json.NewDecoder(strings.NewReader(string(body)))
	dec.UseNumber()
	var raw map[string]interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	fields := make(map[string]string, len(raw))
	for k, v := range raw {
		switch t := v.(type) {
		case string:
			fields[k] = t
		case json.Number:
			fields[k] = t.String()
		case bool:
			fields[k] = strconv.FormatBool(t)
		case nil:
			fields[k] = ""
		default:
			b, _ := json.Marshal(t)
			fields[k] = string(b)
		}
	}
	return fields, nil
}

// callbackSignatureOK checks X-VERIFY material carried in the body. Fastzix
// does not sign every delivery; unsigned callbacks are accepted with a
// warning, a present signature must verify.
func callbackSignatureOK(fields map[string]string, secret string) bool {
	sig := fields["signature"]
	if sig == "" {
		log.Printf("[webhook] unsigned callback for order %q", fields["order_id"])
		return true
	}
	return utils.VerifySignature(fields, sig, secret)
}

// isSuccessStatus accepts the status spellings Fastzix has been seen to send.
func isSuccessStatus(status string) bool {
	switch strings.ToUpper(strings.TrimSpace(status)) {
	case "SUCCESS", "TXN_SUCCESS", "COMPLETED", "PAID":
		return true
	}
	return false
}

func parsePagination(r *http.Request, defLimit, maxLimit int) (int, int) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 {
		limit = defLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}

// ptrString returns a pointer to the given string.
func ptrString(s string) *string {
	return &s
}
