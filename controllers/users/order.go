package users

import (
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"
	"os"
	"time"

	"bajaj/database"
	"bajaj/middleware"
	"bajaj/models"
	"bajaj/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CreateOrderRequest struct {
	ProductID uint `json:"product_id"`
}

// CreateOrderHandler buys a product with wallet balance. The debit and the
// order row are written in one transaction under a user row lock.
func CreateOrderHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}

	var req CreateOrderRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}
	if req.ProductID == 0 {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "product_id is required"})
		return
	}

	db := database.DB

	var product models.Product
	if err := db.Where("id = ? AND status = ?", req.ProductID, "Active").First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "Product not found"})
			return
		}
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}

	orderID := utils.GenerateOrderID()
	nextPayout := time.Now().Add(24 * time.Hour)

	var order models.Order
	err := db.Transaction(func(tx *gorm.DB) error {
		var lockedUser models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&lockedUser, uid).Error; err != nil {
			return err
		}
		if lockedUser.Balance < product.Price {
			return errInsufficientBalance
		}
		if err := tx.Model(&lockedUser).Update("balance", round2(lockedUser.Balance-product.Price)).Error; err != nil {
			return err
		}

		order = models.Order{
			UserID:        uid,
			ProductID:     product.ID,
			OrderID:       orderID,
			Amount:        product.Price,
			DailyEarnings: product.DailyEarnings,
			Duration:      product.Duration,
			NextPayoutAt:  &nextPayout,
			Status:        "Running",
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		entry := models.WalletEntry{
			UserID:  uid,
			OrderID: orderID,
			Amount:  product.Price,
			Flow:    models.FlowDebit,
			Type:    models.EntryPurchase,
			Message: ptrString(fmt.Sprintf("Purchase of %s", product.Name)),
			Status:  "Success",
		}
		return tx.Create(&entry).Error
	})
	if err != nil {
		if errors.Is(err, errInsufficientBalance) {
			utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Insufficient balance"})
			return
		}
		log.Printf("[order] create %s: %v", orderID, err)
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}

	utils.WriteJSON(w, http.StatusCreated, utils.APIResponse{
		Success: true,
		Message: "Purchase successful",
		Data: map[string]interface{}{
			"order": map[string]interface{}{
				"order_id":       order.OrderID,
				"product":        product.Name,
				"amount":         order.Amount,
				"daily_earnings": order.DailyEarnings,
				"duration":       order.Duration,
				"status":         order.Status,
			},
		},
	})
}

// ListOrdersHandler returns the caller's product positions.
func ListOrdersHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}

	page, limit := parsePagination(r, 10, 50)
	db := database.DB

	var total int64
	if err := db.Model(&models.Order{}).Where("user_id = ?", uid).Count(&total).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}

	var orders []models.Order
	if err := db.Preload("Product").Where("user_id = ?", uid).
		Order("id DESC").Offset((page - 1) * limit).Limit(limit).Find(&orders).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Successfully",
		Data: map[string]interface{}{
			"orders": orders,
			"pagination": map[string]interface{}{
				"page":       page,
				"limit":      limit,
				"total":      total,
				"total_page": int(math.Ceil(float64(total) / float64(limit))),
			},
		},
	})
}

// CronDailyEarningsHandler credits daily earnings for running orders whose
// next payout is due. Guarded by X-CRON-KEY; each order is settled in its
// own transaction so one bad row does not stall the batch.
func CronDailyEarningsHandler(w http.ResponseWriter, r *http.Request) {
	cronKey := os.Getenv("CRON_KEY")
	if cronKey == "" || r.Header.Get("X-CRON-KEY") != cronKey {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}

	db := database.DB
	now := time.Now()

	var due []models.Order
	if err := db.Where("status = ? AND next_payout_at <= ?", "Running", now).Find(&due).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}

	paid, failed := 0, 0
	for i := range due {
		order := due[i]
		err := db.Transaction(func(tx *gorm.DB) error {
			var locked models.Order
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&locked, order.ID).Error; err != nil {
				return err
			}
			// Re-check under lock; a concurrent run may have paid already.
			if locked.Status != "Running" || locked.NextPayoutAt == nil || locked.NextPayoutAt.After(now) {
				return nil
			}

			var user models.User
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, locked.UserID).Error; err != nil {
				return err
			}

			amount := locked.DailyEarnings
			if err := tx.Model(&user).Updates(map[string]interface{}{
				"balance":        gorm.Expr("balance + ?", amount),
				"total_earnings": gorm.Expr("total_earnings + ?", amount),
			}).Error; err != nil {
				return err
			}

			entry := models.WalletEntry{
				UserID:  user.ID,
				OrderID: fmt.Sprintf("ERN%d-%s", locked.DaysPaid+1, locked.OrderID),
				Amount:  amount,
				Flow:    models.FlowCredit,
				Type:    models.EntryEarning,
				Message: ptrString("Daily product earnings"),
				Status:  "Success",
			}
			if err := tx.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "order_id"}}, DoNothing: true}).Create(&entry).Error; err != nil {
				return err
			}

			updates := map[string]interface{}{
				"days_paid":    locked.DaysPaid + 1,
				"total_earned": round2(locked.TotalEarned + amount),
			}
			if locked.DaysPaid+1 >= locked.Duration {
				updates["status"] = "Completed"
				updates["next_payout_at"] = nil
			} else {
				updates["next_payout_at"] = locked.NextPayoutAt.Add(24 * time.Hour)
			}
			return tx.Model(&locked).Updates(updates).Error
		})
		if err != nil {
			failed++
			log.Printf("[cron] order %s payout: %v", order.OrderID, err)
			continue
		}
		paid++
	}

	log.Printf("[cron] daily earnings: %d due, %d paid, %d failed", len(due), paid, failed)
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Cron completed",
		Data:    map[string]interface{}{"due": len(due), "paid": paid, "failed": failed},
	})
}
