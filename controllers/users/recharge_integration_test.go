package users

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"bajaj/database"
	"bajaj/models"
	"bajaj/utils"

	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testAPIKey = "test-api-key"

var seedSeq uint64

// openTestDB connects to the database named by TEST_DATABASE_DSN and wires
// it into the package-level handle. Skipped when the variable is unset.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set")
	}
	db, err := gorm.Open(gormmysql.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Product{}, &models.Order{}, &models.Recharge{}, &models.WalletEntry{}, &models.Withdrawal{}, &models.BankAccount{}, &models.Setting{}); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	database.DB = db

	t.Setenv("FASTZIX_MERCH_ID", "MTEST")
	t.Setenv("FASTZIX_API_KEY", testAPIKey)
	t.Setenv("FASTZIX_REDIRECT_URL", "https://example.com/wallet")
	return db
}

func seedUser(t *testing.T, db *gorm.DB, balance float64) *models.User {
	t.Helper()
	n := atomic.AddUint64(&seedSeq, 1)
	user := models.User{
		Name:     "Test User",
		Number:   fmt.Sprintf("9%09d%d", time.Now().UnixNano()%1_000_000_000, n),
		Password: "x",
		ReffCode: fmt.Sprintf("T%d%d", time.Now().UnixNano()%100_000_000, n),
		Balance:  balance,
		Status:   "Active",
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return &user
}

func seedRecharge(t *testing.T, db *gorm.DB, userID uint, amount float64) *models.Recharge {
	t.Helper()
	rec := models.Recharge{
		UserID:  userID,
		OrderID: utils.GenerateOrderID(),
		Amount:  amount,
		Phone:   "9000000000",
		Status:  models.RechargeRedirecting,
	}
	if err := db.Create(&rec).Error; err != nil {
		t.Fatalf("seed recharge: %v", err)
	}
	return &rec
}

func signedCallback(t *testing.T, fields map[string]string) []byte {
	t.Helper()
	payload := make(map[string]string, len(fields)+1)
	for k, v := range fields {
		payload[k] = v
	}
	payload["signature"] = utils.SignPayload(fields, testAPIKey)
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal callback: %v", err)
	}
	return body
}

func postCallback(body []byte) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/callback/payments", bytes.NewReader(body))
	FastzixWebhookHandler(rec, req)
	return rec
}

func TestFastzixWebhook_DoubleDeliveryCreditsOnce(t *testing.T) {
	db := openTestDB(t)
	user := seedUser(t, db, 0)
	recharge := seedRecharge(t, db, user.ID, 500)

	body := signedCallback(t, map[string]string{
		"status":   "SUCCESS",
		"order_id": recharge.OrderID,
		"amount":   "500.00",
	})

	for i := 0; i < 2; i++ {
		if rec := postCallback(body); rec.Code != http.StatusOK {
			t.Fatalf("delivery %d: status %d, body %s", i+1, rec.Code, rec.Body.String())
		}
	}

	var got models.User
	if err := db.First(&got, user.ID).Error; err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if got.Balance != 500 {
		t.Fatalf("balance = %v, want exactly one credit of 500", got.Balance)
	}
	if got.TotalEarnings != 500 {
		t.Fatalf("total_earnings = %v, want 500", got.TotalEarnings)
	}

	var entries int64
	if err := db.Model(&models.WalletEntry{}).Where("order_id = ?", recharge.OrderID).Count(&entries).Error; err != nil {
		t.Fatalf("count entries: %v", err)
	}
	if entries != 1 {
		t.Fatalf("wallet entries = %d, want 1", entries)
	}

	var settled models.Recharge
	if err := db.Where("order_id = ?", recharge.OrderID).First(&settled).Error; err != nil {
		t.Fatalf("reload recharge: %v", err)
	}
	if settled.Status != models.RechargeSuccess {
		t.Fatalf("recharge status = %s, want SUCCESS", settled.Status)
	}
}

func TestFastzixWebhook_UnknownOrderNoMutation(t *testing.T) {
	db := openTestDB(t)

	orderID := "ORD0000000000000000000"
	body := signedCallback(t, map[string]string{
		"status":   "SUCCESS",
		"order_id": orderID,
		"amount":   "500.00",
	})

	if rec := postCallback(body); rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404; body %s", rec.Code, rec.Body.String())
	}

	var entries int64
	if err := db.Model(&models.WalletEntry{}).Where("order_id = ?", orderID).Count(&entries).Error; err != nil {
		t.Fatalf("count entries: %v", err)
	}
	if entries != 0 {
		t.Fatalf("wallet entries = %d for unknown order, want 0", entries)
	}
}

func TestFastzixWebhook_FailedStatusNoCredit(t *testing.T) {
	db := openTestDB(t)
	user := seedUser(t, db, 0)
	recharge := seedRecharge(t, db, user.ID, 300)

	body := signedCallback(t, map[string]string{
		"status":   "FAILED",
		"order_id": recharge.OrderID,
		"amount":   "300.00",
	})

	if rec := postCallback(body); rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var settled models.Recharge
	if err := db.Where("order_id = ?", recharge.OrderID).First(&settled).Error; err != nil {
		t.Fatalf("reload recharge: %v", err)
	}
	if settled.Status != models.RechargeFailed {
		t.Fatalf("recharge status = %s, want FAILED", settled.Status)
	}

	var got models.User
	if err := db.First(&got, user.ID).Error; err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if got.Balance != 0 {
		t.Fatalf("balance = %v after failed callback, want 0", got.Balance)
	}
	var entries int64
	if err := db.Model(&models.WalletEntry{}).Where("order_id = ?", recharge.OrderID).Count(&entries).Error; err != nil {
		t.Fatalf("count entries: %v", err)
	}
	if entries != 0 {
		t.Fatalf("wallet entries = %d after failed callback, want 0", entries)
	}
}

func TestFastzixWebhook_UnsignedCallbackSettles(t *testing.T) {
	db := openTestDB(t)
	user := seedUser(t, db, 0)
	recharge := seedRecharge(t, db, user.ID, 200)

	body, err := json.Marshal(map[string]string{
		"status":   "SUCCESS",
		"order_id": recharge.OrderID,
		"amount":   "200.00",
	})
	if err != nil {
		t.Fatalf("marshal callback: %v", err)
	}

	if rec := postCallback(body); rec.Code != http.StatusOK {
		t.Fatalf("unsigned callback: status = %d, body %s", rec.Code, rec.Body.String())
	}

	var got models.User
	if err := db.First(&got, user.ID).Error; err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if got.Balance != 200 {
		t.Fatalf("balance = %v, want 200", got.Balance)
	}
}

func TestFastzixWebhook_BadSignatureRejectedBeforeLookup(t *testing.T) {
	openTestDB(t)

	body, err := json.Marshal(map[string]string{
		"status":    "SUCCESS",
		"order_id":  "ORD0000000000000000001",
		"amount":    "100.00",
		"signature": "deadbeef",
	})
	if err != nil {
		t.Fatalf("marshal callback: %v", err)
	}
	if rec := postCallback(body); rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403; body %s", rec.Code, rec.Body.String())
	}
}

func TestWithdrawal_OnePerDay(t *testing.T) {
	db := openTestDB(t)
	t.Setenv("JWT_SECRET", "test-secret")
	user := seedUser(t, db, 2000)
	if err := db.Create(&models.BankAccount{
		UserID:        user.ID,
		HolderName:    "Test User",
		AccountNumber: "123456789012",
		IFSCCode:      "HDFC0ABC123",
		BankName:      "HDFC",
	}).Error; err != nil {
		t.Fatalf("seed bank account: %v", err)
	}

	post := func() *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/users/withdrawal", bytes.NewReader([]byte(`{"amount":500}`)))
		req.Header.Set("Content-Type", "application/json")
		req = req.WithContext(context.WithValue(req.Context(), utils.UserIDKey, user.ID))
		WithdrawalHandler(rec, req)
		return rec
	}

	if rec := post(); rec.Code != http.StatusCreated {
		t.Fatalf("first withdrawal: status = %d, body %s", rec.Code, rec.Body.String())
	}
	if rec := post(); rec.Code != http.StatusBadRequest {
		t.Fatalf("second same-day withdrawal: status = %d, want 400; body %s", rec.Code, rec.Body.String())
	}

	var count int64
	if err := db.Model(&models.Withdrawal{}).Where("user_id = ?", user.ID).Count(&count).Error; err != nil {
		t.Fatalf("count withdrawals: %v", err)
	}
	if count != 1 {
		t.Fatalf("withdrawals = %d, want 1", count)
	}
}
