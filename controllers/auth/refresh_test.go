package auth

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"bajaj/database"
	"bajaj/models"
	"bajaj/utils"

	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

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
	if err := db.AutoMigrate(&models.User{}, &models.RefreshToken{}); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	database.DB = db
	t.Setenv("JWT_SECRET", "test-secret")
	return db
}

// Rotation must be atomic: revoking the old token and inserting the new one
// happen in one transaction, so a rollback leaves no new token behind.
func TestGenerateRefreshTokenTx_WritesThroughTransaction(t *testing.T) {
	db := openTestDB(t)

	tx := db.Begin()
	jti, err := utils.GenerateRefreshTokenTx(tx, 1)
	if err != nil {
		tx.Rollback()
		t.Fatalf("generate: %v", err)
	}
	tx.Rollback()

	var count int64
	if err := db.Model(&models.RefreshToken{}).Where("id = ?", jti).Count(&count).Error; err != nil {
		t.Fatalf("count tokens: %v", err)
	}
	if count != 0 {
		t.Fatalf("rolled-back token persisted, count = %d", count)
	}
}

func TestRefreshHandler_RotatesToken(t *testing.T) {
	db := openTestDB(t)

	user := models.User{
		Name:     "Test User",
		Number:   fmt.Sprintf("8%012d", time.Now().UnixNano()%1_000_000_000_000),
		Password: "x",
		ReffCode: fmt.Sprintf("R%d", time.Now().UnixNano()%100_000_000),
		Status:   "Active",
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	oldJTI, err := utils.GenerateRefreshToken(user.ID)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	body, _ := json.Marshal(map[string]string{"refresh_token": oldJTI})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/refresh", bytes.NewReader(body))
	RefreshHandler(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var old models.RefreshToken
	if err := db.First(&old, "id = ?", oldJTI).Error; err != nil {
		t.Fatalf("reload old token: %v", err)
	}
	if !old.Revoked {
		t.Fatal("old refresh token not revoked after rotation")
	}

	var resp struct {
		Data struct {
			RefreshToken string `json:"refresh_token"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.RefreshToken == "" || resp.Data.RefreshToken == oldJTI {
		t.Fatalf("rotation did not issue a new token: %q", resp.Data.RefreshToken)
	}
	var live models.RefreshToken
	if err := db.First(&live, "id = ?", resp.Data.RefreshToken).Error; err != nil {
		t.Fatalf("new token row missing: %v", err)
	}
	if live.Revoked || live.UserID != user.ID {
		t.Fatalf("new token state wrong: revoked=%v user=%d", live.Revoked, live.UserID)
	}
}
