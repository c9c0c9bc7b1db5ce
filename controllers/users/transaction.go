package users

import (
	"math"
	"net/http"
	"strings"
	"time"

	"bajaj/database"
	"bajaj/models"
	"bajaj/utils"
)

var knownEntryTypes = map[string]bool{
	models.EntryRecharge:   true,
	models.EntryWithdraw:   true,
	models.EntryPurchase:   true,
	models.EntryEarning:    true,
	models.EntryCheckin:    true,
	models.EntryCommission: true,
	models.EntryBonus:      true,
}

// ListWalletEntriesHandler returns the caller's wallet history, newest first.
// Optional filters: ?type=recharge|withdraw|purchase|earning|checkin|commission|bonus,
// ?flow=credit|debit, ?search= matches order_id.
func ListWalletEntriesHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}

	entryType := strings.TrimSpace(r.URL.Query().Get("type"))
	if entryType != "" && !knownEntryTypes[entryType] {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Unknown transaction type"})
		return
	}
	flow := strings.TrimSpace(r.URL.Query().Get("flow"))
	if flow != "" && flow != models.FlowCredit && flow != models.FlowDebit {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Flow must be credit or debit"})
		return
	}
	search := strings.TrimSpace(r.URL.Query().Get("search"))
	page, limit := parsePagination(r, 10, 100)

	db := database.DB
	base := db.Model(&models.WalletEntry{}).Where("user_id = ?", uid)
	if entryType != "" {
		base = base.Where("type = ?", entryType)
	}
	if flow != "" {
		base = base.Where("flow = ?", flow)
	}
	if search != "" {
		base = base.Where("order_id LIKE ?", "%"+search+"%")
	}

	var totalRows int64
	if err := base.Count(&totalRows).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Database error"})
		return
	}

	query := db.Where("user_id = ?", uid)
	if entryType != "" {
		query = query.Where("type = ?", entryType)
	}
	if flow != "" {
		query = query.Where("flow = ?", flow)
	}
	if search != "" {
		query = query.Where("order_id LIKE ?", "%"+search+"%")
	}
	var entries []models.WalletEntry
	if err := query.Order("id DESC").Limit(limit).Offset((page - 1) * limit).Find(&entries).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Database error"})
		return
	}

	type entryDTO struct {
		ID        uint    `json:"id"`
		OrderID   string  `json:"order_id"`
		Amount    float64 `json:"amount"`
		Flow      string  `json:"flow"`
		Type      string  `json:"type"`
		Message   *string `json:"message,omitempty"`
		Status    string  `json:"status"`
		CreatedAt string  `json:"created_at"`
	}
	items := make([]entryDTO, 0, len(entries))
	for _, e := range entries {
		items = append(items, entryDTO{
			ID:        e.ID,
			OrderID:   e.OrderID,
			Amount:    e.Amount,
			Flow:      e.Flow,
			Type:      e.Type,
			Message:   e.Message,
			Status:    e.Status,
			CreatedAt: e.CreatedAt.Format(time.RFC3339),
		})
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Transactions retrieved",
		Data: map[string]interface{}{
			"transactions": items,
			"pagination": map[string]interface{}{
				"page":        page,
				"limit":       limit,
				"total_rows":  totalRows,
				"total_pages": int(math.Ceil(float64(totalRows) / float64(limit))),
			},
		},
	})
}
