package users

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"bajaj/database"
	"bajaj/models"
	"bajaj/utils"

	"github.com/gorilla/mux"
)

// TeamHandler returns the caller's 3-level downline: member counts, total
// recharge volume and commission earned per level. With {level} in the path
// it also returns that level's member list.
func TeamHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}

	db := database.DB

	levelStr := mux.Vars(r)["level"]
	level, levelErr := strconv.Atoi(levelStr)
	hasLevel := levelErr == nil && level >= 1 && level <= 3

	childrenOf := func(parentIDs []uint) ([]models.User, error) {
		var users []models.User
		if len(parentIDs) == 0 {
			return users, nil
		}
		err := db.Where("reff_by IN ?", parentIDs).Find(&users).Error
		return users, err
	}

	var level1 []models.User
	if err := db.Where("reff_by = ?", uid).Find(&level1).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "DB error"})
		return
	}
	level2, err := childrenOf(idsOf(level1))
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "DB error"})
		return
	}
	level3, err := childrenOf(idsOf(level2))
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "DB error"})
		return
	}

	levels := [][]models.User{level1, level2, level3}

	summary := func(n int, users []models.User) map[string]interface{} {
		var recharge float64
		active := 0
		ids := idsOf(users)
		if len(ids) > 0 {
			db.Model(&models.Recharge{}).
				Where("user_id IN ? AND status = ?", ids, models.RechargeSuccess).
				Select("COALESCE(SUM(amount),0)").Scan(&recharge)
		}
		for _, u := range users {
			if u.Status == "Active" {
				active++
			}
		}
		var commission float64
		db.Model(&models.WalletEntry{}).
			Where("user_id = ? AND type = ? AND order_id LIKE ?", uid, models.EntryCommission, "COM"+strconv.Itoa(n)+"-%").
			Select("COALESCE(SUM(amount),0)").Scan(&commission)
		return map[string]interface{}{
			"count":          len(users),
			"active":         active,
			"total_recharge": recharge,
			"commission":     commission,
		}
	}

	if hasLevel {
		users := levels[level-1]

		if search := strings.TrimSpace(r.URL.Query().Get("search")); search != "" {
			filtered := users[:0:0]
			for _, u := range users {
				if strings.Contains(strings.ToLower(u.Name), strings.ToLower(search)) ||
					strings.Contains(u.Number, search) {
					filtered = append(filtered, u)
				}
			}
			users = filtered
		}
		if status := strings.TrimSpace(r.URL.Query().Get("status")); status != "" {
			filtered := users[:0:0]
			for _, u := range users {
				if strings.EqualFold(u.Status, status) {
					filtered = append(filtered, u)
				}
			}
			users = filtered
		}

		page, limit := parsePagination(r, 10, 100)
		total := len(users)
		start := (page - 1) * limit
		if start > total {
			start = total
		}
		end := start + limit
		if end > total {
			end = total
		}

		members := make([]map[string]interface{}, 0, end-start)
		for _, u := range users[start:end] {
			members = append(members, map[string]interface{}{
				"name":      u.Name,
				"number":    maskNumber(u.Number),
				"status":    u.Status,
				"joined_at": u.CreatedAt,
			})
		}
		utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
			Success: true,
			Message: "Successfully",
			Data: map[string]interface{}{
				"level":   level,
				"summary": summary(level, levels[level-1]),
				"members": members,
				"pagination": map[string]interface{}{
					"page":        page,
					"limit":       limit,
					"total_rows":  total,
					"total_pages": int(math.Ceil(float64(total) / float64(limit))),
				},
			},
		})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Successfully",
		Data: map[string]interface{}{
			"level1": summary(1, level1),
			"level2": summary(2, level2),
			"level3": summary(3, level3),
			"total":  len(level1) + len(level2) + len(level3),
		},
	})
}

func idsOf(users []models.User) []uint {
	ids := make([]uint, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids
}

func maskNumber(number string) string {
	if len(number) <= 4 {
		return number
	}
	return number[:2] + "****" + number[len(number)-2:]
}
