package controllers

import (
	"net/http"

	"bajaj/database"
	"bajaj/models"
	"bajaj/utils"
)

// ProductListHandler returns all active investment plans, cheapest first.
func ProductListHandler(w http.ResponseWriter, r *http.Request) {
	db := database.DB

	var products []models.Product
	if err := db.Where("status = ?", "Active").Order("price ASC, id ASC").Find(&products).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Something went wrong, please try again"})
		return
	}

	type productDTO struct {
		ID            uint    `json:"id"`
		Name          string  `json:"name"`
		Price         float64 `json:"price"`
		DailyEarnings float64 `json:"daily_earnings"`
		Duration      int     `json:"duration"`
		TotalRevenue  float64 `json:"total_revenue"`
		Image         *string `json:"image,omitempty"`
	}
	items := make([]productDTO, 0, len(products))
	for _, p := range products {
		items = append(items, productDTO{
			ID:            p.ID,
			Name:          p.Name,
			Price:         p.Price,
			DailyEarnings: p.DailyEarnings,
			Duration:      p.Duration,
			TotalRevenue:  p.TotalRevenue,
			Image:         p.Image,
		})
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Products retrieved",
		Data:    map[string]interface{}{"products": items},
	})
}
