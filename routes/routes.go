package routes

import (
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"time"

	"bajaj/controllers"
	"bajaj/controllers/users"
	"bajaj/middleware"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

func optionsHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
		"service":   "bajaj-api",
	})
}

func InitRouter() *mux.Router {
	r := mux.NewRouter()

	// Health check endpoint for Docker health checks (root level)
	r.Handle("/health", http.HandlerFunc(healthHandler)).Methods(http.MethodGet)

	// CORS - origins from CORS_ALLOWED_ORIGINS (comma-separated) or defaults
	origins := []string{
		"http://localhost:3000", "http://localhost:8080",
		"http://127.0.0.1:3000", "http://127.0.0.1:8080",
	}
	if originsEnv := os.Getenv("CORS_ALLOWED_ORIGINS"); originsEnv != "" {
		for _, p := range strings.Split(originsEnv, ",") {
			if o := strings.TrimSpace(p); o != "" {
				origins = append(origins, o)
			}
		}
	}
	r.Use(func(next http.Handler) http.Handler {
		return handlers.CORS(
			handlers.AllowedOrigins(origins),
			handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"}),
			handlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-VERIFY", "X-CRON-KEY", "X-Requested-With", "X-Request-ID"}),
			handlers.AllowCredentials(),
		)(next)
	})

	api := r.PathPrefix("/v1").Subrouter()

	// Catch-all OPTIONS handler for CORS preflight
	api.PathPrefix("/").HandlerFunc(optionsHandler).Methods(http.MethodOptions)

	// Cron limiter: 1000/hour per IP
	cronLimiter := middleware.NewIPRateLimiter(1000, time.Hour)
	// Webhook limiter: 500/hour per IP, whitelist, sliding window
	webhookWhitelist := []string{"127.0.0.1"}
	if wl := os.Getenv("WEBHOOK_IP_WHITELIST"); wl != "" {
		for _, p := range strings.Split(wl, ",") {
			if ip := strings.TrimSpace(p); ip != "" {
				webhookWhitelist = append(webhookWhitelist, ip)
			}
		}
	}
	webhookLimiter := middleware.NewWebhookLimiter(500, time.Hour, webhookWhitelist)

	// Payment gateway callback
	api.Handle("/callback/payments", webhookLimiter.Middleware(http.HandlerFunc(users.FastzixWebhookHandler))).Methods(http.MethodPost)

	// Cron endpoint for daily earnings (protected via X-CRON-KEY header)
	api.Handle("/cron/daily-earnings", cronLimiter.Middleware(http.HandlerFunc(users.CronDailyEarningsHandler))).Methods(http.MethodPost)

	// Public: active product catalog
	api.Handle("/products", http.HandlerFunc(controllers.ProductListHandler)).Methods(http.MethodGet)

	api.Handle("/health", http.HandlerFunc(healthHandler)).Methods(http.MethodGet)

	UsersRoutes(api)

	return r
}
