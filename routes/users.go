package routes

import (
	"net/http"
	"time"

	"bajaj/controllers/auth"
	"bajaj/controllers/users"
	"bajaj/middleware"

	"github.com/gorilla/mux"
)

// UsersRoutes registers auth and user endpoints on the given subrouter.
func UsersRoutes(api *mux.Router) {
	// Login/register limiter: 60 per IP per 5 minutes
	loginLimiter := middleware.NewIPRateLimiter(60, 5*time.Minute)
	// General session limiter: 120 per IP per minute
	userLimiter := middleware.NewIPRateLimiter(120, time.Minute)

	authed := func(h http.HandlerFunc) http.Handler {
		return userLimiter.Middleware(middleware.AuthMiddleware(h))
	}

	// Register & Login
	api.Handle("/auth/register", loginLimiter.Middleware(http.HandlerFunc(auth.RegisterHandler))).Methods(http.MethodPost)
	api.Handle("/auth/login", loginLimiter.Middleware(http.HandlerFunc(auth.LoginHandler))).Methods(http.MethodPost)
	api.Handle("/auth/refresh", loginLimiter.Middleware(http.HandlerFunc(auth.RefreshHandler))).Methods(http.MethodPost)
	api.Handle("/auth/logout", authed(auth.LogoutHandler)).Methods(http.MethodPost)
	api.Handle("/auth/logout-all", authed(auth.LogoutAllHandler)).Methods(http.MethodPost)

	// Account
	api.Handle("/users/info", authed(users.InfoHandler)).Methods(http.MethodGet)
	api.Handle("/users/change-password", authed(users.ChangePasswordHandler)).Methods(http.MethodPut)
	api.Handle("/users/profile", authed(users.GetProfileHandler)).Methods(http.MethodGet)
	api.Handle("/users/profile", authed(users.UpdateProfileHandler)).Methods(http.MethodPut)

	// Wallet recharge via payment gateway
	api.Handle("/users/recharge", authed(users.CreateRechargeHandler)).Methods(http.MethodPost)
	api.Handle("/users/recharge", authed(users.ListRechargesHandler)).Methods(http.MethodGet)

	// Withdrawals
	api.Handle("/users/withdrawal", authed(users.WithdrawalHandler)).Methods(http.MethodPost)
	api.Handle("/users/withdrawal", authed(users.ListWithdrawalHandler)).Methods(http.MethodGet)

	// Daily check-in
	api.Handle("/users/check-in", authed(users.CheckinHandler)).Methods(http.MethodPost)
	api.Handle("/users/check-in", authed(users.CheckinStatusHandler)).Methods(http.MethodGet)

	// Product orders
	api.Handle("/users/orders", authed(users.CreateOrderHandler)).Methods(http.MethodPost)
	api.Handle("/users/orders", authed(users.ListOrdersHandler)).Methods(http.MethodGet)

	// Referral team
	api.Handle("/users/team", authed(users.TeamHandler)).Methods(http.MethodGet)
	api.Handle("/users/team/{level:[1-3]}", authed(users.TeamHandler)).Methods(http.MethodGet)

	// Bank account
	api.Handle("/users/bank", authed(users.SaveBankAccountHandler)).Methods(http.MethodPost)
	api.Handle("/users/bank", authed(users.GetBankAccountHandler)).Methods(http.MethodGet)

	// Wallet history
	api.Handle("/users/transactions", authed(users.ListWalletEntriesHandler)).Methods(http.MethodGet)
}
