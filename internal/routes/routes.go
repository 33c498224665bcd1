package routes

import (
	"net/http"

	"github.com/amellin794/delish/internal/app"
	"github.com/amellin794/delish/internal/handler"
	"github.com/amellin794/delish/internal/middleware"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	list := handler.NewListHandler(app.ListService)
	storefront := handler.NewStorefrontHandler(app.ListService)
	checkout := handler.NewCheckoutHandler(app.ListService, app.CheckoutService, app.PaymentService, app.Users)
	unlock := handler.NewUnlockHandler(app.UnlockService)
	access := handler.NewAccessHandler(app.AccessService)
	webhook := handler.NewWebhookHandler(app.PaymentService)
	payments := handler.NewPaymentsHandler(app.PaymentService, app.Users)

	mux := http.NewServeMux()

	// ============================================================================
	// PUBLIC ROUTES
	// ============================================================================

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Storefront
	mux.HandleFunc("GET /l/{slug}", storefront.Show)

	// Checkout
	mux.HandleFunc("POST /checkout", checkout.CreateCheckout)
	mux.HandleFunc("GET /checkout/session", checkout.SessionStatus)

	// Token redemption (rate limited)
	unlockLimiter := middleware.RateLimitUnlock()
	resendLimiter := middleware.RateLimitResend()

	mux.HandleFunc("GET /unlock/{token}", unlockLimiter(unlock.Unlock))
	mux.HandleFunc("POST /access/resend", resendLimiter(access.Resend))
	mux.HandleFunc("GET /access/{token}", unlockLimiter(access.Show))

	// ============================================================================
	// PROTECTED ROUTES (/app/*)
	// ============================================================================

	// Lists
	mux.HandleFunc("GET /app/lists", middleware.RequireAuth(list.Lists))
	mux.HandleFunc("POST /app/lists", middleware.RequireAuth(list.Create))
	mux.HandleFunc("GET /app/lists/{id}", middleware.RequireAuth(list.Show))
	mux.HandleFunc("PATCH /app/lists/{id}", middleware.RequireAuth(list.Update))
	mux.HandleFunc("DELETE /app/lists/{id}", middleware.RequireAuth(list.Delete))
	mux.HandleFunc("POST /app/lists/{id}/publish", middleware.RequireAuth(list.Publish))
	mux.HandleFunc("POST /app/lists/{id}/unpublish", middleware.RequireAuth(list.Unpublish))
	mux.HandleFunc("POST /app/lists/{id}/cover", middleware.RequireAuth(list.UploadCover))

	// Payout onboarding
	mux.HandleFunc("POST /app/payments/connect", middleware.RequireAuth(payments.Connect))

	// ============================================================================
	// WEBHOOKS
	// ============================================================================

	// Payment provider webhook (works with both Polar and Stripe)
	mux.HandleFunc("POST /webhooks/payment", webhook.Webhook)

	// Global middleware - executed in order (top to bottom)
	handler := middleware.Chain(
		mux,
		middleware.Config(app.Cfg),
		middleware.RequestLogging,
		middleware.AuthMiddleware(app.Cfg.JWTSecret, app.Users),
	)

	return handler
}
