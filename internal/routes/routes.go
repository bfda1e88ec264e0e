package routes

import (
	"net/http"
	"time"

	"github.com/aicrypto/predictor/internal/app"
	"github.com/aicrypto/predictor/internal/handler"
	"github.com/aicrypto/predictor/internal/middleware"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	health := handler.NewHealthHandler(app.Cfg.AppName, app.Cfg.AppVersion, app.Ping)
	auth := handler.NewAuthHandler(app.AuthService)
	predict := handler.NewPredictHandler(app.MarketService, app.AccountService)
	billing := handler.NewBillingHandler(app.BillingService)
	webhook := handler.NewWebhookHandler(app.BillingService)

	requireAuth := middleware.RequireAuth(app.AuthService)

	mux := http.NewServeMux()

	// ============================================================================
	// PUBLIC ROUTES
	// ============================================================================

	mux.HandleFunc("GET /{$}", health.Root)
	mux.HandleFunc("GET /healthz", health.Healthz)
	mux.HandleFunc("GET /version", health.Version)
	mux.Handle("GET /metrics", app.Metrics.Handler())

	// Auth - OTP flow (rate limited per IP on top of the per-email resend window)
	trustProxy := app.Cfg.TrustProxy
	mux.HandleFunc("POST /send-otp", middleware.RateLimit(5, 15*time.Minute, trustProxy)(auth.SendOTP))
	mux.HandleFunc("POST /verify-otp", middleware.RateLimit(10, 15*time.Minute, trustProxy)(auth.VerifyOTP))

	// Market signals
	mux.HandleFunc("GET /predict", predict.Predict)

	// ============================================================================
	// PROTECTED ROUTES
	// ============================================================================

	mux.HandleFunc("POST /billing/checkout", requireAuth(billing.CreateCheckout))

	// ============================================================================
	// WEBHOOKS
	// ============================================================================

	// Payment provider webhook (works with both Polar and Stripe)
	mux.HandleFunc("POST /stripe-webhook", webhook.Webhook)
	mux.HandleFunc("POST /webhooks/payment", webhook.Webhook)

	// ============================================================================
	// FALLBACK
	// ============================================================================

	mux.HandleFunc("/{path...}", health.NotFound)

	// Global middleware - executed in order (top to bottom)
	handler := middleware.Chain(
		mux,
		middleware.CORS(app.Cfg.FrontendURL),
		middleware.RequestLogging,
		middleware.Metrics(app.Metrics), // Must wrap the mux directly to see the matched route
	)

	return handler
}
