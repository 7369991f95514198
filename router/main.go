package router

import (
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/okeyenglish/okey-learn-connect-sub016/database"
	"github.com/okeyenglish/okey-learn-connect-sub016/handlers"
	auth_handlers "github.com/okeyenglish/okey-learn-connect-sub016/handlers/auth"
	ledger_handlers "github.com/okeyenglish/okey-learn-connect-sub016/handlers/ledger"
	lesson_handlers "github.com/okeyenglish/okey-learn-connect-sub016/handlers/lesson"
	payment_handlers "github.com/okeyenglish/okey-learn-connect-sub016/handlers/payment"
	session_handlers "github.com/okeyenglish/okey-learn-connect-sub016/handlers/session"
	"github.com/okeyenglish/okey-learn-connect-sub016/model"
	"github.com/okeyenglish/okey-learn-connect-sub016/services"
	"github.com/okeyenglish/okey-learn-connect-sub016/utils/auth"
	"github.com/okeyenglish/okey-learn-connect-sub016/utils/middleware"
	"gorm.io/gorm"
)

func SetupRoutes(app *fiber.App, store database.Storage, ledgerSvc *services.LedgerService) {
	// Get JWT secret from environment
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET environment variable is not set")
	}

	jwtIssuer := os.Getenv("JWT_ISSUER")
	if jwtIssuer == "" {
		jwtIssuer = "okey-learn-api"
	}

	// Initialize JWT manager with config
	jwtConfig := auth.JWTConfig{
		Secret:        jwtSecret,
		Expiry:        24 * time.Hour,     // Access token expires in 24 hours
		RefreshExpiry: 7 * 24 * time.Hour, // Refresh token expires in 7 days
		Issuer:        jwtIssuer,
	}
	jwtManager := auth.NewJWTManager(jwtConfig)

	// Get DB instance (type assert from interface)
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		log.Fatal("Failed to get GORM DB instance")
	}

	// Initialize auth middleware
	authMiddleware := middleware.NewAuthMiddleware(jwtManager, db)

	// Initialize handlers
	authHandler := auth_handlers.NewAuthHandler(db, jwtManager)
	lessonHandler := lesson_handlers.NewLessonHandler(db, ledgerSvc)
	sessionHandler := session_handlers.NewSessionHandler(db, ledgerSvc)
	paymentHandler := payment_handlers.NewPaymentHandler(db, ledgerSvc)
	ledgerHandler := ledger_handlers.NewLedgerHandler(ledgerSvc)

	// Apply security middleware
	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:3000,http://localhost:3001"
	}

	middleware.SetupSecurity(app, middleware.SecurityConfig{
		AllowedOrigins:    allowedOrigins,
		RateLimitRequests: 100,             // 100 requests
		RateLimitWindow:   1 * time.Minute, // per minute
	})

	// Staff-only write access; parents only read their balances
	staffOnly := authMiddleware.RequireRole(model.RoleManager, model.RoleAdmin)

	// Health check endpoint (public)
	app.Get("/ping", handlers.HandleCheckHealth(store))

	// API v1 group
	api := app.Group("/api/v1")

	// Auth routes (public)
	authGroup := api.Group("/auth")
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)

	// Profile routes (protected)
	profileGroup := api.Group("/profile", authMiddleware.Required())
	profileGroup.Get("/", authHandler.GetProfile)
	profileGroup.Put("/", authHandler.UpdateProfile)

	// Lessons routes (all protected)
	lessons := api.Group("/lessons", authMiddleware.Required())
	lessons.Get("/", lessonHandler.ListLessons)
	lessons.Get("/:id", lessonHandler.GetLesson)
	lessons.Post("/", staffOnly, lessonHandler.CreateLesson)
	lessons.Put("/:id", staffOnly, lessonHandler.UpdateLesson)

	// Sessions routes (nested under lessons)
	sessions := lessons.Group("/:lesson_id/sessions")
	sessions.Get("/", sessionHandler.ListSessions)
	sessions.Post("/", staffOnly, sessionHandler.CreateSession)
	sessions.Put("/:id", staffOnly, sessionHandler.UpdateSession)
	sessions.Post("/:id/link-payment", staffOnly, sessionHandler.LinkPayment)
	sessions.Delete("/:id", staffOnly, sessionHandler.DeleteSession)

	// Payments routes (nested under lessons)
	payments := lessons.Group("/:lesson_id/payments")
	payments.Get("/", paymentHandler.ListPayments)
	payments.Post("/", staffOnly, paymentHandler.CreatePayment)
	payments.Delete("/:id", staffOnly, paymentHandler.DeletePayment)

	// Ledger read side (nested under lessons)
	lessons.Get("/:lesson_id/ledger", ledgerHandler.GetLedger)
	lessons.Get("/:lesson_id/stats", ledgerHandler.GetStats)
	lessons.Post("/:lesson_id/ledger/refresh", ledgerHandler.RefreshLedger)
	lessons.Get("/:lesson_id/ledger/stream", ledgerHandler.StreamLedger)
}
