package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dffdp/wallet-backend/docs"
	"github.com/dffdp/wallet-backend/internal/audit"
	"github.com/dffdp/wallet-backend/internal/config"
	"github.com/dffdp/wallet-backend/internal/database"
	"github.com/dffdp/wallet-backend/internal/handlers"
	mW "github.com/dffdp/wallet-backend/internal/middleware"
	"github.com/dffdp/wallet-backend/internal/services"
	"github.com/dffdp/wallet-backend/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/viper"
	httpSwagger "github.com/swaggo/http-swagger"
)

// @title Wallet Ledger API
// @version 1.0
// @description Custodial wallet ledger with fraud-pattern screening
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

func main() {
	// Initialize config
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.name", "DATABASE_NAME")
	viper.BindEnv("database.ssl_mode", "DATABASE_SSL_MODE")

	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("redis.db", "REDIS_DB")

	viper.BindEnv("jwt.secret_key", "JWT_SECRET_KEY")
	viper.BindEnv("jwt.expiry_hours", "JWT_EXPIRY_HOURS")
	viper.BindEnv("argon2.time", "ARGON2_TIME")
	viper.BindEnv("argon2.memory", "ARGON2_MEMORY")
	viper.BindEnv("argon2.threads", "ARGON2_THREADS")
	viper.BindEnv("argon2.key_length", "ARGON2_KEY_LENGTH")
	viper.BindEnv("argon2.salt_length", "ARGON2_SALT_LENGTH")

	viper.BindEnv("fraud.amount_threshold", "FRAUD_AMOUNT_THRESHOLD")
	viper.BindEnv("fraud.frequency_threshold", "FRAUD_FREQUENCY_THRESHOLD")
	viper.BindEnv("fraud.time_window", "FRAUD_TIME_WINDOW")
	viper.BindEnv("fraud.large_withdrawal_ratio", "FRAUD_LARGE_WITHDRAWAL_RATIO")
	viper.BindEnv("ledger.starting_balance", "LEDGER_STARTING_BALANCE")

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Config file not found, using defaults: %v", err)
	}

	viper.SetDefault("jwt.expiry_hours", 24)
	viper.SetDefault("argon2.time", 1)
	viper.SetDefault("argon2.memory", 64*1024)
	viper.SetDefault("argon2.threads", 4)
	viper.SetDefault("argon2.key_length", 32)
	viper.SetDefault("argon2.salt_length", 16)

	// Initialize Swagger docs
	docs.SwaggerInfo.Title = "Wallet Ledger API"
	docs.SwaggerInfo.Description = "Custodial wallet ledger with fraud-pattern screening"
	docs.SwaggerInfo.Version = "1.0"
	docs.SwaggerInfo.Host = "localhost:8080"
	docs.SwaggerInfo.BasePath = "/api/v1"
	docs.SwaggerInfo.Schemes = []string{"http", "https"}

	// Initialize storage
	db := database.InitDatabase()
	defer db.Close()

	redisClient := database.InitRedis()
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Wire the ledger core
	accounts := store.NewAccountStore(db)
	txlog := store.NewTransactionLog(db)
	detector := services.NewFraudDetector(config.LoadFraudConfig())
	ledger := services.NewLedgerService(db, accounts, txlog, detector, config.LoadLedgerConfig())

	auditLog := audit.NewLogger(db)
	sessionTTL := time.Duration(viper.GetInt("jwt.expiry_hours")) * time.Hour
	sessions := services.NewSessionStore(redisClient, sessionTTL)
	authService := services.NewAuthService(ledger, sessions, auditLog)
	qrService := services.NewQRService()

	walletHandler := handlers.NewWalletHandler(ledger, qrService, auditLog)
	adminHandler := handlers.NewAdminHandler(ledger, auditLog)

	// Setup router
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	})

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("http://localhost:8080/swagger/doc.json"),
	))

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public endpoints (no auth required)
		r.Post("/auth/register", authService.Register)
		r.Post("/auth/login", authService.Login)

		// Protected endpoints (auth required)
		r.Group(func(r chi.Router) {
			r.Use(mW.Auth(sessions))

			r.Post("/auth/logout", authService.Logout)

			r.Get("/wallet", walletHandler.GetAccount)
			r.Get("/wallet/transactions", walletHandler.History)
			r.Post("/wallet/topup", walletHandler.TopUp)
			r.Post("/wallet/transfer", walletHandler.Transfer)
			r.Get("/wallet/receive-qr", walletHandler.ReceiveQR)

			// Admin endpoints
			r.Group(func(r chi.Router) {
				r.Use(mW.RequireAdmin)

				r.Get("/admin/summary", adminHandler.Summary)
				r.Get("/admin/flagged-transactions", adminHandler.FlaggedTransactions)
				r.Get("/admin/suspicious-accounts", adminHandler.SuspiciousAccounts)
				r.Put("/admin/accounts/{accountId}/flag", adminHandler.ReportFraud)
				r.Delete("/admin/accounts/{accountId}/flag", adminHandler.ClearFlag)
			})
		})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on :%s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server stopped")
}
