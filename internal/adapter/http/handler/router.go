package handler

import (
	"arena-ledger/internal/adapter/http/middleware"
	redisStore "arena-ledger/internal/adapter/storage/redis"
	"arena-ledger/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	LedgerSvc      ports.LedgerService
	TransferSvc    ports.TransferService
	QuerySvc       ports.QueryService
	SigSvc         ports.SignatureService
	TokenSvc       ports.TokenService
	NonceStore     ports.NonceStore
	ServiceKeys    map[string]string
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check (deep — verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// Rate limit rules
	rules := middleware.DefaultRateLimitRules()

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	v1 := r.Group("/api/v1")

	// --- HMAC-authenticated mutation routes (internal services) ---
	hmacAuth := middleware.HMACAuth(deps.ServiceKeys, deps.SigSvc, deps.NonceStore, deps.Logger)
	walletHandler := NewWalletHandler(deps.LedgerSvc, deps.QuerySvc)
	transferHandler := NewTransferHandler(deps.TransferSvc)

	wallets := v1.Group("/wallets", hmacAuth, middleware.Idempotency())
	{
		wallets.POST("", rl("wallets_create"), walletHandler.CreateWallet)
		wallets.POST("/:user_id/credit", rl("mutations"), walletHandler.Credit)
		wallets.POST("/:user_id/debit", rl("mutations"), walletHandler.Debit)
	}

	transfers := v1.Group("/transfers", hmacAuth, middleware.Idempotency())
	{
		transfers.POST("", rl("transfers"), transferHandler.Transfer)
	}

	// --- JWT-authenticated read routes ---
	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)
	reads := v1.Group("/wallets", jwtAuth)
	{
		reads.GET("/:user_id/balance", rl("queries"), walletHandler.GetBalance)
		reads.GET("/:user_id/transactions", rl("queries"), walletHandler.GetHistory)
	}

	return r
}
