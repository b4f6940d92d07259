package router

import (
	"time"

	"aromapos/internal/config"
	"aromapos/internal/handler"
	"aromapos/internal/infra"
	"aromapos/internal/middleware"
	"aromapos/internal/repository"
	"aromapos/internal/service"
	"aromapos/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, smtpCB *infra.CircuitBreaker) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	userRepo := repository.NewUserRepository(db)
	productRepo := repository.NewProductRepository(db)
	variantRepo := repository.NewVariantRepository(db)
	ingredientRepo := repository.NewIngredientRepository(db)
	saleRepo := repository.NewSaleRepository(db)
	movementRepo := repository.NewStockMovementRepository(db)
	pricingRepo := repository.NewPricingRepository(db)
	receiptRepo := repository.NewReceiptRepository(db)

	// Worker dispatcher — injected into services that enqueue async jobs
	dispatcher := worker.NewDispatcher(rdb)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(userRepo, cfg)
	resolverSvc := service.NewResolverService(ingredientRepo)
	pricingSvc := service.NewPricingService()
	availabilitySvc := service.NewAvailabilityService(productRepo, variantRepo)
	ledgerSvc := service.NewLedgerService(productRepo, variantRepo, ingredientRepo, movementRepo, resolverSvc, dispatcher)
	saleSvc := service.NewSaleService(saleRepo, productRepo, variantRepo, pricingRepo, receiptRepo,
		pricingSvc, ledgerSvc, dispatcher, cfg.AtomicStockTx)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	salesH := handler.NewSalesHandler(saleSvc)
	availabilityH := handler.NewAvailabilityHandler(availabilitySvc)
	quoteH := handler.NewQuoteHandler(pricingRepo, pricingSvc, rdb)
	pricingH := handler.NewPricingHandler(pricingRepo, rdb)
	catalogH := handler.NewCatalogHandler(productRepo, ingredientRepo)
	stockH := handler.NewStockHandler(ledgerSvc, movementRepo)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, smtpCB))

	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
	}

	// Price quote — no auth required, no side effects
	r.GET("/v1/quote", quoteH.GetQuote)

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		// Roles: cashier, supervisor, admin — declared per-endpoint
		cashierUp := middleware.RequireRole("cashier", "supervisor", "admin")
		supervisorUp := middleware.RequireRole("supervisor", "admin")
		adminOnly := middleware.RequireRole("admin")

		v1.POST("/sales", cashierUp, salesH.CommitSale)
		v1.GET("/sales", cashierUp, salesH.ListSales)
		v1.GET("/sales/:id", cashierUp, salesH.GetSale)
		v1.DELETE("/sales/:id", supervisorUp, salesH.VoidSale)

		v1.POST("/availability", cashierUp, availabilityH.CheckAvailability)

		v1.GET("/products", cashierUp, catalogH.ListProducts)
		v1.GET("/products/:id", cashierUp, catalogH.GetProduct)
		v1.GET("/ingredients", cashierUp, catalogH.ListIngredients)

		v1.PATCH("/products/:id/stock", supervisorUp, stockH.AdjustProduct)
		v1.PATCH("/ingredients/:id/stock", supervisorUp, stockH.AdjustIngredient)
		v1.GET("/stock/movements", supervisorUp, stockH.ListMovements)

		pricing := v1.Group("/pricing", adminOnly)
		{
			pricing.GET("/:department_id", pricingH.GetConfig)
			pricing.PUT("/:department_id", pricingH.UpsertConfig)
		}
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
