package router

import (
	"github.com/marimovDEV/v0-crm-pos-system/internal/config"
	"github.com/marimovDEV/v0-crm-pos-system/internal/handler"
	"github.com/marimovDEV/v0-crm-pos-system/internal/middleware"
	"github.com/marimovDEV/v0-crm-pos-system/internal/repository"
	"github.com/marimovDEV/v0-crm-pos-system/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps are the process-wide collaborators the router wires services from.
// Redis and Dispatcher may be nil when the job queue is disabled.
type Deps struct {
	DB           *gorm.DB
	Redis        *redis.Client
	Dispatcher   service.Dispatcher
	CreditPolicy service.CreditPolicy
	RateLimiter  *middleware.RateLimiter
}

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, d Deps) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.NoRoute(middleware.NotFound())
	r.NoMethod(middleware.MethodNotAllowed())

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	if d.RateLimiter != nil {
		r.Use(d.RateLimiter.Handler())
	}

	// ── Repositories ─────────────────────────────────────────────────────────
	productRepo := repository.NewProductRepository(d.DB)
	customerRepo := repository.NewCustomerRepository(d.DB)
	saleRepo := repository.NewSaleRepository(d.DB)
	movementRepo := repository.NewStockMovementRepository(d.DB)
	debtRepo := repository.NewDebtTransactionRepository(d.DB)
	auditRepo := repository.NewAuditLogRepository(d.DB)

	// ── Services ─────────────────────────────────────────────────────────────
	audit := service.NewAuditRecorder(auditRepo)
	stock := service.NewStockLedger(productRepo, movementRepo, audit)
	debt := service.NewDebtLedger(customerRepo, debtRepo, audit)

	saleOpts := []service.SaleOption{service.WithCreditPolicy(d.CreditPolicy)}
	if d.Dispatcher != nil {
		saleOpts = append(saleOpts, service.WithDispatcher(d.Dispatcher))
	}
	sales := service.NewSaleService(saleRepo, productRepo, customerRepo, stock, debt, audit, saleOpts...)

	// ── Handlers ─────────────────────────────────────────────────────────────
	salesH := handler.NewSalesHandler(sales)
	customersH := handler.NewCustomersHandler(debt)
	stockH := handler.NewStockHandler(stock)
	jobsH := handler.NewJobsHandler(d.Redis)

	// ── Routes ───────────────────────────────────────────────────────────────

	r.GET("/health", handler.Health(d.DB, d.Redis))

	anyStaff := middleware.RequireRole(middleware.RoleCashier, middleware.RoleManager, middleware.RoleAdmin)
	managers := middleware.RequireRole(middleware.RoleManager, middleware.RoleAdmin)

	v1 := r.Group("/v1", middleware.JWTAuth(cfg.JWTSecret))
	{
		v1.POST("/sales", anyStaff, salesH.ProcessSale)
		v1.GET("/sales/:receipt_id", anyStaff, salesH.GetSale)

		customers := v1.Group("/customers/:id")
		{
			customers.GET("/credit", anyStaff, customersH.CheckCredit)
			customers.POST("/payments", anyStaff, customersH.RecordPayment)
			customers.GET("/transactions", anyStaff, customersH.ListTransactions)
			customers.POST("/adjustments", managers, customersH.RecordAdjustment)
		}

		st := v1.Group("/stock", managers)
		{
			st.POST("/inbound", stockH.Receive)
			st.POST("/adjustments", stockH.Adjust)
			st.POST("/transfers", stockH.Transfer)
			st.GET("/movements", stockH.ListMovements)
		}

		admin := v1.Group("/admin/jobs", middleware.RequireRole(middleware.RoleAdmin))
		{
			admin.GET("/dlq", jobsH.DeadLetters)
			admin.POST("/dlq/:queue/replay", jobsH.Replay)
		}
	}

	return r
}
