package serverApp

import (
	"net/http"

	"github.com/gin-gonic/gin"

	config "voice-order/configs"
	customerHandler "voice-order/internal/handler/customer"
	orderHandler "voice-order/internal/handler/order"
	transactionHandler "voice-order/internal/handler/transaction"
	"voice-order/internal/pkg/jwt"
	"voice-order/internal/pkg/middleware"
	"voice-order/internal/pkg/rabbitmq"
	"voice-order/internal/repository"
	sessionRepo "voice-order/internal/repository/session"
	transactionRepo "voice-order/internal/repository/transaction"
	customerService "voice-order/internal/service/customer"
	"voice-order/internal/service/extraction"
	orderService "voice-order/internal/service/order"
	transactionService "voice-order/internal/service/transaction"
)

// Services are the long-lived services shared by the API and the worker.
type Services struct {
	Order       orderService.IService
	Customer    customerService.IService
	Transaction transactionService.IService
	Signer      *jwt.Signer
}

// NewServices wires repositories and services. publisher may be nil, in
// which case payment outcomes are not audited.
func NewServices(payload *config.SetupServerDto, publisher *rabbitmq.Publisher, executor orderService.Executor) *Services {
	ctx := payload.Ctx
	env := payload.Env

	rp := repository.IRepository{
		Session:     sessionRepo.NewRepo(payload.Rds, env.SessionTTL),
		Transaction: transactionRepo.NewRepo(payload.Db),
	}

	var events transactionService.EventPublisher
	if publisher != nil {
		events = publisher
	}

	signer := jwt.NewSigner(env.JWTSecret, env.SessionTTL)
	customers := customerService.NewService(ctx)
	transactions := transactionService.NewService(ctx, rp, events)

	order := orderService.NewService(ctx, orderService.Dependencies{
		Repository:   rp,
		Pipelines:    extraction.NewFactory(env.GeminiModel),
		Customers:    customers,
		Transactions: transactions,
		Executor:     executor,
		Tokens:       signer,
		Archive:      payload.S3,
	}, orderService.WithCredentialTTL(env.SessionTTL))

	return &Services{
		Order:       order,
		Customer:    customers,
		Transaction: transactions,
		Signer:      signer,
	}
}

// Setup initializes the HTTP server with middleware and routes
func Setup(engine *gin.Engine, payload *config.SetupServerDto, services *Services) {
	InitMiddleware(engine)

	engine.GET("/health", HealthHandler(payload))

	e := engine.Group(BasePath())
	InitRoutes(e, payload, services)
}

// BasePath returns the base API path
func BasePath() string {
	return "/api"
}

// InitMiddleware initializes global middleware
func InitMiddleware(e *gin.Engine) {
	e.Use(middleware.CorsMiddleware())
	e.Use(middleware.RequestInit())
	e.Use(middleware.ResponseInit())
}

func InitRoutes(e *gin.RouterGroup, payload *config.SetupServerDto, services *Services) {
	ctx := payload.Ctx
	auth := middleware.SessionAuthMiddleware(services.Signer)

	// === Order sessions ===
	OrderHandler := orderHandler.NewHandler(ctx, services.Order, int64(payload.Env.MaxAudioBytes))
	OrderHandler.NewRoutes(e, auth)

	// === Customers ===
	CustomerHandler := customerHandler.NewHandler(ctx, services.Customer)
	CustomerHandler.NewRoutes(e)

	// === Transactions ===
	TransactionHandler := transactionHandler.NewHandler(ctx, services.Transaction)
	TransactionHandler.NewRoutes(e, auth)
}

// HealthHandler reports the state of every backing service.
func HealthHandler(payload *config.SetupServerDto) gin.HandlerFunc {
	return func(c *gin.Context) {
		rabbitmqHealth := "unhealthy"
		redisHealth := "unhealthy"
		databaseHealth := "unhealthy"
		storageHealth := "disabled"

		if payload.Db != nil && !payload.Db.IsCloseConnection() {
			databaseHealth = "healthy"
		}
		if payload.Rb != nil && !payload.Rb.IsClosed() {
			rabbitmqHealth = "healthy"
		}
		if payload.Rds != nil && payload.Rds.Ping() == nil {
			redisHealth = "healthy"
		}
		if payload.S3 != nil {
			storageHealth = "healthy"
		}

		status := http.StatusOK
		if databaseHealth != "healthy" || redisHealth != "healthy" {
			status = http.StatusServiceUnavailable
		}

		c.JSON(status, gin.H{
			"status": status,
			"service": gin.H{
				"rabbitmq": gin.H{"status": rabbitmqHealth},
				"redis":    gin.H{"status": redisHealth},
				"database": gin.H{"status": databaseHealth},
				"storage":  gin.H{"status": storageHealth},
			},
		})
	}
}
