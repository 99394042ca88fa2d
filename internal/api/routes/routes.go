package routes

import (
	"net/http"

	"expensely-backend/internal/api/handlers"
	"expensely-backend/internal/api/middleware"
	"expensely-backend/internal/auth"
	"expensely-backend/internal/config"
	apperrors "expensely-backend/internal/errors"
	"expensely-backend/internal/realtime"
	"expensely-backend/internal/repository"
	"expensely-backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

// Dependencies are the collaborators the router is assembled from
type Dependencies struct {
	Config   *config.Config
	Version  string
	DB       *gorm.DB // nil for in-memory storage
	Groups   repository.GroupRepositoryInterface
	Expenses repository.ExpenseRepositoryInterface
	Verifier auth.Verifier
	Notifier service.Notifier
	Hub      *realtime.Hub        // nil disables live chat
	Registry *prometheus.Registry // nil disables /metrics
	Checks   map[string]handlers.Pinger
}

// SetupRoutes configures all the routes for the application
func SetupRoutes(deps Dependencies) *gin.Engine {
	cfg := deps.Config

	// Create router
	router := gin.New()

	// Add middleware
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	router.Use(middleware.CORS(cfg))
	if deps.Registry != nil {
		router.Use(middleware.NewHTTPMetrics(deps.Registry).Handler())
	}
	if cfg.RateLimitRPS > 0 {
		router.Use(middleware.RateLimit(middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)))
	}

	// Initialize validator
	validator := service.NewValidator()

	var (
		broadcaster service.ChatBroadcaster
		stream      handlers.ChatStream
	)
	if deps.Hub != nil {
		broadcaster = deps.Hub
		stream = deps.Hub
	}

	// Initialize services
	groupService := service.NewGroupService(deps.Groups, deps.Notifier, validator)
	expenseService := service.NewExpenseService(deps.Expenses, groupService, deps.Notifier, validator)
	chatService := service.NewChatService(groupService, deps.Notifier, broadcaster, validator)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(deps.DB, deps.Version)
	for name, check := range deps.Checks {
		healthHandler.AddCheck(name, check)
	}
	groupHandler := handlers.NewGroupHandler(groupService)
	expenseHandler := handlers.NewExpenseHandler(expenseService)
	chatHandler := handlers.NewChatHandler(chatService, groupService, stream)
	authMiddleware := auth.NewAuthMiddleware(deps.Verifier)

	// Health check routes
	router.GET("/health", healthHandler.Health)
	router.GET("/health/ready", healthHandler.Ready)
	router.GET("/health/live", healthHandler.Live)

	if deps.Registry != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{Registry: deps.Registry})))
	}

	// Swagger documentation route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API routes - all endpoints require authentication
	api := router.Group("/api")
	api.Use(authMiddleware.RequireAuth())
	{
		groups := api.Group("/groups")
		{
			groups.POST("", groupHandler.CreateGroup)
			groups.GET("", groupHandler.ListGroups)
			groups.GET("/:groupId", groupHandler.GetGroup)
			groups.POST("/:groupId/join", groupHandler.JoinGroup)
			groups.POST("/:groupId/remind", groupHandler.RemindMember)

			groups.POST("/:groupId/expenses", expenseHandler.CreateExpense)
			groups.GET("/:groupId/expenses", expenseHandler.ListExpenses)
			groups.GET("/:groupId/summary", expenseHandler.GetSummary)

			groups.POST("/:groupId/chat", chatHandler.PostMessage)
			groups.GET("/:groupId/ws", chatHandler.Stream)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, handlers.ErrorResponse{
			Error: "route not found",
			Code:  apperrors.CodeNotFound,
		})
	})

	return router
}
