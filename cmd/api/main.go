package main

import (
	"context"
	"fmt"
	"log"

	common_api "go-claims/internal/common/api"
	"go-claims/internal/config"
	"go-claims/internal/database"
	"go-claims/internal/features/audit"
	"go-claims/internal/features/claim"
	"go-claims/internal/features/engine"
	"go-claims/internal/features/notification"
	"go-claims/internal/features/policy"
	"go-claims/internal/features/report"
	"go-claims/internal/features/scheduler"
	"go-claims/internal/features/system"
	"go-claims/internal/features/workflow"
	"go-claims/internal/logger"
	"go-claims/internal/metrics"
	"go-claims/internal/middleware"
	"go-claims/internal/queue"
	"go-claims/pkg/utils"

	_ "go-claims/docs" // Import swagger docs

	"github.com/gofiber/fiber/v2"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// NewFiberServer creates a new Fiber app instance
func NewFiberServer(cfg *config.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(middleware.CORSMiddleware(cfg.CORSOrigins))

	return app
}

// AsRoute tags the constructor so Fx adds it to the "routes" group.
func AsRoute(f any) any {
	return fx.Annotate(
		f,
		fx.As(new(common_api.Route)),
		fx.ResultTags(`group:"routes"`),
	)
}

// RegisterAllRoutes calls Setup() on every member of the "routes" group.
func RegisterAllRoutes(app *fiber.App, routes []common_api.Route) {
	log.Printf("Registering %d routes...\n", len(routes))
	for i, route := range routes {
		log.Printf("Setting up route %d: %T\n", i+1, route)
		route.Setup(app)
	}
	log.Println("All routes registered successfully")
}

var RegisterAllRoutesWithAnnotation = fx.Annotate(
	RegisterAllRoutes,
	fx.ParamTags(``, `group:"routes"`),
)

// StartServer listens in a goroutine and shuts Fiber down when the app exits.
func StartServer(lc fx.Lifecycle, app *fiber.App, cfg *config.Config) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				port := fmt.Sprintf(":%s", cfg.Port)
				if err := app.Listen(port); err != nil {
					log.Fatalf("Server failed to start: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return app.Shutdown()
		},
	})
}

// StartEngine binds the executor to the worker pool and re-queues claims
// that were mid-workflow when the process last stopped.
func StartEngine(lc fx.Lifecycle, d *queue.Dispatcher, e engine.Executor, logger *zap.Logger) {
	d.SetHandler(e.Advance)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			n, err := e.Recover(ctx)
			if err != nil {
				logger.Error("Failed to recover in-flight workflows", zap.Error(err))
				return nil
			}
			logger.Info("Workflow engine started", zap.Int("recovered", n))
			return nil
		},
	})
}

// @title           Claims Workflow API
// @version         1.0
// @description     Insurance claim filing, policy approval and workflow execution.

// @host            localhost:8080
// @BasePath        /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	app := fx.New(
		fx.Provide(
			// Load Config
			config.LoadConfig,

			// Initialize Logger
			logger.NewLogger,
			metrics.NewMetrics,

			// Initialize Fiber Server
			NewFiberServer,

			// Initialize Database
			database.NewDatabase,
			database.NewSQLDatabase,
			func(db *database.SQLDB) database.Transactor { return db },

			// Engine queue
			queue.NewDispatcher,
			func(d *queue.Dispatcher) queue.Enqueuer { return d },

			// Initialize Repository
			audit.NewAuditRepository,
			notification.NewNotificationRepository,
			workflow.NewWorkflowRepository,
			policy.NewPolicyRepository,
			claim.NewClaimRepository,
			scheduler.NewTimerRepository,

			// Initialize Service
			audit.NewAuditService,
			notification.NewHub,
			notification.NewNotificationService,
			workflow.NewWorkflowService,
			policy.NewPolicyService,
			claim.NewClaimService,
			scheduler.NewSchedulerService,
			engine.NewStore,
			engine.NewRuleRegistry,
			engine.NewExecutor,
			report.NewReportService,

			// Initialize Controller
			audit.NewAuditController,
			notification.NewNotificationController,
			workflow.NewWorkflowController,
			policy.NewPolicyController,
			claim.NewClaimController,
			engine.NewEngineController,
			report.NewReportController,
			system.NewHealthController,
			system.NewWebSocketController,

			// Initialize API Routes
			AsRoute(audit.NewAuditApi),
			AsRoute(notification.NewNotificationApi),
			AsRoute(workflow.NewWorkflowApi),
			AsRoute(policy.NewPolicyApi),
			AsRoute(claim.NewClaimApi),
			AsRoute(engine.NewEngineApi),
			AsRoute(report.NewReportApi),
			AsRoute(system.NewHealthApi),
			AsRoute(system.NewWebSocketApi),
			AsRoute(system.NewSwaggerApi),
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(
			func(cfg *config.Config) { utils.SetSecret(cfg.JWTSecret) },
			RegisterAllRoutesWithAnnotation,
			StartEngine,
			StartServer,
		),
	)

	app.Run()
}
