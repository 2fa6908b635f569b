package main

import (
	"context"
	"os"

	common_models "go-claims/internal/common/models"
	"go-claims/internal/config"
	"go-claims/internal/database"
	"go-claims/internal/features/audit"
	"go-claims/internal/features/workflow"
	"go-claims/internal/logger"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

const defaultSeedFile = "cmd/seed/workflows.yaml"

// Seed imports the workflow definitions in the seed file. Steps whose order
// already exists are skipped, so the command can be re-run safely.
func Seed(
	lc fx.Lifecycle,
	workflowService workflow.WorkflowService,
	logger *zap.Logger,
	shutdowner fx.Shutdowner,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				defer func() {
					if err := shutdowner.Shutdown(); err != nil {
						logger.Error("Failed to shutdown", zap.Error(err))
					}
				}()

				path := defaultSeedFile
				if len(os.Args) > 1 {
					path = os.Args[1]
				}

				f, err := os.Open(path)
				if err != nil {
					logger.Error("Failed to open seed file", zap.String("path", path), zap.Error(err))
					return
				}
				defer f.Close()

				seeds, err := workflow.LoadSeeds(f)
				if err != nil {
					logger.Error("Failed to load seeds", zap.Error(err))
					return
				}

				actor := common_models.SystemActor()
				for _, seed := range seeds {
					added, err := workflowService.Import(context.Background(), actor, seed)
					if err != nil {
						logger.Error("Failed to import workflow", zap.String("workflowId", seed.WorkflowID), zap.Error(err))
						continue
					}
					logger.Info("Workflow seeded", zap.String("workflowId", seed.WorkflowID), zap.Int("stepsAdded", added))
				}
				logger.Info("Seeding complete", zap.Int("workflows", len(seeds)))
			}()
			return nil
		},
	})
}

func main() {
	app := fx.New(
		fx.Provide(
			config.LoadConfig,
			logger.NewLogger,
			database.NewDatabase,
			database.NewSQLDatabase,
			func(db *database.SQLDB) database.Transactor { return db },
			audit.NewAuditRepository,
			audit.NewAuditService,
			workflow.NewWorkflowRepository,
			workflow.NewWorkflowService,
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(Seed),
	)

	app.Run()
}
