package cmd

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	config "harvestq.com/harvestq/internal/configs"
	model "harvestq.com/harvestq/internal/models"
	repository "harvestq.com/harvestq/internal/repositories"
	"harvestq.com/harvestq/internal/services"
)

// app bundles the pieces every command needs: one configured store handle
// per process, constructed here and passed down, never reached through a
// global.
type app struct {
	cfg     config.Config
	log     *zap.Logger
	repo    *repository.TaskRepository
	service *services.TaskService
}

func newApp() *app {
	if err := godotenv.Load(); err != nil {
		log.Println(".env file not found, using environment variables")
	}

	cfg := config.Load()
	logger := config.NewLogger(cfg.AppEnv)
	db := config.NewDatabaseClient(cfg)

	opts := []repository.Option{
		repository.WithRestoreTarget(model.Status(cfg.RestoreTargetStatus)),
	}
	if cfg.StrictTransitions {
		opts = append(opts, repository.WithStrictTransitions())
	}
	repo := repository.NewTaskRepository(db, cfg.TableName, logger, opts...)

	return &app{
		cfg:     cfg,
		log:     logger,
		repo:    repo,
		service: services.NewTaskService(repo, logger),
	}
}

func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
