package cmd

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"

	config "github.com/Demandflow/DemandSync/internal/configs"
	httpapi "github.com/Demandflow/DemandSync/internal/http"
	"github.com/Demandflow/DemandSync/internal/notifier"
	"github.com/Demandflow/DemandSync/internal/registry"
	repository "github.com/Demandflow/DemandSync/internal/repositories"
	"github.com/Demandflow/DemandSync/internal/services"
	"github.com/Demandflow/DemandSync/internal/tracker"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the sync HTTP API server",
	Long:  "Starts the task portal API, webhook endpoint and real-time notifier",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil {
			log.Println(".env file not found, using environment variables")
		}

		cfg := config.Load()

		database := config.NewDatabase(cfg.DatabaseDSN)
		taskRepo := repository.NewTaskRepository(database)

		redisClient := config.NewRedisClient(cfg.RedisAddr)
		defer redisClient.Close()

		trackerClient := tracker.NewHTTPClient(
			cfg.TrackerAPIURL,
			cfg.TrackerAPIKey,
			time.Duration(cfg.TrackerTimeoutSeconds)*time.Second,
		)

		reg := registry.New(database, trackerClient, cfg.WebhookEndpoint)
		notif := notifier.NewRedisNotifier(redisClient)

		syncService := services.NewSyncService(reg, taskRepo, trackerClient, notif, cfg.TrackerWebhookSecret, cfg.SyncWorkers)
		taskService := services.NewTaskService(taskRepo, trackerClient, notif)

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if cfg.BoardMappingsFile != "" {
			mappings, err := config.LoadBoardMappings(cfg.BoardMappingsFile)
			if err != nil {
				return err
			}
			for _, m := range mappings {
				if err := reg.Register(ctx, m); err != nil {
					return err
				}
			}
		}

		e := echo.New()
		handler := httpapi.NewHandler(taskService, syncService, reg)
		httpapi.Register(e, handler, cfg.RateLimit)

		go func() {
			log.Printf("HTTP server listening on %s", cfg.AppURL)
			if err := e.Start(cfg.AppURL); err != nil {
				log.Printf("server stopped: %v", err)
			}
		}()

		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			time.Duration(cfg.ShutdownTimeoutSeconds)*time.Second,
		)
		defer cancel()
		_ = e.Shutdown(shutdownCtx)

		log.Println("HTTP server shut down gracefully")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
