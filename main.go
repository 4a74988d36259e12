package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Akxssh/property-salahe/internal/api"
	"github.com/Akxssh/property-salahe/internal/auth"
	"github.com/Akxssh/property-salahe/internal/backend"
	"github.com/Akxssh/property-salahe/internal/cache"
	"github.com/Akxssh/property-salahe/internal/config"
	"github.com/Akxssh/property-salahe/internal/db"
	"github.com/Akxssh/property-salahe/internal/services"
	"github.com/Akxssh/property-salahe/internal/storage"
	"github.com/Akxssh/property-salahe/internal/tasks"
	"github.com/Akxssh/property-salahe/internal/utils"
)

// Run modes.
const (
	modeAPI = "api"
	modeImg = "img"
	modeAll = "all"
)

var runMode string

var rootCmd = &cobra.Command{
	Use:          "property-salahe",
	Short:        "Property listing site: pages, JSON API and image worker",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		switch runMode {
		case modeAPI, modeImg, modeAll:
		default:
			return fmt.Errorf("invalid run mode %q (want %s, %s or %s)", runMode, modeAPI, modeImg, modeAll)
		}
		cfg, err := config.Load(runMode)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		utils.InitLogger(cfg.AppName, cfg.LogLevel)
		return run(cfg)
	},
}

func init() {
	rootCmd.Flags().StringVarP(&runMode, "mode", "m", modeAll, "Run mode: 'api' (pages and JSON API), 'img' (image worker), 'all' (default)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// selfHosted holds the connections opened for the selfhosted backend.
type selfHosted struct {
	mongo    *mongo.Client
	redis    *redis.Client
	s3Client storage.ObjectAPI
	tasks    *asynq.Client
}

func (s *selfHosted) close() {
	if s.tasks != nil {
		if err := s.tasks.Close(); err != nil {
			utils.Logger.WithError(err).Warn("Error closing task client")
		}
	}
	if s.redis != nil {
		if err := cache.DisconnectRedis(s.redis); err != nil {
			utils.Logger.WithError(err).Warn("Error disconnecting from Redis")
		}
	}
	if s.mongo != nil {
		if err := db.DisconnectDB(s.mongo); err != nil {
			utils.Logger.WithError(err).Warn("Error disconnecting from MongoDB")
		}
	}
}

// connectBackend builds the backend named by cfg.Backend. For selfhosted it also
// returns the open connections, which the caller must close.
func connectBackend(ctx context.Context, cfg *config.Config) (backend.Client, *selfHosted, error) {
	if !cfg.SelfHosted() {
		utils.Logger.WithField("url", cfg.SupabaseURL).Info("Using hosted backend")
		return backend.NewSupabaseClient(cfg.SupabaseURL, cfg.SupabaseAnonKey), nil, nil
	}

	utils.Logger.Info("Using selfhosted backend (MongoDB, Redis, S3)")
	sh := &selfHosted{}

	mongoClient, database, err := db.ConnectDB(cfg.MongoURI, cfg.MongoDbName)
	if err != nil {
		return backend.Client{}, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	sh.mongo = mongoClient
	if err := db.EnsureIndexes(ctx, database); err != nil {
		sh.close()
		return backend.Client{}, nil, fmt.Errorf("failed to create indexes: %w", err)
	}

	sh.redis, err = cache.ConnectRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		sh.close()
		return backend.Client{}, nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	s3Client, err := storage.NewS3Client(ctx, cfg)
	if err != nil {
		sh.close()
		return backend.Client{}, nil, fmt.Errorf("failed to initialize S3 client: %w", err)
	}
	sh.s3Client = s3Client

	objects := storage.NewS3Objects(s3Client, cfg.AwsS3Bucket, cfg.AwsRegion, cfg.ImageBaseS3URL)
	sh.tasks = tasks.NewClient(sh.redis)
	objects.OnStore(tasks.ImageUploadHook(sh.tasks))

	client := backend.Client{
		Rows:    db.NewMongoRows(database),
		Auth:    auth.NewLocalAuth(database, cache.NewTokenBlocklist(sh.redis), cfg.JwtSecret, cfg.JwtTTL),
		Objects: objects,
	}
	return client, sh, nil
}

func run(cfg *config.Config) error {
	client, sh, err := connectBackend(context.Background(), cfg)
	if err != nil {
		return err
	}
	if sh != nil {
		defer sh.close()
	}

	propertyService := services.NewPropertyService(client.Rows, client.Objects)
	accountService := services.NewAccountService(client.Auth)

	var wg sync.WaitGroup

	// Channel to signal shutdown from Service API
	shutdownChan := make(chan struct{}, 1)

	// Service API always runs
	serviceSrv := &http.Server{
		Addr:    ":" + cfg.ServiceApiPort,
		Handler: api.SetupServiceRouter(shutdownChan),
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		utils.Logger.Infof("Service API listening on :%s", cfg.ServiceApiPort)
		if err := serviceSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			utils.Logger.Fatalf("Service API ListenAndServe error: %v", err)
		}
		utils.Logger.Info("Service API server stopped.")
	}()

	var mainApiSrv *http.Server
	var rateLimiter interface{ Stop() }
	var imageTaskSrv *asynq.Server

	utils.Logger.Infof("Starting application in '%s' mode...", cfg.RunMode)

	apiMode := func() {
		mainApiRouter, limiter := api.SetupRouter(cfg, propertyService, accountService)
		rateLimiter = limiter
		mainApiSrv = &http.Server{
			Addr:              ":" + cfg.ApiPort,
			Handler:           mainApiRouter,
			ReadHeaderTimeout: 10 * time.Second,
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			utils.Logger.Infof("Main API listening on :%s", cfg.ApiPort)
			if err := mainApiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				utils.Logger.Fatalf("Main API ListenAndServe error: %v", err)
			}
			utils.Logger.Info("Main API server stopped.")
		}()
	}

	imgMode := func() {
		// The hosted backend transforms images itself.
		if sh == nil {
			utils.Logger.Info("Image worker not needed with the hosted backend; skipping.")
			return
		}
		processor := tasks.NewTaskProcessor(cfg, sh.s3Client)
		srv, mux := tasks.SetupServer(sh.redis, processor)
		imageTaskSrv = srv
		wg.Add(1)
		go func() {
			defer wg.Done()
			utils.Logger.Info("Image processing task server starting...")
			if err := imageTaskSrv.Run(mux); err != nil {
				utils.Logger.Fatalf("Image processing server error: %v", err)
			}
			utils.Logger.Info("Image processing server stopped.")
		}()
	}

	switch cfg.RunMode {
	case modeAPI:
		apiMode()
	case modeImg:
		imgMode()
	case modeAll:
		apiMode()
		imgMode()
	}

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		utils.Logger.Infof("Received signal: %s. Shutting down gracefully...", sig)
	case <-shutdownChan:
		utils.Logger.Info("Shutdown requested via Service API. Shutting down gracefully...")
	}

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()

	if err := serviceSrv.Shutdown(ctxShutdown); err != nil {
		utils.Logger.WithError(err).Error("Service API server shutdown error")
	}
	if mainApiSrv != nil {
		utils.Logger.Info("Shutting down Main API server...")
		if err := mainApiSrv.Shutdown(ctxShutdown); err != nil {
			utils.Logger.WithError(err).Error("Main API server shutdown error")
		}
		rateLimiter.Stop()
	}
	if imageTaskSrv != nil {
		utils.Logger.Info("Shutting down Image Processing server...")
		imageTaskSrv.Shutdown()
	}

	utils.Logger.Info("Waiting for servers to stop...")
	wg.Wait()

	utils.Logger.Info("Server gracefully stopped")
	return nil
}
