package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/example/task-api/config"
	"github.com/example/task-api/modules/api"
	"github.com/example/task-api/modules/audit"
	"github.com/example/task-api/modules/cache"
	"github.com/example/task-api/modules/task"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
)

func main() {
	envFile := flag.String("config", envOrDefault("ENV_FILE", ".env"), "path to an optional .env file")
	flag.Parse()

	log.Println("=== Task API ===")

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(cfg.App.ShutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}
	logger := app.Logger()

	taskModule := task.NewModule(cfg.Database, logger.WithModule("task"))

	// Order: independent modules first, then modules with dependencies
	app.Register(audit.NewModule(cfg.Audit.Capacity, logger.WithModule("audit")))
	if cfg.Redis.Enabled() {
		cacheModule := cache.NewModule(cfg.Redis, logger.WithModule("cache"))
		taskModule.SetCache(cacheModule.Cache())
		app.Register(cacheModule)
	}
	app.Register(taskModule)
	app.Register(api.NewModule(cfg.App, cfg.CORS, logger.WithModule("api")))

	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo(cfg)

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.App.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func envOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func printStartupInfo(cfg *config.Config) {
	log.Println("")
	log.Println("Application started successfully!")
	log.Printf("Database driver: %s", cfg.Database.Driver)
	if cfg.Redis.Enabled() {
		log.Printf("Task cache: redis at %s (ttl %s)", cfg.Redis.Addr, cfg.Redis.TTL)
	} else {
		log.Println("Task cache: disabled")
	}
	log.Println("")
	log.Printf("REST API Endpoints (http://localhost:%d):", cfg.App.Port)
	log.Println("  POST   /api/tasks                - Create a task")
	log.Println("  GET    /api/tasks                - List tasks (page, limit, status, priority, isActive)")
	log.Println("  GET    /api/tasks/:id            - Get a task by ID")
	log.Println("  PATCH  /api/tasks/:id            - Update a task")
	log.Println("  PATCH  /api/tasks/:id/deactivate - Deactivate a task")
	log.Println("  DELETE /api/tasks/:id            - Delete a task")
	log.Println("  GET    /health                   - Health check")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}
