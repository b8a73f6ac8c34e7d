package main

import (
	"context"
	"io"
	"log"
	"os"
	"strconv"

	"github.com/example/task-tracker/config"
	"github.com/example/task-tracker/modules/activity"
	"github.com/example/task-tracker/modules/api"
	"github.com/example/task-tracker/modules/auth"
	"github.com/example/task-tracker/modules/broadcast"
	"github.com/example/task-tracker/modules/cache"
	"github.com/example/task-tracker/modules/preferences"
	"github.com/example/task-tracker/modules/task"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/middleware/accesslog"
	"github.com/go-monolith/mono/middleware/requestid"
	kvjetstream "github.com/go-monolith/mono/plugin/kv-jetstream"
)

func main() {
	log.Println("=== Task Tracker ===")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Create mono application
	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(cfg.ShutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
		mono.WithJetStreamStorageDir(cfg.JetStreamDir()),
		mono.WithNATSPort(cfg.NATSPort),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	// KV buckets: task collections and preferences survive restarts,
	// revoked token ids only need to outlive the longest token.
	kvStore, err := kvjetstream.New(kvjetstream.Config{
		Buckets: []kvjetstream.BucketConfig{
			{
				Name:        task.TasksBucket,
				Description: "Task collections keyed by user id",
				Storage:     kvjetstream.FileStorage,
			},
			{
				Name:        preferences.PreferencesBucket,
				Description: "User preferences",
				Storage:     kvjetstream.FileStorage,
			},
			{
				Name:        auth.RevokedTokensBucket,
				Description: "Revoked token ids",
				TTL:         cfg.RefreshTokenTTL,
				Storage:     kvjetstream.MemoryStorage,
			},
		},
	})
	if err != nil {
		log.Fatalf("Failed to create KV plugin: %v", err)
	}
	if err := app.RegisterPlugin(kvStore, "kv"); err != nil {
		log.Fatalf("Failed to register KV plugin: %v", err)
	}

	if cfg.CacheEnabled() {
		cachePlugin := cache.NewPluginModule(cfg.RedisAddr, cfg.CacheTTL)
		if err := app.RegisterPlugin(cachePlugin, "cache"); err != nil {
			log.Fatalf("Failed to register cache plugin: %v", err)
		}
	}

	// Middleware must be registered before modules
	requestIDMiddleware, err := requestid.New(
		requestid.WithHeaderName("X-Request-ID"),
	)
	if err != nil {
		log.Fatalf("Failed to create requestid middleware: %v", err)
	}
	if err := app.Register(requestIDMiddleware); err != nil {
		log.Fatalf("Failed to register requestid middleware: %v", err)
	}

	var out io.Writer = os.Stdout
	if cfg.AccessLogPath != "" {
		f, err := os.OpenFile(cfg.AccessLogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			log.Fatalf("Failed to open access log: %v", err)
		}
		out = f
	}

	accessLogMiddleware, err := accesslog.New(
		accesslog.WithOutput(out),
		accesslog.WithFormat(accesslog.FormatJSON),
		accesslog.WithFields([]accesslog.Field{
			accesslog.FieldTimestamp,
			accesslog.FieldRequestID,
			accesslog.FieldModule,
			accesslog.FieldService,
			accesslog.FieldServiceType,
			accesslog.FieldDurationMS,
			accesslog.FieldStatus,
			accesslog.FieldRequestSize,
			accesslog.FieldResponseSize,
		}),
	)
	if err != nil {
		log.Fatalf("Failed to create accesslog middleware: %v", err)
	}
	if err := app.Register(accessLogMiddleware); err != nil {
		log.Fatalf("Failed to register accesslog middleware: %v", err)
	}

	port, err := strconv.Atoi(cfg.Port)
	if err != nil {
		log.Fatalf("Invalid PORT %q: %v", cfg.Port, err)
	}

	broadcastModule := broadcast.NewModule(app.Logger())
	apiModule := api.NewModule(api.Config{
		Port:               port,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		AuthRateLimit:      cfg.AuthRateLimit,
		TaskStore:          cfg.TaskStore,
	})
	apiModule.SetHub(broadcastModule.GetHub())

	// Register modules with the framework.
	// Order: independent modules first, then modules with dependencies
	modules := []mono.Module{
		auth.NewModule(cfg.AuthDBPath, auth.JWTConfig{
			SecretKey:            cfg.JWTSecretKey,
			AccessTokenDuration:  cfg.AccessTokenTTL,
			RefreshTokenDuration: cfg.RefreshTokenTTL,
			Issuer:               cfg.JWTIssuer,
		}),
		task.NewModule(cfg.TaskStore, cfg.TaskDBPath),
		preferences.NewModule(),
		activity.NewModule(app.Logger()),
		broadcastModule,
		apiModule,
	}
	for _, module := range modules {
		if err := app.Register(module); err != nil {
			log.Fatalf("Failed to register %s module: %v", module.Name(), err)
		}
	}

	// Start application
	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo(cfg)

	// Graceful shutdown
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.ShutdownTimeout,
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

func printStartupInfo(cfg *config.Config) {
	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Printf("Task persistence: %s", cfg.TaskStore)
	if cfg.CacheEnabled() {
		log.Printf("Stats cache and rate limiter: Redis at %s", cfg.RedisAddr)
	} else {
		log.Println("Stats cache: disabled (set REDIS_ADDR to enable)")
	}
	log.Println("")
	log.Printf("REST API Endpoints (http://localhost:%s):", cfg.Port)
	log.Println("")
	log.Println("  Public Endpoints:")
	log.Println("  POST   /api/v1/auth/register     - Register a new user")
	log.Println("  POST   /api/v1/auth/login        - Login and get tokens")
	log.Println("  POST   /api/v1/auth/refresh      - Refresh access token")
	log.Println("  GET    /health                   - Health check")
	log.Println("")
	log.Println("  Protected Endpoints (require Bearer token):")
	log.Println("  POST   /api/v1/auth/logout       - Revoke the current session")
	log.Println("  GET    /api/v1/profile           - Current user and preferences")
	log.Println("  GET    /api/v1/preferences       - Get preferences")
	log.Println("  PUT    /api/v1/preferences       - Update preferences")
	log.Println("  GET    /api/v1/tasks             - List tasks (?search&sort&date&time&tz)")
	log.Println("  POST   /api/v1/tasks             - Add a task")
	log.Println("  DELETE /api/v1/tasks?confirm=true - Delete every task")
	log.Println("  GET    /api/v1/tasks/:id         - Get a task")
	log.Println("  PUT    /api/v1/tasks/:id         - Edit a task")
	log.Println("  POST   /api/v1/tasks/:id/toggle  - Toggle completion")
	log.Println("  DELETE /api/v1/tasks/:id         - Delete a task")
	log.Println("  GET    /api/v1/stats             - Task statistics")
	log.Println("  GET    /api/v1/activity          - Recent activity")
	log.Println("")
	log.Println("  WebSocket: ws://localhost:" + cfg.Port + "/ws?token=<access token>")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}
