// Package api serves the task tracker over HTTP.
package api

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/example/task-tracker/modules/activity"
	"github.com/example/task-tracker/modules/auth"
	"github.com/example/task-tracker/modules/cache"
	"github.com/example/task-tracker/modules/preferences"
	taskmod "github.com/example/task-tracker/modules/task"
	"github.com/go-monolith/mono"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// Config holds the HTTP server settings.
type Config struct {
	Port               int
	CORSAllowedOrigins string
	AuthRateLimit      int
	TaskStore          string
}

// APIModule is the HTTP API module.
type APIModule struct {
	app             *fiber.App
	config          Config
	authAdapter     auth.AuthPort
	taskAdapter     taskmod.TaskPort
	prefsAdapter    preferences.PreferencesPort
	activityAdapter activity.ActivityPort
	hub             ClientHub
	cachePlugin     *cache.PluginModule
}

// Compile-time interface checks.
var _ mono.Module = (*APIModule)(nil)
var _ mono.DependentModule = (*APIModule)(nil)
var _ mono.HealthCheckableModule = (*APIModule)(nil)
var _ mono.UsePluginModule = (*APIModule)(nil)

// NewModule creates a new APIModule.
func NewModule(config Config) *APIModule {
	return &APIModule{config: config}
}

// Name returns the module name.
func (m *APIModule) Name() string {
	return "api"
}

// Dependencies returns the list of module dependencies.
func (m *APIModule) Dependencies() []string {
	return []string{"auth", "task", "preferences", "activity"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *APIModule) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	switch dependency {
	case "auth":
		m.authAdapter = auth.NewAuthAdapter(container)
	case "task":
		m.taskAdapter = taskmod.NewTaskAdapter(container)
	case "preferences":
		m.prefsAdapter = preferences.NewPreferencesAdapter(container)
	case "activity":
		m.activityAdapter = activity.NewActivityAdapter(container)
	}
}

// SetPlugin receives the optional cache plugin, whose Redis connection backs
// the auth rate limiter.
func (m *APIModule) SetPlugin(alias string, plugin mono.PluginModule) {
	if alias == "cache" {
		if c, ok := plugin.(*cache.PluginModule); ok {
			m.cachePlugin = c
		}
	}
}

// SetHub injects the websocket hub of the broadcast module.
func (m *APIModule) SetHub(hub ClientHub) {
	m.hub = hub
}

// Start initializes the Fiber HTTP server.
func (m *APIModule) Start(_ context.Context) error {
	switch {
	case m.authAdapter == nil:
		return fmt.Errorf("auth dependency not set")
	case m.taskAdapter == nil:
		return fmt.Errorf("task dependency not set")
	case m.prefsAdapter == nil:
		return fmt.Errorf("preferences dependency not set")
	case m.activityAdapter == nil:
		return fmt.Errorf("activity dependency not set")
	}

	m.app = m.newApp()

	errCh := make(chan error, 1)
	addr := fmt.Sprintf(":%d", m.config.Port)
	go func() {
		if err := m.app.Listen(addr); err != nil {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP server failed to start: %w", err)
	case <-time.After(100 * time.Millisecond):
	}

	log.Printf("[api] HTTP server started on %s", addr)
	return nil
}

// newApp builds the Fiber application with middleware and routes.
func (m *APIModule) newApp() *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          customErrorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: m.config.CORSAllowedOrigins,
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Content-Type,Authorization",
	}))

	m.setupRoutes(app)
	return app
}

// Stop shuts down the Fiber HTTP server.
func (m *APIModule) Stop(ctx context.Context) error {
	if m.app == nil {
		return nil
	}
	log.Println("[api] Shutting down HTTP server...")
	return m.app.ShutdownWithContext(ctx)
}

// Health returns the health status of the module.
func (m *APIModule) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: m.app != nil,
		Message: "operational",
		Details: map[string]any{
			"port":        m.config.Port,
			"persistence": m.config.TaskStore,
		},
	}
}

// setupRoutes configures all API routes.
func (m *APIModule) setupRoutes(app *fiber.App) {
	handlers := NewHandlers(m.authAdapter, m.taskAdapter, m.prefsAdapter, m.activityAdapter)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":      "healthy",
			"module":      "api",
			"persistence": m.config.TaskStore,
		})
	})

	if m.hub != nil {
		app.Use("/ws", WebSocketAuth(m.authAdapter))
		app.Get("/ws", websocket.New(HandleWebSocket(m.hub)))
	}

	v1 := app.Group("/api/v1")

	// Public auth routes share one per-IP budget
	limit := m.authLimiter()
	authRoutes := v1.Group("/auth")
	authRoutes.Post("/register", limit, handlers.Register)
	authRoutes.Post("/login", limit, handlers.Login)
	authRoutes.Post("/refresh", limit, handlers.Refresh)

	// Protected routes (require authentication)
	protected := v1.Group("", AuthMiddleware(m.authAdapter))
	protected.Post("/auth/logout", handlers.Logout)
	protected.Get("/profile", handlers.Profile)
	protected.Get("/preferences", handlers.GetPreferences)
	protected.Put("/preferences", handlers.UpdatePreferences)

	protected.Get("/tasks", handlers.ListTasks)
	protected.Post("/tasks", handlers.CreateTask)
	protected.Delete("/tasks", handlers.ClearTasks)
	protected.Get("/tasks/:id", handlers.GetTask)
	protected.Put("/tasks/:id", handlers.UpdateTask)
	protected.Post("/tasks/:id/toggle", handlers.ToggleTask)
	protected.Delete("/tasks/:id", handlers.DeleteTask)

	protected.Get("/stats", handlers.Stats)
	protected.Get("/activity", handlers.ListActivity)
}

// authLimiter limits auth attempts per client IP. Counters live in Redis
// when the cache plugin is configured, in memory otherwise.
func (m *APIModule) authLimiter() fiber.Handler {
	cfg := limiter.Config{
		Max:        m.config.AuthRateLimit,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return "auth-limit:" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(ErrorResponse{
				Error:   "rate_limited",
				Message: "Too many requests, please try again later",
			})
		},
	}
	if m.cachePlugin != nil {
		if store := m.cachePlugin.Storage(); store != nil {
			cfg.Storage = store
		}
	}
	return limiter.New(cfg)
}

// customErrorHandler handles Fiber errors.
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(ErrorResponse{
		Error:   "server_error",
		Message: message,
	})
}
