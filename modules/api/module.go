package api

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/example/tidytasks/modules/auth"
	"github.com/example/tidytasks/modules/tasklist"
	"github.com/go-monolith/mono"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// APIModule is the HTTP API module.
type APIModule struct {
	app       *fiber.App
	port      int
	rateLimit fiber.Handler
	checks    []HealthChecker
	log       *zap.Logger

	authAdapter  auth.AuthPort
	listsAdapter tasklist.TaskListPort
}

// Compile-time interface checks.
var _ mono.Module = (*APIModule)(nil)
var _ mono.DependentModule = (*APIModule)(nil)
var _ mono.HealthCheckableModule = (*APIModule)(nil)

// NewModule creates a new APIModule listening on port. rateLimit may be nil;
// checks are reported on /health.
func NewModule(port int, rateLimit fiber.Handler, log *zap.Logger, checks ...HealthChecker) *APIModule {
	return &APIModule{
		port:      port,
		rateLimit: rateLimit,
		checks:    checks,
		log:       log.Named("api"),
	}
}

// Name returns the module name.
func (m *APIModule) Name() string {
	return "api"
}

// Dependencies returns the list of module dependencies.
func (m *APIModule) Dependencies() []string {
	return []string{"auth", "tasklist"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *APIModule) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	switch dependency {
	case "auth":
		m.authAdapter = auth.NewAuthAdapter(container)
	case "tasklist":
		m.listsAdapter = tasklist.NewTaskListAdapter(container)
	}
}

// Start initializes the Fiber HTTP server.
func (m *APIModule) Start(_ context.Context) error {
	if m.authAdapter == nil {
		return fmt.Errorf("auth dependency not set")
	}
	if m.listsAdapter == nil {
		return fmt.Errorf("tasklist dependency not set")
	}

	handlers := NewHandlers(m.authAdapter, m.listsAdapter, m.checks, m.log)
	m.app = newFiberApp(handlers, m.rateLimit, m.log)

	addr := net.JoinHostPort("", strconv.Itoa(m.port))
	go func() {
		if err := m.app.Listen(addr); err != nil {
			m.log.Error("HTTP server error", zap.Error(err))
		}
	}()

	m.log.Info("HTTP server started", zap.String("addr", addr))
	return nil
}

// Stop shuts down the Fiber HTTP server.
func (m *APIModule) Stop(_ context.Context) error {
	if m.app == nil {
		return nil
	}
	m.log.Info("shutting down HTTP server")
	return m.app.Shutdown()
}

// Health returns the health status of the module.
func (m *APIModule) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: m.app != nil,
		Message: "operational",
		Details: map[string]any{
			"port": m.port,
		},
	}
}

// newFiberApp builds the application with its middleware stack and routes.
func newFiberApp(h *Handlers, rateLimit fiber.Handler, log *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          customErrorHandler,
	})

	app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))
	app.Use(AccessLog(log))
	app.Use(recover.New())
	app.Use(cors.New())
	if rateLimit != nil {
		app.Use(rateLimit)
	}

	setupRoutes(app, h)
	return app
}

// setupRoutes configures all API routes.
func setupRoutes(app *fiber.App, h *Handlers) {
	app.Get("/health", h.Health)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	authRoutes := app.Group("/auth")
	authRoutes.Post("/register", h.Register)
	authRoutes.Post("/login", h.Login)

	lists := app.Group("/lists", AuthMiddleware(h.auth))
	lists.Post("/", h.CreateList)
	lists.Get("/", h.ListTasks)
	lists.Get("/:list_id", h.GetList)
	lists.Put("/:list_id", h.UpdateList)
	lists.Delete("/:list_id", h.DeleteList)

	lists.Post("/:list_id/tasks", h.CreateTask)
	lists.Get("/:list_id/tasks/:task_id", h.GetTask)
	lists.Put("/:list_id/tasks/:task_id", h.UpdateTask)
	lists.Delete("/:list_id/tasks/:task_id", h.DeleteTask)
	lists.Patch("/:list_id/tasks/:task_id/status", h.SetTaskStatus)
}
