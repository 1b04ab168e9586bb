package api

import (
	"context"
	"strconv"
	"strings"

	domain "github.com/example/tidytasks/domain/tasklist"
	"github.com/example/tidytasks/modules/auth"
	"github.com/example/tidytasks/modules/tasklist"
	"github.com/go-monolith/mono"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// HealthChecker is a module whose health is reported on /health.
type HealthChecker interface {
	Name() string
	Health(ctx context.Context) mono.HealthStatus
}

// Handlers contains HTTP handlers for the API.
type Handlers struct {
	auth   auth.AuthPort
	lists  tasklist.TaskListPort
	checks []HealthChecker
	log    *zap.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(authPort auth.AuthPort, lists tasklist.TaskListPort, checks []HealthChecker, log *zap.Logger) *Handlers {
	return &Handlers{
		auth:   authPort,
		lists:  lists,
		checks: checks,
		log:    log,
	}
}

// Register handles user registration.
func (h *Handlers) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if _, err := h.auth.Register(c.UserContext(), req.Username, req.Email, req.Password); err != nil {
		return h.respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(MessageResponse{Msg: "User created"})
}

// Login exchanges credentials for a bearer token.
func (h *Handlers) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if req.Username == "" || req.Password == "" {
		return badRequest(c, "Username and password are required")
	}

	token, err := h.auth.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return h.respondError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(TokenResponse{
		AccessToken: token.AccessToken,
		TokenType:   token.TokenType,
		ExpiresIn:   token.ExpiresIn,
	})
}

// CreateList handles POST /lists/.
func (h *Handlers) CreateList(c *fiber.Ctx) error {
	var req ListRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	list, err := h.lists.CreateList(c.UserContext(), tasklist.ListInput{
		Name:     req.Name,
		ColorTag: req.ColorTag,
		Category: req.Category,
	})
	if err != nil {
		return h.respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(list)
}

// GetList handles GET /lists/:list_id.
func (h *Handlers) GetList(c *fiber.Ctx) error {
	listID, err := pathID(c, "list_id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	list, err := h.lists.GetList(c.UserContext(), listID)
	if err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(list)
}

// UpdateList handles PUT /lists/:list_id. All mutable fields are replaced.
func (h *Handlers) UpdateList(c *fiber.Ctx) error {
	listID, err := pathID(c, "list_id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	var req ListRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	list, err := h.lists.UpdateList(c.UserContext(), listID, tasklist.ListInput{
		Name:     req.Name,
		ColorTag: req.ColorTag,
		Category: req.Category,
	})
	if err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(list)
}

// DeleteList handles DELETE /lists/:list_id.
func (h *Handlers) DeleteList(c *fiber.Ctx) error {
	listID, err := pathID(c, "list_id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	if err := h.lists.DeleteList(c.UserContext(), listID); err != nil {
		return h.respondError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// ListTasks handles GET /lists/?list_id=&is_done=&priority=.
func (h *Handlers) ListTasks(c *fiber.Ctx) error {
	raw := c.Query("list_id")
	if raw == "" {
		return badRequest(c, "list_id query parameter is required")
	}
	listID, err := parseID("list_id", raw)
	if err != nil {
		return badRequest(c, err.Error())
	}

	filter := tasklist.TaskFilter{ListID: listID}

	if v := c.Query("is_done"); v != "" {
		isDone, err := strconv.ParseBool(v)
		if err != nil {
			return badRequest(c, "is_done must be a boolean")
		}
		filter.IsDone = &isDone
	}

	if v := c.Query("priority"); v != "" {
		priority := domain.Priority(strings.ToLower(v))
		filter.Priority = &priority
	}

	page, err := h.lists.ListTasks(c.UserContext(), filter)
	if err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(page)
}

// CreateTask handles POST /lists/:list_id/tasks/. The caller becomes the
// task's creator.
func (h *Handlers) CreateTask(c *fiber.Ctx) error {
	claims, ok := claimsFrom(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
			Error:   "unauthorized",
			Message: "User not authenticated",
		})
	}

	listID, err := pathID(c, "list_id")
	if err != nil {
		return badRequest(c, err.Error())
	}

	var req CreateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	task, err := h.lists.CreateTask(c.UserContext(), tasklist.CreateTaskInput{
		ListID:      listID,
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		AssignedTo:  req.AssignedTo,
		CreatedBy:   claims.UserID,
	})
	if err != nil {
		return h.respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(task)
}

// GetTask handles GET /lists/:list_id/tasks/:task_id.
func (h *Handlers) GetTask(c *fiber.Ctx) error {
	listID, taskID, err := taskPath(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	task, err := h.lists.GetTask(c.UserContext(), listID, taskID)
	if err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(task)
}

// UpdateTask handles PUT /lists/:list_id/tasks/:task_id as a partial update.
func (h *Handlers) UpdateTask(c *fiber.Ctx) error {
	claims, ok := claimsFrom(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
			Error:   "unauthorized",
			Message: "User not authenticated",
		})
	}

	listID, taskID, err := taskPath(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	var req UpdateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	task, err := h.lists.UpdateTask(c.UserContext(), listID, taskID, tasklist.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		AssignedTo:  req.AssignedTo,
		IsDone:      req.IsDone,
		UpdatedBy:   claims.UserID,
	})
	if err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(task)
}

// DeleteTask handles DELETE /lists/:list_id/tasks/:task_id.
func (h *Handlers) DeleteTask(c *fiber.Ctx) error {
	listID, taskID, err := taskPath(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	if err := h.lists.DeleteTask(c.UserContext(), listID, taskID); err != nil {
		return h.respondError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// SetTaskStatus handles PATCH /lists/:list_id/tasks/:task_id/status.
func (h *Handlers) SetTaskStatus(c *fiber.Ctx) error {
	listID, taskID, err := taskPath(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	var req TaskStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.IsDone == nil {
		return badRequest(c, "is_done is required")
	}

	task, err := h.lists.SetTaskStatus(c.UserContext(), listID, taskID, *req.IsDone)
	if err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(task)
}

// Health reports the health of every registered module.
func (h *Handlers) Health(c *fiber.Ctx) error {
	resp := HealthResponse{
		Status:  "healthy",
		Modules: make(map[string]ModuleHealth, len(h.checks)),
	}

	for _, check := range h.checks {
		status := check.Health(c.UserContext())
		resp.Modules[check.Name()] = ModuleHealth{
			Healthy: status.Healthy,
			Message: status.Message,
		}
		if !status.Healthy {
			resp.Status = "unhealthy"
		}
	}

	if resp.Status != "healthy" {
		return c.Status(fiber.StatusServiceUnavailable).JSON(resp)
	}
	return c.JSON(resp)
}

func taskPath(c *fiber.Ctx) (listID, taskID uint, err error) {
	if listID, err = pathID(c, "list_id"); err != nil {
		return 0, 0, err
	}
	if taskID, err = pathID(c, "task_id"); err != nil {
		return 0, 0, err
	}
	return listID, taskID, nil
}

func pathID(c *fiber.Ctx, name string) (uint, error) {
	return parseID(name, c.Params(name))
}

// parseID accepts positive decimal ids only.
func parseID(name, raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, name+" must be a positive integer")
	}
	return uint(id), nil
}
