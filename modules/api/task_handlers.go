package api

import (
	"errors"
	"log"

	domaintask "github.com/example/task-tracker/domain/task"
	taskmod "github.com/example/task-tracker/modules/task"
	"github.com/gofiber/fiber/v2"
)

// ListTasks returns the derived view of the caller's collection.
func (h *Handlers) ListTasks(c *fiber.Ctx) error {
	claims, ok := currentUser(c)
	if !ok {
		return unauthenticated(c)
	}

	resp, err := h.tasks.List(c.UserContext(), taskmod.ListTasksRequest{
		UserID: claims.UserID,
		Search: c.Query("search"),
		Sort:   c.Query("sort"),
		Date:   c.Query("date"),
		Time:   c.Query("time"),
		TZ:     c.Query("tz"),
	})
	if err != nil {
		return handleTaskError(c, err)
	}
	return c.JSON(resp)
}

// CreateTask adds a task.
func (h *Handlers) CreateTask(c *fiber.Ctx) error {
	claims, ok := currentUser(c)
	if !ok {
		return unauthenticated(c)
	}

	var req TaskInput
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	t, err := h.tasks.Add(c.UserContext(), claims.UserID, req.Title, req.Description)
	if err != nil {
		return handleTaskError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(t)
}

// GetTask returns one task.
func (h *Handlers) GetTask(c *fiber.Ctx) error {
	claims, ok := currentUser(c)
	if !ok {
		return unauthenticated(c)
	}

	t, err := h.tasks.Get(c.UserContext(), claims.UserID, c.Params("id"))
	if err != nil {
		return handleTaskError(c, err)
	}
	return c.JSON(t)
}

// UpdateTask replaces a task's title and description.
func (h *Handlers) UpdateTask(c *fiber.Ctx) error {
	claims, ok := currentUser(c)
	if !ok {
		return unauthenticated(c)
	}

	var req TaskInput
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	t, err := h.tasks.Edit(c.UserContext(), claims.UserID, c.Params("id"), req.Title, req.Description)
	if err != nil {
		return handleTaskError(c, err)
	}
	return c.JSON(t)
}

// ToggleTask flips a task's completion flag.
func (h *Handlers) ToggleTask(c *fiber.Ctx) error {
	claims, ok := currentUser(c)
	if !ok {
		return unauthenticated(c)
	}

	t, err := h.tasks.Toggle(c.UserContext(), claims.UserID, c.Params("id"))
	if err != nil {
		return handleTaskError(c, err)
	}
	return c.JSON(t)
}

// DeleteTask removes a task. A missing id is not an error.
func (h *Handlers) DeleteTask(c *fiber.Ctx) error {
	claims, ok := currentUser(c)
	if !ok {
		return unauthenticated(c)
	}

	if _, err := h.tasks.Delete(c.UserContext(), claims.UserID, c.Params("id")); err != nil {
		return handleTaskError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ClearTasks removes every task of the caller. It requires confirm=true.
func (h *Handlers) ClearTasks(c *fiber.Ctx) error {
	claims, ok := currentUser(c)
	if !ok {
		return unauthenticated(c)
	}

	if !c.QueryBool("confirm", false) {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "confirmation_required",
			Message: "Clearing all tasks requires confirm=true",
		})
	}

	removed, err := h.tasks.Clear(c.UserContext(), claims.UserID)
	if err != nil {
		return handleTaskError(c, err)
	}
	return c.JSON(fiber.Map{"removed": removed})
}

// Stats returns the caller's collection summary.
func (h *Handlers) Stats(c *fiber.Ctx) error {
	claims, ok := currentUser(c)
	if !ok {
		return unauthenticated(c)
	}

	stats, err := h.tasks.Stats(c.UserContext(), claims.UserID)
	if err != nil {
		return handleTaskError(c, err)
	}
	return c.JSON(stats)
}

func handleTaskError(c *fiber.Ctx, err error) error {
	var ve *domaintask.ValidationError
	switch {
	case errors.As(err, &ve):
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "validation_error",
			Message: ve.Message,
		})
	case errors.Is(err, domaintask.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Error:   "not_found",
			Message: "Task not found",
		})
	default:
		log.Printf("[api] Task operation failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "internal_error",
			Message: "An internal error occurred",
		})
	}
}
