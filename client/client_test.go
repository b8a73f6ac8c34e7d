package client

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/example/task-tracker/domain/task"
	"github.com/example/task-tracker/identity"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticToken string

func (s staticToken) AccessToken() string { return string(s) }

// startServer serves app on a random local port and returns its URL.
func startServer(t *testing.T, app *fiber.App) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	go func() {
		_ = app.Listener(ln)
	}()
	t.Cleanup(func() {
		_ = app.Shutdown()
	})
	return "http://" + ln.Addr().String()
}

func requireBearer(c *fiber.Ctx) error {
	if c.Get(fiber.HeaderAuthorization) != "Bearer good" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "unauthorized",
			"message": "Invalid or expired token",
		})
	}
	return c.Next()
}

func newTestServer(t *testing.T) string {
	t.Helper()
	app := fiber.New(fiber.Config{DisableStartupMessage: true})

	app.Post("/api/v1/auth/login", func(c *fiber.Ctx) error {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := c.BodyParser(&req); err != nil {
			return err
		}
		if req.Password != "secret1" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":   "unauthorized",
				"message": "Invalid email or password",
			})
		}
		return c.JSON(fiber.Map{
			"access_token":  "good",
			"refresh_token": "r1",
			"expires_in":    900,
			"token_type":    "Bearer",
			"user":          fiber.Map{"id": "u1", "name": "Ann", "email": req.Email},
		})
	})
	app.Post("/api/v1/auth/register", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "bad_request",
			"message": "Passwords do not match",
		})
	})

	api := app.Group("/api/v1", requireBearer)
	api.Get("/profile", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"id": "u1", "name": "Ann", "email": "ann@example.com", "preferences": fiber.Map{"theme": "dark"}})
	})
	api.Get("/tasks", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"tasks":           []task.Task{{ID: "t1", Title: c.Query("search") + "|" + c.Query("sort") + "|" + c.Query("tz")}},
			"total":           1,
			"collectionEmpty": false,
			"filtered":        c.Query("search") != "",
		})
	})
	api.Post("/tasks", func(c *fiber.Ctx) error {
		var in struct {
			Title string `json:"title"`
		}
		if err := c.BodyParser(&in); err != nil {
			return err
		}
		if in.Title == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_error", "message": "Title is required"})
		}
		return c.Status(fiber.StatusCreated).JSON(task.Task{ID: "t2", Title: in.Title})
	})
	api.Get("/tasks/:id", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Task not found"})
	})
	api.Delete("/tasks/:id", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	api.Delete("/tasks", func(c *fiber.Ctx) error {
		if !c.QueryBool("confirm") {
			return c.SendStatus(fiber.StatusBadRequest)
		}
		return c.JSON(fiber.Map{"removed": 4})
	})
	api.Get("/stats", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"total": 3, "completed": 1, "active": 2, "completionRate": 33, "recent": []task.Task{}, "cached": true})
	})

	return startServer(t, app)
}

func TestNew_TrimsTrailingSlash(t *testing.T) {
	assert.Equal(t, "http://localhost:3000", New("http://localhost:3000/").BaseURL())
}

func TestClient_Login(t *testing.T) {
	c := New(newTestServer(t))
	ctx := context.Background()

	s, err := c.Login(ctx, "ann@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "good", s.AccessToken)
	assert.Equal(t, "r1", s.RefreshToken)
	assert.Equal(t, "u1", s.User.ID)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), s.ExpiresAt, time.Minute)

	_, err = c.Login(ctx, "ann@example.com", "wrong")
	assert.ErrorIs(t, err, identity.ErrRejected)
	assert.EqualError(t, err, "Invalid email or password")
}

func TestClient_RegisterReportsServerMessage(t *testing.T) {
	c := New(newTestServer(t))

	err := c.Register(context.Background(), "Ann", "ann@example.com", "secret1", "secret2")
	require.Error(t, err)
	assert.True(t, IsValidation(err))
	assert.Equal(t, "Passwords do not match", err.Error())
}

func TestClient_Profile(t *testing.T) {
	c := New(newTestServer(t))

	u, err := c.Profile(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", u.Email)

	_, err = c.Profile(context.Background(), "bad")
	assert.ErrorIs(t, err, identity.ErrRejected)
}

func TestClient_TasksRequireToken(t *testing.T) {
	c := New(newTestServer(t))

	_, err := c.ListTasks(context.Background(), ListOptions{})
	assert.ErrorIs(t, err, identity.ErrNotSignedIn)
}

func TestClient_Tasks(t *testing.T) {
	c := New(newTestServer(t), WithTokenSource(staticToken("good")))
	ctx := context.Background()

	list, err := c.ListTasks(ctx, ListOptions{Search: "milk", Sort: "updatedAt-asc", TZ: "Europe/Berlin"})
	require.NoError(t, err)
	require.Len(t, list.Tasks, 1)
	assert.Equal(t, "milk|updatedAt-asc|Europe/Berlin", list.Tasks[0].Title)
	assert.True(t, list.Filtered)

	all, err := c.AllTasks(ctx)
	require.NoError(t, err)
	assert.Equal(t, "|createdAt-asc|", all[0].Title)

	created, err := c.CreateTask(ctx, "Buy milk", "")
	require.NoError(t, err)
	assert.Equal(t, "t2", created.ID)

	_, err = c.CreateTask(ctx, "", "")
	assert.True(t, IsValidation(err))
	assert.EqualError(t, err, "Title is required")

	_, err = c.GetTask(ctx, "missing")
	assert.ErrorIs(t, err, task.ErrNotFound)

	assert.NoError(t, c.DeleteTask(ctx, "missing"))

	removed, err := c.ClearTasks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, removed)

	stats, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 33, stats.CompletionRate)
	assert.True(t, stats.Cached)
}

func TestClient_ContextDeadline(t *testing.T) {
	c := New(newTestServer(t), WithTokenSource(staticToken("good")))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Stats(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClient_UnreachableServer(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	c := New("http://"+addr, WithTimeout(time.Second))
	_, err = c.Login(context.Background(), "a@example.com", "secret1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, identity.ErrRejected)
}
