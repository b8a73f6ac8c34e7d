package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	domain "github.com/example/task-tracker/domain/user"
	"github.com/gofiber/fiber/v2"
)

// mockValidator implements TokenValidator for testing
type mockValidator struct {
	validateTokenFunc func(ctx context.Context, token string) (*domain.Claims, error)
}

func (m *mockValidator) ValidateToken(ctx context.Context, token string) (*domain.Claims, error) {
	if m.validateTokenFunc != nil {
		return m.validateTokenFunc(ctx, token)
	}
	return nil, errors.New("not implemented")
}

func validToken(userID string) *mockValidator {
	return &mockValidator{
		validateTokenFunc: func(ctx context.Context, token string) (*domain.Claims, error) {
			if token != "valid-token" {
				return nil, errors.New("invalid token")
			}
			return &domain.Claims{UserID: userID, Email: userID + "@example.com"}, nil
		},
	}
}

func TestAuthMiddleware(t *testing.T) {
	tests := []struct {
		name           string
		authHeader     string
		validator      *mockValidator
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "missing authorization header",
			authHeader:     "",
			validator:      &mockValidator{},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `"Authorization header is required"`,
		},
		{
			name:           "invalid authorization format - no bearer",
			authHeader:     "Basic token123",
			validator:      &mockValidator{},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `Invalid authorization header format`,
		},
		{
			name:           "invalid token",
			authHeader:     "Bearer invalid-token",
			validator:      validToken("user-123"),
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `"Invalid or expired token"`,
		},
		{
			name:           "valid token",
			authHeader:     "Bearer valid-token",
			validator:      validToken("user-123"),
			expectedStatus: http.StatusOK,
			expectedBody:   `"authenticated"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Use(AuthMiddleware(tt.validator))
			app.Get("/test", func(c *fiber.Ctx) error {
				return c.JSON(fiber.Map{"status": "authenticated"})
			})

			req := httptest.NewRequest("GET", "/test", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			resp, err := app.Test(req, -1)
			if err != nil {
				t.Fatalf("app.Test() error = %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.expectedStatus {
				t.Errorf("status = %v, want %v", resp.StatusCode, tt.expectedStatus)
			}

			body, err := io.ReadAll(resp.Body)
			if err != nil {
				t.Fatalf("io.ReadAll() error = %v", err)
			}
			if !strings.Contains(string(body), tt.expectedBody) {
				t.Errorf("body = %v, want to contain %v", string(body), tt.expectedBody)
			}
		})
	}
}

func TestAuthMiddleware_StoresClaimsAndToken(t *testing.T) {
	app := fiber.New()
	app.Use(AuthMiddleware(validToken("user-456")))

	var capturedClaims *domain.Claims
	var capturedToken string
	app.Get("/test", func(c *fiber.Ctx) error {
		claims, ok := currentUser(c)
		if !ok {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "no claims"})
		}
		capturedClaims = claims
		capturedToken, _ = c.Locals(TokenContextKey).(string)
		return c.JSON(fiber.Map{"status": "ok"})
	})

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer valid-token")

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %v, want %v", resp.StatusCode, http.StatusOK)
	}
	if capturedClaims == nil || capturedClaims.UserID != "user-456" {
		t.Errorf("claims = %+v, want user-456", capturedClaims)
	}
	if capturedToken != "valid-token" {
		t.Errorf("token = %q, want valid-token", capturedToken)
	}
}

func TestWebSocketAuth(t *testing.T) {
	upgrade := func(req *http.Request) {
		req.Header.Set("Connection", "Upgrade")
		req.Header.Set("Upgrade", "websocket")
		req.Header.Set("Sec-WebSocket-Version", "13")
		req.Header.Set("Sec-WebSocket-Key", "dGhlIHNhbXBsZSBub25jZQ==")
	}

	tests := []struct {
		name           string
		target         string
		upgrade        bool
		expectedStatus int
	}{
		{name: "plain request", target: "/ws?token=valid-token", expectedStatus: http.StatusUpgradeRequired},
		{name: "missing token", target: "/ws", upgrade: true, expectedStatus: http.StatusUnauthorized},
		{name: "invalid token", target: "/ws?token=nope", upgrade: true, expectedStatus: http.StatusUnauthorized},
		{name: "valid token", target: "/ws?token=valid-token", upgrade: true, expectedStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New(fiber.Config{ErrorHandler: customErrorHandler})
			app.Use("/ws", WebSocketAuth(validToken("user-1")))
			app.Get("/ws", func(c *fiber.Ctx) error {
				if _, ok := currentUser(c); !ok {
					return c.SendStatus(fiber.StatusInternalServerError)
				}
				return c.SendStatus(fiber.StatusOK)
			})

			req := httptest.NewRequest("GET", tt.target, nil)
			if tt.upgrade {
				upgrade(req)
			}

			resp, err := app.Test(req, -1)
			if err != nil {
				t.Fatalf("app.Test() error = %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.expectedStatus {
				t.Errorf("status = %v, want %v", resp.StatusCode, tt.expectedStatus)
			}
		})
	}
}
