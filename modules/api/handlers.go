package api

import (
	"log"
	"strings"

	"github.com/example/task-tracker/modules/activity"
	"github.com/example/task-tracker/modules/auth"
	"github.com/example/task-tracker/modules/preferences"
	taskmod "github.com/example/task-tracker/modules/task"
	"github.com/gofiber/fiber/v2"
)

// Handlers contains HTTP handlers for the API.
type Handlers struct {
	auth     auth.AuthPort
	tasks    taskmod.TaskPort
	prefs    preferences.PreferencesPort
	activity activity.ActivityPort
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(authPort auth.AuthPort, tasks taskmod.TaskPort, prefs preferences.PreferencesPort, activityPort activity.ActivityPort) *Handlers {
	return &Handlers{
		auth:     authPort,
		tasks:    tasks,
		prefs:    prefs,
		activity: activityPort,
	}
}

// Register handles user registration.
func (h *Handlers) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Email) == "" ||
		req.Password == "" || req.ConfirmPassword == "" {
		return badRequest(c, "Please fill in all fields")
	}
	if req.Password != req.ConfirmPassword {
		return badRequest(c, "Passwords do not match")
	}

	resp, err := h.auth.Register(c.UserContext(), auth.RegisterRequest{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return h.handleAuthError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(UserResponse{
		ID:        resp.ID,
		Name:      resp.Name,
		Email:     resp.Email,
		CreatedAt: resp.CreatedAt,
	})
}

// Login handles user login.
func (h *Handlers) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return badRequest(c, "Please fill in all fields")
	}

	resp, err := h.auth.Login(c.UserContext(), auth.LoginRequest{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return h.handleAuthError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(TokenResponse{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresIn:    resp.ExpiresIn,
		TokenType:    resp.TokenType,
		User: &UserResponse{
			ID:    resp.UserID,
			Name:  resp.Name,
			Email: resp.Email,
		},
	})
}

// Refresh handles token refresh.
func (h *Handlers) Refresh(c *fiber.Ctx) error {
	var req RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if req.RefreshToken == "" {
		return badRequest(c, "Refresh token is required")
	}

	resp, err := h.auth.Refresh(c.UserContext(), req.RefreshToken)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
			Error:   "unauthorized",
			Message: "Invalid or expired refresh token",
		})
	}

	return c.Status(fiber.StatusOK).JSON(TokenResponse{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresIn:    resp.ExpiresIn,
		TokenType:    resp.TokenType,
	})
}

// Logout revokes the current access token and, when given, the refresh token.
func (h *Handlers) Logout(c *fiber.Ctx) error {
	var req LogoutRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "Invalid request body")
		}
	}

	token, _ := c.Locals(TokenContextKey).(string)
	if err := h.auth.SignOut(c.UserContext(), auth.SignOutRequest{
		AccessToken:  token,
		RefreshToken: req.RefreshToken,
	}); err != nil {
		log.Printf("[api] Sign-out failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to sign out",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Signed out",
	})
}

// Profile returns the signed-in user with their preferences.
func (h *Handlers) Profile(c *fiber.Ctx) error {
	claims, ok := currentUser(c)
	if !ok {
		return unauthenticated(c)
	}

	user, err := h.auth.GetUser(c.UserContext(), claims.UserID)
	if err != nil {
		log.Printf("[api] Failed to load user %s: %v", claims.UserID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to retrieve user profile",
		})
	}

	prefs, err := h.prefs.Get(c.UserContext(), claims.UserID)
	if err != nil {
		log.Printf("[api] Failed to load preferences for %s: %v", claims.UserID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to retrieve preferences",
		})
	}

	return c.Status(fiber.StatusOK).JSON(ProfileResponse{
		UserResponse: UserResponse{
			ID:        user.ID,
			Name:      user.Name,
			Email:     user.Email,
			CreatedAt: user.CreatedAt,
		},
		Preferences: *prefs,
	})
}

// GetPreferences returns the signed-in user's preferences.
func (h *Handlers) GetPreferences(c *fiber.Ctx) error {
	claims, ok := currentUser(c)
	if !ok {
		return unauthenticated(c)
	}

	prefs, err := h.prefs.Get(c.UserContext(), claims.UserID)
	if err != nil {
		return h.handlePreferencesError(c, err)
	}
	return c.JSON(prefs)
}

// UpdatePreferences applies a partial preferences update.
func (h *Handlers) UpdatePreferences(c *fiber.Ctx) error {
	claims, ok := currentUser(c)
	if !ok {
		return unauthenticated(c)
	}

	var req PreferencesInput
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	prefs, err := h.prefs.Update(c.UserContext(), preferences.UpdatePreferencesRequest{
		UserID:         claims.UserID,
		Theme:          req.Theme,
		DisplayName:    req.DisplayName,
		ProfilePicture: req.ProfilePicture,
	})
	if err != nil {
		return h.handlePreferencesError(c, err)
	}
	return c.JSON(prefs)
}

// ListActivity returns the signed-in user's recent activity.
func (h *Handlers) ListActivity(c *fiber.Ctx) error {
	claims, ok := currentUser(c)
	if !ok {
		return unauthenticated(c)
	}

	entries, err := h.activity.List(c.UserContext(), claims.UserID, c.QueryInt("limit", 0))
	if err != nil {
		log.Printf("[api] Failed to load activity for %s: %v", claims.UserID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to retrieve activity",
		})
	}
	return c.JSON(fiber.Map{"entries": entries})
}

// handleAuthError matches known auth error messages to responses without
// exposing internals.
func (h *Handlers) handleAuthError(c *fiber.Ctx, err error) error {
	errStr := err.Error()

	switch {
	case strings.Contains(errStr, auth.ErrInvalidCredentials.Error()):
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
			Error:   "unauthorized",
			Message: "Invalid email or password",
		})
	case strings.Contains(errStr, auth.ErrUserExists.Error()):
		return c.Status(fiber.StatusConflict).JSON(ErrorResponse{
			Error:   "conflict",
			Message: "User with this email already exists",
		})
	case strings.Contains(errStr, auth.ErrMissingFields.Error()):
		return badRequest(c, "Please fill in all fields")
	case strings.Contains(errStr, auth.ErrInvalidEmail.Error()):
		return badRequest(c, "Invalid email format")
	case strings.Contains(errStr, auth.ErrWeakPassword.Error()):
		return badRequest(c, "Password must be at least 6 characters")
	case strings.Contains(errStr, auth.ErrPasswordTooLong.Error()):
		return badRequest(c, "Password must be at most 72 characters")
	default:
		log.Printf("[api] Internal error: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "internal_error",
			Message: "An internal error occurred",
		})
	}
}

func (h *Handlers) handlePreferencesError(c *fiber.Ctx, err error) error {
	if preferences.IsValidation(err) {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
	}
	log.Printf("[api] Preferences error: %v", err)
	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
		Error:   "bad_request",
		Message: message,
	})
}

func unauthenticated(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
		Error:   "unauthorized",
		Message: "User not authenticated",
	})
}
