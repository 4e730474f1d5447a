package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/openclaw/pokerhall/internal/events"
	"github.com/openclaw/pokerhall/internal/httperr"
	"github.com/openclaw/pokerhall/internal/logging"
	"github.com/openclaw/pokerhall/internal/service"
	"github.com/openclaw/pokerhall/internal/validation"
)

type AuthHandler struct {
	Svc      *service.AuthService
	Producer *events.Producer
	// SecureCookies is false only in development so the frontend can run
	// without TLS.
	SecureCookies bool
}

func (h *AuthHandler) publish(c echo.Context, key string, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, events.TopicUserEvents, key, event); err != nil {
		logging.FromContext(c.Request().Context()).Error("kafka publish failed", "error", err)
	}
}

func (h *AuthHandler) Register(c echo.Context) error {
	// The bind struct has no role field on purpose: whatever role a client
	// smuggles into the payload never reaches the service.
	var req struct {
		Username string  `json:"username"`
		Email    *string `json:"email"`
		Password string  `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return httperr.BadRequest("Invalid request body")
	}

	if !validation.Username(req.Username) {
		return httperr.BadRequest("Username: 3-32 chars, alphanumeric + underscore")
	}
	if !validation.Password(req.Password) {
		return httperr.BadRequest("Password must be at least 6 characters")
	}
	if req.Email != nil && *req.Email != "" && !validation.Email(*req.Email) {
		return httperr.BadRequest("Invalid email format")
	}
	if req.Email != nil && *req.Email == "" {
		req.Email = nil
	}

	user, err := h.Svc.Register(c.Request().Context(), req.Username, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrUserExists) {
			return httperr.Conflict("Username or email already exists")
		}
		return err
	}

	h.publish(c, req.Username, map[string]any{
		"type":     "user_registered",
		"user_id":  user.ID,
		"username": user.Username,
	})

	return c.JSON(http.StatusCreated, echo.Map{
		"user_id":  user.ID,
		"username": user.Username,
		"message":  "User created successfully",
	})
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return httperr.BadRequest("Invalid request body")
	}
	if req.Username == "" || req.Password == "" {
		return httperr.BadRequest("Username and password are required")
	}

	res, err := h.Svc.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return httperr.Unauthorized("Invalid credentials")
		}
		return err
	}

	h.setSessionCookies(c, res)

	h.publish(c, res.Username, map[string]any{
		"type":     "user_logged_in",
		"user_id":  res.UserID,
		"username": res.Username,
	})

	return c.JSON(http.StatusOK, echo.Map{
		"user_id":  res.UserID,
		"username": res.Username,
		"role":     res.Role,
	})
}

func (h *AuthHandler) Refresh(c echo.Context) error {
	cookie, err := c.Cookie(RefreshCookie)
	if err != nil || cookie.Value == "" {
		return httperr.Unauthorized("No refresh token")
	}

	res, err := h.Svc.Refresh(c.Request().Context(), cookie.Value)
	if err != nil {
		if errors.Is(err, service.ErrRefreshRejected) {
			return httperr.Unauthorized("Invalid or expired refresh token")
		}
		return err
	}

	h.setSessionCookies(c, res)

	return c.JSON(http.StatusOK, echo.Map{
		"user_id":  res.UserID,
		"username": res.Username,
		"role":     res.Role,
	})
}

// Logout always succeeds, with or without a cookie, verified or not.
func (h *AuthHandler) Logout(c echo.Context) error {
	raw := ""
	if cookie, err := c.Cookie(AccessCookie); err == nil {
		raw = cookie.Value
	}
	if err := h.Svc.Logout(c.Request().Context(), raw); err != nil {
		return err
	}

	c.SetCookie(deleteCookie(AccessCookie, "/", h.SecureCookies))
	c.SetCookie(deleteCookie(RefreshCookie, AuthCookiePath, h.SecureCookies))

	return c.JSON(http.StatusOK, echo.Map{
		"message": "Logged out successfully",
	})
}

func (h *AuthHandler) setSessionCookies(c echo.Context, res *service.SessionResult) {
	c.SetCookie(createCookie(AccessCookie, res.AccessToken, "/", time.Until(res.AccessExp), h.SecureCookies))
	c.SetCookie(createCookie(RefreshCookie, res.RefreshToken, AuthCookiePath, time.Until(res.RefreshExp), h.SecureCookies))
}
