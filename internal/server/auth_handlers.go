package server

import (
	"time"

	"snsdso/internal/models"
	"snsdso/internal/service"

	"github.com/gofiber/fiber/v2"
)

// loginUser is the account summary returned by a successful login.
type loginUser struct {
	ID          uint   `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
}

// Register handles POST /auth/register
func (s *Server) Register(c *fiber.Ctx) error {
	var req struct {
		Username    string `json:"username"`
		Email       string `json:"email"`
		Password    string `json:"password"`
		DisplayName string `json:"display_name"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	id, err := servicesFrom(c).auth.Register(c.UserContext(), service.RegisterInput{
		Username:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return success(c, fiber.StatusCreated, fiber.Map{
		"message": "User registered successfully",
		"user_id": id,
	})
}

// Login handles POST /auth/login. The username field also accepts an email.
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	identifier := req.Username
	if identifier == "" {
		identifier = req.Email
	}

	user, sess, err := servicesFrom(c).auth.Login(c.UserContext(), service.LoginInput{
		Identifier:    identifier,
		Password:      req.Password,
		PreviousToken: c.Cookies(s.config.SessionCookieName),
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	s.setSessionCookie(c, sess.Token, sess.ExpiresAt)
	return success(c, fiber.StatusOK, fiber.Map{
		"message": "Login successful",
		"user": loginUser{
			ID:          user.ID,
			Username:    user.Username,
			Email:       user.Email,
			DisplayName: user.DisplayName,
			AvatarURL:   user.AvatarURL,
		},
	})
}

// Logout handles POST /auth/logout. It succeeds with or without a session.
func (s *Server) Logout(c *fiber.Ctx) error {
	if err := servicesFrom(c).auth.Logout(c.UserContext(), c.Cookies(s.config.SessionCookieName)); err != nil {
		return models.RespondWithAppError(c, err)
	}
	s.clearSessionCookie(c)
	return success(c, fiber.StatusOK, fiber.Map{"message": "Logged out successfully"})
}

// Me handles GET /auth/me
func (s *Server) Me(c *fiber.Ctx) error {
	sess, ok := c.Locals(localsSession).(*models.Session)
	if !ok {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Not authenticated"))
	}
	return success(c, fiber.StatusOK, fiber.Map{"user": sess.Identity()})
}

func (s *Server) setSessionCookie(c *fiber.Ctx, token string, expires time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     s.config.SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HTTPOnly: true,
		Secure:   s.config.SessionCookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     s.config.SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   s.config.SessionCookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
