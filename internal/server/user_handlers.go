package server

import (
	"time"

	"snsdso/internal/models"
	"snsdso/internal/service"

	"github.com/gofiber/fiber/v2"
)

type profileUser struct {
	ID          uint      `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Bio         string    `json:"bio"`
	AvatarURL   string    `json:"avatar_url"`
	CreatedAt   time.Time `json:"created_at"`
}

// GetUserProfile handles GET /users/:id
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	currentUserID, _ := optionalUserID(c)
	svc := servicesFrom(c)

	user, err := svc.auth.GetUserByID(c.UserContext(), id)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	if user == nil {
		return models.RespondWithAppError(c, models.NewNotFoundError("User"))
	}

	posts, err := svc.posts.ListUserPosts(c.UserContext(), id, service.ProfilePostLimit, currentUserID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return success(c, fiber.StatusOK, fiber.Map{
		"user": profileUser{
			ID:          user.ID,
			Username:    user.Username,
			Email:       user.Email,
			DisplayName: user.DisplayName,
			Bio:         user.Bio,
			AvatarURL:   user.AvatarURL,
			CreatedAt:   user.CreatedAt,
		},
		"posts": nonNil(posts),
	})
}
