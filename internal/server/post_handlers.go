package server

import (
	"snsdso/internal/models"
	"snsdso/internal/service"

	"github.com/gofiber/fiber/v2"
)

type postRequest struct {
	Content  string  `json:"content"`
	ImageURL *string `json:"image_url"`
}

// GetPosts handles GET /posts
func (s *Server) GetPosts(c *fiber.Ctx) error {
	page := parsePagination(c, service.DefaultPageSize)
	userID, _ := optionalUserID(c)

	posts, err := servicesFrom(c).posts.ListPosts(c.UserContext(), service.ListPostsInput{
		Limit:         page.Limit,
		Offset:        page.Offset,
		CurrentUserID: userID,
	})
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return success(c, fiber.StatusOK, fiber.Map{
		"count": len(posts),
		"posts": nonNil(posts),
	})
}

// CreatePost handles POST /posts
func (s *Server) CreatePost(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	var req postRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	id, err := servicesFrom(c).posts.CreatePost(c.UserContext(), service.CreatePostInput{
		UserID:   userID,
		Content:  req.Content,
		ImageURL: req.ImageURL,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return success(c, fiber.StatusCreated, fiber.Map{
		"message": "Post created successfully",
		"post_id": id,
	})
}

// GetPost handles GET /posts/:id
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	userID, _ := optionalUserID(c)

	post, err := servicesFrom(c).posts.GetPost(c.UserContext(), id, userID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	if post == nil {
		return models.RespondWithAppError(c, models.NewNotFoundError("Post"))
	}

	return success(c, fiber.StatusOK, fiber.Map{"post": post})
}

// UpdatePost handles PUT /posts/:id
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	userID := c.Locals("userID").(uint)

	var req postRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	updated, err := servicesFrom(c).posts.UpdatePost(c.UserContext(), service.UpdatePostInput{
		UserID:   userID,
		PostID:   id,
		Content:  req.Content,
		ImageURL: req.ImageURL,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	if !updated {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Failed to update post"))
	}

	return success(c, fiber.StatusOK, fiber.Map{"message": "Post updated successfully"})
}

// DeletePost handles DELETE /posts/:id
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	userID := c.Locals("userID").(uint)

	deleted, err := servicesFrom(c).posts.DeletePost(c.UserContext(), service.DeletePostInput{
		UserID: userID,
		PostID: id,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	if !deleted {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Failed to delete post"))
	}

	return success(c, fiber.StatusOK, fiber.Map{"message": "Post deleted successfully"})
}

// LikePost handles POST /posts/:id/like. Liking twice is not an error.
func (s *Server) LikePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	userID := c.Locals("userID").(uint)

	liked, err := servicesFrom(c).posts.LikePost(c.UserContext(), id, userID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	message := "Post liked"
	if !liked {
		message = "Already liked"
	}
	return success(c, fiber.StatusOK, fiber.Map{"message": message, "liked": liked})
}

// UnlikePost handles POST /posts/:id/unlike
func (s *Server) UnlikePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	userID := c.Locals("userID").(uint)

	unliked, err := servicesFrom(c).posts.UnlikePost(c.UserContext(), id, userID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	message := "Post unliked"
	if !unliked {
		message = "Not liked"
	}
	return success(c, fiber.StatusOK, fiber.Map{"message": message, "unliked": unliked})
}

// GetLikes handles GET /posts/:id/likes
func (s *Server) GetLikes(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	likes, err := servicesFrom(c).posts.GetLikes(c.UserContext(), id)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return success(c, fiber.StatusOK, fiber.Map{
		"count": len(likes),
		"likes": nonNil(likes),
	})
}

// nonNil keeps empty lists encoding as [] instead of null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
