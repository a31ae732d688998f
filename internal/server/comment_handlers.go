package server

import (
	"snsdso/internal/models"
	"snsdso/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateComment handles POST /posts/:id/comments
func (s *Server) CreateComment(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	userID := c.Locals("userID").(uint)

	var req struct {
		Content string `json:"content"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	id, err := servicesFrom(c).comments.AddComment(c.UserContext(), service.CreateCommentInput{
		UserID:  userID,
		PostID:  postID,
		Content: req.Content,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return success(c, fiber.StatusCreated, fiber.Map{
		"message":    "Comment added successfully",
		"comment_id": id,
	})
}

// GetComments handles GET /posts/:id/comments
func (s *Server) GetComments(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	comments, err := servicesFrom(c).comments.GetComments(c.UserContext(), postID)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}

	return success(c, fiber.StatusOK, fiber.Map{
		"count":    len(comments),
		"comments": nonNil(comments),
	})
}

// DeleteComment handles DELETE /comments/:id
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	userID := c.Locals("userID").(uint)

	deleted, err := servicesFrom(c).comments.DeleteComment(c.UserContext(), service.DeleteCommentInput{
		UserID:    userID,
		CommentID: id,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	if !deleted {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Failed to delete comment"))
	}

	return success(c, fiber.StatusOK, fiber.Map{"message": "Comment deleted successfully"})
}
