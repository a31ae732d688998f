package service

import (
	"context"

	"snsdso/internal/models"
	"snsdso/internal/observability"
	"snsdso/internal/repository"
	"snsdso/internal/validation"
)

type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
}

type CreateCommentInput struct {
	UserID  uint
	PostID  uint
	Content string
}

type DeleteCommentInput struct {
	UserID    uint
	CommentID uint
}

func NewCommentService(commentRepo repository.CommentRepository, postRepo repository.PostRepository) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
	}
}

func (s *CommentService) AddComment(ctx context.Context, in CreateCommentInput) (uint, error) {
	if err := validation.ValidateContent("Comment", in.Content); err != nil {
		return 0, models.NewValidationError(err.Error())
	}
	if _, found, err := s.postRepo.OwnerID(ctx, in.PostID); err != nil {
		return 0, err
	} else if !found {
		return 0, models.NewValidationError("Post not found")
	}

	comment := &models.Comment{
		UserID:  in.UserID,
		PostID:  in.PostID,
		Content: in.Content,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return 0, err
	}
	observability.Interactions.WithLabelValues("comment_create").Inc()
	return comment.ID, nil
}

// GetComments lists a post's comments oldest first. Unknown posts yield an empty list.
func (s *CommentService) GetComments(ctx context.Context, postID uint) ([]*models.Comment, error) {
	return s.commentRepo.ListByPost(ctx, postID)
}

// DeleteComment removes a comment written by the caller. It returns false when the comment does not exist.
func (s *CommentService) DeleteComment(ctx context.Context, in DeleteCommentInput) (bool, error) {
	ownerID, found, err := s.commentRepo.OwnerID(ctx, in.CommentID)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}
	if ownerID != in.UserID {
		return false, models.NewForbiddenError("You can only delete your own comments")
	}
	deleted, err := s.commentRepo.Delete(ctx, in.CommentID, in.UserID)
	if err != nil {
		return false, err
	}
	if deleted {
		observability.Interactions.WithLabelValues("comment_delete").Inc()
	}
	return deleted, nil
}
