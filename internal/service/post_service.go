// Package service holds the business rules that sit between HTTP handlers and repositories.
package service

import (
	"context"

	"snsdso/internal/models"
	"snsdso/internal/observability"
	"snsdso/internal/repository"
	"snsdso/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 100
	// ProfilePostLimit is how many recent posts a profile shows.
	ProfilePostLimit = 50
)

type PostService struct {
	postRepo repository.PostRepository
}

type CreatePostInput struct {
	UserID   uint
	Content  string
	ImageURL *string
}

type ListPostsInput struct {
	Limit         int
	Offset        int
	CurrentUserID uint
}

type UpdatePostInput struct {
	UserID   uint
	PostID   uint
	Content  string
	ImageURL *string
}

type DeletePostInput struct {
	UserID uint
	PostID uint
}

func NewPostService(postRepo repository.PostRepository) *PostService {
	return &PostService{postRepo: postRepo}
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (id uint, err error) {
	ctx, span := observability.StartSpan(ctx, "PostService.CreatePost", attribute.Int("user.id", int(in.UserID)))
	defer func() { observability.EndSpan(span, err) }()

	if err := validation.ValidateContent("Content", in.Content); err != nil {
		return 0, models.NewValidationError(err.Error())
	}

	post := &models.Post{
		UserID:   in.UserID,
		Content:  in.Content,
		ImageURL: emptyToNil(in.ImageURL),
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return 0, err
	}
	observability.Interactions.WithLabelValues("post_create").Inc()
	return post.ID, nil
}

// GetPost returns the post with author and counters, or nil when it does not exist.
func (s *PostService) GetPost(ctx context.Context, postID, currentUserID uint) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, postID, currentUserID)
	if err != nil || post == nil {
		return nil, err
	}
	markLiked(post, currentUserID)
	return post, nil
}

// ListPosts returns the global feed, newest first.
func (s *PostService) ListPosts(ctx context.Context, in ListPostsInput) ([]*models.Post, error) {
	limit, offset := clampPage(in.Limit, in.Offset)
	posts, err := s.postRepo.List(ctx, limit, offset, in.CurrentUserID)
	if err != nil {
		return nil, err
	}
	for _, p := range posts {
		markLiked(p, in.CurrentUserID)
	}
	return posts, nil
}

// ListUserPosts returns a user's most recent posts, newest first.
func (s *PostService) ListUserPosts(ctx context.Context, userID uint, limit int, currentUserID uint) ([]*models.Post, error) {
	limit, _ = clampPage(limit, 0)
	posts, err := s.postRepo.GetByUserID(ctx, userID, limit, currentUserID)
	if err != nil {
		return nil, err
	}
	for _, p := range posts {
		markLiked(p, currentUserID)
	}
	return posts, nil
}

// UpdatePost changes the content and image of a post the caller owns.
// The bool is false when the row was not changed.
func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (bool, error) {
	if err := s.requireOwner(ctx, in.PostID, in.UserID, "You can only edit your own posts"); err != nil {
		return false, err
	}
	if err := validation.ValidateContent("Content", in.Content); err != nil {
		return false, models.NewValidationError(err.Error())
	}
	updated, err := s.postRepo.Update(ctx, in.PostID, in.UserID, in.Content, emptyToNil(in.ImageURL))
	if err != nil {
		return false, err
	}
	if updated {
		observability.Interactions.WithLabelValues("post_update").Inc()
	}
	return updated, nil
}

// DeletePost removes a post the caller owns along with its likes and comments.
func (s *PostService) DeletePost(ctx context.Context, in DeletePostInput) (bool, error) {
	if err := s.requireOwner(ctx, in.PostID, in.UserID, "You can only delete your own posts"); err != nil {
		return false, err
	}
	deleted, err := s.postRepo.Delete(ctx, in.PostID, in.UserID)
	if err != nil {
		return false, err
	}
	if deleted {
		observability.Interactions.WithLabelValues("post_delete").Inc()
	}
	return deleted, nil
}

// A missing post is reported the same as someone else's post.
func (s *PostService) requireOwner(ctx context.Context, postID, userID uint, message string) error {
	ownerID, found, err := s.postRepo.OwnerID(ctx, postID)
	if err != nil {
		return err
	}
	if !found || ownerID != userID {
		return models.NewForbiddenError(message)
	}
	return nil
}

// LikePost records a like. It returns false if the user already liked the post.
func (s *PostService) LikePost(ctx context.Context, postID, userID uint) (bool, error) {
	if err := s.requireExists(ctx, postID); err != nil {
		return false, err
	}
	liked, err := s.postRepo.Like(ctx, userID, postID)
	if err != nil {
		return false, err
	}
	if liked {
		observability.Interactions.WithLabelValues("like").Inc()
	}
	return liked, nil
}

// UnlikePost removes a like. It returns false if there was none.
func (s *PostService) UnlikePost(ctx context.Context, postID, userID uint) (bool, error) {
	unliked, err := s.postRepo.Unlike(ctx, userID, postID)
	if err != nil {
		return false, err
	}
	if unliked {
		observability.Interactions.WithLabelValues("unlike").Inc()
	}
	return unliked, nil
}

func (s *PostService) IsLikedByUser(ctx context.Context, postID, userID uint) (bool, error) {
	return s.postRepo.IsLiked(ctx, userID, postID)
}

// GetLikes lists who liked a post, most recent first.
func (s *PostService) GetLikes(ctx context.Context, postID uint) ([]*models.Like, error) {
	return s.postRepo.ListLikes(ctx, postID)
}

func (s *PostService) requireExists(ctx context.Context, postID uint) error {
	_, found, err := s.postRepo.OwnerID(ctx, postID)
	if err != nil {
		return err
	}
	if !found {
		return models.NewValidationError("Post not found")
	}
	return nil
}

func markLiked(p *models.Post, currentUserID uint) {
	if currentUserID == 0 {
		return
	}
	liked := p.Liked
	p.IsLikedByUser = &liked
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func emptyToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
