package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"snsdso/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	getByIDFn    func(context.Context, uint) (*models.User, error)
	getByLoginFn func(context.Context, string) (*models.User, error)
	existsFn     func(context.Context, string, string) (bool, error)
	createFn     func(context.Context, *models.User) error
	deleteFn     func(context.Context, uint) error
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByLogin(ctx context.Context, identifier string) (*models.User, error) {
	return s.getByLoginFn(ctx, identifier)
}
func (s *userRepoStub) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	return s.existsFn(ctx, username, email)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn:    func(_ context.Context, _ uint) (*models.User, error) { return nil, nil },
		getByLoginFn: func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		existsFn:     func(_ context.Context, _, _ string) (bool, error) { return false, nil },
		createFn: func(_ context.Context, u *models.User) error {
			u.ID = 1
			return nil
		},
		deleteFn: func(_ context.Context, _ uint) error { return nil },
	}
}

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn      func(context.Context, *models.Post) error
	getByIDFn     func(context.Context, uint, uint) (*models.Post, error)
	listFn        func(context.Context, int, int, uint) ([]*models.Post, error)
	getByUserIDFn func(context.Context, uint, int, uint) ([]*models.Post, error)
	ownerIDFn     func(context.Context, uint) (uint, bool, error)
	updateFn      func(context.Context, uint, uint, string, *string) (bool, error)
	deleteFn      func(context.Context, uint, uint) (bool, error)
	likeFn        func(context.Context, uint, uint) (bool, error)
	unlikeFn      func(context.Context, uint, uint) (bool, error)
	isLikedFn     func(context.Context, uint, uint) (bool, error)
	listLikesFn   func(context.Context, uint) ([]*models.Like, error)
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) GetByID(ctx context.Context, id, currentUserID uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id, currentUserID)
}
func (s *postRepoStub) List(ctx context.Context, limit, offset int, currentUserID uint) ([]*models.Post, error) {
	return s.listFn(ctx, limit, offset, currentUserID)
}
func (s *postRepoStub) GetByUserID(ctx context.Context, userID uint, limit int, currentUserID uint) ([]*models.Post, error) {
	return s.getByUserIDFn(ctx, userID, limit, currentUserID)
}
func (s *postRepoStub) OwnerID(ctx context.Context, postID uint) (uint, bool, error) {
	return s.ownerIDFn(ctx, postID)
}
func (s *postRepoStub) Update(ctx context.Context, postID, userID uint, content string, imageURL *string) (bool, error) {
	return s.updateFn(ctx, postID, userID, content, imageURL)
}
func (s *postRepoStub) Delete(ctx context.Context, postID, userID uint) (bool, error) {
	return s.deleteFn(ctx, postID, userID)
}
func (s *postRepoStub) Like(ctx context.Context, userID, postID uint) (bool, error) {
	return s.likeFn(ctx, userID, postID)
}
func (s *postRepoStub) Unlike(ctx context.Context, userID, postID uint) (bool, error) {
	return s.unlikeFn(ctx, userID, postID)
}
func (s *postRepoStub) IsLiked(ctx context.Context, userID, postID uint) (bool, error) {
	return s.isLikedFn(ctx, userID, postID)
}
func (s *postRepoStub) ListLikes(ctx context.Context, postID uint) ([]*models.Like, error) {
	return s.listLikesFn(ctx, postID)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn: func(_ context.Context, p *models.Post) error {
			p.ID = 1
			return nil
		},
		getByIDFn:     func(_ context.Context, _, _ uint) (*models.Post, error) { return nil, nil },
		listFn:        func(_ context.Context, _, _ int, _ uint) ([]*models.Post, error) { return nil, nil },
		getByUserIDFn: func(_ context.Context, _ uint, _ int, _ uint) ([]*models.Post, error) { return nil, nil },
		ownerIDFn:     func(_ context.Context, _ uint) (uint, bool, error) { return 0, false, nil },
		updateFn:      func(_ context.Context, _, _ uint, _ string, _ *string) (bool, error) { return true, nil },
		deleteFn:      func(_ context.Context, _, _ uint) (bool, error) { return true, nil },
		likeFn:        func(_ context.Context, _, _ uint) (bool, error) { return true, nil },
		unlikeFn:      func(_ context.Context, _, _ uint) (bool, error) { return true, nil },
		isLikedFn:     func(_ context.Context, _, _ uint) (bool, error) { return false, nil },
		listLikesFn:   func(_ context.Context, _ uint) ([]*models.Like, error) { return nil, nil },
	}
}

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	createFn     func(context.Context, *models.Comment) error
	listByPostFn func(context.Context, uint) ([]*models.Comment, error)
	ownerIDFn    func(context.Context, uint) (uint, bool, error)
	deleteFn     func(context.Context, uint, uint) (bool, error)
}

func (s *commentRepoStub) Create(ctx context.Context, comment *models.Comment) error {
	return s.createFn(ctx, comment)
}
func (s *commentRepoStub) ListByPost(ctx context.Context, postID uint) ([]*models.Comment, error) {
	return s.listByPostFn(ctx, postID)
}
func (s *commentRepoStub) OwnerID(ctx context.Context, commentID uint) (uint, bool, error) {
	return s.ownerIDFn(ctx, commentID)
}
func (s *commentRepoStub) Delete(ctx context.Context, commentID, userID uint) (bool, error) {
	return s.deleteFn(ctx, commentID, userID)
}

func noopCommentRepo() *commentRepoStub {
	return &commentRepoStub{
		createFn: func(_ context.Context, c *models.Comment) error {
			c.ID = 1
			return nil
		},
		listByPostFn: func(_ context.Context, _ uint) ([]*models.Comment, error) { return nil, nil },
		ownerIDFn:    func(_ context.Context, _ uint) (uint, bool, error) { return 0, false, nil },
		deleteFn:     func(_ context.Context, _, _ uint) (bool, error) { return true, nil },
	}
}

// memoryStore is an in-process session.Store.
type memoryStore struct {
	mu       sync.Mutex
	sessions map[string]*models.Session
	saveErr  error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{sessions: map[string]*models.Session{}}
}

func (m *memoryStore) Save(_ context.Context, sess *models.Session) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *sess
	m.sessions[sess.Token] = &cp
	return nil
}

func (m *memoryStore) Get(_ context.Context, token string) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[token]
	if !ok {
		return nil, nil
	}
	cp := *sess
	return &cp, nil
}

func (m *memoryStore) Delete(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
	return nil
}

func (m *memoryStore) has(token string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[token]
	return ok
}

func assertAppErrorCode(t *testing.T, err error, code string) *models.AppError {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
	return appErr
}

// assertValidationError asserts that err is an AppError with code VALIDATION_ERROR.
func assertValidationError(t *testing.T, err error) *models.AppError {
	t.Helper()
	return assertAppErrorCode(t, err, models.CodeValidation)
}
