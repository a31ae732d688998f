package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"snsdso/internal/models"
	"snsdso/internal/observability"
	"snsdso/internal/repository"
	"snsdso/internal/session"
	"snsdso/internal/validation"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/crypto/bcrypt"
)

const invalidCredentials = "Invalid credentials"

// AuthService registers users and manages their server-side sessions.
type AuthService struct {
	users    repository.UserRepository
	sessions session.Store
	cost     int
	lifetime time.Duration
	now      func() time.Time

	dummyOnce sync.Once
	dummyHash []byte
}

type RegisterInput struct {
	Username    string
	Email       string
	Password    string
	DisplayName string
}

type LoginInput struct {
	// Identifier is a username or an email address.
	Identifier string
	Password   string
	// PreviousToken is the session the client presented, if any. It is
	// revoked so a token planted before login never becomes authenticated.
	PreviousToken string
}

func NewAuthService(users repository.UserRepository, sessions session.Store, bcryptCost int, lifetime time.Duration) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		cost:     bcryptCost,
		lifetime: lifetime,
		now:      time.Now,
	}
}

// Lifetime is how long a session stays valid after login.
func (s *AuthService) Lifetime() time.Duration {
	return s.lifetime
}

// Register validates the input, rejects taken usernames or emails and stores a bcrypt hash.
// It returns the new user's id.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (id uint, err error) {
	ctx, span := observability.StartSpan(ctx, "AuthService.Register")
	defer func() {
		observability.RecordAuth("register", err)
		observability.EndSpan(span, err)
	}()

	if err := validation.ValidateUsername(in.Username); err != nil {
		return 0, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateEmail(in.Email); err != nil {
		return 0, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return 0, models.NewValidationError(err.Error())
	}

	exists, err := s.users.ExistsByUsernameOrEmail(ctx, in.Username, in.Email)
	if err != nil {
		return 0, err
	}
	if exists {
		return 0, models.NewConflictError("Username or email already exists", nil)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return 0, models.NewInternalError(err)
	}

	displayName := strings.TrimSpace(in.DisplayName)
	if displayName == "" {
		displayName = in.Username
	}

	user := &models.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: string(hash),
		DisplayName:  displayName,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return 0, err
	}
	return user.ID, nil
}

// Login verifies the credentials and issues a new session.
// Unknown identifiers and wrong passwords fail identically.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (user *models.User, sess *models.Session, err error) {
	ctx, span := observability.StartSpan(ctx, "AuthService.Login")
	defer func() {
		observability.RecordAuth("login", err)
		observability.EndSpan(span, err)
	}()

	user, err = s.users.GetByLogin(ctx, in.Identifier)
	if err != nil {
		return nil, nil, err
	}
	if user == nil {
		// Spend the same bcrypt work as a real check so response time does not reveal the miss.
		_ = bcrypt.CompareHashAndPassword(s.dummy(), []byte(in.Password))
		return nil, nil, models.NewUnauthorizedError(invalidCredentials)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, nil, models.NewUnauthorizedError(invalidCredentials)
	}

	if in.PreviousToken != "" {
		if err := s.sessions.Delete(ctx, in.PreviousToken); err != nil {
			return nil, nil, models.NewInternalError(err)
		}
	}

	now := s.now().UTC()
	sess = &models.Session{
		Token:       session.NewToken(),
		UserID:      user.ID,
		Username:    user.Username,
		DisplayName: user.DisplayName,
		AvatarURL:   user.AvatarURL,
		LoginTime:   now,
		ExpiresAt:   now.Add(s.lifetime),
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, nil, models.NewInternalError(err)
	}
	span.SetAttributes(attribute.Int("user.id", int(user.ID)))
	return user, sess, nil
}

func (s *AuthService) dummy() []byte {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), s.cost)
	})
	return s.dummyHash
}

// Logout revokes token. Unknown or empty tokens are not an error.
func (s *AuthService) Logout(ctx context.Context, token string) (err error) {
	defer func() { observability.RecordAuth("logout", err) }()

	if token == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, token); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// Session returns the live session for token. Sessions past their lifetime
// are deleted and reported as absent.
func (s *AuthService) Session(ctx context.Context, token string) (*models.Session, error) {
	if token == "" {
		return nil, nil
	}
	sess, err := s.sessions.Get(ctx, token)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if sess == nil {
		return nil, nil
	}
	if sess.ExpiredAt(s.now(), s.lifetime) {
		if err := s.sessions.Delete(ctx, token); err != nil {
			return nil, models.NewInternalError(err)
		}
		return nil, nil
	}
	return sess, nil
}

// IsAuthenticated reports whether token names a live session.
func (s *AuthService) IsAuthenticated(ctx context.Context, token string) (bool, error) {
	sess, err := s.Session(ctx, token)
	if err != nil {
		return false, err
	}
	return sess != nil, nil
}

// CurrentUser returns the identity cached in the session, or nil.
func (s *AuthService) CurrentUser(ctx context.Context, token string) (*models.PublicUser, error) {
	sess, err := s.Session(ctx, token)
	if err != nil || sess == nil {
		return nil, err
	}
	identity := sess.Identity()
	return &identity, nil
}

// RequireAuth is CurrentUser that fails when there is no session.
func (s *AuthService) RequireAuth(ctx context.Context, token string) (*models.PublicUser, error) {
	user, err := s.CurrentUser(ctx, token)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewUnauthorizedError("Authentication required")
	}
	return user, nil
}

// GetUserByID returns the public profile of a user, or nil if there is none.
func (s *AuthService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}
