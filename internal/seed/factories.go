package seed

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"snsdso/internal/models"
	"snsdso/internal/repository"
	"snsdso/internal/validation"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password of every seeded account.
const DefaultPassword = "password123"

// Factory builds domain entities and persists them through the repositories.
type Factory struct {
	faker    *gofakeit.Faker
	users    repository.UserRepository
	posts    repository.PostRepository
	comments repository.CommentRepository
	follows  repository.FollowRepository

	passwordHash string
	maxDays      int
}

// NewFactory creates a Factory bound to db. A zero seed picks a random one.
func NewFactory(db *gorm.DB, opts Options) (*Factory, error) {
	cost := opts.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	// One hash for every account keeps large seeds fast.
	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), cost)
	if err != nil {
		return nil, fmt.Errorf("hash seed password: %w", err)
	}
	maxDays := opts.MaxDays
	if maxDays <= 0 {
		maxDays = 30
	}
	return &Factory{
		faker:        gofakeit.New(opts.RandomSeed),
		users:        repository.NewUserRepository(db),
		posts:        repository.NewPostRepository(db),
		comments:     repository.NewCommentRepository(db),
		follows:      repository.NewFollowRepository(db),
		passwordHash: string(hash),
		maxDays:      maxDays,
	}, nil
}

// CreateUser persists a user with a unique username derived from n.
func (f *Factory) CreateUser(ctx context.Context, n int, overrides ...func(*models.User)) (*models.User, error) {
	first, last := f.faker.FirstName(), f.faker.LastName()
	username := fmt.Sprintf("%s%s%d", strings.ToLower(first[:1]), strings.ToLower(last), n)
	username = truncateRunes(sanitizeUsername(username), validation.MaxUsernameLength)

	user := &models.User{
		Username:     username,
		Email:        fmt.Sprintf("%s@example.com", username),
		PasswordHash: f.passwordHash,
		DisplayName:  first + " " + last,
		Bio:          truncateRunes(f.faker.Sentence(10), 280),
		AvatarURL:    fmt.Sprintf("https://i.pravatar.cc/150?u=%s", username),
	}
	for _, override := range overrides {
		override(user)
	}
	if err := f.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// CreatePost persists a post by user with a creation time in the last maxDays days.
func (f *Factory) CreatePost(ctx context.Context, user *models.User, overrides ...func(*models.Post)) (*models.Post, error) {
	back := time.Duration(f.faker.Number(0, f.maxDays*24*60)) * time.Minute
	post := &models.Post{
		UserID:    user.ID,
		Content:   truncateRunes(f.faker.Sentence(f.faker.Number(4, 30)), validation.MaxContentLength),
		CreatedAt: time.Now().Add(-back),
	}
	if f.faker.Number(1, 5) == 1 {
		url := fmt.Sprintf("https://picsum.photos/seed/%s/800/800", f.faker.UUID())
		post.ImageURL = &url
	}
	for _, override := range overrides {
		override(post)
	}
	if err := f.posts.Create(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// CreateComment persists a comment by user on post.
func (f *Factory) CreateComment(ctx context.Context, user *models.User, post *models.Post) (*models.Comment, error) {
	comment := &models.Comment{
		UserID:  user.ID,
		PostID:  post.ID,
		Content: truncateRunes(f.faker.Sentence(f.faker.Number(3, 15)), validation.MaxContentLength),
	}
	if err := f.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// CreateLike reports whether a new like was recorded.
func (f *Factory) CreateLike(ctx context.Context, user *models.User, post *models.Post) (bool, error) {
	return f.posts.Like(ctx, user.ID, post.ID)
}

// CreateFollow reports whether a new follow edge was recorded.
func (f *Factory) CreateFollow(ctx context.Context, follower, following *models.User) (bool, error) {
	return f.follows.Follow(ctx, follower.ID, following.ID)
}

// Intn returns a uniform integer in [0, n).
func (f *Factory) Intn(n int) int {
	if n <= 1 {
		return 0
	}
	return f.faker.Number(0, n-1)
}

func sanitizeUsername(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r < utf8.RuneSelf && (r == '_' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z') {
			b.WriteRune(r)
		}
	}
	out := b.String()
	for utf8.RuneCountInString(out) < validation.MinUsernameLength {
		out += "x"
	}
	return out
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
