// Package session stores server-side login sessions keyed by an opaque token.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"snsdso/internal/middleware"
	"snsdso/internal/models"
	"snsdso/internal/observability"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store persists sessions. Get returns nil without an error for unknown tokens.
type Store interface {
	Save(ctx context.Context, s *models.Session) error
	Get(ctx context.Context, token string) (*models.Session, error)
	Delete(ctx context.Context, token string) error
}

// NewToken returns a fresh random session token.
func NewToken() string {
	return uuid.NewString()
}

const redisKeyPrefix = "session:"

// RedisStore keeps each session as a JSON value that expires with the session.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Save(ctx context.Context, sess *models.Session) error {
	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		return errors.New("session already expired")
	}
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return s.rdb.Set(ctx, redisKeyPrefix+sess.Token, raw, ttl).Err()
}

func (s *RedisStore) Get(ctx context.Context, token string) (*models.Session, error) {
	raw, err := s.rdb.Get(ctx, redisKeyPrefix+token).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var sess models.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &sess, nil
}

func (s *RedisStore) Delete(ctx context.Context, token string) error {
	return s.rdb.Del(ctx, redisKeyPrefix+token).Err()
}

// GormStore keeps sessions in the sessions table.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Save(ctx context.Context, sess *models.Session) error {
	return s.db.WithContext(ctx).Omit(clause.Associations).Create(sess).Error
}

func (s *GormStore) Get(ctx context.Context, token string) (*models.Session, error) {
	var sess models.Session
	if err := s.db.WithContext(ctx).Where("token = ?", token).Take(&sess).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sess, nil
}

func (s *GormStore) Delete(ctx context.Context, token string) error {
	return s.db.WithContext(ctx).Where("token = ?", token).Delete(&models.Session{}).Error
}

// FailoverStore writes to primary and uses fallback whenever primary errors.
// Lookups that miss primary also consult fallback, so sessions issued during
// an outage stay valid once primary recovers.
type FailoverStore struct {
	primary  Store
	fallback Store
}

func NewFailoverStore(primary, fallback Store) *FailoverStore {
	return &FailoverStore{primary: primary, fallback: fallback}
}

func (s *FailoverStore) Save(ctx context.Context, sess *models.Session) error {
	err := s.primary.Save(ctx, sess)
	if err == nil {
		return nil
	}
	middleware.Logger.WarnContext(ctx, "session primary store failed on save", "error", err)
	observability.SessionStoreFallbacks.Inc()
	return s.fallback.Save(ctx, sess)
}

func (s *FailoverStore) Get(ctx context.Context, token string) (*models.Session, error) {
	sess, err := s.primary.Get(ctx, token)
	if err == nil && sess != nil {
		return sess, nil
	}
	if err != nil {
		middleware.Logger.WarnContext(ctx, "session primary store failed on get", "error", err)
		observability.SessionStoreFallbacks.Inc()
	}
	return s.fallback.Get(ctx, token)
}

// Delete removes token from both stores. A primary failure is always
// returned: the session may still resolve there once it is reachable again.
func (s *FailoverStore) Delete(ctx context.Context, token string) error {
	primaryErr := s.primary.Delete(ctx, token)
	if primaryErr != nil {
		middleware.Logger.WarnContext(ctx, "session primary store failed on delete", "error", primaryErr)
		observability.SessionStoreFallbacks.Inc()
	}
	fallbackErr := s.fallback.Delete(ctx, token)
	return errors.Join(primaryErr, fallbackErr)
}
