package revocation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vigil-auth/vigil/token"
)

const defaultRedisPrefix = "vigil:revoked:"

// defaultRetention keeps a record alive past the token's own expiry so a
// clock-skewed verifier cannot accept a just-expired, just-revoked token.
const defaultRetention = 24 * time.Hour

// RedisStore is a [Store] backed by Redis. Records are JSON values under a
// token-keyed prefix; idempotency comes from SET NX, and pruning from the
// key TTL (token expiry plus a retention grace), so Redis does the sweeping.
type RedisStore struct {
	client    redis.UniversalClient
	prefix    string
	retention time.Duration
	now       func() time.Time
}

// RedisOption customizes a [RedisStore].
type RedisOption func(*RedisStore)

// WithRedisPrefix overrides the key prefix. Useful when several deployments
// share one Redis.
func WithRedisPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithRetention overrides how long a record outlives its token's expiry.
func WithRetention(d time.Duration) RedisOption {
	return func(s *RedisStore) {
		if d > 0 {
			s.retention = d
		}
	}
}

// NewRedisStore wraps client as a revocation store.
func NewRedisStore(client redis.UniversalClient, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		client:    client,
		prefix:    defaultRedisPrefix,
		retention: defaultRetention,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type redisRecord struct {
	Purpose   token.Purpose `json:"purpose"`
	Manual    bool          `json:"manual"`
	ExpiresAt int64         `json:"expires_at"`
	CreatedAt int64         `json:"created_at"`
	UpdatedAt int64         `json:"updated_at"`
}

// IsRevoked implements [Store].
func (s *RedisStore) IsRevoked(ctx context.Context, tokenStr string) (bool, error) {
	n, err := s.client.Exists(ctx, s.prefix+tokenStr).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return n > 0, nil
}

// Revoke implements [Store]. SET NX makes the insert atomic: exactly one of
// any number of concurrent callers writes the record, and the rest read it
// back.
func (s *RedisStore) Revoke(ctx context.Context, tokenStr string, purpose token.Purpose, expiresAt time.Time, manual bool) (Record, error) {
	if err := checkPurpose(purpose); err != nil {
		return Record{}, err
	}

	now := s.now()
	rec := redisRecord{
		Purpose:   purpose,
		Manual:    manual,
		ExpiresAt: expiresAt.Unix(),
		CreatedAt: now.Unix(),
		UpdatedAt: now.Unix(),
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	ttl := time.Until(expiresAt) + s.retention
	if ttl < s.retention {
		// Already-expired token being revoked for bookkeeping: hold it for
		// the grace window only.
		ttl = s.retention
	}

	key := s.prefix + tokenStr
	set, err := s.client.SetNX(ctx, key, payload, ttl).Result()
	if err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if set {
		return s.toRecord(tokenStr, rec), nil
	}

	raw, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		// The existing record expired between SET NX and GET. The token is
		// past its retention window either way; report our own view.
		return s.toRecord(tokenStr, rec), nil
	}
	if err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var existing redisRecord
	if err := json.Unmarshal([]byte(raw), &existing); err != nil {
		return Record{}, fmt.Errorf("%w: corrupt record: %v", ErrUnavailable, err)
	}
	return s.toRecord(tokenStr, existing), nil
}

// Sweep implements [Store]. Redis prunes via key TTLs, so there is nothing
// to do here.
func (s *RedisStore) Sweep(context.Context, time.Time) (int, error) {
	return 0, nil
}

func (s *RedisStore) toRecord(tokenStr string, rec redisRecord) Record {
	return Record{
		Token:     tokenStr,
		Purpose:   rec.Purpose,
		Manual:    rec.Manual,
		ExpiresAt: time.Unix(rec.ExpiresAt, 0),
		CreatedAt: time.Unix(rec.CreatedAt, 0),
		UpdatedAt: time.Unix(rec.UpdatedAt, 0),
	}
}
