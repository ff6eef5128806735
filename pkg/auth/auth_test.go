package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWT(t *testing.T) *JWTService {
	t.Helper()
	svc, err := NewJWTService(JWTConfig{
		Secret:   "test-secret",
		Issuer:   "pathfinder",
		Audience: []string{"pathfinder-api"},
		TTL:      time.Hour,
	})
	require.NoError(t, err)
	return svc
}

func TestJWTService_RoundTrip(t *testing.T) {
	svc := newTestJWT(t)

	token, err := svc.GenerateToken("user-1", "ada@example.com", []string{"user"})
	require.NoError(t, err)

	claims, err := svc.ValidateToken("Bearer " + token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "ada@example.com", claims.Email)
	assert.Equal(t, []string{"user"}, claims.Roles)
	assert.Equal(t, "pathfinder", claims.Issuer)
	assert.NotEmpty(t, claims.ID)
}

func TestJWTService_Rejects(t *testing.T) {
	svc := newTestJWT(t)
	token, err := svc.GenerateToken("user-1", "a@b.c", nil)
	require.NoError(t, err)

	t.Run("missing", func(t *testing.T) {
		_, err := svc.ValidateToken("Bearer ")
		assert.ErrorIs(t, err, ErrMissingToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other, err := NewJWTService(JWTConfig{Secret: "other", Issuer: "pathfinder", Audience: []string{"pathfinder-api"}})
		require.NoError(t, err)
		_, err = other.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("expired", func(t *testing.T) {
		later := newTestJWT(t)
		later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err := later.ValidateToken(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("wrong audience", func(t *testing.T) {
		other, err := NewJWTService(JWTConfig{Secret: "test-secret", Issuer: "pathfinder", Audience: []string{"admin"}})
		require.NoError(t, err)
		_, err = other.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidClaims)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other, err := NewJWTService(JWTConfig{Secret: "test-secret", Issuer: "someone-else"})
		require.NoError(t, err)
		_, err = other.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("none algorithm", func(t *testing.T) {
		unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "user-1"})
		raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = svc.ValidateToken(raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestNewJWTService_RequiresSecret(t *testing.T) {
	_, err := NewJWTService(JWTConfig{})
	assert.Error(t, err)
}

func TestBcryptHasher(t *testing.T) {
	h := NewBcryptHasher(4)

	hash, err := h.Hash("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)

	assert.NoError(t, h.Compare(hash, "correct horse"))
	assert.ErrorIs(t, h.Compare(hash, "battery staple"), ErrPasswordMismatch)
}

func TestUserContext(t *testing.T) {
	_, err := UserFromContext(context.Background())
	assert.ErrorIs(t, err, ErrNoUser)

	ctx := WithUser(context.Background(), NewUserContext(&Claims{UserID: "u1", Email: "e"}))
	user, err := UserFromContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, "u1", user.UserID)
}

func TestTokenBucketLimiter(t *testing.T) {
	l := NewTokenBucketLimiter(1, 2)
	defer l.Close()
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := l.Allow(ctx, "a")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, _ := l.Allow(ctx, "a")
	assert.False(t, ok, "burst exhausted")

	ok, _ = l.Allow(ctx, "b")
	assert.True(t, ok, "keys are independent")

	require.NoError(t, l.Reset(ctx, "a"))
	ok, _ = l.Allow(ctx, "a")
	assert.True(t, ok)
}

func TestTokenBucketLimiter_EvictsIdle(t *testing.T) {
	l := NewTokenBucketLimiter(60, 1)
	defer l.Close()

	_, _ = l.Allow(context.Background(), "a")
	require.Equal(t, 1, l.Len())

	l.evictIdle(time.Now().Add(2 * time.Hour))
	assert.Equal(t, 0, l.Len())
}

func TestKeyedAndCompositeLimiters(t *testing.T) {
	shared := NewTokenBucketLimiter(1, 1)
	defer shared.Close()
	ctx := context.Background()

	ip := NewIPRateLimiter(shared)
	user := NewUserRateLimiter(shared)

	ok, _ := ip.Allow(ctx, "10.0.0.1")
	assert.True(t, ok)
	ok, _ = user.Allow(ctx, "10.0.0.1")
	assert.True(t, ok, "prefixes keep ip and user buckets apart")

	strict := NewTokenBucketLimiter(1, 1)
	defer strict.Close()
	loose := NewTokenBucketLimiter(600, 100)
	defer loose.Close()
	both := NewCompositeRateLimiter(loose, strict)

	ok, _ = both.Allow(ctx, "k")
	assert.True(t, ok)
	ok, _ = both.Allow(ctx, "k")
	assert.False(t, ok)
	require.NoError(t, both.Reset(ctx, "k"))
	ok, _ = both.Allow(ctx, "k")
	assert.True(t, ok)
}

func TestDistributedRateLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	fixed := time.Date(2026, 1, 1, 12, 0, 30, 0, time.UTC)
	l := NewDistributedRateLimiter(client, 2, time.Minute, "user")
	l.now = func() time.Time { return fixed }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := l.Allow(ctx, "u1")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := l.Allow(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, ok)

	remaining, err := l.Remaining(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)

	remaining, err = l.Remaining(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, 2, remaining)

	key := l.windowKey("u1")
	assert.True(t, mr.Exists(key))
	assert.Equal(t, time.Minute, mr.TTL(key))

	l.now = func() time.Time { return fixed.Add(time.Minute) }
	ok, err = l.Allow(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, ok, "new window starts fresh")

	require.NoError(t, l.Reset(ctx, "u1"))
	assert.False(t, mr.Exists(l.windowKey("u1")))
}

func TestDistributedRateLimiter_FailsOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	mr.Close()

	l := NewDistributedRateLimiter(client, 1, time.Minute, "ip")
	ok, err := l.Allow(context.Background(), "x")
	assert.True(t, ok)
	assert.Error(t, err)
}
