//go:build integration

package otp_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"udyam/internal/auth/otp"
	"udyam/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *otp.RedisStore
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.store = otp.NewRedisStore(s.redis.Client)
}

func (s *RedisStoreSuite) TearDownSuite() {
	if s.redis != nil {
		_ = s.redis.Terminate(context.Background())
	}
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisStoreSuite) challenge(ttl time.Duration) otp.Challenge {
	return otp.Challenge{
		Code:        "482913",
		ExpiresAt:   time.Now().Add(ttl),
		Attempts:    0,
		MaxAttempts: 3,
	}
}

func (s *RedisStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	saved := s.challenge(5 * time.Minute)
	s.Require().NoError(s.store.Save(ctx, "+919876543210", saved))

	found, err := s.store.Find(ctx, "+919876543210")
	s.Require().NoError(err)
	s.Require().NotNil(found)
	s.Equal("482913", found.Code)
	s.Equal(3, found.MaxAttempts)
	s.WithinDuration(saved.ExpiresAt, found.ExpiresAt, time.Millisecond)
}

func (s *RedisStoreSuite) TestMissingPhone() {
	found, err := s.store.Find(context.Background(), "+919876500000")
	s.Require().NoError(err)
	s.Nil(found)
}

func (s *RedisStoreSuite) TestExpiredChallengeRejected() {
	err := s.store.Save(context.Background(), "+919876543210", s.challenge(-time.Second))
	s.Error(err)
}

func (s *RedisStoreSuite) TestAttemptsAccumulate() {
	ctx := context.Background()
	s.Require().NoError(s.store.Save(ctx, "+919876543210", s.challenge(5*time.Minute)))

	s.Require().NoError(s.store.RecordAttempt(ctx, "+919876543210"))
	s.Require().NoError(s.store.RecordAttempt(ctx, "+919876543210"))
	s.Require().NoError(s.store.RecordAttempt(ctx, "+919876543210"))

	found, err := s.store.Find(ctx, "+919876543210")
	s.Require().NoError(err)
	s.Require().NotNil(found)
	s.Equal(3, found.Attempts)
	s.True(found.Exhausted())
}

func (s *RedisStoreSuite) TestDelete() {
	ctx := context.Background()
	s.Require().NoError(s.store.Save(ctx, "+919876543210", s.challenge(5*time.Minute)))
	s.Require().NoError(s.store.Delete(ctx, "+919876543210"))

	found, err := s.store.Find(ctx, "+919876543210")
	s.Require().NoError(err)
	s.Nil(found)
}

func (s *RedisStoreSuite) TestTTLBoundsChallengeLifetime() {
	ctx := context.Background()
	s.Require().NoError(s.store.Save(ctx, "+919876543210", s.challenge(time.Second)))

	s.Require().Eventually(func() bool {
		found, err := s.store.Find(ctx, "+919876543210")
		return err == nil && found == nil
	}, 5*time.Second, 100*time.Millisecond)
}
