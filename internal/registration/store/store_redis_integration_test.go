//go:build integration

package store_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"carvest/internal/registration/models"
	"carvest/internal/registration/store"
	"carvest/pkg/platform/sentinel"
	"carvest/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *store.Redis
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.store = store.NewRedis(s.redis.Client)
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisStoreSuite) newRecord(kind models.ActorKind, primary, secondary string, at time.Time) *models.SignupRecord {
	rec := models.NewSignupRecord(kind, "Test User", primary, secondary, "p@ss", at)
	s.Require().NoError(rec.EnsureToken())
	return rec
}

func (s *RedisStoreSuite) TestCreateAndFind() {
	ctx := context.Background()
	rec := s.newRecord(models.KindDriver, "9999999999", "alice", time.Now().UTC())
	s.Require().NoError(s.store.Create(ctx, rec))

	found, err := s.store.FindOne(ctx, models.KindDriver, store.Filter{PrimaryID: "9999999999"})
	s.Require().NoError(err)
	s.Equal(rec.Token, found.Token)
	s.Equal("p@ss", found.Secret)

	found, err = s.store.FindOne(ctx, models.KindDriver, store.Filter{SecondaryID: "alice"})
	s.Require().NoError(err)
	s.Equal(rec.ID, found.ID)

	_, err = s.store.FindOne(ctx, models.KindInvestor, store.Filter{PrimaryID: "9999999999"})
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisStoreSuite) TestUniqueness() {
	ctx := context.Background()
	now := time.Now().UTC()
	s.Require().NoError(s.store.Create(ctx, s.newRecord(models.KindInvestor, "8888888888", "a@example.com", now)))

	s.ErrorIs(s.store.Create(ctx, s.newRecord(models.KindInvestor, "8888888888", "b@example.com", now)), sentinel.ErrAlreadyUsed)
	s.ErrorIs(s.store.Create(ctx, s.newRecord(models.KindInvestor, "7777777777", "a@example.com", now)), sentinel.ErrAlreadyUsed)

	// Records with no secondary identifier are unconstrained on that field.
	s.NoError(s.store.Create(ctx, s.newRecord(models.KindInvestor, "6666666666", "", now)))
	s.NoError(s.store.Create(ctx, s.newRecord(models.KindInvestor, "5555555555", "", now)))

	// Same identifiers under the other kind are a separate namespace.
	s.NoError(s.store.Create(ctx, s.newRecord(models.KindDriver, "8888888888", "a@example.com", now)))
}

// TestListOrdering pins oldest-first ordering: the backing set yields ids in
// arbitrary order, so List must sort by creation time itself.
func (s *RedisStoreSuite) TestListOrdering() {
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Second)

	// Insert newest first so iteration order cannot accidentally match.
	for i := 4; i >= 0; i-- {
		rec := s.newRecord(models.KindDriver, fmt.Sprintf("900000000%d", i), "", base.Add(time.Duration(i)*time.Minute))
		s.Require().NoError(s.store.Create(ctx, rec))
	}

	recs, err := s.store.List(ctx, models.KindDriver)
	s.Require().NoError(err)
	s.Require().Len(recs, 5)
	for i := 1; i < len(recs); i++ {
		s.False(recs[i].CreatedAt.Before(recs[i-1].CreatedAt),
			"record %d created before record %d", i, i-1)
	}
	s.Equal("9000000000", recs[0].PrimaryID)
	s.Equal("9000000004", recs[4].PrimaryID)
}
