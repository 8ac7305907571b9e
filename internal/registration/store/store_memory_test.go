package store

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"carvest/internal/registration/models"
	"carvest/pkg/platform/sentinel"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) newRecord(kind models.ActorKind, primary, secondary string) *models.SignupRecord {
	rec := models.NewSignupRecord(kind, "", primary, secondary, "p@ss", time.Now())
	s.Require().NoError(rec.EnsureToken())
	return rec
}

func (s *MemoryStoreSuite) TestCreateAndFind() {
	s.Run("finds by primary identifier", func() {
		rec := s.newRecord(models.KindDriver, "9999999999", "alice")
		s.Require().NoError(s.store.Create(s.ctx, rec))

		found, err := s.store.FindOne(s.ctx, models.KindDriver, Filter{PrimaryID: "9999999999"})
		s.Require().NoError(err)
		s.Equal(rec.Token, found.Token)
		s.Equal("alice", found.SecondaryID)
	})

	s.Run("finds by secondary identifier", func() {
		found, err := s.store.FindOne(s.ctx, models.KindDriver, Filter{SecondaryID: "alice"})
		s.Require().NoError(err)
		s.Equal("9999999999", found.PrimaryID)
	})

	s.Run("kinds are disjoint collections", func() {
		_, err := s.store.FindOne(s.ctx, models.KindInvestor, Filter{PrimaryID: "9999999999"})
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("returns ErrNotFound for unknown identifier", func() {
		_, err := s.store.FindOne(s.ctx, models.KindDriver, Filter{PrimaryID: "0000000000"})
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("empty filter matches nothing", func() {
		_, err := s.store.FindOne(s.ctx, models.KindDriver, Filter{})
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *MemoryStoreSuite) TestConjunctionFilter() {
	rec := s.newRecord(models.KindDriver, "9999999999", "alice")
	s.Require().NoError(s.store.Create(s.ctx, rec))

	s.Run("both fields matching succeeds", func() {
		found, err := s.store.FindOne(s.ctx, models.KindDriver, Filter{PrimaryID: "9999999999", SecondaryID: "alice"})
		s.Require().NoError(err)
		s.Equal(rec.Token, found.Token)
	})

	s.Run("one mismatching field misses even though the other matches", func() {
		_, err := s.store.FindOne(s.ctx, models.KindDriver, Filter{PrimaryID: "9999999999", SecondaryID: "bob"})
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *MemoryStoreSuite) TestUniqueness() {
	s.Run("rejects duplicate primary identifier", func() {
		first := s.newRecord(models.KindInvestor, "8888888888", "a@example.com")
		s.Require().NoError(s.store.Create(s.ctx, first))

		dup := s.newRecord(models.KindInvestor, "8888888888", "b@example.com")
		s.Require().ErrorIs(s.store.Create(s.ctx, dup), sentinel.ErrAlreadyUsed)
	})

	s.Run("rejects duplicate secondary identifier", func() {
		dup := s.newRecord(models.KindInvestor, "7777777777", "a@example.com")
		s.Require().ErrorIs(s.store.Create(s.ctx, dup), sentinel.ErrAlreadyUsed)
	})

	s.Run("allows absent secondary identifier on many records", func() {
		s.Require().NoError(s.store.Create(s.ctx, s.newRecord(models.KindInvestor, "6666666666", "")))
		s.Require().NoError(s.store.Create(s.ctx, s.newRecord(models.KindInvestor, "5555555555", "")))
	})
}

// Concurrent creates with the same primary identifier: exactly one insert
// must win, the rest must see the uniqueness failure.
func (s *MemoryStoreSuite) TestConcurrentDuplicateCreate() {
	const attempts = 16

	var created, conflicted atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec := s.newRecord(models.KindDriver, "1111111111", "")
			switch err := s.store.Create(s.ctx, rec); {
			case err == nil:
				created.Add(1)
			case s.ErrorIs(err, sentinel.ErrAlreadyUsed):
				conflicted.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), created.Load(), "exactly one create must succeed")
	s.Equal(int32(attempts-1), conflicted.Load())
}

func (s *MemoryStoreSuite) TestList() {
	first := s.newRecord(models.KindInvestor, "1000000001", "")
	first.CreatedAt = time.Now().Add(-time.Hour)
	second := s.newRecord(models.KindInvestor, "1000000002", "")
	s.Require().NoError(s.store.Create(s.ctx, second))
	s.Require().NoError(s.store.Create(s.ctx, first))
	s.Require().NoError(s.store.Create(s.ctx, s.newRecord(models.KindDriver, "1000000003", "")))

	listed, err := s.store.List(s.ctx, models.KindInvestor)
	s.Require().NoError(err)
	s.Require().Len(listed, 2)
	s.Equal("1000000001", listed[0].PrimaryID, "oldest first")
	s.Equal("1000000002", listed[1].PrimaryID)
}
