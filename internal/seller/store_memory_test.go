package seller

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"udyam/pkg/platform/sentinel"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.ctx = context.Background()
}

func (s *InMemoryStoreSuite) newSeller(phone string) *Seller {
	sl, err := New(phone, time.Now())
	s.Require().NoError(err)
	return sl
}

func (s *InMemoryStoreSuite) TestCreate() {
	s.Run("round trips a seller", func() {
		sl := s.newSeller("+919812340001")
		s.Require().NoError(s.store.Create(s.ctx, sl))

		got, err := s.store.FindByID(s.ctx, sl.ID)
		s.Require().NoError(err)
		s.Equal(sl.Phone, got.Phone)
		s.Equal(sl.UnionMembership.ID, got.UnionMembership.ID)
	})

	s.Run("duplicate phone conflicts", func() {
		sl := s.newSeller("+919812340002")
		s.Require().NoError(s.store.Create(s.ctx, sl))

		dup := s.newSeller("+919812340002")
		s.ErrorIs(s.store.Create(s.ctx, dup), sentinel.ErrConflict)
	})

	s.Run("returned seller is a copy", func() {
		sl := s.newSeller("+919812340003")
		s.Require().NoError(s.store.Create(s.ctx, sl))

		got, err := s.store.FindByID(s.ctx, sl.ID)
		s.Require().NoError(err)
		got.Name = "mutated"
		got.DocumentPaths = append(got.DocumentPaths, "uploads/x.jpg")

		again, err := s.store.FindByID(s.ctx, sl.ID)
		s.Require().NoError(err)
		s.Empty(again.Name)
		s.Empty(again.DocumentPaths)
	})
}

func (s *InMemoryStoreSuite) TestFindByPhone() {
	sl := s.newSeller("+919812340010")
	s.Require().NoError(s.store.Create(s.ctx, sl))

	got, err := s.store.FindByPhone(s.ctx, "+919812340010")
	s.Require().NoError(err)
	s.Equal(sl.ID, got.ID)

	_, err = s.store.FindByPhone(s.ctx, "+919999999999")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemoryStoreSuite) TestUpdate() {
	s.Run("persists changes", func() {
		sl := s.newSeller("+919812340020")
		s.Require().NoError(s.store.Create(s.ctx, sl))

		sl.Name = "Asha Devi"
		sl.VerificationStatus = VerificationVerified
		s.Require().NoError(s.store.Update(s.ctx, sl))

		got, err := s.store.FindByID(s.ctx, sl.ID)
		s.Require().NoError(err)
		s.Equal("Asha Devi", got.Name)
		s.Equal(VerificationVerified, got.VerificationStatus)
	})

	s.Run("unknown seller is not found", func() {
		sl := s.newSeller("+919812340021")
		s.ErrorIs(s.store.Update(s.ctx, sl), sentinel.ErrNotFound)
	})
}

func (s *InMemoryStoreSuite) TestList() {
	base := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		sl := s.newSeller(fmt.Sprintf("+91981234010%d", i))
		sl.Name = fmt.Sprintf("Seller %d", i)
		sl.Region = "Rajasthan"
		sl.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		if i%2 == 0 {
			sl.VerificationStatus = VerificationVerified
		}
		if i == 3 {
			sl.Categories = []Category{CategoryTextiles}
		}
		s.Require().NoError(s.store.Create(s.ctx, sl))
	}

	s.Run("filters by status", func() {
		sellers, total, err := s.store.List(s.ctx, ListFilter{Status: VerificationVerified})
		s.Require().NoError(err)
		s.Equal(3, total)
		s.Len(sellers, 3)
	})

	s.Run("filters by category", func() {
		_, total, err := s.store.List(s.ctx, ListFilter{Category: CategoryTextiles})
		s.Require().NoError(err)
		s.Equal(1, total)
	})

	s.Run("filters by region case-insensitively", func() {
		_, total, err := s.store.List(s.ctx, ListFilter{Region: "rajasthan"})
		s.Require().NoError(err)
		s.Equal(5, total)
	})

	s.Run("searches by name", func() {
		_, total, err := s.store.List(s.ctx, ListFilter{Search: "seller 2"})
		s.Require().NoError(err)
		s.Equal(1, total)
	})

	s.Run("pages newest first", func() {
		page, total, err := s.store.List(s.ctx, ListFilter{Limit: 2})
		s.Require().NoError(err)
		s.Equal(5, total)
		s.Require().Len(page, 2)
		s.Equal("Seller 4", page[0].Name)
		s.Equal("Seller 3", page[1].Name)

		next, _, err := s.store.List(s.ctx, ListFilter{Limit: 2, Offset: 2})
		s.Require().NoError(err)
		s.Require().Len(next, 2)
		s.Equal("Seller 2", next[0].Name)
	})

	s.Run("offset past the end is empty", func() {
		page, total, err := s.store.List(s.ctx, ListFilter{Offset: 50})
		s.Require().NoError(err)
		s.Equal(5, total)
		s.Empty(page)
	})
}

func (s *InMemoryStoreSuite) TestCounts() {
	for i := 0; i < 4; i++ {
		sl := s.newSeller(fmt.Sprintf("+91981234020%d", i))
		sl.CreatedAt = time.Now().Add(-time.Duration(i) * 24 * time.Hour)
		if i == 0 {
			sl.VerificationStatus = VerificationVerified
		}
		if i == 1 {
			sl.VerificationStatus = VerificationProvisional
		}
		s.Require().NoError(s.store.Create(s.ctx, sl))
	}

	counts, err := s.store.CountByStatus(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, counts.Verified)
	s.Equal(1, counts.Provisional)
	s.Equal(2, counts.Pending)
	s.Equal(4, counts.Total())

	recent, err := s.store.CountRegisteredSince(s.ctx, time.Now().Add(-36*time.Hour))
	s.Require().NoError(err)
	s.Equal(2, recent)
}

func (s *InMemoryStoreSuite) TestAnalytics() {
	day := time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)
	seed := []struct {
		phone      string
		createdAt  time.Time
		region     string
		categories []Category
	}{
		{"+919812340300", day, "Bihar", []Category{CategoryHandicrafts}},
		{"+919812340301", day.Add(2 * time.Hour), "Bihar", []Category{CategoryHandicrafts, CategoryTextiles}},
		{"+919812340302", day.Add(48 * time.Hour), "Odisha", []Category{CategoryTextiles}},
		{"+919812340303", day.Add(-30 * 24 * time.Hour), "Bihar", []Category{CategoryAgriculture}},
	}
	for _, row := range seed {
		sl := s.newSeller(row.phone)
		sl.CreatedAt = row.createdAt
		sl.Region = row.region
		sl.Categories = row.categories
		s.Require().NoError(s.store.Create(s.ctx, sl))
	}

	s.Run("registration trend groups by day", func() {
		trend, err := s.store.RegistrationTrend(s.ctx, day.Add(-24*time.Hour))
		s.Require().NoError(err)
		s.Require().Len(trend, 2)
		s.Equal(2, trend[0].Count)
		s.Equal(1, trend[1].Count)
		s.True(trend[0].Date.Before(trend[1].Date))
	})

	s.Run("category distribution counts every membership", func() {
		dist, err := s.store.CategoryDistribution(s.ctx)
		s.Require().NoError(err)
		s.Require().Len(dist, 3)
		s.Equal(Distribution{Key: string(CategoryHandicrafts), Count: 2}, dist[0])
		s.Equal(Distribution{Key: string(CategoryTextiles), Count: 2}, dist[1])
		s.Equal(Distribution{Key: string(CategoryAgriculture), Count: 1}, dist[2])
	})

	s.Run("region distribution", func() {
		dist, err := s.store.RegionDistribution(s.ctx)
		s.Require().NoError(err)
		s.Require().Len(dist, 2)
		s.Equal(Distribution{Key: "Bihar", Count: 3}, dist[0])
		s.Equal(Distribution{Key: "Odisha", Count: 1}, dist[1])
	})
}
