//go:build integration

package product_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"udyam/internal/product"
	"udyam/internal/seller"
	id "udyam/pkg/domain"
	"udyam/pkg/platform/sentinel"
	"udyam/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	sellers  *seller.PostgresStore
	store    *product.PostgresStore

	phone int
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.sellers = seller.NewPostgresStore(s.postgres.DB)
	s.store = product.NewPostgresStore(s.postgres.DB)
}

func (s *PostgresStoreSuite) TearDownSuite() {
	if s.postgres != nil {
		_ = s.postgres.DB.Close()
		_ = s.postgres.Container.Terminate(context.Background())
	}
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.Truncate(context.Background()))
}

func (s *PostgresStoreSuite) newSeller(status seller.VerificationStatus) *seller.Seller {
	s.phone++
	sl, err := seller.New(fmt.Sprintf("+91987656%04d", s.phone), time.Now().UTC().Truncate(time.Microsecond))
	s.Require().NoError(err)
	sl.VerificationStatus = status
	s.Require().NoError(s.sellers.Create(context.Background(), sl))
	return sl
}

func (s *PostgresStoreSuite) newProduct(sellerID id.SellerID, mutate func(*product.NewInput)) *product.Product {
	in := product.NewInput{
		Name:        "Handwoven Basket",
		Description: "Bamboo basket woven by hand",
		Category:    seller.CategoryHandicrafts,
		Tags:        []string{"bamboo", "basket"},
		Price:       450,
		MaxUnits:    20,
		LeadTime:    "5 days",
		Specifications: map[string]string{
			"material": "bamboo",
		},
	}
	if mutate != nil {
		mutate(&in)
	}
	p, err := product.New(sellerID, in, time.Now().UTC().Truncate(time.Microsecond))
	s.Require().NoError(err)
	s.Require().NoError(s.store.Create(context.Background(), p))
	return p
}

func (s *PostgresStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	sl := s.newSeller(seller.VerificationVerified)
	created := s.newProduct(sl.ID, nil)

	found, err := s.store.FindByID(ctx, created.ID)
	s.Require().NoError(err)
	s.Equal(created.Name, found.Name)
	s.Equal([]string{"bamboo", "basket"}, found.Tags)
	s.Equal(product.CurrencyINR, found.Currency)
	s.Equal(20, found.AvailableUnits)
	s.Equal(map[string]string{"material": "bamboo"}, found.Specifications)

	found.Price = 500
	found.Images = []string{"uploads/basket.jpg"}
	s.Require().NoError(s.store.Update(ctx, found))

	again, err := s.store.FindByID(ctx, created.ID)
	s.Require().NoError(err)
	s.Equal(float64(500), again.Price)
	s.Equal([]string{"uploads/basket.jpg"}, again.Images)
}

func (s *PostgresStoreSuite) TestDelete() {
	ctx := context.Background()
	sl := s.newSeller(seller.VerificationVerified)
	p := s.newProduct(sl.ID, nil)

	s.Require().NoError(s.store.Delete(ctx, p.ID))
	_, err := s.store.FindByID(ctx, p.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
	s.ErrorIs(s.store.Delete(ctx, p.ID), sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestListFilters() {
	ctx := context.Background()
	verified := s.newSeller(seller.VerificationVerified)
	pending := s.newSeller(seller.VerificationPending)

	basket := s.newProduct(verified.ID, nil)
	s.newProduct(verified.ID, func(in *product.NewInput) {
		in.Name = "Tussar Silk Saree"
		in.Description = "Handloom saree in natural dye"
		in.Category = seller.CategoryTextiles
		in.Tags = []string{"silk", "saree"}
		in.Price = 3200
	})
	s.newProduct(pending.ID, func(in *product.NewInput) {
		in.Name = "Clay Water Pot"
		in.Description = "Traditional cooling water pot"
	})

	s.Run("verified only hides unverified sellers", func() {
		got, total, err := s.store.List(ctx, product.ListFilter{VerifiedOnly: true})
		s.Require().NoError(err)
		s.Equal(2, total)
		for _, p := range got {
			s.Equal(verified.ID, p.SellerID)
		}
	})

	s.Run("by category", func() {
		got, total, err := s.store.List(ctx, product.ListFilter{Category: seller.CategoryTextiles})
		s.Require().NoError(err)
		s.Equal(1, total)
		s.Require().Len(got, 1)
		s.Equal("Tussar Silk Saree", got[0].Name)
	})

	s.Run("by price range", func() {
		minPrice, maxPrice := 100.0, 1000.0
		_, total, err := s.store.List(ctx, product.ListFilter{MinPrice: &minPrice, MaxPrice: &maxPrice})
		s.Require().NoError(err)
		s.Equal(2, total)
	})

	s.Run("search over tags", func() {
		got, total, err := s.store.List(ctx, product.ListFilter{Search: "bamboo"})
		s.Require().NoError(err)
		s.Equal(1, total)
		s.Require().Len(got, 1)
		s.Equal(basket.ID, got[0].ID)
	})

	s.Run("by seller", func() {
		_, total, err := s.store.List(ctx, product.ListFilter{SellerID: pending.ID})
		s.Require().NoError(err)
		s.Equal(1, total)
	})
}

func (s *PostgresStoreSuite) TestCount() {
	ctx := context.Background()
	sl := s.newSeller(seller.VerificationVerified)
	s.newProduct(sl.ID, nil)
	inactive := s.newProduct(sl.ID, nil)
	inactive.Status = product.StatusInactive
	s.Require().NoError(s.store.Update(ctx, inactive))

	total, active, err := s.store.Count(ctx)
	s.Require().NoError(err)
	s.Equal(2, total)
	s.Equal(1, active)
}
