package admin_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"udyam/internal/admin"
	"udyam/internal/audit"
	jwttoken "udyam/internal/jwt_token"
	"udyam/internal/product"
	"udyam/internal/seller"
	"udyam/internal/verification"
	id "udyam/pkg/domain"
	dErrors "udyam/pkg/domain-errors"
	"udyam/pkg/requestcontext"
)

var testNow = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

type AdminServiceSuite struct {
	suite.Suite

	admins        *admin.InMemoryStore
	sellers       *seller.InMemoryStore
	verifications *verification.InMemoryStore
	products      *product.InMemoryStore
	svc           *admin.Service

	phone int
}

func TestAdminServiceSuite(t *testing.T) {
	suite.Run(t, new(AdminServiceSuite))
}

func (s *AdminServiceSuite) SetupTest() {
	s.admins = admin.NewInMemoryStore()
	s.sellers = seller.NewInMemoryStore()
	s.verifications = verification.NewInMemoryStore()
	s.products = product.NewInMemoryStore(s.sellers)
	s.svc = admin.NewService(s.admins, s.sellers, s.verifications, s.products,
		jwttoken.New("test-key", "udyam-test"), time.Hour)
}

func (s *AdminServiceSuite) ctx() context.Context {
	return requestcontext.WithTime(context.Background(), testNow)
}

func (s *AdminServiceSuite) ctxAt(t time.Time) context.Context {
	return requestcontext.WithTime(context.Background(), t)
}

func (s *AdminServiceSuite) seedAdmin(role admin.Role, permissions []admin.Permission) *admin.Admin {
	a, err := s.svc.CreateAccount(s.ctx(), "operator", "hunter22", role, permissions)
	s.Require().NoError(err)
	return a
}

func (s *AdminServiceSuite) seedSeller(status seller.VerificationStatus, mutate func(*seller.Seller)) *seller.Seller {
	s.phone++
	sl, err := seller.New(fmt.Sprintf("+91987650%04d", s.phone), testNow)
	s.Require().NoError(err)
	sl.Name = fmt.Sprintf("Seller %d", s.phone)
	sl.VerificationStatus = status
	if mutate != nil {
		mutate(sl)
	}
	s.Require().NoError(s.sellers.Create(s.ctx(), sl))
	return sl
}

func (s *AdminServiceSuite) seedVerification(sellerID id.SellerID, status verification.Status, reviewedAt *time.Time) *verification.Verification {
	v := verification.New(sellerID, seller.DocumentTypeAadhaar, testNow)
	v.Status = status
	v.ReviewedAt = reviewedAt
	s.Require().NoError(s.verifications.Save(s.ctx(), v))
	return v
}

func (s *AdminServiceSuite) seedProduct(sellerID id.SellerID, status product.Status) *product.Product {
	p, err := product.New(sellerID, product.NewInput{
		Name:        "Handwoven Basket",
		Description: "Bamboo basket woven by hand",
		Category:    seller.CategoryHandicrafts,
		Price:       450,
		MaxUnits:    20,
		LeadTime:    "5 days",
	}, testNow)
	s.Require().NoError(err)
	p.Status = status
	s.Require().NoError(s.products.Create(s.ctx(), p))
	return p
}

func (s *AdminServiceSuite) TestCreateAccount() {
	s.Run("duplicate username", func() {
		s.seedAdmin(admin.RoleAdmin, nil)
		_, err := s.svc.CreateAccount(s.ctx(), "operator", "hunter22", admin.RoleAdmin, nil)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})
}

func (s *AdminServiceSuite) TestLogin() {
	client := admin.ClientInfo{IPAddress: "10.0.0.1", UserAgent: "curl/8.0"}

	s.Run("valid credentials", func() {
		s.SetupTest()
		created := s.seedAdmin(admin.RoleAdmin, []admin.Permission{admin.PermVerifySellers})

		result, err := s.svc.Login(s.ctx(), "operator", "hunter22", client)
		s.Require().NoError(err)
		s.NotEmpty(result.Token)
		s.Equal(created.ID, result.Admin.ID)
		s.Require().NotNil(result.Admin.LastLogin)
		s.Equal(testNow, *result.Admin.LastLogin)

		stored, err := s.admins.FindByID(s.ctx(), created.ID)
		s.Require().NoError(err)
		s.Require().NotEmpty(stored.ActivityLog)
		s.Equal("login", stored.ActivityLog[len(stored.ActivityLog)-1].Action)
	})

	s.Run("unknown username", func() {
		s.SetupTest()
		_, err := s.svc.Login(s.ctx(), "nobody", "hunter22", client)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
		s.Contains(err.Error(), "invalid credentials")
	})

	s.Run("wrong password", func() {
		s.SetupTest()
		s.seedAdmin(admin.RoleAdmin, nil)
		_, err := s.svc.Login(s.ctx(), "operator", "wrong-pass", client)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("locks after repeated failures", func() {
		s.SetupTest()
		created := s.seedAdmin(admin.RoleAdmin, nil)

		for i := 0; i < admin.MaxLoginAttempts; i++ {
			_, err := s.svc.Login(s.ctx(), "operator", "wrong-pass", client)
			s.Require().Error(err)
		}

		_, err := s.svc.Login(s.ctx(), "operator", "hunter22", client)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
		s.Contains(err.Error(), "temporarily locked")

		stored, err := s.admins.FindByID(s.ctx(), created.ID)
		s.Require().NoError(err)
		s.True(stored.IsLocked(testNow))
	})

	s.Run("lock lapses", func() {
		s.SetupTest()
		s.seedAdmin(admin.RoleAdmin, nil)
		for i := 0; i < admin.MaxLoginAttempts; i++ {
			_, _ = s.svc.Login(s.ctx(), "operator", "wrong-pass", client)
		}

		later := s.ctxAt(testNow.Add(admin.LockDuration + time.Minute))
		result, err := s.svc.Login(later, "operator", "hunter22", client)
		s.Require().NoError(err)
		s.Zero(result.Admin.LoginAttempts)
	})

	s.Run("inactive account", func() {
		s.SetupTest()
		created := s.seedAdmin(admin.RoleAdmin, nil)
		created.IsActive = false
		s.Require().NoError(s.admins.Update(s.ctx(), created))

		_, err := s.svc.Login(s.ctx(), "operator", "hunter22", client)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func (s *AdminServiceSuite) TestListSellers() {
	sl := s.seedSeller(seller.VerificationProvisional, nil)
	s.seedSeller(seller.VerificationPending, nil)

	v := verification.New(sl.ID, seller.DocumentTypeNone, testNow)
	s.Require().NoError(s.verifications.Save(s.ctx(), v))

	summaries, total, err := s.svc.ListSellers(s.ctx(), seller.ListFilter{})
	s.Require().NoError(err)
	s.Equal(2, total)
	s.Require().Len(summaries, 2)

	byID := make(map[id.SellerID]admin.SellerSummary, len(summaries))
	for _, summary := range summaries {
		byID[summary.Seller.ID] = summary
	}
	s.Require().NotNil(byID[sl.ID].Verification)
	s.Equal(v.ID, byID[sl.ID].Verification.ID)
}

func (s *AdminServiceSuite) TestGetSellerDetail() {
	s.Run("found with products", func() {
		sl := s.seedSeller(seller.VerificationVerified, nil)
		p := s.seedProduct(sl.ID, product.StatusActive)

		detail, err := s.svc.GetSellerDetail(s.ctx(), sl.ID)
		s.Require().NoError(err)
		s.Equal(sl.ID, detail.Seller.ID)
		s.Nil(detail.Verification)
		s.Require().Len(detail.Products, 1)
		s.Equal(p.ID, detail.Products[0].ID)
	})

	s.Run("unknown seller", func() {
		_, err := s.svc.GetSellerDetail(s.ctx(), id.NewSellerID())
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *AdminServiceSuite) TestUpdateMembership() {
	client := admin.ClientInfo{IPAddress: "10.0.0.1", UserAgent: "curl/8.0"}

	s.Run("suspends with reason", func() {
		s.SetupTest()
		a := s.seedAdmin(admin.RoleSuperAdmin, nil)
		sl := s.seedSeller(seller.VerificationVerified, nil)

		updated, err := s.svc.UpdateMembership(s.ctx(), a.ID, sl.ID,
			seller.MembershipSuspended, "document forgery reported", client)
		s.Require().NoError(err)
		s.Equal(seller.MembershipSuspended, updated.UnionMembership.Status)
		s.Equal("document forgery reported", updated.UnionMembership.Reason)

		stored, err := s.sellers.FindByID(s.ctx(), sl.ID)
		s.Require().NoError(err)
		s.Equal(seller.MembershipSuspended, stored.UnionMembership.Status)

		auditor, err := s.admins.FindByID(s.ctx(), a.ID)
		s.Require().NoError(err)
		s.Require().NotEmpty(auditor.ActivityLog)
		last := auditor.ActivityLog[len(auditor.ActivityLog)-1]
		s.Equal("membership-suspended", last.Action)
		s.Equal(sl.ID.String(), last.Target)
	})

	s.Run("invalid status", func() {
		s.SetupTest()
		a := s.seedAdmin(admin.RoleSuperAdmin, nil)
		sl := s.seedSeller(seller.VerificationVerified, nil)

		_, err := s.svc.UpdateMembership(s.ctx(), a.ID, sl.ID,
			seller.MembershipStatus("frozen"), "", client)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("reason too long", func() {
		s.SetupTest()
		a := s.seedAdmin(admin.RoleSuperAdmin, nil)
		sl := s.seedSeller(seller.VerificationVerified, nil)

		long := make([]byte, 501)
		for i := range long {
			long[i] = 'x'
		}
		_, err := s.svc.UpdateMembership(s.ctx(), a.ID, sl.ID,
			seller.MembershipExpired, string(long), client)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *AdminServiceSuite) TestDashboard() {
	verified := s.seedSeller(seller.VerificationVerified, nil)
	provisional := s.seedSeller(seller.VerificationProvisional, nil)
	pending := s.seedSeller(seller.VerificationPending, nil)
	s.seedProduct(verified.ID, product.StatusActive)
	s.seedProduct(verified.ID, product.StatusInactive)

	reviewed := testNow.Add(-time.Hour)
	s.seedVerification(verified.ID, verification.StatusApproved, &reviewed)
	s.seedVerification(provisional.ID, verification.StatusUnderReview, &reviewed)
	s.seedVerification(pending.ID, verification.StatusPending, nil)

	stats, err := s.svc.Dashboard(s.ctx())
	s.Require().NoError(err)
	s.Equal(3, stats.TotalSellers)
	s.Equal(1, stats.VerifiedSellers)
	s.Equal(1, stats.ProvisionalSellers)
	s.Equal(1, stats.PendingSellers)
	s.Equal(2, stats.TotalProducts)
	s.Equal(1, stats.ActiveProducts)
	s.Equal(2, stats.PendingReviews)
	s.Len(stats.RecentSellers, 3)
	s.Len(stats.RecentProducts, 2)
}

func (s *AdminServiceSuite) TestAnalytics() {
	first := s.seedSeller(seller.VerificationVerified, func(sl *seller.Seller) {
		sl.Region = "Bihar"
		sl.Categories = []seller.Category{seller.CategoryHandicrafts}
	})
	second := s.seedSeller(seller.VerificationPending, func(sl *seller.Seller) {
		sl.Region = "Odisha"
		sl.Categories = []seller.Category{seller.CategoryTextiles}
	})
	third := s.seedSeller(seller.VerificationVerified, func(sl *seller.Seller) {
		sl.Region = "Bihar"
		sl.Categories = []seller.Category{seller.CategoryHandicrafts}
	})

	recent := testNow.Add(-48 * time.Hour)
	stale := testNow.Add(-45 * 24 * time.Hour)
	s.seedVerification(first.ID, verification.StatusApproved, &recent)
	s.seedVerification(second.ID, verification.StatusRejected, &recent)
	s.seedVerification(third.ID, verification.StatusApproved, &stale)

	s.Run("default period", func() {
		analytics, err := s.svc.GetAnalytics(s.ctx(), "")
		s.Require().NoError(err)
		s.Equal(admin.Period30Days, analytics.Period)
		s.Require().Len(analytics.RegistrationTrend, 1)
		s.Equal(3, analytics.RegistrationTrend[0].Count)
		s.Len(analytics.CategoryDistribution, 2)
		s.Len(analytics.RegionDistribution, 2)
	})

	s.Run("decisions outside the window are excluded", func() {
		analytics, err := s.svc.GetAnalytics(s.ctx(), admin.Period30Days)
		s.Require().NoError(err)
		s.Equal(1, analytics.DecisionCounts[verification.StatusApproved])
		s.Equal(1, analytics.DecisionCounts[verification.StatusRejected])
		s.Zero(analytics.DecisionCounts[verification.StatusUnderReview])
	})

	s.Run("wider window admits older decisions", func() {
		analytics, err := s.svc.GetAnalytics(s.ctx(), admin.Period90Days)
		s.Require().NoError(err)
		s.Equal(2, analytics.DecisionCounts[verification.StatusApproved])
	})

	s.Run("invalid period", func() {
		_, err := s.svc.GetAnalytics(s.ctx(), admin.AnalyticsPeriod("365d"))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *AdminServiceSuite) TestRecordActivity() {
	a := s.seedAdmin(admin.RoleAdmin, nil)
	client := admin.ClientInfo{IPAddress: "10.0.0.1", UserAgent: "curl/8.0"}

	err := s.svc.RecordActivity(s.ctx(), a.ID, "verify-approve", "seller-1", client)
	require.NoError(s.T(), err)

	stored, err := s.admins.FindByID(s.ctx(), a.ID)
	s.Require().NoError(err)
	s.Require().Len(stored.ActivityLog, 1)
	s.Equal("verify-approve", stored.ActivityLog[0].Action)
}

func (s *AdminServiceSuite) TestAuditTrail() {
	auditStore := audit.NewInMemoryStore()
	publisher, worker := audit.NewPipeline(auditStore, 8)
	ctx, cancel := context.WithCancel(s.ctx())
	defer cancel()
	go func() { _ = worker.Run(ctx) }()

	svc := admin.NewService(s.admins, s.sellers, s.verifications, s.products,
		jwttoken.New("test-key", "udyam-test"), time.Hour, admin.WithAudit(publisher))

	a, err := svc.CreateAccount(s.ctx(), "auditor", "hunter22", admin.RoleAdmin, nil)
	s.Require().NoError(err)
	client := admin.ClientInfo{IPAddress: "10.0.0.9", UserAgent: "curl/8.0"}

	_, err = svc.Login(s.ctx(), "auditor", "hunter22", client)
	s.Require().NoError(err)
	s.Require().NoError(svc.RecordActivity(s.ctx(), a.ID, "verify-approve", "seller-1", client))

	s.Require().Eventually(func() bool {
		events, listErr := auditStore.ListByAdmin(context.Background(), a.ID)
		return listErr == nil && len(events) == 2
	}, time.Second, 5*time.Millisecond)

	events, err := auditStore.ListByAdmin(context.Background(), a.ID)
	s.Require().NoError(err)
	s.Equal("login", events[0].Action)
	s.Equal("verify-approve", events[1].Action)
	s.Equal("seller-1", events[1].Target)
	s.Equal("10.0.0.9", events[1].IPAddress)
	s.Equal(testNow, events[1].Timestamp)
}
