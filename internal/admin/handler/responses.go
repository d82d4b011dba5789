package handler

import (
	"time"

	"udyam/internal/admin"
	"udyam/internal/product"
	producthandler "udyam/internal/product/handler"
	sellerhandler "udyam/internal/seller/handler"
)

// AdminResponse is the token subject's own account view. The password hash
// and activity log stay server-side.
type AdminResponse struct {
	ID          string     `json:"id"`
	Username    string     `json:"username"`
	Role        string     `json:"role"`
	Permissions []string   `json:"permissions"`
	LastLogin   *time.Time `json:"last_login,omitempty"`
}

func fromAdmin(a *admin.Admin) *AdminResponse {
	permissions := make([]string, 0, len(a.EffectivePermissions()))
	for _, p := range a.EffectivePermissions() {
		permissions = append(permissions, string(p))
	}
	return &AdminResponse{
		ID:          a.ID.String(),
		Username:    a.Username,
		Role:        string(a.Role),
		Permissions: permissions,
		LastLogin:   a.LastLogin,
	}
}

type loginResponse struct {
	Token string         `json:"token"`
	Admin *AdminResponse `json:"admin"`
}

// SellerSummaryResponse is one row of the admin seller listing.
type SellerSummaryResponse struct {
	Seller       *sellerhandler.SellerResponse       `json:"seller"`
	Verification *sellerhandler.VerificationResponse `json:"verification,omitempty"`
}

type sellerListResponse struct {
	Sellers    []SellerSummaryResponse `json:"sellers"`
	Pagination paginationResponse      `json:"pagination"`
}

type paginationResponse struct {
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

func fromSummaries(summaries []admin.SellerSummary) []SellerSummaryResponse {
	out := make([]SellerSummaryResponse, 0, len(summaries))
	for _, summary := range summaries {
		row := SellerSummaryResponse{Seller: sellerhandler.FromSeller(summary.Seller)}
		if summary.Verification != nil {
			row.Verification = sellerhandler.FromVerification(summary.Verification)
		}
		out = append(out, row)
	}
	return out
}

// SellerDetailResponse is the full admin view of one seller.
type SellerDetailResponse struct {
	Seller       *sellerhandler.SellerResponse       `json:"seller"`
	Verification *sellerhandler.VerificationResponse `json:"verification,omitempty"`
	Products     []*producthandler.ProductResponse   `json:"products"`
}

func fromDetail(detail *admin.SellerDetail) *SellerDetailResponse {
	resp := &SellerDetailResponse{
		Seller:   sellerhandler.FromSeller(detail.Seller),
		Products: productResponses(detail.Products),
	}
	if detail.Verification != nil {
		resp.Verification = sellerhandler.FromVerification(detail.Verification)
	}
	return resp
}

// VerifyResponse confirms an applied verification decision.
type VerifyResponse struct {
	Seller       *sellerhandler.SellerResponse       `json:"seller"`
	Verification *sellerhandler.VerificationResponse `json:"verification"`
}

// DashboardResponse is the body for GET /admin/dashboard.
type DashboardResponse struct {
	Stats          dashboardStats                    `json:"stats"`
	RecentSellers  []*sellerhandler.SellerResponse   `json:"recent_sellers"`
	RecentProducts []*producthandler.ProductResponse `json:"recent_products"`
}

type dashboardStats struct {
	TotalSellers       int `json:"total_sellers"`
	VerifiedSellers    int `json:"verified_sellers"`
	ProvisionalSellers int `json:"provisional_sellers"`
	PendingSellers     int `json:"pending_sellers"`
	TotalProducts      int `json:"total_products"`
	ActiveProducts     int `json:"active_products"`
	PendingReviews     int `json:"pending_reviews"`
}

func fromDashboard(stats *admin.DashboardStats) *DashboardResponse {
	recentSellers := make([]*sellerhandler.SellerResponse, 0, len(stats.RecentSellers))
	for _, sl := range stats.RecentSellers {
		recentSellers = append(recentSellers, sellerhandler.FromSeller(sl))
	}
	return &DashboardResponse{
		Stats: dashboardStats{
			TotalSellers:       stats.TotalSellers,
			VerifiedSellers:    stats.VerifiedSellers,
			ProvisionalSellers: stats.ProvisionalSellers,
			PendingSellers:     stats.PendingSellers,
			TotalProducts:      stats.TotalProducts,
			ActiveProducts:     stats.ActiveProducts,
			PendingReviews:     stats.PendingReviews,
		},
		RecentSellers:  recentSellers,
		RecentProducts: productResponses(stats.RecentProducts),
	}
}

func productResponses(products []*product.Product) []*producthandler.ProductResponse {
	out := make([]*producthandler.ProductResponse, 0, len(products))
	for _, p := range products {
		out = append(out, producthandler.FromProduct(p))
	}
	return out
}

// AnalyticsResponse is the body for GET /admin/analytics.
type AnalyticsResponse struct {
	Period               string                 `json:"period"`
	RegistrationTrend    []trendPointResponse   `json:"registration_trend"`
	CategoryDistribution []distributionResponse `json:"category_distribution"`
	RegionDistribution   []distributionResponse `json:"region_distribution"`
	DecisionCounts       map[string]int         `json:"decision_counts"`
}

type trendPointResponse struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type distributionResponse struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

func fromAnalytics(analytics *admin.Analytics) *AnalyticsResponse {
	resp := &AnalyticsResponse{
		Period:               string(analytics.Period),
		RegistrationTrend:    make([]trendPointResponse, 0, len(analytics.RegistrationTrend)),
		CategoryDistribution: make([]distributionResponse, 0, len(analytics.CategoryDistribution)),
		RegionDistribution:   make([]distributionResponse, 0, len(analytics.RegionDistribution)),
		DecisionCounts:       make(map[string]int, len(analytics.DecisionCounts)),
	}
	for _, point := range analytics.RegistrationTrend {
		resp.RegistrationTrend = append(resp.RegistrationTrend, trendPointResponse{
			Date:  point.Date.Format("2006-01-02"),
			Count: point.Count,
		})
	}
	for _, dist := range analytics.CategoryDistribution {
		resp.CategoryDistribution = append(resp.CategoryDistribution, distributionResponse{Key: dist.Key, Count: dist.Count})
	}
	for _, dist := range analytics.RegionDistribution {
		resp.RegionDistribution = append(resp.RegionDistribution, distributionResponse{Key: dist.Key, Count: dist.Count})
	}
	for status, count := range analytics.DecisionCounts {
		resp.DecisionCounts[string(status)] = count
	}
	return resp
}
