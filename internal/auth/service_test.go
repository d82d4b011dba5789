package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"udyam/internal/auth/otp"
	jwttoken "udyam/internal/jwt_token"
	"udyam/internal/platform/config"
	"udyam/internal/ratelimit"
	"udyam/internal/seller"
	dErrors "udyam/pkg/domain-errors"
	"udyam/pkg/requestcontext"
)

const testPhone = "+919812345678"

type recordingSender struct {
	sent []string
}

func (r *recordingSender) Send(_ context.Context, _ string, code string) error {
	r.sent = append(r.sent, code)
	return nil
}

type AuthServiceSuite struct {
	suite.Suite
	sellers *seller.InMemoryStore
	store   *otp.InMemoryStore
	sender  *recordingSender
	service *Service
	ctx     context.Context
	now     time.Time
}

func TestAuthServiceSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceSuite))
}

func (s *AuthServiceSuite) SetupTest() {
	s.sellers = seller.NewInMemoryStore()
	s.store = otp.NewInMemoryStore()
	s.sender = &recordingSender{}
	s.now = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)

	cfg := config.OTPConfig{
		TTL:         5 * time.Minute,
		MaxAttempts: 3,
		SendWindow:  15 * time.Minute,
		SendLimit:   3,
	}
	tokens := jwttoken.New("test-key", "udyam-test")
	s.service = New(s.sellers, s.store, s.sender, tokens, cfg, 7*24*time.Hour,
		WithLimiter(ratelimit.NewInMemoryLimiter()),
		WithDevMode(true))
}

func (s *AuthServiceSuite) sendCode() string {
	code, err := s.service.SendOTP(s.ctx, testPhone)
	s.Require().NoError(err)
	s.Require().Len(code, otp.CodeLength)
	return code
}

func (s *AuthServiceSuite) TestSendOTP() {
	s.Run("issues a six digit code", func() {
		code := s.sendCode()
		s.Regexp(`^\d{6}$`, code)
		s.Equal([]string{code}, s.sender.sent)
	})

	s.Run("blocks resend while a code is outstanding", func() {
		_, err := s.service.SendOTP(s.ctx, testPhone)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
		s.Contains(err.Error(), "already sent")
	})

	s.Run("allows reissue after expiry", func() {
		laterCtx := requestcontext.WithTime(context.Background(), s.now.Add(6*time.Minute))
		_, err := s.service.SendOTP(laterCtx, testPhone)
		s.NoError(err)
	})

	s.Run("rejects malformed phones", func() {
		_, err := s.service.SendOTP(s.ctx, "not-a-phone")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func (s *AuthServiceSuite) TestSendOTPRateLimit() {
	// Each send targets a fresh phone suffix in an expired state to bypass
	// the resend block but still share the limiter key.
	phone := "+919812340099"
	for i := 0; i < 3; i++ {
		ctx := requestcontext.WithTime(context.Background(), s.now.Add(time.Duration(i)*10*time.Minute))
		_, err := s.service.SendOTP(ctx, phone)
		s.Require().NoError(err)
	}

	ctx := requestcontext.WithTime(context.Background(), s.now.Add(40*time.Minute))
	_, err := s.service.SendOTP(ctx, phone)
	s.Require().Error(err)
	s.Contains(err.Error(), "too many OTP requests")
}

func (s *AuthServiceSuite) TestVerifyOTP() {
	s.Run("first login creates the seller with minted identity", func() {
		code := s.sendCode()

		result, err := s.service.VerifyOTP(s.ctx, testPhone, code)
		s.Require().NoError(err)
		s.True(result.NewSeller)
		s.NotEmpty(result.Token)
		s.Equal(seller.VerificationPending, result.Seller.VerificationStatus)
		s.NotEmpty(result.Seller.UnionMembership.ID)
		s.NotEmpty(result.Seller.ReferralCode)
	})

	s.Run("second login finds the existing seller", func() {
		laterCtx := requestcontext.WithTime(context.Background(), s.now.Add(10*time.Minute))
		code, err := s.service.SendOTP(laterCtx, testPhone)
		s.Require().NoError(err)

		result, err := s.service.VerifyOTP(laterCtx, testPhone, code)
		s.Require().NoError(err)
		s.False(result.NewSeller)
	})

	s.Run("code is single use", func() {
		verifyCtx := requestcontext.WithTime(context.Background(), s.now.Add(20*time.Minute))
		code, err := s.service.SendOTP(verifyCtx, testPhone)
		s.Require().NoError(err)

		_, err = s.service.VerifyOTP(verifyCtx, testPhone, code)
		s.Require().NoError(err)

		_, err = s.service.VerifyOTP(verifyCtx, testPhone, code)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func (s *AuthServiceSuite) TestVerifyOTPGuards() {
	s.Run("wrong code counts down attempts", func() {
		code := s.sendCode()

		_, err := s.service.VerifyOTP(s.ctx, testPhone, "000000")
		s.Require().Error(err)
		s.Contains(err.Error(), "2 attempts remaining")

		_, err = s.service.VerifyOTP(s.ctx, testPhone, "000000")
		s.Require().Error(err)
		s.Contains(err.Error(), "1 attempts remaining")

		_, err = s.service.VerifyOTP(s.ctx, testPhone, "000000")
		s.Require().Error(err)

		// The budget is spent; even the right code is refused now.
		_, err = s.service.VerifyOTP(s.ctx, testPhone, code)
		s.Require().Error(err)
		s.Contains(err.Error(), "too many incorrect attempts")
	})

	s.Run("expired code is refused", func() {
		issueCtx := requestcontext.WithTime(context.Background(), s.now.Add(time.Hour))
		code, err := s.service.SendOTP(issueCtx, "+919812340011")
		s.Require().NoError(err)

		lateCtx := requestcontext.WithTime(context.Background(), s.now.Add(time.Hour+6*time.Minute))
		_, err = s.service.VerifyOTP(lateCtx, "+919812340011", code)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("no outstanding code", func() {
		_, err := s.service.VerifyOTP(s.ctx, "+919812340012", "123456")
		s.Require().Error(err)
		s.Contains(err.Error(), "not found or expired")
	})
}

func (s *AuthServiceSuite) TestRefreshToken() {
	code := s.sendCode()
	result, err := s.service.VerifyOTP(s.ctx, testPhone, code)
	s.Require().NoError(err)

	token, sl, err := s.service.RefreshToken(s.ctx, result.Seller.ID)
	s.Require().NoError(err)
	s.NotEmpty(token)
	s.Equal(result.Seller.ID, sl.ID)
}
