package seller

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

func TestNewSeller(t *testing.T) {
	t.Run("starts pending with minted identity", func(t *testing.T) {
		s, err := New("+919812345678", now)
		require.NoError(t, err)

		assert.Equal(t, VerificationPending, s.VerificationStatus)
		assert.Equal(t, MembershipActive, s.UnionMembership.Status)
		assert.Equal(t, LanguageEnglish, s.Language)
		assert.False(t, s.ID.IsZero())
		assert.Nil(t, s.UnionMembership.IssueDate)
		assert.Nil(t, s.UnionMembership.ExpiryDate)
	})

	t.Run("union id has the UU year format", func(t *testing.T) {
		s, err := New("+919812345678", now)
		require.NoError(t, err)
		assert.Regexp(t, regexp.MustCompile(`^UU26\d{6}$`), s.UnionMembership.ID)
	})

	t.Run("referral code is six uppercase alphanumerics", func(t *testing.T) {
		s, err := New("+919812345678", now)
		require.NoError(t, err)
		assert.Regexp(t, regexp.MustCompile(`^[A-Z0-9]{6}$`), s.ReferralCode)
	})

	t.Run("identity is minted exactly once", func(t *testing.T) {
		s, err := New("+919812345678", now)
		require.NoError(t, err)
		unionID, referral := s.UnionMembership.ID, s.ReferralCode

		s.mintIdentity(now.AddDate(1, 0, 0))

		assert.Equal(t, unionID, s.UnionMembership.ID)
		assert.Equal(t, referral, s.ReferralCode)
	})

	t.Run("rejects malformed phone numbers", func(t *testing.T) {
		for _, phone := range []string{"", "abc", "0123456", "+", "98-12"} {
			_, err := New(phone, now)
			assert.Error(t, err, "phone %q", phone)
		}
	})
}

func TestProfileUpdate(t *testing.T) {
	t.Run("applies only populated fields", func(t *testing.T) {
		s, err := New("+919812345678", now)
		require.NoError(t, err)
		s.Name = "Asha"
		s.City = "Jaipur"

		name := "Asha Devi"
		scale := ScaleSmall
		update := ProfileUpdate{
			Name:       &name,
			Scale:      &scale,
			Categories: []Category{CategoryHandicrafts, CategoryTextiles},
		}
		require.NoError(t, update.Validate())

		later := now.Add(time.Hour)
		s.Apply(update, later)

		assert.Equal(t, "Asha Devi", s.Name)
		assert.Equal(t, ScaleSmall, s.Scale)
		assert.Equal(t, []Category{CategoryHandicrafts, CategoryTextiles}, s.Categories)
		assert.Equal(t, "Jaipur", s.City, "untouched field preserved")
		assert.Equal(t, later, s.UpdatedAt)
	})

	t.Run("normalizes email and trims whitespace", func(t *testing.T) {
		s, err := New("+919812345678", now)
		require.NoError(t, err)

		email := "  Asha@Example.COM "
		s.Apply(ProfileUpdate{Email: &email}, now)
		assert.Equal(t, "asha@example.com", s.Email)
	})

	t.Run("rejects unknown enum values", func(t *testing.T) {
		badScale := Scale("Gigantic")
		assert.Error(t, ProfileUpdate{Scale: &badScale}.Validate())

		badLanguage := Language("Sanskrit")
		assert.Error(t, ProfileUpdate{Language: &badLanguage}.Validate())

		assert.Error(t, ProfileUpdate{Categories: []Category{"Mining"}}.Validate())
	})
}

func TestSupportTickets(t *testing.T) {
	t.Run("appends open tickets", func(t *testing.T) {
		s, err := New("+919812345678", now)
		require.NoError(t, err)

		ticket, err := s.AddSupportTicket("Cannot upload documents", "The upload button does nothing", now)
		require.NoError(t, err)

		assert.Equal(t, TicketOpen, ticket.Status)
		assert.False(t, ticket.ID.IsZero())
		require.Len(t, s.SupportTickets, 1)
	})

	t.Run("rejects empty issue", func(t *testing.T) {
		s, err := New("+919812345678", now)
		require.NoError(t, err)
		_, err = s.AddSupportTicket("   ", "details", now)
		assert.Error(t, err)
	})

	t.Run("moves tickets through statuses", func(t *testing.T) {
		s, err := New("+919812345678", now)
		require.NoError(t, err)
		ticket, err := s.AddSupportTicket("Membership card missing", "No card after approval", now)
		require.NoError(t, err)

		require.NoError(t, s.UpdateSupportTicket(ticket.ID, TicketResolved, now.Add(time.Hour)))
		assert.Equal(t, TicketResolved, s.SupportTickets[0].Status)

		assert.Error(t, s.UpdateSupportTicket(ticket.ID, "archived", now))
	})
}

func TestGenerateUnionID(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		id := generateUnionID(now)
		assert.Regexp(t, regexp.MustCompile(`^UU26\d{6}$`), id)
		seen[id] = struct{}{}
	}
	// Six random digits: collisions across 100 draws should be rare.
	assert.Greater(t, len(seen), 95)
}
