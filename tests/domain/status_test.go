package domain_test

import (
	"testing"
	"time"

	"github.com/medisupply/devis-api/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestQuoteStatus_IsValid(t *testing.T) {
	valid := []domain.QuoteStatus{
		domain.QuoteStatusDraft,
		domain.QuoteStatusSent,
		domain.QuoteStatusAccepted,
		domain.QuoteStatusRejected,
		domain.QuoteStatusExpired,
	}
	for _, s := range valid {
		assert.True(t, s.IsValid(), "%s should be valid", s)
	}

	assert.False(t, domain.QuoteStatus("pending").IsValid())
	assert.False(t, domain.QuoteStatus("").IsValid())
	assert.False(t, domain.QuoteStatus("DRAFT").IsValid())
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from    domain.QuoteStatus
		to      domain.QuoteStatus
		allowed bool
	}{
		{domain.QuoteStatusDraft, domain.QuoteStatusSent, true},
		{domain.QuoteStatusDraft, domain.QuoteStatusAccepted, false},
		{domain.QuoteStatusDraft, domain.QuoteStatusRejected, false},
		{domain.QuoteStatusDraft, domain.QuoteStatusExpired, false},

		{domain.QuoteStatusSent, domain.QuoteStatusAccepted, true},
		{domain.QuoteStatusSent, domain.QuoteStatusRejected, true},
		{domain.QuoteStatusSent, domain.QuoteStatusDraft, true},
		{domain.QuoteStatusSent, domain.QuoteStatusExpired, false},

		{domain.QuoteStatusAccepted, domain.QuoteStatusDraft, true},
		{domain.QuoteStatusAccepted, domain.QuoteStatusSent, false},
		{domain.QuoteStatusAccepted, domain.QuoteStatusRejected, false},

		{domain.QuoteStatusRejected, domain.QuoteStatusDraft, true},
		{domain.QuoteStatusRejected, domain.QuoteStatusSent, true},
		{domain.QuoteStatusRejected, domain.QuoteStatusAccepted, false},

		{domain.QuoteStatusExpired, domain.QuoteStatusDraft, true},
		{domain.QuoteStatusExpired, domain.QuoteStatusSent, true},
		{domain.QuoteStatusExpired, domain.QuoteStatusAccepted, false},
		{domain.QuoteStatusExpired, domain.QuoteStatusRejected, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+" -> "+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, domain.CanTransition(tt.from, tt.to))
		})
	}
}

func TestCanTransition_SelfTransitionRejected(t *testing.T) {
	statuses := []domain.QuoteStatus{
		domain.QuoteStatusDraft,
		domain.QuoteStatusSent,
		domain.QuoteStatusAccepted,
		domain.QuoteStatusRejected,
		domain.QuoteStatusExpired,
	}
	for _, s := range statuses {
		assert.False(t, domain.CanTransition(s, s), "%s -> %s must be rejected", s, s)
	}
}

func TestAllowedTransitions_EveryStatusHasAnExit(t *testing.T) {
	statuses := []domain.QuoteStatus{
		domain.QuoteStatusDraft,
		domain.QuoteStatusSent,
		domain.QuoteStatusAccepted,
		domain.QuoteStatusRejected,
		domain.QuoteStatusExpired,
	}
	for _, s := range statuses {
		assert.NotEmpty(t, domain.AllowedTransitions(s), "%s must have at least one outward transition", s)
	}
}

func TestEffectiveStatus(t *testing.T) {
	validity := time.Date(2026, 4, 14, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		persisted domain.QuoteStatus
		now       time.Time
		expected  domain.QuoteStatus
	}{
		{
			name:      "sent before validity date stays sent",
			persisted: domain.QuoteStatusSent,
			now:       validity.AddDate(0, 0, -1),
			expected:  domain.QuoteStatusSent,
		},
		{
			name:      "sent past validity date reads expired",
			persisted: domain.QuoteStatusSent,
			now:       validity.AddDate(0, 0, 1),
			expected:  domain.QuoteStatusExpired,
		},
		{
			name:      "sent exactly at validity date stays sent",
			persisted: domain.QuoteStatusSent,
			now:       validity,
			expected:  domain.QuoteStatusSent,
		},
		{
			name:      "draft never expires",
			persisted: domain.QuoteStatusDraft,
			now:       validity.AddDate(1, 0, 0),
			expected:  domain.QuoteStatusDraft,
		},
		{
			name:      "accepted never expires",
			persisted: domain.QuoteStatusAccepted,
			now:       validity.AddDate(1, 0, 0),
			expected:  domain.QuoteStatusAccepted,
		},
		{
			name:      "rejected never expires",
			persisted: domain.QuoteStatusRejected,
			now:       validity.AddDate(1, 0, 0),
			expected:  domain.QuoteStatusRejected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, domain.EffectiveStatus(tt.persisted, validity, tt.now))
		})
	}
}

func TestQuote_EffectiveStatus(t *testing.T) {
	quote := &domain.Quote{
		Status:       domain.QuoteStatusSent,
		ValidityDate: time.Date(2026, 4, 14, 0, 0, 0, 0, time.UTC),
	}

	assert.Equal(t, domain.QuoteStatusSent,
		quote.EffectiveStatus(time.Date(2026, 4, 10, 9, 0, 0, 0, time.UTC)))
	assert.Equal(t, domain.QuoteStatusExpired,
		quote.EffectiveStatus(time.Date(2026, 4, 15, 9, 0, 0, 0, time.UTC)))
}
