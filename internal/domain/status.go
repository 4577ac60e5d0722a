package domain

import "time"

// QuoteStatus represents the lifecycle status of a quote
type QuoteStatus string

const (
	QuoteStatusDraft    QuoteStatus = "draft"
	QuoteStatusSent     QuoteStatus = "sent"
	QuoteStatusAccepted QuoteStatus = "accepted"
	QuoteStatusRejected QuoteStatus = "rejected"
	QuoteStatusExpired  QuoteStatus = "expired"
)

// IsValid checks if the QuoteStatus is a valid enum value
func (s QuoteStatus) IsValid() bool {
	switch s {
	case QuoteStatusDraft, QuoteStatusSent, QuoteStatusAccepted, QuoteStatusRejected, QuoteStatusExpired:
		return true
	}
	return false
}

// quoteStatusTransitions is the fixed transition table. Every status keeps at
// least one outward transition: accepted and rejected quotes can be reopened
// to draft so staff can correct mistakes. This is a deliberate business rule,
// not an oversight.
var quoteStatusTransitions = map[QuoteStatus][]QuoteStatus{
	QuoteStatusDraft:    {QuoteStatusSent},
	QuoteStatusSent:     {QuoteStatusAccepted, QuoteStatusRejected, QuoteStatusDraft},
	QuoteStatusAccepted: {QuoteStatusDraft},
	QuoteStatusRejected: {QuoteStatusDraft, QuoteStatusSent},
	QuoteStatusExpired:  {QuoteStatusDraft, QuoteStatusSent},
}

// AllowedTransitions returns the statuses reachable from s. The returned slice
// must not be mutated.
func AllowedTransitions(s QuoteStatus) []QuoteStatus {
	return quoteStatusTransitions[s]
}

// CanTransition reports whether a transition from the given effective status
// to target is allowed. Self-transitions are always rejected.
func CanTransition(from, to QuoteStatus) bool {
	if from == to {
		return false
	}
	for _, allowed := range quoteStatusTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// EffectiveStatus derives the status presented to consumers. A quote whose
// persisted status is still "sent" past its validity date reads as expired
// without the stored value ever being mutated; "expired" is never written by a
// user-requested transition. Everywhere status is displayed or checked for
// transition eligibility must go through this function, never the raw column.
func EffectiveStatus(persisted QuoteStatus, validityDate time.Time, now time.Time) QuoteStatus {
	if persisted == QuoteStatusSent && now.After(validityDate) {
		return QuoteStatusExpired
	}
	return persisted
}

// EffectiveQuoteStatus is a convenience wrapper over EffectiveStatus for a
// loaded quote, evaluated against the current clock.
func (q *Quote) EffectiveStatus(now time.Time) QuoteStatus {
	return EffectiveStatus(q.Status, q.ValidityDate, now)
}
