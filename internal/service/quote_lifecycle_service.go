package service

// Status transitions live in their own file so the transition rules are easy
// to review apart from the CRUD plumbing.

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/medisupply/devis-api/internal/auth"
	"github.com/medisupply/devis-api/internal/domain"
	"github.com/medisupply/devis-api/internal/mapper"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RequestTransition moves a quote to the target status if the transition
// table allows it from the quote's EFFECTIVE status (so an expired quote can
// be reworked or re-sent even though the stored row still says sent). The
// status change and the history entry are written in one transaction.
func (s *QuoteService) RequestTransition(ctx context.Context, id uuid.UUID, req *domain.TransitionQuoteRequest) (*domain.QuoteDTO, error) {
	quote, err := s.quoteRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuoteNotFound
		}
		return nil, fmt.Errorf("failed to get quote: %w", err)
	}

	now := time.Now()
	effective := quote.EffectiveStatus(now)

	if !req.Target.IsValid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTransition, req.Target)
	}

	if !domain.CanTransition(effective, req.Target) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, effective, req.Target)
	}

	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	// Re-sending resets the validity window so the quote does not come back
	// already expired.
	if req.Target == domain.QuoteStatusSent {
		quote.ValidityDate = now.AddDate(0, 0, s.validityDays)
	}

	history := &domain.QuoteStatusHistory{
		QuoteID:        quote.ID,
		PreviousStatus: effective,
		NewStatus:      req.Target,
		ChangedByID:    userCtx.UserID,
		ChangedByName:  userCtx.DisplayName,
		Note:           req.Note,
		ChangedAt:      now,
	}

	if err := s.quoteRepo.TransitionStatusWithValidity(ctx, quote.ID, req.Target, quote.ValidityDate, history); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuoteNotFound
		}
		return nil, fmt.Errorf("failed to transition quote: %w", err)
	}

	s.logger.Info("quote status changed",
		zap.String("quoteID", quote.ID.String()),
		zap.String("number", quote.Number),
		zap.String("from", string(effective)),
		zap.String("to", string(req.Target)),
		zap.String("changedBy", userCtx.UserID))

	quote, err = s.quoteRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload quote after transition: %w", err)
	}

	dto := mapper.ToQuoteDTO(quote, time.Now())
	return &dto, nil
}

// AllowedTransitions returns the statuses the quote can move to right now,
// evaluated against its effective status.
func (s *QuoteService) AllowedTransitions(ctx context.Context, id uuid.UUID) (domain.QuoteStatus, []domain.QuoteStatus, error) {
	quote, err := s.quoteRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, ErrQuoteNotFound
		}
		return "", nil, fmt.Errorf("failed to get quote: %w", err)
	}

	effective := quote.EffectiveStatus(time.Now())
	return effective, domain.AllowedTransitions(effective), nil
}

// GetStatusHistory returns the append-only transition trail, most recent first
func (s *QuoteService) GetStatusHistory(ctx context.Context, id uuid.UUID) ([]domain.QuoteStatusHistoryDTO, error) {
	if _, err := s.quoteRepo.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuoteNotFound
		}
		return nil, fmt.Errorf("failed to get quote: %w", err)
	}

	history, err := s.historyRepo.GetByQuoteID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get status history: %w", err)
	}

	dtos := make([]domain.QuoteStatusHistoryDTO, len(history))
	for i := range history {
		dtos[i] = mapper.ToQuoteStatusHistoryDTO(&history[i])
	}
	return dtos, nil
}
