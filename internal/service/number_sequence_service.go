package service

import (
	"context"
	"fmt"
	"time"

	"github.com/medisupply/devis-api/internal/repository"
	"go.uber.org/zap"
)

// NumberSequenceService generates unique, formatted quote numbers. Sequences
// restart at 1 each month.
//
// Format: DEV-{YYYYMM}-{SEQUENCE}
// Example: DEV-202608-0001, DEV-202609-0042
type NumberSequenceService struct {
	repo   *repository.NumberSequenceRepository
	logger *zap.Logger
}

// NewNumberSequenceService creates a new NumberSequenceService
func NewNumberSequenceService(
	repo *repository.NumberSequenceRepository,
	logger *zap.Logger,
) *NumberSequenceService {
	return &NumberSequenceService{
		repo:   repo,
		logger: logger,
	}
}

// GenerateQuoteNumber generates a unique quote number for the current month.
// The underlying increment runs under a row lock, so concurrent creators get
// distinct numbers.
func (s *NumberSequenceService) GenerateQuoteNumber(ctx context.Context) (string, error) {
	bucket := time.Now().Format("200601")

	nextSeq, err := s.repo.GetNextNumber(ctx, bucket)
	if err != nil {
		s.logger.Error("failed to get next sequence number",
			zap.String("bucket", bucket),
			zap.Error(err))
		return "", fmt.Errorf("failed to generate quote number: %w", err)
	}

	number := fmt.Sprintf("DEV-%s-%04d", bucket, nextSeq)

	s.logger.Info("generated quote number",
		zap.String("number", number),
		zap.String("bucket", bucket),
		zap.Int("sequence", nextSeq))

	return number, nil
}
