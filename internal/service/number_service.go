package service

import (
	"context"
	"fmt"
	"time"

	"github.com/prflow/approval-api/internal/repository"
)

// RequestNumberService generates sequential request numbers of the form
// PR-YYMM-NNNN. The sequence resets each month.
type RequestNumberService struct {
	sequenceRepo *repository.NumberSequenceRepository
}

// NewRequestNumberService creates a new RequestNumberService
func NewRequestNumberService(sequenceRepo *repository.NumberSequenceRepository) *RequestNumberService {
	return &RequestNumberService{sequenceRepo: sequenceRepo}
}

// Generate issues the next request number for the period containing at.
func (s *RequestNumberService) Generate(ctx context.Context, at time.Time) (string, error) {
	period := at.UTC().Format("0601")
	seq, err := s.sequenceRepo.Next(ctx, period)
	if err != nil {
		return "", fmt.Errorf("failed to generate request number: %w", err)
	}
	return fmt.Sprintf("PR-%s-%04d", period, seq), nil
}
