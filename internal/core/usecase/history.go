package usecase

import (
	"context"
	"fmt"

	"github.com/chattydoc/chattydoc/internal/core/domain"
	"github.com/chattydoc/chattydoc/internal/core/ports"
)

const maxHistoryLimit = 100

// HistoryUseCase reads answer history written by the worker.
type HistoryUseCase struct {
	repo ports.HistoryRepository
}

func NewHistoryUseCase(repo ports.HistoryRepository) *HistoryUseCase {
	return &HistoryUseCase{repo: repo}
}

func (uc *HistoryUseCase) ListRecentAnswers(ctx context.Context, limit int) ([]domain.AnswerRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	records, err := uc.repo.ListRecentAnswers(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent answers: %w", err)
	}
	return records, nil
}

var _ ports.HistoryReader = (*HistoryUseCase)(nil)
