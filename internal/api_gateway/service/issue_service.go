package service

import (
	"context"
	"log/slog"

	"github.com/shop-backoffice-ledger/internal/domain/reconciliation"
)

// IssueServiceImpl implements the IssueService interface
type IssueServiceImpl struct {
	issueRepo reconciliation.Repository
	logger    *slog.Logger
}

// NewIssueService creates a new reconciliation issue service
func NewIssueService(logger *slog.Logger, issueRepo reconciliation.Repository) IssueService {
	return &IssueServiceImpl{
		issueRepo: issueRepo,
		logger:    logger,
	}
}

func (s *IssueServiceImpl) ListOpenIssues(ctx context.Context, page, perPage int) ([]*reconciliation.Issue, int64, error) {
	offset := (page - 1) * perPage

	issues, err := s.issueRepo.ListOpen(ctx, perPage, offset)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.issueRepo.CountOpen(ctx)
	if err != nil {
		return nil, 0, err
	}

	return issues, total, nil
}
