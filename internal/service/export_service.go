package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/prflow/approval-api/internal/auth"
	"github.com/prflow/approval-api/internal/repository"
	"go.uber.org/zap"
)

// utf8BOM makes spreadsheet applications detect the encoding correctly
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

const exportTimeLayout = "2006-01-02 15:04:05"

// ExportService writes request listings as CSV
type ExportService struct {
	requestRepo *repository.RequestRepository
	logger      *zap.Logger
}

// NewExportService creates a new ExportService
func NewExportService(requestRepo *repository.RequestRepository, logger *zap.Logger) *ExportService {
	return &ExportService{
		requestRepo: requestRepo,
		logger:      logger,
	}
}

// ExportCSV streams requests matching the filter as CSV. Each request
// produces a summary row followed by one row per line item. The same
// visibility rule as listings applies: regular users only export their own
// requests.
func (s *ExportService) ExportCSV(ctx context.Context, filter repository.RequestFilter, w io.Writer) error {
	user, ok := auth.FromContext(ctx)
	if !ok {
		return ErrUnauthorized
	}
	if !user.CanViewAll() {
		filter.CreatedByID = user.AccountID()
	}

	// Export is unpaged
	filter.Page = 0
	filter.PageSize = 0

	requests, _, err := s.requestRepo.List(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to list requests for export: %w", err)
	}

	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}

	writer := csv.NewWriter(w)
	header := []string{
		"request_number", "title", "status", "requester", "department",
		"total_amount", "created_at", "approved_at",
		"item_name", "quantity", "unit", "estimated_price", "line_total",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}

	for i := range requests {
		request := &requests[i]

		approvedAt := ""
		if request.ApprovedAt != nil {
			approvedAt = request.ApprovedAt.Format(exportTimeLayout)
		}

		summary := []string{
			request.RequestNumber,
			request.Title,
			string(request.Status),
			request.RequesterName,
			request.Department,
			formatAmount(request.TotalAmount),
			request.CreatedAt.Format(exportTimeLayout),
			approvedAt,
			"", "", "", "", "",
		}
		if err := writer.Write(summary); err != nil {
			return fmt.Errorf("failed to write export: %w", err)
		}

		for j := range request.Items {
			item := &request.Items[j]
			detail := []string{
				request.RequestNumber,
				"", "", "", "", "", "", "",
				item.Name,
				strconv.Itoa(item.Quantity),
				item.Unit,
				formatAmount(item.EstimatedPrice),
				formatAmount(item.LineTotal()),
			}
			if err := writer.Write(detail); err != nil {
				return fmt.Errorf("failed to write export: %w", err)
			}
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush export: %w", err)
	}

	s.logger.Info("requests exported",
		zap.Int("requests", len(requests)),
		zap.String("exported_by", user.Username),
	)
	return nil
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
