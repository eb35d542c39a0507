package mapper

import (
	"time"

	"github.com/prflow/approval-api/internal/domain"
)

const timeLayout = "2006-01-02T15:04:05Z"

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(timeLayout)
	return &s
}

// ToRequestDTO converts Request to RequestDTO
func ToRequestDTO(request *domain.Request) domain.RequestDTO {
	items := make([]domain.RequestItemDTO, len(request.Items))
	for i := range request.Items {
		items[i] = ToRequestItemDTO(&request.Items[i])
	}

	documents := []domain.DocumentDTO{}
	for _, slot := range []domain.DocumentSlot{domain.SlotQuotation, domain.SlotSignedQuotation} {
		if request.HasDocument(slot) {
			_, name := request.DocumentPath(slot)
			documents = append(documents, domain.DocumentDTO{Slot: slot, Filename: name})
		}
	}

	return domain.RequestDTO{
		ID:              request.ID,
		RequestNumber:   request.RequestNumber,
		Title:           request.Title,
		Description:     request.Description,
		Department:      request.Department,
		RequesterName:   request.RequesterName,
		CreatedByID:     request.CreatedByID,
		Status:          request.Status,
		TotalAmount:     request.TotalAmount,
		Items:           items,
		Documents:       documents,
		RejectionReason: request.RejectionReason,
		ApprovedAt:      formatTimePtr(request.ApprovedAt),
		OrderedAt:       formatTimePtr(request.OrderedAt),
		CompletedAt:     formatTimePtr(request.CompletedAt),
		CancelledAt:     formatTimePtr(request.CancelledAt),
		CreatedAt:       request.CreatedAt.Format(timeLayout),
		UpdatedAt:       request.UpdatedAt.Format(timeLayout),
	}
}

// ToRequestItemDTO converts RequestItem to RequestItemDTO
func ToRequestItemDTO(item *domain.RequestItem) domain.RequestItemDTO {
	return domain.RequestItemDTO{
		ID:             item.ID,
		Name:           item.Name,
		Quantity:       item.Quantity,
		Unit:           item.Unit,
		EstimatedPrice: item.EstimatedPrice,
		LineTotal:      item.LineTotal(),
		Note:           item.Note,
	}
}

// ToAccountDTO converts Account to AccountDTO. The password hash never
// leaves the service layer.
func ToAccountDTO(account *domain.Account) domain.AccountDTO {
	return domain.AccountDTO{
		ID:          account.ID,
		Username:    account.Username,
		DisplayName: account.DisplayName,
		Email:       account.Email,
		Department:  account.Department,
		Role:        account.Role,
		IsActive:    account.IsActive,
		LastLoginAt: formatTimePtr(account.LastLoginAt),
		CreatedAt:   account.CreatedAt.Format(timeLayout),
	}
}

// ToRequestListDTO wraps a page of requests with paging metadata
func ToRequestListDTO(requests []domain.Request, total int64, page, pageSize int) domain.RequestListDTO {
	dtos := make([]domain.RequestDTO, len(requests))
	for i := range requests {
		dtos[i] = ToRequestDTO(&requests[i])
	}
	return domain.RequestListDTO{
		Requests: dtos,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}
}
