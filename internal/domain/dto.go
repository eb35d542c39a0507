package domain

import (
	"github.com/google/uuid"
)

// DTOs for API responses

type RequestDTO struct {
	ID              uuid.UUID        `json:"id"`
	RequestNumber   string           `json:"requestNumber"`
	Title           string           `json:"title"`
	Description     string           `json:"description,omitempty"`
	Department      string           `json:"department,omitempty"`
	RequesterName   string           `json:"requesterName"`
	CreatedByID     string           `json:"createdById"`
	Status          RequestStatus    `json:"status"`
	TotalAmount     float64          `json:"totalAmount"`
	Items           []RequestItemDTO `json:"items"`
	Documents       []DocumentDTO    `json:"documents"`
	RejectionReason string           `json:"rejectionReason,omitempty"`
	ApprovedAt      *string          `json:"approvedAt,omitempty"` // ISO 8601
	OrderedAt       *string          `json:"orderedAt,omitempty"`
	CompletedAt     *string          `json:"completedAt,omitempty"`
	CancelledAt     *string          `json:"cancelledAt,omitempty"`
	CreatedAt       string           `json:"createdAt"`
	UpdatedAt       string           `json:"updatedAt"`
}

type RequestItemDTO struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Quantity       int       `json:"quantity"`
	Unit           string    `json:"unit,omitempty"`
	EstimatedPrice float64   `json:"estimatedPrice"`
	LineTotal      float64   `json:"lineTotal"`
	Note           string    `json:"note,omitempty"`
}

// DocumentDTO describes a filled document slot
type DocumentDTO struct {
	Slot     DocumentSlot `json:"slot"`
	Filename string       `json:"filename"`
}

type AccountDTO struct {
	ID          uuid.UUID `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"displayName"`
	Email       string    `json:"email"`
	Department  string    `json:"department,omitempty"`
	Role        Role      `json:"role"`
	IsActive    bool      `json:"isActive"`
	LastLoginAt *string   `json:"lastLoginAt,omitempty"` // ISO 8601
	CreatedAt   string    `json:"createdAt"`
}

// RequestListDTO wraps a page of requests
type RequestListDTO struct {
	Requests []RequestDTO `json:"requests"`
	Total    int64        `json:"total"`
	Page     int          `json:"page"`
	PageSize int          `json:"pageSize"`
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}

// Request payloads

type CreateRequestRequest struct {
	Title       string                     `json:"title" validate:"required,max=200"`
	Description string                     `json:"description,omitempty" validate:"max=2000"`
	Department  string                     `json:"department,omitempty" validate:"max=100"`
	Items       []CreateRequestItemRequest `json:"items" validate:"required,min=1,dive"`
}

type CreateRequestItemRequest struct {
	Name           string  `json:"name" validate:"required,max=200"`
	Quantity       int     `json:"quantity" validate:"required,gte=1"`
	Unit           string  `json:"unit,omitempty" validate:"max=50"`
	EstimatedPrice float64 `json:"estimatedPrice" validate:"gte=0"`
	Note           string  `json:"note,omitempty" validate:"max=500"`
}

// UpdateRequestItemsRequest replaces the line items of a pending request
type UpdateRequestItemsRequest struct {
	Items []CreateRequestItemRequest `json:"items" validate:"required,min=1,dive"`
}

// ApproveRequestRequest optionally carries a drawn signature to stamp onto
// the quotation. The image is a base64-encoded PNG.
type ApproveRequestRequest struct {
	SignatureImage string `json:"signatureImage,omitempty"`
}

type RejectRequestRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// Auth payloads

type LoginRequest struct {
	Username string `json:"username" validate:"required,max=100"`
	Password string `json:"password" validate:"required,max=200"`
}

type LoginResponse struct {
	Token   string     `json:"token"`
	Account AccountDTO `json:"account"`
}

type UpdatePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8,max=200"`
}

// Account management payloads (admin)

type CreateAccountRequest struct {
	Username    string `json:"username" validate:"required,max=100"`
	Password    string `json:"password" validate:"required,min=8,max=200"`
	DisplayName string `json:"displayName" validate:"required,max=200"`
	Email       string `json:"email" validate:"required,email"`
	Department  string `json:"department,omitempty" validate:"max=100"`
	Role        Role   `json:"role" validate:"required"`
}

type UpdateAccountRequest struct {
	DisplayName string `json:"displayName,omitempty" validate:"max=200"`
	Email       string `json:"email,omitempty" validate:"omitempty,email"`
	Department  string `json:"department,omitempty" validate:"max=100"`
	Role        Role   `json:"role,omitempty"`
	IsActive    *bool  `json:"isActive,omitempty"`
}

type ResetPasswordRequest struct {
	NewPassword string `json:"newPassword" validate:"required,min=8,max=200"`
}
