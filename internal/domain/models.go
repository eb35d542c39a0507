package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// BeforeCreate assigns an ID when the database does not (sqlite has no
// gen_random_uuid()).
func (m *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// RequestStatus represents the lifecycle status of a purchase request
type RequestStatus string

const (
	StatusPending   RequestStatus = "pending"
	StatusApproved  RequestStatus = "approved"
	StatusRejected  RequestStatus = "rejected"
	StatusOrdered   RequestStatus = "ordered"
	StatusCompleted RequestStatus = "completed"
	StatusCancelled RequestStatus = "cancelled"
)

// IsValid checks if the RequestStatus is a valid enum value
func (s RequestStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusOrdered, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions leave this status.
func (s RequestStatus) IsTerminal() bool {
	switch s {
	case StatusRejected, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Role represents an account's role in the approval workflow
type Role string

const (
	RoleUser     Role = "user"
	RoleApprover Role = "approver"
	RoleAdmin    Role = "admin"
)

// IsValid checks if the Role is a valid enum value
func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleApprover, RoleAdmin:
		return true
	}
	return false
}

// CanViewAll reports whether the role sees requests from all requesters.
func (r Role) CanViewAll() bool {
	return r == RoleApprover || r == RoleAdmin
}

// DocumentSlot identifies one of the fill-once document attachments on a request
type DocumentSlot string

const (
	SlotQuotation       DocumentSlot = "quotation"
	SlotSignedQuotation DocumentSlot = "signed_quotation"
)

// IsValid checks if the DocumentSlot is a valid enum value
func (s DocumentSlot) IsValid() bool {
	switch s {
	case SlotQuotation, SlotSignedQuotation:
		return true
	}
	return false
}

// Request represents a purchase request moving through the approval workflow
type Request struct {
	BaseModel
	RequestNumber string        `gorm:"type:varchar(50);not null;unique;index;column:request_number"`
	Title         string        `gorm:"type:varchar(200);not null;index"`
	Description   string        `gorm:"type:text"`
	Department    string        `gorm:"type:varchar(100)"`
	RequesterName string        `gorm:"type:varchar(200);not null;column:requester_name"`
	CreatedByID   string        `gorm:"type:varchar(100);not null;index;column:created_by_id"`
	Status        RequestStatus `gorm:"type:varchar(50);not null;default:'pending';index"`
	TotalAmount   float64       `gorm:"type:decimal(15,2);not null;default:0;column:total_amount"`
	Items         []RequestItem `gorm:"foreignKey:RequestID;constraint:OnDelete:CASCADE"`

	QuotationPath       string `gorm:"type:varchar(500);column:quotation_path"`
	QuotationName       string `gorm:"type:varchar(255);column:quotation_name"`
	SignedQuotationPath string `gorm:"type:varchar(500);column:signed_quotation_path"`
	SignedQuotationName string `gorm:"type:varchar(255);column:signed_quotation_name"`

	RejectionReason string     `gorm:"type:varchar(500);column:rejection_reason"`
	ApprovedAt      *time.Time `gorm:"column:approved_at"`
	OrderedAt       *time.Time `gorm:"column:ordered_at"`
	CompletedAt     *time.Time `gorm:"column:completed_at"`
	CancelledAt     *time.Time `gorm:"column:cancelled_at"`
}

// ComputeTotal returns the sum of quantity * estimated price over all items.
func (r *Request) ComputeTotal() float64 {
	var total float64
	for _, item := range r.Items {
		total += float64(item.Quantity) * item.EstimatedPrice
	}
	return total
}

// HasDocument reports whether the given slot is filled.
func (r *Request) HasDocument(slot DocumentSlot) bool {
	switch slot {
	case SlotQuotation:
		return r.QuotationPath != ""
	case SlotSignedQuotation:
		return r.SignedQuotationPath != ""
	}
	return false
}

// DocumentPath returns the storage path and original filename for a slot.
func (r *Request) DocumentPath(slot DocumentSlot) (path, name string) {
	switch slot {
	case SlotQuotation:
		return r.QuotationPath, r.QuotationName
	case SlotSignedQuotation:
		return r.SignedQuotationPath, r.SignedQuotationName
	}
	return "", ""
}

// IsOwnedBy reports whether the request was created by the given account.
func (r *Request) IsOwnedBy(accountID string) bool {
	return r.CreatedByID == accountID
}

// RequestItem represents a line item in a purchase request
type RequestItem struct {
	BaseModel
	RequestID      uuid.UUID `gorm:"type:uuid;not null;index;column:request_id"`
	Name           string    `gorm:"type:varchar(200);not null"`
	Quantity       int       `gorm:"not null;default:1"`
	Unit           string    `gorm:"type:varchar(50)"`
	EstimatedPrice float64   `gorm:"type:decimal(15,2);not null;default:0;column:estimated_price"`
	Note           string    `gorm:"type:varchar(500)"`
	DisplayOrder   int       `gorm:"not null;default:0;column:display_order"`
}

// LineTotal returns quantity * estimated price for this item.
func (i *RequestItem) LineTotal() float64 {
	return float64(i.Quantity) * i.EstimatedPrice
}

// Account represents a workflow participant
type Account struct {
	BaseModel
	Username     string     `gorm:"type:varchar(100);not null;unique;index"`
	PasswordHash string     `gorm:"type:varchar(200);not null;column:password_hash"`
	DisplayName  string     `gorm:"type:varchar(200);not null;column:display_name"`
	Email        string     `gorm:"type:varchar(255);not null"`
	Department   string     `gorm:"type:varchar(100)"`
	Role         Role       `gorm:"type:varchar(50);not null;default:'user';index"`
	IsActive     bool       `gorm:"not null;default:true;column:is_active"`
	LastLoginAt  *time.Time `gorm:"column:last_login_at"`
}

// NumberSequence tracks the last issued request number per period (YYMM)
type NumberSequence struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Period       string    `gorm:"type:varchar(4);not null;uniqueIndex"`
	LastSequence int       `gorm:"not null;default:0;column:last_sequence"`
	CreatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// BeforeCreate assigns an ID when the database does not.
func (n *NumberSequence) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

// NotificationEvent classifies what triggered a notification
type NotificationEvent string

const (
	EventRequestCreated  NotificationEvent = "request_created"
	EventStatusChanged   NotificationEvent = "status_changed"
	EventPendingReminder NotificationEvent = "pending_reminder"
)

// NotificationLog records a delivery attempt to the notification sink
type NotificationLog struct {
	BaseModel
	RequestID  *uuid.UUID        `gorm:"type:uuid;index;column:request_id"`
	Event      NotificationEvent `gorm:"type:varchar(50);not null"`
	Recipients string            `gorm:"type:varchar(2000);not null"`
	Subject    string            `gorm:"type:varchar(500);not null"`
	Delivered  bool              `gorm:"not null;default:false"`
	Error      string            `gorm:"type:varchar(1000)"`
}
