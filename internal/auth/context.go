package auth

import (
	"context"

	"github.com/google/uuid"
	"github.com/prflow/approval-api/internal/domain"
)

// UserContext holds authenticated user information
type UserContext struct {
	UserID      uuid.UUID
	Username    string
	DisplayName string
	Email       string
	Department  string
	Role        domain.Role
}

type contextKey string

const userContextKey contextKey = "userContext"

// WithUserContext adds user context to the context
func WithUserContext(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// FromContext extracts user context from the context
func FromContext(ctx context.Context) (*UserContext, bool) {
	user, ok := ctx.Value(userContextKey).(*UserContext)
	return user, ok
}

// MustFromContext extracts user context or panics
func MustFromContext(ctx context.Context) *UserContext {
	user, ok := FromContext(ctx)
	if !ok {
		panic("user context not found in context")
	}
	return user
}

// IsAdmin checks if the user has the admin role
func (u *UserContext) IsAdmin() bool {
	return u.Role == domain.RoleAdmin
}

// CanViewAll reports whether the user sees requests from all requesters.
// Regular users only see their own.
func (u *UserContext) CanViewAll() bool {
	return u.Role.CanViewAll()
}

// AccountID returns the user's ID in the string form stored on requests.
func (u *UserContext) AccountID() string {
	return u.UserID.String()
}
