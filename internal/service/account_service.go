package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prflow/approval-api/internal/auth"
	"github.com/prflow/approval-api/internal/domain"
	"github.com/prflow/approval-api/internal/mapper"
	"github.com/prflow/approval-api/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AccountService handles authentication and account management
type AccountService struct {
	accountRepo *repository.AccountRepository
	tokens      *auth.TokenIssuer
	logger      *zap.Logger
}

// NewAccountService creates a new AccountService
func NewAccountService(accountRepo *repository.AccountRepository, tokens *auth.TokenIssuer, logger *zap.Logger) *AccountService {
	return &AccountService{
		accountRepo: accountRepo,
		tokens:      tokens,
		logger:      logger,
	}
}

// Login verifies credentials and issues a session token. Unknown usernames
// and wrong passwords produce the same error.
func (s *AccountService) Login(ctx context.Context, payload *domain.LoginRequest) (*domain.LoginResponse, error) {
	account, err := s.accountRepo.GetByUsername(ctx, payload.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(payload.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !account.IsActive {
		return nil, ErrAccountDisabled
	}

	now := time.Now().UTC()
	if err := s.accountRepo.TouchLastLogin(ctx, account.ID, now); err != nil {
		s.logger.Warn("failed to record login time",
			zap.String("account_id", account.ID.String()),
			zap.Error(err),
		)
	}
	account.LastLoginAt = &now

	token, err := s.tokens.Issue(account)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	s.logger.Info("user logged in",
		zap.String("account_id", account.ID.String()),
		zap.String("username", account.Username),
	)

	return &domain.LoginResponse{
		Token:   token,
		Account: mapper.ToAccountDTO(account),
	}, nil
}

// Me returns the account of the authenticated caller
func (s *AccountService) Me(ctx context.Context) (*domain.AccountDTO, error) {
	user, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	account, err := s.accountRepo.GetByID(ctx, user.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	dto := mapper.ToAccountDTO(account)
	return &dto, nil
}

// UpdatePassword changes the caller's own password after verifying the
// current one
func (s *AccountService) UpdatePassword(ctx context.Context, payload *domain.UpdatePasswordRequest) error {
	user, ok := auth.FromContext(ctx)
	if !ok {
		return ErrUnauthorized
	}

	account, err := s.accountRepo.GetByID(ctx, user.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("failed to get account: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(payload.CurrentPassword)); err != nil {
		return ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(payload.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.accountRepo.UpdatePassword(ctx, account.ID, string(hash)); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	s.logger.Info("password changed", zap.String("account_id", account.ID.String()))
	return nil
}

// Create creates a new account. Admin only, enforced by middleware.
func (s *AccountService) Create(ctx context.Context, payload *domain.CreateAccountRequest) (*domain.AccountDTO, error) {
	if !payload.Role.IsValid() {
		return nil, fmt.Errorf("%w: invalid role %q", ErrInvalidInput, payload.Role)
	}

	if _, err := s.accountRepo.GetByUsername(ctx, payload.Username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(payload.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	account := &domain.Account{
		Username:     payload.Username,
		PasswordHash: string(hash),
		DisplayName:  payload.DisplayName,
		Email:        payload.Email,
		Department:   payload.Department,
		Role:         payload.Role,
		IsActive:     true,
	}

	if err := s.accountRepo.Create(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	s.logger.Info("account created",
		zap.String("account_id", account.ID.String()),
		zap.String("username", account.Username),
		zap.String("role", string(account.Role)),
	)

	dto := mapper.ToAccountDTO(account)
	return &dto, nil
}

// List returns all accounts
func (s *AccountService) List(ctx context.Context) ([]domain.AccountDTO, error) {
	accounts, err := s.accountRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	dtos := make([]domain.AccountDTO, len(accounts))
	for i := range accounts {
		dtos[i] = mapper.ToAccountDTO(&accounts[i])
	}
	return dtos, nil
}

// Update applies a partial update to an account. Admin only, enforced by
// middleware. Deactivating an account blocks future logins but leaves
// already issued tokens to expire on their own.
func (s *AccountService) Update(ctx context.Context, id uuid.UUID, payload *domain.UpdateAccountRequest) (*domain.AccountDTO, error) {
	if _, err := s.accountRepo.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	updates := map[string]interface{}{}
	if payload.DisplayName != "" {
		updates["display_name"] = payload.DisplayName
	}
	if payload.Email != "" {
		updates["email"] = payload.Email
	}
	if payload.Department != "" {
		updates["department"] = payload.Department
	}
	if payload.Role != "" {
		if !payload.Role.IsValid() {
			return nil, fmt.Errorf("%w: invalid role %q", ErrInvalidInput, payload.Role)
		}
		updates["role"] = payload.Role
	}
	if payload.IsActive != nil {
		updates["is_active"] = *payload.IsActive
	}

	if len(updates) > 0 {
		if err := s.accountRepo.Update(ctx, id, updates); err != nil {
			return nil, fmt.Errorf("failed to update account: %w", err)
		}
	}

	account, err := s.accountRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload account: %w", err)
	}

	dto := mapper.ToAccountDTO(account)
	return &dto, nil
}

// ResetPassword sets a new password for another account. Admin only,
// enforced by middleware.
func (s *AccountService) ResetPassword(ctx context.Context, id uuid.UUID, payload *domain.ResetPasswordRequest) error {
	if _, err := s.accountRepo.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("failed to get account: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(payload.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.accountRepo.UpdatePassword(ctx, id, string(hash)); err != nil {
		return fmt.Errorf("failed to reset password: %w", err)
	}

	s.logger.Info("password reset", zap.String("account_id", id.String()))
	return nil
}

// EnsureDefaultAdmin seeds an admin account when the accounts table is
// empty, so a fresh deployment can be logged into.
func (s *AccountService) EnsureDefaultAdmin(ctx context.Context, username, password string) error {
	count, err := s.accountRepo.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count accounts: %w", err)
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	account := &domain.Account{
		Username:     username,
		PasswordHash: string(hash),
		DisplayName:  "Administrator",
		Email:        "",
		Role:         domain.RoleAdmin,
		IsActive:     true,
	}
	if err := s.accountRepo.Create(ctx, account); err != nil {
		return fmt.Errorf("failed to seed admin account: %w", err)
	}

	s.logger.Warn("seeded default admin account, change its password immediately",
		zap.String("username", username),
	)
	return nil
}
