package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prflow/approval-api/internal/domain"
	"github.com/prflow/approval-api/internal/repository"
	"go.uber.org/zap"
)

// Dispatcher resolves recipients and sends workflow notifications.
// All sends are fire-and-forget: a failed delivery is logged and recorded but
// never propagates to the caller, so a lost email can never fail a
// transition.
type Dispatcher struct {
	sink        Sink
	accountRepo *repository.AccountRepository
	logRepo     *repository.NotificationLogRepository
	logger      *zap.Logger
	timeout     time.Duration
	fromName    string
}

// NewDispatcher creates a new Dispatcher
func NewDispatcher(
	sink Sink,
	accountRepo *repository.AccountRepository,
	logRepo *repository.NotificationLogRepository,
	logger *zap.Logger,
	timeout time.Duration,
	fromName string,
) *Dispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{
		sink:        sink,
		accountRepo: accountRepo,
		logRepo:     logRepo,
		logger:      logger,
		timeout:     timeout,
		fromName:    fromName,
	}
}

// RequestCreated notifies all active approvers and admins about a new request.
func (d *Dispatcher) RequestCreated(request *domain.Request) {
	go d.deliver(request.ID, domain.EventRequestCreated, func(ctx context.Context) (*Message, error) {
		recipients, err := d.approverEmails(ctx)
		if err != nil {
			return nil, err
		}
		return &Message{
			From:       d.fromName,
			Recipients: recipients,
			Subject:    fmt.Sprintf("New purchase request %s awaiting approval", request.RequestNumber),
			Body: fmt.Sprintf("%s submitted %q (%s) for a total of %.2f.",
				request.RequesterName, request.Title, request.RequestNumber, request.TotalAmount),
		}, nil
	})
}

// StatusChanged notifies the requester that their request moved to a new
// status.
func (d *Dispatcher) StatusChanged(request *domain.Request, to domain.RequestStatus, reason string) {
	go d.deliver(request.ID, domain.EventStatusChanged, func(ctx context.Context) (*Message, error) {
		recipient, err := d.requesterEmail(ctx, request)
		if err != nil {
			return nil, err
		}
		body := fmt.Sprintf("Your purchase request %s (%q) is now %s.",
			request.RequestNumber, request.Title, to)
		if reason != "" {
			body += " Reason: " + reason
		}
		return &Message{
			From:       d.fromName,
			Recipients: []string{recipient},
			Subject:    fmt.Sprintf("Purchase request %s: %s", request.RequestNumber, to),
			Body:       body,
		}, nil
	})
}

// PendingReminder re-notifies approvers about requests that have been
// waiting too long.
func (d *Dispatcher) PendingReminder(request *domain.Request, waitingSince time.Time) {
	go d.deliver(request.ID, domain.EventPendingReminder, func(ctx context.Context) (*Message, error) {
		recipients, err := d.approverEmails(ctx)
		if err != nil {
			return nil, err
		}
		return &Message{
			From:       d.fromName,
			Recipients: recipients,
			Subject:    fmt.Sprintf("Reminder: purchase request %s still pending", request.RequestNumber),
			Body: fmt.Sprintf("Request %q (%s) has been waiting for approval since %s.",
				request.Title, request.RequestNumber, waitingSince.Format("2006-01-02")),
		}, nil
	})
}

func (d *Dispatcher) approverEmails(ctx context.Context) ([]string, error) {
	accounts, err := d.accountRepo.ListActiveByRoles(ctx, domain.RoleApprover, domain.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve approver recipients: %w", err)
	}
	emails := make([]string, 0, len(accounts))
	for _, account := range accounts {
		if account.Email != "" {
			emails = append(emails, account.Email)
		}
	}
	if len(emails) == 0 {
		return nil, fmt.Errorf("no active approvers to notify")
	}
	return emails, nil
}

func (d *Dispatcher) requesterEmail(ctx context.Context, request *domain.Request) (string, error) {
	id, err := uuid.Parse(request.CreatedByID)
	if err != nil {
		return "", fmt.Errorf("request has no resolvable creator: %w", err)
	}
	account, err := d.accountRepo.GetByID(ctx, id)
	if err != nil {
		return "", fmt.Errorf("failed to resolve requester: %w", err)
	}
	if account.Email == "" {
		return "", fmt.Errorf("requester %s has no email", account.Username)
	}
	return account.Email, nil
}

// deliver builds and sends one message inside a bounded context, then
// records the attempt. Called on its own goroutine.
func (d *Dispatcher) deliver(requestID uuid.UUID, event domain.NotificationEvent, build func(context.Context) (*Message, error)) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	msg, err := build(ctx)
	if err != nil {
		d.logger.Warn("notification skipped",
			zap.String("event", string(event)),
			zap.String("request_id", requestID.String()),
			zap.Error(err),
		)
		d.record(ctx, requestID, event, nil, "", err)
		return
	}

	sendErr := d.sink.Send(ctx, msg)
	if sendErr != nil {
		d.logger.Warn("notification delivery failed",
			zap.String("event", string(event)),
			zap.String("request_id", requestID.String()),
			zap.Error(sendErr),
		)
	} else {
		d.logger.Debug("notification delivered",
			zap.String("event", string(event)),
			zap.String("request_id", requestID.String()),
			zap.Int("recipients", len(msg.Recipients)),
		)
	}
	d.record(ctx, requestID, event, msg.Recipients, msg.Subject, sendErr)
}

func (d *Dispatcher) record(ctx context.Context, requestID uuid.UUID, event domain.NotificationEvent, recipients []string, subject string, sendErr error) {
	if d.logRepo == nil {
		return
	}
	entry := &domain.NotificationLog{
		RequestID:  &requestID,
		Event:      event,
		Recipients: strings.Join(recipients, ","),
		Subject:    subject,
		Delivered:  sendErr == nil,
	}
	if sendErr != nil {
		entry.Error = sendErr.Error()
	}
	if err := d.logRepo.Create(ctx, entry); err != nil {
		d.logger.Warn("failed to record notification attempt", zap.Error(err))
	}
}
