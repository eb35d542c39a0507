package jobs

import (
	"context"
	"time"

	"github.com/prflow/approval-api/internal/notify"
	"github.com/prflow/approval-api/internal/repository"
	"go.uber.org/zap"
)

// PendingReminderJobName is the name of the pending request reminder job
const PendingReminderJobName = "pending_reminder"

// defaultJobTimeout bounds one reminder run
const defaultJobTimeout = 2 * time.Minute

// PendingReminderJob re-notifies approvers about requests that have been
// sitting in the pending status for too long.
type PendingReminderJob struct {
	requestRepo *repository.RequestRepository
	dispatcher  *notify.Dispatcher
	logger      *zap.Logger
	olderThan   time.Duration
}

// NewPendingReminderJob creates a new pending reminder job. olderThan is how
// long a request must have been pending before it is included.
func NewPendingReminderJob(
	requestRepo *repository.RequestRepository,
	dispatcher *notify.Dispatcher,
	logger *zap.Logger,
	olderThan time.Duration,
) *PendingReminderJob {
	return &PendingReminderJob{
		requestRepo: requestRepo,
		dispatcher:  dispatcher,
		logger:      logger,
		olderThan:   olderThan,
	}
}

// Run executes one reminder pass. Called by the scheduler according to the
// cron expression.
func (j *PendingReminderJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), defaultJobTimeout)
	defer cancel()

	cutoff := time.Now().UTC().Add(-j.olderThan)
	stale, err := j.requestRepo.ListPendingOlderThan(ctx, cutoff)
	if err != nil {
		j.logger.Error("failed to list stale pending requests", zap.Error(err))
		return
	}
	if len(stale) == 0 {
		return
	}

	for i := range stale {
		request := stale[i]
		j.dispatcher.PendingReminder(&request, request.CreatedAt)
	}

	j.logger.Info("pending request reminders dispatched",
		zap.Int("requests", len(stale)),
		zap.Time("cutoff", cutoff),
	)
}

// RegisterPendingReminderJob wires the reminder job into the scheduler.
func RegisterPendingReminderJob(
	scheduler *Scheduler,
	requestRepo *repository.RequestRepository,
	dispatcher *notify.Dispatcher,
	logger *zap.Logger,
	cronExpr string,
	afterDays int,
) error {
	olderThan := time.Duration(afterDays) * 24 * time.Hour
	job := NewPendingReminderJob(requestRepo, dispatcher, logger, olderThan)
	return scheduler.AddJob(PendingReminderJobName, cronExpr, job.Run)
}
