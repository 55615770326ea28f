package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/repairflow/workorder-service/internal/notify"
	"github.com/repairflow/workorder-service/internal/repository"
	"github.com/repairflow/workorder-service/internal/service"
)

// reminderHour is the local hour at which day-before reminders go out.
const reminderHour = 18

// ReminderWorker sends each customer a reminder the evening before a
// confirmed visit.
type ReminderWorker struct {
	tickets       repository.TicketRepository
	notifications *service.NotificationService
	logger        *zap.Logger
	now           func() time.Time
}

// NewReminderWorker constructs the worker.
func NewReminderWorker(tickets repository.TicketRepository, notifications *service.NotificationService, logger *zap.Logger, now func() time.Time) *ReminderWorker {
	if now == nil {
		now = time.Now
	}
	return &ReminderWorker{
		tickets:       tickets,
		notifications: notifications,
		logger:        logger,
		now:           now,
	}
}

// Run ticks hourly and sweeps once a day at reminderHour.
func (w *ReminderWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	var lastSweep string
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("reminder worker stopped")
			return
		case <-ticker.C:
			now := w.now()
			today := now.Format("2006-01-02")
			if now.Hour() < reminderHour || lastSweep == today {
				continue
			}
			w.Sweep(ctx)
			lastSweep = today
		}
	}
}

// Sweep enqueues reminders for every visit confirmed for tomorrow.
func (w *ReminderWorker) Sweep(ctx context.Context) {
	tomorrow := w.now().AddDate(0, 0, 1).Format("2006-01-02")
	tickets, err := w.tickets.ListConfirmedOn(ctx, tomorrow)
	if err != nil {
		w.logger.Warn("reminder sweep failed", zap.Error(err))
		return
	}
	for i := range tickets {
		ticket := &tickets[i]
		if ticket.CustomerChannelID == "" {
			continue
		}
		w.notifications.Enqueue(ctx, notify.Message{
			To:   ticket.CustomerChannelID,
			Text: service.ReminderFor(ticket),
		})
	}
	if len(tickets) > 0 {
		w.logger.Info("reminder sweep done",
			zap.String("date", tomorrow), zap.Int("tickets", len(tickets)))
	}
}
