package wompbot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/lmittmann/tint"
)

// NotificationSink posts a reminder notification into a channel,
// referencing the originating message where possible. [Discord]
// implements this against the Discord REST API.
type NotificationSink interface {
	Notify(
		ctx context.Context,
		channelID string,
		content string,
		reference *discordgo.MessageReference,
	) error
}

// ReminderWorker periodically delivers due reminders and reschedules
// recurring ones.
type ReminderWorker struct {
	db           DBI
	sink         NotificationSink
	logger       *slog.Logger
	pollInterval time.Duration

	// now returns the current time in the configured zone; all time
	// expression arithmetic happens in that zone
	now func() time.Time
}

func newReminderWorker(
	db DBI,
	sink NotificationSink,
	logger *slog.Logger,
	pollInterval time.Duration,
	now func() time.Time,
) *ReminderWorker {
	if logger == nil {
		logger = slog.Default()
	}
	if now == nil {
		now = time.Now
	}
	if pollInterval <= 0 {
		pollInterval = DefaultReminderPollInterval
	}
	return &ReminderWorker{
		db:           db,
		sink:         sink,
		logger:       logger.With(loggerNameKey, "reminder_worker"),
		pollInterval: pollInterval,
		now:          now,
	}
}

// Run polls for due reminders on a fixed interval until the context is
// cancelled.
func (w *ReminderWorker) Run(ctx context.Context) {
	w.logger.InfoContext(
		ctx,
		"starting reminder worker",
		"poll_interval", w.pollInterval,
	)
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.InfoContext(ctx, "reminder worker stopping")
			return
		case <-ticker.C:
			w.deliverDueReminders(ctx)
		}
	}
}

// deliverDueReminders runs one delivery cycle: fetch incomplete reminders
// whose due time has arrived (earliest first), deliver each, and mark
// each completed. A fetch error abandons the cycle - the reminders stay
// due and are retried on the next tick. A delivery failure does not:
// delivery is at-most-once, so the reminder is marked completed whether
// or not the notification went out.
func (w *ReminderWorker) deliverDueReminders(ctx context.Context) {
	now := w.now()
	due, err := getDueReminders(w.db.DB(), now)
	if err != nil {
		w.logger.ErrorContext(ctx, "error fetching due reminders", tint.Err(err))
		return
	}
	if len(due) == 0 {
		return
	}
	w.logger.InfoContext(ctx, "found due reminders", "count", len(due))

	for i := range due {
		reminder := &due[i]
		logger := w.logger.With("reminder", reminder)

		if deliverErr := w.deliver(ctx, reminder); deliverErr != nil {
			logger.ErrorContext(
				ctx,
				"error delivering reminder",
				tint.Err(deliverErr),
			)
		}

		completedAt := w.now().UTC()
		if _, updateErr := w.db.Updates(
			ctx,
			reminder,
			map[string]any{
				columnReminderCompleted:   true,
				columnReminderCompletedAt: &completedAt,
			},
		); updateErr != nil {
			logger.ErrorContext(
				ctx,
				"error marking reminder completed",
				tint.Err(updateErr),
			)
			continue
		}

		if reminder.Recurring {
			w.scheduleNextOccurrence(ctx, reminder)
		}
	}
}

// deliver posts the reminder notification, replying to the originating
// message when one is recorded.
func (w *ReminderWorker) deliver(ctx context.Context, r *Reminder) error {
	content := fmt.Sprintf("<@%s> Reminder: %s", r.UserID, r.Body)
	if len(content) > discordMaxMessageLength {
		content = shortenString(content, discordMaxMessageLength)
	}

	var reference *discordgo.MessageReference
	if r.MessageID != "" {
		reference = &discordgo.MessageReference{
			MessageID: r.MessageID,
			ChannelID: r.ChannelID,
		}
	}
	return w.sink.Notify(ctx, r.ChannelID, content, reference)
}

// scheduleNextOccurrence re-parses the recurrence expression against the
// current time (not the original due time, so the cadence drifts by
// however late this cycle ran) and inserts a fresh reminder row. If the
// expression no longer parses, the recurrence silently stops.
func (w *ReminderWorker) scheduleNextOccurrence(
	ctx context.Context,
	r *Reminder,
) {
	logger := w.logger.With("reminder", r)

	nextDue, ok := ParseTimeExpression(r.RecurrenceExpression, w.now())
	if !ok {
		logger.WarnContext(
			ctx,
			"recurrence expression no longer parses, stopping recurrence",
			"recurrence_expression", r.RecurrenceExpression,
		)
		return
	}

	next := &Reminder{
		UserID:               r.UserID,
		Username:             r.Username,
		ChannelID:            r.ChannelID,
		MessageID:            r.MessageID,
		Body:                 r.Body,
		TimeExpression:       r.TimeExpression,
		DueAt:                nextDue.UnixMilli(),
		Recurring:            true,
		RecurrenceExpression: r.RecurrenceExpression,
	}
	if _, err := w.db.Create(ctx, next); err != nil {
		logger.ErrorContext(
			ctx,
			"error scheduling next reminder occurrence",
			tint.Err(err),
		)
		return
	}
	logger.InfoContext(ctx, "scheduled next occurrence", "next", next)
}
