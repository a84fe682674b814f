package wompbot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/lmittmann/tint"
)

const (
	RemindCommandStateReceived  RemindCommandState = "received"
	RemindCommandStateFailed    RemindCommandState = "failed"
	RemindCommandStateCompleted RemindCommandState = "completed"
	RemindCommandStateRejected  RemindCommandState = "rejected"
	RemindCommandStateIgnored   RemindCommandState = "ignored"
)

var (
	// remindResponseBadExpression is sent when no pattern family
	// recognizes the 'when' expression.
	remindResponseBadExpression = "Sorry, I don't understand that time. " +
		`Try something like "in 2 hours", "tomorrow at 3pm", or "friday".`

	// remindResponsePastTime is sent when the expression parses, but
	// resolves to a time that isn't in the future.
	remindResponsePastTime = "That time has already passed!"

	// remindResponseLimitReached is sent when the user already has the
	// maximum number of pending reminders.
	remindResponseLimitReached = "You have too many pending reminders - " +
		"cancel one first with `/remind cancel`."

	// remindResponseNotFound is sent when a cancel request matches no
	// pending reminder owned by the user.
	remindResponseNotFound = "I couldn't find that reminder - it may have " +
		"already fired, or it isn't yours."

	remindResponseNoPending = "You have no pending reminders."

	columnRemindCommandState      = "state"
	columnRemindCommandFinishedAt = "finished_at"
	columnRemindCommandResponse   = "response"
	columnRemindCommandError      = "error"
	columnRemindCommandStartedAt  = "started_at"
	columnRemindCommandReminderID = "reminder_id"
)

type RemindCommandState string

// RemindCommand represents a '/remind' slash command execution
// (any subcommand), tracking its lifecycle from receipt to completion.
type RemindCommand struct {
	ModelUintID
	ModelUnixTime
	Interaction
	logger *slog.Logger
	State  RemindCommandState `json:"state" gorm:"type:string"`

	// Subcommand is one of set/list/cancel
	Subcommand string `json:"subcommand" gorm:"type:string"`

	// TimeExpression is the raw 'when' option for the set subcommand
	TimeExpression string `json:"time_expression" gorm:"type:string"`

	// ReminderID is the reminder created (set) or targeted (cancel)
	ReminderID *uint `json:"reminder_id"`

	Error    *string `json:"error" gorm:"type:string"`
	Response *string `json:"response" gorm:"type:string"`

	handler InteractionHandler
}

func NewUserRemindCommand(
	b *WompBot,
	u *User,
	i *discordgo.InteractionCreate,
) *RemindCommand {
	interaction := NewUserInteraction(i, u)

	rec := &RemindCommand{
		Interaction: *interaction,
		State:       RemindCommandStateReceived,
	}

	data := i.ApplicationCommandData()
	if len(data.Options) > 0 {
		sub := data.Options[0]
		rec.Subcommand = sub.Name
		opts := discordInteractionOptions(sub.Options)
		if when, ok := opts[remindOptionWhen]; ok {
			rec.TimeExpression = when.StringValue()
		}
	}

	rec.logger = b.logger.With("remind_command", rec)
	return rec
}

func (c *RemindCommand) Deadline() time.Time {
	return time.UnixMilli(c.TokenExpires).UTC()
}

func (c RemindCommand) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Any("interaction", c.Interaction),
		slog.String("subcommand", c.Subcommand),
		slog.String("time_expression", c.TimeExpression),
		slog.String("state", string(c.State)),
		slog.String("error", stringPointerValue(c.Error)),
		slog.String("response", stringPointerValue(c.Response)),
	)
}

// execute runs the /remind subcommand, edits the deferred interaction
// response with the result, and records the final command state.
func (c *RemindCommand) execute(ctx context.Context, b *WompBot) error {
	b.remindCommandsInProgress.Add(1)
	defer b.remindCommandsInProgress.Add(-1)

	started := time.Now()
	config := c.handler.Config()

	cmdLogger := c.logger
	if cmdLogger == nil {
		cmdLogger = slog.Default()
	}

	updates := map[string]any{
		columnRemindCommandStartedAt: &started,
		columnRemindCommandState:     RemindCommandStateCompleted,
	}

	var response string
	var err error

	i := c.handler.GetInteraction()
	switch c.Subcommand {
	case remindSubcommandSet:
		response, err = c.executeSet(ctx, b, i)
	case remindSubcommandList:
		response, err = c.executeList(ctx, b)
	case remindSubcommandCancel:
		response, err = c.executeCancel(ctx, b, i)
	default:
		cmdLogger.WarnContext(ctx, "unknown subcommand", "subcommand", c.Subcommand)
		updates[columnRemindCommandState] = RemindCommandStateIgnored
		response = config.DiscordErrorMessage
	}

	if c.State == RemindCommandStateRejected {
		updates[columnRemindCommandState] = RemindCommandStateRejected
	}
	if err != nil {
		cmdLogger.ErrorContext(ctx, "error executing remind command", tint.Err(err))
		updates[columnRemindCommandState] = RemindCommandStateFailed
		updates[columnRemindCommandError] = err.Error()
		response = config.DiscordErrorMessage
	}
	if c.ReminderID != nil {
		updates[columnRemindCommandReminderID] = *c.ReminderID
	}
	updates[columnRemindCommandResponse] = response

	wg := &sync.WaitGroup{}
	defer wg.Wait()

	wg.Add(1)
	go func() {
		defer wg.Done()
		_, editErr := c.handler.Edit(
			ctx,
			&discordgo.WebhookEdit{Content: &response},
			discordgo.WithContext(ctx),
		)
		if editErr != nil {
			cmdLogger.ErrorContext(ctx, "error updating interaction", tint.Err(editErr))
		}
	}()

	ended := time.Now()
	updates[columnRemindCommandFinishedAt] = &ended

	wg.Add(1)
	go func() {
		defer wg.Done()
		if _, e := b.writeDB.Updates(context.TODO(), c, updates); e != nil {
			cmdLogger.ErrorContext(ctx, "error updating remind command", tint.Err(e))
		}
	}()

	return err
}

// executeSet parses the time expression, validates the resolved
// timestamp is in the future, and inserts the reminder.
func (c *RemindCommand) executeSet(
	ctx context.Context,
	b *WompBot,
	i *discordgo.InteractionCreate,
) (string, error) {
	data := i.ApplicationCommandData()
	opts := discordInteractionOptions(data.Options[0].Options)

	when := strings.TrimSpace(opts[remindOptionWhen].StringValue())
	what := strings.TrimSpace(opts[remindOptionWhat].StringValue())
	var repeat bool
	if repeatOpt, ok := opts[remindOptionRepeat]; ok {
		repeat = repeatOpt.BoolValue()
	}

	dueAt, ok := ParseTimeExpression(when, b.now())
	if !ok {
		c.State = RemindCommandStateRejected
		return remindResponseBadExpression, nil
	}
	// Re-sample 'now' for the future check rather than reusing the
	// parse-time reference, so slow parsing can't sneak a past
	// timestamp through.
	if !dueAt.After(b.now()) {
		c.State = RemindCommandStateRejected
		return remindResponsePastTime, nil
	}

	limit := c.User.ReminderLimit
	if limit <= 0 {
		limit = b.RuntimeConfig().UserReminderLimit
	}
	pending, err := c.User.PendingReminderCount(b.db)
	if err != nil {
		return "", fmt.Errorf("error counting pending reminders: %w", err)
	}
	if pending >= int64(limit) {
		c.State = RemindCommandStateRejected
		return remindResponseLimitReached, nil
	}

	reminder := NewReminder(
		c.User,
		i.ChannelID,
		c.DiscordMessageID,
		what,
		when,
		dueAt,
		repeat,
	)
	if _, err = b.writeDB.Create(ctx, reminder); err != nil {
		return "", fmt.Errorf("error creating reminder: %w", err)
	}
	c.ReminderID = &reminder.ID

	response := fmt.Sprintf(
		"Got it! I'll remind you %s (#%d).",
		discordRelativeTimestamp(dueAt),
		reminder.ID,
	)
	if repeat {
		response += " This reminder repeats."
	}
	return response, nil
}

// executeList returns the user's pending reminders, earliest first.
func (c *RemindCommand) executeList(_ context.Context, b *WompBot) (string, error) {
	pending, err := getPendingReminders(b.db, c.UserID, DefaultReminderListLimit)
	if err != nil {
		return "", fmt.Errorf("error listing reminders: %w", err)
	}
	if len(pending) == 0 {
		return remindResponseNoPending, nil
	}

	lines := make([]string, 0, len(pending)+1)
	lines = append(lines, "Your pending reminders:")
	for _, r := range pending {
		line := fmt.Sprintf(
			"`#%d` %s - %s",
			r.ID,
			truncate(r.Body, 80),
			discordRelativeTimestamp(time.UnixMilli(r.DueAt)),
		)
		if r.Recurring {
			line += " (repeats)"
		}
		lines = append(lines, line)
	}
	return shortenString(strings.Join(lines, "\n"), discordMaxMessageLength), nil
}

// executeCancel deletes the targeted reminder, but only if it belongs
// to the requesting user and hasn't fired yet. A cancellation matching
// zero rows - wrong owner, already fired, or a lost race with another
// cancel - reports "not found".
func (c *RemindCommand) executeCancel(
	_ context.Context,
	b *WompBot,
	i *discordgo.InteractionCreate,
) (string, error) {
	data := i.ApplicationCommandData()
	opts := discordInteractionOptions(data.Options[0].Options)
	reminderID := uint(opts[remindOptionID].IntValue())
	c.ReminderID = &reminderID

	cancelled, err := cancelReminder(b.writeDB, reminderID, c.UserID)
	if err != nil {
		return "", fmt.Errorf("error cancelling reminder: %w", err)
	}
	if !cancelled {
		c.State = RemindCommandStateRejected
		return remindResponseNotFound, nil
	}
	return fmt.Sprintf("Cancelled reminder `#%d`.", reminderID), nil
}

// discordRelativeTimestamp formats a time as a Discord relative
// timestamp mention ("in 2 hours").
func discordRelativeTimestamp(t time.Time) string {
	return fmt.Sprintf("<t:%d:R>", t.Unix())
}
