package wompbot

import (
	"log/slog"
	"time"

	"gorm.io/gorm"
)

var (
	columnReminderCompleted   = "completed"
	columnReminderCompletedAt = "completed_at"
)

// Reminder is a scheduled notification created via `/remind set`.
//
// Completion is monotonic: once a reminder fires (or is cancelled) it is
// never reset. A recurring reminder's next occurrence is a brand-new row
// inserted by the delivery loop, not a mutation of the original.
//
//nolint:lll // struct tags can't be split
type Reminder struct {
	ModelUintID
	ModelUnixTime

	// UserID is the Discord user ID of the reminder's owner
	UserID string `json:"user_id" gorm:"index;not null;default:null"`

	// Username is the owner's display name at creation time
	Username string `json:"username" gorm:"type:string"`

	// ChannelID is the channel the reminder was created in, and where
	// the notification is posted
	ChannelID string `json:"channel_id" gorm:"type:string"`

	// MessageID references the originating message, if known
	MessageID string `json:"message_id" gorm:"type:string"`

	// Body is the free-text reminder content
	Body string `json:"body" gorm:"type:string"`

	// TimeExpression is the original expression the due timestamp was
	// resolved from
	TimeExpression string `json:"time_expression" gorm:"type:string"`

	// DueAt is the resolved due timestamp, in Unix milliseconds
	DueAt int64 `json:"due_at" gorm:"index;not null"`

	// Recurring indicates the reminder reschedules itself after firing
	Recurring bool `json:"recurring" gorm:"type:bool;default:false"`

	// RecurrenceExpression is re-parsed at fire time to compute the next
	// occurrence. Usually the same as TimeExpression.
	RecurrenceExpression string `json:"recurrence_expression" gorm:"type:string"`

	// Completed is set once the notification fires (delivered or not)
	Completed bool `json:"completed" gorm:"index;type:bool;default:false"`

	// CompletedAt is the time the reminder was marked completed
	CompletedAt *time.Time `json:"completed_at" gorm:"type:timestamp"`
}

// NewReminder creates a Reminder owned by the given user, due at the
// given time.
func NewReminder(
	u *User,
	channelID string,
	messageID string,
	body string,
	expression string,
	dueAt time.Time,
	recurring bool,
) *Reminder {
	r := &Reminder{
		UserID:         u.ID,
		Username:       u.Username,
		ChannelID:      channelID,
		MessageID:      messageID,
		Body:           body,
		TimeExpression: expression,
		DueAt:          dueAt.UnixMilli(),
		Recurring:      recurring,
	}
	if recurring {
		r.RecurrenceExpression = expression
	}
	return r
}

// DueAtTime returns the due timestamp as a time.Time in the given location.
func (r *Reminder) DueAtTime(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.UnixMilli(r.DueAt).In(loc)
}

func (r *Reminder) LogValue() slog.Value {
	if r == nil {
		return slog.Value{}
	}
	return slog.GroupValue(
		slog.Uint64("id", uint64(r.ID)),
		slog.String(columnUserID, r.UserID),
		slog.String("channel_id", r.ChannelID),
		slog.String("time_expression", r.TimeExpression),
		slog.Int64("due_at", r.DueAt),
		slog.Bool("recurring", r.Recurring),
		slog.Bool("completed", r.Completed),
	)
}

// getDueReminders returns all incomplete reminders due at or before the
// given time, earliest first.
func getDueReminders(db *gorm.DB, now time.Time) ([]Reminder, error) {
	var due []Reminder
	err := db.Where(
		"completed = ? AND due_at <= ?",
		false,
		now.UnixMilli(),
	).Order("due_at asc").Find(&due).Error
	return due, err
}

// getPendingReminders returns the user's incomplete reminders, earliest
// due first, up to the given limit.
func getPendingReminders(
	db *gorm.DB,
	userID string,
	limit int,
) ([]Reminder, error) {
	var pending []Reminder
	err := db.Where(
		"user_id = ? AND completed = ?",
		userID,
		false,
	).Order("due_at asc").Limit(limit).Find(&pending).Error
	return pending, err
}

// cancelReminder deletes the given reminder if - and only if - it is
// owned by the given user and still incomplete. Returns false if no row
// matched, which callers report as "not found". Two racing cancellations
// for the same reminder resolve at the database layer: at most one
// observes a nonzero rows-affected count.
func cancelReminder(db DBI, reminderID uint, userID string) (bool, error) {
	rowsAffected, err := db.Delete(
		&Reminder{},
		"id = ? AND user_id = ? AND completed = ?",
		reminderID,
		userID,
		false,
	)
	if err != nil {
		return false, err
	}
	return rowsAffected > 0, nil
}
