package wompbot

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// executeRemindCommand builds and runs a /remind command for the given
// interaction, returning the command record and the content of the
// final interaction edit.
func executeRemindCommand(
	t testing.TB,
	bot *WompBot,
	u *User,
	i *discordgo.InteractionCreate,
	handler stubInteractionHandler,
) (*RemindCommand, string) {
	t.Helper()
	ctx := context.Background()

	cmd := NewUserRemindCommand(bot, u, i)
	cmd.handler = handler
	_, err := bot.writeDB.Create(ctx, cmd)
	require.NoError(t, err)

	require.NoError(t, cmd.execute(ctx, bot))
	return cmd, requireEditContent(t, handler)
}

func TestRemindSetCreatesReminder(t *testing.T) {
	bot := newTestBot(t)
	ctx := context.Background()

	discordUser := newDiscordUser(t)
	u, _, err := bot.GetOrCreateUser(ctx, *discordUser)
	require.NoError(t, err)

	i := newRemindInteraction(
		t,
		discordUser,
		remindSubcommandSet,
		remindSetOptions("in 2 hours", "drink water", false)...,
	)
	handler := newStubInteractionHandler(
		t, i, bot.RuntimeConfig().CommandOptions,
	)

	cmd, content := executeRemindCommand(
		t, bot, u, i, handler,
	)

	assert.Contains(t, content, "Got it!")
	assert.Contains(t, content, "<t:")
	assert.NotContains(t, content, "repeats")

	require.NotNil(t, cmd.ReminderID)

	var reminder Reminder
	require.NoError(t, bot.db.First(&reminder, *cmd.ReminderID).Error)
	assert.Equal(t, u.ID, reminder.UserID)
	assert.Equal(t, "drink water", reminder.Body)
	assert.Equal(t, "in 2 hours", reminder.TimeExpression)
	assert.False(t, reminder.Recurring)
	assert.False(t, reminder.Completed)
	assert.Greater(t, reminder.DueAt, time.Now().UnixMilli())

	var reloaded RemindCommand
	require.NoError(t, bot.db.First(&reloaded, cmd.ID).Error)
	assert.Equal(t, RemindCommandStateCompleted, reloaded.State)
	require.NotNil(t, reloaded.ReminderID)
	assert.Equal(t, *cmd.ReminderID, *reloaded.ReminderID)
	require.NotNil(t, reloaded.Response)
	assert.Equal(t, content, *reloaded.Response)
}

func TestRemindSetRecurring(t *testing.T) {
	bot := newTestBot(t)
	ctx := context.Background()

	discordUser := newDiscordUser(t)
	u, _, err := bot.GetOrCreateUser(ctx, *discordUser)
	require.NoError(t, err)

	i := newRemindInteraction(
		t,
		discordUser,
		remindSubcommandSet,
		remindSetOptions("in 1 day", "stand up", true)...,
	)
	handler := newStubInteractionHandler(
		t, i, bot.RuntimeConfig().CommandOptions,
	)

	cmd, content := executeRemindCommand(
		t, bot, u, i, handler,
	)

	assert.Contains(t, content, "This reminder repeats.")

	require.NotNil(t, cmd.ReminderID)
	var reminder Reminder
	require.NoError(t, bot.db.First(&reminder, *cmd.ReminderID).Error)
	assert.True(t, reminder.Recurring)
	assert.Equal(t, "in 1 day", reminder.RecurrenceExpression)
}

func TestRemindSetBadExpression(t *testing.T) {
	bot := newTestBot(t)
	ctx := context.Background()

	discordUser := newDiscordUser(t)
	u, _, err := bot.GetOrCreateUser(ctx, *discordUser)
	require.NoError(t, err)

	i := newRemindInteraction(
		t,
		discordUser,
		remindSubcommandSet,
		remindSetOptions("whenever you feel like it", "something", false)...,
	)
	handler := newStubInteractionHandler(
		t, i, bot.RuntimeConfig().CommandOptions,
	)

	cmd, content := executeRemindCommand(
		t, bot, u, i, handler,
	)

	assert.Equal(t, remindResponseBadExpression, content)
	assert.Nil(t, cmd.ReminderID)

	var reloaded RemindCommand
	require.NoError(t, bot.db.First(&reloaded, cmd.ID).Error)
	assert.Equal(t, RemindCommandStateRejected, reloaded.State)

	count, err := u.PendingReminderCount(bot.db)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestRemindSetPastTime(t *testing.T) {
	bot := newTestBot(t)
	ctx := context.Background()

	discordUser := newDiscordUser(t)
	u, _, err := bot.GetOrCreateUser(ctx, *discordUser)
	require.NoError(t, err)

	// "0" parses as "in 0 minutes", which is never in the future by the
	// time the check runs
	i := newRemindInteraction(
		t,
		discordUser,
		remindSubcommandSet,
		remindSetOptions("0", "too late", false)...,
	)
	handler := newStubInteractionHandler(
		t, i, bot.RuntimeConfig().CommandOptions,
	)

	cmd, content := executeRemindCommand(
		t, bot, u, i, handler,
	)

	assert.Equal(t, remindResponsePastTime, content)
	assert.Nil(t, cmd.ReminderID)
}

func TestRemindSetLimitReached(t *testing.T) {
	bot := newTestBot(t)
	ctx := context.Background()

	discordUser := newDiscordUser(t)
	u, _, err := bot.GetOrCreateUser(ctx, *discordUser)
	require.NoError(t, err)

	u.ReminderLimit = 1
	_, err = bot.writeDB.Updates(
		ctx, u, map[string]any{"reminder_limit": 1},
	)
	require.NoError(t, err)

	_, err = bot.writeDB.Create(
		ctx, &Reminder{
			UserID:    u.ID,
			ChannelID: "channel",
			Body:      "existing",
			DueAt:     time.Now().Add(time.Hour).UnixMilli(),
		},
	)
	require.NoError(t, err)

	i := newRemindInteraction(
		t,
		discordUser,
		remindSubcommandSet,
		remindSetOptions("in 2 hours", "one too many", false)...,
	)
	handler := newStubInteractionHandler(
		t, i, bot.RuntimeConfig().CommandOptions,
	)

	_, content := executeRemindCommand(
		t, bot, u, i, handler,
	)

	assert.Equal(t, remindResponseLimitReached, content)

	count, err := u.PendingReminderCount(bot.db)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestRemindList(t *testing.T) {
	bot := newTestBot(t)
	ctx := context.Background()

	discordUser := newDiscordUser(t)
	u, _, err := bot.GetOrCreateUser(ctx, *discordUser)
	require.NoError(t, err)

	t.Run(
		"no pending reminders", func(t *testing.T) {
			i := newRemindInteraction(t, discordUser, remindSubcommandList)
			handler := newStubInteractionHandler(
				t, i, bot.RuntimeConfig().CommandOptions,
			)
			_, content := executeRemindCommand(
				t, bot, u, i, handler,
			)
			assert.Equal(t, remindResponseNoPending, content)
		},
	)

	first := &Reminder{
		UserID:    u.ID,
		ChannelID: "channel",
		Body:      "first reminder",
		DueAt:     time.Now().Add(time.Hour).UnixMilli(),
	}
	second := &Reminder{
		UserID:    u.ID,
		ChannelID: "channel",
		Body:      "second reminder",
		DueAt:     time.Now().Add(2 * time.Hour).UnixMilli(),
		Recurring: true,
	}
	// Another user's reminder should never appear in the listing
	otherUsers := &Reminder{
		UserID:    "someone_else",
		ChannelID: "channel",
		Body:      "not yours",
		DueAt:     time.Now().Add(time.Hour).UnixMilli(),
	}
	for _, r := range []*Reminder{first, second, otherUsers} {
		_, createErr := bot.writeDB.Create(ctx, r)
		require.NoError(t, createErr)
	}

	t.Run(
		"pending reminders", func(t *testing.T) {
			i := newRemindInteraction(t, discordUser, remindSubcommandList)
			handler := newStubInteractionHandler(
				t, i, bot.RuntimeConfig().CommandOptions,
			)
			_, content := executeRemindCommand(
				t, bot, u, i, handler,
			)

			assert.Contains(t, content, "Your pending reminders:")
			assert.Contains(t, content, fmt.Sprintf("`#%d`", first.ID))
			assert.Contains(t, content, "first reminder")
			assert.Contains(t, content, "second reminder")
			assert.Contains(t, content, "(repeats)")
			assert.NotContains(t, content, "not yours")
		},
	)
}

func TestRemindCancel(t *testing.T) {
	bot := newTestBot(t)
	ctx := context.Background()

	discordUser := newDiscordUser(t)
	u, _, err := bot.GetOrCreateUser(ctx, *discordUser)
	require.NoError(t, err)

	reminder := &Reminder{
		UserID:    u.ID,
		ChannelID: "channel",
		Body:      "cancel me",
		DueAt:     time.Now().Add(time.Hour).UnixMilli(),
	}
	_, err = bot.writeDB.Create(ctx, reminder)
	require.NoError(t, err)

	t.Run(
		"unknown id", func(t *testing.T) {
			i := newRemindInteraction(
				t,
				discordUser,
				remindSubcommandCancel,
				remindCancelOptions(reminder.ID+1000)...,
			)
			handler := newStubInteractionHandler(
				t, i, bot.RuntimeConfig().CommandOptions,
			)
			cmd, content := executeRemindCommand(
				t, bot, u, i, handler,
			)
			assert.Equal(t, remindResponseNotFound, content)

			var reloaded RemindCommand
			require.NoError(t, bot.db.First(&reloaded, cmd.ID).Error)
			assert.Equal(t, RemindCommandStateRejected, reloaded.State)
		},
	)

	t.Run(
		"owned reminder", func(t *testing.T) {
			i := newRemindInteraction(
				t,
				discordUser,
				remindSubcommandCancel,
				remindCancelOptions(reminder.ID)...,
			)
			handler := newStubInteractionHandler(
				t, i, bot.RuntimeConfig().CommandOptions,
			)
			_, content := executeRemindCommand(
				t, bot, u, i, handler,
			)
			assert.Contains(
				t,
				content,
				fmt.Sprintf("Cancelled reminder `#%d`", reminder.ID),
			)

			count, countErr := u.PendingReminderCount(bot.db)
			require.NoError(t, countErr)
			assert.Equal(t, int64(0), count)
		},
	)
}
