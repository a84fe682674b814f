package wompbot

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"
	"gorm.io/gorm"
)

var (
	columnUserID         = "user_id"
	columnUserIgnored    = "ignored"
	columnUserUsername   = "username"
	columnUserGlobalName = "global_name"
	columnUserLastSeen   = "last_seen"
)

// User is a record of a Discord user, and their current state.
// See: https://discord.com/developers/docs/resources/user
//
//nolint:lll // struct tags can't be split
type User struct {
	//
	// The first set of fields are set from the Discord user object
	//

	// ID is the Discord user ID
	ID string `json:"id" gorm:"primaryKey;unique;type:string"`

	// Username, not unique
	Username string `json:"username" gorm:"type:string"`

	// User's display name - for bots, the application name
	GlobalName string `json:"global_name" gorm:"type:string"`

	// Indicates this user is a Discord bot user. Bots will be ignored
	// by default.
	Bot bool `json:"bot" gorm:"type:bool"`

	// JSON content of the discord user object
	Content string `json:"content" gorm:"type:string"`

	//
	// The fields below are WompBot-specific
	//

	// If true, RemindCommand and ChatCommand requests from this user
	// will be ignored
	Ignored bool `json:"ignored" gorm:"type:bool;default:false"`

	// Maximum number of ChatCommand requests allowed for this user over
	// six hours. Only counts completed requests.
	ChatCommandLimit6h int `json:"chat_command_limit_6h" gorm:"column:chat_command_limit_6h"`

	// Maximum number of pending reminders this user may have at once
	ReminderLimit int `json:"reminder_limit" gorm:"column:reminder_limit"`

	// LastSeen is the last time this user was seen in a Discord interaction
	LastSeen int64 `json:"last_seen" gorm:"column:last_seen"`

	ModelUnixTime
}

func NewUser(u discordgo.User) *User {
	content, _ := json.Marshal(u)
	user := User{
		ID:         u.ID,
		Username:   u.Username,
		Ignored:    false,
		Content:    string(content),
		GlobalName: u.GlobalName,
		Bot:        u.Bot,
		LastSeen:   time.Now().UTC().UnixMilli(),
	}
	if u.Bot {
		user.Ignored = true
	}

	return &user
}

func (u *User) String() string {
	return fmt.Sprintf("%s [%s]", u.Username, u.ID)
}

// ChatCommandsSince returns the number of completed [ChatCommand]
// requests for the user created at or after the given time.
func (u *User) ChatCommandsSince(db *gorm.DB, at time.Time) (int64, error) {
	var count int64
	err := db.Model(&ChatCommand{}).Where(
		"user_id = ? AND created_at >= ? AND state = ?",
		u.ID,
		at.UTC().UnixMilli(),
		ChatCommandStateCompleted,
	).Count(&count).Error
	return count, err
}

// ChatCommands6h returns the number of completed [ChatCommand] requests
// for the user within the last six hours.
func (u *User) ChatCommands6h(db *gorm.DB) (int64, error) {
	return u.ChatCommandsSince(db, time.Now().Add(-6*time.Hour))
}

// PendingReminderCount returns the number of reminders for the user
// that have not yet been delivered or cancelled.
func (u *User) PendingReminderCount(db *gorm.DB) (int64, error) {
	var count int64
	err := db.Model(&Reminder{}).Where(
		"user_id = ? AND completed = ?",
		u.ID,
		false,
	).Count(&count).Error
	return count, err
}

func (u *User) LogValue() slog.Value {
	if u == nil {
		return slog.Value{}
	}
	return slog.GroupValue(
		slog.String(columnUserID, u.ID),
		slog.String("username", u.Username),
		slog.String("global_name", u.GlobalName),
		slog.Bool("ignored", u.Ignored),
		slog.Int("chat_command_limit_6h", u.ChatCommandLimit6h),
		slog.Int("reminder_limit", u.ReminderLimit),
	)
}

// userChangedDiscordUsername compares [User.Username] and [User.GlobalName] with
// the given discordgo.User, and returns a bool indicating whether either
// field has changed (true) or not (false). This helps avoid 'drift'
// if the user updates their Discord profile.
func (u *User) userChangedDiscordUsername(d discordgo.User) bool {
	return (d.Username != u.Username) || (d.GlobalName != u.GlobalName)
}
