package wompbot

import (
	"log/slog"

	"github.com/bwmarrin/discordgo"
)

var (
	columnRuntimeConfigUserChatCommandLimit6h = "user_chat_command_limit_6h"
	columnRuntimeConfigUserReminderLimit      = "user_reminder_limit"
	columnRuntimeConfigPaused                 = "paused"
)

// CommandOptions holds settings shared across slash command executions.
//
//nolint:lll // struct tags can't be split
type CommandOptions struct {
	// RecoverPanic determines whether the bot should recover from panics
	// while processing user commands
	RecoverPanic bool `json:"recover_panic" gorm:"not null;default:false"`

	// Error message to send to the user if an error is encountered during
	// their command execution, which prevents the command from finishing normally
	DiscordErrorMessage string `json:"discord_error_message" gorm:"type:string"`

	// Message sent to the user if they've exceeded their rate limit
	DiscordRateLimitMessage string `json:"discord_rate_limit_message" gorm:"type:string"`

	// If specified, the bot will send certain events to the specified channel,
	// such as the startup message when the bot connects.
	DiscordNotificationChannelID string `json:"discord_notification_channel_id" gorm:"type:string"`
}

// RuntimeConfig represents the runtime configuration of the WompBot bot.
// It stores settings that can be modified during runtime and persisted
// across restarts. This struct is used to manage the 'live' application
// state for settings we would want to maintain across restarts
// (e.g., being paused).
//
//nolint:lll // struct tags can't be split
type RuntimeConfig struct {
	ModelUintID
	ModelUnixTime
	CommandOptions

	// Paused indicates whether the bot is currently paused. While paused,
	// slash commands are rejected, but the reminder delivery loop keeps
	// running.
	Paused bool `json:"paused" gorm:"not null;default:false"`

	// DiscordCustomStatus is the custom status message displayed for the bot on Discord.
	DiscordCustomStatus string `json:"discord_custom_status" gorm:"type:string"`

	// ChatCommandDescription is the description for the 'chat' command.
	ChatCommandDescription string `json:"chat_command_description" gorm:"default:Chat with me!" binding:"min=1,max=100"`

	// ChatCommandOptionDescription is the description for the 'chat' command's option.
	ChatCommandOptionDescription string `json:"chat_command_option_description" gorm:"default:What would you like to say or ask?" binding:"min=1,max=100"`

	// ChatCommandMaxLength is the maximum length for a 'chat' command prompt.
	ChatCommandMaxLength int `json:"chat_command_max_length" gorm:"default:500" binding:"omitempty,min=1,max=6000"`

	// ChatCommandSystemPrompt is prepended to every chat completion request.
	ChatCommandSystemPrompt string `json:"chat_command_system_prompt" gorm:"type:string"`

	// OpenAIMaxRequestsPerSecond is the rate limit for how many OpenAI
	// chat completion API requests can be made per second
	OpenAIMaxRequestsPerSecond int `gorm:"column:openai_max_requests_per_second;default:1" json:"openai_max_requests_per_second" binding:"min=1"`

	// Limits the number of completed ChatCommand requests per user per
	// 6-hour window
	UserChatCommandLimit6h int `gorm:"column:user_chat_command_limit_6h;check:user_chat_command_limit_6h > 0" json:"user_chat_command_limit_6h" binding:"min=1"`

	// Limits the number of pending reminders each user may have at once
	UserReminderLimit int `gorm:"column:user_reminder_limit;check:user_reminder_limit > 0" json:"user_reminder_limit" binding:"min=1"`

	// LogLevel is the general logging level for the application.
	LogLevel DBLogLevel `gorm:"default:INFO;type:string;check:log_level in ('INFO', 'WARN', 'ERROR', 'DEBUG')" json:"log_level" binding:"omitnil,oneof=INFO WARN ERROR DEBUG"`

	// OpenAILogLevel is the logging level for OpenAI-related operations.
	OpenAILogLevel DBLogLevel `gorm:"default:INFO;column:openai_log_level;type:string;check:openai_log_level in ('INFO', 'WARN', 'ERROR', 'DEBUG')" json:"openai_log_level" binding:"omitnil,oneof=INFO WARN ERROR DEBUG"`

	// DiscordLogLevel is the logging level for Discord-related operations.
	DiscordLogLevel DBLogLevel `gorm:"default:INFO;type:string;check:discord_log_level in ('INFO', 'WARN', 'ERROR', 'DEBUG')" json:"discord_log_level" binding:"omitnil,oneof=INFO WARN ERROR DEBUG"`

	// DiscordGoLogLevel is the logging level for the DiscordGo library.
	DiscordGoLogLevel DBLogLevel `gorm:"default:INFO;column:discordgo_log_level;type:string;check:discordgo_log_level in ('INFO', 'WARN', 'ERROR', 'DEBUG')" json:"discordgo_log_level" binding:"omitnil,oneof=INFO WARN ERROR DEBUG"`

	// DatabaseLogLevel is the logging level for database operations.
	DatabaseLogLevel DBLogLevel `gorm:"default:INFO;type:string;check:database_log_level in ('INFO', 'WARN', 'ERROR', 'DEBUG')" json:"database_log_level" binding:"omitnil,oneof=INFO WARN ERROR DEBUG"`

	// APILogLevel is the logging level for API operations.
	APILogLevel DBLogLevel `gorm:"default:INFO;type:string;check:api_log_level in ('INFO', 'WARN', 'ERROR', 'DEBUG')" json:"api_log_level" binding:"omitnil,oneof=INFO WARN ERROR DEBUG"`
}

func (RuntimeConfig) TableName() string {
	return "config"
}

func DefaultRuntimeConfig() RuntimeConfig {
	return RuntimeConfig{
		CommandOptions: CommandOptions{
			RecoverPanic:            false,
			DiscordErrorMessage:     DefaultDiscordErrorMessage,
			DiscordRateLimitMessage: DefaultDiscordRateLimitMessage,
		},
		ChatCommandDescription:       DefaultChatCommandDescription,
		ChatCommandOptionDescription: DefaultChatCommandOptionDescription,
		ChatCommandMaxLength:         DefaultDiscordChatCommandMaxLength,
		OpenAIMaxRequestsPerSecond:   DefaultOpenAIMaxRequestsPerSecond,
		DiscordCustomStatus:          DefaultDiscordCustomStatus,
		UserChatCommandLimit6h:       DefaultRequestLimit6h,
		UserReminderLimit:            DefaultUserReminderLimit,
		LogLevel:                     DBLogLevel(slog.LevelInfo.String()),
		OpenAILogLevel:               DBLogLevel(slog.LevelInfo.String()),
		DiscordLogLevel:              DBLogLevel(slog.LevelInfo.String()),
		DiscordGoLogLevel:            DBLogLevel(slog.LevelWarn.String()),
		DatabaseLogLevel:             DBLogLevel(slog.LevelInfo.String()),
		APILogLevel:                  DBLogLevel(slog.LevelInfo.String()),
	}
}

// RuntimeConfigUpdate is the PATCH payload for [RuntimeConfig]. Nil
// fields are left unchanged.
//
//nolint:lll // can't break tags
type RuntimeConfigUpdate struct {
	Paused       *bool `json:"paused,omitempty"`
	RecoverPanic *bool `json:"recover_panic,omitempty"`

	DiscordCustomStatus          *string `json:"discord_custom_status,omitempty"`
	DiscordRateLimitMessage      *string `json:"discord_rate_limit_message,omitempty"`
	DiscordErrorMessage          *string `json:"discord_error_message,omitempty"`
	DiscordNotificationChannelID *string `json:"discord_notification_channel_id,omitempty"`

	ChatCommandDescription       *string `json:"chat_command_description,omitempty" binding:"omitnil,min=1,max=100"`
	ChatCommandOptionDescription *string `json:"chat_command_option_description,omitempty" binding:"omitnil,min=1,max=100"`
	ChatCommandMaxLength         *int    `json:"chat_command_max_length,omitempty" binding:"omitnil,min=1,max=6000"`
	ChatCommandSystemPrompt      *string `json:"chat_command_system_prompt,omitempty"`

	OpenAIMaxRequestsPerSecond *int `json:"openai_max_requests_per_second,omitempty" binding:"omitnil,min=1,max=30000"`

	UserChatCommandLimit6h *int `json:"user_chat_command_limit_6h,omitempty" binding:"omitnil,min=1"`
	UserReminderLimit      *int `json:"user_reminder_limit,omitempty" binding:"omitnil,min=1"`

	LogLevel          *DBLogLevel `json:"log_level,omitempty" binding:"omitnil,oneof=INFO WARN ERROR DEBUG"`
	OpenAILogLevel    *DBLogLevel `json:"openai_log_level,omitempty" binding:"omitnil,oneof=INFO WARN ERROR DEBUG"`
	DiscordLogLevel   *DBLogLevel `json:"discord_log_level,omitempty" binding:"omitnil,oneof=INFO WARN ERROR DEBUG"`
	DiscordGoLogLevel *DBLogLevel `json:"discordgo_log_level,omitempty" binding:"omitnil,oneof=INFO WARN ERROR DEBUG"`
	DatabaseLogLevel  *DBLogLevel `json:"database_log_level,omitempty" binding:"omitnil,oneof=INFO WARN ERROR DEBUG"`
	APILogLevel       *DBLogLevel `json:"api_log_level,omitempty" binding:"omitnil,oneof=INFO WARN ERROR DEBUG"`
}

func (b RuntimeConfigUpdate) validate() error {
	return structValidator.Struct(b)
}

func getDiscordPresenceStatusUpdate(config RuntimeConfig) discordgo.GatewayStatusUpdate {
	if config.Paused {
		return discordgo.GatewayStatusUpdate{
			AFK:    true,
			Status: string(discordgo.StatusDoNotDisturb),
		}
	}
	return discordgo.GatewayStatusUpdate{Status: config.DiscordCustomStatus}
}
