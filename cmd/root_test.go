package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wompRS/WompBot-Discord-sub002/wompbot"
)

func TestLoadConfigFromEnvFile(t *testing.T) {
	// Save the original environment
	originalEnv := os.Environ()
	t.Cleanup(
		func() {
			os.Clearenv()
			for _, envVar := range originalEnv {
				parts := strings.SplitN(envVar, "=", 2)
				os.Setenv(parts[0], parts[1])
			}
		},
	)

	// Clear the environment before the test
	os.Clearenv()

	tmpdir := t.TempDir()

	// Set up the test environment file
	envFile := filepath.Join(tmpdir, "test.env")

	envContent := `
# General/database config

WOMP_DATABASE=/home/foo/wompbot.sqlite3
WOMP_DATABASE_TYPE=sqlite
WOMP_DATABASE_LOG_LEVEL=INFO
WOMP_DATABASE_SLOW_THRESHOLD=200ms
WOMP_LOG_LEVEL=INFO
WOMP_STARTUP_TIMEOUT=30s
WOMP_SHUTDOWN_TIMEOUT=60s
WOMP_DEVELOPMENT=true

# Reminder config

WOMP_REMINDERS_POLL_INTERVAL=15s
WOMP_REMINDERS_TIMEZONE=America/Chicago

# OpenAI config

WOMP_OPENAI_TOKEN=your-openai-token
WOMP_OPENAI_LOG_LEVEL=INFO
WOMP_OPENAI_MODEL=gpt-4o-mini

# Discord bot config

WOMP_DISCORD_TOKEN=your-discord-bot-token
WOMP_DISCORD_APPLICATION_ID=your-discord-bot-app-id
WOMP_DISCORD_GUILD_ID=
WOMP_DISCORD_LOG_LEVEL=WARN
WOMP_DISCORD_DISCORDGO_LOG_LEVEL=WARN
WOMP_DISCORD_STARTUP_MESSAGE="I'm here!"
WOMP_DISCORD_GATEWAY_INTENTS=3243773

# API server

WOMP_API_LISTEN=127.0.0.1:5000
WOMP_API_SSL_CERT=/etc/ssl/cert.pem
WOMP_API_SSL_KEY=/etc/ssl/key.pem
WOMP_API_SSL_TLS_MIN_VERSION=771
WOMP_API_SECRET=your-api-secret
WOMP_API_LOG_LEVEL=DEBUG
WOMP_API_CORS_ALLOW_ORIGINS=https://127.0.0.1:5000 https://localhost:5000
WOMP_API_CORS_ALLOW_METHODS=GET POST PUT PATCH DELETE OPTIONS HEAD
WOMP_API_CORS_ALLOW_HEADERS=Origin Content-Length Content-Type Accept Authorization Cache-Control X-Request-ID
WOMP_API_CORS_EXPOSE_HEADERS=Content-Type Content-Length X-Request-ID
WOMP_API_CORS_ALLOW_CREDENTIALS=true
WOMP_API_CORS_MAX_AGE=12h
WOMP_API_READ_TIMEOUT=5s
WOMP_API_READ_HEADER_TIMEOUT=5s
WOMP_API_WRITE_TIMEOUT=10s
WOMP_API_IDLE_TIMEOUT=30s
`

	err := os.WriteFile(envFile, []byte(envContent), 0644)
	assert.NoError(t, err)

	rootCmd.SetArgs([]string{fmt.Sprintf("--config=%s", envFile), "version"})
	require.NoError(t, rootCmd.Execute())

	assert.Equal(t, "/home/foo/wompbot.sqlite3", cfg.Database)
	assert.Equal(t, "/home/foo/wompbot.sqlite3", viper.GetString("database"))
	assert.Equal(t, "sqlite", viper.GetString("database_type"))

	assertLogLevel(t, slog.LevelInfo, viper.Get("database_log_level"))

	assert.Equal(t, 200*time.Millisecond, viper.GetDuration("database_slow_threshold"))
	assertLogLevel(t, slog.LevelInfo, viper.Get("log_level"))
	assert.Equal(t, 30*time.Second, viper.GetDuration("startup_timeout"))
	assert.Equal(t, 60*time.Second, viper.GetDuration("shutdown_timeout"))
	assert.True(t, viper.GetBool("development"))

	assert.Equal(t, 15*time.Second, viper.GetDuration("reminders.poll_interval"))
	assert.Equal(t, "America/Chicago", viper.GetString("reminders.timezone"))

	assert.Equal(t, "your-openai-token", viper.GetString("openai.token"))
	assertLogLevel(t, slog.LevelInfo, viper.Get("openai.log_level"))
	assert.Equal(t, "gpt-4o-mini", viper.GetString("openai.model"))

	assert.Equal(t, "your-discord-bot-token", viper.GetString("discord.token"))
	assert.Equal(t, "your-discord-bot-app-id", viper.GetString("discord.application_id"))
	assert.Equal(t, "", viper.GetString("discord.guild_id"))

	assertLogLevel(t, slog.LevelWarn, viper.Get("discord.log_level"))
	assertLogLevel(t, slog.LevelWarn, viper.Get("discord.discordgo_log_level"))
	assert.Equal(t, "I'm here!", viper.GetString("discord.startup_message"))
	assert.Equal(t, 3243773, viper.GetInt("discord.gateway_intents"))

	assert.Equal(t, "127.0.0.1:5000", viper.GetString("api.listen"))
	assert.Equal(t, "/etc/ssl/cert.pem", viper.GetString("api.ssl.cert"))
	assert.Equal(t, "/etc/ssl/key.pem", viper.GetString("api.ssl.key"))
	assert.Equal(t, 771, viper.GetInt("api.ssl.tls_min_version"))
	assert.Equal(t, "your-api-secret", viper.GetString("api.secret"))
	assertLogLevel(t, slog.LevelDebug, viper.Get("api.log_level"))
	assert.Equal(t, slog.LevelDebug, cfg.API.LogLevel.Level())
	assert.Equal(
		t,
		[]string{"https://127.0.0.1:5000", "https://localhost:5000"},
		viper.GetStringSlice("api.cors.allow_origins"),
	)
	assert.Equal(
		t,
		[]string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS", "HEAD"},
		viper.GetStringSlice("api.cors.allow_methods"),
	)
	assert.Equal(
		t,
		[]string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS", "HEAD"},
		cfg.API.CORS.AllowMethods,
	)
	assert.True(t, viper.GetBool("api.cors.allow_credentials"))
	assert.Equal(t, 12*time.Hour, viper.GetDuration("api.cors.max_age"))
	assert.Equal(t, 5*time.Second, viper.GetDuration("api.read_timeout"))
	assert.Equal(t, 5*time.Second, viper.GetDuration("api.read_header_timeout"))
	assert.Equal(t, 10*time.Second, viper.GetDuration("api.write_timeout"))
	assert.Equal(t, 30*time.Second, viper.GetDuration("api.idle_timeout"))

	// Unmarshal the configuration into a wompbot.Config struct
	var config wompbot.Config
	err = viper.Unmarshal(
		&config, viper.DecodeHook(
			mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				LevelToStringHookFunc(),
			),
		),
	)
	assert.NoError(t, err)

	// Verify some key fields in the Config struct
	assert.Equal(t, "/home/foo/wompbot.sqlite3", config.Database)
	assert.Equal(t, "sqlite", config.DatabaseType)
	assert.Equal(t, slog.LevelInfo, config.DatabaseLogLevel.Level())
	assert.Equal(t, 200*time.Millisecond, config.DatabaseSlowThreshold)
	assert.Equal(t, slog.LevelInfo, config.LogLevel.Level())
	assert.Equal(t, 30*time.Second, config.StartupTimeout)
	assert.Equal(t, 60*time.Second, config.ShutdownTimeout)
	assert.True(t, config.Development)

	assert.Equal(t, 15*time.Second, config.Reminders.PollInterval)
	assert.Equal(t, "America/Chicago", config.Reminders.Timezone)

	assert.Equal(t, "your-openai-token", config.OpenAI.Token)
	assert.Equal(t, slog.LevelInfo, config.OpenAI.LogLevel.Level())
	assert.Equal(t, "gpt-4o-mini", config.OpenAI.Model)

	assert.Equal(t, "your-discord-bot-token", config.Discord.Token)
	assert.Equal(t, "your-discord-bot-app-id", config.Discord.ApplicationID)
	assert.Equal(t, "", config.Discord.GuildID)
	assert.Equal(t, slog.LevelWarn, config.Discord.LogLevel.Level())
	assert.Equal(t, slog.LevelWarn, config.Discord.DiscordGoLogLevel.Level())
	assert.Equal(t, "I'm here!", config.Discord.StartupMessage)
	assert.Equal(t, discordgo.Intent(3243773), config.Discord.GatewayIntents)

	assert.Equal(t, "127.0.0.1:5000", config.API.Listen)
	assert.Equal(t, "/etc/ssl/cert.pem", config.API.SSL.Cert)
	assert.Equal(t, "/etc/ssl/key.pem", config.API.SSL.Key)
	assert.Equal(t, uint16(771), config.API.SSL.TLSMinVersion)
	assert.Equal(t, "your-api-secret", config.API.Secret)
	assert.Equal(t, slog.LevelDebug, config.API.LogLevel.Level())
	assert.Equal(
		t,
		[]string{"https://127.0.0.1:5000", "https://localhost:5000"},
		config.API.CORS.AllowOrigins,
	)
}

func assertLogLevel(t testing.TB, expected slog.Level, v any) {
	t.Helper()

	lvl, ok := v.(*slog.LevelVar)
	require.Truef(t, ok, "could not convert %#v (%T) to *slog.LevelVar", v, v)
	assert.Equal(t, expected, lvl.Level())
}
