package wompbot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAPIServer(t testing.TB, bot *WompBot) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(bot.api.engine)
	t.Cleanup(server.Close)
	return server
}

// apiRequest executes a request against the test server, optionally
// setting the bearer token, and returns the response status and body.
func apiRequest(
	t testing.TB,
	server *httptest.Server,
	method string,
	path string,
	token string,
	body []byte,
) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(
		context.Background(),
		method,
		server.URL+path,
		reader,
	)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", bearerPrefix+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rv, err := server.Client().Do(req)
	require.NoError(t, err)
	defer func() {
		_ = rv.Body.Close()
	}()

	data, err := io.ReadAll(rv.Body)
	require.NoError(t, err)
	return rv.StatusCode, data
}

func TestAPIHealthCheck(t *testing.T) {
	bot := newTestBot(t)
	server := newTestAPIServer(t, bot)

	// No auth required
	status, body := apiRequest(
		t, server, http.MethodGet, apiHealthCheck, "", nil,
	)
	require.Equal(t, http.StatusOK, status)

	var health healthCheckResponse
	require.NoError(t, json.Unmarshal(body, &health))
	assert.False(t, health.Paused)
	assert.False(t, health.DiscordGatewayConnected)
	assert.Equal(t, int64(0), health.ChatCommandsInProgress)
	assert.Equal(t, int64(0), health.RemindCommandsInProgress)
}

func TestAPIBearerAuth(t *testing.T) {
	bot := newTestBot(t)
	server := newTestAPIServer(t, bot)
	path := apiPrefix + apiListReminders

	t.Run(
		"missing token", func(t *testing.T) {
			status, _ := apiRequest(
				t, server, http.MethodGet, path, "", nil,
			)
			assert.Equal(t, http.StatusUnauthorized, status)
		},
	)

	t.Run(
		"wrong token", func(t *testing.T) {
			status, _ := apiRequest(
				t, server, http.MethodGet, path, "not-the-secret", nil,
			)
			assert.Equal(t, http.StatusUnauthorized, status)
		},
	)

	t.Run(
		"valid token", func(t *testing.T) {
			status, _ := apiRequest(
				t, server, http.MethodGet, path, bot.config.API.Secret, nil,
			)
			assert.Equal(t, http.StatusOK, status)
		},
	)
}

func TestAPIAuthSecretUnset(t *testing.T) {
	bot := newTestBot(t)
	bot.config.API.Secret = ""
	server := newTestAPIServer(t, bot)

	// With no secret configured, authenticated routes refuse everything
	status, _ := apiRequest(
		t, server, http.MethodGet, apiPrefix+apiListReminders, "", nil,
	)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestAPIGetReminders(t *testing.T) {
	bot := newTestBot(t)
	ctx := context.Background()
	server := newTestAPIServer(t, bot)

	completedAt := time.Now().UTC()
	pending := &Reminder{
		UserID:    "user_a",
		ChannelID: "channel",
		Body:      "pending",
		DueAt:     time.Now().Add(time.Hour).UnixMilli(),
	}
	fired := &Reminder{
		UserID:      "user_a",
		ChannelID:   "channel",
		Body:        "fired",
		DueAt:       time.Now().Add(-time.Hour).UnixMilli(),
		Completed:   true,
		CompletedAt: &completedAt,
	}
	otherUser := &Reminder{
		UserID:    "user_b",
		ChannelID: "channel",
		Body:      "other",
		DueAt:     time.Now().Add(2 * time.Hour).UnixMilli(),
	}
	for _, r := range []*Reminder{pending, fired, otherUser} {
		_, err := bot.writeDB.Create(ctx, r)
		require.NoError(t, err)
	}

	t.Run(
		"all reminders due-ascending", func(t *testing.T) {
			status, body := apiRequest(
				t,
				server,
				http.MethodGet,
				apiPrefix+apiListReminders,
				bot.config.API.Secret,
				nil,
			)
			require.Equal(t, http.StatusOK, status)

			var reminders []Reminder
			require.NoError(t, json.Unmarshal(body, &reminders))
			require.Len(t, reminders, 3)
			assert.Equal(t, "fired", reminders[0].Body)
			assert.Equal(t, "pending", reminders[1].Body)
			assert.Equal(t, "other", reminders[2].Body)
		},
	)

	t.Run(
		"filter by user and completion", func(t *testing.T) {
			status, body := apiRequest(
				t,
				server,
				http.MethodGet,
				fmt.Sprintf(
					"%s%s?user_id=user_a&completed=false",
					apiPrefix,
					apiListReminders,
				),
				bot.config.API.Secret,
				nil,
			)
			require.Equal(t, http.StatusOK, status)

			var reminders []Reminder
			require.NoError(t, json.Unmarshal(body, &reminders))
			require.Len(t, reminders, 1)
			assert.Equal(t, "pending", reminders[0].Body)
		},
	)

	t.Run(
		"descending order", func(t *testing.T) {
			status, body := apiRequest(
				t,
				server,
				http.MethodGet,
				fmt.Sprintf(
					"%s%s?order=desc",
					apiPrefix,
					apiListReminders,
				),
				bot.config.API.Secret,
				nil,
			)
			require.Equal(t, http.StatusOK, status)

			var reminders []Reminder
			require.NoError(t, json.Unmarshal(body, &reminders))
			require.Len(t, reminders, 3)
			assert.Equal(t, "other", reminders[0].Body)
		},
	)
}

func TestAPIPauseResume(t *testing.T) {
	bot := newTestBot(t)
	server := newTestAPIServer(t, bot)
	secret := bot.config.API.Secret

	status, body := apiRequest(
		t, server, http.MethodPost, apiPrefix+apiPathPause, secret, nil,
	)
	require.Equal(t, http.StatusOK, status)
	var reply httpReply
	require.NoError(t, json.Unmarshal(body, &reply))
	assert.Equal(t, "bot paused", reply.Message)
	assert.True(t, bot.paused.Load())

	// Pausing an already-paused bot conflicts
	status, _ = apiRequest(
		t, server, http.MethodPost, apiPrefix+apiPathPause, secret, nil,
	)
	assert.Equal(t, http.StatusConflict, status)

	status, _ = apiRequest(
		t, server, http.MethodPost, apiPrefix+apiPathResume, secret, nil,
	)
	require.Equal(t, http.StatusOK, status)
	assert.False(t, bot.paused.Load())

	status, _ = apiRequest(
		t, server, http.MethodPost, apiPrefix+apiPathResume, secret, nil,
	)
	assert.Equal(t, http.StatusConflict, status)
}

func TestAPIUpdateUser(t *testing.T) {
	bot := newTestBot(t)
	ctx := context.Background()
	server := newTestAPIServer(t, bot)

	discordUser := newDiscordUser(t)
	u, _, err := bot.GetOrCreateUser(ctx, *discordUser)
	require.NoError(t, err)
	require.False(t, u.Ignored)

	status, body := apiRequest(
		t,
		server,
		http.MethodPatch,
		fmt.Sprintf("%s/user/%s", apiPrefix, u.ID),
		bot.config.API.Secret,
		[]byte(`{"ignored": true, "reminder_limit": 3}`),
	)
	require.Equal(t, http.StatusAccepted, status)

	var updated User
	require.NoError(t, json.Unmarshal(body, &updated))
	assert.True(t, updated.Ignored)
	assert.Equal(t, 3, updated.ReminderLimit)

	var reloaded User
	require.NoError(t, bot.db.First(&reloaded, "id = ?", u.ID).Error)
	assert.True(t, reloaded.Ignored)
	assert.Equal(t, 3, reloaded.ReminderLimit)
}

func TestAPIUpdateUserNotFound(t *testing.T) {
	bot := newTestBot(t)
	server := newTestAPIServer(t, bot)

	status, _ := apiRequest(
		t,
		server,
		http.MethodPatch,
		apiPrefix+"/user/does_not_exist",
		bot.config.API.Secret,
		[]byte(`{"ignored": true}`),
	)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAPIGetConfig(t *testing.T) {
	bot := newTestBot(t)
	server := newTestAPIServer(t, bot)

	status, body := apiRequest(
		t,
		server,
		http.MethodGet,
		apiPrefix+apiPathConfig,
		bot.config.API.Secret,
		nil,
	)
	require.Equal(t, http.StatusOK, status)

	var cfg RuntimeConfig
	require.NoError(t, json.Unmarshal(body, &cfg))
	assert.False(t, cfg.Paused)
	assert.Greater(t, cfg.UserReminderLimit, 0)
}
