package wompbot

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/gin-gonic/gin"
	"github.com/lmittmann/tint"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// DefaultTestConfig returns a Config suitable for testing: a sqlite
// database in a temp dir, placeholder tokens, and the API bound to a
// random localhost port.
func DefaultTestConfig(t testing.TB) *Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Database = filepath.Join(t.TempDir(), "wompbot_test.sqlite3")
	cfg.DatabaseType = dbTypeSQLite
	cfg.Discord.Token = fmt.Sprintf("token_%s", t.Name())
	cfg.Discord.ApplicationID = fmt.Sprintf("app_%s", t.Name())
	cfg.OpenAI.Token = fmt.Sprintf("openai_%s", t.Name())
	cfg.API.Listen = "127.0.0.1:0"
	cfg.API.Secret = fmt.Sprintf("secret_%s", t.Name())
	return cfg
}

// newTestBot creates a WompBot with an initialized sqlite database, a
// mock discord session and a mock OpenAI client. The bot is not
// running; command execution is exercised directly.
func newTestBot(t testing.TB) *WompBot {
	t.Helper()

	cfg := DefaultTestConfig(t)

	bot, err := New(cfg)
	require.NoError(t, err)

	db, err := CreateDB(context.Background(), cfg.DatabaseType, cfg.Database)
	require.NoError(t, err)
	t.Cleanup(
		func() {
			sqlDB, _ := db.DB()
			if sqlDB != nil {
				_ = sqlDB.Close()
			}
		},
	)

	bot.db = db
	bot.writeDB = NewDatabase(db, nil, false)

	runtimeCfg := DefaultRuntimeConfig()
	require.NoError(t, db.Create(&runtimeCfg).Error)
	bot.runtimeConfig = &runtimeCfg

	bot.discord.session = newMockDiscordSession()
	bot.openai.client = newMockOpenAIClient(t)

	return bot
}

// mockDiscordSession is a mock implementation of the
// DiscordSessionHandler interface. It logs actions instead of
// performing actual operations.
type mockDiscordSession struct {
	logger   *slog.Logger
	logLevel *slog.LevelVar
}

func newMockDiscordSession() mockDiscordSession {
	m := mockDiscordSession{
		logLevel: &slog.LevelVar{},
	}
	m.logLevel.Set(slog.LevelDebug)
	m.logger = slog.New(
		tint.NewHandler(
			os.Stdout, &tint.Options{
				Level:     m.logLevel,
				AddSource: true,
			},
		),
	).With(loggerNameKey, "mock_discord_session")
	return m
}

func (mockDiscordSession) Open() error  { return nil }
func (mockDiscordSession) Close() error { return nil }

func (m mockDiscordSession) ChannelMessageSend(
	channelID string,
	message string,
	_ ...discordgo.RequestOption,
) (*discordgo.Message, error) {
	m.logger.Info(
		"ChannelMessageSend called",
		"channel_id", channelID,
		"message", message,
	)
	return &discordgo.Message{}, nil
}

func (m mockDiscordSession) ChannelMessageSendReply(
	channelID string,
	content string,
	reference *discordgo.MessageReference,
	_ ...discordgo.RequestOption,
) (*discordgo.Message, error) {
	m.logger.Info(
		"ChannelMessageSendReply called",
		"channel_id", channelID,
		"content", content,
		"reference", reference,
	)
	return &discordgo.Message{}, nil
}

func (m mockDiscordSession) ApplicationCommandBulkOverwrite(
	_ string,
	_ string,
	commands []*discordgo.ApplicationCommand,
	_ ...discordgo.RequestOption,
) ([]*discordgo.ApplicationCommand, error) {
	m.logger.Info("ApplicationCommandBulkOverwrite called")
	return commands, nil
}

func (m mockDiscordSession) UpdateCustomStatus(status string) error {
	m.logger.Info("UpdateCustomStatus called", "status", status)
	return nil
}

func (m mockDiscordSession) UpdateStatusComplex(
	data discordgo.UpdateStatusData,
) error {
	m.logger.Info("UpdateStatusComplex called", "data", data)
	return nil
}

func (m mockDiscordSession) AddHandler(any) func() {
	return func() {}
}

func (m mockDiscordSession) InteractionRespond(
	_ *discordgo.Interaction,
	_ *discordgo.InteractionResponse,
	_ ...discordgo.RequestOption,
) error {
	return nil
}

func (m mockDiscordSession) InteractionResponse(
	_ *discordgo.Interaction,
	_ ...discordgo.RequestOption,
) (*discordgo.Message, error) {
	return &discordgo.Message{}, nil
}

func (m mockDiscordSession) InteractionResponseEdit(
	_ *discordgo.Interaction,
	_ *discordgo.WebhookEdit,
	_ ...discordgo.RequestOption,
) (*discordgo.Message, error) {
	return &discordgo.Message{}, nil
}

func (m mockDiscordSession) InteractionResponseDelete(
	_ *discordgo.Interaction,
	_ ...discordgo.RequestOption,
) error {
	return nil
}

func (m mockDiscordSession) SetHTTPClient(_ *http.Client) {}

func (m mockDiscordSession) SetIdentify(discordgo.Identify) {}

func (m mockDiscordSession) SetLogLevel(lvl slog.Level) error {
	m.logLevel.Set(lvl)
	return nil
}

func (m mockDiscordSession) GatewayBot(
	_ ...discordgo.RequestOption,
) (*discordgo.GatewayBotResponse, error) {
	return &discordgo.GatewayBotResponse{}, nil
}

type stubEdits struct {
	WebhookEdit *discordgo.WebhookEdit
	Opts        []discordgo.RequestOption
}

// stubInteractionHandler records interaction responses and edits on
// channels so tests can assert on what the user would have seen.
type stubInteractionHandler struct {
	GatewayHandler GatewayHandler

	callRespond chan *discordgo.InteractionResponse
	callEdit    chan *stubEdits
	callDelete  chan struct{}
	config      CommandOptions
}

func newStubInteractionHandler(
	t testing.TB,
	i *discordgo.InteractionCreate,
	config CommandOptions,
) stubInteractionHandler {
	t.Helper()
	return stubInteractionHandler{
		callRespond: make(chan *discordgo.InteractionResponse, 100),
		callEdit:    make(chan *stubEdits, 100),
		callDelete:  make(chan struct{}, 100),
		config:      config,
		GatewayHandler: GatewayHandler{
			session:     newMockDiscordSession(),
			interaction: i,
			mu:          &sync.RWMutex{},
			logger:      slog.Default().With("test_name", t.Name()),
		},
	}
}

func (s stubInteractionHandler) Config() CommandOptions {
	return s.config
}

func (s stubInteractionHandler) InteractionReceiveMethod() DiscordInteractionReceiveMethod {
	return DiscordInteractionReceiveMethod("testcase")
}

func (s stubInteractionHandler) Respond(
	_ context.Context,
	i *discordgo.InteractionResponse,
) error {
	s.callRespond <- i
	return nil
}

func (s stubInteractionHandler) GetResponse(context.Context) (
	*discordgo.Message,
	error,
) {
	return &discordgo.Message{}, nil
}

func (s stubInteractionHandler) Edit(
	ctx context.Context,
	e *discordgo.WebhookEdit,
	opts ...discordgo.RequestOption,
) (*discordgo.Message, error) {
	s.Logger().WarnContext(ctx, "edit called")
	s.callEdit <- &stubEdits{WebhookEdit: e, Opts: opts}
	return nil, nil
}

func (s stubInteractionHandler) Delete(
	ctx context.Context,
	_ ...discordgo.RequestOption,
) {
	s.Logger().WarnContext(ctx, "delete called")
	s.callDelete <- struct{}{}
}

func (s stubInteractionHandler) GetInteraction() *discordgo.InteractionCreate {
	return s.GatewayHandler.interaction
}

func (s stubInteractionHandler) Logger() *slog.Logger {
	return s.GatewayHandler.logger
}

// requireEditContent waits for an Edit call on the stub handler and
// returns its content, failing the test if none was recorded.
func requireEditContent(t testing.TB, handler stubInteractionHandler) string {
	t.Helper()
	select {
	case edit := <-handler.callEdit:
		require.NotNil(t, edit.WebhookEdit)
		require.NotNil(t, edit.WebhookEdit.Content)
		return *edit.WebhookEdit.Content
	default:
		t.Fatal("expected an interaction edit")
	}
	return ""
}

// mockOpenAIClient implements OpenAIClient with a canned response.
type mockOpenAIClient struct {
	t           testing.TB
	response    openai.ChatCompletionResponse
	returnError error
	requests    chan openai.ChatCompletionRequest
}

func newMockOpenAIClient(t testing.TB) *mockOpenAIClient {
	t.Helper()
	return &mockOpenAIClient{
		t: t,
		response: openai.ChatCompletionResponse{
			Model: DefaultOpenAIModel,
			Choices: []openai.ChatCompletionChoice{
				{
					Message: openai.ChatCompletionMessage{
						Role:    openai.ChatMessageRoleAssistant,
						Content: fmt.Sprintf("response_%s", t.Name()),
					},
				},
			},
			Usage: openai.Usage{
				PromptTokens:     5,
				CompletionTokens: 10,
				TotalTokens:      15,
			},
		},
		requests: make(chan openai.ChatCompletionRequest, 100),
	}
}

func (m *mockOpenAIClient) CreateChatCompletion(
	_ context.Context,
	request openai.ChatCompletionRequest,
) (openai.ChatCompletionResponse, error) {
	m.requests <- request
	if m.returnError != nil {
		return openai.ChatCompletionResponse{}, m.returnError
	}
	return m.response, nil
}

// newDiscordUser creates a new discordgo.User with the test name as
// the user ID, with the user ID also included in the username and
// global name
func newDiscordUser(t testing.TB) *discordgo.User {
	t.Helper()
	return &discordgo.User{
		ID:         t.Name(),
		Username:   fmt.Sprintf("u_%s", t.Name()),
		GlobalName: fmt.Sprintf("g_%s", t.Name()),
	}
}

func newChatInteraction(
	t testing.TB,
	u *discordgo.User,
	interactionID string,
	prompt string,
) *discordgo.InteractionCreate {
	t.Helper()
	if interactionID == "" {
		interactionID = fmt.Sprintf("interaction_%s", t.Name())
	}

	return &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			Type:    discordgo.InteractionApplicationCommand,
			ID:      interactionID,
			User:    u,
			Context: discordgo.InteractionContextBotDM,
			Data: discordgo.ApplicationCommandInteractionData{
				CommandType: discordgo.ChatApplicationCommand,
				Name:        DiscordSlashCommandChat,
				Options: []*discordgo.ApplicationCommandInteractionDataOption{
					{
						Name:  chatCommandQuestionOption,
						Type:  discordgo.ApplicationCommandOptionString,
						Value: prompt,
					},
				},
			},
		},
	}
}

// newRemindInteraction creates an interaction for the given /remind
// subcommand and its options.
func newRemindInteraction(
	t testing.TB,
	u *discordgo.User,
	subcommand string,
	options ...*discordgo.ApplicationCommandInteractionDataOption,
) *discordgo.InteractionCreate {
	t.Helper()

	return &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			Type:      discordgo.InteractionApplicationCommand,
			ID:        fmt.Sprintf("interaction_%s", t.Name()),
			User:      u,
			ChannelID: fmt.Sprintf("channel_%s", t.Name()),
			Context:   discordgo.InteractionContextBotDM,
			Data: discordgo.ApplicationCommandInteractionData{
				CommandType: discordgo.ChatApplicationCommand,
				Name:        DiscordSlashCommandRemind,
				Options: []*discordgo.ApplicationCommandInteractionDataOption{
					{
						Name:    subcommand,
						Type:    discordgo.ApplicationCommandOptionSubCommand,
						Options: options,
					},
				},
			},
		},
	}
}

func remindSetOptions(
	when string,
	what string,
	repeat bool,
) []*discordgo.ApplicationCommandInteractionDataOption {
	opts := []*discordgo.ApplicationCommandInteractionDataOption{
		{
			Name:  remindOptionWhen,
			Type:  discordgo.ApplicationCommandOptionString,
			Value: when,
		},
		{
			Name:  remindOptionWhat,
			Type:  discordgo.ApplicationCommandOptionString,
			Value: what,
		},
	}
	if repeat {
		opts = append(
			opts,
			&discordgo.ApplicationCommandInteractionDataOption{
				Name:  remindOptionRepeat,
				Type:  discordgo.ApplicationCommandOptionBoolean,
				Value: true,
			},
		)
	}
	return opts
}

func remindCancelOptions(id uint) []*discordgo.ApplicationCommandInteractionDataOption {
	return []*discordgo.ApplicationCommandInteractionDataOption{
		{
			Name:  remindOptionID,
			Type:  discordgo.ApplicationCommandOptionInteger,
			Value: float64(id),
		},
	}
}

// stubNotificationSink records deliveries, optionally returning an
// error to simulate delivery failure.
type stubNotificationSink struct {
	mu          sync.Mutex
	deliveries  []stubDelivery
	returnError error
}

type stubDelivery struct {
	ChannelID string
	Content   string
	Reference *discordgo.MessageReference
}

func (s *stubNotificationSink) Notify(
	_ context.Context,
	channelID string,
	content string,
	reference *discordgo.MessageReference,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deliveries = append(
		s.deliveries,
		stubDelivery{
			ChannelID: channelID,
			Content:   content,
			Reference: reference,
		},
	)
	return s.returnError
}

func (s *stubNotificationSink) delivered() []stubDelivery {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]stubDelivery, len(s.deliveries))
	copy(out, s.deliveries)
	return out
}
