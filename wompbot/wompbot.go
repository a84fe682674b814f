package wompbot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/lmittmann/tint"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

var (
	// When building, set these like:
	// -ldflags "-X github.com/wompRS/WompBot-Discord-sub002/wompbot.Version=$$(date +'%Y%m%d')"

	Version   = "dev"
	CommitSHA = "unknown"
	BuildTime = "unknown"
)

var defaultLogWriter io.Writer = os.Stdout

// WompBot is the main application struct, coordinating the Discord
// session, OpenAI integration, database, reminder delivery loop and
// backend API.
type WompBot struct {
	config *Config

	// Pointer to a read-only GORM connection. This is from an
	// overabundance of caution for using SQLite.
	db *gorm.DB

	// gorm.DB wrapper for write/update/delete operations.
	// The only difference between this and [WompBot.db]
	// is that, when using sqlite, a mutex is used. Otherwise,
	// just use [WompBot.db].
	writeDB DBI

	// Standard logger. Missing loggers will try to use this,
	// and fall back to slog.Default()
	logger *slog.Logger

	// Handler to use for the above
	logHandler slog.Handler

	// Handles discord integration, sessions
	discord *Discord

	// Handles OpenAI API integration
	openai *OpenAI

	// Provides the backend API
	api *API

	// Delivers due reminders and reschedules recurring ones
	reminderWorker *ReminderWorker

	// location is the zone all reminder time expression arithmetic
	// happens in
	location *time.Location

	// signalStop enables an explicit stop signal to be sent to the bot,
	// such as by the `/api/quit` endpoint
	signalStop chan struct{}

	// signalReady has a value sent on it once Run has finished
	// initializing and the bot is processing commands
	signalReady chan struct{}

	// A signal is sent on this channel when the
	// [WompBot.shutdown] function finishes
	eventShutdown chan struct{}

	// prevents Run from executing concurrently
	runMu sync.Mutex

	// If true, the bot will reject new slash commands. The reminder
	// delivery loop keeps running while paused.
	paused atomic.Bool

	// The time Run was called
	startedAt time.Time

	// getInteractionHandlerFunc should be a callable to be used
	// when an interaction is received, which returns an appropriate
	// InteractionHandler. This enables command execution to be tested
	// without a live discord session.
	getInteractionHandlerFunc func(
		ctx context.Context,
		i *discordgo.InteractionCreate,
	) InteractionHandler

	// Runtime-configurable settings - things you may want to
	// change without restarting the bot.
	runtimeConfig *RuntimeConfig

	// protecc the runtime config
	cfgMu sync.RWMutex

	chatCommandsInProgress   atomic.Int64
	remindCommandsInProgress atomic.Int64
}

// New creates and initializes a new WompBot instance from the given
// config. Run must be called on the returned bot to start processing.
func New(config *Config) (*WompBot, error) {
	var errs []error

	switch config.DatabaseType {
	case dbTypeSQLite, dbTypePostgres:
		//
	default:
		errs = append(
			errs,
			errors.New("invalid database type (must be 'sqlite' or 'postgres')"),
		)
	}

	if config.HTTPClient == nil {
		config.HTTPClient = http.DefaultClient
	}

	b := &WompBot{
		config:        config,
		signalReady:   make(chan struct{}, 1),
		eventShutdown: make(chan struct{}, 1),
		location:      time.Local,
	}

	if config.Reminders != nil && config.Reminders.Timezone != "" {
		loc, locErr := time.LoadLocation(config.Reminders.Timezone)
		if locErr != nil {
			errs = append(
				errs,
				fmt.Errorf("invalid reminder timezone: %w", locErr),
			)
		} else {
			b.location = loc
		}
	}

	b.logHandler = tint.NewHandler(
		defaultLogWriter, &tint.Options{
			Level:     b.config.LogLevel,
			AddSource: true,
		},
	)

	b.logger = slog.New(b.logHandler)
	slog.SetDefault(b.logger)

	b.openai = newOpenAI(b, nil)

	b.config.Discord.httpClient = b.config.HTTPClient

	disc, err := newDiscord(b.config.Discord)
	if err != nil {
		errs = append(errs, err)
	}

	discordgo.Logger = discordgoLoggerFunc(
		context.Background(),
		tint.NewHandler(
			defaultLogWriter, &tint.Options{
				Level:     b.config.Discord.DiscordGoLogLevel,
				AddSource: true,
			},
		).WithAttrs([]slog.Attr{slog.String(loggerNameKey, "discordgo")}),
	)

	disc.logger = slog.New(
		tint.NewHandler(
			defaultLogWriter, &tint.Options{
				Level:     b.config.Discord.LogLevel,
				AddSource: true,
			},
		),
	).With(loggerNameKey, "discord")

	b.discord = disc
	disc.bot = b

	api, err := newAPI(b, config.API)
	errs = append(errs, err)
	b.api = api

	return b, errors.Join(errs...)
}

func (b *WompBot) ValidateConfig() error {
	return structValidator.Struct(b.config)
}

// RuntimeConfig returns a copy of the current runtime configuration
func (b *WompBot) RuntimeConfig() RuntimeConfig {
	b.cfgMu.RLock()
	defer b.cfgMu.RUnlock()
	if b.runtimeConfig == nil {
		return DefaultRuntimeConfig()
	}
	return *b.runtimeConfig
}

// now returns the current time in the configured reminder zone.
func (b *WompBot) now() time.Time {
	return time.Now().In(b.location)
}

func (b *WompBot) getLogger(ctx context.Context) (
	context.Context,
	*slog.Logger,
) {
	logger, ok := ContextLogger(ctx)
	if logger == nil || !ok {
		logger = b.logger
		ctx = WithLogger(ctx, logger)
	}
	return ctx, logger
}

// RegisterSlashCommands registers the bot's slash commands with the
// Discord API.
func (b *WompBot) RegisterSlashCommands(options ...discordgo.RequestOption) (
	[]*discordgo.ApplicationCommand,
	error,
) {
	return b.discord.registerCommands(b.RuntimeConfig(), options...)
}

// Run starts the bot: it initializes the database, opens the discord
// session, starts the API server and the reminder delivery loop, then
// blocks until the context is cancelled or a stop signal arrives.
func (b *WompBot) Run(ctx context.Context) error {
	// prevents concurrent runs
	b.runMu.Lock()
	defer b.runMu.Unlock()

	b.signalStop = make(chan struct{}, 1)
	b.startedAt = time.Now()
	logger := b.logger

	if err := b.ValidateConfig(); err != nil {
		logger.Error("invalid config", tint.Err(err))
		return err
	}

	ctx = WithLogger(ctx, logger)
	logger.LogAttrs(ctx, slog.LevelInfo, "starting", slog.Any("config", b.config))

	if b.signalReady == nil {
		b.signalReady = make(chan struct{}, 1)
	}

	// this is the 'runtime' context, which triggers a graceful shutdown
	// when canceled
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	runtimeWG := &sync.WaitGroup{}

	go func() {
		select {
		case <-b.signalStop:
			b.logger.Warn("got stop signal, canceling")
			cancel()
		case <-ctx.Done():
			b.logger.Warn("context canceled, sending stop signal")
			b.signalStop <- struct{}{}
			return
		}
	}()

	go func() {
		httpErr := b.api.Serve(ctx)
		if httpErr != nil && !errors.Is(httpErr, http.ErrServerClosed) {
			b.logger.ErrorContext(ctx, "error serving api HTTP", tint.Err(httpErr))
		}
	}()

	startCtx, startCancel := context.WithTimeout(ctx, b.config.StartupTimeout)
	defer startCancel()

	initErr := make(chan error, 1)
	go func() {
		initErr <- b.initRun(startCtx)
	}()

	select {
	case <-startCtx.Done():
		return fmt.Errorf("startup cancelled or timed out")
	case err := <-initErr:
		if err != nil {
			logger.ErrorContext(ctx, "init error", tint.Err(err))
			return err
		}
	}

	if discErr := b.initDiscordSession(ctx, runtimeWG); discErr != nil {
		b.logger.ErrorContext(ctx, "error creating discord session", tint.Err(discErr))
		return discErr
	}

	b.logger.InfoContext(ctx, "connecting to discord")
	if err := b.discord.session.Open(); err != nil {
		logger.ErrorContext(ctx, "error connecting to discord!", tint.Err(err))
		return fmt.Errorf("error connecting to discord: %w", err)
	}

	if _, err := b.RegisterSlashCommands(); err != nil {
		return fmt.Errorf("error registering slash commands: %w", err)
	}

	runtimeCfg := b.RuntimeConfig()
	if runtimeCfg.DiscordCustomStatus != "" && !b.paused.Load() {
		go func() {
			if statusErr := b.discord.updateCustomStatus(
				runtimeCfg.DiscordCustomStatus,
			); statusErr != nil {
				logger.Error("error updating discord status", tint.Err(statusErr))
			}
		}()
	}

	b.reminderWorker = newReminderWorker(
		b.writeDB,
		b.discord,
		b.logger,
		b.config.Reminders.PollInterval,
		b.now,
	)
	runtimeWG.Add(1)
	go func() {
		defer runtimeWG.Done()
		b.reminderWorker.Run(ctx)
	}()

	b.signalReady <- struct{}{}
	b.logger.InfoContext(ctx, "sent ready signal")

	<-ctx.Done()

	return b.shutdown(runtimeWG)
}

// initRun initializes the database and loads (or creates) the persisted
// runtime configuration. Loading the persisted paused state avoids the
// bot restarting into an active state after a crash while paused.
func (b *WompBot) initRun(ctx context.Context) error {
	if err := b.initDB(ctx); err != nil {
		return fmt.Errorf("error initializing database: %w", err)
	}

	var botState RuntimeConfig

	getStateErr := b.db.Last(&botState).Error
	if getStateErr != nil {
		if errors.Is(getStateErr, gorm.ErrRecordNotFound) {
			botState = DefaultRuntimeConfig()
			if _, err := b.writeDB.Create(ctx, &botState); err != nil {
				return fmt.Errorf("error creating config: %w", err)
			}
		} else {
			return fmt.Errorf("error getting config: %w", getStateErr)
		}
	}
	if validationErr := structValidator.Struct(botState); validationErr != nil {
		return fmt.Errorf("invalid runtime config: %w", validationErr)
	}

	b.paused.Store(botState.Paused)
	b.setRuntimeLevels(botState)
	b.runtimeConfig = &botState

	return nil
}

func (b *WompBot) initDB(ctx context.Context) error {
	handler := tint.NewHandler(
		defaultLogWriter, &tint.Options{
			Level:     b.config.DatabaseLogLevel,
			AddSource: true,
		},
	)

	gormLogger := newGORMLogger(handler, b.config.DatabaseSlowThreshold)
	db, err := getDB(b.config.DatabaseType, b.config.Database, gormLogger)
	if err != nil {
		return fmt.Errorf("error opening database: %w", err)
	}

	b.db = db
	b.writeDB = NewDatabase(db, nil, b.config.DatabaseType == dbTypePostgres)

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("error getting database connection: %w", err)
	}

	if b.config.DatabaseType == dbTypeSQLite {
		sqlDB.SetMaxOpenConns(sqliteMaxOpenConns)
		sqlDB.SetMaxIdleConns(sqliteMaxIdleConns)
		sqlDB.SetConnMaxLifetime(sqliteMaxConnLifetime)
		pragmaErrors := make([]error, 0, len(sqliteExecPragma))
		for _, pragma := range sqliteExecPragma {
			if execErr := db.Exec(pragma).Error; execErr != nil {
				pragmaErrors = append(pragmaErrors, execErr)
			}
		}
		if err = errors.Join(pragmaErrors...); err != nil {
			return err
		}
	}

	txn := db.WithContext(ctx).Begin()
	if err = txn.Migrator().AutoMigrate(
		&User{},
		&Reminder{},
		&RemindCommand{},
		&ChatCommand{},
		&RuntimeConfig{},
		&InteractionLog{},
	); err != nil {
		return fmt.Errorf("error migrating database: %w", err)
	}
	if commitErr := txn.Commit().Error; commitErr != nil {
		return commitErr
	}

	b.writeDB.UserCacheLock()
	defer b.writeDB.UserCacheUnlock()
	_ = b.writeDB.LoadUsers()

	return nil
}

func (b *WompBot) initDiscordSession(
	ctx context.Context,
	runtimeWG *sync.WaitGroup,
) error {
	logger := b.logger.With(loggerNameKey, "discord_session")

	if b.discord.session == nil {
		disc, discErr := b.discord.newSession()
		if discErr != nil {
			return fmt.Errorf("error creating discord session: %w", discErr)
		}
		b.discord.session = disc
	}

	ctx = WithLogger(ctx, logger)

	if len(b.discord.discordgoRemoveHandlerFuncs) > 0 {
		for _, h := range b.discord.discordgoRemoveHandlerFuncs {
			h()
		}
	}

	identify := discordgo.Identify{Intents: b.config.Discord.GatewayIntents}
	identify.Presence = getDiscordPresenceStatusUpdate(b.RuntimeConfig())
	if b.paused.Load() {
		identify.Presence = discordgo.GatewayStatusUpdate{
			AFK:    true,
			Status: string(discordgo.StatusDoNotDisturb),
		}
	}
	b.discord.session.SetIdentify(identify)

	b.discord.discordgoRemoveHandlerFuncs = []func(){
		b.discord.session.AddHandler(b.discord.handlerConnect()),
		b.discord.session.AddHandler(b.discord.handlerDisconnect()),
		b.discord.session.AddHandler(b.discord.handlerReady()),
		b.discord.session.AddHandler(
			func(
				_ *discordgo.Session,
				i *discordgo.InteractionCreate,
			) {
				handler := b.getInteractionHandlerFunc(ctx, i)
				runtimeWG.Add(1)
				go func() {
					defer runtimeWG.Done()
					b.handleInteraction(ctx, handler)
				}()
			},
		),
	}

	if b.getInteractionHandlerFunc == nil {
		b.getInteractionHandlerFunc = func(
			_ context.Context,
			i *discordgo.InteractionCreate,
		) InteractionHandler {
			handler := GatewayHandler{
				session:     b.discord.session,
				interaction: i,
				config:      b.RuntimeConfig().CommandOptions,
				mu:          &sync.RWMutex{},
				logger: b.logger.With(
					slog.Group(
						"interaction",
						interactionLogAttrs(*i)...,
					),
				),
			}
			return handler
		}
	}
	return nil
}

// setRuntimeLevels sets the logging levels and request limits for
// various components based on the provided runtime configuration.
func (b *WompBot) setRuntimeLevels(state RuntimeConfig) {
	b.config.LogLevel.Set(state.LogLevel.Level())
	b.config.OpenAI.LogLevel.Set(state.OpenAILogLevel.Level())
	b.config.Discord.LogLevel.Set(state.DiscordLogLevel.Level())
	b.config.API.LogLevel.Set(state.APILogLevel.Level())
	b.config.Discord.DiscordGoLogLevel.Set(state.DiscordGoLogLevel.Level())
	b.config.DatabaseLogLevel.Set(state.DatabaseLogLevel.Level())
	b.openai.setMaxRequestsPerSecond(state.OpenAIMaxRequestsPerSecond)
}

// Pause 'pauses' the bot. While paused, slash commands are rejected,
// but due reminders are still delivered.
func (b *WompBot) Pause(ctx context.Context) bool {
	prev := b.paused.Swap(true)
	if prev {
		return false
	}

	if err := b.discord.updateStatusComplex(
		discordgo.UpdateStatusData{
			AFK:    true,
			Status: string(discordgo.StatusDoNotDisturb),
		},
	); err != nil {
		b.logger.ErrorContext(ctx, "unable to update afk status", tint.Err(err))
	}
	if !b.RuntimeConfig().Paused {
		if _, err := b.writeDB.Update(
			ctx,
			b.runtimeConfig,
			columnRuntimeConfigPaused,
			true,
		); err != nil {
			b.logger.ErrorContext(ctx, "unable to set paused in db", tint.Err(err))
		}
	}
	return true
}

// Resume resumes command processing. It returns a bool indicating whether
// the bot was paused at the time the function was called.
func (b *WompBot) Resume(ctx context.Context) bool {
	prev := b.paused.Swap(false)
	if !prev {
		b.logger.Warn("bot not paused")
		return false
	}
	b.logger.InfoContext(ctx, "bot resumed")

	if err := b.discord.updateCustomStatus(
		b.RuntimeConfig().DiscordCustomStatus,
	); err != nil {
		b.logger.ErrorContext(ctx, "unable to update online status", tint.Err(err))
	}

	if b.RuntimeConfig().Paused {
		if _, err := b.writeDB.Update(
			ctx,
			b.runtimeConfig,
			columnRuntimeConfigPaused,
			false,
		); err != nil {
			b.logger.ErrorContext(ctx, "unable to set resumed in db", tint.Err(err))
		}
	}

	return true
}

func (b *WompBot) GetOrCreateUser(
	ctx context.Context,
	u discordgo.User,
) (*User, bool, error) {
	return b.writeDB.GetOrCreateUser(ctx, b, u)
}

// handleInteraction processes an incoming Discord interaction: it logs
// the interaction, acknowledges application commands with a deferred
// response, and dispatches to the matching command's execute method.
func (b *WompBot) handleInteraction(
	ctx context.Context,
	handler InteractionHandler,
) {
	i := handler.GetInteraction()
	logger := handler.Logger()

	discordUser := getDiscordUser(i)
	if discordUser == nil {
		logger.ErrorContext(
			ctx,
			"no user found in interaction",
			"interaction", structToSlogValue(i),
		)
		return
	}

	logger = logger.With(slog.Group("interaction", interactionLogAttrs(*i)...))
	ctx = WithLogger(ctx, logger)
	logger.InfoContext(ctx, "received new interaction", "user", structToSlogValue(discordUser))

	interactionLog, err := newInteractionLog(i, discordUser, handler)
	if err != nil {
		logger.ErrorContext(ctx, "error marshaling interaction", tint.Err(err))
	}

	wg := &sync.WaitGroup{}
	defer wg.Wait()

	if interactionLog != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, createErr := b.writeDB.Create(ctx, interactionLog); createErr != nil {
				logger.ErrorContext(ctx, "error logging interaction", tint.Err(createErr))
			}
		}()
	}

	if discordUser.Bot {
		logger.WarnContext(ctx, "user is bot, ignoring", "user", discordUser)
		return
	}

	switch i.Type {
	case discordgo.InteractionPing:
		_ = handler.Respond(
			ctx, &discordgo.InteractionResponse{
				Type: discordgo.InteractionResponsePong,
			},
		)
	case discordgo.InteractionApplicationCommand:
		b.handleApplicationCommand(ctx, handler, i, discordUser)
	default:
		logger.WarnContext(
			ctx,
			"unsupported interaction type",
			"type", i.Type.String(),
		)
	}
}

func (b *WompBot) handleApplicationCommand(
	ctx context.Context,
	handler InteractionHandler,
	i *discordgo.InteractionCreate,
	discordUser *discordgo.User,
) {
	logger := handler.Logger()
	commandName := i.ApplicationCommandData().Name

	u, _, err := b.GetOrCreateUser(ctx, *discordUser)
	if err != nil {
		logger.ErrorContext(ctx, "error getting user", tint.Err(err))
		return
	}

	logger = logger.With("user", u)

	if u.Ignored || b.paused.Load() {
		b.handleIgnoredUserCommand(ctx, handler, u, i)
		return
	}

	if ackErr := handler.Respond(ctx, b.discord.ackResponse(commandName)); ackErr != nil {
		logger.ErrorContext(ctx, "error acknowledging interaction", tint.Err(ackErr))
		return
	}

	config := handler.Config()
	if config.RecoverPanic {
		defer func() {
			if rc := recover(); rc != nil {
				b.handleRecover(ctx, rc)
			}
		}()
	}

	switch commandName {
	case DiscordSlashCommandRemind:
		cmd := NewUserRemindCommand(b, u, i)
		cmd.handler = handler
		if _, dbErr := b.writeDB.Create(ctx, cmd); dbErr != nil {
			logger.ErrorContext(ctx, "error creating remind command", tint.Err(dbErr))
			_, _ = handler.Edit(
				ctx,
				&discordgo.WebhookEdit{Content: &config.DiscordErrorMessage},
			)
			return
		}
		_ = cmd.execute(ctx, b)
	case DiscordSlashCommandChat:
		cmd := NewChatCommand(b, u, i)
		cmd.handler = handler
		if _, dbErr := b.writeDB.Create(ctx, cmd); dbErr != nil {
			logger.ErrorContext(ctx, "error creating chat command", tint.Err(dbErr))
			_, _ = handler.Edit(
				ctx,
				&discordgo.WebhookEdit{Content: &config.DiscordErrorMessage},
			)
			return
		}
		_ = cmd.execute(ctx, b)
	default:
		logger.WarnContext(ctx, "unknown command", "command", commandName)
	}
}

// handleIgnoredUserCommand records a command from an ignored user, or a
// command received while the bot is paused, without executing it.
func (b *WompBot) handleIgnoredUserCommand(
	ctx context.Context,
	handler InteractionHandler,
	u *User,
	i *discordgo.InteractionCreate,
) {
	logger := handler.Logger()
	commandName := i.ApplicationCommandData().Name
	logger.InfoContext(
		ctx,
		"handling ignored user interaction",
		"command_name", commandName,
		"user", u,
	)
	switch commandName {
	case DiscordSlashCommandChat:
		cmd := NewChatCommand(b, u, i)
		cmd.handler = handler
		cmd.State = ChatCommandStateIgnored
		if _, e := b.writeDB.Create(ctx, cmd); e != nil {
			logger.ErrorContext(ctx, "error saving chat_command record", tint.Err(e))
		}
	case DiscordSlashCommandRemind:
		cmd := NewUserRemindCommand(b, u, i)
		cmd.handler = handler
		cmd.State = RemindCommandStateIgnored
		if _, e := b.writeDB.Create(ctx, cmd); e != nil {
			logger.ErrorContext(ctx, "error saving remind_command record", tint.Err(e))
		}
	}
}

// handleRecover handles the recovery from a panic while executing a
// slash command. Only used when [CommandOptions.RecoverPanic] is enabled.
func (b *WompBot) handleRecover(ctx context.Context, rc any) {
	logger, ok := ContextLogger(ctx)
	if logger == nil || !ok {
		logger = b.logger
	}
	stackTrace := string(debug.Stack())
	switch v := rc.(type) {
	case error:
		logger.ErrorContext(
			ctx,
			"recovered from panic",
			tint.Err(v),
			"stack_trace", stackTrace,
		)
	case string:
		logger.ErrorContext(
			ctx,
			"recovered from panic",
			tint.Err(errors.New(v)),
			"stack_trace", stackTrace,
		)
	default:
		logger.ErrorContext(
			ctx,
			"recovered from panic",
			"panic_arg", rc,
			"stack_trace", stackTrace,
		)
	}
}

func (b *WompBot) shutdown(runtimeWG *sync.WaitGroup) error {
	b.logger.Warn("shutting down")
	defer func() {
		if b.eventShutdown != nil {
			go func() {
				b.eventShutdown <- struct{}{}
			}()
		}
	}()

	shutdownStart := time.Now()
	shutdownTimeout := b.config.ShutdownTimeout
	if shutdownTimeout <= 0 {
		b.logger.Warn("immediate shutdown")
		if b.api != nil && b.api.httpServer != nil {
			go func() {
				_ = b.api.httpServer.Close()
			}()
		}
		if b.discord.session != nil {
			_ = b.discord.session.Close()
		}
		return nil
	}

	closeCtx, closeCancel := context.WithDeadline(
		context.Background(),
		shutdownStart.Add(shutdownTimeout),
	)
	defer closeCancel()

	closers := &errgroup.Group{}
	if b.discord.session != nil {
		closers.Go(
			func() error {
				return b.discord.session.Close()
			},
		)
	}
	if b.api != nil && b.api.httpServer != nil {
		closers.Go(
			func() error {
				return b.api.httpServer.Shutdown(closeCtx)
			},
		)
	}
	if closeErr := closers.Wait(); closeErr != nil {
		b.logger.Error("error closing connections", tint.Err(closeErr))
	}

	done := make(chan struct{}, 1)
	go func() {
		runtimeWG.Wait()
		done <- struct{}{}
	}()

	select {
	case <-done:
		b.logger.Info(
			"finished handling in-flight requests",
			"shutdown_duration", time.Since(shutdownStart),
		)
		return nil
	case <-closeCtx.Done():
		b.logger.Warn("in-flight requests did not stop in time, forcing close")
		if b.api != nil && b.api.httpServer != nil {
			go func() {
				_ = b.api.httpServer.Close()
			}()
		}
		return errors.New("shutdown timed out waiting on in-flight requests")
	}
}
