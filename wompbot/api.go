package wompbot

import (
	"context"
	"crypto/subtle"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	ginPprof "github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/lmittmann/tint"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

const (
	pprofPrefix             = "/debug"
	apiPrefix               = "/api"
	apiPathPause            = "/pause"
	apiPathResume           = "/resume"
	apiPathQuit             = "/quit"
	apiPathUpdateUser       = "/user/:id"
	apiPathUsers            = "/users"
	apiPathRegisterCommands = "/discord/register_commands"
	apiHealthCheck          = "/healthz"
	apiPathConfig           = "/config"
	apiListChatCommands     = "/chat_commands"
	apiListReminders        = "/reminders"
)

const (
	xRequestIDHeader = "X-Request-ID"
	bearerPrefix     = "Bearer "
)

var (
	structValidator = validator.New()
)

var (
	Ascending  Sort = "asc"
	Descending Sort = "desc"
)

// API provides the backend HTTP API: health checks, reminder and chat
// command history, user management, runtime configuration and bot
// lifecycle (pause/resume/quit). All routes under /api require the
// configured bearer token.
type API struct {
	config           *APIConfig
	httpServer       *http.Server
	listener         net.Listener
	engine           *gin.Engine
	quitLimiter      *rate.Limiter
	requestMetrics   map[string]int
	requestMetricsMu sync.Mutex
	logger           *slog.Logger

	handlers *APIHandlers
}

// newAPI initializes the API server: gin engine, routes, middleware
// and (optionally) TLS.
func newAPI(b *WompBot, config *APIConfig) (*API, error) {
	setupLogger := slog.New(
		tint.NewHandler(
			os.Stdout, &tint.Options{
				Level:     config.LogLevel,
				AddSource: true,
			},
		),
	)

	r := gin.New()

	api := &API{
		config:         config,
		engine:         r,
		requestMetrics: map[string]int{},
		quitLimiter:    rate.NewLimiter(rate.Limit(1), 1),
	}
	api.handlers = &APIHandlers{
		b:      b,
		logger: setupLogger.With(loggerNameKey, "api"),
	}

	var tlsCfg *tls.Config
	if config.SSL.Cert != "" {
		cfg, e := tlsConfig(
			config.SSL.Cert,
			config.SSL.Key,
			config.SSL.TLSMinVersion,
		)
		if e != nil {
			return nil, fmt.Errorf("error loading SSL certs: %w", e)
		}
		tlsCfg = cfg
	}

	httpServer := &http.Server{
		Addr:              config.Listen,
		Handler:           r,
		TLSConfig:         tlsCfg,
		WriteTimeout:      config.WriteTimeout,
		IdleTimeout:       config.IdleTimeout,
		ReadTimeout:       config.ReadTimeout,
		ReadHeaderTimeout: config.ReadHeaderTimeout,
	}
	api.httpServer = httpServer
	api.logger = setupLogger.With(loggerNameKey, "api")

	corsConfig := config.CORS.GINConfig()
	if len(corsConfig.AllowOrigins) == 0 && b.config.Development {
		// Credentials can't be combined with a wildcard origin
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	}

	if !b.config.Development {
		r.Use(gin.Recovery())
	}
	r.Use(
		requestIDMiddleware(),
		ginLoggingMiddleware(),
		metricMiddleware(api),
	)
	if corsConfig.AllowAllOrigins || len(corsConfig.AllowOrigins) > 0 {
		r.Use(cors.New(corsConfig))
	}

	r.GET(apiHealthCheck, api.handlers.healthCheck)

	if b.config.Development {
		ginPprof.Register(r, pprofPrefix)
	}

	protected := r.Group(apiPrefix)
	protected.Use(bearerAuthMiddleware(b))

	protected.GET(apiListReminders, api.handlers.getReminders)
	protected.GET(apiListChatCommands, api.handlers.getChatCommands)
	protected.GET(apiPathUsers, api.handlers.getUsers)
	protected.PATCH(apiPathUpdateUser, api.handlers.updateUser)
	protected.GET(apiPathConfig, api.handlers.getConfig)
	protected.PATCH(apiPathConfig, api.handlers.updateRuntimeConfig)
	protected.POST(apiPathPause, api.handlers.botPause)
	protected.POST(apiPathResume, api.handlers.botResume)
	protected.POST(apiPathQuit, api.handlers.botQuit)
	protected.POST(apiPathRegisterCommands, api.handlers.discordRegisterCommands)

	return api, nil
}

func (a *API) Serve(ctx context.Context) error {
	if a.listener != nil {
		return a.httpServer.Serve(a.listener)
	}
	listenCfg := &net.ListenConfig{}
	ln, e := listenCfg.Listen(ctx, a.config.ListenNetwork, a.config.Listen)
	if e != nil {
		return e
	}
	if a.httpServer.TLSConfig != nil {
		ln = tls.NewListener(ln, a.httpServer.TLSConfig)
	}
	a.listener = ln
	return a.httpServer.Serve(a.listener)
}

// APIHandlers contains the handlers for the various API endpoints.
type APIHandlers struct {
	b      *WompBot
	logger *slog.Logger
}

func (h *APIHandlers) healthCheck(c *gin.Context) {
	c.JSON(
		http.StatusOK, healthCheckResponse{
			Paused:                   h.b.paused.Load(),
			DiscordGatewayConnected:  h.b.discord.connected.Load(),
			ChatCommandsInProgress:   h.b.chatCommandsInProgress.Load(),
			RemindCommandsInProgress: h.b.remindCommandsInProgress.Load(),
		},
	)
}

// getReminders handles the HTTP GET request to retrieve reminders.
//
// It supports pagination and filtering by user ID and completion state,
// ordered by due timestamp.
func (h *APIHandlers) getReminders(c *gin.Context) {
	var pagination GetRemindersQuery
	if err := c.ShouldBindQuery(&pagination); err != nil {
		c.JSON(http.StatusBadRequest, httpError{Error: "invalid pagination"})
		return
	}

	if pagination.Order == "" {
		pagination.Order = Ascending
	}
	if pagination.Limit == 0 {
		pagination.Limit = 25
	}

	log := ginContextLogger(c)

	var reminders []Reminder

	query := h.b.db.Model(&Reminder{}).Limit(pagination.Limit).Offset(pagination.Offset)

	if pagination.UserID != "" {
		query = query.Where("user_id = ?", pagination.UserID)
	}
	if pagination.Completed != nil {
		query = query.Where("completed = ?", *pagination.Completed)
	}

	switch pagination.Order {
	case Descending:
		query = query.Order("due_at desc")
	default:
		query = query.Order("due_at asc")
	}

	if err := query.Find(&reminders).Error; err != nil {
		log.ErrorContext(
			c.Request.Context(),
			"error getting reminders",
			tint.Err(err),
		)
		c.JSON(
			http.StatusInternalServerError,
			httpError{Error: "error getting reminders"},
		)
		return
	}

	c.JSON(http.StatusOK, reminders)
}

// getChatCommands handles the HTTP GET request to retrieve a list of
// chat commands.
//
// It supports pagination and filtering by user ID, start date and end
// date, sorted by creation date.
func (h *APIHandlers) getChatCommands(c *gin.Context) {
	var pagination GetChatCommandsQuery
	if err := c.ShouldBindQuery(&pagination); err != nil {
		c.JSON(http.StatusBadRequest, httpError{Error: "invalid pagination"})
		return
	}

	if pagination.Order == "" {
		pagination.Order = Descending
	}
	if pagination.Limit == 0 {
		pagination.Limit = 25
	}

	log := ginContextLogger(c)

	var chatCommands []ChatCommand

	query := h.b.db.Model(&ChatCommand{}).Preload(
		"User",
	).Limit(pagination.Limit).Offset(pagination.Offset)

	if pagination.UserID != "" {
		query = query.Where("user_id = ?", pagination.UserID)
	}

	if pagination.StartDate != "" {
		startDate, err := time.Parse("2006-01-02", pagination.StartDate)
		if err != nil {
			c.JSON(
				http.StatusBadRequest,
				httpError{Error: "invalid start_date format"},
			)
			return
		}
		query = query.Where("created_at >= ?", startDate.UnixMilli())
	}

	if pagination.EndDate != "" {
		endDate, err := time.Parse("2006-01-02", pagination.EndDate)
		if err != nil {
			c.JSON(
				http.StatusBadRequest,
				httpError{Error: "invalid end_date format"},
			)
			return
		}
		// Add one day to include the entire end date
		endDate = endDate.Add(24 * time.Hour)
		query = query.Where("created_at < ?", endDate.UnixMilli())
	}

	switch pagination.Order {
	case Descending:
		query = query.Order("created_at desc")
	default:
		query = query.Order("created_at asc")
	}

	if err := query.Find(&chatCommands).Error; err != nil {
		log.ErrorContext(
			c.Request.Context(),
			"error getting chat commands",
			tint.Err(err),
		)
		c.JSON(
			http.StatusInternalServerError,
			httpError{Error: "error getting chat commands"},
		)
		return
	}

	c.JSON(http.StatusOK, chatCommands)
}

func (h *APIHandlers) getUsers(c *gin.Context) {
	var pagination GetUsersQuery
	if c.ShouldBindQuery(&pagination) != nil {
		c.JSON(http.StatusBadRequest, httpError{Error: "invalid pagination"})
		return
	}

	if pagination.Order == "" {
		pagination.Order = Ascending
	}
	if pagination.Limit == 0 {
		pagination.Limit = 25
	}

	log := ginContextLogger(c)

	var users []User

	var err error
	switch pagination.Order {
	case Descending:
		err = h.b.db.Limit(pagination.Limit).Offset(pagination.Offset).Order("id desc").Find(&users).Error
	default:
		err = h.b.db.Limit(pagination.Limit).Offset(pagination.Offset).Order("id asc").Find(&users).Error
	}
	if err != nil {
		log.Error("error getting users", tint.Err(err))
		c.JSON(http.StatusInternalServerError, httpError{Error: "error getting users"})
		return
	}

	c.JSON(http.StatusOK, users)
}

// updateUser handles the HTTP PATCH request to update a user. Any non-nil
// field in the payload is applied.
func (h *APIHandlers) updateUser(c *gin.Context) {
	log := ginContextLogger(c)

	var update apiPatchUser
	if err := c.ShouldBindJSON(&update); err != nil {
		log.Warn("bad request", tint.Err(err))
		c.JSON(http.StatusBadRequest, httpError{Error: err.Error()})
		return
	}
	userID := c.Param("id")
	user := h.b.writeDB.GetUser(userID)
	if user == nil {
		log.Warn("User not found", columnUserID, userID)
		c.JSON(http.StatusNotFound, httpError{Error: "User not found"})
		return
	}

	updateContent, err := json.Marshal(update)
	if err != nil {
		log.Error("error marshaling update request", tint.Err(err))
		c.JSON(http.StatusInternalServerError, httpError{Error: "error marshaling update request"})
		return
	}

	var updateData map[string]any
	if err = json.Unmarshal(updateContent, &updateData); err != nil {
		log.Error("error unmarshalling update request", tint.Err(err))
		c.JSON(
			http.StatusInternalServerError,
			httpError{Error: "error unmarshalling update request"},
		)
		return
	}

	if len(updateData) == 0 {
		c.JSON(http.StatusAccepted, user)
		return
	}

	log.Info("updating user", "user", user, "updates", updateData)

	ctx, cancel := context.WithTimeout(context.Background(), dbOperationTimeout)
	defer cancel()

	if _, err = h.b.writeDB.Updates(ctx, user, updateData); err != nil {
		log.Error("error updating user", columnUserID, userID, tint.Err(err))
		_ = h.b.writeDB.ReloadUser(userID)
		c.JSON(http.StatusInternalServerError, httpError{Error: "error updating User"})
		return
	}
	c.JSON(http.StatusAccepted, h.b.writeDB.ReloadUser(userID))
}

func (h *APIHandlers) getConfig(c *gin.Context) {
	c.JSON(http.StatusOK, h.b.RuntimeConfig())
}

// updateRuntimeConfig handles the HTTP PATCH request to update the
// runtime configuration. Updates are applied in a transaction and
// rolled back if the resulting config fails validation. On success,
// log levels and the OpenAI request limit are applied immediately.
func (h *APIHandlers) updateRuntimeConfig(c *gin.Context) {
	b := h.b
	b.cfgMu.Lock()
	defer b.cfgMu.Unlock()

	var updateRequest RuntimeConfigUpdate
	logger := ginContextLogger(c)
	if err := c.ShouldBindJSON(&updateRequest); err != nil {
		logger.Error("bad payload", tint.Err(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := updateRequest.validate(); err != nil {
		logger.Error("invalid payload", tint.Err(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	existingConfig := b.runtimeConfig
	rollbackConfig := *existingConfig

	updateData, err := json.Marshal(updateRequest)
	if err != nil {
		logger.ErrorContext(c, "Error marshaling update request", tint.Err(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error marshaling update request"})
		return
	}

	var updates map[string]any
	err = json.Unmarshal(updateData, &updates)
	if err != nil {
		logger.ErrorContext(c, "Error unmarshalling update request", tint.Err(err))
		c.JSON(
			http.StatusInternalServerError,
			gin.H{"error": "Error unmarshalling update request"},
		)
		return
	}
	logger.InfoContext(c, "Applying updates", "updates", updates)

	var updateError error

	var statusCode int
	var ginResponse gin.H

	_ = b.writeDB.Transaction(
		context.Background(),
		func(tx *gorm.DB) error {
			updateError = tx.Model(existingConfig).Updates(updates).Error
			if updateError != nil {
				statusCode = http.StatusInternalServerError
				ginResponse = gin.H{"error": "Error updating config"}
				return updateError
			}

			updateError = structValidator.Struct(existingConfig)
			if updateError != nil {
				statusCode = http.StatusBadRequest
				ginResponse = gin.H{"error": "Error validating config"}
				return updateError
			}
			return nil
		},
	)

	if updateError != nil {
		b.runtimeConfig = &rollbackConfig
		logger.ErrorContext(c, "Error updating config", tint.Err(updateError))
		c.JSON(statusCode, ginResponse)
		return
	}

	b.setRuntimeLevels(*existingConfig)

	wasPaused := b.paused.Swap(existingConfig.Paused)
	switch {
	case wasPaused && !existingConfig.Paused:
		logger.Info("unpaused bot")
	case existingConfig.Paused && !wasPaused:
		logger.Warn("paused bot")
	}

	if existingConfig.DiscordCustomStatus != rollbackConfig.DiscordCustomStatus &&
		!existingConfig.Paused {
		if statusErr := b.discord.updateCustomStatus(
			existingConfig.DiscordCustomStatus,
		); statusErr != nil {
			logger.Error("error updating discord status", tint.Err(statusErr))
		}
	}

	// any change in slash command parameters means we need to overwrite
	// the commands so the changes take effect
	if existingConfig.ChatCommandDescription != rollbackConfig.ChatCommandDescription ||
		existingConfig.ChatCommandOptionDescription != rollbackConfig.ChatCommandOptionDescription ||
		existingConfig.ChatCommandMaxLength != rollbackConfig.ChatCommandMaxLength {
		if _, cmdErr := b.discord.registerCommands(*existingConfig); cmdErr != nil {
			logger.Error("error overwriting commands", tint.Err(cmdErr))
		}
	}

	c.JSON(http.StatusAccepted, existingConfig)
}

func (h *APIHandlers) botPause(c *gin.Context) {
	log := ginContextLogger(c)
	h.b.cfgMu.Lock()
	defer h.b.cfgMu.Unlock()

	if h.b.Pause(context.Background()) {
		log.Info("bot paused")
		ginReplyMessage(c, "bot paused")
		return
	}

	c.AbortWithStatusJSON(
		http.StatusConflict,
		httpError{Error: "bot already paused"},
	)
}

func (h *APIHandlers) botResume(c *gin.Context) {
	h.b.cfgMu.Lock()
	defer h.b.cfgMu.Unlock()

	if h.b.Resume(context.Background()) {
		ginReplyMessage(c, "bot resumed")
		return
	}
	c.AbortWithStatusJSON(http.StatusConflict, httpError{Error: "bot not paused"})
}

// botQuit handles the HTTP POST request to stop the bot. It sends a stop
// signal, which initiates the shutdown process, and responds immediately.
func (h *APIHandlers) botQuit(c *gin.Context) {
	log := ginContextLogger(c)

	if !h.b.api.quitLimiter.Allow() {
		c.JSON(http.StatusTooManyRequests, httpError{Error: "slow down"})
		return
	}

	log.Warn("sending stop signal")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	select {
	case h.b.signalStop <- struct{}{}:
		ginReplyMessage(c, "quitting")
	case <-ctx.Done():
		log.Warn("timeout sending stop signal")
		c.JSON(http.StatusGatewayTimeout, httpError{Error: "timeout sending stop signal"})
	}
}

// discordRegisterCommands handles the HTTP POST request to re-register
// the bot's slash commands with the Discord API.
func (h *APIHandlers) discordRegisterCommands(c *gin.Context) {
	log := ginContextLogger(c)
	log.Info("registering commands")

	createdCommands, err := h.b.discord.registerCommands(h.b.RuntimeConfig())
	if err != nil {
		log.Error("error registering commands", tint.Err(err))
		c.JSON(http.StatusInternalServerError, httpError{Error: "error registering commands"})
		return
	}
	c.JSON(http.StatusCreated, createdCommands)
}

// GetChatCommandsQuery represents the query parameters for fetching
// ChatCommand records.
type GetChatCommandsQuery struct {
	Pagination
	UserID    string `form:"user_id"`
	StartDate string `form:"start_date" binding:"omitempty,datetime=2006-01-02"`
	EndDate   string `form:"end_date" binding:"omitempty,datetime=2006-01-02"`
}

// GetRemindersQuery represents the query parameters for fetching
// Reminder records.
type GetRemindersQuery struct {
	Pagination
	UserID    string `form:"user_id"`
	Completed *bool  `form:"completed"`
}

// Pagination represents the pagination parameters for API requests.
type Pagination struct {
	Limit  int  `form:"limit" binding:"omitempty,min=1,max=100"`
	Order  Sort `form:"order" binding:"omitempty,oneof=asc desc"`
	Offset int  `form:"offset" binding:"omitempty,min=0"`
}

// GetUsersQuery represents the query parameters for fetching User records.
type GetUsersQuery struct {
	Pagination
}

// Sort represents the sorting order for queries, either
// [Ascending] or [Descending].
type Sort string

// apiPatchUser accepts payload to update specific fields of a User record.
// Any non-nil value will be updated.
//
//nolint:lll // struct tags can't be split
type apiPatchUser struct {
	Ignored                *bool `json:"ignored,omitempty" binding:"omitnil"`
	UserChatCommandLimit6h *int  `json:"chat_command_limit_6h,omitempty" binding:"omitnil,min=1"`
	UserReminderLimit      *int  `json:"reminder_limit,omitempty" binding:"omitnil,min=1"`
}

// healthCheckResponse represents the response structure for the health
// check endpoint.
type healthCheckResponse struct {
	Paused                   bool  `json:"paused"`
	DiscordGatewayConnected  bool  `json:"discord_gateway_connected"`
	ChatCommandsInProgress   int64 `json:"chat_commands_in_progress"`
	RemindCommandsInProgress int64 `json:"remind_commands_in_progress"`
}

// httpReply represents a standard HTTP response message.
type httpReply struct {
	Message string `json:"message"`
}

// httpError represents an error message returned to the client
type httpError struct {
	Error string `json:"error"`
}

// bearerAuthMiddleware returns a Gin middleware function for
// authentication. Requests must carry the configured API secret as a
// bearer token. If no secret is configured, the authenticated routes
// are disabled entirely.
func bearerAuthMiddleware(b *WompBot) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := b.logger
		if logger == nil {
			logger = slog.Default()
		}
		secret := b.config.API.Secret
		if secret == "" {
			logger.Warn("api secret not set, refusing request")
			c.AbortWithStatusJSON(
				http.StatusUnauthorized,
				httpError{Error: "unauthorized"},
			)
			return
		}

		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, bearerPrefix) {
			c.AbortWithStatusJSON(
				http.StatusUnauthorized,
				httpError{Error: "unauthorized"},
			)
			return
		}
		token := strings.TrimPrefix(header, bearerPrefix)
		if subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
			logger.Warn("invalid api token", "remote_addr", c.Request.RemoteAddr)
			c.AbortWithStatusJSON(
				http.StatusUnauthorized,
				httpError{Error: "unauthorized"},
			)
			return
		}

		c.Next()
	}
}

// requestIDMiddleware generates a Gin middleware function that assigns a
// unique request ID to each incoming request.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := generateRandomHexString(32)
		if err != nil {
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		c.Set(xRequestIDHeader, id)
		if requestID, exists := c.Get(xRequestIDHeader); exists {
			c.Header(xRequestIDHeader, requestID.(string))
		}
		c.Next()
	}
}

// ginContextLogger returns the slog.Logger from the given gin context,
// or, if it doesn't exist, creates a logger with request details included,
// and sets the logger in the context so the next call to ginContextLogger
// will return the new logger.
func ginContextLogger(c *gin.Context) *slog.Logger {
	var requestLogger *slog.Logger
	logger, ok := c.Get(string(loggerContextKey))
	if ok {
		requestLogger, ok = logger.(*slog.Logger)
		if ok {
			return requestLogger
		}
	}
	requestLogger = slog.Default()
	requestID, _ := c.Get(xRequestIDHeader)
	path := c.Request.URL.Path
	raw := c.Request.URL.RawQuery
	if raw != "" {
		path = path + "?" + raw
	}

	requestLogger = requestLogger.With(
		slog.Group(
			"request",
			"method", c.Request.Method,
			"path", path,
			"remote_addr", c.Request.RemoteAddr,
			"remote_ip", c.RemoteIP(),
			"user_agent", c.Request.UserAgent(),
			"referer", c.Request.Referer(),
		),
		slog.Any(xRequestIDHeader, requestID),
	)
	c.Set(string(loggerContextKey), requestLogger)
	return requestLogger
}

// ginLoggingMiddleware returns a Gin middleware function for logging
// HTTP requests.
func ginLoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestLogger := ginContextLogger(c)
		c.Next()
		latency := time.Since(start)

		var errs []error
		for _, e := range c.Errors.ByType(gin.ErrorTypePrivate) {
			errs = append(errs, *e)
		}
		if len(errs) > 0 {
			requestLogger.Error(
				fmt.Sprintf(
					"%s %s finished with errors",
					c.Request.Method,
					c.Request.URL,
				),
				"duration", latency,
				"errors", errs,
				slog.Group(
					"response",
					"status_code", c.Writer.Status(),
					"body_size", c.Writer.Size(),
				),
			)
		} else {
			requestLogger.Info(
				fmt.Sprintf("%s %s finished", c.Request.Method, c.Request.URL),
				"duration", latency,
				slog.Group(
					"response",
					"status_code", c.Writer.Status(),
					"body_size", c.Writer.Size(),
				),
			)
		}
	}
}

// metricMiddleware returns a Gin middleware function for tracking API
// request metrics, counting requests per method and path.
func metricMiddleware(a *API) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer c.Next()

		a.requestMetricsMu.Lock()
		defer a.requestMetricsMu.Unlock()

		key := fmt.Sprintf("%s %s", c.Request.Method, c.Request.URL.Path)
		_, ok := a.requestMetrics[key]
		if !ok {
			a.requestMetrics[key] = 1
			return
		}
		a.requestMetrics[key]++
	}
}

// ginReplyMessage sends a JSON response with a message,
// with HTTP status code 200, via the gin context.
func ginReplyMessage(c *gin.Context, message string) {
	c.JSON(http.StatusOK, httpReply{Message: message})
}

// ginReplyError sends a JSON response with a message,
// with HTTP status code 500, via the gin context.
func ginReplyError(c *gin.Context, err string) {
	c.AbortWithStatusJSON(http.StatusInternalServerError, httpError{Error: err})
}
