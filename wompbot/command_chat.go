package wompbot

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/lmittmann/tint"
)

const (
	ChatCommandStateReceived    ChatCommandState = "received"
	ChatCommandStateInProgress  ChatCommandState = "in_progress"
	ChatCommandStateCompleted   ChatCommandState = "completed"
	ChatCommandStateFailed      ChatCommandState = "failed"
	ChatCommandStateRateLimited ChatCommandState = "rate_limited"
	ChatCommandStateIgnored     ChatCommandState = "ignored"
)

var (
	columnChatCommandState      = "state"
	columnChatCommandStartedAt  = "started_at"
	columnChatCommandFinishedAt = "finished_at"
	columnChatCommandResponse   = "response"
	columnChatCommandError      = "error"

	columnChatCommandUsagePromptTokens     = "usage_prompt_tokens"
	columnChatCommandUsageCompletionTokens = "usage_completion_tokens"
	columnChatCommandUsageTotalTokens      = "usage_total_tokens"
)

type ChatCommandState string

// ChatCommand represents a '/chat' slash command execution: the user's
// prompt, the OpenAI chat completion result, and token usage.
//
//nolint:lll // struct tags can't be split
type ChatCommand struct {
	ModelUintID
	ModelUnixTime
	Interaction
	logger *slog.Logger

	State ChatCommandState `json:"state" gorm:"type:string"`

	// Prompt is the user's input
	Prompt string `json:"prompt" gorm:"type:string"`

	// OpenAIModel is the model the completion was requested with
	OpenAIModel string `json:"openai_model" gorm:"type:string"`

	UsagePromptTokens     int `json:"usage_prompt_tokens" gorm:"column:usage_prompt_tokens"`
	UsageCompletionTokens int `json:"usage_completion_tokens" gorm:"column:usage_completion_tokens"`
	UsageTotalTokens      int `json:"usage_total_tokens" gorm:"column:usage_total_tokens"`

	Error    *string `json:"error" gorm:"type:string"`
	Response *string `json:"response" gorm:"type:string"`

	handler InteractionHandler
}

func NewChatCommand(
	b *WompBot,
	u *User,
	i *discordgo.InteractionCreate,
) *ChatCommand {
	interaction := NewUserInteraction(i, u)

	rec := &ChatCommand{
		Interaction: *interaction,
		State:       ChatCommandStateReceived,
	}

	data := i.ApplicationCommandData()
	opts := discordInteractionOptions(data.Options)
	if prompt, ok := opts[chatCommandQuestionOption]; ok {
		rec.Prompt = prompt.StringValue()
	}

	rec.logger = b.logger.With("chat_command", rec)
	return rec
}

func (c *ChatCommand) Deadline() time.Time {
	return time.UnixMilli(c.TokenExpires).UTC()
}

func (c ChatCommand) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Any("interaction", c.Interaction),
		slog.String("state", string(c.State)),
		slog.String("prompt", c.Prompt),
		slog.Int("usage_total_tokens", c.UsageTotalTokens),
		slog.String("error", stringPointerValue(c.Error)),
	)
}

// execute runs the chat completion request and edits the deferred
// interaction response with the answer. If the user has hit their 6-hour
// request limit, the request is refused without an API call.
func (c *ChatCommand) execute(ctx context.Context, b *WompBot) error {
	b.chatCommandsInProgress.Add(1)
	defer b.chatCommandsInProgress.Add(-1)

	started := time.Now()
	config := c.handler.Config()
	runtimeConfig := b.RuntimeConfig()

	cmdLogger := c.logger
	if cmdLogger == nil {
		cmdLogger = slog.Default()
	}

	updates := map[string]any{
		columnChatCommandStartedAt: &started,
		columnChatCommandState:     ChatCommandStateCompleted,
	}

	wg := &sync.WaitGroup{}
	defer wg.Wait()

	editResponse := func(content string) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, editErr := c.handler.Edit(
				ctx,
				&discordgo.WebhookEdit{Content: &content},
				discordgo.WithContext(ctx),
			)
			if editErr != nil {
				cmdLogger.ErrorContext(ctx, "error updating interaction", tint.Err(editErr))
			}
		}()
	}

	finish := func() {
		ended := time.Now()
		updates[columnChatCommandFinishedAt] = &ended
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, e := b.writeDB.Updates(context.TODO(), c, updates); e != nil {
				cmdLogger.ErrorContext(ctx, "error updating chat command", tint.Err(e))
			}
		}()
	}

	limit := c.User.ChatCommandLimit6h
	if limit <= 0 {
		limit = runtimeConfig.UserChatCommandLimit6h
	}
	used, err := c.User.ChatCommands6h(b.db)
	if err != nil {
		cmdLogger.ErrorContext(ctx, "error counting chat commands", tint.Err(err))
	} else if used >= int64(limit) {
		cmdLogger.InfoContext(
			ctx,
			"user hit chat command limit",
			"used", used,
			"limit", limit,
		)
		updates[columnChatCommandState] = ChatCommandStateRateLimited
		updates[columnChatCommandResponse] = config.DiscordRateLimitMessage
		editResponse(config.DiscordRateLimitMessage)
		finish()
		return nil
	}

	if _, updateErr := b.writeDB.Updates(
		ctx,
		c,
		map[string]any{columnChatCommandState: ChatCommandStateInProgress},
	); updateErr != nil {
		cmdLogger.ErrorContext(ctx, "error updating chat command state", tint.Err(updateErr))
	}

	completion, err := b.openai.createChatCompletion(
		ctx,
		runtimeConfig.ChatCommandSystemPrompt,
		c.Prompt,
	)
	if err != nil {
		cmdLogger.ErrorContext(ctx, "chat completion failed", tint.Err(err))
		updates[columnChatCommandState] = ChatCommandStateFailed
		updates[columnChatCommandError] = err.Error()
		updates[columnChatCommandResponse] = config.DiscordErrorMessage
		editResponse(config.DiscordErrorMessage)
		finish()
		return err
	}

	answer := config.DiscordErrorMessage
	if len(completion.Choices) > 0 {
		answer = shortenString(
			completion.Choices[0].Message.Content,
			discordMaxMessageLength,
		)
	} else {
		cmdLogger.WarnContext(ctx, "chat completion returned no choices")
		updates[columnChatCommandState] = ChatCommandStateFailed
	}

	c.OpenAIModel = completion.Model
	updates["openai_model"] = completion.Model
	updates[columnChatCommandUsagePromptTokens] = completion.Usage.PromptTokens
	updates[columnChatCommandUsageCompletionTokens] = completion.Usage.CompletionTokens
	updates[columnChatCommandUsageTotalTokens] = completion.Usage.TotalTokens
	updates[columnChatCommandResponse] = answer

	editResponse(answer)
	finish()
	return nil
}
