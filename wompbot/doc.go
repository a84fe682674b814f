// Package wompbot implements a Discord bot that schedules and delivers
// reminders from natural-language time expressions, and answers chat
// prompts via OpenAI's API.
//
// Key components of the package include:
//
//   - WompBot: The main struct that encapsulates the bot's core functionality.
//   - Discord: Handles Discord integration and slash command registration.
//   - ReminderWorker: Polls for due reminders and delivers them.
//   - OpenAI: Manages interactions with the OpenAI API.
//   - API: Provides a backend API for bot management and monitoring.
//
// The bot supports two slash commands:
//
//   - /remind: Schedules, lists and cancels reminders. The 'when' option
//     accepts expressions like "in 2 hours", "tomorrow at 3pm" or "friday".
//   - /chat: Sends a prompt to the configured OpenAI model and replies
//     with the completion.
//
// WompBot also includes per-user rate limiting, user management and a
// runtime configuration that can be updated without restarting the bot.
package wompbot
