package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ericfisherdev/passlink/internal/domain/model"
)

// registerTimeout bounds how long startup keeps retrying webhook registration.
const registerTimeout = 2 * time.Minute

// RegisterWebhook points the platform at url, retrying with exponential
// backoff while the Bot API is unreachable.
func (c *Client) RegisterWebhook(ctx context.Context, url string) error {
	wh, err := tgbotapi.NewWebhook(url)
	if err != nil {
		return fmt.Errorf("build webhook config: %w", err)
	}

	attempt := 0
	op := func() error {
		attempt++
		if _, err := c.api.Request(wh); err != nil {
			slog.Warn("webhook registration failed", "attempt", attempt, "error", err)
			return err
		}
		return nil
	}

	if err := backoff.Retry(op, backoff.WithContext(c.registerBackOff(), ctx)); err != nil {
		return fmt.Errorf("register webhook: %w", err)
	}
	return nil
}

func defaultRegisterBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = registerTimeout
	return b
}

// DeleteWebhook removes the webhook registration.
func (c *Client) DeleteWebhook(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := c.api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		return fmt.Errorf("delete webhook: %w", err)
	}
	return nil
}

// SetCommands publishes the command menu shown by clients.
func (c *Client) SetCommands(ctx context.Context, commands []model.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	botCommands := make([]tgbotapi.BotCommand, 0, len(commands))
	for _, cmd := range commands {
		botCommands = append(botCommands, tgbotapi.BotCommand{
			Command:     cmd.Name,
			Description: cmd.Description,
		})
	}

	if _, err := c.api.Request(tgbotapi.NewSetMyCommands(botCommands...)); err != nil {
		return fmt.Errorf("set commands: %w", err)
	}
	return nil
}
