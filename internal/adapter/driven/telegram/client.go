// Package telegram adapts the Telegram Bot API to the messenger port and
// translates webhook updates into domain events.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/cenkalti/backoff/v4"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ericfisherdev/passlink/internal/domain/model"
	"github.com/ericfisherdev/passlink/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.Messenger = (*Client)(nil)

// MaxFileSize is the largest file the Bot API lets a bot download.
const MaxFileSize = 20 << 20

// botAPI is the subset of *tgbotapi.BotAPI the client uses.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

// Client implements driven.Messenger on the Bot API. The underlying library
// has no context support, so ctx is only checked before each call.
type Client struct {
	api             botAPI
	http            *http.Client
	username        string
	registerBackOff func() backoff.BackOff
}

// New authenticates token against the Bot API.
func New(token string, httpClient *http.Client) (*Client, error) {
	api, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, httpClient)
	if err != nil {
		return nil, fmt.Errorf("connect to bot api: %w", err)
	}
	return &Client{
		api:             api,
		http:            httpClient,
		username:        api.Self.UserName,
		registerBackOff: defaultRegisterBackOff,
	}, nil
}

// Username returns the bot's own username.
func (c *Client) Username() string {
	return c.username
}

// SendReply sends a text message to chatID.
func (c *Client) SendReply(ctx context.Context, chatID int64, reply model.Reply) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(chatID, reply.Text)
	if reply.Markdown {
		msg.ParseMode = tgbotapi.ModeMarkdownV2
	}
	switch {
	case len(reply.Keyboard) > 0:
		msg.ReplyMarkup = inlineKeyboard(reply.Keyboard)
	case reply.RemoveKeyboard:
		msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(false)
	}

	if _, err := c.api.Send(msg); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// ClearKeyboard replaces the inline keyboard of a message with an empty one.
func (c *Client) ClearKeyboard(ctx context.Context, chatID int64, messageID int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	edit := tgbotapi.NewEditMessageReplyMarkup(chatID, messageID, tgbotapi.InlineKeyboardMarkup{
		InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{},
	})
	if _, err := c.api.Request(edit); err != nil {
		return fmt.Errorf("clear keyboard: %w", err)
	}
	return nil
}

// EditInlineMessage replaces the text and keyboard of an inline message.
func (c *Client) EditInlineMessage(ctx context.Context, inlineMessageID string, reply model.Reply) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	edit := tgbotapi.EditMessageTextConfig{
		BaseEdit: tgbotapi.BaseEdit{InlineMessageID: inlineMessageID},
		Text:     reply.Text,
	}
	if reply.Markdown {
		edit.ParseMode = tgbotapi.ModeMarkdownV2
	}
	if len(reply.Keyboard) > 0 {
		markup := inlineKeyboard(reply.Keyboard)
		edit.ReplyMarkup = &markup
	}

	if _, err := c.api.Request(edit); err != nil {
		return fmt.Errorf("edit inline message: %w", err)
	}
	return nil
}

// AnswerCallback acknowledges a callback query.
func (c *Client) AnswerCallback(ctx context.Context, callbackID, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := c.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		return fmt.Errorf("answer callback: %w", err)
	}
	return nil
}

// AnswerInlineQuery answers an inline query. Results are personal and never
// cached by the platform, since they embed the requester's name.
func (c *Client) AnswerInlineQuery(ctx context.Context, queryID string, results []model.InlineArticle) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	items := make([]interface{}, 0, len(results))
	for _, r := range results {
		var article tgbotapi.InlineQueryResultArticle
		if r.Markdown {
			article = tgbotapi.NewInlineQueryResultArticleMarkdownV2(r.ID, r.Title, r.Text)
		} else {
			article = tgbotapi.NewInlineQueryResultArticle(r.ID, r.Title, r.Text)
		}
		if len(r.Keyboard) > 0 {
			markup := inlineKeyboard(r.Keyboard)
			article.ReplyMarkup = &markup
		}
		items = append(items, article)
	}

	answer := tgbotapi.InlineConfig{
		InlineQueryID: queryID,
		Results:       items,
		CacheTime:     0,
		IsPersonal:    true,
	}
	if _, err := c.api.Request(answer); err != nil {
		return fmt.Errorf("answer inline query: %w", err)
	}
	return nil
}

// SendTyping shows the typing indicator in chatID.
func (c *Client) SendTyping(ctx context.Context, chatID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := c.api.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
		return fmt.Errorf("send typing: %w", err)
	}
	return nil
}

// DownloadFile fetches an uploaded file of at most MaxFileSize bytes.
func (c *Client) DownloadFile(ctx context.Context, fileID string) ([]byte, error) {
	url, err := c.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("resolve file url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create file request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if len(data) > MaxFileSize {
		return nil, errors.New("download file: file exceeds size limit")
	}
	return data, nil
}

func inlineKeyboard(kb model.Keyboard) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(kb))
	for _, row := range kb {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			if b.SwitchInline {
				buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonSwitch(b.Text, ""))
				continue
			}
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.CallbackData))
		}
		rows = append(rows, buttons)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
