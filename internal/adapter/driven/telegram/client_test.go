package telegram

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cenkalti/backoff/v4"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/passlink/internal/domain/model"
)

// --- Mock implementations ---

type fakeAPI struct {
	sent      []tgbotapi.Chattable
	requested []tgbotapi.Chattable
	failures  int
	err       error
	fileURL   string
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, f.err
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.requested = append(f.requested, c)
	if f.failures > 0 {
		f.failures--
		return nil, errors.New("temporary failure")
	}
	if f.err != nil {
		return nil, f.err
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) GetFileDirectURL(string) (string, error) {
	return f.fileURL, f.err
}

func newTestClient(api *fakeAPI) *Client {
	return &Client{
		api:      api,
		http:     http.DefaultClient,
		username: "PassLinkBot",
		registerBackOff: func() backoff.BackOff {
			return backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 3)
		},
	}
}

func TestClient_SendReply(t *testing.T) {
	api := &fakeAPI{}
	c := newTestClient(api)

	err := c.SendReply(context.Background(), 42, model.Reply{
		Text:     "*hi*",
		Markdown: true,
		Keyboard: model.Keyboard{{
			{Text: "Confirm", CallbackData: "/confirmlink"},
			{Text: "Pick chat", SwitchInline: true},
		}},
	})
	require.NoError(t, err)
	require.Len(t, api.sent, 1)

	msg, ok := api.sent[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, int64(42), msg.ChatID)
	assert.Equal(t, tgbotapi.ModeMarkdownV2, msg.ParseMode)

	markup, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	require.Len(t, markup.InlineKeyboard, 1)
	row := markup.InlineKeyboard[0]
	require.Len(t, row, 2)
	assert.Equal(t, "/confirmlink", *row[0].CallbackData)
	require.NotNil(t, row[1].SwitchInlineQuery)
	assert.Equal(t, "", *row[1].SwitchInlineQuery)
}

func TestClient_SendReplyRemovesKeyboard(t *testing.T) {
	api := &fakeAPI{}
	c := newTestClient(api)

	require.NoError(t, c.SendReply(context.Background(), 1, model.Reply{Text: "x", RemoveKeyboard: true}))

	msg := api.sent[0].(tgbotapi.MessageConfig)
	assert.Empty(t, msg.ParseMode)
	_, ok := msg.ReplyMarkup.(tgbotapi.ReplyKeyboardRemove)
	assert.True(t, ok)
}

func TestClient_CancelledContext(t *testing.T) {
	api := &fakeAPI{}
	c := newTestClient(api)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, c.SendReply(ctx, 1, model.Reply{Text: "x"}))
	assert.Error(t, c.AnswerCallback(ctx, "cb", ""))
	assert.Empty(t, api.sent)
	assert.Empty(t, api.requested)
}

func TestClient_ClearKeyboard(t *testing.T) {
	api := &fakeAPI{}
	c := newTestClient(api)

	require.NoError(t, c.ClearKeyboard(context.Background(), 42, 7))

	edit, ok := api.requested[0].(tgbotapi.EditMessageReplyMarkupConfig)
	require.True(t, ok)
	assert.Equal(t, int64(42), edit.ChatID)
	assert.Equal(t, 7, edit.MessageID)
	require.NotNil(t, edit.ReplyMarkup)
	assert.Empty(t, edit.ReplyMarkup.InlineKeyboard)
}

func TestClient_EditInlineMessage(t *testing.T) {
	api := &fakeAPI{}
	c := newTestClient(api)

	err := c.EditInlineMessage(context.Background(), "inline-1", model.Reply{
		Text:     "poll",
		Markdown: true,
		Keyboard: model.Keyboard{{{Text: "Check in", CallbackData: "/checkin"}}},
	})
	require.NoError(t, err)

	edit, ok := api.requested[0].(tgbotapi.EditMessageTextConfig)
	require.True(t, ok)
	assert.Equal(t, "inline-1", edit.InlineMessageID)
	assert.Equal(t, tgbotapi.ModeMarkdownV2, edit.ParseMode)
	require.NotNil(t, edit.ReplyMarkup)
}

func TestClient_AnswerInlineQuery(t *testing.T) {
	api := &fakeAPI{}
	c := newTestClient(api)

	err := c.AnswerInlineQuery(context.Background(), "q1", []model.InlineArticle{{
		ID: "/startcheckin", Title: "Request", Text: "body", Markdown: true,
		Keyboard: model.Keyboard{{{Text: "Check in", CallbackData: "/checkin"}}},
	}})
	require.NoError(t, err)

	answer, ok := api.requested[0].(tgbotapi.InlineConfig)
	require.True(t, ok)
	assert.Equal(t, "q1", answer.InlineQueryID)
	assert.True(t, answer.IsPersonal)
	require.Len(t, answer.Results, 1)

	article, ok := answer.Results[0].(tgbotapi.InlineQueryResultArticle)
	require.True(t, ok)
	assert.Equal(t, "/startcheckin", article.ID)
	require.NotNil(t, article.ReplyMarkup)
}

func TestClient_RequestErrorsWrap(t *testing.T) {
	api := &fakeAPI{err: errors.New("bad request")}
	c := newTestClient(api)

	err := c.SendTyping(context.Background(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "send typing")
}

func TestClient_DownloadFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("image-bytes"))
	}))
	t.Cleanup(srv.Close)

	api := &fakeAPI{fileURL: srv.URL + "/file/bot/photo.jpg"}
	c := newTestClient(api)

	data, err := c.DownloadFile(context.Background(), "file-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("image-bytes"), data)
}

func TestClient_DownloadFileTooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", MaxFileSize+1)))
	}))
	t.Cleanup(srv.Close)

	c := newTestClient(&fakeAPI{fileURL: srv.URL})

	_, err := c.DownloadFile(context.Background(), "file-1")
	assert.Error(t, err)
}

func TestClient_RegisterWebhookRetries(t *testing.T) {
	api := &fakeAPI{failures: 2}
	c := newTestClient(api)

	require.NoError(t, c.RegisterWebhook(context.Background(), "https://bot.example.org/api/webhook/receive/token"))
	assert.Len(t, api.requested, 3)

	_, ok := api.requested[2].(tgbotapi.WebhookConfig)
	assert.True(t, ok)
}

func TestClient_RegisterWebhookGivesUp(t *testing.T) {
	api := &fakeAPI{err: errors.New("unauthorized")}
	c := newTestClient(api)

	err := c.RegisterWebhook(context.Background(), "https://bot.example.org/hook")
	assert.Error(t, err)
	assert.Len(t, api.requested, 4)
}

func TestClient_DeleteWebhookAndCommands(t *testing.T) {
	api := &fakeAPI{}
	c := newTestClient(api)
	ctx := context.Background()

	require.NoError(t, c.DeleteWebhook(ctx))
	require.NoError(t, c.SetCommands(ctx, []model.Command{{Name: "link", Description: "link a pass"}}))

	_, ok := api.requested[0].(tgbotapi.DeleteWebhookConfig)
	assert.True(t, ok)

	cmds, ok := api.requested[1].(tgbotapi.SetMyCommandsConfig)
	require.True(t, ok)
	require.Len(t, cmds.Commands, 1)
	assert.Equal(t, "link", cmds.Commands[0].Command)
}
