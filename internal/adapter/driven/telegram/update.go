package telegram

import (
	"encoding/json"
	"fmt"
	"io"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ericfisherdev/passlink/internal/domain/model"
)

// maxUpdateSize bounds a webhook body; real updates are a few kilobytes.
const maxUpdateSize = 1 << 20

// DecodeUpdate parses a webhook body. ok is false for update kinds that have
// no domain event, such as edited messages or channel posts.
func DecodeUpdate(r io.Reader) (event model.Event, ok bool, err error) {
	var update tgbotapi.Update
	if err := json.NewDecoder(io.LimitReader(r, maxUpdateSize)).Decode(&update); err != nil {
		return model.Event{}, false, fmt.Errorf("decode update: %w", err)
	}

	event, ok = EventFromUpdate(update)
	return event, ok, nil
}

// EventFromUpdate translates an update into a domain event.
func EventFromUpdate(u tgbotapi.Update) (model.Event, bool) {
	switch {
	case u.Message != nil:
		return model.Event{Kind: model.EventMessage, Message: toMessage(u.Message)}, true

	case u.CallbackQuery != nil && u.CallbackQuery.From != nil:
		q := u.CallbackQuery
		cb := &model.Callback{
			ID:              q.ID,
			From:            toUser(q.From),
			InlineMessageID: q.InlineMessageID,
			Data:            q.Data,
		}
		if q.Message != nil {
			cb.Message = toMessage(q.Message)
		}
		return model.Event{Kind: model.EventCallback, Callback: cb}, true

	case u.InlineQuery != nil && u.InlineQuery.From != nil:
		q := u.InlineQuery
		return model.Event{Kind: model.EventInlineQuery, InlineQuery: &model.InlineQuery{
			ID:    q.ID,
			From:  toUser(q.From),
			Query: q.Query,
		}}, true

	case u.ChosenInlineResult != nil && u.ChosenInlineResult.From != nil:
		r := u.ChosenInlineResult
		return model.Event{Kind: model.EventChosenInlineResult, ChosenInlineResult: &model.ChosenInlineResult{
			ResultID:        r.ResultID,
			From:            toUser(r.From),
			InlineMessageID: r.InlineMessageID,
		}}, true
	}

	return model.Event{}, false
}

func toUser(u *tgbotapi.User) model.User {
	return model.User{
		ID:           u.ID,
		Username:     u.UserName,
		FirstName:    u.FirstName,
		LanguageCode: u.LanguageCode,
	}
}

func toMessage(m *tgbotapi.Message) *model.Message {
	msg := &model.Message{
		ID:   m.MessageID,
		Text: m.Text,
	}
	if m.Chat != nil {
		msg.Chat = model.Chat{ID: m.Chat.ID, Private: m.Chat.Type == "private"}
	}
	if m.From != nil {
		from := toUser(m.From)
		msg.From = &from
	}
	if m.ForwardFrom != nil {
		fwd := toUser(m.ForwardFrom)
		msg.ForwardFrom = &fwd
	}
	for _, p := range m.Photo {
		msg.Photos = append(msg.Photos, model.Photo{
			FileID:   p.FileID,
			Width:    p.Width,
			Height:   p.Height,
			FileSize: int64(p.FileSize),
		})
	}
	if m.Document != nil {
		msg.Document = &model.Document{
			FileID:   m.Document.FileID,
			FileName: m.Document.FileName,
			MimeType: m.Document.MimeType,
			FileSize: int64(m.Document.FileSize),
		}
	}
	return msg
}
