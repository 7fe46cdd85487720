// Package bot holds the protocol modules that turn inbound platform events
// into replies, and the dispatcher that routes events between them.
package bot

import (
	"context"
	"time"

	"github.com/ericfisherdev/passlink/internal/domain/model"
)

// Module claims and handles inbound events of the shapes it recognises.
// Handle returns false for events it does not recognise, leaving them to
// the next module.
type Module interface {
	Name() string
	Handle(ctx context.Context, ev model.Event) (bool, error)
}

// InlineResultProducer is implemented by modules that contribute results to
// inline queries.
type InlineResultProducer interface {
	InlineResults(ctx context.Context, q *model.InlineQuery) ([]model.InlineArticle, error)
}

// Settings carries deployment values that appear in bot text.
type Settings struct {
	BotUsername string
	Hostname    string
	Location    *time.Location
}

const (
	dateLayout     = "02/01/2006"
	dateTimeLayout = "02/01/2006 15:04"
)

func (s Settings) date(t time.Time) string {
	return escapeMarkdown(t.In(s.location()).Format(dateLayout))
}

func (s Settings) dateTime(t time.Time) string {
	return escapeMarkdown(t.In(s.location()).Format(dateTimeLayout))
}

func (s Settings) location() *time.Location {
	if s.Location == nil {
		return time.UTC
	}
	return s.Location
}

func markdownReply(text string, kb model.Keyboard) model.Reply {
	return model.Reply{Text: text, Markdown: true, Keyboard: kb}
}

func confirmKeyboard(confirmText, confirmData, cancelText, cancelData string) model.Keyboard {
	return model.Keyboard{
		{{Text: confirmText, CallbackData: confirmData}},
		{{Text: cancelText, CallbackData: cancelData}},
	}
}

// privateCallback returns the callback if it was pressed on a message in a
// private chat.
func privateCallback(ev model.Event) *model.Callback {
	if ev.Kind != model.EventCallback || ev.Callback == nil {
		return nil
	}
	cb := ev.Callback
	if cb.Message == nil || !cb.Message.Chat.Private {
		return nil
	}
	return cb
}

// privateMessage returns the message if it was sent by a known account in a
// private chat.
func privateMessage(ev model.Event) *model.Message {
	if ev.Kind != model.EventMessage || ev.Message == nil {
		return nil
	}
	m := ev.Message
	if !m.Chat.Private || m.From == nil {
		return nil
	}
	return m
}
