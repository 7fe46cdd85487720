package driven

import (
	"context"

	"github.com/ericfisherdev/passlink/internal/domain/model"
)

// Messenger defines the driven port for outbound messaging-platform calls.
type Messenger interface {
	SendReply(ctx context.Context, chatID int64, reply model.Reply) error

	// ClearKeyboard removes the inline keyboard from a sent message.
	ClearKeyboard(ctx context.Context, chatID int64, messageID int) error

	// EditInlineMessage replaces the text and keyboard of a message sent via
	// inline mode.
	EditInlineMessage(ctx context.Context, inlineMessageID string, reply model.Reply) error

	// AnswerCallback acknowledges a button press with optional ephemeral text.
	AnswerCallback(ctx context.Context, callbackID, text string) error

	AnswerInlineQuery(ctx context.Context, queryID string, results []model.InlineArticle) error

	// SendTyping shows a typing indicator in the chat.
	SendTyping(ctx context.Context, chatID int64) error

	// DownloadFile fetches the content of an uploaded file.
	DownloadFile(ctx context.Context, fileID string) ([]byte, error)
}

// Mailer defines the driven port for sending email.
type Mailer interface {
	Send(ctx context.Context, email model.Email) error
}
