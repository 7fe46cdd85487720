package model

import "strings"

// EventKind tags the variant carried by an Event.
type EventKind string

const (
	EventMessage            EventKind = "message"
	EventCallback           EventKind = "callback"
	EventInlineQuery        EventKind = "inline_query"
	EventChosenInlineResult EventKind = "chosen_inline_result"
)

// User is a messaging-platform account as seen on an inbound event.
type User struct {
	ID           int64
	Username     string
	FirstName    string
	LanguageCode string
}

// DisplayName returns "@username" when the account has one, otherwise its
// first name.
func (u User) DisplayName() string {
	if u.Username != "" {
		return "@" + u.Username
	}
	return u.FirstName
}

// Chat is the conversation a message belongs to.
type Chat struct {
	ID      int64
	Private bool
}

// Photo is one size variant of an uploaded photo.
type Photo struct {
	FileID   string
	Width    int
	Height   int
	FileSize int64
}

// Document is an uploaded file.
type Document struct {
	FileID   string
	FileName string
	MimeType string
	FileSize int64
}

// Message is an inbound text, photo or document message.
type Message struct {
	ID          int
	Chat        Chat
	From        *User
	ForwardFrom *User
	Text        string
	Photos      []Photo
	Document    *Document
}

// Command returns the first whitespace-delimited token of the message text
// with any "@botname" suffix removed, or "" if the text is not a command.
func (m Message) Command() string {
	fields := strings.Fields(m.Text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return ""
	}
	cmd, _, _ := strings.Cut(fields[0], "@")
	return cmd
}

// ForwardedFromOther reports whether the message was forwarded from an
// account other than its sender.
func (m Message) ForwardedFromOther() bool {
	return m.ForwardFrom != nil && (m.From == nil || m.ForwardFrom.ID != m.From.ID)
}

// Callback is a press of an inline keyboard button.
type Callback struct {
	ID              string
	From            User
	Message         *Message
	InlineMessageID string
	Data            string
}

// InlineQuery is a request for inline results.
type InlineQuery struct {
	ID    string
	From  User
	Query string
}

// ChosenInlineResult reports which inline result a user sent.
type ChosenInlineResult struct {
	ResultID        string
	From            User
	InlineMessageID string
}

// Event is the tagged union of inbound events. Exactly the field matching
// Kind is set.
type Event struct {
	Kind               EventKind
	Message            *Message
	Callback           *Callback
	InlineQuery        *InlineQuery
	ChosenInlineResult *ChosenInlineResult
}

// Sender returns the account that caused the event, if known.
func (e Event) Sender() (User, bool) {
	switch e.Kind {
	case EventMessage:
		if e.Message != nil && e.Message.From != nil {
			return *e.Message.From, true
		}
	case EventCallback:
		if e.Callback != nil {
			return e.Callback.From, true
		}
	case EventInlineQuery:
		if e.InlineQuery != nil {
			return e.InlineQuery.From, true
		}
	case EventChosenInlineResult:
		if e.ChosenInlineResult != nil {
			return e.ChosenInlineResult.From, true
		}
	}
	return User{}, false
}
