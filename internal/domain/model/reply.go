package model

// Button is one inline keyboard button. Exactly one of CallbackData or
// SwitchInline applies; SwitchInline opens inline mode in a chat picker.
type Button struct {
	Text         string
	CallbackData string
	SwitchInline bool
}

// Keyboard is an inline keyboard, row by row.
type Keyboard [][]Button

// Reply is an outbound text message.
type Reply struct {
	Text string
	// Markdown marks Text as MarkdownV2 source.
	Markdown bool
	Keyboard Keyboard
	// RemoveKeyboard clears any custom reply keyboard on the client.
	RemoveKeyboard bool
}

// InlineArticle is a single article answer to an inline query.
type InlineArticle struct {
	ID       string
	Title    string
	Text     string
	Markdown bool
	Keyboard Keyboard
}

// Command is a bot command advertised to clients.
type Command struct {
	Name        string
	Description string
}
