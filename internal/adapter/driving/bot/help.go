package bot

import (
	"context"
	"strings"

	"github.com/ericfisherdev/passlink/internal/adapter/driving/bot/bottext"
	"github.com/ericfisherdev/passlink/internal/application"
	"github.com/ericfisherdev/passlink/internal/domain/model"
	"github.com/ericfisherdev/passlink/internal/domain/port/driven"
)

const (
	cmdStart = "/start"
	cmdHelp  = "/help"
)

// Commands returns the commands available to every account.
func Commands(ctx context.Context) []model.Command {
	return []model.Command{
		{Name: "start", Description: bottext.T(ctx, "command_start")},
		{Name: "link", Description: bottext.T(ctx, "command_link")},
		{Name: "check", Description: bottext.T(ctx, "command_check")},
		{Name: "revoke", Description: bottext.T(ctx, "command_revoke")},
	}
}

// NotaryCommands returns the commands only notaries may use.
func NotaryCommands(ctx context.Context) []model.Command {
	return []model.Command{
		{Name: "notarise", Description: bottext.T(ctx, "command_notarise")},
	}
}

// HelpModule answers /start and /help with the command list.
type HelpModule struct {
	accounts  *application.AccountService
	messenger driven.Messenger
	settings  Settings
}

// NewHelpModule creates a new HelpModule.
func NewHelpModule(accounts *application.AccountService, messenger driven.Messenger, settings Settings) *HelpModule {
	return &HelpModule{accounts: accounts, messenger: messenger, settings: settings}
}

// Name implements Module.
func (m *HelpModule) Name() string { return "help" }

// Handle implements Module.
func (m *HelpModule) Handle(ctx context.Context, ev model.Event) (bool, error) {
	msg := privateMessage(ev)
	if msg == nil {
		return false, nil
	}
	if cmd := msg.Command(); cmd != cmdStart && cmd != cmdHelp {
		return false, nil
	}

	commands := Commands(ctx)
	notary, err := m.accounts.IsNotary(ctx, msg.From.ID)
	if err != nil {
		return true, err
	}
	if notary {
		commands = append(commands, NotaryCommands(ctx)...)
	}

	lines := make([]string, 0, len(commands))
	for _, c := range commands {
		lines = append(lines, "/"+c.Name+` \- `+escapeMarkdown(c.Description))
	}

	text := bottext.TData(ctx, "help_info", map[string]any{
		"Hostname": escapeMarkdown(m.settings.Hostname),
		"Commands": strings.Join(lines, "\n"),
	})
	return true, m.messenger.SendReply(ctx, msg.Chat.ID, model.Reply{
		Text:           text,
		Markdown:       true,
		RemoveKeyboard: true,
	})
}
