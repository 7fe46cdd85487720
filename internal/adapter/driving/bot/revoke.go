package bot

import (
	"context"

	"github.com/ericfisherdev/passlink/internal/adapter/driving/bot/bottext"
	"github.com/ericfisherdev/passlink/internal/application"
	"github.com/ericfisherdev/passlink/internal/domain/model"
	"github.com/ericfisherdev/passlink/internal/domain/port/driven"
)

const (
	cmdRevoke         = "/revoke"
	dataConfirmRevoke = "/confirmrevoke"
	dataCancelRevoke  = "/cancelrevoke"
)

// RevokeModule lets an account remove its own link after confirmation.
type RevokeModule struct {
	linker    *application.LinkerService
	messenger driven.Messenger
}

// NewRevokeModule creates a new RevokeModule.
func NewRevokeModule(linker *application.LinkerService, messenger driven.Messenger) *RevokeModule {
	return &RevokeModule{linker: linker, messenger: messenger}
}

// Name implements Module.
func (m *RevokeModule) Name() string { return "revoke" }

// Handle implements Module.
func (m *RevokeModule) Handle(ctx context.Context, ev model.Event) (bool, error) {
	if msg := privateMessage(ev); msg != nil {
		if msg.Command() == cmdRevoke {
			return true, m.prompt(ctx, msg)
		}
		return false, nil
	}

	if cb := privateCallback(ev); cb != nil {
		switch cb.Data {
		case dataConfirmRevoke:
			return true, m.confirm(ctx, cb)
		case dataCancelRevoke:
			return true, m.cancel(ctx, cb)
		}
	}
	return false, nil
}

func (m *RevokeModule) prompt(ctx context.Context, msg *model.Message) error {
	linked, err := m.linker.IsAccountLinked(ctx, msg.From.ID)
	if err != nil {
		return err
	}

	data := map[string]any{"Preamble": preamble(ctx, linked)}
	if !linked {
		return m.messenger.SendReply(ctx, msg.Chat.ID, markdownReply(bottext.TData(ctx, "revoke_nothing", data), nil))
	}

	kb := confirmKeyboard(bottext.T(ctx, "button_confirm"), dataConfirmRevoke, bottext.T(ctx, "button_cancel"), dataCancelRevoke)
	return m.messenger.SendReply(ctx, msg.Chat.ID, markdownReply(bottext.TData(ctx, "revoke_prompt", data), kb))
}

func (m *RevokeModule) confirm(ctx context.Context, cb *model.Callback) error {
	chatID := cb.Message.Chat.ID
	if err := m.messenger.ClearKeyboard(ctx, chatID, cb.Message.ID); err != nil {
		return err
	}
	if err := m.linker.RevokeCredential(ctx, cb.From.ID); err != nil {
		return err
	}
	if err := m.messenger.SendReply(ctx, chatID, markdownReply(bottext.T(ctx, "revoked"), nil)); err != nil {
		return err
	}
	return m.messenger.AnswerCallback(ctx, cb.ID, bottext.T(ctx, "revoked_toast"))
}

func (m *RevokeModule) cancel(ctx context.Context, cb *model.Callback) error {
	if err := m.messenger.AnswerCallback(ctx, cb.ID, bottext.T(ctx, "revoke_cancelled_toast")); err != nil {
		return err
	}
	chatID := cb.Message.Chat.ID
	if err := m.messenger.ClearKeyboard(ctx, chatID, cb.Message.ID); err != nil {
		return err
	}
	return m.messenger.SendReply(ctx, chatID, markdownReply(bottext.T(ctx, "revoke_cancelled"), nil))
}
