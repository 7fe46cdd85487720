package bot

import (
	"context"
	"log/slog"
	"regexp"
	"strconv"

	"github.com/ericfisherdev/passlink/internal/adapter/driving/bot/bottext"
	"github.com/ericfisherdev/passlink/internal/application"
	"github.com/ericfisherdev/passlink/internal/domain/model"
	"github.com/ericfisherdev/passlink/internal/domain/port/driven"
)

const (
	cmdNotarise            = "/notarise"
	dataConfirmNotarise    = "/confirmnotarise"
	dataRevokeNotarisation = "/revokenotarise"
	dataCancelNotarise     = "/cancelnotarise"
)

var userIDPattern = regexp.MustCompile(`(?m)^User ID: (\S+)`)

// NotariseModule lets notaries attest or withdraw attestation of another
// account's link. The target is taken from a forwarded message, which the
// platform guarantees originated from that account. Every event is gated on
// the sender holding the notary claim.
type NotariseModule struct {
	linker    *application.LinkerService
	accounts  *application.AccountService
	messenger driven.Messenger
	settings  Settings
}

// NewNotariseModule creates a new NotariseModule.
func NewNotariseModule(
	linker *application.LinkerService,
	accounts *application.AccountService,
	messenger driven.Messenger,
	settings Settings,
) *NotariseModule {
	return &NotariseModule{
		linker:    linker,
		accounts:  accounts,
		messenger: messenger,
		settings:  settings,
	}
}

// Name implements Module.
func (m *NotariseModule) Name() string { return "notarise" }

// Handle implements Module.
func (m *NotariseModule) Handle(ctx context.Context, ev model.Event) (bool, error) {
	if msg := privateMessage(ev); msg != nil {
		if msg.Command() != cmdNotarise && !msg.ForwardedFromOther() {
			return false, nil
		}
		if ok, err := m.accounts.IsNotary(ctx, msg.From.ID); err != nil || !ok {
			return false, err
		}
		if msg.Command() == cmdNotarise {
			return true, m.messenger.SendReply(ctx, msg.Chat.ID, markdownReply(bottext.T(ctx, "notarise_info"), nil))
		}
		return true, m.forwarded(ctx, msg)
	}

	cb := privateCallback(ev)
	if cb == nil {
		return false, nil
	}
	switch cb.Data {
	case dataConfirmNotarise, dataRevokeNotarisation, dataCancelNotarise:
	default:
		return false, nil
	}
	if ok, err := m.accounts.IsNotary(ctx, cb.From.ID); err != nil || !ok {
		return false, err
	}

	switch cb.Data {
	case dataConfirmNotarise:
		return true, m.apply(ctx, cb, false)
	case dataRevokeNotarisation:
		return true, m.apply(ctx, cb, true)
	default:
		return true, m.cancel(ctx, cb)
	}
}

func (m *NotariseModule) forwarded(ctx context.Context, msg *model.Message) error {
	target := msg.ForwardFrom
	pass, err := m.linker.ActiveLink(ctx, target.ID)
	if err != nil {
		return err
	}
	if pass == nil {
		return m.messenger.SendReply(ctx, msg.Chat.ID, markdownReply(bottext.T(ctx, "notarise_target_not_linked"), nil))
	}

	data := map[string]any{
		"UserID":    strconv.FormatInt(target.ID, 10),
		"Name":      escapeMarkdown(target.DisplayName()),
		"ValidFrom": m.settings.date(pass.ValidFrom),
		"ValidTo":   m.settings.date(pass.ValidTo),
	}
	cancel := bottext.T(ctx, "button_cancel")

	if pass.AttestedBy(msg.From.ID) {
		kb := confirmKeyboard(bottext.T(ctx, "button_revoke"), dataRevokeNotarisation, cancel, dataCancelNotarise)
		return m.messenger.SendReply(ctx, msg.Chat.ID, markdownReply(bottext.TData(ctx, "notarise_revoke_confirm", data), kb))
	}
	kb := confirmKeyboard(bottext.T(ctx, "button_confirm"), dataConfirmNotarise, cancel, dataCancelNotarise)
	return m.messenger.SendReply(ctx, msg.Chat.ID, markdownReply(bottext.TData(ctx, "notarise_confirm", data), kb))
}

// apply notarises, or withdraws notarisation of, the account named by the
// "User ID" line of the prompt message.
func (m *NotariseModule) apply(ctx context.Context, cb *model.Callback, revoke bool) error {
	chatID := cb.Message.Chat.ID
	if err := m.messenger.ClearKeyboard(ctx, chatID, cb.Message.ID); err != nil {
		return err
	}
	if cb.Message.Text == "" {
		return m.messenger.AnswerCallback(ctx, cb.ID, "")
	}
	if err := m.messenger.SendTyping(ctx, chatID); err != nil {
		return err
	}

	failedID, rejectedID, doneID := "notarise_failed", "notarise_reason_rejected", "notarised"
	if revoke {
		failedID, rejectedID, doneID = "notarise_revoke_failed", "notarise_revoke_reason_rejected", "notarisation_revoked"
	}
	fail := func(reasonID string) error {
		if err := m.messenger.AnswerCallback(ctx, cb.ID, ""); err != nil {
			return err
		}
		text := bottext.TData(ctx, failedID, map[string]any{"Reason": bottext.T(ctx, reasonID)})
		return m.messenger.SendReply(ctx, chatID, markdownReply(text, nil))
	}

	match := userIDPattern.FindStringSubmatch(cb.Message.Text)
	if match == nil {
		return fail("notarise_reason_no_user")
	}
	targetID, err := strconv.ParseInt(match[1], 10, 64)
	if err != nil {
		return fail("notarise_reason_bad_user")
	}

	var ok bool
	if revoke {
		slog.Info("revoking notarisation", "account_id", targetID, "notary_id", cb.From.ID)
		ok, err = m.linker.RevokeNotarisation(ctx, targetID, cb.From.ID)
	} else {
		slog.Info("notarising", "account_id", targetID, "notary_id", cb.From.ID)
		ok, err = m.linker.Notarise(ctx, targetID, cb.From.ID)
	}
	if err != nil {
		return err
	}
	if !ok {
		return fail(rejectedID)
	}

	if err := m.messenger.AnswerCallback(ctx, cb.ID, bottext.T(ctx, doneID+"_toast")); err != nil {
		return err
	}
	return m.messenger.SendReply(ctx, chatID, markdownReply(bottext.T(ctx, doneID), nil))
}

func (m *NotariseModule) cancel(ctx context.Context, cb *model.Callback) error {
	chatID := cb.Message.Chat.ID
	if err := m.messenger.ClearKeyboard(ctx, chatID, cb.Message.ID); err != nil {
		return err
	}
	if err := m.messenger.SendReply(ctx, chatID, markdownReply(bottext.T(ctx, "notarise_cancelled"), nil)); err != nil {
		return err
	}
	return m.messenger.AnswerCallback(ctx, cb.ID, bottext.T(ctx, "notarise_cancelled_toast"))
}
