package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/ericfisherdev/passlink/internal/adapter/driving/bot/bottext"
	"github.com/ericfisherdev/passlink/internal/application"
	"github.com/ericfisherdev/passlink/internal/domain/model"
	"github.com/ericfisherdev/passlink/internal/domain/port/driven"
)

const (
	cmdLink         = "/link"
	dataConfirmLink = "/confirmlink"
	dataCancelLink  = "/cancellink"

	maxPhotoWidth    = 2000
	maxDocumentBytes = 20_000_000
)

var linkCodePattern = regexp.MustCompile("(?m)^Unique link code: `?([^\\s`]+)`?\\s*$")

// LinkModule runs the credential link protocol: status and instructions,
// image scan and verification, then confirmation of the embedded link code.
type LinkModule struct {
	linker    *application.LinkerService
	decoder   driven.BarcodeDecoder
	messenger driven.Messenger
	codec     *model.LinkCodec
	settings  Settings
}

// NewLinkModule creates a new LinkModule.
func NewLinkModule(
	linker *application.LinkerService,
	decoder driven.BarcodeDecoder,
	messenger driven.Messenger,
	codec *model.LinkCodec,
	settings Settings,
) *LinkModule {
	return &LinkModule{
		linker:    linker,
		decoder:   decoder,
		messenger: messenger,
		codec:     codec,
		settings:  settings,
	}
}

// Name implements Module.
func (m *LinkModule) Name() string { return "link" }

// Handle implements Module.
func (m *LinkModule) Handle(ctx context.Context, ev model.Event) (bool, error) {
	if msg := privateMessage(ev); msg != nil {
		if msg.Command() == cmdLink {
			return true, m.status(ctx, msg)
		}
		if len(msg.Photos) > 0 || msg.Document != nil {
			if msg.ForwardedFromOther() {
				return false, nil
			}
			return true, m.scan(ctx, msg)
		}
		return false, nil
	}

	if cb := privateCallback(ev); cb != nil {
		switch cb.Data {
		case dataConfirmLink:
			return true, m.confirm(ctx, cb)
		case dataCancelLink:
			return true, m.cancel(ctx, cb)
		}
	}
	return false, nil
}

func (m *LinkModule) status(ctx context.Context, msg *model.Message) error {
	linked, err := m.linker.IsAccountLinked(ctx, msg.From.ID)
	if err != nil {
		return err
	}

	text := bottext.TData(ctx, "link_info", map[string]any{"Preamble": preamble(ctx, linked)})
	return m.messenger.SendReply(ctx, msg.Chat.ID, markdownReply(text, nil))
}

func (m *LinkModule) scan(ctx context.Context, msg *model.Message) error {
	fileID := selectImage(msg)
	if fileID == "" {
		return m.scanFailed(ctx, msg)
	}

	if err := m.messenger.SendTyping(ctx, msg.Chat.ID); err != nil {
		return err
	}

	data, err := m.messenger.DownloadFile(ctx, fileID)
	if err != nil {
		return err
	}

	payload, err := m.decoder.Decode(ctx, data)
	if errors.Is(err, driven.ErrNoBarcode) || (err == nil && strings.TrimSpace(payload) == "") {
		slog.Info("no barcode in uploaded image", "account_id", msg.From.ID, "error", err)
		return m.scanFailed(ctx, msg)
	}
	if err != nil {
		return fmt.Errorf("decode barcode: %w", err)
	}

	echo := bottext.TData(ctx, "scan_echo", map[string]any{"Payload": escapeCode(payload)})
	if err := m.messenger.SendReply(ctx, msg.Chat.ID, markdownReply(echo, nil)); err != nil {
		return err
	}

	return m.verify(ctx, msg, payload)
}

func (m *LinkModule) scanFailed(ctx context.Context, msg *model.Message) error {
	return m.messenger.SendReply(ctx, msg.Chat.ID, markdownReply(bottext.T(ctx, "scan_failed"), nil))
}

func (m *LinkModule) verify(ctx context.Context, msg *model.Message, payload string) error {
	fail := func(reasons string) error {
		text := bottext.TData(ctx, "verify_failed", map[string]any{"Reasons": reasons})
		return m.messenger.SendReply(ctx, msg.Chat.ID, markdownReply(text, nil))
	}

	result, err := m.linker.VerifyCredential(ctx, payload)
	if err != nil {
		return err
	}
	if result == nil {
		return fail(bottext.T(ctx, "verify_reason_no_result"))
	}
	if !result.Succeeded {
		return fail(failureReasons(ctx, result.FailureReasons))
	}
	if !result.Complete() {
		return fail(bottext.T(ctx, "verify_reason_invalid_data"))
	}

	hash := model.HashCredentialToken(result.TokenID)
	linked, err := m.linker.IsCredentialLinked(ctx, hash)
	if err != nil {
		return err
	}
	if linked {
		return fail(bottext.T(ctx, "verify_reason_already_linked"))
	}

	now := m.linker.Now()
	if !now.Before(result.ValidTo) {
		return fail(bottext.T(ctx, "verify_reason_expired"))
	}
	if now.Before(result.ValidFrom) {
		return fail(bottext.TData(ctx, "verify_reason_not_yet_valid", map[string]any{
			"ValidFrom": m.settings.dateTime(result.ValidFrom),
		}))
	}

	code, err := m.codec.Encode(model.LinkedPass{
		AccountID:      msg.From.ID,
		CredentialHash: hash,
		ValidFrom:      result.ValidFrom,
		ValidTo:        result.ValidTo,
	})
	if err != nil {
		return err
	}

	text := bottext.TData(ctx, "link_confirm", map[string]any{
		"GivenName":   escapeMarkdown(result.Identity.GivenName),
		"FamilyName":  escapeMarkdown(result.Identity.FamilyName),
		"DateOfBirth": escapeMarkdown(result.Identity.DateOfBirth.Format(dateLayout)),
		"ValidFrom":   m.settings.dateTime(result.ValidFrom),
		"ValidTo":     m.settings.dateTime(result.ValidTo),
		"Code":        escapeCode(code),
	})
	kb := confirmKeyboard(bottext.T(ctx, "button_confirm"), dataConfirmLink, bottext.T(ctx, "button_cancel"), dataCancelLink)
	return m.messenger.SendReply(ctx, msg.Chat.ID, markdownReply(text, kb))
}

func (m *LinkModule) confirm(ctx context.Context, cb *model.Callback) error {
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

	fail := func(reasonID string) error {
		if err := m.messenger.AnswerCallback(ctx, cb.ID, ""); err != nil {
			return err
		}
		text := bottext.TData(ctx, "link_failed", map[string]any{"Reason": bottext.T(ctx, reasonID)})
		return m.messenger.SendReply(ctx, chatID, markdownReply(text, nil))
	}

	match := linkCodePattern.FindStringSubmatch(cb.Message.Text)
	if match == nil {
		return fail("link_reason_no_code")
	}

	pass, err := m.codec.Decode(match[1])
	if err != nil {
		slog.Warn("rejected link code", "account_id", cb.From.ID, "error", err)
		return fail("link_reason_bad_code")
	}
	if pass.AccountID != cb.From.ID {
		slog.Warn("link code presented by another account", "account_id", cb.From.ID, "code_account_id", pass.AccountID)
		return fail("link_reason_wrong_account")
	}

	ok, err := m.linker.LinkCredential(ctx, pass)
	if err != nil {
		return err
	}
	if !ok {
		return fail("link_reason_rejected")
	}

	if err := m.messenger.AnswerCallback(ctx, cb.ID, bottext.T(ctx, "link_success_toast")); err != nil {
		return err
	}
	return m.messenger.SendReply(ctx, chatID, markdownReply(bottext.T(ctx, "link_success"), nil))
}

func (m *LinkModule) cancel(ctx context.Context, cb *model.Callback) error {
	chatID := cb.Message.Chat.ID
	if err := m.messenger.ClearKeyboard(ctx, chatID, cb.Message.ID); err != nil {
		return err
	}
	if err := m.messenger.SendReply(ctx, chatID, markdownReply(bottext.T(ctx, "link_cancelled"), nil)); err != nil {
		return err
	}
	return m.messenger.AnswerCallback(ctx, cb.ID, bottext.T(ctx, "link_cancelled_toast"))
}

// selectImage picks the largest photo size no wider than maxPhotoWidth, or
// else an attached document small enough to process.
func selectImage(msg *model.Message) string {
	var best *model.Photo
	for i := range msg.Photos {
		p := &msg.Photos[i]
		if p.Width > maxPhotoWidth {
			continue
		}
		if best == nil || p.Width > best.Width {
			best = p
		}
	}
	if best != nil {
		return best.FileID
	}

	if msg.Document != nil && msg.Document.FileSize <= maxDocumentBytes {
		return msg.Document.FileID
	}
	return ""
}

func failureReasons(ctx context.Context, reasons []model.FailureReason) string {
	lines := make([]string, 0, len(reasons))
	for _, r := range reasons {
		lines = append(lines, bottext.TData(ctx, "verify_reason", map[string]any{
			"Code":    escapeMarkdown(r.Code),
			"Message": escapeMarkdown(r.Message),
		}))
	}
	return strings.Join(lines, "\n")
}

func preamble(ctx context.Context, linked bool) string {
	if linked {
		return bottext.T(ctx, "linked_preamble")
	}
	return bottext.T(ctx, "not_linked_preamble")
}
