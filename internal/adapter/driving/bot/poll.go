package bot

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/ericfisherdev/passlink/internal/adapter/driving/bot/bottext"
	"github.com/ericfisherdev/passlink/internal/application"
	"github.com/ericfisherdev/passlink/internal/domain/model"
	"github.com/ericfisherdev/passlink/internal/domain/port/driven"
)

const (
	cmdCheck          = "/check"
	resultStartPoll   = "/startcheckin"
	dataCheckIn       = "/checkin"
	attestedMark      = " ✔"
	participantJoiner = ", "
)

// PollModule runs group check-in polls. A poll is started from inline mode
// and anchored to the inline message it renders into.
type PollModule struct {
	linker    *application.LinkerService
	polls     *application.PollService
	messenger driven.Messenger
	settings  Settings
}

// Compile-time interface satisfaction check.
var _ InlineResultProducer = (*PollModule)(nil)

// NewPollModule creates a new PollModule.
func NewPollModule(
	linker *application.LinkerService,
	polls *application.PollService,
	messenger driven.Messenger,
	settings Settings,
) *PollModule {
	return &PollModule{
		linker:    linker,
		polls:     polls,
		messenger: messenger,
		settings:  settings,
	}
}

// Name implements Module.
func (m *PollModule) Name() string { return "poll" }

// Handle implements Module.
func (m *PollModule) Handle(ctx context.Context, ev model.Event) (bool, error) {
	switch ev.Kind {
	case model.EventMessage:
		msg := privateMessage(ev)
		if msg == nil || msg.Command() != cmdCheck {
			return false, nil
		}
		return true, m.prompt(ctx, msg)

	case model.EventChosenInlineResult:
		r := ev.ChosenInlineResult
		if r == nil || r.ResultID != resultStartPoll || r.InlineMessageID == "" {
			return false, nil
		}
		return true, m.start(ctx, r)

	case model.EventCallback:
		cb := ev.Callback
		if cb == nil || cb.Data != dataCheckIn {
			return false, nil
		}
		return true, m.checkIn(ctx, cb)
	}
	return false, nil
}

// InlineResults implements InlineResultProducer.
func (m *PollModule) InlineResults(ctx context.Context, q *model.InlineQuery) ([]model.InlineArticle, error) {
	text := m.render(ctx, m.linker.Now(), q.From.DisplayName(), bottext.T(ctx, "poll_no_responses"))
	return []model.InlineArticle{{
		ID:       resultStartPoll,
		Title:    bottext.T(ctx, "poll_title"),
		Text:     text,
		Markdown: true,
		Keyboard: m.checkInKeyboard(ctx),
	}}, nil
}

func (m *PollModule) prompt(ctx context.Context, msg *model.Message) error {
	text := bottext.TData(ctx, "check_info", map[string]any{"BotUsername": escapeMarkdown(m.settings.BotUsername)})
	kb := model.Keyboard{{{Text: bottext.T(ctx, "button_check_status"), SwitchInline: true}}}
	return m.messenger.SendReply(ctx, msg.Chat.ID, markdownReply(text, kb))
}

func (m *PollModule) start(ctx context.Context, r *model.ChosenInlineResult) error {
	poll, err := m.polls.NewPoll(ctx, r.InlineMessageID, r.From)
	if err != nil {
		return err
	}
	return m.sync(ctx, poll)
}

func (m *PollModule) checkIn(ctx context.Context, cb *model.Callback) error {
	failed := func() error {
		return m.messenger.AnswerCallback(ctx, cb.ID, bottext.T(ctx, "checkin_error_toast"))
	}

	if cb.InlineMessageID == "" {
		return failed()
	}

	linked, err := m.linker.IsAccountLinked(ctx, cb.From.ID)
	if err != nil {
		return err
	}
	if !linked {
		return m.messenger.AnswerCallback(ctx, cb.ID, bottext.TData(ctx, "checkin_not_linked_toast", map[string]any{
			"BotUsername": m.settings.BotUsername,
		}))
	}

	poll, changed, err := m.polls.CheckIn(ctx, cb.InlineMessageID, cb.From)
	if errors.Is(err, application.ErrPollNotFound) {
		slog.Info("check-in to unknown poll", "handle", cb.InlineMessageID, "account_id", cb.From.ID)
		return failed()
	}
	if err != nil {
		return err
	}

	if changed {
		if err := m.sync(ctx, poll); err != nil {
			return err
		}
	}
	return m.messenger.AnswerCallback(ctx, cb.ID, bottext.T(ctx, "checkin_toast"))
}

// sync re-renders the poll message with the current participant list.
func (m *PollModule) sync(ctx context.Context, poll *model.PollInfo) error {
	attested, err := m.linker.FilterAttestedAccounts(ctx, poll.ParticipantIDs())
	if err != nil {
		return err
	}
	marked := make(map[int64]bool, len(attested))
	for _, id := range attested {
		marked[id] = true
	}

	members := bottext.T(ctx, "poll_no_responses")
	if len(poll.Participants) > 0 {
		names := make([]string, 0, len(poll.Participants))
		for _, p := range poll.Participants {
			name := escapeMarkdown(p.DisplayName)
			if marked[p.AccountID] {
				name += attestedMark
			}
			names = append(names, name)
		}
		members = strings.Join(names, participantJoiner)
	}

	slog.Debug("updating poll", "handle", poll.Handle, "participants", len(poll.Participants))
	text := m.render(ctx, poll.CreatedAt, poll.Creator.DisplayName, members)
	return m.messenger.EditInlineMessage(ctx, poll.Handle, markdownReply(text, m.checkInKeyboard(ctx)))
}

// render builds the poll text. members must already be escaped.
func (m *PollModule) render(ctx context.Context, created time.Time, creator, members string) string {
	return bottext.TData(ctx, "poll_text", map[string]any{
		"Date":        m.settings.date(created),
		"Creator":     escapeMarkdown(creator),
		"BotUsername": escapeMarkdown(m.settings.BotUsername),
		"Members":     members,
	})
}

func (m *PollModule) checkInKeyboard(ctx context.Context) model.Keyboard {
	return model.Keyboard{{{Text: bottext.T(ctx, "button_check_in"), CallbackData: dataCheckIn}}}
}
