package bot

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"

	"github.com/ericfisherdev/passlink/internal/adapter/driving/bot/bottext"
	"github.com/ericfisherdev/passlink/internal/domain/model"
)

type fakeModule struct {
	name    string
	claim   bool
	err     error
	panics  bool
	calls   *[]string
	lastCtx context.Context
}

func (f *fakeModule) Name() string { return f.name }

func (f *fakeModule) Handle(ctx context.Context, _ model.Event) (bool, error) {
	*f.calls = append(*f.calls, f.name)
	f.lastCtx = ctx
	if f.panics {
		panic("boom")
	}
	return f.claim, f.err
}

func TestDispatcher_FirstClaimWins(t *testing.T) {
	var calls []string
	d := NewDispatcher(slog.Default(),
		&fakeModule{name: "a", calls: &calls},
		&fakeModule{name: "b", claim: true, calls: &calls},
		&fakeModule{name: "c", claim: true, calls: &calls},
	)

	assert.True(t, d.Dispatch(context.Background(), textMessage(ann, "x")))
	assert.Equal(t, []string{"a", "b"}, calls)
}

func TestDispatcher_FailuresFallThrough(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	var calls []string
	d := NewDispatcher(logger,
		&fakeModule{name: "erring", claim: true, err: errors.New("store down"), calls: &calls},
		&fakeModule{name: "panicking", claim: true, panics: true, calls: &calls},
		&fakeModule{name: "last", claim: true, calls: &calls},
	)

	assert.True(t, d.Dispatch(context.Background(), textMessage(ann, "x")))
	assert.Equal(t, []string{"erring", "panicking", "last"}, calls)

	out := buf.String()
	assert.Contains(t, out, "module=erring")
	assert.Contains(t, out, "store down")
	assert.Contains(t, out, "module=panicking")
	assert.Contains(t, out, "kind=message")
}

func TestDispatcher_Unclaimed(t *testing.T) {
	var calls []string
	d := NewDispatcher(slog.Default(), &fakeModule{name: "a", calls: &calls})

	assert.False(t, d.Dispatch(context.Background(), model.Event{Kind: model.EventInlineQuery}))
	assert.Equal(t, []string{"a"}, calls)
}

func TestDispatcher_SetsLocaleFromSender(t *testing.T) {
	var calls []string
	m := &fakeModule{name: "a", calls: &calls}
	d := NewDispatcher(slog.Default(), m)

	ev := textMessage(ann, "x")
	ev.Message.From.LanguageCode = "de"
	d.Dispatch(context.Background(), ev)

	// No German catalog ships, so lookups fall back to English.
	assert.Equal(t, bottext.T(bottext.WithLocale(context.Background(), language.English), "button_confirm"),
		bottext.T(m.lastCtx, "button_confirm"))
}
