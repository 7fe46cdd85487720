package bot

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ericfisherdev/passlink/internal/adapter/driving/bot/bottext"
	"github.com/ericfisherdev/passlink/internal/domain/model"
)

// Dispatcher offers each event to its modules in order until one claims it.
// A module that fails or panics is logged and treated as not claiming the
// event, so later modules still get their turn.
type Dispatcher struct {
	modules []Module
	logger  *slog.Logger
}

// NewDispatcher creates a Dispatcher over modules in priority order.
func NewDispatcher(logger *slog.Logger, modules ...Module) *Dispatcher {
	return &Dispatcher{modules: modules, logger: logger}
}

// Dispatch routes ev and reports whether any module claimed it.
func (d *Dispatcher) Dispatch(ctx context.Context, ev model.Event) bool {
	if sender, ok := ev.Sender(); ok {
		ctx = bottext.WithLocale(ctx, bottext.MatchLanguage(sender.LanguageCode))
	}

	for _, m := range d.modules {
		if d.offer(ctx, m, ev) {
			return true
		}
	}

	d.logger.Debug("unhandled event", "kind", ev.Kind)
	return false
}

func (d *Dispatcher) offer(ctx context.Context, m Module, ev model.Event) (claimed bool) {
	defer func() {
		if v := recover(); v != nil {
			d.logger.Error("bot module panicked",
				"module", m.Name(),
				"kind", ev.Kind,
				"panic", fmt.Sprint(v),
			)
			claimed = false
		}
	}()

	claimed, err := m.Handle(ctx, ev)
	if err != nil {
		d.logger.Error("bot module failed",
			"module", m.Name(),
			"kind", ev.Kind,
			"error", err,
		)
		return false
	}
	return claimed
}
