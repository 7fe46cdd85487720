package bot

import (
	"context"
	"fmt"

	"github.com/ericfisherdev/passlink/internal/domain/model"
	"github.com/ericfisherdev/passlink/internal/domain/port/driven"
)

// InlineResultsModule answers inline queries with the results of every
// producer, in order.
type InlineResultsModule struct {
	messenger driven.Messenger
	producers []InlineResultProducer
}

// NewInlineResultsModule creates a new InlineResultsModule.
func NewInlineResultsModule(messenger driven.Messenger, producers ...InlineResultProducer) *InlineResultsModule {
	return &InlineResultsModule{messenger: messenger, producers: producers}
}

// InlineProducers returns the modules that also produce inline results.
func InlineProducers(modules ...Module) []InlineResultProducer {
	var out []InlineResultProducer
	for _, m := range modules {
		if p, ok := m.(InlineResultProducer); ok {
			out = append(out, p)
		}
	}
	return out
}

// Name implements Module.
func (m *InlineResultsModule) Name() string { return "inline_results" }

// Handle implements Module.
func (m *InlineResultsModule) Handle(ctx context.Context, ev model.Event) (bool, error) {
	if ev.Kind != model.EventInlineQuery || ev.InlineQuery == nil {
		return false, nil
	}

	results := make([]model.InlineArticle, 0, len(m.producers))
	for _, p := range m.producers {
		r, err := p.InlineResults(ctx, ev.InlineQuery)
		if err != nil {
			return false, fmt.Errorf("collect inline results: %w", err)
		}
		results = append(results, r...)
	}

	return true, m.messenger.AnswerInlineQuery(ctx, ev.InlineQuery.ID, results)
}
