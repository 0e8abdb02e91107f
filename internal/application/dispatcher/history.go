package dispatcher

import (
	"context"
	"fmt"

	"github.com/garyjia/invoice-intake/internal/application/port"
	"github.com/garyjia/invoice-intake/internal/domain/event"
)

// HistoryHandlerName is the subscription name of the history recorder
const HistoryHandlerName = "history_recorder"

// NewHistoryRecorder returns a handler appending each event to repo
func NewHistoryRecorder(repo port.EventRepository) Handler {
	return func(ctx context.Context, evt *event.Event) error {
		if err := repo.Append(ctx, evt); err != nil {
			return fmt.Errorf("record %s event: %w", evt.Type, err)
		}
		return nil
	}
}

// RecordHistory subscribes the history recorder to every event type
func RecordHistory(d Dispatcher, repo port.EventRepository) {
	handler := NewHistoryRecorder(repo)
	for _, t := range event.AllTypes() {
		d.SubscribeNamed(t, HistoryHandlerName, handler)
	}
}
