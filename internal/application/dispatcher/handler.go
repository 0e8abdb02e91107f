package dispatcher

import (
	"context"

	"github.com/garyjia/invoice-intake/internal/domain/event"
)

// Handler processes invoice events
type Handler func(ctx context.Context, evt *event.Event) error

type namedHandler struct {
	name    string
	handler Handler
}
