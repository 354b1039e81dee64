package incoming

import (
	"context"

	"github.com/alfredjeanlab/nethub/internal/store"
)

// LogOnly is the handler for reporting events: they are recorded in the event
// log and have no side effects on the hub.
type LogOnly struct {
	Name Action
}

func (h LogOnly) Action() Action { return h.Name }

func (LogOnly) Email(data map[string]any) string { return stringField(data, "email") }

func (LogOnly) PostProcess(context.Context, *Event, store.Directory) error { return nil }
