package incoming

import (
	"context"
	"fmt"
	"sort"

	"github.com/alfredjeanlab/nethub/internal/store"
)

// Action is the wire-level name of an event type.
type Action string

// Accepted actions.
const (
	ActionReaderRegistered              Action = "reader_registered"
	ActionDonationNew                   Action = "donation_new"
	ActionDonationSubscriptionCancelled Action = "donation_subscription_cancelled"
	ActionOrderChanged                  Action = "newspack_node_order_changed"
	ActionSubscriptionChanged           Action = "newspack_node_subscription_changed"
	ActionUserUpdated                   Action = "network_user_updated"
)

// Handler applies the side effects of one event type.
type Handler interface {
	// Action returns the action name the handler is registered under.
	Action() Action

	// Email extracts the subject address from the event payload, or "".
	Email(data map[string]any) string

	// PostProcess applies the event to dir. It must be idempotent: applying
	// the same event twice leaves the same state as applying it once.
	PostProcess(ctx context.Context, ev *Event, dir store.Directory) error
}

// UnknownActionError is returned when an action name is not in the registry.
type UnknownActionError struct {
	Name string
}

func (e *UnknownActionError) Error() string {
	return fmt.Sprintf("unknown action %q", e.Name)
}

// Registry maps action names to handlers. It is built once and never
// modified afterwards, so it is safe for concurrent use.
type Registry struct {
	handlers map[Action]Handler
}

// NewRegistry builds a registry from handlers. Two handlers registered under
// the same action is an error.
func NewRegistry(handlers ...Handler) (*Registry, error) {
	r := &Registry{handlers: make(map[Action]Handler, len(handlers))}
	for _, h := range handlers {
		a := h.Action()
		if a == "" {
			return nil, fmt.Errorf("registry: handler %T has an empty action", h)
		}
		if prev, ok := r.handlers[a]; ok {
			return nil, fmt.Errorf("registry: action %q registered twice (%T, %T)", a, prev, h)
		}
		r.handlers[a] = h
	}
	return r, nil
}

// DefaultRegistry returns the registry of every action the hub accepts.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(
		ReaderRegistered{},
		UserUpdated{},
		LogOnly{Name: ActionDonationNew},
		LogOnly{Name: ActionDonationSubscriptionCancelled},
		LogOnly{Name: ActionOrderChanged},
		LogOnly{Name: ActionSubscriptionChanged},
	)
	if err != nil {
		panic(err)
	}
	return r
}

// Resolve returns the handler for name, or an *UnknownActionError.
func (r *Registry) Resolve(name string) (Handler, error) {
	h, ok := r.handlers[Action(name)]
	if !ok {
		return nil, &UnknownActionError{Name: name}
	}
	return h, nil
}

// Known reports whether name is a registered action.
func (r *Registry) Known(name string) bool {
	_, ok := r.handlers[Action(name)]
	return ok
}

// Actions returns the registered actions in lexical order.
func (r *Registry) Actions() []Action {
	out := make([]Action, 0, len(r.handlers))
	for a := range r.handlers {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
