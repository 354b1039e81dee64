package incoming

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/alfredjeanlab/nethub/internal/store"
)

// UserUpdated copies the scalar entries of the payload's "meta" object onto an
// existing account. Events for unknown emails are ignored.
type UserUpdated struct{}

func (UserUpdated) Action() Action { return ActionUserUpdated }

func (UserUpdated) Email(data map[string]any) string { return stringField(data, "email") }

func (UserUpdated) PostProcess(ctx context.Context, ev *Event, dir store.Directory) error {
	email := ev.Email()
	if email == "" {
		return nil
	}

	meta, _ := ev.Data()["meta"].(map[string]any)
	if len(meta) == 0 {
		return nil
	}

	acct, err := dir.FindAccountByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("looking up %s: %w", email, err)
	}

	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return dir.RunInTransaction(ctx, func(tx store.Directory) error {
		for _, k := range keys {
			switch meta[k].(type) {
			case nil, map[string]any, []any:
				continue
			}
			if err := tx.AttachMetadata(ctx, acct.ID, k, stringField(meta, k)); err != nil {
				return fmt.Errorf("attaching %s: %w", k, err)
			}
		}
		return nil
	})
}
