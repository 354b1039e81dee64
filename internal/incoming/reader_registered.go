package incoming

import (
	"context"
	"errors"
	"fmt"

	"github.com/alfredjeanlab/nethub/internal/idgen"
	"github.com/alfredjeanlab/nethub/internal/model"
	"github.com/alfredjeanlab/nethub/internal/store"
)

// ReaderRegistered provisions a network reader account for a visitor who
// registered on any node.
type ReaderRegistered struct{}

func (ReaderRegistered) Action() Action { return ActionReaderRegistered }

// Email reads "email", falling back to "user_email" for older nodes.
func (ReaderRegistered) Email(data map[string]any) string {
	if email := stringField(data, "email"); email != "" {
		return email
	}
	return stringField(data, "user_email")
}

// PostProcess creates the account unless one already exists for the email.
// Creation and both metadata entries are written in one transaction. Losing
// a creation race to a concurrent delivery of the same event is not an error.
func (ReaderRegistered) PostProcess(ctx context.Context, ev *Event, dir store.Directory) error {
	email := ev.Email()
	if email == "" {
		return nil
	}

	_, err := dir.FindAccountByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("looking up %s: %w", email, err)
	}

	password, err := idgen.Password()
	if err != nil {
		return fmt.Errorf("generating password: %w", err)
	}

	err = dir.RunInTransaction(ctx, func(tx store.Directory) error {
		acct := &model.Account{
			Login: email,
			Email: email,
			Role:  model.RoleNetworkReader,
		}
		if err := tx.CreateAccount(ctx, acct, password); err != nil {
			return err
		}
		if err := tx.AttachMetadata(ctx, acct.ID, model.MetaRemoteSite, ev.Site()); err != nil {
			return fmt.Errorf("attaching %s: %w", model.MetaRemoteSite, err)
		}
		if err := tx.AttachMetadata(ctx, acct.ID, model.MetaRemoteID, ev.Field("user_id")); err != nil {
			return fmt.Errorf("attaching %s: %w", model.MetaRemoteID, err)
		}
		return nil
	})
	if errors.Is(err, store.ErrAccountExists) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("provisioning reader %s: %w", email, err)
	}
	return nil
}
