package incoming

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alfredjeanlab/nethub/internal/model"
	"github.com/alfredjeanlab/nethub/internal/passwd"
)

func mustEvent(t *testing.T, h Handler, payload string) *Event {
	t.Helper()
	ev, err := FromWire(h, testNode, json.RawMessage(payload), time.Now())
	if err != nil {
		t.Fatalf("FromWire: %v", err)
	}
	return ev
}

func TestReaderRegisteredCreatesAccount(t *testing.T) {
	dir := newMockDirectory()
	ev := mustEvent(t, ReaderRegistered{}, `{"email":"r@example.com","user_id":42}`)

	if err := (ReaderRegistered{}).PostProcess(context.Background(), ev, dir); err != nil {
		t.Fatalf("PostProcess: %v", err)
	}

	acct, err := dir.FindAccountByEmail(context.Background(), "r@example.com")
	if err != nil {
		t.Fatalf("account not created: %v", err)
	}
	if acct.Login != "r@example.com" || acct.Role != model.RoleNetworkReader {
		t.Errorf("account = %+v", acct)
	}
	meta := dir.metaFor("r@example.com")
	if meta[model.MetaRemoteSite] != "https://node-a.example" {
		t.Errorf("remote site = %q", meta[model.MetaRemoteSite])
	}
	if meta[model.MetaRemoteID] != "42" {
		t.Errorf("remote id = %q", meta[model.MetaRemoteID])
	}
	if pw := dir.state.passwords["r@example.com"]; len(pw) < 16 {
		t.Errorf("generated password too short: %q", pw)
	}
}

func TestReaderRegisteredIsIdempotent(t *testing.T) {
	dir := newMockDirectory()
	ev := mustEvent(t, ReaderRegistered{}, `{"email":"r@example.com","user_id":42}`)

	for i := 0; i < 2; i++ {
		if err := (ReaderRegistered{}).PostProcess(context.Background(), ev, dir); err != nil {
			t.Fatalf("PostProcess #%d: %v", i+1, err)
		}
	}
	if n := dir.accountCount(); n != 1 {
		t.Errorf("accounts = %d, want 1", n)
	}
	if dir.txCount != 1 {
		t.Errorf("transactions = %d, want 1 (second delivery should short-circuit)", dir.txCount)
	}
}

func TestReaderRegisteredMixedCaseFromTwoNodes(t *testing.T) {
	dir := newMockDirectory()
	first := mustEvent(t, ReaderRegistered{}, `{"email":"Reader@Example.com","user_id":1}`)
	second, err := FromWire(ReaderRegistered{}, model.Node{ID: 8, URL: "https://node-b.example"},
		json.RawMessage(`{"email":"reader@example.com","user_id":2}`), time.Now())
	if err != nil {
		t.Fatalf("FromWire: %v", err)
	}

	for _, ev := range []*Event{first, second} {
		if err := (ReaderRegistered{}).PostProcess(context.Background(), ev, dir); err != nil {
			t.Fatalf("PostProcess: %v", err)
		}
	}
	if n := dir.accountCount(); n != 1 {
		t.Fatalf("accounts = %d, want 1", n)
	}
	meta := dir.metaFor("reader@example.com")
	if meta[model.MetaRemoteSite] != "https://node-a.example" || meta[model.MetaRemoteID] != "1" {
		t.Errorf("meta = %v, want first registration kept", meta)
	}
}

func TestReaderRegisteredExistingAccountUntouched(t *testing.T) {
	dir := newMockDirectory()
	existing := dir.state.addAccount("r@example.com")
	dir.state.meta[existing.ID] = map[string]string{model.MetaRemoteSite: "https://origin.example"}

	ev := mustEvent(t, ReaderRegistered{}, `{"email":"r@example.com","user_id":9}`)
	if err := (ReaderRegistered{}).PostProcess(context.Background(), ev, dir); err != nil {
		t.Fatalf("PostProcess: %v", err)
	}
	if got := dir.metaFor("r@example.com")[model.MetaRemoteSite]; got != "https://origin.example" {
		t.Errorf("remote site overwritten: %q", got)
	}
}

func TestReaderRegisteredEmptyEmail(t *testing.T) {
	dir := newMockDirectory()
	dir.findErr = errors.New("directory must not be queried")

	ev := mustEvent(t, ReaderRegistered{}, `{"user_id":42}`)
	if err := (ReaderRegistered{}).PostProcess(context.Background(), ev, dir); err != nil {
		t.Fatalf("PostProcess: %v", err)
	}
	if n := dir.accountCount(); n != 0 {
		t.Errorf("accounts = %d, want 0", n)
	}
}

func TestReaderRegisteredUserEmailFallback(t *testing.T) {
	dir := newMockDirectory()
	ev := mustEvent(t, ReaderRegistered{}, `{"user_email":"legacy@example.com"}`)
	if err := (ReaderRegistered{}).PostProcess(context.Background(), ev, dir); err != nil {
		t.Fatalf("PostProcess: %v", err)
	}
	if _, err := dir.FindAccountByEmail(context.Background(), "legacy@example.com"); err != nil {
		t.Fatalf("account not created: %v", err)
	}
	if got := dir.metaFor("legacy@example.com")[model.MetaRemoteID]; got != "" {
		t.Errorf("remote id = %q, want empty when user_id is absent", got)
	}
}

func TestReaderRegisteredLosesCreateRace(t *testing.T) {
	dir := newMockDirectory()
	// Another delivery creates the account between lookup and insert.
	dir.beforeCreate = func(s *dirState) {
		if _, ok := s.accounts["r@example.com"]; !ok {
			s.addAccount("r@example.com")
		}
	}

	ev := mustEvent(t, ReaderRegistered{}, `{"email":"r@example.com","user_id":42}`)
	if err := (ReaderRegistered{}).PostProcess(context.Background(), ev, dir); err != nil {
		t.Fatalf("PostProcess: %v, want benign duplicate", err)
	}
}

func TestReaderRegisteredLookupError(t *testing.T) {
	dir := newMockDirectory()
	dir.findErr = errors.New("connection reset")

	ev := mustEvent(t, ReaderRegistered{}, `{"email":"r@example.com"}`)
	err := (ReaderRegistered{}).PostProcess(context.Background(), ev, dir)
	if err == nil || !errors.Is(err, dir.findErr) {
		t.Fatalf("PostProcess error = %v, want wrapped lookup error", err)
	}
}

func TestReaderRegisteredMetadataFailureRollsBack(t *testing.T) {
	dir := newMockDirectory()
	dir.attachErr = errors.New("disk full")

	ev := mustEvent(t, ReaderRegistered{}, `{"email":"r@example.com","user_id":1}`)
	err := (ReaderRegistered{}).PostProcess(context.Background(), ev, dir)
	if !errors.Is(err, dir.attachErr) {
		t.Fatalf("PostProcess error = %v, want attach error", err)
	}
	if n := dir.accountCount(); n != 0 {
		t.Errorf("accounts = %d, want 0 after rollback", n)
	}
}

func TestReaderRegisteredPasswordIsHashable(t *testing.T) {
	dir := newMockDirectory()
	ev := mustEvent(t, ReaderRegistered{}, `{"email":"r@example.com"}`)
	if err := (ReaderRegistered{}).PostProcess(context.Background(), ev, dir); err != nil {
		t.Fatalf("PostProcess: %v", err)
	}
	pw := dir.state.passwords["r@example.com"]
	hash, err := passwd.Hash(pw)
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	ok, err := passwd.Verify(pw, hash)
	if err != nil || !ok {
		t.Errorf("Verify = %v, %v", ok, err)
	}
}

func TestUserUpdatedAttachesMeta(t *testing.T) {
	dir := newMockDirectory()
	dir.state.addAccount("u@example.com")

	ev := mustEvent(t, UserUpdated{}, `{"email":"u@example.com","meta":{"first_name":"Ada","newsletter":true,"score":3,"nested":{"x":1},"list":[1],"gone":null}}`)
	if err := (UserUpdated{}).PostProcess(context.Background(), ev, dir); err != nil {
		t.Fatalf("PostProcess: %v", err)
	}
	meta := dir.metaFor("u@example.com")
	want := map[string]string{"first_name": "Ada", "newsletter": "true", "score": "3"}
	if len(meta) != len(want) {
		t.Fatalf("meta = %v, want %v", meta, want)
	}
	for k, v := range want {
		if meta[k] != v {
			t.Errorf("meta[%q] = %q, want %q", k, meta[k], v)
		}
	}
}

func TestUserUpdatedUnknownAccount(t *testing.T) {
	dir := newMockDirectory()
	ev := mustEvent(t, UserUpdated{}, `{"email":"nobody@example.com","meta":{"a":"b"}}`)
	if err := (UserUpdated{}).PostProcess(context.Background(), ev, dir); err != nil {
		t.Fatalf("PostProcess: %v", err)
	}
	if dir.accountCount() != 0 || dir.txCount != 0 {
		t.Error("unknown account must not be created or written")
	}
}

func TestLogOnlyHasNoSideEffects(t *testing.T) {
	dir := newMockDirectory()
	dir.findErr = errors.New("directory must not be queried")
	for _, a := range []Action{ActionDonationNew, ActionDonationSubscriptionCancelled, ActionOrderChanged, ActionSubscriptionChanged} {
		h := LogOnly{Name: a}
		ev := mustEvent(t, h, `{"email":"d@example.com"}`)
		if ev.Email() != "d@example.com" {
			t.Errorf("%s: Email() = %q", a, ev.Email())
		}
		if err := h.PostProcess(context.Background(), ev, dir); err != nil {
			t.Errorf("%s: PostProcess: %v", a, err)
		}
	}
	if dir.accountCount() != 0 {
		t.Error("reporting events must not create accounts")
	}
}
