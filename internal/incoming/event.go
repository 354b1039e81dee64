package incoming

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/alfredjeanlab/nethub/internal/model"
)

// ErrInvalidPayload is returned when event data is not a JSON object.
var ErrInvalidPayload = errors.New("event data must be a JSON object")

// Event is one event received from a node, before or during processing.
// It is immutable after construction.
type Event struct {
	action    Action
	node      model.Node
	email     string
	raw       json.RawMessage
	data      map[string]any
	timestamp time.Time
}

// FromWire builds an Event from raw wire data. The handler extracts the email
// field for its event type. An empty or null payload is treated as an empty
// object; a missing email is valid.
func FromWire(h Handler, node model.Node, payload json.RawMessage, ts time.Time) (*Event, error) {
	raw := bytes.TrimSpace(payload)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		raw = []byte("{}")
	}

	data, err := decodeObject(raw)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	return &Event{
		action:    h.Action(),
		node:      node,
		email:     strings.TrimSpace(h.Email(data)),
		raw:       json.RawMessage(buf.Bytes()),
		data:      data,
		timestamp: ts,
	}, nil
}

func decodeObject(raw []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var data map[string]any
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if data == nil {
		return nil, ErrInvalidPayload
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data", ErrInvalidPayload)
	}
	return data, nil
}

func (e *Event) Action() Action {
	return e.action
}

func (e *Event) Node() model.Node {
	return e.node
}

func (e *Event) Email() string {
	return e.email
}

func (e *Event) Timestamp() time.Time {
	return e.timestamp
}

func (e *Event) Raw() json.RawMessage {
	return append(json.RawMessage(nil), e.raw...)
}

// Site returns the address of the node the event came from.
func (e *Event) Site() string { return e.node.URL }

// Data returns a fresh copy of the structured payload; mutating it does not
// affect the event.
func (e *Event) Data() map[string]any {
	data, _ := decodeObject(e.raw)
	return data
}

// Field returns the top-level payload value for key rendered as a string,
// or "" if it is absent or not a scalar.
func (e *Event) Field(key string) string {
	return stringField(e.data, key)
}

// Record converts the event to its persisted form.
func (e *Event) Record() *model.Record {
	return &model.Record{
		NodeID:     e.node.ID,
		ActionName: string(e.action),
		Email:      e.email,
		Data:       e.Raw(),
		Timestamp:  e.timestamp,
	}
}

// stringField renders data[key] as a string for scalar JSON values.
func stringField(data map[string]any, key string) string {
	switch v := data[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

// FromRecord rebuilds an Event from a persisted row. The stored email is
// kept as-is; the node address is not persisted and is left empty.
func FromRecord(h Handler, rec *model.Record) (*Event, error) {
	ev, err := FromWire(h, model.Node{ID: rec.NodeID}, rec.Data, rec.Timestamp)
	if err != nil {
		return nil, err
	}
	ev.email = rec.Email
	return ev, nil
}
