// Package envelope encodes domain events into CloudEvents-shaped JSON
// envelopes and decodes events back out of whatever the transport delivers.
//
// A delivered body takes one of three shapes:
//
//	Nested    {"specversion":"1.0", ..., "data": {"id": "..."}}
//	Flat      {"id": "...", "name": "..."}
//	Malformed anything else: not an object, wrong types, missing fields
//
// A "data" key always wins. If it is present but unusable the body is
// Malformed; the root object is never tried as a fallback.
package envelope

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DataField is the envelope key that carries the nested event.
const DataField = "data"

const (
	specVersion     = "1.0"
	dataContentType = "application/json"
	// ContentType is the media type of an envelope produced by Wrap.
	ContentType = "application/cloudevents+json"
)

// ErrMalformed is returned by Decode when no event can be extracted.
var ErrMalformed = errors.New("malformed envelope")

// Shape classifies a delivered body.
type Shape int

const (
	Malformed Shape = iota
	Nested
	Flat
)

func (s Shape) String() string {
	switch s {
	case Nested:
		return "nested"
	case Flat:
		return "flat"
	default:
		return "malformed"
	}
}

// Meta describes where an event came from and where it is going.
type Meta struct {
	Source     string
	Type       string
	Topic      string
	PubSubName string
}

// CloudEvent is the outer structure written by Wrap.
type CloudEvent struct {
	SpecVersion     string          `json:"specversion"`
	ID              string          `json:"id"`
	Source          string          `json:"source"`
	Type            string          `json:"type"`
	Time            time.Time       `json:"time"`
	DataContentType string          `json:"datacontenttype"`
	Topic           string          `json:"topic,omitempty"`
	PubSubName      string          `json:"pubsubname,omitempty"`
	Data            json.RawMessage `json:"data"`
}

// Wrap marshals event and nests it under the data field of a new CloudEvent.
func Wrap(meta Meta, event any) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("envelope: marshal event: %w", err)
	}
	ce := CloudEvent{
		SpecVersion:     specVersion,
		ID:              uuid.NewString(),
		Source:          meta.Source,
		Type:            meta.Type,
		Time:            time.Now().UTC(),
		DataContentType: dataContentType,
		Topic:           meta.Topic,
		PubSubName:      meta.PubSubName,
		Data:            data,
	}
	out, err := json.Marshal(ce)
	if err != nil {
		return nil, fmt.Errorf("envelope: marshal cloud event: %w", err)
	}
	return out, nil
}

// Classify reports the shape of raw and returns the bytes the event should be
// decoded from. It does not look inside the selected body.
func Classify(raw []byte) (Shape, json.RawMessage) {
	body := bytes.TrimSpace(raw)
	if !isObject(body) {
		return Malformed, nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return Malformed, nil
	}
	if data, ok := fields[DataField]; ok {
		return Nested, data
	}
	return Flat, body
}

// Decode extracts a T from raw following the nested-then-flat policy.
// check, when non-nil, rejects structurally valid but incomplete events.
// On failure the returned shape is Malformed and the error wraps ErrMalformed.
func Decode[T any](raw []byte, check func(*T) error) (T, Shape, error) {
	var zero T

	shape, body := Classify(raw)
	if shape == Malformed {
		return zero, Malformed, fmt.Errorf("%w: body is not a JSON object", ErrMalformed)
	}

	body = bytes.TrimSpace(body)
	if !isObject(body) {
		return zero, Malformed, fmt.Errorf("%w: %s event is not a JSON object", ErrMalformed, shape)
	}

	var evt T
	if err := json.Unmarshal(body, &evt); err != nil {
		return zero, Malformed, fmt.Errorf("%w: %s event: %w", ErrMalformed, shape, err)
	}
	if check != nil {
		if err := check(&evt); err != nil {
			return zero, Malformed, fmt.Errorf("%w: %s event: %w", ErrMalformed, shape, err)
		}
	}
	return evt, shape, nil
}

func isObject(b []byte) bool {
	return len(b) > 0 && b[0] == '{'
}
