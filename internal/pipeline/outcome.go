package pipeline

import (
	"encoding/json"
)

// Outcome is the tagged result of one stage: either a typed value or a
// captured failure message. It serializes a failure as {"error": "..."} so
// renderers and persistence can distinguish the two shapes without
// destructuring a partial success.
type Outcome[T any] struct {
	value T
	err   string
}

// Success wraps a stage result value.
func Success[T any](v T) Outcome[T] {
	return Outcome[T]{value: v}
}

// Failure wraps a stage failure message.
func Failure[T any](msg string) Outcome[T] {
	if msg == "" {
		msg = "unknown failure"
	}
	return Outcome[T]{err: msg}
}

// Failed reports whether the stage failed.
func (o Outcome[T]) Failed() bool {
	return o.err != ""
}

// Err returns the failure message, empty on success.
func (o Outcome[T]) Err() string {
	return o.err
}

// Value returns the stage result; the zero value when the stage failed.
func (o Outcome[T]) Value() T {
	return o.value
}

// MarshalJSON implements json.Marshaler.
func (o Outcome[T]) MarshalJSON() ([]byte, error) {
	if o.err != "" {
		return json.Marshal(map[string]string{"error": o.err})
	}
	return json.Marshal(o.value)
}

// UnmarshalJSON implements json.Unmarshaler. A JSON object carrying a
// non-empty "error" string is read back as a failure.
func (o *Outcome[T]) UnmarshalJSON(data []byte) error {
	var probe struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &probe); err == nil && probe.Error != "" {
		*o = Failure[T](probe.Error)
		return nil
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Success(v)
	return nil
}
