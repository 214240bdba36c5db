package models

import (
	"bytes"
	"encoding/json"
)

// Nullable is a patch field that tells an absent key from an explicit null.
// Present with a nil Value clears the field.
type Nullable[T any] struct {
	Present bool
	Value   *T
}

// SetTo is a present, non-null patch value.
func SetTo[T any](v T) Nullable[T] {
	return Nullable[T]{Present: true, Value: &v}
}

// Null is a present patch value that clears the field.
func Null[T any]() Nullable[T] {
	return Nullable[T]{Present: true}
}

// IsZero makes omitzero skip absent fields.
func (n Nullable[T]) IsZero() bool {
	return !n.Present
}

func (n Nullable[T]) MarshalJSON() ([]byte, error) {
	if n.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*n.Value)
}

func (n *Nullable[T]) UnmarshalJSON(b []byte) error {
	n.Present = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		n.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	n.Value = &v
	return nil
}

// applyTo overwrites *dst when the field was present.
func (n Nullable[T]) applyTo(dst **T) {
	if n.Present {
		*dst = n.Value
	}
}
