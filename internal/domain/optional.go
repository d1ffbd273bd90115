package domain

import (
	"bytes"
	"encoding/json"
)

// Optional is a patch value for a nullable field. The zero value means "not
// provided". Set with a nil Value means "provided as null" and clears the
// field.
type Optional[T any] struct {
	Set   bool
	Value *T
}

// Some returns a provided, non-null Optional.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: &v}
}

// Null returns a provided Optional that clears the field.
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true}
}

// UnmarshalJSON implements json.Unmarshaler. It is only called when the key
// is present, so an explicit null is recorded as Set with a nil Value.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}
