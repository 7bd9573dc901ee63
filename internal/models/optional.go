package models

import "encoding/json"

// Optional is a field of a partial update. The zero value is an absent
// field; Set with a nil Value is an explicit null.
type Optional[T any] struct {
	Set   bool
	Value *T
}

func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: &v}
}

func Null[T any]() Optional[T] {
	return Optional[T]{Set: true}
}

// IsNull reports whether the field was present and null.
func (o Optional[T]) IsNull() bool {
	return o.Set && o.Value == nil
}

// Get returns the value and whether one was supplied.
func (o Optional[T]) Get() (T, bool) {
	if !o.Set || o.Value == nil {
		var zero T
		return zero, false
	}
	return *o.Value, true
}

// UnmarshalJSON is only invoked for keys present in the document, which is
// what lets an omitted key stay unset.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
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

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if o.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*o.Value)
}
