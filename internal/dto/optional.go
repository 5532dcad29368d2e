package dto

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/yukikurage/calibrate-api/internal/utils"
)

var jsonNull = []byte("null")

// Optional records whether a PATCH field was present and whether it was null.
type Optional[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// Some returns a present, non-null Optional.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), jsonNull) {
		o.Null = true
		var zero T
		o.Value = zero
		return nil
	}
	o.Null = false
	return json.Unmarshal(data, &o.Value)
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Set || o.Null {
		return jsonNull, nil
	}
	return json.Marshal(o.Value)
}

// Ptr returns the value when present and non-null.
func (o Optional[T]) Ptr() *T {
	if !o.Set || o.Null {
		return nil
	}
	v := o.Value
	return &v
}

// Minutes is a duration that accepts a JSON number or a numeric string.
// Parse failures are kept in Err so every bad field can be reported at once.
type Minutes struct {
	Value int
	Err   error
}

func (m *Minutes) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		m.Value, m.Err = utils.ParseMinutes(s)
		return nil
	}

	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		m.Value, m.Err = 0, utils.ErrInvalidMinutes
		return nil
	}
	m.Value, m.Err = utils.RoundMinutes(f)
	return nil
}

func (m Minutes) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Value)
}

// FieldErrors collects per-field validation messages for a request.
type FieldErrors map[string]string

// Add records msg for field unless the field already has a message.
func (f FieldErrors) Add(field, msg string) {
	if _, ok := f[field]; !ok {
		f[field] = msg
	}
}

// CheckMinutes records err for field when it is non-nil and returns the value.
func (f FieldErrors) CheckMinutes(field string, m Minutes) int {
	if m.Err != nil {
		f.Add(field, m.Err.Error())
	}
	return m.Value
}

// CheckOptionalMinutes is CheckMinutes for a nullable PATCH field.
func (f FieldErrors) CheckOptionalMinutes(field string, o Optional[Minutes]) *int {
	if !o.Set || o.Null {
		return nil
	}
	v := f.CheckMinutes(field, o.Value)
	return &v
}

// Empty reports whether no field failed.
func (f FieldErrors) Empty() bool {
	return len(f) == 0
}

// ErrNullNotAllowed is reported for PATCH fields that cannot be cleared.
var ErrNullNotAllowed = errors.New("cannot be null")
