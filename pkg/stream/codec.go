package stream

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Fields is the flat string map stored with every entry.
type Fields map[string]string

// Require checks that every key is present with a non-empty value. Values are
// not trimmed; codecs that want whitespace-free values normalize them first.
// The error wraps both ErrMalformedEntry and ErrMissingField.
func (f Fields) Require(keys ...string) error {
	var missing []string
	for _, k := range keys {
		if v, ok := f[k]; !ok || v == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %w: %s", ErrMalformedEntry, ErrMissingField, strings.Join(missing, ", "))
	}
	return nil
}

// Clone returns a copy that does not share storage with f.
func (f Fields) Clone() Fields {
	if f == nil {
		return Fields{}
	}
	return maps.Clone(f)
}

// Pairs flattens the map into key, value, key, value... with keys sorted,
// which is the argument order of XADD.
func (f Fields) Pairs() []string {
	keys := slices.Sorted(maps.Keys(f))
	pairs := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		pairs = append(pairs, k, f[k])
	}
	return pairs
}

// Codec maps a typed job payload to and from an entry's field map.
// Decode must return an error wrapping ErrMalformedEntry when the fields
// can never be turned into a valid payload.
type Codec[T any] interface {
	Encode(v T) (Fields, error)
	Decode(f Fields) (T, error)
}

// FieldsCodec is the identity codec for jobs that work on raw fields.
type FieldsCodec struct{}

func (FieldsCodec) Encode(v Fields) (Fields, error) {
	if len(v) == 0 {
		return nil, ErrEmptyFields
	}
	return v.Clone(), nil
}

func (FieldsCodec) Decode(f Fields) (Fields, error) {
	if len(f) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrMalformedEntry, ErrEmptyFields)
	}
	return f.Clone(), nil
}

// Decode runs codec.Decode and guarantees that any failure is classified as
// a malformed entry.
func Decode[T any](codec Codec[T], e Entry) (T, error) {
	v, err := codec.Decode(e.Fields)
	if err != nil {
		var zero T
		if !isMalformed(err) {
			err = fmt.Errorf("%w: %w", ErrMalformedEntry, err)
		}
		return zero, err
	}
	return v, nil
}
