package stream

import "errors"

var (
	// ErrMalformedEntry marks entries that can never be processed: missing
	// fields, undecodable values or an unparseable id. They are deleted, not retried.
	ErrMalformedEntry = errors.New("malformed stream entry")

	// ErrMalformedID is returned for ids not in "<ms>-<seq>" form.
	ErrMalformedID = errors.New("malformed stream entry id")

	// ErrMissingField is returned when a required field is absent or empty.
	ErrMissingField = errors.New("missing required field")

	// ErrEmptyFields is returned when appending an entry without fields.
	ErrEmptyFields = errors.New("entry has no fields")

	// ErrEntryNotFound is returned by Get for ids that are not in the stream.
	ErrEntryNotFound = errors.New("stream entry not found")

	// ErrGroupNotFound is returned when reading through a group that does not exist.
	ErrGroupNotFound = errors.New("consumer group not found")
)

// IsMalformed reports whether err marks a permanently malformed entry.
func IsMalformed(err error) bool {
	return isMalformed(err)
}

func isMalformed(err error) bool {
	return errors.Is(err, ErrMalformedEntry)
}
