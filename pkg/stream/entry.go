package stream

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Special ids understood by the Log implementations.
const (
	// StartID addresses the very beginning of a stream.
	StartID = "0"
	// NewOnlyID positions a new consumer group after the last existing entry.
	NewOnlyID = "$"
	// RangeStart and RangeEnd are the open bounds of a pending range.
	RangeStart = "-"
	RangeEnd   = "+"
)

// Entry is one immutable record of a stream.
type Entry struct {
	ID     string
	Fields Fields
}

// ID is a parsed stream entry id of the form "<epoch-ms>-<seq>".
// Ids of one stream are strictly increasing.
type ID struct {
	Ms  uint64
	Seq uint64
}

// MaxID is the greatest possible id.
var MaxID = ID{Ms: math.MaxUint64, Seq: math.MaxUint64}

// ParseID parses "<ms>-<seq>". A bare "<ms>" is accepted with seq 0.
func ParseID(s string) (ID, error) {
	msPart, seqPart, hasSeq := strings.Cut(s, "-")
	ms, err := strconv.ParseUint(msPart, 10, 64)
	if err != nil {
		return ID{}, fmt.Errorf("%w: %q", ErrMalformedID, s)
	}
	var seq uint64
	if hasSeq {
		if seq, err = strconv.ParseUint(seqPart, 10, 64); err != nil {
			return ID{}, fmt.Errorf("%w: %q", ErrMalformedID, s)
		}
	}
	return ID{Ms: ms, Seq: seq}, nil
}

// MustParseID is ParseID that panics on malformed input.
func MustParseID(s string) ID {
	id, err := ParseID(s)
	if err != nil {
		panic(err)
	}
	return id
}

func (id ID) String() string {
	return strconv.FormatUint(id.Ms, 10) + "-" + strconv.FormatUint(id.Seq, 10)
}

// Time returns the creation time encoded in the id.
func (id ID) Time() time.Time {
	return time.UnixMilli(int64(id.Ms))
}

// Compare returns -1, 0 or +1 depending on whether id sorts before, equal to
// or after other.
func (id ID) Compare(other ID) int {
	switch {
	case id.Ms < other.Ms:
		return -1
	case id.Ms > other.Ms:
		return 1
	case id.Seq < other.Seq:
		return -1
	case id.Seq > other.Seq:
		return 1
	}
	return 0
}

// Prev returns the greatest id that sorts strictly before id, so that a read
// "after Prev()" starts exactly at id. The zero id has no predecessor and is
// returned unchanged.
func (id ID) Prev() ID {
	switch {
	case id.Seq > 0:
		return ID{Ms: id.Ms, Seq: id.Seq - 1}
	case id.Ms > 0:
		return ID{Ms: id.Ms - 1, Seq: math.MaxUint64}
	}
	return id
}

// CreatedAt extracts the creation time embedded in an entry id.
// Ids that do not parse, or carry a zero timestamp, are malformed.
func CreatedAt(id string) (time.Time, error) {
	parsed, err := ParseID(id)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %w", ErrMalformedEntry, err)
	}
	if parsed.Ms == 0 {
		return time.Time{}, fmt.Errorf("%w: %w: zero timestamp in %q", ErrMalformedEntry, ErrMalformedID, id)
	}
	return parsed.Time(), nil
}

// Age returns how long ago the entry was created, relative to now.
func (e Entry) Age(now time.Time) (time.Duration, error) {
	created, err := CreatedAt(e.ID)
	if err != nil {
		return 0, err
	}
	return now.Sub(created), nil
}

// PrecedingID returns the id right before id, so that a read "after" it
// starts exactly at id.
func PrecedingID(id string) (string, error) {
	parsed, err := ParseID(id)
	if err != nil {
		return "", err
	}
	return parsed.Prev().String(), nil
}
