// Package timecodec normalises timestamps so that everything written to and
// read from the database is UTC.
package timecodec

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

// NaiveLayout is the textual form used by backends without a timezone-aware
// column type. Fixed width keeps lexical and chronological order identical.
const NaiveLayout = "2006-01-02 15:04:05.000000"

// Precision is the resolution retained by every supported backend.
const Precision = time.Microsecond

var parseLayouts = []string{
	NaiveLayout,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Codec converts application timestamps to their stored form and back.
type Codec struct {
	// Naive strips the zone marker after converting to UTC.
	Naive bool
}

// Encode converts t to UTC. Naive codecs return zone-less text.
func (c Codec) Encode(t time.Time) driver.Value {
	utc := t.UTC().Truncate(Precision)
	if c.Naive {
		return utc.Format(NaiveLayout)
	}
	return utc
}

// Decode re-attaches UTC to a value read from storage.
func (c Codec) Decode(value interface{}) (time.Time, error) {
	return Decode(value)
}

// Decode accepts the representations returned by the supported drivers.
func Decode(value interface{}) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		return v.UTC(), nil
	case string:
		return parse(v)
	case []byte:
		return parse(string(v))
	case nil:
		return time.Time{}, fmt.Errorf("decode timestamp: null value")
	default:
		return time.Time{}, fmt.Errorf("decode timestamp: unsupported type %T", value)
	}
}

func parse(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range parseLayouts {
		// Layouts without a zone parse as UTC.
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("decode timestamp: unrecognised format %q", raw)
}

// UTCTime scans any stored timestamp representation into a UTC time.
type UTCTime struct {
	time.Time
}

// Scan implements sql.Scanner.
func (u *UTCTime) Scan(src interface{}) error {
	t, err := Decode(src)
	if err != nil {
		return err
	}
	u.Time = t
	return nil
}
