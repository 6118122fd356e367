package core

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

const (
	// DateTimeLayout is the wire format: ISO-8601 without offset.
	DateTimeLayout = "2006-01-02T15:04:05"
	// StorageLayout sorts lexicographically in chronological order.
	StorageLayout = "2006-01-02 15:04:05"
)

var acceptedLayouts = []string{
	DateTimeLayout,
	StorageLayout,
	"2006-01-02",
}

// DateTime is a naive wall-clock timestamp with second precision. It carries
// no zone: values are always normalised to UTC and the offset, if any, is
// dropped on input.
type DateTime struct {
	time.Time
}

// NewDateTime builds a DateTime from calendar fields.
func NewDateTime(year, month, day, hour, min, sec int) DateTime {
	return DateTime{Time: time.Date(year, time.Month(month), day, hour, min, sec, 0, time.UTC)}
}

// ParseDateTime accepts the wire layout, the storage layout, a bare date, or
// RFC 3339 (keeping its wall clock).
func ParseDateTime(s string) (DateTime, error) {
	s = strings.TrimSpace(s)
	for _, layout := range acceptedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateTime{Time: t}, nil
		}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return naive(t), nil
	}
	return DateTime{}, fmt.Errorf("%w: invalid date %q", ErrValidation, s)
}

func naive(t time.Time) DateTime {
	return NewDateTime(t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second())
}

func (d DateTime) String() string {
	return d.Format(DateTimeLayout)
}

func (d DateTime) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(DateTimeLayout) + `"`), nil
}

func (d *DateTime) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		d.Time = time.Time{}
		return nil
	}
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("%w: date must be a string", ErrValidation)
	}
	parsed, err := ParseDateTime(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d DateTime) Value() (driver.Value, error) {
	return d.Format(StorageLayout), nil
}

// Scan accepts the storage layout as text, or a time.Time when the driver
// has already converted a TIMESTAMP column.
func (d *DateTime) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*d = naive(v)
		return nil
	case string:
		return d.scanString(v)
	case []byte:
		return d.scanString(string(v))
	case nil:
		d.Time = time.Time{}
		return nil
	default:
		return fmt.Errorf("scan datetime: unsupported type %T", src)
	}
}

func (d *DateTime) scanString(s string) error {
	parsed, err := ParseDateTime(s)
	if err != nil {
		// Driver-formatted timestamps carry fractional seconds and an offset.
		t, terr := time.Parse("2006-01-02 15:04:05.999999999-07:00", s)
		if terr != nil {
			return fmt.Errorf("scan datetime: %w", err)
		}
		parsed = naive(t)
	}
	*d = parsed
	return nil
}

// MonthRange returns the half-open interval [from, to) covering the given
// calendar month. December rolls over to January of the following year.
// Both bounds must have four-digit years so that they compare as stored text,
// which rules out years outside 0-9999 and December 9999.
func MonthRange(year, month int) (from, to DateTime, err error) {
	if month < 1 || month > 12 {
		return DateTime{}, DateTime{}, fmt.Errorf("%w: %d (must be 1-12)", ErrInvalidMonth, month)
	}
	nextYear, nextMonth := year, month+1
	if nextMonth > 12 {
		nextYear, nextMonth = year+1, 1
	}
	if year < 0 || nextYear > 9999 {
		return DateTime{}, DateTime{}, fmt.Errorf("%w: year %d out of range", ErrInvalidMonth, year)
	}
	return NewDateTime(year, month, 1, 0, 0, 0), NewDateTime(nextYear, nextMonth, 1, 0, 0, 0), nil
}
