package film

import (
	"bytes"
	"encoding/json"
	"errors"
	"time"
)

const DateLayout = time.DateOnly

var ErrInvalidDate = errors.New("invalid calendar date")

// Date is a calendar date without a time component, kept at midnight UTC.
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// ParseDate accepts exactly the 10 character ISO form, e.g. 2024-03-21.
func ParseDate(s string) (Date, error) {
	if len(s) != len(DateLayout) {
		return Date{}, ErrInvalidDate
	}

	t, err := time.Parse(DateLayout, s)

	if err != nil {
		return Date{}, ErrInvalidDate
	}

	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

// SameMonth reports whether d falls in the calendar month containing t.
func (d Date) SameMonth(t time.Time) bool {
	y, m, _ := t.Date()
	return d.Year() == y && d.Month() == m
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON treats null and "" as the zero date.
func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*d = Date{}
		return nil
	}

	var s string

	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}

	if s == "" {
		*d = Date{}
		return nil
	}

	parsed, err := ParseDate(s)

	if err != nil {
		return err
	}

	*d = parsed
	return nil
}
