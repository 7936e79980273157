// Package dates parses the day and timestamp values sent by the SPA and
// normalizes them for storage.
package dates

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson"
)

// ErrInvalid is returned for a value that matches no accepted layout.
var ErrInvalid = errors.New("invalid date")

var layouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// Parse accepts RFC3339 timestamps or YYYY-MM-DD days. Values without a
// zone are read as UTC.
func Parse(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, l := range layouts {
		if t, err := time.Parse(l, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, ErrInvalid
}

// Day truncates t to midnight UTC of its UTC calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today is Day(time.Now()).
func Today() time.Time { return Day(time.Now()) }

// Range is an optional [From, To) window.
type Range struct {
	From *time.Time
	To   *time.Time
}

// IsZero reports whether neither bound is set.
func (r Range) IsZero() bool { return r.From == nil && r.To == nil }

// Filter returns a Mongo condition for the range, or nil when empty.
func (r Range) Filter() bson.M {
	if r.IsZero() {
		return nil
	}
	m := bson.M{}
	if r.From != nil {
		m["$gte"] = *r.From
	}
	if r.To != nil {
		m["$lt"] = *r.To
	}
	return m
}

// Apply sets filter[field] to the range condition when the range is set.
func (r Range) Apply(filter bson.M, field string) {
	if f := r.Filter(); f != nil {
		filter[field] = f
	}
}

// ParseRange reads ?from= and ?to=. A bare "to" day is inclusive: to=2026-03-31
// covers the whole of March 31st.
func ParseRange(r *http.Request) (Range, error) {
	var out Range
	if v := query.Get(r, "from"); v != "" {
		t, err := Parse(v)
		if err != nil {
			return out, err
		}
		out.From = &t
	}
	if v := query.Get(r, "to"); v != "" {
		t, err := Parse(v)
		if err != nil {
			return out, err
		}
		if len(strings.TrimSpace(v)) == len("2006-01-02") {
			t = t.AddDate(0, 0, 1)
		}
		out.To = &t
	}
	return out, nil
}

// MonthStart returns midnight UTC on the first day of t's month.
func MonthStart(t time.Time) time.Time {
	y, m, _ := t.UTC().Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

// Time is a time.Time that decodes from any value Parse accepts, so JSON
// bodies may carry "2026-03-10" as well as full timestamps.
type Time struct{ time.Time }

func (t *Time) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return ErrInvalid
	}
	if s == "" {
		return nil
	}
	v, err := Parse(s)
	if err != nil {
		return err
	}
	t.Time = v
	return nil
}

// Ptr returns the value as *time.Time, or nil when t is nil or zero.
func (t *Time) Ptr() *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	v := t.Time
	return &v
}

// Or returns the value, or def when t is nil or zero.
func (t *Time) Or(def time.Time) time.Time {
	if t == nil || t.IsZero() {
		return def
	}
	return t.Time
}
