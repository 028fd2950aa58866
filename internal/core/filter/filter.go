// Package filter decides which records survive: a closed date window then an ordered list of field rules
package filter

import (
	"bufio"
	"os"
	"strings"
	"time"

	"dumpsift/internal/core/normalize"
	"dumpsift/internal/core/record"
	perr "dumpsift/internal/platform/errors"
	pstr "dumpsift/internal/platform/strings"
)

// Mode selects how a field value is compared against rule values
type Mode uint8

const (
	// Exact requires equality with one of the values
	Exact Mode = iota
	// Substring requires one of the values to occur inside the field value
	Substring
)

// String implements fmt.Stringer
func (m Mode) String() string {
	if m == Substring {
		return "substring"
	}
	return "exact"
}

// Polarity says what a match means for the record
type Polarity uint8

const (
	// Include keeps records that match
	Include Polarity = iota
	// Exclude keeps records that do not match
	Exclude
)

// String implements fmt.Stringer
func (p Polarity) String() string {
	if p == Exclude {
		return "exclude"
	}
	return "include"
}

// Rule is one immutable field predicate
type Rule struct {
	field    string
	values   []string
	set      map[string]struct{}
	mode     Mode
	polarity Polarity
}

// NewRule lower-cases values and builds the lookup set for exact mode
func NewRule(field string, values []string, mode Mode, polarity Polarity) (*Rule, error) {
	field = strings.TrimSpace(field)
	if field == "" {
		return nil, perr.InvalidArgf("filter rule needs a field")
	}
	r := &Rule{field: field, values: normalize.LowerAll(pstr.Compact(values)), mode: mode, polarity: polarity}
	if mode == Exact {
		r.set = make(map[string]struct{}, len(r.values))
		for _, v := range r.values {
			r.set[v] = struct{}{}
		}
	}
	return r, nil
}

// Field returns the record field the rule reads
func (r *Rule) Field() string { return r.field }

// Values returns the normalized comparison values
func (r *Rule) Values() []string { return r.values }

// Mode returns the comparison mode
func (r *Rule) Mode() Mode { return r.mode }

// Polarity returns the rule polarity
func (r *Rule) Polarity() Polarity { return r.polarity }

// Pass reports whether rec satisfies the rule
// A missing, null or nested field value fails regardless of polarity
func (r *Rule) Pass(rec record.Record) bool {
	raw, ok := rec.Lookup(r.field)
	if !ok || raw == nil {
		return false
	}
	s, ok := record.Text(raw)
	if !ok {
		return false
	}
	matched := r.match(normalize.Lower(s))
	if r.polarity == Exclude {
		return !matched
	}
	return matched
}

func (r *Rule) match(v string) bool {
	if r.mode == Exact {
		_, ok := r.set[v]
		return ok
	}
	for _, want := range r.values {
		if strings.Contains(v, want) {
			return true
		}
	}
	return false
}

// Window is a closed interval of unix seconds; a zero bound is open
type Window struct {
	From time.Time
	To   time.Time
}

// Contains reports whether from <= created <= to
func (w Window) Contains(created int64) bool {
	if !w.From.IsZero() && created < w.From.Unix() {
		return false
	}
	if !w.To.IsZero() && created > w.To.Unix() {
		return false
	}
	return true
}

// Chain is the full survival test for one record
type Chain struct {
	Window Window
	Rules  []*Rule
}

// Keep checks the date window first, then every rule in order (logical AND)
// The error is a per line error when created_utc is missing or unreadable
func (c *Chain) Keep(rec record.Record) (bool, error) {
	created, err := rec.Created()
	if err != nil {
		return false, err
	}
	if !c.Window.Contains(created) {
		return false, nil
	}
	for _, r := range c.Rules {
		if !r.Pass(rec) {
			return false, nil
		}
	}
	return true, nil
}

// LoadValues reads one value per line from path, trimmed; blank lines are skipped
// Values are returned as written, NewRule lower-cases them
func LoadValues(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, perr.Wrapf(err, perr.ErrorCodeConfig, "values file %s", path)
		}
		return nil, perr.Wrapf(err, perr.ErrorCodeIO, "open values file %s", path)
	}
	defer func() { _ = f.Close() }()

	var out []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	for sc.Scan() {
		if v := strings.TrimSpace(sc.Text()); v != "" {
			out = append(out, v)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeIO, "read values file %s", path)
	}
	return out, nil
}

// ParseDate reads a window bound as YYYY-MM-DD (midnight in loc) or RFC3339
// An empty string yields the zero time, an open bound
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if loc == nil {
		loc = time.UTC
	}
	if t, err := time.ParseInLocation(time.DateOnly, s, loc); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, perr.Configf("date %q is neither YYYY-MM-DD nor RFC3339", s)
	}
	return t, nil
}
