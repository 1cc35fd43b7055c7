// Package dates turns free-text date expressions ("next monday", "tomorrow",
// "2025-02-28") into ISO calendar dates.
package dates

import (
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/araddon/dateparse"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// ISOLayout is the calendar-date format persisted to the task database.
const ISOLayout = "2006-01-02"

var weekdays = map[string]time.Weekday{
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
	"sunday":    time.Sunday,
}

var explicitYear = regexp.MustCompile(`\b\d{4}\b`)

// Resolver parses date expressions relative to a reference instant. It is
// safe for concurrent use.
type Resolver struct {
	relative *when.Parser
}

func NewResolver() *Resolver {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return &Resolver{relative: w}
}

// Resolve returns the ISO date text refers to, evaluated at ref in loc. It
// tries an absolute parse, then a relative one, then the next-weekday rule.
// ok is false when nothing matched; callers drop the date instead of failing.
func (r *Resolver) Resolve(text string, ref time.Time, loc *time.Location) (string, bool) {
	if loc == nil {
		loc = ref.Location()
	}
	ref = ref.In(loc)
	text = strings.TrimSpace(text)
	if text == "" {
		return "", false
	}

	if t, ok := parseAbsolute(text, ref, loc); ok {
		return t.Format(ISOLayout), true
	}
	if t, ok := r.parseRelative(text, ref); ok {
		return t.Format(ISOLayout), true
	}
	if t, ok := NextWeekday(text, ref); ok {
		return t.Format(ISOLayout), true
	}
	return "", false
}

// parseAbsolute handles explicit dates. A date without a year is placed in
// the reference year, or the next one if that day has already passed.
func parseAbsolute(text string, ref time.Time, loc *time.Location) (time.Time, bool) {
	t, err := dateparse.ParseIn(text, loc)
	if err != nil {
		return time.Time{}, false
	}
	if t.Year() == 0 {
		t = time.Date(ref.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc)
		if t.Before(startOfDay(ref)) {
			t = t.AddDate(1, 0, 0)
		}
	}
	return t, true
}

// parseRelative evaluates text against noon of ref's calendar day: the
// relative rules shift by multiples of 24h, which would cross midnight on a
// DST change if anchored at ref's wall clock. A month-named date with no
// explicit year that lands before today is moved to next year.
func (r *Resolver) parseRelative(text string, ref time.Time) (time.Time, bool) {
	y, m, d := ref.Date()
	noon := time.Date(y, m, d, 12, 0, 0, 0, ref.Location())

	res, err := r.relative.Parse(text, noon)
	if err != nil || res == nil {
		return time.Time{}, false
	}
	t := res.Time.In(ref.Location())
	if t.Before(startOfDay(ref)) && namesMonth(res.Text) && !explicitYear.MatchString(text) {
		t = t.AddDate(1, 0, 0)
	}
	return t, true
}

func namesMonth(text string) bool {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	for _, w := range words {
		if _, ok := en.MONTH_OFFSET[w]; ok {
			return true
		}
	}
	return false
}

// NextWeekday implements "next <weekday>": when the word "next" and an
// English weekday name both occur anywhere in text, it returns the first
// such weekday strictly after ref (1 to 7 days later, never ref's own day).
func NextWeekday(text string, ref time.Time) (time.Time, bool) {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	})

	hasNext := false
	for _, w := range words {
		if w == "next" {
			hasNext = true
			break
		}
	}
	if !hasNext {
		return time.Time{}, false
	}

	for _, w := range words {
		target, ok := weekdays[w]
		if !ok {
			continue
		}
		daysAhead := (int(target) - int(ref.Weekday()) + 7) % 7
		if daysAhead == 0 {
			daysAhead = 7
		}
		return ref.AddDate(0, 0, daysAhead), true
	}
	return time.Time{}, false
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
