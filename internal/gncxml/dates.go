package gncxml

import (
	"time"
)

// The dialect uses exactly two date spellings. They are fixed-format
// strings, never locale-dependent.
const (
	dateLayout = "2006-01-02"
	timeLayout = "2006-01-02 15:04:05 -0700"
)

func parseTimestamp(element, s string) (time.Time, error) {
	if t, err := time.Parse(timeLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, &FormatError{Element: element, Reason: "bad timestamp " + quoted(s), Err: err}
	}
	return t, nil
}

func parseDate(element, s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, &FormatError{Element: element, Reason: "bad date " + quoted(s), Err: err}
	}
	return t, nil
}

func formatTimestamp(t time.Time) string { return t.Format(timeLayout) }

func formatDate(t time.Time) string { return t.Format(dateLayout) }

func quoted(s string) string { return "\"" + s + "\"" }
