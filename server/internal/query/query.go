package query

import (
	"fmt"
	"net/url"
	"strings"
)

// Fields lists the recognised query keys in the order they are checked.
var Fields = [...]string{"net", "sta", "loc", "cha", "start", "end"}

// PlotQuery is a fully specified time-series selection. A PlotQuery returned
// by Parse always has all six fields non-empty.
type PlotQuery struct {
	Net   string // network code, e.g. "IU"
	Sta   string // station code, e.g. "ANMO"
	Loc   string // location code, e.g. "00"
	Cha   string // channel code, e.g. "BHZ"
	Start string
	End   string
}

// MissingError reports the first required field that was absent or empty.
type MissingError struct {
	Field string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("query: missing %s", e.Field)
}

// Notice is the user-facing message shown above the input form.
func (e *MissingError) Notice() string {
	return "Missing " + e.Field
}

// Parse extracts the six recognised fields from v. It stops at the first
// field that is absent or empty and returns a *MissingError naming it.
// Unrecognised keys in v are ignored.
func Parse(v url.Values) (PlotQuery, error) {
	var q PlotQuery
	for _, f := range Fields {
		val := v.Get(f)
		if val == "" {
			return PlotQuery{}, &MissingError{Field: f}
		}
		q.set(f, val)
	}
	return q, nil
}

// Values returns exactly the six fields as URL query values.
func (q PlotQuery) Values() url.Values {
	v := make(url.Values, len(Fields))
	for _, f := range Fields {
		v.Set(f, q.get(f))
	}
	return v
}

// Key returns a stable identifier for q, suitable as a cache key.
func (q PlotQuery) Key() string {
	parts := make([]string, 0, len(Fields))
	for _, f := range Fields {
		parts = append(parts, url.QueryEscape(q.get(f)))
	}
	return strings.Join(parts, "|")
}

// String renders q in the conventional NET.STA.LOC.CHA [start, end] form.
func (q PlotQuery) String() string {
	return fmt.Sprintf("%s.%s.%s.%s [%s, %s]", q.Net, q.Sta, q.Loc, q.Cha, q.Start, q.End)
}

func (q PlotQuery) get(field string) string {
	switch field {
	case "net":
		return q.Net
	case "sta":
		return q.Sta
	case "loc":
		return q.Loc
	case "cha":
		return q.Cha
	case "start":
		return q.Start
	case "end":
		return q.End
	}
	return ""
}

func (q *PlotQuery) set(field, val string) {
	switch field {
	case "net":
		q.Net = val
	case "sta":
		q.Sta = val
	case "loc":
		q.Loc = val
	case "cha":
		q.Cha = val
	case "start":
		q.Start = val
	case "end":
		q.End = val
	}
}
